// Package catalog fetches the known-flaky-test catalog from the remote
// flakiness service and seeds the rerun policy store with it.
//
// The fetch is one-shot, made before any test executes, and fails open: a
// flakiness-service outage must never block or alter ordinary test
// execution beyond disabling the optional rerun feature.
package catalog

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"

	json "github.com/goccy/go-json"

	"github.com/quessa/r3n"
)

// DefaultBaseURL is the catalog endpoint used when neither Config.BaseURL
// nor the environment overrides it.
const DefaultBaseURL = "https://api.r3n.dev/v1/flaky-tests"

// Environment variables consulted by [FromEnv].
const (
	EnvBaseURL = "R3N_API_URL"
	EnvToken   = "R3N_API_TOKEN"
)

// ErrFetchFailed indicates the catalog could not be retrieved or decoded.
// It is never returned to callers of [Fetch]; it reaches them only
// through Config.OnError and the log, since the failure degrades to an
// empty catalog.
var ErrFetchFailed = errors.New("catalog: fetch failed")

// Config carries everything one fetch needs. The zero value works:
// default endpoint, no token, no CI coordinates.
type Config struct {
	// BaseURL is the catalog endpoint. Empty means DefaultBaseURL.
	BaseURL string
	// Token is sent as a bearer token. Empty sends no Authorization.
	Token string
	// RepoName and JobName scope the catalog to one repo/job; both are
	// passed through as opaque query parameters.
	RepoName string
	JobName  string
	// RunID, when set, is sent along for server-side correlation with
	// the run report.
	RunID string
	// HTTPClient overrides http.DefaultClient.
	HTTPClient *http.Client
	// Logger receives the fail-open log line. Nil discards.
	Logger *slog.Logger
	// OnError observes the degraded-fetch error, for hosts that surface
	// it in their own diagnostics. Nil ignores.
	OnError func(error)
}

// FromEnv builds a Config from the process environment: endpoint and
// token from the override variables, repo and job coordinates from the
// detected CI provider.
func FromEnv() Config {
	repo, job := DetectCI()

	return Config{
		BaseURL:  envOr(EnvBaseURL, ""),
		Token:    envOr(EnvToken, ""),
		RepoName: repo,
		JobName:  job,
	}
}

// response is the catalog wire format.
type response struct {
	FlakyTests []r3n.PolicyRecord `json:"flaky_tests"`
}

// Fetch performs the one-shot catalog request and returns the fetched
// records. It never returns an error: any transport failure, non-2xx
// status, or malformed body degrades to an empty catalog, logged and
// reported through Config.OnError. Records without a test name are
// dropped.
func Fetch(ctx context.Context, cfg Config) []r3n.PolicyRecord {
	base := cfg.BaseURL
	if base == "" {
		base = DefaultBaseURL
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, base, nil)
	if err != nil {
		return failOpen(cfg, fmt.Errorf("%w: %w", ErrFetchFailed, err))
	}

	q := url.Values{}
	q.Set("repo_name", cfg.RepoName)
	q.Set("job_name", cfg.JobName)

	if cfg.RunID != "" {
		q.Set("run_id", cfg.RunID)
	}

	req.URL.RawQuery = q.Encode()

	req.Header.Set("Content-Type", "application/json")
	if cfg.Token != "" {
		req.Header.Set("Authorization", "Bearer "+cfg.Token)
	}

	client := cfg.HTTPClient
	if client == nil {
		client = http.DefaultClient
	}

	resp, err := client.Do(req)
	if err != nil {
		return failOpen(cfg, fmt.Errorf("%w: %w", ErrFetchFailed, err))
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return failOpen(cfg, fmt.Errorf("%w: http status %d", ErrFetchFailed, resp.StatusCode))
	}

	var body response
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return failOpen(cfg, fmt.Errorf("%w: decode: %w", ErrFetchFailed, err))
	}

	records := make([]r3n.PolicyRecord, 0, len(body.FlakyTests))

	for _, rec := range body.FlakyTests {
		if rec.TestName == "" {
			continue
		}

		records = append(records, rec)
	}

	return records
}

// FetchStore is a convenience that fetches the catalog and seeds a policy
// store with it in one call.
func FetchStore(ctx context.Context, cfg Config) *r3n.Store {
	return r3n.NewStore(Fetch(ctx, cfg))
}

// failOpen records the degraded fetch and returns the empty catalog.
func failOpen(cfg Config, err error) []r3n.PolicyRecord {
	if cfg.Logger != nil {
		cfg.Logger.Warn("flaky-test catalog unavailable, reruns disabled", "err", err)
	}

	if cfg.OnError != nil {
		cfg.OnError(err)
	}

	return nil
}
