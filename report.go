package r3n

import (
	"fmt"
	"io"
	"strings"
	"sync"
	"time"
	"unicode/utf8"

	json "github.com/goccy/go-json"
	"github.com/google/uuid"
)

// Report accumulates one human-readable line per attempt for the
// end-of-run summary. It is append-only for the duration of one process
// run and rendered exactly once at the end. Recording never fails; a
// report must not be able to break the run it describes.
//
// A mutex guards the buffer because hosts commonly render the summary
// from a different goroutine (a session-finish hook) than the one that
// recorded attempts.
type Report struct {
	mu    sync.Mutex
	runID string
	lines []string
	att   []AttemptSummary
}

// AttemptSummary is one attempt in the machine-readable run summary.
type AttemptSummary struct {
	Test      string   `json:"test"`
	Attempt   int      `json:"attempt"`
	Outcome   string   `json:"outcome"`
	Remaining int      `json:"remaining"`
	ElapsedMS int64    `json:"elapsed_ms"`
	Error     *Failure `json:"error,omitempty"`
}

// NewReport creates an empty report stamped with a fresh run ID.
func NewReport() *Report {
	return &Report{runID: uuid.NewString()}
}

// RunID returns the identifier correlating this process run's summary
// with the catalog service's records.
func (r *Report) RunID() string { return r.runID }

// RecordAttempt appends one attempt line. remaining is the attempt budget
// left after this attempt; failure is nil for passing attempts.
func (r *Report) RecordAttempt(test string, attempt int, outcome Outcome, remaining int, failure *Failure, elapsed time.Duration) {
	line := fmt.Sprintf("%s: attempt %d %sed", test, attempt, outcome)
	if outcome == OutcomeFail && failure != nil && failure.Message != "" {
		line += ": " + failure.Message
	}

	switch remaining {
	case 0:
		line += " (budget spent)"
	case 1:
		line += " (1 run left)"
	default:
		line += fmt.Sprintf(" (%d runs left)", remaining)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	r.lines = append(r.lines, line)
	r.att = append(r.att, AttemptSummary{
		Test:      test,
		Attempt:   attempt,
		Outcome:   outcome.String(),
		Remaining: remaining,
		ElapsedMS: elapsed.Milliseconds(),
		Error:     failure,
	})
}

// Len returns the number of recorded attempts.
func (r *Report) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()

	return len(r.att)
}

// Render returns the human-readable summary. Empty when no flaky test ran.
func (r *Report) Render() string {
	r.mu.Lock()
	defer r.mu.Unlock()

	if len(r.lines) == 0 {
		return ""
	}

	var b strings.Builder

	fmt.Fprintf(&b, "=== flaky test reruns (run %s) ===\n", r.runID)

	for _, line := range r.lines {
		b.WriteString(line)
		b.WriteByte('\n')
	}

	return b.String()
}

// WriteTo renders the summary into w. Text that is not valid UTF-8 (a
// test failure message may carry arbitrary bytes) is re-encoded lossily,
// replacing invalid sequences, rather than dropping the report.
func (r *Report) WriteTo(w io.Writer) (int64, error) {
	out := r.Render()
	if !utf8.ValidString(out) {
		out = strings.ToValidUTF8(out, string(utf8.RuneError))
	}

	n, err := io.WriteString(w, out)

	return int64(n), err
}

// MarshalJSON renders the machine-readable summary.
func (r *Report) MarshalJSON() ([]byte, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	return json.Marshal(struct {
		RunID    string           `json:"run_id"`
		Attempts []AttemptSummary `json:"attempts"`
	}{RunID: r.runID, Attempts: r.att})
}
