package catalog

import "testing"

func clearCIEnv(t *testing.T) {
	t.Helper()

	for _, key := range []string{
		"CIRCLE_JOB", "CIRCLE_PROJECT_USERNAME", "CIRCLE_PROJECT_REPONAME",
		"BUILDKITE_PIPELINE_SLUG", "BUILDKITE_REPO",
	} {
		t.Setenv(key, "")
	}
}

func TestDetectCICircleCI(t *testing.T) {
	clearCIEnv(t)
	t.Setenv("CIRCLE_JOB", "unit")
	t.Setenv("CIRCLE_PROJECT_USERNAME", "acme")
	t.Setenv("CIRCLE_PROJECT_REPONAME", "widgets")

	repo, job := DetectCI()
	if repo != "acme/widgets" {
		t.Fatalf("repo = %q, want %q", repo, "acme/widgets")
	}
	if job != "ci/circleci:unit" {
		t.Fatalf("job = %q, want %q", job, "ci/circleci:unit")
	}
}

func TestDetectCIBuildkite(t *testing.T) {
	clearCIEnv(t)
	t.Setenv("BUILDKITE_PIPELINE_SLUG", "widgets-tests")
	t.Setenv("BUILDKITE_REPO", "git@github.com:acme/widgets.git")

	repo, job := DetectCI()
	if repo != "acme/widgets" {
		t.Fatalf("repo = %q, want %q", repo, "acme/widgets")
	}
	if job != "buildkite/widgets-tests" {
		t.Fatalf("job = %q, want %q", job, "buildkite/widgets-tests")
	}
}

func TestDetectCIBuildkiteWinsWhenBothSet(t *testing.T) {
	clearCIEnv(t)
	t.Setenv("CIRCLE_JOB", "unit")
	t.Setenv("CIRCLE_PROJECT_USERNAME", "acme")
	t.Setenv("CIRCLE_PROJECT_REPONAME", "widgets")
	t.Setenv("BUILDKITE_PIPELINE_SLUG", "widgets-tests")
	t.Setenv("BUILDKITE_REPO", "git@github.com:acme/other.git")

	repo, job := DetectCI()
	if repo != "acme/other" || job != "buildkite/widgets-tests" {
		t.Fatalf("got %q/%q, want buildkite coordinates", repo, job)
	}
}

func TestDetectCIOutsideCI(t *testing.T) {
	clearCIEnv(t)

	repo, job := DetectCI()
	if repo != "" || job != "" {
		t.Fatalf("got %q/%q, want empty outside CI", repo, job)
	}
}

func TestFromEnvUsesOverrides(t *testing.T) {
	clearCIEnv(t)
	t.Setenv(EnvBaseURL, "https://catalog.internal/v1/flaky-tests")
	t.Setenv(EnvToken, "tok")
	t.Setenv("CIRCLE_JOB", "unit")
	t.Setenv("CIRCLE_PROJECT_USERNAME", "acme")
	t.Setenv("CIRCLE_PROJECT_REPONAME", "widgets")

	cfg := FromEnv()
	if cfg.BaseURL != "https://catalog.internal/v1/flaky-tests" {
		t.Fatalf("BaseURL = %q", cfg.BaseURL)
	}
	if cfg.Token != "tok" {
		t.Fatalf("Token = %q", cfg.Token)
	}
	if cfg.RepoName != "acme/widgets" || cfg.JobName != "ci/circleci:unit" {
		t.Fatalf("scope = %q/%q", cfg.RepoName, cfg.JobName)
	}
}
