package catalog

import (
	"os"
	"strings"
)

// Job-name prefixes matching the naming scheme the catalog service uses
// per CI provider.
const (
	circleCIJobPrefix  = "ci/circleci:"
	buildkiteJobPrefix = "buildkite/"
)

// DetectCI derives the repo and job coordinates from the CI provider's
// environment. CircleCI and Buildkite are recognised, by presence of
// their provider-specific variables; Buildkite wins when both are set.
// Outside any known CI both values are empty, which the catalog service
// treats as an unscoped query.
func DetectCI() (repoName, jobName string) {
	if job := os.Getenv("CIRCLE_JOB"); job != "" {
		// https://circleci.com/docs/2.0/env-vars/#built-in-environment-variables
		jobName = circleCIJobPrefix + job
		repoName = os.Getenv("CIRCLE_PROJECT_USERNAME") + "/" +
			os.Getenv("CIRCLE_PROJECT_REPONAME")
	}

	if slug := os.Getenv("BUILDKITE_PIPELINE_SLUG"); slug != "" {
		// BUILDKITE_REPO has the form "git@github.com:{repo_name}.git".
		jobName = buildkiteJobPrefix + slug
		repoName = strings.TrimSuffix(
			strings.TrimPrefix(os.Getenv("BUILDKITE_REPO"), "git@github.com:"),
			".git",
		)
	}

	return repoName, jobName
}

// envOr returns the variable's value or a default when unset or empty.
func envOr(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}

	return def
}
