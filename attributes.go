package r3n

import "fmt"

// Process-wide threshold defaults, applied when a catalog record carries
// no override.
const (
	// DefaultMaxRuns is the attempt budget used when the catalog record
	// does not override it.
	DefaultMaxRuns = 2
	// DefaultMinPasses is the required pass count used when the catalog
	// record does not override it.
	DefaultMinPasses = 1
)

// Failure captures the error detail of one failed attempt. For Go errors
// Type is the dynamic error type and Trace an optional stack; hosts
// bridging other runtimes fill the fields from their own error model.
type Failure struct {
	Type    string `json:"type,omitempty"`
	Message string `json:"message"`
	Trace   string `json:"trace,omitempty"`
}

// NewFailure builds a Failure from an attempt error. Returns nil for nil.
func NewFailure(err error) *Failure {
	if err == nil {
		return nil
	}

	return &Failure{
		Type:    errTypeName(err),
		Message: err.Error(),
	}
}

// Attributes holds the mutable rerun state of a single tracked test
// execution. Counters are mutated exclusively through [Attributes.Commit];
// the orchestration loop owns each instance for its whole lifetime, so no
// synchronisation is needed.
type Attributes struct {
	// Runs is the number of completed attempts.
	Runs int
	// Passes is the number of attempts that succeeded. Passes <= Runs.
	Passes int
	// Failures records one entry per failed attempt, in order.
	Failures []Failure
	// MaxRuns is the attempt budget ceiling. Always >= 1.
	MaxRuns int
	// MinPasses is the number of successes required to stop early.
	// Always >= 1 and <= MaxRuns.
	MinPasses int
}

// DefaultAttributes resolves the effective rerun thresholds for a flaky
// test. Nil overrides fall back to [DefaultMaxRuns] and [DefaultMinPasses].
// Configurations violating the ordering invariant are rejected with
// [InvalidPolicyError], never silently clamped.
func DefaultAttributes(maxRuns, minPasses *int) (*Attributes, error) {
	mr := DefaultMaxRuns
	if maxRuns != nil {
		mr = *maxRuns
	}

	mp := DefaultMinPasses
	if minPasses != nil {
		mp = *minPasses
	}

	if mp <= 0 || mr < mp {
		return nil, &InvalidPolicyError{MaxRuns: mr, MinPasses: mp}
	}

	return &Attributes{MaxRuns: mr, MinPasses: mp}, nil
}

// LastFailure returns the most recent recorded failure.
// It reports false when no attempt has failed yet.
func (a *Attributes) LastFailure() (Failure, bool) {
	if a == nil || len(a.Failures) == 0 {
		return Failure{}, false
	}

	return a.Failures[len(a.Failures)-1], true
}

// Remaining returns the number of attempts left in the budget.
func (a *Attributes) Remaining() int {
	if a == nil {
		return 0
	}

	if left := a.MaxRuns - a.Runs; left > 0 {
		return left
	}

	return 0
}

// errTypeName names the dynamic type of err, unwrapping nothing.
func errTypeName(err error) string {
	return fmt.Sprintf("%T", err)
}
