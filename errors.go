package r3n

import "strconv"

// ---------------------------------------------------------------------------
// Error classification
// ---------------------------------------------------------------------------.

type (
	// rerunError is the concrete type backing all sentinel errors.
	rerunError string
)

// Sentinel rerun errors.
var (
	// ErrInvalidPolicy is returned when a resolved rerun policy violates
	// the ordering invariant (min_passes must be positive and must not
	// exceed max_runs).
	ErrInvalidPolicy error = rerunError("invalid rerun policy")
	// ErrAttemptsExhausted is returned by the rerun loop when the attempt
	// budget has been used without reaching the required pass count.
	ErrAttemptsExhausted error = rerunError("attempt budget exhausted")
)

func (e rerunError) Error() string { return string(e) }

// InvalidPolicyError reports the concrete threshold values that violated
// the policy ordering invariant. It unwraps to [ErrInvalidPolicy] so
// callers can match it with errors.Is.
type InvalidPolicyError struct {
	// TestName is the catalog entry whose policy failed to resolve.
	// Empty when thresholds were supplied directly.
	TestName  string
	MaxRuns   int
	MinPasses int
}

// Error returns a human-readable description of the invalid thresholds.
func (e *InvalidPolicyError) Error() string {
	msg := "r3n: invalid rerun policy"
	if e.TestName != "" {
		msg += " for " + strconv.Quote(e.TestName)
	}

	msg += ": min_passes=" + strconv.Itoa(e.MinPasses) +
		" max_runs=" + strconv.Itoa(e.MaxRuns)

	if e.MinPasses <= 0 {
		return msg + " (min_passes must be positive)"
	}

	return msg + " (min_passes cannot exceed max_runs)"
}

// Unwrap makes the error match ErrInvalidPolicy via errors.Is.
func (e *InvalidPolicyError) Unwrap() error { return ErrInvalidPolicy }
