package r3n

// ---------------------------------------------------------------------------
// Rerun decision engine
// ---------------------------------------------------------------------------

// Outcome is the result of one test attempt.
type Outcome int

const (
	// OutcomePass means the attempt succeeded.
	OutcomePass Outcome = iota
	// OutcomeFail means the attempt failed.
	OutcomeFail
)

// String returns "pass" or "fail".
func (o Outcome) String() string {
	if o == OutcomePass {
		return "pass"
	}

	return "fail"
}

// State is the position of a tracked test in the rerun state machine.
type State int

const (
	// StateNotFlaky is terminal: the test carries no attributes and
	// executes exactly once.
	StateNotFlaky State = iota
	// StateAttempting permits (and requires) another attempt.
	StateAttempting
	// StateSatisfied is terminal: enough passes were collected and the
	// test is reported as passed regardless of earlier failures.
	StateSatisfied
	// StateExhausted is terminal: the attempt budget is spent without
	// reaching the required pass count; the test is reported as failed
	// with the last recorded failure as the cause.
	StateExhausted
)

// String returns the lower-case state name.
func (s State) String() string {
	switch s {
	case StateAttempting:
		return "attempting"
	case StateSatisfied:
		return "satisfied"
	case StateExhausted:
		return "exhausted"
	default:
		return "not_flaky"
	}
}

// Decision is the engine's verdict after one completed attempt.
type Decision struct {
	// State the test transitions into once the attempt is committed.
	State State
	// Rerun reports whether another attempt must be executed.
	Rerun bool
	// SuppressLog reports whether the host must keep this attempt's
	// outcome out of its normal pass/fail stream. Intermediate attempts
	// are suppressed; only the final outcome reaches the normal channel.
	SuppressLog bool
}

// decide maps post-attempt counters onto a Decision. The rerun predicate
// is runs < maxRuns && passes < minPasses; satisfaction is checked first
// so a test never exhausts on the attempt that satisfied it.
func decide(runs, passes, maxRuns, minPasses int) Decision {
	switch {
	case passes >= minPasses:
		return Decision{State: StateSatisfied}
	case runs >= maxRuns:
		return Decision{State: StateExhausted}
	default:
		return Decision{State: StateAttempting, Rerun: true, SuppressLog: true}
	}
}

// Preview computes the decision for an attempt with the given outcome
// without mutating any counters. Hosts that must choose whether to
// suppress a per-attempt log line before the attempt is durably recorded
// call Preview first and [Attributes.Commit] after; the two use identical
// arithmetic and always agree.
//
// A nil receiver is a test without attributes: not flaky, never rerun.
func (a *Attributes) Preview(outcome Outcome) Decision {
	if a == nil {
		return Decision{State: StateNotFlaky}
	}

	runs := a.Runs + 1

	passes := a.Passes
	if outcome == OutcomePass {
		passes++
	}

	return decide(runs, passes, a.MaxRuns, a.MinPasses)
}

// Commit records a completed attempt: it increments the run counter,
// credits a pass or appends the failure record, and returns the same
// decision Preview would have produced for this attempt.
func (a *Attributes) Commit(outcome Outcome, failure *Failure) Decision {
	if a == nil {
		return Decision{State: StateNotFlaky}
	}

	decision := a.Preview(outcome)

	a.Runs++

	switch outcome {
	case OutcomePass:
		a.Passes++
	case OutcomeFail:
		var f Failure
		if failure != nil {
			f = *failure
		}

		a.Failures = append(a.Failures, f)
	}

	return decision
}

// State returns the current position in the state machine, from the
// committed counters alone. Before any attempt it is StateAttempting.
func (a *Attributes) State() State {
	if a == nil {
		return StateNotFlaky
	}

	return decide(a.Runs, a.Passes, a.MaxRuns, a.MinPasses).State
}
