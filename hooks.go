package r3n

// Hooks holds optional callback functions for rerun lifecycle events. All
// fields are nil by default; callers set only the hooks they care about.
// Once constructed, a Hooks value must not be mutated — emit methods read
// the function fields without synchronisation, which is safe as long as
// the struct is read-only after initialisation.
//
// Pattern: Observer — decouples rerun event emission from consumers
// (logging, metrics, CI annotations) without the engine knowing about
// observers.
type Hooks struct {
	// OnAttempt fires after every committed attempt, suppressed or not.
	OnAttempt func(test string, attempt int, outcome Outcome)
	// OnRerun fires when the engine grants another attempt.
	OnRerun func(test string, attempt int, remaining int)
	// OnSatisfied fires when a test reaches its required pass count.
	OnSatisfied func(test string, attempts int)
	// OnExhausted fires when a test spends its budget without enough
	// passes; last is the failure reported as the cause.
	OnExhausted func(test string, attempts int, last Failure)
	// OnPolicyRejected fires when a catalog record's thresholds fail
	// validation; the test falls back to a single non-flaky execution.
	OnPolicyRejected func(test string, err error)
}

func (h *Hooks) emitAttempt(test string, attempt int, outcome Outcome) {
	if h.OnAttempt != nil {
		h.OnAttempt(test, attempt, outcome)
	}
}

func (h *Hooks) emitRerun(test string, attempt, remaining int) {
	if h.OnRerun != nil {
		h.OnRerun(test, attempt, remaining)
	}
}

func (h *Hooks) emitSatisfied(test string, attempts int) {
	if h.OnSatisfied != nil {
		h.OnSatisfied(test, attempts)
	}
}

func (h *Hooks) emitExhausted(test string, attempts int, last Failure) {
	if h.OnExhausted != nil {
		h.OnExhausted(test, attempts, last)
	}
}

func (h *Hooks) emitPolicyRejected(test string, err error) {
	if h.OnPolicyRejected != nil {
		h.OnPolicyRejected(test, err)
	}
}
