package r3n

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"time"
)

// Marker is the tag a host runner can register so tests eligible for
// rerun treatment are identifiable in its UI. The marker is informational
// only: any test whose name matches the fetched catalog receives rerun
// treatment, marked or not.
const Marker = "flaky"

// TestCase identifies one test execution instance to the engine.
type TestCase struct {
	// Name is the bare test name, matched exactly against the catalog.
	Name string
	// ClassName is the fully-qualified class or suite name
	// (module/namespace + class) computed by the host runner.
	ClassName string
	// Params is the parameter signature for parameterised tests, empty
	// otherwise. Two parameterisations of one test are distinct
	// instances with independent counters.
	Params string
}

// Key returns the stable identity key for this test instance.
func (tc TestCase) Key() string { return TestKey(tc.Name, tc.ClassName, tc.Params) }

// Runner drives the rerun policy for one process run. It owns the policy
// store, the per-test attribute tracker, and the report accumulator, and
// exposes the three hooks a host runner integrates with: OnTestStart,
// OnAttemptComplete, and Summary.
//
// A Runner is single-goroutine by design: one test executes to completion,
// including all its reruns, before the next begins. Rerun decisions depend
// on strictly sequential history, so there is nothing to lock.
type Runner struct {
	store   *Store
	tracker *Tracker
	report  *Report
	hooks   Hooks
	clock   Clock
	logger  *slog.Logger
}

// RunnerOption configures a Runner.
type RunnerOption func(*Runner)

// WithHooks sets the lifecycle hooks invoked around rerun decisions.
func WithHooks(h Hooks) RunnerOption {
	return func(r *Runner) { r.hooks = h }
}

// WithClock sets the clock used to time attempts for the report.
func WithClock(c Clock) RunnerOption {
	return func(r *Runner) { r.clock = c }
}

// WithLogger sets the structured logger. The default discards.
func WithLogger(l *slog.Logger) RunnerOption {
	return func(r *Runner) { r.logger = l }
}

// NewRunner creates a Runner over a fetched policy store. A nil store is
// an empty catalog: every test runs exactly once.
func NewRunner(store *Store, opts ...RunnerOption) *Runner {
	r := &Runner{
		store:   store,
		tracker: NewTracker(),
		report:  NewReport(),
		clock:   RealClock{},
		logger:  slog.New(slog.NewTextHandler(io.Discard, nil)),
	}

	for _, opt := range opts {
		opt(r)
	}

	return r
}

// Store returns the policy store backing this runner.
func (r *Runner) Store() *Store { return r.store }

// Report returns the accumulating run report.
func (r *Runner) Report() *Report { return r.report }

// Summary implements the host's end-of-run hook: it renders the attempt
// summary exactly once, empty when no flaky test ran.
func (r *Runner) Summary() string { return r.report.Render() }

// OnTestStart implements the host's "about to execute" hook. It attaches
// rerun attributes the first time a catalog-matched test is seen and
// reports whether the test is tracked as flaky. Re-invocation for the
// same instance never resets counters.
//
// A catalog record with invalid thresholds is rejected here: the error is
// logged and emitted once, and that one test proceeds as non-flaky.
func (r *Runner) OnTestStart(tc TestCase) bool {
	attrs, err := r.tracker.Observe(r.store, tc.Name, tc.ClassName, tc.Params)
	if err != nil {
		r.logger.Warn("rerun policy rejected, test will run once",
			"test", tc.Key(), "err", err)
		r.hooks.emitPolicyRejected(tc.Name, err)

		return false
	}

	return attrs != nil
}

// OnAttemptComplete implements the explicit per-attempt callback the host
// invokes in place of patching its own reporting internals. It commits
// the attempt and returns the decision: whether to rerun and whether to
// keep this attempt out of the normal pass/fail stream.
//
// For tests without attributes the decision is terminal NotFlaky with
// normal reporting.
func (r *Runner) OnAttemptComplete(tc TestCase, outcome Outcome, failure *Failure) Decision {
	return r.attemptComplete(tc, outcome, failure, 0)
}

func (r *Runner) attemptComplete(tc TestCase, outcome Outcome, failure *Failure, elapsed time.Duration) Decision {
	attrs, tracked := r.tracker.Get(tc.Name, tc.ClassName, tc.Params)
	if !tracked || attrs == nil {
		return Decision{State: StateNotFlaky}
	}

	decision := attrs.Commit(outcome, failure)

	attempt := attrs.Runs
	remaining := attrs.Remaining()

	r.report.RecordAttempt(tc.Name, attempt, outcome, remaining, failure, elapsed)
	r.hooks.emitAttempt(tc.Name, attempt, outcome)

	switch decision.State {
	case StateAttempting:
		r.logger.Debug("rerunning flaky test",
			"test", tc.Key(), "attempt", attempt, "remaining", remaining)
		r.hooks.emitRerun(tc.Name, attempt, remaining)
	case StateSatisfied:
		r.hooks.emitSatisfied(tc.Name, attempt)
		r.tracker.Discard(tc.Name, tc.ClassName, tc.Params)
	case StateExhausted:
		last, _ := attrs.LastFailure()
		r.hooks.emitExhausted(tc.Name, attempt, last)
		r.tracker.Discard(tc.Name, tc.ClassName, tc.Params)
	}

	return decision
}

// Run executes fn through the whole rerun loop and surfaces only the
// final outcome. A test absent from the catalog executes exactly once and
// its error is returned untouched. A tracked test is re-executed while
// the engine grants attempts; Satisfied returns nil regardless of earlier
// failures, Exhausted returns the last attempt's error wrapped in
// [ErrAttemptsExhausted].
//
// Cancellation is inherited from ctx exactly as the host's own timeout
// mechanism would apply to a single execution; the loop adds none.
func (r *Runner) Run(ctx context.Context, tc TestCase, fn func(context.Context) error) error {
	if !r.OnTestStart(tc) {
		return fn(ctx)
	}

	var lastErr error

	for {
		start := r.clock.Now()
		err := fn(ctx)
		elapsed := r.clock.Since(start)

		outcome := OutcomePass
		if err != nil {
			outcome = OutcomeFail
			lastErr = err
		}

		decision := r.attemptComplete(tc, outcome, NewFailure(err), elapsed)

		switch decision.State {
		case StateAttempting:
			continue
		case StateSatisfied:
			return nil
		case StateExhausted:
			return fmt.Errorf("%w: %w", ErrAttemptsExhausted, lastErr)
		default:
			return err
		}
	}
}
