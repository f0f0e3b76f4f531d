package r3n

import (
	"errors"
	"testing"
)

func TestTestKey(t *testing.T) {
	if got := TestKey("test_x", "pkg.TestX", ""); got != "pkg.TestX::test_x" {
		t.Fatalf("TestKey() = %q", got)
	}
	if got := TestKey("test_x", "pkg.TestX", "case=3"); got != "pkg.TestX::test_x[case=3]" {
		t.Fatalf("TestKey() = %q", got)
	}
}

func TestTrackerObserveAttachesOnce(t *testing.T) {
	store := NewStore([]PolicyRecord{
		{TestName: "test_x", ClassName: "pkg.TestX", MaxRuns: intPtr(3)},
	})
	tracker := NewTracker()

	attrs, err := tracker.Observe(store, "test_x", "pkg.TestX", "")
	if err != nil || attrs == nil {
		t.Fatalf("Observe() = %+v, %v; want attributes", attrs, err)
	}

	// Mid-sequence re-observation must return the same instance with
	// counters intact, never a reset.
	attrs.Commit(OutcomeFail, &Failure{Message: "x"})

	again, err := tracker.Observe(store, "test_x", "pkg.TestX", "")
	if err != nil {
		t.Fatalf("Observe() error = %v, want nil", err)
	}
	if again != attrs {
		t.Fatal("Observe() returned a fresh instance, want the existing one")
	}
	if again.Runs != 1 {
		t.Fatalf("Runs = %d after re-observation, want 1", again.Runs)
	}
}

func TestTrackerParameterisationsAreDistinct(t *testing.T) {
	store := NewStore([]PolicyRecord{{TestName: "test_x", ClassName: "pkg.TestX"}})
	tracker := NewTracker()

	a, _ := tracker.Observe(store, "test_x", "pkg.TestX", "n=1")
	b, _ := tracker.Observe(store, "test_x", "pkg.TestX", "n=2")

	if a == b {
		t.Fatal("distinct parameterisations share attributes")
	}
}

func TestTrackerCachesNonFlaky(t *testing.T) {
	store := NewStore(nil)
	tracker := NewTracker()

	attrs, err := tracker.Observe(store, "test_x", "pkg.TestX", "")
	if attrs != nil || err != nil {
		t.Fatalf("Observe() = %+v, %v; want nil, nil", attrs, err)
	}

	if got, ok := tracker.Get("test_x", "pkg.TestX", ""); !ok || got != nil {
		t.Fatalf("Get() = %+v, %v; want cached nil entry", got, ok)
	}
}

func TestTrackerReportsResolutionErrorOnce(t *testing.T) {
	store := NewStore([]PolicyRecord{
		{TestName: "test_x", ClassName: "pkg.TestX", MinPasses: intPtr(3), MaxRuns: intPtr(2)},
	})
	tracker := NewTracker()

	_, err := tracker.Observe(store, "test_x", "pkg.TestX", "")
	if !errors.Is(err, ErrInvalidPolicy) {
		t.Fatalf("Observe() error = %v, want ErrInvalidPolicy", err)
	}

	// The broken policy is cached as non-flaky; the error is not repeated.
	attrs, err := tracker.Observe(store, "test_x", "pkg.TestX", "")
	if attrs != nil || err != nil {
		t.Fatalf("second Observe() = %+v, %v; want nil, nil", attrs, err)
	}
}

func TestTrackerDiscard(t *testing.T) {
	store := NewStore([]PolicyRecord{{TestName: "test_x", ClassName: "pkg.TestX"}})
	tracker := NewTracker()

	if _, err := tracker.Observe(store, "test_x", "pkg.TestX", ""); err != nil {
		t.Fatalf("Observe() error = %v", err)
	}

	tracker.Discard("test_x", "pkg.TestX", "")

	if _, ok := tracker.Get("test_x", "pkg.TestX", ""); ok {
		t.Fatal("Get() after Discard() still returns an entry")
	}
}
