package r3n

// TestKey derives the stable identity key for one test execution
// instance: fully-qualified class name, test name, and the parameter
// signature for parameterised tests.
func TestKey(testName, className, params string) string {
	key := className + "::" + testName
	if params != "" {
		key += "[" + params + "]"
	}

	return key
}

// Tracker owns the mapping from test identity to rerun attributes for the
// duration of a run. It replaces ad hoc attribute stashing on foreign
// test objects with an explicit map owned by the orchestration loop.
//
// Not safe for concurrent use; test execution is serialized per test, so
// the loop driving a test owns its entry exclusively.
type Tracker struct {
	attrs map[string]*Attributes
}

// NewTracker creates an empty tracker.
func NewTracker() *Tracker {
	return &Tracker{attrs: make(map[string]*Attributes)}
}

// Observe resolves and attaches attributes the first time a test is seen.
// Re-observing the same test instance returns the existing attributes
// unchanged; counters never reset mid-sequence. A test with no matching
// catalog record observes as (nil, nil) and is cached as not flaky.
//
// A resolution error is cached the same way: that one test degrades to a
// single non-flaky execution, and the error is reported once.
func (t *Tracker) Observe(store *Store, testName, className, params string) (*Attributes, error) {
	key := TestKey(testName, className, params)

	if attrs, seen := t.attrs[key]; seen {
		return attrs, nil
	}

	attrs, err := store.Resolve(testName, className)

	t.attrs[key] = attrs

	return attrs, err
}

// Get returns the attributes attached to a test, if any. The second
// return is false when the test was never observed or already discarded.
func (t *Tracker) Get(testName, className, params string) (*Attributes, bool) {
	attrs, ok := t.attrs[TestKey(testName, className, params)]

	return attrs, ok
}

// Discard drops a test's attributes once its rerun loop has terminated.
// Attributes never outlive the loop that owns them.
func (t *Tracker) Discard(testName, className, params string) {
	delete(t.attrs, TestKey(testName, className, params))
}
