package r3n

import (
	"errors"
	"strings"
)

// PolicyRecord is one catalog entry describing a known-flaky test and its
// optional threshold overrides. Nil pointer fields mean "use the process
// defaults".
type PolicyRecord struct {
	TestName  string `json:"test_name" yaml:"test_name"`
	ClassName string `json:"class_name" yaml:"class_name"`
	MinPasses *int   `json:"min_passes,omitempty" yaml:"min_passes,omitempty"`
	MaxRuns   *int   `json:"max_runs,omitempty" yaml:"max_runs,omitempty"`
}

// Store holds the fetched flaky-test catalog. It is populated once, before
// any test executes, and is read-only afterwards, so lookups need no
// synchronisation.
type Store struct {
	records map[string]PolicyRecord
}

// NewStore builds a Store from catalog records. Records without a test
// name are dropped; duplicate names are last-write-wins (the catalog is
// not expected to contain duplicates within one repo/job scope).
func NewStore(records []PolicyRecord) *Store {
	s := &Store{records: make(map[string]PolicyRecord, len(records))}

	for _, rec := range records {
		if rec.TestName == "" {
			continue
		}

		s.records[rec.TestName] = rec
	}

	return s
}

// Len returns the number of catalog entries held.
func (s *Store) Len() int {
	if s == nil {
		return 0
	}

	return len(s.records)
}

// Lookup returns the catalog record matching a test, if any. The test
// name must match exactly; the record's class name must be a substring of
// the locally computed fully-qualified class name. The containment check
// (rather than equality) tolerates namespace prefixes differing between
// the catalog and the local runner. It can false-positive on pathological
// names; that looseness is intentional and kept as-is.
func (s *Store) Lookup(testName, className string) (PolicyRecord, bool) {
	if s == nil {
		return PolicyRecord{}, false
	}

	rec, ok := s.records[testName]
	if !ok {
		return PolicyRecord{}, false
	}

	if !strings.Contains(className, rec.ClassName) {
		return PolicyRecord{}, false
	}

	return rec, true
}

// Resolve looks a test up and, on a match, resolves its effective rerun
// attributes. A miss returns (nil, nil): the test is not flaky and runs
// exactly once. A record with invalid thresholds returns an
// [InvalidPolicyError] carrying the test name; the error is scoped to
// that single test, which then also runs exactly once.
func (s *Store) Resolve(testName, className string) (*Attributes, error) {
	rec, ok := s.Lookup(testName, className)
	if !ok {
		return nil, nil
	}

	attrs, err := DefaultAttributes(rec.MaxRuns, rec.MinPasses)
	if err != nil {
		var ipe *InvalidPolicyError
		if errors.As(err, &ipe) {
			ipe.TestName = rec.TestName
		}

		return nil, err
	}

	return attrs, nil
}
