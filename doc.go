// Package r3n supplements an existing test runner with an adaptive rerun
// policy for flaky tests.
//
// The central type is Runner, which consumes per-attempt outcomes from a
// host test runner and decides, for each test, whether it should be
// executed again. Decisions are driven by a catalog of known-flaky tests
// fetched once per run from a remote service (see the catalog subpackage),
// with per-test attempt budgets and required pass counts.
package r3n
