// Package framework contains the test-runner side of the harness: a test context similar to
// Go's *testing.T, result accumulation, filtering by test ID, and the lifecycle hooks
// that wrap each test case.
//
// The general model is:
//
// 1. A run is a tree of named tests. Each test gets a Context that records failures and
// debug output, and can be used with testify's assert and require packages.
//
// 2. Test cases that need a prepared environment go through a Fixture, whose set-up and
// tear-down hooks are called around each case, and optionally a GroupFixture whose group
// hooks are called once around a whole group.
//
// 3. A TestLogger reports progress as tests start, fail, finish or are skipped.
package framework
