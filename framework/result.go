package framework

import (
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"
)

type Results struct {
	Tests    []TestResult
	Failures []TestResult
}

type TestResult struct {
	TestID  TestID
	Errors  []error
	Skipped bool
}

func (r Results) OK() bool {
	return len(r.Failures) == 0
}

// Merge adds the results of another run, such as one produced by a parallel worker. A
// test that both runs report, like a group every worker opens, is counted once; its
// errors are combined and it stays skipped only if both runs skipped it.
func (r *Results) Merge(other Results) {
	r.Tests = mergeByID(r.Tests, other.Tests)
	r.Failures = mergeByID(r.Failures, other.Failures)
}

func mergeByID(into, from []TestResult) []TestResult {
	for _, t := range from {
		found := false
		for i := range into {
			if into[i].TestID.String() == t.TestID.String() {
				into[i].Errors = append(into[i].Errors, t.Errors...)
				into[i].Skipped = into[i].Skipped && t.Skipped
				found = true
				break
			}
		}
		if !found {
			into = append(into, t)
		}
	}
	return into
}

// Skipped returns the number of tests that were skipped after they started.
func (r Results) Skipped() int {
	n := 0
	for _, t := range r.Tests {
		if t.Skipped {
			n++
		}
	}
	return n
}

type TestID struct {
	Path []string
}

// Plus returns the ID of a subtest of t.
func (t TestID) Plus(name string) TestID {
	return TestID{Path: append(append([]string(nil), t.Path...), name)}
}

func (t TestID) String() string {
	return strings.Join(t.Path, "/")
}

type TestFailure struct {
	ID  TestID
	Err error
}

func (f TestFailure) Error() string {
	return fmt.Sprintf("[%s]: %s", f.ID, f.Err)
}

// PrintResults writes a summary of the run, listing every failed test with its errors.
func PrintResults(w io.Writer, results Results) {
	red := color.New(color.FgRed).SprintFunc()
	green := color.New(color.FgGreen).SprintFunc()

	if results.OK() {
		fmt.Fprintln(w, green(fmt.Sprintf("All tests passed (%d run, %d skipped)", len(results.Tests), results.Skipped())))
		return
	}
	fmt.Fprintln(w, red(fmt.Sprintf("%d of %d tests failed:", len(results.Failures), len(results.Tests))))
	for _, f := range results.Failures {
		fmt.Fprintf(w, "  %s\n", f.TestID)
		for _, err := range f.Errors {
			for _, line := range strings.Split(err.Error(), "\n") {
				fmt.Fprintf(w, "    %s\n", line)
			}
		}
	}
}
