package runner

import (
	"time"

	"gopkg.in/launchdarkly/go-sdk-common.v2/ldvalue"
)

// Result is what one driver execution produced.
type Result struct {
	// Stdout is undefined if the program wrote nothing to standard output.
	Stdout ldvalue.OptionalString
	// Stderr is undefined if the program wrote nothing to standard error.
	Stderr ldvalue.OptionalString
	// StdoutBytes is the raw number of bytes read from standard output.
	StdoutBytes int
	// ExitCode is the process exit status, or -1 if it was killed by a signal.
	ExitCode int
	Duration time.Duration
}

// Failed reports whether the program exited non-zero or wrote to standard error. This is
// not a harness error: callers decide whether the test expected it.
func (r Result) Failed() bool {
	return r.ExitCode != 0 || r.Stderr.IsDefined()
}

func optionalText(s string) ldvalue.OptionalString {
	if s == "" {
		return ldvalue.OptionalString{}
	}
	return ldvalue.NewOptionalString(s)
}
