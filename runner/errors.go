package runner

import (
	"errors"
	"fmt"
)

// ErrTimeout is returned when a program was killed for running too long.
var ErrTimeout = errors.New("program timed out")

// LaunchError means the operating system refused to start the program. It is a fault of
// the harness environment, not of the program under test.
type LaunchError struct {
	Command string
	Err     error
}

func (e *LaunchError) Error() string {
	return fmt.Sprintf("can't exec %s: %s", e.Command, e.Err)
}

func (e *LaunchError) Unwrap() error {
	return e.Err
}
