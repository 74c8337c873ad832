package main

import (
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/fatih/color"

	"github.com/parsergen/runtime-tests/framework"
)

// ConsoleTestLogger prints test progress. Suite workers share one instance, so every
// method holds a lock while it writes.
type ConsoleTestLogger struct {
	Out                  io.Writer
	DebugOutputOnFailure bool
	DebugOutputOnSuccess bool

	lock sync.Mutex
}

var (
	failedColor  = color.New(color.FgRed, color.Bold)
	passedColor  = color.New(color.FgGreen)
	skippedColor = color.New(color.FgYellow)
)

func (c *ConsoleTestLogger) TestStarted(id framework.TestID) {
	c.lock.Lock()
	defer c.lock.Unlock()
	fmt.Fprintf(c.Out, "[%s]\n", id)
}

func (c *ConsoleTestLogger) TestError(id framework.TestID, err error) {
	c.lock.Lock()
	defer c.lock.Unlock()
	for _, line := range strings.Split(err.Error(), "\n") {
		fmt.Fprintf(c.Out, "  [%s] %s\n", id, line)
	}
}

func (c *ConsoleTestLogger) TestFinished(id framework.TestID, failed bool, debugOutput framework.CapturedOutput) {
	c.lock.Lock()
	defer c.lock.Unlock()
	if failed {
		failedColor.Fprintf(c.Out, "  FAILED: %s\n", id)
	} else if len(id.Path) > 1 {
		passedColor.Fprintf(c.Out, "  PASSED: %s\n", id)
	}
	if len(debugOutput) > 0 &&
		((failed && c.DebugOutputOnFailure) || (!failed && c.DebugOutputOnSuccess)) {
		debugOutput.Dump(c.Out, "    DEBUG ")
	}
}

func (c *ConsoleTestLogger) TestSkipped(id framework.TestID, reason string) {
	c.lock.Lock()
	defer c.lock.Unlock()
	if reason == "" {
		skippedColor.Fprintf(c.Out, "  SKIPPED: %s\n", id)
	} else {
		skippedColor.Fprintf(c.Out, "  SKIPPED: %s (%s)\n", id, reason)
	}
}
