// Package runner executes driver programs and captures their output.
package runner

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"time"

	"github.com/alessio/shellescape"
	"go.uber.org/zap"

	"github.com/parsergen/runtime-tests/stream"
)

// streamGrace is how long output streams may stay open after a killed program exits.
const streamGrace = time.Second

// Invocation describes one run of a driver. The program is started as
//
//	Binary Args... Driver Input
//
// with Dir as its working directory.
type Invocation struct {
	Binary string
	Args   []string
	Driver string
	Input  string
	Dir    string
	// Env, if non-nil, replaces the inherited environment.
	Env []string
}

// Argv returns the full command line.
func (inv Invocation) Argv() []string {
	argv := append([]string{inv.Binary}, inv.Args...)
	if inv.Driver != "" {
		argv = append(argv, inv.Driver)
	}
	if inv.Input != "" {
		argv = append(argv, inv.Input)
	}
	return argv
}

// String returns the command line quoted for a POSIX shell.
func (inv Invocation) String() string {
	return shellescape.QuoteCommand(inv.Argv())
}

// Executor runs Invocations.
type Executor struct {
	// Timeout bounds each run. Zero means wait for as long as the program runs.
	Timeout time.Duration
	Logger  *zap.Logger
}

// Run starts the program, drains stdout and stderr concurrently, waits for the program to
// exit and then for both streams to reach EOF.
//
// A *LaunchError is returned if the program could not be started. If the context is
// cancelled or the timeout expires, the program is killed and ErrTimeout is returned
// along with whatever output was captured. A non-zero exit status is not an error; see
// Result.Failed.
func (e *Executor) Run(ctx context.Context, inv Invocation) (Result, error) {
	logger := e.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	if e.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, e.Timeout)
		defer cancel()
	}

	argv := inv.Argv()
	cmd := exec.CommandContext(ctx, argv[0], argv[1:]...)
	cmd.Dir = inv.Dir
	cmd.Env = inv.Env

	// The child writes straight into OS pipes, so Wait does not depend on our readers.
	stdoutR, stdoutW, err := os.Pipe()
	if err != nil {
		return Result{}, fmt.Errorf("creating stdout pipe: %w", err)
	}
	defer stdoutR.Close()
	stderrR, stderrW, err := os.Pipe()
	if err != nil {
		stdoutW.Close()
		return Result{}, fmt.Errorf("creating stderr pipe: %w", err)
	}
	defer stderrR.Close()
	cmd.Stdout = stdoutW
	cmd.Stderr = stderrW

	logger.Debug("starting program", zap.String("command", inv.String()), zap.String("dir", inv.Dir))
	start := time.Now()
	err = cmd.Start()
	stdoutW.Close()
	stderrW.Close()
	if err != nil {
		logger.Error("can't exec program", zap.String("command", inv.String()), zap.Error(err))
		return Result{}, &LaunchError{Command: inv.String(), Err: err}
	}

	stdout := stream.NewDrainer("stdout", stdoutR)
	stderr := stream.NewDrainer("stderr", stderrR)
	stdout.Start()
	stderr.Start()

	waitErr := cmd.Wait()
	if ctx.Err() != nil {
		// A killed program's own descendants may still hold the pipes open.
		releasePipes(streamGrace, drainedPipe{stdout, stdoutR}, drainedPipe{stderr, stderrR})
	}
	outText, outErr := stdout.Join()
	errText, errErr := stderr.Join()

	result := Result{
		Stdout:      optionalText(outText),
		Stderr:      optionalText(errText),
		StdoutBytes: stdout.Len(),
		ExitCode:    cmd.ProcessState.ExitCode(),
		Duration:    time.Since(start),
	}
	logger.Debug("program finished",
		zap.Int("exitCode", result.ExitCode),
		zap.Int("stdoutBytes", result.StdoutBytes),
		zap.Duration("duration", result.Duration))

	if ctxErr := ctx.Err(); ctxErr != nil {
		return result, fmt.Errorf("%w after %s: %s", ErrTimeout, result.Duration.Round(time.Millisecond), ctxErr)
	}
	if err := errors.Join(outErr, errErr); err != nil {
		return result, err
	}
	var exitErr *exec.ExitError
	if waitErr != nil && !errors.As(waitErr, &exitErr) {
		return result, fmt.Errorf("waiting for %s: %w", inv.String(), waitErr)
	}
	return result, nil
}

// releasePipes closes the read ends of any streams still open after grace, which makes
// their drainers return.
func releasePipes(grace time.Duration, pipes ...drainedPipe) {
	ctx, cancel := context.WithTimeout(context.Background(), grace)
	defer cancel()
	for _, p := range pipes {
		select {
		case <-p.drainer.Done():
		case <-ctx.Done():
			p.file.Close()
		}
	}
}

type drainedPipe struct {
	drainer *stream.Drainer
	file    *os.File
}
