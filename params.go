package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/alessio/shellescape"
	"github.com/google/shlex"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/parsergen/runtime-tests/generator"
	"github.com/parsergen/runtime-tests/logging"
	"github.com/parsergen/runtime-tests/runner"
	"github.com/parsergen/runtime-tests/session"
	"github.com/parsergen/runtime-tests/targets"
	"github.com/parsergen/runtime-tests/toolchain"
	"github.com/parsergen/runtime-tests/workspace"
)

type commandParams struct {
	target       string
	workDir      string
	generator    string
	runtimeFlags string
	timeout      time.Duration
	erase        bool
	diagnostics  bool
	logLevel     string
	logFormat    string
	debug        bool
	debugAll     bool

	logger  *zap.Logger
	locator *toolchain.Locator
}

func (c *commandParams) addFlags(cmd *cobra.Command) {
	flags := cmd.PersistentFlags()
	flags.StringVar(&c.target, "target", "dart", "target language ("+strings.Join(targets.Names(), ", ")+")")
	flags.StringVar(&c.workDir, "workdir", os.Getenv(workspace.EnvDir), "workspace directory (default: a fresh directory under the system temp dir)")
	flags.StringVar(&c.generator, "generator", os.Getenv(generator.EnvCommand), "parser generator command line, e.g. \"java -jar antlr-complete.jar\"")
	flags.StringVar(&c.runtimeFlags, "runtime-flags", "", "extra arguments passed to the runtime before the driver")
	flags.DurationVar(&c.timeout, "timeout", 0, "kill driver programs that run longer than this (0 means no limit)")
	flags.BoolVar(&c.diagnostics, "default-listener", false, "also log every generator diagnostic as it is reported")
	flags.BoolVar(&c.erase, "erase", false, "delete each workspace after its test instead of keeping it for inspection")
	flags.StringVar(&c.logLevel, "log-level", "info", "log level (debug, info, warn, error)")
	flags.StringVar(&c.logFormat, "log-format", "console", "log format (console, json)")
	flags.BoolVar(&c.debug, "debug", false, "enable debug output for failed tests")
	flags.BoolVar(&c.debugAll, "debug-all", false, "enable debug output for all tests")
}

func (c *commandParams) setUp(cmd *cobra.Command) error {
	logger, err := logging.New(logging.Config{Level: c.logLevel, Format: c.logFormat})
	if err != nil {
		return errWithCode(err, exitError)
	}
	c.logger = logger
	c.locator = toolchain.NewLocator()
	return nil
}

func (c *commandParams) tearDown() {
	if c.logger != nil {
		_ = c.logger.Sync()
	}
}

func (c *commandParams) lookupTarget(name string) (targets.Target, error) {
	t, err := targets.Lookup(name)
	if err != nil {
		return targets.Target{}, errWithCode(err, exitError)
	}
	return t, nil
}

func (c *commandParams) executor() *runner.Executor {
	return &runner.Executor{Timeout: c.timeout, Logger: c.logger}
}

// newSession builds a session for target whose workspace is ws.
func (c *commandParams) newSession(target targets.Target, ws workspace.Config) (*session.Session, error) {
	if c.generator == "" {
		return nil, errWithCode(
			fmt.Errorf("no generator command: use --generator or set %s", generator.EnvCommand), exitError)
	}
	flags, err := shlex.Split(c.runtimeFlags)
	if err != nil {
		return nil, errWithCode(fmt.Errorf("parse --runtime-flags: %w", err), exitError)
	}
	tool, err := generator.NewTool(c.generator, c.executor(), c.logger.Named("generator"))
	if err != nil {
		return nil, errWithCode(err, exitError)
	}
	s, err := session.New(session.Config{
		Target:          target,
		Workspace:       ws,
		RuntimeFlags:    flags,
		DefaultListener: c.diagnostics,
		EraseOnTearDown: c.erase,
	}, session.Deps{
		Generator: tool,
		Executor:  c.executor(),
		Locator:   c.locator,
		Logger:    c.logger,
	})
	if err != nil {
		return nil, errWithCode(err, exitError)
	}
	return s, nil
}

// workspaceFor returns the workspace of one suite worker. With an explicit --workdir and
// several workers, each worker gets its own subdirectory.
func (c *commandParams) workspaceFor(runID string, worker, workers int) workspace.Config {
	if c.workDir != "" {
		if workers > 1 {
			return workspace.Config{Dir: filepath.Join(c.workDir, fmt.Sprintf("w%d", worker))}
		}
		return workspace.Config{Dir: c.workDir}
	}
	return workspace.Config{RunID: fmt.Sprintf("%s-w%d", runID, worker)}
}

type commandBuilder []string

func (b *commandBuilder) add(args ...string) {
	for _, a := range args {
		*b = append(*b, shellescape.Quote(a))
	}
}

func (b commandBuilder) String() string {
	return strings.Join(b, " ")
}
