// Package session runs individual runtime test cases: it generates a recognizer, writes a
// driver and its input into a workspace, and executes the driver with the target's
// runtime.
package session

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"
	"gopkg.in/launchdarkly/go-sdk-common.v2/ldvalue"

	"github.com/parsergen/runtime-tests/driver"
	"github.com/parsergen/runtime-tests/generator"
	"github.com/parsergen/runtime-tests/runner"
	"github.com/parsergen/runtime-tests/targets"
	"github.com/parsergen/runtime-tests/toolchain"
	"github.com/parsergen/runtime-tests/workspace"
)

// Phase is where a test case is in its lifecycle.
type Phase int

const (
	Idle Phase = iota
	Generated
	DriverWritten
	Executed
	ReportedSuccess
	ReportedFailure
)

func (p Phase) String() string {
	switch p {
	case Idle:
		return "idle"
	case Generated:
		return "generated"
	case DriverWritten:
		return "driver-written"
	case Executed:
		return "executed"
	case ReportedSuccess:
		return "reported-success"
	case ReportedFailure:
		return "reported-failure"
	default:
		return fmt.Sprintf("phase(%d)", int(p))
	}
}

// Executor runs driver programs. *runner.Executor implements it.
type Executor interface {
	Run(ctx context.Context, inv runner.Invocation) (runner.Result, error)
}

// Locator finds runtimes. *toolchain.Locator implements it.
type Locator interface {
	Locate(spec toolchain.Spec) (string, error)
}

// Config describes what a Session tests and where.
type Config struct {
	Target    targets.Target
	Workspace workspace.Config
	// RuntimeFlags are passed to the runtime before the driver path.
	RuntimeFlags []string
	// DefaultListener asks the generator to also report its diagnostics on its own
	// console listener.
	DefaultListener bool
	// EraseOnTearDown deletes the workspace after each test. By default it is kept for
	// inspection and erased by the next TestSetUp.
	EraseOnTearDown bool
}

// Deps are the collaborators a Session delegates to. Only Generator is required.
type Deps struct {
	Generator        generator.Generator
	Executor         Executor
	Locator          Locator
	Logger           *zap.Logger
	WorkspaceOptions []workspace.Option
}

// Session executes test cases one at a time in a workspace it owns.
type Session struct {
	cfg       Config
	generator generator.Generator
	executor  Executor
	locator   Locator
	logger    *zap.Logger
	workspace *workspace.Manager
	emitter   driver.Emitter

	phase       Phase
	setUp       bool
	toolErrors  []string
	parseErrors ldvalue.OptionalString
	lastResult  *runner.Result
}

// New creates a Session. Call TestSetUp before each test case.
func New(cfg Config, deps Deps) (*Session, error) {
	if deps.Generator == nil {
		return nil, errors.New("a generator is required")
	}
	if cfg.Target.Name == "" {
		return nil, errors.New("a target is required")
	}
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	logger = logger.With(zap.String("target", cfg.Target.Name))
	executor := deps.Executor
	if executor == nil {
		executor = &runner.Executor{Logger: logger}
	}
	locator := deps.Locator
	if locator == nil {
		locator = toolchain.NewLocator()
	}
	wsOpts := append([]workspace.Option{workspace.WithLogger(logger)}, deps.WorkspaceOptions...)
	return &Session{
		cfg:       cfg,
		generator: deps.Generator,
		executor:  executor,
		locator:   locator,
		logger:    logger,
		workspace: workspace.New(cfg.Workspace, wsOpts...),
		emitter:   driver.Emitter{Templates: cfg.Target.Driver},
	}, nil
}

// GroupSetUp runs once before a group of test cases. Sessions hold no shared fixtures,
// so it does nothing.
func (s *Session) GroupSetUp() error { return nil }

// GroupTearDown runs once after a group of test cases.
func (s *Session) GroupTearDown() error { return nil }

// TestSetUp prepares a fresh workspace and forgets the previous test's output.
func (s *Session) TestSetUp() error {
	s.phase = Idle
	s.toolErrors = nil
	s.parseErrors = ldvalue.OptionalString{}
	s.lastResult = nil
	if err := s.workspace.SetUp(); err != nil {
		return err
	}
	s.setUp = true
	return nil
}

// TestTearDown runs after each test case.
func (s *Session) TestTearDown() error {
	if s.cfg.EraseOnTearDown {
		s.workspace.Erase()
	}
	return nil
}

// ExecLexer generates a lexer from the grammar, runs it over input and returns what the
// driver printed: each token's text on its own line. The result is undefined if the driver
// printed nothing.
func (s *Session) ExecLexer(ctx context.Context, grammarFile, grammarSource, lexerName, input string, showDFA bool) (ldvalue.OptionalString, error) {
	return s.execute(ctx, grammarFile, grammarSource, []string{"-no-listener"}, input,
		driver.LexerOnly{LexerName: lexerName, ShowDFA: showDFA})
}

// ExecParser generates a lexer and parser from the grammar, parses input starting at
// startRule, checks the parse tree's shape and returns what the driver printed.
func (s *Session) ExecParser(ctx context.Context, grammarFile, grammarSource, parserName, lexerName, listenerName, visitorName, startRule, input string, diagnostics bool) (ldvalue.OptionalString, error) {
	return s.execute(ctx, grammarFile, grammarSource, []string{"-visitor"}, input,
		driver.FullParser{
			ParserName:   parserName,
			LexerName:    lexerName,
			ListenerName: listenerName,
			VisitorName:  visitorName,
			StartRule:    startRule,
			Diagnostics:  diagnostics,
		})
}

func (s *Session) execute(ctx context.Context, grammarFile, grammarSource string, options []string, input string, spec driver.Spec) (ldvalue.OptionalString, error) {
	if !s.setUp {
		return ldvalue.OptionalString{}, errors.New("TestSetUp has not been called")
	}
	s.phase = Idle
	s.parseErrors = ldvalue.OptionalString{}
	s.lastResult = nil
	logger := s.logger.With(zap.String("grammar", grammarFile))

	diags, err := s.generator.Generate(ctx, generator.Request{
		OutputDir:       s.workspace.ParserDir(),
		Language:        s.cfg.Target.Language,
		GrammarFileName: grammarFile,
		GrammarSource:   grammarSource,
		DefaultListener: s.cfg.DefaultListener,
		ExtraOptions:    options,
	})
	if err != nil {
		return s.fail(logger, err)
	}
	for _, d := range diags {
		s.toolErrors = append(s.toolErrors, d.String())
	}
	if errs := generator.Errors(diags); len(errs) > 0 {
		return s.fail(logger, &GenerationError{Grammar: grammarFile, Diagnostics: errs})
	}
	s.phase = Generated

	inputPath, err := s.workspace.WriteInput(input)
	if err != nil {
		return s.fail(logger, fmt.Errorf("write input: %w", err))
	}
	driverPath, err := s.emitter.Emit(s.workspace, spec)
	if err != nil {
		return s.fail(logger, fmt.Errorf("write driver: %w", err))
	}
	s.phase = DriverWritten

	binary, err := s.locator.Locate(s.cfg.Target.Toolchain)
	if err != nil {
		return s.fail(logger, fmt.Errorf("locate %s runtime: %w", s.cfg.Target.Name, err))
	}
	result, err := s.executor.Run(ctx, runner.Invocation{
		Binary: binary,
		Args:   s.cfg.RuntimeFlags,
		Driver: driverPath,
		Input:  inputPath,
		Dir:    s.workspace.Path(),
	})
	s.parseErrors = result.Stderr
	if err != nil {
		return s.fail(logger, err)
	}
	s.phase = Executed
	s.lastResult = &result

	if result.Failed() {
		logger.Debug("driver reported errors", zap.Int("exitCode", result.ExitCode), zap.String("stderr", result.Stderr.OrElse("")))
	}
	s.phase = ReportedSuccess
	return result.Stdout, nil
}

func (s *Session) fail(logger *zap.Logger, err error) (ldvalue.OptionalString, error) {
	s.phase = ReportedFailure
	logger.Warn("test case aborted", zap.Error(err))
	return ldvalue.OptionalString{}, err
}

// Phase returns how far the most recent test case got.
func (s *Session) Phase() Phase {
	return s.phase
}

// WorkspaceDir returns the current workspace path.
func (s *Session) WorkspaceDir() string {
	return s.workspace.Path()
}

// ParseErrors returns what the most recent driver wrote to standard error. It can be
// defined even when the test case succeeded.
func (s *Session) ParseErrors() ldvalue.OptionalString {
	return s.parseErrors
}

// ToolErrors returns every diagnostic the generator reported since TestSetUp, one per line.
func (s *Session) ToolErrors() ldvalue.OptionalString {
	if len(s.toolErrors) == 0 {
		return ldvalue.OptionalString{}
	}
	return ldvalue.NewOptionalString(strings.Join(s.toolErrors, "\n") + "\n")
}

// LastResult returns the most recent execution result, or nil if the last test case did
// not get as far as running its driver.
func (s *Session) LastResult() *runner.Result {
	return s.lastResult
}
