package session

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"runtime"
	"testing"

	helpers "github.com/launchdarkly/go-test-helpers/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/launchdarkly/go-sdk-common.v2/ldvalue"

	"github.com/parsergen/runtime-tests/generator"
	"github.com/parsergen/runtime-tests/runner"
	"github.com/parsergen/runtime-tests/targets"
	"github.com/parsergen/runtime-tests/toolchain"
	"github.com/parsergen/runtime-tests/workspace"
)

type spyGenerator struct {
	requests []generator.Request
	diags    []generator.Diagnostic
	err      error
}

func (g *spyGenerator) Generate(_ context.Context, req generator.Request) ([]generator.Diagnostic, error) {
	g.requests = append(g.requests, req)
	return g.diags, g.err
}

type spyExecutor struct {
	calls  []runner.Invocation
	result runner.Result
	err    error
}

func (e *spyExecutor) Run(_ context.Context, inv runner.Invocation) (runner.Result, error) {
	e.calls = append(e.calls, inv)
	return e.result, e.err
}

type spyLocator struct {
	calls int
	path  string
	err   error
}

func (l *spyLocator) Locate(toolchain.Spec) (string, error) {
	l.calls++
	return l.path, l.err
}

type fixture struct {
	session  *Session
	gen      *spyGenerator
	executor *spyExecutor
	locator  *spyLocator
}

func withFixture(t *testing.T, action func(f fixture)) {
	t.Helper()
	withTempDir(t, func(dir string) {
		f := fixture{
			gen:      &spyGenerator{},
			executor: &spyExecutor{},
			locator:  &spyLocator{path: "/sdk/bin/dart"},
		}
		s, err := New(Config{
			Target:       targets.Dart,
			Workspace:    workspace.Config{Dir: filepath.Join(dir, "ws")},
			RuntimeFlags: []string{"--packages=/pkgs/.packages"},
		}, Deps{Generator: f.gen, Executor: f.executor, Locator: f.locator})
		require.NoError(t, err)
		f.session = s
		require.NoError(t, s.GroupSetUp())
		require.NoError(t, s.TestSetUp())
		action(f)
		require.NoError(t, s.TestTearDown())
		require.NoError(t, s.GroupTearDown())
	})
}

func TestNewRequiresGeneratorAndTarget(t *testing.T) {
	_, err := New(Config{Target: targets.Dart}, Deps{})
	assert.Error(t, err)
	_, err = New(Config{}, Deps{Generator: &spyGenerator{}})
	assert.Error(t, err)
}

func TestExecBeforeSetUpFails(t *testing.T) {
	s, err := New(Config{Target: targets.Dart}, Deps{Generator: &spyGenerator{}})
	require.NoError(t, err)
	_, err = s.ExecLexer(context.Background(), "T.g4", "", "TLexer", "", false)
	assert.Error(t, err)
}

func TestExecLexerSuccess(t *testing.T) {
	withFixture(t, func(f fixture) {
		f.executor.result = runner.Result{Stdout: ldvalue.NewOptionalString("3\n+\n4\n<EOF>\n"), StdoutBytes: 13}

		out, err := f.session.ExecLexer(context.Background(), "T.g4", "lexer grammar T;", "TestLexer", "3+4", false)
		require.NoError(t, err)
		assert.Equal(t, ldvalue.NewOptionalString("3\n+\n4\n<EOF>\n"), out)
		assert.Equal(t, ReportedSuccess, f.session.Phase())
		assert.False(t, f.session.ParseErrors().IsDefined())
		require.NotNil(t, f.session.LastResult())

		require.Len(t, f.gen.requests, 1)
		req := f.gen.requests[0]
		assert.Equal(t, filepath.Join(f.session.WorkspaceDir(), workspace.ParserSubdir), req.OutputDir)
		assert.Equal(t, "Dart", req.Language)
		assert.Equal(t, []string{"-no-listener"}, req.ExtraOptions)
		assert.False(t, req.DefaultListener)

		require.Len(t, f.executor.calls, 1)
		inv := f.executor.calls[0]
		assert.Equal(t, runner.Invocation{
			Binary: "/sdk/bin/dart",
			Args:   []string{"--packages=/pkgs/.packages"},
			Driver: filepath.Join(f.session.WorkspaceDir(), "test.dart"),
			Input:  filepath.Join(f.session.WorkspaceDir(), "input"),
			Dir:    f.session.WorkspaceDir(),
		}, inv)

		input, err := os.ReadFile(inv.Input)
		require.NoError(t, err)
		assert.Equal(t, "3+4", string(input))
		src, err := os.ReadFile(inv.Driver)
		require.NoError(t, err)
		assert.Contains(t, string(src), "final lexer = TestLexer(input);")
	})
}

func TestDefaultListenerIsPassedToGenerator(t *testing.T) {
	withTempDir(t, func(dir string) {
		gen := &spyGenerator{}
		s, err := New(Config{
			Target:          targets.Dart,
			Workspace:       workspace.Config{Dir: filepath.Join(dir, "ws")},
			DefaultListener: true,
		}, Deps{Generator: gen, Executor: &spyExecutor{}, Locator: &spyLocator{path: "/sdk/bin/dart"}})
		require.NoError(t, err)
		require.NoError(t, s.TestSetUp())

		_, err = s.ExecLexer(context.Background(), "T.g4", "lexer grammar T;", "T", "a", false)
		require.NoError(t, err)
		require.Len(t, gen.requests, 1)
		assert.True(t, gen.requests[0].DefaultListener)
	})
}

func TestExecParserWritesParserDriver(t *testing.T) {
	withFixture(t, func(f fixture) {
		_, err := f.session.ExecParser(context.Background(), "T.g4", "grammar T;", "TParser", "TLexer", "TListener", "TVisitor", "prog", "x", true)
		require.NoError(t, err)
		assert.Equal(t, []string{"-visitor"}, f.gen.requests[0].ExtraOptions)

		src, err := os.ReadFile(f.executor.calls[0].Driver)
		require.NoError(t, err)
		assert.Contains(t, string(src), "parser.Prog()")
		assert.Contains(t, string(src), "DiagnosticErrorListener()")
	})
}

func TestGenerationErrorSkipsExecution(t *testing.T) {
	withFixture(t, func(f fixture) {
		f.gen.diags = []generator.Diagnostic{{Severity: generator.SeverityError, Code: 56, Message: "T.g4:3:4: reference to undefined rule: expr"}}

		out, err := f.session.ExecParser(context.Background(), "T.g4", "grammar T; s : expr ;", "TParser", "TLexer", "TListener", "TVisitor", "s", "x", false)
		require.Error(t, err)
		assert.False(t, out.IsDefined())

		var ge *GenerationError
		require.True(t, errors.As(err, &ge))
		assert.Equal(t, f.gen.diags, ge.Diagnostics)
		assert.Empty(t, f.executor.calls, "executor must not run after a generation error")
		assert.Equal(t, 0, f.locator.calls)
		assert.Equal(t, ReportedFailure, f.session.Phase())
		assert.Equal(t, "error(56): T.g4:3:4: reference to undefined rule: expr\n", f.session.ToolErrors().StringValue())
		assert.Nil(t, f.session.LastResult())
	})
}

func TestWarningsDoNotBlockExecution(t *testing.T) {
	withFixture(t, func(f fixture) {
		f.gen.diags = []generator.Diagnostic{{Severity: generator.SeverityWarning, Code: 154, Message: "empty alternative"}}
		_, err := f.session.ExecLexer(context.Background(), "T.g4", "", "TLexer", "", false)
		require.NoError(t, err)
		assert.Len(t, f.executor.calls, 1)
		assert.True(t, f.session.ToolErrors().IsDefined())
	})
}

func TestGeneratorFailureIsReported(t *testing.T) {
	withFixture(t, func(f fixture) {
		f.gen.err = &runner.LaunchError{Command: "java", Err: errors.New("not found")}
		_, err := f.session.ExecLexer(context.Background(), "T.g4", "", "TLexer", "", false)
		var le *runner.LaunchError
		assert.True(t, errors.As(err, &le))
		assert.Empty(t, f.executor.calls)
	})
}

func TestToolchainNotFound(t *testing.T) {
	withFixture(t, func(f fixture) {
		f.locator.err = &toolchain.NotFoundError{Binary: "dart"}
		_, err := f.session.ExecLexer(context.Background(), "T.g4", "", "TLexer", "", false)
		assert.True(t, errors.Is(err, toolchain.ErrNotFound))
		assert.Empty(t, f.executor.calls)
		assert.Equal(t, ReportedFailure, f.session.Phase())
	})
}

func TestLaunchFailure(t *testing.T) {
	withFixture(t, func(f fixture) {
		f.executor.err = &runner.LaunchError{Command: "/sdk/bin/dart", Err: errors.New("permission denied")}
		_, err := f.session.ExecLexer(context.Background(), "T.g4", "", "TLexer", "", false)
		var le *runner.LaunchError
		assert.True(t, errors.As(err, &le))
		assert.Equal(t, ReportedFailure, f.session.Phase())
	})
}

func TestStderrIsKeptOnSuccess(t *testing.T) {
	withFixture(t, func(f fixture) {
		f.executor.result = runner.Result{
			Stdout: ldvalue.NewOptionalString("done\n"),
			Stderr: ldvalue.NewOptionalString("line 1:1 extraneous input 'x'\n"),
		}
		out, err := f.session.ExecParser(context.Background(), "T.g4", "", "TParser", "TLexer", "", "", "s", "x", false)
		require.NoError(t, err)
		assert.Equal(t, "done\n", out.StringValue())
		assert.Equal(t, "line 1:1 extraneous input 'x'\n", f.session.ParseErrors().StringValue())
		assert.Equal(t, ReportedSuccess, f.session.Phase())

		require.NoError(t, f.session.TestSetUp())
		assert.False(t, f.session.ParseErrors().IsDefined())
		assert.Equal(t, Idle, f.session.Phase())
	})
}

func TestTearDownErasesWhenConfigured(t *testing.T) {
	withTempDir(t, func(dir string) {
		s, err := New(Config{
			Target:          targets.Dart,
			Workspace:       workspace.Config{Dir: filepath.Join(dir, "ws")},
			EraseOnTearDown: true,
		}, Deps{Generator: &spyGenerator{}, Executor: &spyExecutor{}, Locator: &spyLocator{}})
		require.NoError(t, err)
		require.NoError(t, s.TestSetUp())
		assert.True(t, helpers.FilePathExists(s.WorkspaceDir()))
		require.NoError(t, s.TestTearDown())
		assert.False(t, helpers.FilePathExists(s.WorkspaceDir()))
	})
}

// TestLexerEndToEnd runs a real process: a shell script standing in for the dart runtime
// prints the input one character per line, as a lexer of single-character tokens would.
func TestLexerEndToEnd(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("shell script toolchains are not supported on Windows")
	}
	withTempDir(t, func(dir string) {
		sdk := filepath.Join(dir, "sdk")
		require.NoError(t, os.MkdirAll(filepath.Join(sdk, "bin"), 0o755))
		script := "#!/bin/sh\nfold -w1 \"$2\"; echo; echo '<EOF>'\n"
		require.NoError(t, os.WriteFile(filepath.Join(sdk, "bin", "dart"), []byte(script), 0o755))

		locator := toolchain.NewLocator()
		locator.LookupEnv = func(name string) (string, bool) {
			if name == "DART_SDK" {
				return sdk, true
			}
			return "", false
		}
		s, err := New(Config{
			Target:    targets.Dart,
			Workspace: workspace.Config{Root: dir, RunID: "e2e"},
		}, Deps{Generator: &spyGenerator{}, Locator: locator})
		require.NoError(t, err)
		require.NoError(t, s.TestSetUp())

		out, err := s.ExecLexer(context.Background(), "T.g4", "lexer grammar T;", "TestLexer", "3+4", false)
		require.NoError(t, err)
		assert.Equal(t, "3\n+\n4\n<EOF>\n", out.StringValue())
		assert.False(t, s.ParseErrors().IsDefined())
	})
}

func withTempDir(t *testing.T, action func(dir string)) {
	t.Helper()
	action(t.TempDir())
}
