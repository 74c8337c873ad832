package generator

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/shlex"
	"go.uber.org/zap"

	"github.com/parsergen/runtime-tests/runner"
)

// EnvCommand names the environment variable holding the default generator command line.
const EnvCommand = "RUNTIME_TEST_GENERATOR"

// Tool runs the generator as an external command, for instance
// "java -jar antlr-complete.jar".
type Tool struct {
	Command  []string
	Executor *runner.Executor
	Logger   *zap.Logger
}

// NewTool splits commandLine using shell quoting rules.
func NewTool(commandLine string, executor *runner.Executor, logger *zap.Logger) (*Tool, error) {
	fields, err := shlex.Split(commandLine)
	if err != nil {
		return nil, fmt.Errorf("parse generator command %q: %w", commandLine, err)
	}
	if len(fields) == 0 {
		return nil, errors.New("generator command is empty")
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if executor == nil {
		executor = &runner.Executor{Logger: logger}
	}
	return &Tool{Command: fields, Executor: executor, Logger: logger}, nil
}

// Arguments returns the arguments passed to the generator for req, excluding the command.
func (t *Tool) Arguments(req Request) []string {
	args := append([]string{}, t.Command[1:]...)
	args = append(args,
		"-Dlanguage="+req.Language,
		"-o", req.OutputDir,
		"-lib", req.OutputDir,
		"-encoding", "UTF-8",
	)
	args = append(args, req.ExtraOptions...)
	return append(args, filepath.Join(req.OutputDir, req.GrammarFileName))
}

// Generate writes the grammar into req.OutputDir and runs the generator on it.
func (t *Tool) Generate(ctx context.Context, req Request) ([]Diagnostic, error) {
	if req.GrammarFileName == "" {
		return nil, errors.New("grammar file name is required")
	}
	if err := os.MkdirAll(req.OutputDir, 0o755); err != nil {
		return nil, fmt.Errorf("create generator output directory: %w", err)
	}
	grammarPath := filepath.Join(req.OutputDir, req.GrammarFileName)
	if err := os.WriteFile(grammarPath, []byte(req.GrammarSource), 0o644); err != nil {
		return nil, fmt.Errorf("write grammar: %w", err)
	}

	result, err := t.Executor.Run(ctx, runner.Invocation{
		Binary: t.Command[0],
		Args:   t.Arguments(req),
		Dir:    req.OutputDir,
	})
	if err != nil {
		return nil, fmt.Errorf("run generator: %w", err)
	}

	diags := ParseDiagnostics(result.Stdout.OrElse("") + "\n" + result.Stderr.OrElse(""))
	if result.ExitCode != 0 && len(Errors(diags)) == 0 {
		msg := fmt.Sprintf("generator exited with status %d", result.ExitCode)
		if stderr := strings.TrimSpace(result.Stderr.OrElse("")); stderr != "" {
			msg += ": " + firstLine(stderr)
		}
		diags = append(diags, Diagnostic{Severity: SeverityError, Message: msg})
	}
	if req.DefaultListener {
		for _, d := range diags {
			t.Logger.Warn("generator diagnostic", zap.String("grammar", req.GrammarFileName), zap.Stringer("diagnostic", d))
		}
	}
	return diags, nil
}

func firstLine(s string) string {
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		return s[:i]
	}
	return s
}
