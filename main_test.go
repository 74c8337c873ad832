package main

import (
	"bytes"
	"errors"
	"path/filepath"
	"testing"

	"github.com/fatih/color"
	"github.com/stretchr/testify/assert"

	"github.com/parsergen/runtime-tests/framework"
	"github.com/parsergen/runtime-tests/workspace"
)

func TestCodedError(t *testing.T) {
	inner := errors.New("no generator")
	err := errWithCode(inner, exitError)

	var cErr codedError
	assert.True(t, errors.As(err, &cErr))
	assert.Equal(t, exitError, cErr.code)
	assert.ErrorIs(t, err, inner)
	assert.Equal(t, "", errWithCode(nil, exitTestsFailed).Error())
}

func TestWorkspaceForWorkers(t *testing.T) {
	c := &commandParams{}
	assert.Equal(t, workspace.Config{RunID: "dart-w2"}, c.workspaceFor("dart", 2, 4))

	c.workDir = "/tmp/ws"
	assert.Equal(t, workspace.Config{Dir: "/tmp/ws"}, c.workspaceFor("dart", 0, 1))
	assert.Equal(t, workspace.Config{Dir: filepath.Join("/tmp/ws", "w3")}, c.workspaceFor("dart", 3, 4))
}

func TestCommandBuilderQuotes(t *testing.T) {
	var b commandBuilder
	b.add("/opt/dart sdk/bin/dart", "--packages=x")
	b.add("test.dart", "input")
	assert.Equal(t, `'/opt/dart sdk/bin/dart' --packages=x test.dart input`, b.String())
}

func TestNameDefaults(t *testing.T) {
	assert.Equal(t, "Expr", grammarName("Expr.g4"))
	assert.Equal(t, "ExprParser", firstNonEmpty("", "ExprParser"))
	assert.Equal(t, "P", firstNonEmpty("P", "ExprParser"))
}

func TestConsoleTestLogger(t *testing.T) {
	color.NoColor = true
	var buf bytes.Buffer
	l := &ConsoleTestLogger{Out: &buf, DebugOutputOnFailure: true}
	id := framework.TestID{Path: []string{"dart", "lexer"}}

	l.TestStarted(id)
	l.TestError(id, errors.New("can't exec \"dart\"\nno such file"))
	l.TestFinished(id, true, framework.CapturedOutput{{Message: "stdout:\n3"}})
	l.TestSkipped(framework.TestID{Path: []string{"dart", "slow"}}, "excluded by filter parameters")

	out := buf.String()
	assert.Contains(t, out, "[dart/lexer]\n")
	assert.Contains(t, out, "  [dart/lexer] no such file\n")
	assert.Contains(t, out, "  FAILED: dart/lexer\n")
	assert.Contains(t, out, "    DEBUG ")
	assert.Contains(t, out, "  SKIPPED: dart/slow (excluded by filter parameters)\n")
}
