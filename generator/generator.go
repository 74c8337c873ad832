// Package generator defines how the harness asks a parser generator to turn a grammar into
// target-language sources, and provides an implementation that runs the generator as an
// external command.
package generator

import (
	"context"
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// Severity classifies a Diagnostic.
type Severity int

const (
	SeverityError Severity = iota
	SeverityWarning
)

func (s Severity) String() string {
	if s == SeverityWarning {
		return "warning"
	}
	return "error"
}

// Diagnostic is one message reported by the generator.
type Diagnostic struct {
	Severity Severity
	Code     int
	Message  string
}

func (d Diagnostic) String() string {
	return fmt.Sprintf("%s(%d): %s", d.Severity, d.Code, d.Message)
}

// Request describes one generation.
type Request struct {
	// OutputDir receives the grammar file and the generated sources.
	OutputDir string
	// Language is the generator's tag for the target language, such as "Dart".
	Language        string
	GrammarFileName string
	GrammarSource   string
	// DefaultListener also reports diagnostics the way the generator's own console
	// listener would, in addition to returning them.
	DefaultListener bool
	// ExtraOptions are passed to the generator before the grammar file, such as
	// "-visitor" or "-no-listener".
	ExtraOptions []string
}

// Generator produces recognizer sources for a grammar and returns its diagnostics. An
// error return means the generator itself could not be run.
type Generator interface {
	Generate(ctx context.Context, req Request) ([]Diagnostic, error)
}

// Errors returns the diagnostics with error severity.
func Errors(diags []Diagnostic) []Diagnostic {
	var errs []Diagnostic
	for _, d := range diags {
		if d.Severity == SeverityError {
			errs = append(errs, d)
		}
	}
	return errs
}

var diagnosticLine = regexp.MustCompile(`^(error|warning)\((\d+)\):\s*(.*)$`)

// ParseDiagnostics extracts "error(N): message" and "warning(N): message" lines from
// generator output. Other lines are ignored.
func ParseDiagnostics(output string) []Diagnostic {
	var diags []Diagnostic
	for _, line := range strings.Split(output, "\n") {
		m := diagnosticLine.FindStringSubmatch(strings.TrimSpace(line))
		if m == nil {
			continue
		}
		code, _ := strconv.Atoi(m[2])
		sev := SeverityError
		if m[1] == "warning" {
			sev = SeverityWarning
		}
		diags = append(diags, Diagnostic{Severity: sev, Code: code, Message: m[3]})
	}
	return diags
}
