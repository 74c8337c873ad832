package session

import (
	"fmt"
	"strings"

	"github.com/parsergen/runtime-tests/generator"
)

// GenerationError means the generator flagged the grammar as broken, so no driver was run.
type GenerationError struct {
	Grammar     string
	Diagnostics []generator.Diagnostic
}

func (e *GenerationError) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "generating %s reported %d error(s)", e.Grammar, len(e.Diagnostics))
	for _, d := range e.Diagnostics {
		b.WriteString("\n  ")
		b.WriteString(d.String())
	}
	return b.String()
}
