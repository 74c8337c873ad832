package driver

import (
	"unicode"
	"unicode/utf8"
)

// Spec describes which driver program to emit. It is either a LexerOnly or a FullParser.
type Spec interface {
	isSpec()
}

// LexerOnly drives a generated lexer alone and prints every token it produces.
type LexerOnly struct {
	LexerName string
	ShowDFA   bool
}

// FullParser drives a lexer and parser, invokes the start rule and validates the shape of
// the resulting parse tree.
type FullParser struct {
	ParserName   string
	LexerName    string
	ListenerName string
	VisitorName  string
	StartRule    string
	// Diagnostics attaches a diagnostic error listener to the parser.
	Diagnostics bool
}

func (LexerOnly) isSpec()  {}
func (FullParser) isSpec() {}

// NormalizeStartRule upper-cases the first character of a rule name, matching the method
// names generated for rules.
func NormalizeStartRule(rule string) string {
	r, size := utf8.DecodeRuneInString(rule)
	if size == 0 || r == utf8.RuneError {
		return rule
	}
	return string(unicode.ToUpper(r)) + rule[size:]
}
