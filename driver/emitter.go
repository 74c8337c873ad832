// Package driver renders the small programs that run generated recognizers against an
// input file.
package driver

import (
	"errors"
	"fmt"
)

// BaseName is the file name, without extension, of every emitted driver.
const BaseName = "test"

// Templates holds one target language's driver skeletons. See Render for the syntax.
type Templates struct {
	// Extension of driver source files, without the dot.
	Extension string

	// Lexer is bound with lexerName and showDFA.
	Lexer string
	// ShowDFA is bound with lexerName and is inserted as showDFA when requested.
	ShowDFA string

	// Parser is bound with lexerName, parserName, listenerName, visitorName,
	// parserStartRuleName and createParser.
	Parser string
	// CreateParser and CreateParserDiagnostics are bound with parserName. The latter is
	// used for createParser when diagnostics are requested.
	CreateParser            string
	CreateParserDiagnostics string

	// CapitalizeStartRule applies NormalizeStartRule to start rule names.
	CapitalizeStartRule bool
}

// FileName returns the name drivers are written under.
func (t Templates) FileName() string {
	return BaseName + "." + t.Extension
}

// Writer stores a rendered driver. workspace.Manager implements it.
type Writer interface {
	WriteFile(name, content string) (string, error)
}

// Emitter renders drivers for one target.
type Emitter struct {
	Templates Templates
}

// Source renders the driver for spec without touching the filesystem.
func (e Emitter) Source(spec Spec) (string, error) {
	switch s := spec.(type) {
	case LexerOnly:
		return e.lexerSource(s)
	case FullParser:
		return e.parserSource(s)
	case nil:
		return "", errors.New("no driver spec")
	default:
		return "", fmt.Errorf("unsupported driver spec %T", spec)
	}
}

// Emit renders the driver for spec and writes it through w, returning the written path.
func (e Emitter) Emit(w Writer, spec Spec) (string, error) {
	src, err := e.Source(spec)
	if err != nil {
		return "", err
	}
	return w.WriteFile(e.Templates.FileName(), src)
}

func (e Emitter) lexerSource(s LexerOnly) (string, error) {
	if err := requireIdentifiers("lexer", s.LexerName); err != nil {
		return "", err
	}
	showDFA := ""
	if s.ShowDFA && e.Templates.ShowDFA != "" {
		var err error
		if showDFA, err = Render(e.Templates.ShowDFA, map[string]string{"lexerName": s.LexerName}); err != nil {
			return "", err
		}
	}
	return Render(e.Templates.Lexer, map[string]string{
		"lexerName": s.LexerName,
		"showDFA":   showDFA,
	})
}

func (e Emitter) parserSource(s FullParser) (string, error) {
	if err := requireIdentifiers("parser", s.ParserName, "lexer", s.LexerName, "start rule", s.StartRule); err != nil {
		return "", err
	}
	createTpl := e.Templates.CreateParser
	if s.Diagnostics {
		createTpl = e.Templates.CreateParserDiagnostics
	}
	createParser, err := Render(createTpl, map[string]string{"parserName": s.ParserName})
	if err != nil {
		return "", err
	}
	startRule := s.StartRule
	if e.Templates.CapitalizeStartRule {
		startRule = NormalizeStartRule(startRule)
	}
	return Render(e.Templates.Parser, map[string]string{
		"lexerName":           s.LexerName,
		"parserName":          s.ParserName,
		"listenerName":        s.ListenerName,
		"visitorName":         s.VisitorName,
		"parserStartRuleName": startRule,
		"createParser":        createParser,
	})
}

// requireIdentifiers takes (description, value) pairs and rejects values that would not
// form valid identifiers in a driver.
func requireIdentifiers(pairs ...string) error {
	for i := 0; i+1 < len(pairs); i += 2 {
		if !isIdentifier(pairs[i+1]) {
			return fmt.Errorf("invalid %s name %q", pairs[i], pairs[i+1])
		}
	}
	return nil
}
