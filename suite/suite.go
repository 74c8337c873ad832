// Package suite loads batches of runtime test cases from YAML files and runs them through
// harness sessions, optionally in parallel.
package suite

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	yaml "gopkg.in/yaml.v3"
)

// Kind selects which driver a case uses.
type Kind string

const (
	KindLexer  Kind = "lexer"
	KindParser Kind = "parser"
)

// Batch is the contents of a suite file.
type Batch struct {
	// Target is the default target for the batch. The command line can override it.
	Target string `yaml:"target"`
	Cases  []Case `yaml:"cases"`
}

// Case is a single runtime test case.
type Case struct {
	Name        string `yaml:"name"`
	Kind        Kind   `yaml:"kind"`
	GrammarFile string `yaml:"grammarFile"`
	// Grammar is the grammar source. Exactly one of Grammar and GrammarPath is set in a
	// suite file; Load reads GrammarPath into Grammar.
	Grammar     string `yaml:"grammar"`
	GrammarPath string `yaml:"grammarPath"`
	Lexer       string `yaml:"lexer"`
	Parser      string `yaml:"parser"`
	Listener    string `yaml:"listener"`
	Visitor     string `yaml:"visitor"`
	StartRule   string `yaml:"startRule"`
	Input       string `yaml:"input"`
	ShowDFA     bool   `yaml:"showDFA"`
	Diagnostics bool   `yaml:"diagnostics"`
}

// Load reads and validates a suite file. A relative grammarPath is resolved against the
// directory containing the file.
func Load(path string) (*Batch, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var b Batch
	if err := yaml.Unmarshal(data, &b); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	if len(b.Cases) == 0 {
		return nil, fmt.Errorf("%s: no cases", path)
	}
	base := filepath.Dir(path)
	seen := make(map[string]bool, len(b.Cases))
	for i := range b.Cases {
		c := &b.Cases[i]
		if err := c.resolve(base); err != nil {
			return nil, fmt.Errorf("%s: case %d (%q): %w", path, i, c.Name, err)
		}
		if seen[c.Name] {
			return nil, fmt.Errorf("%s: duplicate case name %q", path, c.Name)
		}
		seen[c.Name] = true
	}
	return &b, nil
}

func (c *Case) resolve(base string) error {
	if c.Name == "" {
		return errors.New("name is required")
	}
	if c.GrammarFile == "" {
		return errors.New("grammarFile is required")
	}
	switch {
	case c.Grammar != "" && c.GrammarPath != "":
		return errors.New("grammar and grammarPath are mutually exclusive")
	case c.GrammarPath != "":
		p := c.GrammarPath
		if !filepath.IsAbs(p) {
			p = filepath.Join(base, p)
		}
		data, err := os.ReadFile(p)
		if err != nil {
			return fmt.Errorf("read grammar: %w", err)
		}
		c.Grammar = string(data)
	case c.Grammar == "":
		return errors.New("one of grammar or grammarPath is required")
	}
	if c.Lexer == "" {
		return errors.New("lexer is required")
	}
	switch c.Kind {
	case KindLexer:
	case KindParser:
		if c.Parser == "" {
			return errors.New("parser is required")
		}
		if c.StartRule == "" {
			return errors.New("startRule is required")
		}
		grammarName := strings.TrimSuffix(c.GrammarFile, filepath.Ext(c.GrammarFile))
		if c.Listener == "" {
			c.Listener = grammarName + "Listener"
		}
		if c.Visitor == "" {
			c.Visitor = grammarName + "Visitor"
		}
	default:
		return fmt.Errorf("unknown kind %q, expected %q or %q", c.Kind, KindLexer, KindParser)
	}
	return nil
}
