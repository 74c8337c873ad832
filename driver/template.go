package driver

import (
	"fmt"
	"strings"
)

// literalEscapes lists the characters that may follow a backslash to be emitted
// literally. Target languages use '<' and '>' for generics and comparisons, so drivers
// write them as `\<` and `\>`.
var literalEscapes = map[byte]bool{
	'<':  true,
	'>':  true,
	'\\': true,
}

// TemplateError describes a malformed template or a missing binding.
type TemplateError struct {
	Offset int
	Msg    string
}

func (e *TemplateError) Error() string {
	return fmt.Sprintf("template error at offset %d: %s", e.Offset, e.Msg)
}

// Render substitutes <name> placeholders in tpl with values from bindings.
//
// A backslash followed by one of '<', '>' or '\' yields that character; a backslash
// followed by anything else is copied through unchanged. Every other '<' must open a
// placeholder made of letters, digits and underscores, closed by '>', whose name is bound.
func Render(tpl string, bindings map[string]string) (string, error) {
	var b strings.Builder
	b.Grow(len(tpl))
	for i := 0; i < len(tpl); i++ {
		c := tpl[i]
		switch c {
		case '\\':
			if i+1 < len(tpl) && literalEscapes[tpl[i+1]] {
				b.WriteByte(tpl[i+1])
				i++
				continue
			}
			b.WriteByte(c)
		case '<':
			end := strings.IndexByte(tpl[i+1:], '>')
			if end < 0 {
				return "", &TemplateError{Offset: i, Msg: "unterminated placeholder"}
			}
			name := tpl[i+1 : i+1+end]
			if !isIdentifier(name) {
				return "", &TemplateError{Offset: i, Msg: fmt.Sprintf("unescaped '<' before %q", name)}
			}
			value, ok := bindings[name]
			if !ok {
				return "", &TemplateError{Offset: i, Msg: fmt.Sprintf("no value bound for <%s>", name)}
			}
			b.WriteString(value)
			i += end + 1
		default:
			b.WriteByte(c)
		}
	}
	return b.String(), nil
}

func isIdentifier(s string) bool {
	if s == "" {
		return false
	}
	for i := 0; i < len(s); i++ {
		c := s[i]
		switch {
		case c == '_', c >= 'a' && c <= 'z', c >= 'A' && c <= 'Z':
		case c >= '0' && c <= '9' && i > 0:
		default:
			return false
		}
	}
	return true
}
