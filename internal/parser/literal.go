package parser

import (
	"math"
	"strconv"
	"strings"
	"unicode/utf8"

	sitter "github.com/smacker/go-tree-sitter"

	"github.com/jward/phpreflect/internal/expr"
)

// parseInt reads an integer literal. Literals beyond int64 become floats,
// as in PHP.
func parseInt(text string) expr.Value {
	s := strings.ReplaceAll(text, "_", "")
	base := 10
	digits := s
	switch {
	case len(s) > 2 && (s[1] == 'x' || s[1] == 'X'):
		base, digits = 16, s[2:]
	case len(s) > 2 && (s[1] == 'b' || s[1] == 'B'):
		base, digits = 2, s[2:]
	case len(s) > 2 && (s[1] == 'o' || s[1] == 'O'):
		base, digits = 8, s[2:]
	case len(s) > 1 && s[0] == '0':
		base, digits = 8, s[1:]
	}
	if v, err := strconv.ParseInt(digits, base, 64); err == nil {
		return expr.Int(v)
	}
	if v, err := strconv.ParseUint(digits, base, 64); err == nil {
		return expr.Float(float64(v))
	}
	if base == 10 {
		return parseFloat(s)
	}
	return expr.Float(math.Inf(1))
}

func parseFloat(text string) expr.Value {
	v, err := strconv.ParseFloat(strings.ReplaceAll(text, "_", ""), 64)
	if err != nil && v == 0 {
		return expr.Float(math.NaN())
	}
	return expr.Float(v)
}

// stringNode decodes string literals. Interpolated strings are not
// constant expressions.
func (f *file) stringNode(n *sitter.Node) (expr.Expr, error) {
	interpolated := false
	walk(n, func(c *sitter.Node) bool {
		switch c.Type() {
		case "variable_name", "dynamic_variable_name", "member_access_expression", "subscript_expression", "expression":
			interpolated = true
		}
		return !interpolated
	})
	if interpolated {
		return nil, f.unsupported(n)
	}

	text := f.text(n)
	if len(text) > 0 && (text[0] == 'b' || text[0] == 'B') {
		text = text[1:]
	}
	var s string
	switch {
	case strings.HasPrefix(text, "<<<"):
		s = heredoc(text)
	case strings.HasPrefix(text, "'"):
		s = unquoteSingle(text[1 : len(text)-1])
	case strings.HasPrefix(text, `"`):
		s = unquoteDouble(text[1 : len(text)-1])
	default:
		return nil, f.unsupported(n)
	}
	return expr.Lit(expr.String(s)), nil
}

func unquoteSingle(s string) string {
	var b strings.Builder
	for i := 0; i < len(s); i++ {
		if s[i] == '\\' && i+1 < len(s) && (s[i+1] == '\\' || s[i+1] == '\'') {
			i++
		}
		b.WriteByte(s[i])
	}
	return b.String()
}

var simpleEscapes = map[byte]byte{
	'n': '\n', 't': '\t', 'r': '\r', 'v': '\v', 'e': 0x1b, 'f': '\f',
	'\\': '\\', '$': '$', '"': '"',
}

func unquoteDouble(s string) string {
	var b strings.Builder
	for i := 0; i < len(s); i++ {
		c := s[i]
		if c != '\\' || i+1 == len(s) {
			b.WriteByte(c)
			continue
		}
		next := s[i+1]
		if r, ok := simpleEscapes[next]; ok {
			b.WriteByte(r)
			i++
			continue
		}
		switch {
		case next >= '0' && next <= '7':
			j := i + 1
			for j < len(s) && j < i+4 && s[j] >= '0' && s[j] <= '7' {
				j++
			}
			v, _ := strconv.ParseUint(s[i+1:j], 8, 16)
			b.WriteByte(byte(v))
			i = j - 1
		case next == 'x' && i+2 < len(s) && isHex(s[i+2]):
			j := i + 2
			for j < len(s) && j < i+4 && isHex(s[j]) {
				j++
			}
			v, _ := strconv.ParseUint(s[i+2:j], 16, 8)
			b.WriteByte(byte(v))
			i = j - 1
		case next == 'u' && i+2 < len(s) && s[i+2] == '{':
			end := strings.IndexByte(s[i+2:], '}')
			if end < 0 {
				b.WriteByte(c)
				continue
			}
			v, err := strconv.ParseUint(s[i+3:i+2+end], 16, 32)
			if err != nil {
				b.WriteByte(c)
				continue
			}
			b.WriteString(string(utf8.AppendRune(nil, rune(v))))
			i += 2 + end
		default:
			b.WriteByte(c)
		}
	}
	return b.String()
}

func isHex(c byte) bool {
	return (c >= '0' && c <= '9') || (c >= 'a' && c <= 'f') || (c >= 'A' && c <= 'F')
}

// heredoc decodes <<<ID and <<<'ID' literals. The closing marker's
// indentation is removed from every line.
func heredoc(text string) string {
	header, rest, _ := strings.Cut(text, "\n")
	label := strings.TrimSpace(strings.TrimPrefix(header, "<<<"))
	nowdoc := strings.HasPrefix(label, "'")

	lines := strings.Split(rest, "\n")
	closing := lines[len(lines)-1]
	indent := closing[:len(closing)-len(strings.TrimLeft(closing, " \t"))]
	body := lines[:len(lines)-1]
	for i, l := range body {
		body[i] = strings.TrimPrefix(l, indent)
	}
	s := strings.Join(body, "\n")
	if nowdoc {
		return s
	}
	return unquoteDouble(strings.ReplaceAll(s, `\"`, `\\"`))
}
