package parser

import (
	"bytes"
	"strings"

	sitter "github.com/smacker/go-tree-sitter"
)

// The PHP grammar does not accept constants inside enum bodies. On the first
// `const` tree-sitter closes the enum with a missing brace, leaving the rest
// of the body at the top level. Such files are parsed twice more: once with
// the enum constants blanked out, so the enum body is read whole, and once
// with nothing but those constants wrapped in class bodies. Both sources keep
// the length and line breaks of the original, so positions stay valid.

type memberKind uint8

const (
	memberOther memberKind = iota
	memberCase
	memberConst
)

// member is one statement of a class-like body, leading comments included.
type member struct {
	start, end int
	kind       memberKind
}

// brokenEnum is an enum body that the grammar could not read in one piece.
type brokenEnum struct {
	open, closing int
	members       []member
}

// brokenEnums finds enums whose bodies hold constants the grammar gave up on.
func brokenEnums(root *sitter.Node, src []byte) []brokenEnum {
	var out []brokenEnum
	walk(root, func(n *sitter.Node) bool {
		if n.Type() != "enum_declaration" {
			return true
		}
		body := n.ChildByFieldName("body")
		if body == nil {
			body = childOfType(n, "enum_declaration_list")
		}
		if body == nil || !(body.HasError() || endsMissing(body)) {
			return false
		}
		open := int(body.StartByte())
		if open >= len(src) || src[open] != '{' {
			return false
		}
		members, closing, ok := bodyMembers(src, open)
		if !ok {
			return false
		}
		for _, m := range members {
			if m.kind == memberConst {
				out = append(out, brokenEnum{open: open, closing: closing, members: members})
				break
			}
		}
		return false
	})
	return out
}

func endsMissing(n *sitter.Node) bool {
	count := int(n.ChildCount())
	return count > 0 && n.Child(count-1).IsMissing()
}

// enumSources returns the source with enum constants blanked and the source
// holding only those constants inside class bodies. It returns nils when the
// constants cannot be placed.
func enumSources(src []byte, enums []brokenEnum) (fixed, consts []byte) {
	tag := bytes.Index(src, []byte("<?php"))
	if tag < 0 {
		return nil, nil
	}
	fixed = bytes.Clone(src)
	consts = blank(bytes.Clone(src))
	copy(consts[tag:], "<?php")

	low := tag + len("<?php") + 1
	for _, e := range enums {
		header := headerSlot(consts, low, e.open)
		if header < 0 {
			return nil, nil
		}
		copy(consts[header:], "class E")
		consts[e.open] = '{'
		consts[e.closing] = '}'
		for _, m := range e.members {
			if m.kind != memberConst {
				continue
			}
			copy(consts[m.start:m.end], src[m.start:m.end])
			blank(fixed[m.start:m.end])
		}
		low = e.closing + 2
	}
	return fixed, consts
}

// headerSlot finds room for a class header before open: seven bytes on one
// line, after position low.
func headerSlot(src []byte, low, open int) int {
	const size = len("class E")
	for at := open - size; at >= low; at-- {
		if bytes.IndexByte(src[at:at+size], '\n') < 0 {
			return at
		}
	}
	return -1
}

// blank replaces everything but line breaks with spaces.
func blank(b []byte) []byte {
	for i, c := range b {
		if c != '\n' {
			b[i] = ' '
		}
	}
	return b
}

// classBodyConstants indexes the constant declarations of every class body
// by the offset of its opening brace.
func classBodyConstants(root *sitter.Node) map[uint32][]*sitter.Node {
	out := make(map[uint32][]*sitter.Node)
	walk(root, func(n *sitter.Node) bool {
		if n.Type() != "declaration_list" {
			return true
		}
		for _, c := range namedChildren(n) {
			if c.Type() == "const_declaration" {
				out[n.StartByte()] = append(out[n.StartByte()], c)
			}
		}
		return false
	})
	return out
}

// bodyMembers splits the body opening at src[open] into member statements
// and returns the offset of its closing brace.
func bodyMembers(src []byte, open int) ([]member, int, bool) {
	var out []member
	depth := 0
	start := open + 1
	for i := open; i < len(src); i++ {
		switch src[i] {
		case '\'', '"', '`':
			i = skipQuoted(src, i)
		case '/':
			if i+1 < len(src) && src[i+1] == '/' {
				i = skipLine(src, i)
			} else if i+1 < len(src) && src[i+1] == '*' {
				i = skipBlockComment(src, i)
			}
		case '#':
			if i+1 >= len(src) || src[i+1] != '[' {
				i = skipLine(src, i)
			}
		case '<':
			if bytes.HasPrefix(src[i:], []byte("<<<")) {
				i = skipHeredoc(src, i)
			}
		case '{':
			depth++
		case '}':
			depth--
			switch depth {
			case 0:
				return out, i, true
			case 1:
				out = append(out, classifyMember(src, start, i+1))
				start = i + 1
			}
		case ';':
			if depth == 1 {
				out = append(out, classifyMember(src, start, i+1))
				start = i + 1
			}
		}
	}
	return nil, 0, false
}

var memberModifiers = map[string]bool{
	"public": true, "protected": true, "private": true, "final": true,
	"static": true, "abstract": true, "readonly": true, "var": true,
}

// classifyMember reads the first keyword of src[start:end] after comments,
// attributes and modifiers.
func classifyMember(src []byte, start, end int) member {
	m := member{start: start, end: end}
	i := start
	for i < end {
		switch c := src[i]; {
		case c == ' ' || c == '\t' || c == '\r' || c == '\n':
			i++
		case c == '/' && i+1 < end && src[i+1] == '*':
			i = skipBlockComment(src, i) + 1
		case c == '/' && i+1 < end && src[i+1] == '/', c == '#' && (i+1 >= end || src[i+1] != '['):
			i = skipLine(src, i) + 1
		case c == '#':
			i = skipAttribute(src, i) + 1
		case isIdentByte(c):
			j := i
			for j < end && isIdentByte(src[j]) {
				j++
			}
			word := strings.ToLower(string(src[i:j]))
			switch {
			case word == "const":
				m.kind = memberConst
				return m
			case word == "case":
				m.kind = memberCase
				return m
			case memberModifiers[word]:
				i = j
				// private(set)
				if i < end && src[i] == '(' {
					if k := bytes.IndexByte(src[i:end], ')'); k >= 0 {
						i += k + 1
					}
				}
			default:
				return m
			}
		default:
			return m
		}
	}
	return m
}

func isIdentByte(c byte) bool {
	return c == '_' || c >= 0x80 || (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') || (c >= '0' && c <= '9')
}

// The skip helpers return the offset of the last byte they consume.

func skipQuoted(src []byte, i int) int {
	q := src[i]
	for j := i + 1; j < len(src); j++ {
		switch src[j] {
		case '\\':
			j++
		case q:
			return j
		}
	}
	return len(src) - 1
}

func skipLine(src []byte, i int) int {
	if k := bytes.IndexByte(src[i:], '\n'); k >= 0 {
		return i + k - 1
	}
	return len(src) - 1
}

func skipBlockComment(src []byte, i int) int {
	if k := bytes.Index(src[i+2:], []byte("*/")); k >= 0 {
		return i + 2 + k + 1
	}
	return len(src) - 1
}

func skipAttribute(src []byte, i int) int {
	depth := 0
	for j := i + 1; j < len(src); j++ {
		switch src[j] {
		case '\'', '"':
			j = skipQuoted(src, j)
		case '[':
			depth++
		case ']':
			depth--
			if depth == 0 {
				return j
			}
		}
	}
	return len(src) - 1
}

// skipHeredoc skips `<<<LABEL ... LABEL`, nowdocs included.
func skipHeredoc(src []byte, i int) int {
	j := i + 3
	for j < len(src) && (src[j] == ' ' || src[j] == '\t') {
		j++
	}
	if j < len(src) && (src[j] == '\'' || src[j] == '"') {
		j++
	}
	k := j
	for k < len(src) && isIdentByte(src[k]) {
		k++
	}
	label := src[j:k]
	if len(label) == 0 {
		return i + 2
	}
	for p := k; p < len(src); p++ {
		if src[p] != '\n' {
			continue
		}
		q := p + 1
		for q < len(src) && (src[q] == ' ' || src[q] == '\t') {
			q++
		}
		end := q + len(label)
		if bytes.HasPrefix(src[q:], label) && (end >= len(src) || !isIdentByte(src[end])) {
			return end - 1
		}
	}
	return len(src) - 1
}
