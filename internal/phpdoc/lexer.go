package phpdoc

import (
	"strings"
	"unicode"
)

type tokenKind uint8

const (
	tokEOF tokenKind = iota
	tokName
	tokVariable
	tokString
	tokNumber
	tokPunct
)

type token struct {
	kind tokenKind
	text string
	// pos is the byte offset of the token in the input.
	pos int
	// spaced reports whitespace right before the token.
	spaced bool
}

// lexer produces type tokens lazily so the parser can stop in the middle of
// a tag and hand the rest of the text back as description.
type lexer struct {
	src string
	pos int
}

var punctuation = []string{"...", "::", "<", ">", ",", "|", "&", "?", "(", ")", "[", "]", "{", "}", ":", "=", "*"}

func (l *lexer) next() token {
	start := l.pos
	for l.pos < len(l.src) && isSpace(l.src[l.pos]) {
		l.pos++
	}
	spaced := l.pos > start
	if l.pos >= len(l.src) {
		return token{kind: tokEOF, pos: l.pos, spaced: spaced}
	}
	begin := l.pos
	c := l.src[l.pos]
	switch {
	case c == '$':
		l.pos++
		l.scanWhile(isNameByte)
		return token{kind: tokVariable, text: l.src[begin:l.pos], pos: begin, spaced: spaced}
	case c == '\'' || c == '"':
		l.pos++
		for l.pos < len(l.src) && l.src[l.pos] != c {
			if l.src[l.pos] == '\\' {
				l.pos++
			}
			l.pos++
		}
		if l.pos < len(l.src) {
			l.pos++
		}
		return token{kind: tokString, text: l.src[begin:l.pos], pos: begin, spaced: spaced}
	case isDigit(c) || (c == '-' && l.pos+1 < len(l.src) && isDigit(l.src[l.pos+1])):
		l.pos++
		l.scanWhile(func(b byte) bool { return isDigit(b) || b == '.' || b == '_' || b == 'x' || b == 'e' })
		return token{kind: tokNumber, text: l.src[begin:l.pos], pos: begin, spaced: spaced}
	case isNameStart(c):
		l.scanWhile(isNameByte)
		return token{kind: tokName, text: l.src[begin:l.pos], pos: begin, spaced: spaced}
	}
	for _, p := range punctuation {
		if strings.HasPrefix(l.src[l.pos:], p) {
			l.pos += len(p)
			return token{kind: tokPunct, text: p, pos: begin, spaced: spaced}
		}
	}
	// Unknown byte; emit it so the parser can fail on it.
	l.pos++
	return token{kind: tokPunct, text: l.src[begin:l.pos], pos: begin, spaced: spaced}
}

func (l *lexer) scanWhile(ok func(byte) bool) {
	for l.pos < len(l.src) && ok(l.src[l.pos]) {
		l.pos++
	}
}

func isSpace(b byte) bool { return b == ' ' || b == '\t' || b == '\n' || b == '\r' }
func isDigit(b byte) bool { return b >= '0' && b <= '9' }

func isNameStart(b byte) bool {
	return b == '_' || b == '\\' || b >= 0x80 || unicode.IsLetter(rune(b))
}

func isNameByte(b byte) bool {
	return isNameStart(b) || isDigit(b) || b == '-'
}
