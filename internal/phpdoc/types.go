package phpdoc

import (
	"fmt"
	"strings"

	"github.com/jward/phpreflect/internal/declaration"
	"github.com/jward/phpreflect/internal/types"
)

// keywords maps docblock keywords, lowercase, to their canonical name.
var keywords = map[string]string{
	"mixed": "mixed", "never": "never", "never-return": "never", "noreturn": "never", "void": "void",
	"null": "null", "bool": "bool", "boolean": "bool", "true": "true", "false": "false",
	"int": "int", "integer": "int", "float": "float", "double": "float", "string": "string",
	"array-key": "array-key", "array": "array", "iterable": "iterable", "object": "object",
	"scalar": "scalar", "resource": "resource", "closed-resource": "closed-resource",
	"positive-int": "positive-int", "negative-int": "negative-int", "non-negative-int": "non-negative-int",
	"non-positive-int": "non-positive-int", "non-empty-string": "non-empty-string",
	"numeric-string": "numeric-string", "literal-string": "literal-string",
	"lowercase-string": "lowercase-string", "non-falsy-string": "non-falsy-string",
	"truthy-string": "non-falsy-string", "class-string": "class-string",
	"callable-string": "callable-string", "list": "list", "non-empty-list": "non-empty-list",
	"non-empty-array": "non-empty-array", "numeric": "numeric", "callable": "callable",
	"key-of": "key-of", "value-of": "value-of", "interface-string": "interface-string",
	"enum-string": "enum-string", "trait-string": "trait-string",
}

// TypeParser parses docblock types against a declaration context, so class
// names resolve through the file's imports and template names become
// template references.
type TypeParser struct {
	ctx declaration.Context
}

func NewTypeParser(ctx declaration.Context) TypeParser {
	return TypeParser{ctx: ctx}
}

// Parse parses a complete type expression.
func (tp TypeParser) Parse(text string) (types.Type, error) {
	t, rest, err := tp.ParsePrefix(text)
	if err != nil {
		return nil, err
	}
	if strings.TrimSpace(rest) != "" {
		return nil, fmt.Errorf("phpdoc: unexpected %q after type", strings.TrimSpace(rest))
	}
	return t, nil
}

// ParsePrefix parses the type at the start of text and returns the text that
// follows it, such as a parameter name or a description.
func (tp TypeParser) ParsePrefix(text string) (types.Type, string, error) {
	p := &typeParser{ctx: tp.ctx, lex: lexer{src: text}}
	p.advance()
	t, err := p.parseType()
	if err != nil {
		return nil, "", err
	}
	return t, text[p.tok.pos:], nil
}

type typeParser struct {
	ctx declaration.Context
	lex lexer
	tok token
}

type parserState struct {
	pos int
	tok token
}

func (p *typeParser) advance()            { p.tok = p.lex.next() }
func (p *typeParser) save() parserState   { return parserState{pos: p.lex.pos, tok: p.tok} }
func (p *typeParser) restore(s parserState) { p.lex.pos, p.tok = s.pos, s.tok }

func (p *typeParser) is(punct string) bool {
	return p.tok.kind == tokPunct && p.tok.text == punct
}

// isAttached reports punct directly after the previous token, without
// whitespace in between.
func (p *typeParser) isAttached(punct string) bool {
	return p.is(punct) && !p.tok.spaced
}

func (p *typeParser) expect(punct string) error {
	if !p.is(punct) {
		return p.unexpected("expected " + punct)
	}
	p.advance()
	return nil
}

func (p *typeParser) unexpected(what string) error {
	if p.tok.kind == tokEOF {
		return fmt.Errorf("phpdoc: %s, got end of input", what)
	}
	return fmt.Errorf("phpdoc: %s, got %q at offset %d", what, p.tok.text, p.tok.pos)
}

func (p *typeParser) parseType() (types.Type, error) {
	first, err := p.parseIntersection()
	if err != nil {
		return nil, err
	}
	if !p.is("|") {
		return first, nil
	}
	members := []types.Type{first}
	for p.is("|") {
		p.advance()
		t, err := p.parseIntersection()
		if err != nil {
			return nil, err
		}
		members = append(members, t)
	}
	return types.NewUnion(members...), nil
}

func (p *typeParser) parseIntersection() (types.Type, error) {
	first, err := p.parsePostfix()
	if err != nil {
		return nil, err
	}
	members := []types.Type{first}
	for p.is("&") {
		// `&...$x` and `&$x` mark by-reference callable parameters.
		s := p.save()
		p.advance()
		if p.tok.kind == tokVariable || p.is("...") {
			p.restore(s)
			break
		}
		t, err := p.parsePostfix()
		if err != nil {
			return nil, err
		}
		members = append(members, t)
	}
	return types.NewIntersection(members...), nil
}

func (p *typeParser) parsePostfix() (types.Type, error) {
	t, err := p.parsePrefix()
	if err != nil {
		return nil, err
	}
	for p.isAttached("[") {
		s := p.save()
		p.advance()
		if !p.is("]") {
			p.restore(s)
			break
		}
		p.advance()
		t = types.Generic{Name: "array", Args: []types.Type{t}}
	}
	return t, nil
}

func (p *typeParser) parsePrefix() (types.Type, error) {
	if p.is("?") {
		p.advance()
		t, err := p.parsePrefix()
		if err != nil {
			return nil, err
		}
		return types.NewNullable(t), nil
	}
	return p.parsePrimary()
}

func (p *typeParser) parsePrimary() (types.Type, error) {
	switch p.tok.kind {
	case tokString, tokNumber:
		t := types.Literal{Value: p.tok.text}
		p.advance()
		return t, nil
	case tokVariable:
		if p.tok.text == "$this" {
			p.advance()
			return p.ctx.ResolveNameAsType("static"), nil
		}
		return nil, p.unexpected("expected a type")
	case tokName:
		return p.parseNamed()
	}
	if p.is("(") {
		p.advance()
		t, err := p.parseType()
		if err != nil {
			return nil, err
		}
		return t, p.expect(")")
	}
	return nil, p.unexpected("expected a type")
}

func (p *typeParser) parseNamed() (types.Type, error) {
	name := p.tok.text
	p.advance()
	lower := strings.ToLower(name)

	if p.isAttached("::") {
		p.advance()
		if p.tok.kind != tokName && !p.is("*") {
			return nil, p.unexpected("expected a constant name")
		}
		member := p.tok.text
		p.advance()
		if member != "*" && p.isAttached("*") {
			member += "*"
			p.advance()
		}
		return types.Literal{Value: p.className(name) + "::" + member}, nil
	}

	switch lower {
	case "self", "static", "parent":
		args, err := p.parseOptionalArgs()
		if err != nil {
			return nil, err
		}
		return p.ctx.ResolveNameAsType(lower, args...), nil
	case "callable", "closure", `\closure`:
		if p.isAttached("(") {
			return p.parseCallable(name)
		}
	case "array", "list", "non-empty-array", "non-empty-list":
		if p.isAttached("{") {
			return p.parseShape(strings.Contains(lower, "list"))
		}
	}

	if canonical, ok := keywords[lower]; ok && !strings.Contains(name, `\`) {
		args, err := p.parseOptionalArgs()
		if err != nil {
			return nil, err
		}
		if len(args) == 0 {
			return types.Keyword{Name: canonical}, nil
		}
		return types.Generic{Name: canonical, Args: args}, nil
	}

	if tmpl, ok := p.ctx.Template(name); ok {
		return types.NewTemplate(tmpl), nil
	}
	args, err := p.parseOptionalArgs()
	if err != nil {
		return nil, err
	}
	if alias, ok := p.ctx.Alias(name); ok {
		return types.AliasRef{ID: alias, Args: args}, nil
	}
	return types.NewNamed(p.ctx.ResolveClassName(name), args...), nil
}

func (p *typeParser) parseOptionalArgs() ([]types.Type, error) {
	if !p.isAttached("<") {
		return nil, nil
	}
	p.advance()
	var args []types.Type
	for {
		// int<min, max> ranges use bare names as bounds.
		if p.tok.kind == tokName && (p.tok.text == "min" || p.tok.text == "max") {
			args = append(args, types.Literal{Value: p.tok.text})
			p.advance()
		} else {
			t, err := p.parseType()
			if err != nil {
				return nil, err
			}
			args = append(args, t)
		}
		if p.is(",") {
			p.advance()
			continue
		}
		return args, p.expect(">")
	}
}

func (p *typeParser) parseShape(list bool) (types.Type, error) {
	p.advance() // {
	shape := types.Shape{List: list, Sealed: true}
	for !p.is("}") {
		if p.is("...") {
			p.advance()
			shape.Sealed = false
			if p.is(",") {
				p.advance()
			}
			continue
		}
		item, err := p.parseShapeItem()
		if err != nil {
			return nil, err
		}
		shape.Items = append(shape.Items, item)
		if p.is(",") {
			p.advance()
			continue
		}
		if !p.is("}") {
			return nil, p.unexpected("expected , or }")
		}
	}
	p.advance()
	return shape, nil
}

func (p *typeParser) parseShapeItem() (types.ShapeItem, error) {
	if p.tok.kind == tokName || p.tok.kind == tokNumber || p.tok.kind == tokString {
		s := p.save()
		key := strings.Trim(p.tok.text, `'"`)
		p.advance()
		optional := false
		if p.is("?") {
			optional = true
			p.advance()
		}
		if p.is(":") {
			p.advance()
			t, err := p.parseType()
			if err != nil {
				return types.ShapeItem{}, err
			}
			return types.ShapeItem{Key: key, Optional: optional, Type: t}, nil
		}
		p.restore(s)
	}
	t, err := p.parseType()
	if err != nil {
		return types.ShapeItem{}, err
	}
	return types.ShapeItem{Type: t}, nil
}

func (p *typeParser) parseCallable(name string) (types.Type, error) {
	p.advance() // (
	c := types.Callable{Name: strings.TrimPrefix(name, `\`)}
	for !p.is(")") {
		t, err := p.parseType()
		if err != nil {
			return nil, err
		}
		if p.is("&") {
			p.advance()
		}
		if p.is("...") {
			p.advance()
		}
		if p.tok.kind == tokVariable {
			p.advance()
		}
		if p.is("=") {
			p.advance()
		}
		c.Params = append(c.Params, t)
		if p.is(",") {
			p.advance()
			continue
		}
		if !p.is(")") {
			return nil, p.unexpected("expected , or )")
		}
	}
	p.advance()
	if p.is(":") {
		p.advance()
		ret, err := p.parsePostfix()
		if err != nil {
			return nil, err
		}
		c.Return = ret
	}
	return c, nil
}

func (p *typeParser) className(name string) string {
	switch strings.ToLower(name) {
	case "self", "static":
		return p.ctx.SelfName()
	case "parent":
		if p.ctx.Parent != nil {
			return p.ctx.Parent.Name
		}
	}
	return p.ctx.ResolveClassName(name)
}
