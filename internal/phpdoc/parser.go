package phpdoc

import (
	"log/slog"
	"strings"

	"github.com/jward/phpreflect/internal/declaration"
	"github.com/jward/phpreflect/internal/metadata"
	"github.com/jward/phpreflect/internal/types"
)

var templateTags = []string{"template", "template-covariant", "template-contravariant"}

// DiscoverTemplates lists the template names a docblock declares, in order.
// Parsers call it before building the declaration context so that types in
// the same declaration can refer to the templates.
func DiscoverTemplates(comment string) []string {
	var names []string
	for _, t := range Parse(comment).FamilyTags(templateTags...) {
		if name, _, _ := strings.Cut(t.Value, " "); name != "" {
			names = append(names, name)
		}
	}
	return names
}

// DiscoverAliases lists the local type aliases of a class docblock
// (`@phpstan-type Name = ...`, `@psalm-type Name ...`) and the names it
// imports with `@phpstan-import-type`.
func DiscoverAliases(comment string) []string {
	var names []string
	for _, t := range Parse(comment).Tags {
		switch t.Name {
		case "phpstan-type", "psalm-type":
			name := strings.FieldsFunc(t.Value, func(r rune) bool { return r == ' ' || r == '=' })
			if len(name) > 0 {
				names = append(names, name[0])
			}
		case "phpstan-import-type", "psalm-import-type":
			fields := strings.Fields(t.Value)
			if len(fields) >= 5 && strings.EqualFold(fields[3], "as") {
				names = append(names, fields[4])
			} else if len(fields) > 0 {
				names = append(names, fields[0])
			}
		}
	}
	return names
}

type Option func(*Parser)

func WithLogger(logger *slog.Logger) Option {
	return func(p *Parser) { p.logger = logger }
}

// Parser extracts metadata from docblocks. It implements the metadata parser
// interfaces. Malformed types are logged and skipped, never returned as
// errors, since a broken docblock must not hide the declaration.
type Parser struct {
	logger *slog.Logger
}

func NewParser(opts ...Option) *Parser {
	p := &Parser{logger: slog.Default()}
	for _, o := range opts {
		o(p)
	}
	return p
}

var (
	_ metadata.ClassParser    = (*Parser)(nil)
	_ metadata.FunctionParser = (*Parser)(nil)
	_ metadata.ConstantParser = (*Parser)(nil)
)

func (p *Parser) ParseClass(c *declaration.Class) (metadata.Class, error) {
	var out metadata.Class
	if c.PhpDoc != nil {
		doc := Parse(c.PhpDoc.Text)
		tp := NewTypeParser(c.Context)
		out.Templates = p.templates(doc, tp, c.PhpDoc)
		out.Extends = p.ancestorArgs(doc, tp, "extends", "template-extends")
		out.Implements = p.ancestorArgs(doc, tp, "implements", "template-implements")
		out.Uses = p.ancestorArgs(doc, tp, "use", "template-use")
		out.Deprecation = deprecation(doc)
		out.Readonly = doc.Has("readonly") || doc.Has("immutable")
		out.Final = doc.Has("final")
	}
	for _, use := range c.TraitUsePhpDocs {
		doc := Parse(use.Text)
		uses := p.ancestorArgs(doc, NewTypeParser(c.Context), "use", "template-use")
		out = out.With(metadata.Class{Uses: uses})
	}

	for _, k := range c.Constants {
		if k.PhpDoc == nil {
			continue
		}
		doc := Parse(k.PhpDoc.Text)
		m := metadata.ClassConstant{
			Type:        p.varType(doc, NewTypeParser(k.Context), k.Name),
			Deprecation: deprecation(doc),
			Final:       doc.Has("final"),
		}
		out.Constants = setEntry(out.Constants, k.Name, m)
	}
	for _, prop := range c.Properties {
		if prop.PhpDoc == nil {
			continue
		}
		doc := Parse(prop.PhpDoc.Text)
		m := metadata.Property{
			Type:        p.varType(doc, NewTypeParser(prop.Context), prop.Name),
			Readonly:    doc.Has("readonly"),
			Deprecation: deprecation(doc),
		}
		out.Properties = setEntry(out.Properties, prop.Name, m)
	}
	for _, method := range c.Methods {
		if method.PhpDoc == nil {
			continue
		}
		doc := Parse(method.PhpDoc.Text)
		fn := p.function(doc, method.Context, method.PhpDoc)
		out.Methods = setEntry(out.Methods, method.Name, metadata.Method{
			ReturnType:  fn.ReturnType,
			ThrowsTypes: fn.ThrowsTypes,
			Deprecation: fn.Deprecation,
			Parameters:  fn.Parameters,
			Templates:   fn.Templates,
			Final:       doc.Has("final"),
		})
	}
	return out, nil
}

func (p *Parser) ParseFunction(f *declaration.Function) (metadata.Function, error) {
	if f.PhpDoc == nil {
		return metadata.Function{}, nil
	}
	return p.function(Parse(f.PhpDoc.Text), f.Context, f.PhpDoc), nil
}

func (p *Parser) ParseConstant(c *declaration.Constant) (metadata.Constant, error) {
	if c.PhpDoc == nil {
		return metadata.Constant{}, nil
	}
	doc := Parse(c.PhpDoc.Text)
	return metadata.Constant{
		Type:        p.varType(doc, NewTypeParser(c.Context), c.Name),
		Deprecation: deprecation(doc),
	}, nil
}

func (p *Parser) function(doc Doc, ctx declaration.Context, snippet *declaration.Snippet) metadata.Function {
	tp := NewTypeParser(ctx)
	out := metadata.Function{
		Templates:   p.templates(doc, tp, snippet),
		Deprecation: deprecation(doc),
	}
	if tag, ok := doc.Tag("return"); ok {
		out.ReturnType = p.prefixType(tp, tag)
	}
	for _, tag := range doc.Named("throws") {
		if t := p.prefixType(tp, tag); t != nil {
			out.ThrowsTypes = append(out.ThrowsTypes, t)
		}
	}
	for _, tag := range doc.Named("param") {
		t, rest, err := tp.ParsePrefix(tag.Value)
		if err != nil {
			p.skip(tag, err)
			continue
		}
		name := paramName(rest)
		if name == "" {
			continue
		}
		if out.Parameters == nil {
			out.Parameters = make(map[string]metadata.Parameter)
		}
		out.Parameters[name] = out.Parameters[name].With(metadata.Parameter{Type: t})
	}
	return out
}

func (p *Parser) templates(doc Doc, tp TypeParser, snippet *declaration.Snippet) []metadata.Template {
	var out []metadata.Template
	for _, tag := range doc.FamilyTags(templateTags...) {
		name, rest, _ := strings.Cut(tag.Value, " ")
		if name == "" {
			continue
		}
		tmpl := metadata.Template{Name: name, Variance: variance(tag.Name), Snippet: snippet}
		rest = strings.TrimSpace(rest)
		if kw, bound, ok := strings.Cut(rest, " "); ok && (strings.EqualFold(kw, "of") || strings.EqualFold(kw, "as")) {
			t, after, err := tp.ParsePrefix(bound)
			if err != nil {
				p.skip(tag, err)
			} else {
				tmpl.Constraint = t
				rest = strings.TrimSpace(after)
			}
		}
		if def, ok := strings.CutPrefix(rest, "="); ok {
			if t, _, err := tp.ParsePrefix(def); err == nil {
				tmpl.Default = t
			}
		}
		out = append(out, tmpl)
	}
	return out
}

func variance(tagName string) metadata.Variance {
	switch {
	case strings.HasSuffix(tagName, "-covariant"):
		return metadata.Covariant
	case strings.HasSuffix(tagName, "-contravariant"):
		return metadata.Contravariant
	}
	return metadata.Invariant
}

// ancestorArgs reads tags like `@extends Base<int>` into a map from the
// resolved ancestor name to its type arguments.
func (p *Parser) ancestorArgs(doc Doc, tp TypeParser, names ...string) map[string][]types.Type {
	var out map[string][]types.Type
	for _, tag := range doc.FamilyTags(names...) {
		t, _, err := tp.ParsePrefix(tag.Value)
		if err != nil {
			p.skip(tag, err)
			continue
		}
		named, ok := t.(types.Named)
		if !ok {
			continue
		}
		if out == nil {
			out = make(map[string][]types.Type)
		}
		out[named.Class] = named.Args
	}
	return out
}

// varType reads `@var Type [$name]`. When a docblock holds several @var tags
// the one naming the member wins.
func (p *Parser) varType(doc Doc, tp TypeParser, member string) types.Type {
	var fallback types.Type
	for _, tag := range doc.Named("var") {
		t, rest, err := tp.ParsePrefix(tag.Value)
		if err != nil {
			p.skip(tag, err)
			continue
		}
		name := paramName(rest)
		if name == member {
			return t
		}
		if name == "" && fallback == nil {
			fallback = t
		}
	}
	return fallback
}

func (p *Parser) prefixType(tp TypeParser, tag Tag) types.Type {
	t, _, err := tp.ParsePrefix(tag.Value)
	if err != nil {
		p.skip(tag, err)
		return nil
	}
	return t
}

func (p *Parser) skip(tag Tag, err error) {
	p.logger.Debug("skipping malformed docblock tag", "tag", "@"+tag.Name, "value", tag.Value, "error", err)
}

// paramName extracts the variable name at the start of text, without the
// $, & or ... markers.
func paramName(text string) string {
	text = strings.TrimSpace(text)
	text = strings.TrimPrefix(text, "&")
	text = strings.TrimPrefix(text, "...")
	if !strings.HasPrefix(text, "$") {
		return ""
	}
	end := 1
	for end < len(text) && isNameByte(text[end]) && text[end] != '-' {
		end++
	}
	return text[1:end]
}

func deprecation(doc Doc) *metadata.Deprecation {
	tag, ok := doc.Tag("deprecated")
	if !ok {
		return nil
	}
	return &metadata.Deprecation{Message: tag.Value}
}

func setEntry[T any](m map[string]T, key string, v T) map[string]T {
	if m == nil {
		m = make(map[string]T)
	}
	m[key] = v
	return m
}
