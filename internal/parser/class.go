package parser

import (
	"cmp"
	"slices"
	"strings"

	sitter "github.com/smacker/go-tree-sitter"

	"github.com/jward/phpreflect/internal/declaration"
	"github.com/jward/phpreflect/internal/expr"
	"github.com/jward/phpreflect/internal/id"
	"github.com/jward/phpreflect/internal/phpdoc"
)

var classKinds = map[string]declaration.ClassKind{
	"class_declaration":     declaration.KindClass,
	"interface_declaration": declaration.KindInterface,
	"trait_declaration":     declaration.KindTrait,
	"enum_declaration":      declaration.KindEnum,
}

func (f *file) classLike(n *sitter.Node, outer declaration.Context) error {
	name := outer.Scope.Qualify(f.text(n.ChildByFieldName("name")))
	return f.class(n, n, outer, classKinds[n.Type()], id.NamedClass{Name: name})
}

func isAnonymousClass(n *sitter.Node) bool {
	return hasChild(n, "anonymous_class") || hasChild(n, "declaration_list")
}

// anonymousClass records `new class(...) {...}`. Its position is the one of
// the class keyword.
func (f *file) anonymousClass(n *sitter.Node, outer declaration.Context) error {
	node := childOfType(n, "anonymous_class")
	if node == nil {
		node = n
	}
	line, column := position(node)
	if kw := childOfType(node, "class"); kw != nil {
		line, column = position(kw)
	}
	if args := childOfType(node, "arguments"); args != nil {
		if err := f.children(args, outer); err != nil {
			return err
		}
	}
	class := id.AnonymousClass{File: f.source.File, Line: line, Column: column}
	return f.class(node, parentStatement(n), outer, declaration.KindClass, class)
}

// class builds a class-like from n. docAnchor is the node a doc comment
// would precede.
func (f *file) class(n, docAnchor *sitter.Node, outer declaration.Context, kind declaration.ClassKind, classID id.Class) error {
	c := &declaration.Class{Kind: kind, Snippet: f.snippet(n), PhpDoc: f.docComment(docAnchor)}

	if base := childOfType(n, "base_clause"); base != nil {
		names := f.names(base, outer)
		if kind == declaration.KindInterface {
			c.Interfaces = append(c.Interfaces, names...)
		} else if len(names) > 0 {
			c.Parent = names[0]
		}
	}
	if impl := childOfType(n, "class_interface_clause"); impl != nil {
		c.Interfaces = append(c.Interfaces, f.names(impl, outer)...)
	}

	ctx := outer.EnterClass(kind, classID, c.Parent)
	if c.PhpDoc != nil {
		ctx = ctx.
			WithTemplates(phpdoc.DiscoverTemplates(c.PhpDoc.Text)...).
			WithAliases(phpdoc.DiscoverAliases(c.PhpDoc.Text)...)
	}
	c.Context = ctx

	mods := f.modifiers(n)
	c.Abstract, c.Final, c.Readonly = mods.abstract, mods.final, mods.readonly

	var err error
	if c.Attributes, err = f.attributes(n, ctx); err != nil {
		return err
	}
	if kind == declaration.KindEnum {
		if t := afterToken(n, ":"); t != nil {
			if c.BackingType, err = f.nativeType(t, ctx); err != nil {
				return err
			}
		}
	}

	f.decls = append(f.decls, c)

	body := n.ChildByFieldName("body")
	if body == nil {
		body = childOfType(n, "declaration_list", "enum_declaration_list")
	}
	if body == nil {
		return nil
	}
	if err := f.members(body, c); err != nil {
		return err
	}
	if kind != declaration.KindEnum {
		return nil
	}
	for _, n := range f.enumConsts[body.StartByte()] {
		consts, err := f.classConstants(n, ctx)
		if err != nil {
			return err
		}
		c.Constants = append(c.Constants, consts...)
	}
	slices.SortStableFunc(c.Constants, func(a, b declaration.ClassConstant) int {
		return cmp.Or(cmp.Compare(a.Snippet.StartLine, b.Snippet.StartLine), cmp.Compare(a.Snippet.StartColumn, b.Snippet.StartColumn))
	})
	return nil
}

func (f *file) members(body *sitter.Node, c *declaration.Class) error {
	ctx := c.Context
	var bodies []*sitter.Node
	var bodyContexts []declaration.Context
	for _, n := range namedChildren(body) {
		switch n.Type() {
		case "const_declaration":
			consts, err := f.classConstants(n, ctx)
			if err != nil {
				return err
			}
			c.Constants = append(c.Constants, consts...)
		case "enum_case":
			k, err := f.enumCase(n, ctx)
			if err != nil {
				return err
			}
			c.Constants = append(c.Constants, k)
		case "property_declaration":
			props, err := f.properties(n, ctx)
			if err != nil {
				return err
			}
			c.Properties = append(c.Properties, props...)
		case "method_declaration":
			m, err := f.method(n, ctx)
			if err != nil {
				return err
			}
			c.Methods = append(c.Methods, m)
			if b := n.ChildByFieldName("body"); b != nil {
				bodies = append(bodies, b)
				bodyContexts = append(bodyContexts, m.Context)
			}
		case "use_declaration":
			f.traitUse(n, c)
		}
	}
	for i, b := range bodies {
		if err := f.children(b, bodyContexts[i]); err != nil {
			return err
		}
	}
	return nil
}

func (f *file) classConstants(n *sitter.Node, ctx declaration.Context) ([]declaration.ClassConstant, error) {
	mods := f.modifiers(n)
	attrs, err := f.attributes(n, ctx)
	if err != nil {
		return nil, err
	}
	typ := n.ChildByFieldName("type")
	doc := f.docComment(n)
	var out []declaration.ClassConstant
	for _, el := range namedChildren(n) {
		if el.Type() != "const_element" {
			continue
		}
		name, value, err := f.constElement(el, ctx)
		if err != nil {
			return nil, err
		}
		k := declaration.ClassConstant{
			Context:    ctx,
			Name:       name,
			Visibility: mods.visibility,
			Final:      mods.final,
			Value:      value,
			Attributes: attrs,
			PhpDoc:     doc,
			Snippet:    f.snippet(el),
		}
		if typ != nil {
			if k.Type, err = f.nativeType(typ, ctx); err != nil {
				return nil, err
			}
		}
		out = append(out, k)
	}
	return out, nil
}

func (f *file) constElement(el *sitter.Node, ctx declaration.Context) (string, expr.Expr, error) {
	var name string
	if children := namedChildren(el); len(children) > 0 {
		name = f.text(children[0])
	}
	value, err := f.constExpr(afterToken(el, "="), ctx)
	return name, value, err
}

func (f *file) enumCase(n *sitter.Node, ctx declaration.Context) (declaration.ClassConstant, error) {
	nameNode := n.ChildByFieldName("name")
	if nameNode == nil {
		nameNode = childOfType(n, "name")
	}
	valueNode := n.ChildByFieldName("value")
	if valueNode == nil {
		valueNode = afterToken(n, "=")
	}
	backing, err := f.constExpr(valueNode, ctx)
	if err != nil {
		return declaration.ClassConstant{}, err
	}
	attrs, err := f.attributes(n, ctx)
	if err != nil {
		return declaration.ClassConstant{}, err
	}
	return declaration.ClassConstant{
		Context:      ctx,
		Name:         f.text(nameNode),
		Visibility:   declaration.Public,
		EnumCase:     true,
		BackingValue: backing,
		Attributes:   attrs,
		PhpDoc:       f.docComment(n),
		Snippet:      f.snippet(n),
	}, nil
}

func (f *file) properties(n *sitter.Node, ctx declaration.Context) ([]declaration.Property, error) {
	mods := f.modifiers(n)
	attrs, err := f.attributes(n, ctx)
	if err != nil {
		return nil, err
	}
	typ := n.ChildByFieldName("type")
	doc := f.docComment(n)
	var out []declaration.Property
	for _, el := range namedChildren(n) {
		if el.Type() != "property_element" {
			continue
		}
		nameNode := el.ChildByFieldName("name")
		if nameNode == nil {
			nameNode = childOfType(el, "variable_name")
		}
		def := el.ChildByFieldName("default_value")
		if def == nil {
			if init := childOfType(el, "property_initializer"); init != nil {
				def = afterToken(init, "=")
			} else {
				def = afterToken(el, "=")
			}
		}
		p := declaration.Property{
			Context:    ctx,
			Name:       variableName(f.text(nameNode)),
			Visibility: mods.visibility,
			Static:     mods.static,
			Readonly:   mods.readonly,
			Attributes: attrs,
			PhpDoc:     doc,
			Snippet:    f.snippet(el),
		}
		if typ != nil {
			if p.Type, err = f.nativeType(typ, ctx); err != nil {
				return nil, err
			}
		}
		if p.Default, err = f.constExpr(def, ctx); err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, nil
}

func (f *file) method(n *sitter.Node, class declaration.Context) (declaration.Method, error) {
	name := f.text(n.ChildByFieldName("name"))
	doc := f.docComment(n)
	ctx := class.EnterMethod(name)
	if doc != nil {
		ctx = ctx.WithTemplates(phpdoc.DiscoverTemplates(doc.Text)...)
	}
	sig, err := f.signature(n, ctx)
	if err != nil {
		return declaration.Method{}, err
	}
	attrs, err := f.attributes(n, ctx)
	if err != nil {
		return declaration.Method{}, err
	}
	mods := f.modifiers(n)
	return declaration.Method{
		Context:          ctx,
		Name:             name,
		Visibility:       mods.visibility,
		Static:           mods.static,
		Abstract:         mods.abstract,
		Final:            mods.final,
		ReturnsReference: sig.byRef,
		Generator:        sig.generator,
		ReturnType:       sig.returnType,
		Parameters:       sig.params,
		Attributes:       attrs,
		PhpDoc:           doc,
		Snippet:          f.snippet(n),
		Deprecated:       deprecated(attrs),
	}, nil
}

// traitUse reads `use A, B { A::x insteadof B; B::x as protected y; }`.
func (f *file) traitUse(n *sitter.Node, c *declaration.Class) {
	ctx := c.Context
	for _, child := range namedChildren(n) {
		if isNameNode(child) {
			c.Traits = append(c.Traits, ctx.ResolveClassName(nameText(f.text(child))))
		}
	}
	if doc := f.docComment(n); doc != nil {
		c.TraitUsePhpDocs = append(c.TraitUsePhpDocs, *doc)
	}
	list := childOfType(n, "use_list")
	if list == nil {
		return
	}
	for _, clause := range namedChildren(list) {
		parts := namedChildren(clause)
		if len(parts) == 0 {
			continue
		}
		trait, method := f.traitMethod(parts[0], ctx)
		switch clause.Type() {
		case "use_instead_of_clause":
			if trait == "" || method == "" {
				continue
			}
			if c.TraitMethodPrecedence == nil {
				c.TraitMethodPrecedence = make(map[string]string)
			}
			c.TraitMethodPrecedence[strings.ToLower(method)] = trait
		case "use_as_clause":
			alias := declaration.TraitMethodAlias{Trait: trait, Method: method}
			for _, p := range parts[1:] {
				switch p.Type() {
				case "visibility_modifier":
					alias.NewVisibility = declaration.ParseVisibility(f.text(p))
				case "name":
					alias.NewName = f.text(p)
				}
			}
			c.TraitMethodAliases = append(c.TraitMethodAliases, alias)
		}
	}
}

// traitMethod splits `Trait::method` or a bare `method`.
func (f *file) traitMethod(n *sitter.Node, ctx declaration.Context) (string, string) {
	if n.Type() != "class_constant_access_expression" {
		return "", f.text(n)
	}
	parts := namedChildren(n)
	if len(parts) < 2 {
		return "", ""
	}
	return ctx.ResolveClassName(nameText(f.text(parts[0]))), f.text(parts[1])
}

func (f *file) names(n *sitter.Node, ctx declaration.Context) []string {
	var out []string
	for _, c := range namedChildren(n) {
		if isNameNode(c) {
			out = append(out, ctx.ResolveClassName(nameText(f.text(c))))
		}
	}
	return out
}

// attributes reads the #[...] groups among the direct children of n.
func (f *file) attributes(n *sitter.Node, ctx declaration.Context) ([]declaration.Attribute, error) {
	var out []declaration.Attribute
	for i := 0; i < int(n.ChildCount()); i++ {
		list := n.Child(i)
		if list.Type() != "attribute_list" {
			continue
		}
		var err error
		walk(list, func(a *sitter.Node) bool {
			if err != nil || a.Type() != "attribute" {
				return err == nil
			}
			var attr declaration.Attribute
			attr, err = f.attribute(a, ctx)
			out = append(out, attr)
			return false
		})
		if err != nil {
			return nil, err
		}
	}
	return out, nil
}

func (f *file) attribute(n *sitter.Node, ctx declaration.Context) (declaration.Attribute, error) {
	var class string
	for _, c := range namedChildren(n) {
		if isNameNode(c) {
			class = ctx.ResolveClassName(nameText(f.text(c)))
			break
		}
	}
	args, err := f.argumentList(childOfType(n, "arguments"), ctx)
	if err != nil {
		return declaration.Attribute{}, err
	}
	return declaration.Attribute{Class: class, Arguments: args, Snippet: f.snippet(n)}, nil
}

func deprecated(attrs []declaration.Attribute) bool {
	for _, a := range attrs {
		if strings.EqualFold(a.Class, "Deprecated") {
			return true
		}
	}
	return false
}

type modifiers struct {
	visibility declaration.Visibility
	static     bool
	abstract   bool
	final      bool
	readonly   bool
}

func (f *file) modifiers(n *sitter.Node) modifiers {
	var m modifiers
	for i := 0; i < int(n.ChildCount()); i++ {
		c := n.Child(i)
		if !strings.HasSuffix(c.Type(), "_modifier") {
			continue
		}
		word := strings.ToLower(f.text(c))
		// Asymmetric visibility: `public private(set)`.
		word, _, _ = strings.Cut(word, "(")
		switch word {
		case "public", "protected", "private":
			if m.visibility == declaration.VisibilityNone {
				m.visibility = declaration.ParseVisibility(word)
			}
		case "static":
			m.static = true
		case "abstract":
			m.abstract = true
		case "final":
			m.final = true
		case "readonly":
			m.readonly = true
		}
	}
	return m
}

func variableName(s string) string {
	return strings.TrimLeft(s, "&.$")
}

// namedChildren returns the named children of n except comments.
func namedChildren(n *sitter.Node) []*sitter.Node {
	if n == nil {
		return nil
	}
	out := make([]*sitter.Node, 0, n.NamedChildCount())
	for i := 0; i < int(n.NamedChildCount()); i++ {
		if c := n.NamedChild(i); c.Type() != "comment" {
			out = append(out, c)
		}
	}
	return out
}

// afterToken returns the first named child after the anonymous token tok.
func afterToken(n *sitter.Node, tok string) *sitter.Node {
	seen := false
	for i := 0; i < int(n.ChildCount()); i++ {
		c := n.Child(i)
		if !c.IsNamed() && c.Type() == tok {
			seen = true
			continue
		}
		if seen && c.IsNamed() && c.Type() != "comment" {
			return c
		}
	}
	return nil
}

// walk visits n and its descendants depth-first while fn returns true.
func walk(n *sitter.Node, fn func(*sitter.Node) bool) {
	if !fn(n) {
		return
	}
	for i := 0; i < int(n.NamedChildCount()); i++ {
		walk(n.NamedChild(i), fn)
	}
}
