package parser

import (
	"log/slog"
	"strings"

	sitter "github.com/smacker/go-tree-sitter"

	"github.com/jward/phpreflect/internal/declaration"
	"github.com/jward/phpreflect/internal/phpdoc"
)

// file holds the state of one parse. Namespace statements without a body
// change scope for the statements after them, so scope is mutable.
type file struct {
	logger *slog.Logger
	src    []byte
	source declaration.Source
	scope  declaration.NameScope
	decls  []declaration.Declaration

	// enumConsts holds constants of enum bodies parsed separately, keyed by
	// the offset of the body's opening brace.
	enumConsts map[uint32][]*sitter.Node
}

func (f *file) context() declaration.Context {
	return declaration.NewContext(f.source, f.scope)
}

func (f *file) text(n *sitter.Node) string {
	if n == nil {
		return ""
	}
	return n.Content(f.src)
}

func (f *file) statements(n *sitter.Node) error {
	for i := 0; i < int(n.NamedChildCount()); i++ {
		child := n.NamedChild(i)
		var err error
		switch child.Type() {
		case "namespace_definition":
			err = f.namespace(child)
		case "namespace_use_declaration":
			f.imports(child)
		default:
			err = f.visit(child, f.context())
		}
		if err != nil {
			return err
		}
	}
	return nil
}

func (f *file) namespace(n *sitter.Node) error {
	name := n.ChildByFieldName("name")
	if name == nil {
		name = childOfType(n, "namespace_name")
	}
	f.scope = declaration.NameScope{Namespace: nameText(f.text(name))}
	body := n.ChildByFieldName("body")
	if body == nil {
		body = childOfType(n, "compound_statement")
	}
	if body == nil {
		return nil
	}
	err := f.statements(body)
	f.scope = declaration.NameScope{}
	return err
}

type importKind uint8

const (
	importClass importKind = iota
	importFunction
	importConstant
)

// imports records `use` statements, including group uses such as
// `use A\{B, function c, const D}`.
func (f *file) imports(n *sitter.Node) {
	kind := f.importKind(n, importClass)
	prefix := ""
	if group := childOfType(n, "namespace_use_group"); group != nil {
		for i := 0; i < int(n.NamedChildCount()); i++ {
			if c := n.NamedChild(i); isNameNode(c) {
				prefix = nameText(f.text(c))
				break
			}
		}
		for i := 0; i < int(group.NamedChildCount()); i++ {
			f.importClause(group.NamedChild(i), prefix, kind)
		}
		return
	}
	for i := 0; i < int(n.NamedChildCount()); i++ {
		f.importClause(n.NamedChild(i), "", kind)
	}
}

func (f *file) importClause(n *sitter.Node, prefix string, kind importKind) {
	if n.Type() != "namespace_use_clause" && n.Type() != "namespace_use_group_clause" {
		return
	}
	kind = f.importKind(n, kind)
	var names []string
	alias := ""
	if a := n.ChildByFieldName("alias"); a != nil {
		alias = f.text(a)
	}
	for i := 0; i < int(n.NamedChildCount()); i++ {
		c := n.NamedChild(i)
		switch {
		case c.Type() == "namespace_aliasing_clause":
			alias = f.text(childOfType(c, "name"))
		case isNameNode(c):
			names = append(names, nameText(f.text(c)))
		}
	}
	if len(names) == 0 {
		return
	}
	target := names[0]
	if alias == "" && len(names) > 1 {
		alias = names[len(names)-1]
	}
	if prefix != "" {
		target = prefix + `\` + target
	}
	target = strings.TrimPrefix(target, `\`)
	if alias == "" {
		alias = target[strings.LastIndexByte(target, '\\')+1:]
	}

	switch kind {
	case importFunction:
		f.scope.Functions = put(f.scope.Functions, strings.ToLower(alias), target)
	case importConstant:
		f.scope.Constants = put(f.scope.Constants, alias, target)
	default:
		f.scope.Classes = put(f.scope.Classes, strings.ToLower(alias), target)
	}
}

// importKind reads a `function` or `const` keyword among the direct
// children of n.
func (f *file) importKind(n *sitter.Node, fallback importKind) importKind {
	if t := n.ChildByFieldName("type"); t != nil {
		return keywordKind(f.text(t), fallback)
	}
	for i := 0; i < int(n.ChildCount()); i++ {
		c := n.Child(i)
		switch c.Type() {
		case "function", "const", "namespace_function_or_const":
			return keywordKind(f.text(c), fallback)
		}
	}
	return fallback
}

func keywordKind(keyword string, fallback importKind) importKind {
	switch strings.ToLower(strings.TrimSpace(keyword)) {
	case "function":
		return importFunction
	case "const":
		return importConstant
	}
	return fallback
}

// visit walks n looking for declarations. Class and function declarations
// are global wherever they appear, and anonymous classes may appear in any
// expression.
func (f *file) visit(n *sitter.Node, ctx declaration.Context) error {
	switch n.Type() {
	case "class_declaration", "interface_declaration", "trait_declaration", "enum_declaration":
		return f.classLike(n, ctx)
	case "function_definition":
		return f.function(n, ctx)
	case "const_declaration":
		return f.constants(n, ctx)
	case "object_creation_expression":
		if isAnonymousClass(n) {
			return f.anonymousClass(n, ctx)
		}
	case "anonymous_function_creation_expression", "anonymous_function", "arrow_function":
		line, column := position(n)
		return f.children(n, ctx.EnterAnonymousFunction(line, column))
	case "function_call_expression":
		if err := f.define(n, ctx); err != nil {
			return err
		}
	}
	return f.children(n, ctx)
}

func (f *file) children(n *sitter.Node, ctx declaration.Context) error {
	for i := 0; i < int(n.NamedChildCount()); i++ {
		if err := f.visit(n.NamedChild(i), ctx); err != nil {
			return err
		}
	}
	return nil
}

// define records `define('NAME', value)` calls. Calls whose value is not a
// constant expression are skipped.
func (f *file) define(n *sitter.Node, ctx declaration.Context) error {
	fn := n.ChildByFieldName("function")
	if fn == nil || !strings.EqualFold(strings.TrimPrefix(nameText(f.text(fn)), `\`), "define") {
		return nil
	}
	args := arguments(n.ChildByFieldName("arguments"))
	if len(args) < 2 {
		return nil
	}
	nameExpr, err := f.expr(args[0], ctx)
	if err != nil {
		return nil
	}
	name, ok := stringLiteral(nameExpr)
	if !ok {
		return nil
	}
	value, err := f.expr(args[1], ctx)
	if err != nil {
		f.logger.Debug("skipping define() with dynamic value", "constant", name, "path", f.source.File, "error", err)
		return nil
	}
	c := &declaration.Constant{
		Context: ctx,
		Name:    strings.TrimPrefix(name, `\`),
		Value:   value,
		Defined: true,
		PhpDoc:  f.docComment(parentStatement(n)),
		Snippet: f.snippet(n),
	}
	f.decls = append(f.decls, c)
	return nil
}

// constants records `const A = 1, B = 2;` outside of classes.
func (f *file) constants(n *sitter.Node, ctx declaration.Context) error {
	doc := f.docComment(n)
	for i := 0; i < int(n.NamedChildCount()); i++ {
		el := n.NamedChild(i)
		if el.Type() != "const_element" {
			continue
		}
		name, value, err := f.constElement(el, ctx)
		if err != nil {
			return err
		}
		f.decls = append(f.decls, &declaration.Constant{
			Context: ctx,
			Name:    ctx.Scope.Qualify(name),
			Value:   value,
			PhpDoc:  doc,
			Snippet: f.snippet(el),
		})
	}
	return nil
}

func (f *file) function(n *sitter.Node, outer declaration.Context) error {
	short := f.text(n.ChildByFieldName("name"))
	doc := f.docComment(n)
	ctx := outer.EnterFunction(outer.Scope.Qualify(short))
	if doc != nil {
		ctx = ctx.WithTemplates(phpdoc.DiscoverTemplates(doc.Text)...)
	}
	sig, err := f.signature(n, ctx)
	if err != nil {
		return err
	}
	attrs, err := f.attributes(n, ctx)
	if err != nil {
		return err
	}
	f.decls = append(f.decls, &declaration.Function{
		Context:          ctx,
		ReturnsReference: sig.byRef,
		Generator:        sig.generator,
		ReturnType:       sig.returnType,
		Parameters:       sig.params,
		Attributes:       attrs,
		PhpDoc:           doc,
		Snippet:          f.snippet(n),
		Deprecated:       deprecated(attrs),
	})
	if body := n.ChildByFieldName("body"); body != nil {
		return f.children(body, ctx)
	}
	return nil
}

// docComment returns the /** */ comment directly before n.
func (f *file) docComment(n *sitter.Node) *declaration.Snippet {
	if n == nil {
		return nil
	}
	prev := n.PrevSibling()
	if prev == nil || prev.Type() != "comment" {
		return nil
	}
	if !strings.HasPrefix(f.text(prev), "/**") {
		return nil
	}
	s := f.snippet(prev)
	return &s
}

func (f *file) snippet(n *sitter.Node) declaration.Snippet {
	start, end := n.StartPoint(), n.EndPoint()
	return declaration.Snippet{
		Text:        f.text(n),
		StartLine:   int(start.Row) + 1,
		EndLine:     int(end.Row) + 1,
		StartColumn: int(start.Column) + 1,
	}
}

// position is the 1-based line and column of n.
func position(n *sitter.Node) (int, int) {
	p := n.StartPoint()
	return int(p.Row) + 1, int(p.Column) + 1
}

func childOfType(n *sitter.Node, types ...string) *sitter.Node {
	for i := 0; i < int(n.ChildCount()); i++ {
		c := n.Child(i)
		for _, t := range types {
			if c.Type() == t {
				return c
			}
		}
	}
	return nil
}

func hasChild(n *sitter.Node, typ string) bool {
	return childOfType(n, typ) != nil
}

func isNameNode(n *sitter.Node) bool {
	switch n.Type() {
	case "name", "qualified_name", "namespace_name":
		return true
	}
	return false
}

// nameText strips whitespace and comments tree-sitter keeps inside
// qualified names.
func nameText(s string) string {
	return strings.Join(strings.Fields(s), "")
}

// parentStatement climbs from an expression to its statement, where a doc
// comment would be attached.
func parentStatement(n *sitter.Node) *sitter.Node {
	for p := n; p != nil; p = p.Parent() {
		if p.Type() == "expression_statement" {
			return p
		}
	}
	return n
}

func put(m map[string]string, k, v string) map[string]string {
	if m == nil {
		m = make(map[string]string)
	}
	m[k] = v
	return m
}
