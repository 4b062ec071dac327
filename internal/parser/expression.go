package parser

import (
	"strings"

	sitter "github.com/smacker/go-tree-sitter"

	"github.com/jward/phpreflect/internal/declaration"
	"github.com/jward/phpreflect/internal/errs"
	"github.com/jward/phpreflect/internal/expr"
)

var magicConstants = map[string]expr.MagicKind{
	"__line__":      expr.MagicLine,
	"__file__":      expr.MagicFile,
	"__dir__":       expr.MagicDir,
	"__namespace__": expr.MagicNamespace,
	"__function__":  expr.MagicFunction,
	"__class__":     expr.MagicClass,
	"__trait__":     expr.MagicTrait,
	"__method__":    expr.MagicMethod,
}

// constExpr converts n and binds its magic constants to ctx. A nil node
// yields a nil expression. Placeholders that cannot be bound here, such as
// parent in a class without one, are kept and fail on evaluation.
func (f *file) constExpr(n *sitter.Node, ctx declaration.Context) (expr.Expr, error) {
	if n == nil {
		return nil, nil
	}
	e, err := f.expr(n, ctx)
	if err != nil {
		return nil, err
	}
	if rebuilt, err := declaration.RebuildIn(ctx, e); err == nil {
		return rebuilt, nil
	}
	return e, nil
}

func (f *file) expr(n *sitter.Node, ctx declaration.Context) (expr.Expr, error) {
	switch n.Type() {
	case "parenthesized_expression":
		return f.single(n, ctx)
	case "integer":
		return expr.Lit(parseInt(f.text(n))), nil
	case "float":
		return expr.Lit(parseFloat(f.text(n))), nil
	case "boolean":
		return expr.Lit(expr.Bool(strings.EqualFold(f.text(n), "true"))), nil
	case "null":
		return expr.Lit(expr.Null{}), nil
	case "string", "encapsed_string", "heredoc", "nowdoc":
		return f.stringNode(n)
	case "name", "qualified_name":
		return f.constantFetch(n, ctx), nil
	case "class_constant_access_expression":
		return f.classConstantFetch(n, ctx)
	case "array_creation_expression":
		return f.array(n, ctx)
	case "subscript_expression":
		parts := namedChildren(n)
		if len(parts) != 2 {
			return nil, f.unsupported(n)
		}
		return f.pair(parts[0], parts[1], ctx, func(a, k expr.Expr) expr.Expr {
			return expr.ArrayFetch{Array: a, Key: k}
		})
	case "binary_expression":
		return f.binary(n, ctx)
	case "unary_op_expression":
		return f.unary(n, ctx)
	case "conditional_expression":
		return f.ternary(n, ctx)
	case "object_creation_expression":
		return f.instantiation(n, ctx)
	}
	return nil, f.unsupported(n)
}

func (f *file) unsupported(n *sitter.Node) error {
	line, column := position(n)
	return errs.Unsupported("expression %s at %s:%d:%d", n.Type(), f.source.File, line, column)
}

func (f *file) single(n *sitter.Node, ctx declaration.Context) (expr.Expr, error) {
	parts := namedChildren(n)
	if len(parts) != 1 {
		return nil, f.unsupported(n)
	}
	return f.expr(parts[0], ctx)
}

func (f *file) pair(a, b *sitter.Node, ctx declaration.Context, build func(a, b expr.Expr) expr.Expr) (expr.Expr, error) {
	left, err := f.expr(a, ctx)
	if err != nil {
		return nil, err
	}
	right, err := f.expr(b, ctx)
	if err != nil {
		return nil, err
	}
	return build(left, right), nil
}

func (f *file) constantFetch(n *sitter.Node, ctx declaration.Context) expr.Expr {
	name := nameText(f.text(n))
	switch strings.ToLower(strings.TrimPrefix(name, `\`)) {
	case "true":
		return expr.Lit(expr.Bool(true))
	case "false":
		return expr.Lit(expr.Bool(false))
	case "null":
		return expr.Lit(expr.Null{})
	}
	if kind, ok := magicConstants[strings.ToLower(name)]; ok {
		line, _ := position(n)
		return expr.Magic{Kind: kind, Line: line}
	}
	id, fallback := ctx.ResolveConstantName(name)
	return expr.ConstantFetch{ID: id, Fallback: fallback}
}

func (f *file) classConstantFetch(n *sitter.Node, ctx declaration.Context) (expr.Expr, error) {
	parts := namedChildren(n)
	if len(parts) != 2 {
		return nil, f.unsupported(n)
	}
	class, err := f.classReference(parts[0], ctx)
	if err != nil {
		return nil, err
	}
	return expr.ClassConstantFetch{Class: class, Name: expr.Lit(expr.String(f.text(parts[1])))}, nil
}

// classReference converts the class part of `X::NAME` or `new X`.
func (f *file) classReference(n *sitter.Node, ctx declaration.Context) (expr.Expr, error) {
	if !isNameNode(n) && n.Type() != "relative_scope" {
		return f.expr(n, ctx)
	}
	name := nameText(f.text(n))
	switch strings.ToLower(name) {
	case "self":
		return expr.Magic{Kind: expr.MagicSelf}, nil
	case "parent":
		return expr.Magic{Kind: expr.MagicParent}, nil
	case "static":
		return nil, errs.Unsupported(`"static" in a constant expression`)
	}
	return expr.ClassName(ctx.ResolveClassName(name)), nil
}

func (f *file) array(n *sitter.Node, ctx declaration.Context) (expr.Expr, error) {
	arr := expr.ArrayLiteral{}
	for _, el := range namedChildren(n) {
		if el.Type() != "array_element_initializer" {
			continue
		}
		parts := namedChildren(el)
		var element expr.ArrayElement
		var err error
		switch {
		case len(parts) == 1 && parts[0].Type() == "variadic_unpacking":
			element.Unpack = true
			element.Value, err = f.single(parts[0], ctx)
		case len(parts) == 1:
			element.Unpack = hasChild(el, "...")
			element.Value, err = f.expr(parts[0], ctx)
		case len(parts) == 2 && hasChild(el, "=>"):
			element.Key, err = f.expr(parts[0], ctx)
			if err == nil {
				element.Value, err = f.expr(parts[1], ctx)
			}
		default:
			return nil, f.unsupported(el)
		}
		if err != nil {
			return nil, err
		}
		arr.Elements = append(arr.Elements, element)
	}
	return arr, nil
}

func (f *file) binary(n *sitter.Node, ctx declaration.Context) (expr.Expr, error) {
	left, right := n.ChildByFieldName("left"), n.ChildByFieldName("right")
	op := n.ChildByFieldName("operator")
	if left == nil || right == nil || op == nil {
		return nil, f.unsupported(n)
	}
	operator := strings.ToLower(f.text(op))
	if operator == "??" {
		if fetch, ok := unwrapSubscript(left); ok {
			parts := namedChildren(fetch)
			if len(parts) == 2 {
				arr, err := f.expr(parts[0], ctx)
				if err != nil {
					return nil, err
				}
				return f.pair(parts[1], right, ctx, func(k, d expr.Expr) expr.Expr {
					return expr.ArrayFetchCoalesce{Array: arr, Key: k, Default: d}
				})
			}
		}
	}
	return f.pair(left, right, ctx, func(l, r expr.Expr) expr.Expr {
		return expr.BinaryOp{Op: operator, Left: l, Right: r}
	})
}

func unwrapSubscript(n *sitter.Node) (*sitter.Node, bool) {
	for n.Type() == "parenthesized_expression" {
		parts := namedChildren(n)
		if len(parts) != 1 {
			return nil, false
		}
		n = parts[0]
	}
	return n, n.Type() == "subscript_expression"
}

func (f *file) unary(n *sitter.Node, ctx declaration.Context) (expr.Expr, error) {
	op := n.ChildByFieldName("operator")
	if op == nil {
		op = n.Child(0)
	}
	operand := n.ChildByFieldName("argument")
	if operand == nil {
		if parts := namedChildren(n); len(parts) == 1 {
			operand = parts[0]
		}
	}
	if op == nil || operand == nil {
		return nil, f.unsupported(n)
	}
	operator := f.text(op)
	if operator == "@" {
		return nil, f.unsupported(n)
	}
	e, err := f.expr(operand, ctx)
	if err != nil {
		return nil, err
	}
	return expr.UnaryOp{Op: operator, Operand: e}, nil
}

func (f *file) ternary(n *sitter.Node, ctx declaration.Context) (expr.Expr, error) {
	condNode, elseNode := n.ChildByFieldName("condition"), n.ChildByFieldName("alternative")
	if condNode == nil || elseNode == nil {
		return nil, f.unsupported(n)
	}
	cond, err := f.expr(condNode, ctx)
	if err != nil {
		return nil, err
	}
	var then expr.Expr
	if body := n.ChildByFieldName("body"); body != nil {
		if then, err = f.expr(body, ctx); err != nil {
			return nil, err
		}
	}
	els, err := f.expr(elseNode, ctx)
	if err != nil {
		return nil, err
	}
	return expr.Ternary{Cond: cond, Then: then, Else: els}, nil
}

func (f *file) instantiation(n *sitter.Node, ctx declaration.Context) (expr.Expr, error) {
	if isAnonymousClass(n) {
		return nil, f.unsupported(n)
	}
	var classNode *sitter.Node
	for _, c := range namedChildren(n) {
		if c.Type() != "arguments" {
			classNode = c
			break
		}
	}
	if classNode == nil {
		return nil, f.unsupported(n)
	}
	class, err := f.classReference(classNode, ctx)
	if err != nil {
		return nil, err
	}
	args, err := f.argumentList(childOfType(n, "arguments"), ctx)
	if err != nil {
		return nil, err
	}
	return expr.Instantiation{Class: class, Arguments: args}, nil
}

// argumentList turns call arguments into an array literal: positional
// arguments are appended, named ones keyed by name.
func (f *file) argumentList(n *sitter.Node, ctx declaration.Context) (expr.Expr, error) {
	arr := expr.ArrayLiteral{}
	for _, a := range namedChildren(n) {
		if a.Type() != "argument" && a.Type() != "variadic_unpacking" {
			continue
		}
		var element expr.ArrayElement
		value := argumentValue(a)
		if value == nil {
			return nil, f.unsupported(a)
		}
		if a.Type() == "variadic_unpacking" || value.Type() == "variadic_unpacking" || hasChild(a, "...") {
			element.Unpack = true
			if value.Type() == "variadic_unpacking" {
				if parts := namedChildren(value); len(parts) == 1 {
					value = parts[0]
				}
			}
		}
		if name := a.ChildByFieldName("name"); name != nil && hasChild(a, ":") {
			element.Key = expr.Lit(expr.String(f.text(name)))
		}
		var err error
		if element.Value, err = f.expr(value, ctx); err != nil {
			return nil, err
		}
		arr.Elements = append(arr.Elements, element)
	}
	return arr, nil
}

// arguments returns the value nodes of call arguments.
func arguments(n *sitter.Node) []*sitter.Node {
	var out []*sitter.Node
	for _, a := range namedChildren(n) {
		if a.Type() != "argument" {
			continue
		}
		if v := argumentValue(a); v != nil {
			out = append(out, v)
		}
	}
	return out
}

func argumentValue(a *sitter.Node) *sitter.Node {
	if a.Type() == "variadic_unpacking" {
		return a
	}
	parts := namedChildren(a)
	if len(parts) == 0 {
		return nil
	}
	return parts[len(parts)-1]
}

func stringLiteral(e expr.Expr) (string, bool) {
	lit, ok := e.(expr.Literal)
	if !ok {
		return "", false
	}
	s, ok := lit.Value.(expr.String)
	return string(s), ok
}
