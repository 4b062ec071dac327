package parser

import (
	"fmt"

	sitter "github.com/smacker/go-tree-sitter"

	"github.com/jward/phpreflect/internal/declaration"
	"github.com/jward/phpreflect/internal/expr"
	"github.com/jward/phpreflect/internal/phpdoc"
	"github.com/jward/phpreflect/internal/types"
)

type signature struct {
	byRef      bool
	generator  bool
	returnType types.Type
	params     []declaration.Parameter
}

// signature reads the parts shared by functions and methods.
func (f *file) signature(n *sitter.Node, ctx declaration.Context) (signature, error) {
	var sig signature
	sig.byRef = hasChild(n, "reference_modifier")
	if rt := n.ChildByFieldName("return_type"); rt != nil {
		t, err := f.nativeType(rt, ctx)
		if err != nil {
			return sig, err
		}
		sig.returnType = t
	}
	for _, p := range namedChildren(n.ChildByFieldName("parameters")) {
		switch p.Type() {
		case "simple_parameter", "variadic_parameter", "property_promotion_parameter":
		default:
			continue
		}
		param, err := f.parameter(p, ctx)
		if err != nil {
			return sig, err
		}
		sig.params = append(sig.params, param)
	}
	if body := n.ChildByFieldName("body"); body != nil {
		sig.generator = containsYield(body)
	}
	return sig, nil
}

func (f *file) parameter(n *sitter.Node, ctx declaration.Context) (declaration.Parameter, error) {
	nameNode := n.ChildByFieldName("name")
	if nameNode == nil {
		nameNode = childOfType(n, "variable_name", "by_ref")
	}
	raw := f.text(nameNode)
	p := declaration.Parameter{
		Context:  ctx,
		Name:     variableName(raw),
		Variadic: n.Type() == "variadic_parameter" || hasChild(n, "..."),
		PhpDoc:   f.docComment(n),
		Snippet:  f.snippet(n),
	}
	if hasChild(n, "reference_modifier") || (nameNode != nil && nameNode.Type() == "by_ref") || (len(raw) > 0 && raw[0] == '&') {
		p.PassedBy = declaration.ByReference
	}

	var err error
	if t := n.ChildByFieldName("type"); t != nil {
		if p.Type, err = f.nativeType(t, ctx); err != nil {
			return p, err
		}
	}
	if p.Default, err = f.constExpr(n.ChildByFieldName("default_value"), ctx); err != nil {
		return p, err
	}
	// `Foo $x = null` makes the type implicitly nullable.
	if lit, ok := p.Default.(expr.Literal); ok && p.Type != nil {
		if _, isNull := lit.Value.(expr.Null); isNull {
			p.Type = types.NewNullable(p.Type)
		}
	}

	if n.Type() == "property_promotion_parameter" {
		vis := n.ChildByFieldName("visibility")
		if vis == nil {
			vis = childOfType(n, "visibility_modifier")
		}
		if vis != nil {
			p.Visibility = declaration.ParseVisibility(f.modifiersText(vis))
		}
		p.Readonly = hasChild(n, "readonly_modifier")
		if p.Visibility == declaration.VisibilityNone && p.Readonly {
			p.Visibility = declaration.Public
		}
	}

	if p.Attributes, err = f.attributes(n, ctx); err != nil {
		return p, err
	}
	return p, nil
}

func (f *file) modifiersText(n *sitter.Node) string {
	word := f.text(n)
	for i := 0; i < len(word); i++ {
		if word[i] == '(' {
			return word[:i]
		}
	}
	return word
}

// nativeType parses a declared type. Native type syntax is a subset of the
// docblock one, so the docblock parser handles both.
func (f *file) nativeType(n *sitter.Node, ctx declaration.Context) (types.Type, error) {
	t, err := phpdoc.NewTypeParser(ctx).Parse(f.text(n))
	if err != nil {
		line, column := position(n)
		return nil, fmt.Errorf("type at %d:%d: %w", line, column, err)
	}
	return t, nil
}

// containsYield reports a yield in body that belongs to body's function,
// not to a nested closure or class.
func containsYield(body *sitter.Node) bool {
	found := false
	walk(body, func(n *sitter.Node) bool {
		if found {
			return false
		}
		switch n.Type() {
		case "yield_expression":
			found = true
			return false
		case "function_definition", "anonymous_function_creation_expression", "anonymous_function",
			"arrow_function", "class_declaration", "declaration_list", "anonymous_class":
			return false
		}
		return true
	})
	return found
}
