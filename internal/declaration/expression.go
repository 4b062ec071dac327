package declaration

import (
	"github.com/jward/phpreflect/internal/errs"
	"github.com/jward/phpreflect/internal/expr"
	"github.com/jward/phpreflect/internal/id"
)

// ExpressionContext returns the magic-constant bindings of c.
func ExpressionContext(c Context) expr.RebuildContext {
	return expressionContext{ctx: c}
}

// RebuildIn rebuilds e for context c.
func RebuildIn(c Context, e expr.Expr) (expr.Expr, error) {
	if e == nil {
		return nil, nil
	}
	return expr.Rebuild(e, ExpressionContext(c))
}

type expressionContext struct {
	ctx Context
}

func (x expressionContext) Magic(kind expr.MagicKind) (expr.Expr, error) {
	c := x.ctx
	switch kind {
	case expr.MagicFile:
		return str(c.Source.File), nil
	case expr.MagicDir:
		return str(c.dir()), nil
	case expr.MagicNamespace:
		return str(c.Scope.Namespace), nil
	case expr.MagicFunction:
		return str(x.function()), nil
	case expr.MagicClass:
		if c.Trait != nil {
			return expr.MagicClassInTrait{Trait: c.Trait.Name}, nil
		}
		return str(c.SelfName()), nil
	case expr.MagicTrait:
		if c.Trait != nil {
			return str(c.Trait.Name), nil
		}
		return str(""), nil
	case expr.MagicMethod:
		return str(x.method()), nil
	case expr.MagicSelf:
		if c.Trait != nil {
			return expr.SelfInTrait{Trait: c.Trait.Name}, nil
		}
		if c.Self == nil {
			return nil, errs.Evaluation(`cannot use "self" when no class scope is active`)
		}
		return str(c.SelfName()), nil
	case expr.MagicParent:
		if c.Trait != nil {
			return expr.ParentInTrait{}, nil
		}
		if c.Self == nil {
			return nil, errs.Evaluation(`cannot use "parent" when no class scope is active`)
		}
		if c.Parent == nil {
			return nil, errs.Evaluation(`cannot use "parent" when current class scope has no parent`)
		}
		return str(c.Parent.Name), nil
	}
	return nil, errs.Unsupported("magic constant %s", kind)
}

func (x expressionContext) function() string {
	switch f := x.ctx.ID.(type) {
	case id.Method:
		return f.Name
	case id.NamedFunction:
		return f.Name
	case id.AnonymousFunction:
		return "{closure}"
	}
	return ""
}

func (x expressionContext) method() string {
	switch f := x.ctx.ID.(type) {
	case id.Method:
		owner := x.ctx.SelfName()
		if x.ctx.Trait != nil {
			owner = x.ctx.Trait.Name
		}
		return owner + "::" + f.Name
	case id.NamedFunction:
		return f.Name
	case id.AnonymousFunction:
		return "{closure}"
	}
	return ""
}

func str(s string) expr.Expr {
	return expr.Lit(expr.String(s))
}
