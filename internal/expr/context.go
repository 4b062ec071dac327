package expr

import (
	"github.com/jward/phpreflect/internal/errs"
	"github.com/jward/phpreflect/internal/id"
)

// EvaluationContext resolves references to symbols outside an expression.
type EvaluationContext interface {
	Constant(c id.Constant) (Value, error)
	ClassConstant(c id.ClassConstant) (Value, error)
}

// Throwing fails every external reference. Use it for expressions that are
// known to be self-contained.
type Throwing struct{}

func (Throwing) Constant(c id.Constant) (Value, error) {
	return nil, errs.NoEvaluationContext(c)
}

func (Throwing) ClassConstant(c id.ClassConstant) (Value, error) {
	return nil, errs.NoEvaluationContext(c)
}

// MapContext resolves references from fixed tables keyed by symbol name.
type MapContext struct {
	Constants      map[string]Value
	ClassConstants map[string]Value // "Class::NAME"
}

func (m MapContext) Constant(c id.Constant) (Value, error) {
	if v, ok := m.Constants[c.Name]; ok {
		return v, nil
	}
	return nil, errs.NotFound(c)
}

func (m MapContext) ClassConstant(c id.ClassConstant) (Value, error) {
	if v, ok := m.ClassConstants[id.ClassName(c.Class)+"::"+c.Name]; ok {
		return v, nil
	}
	return nil, errs.NotFound(c)
}

// RebuildContext supplies replacements for magic constants in the lexical
// context an expression is moved into.
type RebuildContext interface {
	Magic(kind MagicKind) (Expr, error)
}
