package registry

import (
	"context"

	"github.com/jward/phpreflect/internal/errs"
	"github.com/jward/phpreflect/internal/expr"
	"github.com/jward/phpreflect/internal/id"
)

// EvaluationContext resolves constant references through the session.
// Constants that refer back to themselves, directly or not, fail with a
// Cycle error.
func (s *Session) EvaluationContext(ctx context.Context) expr.EvaluationContext {
	return evaluator{ctx: ctx, s: s}
}

type evaluator struct {
	ctx context.Context
	s   *Session
}

func (e evaluator) Constant(c id.Constant) (expr.Value, error) {
	k, err := e.s.ReflectConstant(e.ctx, c.Name)
	if err != nil {
		return nil, err
	}
	return e.s.guard(c, func() (expr.Value, error) { return k.Evaluate(e) })
}

func (e evaluator) ClassConstant(c id.ClassConstant) (expr.Value, error) {
	class, err := e.s.ReflectClassID(e.ctx, c.Class)
	if err != nil {
		return nil, err
	}
	k, ok := class.Constants().Get(c.Name)
	if !ok {
		return nil, errs.NotFound(c)
	}
	return e.s.guard(c, func() (expr.Value, error) { return k.Evaluate(e) })
}

func (s *Session) guard(sym id.ID, eval func() (expr.Value, error)) (expr.Value, error) {
	key := sym.Encode()
	if s.evaluating[key] {
		return nil, errs.Cycle(sym)
	}
	s.evaluating[key] = true
	defer delete(s.evaluating, key)
	return eval()
}
