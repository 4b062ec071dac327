package expr

import (
	"strings"

	"github.com/jward/phpreflect/internal/errs"
	"github.com/jward/phpreflect/internal/id"
)

// Evaluate computes the value of e. External references go through ctx;
// pass Throwing{} when none are expected.
func Evaluate(e Expr, ctx EvaluationContext) (Value, error) {
	switch n := e.(type) {
	case nil:
		return Null{}, nil
	case Literal:
		if n.Value == nil {
			return Null{}, nil
		}
		return n.Value, nil
	case ArrayLiteral:
		return evaluateArray(n, ctx)
	case ArrayFetch:
		return evaluateFetch(n.Array, n.Key, ctx)
	case ArrayFetchCoalesce:
		return evaluateFetchCoalesce(n, ctx)
	case ClassConstantFetch:
		return evaluateClassConstant(n, ctx)
	case ConstantFetch:
		v, err := ctx.Constant(n.ID)
		if err != nil && n.Fallback != nil {
			return ctx.Constant(*n.Fallback)
		}
		return v, err
	case UnaryOp:
		v, err := Evaluate(n.Operand, ctx)
		if err != nil {
			return nil, err
		}
		return Unary(n.Op, v)
	case BinaryOp:
		return evaluateBinary(n, ctx)
	case Ternary:
		cond, err := Evaluate(n.Cond, ctx)
		if err != nil {
			return nil, err
		}
		if ToBool(cond) {
			if n.Then == nil {
				return cond, nil
			}
			return Evaluate(n.Then, ctx)
		}
		return Evaluate(n.Else, ctx)
	case Instantiation:
		return evaluateInstantiation(n, ctx)
	case Magic:
		if n.Kind == MagicLine {
			return Int(n.Line), nil
		}
		return nil, errs.Evaluation("%s was not resolved in its declaring context", n.Kind)
	case MagicClassInTrait:
		return String(n.Trait), nil
	case SelfInTrait:
		return String(n.Trait), nil
	case ParentInTrait:
		return nil, errs.Evaluation("parent cannot be evaluated in a trait outside of a using class")
	}
	return nil, errs.Unsupported("expression node %T", e)
}

func evaluateArray(n ArrayLiteral, ctx EvaluationContext) (Value, error) {
	out := NewArray()
	for _, el := range n.Elements {
		v, err := Evaluate(el.Value, ctx)
		if err != nil {
			return nil, err
		}
		if el.Unpack {
			spread, ok := v.(*Array)
			if !ok {
				return nil, errs.Evaluation("only arrays can be unpacked, %s given", TypeName(v))
			}
			for k, item := range spread.All() {
				if _, isInt := k.(Int); isInt {
					err = out.Append(item)
				} else {
					err = out.Set(k, item)
				}
				if err != nil {
					return nil, err
				}
			}
			continue
		}
		if el.Key == nil {
			if err := out.Append(v); err != nil {
				return nil, err
			}
			continue
		}
		k, err := Evaluate(el.Key, ctx)
		if err != nil {
			return nil, err
		}
		if err := out.Set(k, v); err != nil {
			return nil, err
		}
	}
	return out, nil
}

func evaluateFetch(arrayExpr, keyExpr Expr, ctx EvaluationContext) (Value, error) {
	container, err := Evaluate(arrayExpr, ctx)
	if err != nil {
		return nil, err
	}
	key, err := Evaluate(keyExpr, ctx)
	if err != nil {
		return nil, err
	}
	v, found, err := fetch(container, key)
	if err != nil {
		return nil, err
	}
	if !found {
		s, _ := ToString(key)
		return nil, errs.Evaluation("undefined array key %q", s)
	}
	return v, nil
}

func evaluateFetchCoalesce(n ArrayFetchCoalesce, ctx EvaluationContext) (Value, error) {
	container, err := Evaluate(n.Array, ctx)
	if err != nil {
		return nil, err
	}
	key, err := Evaluate(n.Key, ctx)
	if err != nil {
		return nil, err
	}
	v, found, err := fetch(container, key)
	if err != nil {
		return nil, err
	}
	if _, isNull := v.(Null); !found || isNull || v == nil {
		return Evaluate(n.Default, ctx)
	}
	return v, nil
}

func fetch(container, key Value) (Value, bool, error) {
	switch c := container.(type) {
	case *Array:
		return c.Get(key)
	case String:
		idx, err := toInt(key, "[]", container)
		if err != nil {
			return nil, false, err
		}
		if idx < 0 {
			idx += int64(len(c))
		}
		if idx < 0 || idx >= int64(len(c)) {
			return nil, false, nil
		}
		return c[idx : idx+1], true, nil
	case Null:
		return Null{}, false, nil
	}
	return nil, false, errs.Evaluation("cannot use a value of type %s as an array", TypeName(container))
}

func evaluateClassConstant(n ClassConstantFetch, ctx EvaluationContext) (Value, error) {
	classValue, err := Evaluate(n.Class, ctx)
	if err != nil {
		return nil, err
	}
	class, ok := classValue.(String)
	if !ok {
		return nil, errs.Evaluation("class name must be a string, %s given", TypeName(classValue))
	}
	nameValue, err := Evaluate(n.Name, ctx)
	if err != nil {
		return nil, err
	}
	name, ok := nameValue.(String)
	if !ok {
		return nil, errs.Evaluation("constant name must be a string, %s given", TypeName(nameValue))
	}
	if strings.EqualFold(string(name), "class") {
		return class, nil
	}
	return ctx.ClassConstant(id.ClassConstant{Class: id.NamedClass{Name: string(class)}, Name: string(name)})
}

func evaluateBinary(n BinaryOp, ctx EvaluationContext) (Value, error) {
	left, err := Evaluate(n.Left, ctx)
	if err != nil {
		return nil, err
	}
	switch n.Op {
	case "&&", "and":
		if !ToBool(left) {
			return Bool(false), nil
		}
	case "||", "or":
		if ToBool(left) {
			return Bool(true), nil
		}
	case "??":
		if _, isNull := left.(Null); !isNull && left != nil {
			return left, nil
		}
		return Evaluate(n.Right, ctx)
	}
	right, err := Evaluate(n.Right, ctx)
	if err != nil {
		return nil, err
	}
	return Binary(n.Op, left, right)
}

func evaluateInstantiation(n Instantiation, ctx EvaluationContext) (Value, error) {
	classValue, err := Evaluate(n.Class, ctx)
	if err != nil {
		return nil, err
	}
	class, ok := classValue.(String)
	if !ok {
		return nil, errs.Evaluation("class name must be a string, %s given", TypeName(classValue))
	}
	args := NewArray()
	if n.Arguments != nil {
		v, err := Evaluate(n.Arguments, ctx)
		if err != nil {
			return nil, err
		}
		a, ok := v.(*Array)
		if !ok {
			return nil, errs.Evaluation("constructor arguments must be an array, %s given", TypeName(v))
		}
		args = a
	}
	return &Object{Class: string(class), Arguments: args}, nil
}
