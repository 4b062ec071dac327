package expr

import "github.com/jward/phpreflect/internal/errs"

// Rebuild returns e with every magic-constant placeholder replaced through
// ctx. Other nodes are rebuilt child by child and otherwise unchanged.
func Rebuild(e Expr, ctx RebuildContext) (Expr, error) {
	switch n := e.(type) {
	case nil:
		return nil, nil
	case Literal, ConstantFetch:
		return n, nil
	case ArrayLiteral:
		elements := make([]ArrayElement, len(n.Elements))
		for i, el := range n.Elements {
			key, err := Rebuild(el.Key, ctx)
			if err != nil {
				return nil, err
			}
			value, err := Rebuild(el.Value, ctx)
			if err != nil {
				return nil, err
			}
			elements[i] = ArrayElement{Key: key, Value: value, Unpack: el.Unpack}
		}
		return ArrayLiteral{Elements: elements}, nil
	case ArrayFetch:
		arr, key, err := rebuild2(n.Array, n.Key, ctx)
		if err != nil {
			return nil, err
		}
		return ArrayFetch{Array: arr, Key: key}, nil
	case ArrayFetchCoalesce:
		arr, key, err := rebuild2(n.Array, n.Key, ctx)
		if err != nil {
			return nil, err
		}
		def, err := Rebuild(n.Default, ctx)
		if err != nil {
			return nil, err
		}
		return ArrayFetchCoalesce{Array: arr, Key: key, Default: def}, nil
	case ClassConstantFetch:
		class, name, err := rebuild2(n.Class, n.Name, ctx)
		if err != nil {
			return nil, err
		}
		return ClassConstantFetch{Class: class, Name: name}, nil
	case UnaryOp:
		operand, err := Rebuild(n.Operand, ctx)
		if err != nil {
			return nil, err
		}
		return UnaryOp{Op: n.Op, Operand: operand}, nil
	case BinaryOp:
		left, right, err := rebuild2(n.Left, n.Right, ctx)
		if err != nil {
			return nil, err
		}
		return BinaryOp{Op: n.Op, Left: left, Right: right}, nil
	case Ternary:
		cond, then, err := rebuild2(n.Cond, n.Then, ctx)
		if err != nil {
			return nil, err
		}
		els, err := Rebuild(n.Else, ctx)
		if err != nil {
			return nil, err
		}
		return Ternary{Cond: cond, Then: then, Else: els}, nil
	case Instantiation:
		class, args, err := rebuild2(n.Class, n.Arguments, ctx)
		if err != nil {
			return nil, err
		}
		return Instantiation{Class: class, Arguments: args}, nil
	case Magic:
		if n.Kind == MagicLine {
			return Literal{Value: Int(n.Line)}, nil
		}
		return ctx.Magic(n.Kind)
	case MagicClassInTrait:
		return ctx.Magic(MagicClass)
	case SelfInTrait:
		return ctx.Magic(MagicSelf)
	case ParentInTrait:
		return ctx.Magic(MagicParent)
	}
	return nil, errs.Unsupported("expression node %T", e)
}

func rebuild2(a, b Expr, ctx RebuildContext) (Expr, Expr, error) {
	ra, err := Rebuild(a, ctx)
	if err != nil {
		return nil, nil, err
	}
	rb, err := Rebuild(b, ctx)
	if err != nil {
		return nil, nil, err
	}
	return ra, rb, nil
}
