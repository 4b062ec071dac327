package expr

import (
	"math"
	"math/bits"
	"strings"

	"github.com/jward/phpreflect/internal/errs"
)

// Unary applies a prefix operator: +, -, ! or ~.
func Unary(op string, v Value) (Value, error) {
	switch op {
	case "!":
		return Bool(!ToBool(v)), nil
	case "+":
		return toNumber(v, "*", Int(1))
	case "-":
		n, err := toNumber(v, "*", Int(-1))
		if err != nil {
			return nil, err
		}
		if i, ok := n.(Int); ok {
			if i == math.MinInt64 {
				return Float(-float64(i)), nil
			}
			return -i, nil
		}
		return -n.(Float), nil
	case "~":
		switch v := v.(type) {
		case Int:
			return ^v, nil
		case Float:
			return Int(^floatToInt(float64(v))), nil
		case String:
			b := []byte(v)
			for i := range b {
				b[i] = ^b[i]
			}
			return String(b), nil
		}
		return nil, errs.Evaluation("cannot perform bitwise not on %s", TypeName(v))
	}
	return nil, errs.Unsupported("unary operator %q", op)
}

// Binary applies an eagerly evaluated binary operator. Short-circuit
// operators are handled by Evaluate.
func Binary(op string, a, b Value) (Value, error) {
	switch op {
	case "+":
		if x, ok := a.(*Array); ok {
			y, ok := b.(*Array)
			if !ok {
				return nil, unsupportedOperands(a, op, b)
			}
			out := x.Clone()
			for k, v := range y.All() {
				if _, exists := out.values[k]; !exists {
					out.set(k, v)
				}
			}
			return out, nil
		}
		return arithmetic(op, a, b, addInt, func(x, y float64) float64 { return x + y })
	case "-":
		return arithmetic(op, a, b, subInt, func(x, y float64) float64 { return x - y })
	case "*":
		return arithmetic(op, a, b, mulInt, func(x, y float64) float64 { return x * y })
	case "/":
		return divide(a, b)
	case "%":
		return modulo(a, b)
	case "**":
		return power(a, b)
	case "<<", ">>":
		return shift(op, a, b)
	case "&", "|", "^":
		return bitwise(op, a, b)
	case ".":
		x, err := ToString(a)
		if err != nil {
			return nil, err
		}
		y, err := ToString(b)
		if err != nil {
			return nil, err
		}
		return String(x + y), nil
	case "==":
		c, ok, err := compare(a, b)
		return Bool(ok && c == 0), err
	case "!=", "<>":
		c, ok, err := compare(a, b)
		return Bool(!ok || c != 0), err
	case "===":
		return Bool(Identical(a, b)), nil
	case "!==":
		return Bool(!Identical(a, b)), nil
	case "<":
		c, ok, err := compare(a, b)
		return Bool(ok && c < 0), err
	case "<=":
		c, ok, err := compare(a, b)
		return Bool(ok && c <= 0), err
	case ">":
		c, ok, err := compare(b, a)
		return Bool(ok && c < 0), err
	case ">=":
		c, ok, err := compare(b, a)
		return Bool(ok && c <= 0), err
	case "<=>":
		c, ok, err := compare(a, b)
		if !ok {
			c = 1
		}
		return Int(c), err
	case "xor":
		return Bool(ToBool(a) != ToBool(b)), nil
	case "&&", "and":
		return Bool(ToBool(a) && ToBool(b)), nil
	case "||", "or":
		return Bool(ToBool(a) || ToBool(b)), nil
	case "??":
		if _, isNull := a.(Null); isNull || a == nil {
			return b, nil
		}
		return a, nil
	}
	return nil, errs.Unsupported("binary operator %q", op)
}

func arithmetic(op string, a, b Value, ints func(x, y int64) (int64, bool), floats func(x, y float64) float64) (Value, error) {
	x, err := toNumber(a, op, b)
	if err != nil {
		return nil, err
	}
	y, err := toNumber(b, op, a)
	if err != nil {
		return nil, err
	}
	xi, xok := x.(Int)
	yi, yok := y.(Int)
	if xok && yok {
		if r, ok := ints(int64(xi), int64(yi)); ok {
			return Int(r), nil
		}
	}
	return Float(floats(toFloat(x), toFloat(y))), nil
}

func addInt(x, y int64) (int64, bool) {
	r := x + y
	return r, !((x >= 0) == (y >= 0) && (r >= 0) != (x >= 0))
}

func subInt(x, y int64) (int64, bool) {
	r := x - y
	return r, !((x >= 0) != (y >= 0) && (r >= 0) != (x >= 0))
}

func mulInt(x, y int64) (int64, bool) {
	if x == 0 || y == 0 {
		return 0, true
	}
	hi, lo := bits.Mul64(uint64(abs(x)), uint64(abs(y)))
	if hi != 0 || lo > math.MaxInt64+1 {
		return 0, false
	}
	negative := (x < 0) != (y < 0)
	if lo == math.MaxInt64+1 {
		if negative {
			return math.MinInt64, true
		}
		return 0, false
	}
	r := int64(lo)
	if negative {
		r = -r
	}
	return r, true
}

func abs(x int64) int64 {
	if x < 0 {
		return -x
	}
	return x
}

func divide(a, b Value) (Value, error) {
	x, err := toNumber(a, "/", b)
	if err != nil {
		return nil, err
	}
	y, err := toNumber(b, "/", a)
	if err != nil {
		return nil, err
	}
	if toFloat(y) == 0 {
		return nil, errs.Evaluation("division by zero")
	}
	xi, xok := x.(Int)
	yi, yok := y.(Int)
	if xok && yok && !(xi == math.MinInt64 && yi == -1) && xi%yi == 0 {
		return xi / yi, nil
	}
	return Float(toFloat(x) / toFloat(y)), nil
}

func modulo(a, b Value) (Value, error) {
	x, err := toInt(a, "%", b)
	if err != nil {
		return nil, err
	}
	y, err := toInt(b, "%", a)
	if err != nil {
		return nil, err
	}
	if y == 0 {
		return nil, errs.Evaluation("modulo by zero")
	}
	if y == -1 {
		return Int(0), nil
	}
	return Int(x % y), nil
}

func power(a, b Value) (Value, error) {
	x, err := toNumber(a, "**", b)
	if err != nil {
		return nil, err
	}
	y, err := toNumber(b, "**", a)
	if err != nil {
		return nil, err
	}
	base, bok := x.(Int)
	exp, eok := y.(Int)
	if bok && eok && exp >= 0 {
		result, b, e, ok := int64(1), int64(base), int64(exp), true
		for e > 0 && ok {
			if e&1 == 1 {
				if result, ok = mulInt(result, b); !ok {
					break
				}
			}
			e >>= 1
			if e > 0 {
				b, ok = mulInt(b, b)
			}
		}
		if ok {
			return Int(result), nil
		}
	}
	return Float(math.Pow(toFloat(x), toFloat(y))), nil
}

func shift(op string, a, b Value) (Value, error) {
	x, err := toInt(a, op, b)
	if err != nil {
		return nil, err
	}
	y, err := toInt(b, op, a)
	if err != nil {
		return nil, err
	}
	if y < 0 {
		return nil, errs.Evaluation("bit shift by negative number")
	}
	if y >= 64 {
		if op == ">>" && x < 0 {
			return Int(-1), nil
		}
		return Int(0), nil
	}
	if op == "<<" {
		return Int(x << uint(y)), nil
	}
	return Int(x >> uint(y)), nil
}

func bitwise(op string, a, b Value) (Value, error) {
	if x, ok := a.(String); ok {
		if y, ok := b.(String); ok {
			return bitwiseStrings(op, string(x), string(y)), nil
		}
	}
	x, err := toInt(a, op, b)
	if err != nil {
		return nil, err
	}
	y, err := toInt(b, op, a)
	if err != nil {
		return nil, err
	}
	switch op {
	case "&":
		return Int(x & y), nil
	case "|":
		return Int(x | y), nil
	}
	return Int(x ^ y), nil
}

func bitwiseStrings(op, x, y string) String {
	if op == "|" {
		if len(x) < len(y) {
			x, y = y, x
		}
		out := []byte(x)
		for i := 0; i < len(y); i++ {
			out[i] |= y[i]
		}
		return String(out)
	}
	n := min(len(x), len(y))
	out := make([]byte, n)
	for i := 0; i < n; i++ {
		if op == "&" {
			out[i] = x[i] & y[i]
		} else {
			out[i] = x[i] ^ y[i]
		}
	}
	return String(out)
}

// Identical implements ===.
func Identical(a, b Value) bool {
	switch x := a.(type) {
	case nil, Null:
		switch b.(type) {
		case nil, Null:
			return true
		}
		return false
	case Bool:
		y, ok := b.(Bool)
		return ok && x == y
	case Int:
		y, ok := b.(Int)
		return ok && x == y
	case Float:
		y, ok := b.(Float)
		return ok && x == y
	case String:
		y, ok := b.(String)
		return ok && x == y
	case *Array:
		y, ok := b.(*Array)
		if !ok || x.Len() != y.Len() {
			return false
		}
		xk, yk := x.Keys(), y.Keys()
		for i := range xk {
			if xk[i] != yk[i] || !Identical(x.values[xk[i]], y.values[yk[i]]) {
				return false
			}
		}
		return true
	case *Object:
		y, ok := b.(*Object)
		return ok && x == y
	}
	return false
}

// compare implements PHP 8 loose comparison. ok is false when the operands
// are uncomparable.
func compare(a, b Value) (int, bool, error) {
	if a == nil {
		a = Null{}
	}
	if b == nil {
		b = Null{}
	}
	switch x := a.(type) {
	case Null:
		switch y := b.(type) {
		case Null:
			return 0, true, nil
		case String:
			return strings.Compare("", string(y)), true, nil
		case Bool:
			return compareBool(false, bool(y)), true, nil
		}
		return compareBool(false, ToBool(b)), true, nil
	case Bool:
		return compareBool(bool(x), ToBool(b)), true, nil
	case String:
		switch y := b.(type) {
		case Null:
			return strings.Compare(string(x), ""), true, nil
		case Bool:
			return compareBool(ToBool(x), bool(y)), true, nil
		case String:
			return compareStrings(string(x), string(y)), true, nil
		case Int, Float:
			c, err := compareNumberString(y, string(x))
			return -c, true, err
		case *Array:
			return -1, true, nil
		}
	case Int, Float:
		switch y := b.(type) {
		case Null, Bool:
			return compareBool(ToBool(x), ToBool(y)), true, nil
		case Int, Float:
			return compareNumbers(x, y), true, nil
		case String:
			c, err := compareNumberString(x, string(y))
			return c, true, err
		case *Array:
			return -1, true, nil
		}
	case *Array:
		switch y := b.(type) {
		case Null, Bool:
			return compareBool(ToBool(x), ToBool(y)), true, nil
		case *Array:
			return compareArrays(x, y)
		}
		return 1, true, nil
	case *Object:
		switch y := b.(type) {
		case Null, Bool:
			return compareBool(true, ToBool(y)), true, nil
		case *Object:
			if x == y {
				return 0, true, nil
			}
			if x.Class != y.Class || x.Case != "" || y.Case != "" {
				return 1, false, nil
			}
			return compareArrays(x.Arguments, y.Arguments)
		}
		return 1, false, nil
	}
	return 1, false, nil
}

func compareBool(x, y bool) int {
	switch {
	case x == y:
		return 0
	case x:
		return 1
	}
	return -1
}

func compareNumbers(x, y Value) int {
	xi, xok := x.(Int)
	yi, yok := y.(Int)
	if xok && yok {
		switch {
		case xi < yi:
			return -1
		case xi > yi:
			return 1
		}
		return 0
	}
	xf, yf := toFloat(x), toFloat(y)
	switch {
	case xf < yf:
		return -1
	case xf > yf:
		return 1
	case xf == yf:
		return 0
	}
	return 1
}

func compareNumberString(n Value, s string) (int, error) {
	if num, whole, ok := numericPrefix(s); ok && whole {
		return compareNumbers(n, num), nil
	}
	ns, err := ToString(n)
	if err != nil {
		return 0, err
	}
	return strings.Compare(ns, s), nil
}

func compareStrings(x, y string) int {
	nx, xwhole, xok := numericPrefix(x)
	ny, ywhole, yok := numericPrefix(y)
	if xok && yok && xwhole && ywhole {
		return compareNumbers(nx, ny)
	}
	return strings.Compare(x, y)
}

func compareArrays(x, y *Array) (int, bool, error) {
	switch {
	case x.Len() < y.Len():
		return -1, true, nil
	case x.Len() > y.Len():
		return 1, true, nil
	}
	for k, xv := range x.All() {
		yv, ok := y.values[k]
		if !ok {
			return 1, false, nil
		}
		c, comparable, err := compare(xv, yv)
		if err != nil || !comparable || c != 0 {
			return c, comparable, err
		}
	}
	return 0, true, nil
}
