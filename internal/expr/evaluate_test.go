package expr

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jward/phpreflect/internal/errs"
	"github.com/jward/phpreflect/internal/id"
)

// classContext resolves magic constants as if inside class name.
type classContext struct {
	class  string
	parent string
}

func (c classContext) Magic(kind MagicKind) (Expr, error) {
	switch kind {
	case MagicClass, MagicSelf:
		return Lit(String(c.class)), nil
	case MagicParent:
		if c.parent == "" {
			return nil, errs.Evaluation("no parent")
		}
		return Lit(String(c.parent)), nil
	case MagicFile:
		return Lit(String("/src/file.php")), nil
	}
	return Lit(String("")), nil
}

func str(s string) Expr { return Lit(String(s)) }

func TestEvaluateLiteralsAndArrays(t *testing.T) {
	e := ArrayLiteral{Elements: []ArrayElement{
		{Value: Lit(Int(1))},
		{Key: str("k"), Value: str("v")},
		{Value: ArrayLiteral{Elements: []ArrayElement{{Value: Lit(Int(2))}, {Key: str("z"), Value: Lit(Int(3))}}}, Unpack: true},
	}}

	got, err := Evaluate(e, Throwing{})
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"0": int64(1), "k": "v", "1": int64(2), "z": int64(3)}, Interface(got))
}

func TestEvaluateClassConstantFetchClassKeyword(t *testing.T) {
	e := ClassConstantFetch{Class: str(`App\User`), Name: str("class")}

	got, err := Evaluate(e, Throwing{})
	require.NoError(t, err)
	assert.Equal(t, String(`App\User`), got)
}

func TestEvaluateWithoutContextFails(t *testing.T) {
	e := ClassConstantFetch{Class: str(`App\User`), Name: str("TABLE")}

	_, err := Evaluate(e, Throwing{})
	require.Error(t, err)
	assert.True(t, errs.IsCode(err, errs.CodeNoEvaluationContext))
	assert.Contains(t, err.Error(), `App\User::TABLE cannot be evaluated without evaluation context`)
}

func TestEvaluateConstantFallback(t *testing.T) {
	global := id.Constant{Name: "PHP_EOL"}
	e := ConstantFetch{ID: id.Constant{Name: `App\PHP_EOL`}, Fallback: &global}
	ctx := MapContext{Constants: map[string]Value{"PHP_EOL": String("\n")}}

	got, err := Evaluate(e, ctx)
	require.NoError(t, err)
	assert.Equal(t, String("\n"), got)

	namespaced := MapContext{Constants: map[string]Value{`App\PHP_EOL`: String("ns"), "PHP_EOL": String("\n")}}
	got, err = Evaluate(e, namespaced)
	require.NoError(t, err)
	assert.Equal(t, String("ns"), got)

	_, err = Evaluate(ConstantFetch{ID: id.Constant{Name: `App\X`}}, ctx)
	assert.True(t, errs.IsCode(err, errs.CodeNotFound))
}

func TestEvaluateShortCircuit(t *testing.T) {
	failing := ConstantFetch{ID: id.Constant{Name: "UNDEFINED"}}

	tests := []struct {
		name string
		e    Expr
		want Value
	}{
		{"and", BinaryOp{Op: "&&", Left: Lit(Bool(false)), Right: failing}, Bool(false)},
		{"or", BinaryOp{Op: "||", Left: Lit(Int(1)), Right: failing}, Bool(true)},
		{"coalesce", BinaryOp{Op: "??", Left: str("x"), Right: failing}, String("x")},
		{"coalesce null", BinaryOp{Op: "??", Left: Lit(Null{}), Right: str("d")}, String("d")},
		{"ternary", Ternary{Cond: Lit(Bool(false)), Then: failing, Else: str("else")}, String("else")},
		{"elvis", Ternary{Cond: str("cond"), Else: failing}, String("cond")},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Evaluate(tt.e, Throwing{})
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestEvaluateFetch(t *testing.T) {
	arr := ArrayLiteral{Elements: []ArrayElement{{Key: str("a"), Value: Lit(Int(1))}, {Key: str("n"), Value: Lit(Null{})}}}

	got, err := Evaluate(ArrayFetch{Array: arr, Key: str("a")}, Throwing{})
	require.NoError(t, err)
	assert.Equal(t, Int(1), got)

	_, err = Evaluate(ArrayFetch{Array: arr, Key: str("missing")}, Throwing{})
	require.Error(t, err)

	got, err = Evaluate(ArrayFetchCoalesce{Array: arr, Key: str("missing"), Default: str("d")}, Throwing{})
	require.NoError(t, err)
	assert.Equal(t, String("d"), got)

	got, err = Evaluate(ArrayFetchCoalesce{Array: arr, Key: str("n"), Default: str("d")}, Throwing{})
	require.NoError(t, err)
	assert.Equal(t, String("d"), got)

	got, err = Evaluate(ArrayFetch{Array: str("abc"), Key: Lit(Int(-1))}, Throwing{})
	require.NoError(t, err)
	assert.Equal(t, String("c"), got)
}

func TestEvaluateInstantiation(t *testing.T) {
	e := Instantiation{
		Class:     str(`App\Money`),
		Arguments: ArrayLiteral{Elements: []ArrayElement{{Value: Lit(Int(5))}, {Key: str("currency"), Value: str("EUR")}}},
	}

	got, err := Evaluate(e, Throwing{})
	require.NoError(t, err)
	obj, ok := got.(*Object)
	require.True(t, ok)
	assert.Equal(t, `App\Money`, obj.Class)
	assert.Equal(t, `new \App\Money(5, currency: 'EUR')`, FormatValue(obj))
}

func TestDivisionByZeroPropagates(t *testing.T) {
	e := BinaryOp{Op: "/", Left: Lit(Int(1)), Right: BinaryOp{Op: "-", Left: Lit(Int(2)), Right: Lit(Int(2))}}

	_, err := Evaluate(e, Throwing{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "division by zero")
}

func TestRebuildMagicClassInTrait(t *testing.T) {
	// __CLASS__ inside trait T evaluates to the trait until it is used.
	inTrait := BinaryOp{Op: ".", Left: MagicClassInTrait{Trait: "T"}, Right: str("::x")}

	got, err := Evaluate(inTrait, Throwing{})
	require.NoError(t, err)
	assert.Equal(t, String("T::x"), got)

	rebuilt, err := Rebuild(inTrait, classContext{class: "X"})
	require.NoError(t, err)
	got, err = Evaluate(rebuilt, Throwing{})
	require.NoError(t, err)
	assert.Equal(t, String("X::x"), got)
}

func TestRebuildSelfAndParent(t *testing.T) {
	e := ArrayLiteral{Elements: []ArrayElement{
		{Value: ClassConstantFetch{Class: SelfInTrait{Trait: "T"}, Name: str("class")}},
		{Value: ClassConstantFetch{Class: ParentInTrait{}, Name: str("class")}},
		{Value: Magic{Kind: MagicLine, Line: 12}},
		{Value: Ternary{Cond: Lit(Bool(true)), Then: Magic{Kind: MagicFile}, Else: Magic{Kind: MagicClass}}},
	}}

	_, err := Evaluate(e, Throwing{})
	require.Error(t, err, "parent has no value inside a trait")

	rebuilt, err := Rebuild(e, classContext{class: "Child", parent: "Base"})
	require.NoError(t, err)
	got, err := Evaluate(rebuilt, Throwing{})
	require.NoError(t, err)
	assert.Equal(t, []any{"Child", "Base", int64(12), "/src/file.php"}, Interface(got))

	_, err = Rebuild(e, classContext{class: "Orphan"})
	require.Error(t, err)
}

func TestFormat(t *testing.T) {
	global := id.Constant{Name: "E_ALL"}
	e := BinaryOp{Op: "|", Left: ConstantFetch{ID: id.Constant{Name: `App\E_ALL`}, Fallback: &global}, Right: ClassConstantFetch{Class: str(`App\Flags`), Name: str("DEBUG")}}

	assert.Equal(t, `(E_ALL | \App\Flags::DEBUG)`, Format(e))
	assert.Equal(t, `['a' => 1, 'b' => 'it\'s']`, Format(ArrayLiteral{Elements: []ArrayElement{
		{Key: str("a"), Value: Lit(Int(1))},
		{Key: str("b"), Value: str("it's")},
	}}))
	assert.Equal(t, "2.0", FormatValue(Float(2)))
}
