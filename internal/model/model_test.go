package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jward/phpreflect/internal/declaration"
	"github.com/jward/phpreflect/internal/expr"
	"github.com/jward/phpreflect/internal/id"
	"github.com/jward/phpreflect/internal/metadata"
	"github.com/jward/phpreflect/internal/types"
)

type item string

func (i item) Name() string { return string(i) }

func TestCollectionKeepsFirstAndOrder(t *testing.T) {
	b := NewBuilder[item](true)
	assert.True(t, b.Add("Save"))
	assert.True(t, b.Add("load"))
	assert.False(t, b.Add("SAVE"))
	b.Replace("LOAD")

	c := b.Collection()
	assert.Equal(t, []string{"Save", "LOAD"}, c.Names())
	got, ok := c.Get("save")
	require.True(t, ok)
	assert.Equal(t, item("Save"), got)

	strict := NewCollection(false, item("A"), item("a"))
	assert.Equal(t, 2, strict.Len())
	assert.False(t, strict.Has("B"))
}

func TestModifierByKind(t *testing.T) {
	m := NewModifier(false, true)
	assert.True(t, m.ByKind(ModifierResolved))
	assert.False(t, m.ByKind(ModifierNative))
	assert.True(t, m.ByKind(ModifierAnnotated))
	assert.True(t, NewModifier(true, false).Or(m).ByKind(ModifierNative))
}

func classContext(kind declaration.ClassKind, name string) declaration.Context {
	return declaration.NewContext(declaration.FileSource("/src/"+name+".php"), declaration.NameScope{}).
		EnterClass(kind, id.NamedClass{Name: name}, "")
}

func TestAttributeEvaluation(t *testing.T) {
	args := expr.ArrayLiteral{Elements: []expr.ArrayElement{
		{Value: expr.Lit(expr.Int(1))},
		{Key: expr.Lit(expr.String("reason")), Value: expr.Lit(expr.String("legacy"))},
	}}
	attrs := Attributes(id.NamedClass{Name: "C"}, []declaration.Attribute{
		{Class: "Tag", Arguments: args},
		{Class: "tag"},
		{Class: "Other"},
	})
	require.Len(t, attrs, 3)
	assert.True(t, attrs[0].IsRepeated())
	assert.False(t, attrs[2].IsRepeated())

	obj, err := attrs[0].NewInstance(expr.Throwing{})
	require.NoError(t, err)
	assert.Equal(t, "Tag", obj.Class)
	reason, ok, err := obj.Arguments.Get(expr.String("reason"))
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, expr.String("legacy"), reason)

	empty, err := attrs[1].EvaluateArguments(expr.Throwing{})
	require.NoError(t, err)
	assert.Equal(t, 0, empty.Len())
}

func TestMethodUseRebuildsDefaultsInUsingClass(t *testing.T) {
	trait := classContext(declaration.KindTrait, "T")
	methodCtx := trait.EnterMethod("m")
	def, err := declaration.RebuildIn(methodCtx, expr.Magic{Kind: expr.MagicClass})
	require.NoError(t, err)

	decl := declaration.Method{
		Context:    methodCtx,
		Name:       "m",
		ReturnType: types.Int,
		Parameters: []declaration.Parameter{{Context: methodCtx, Name: "owner", Default: def}},
	}
	m := DeclareMethod(decl, metadata.Method{}, false)

	using := classContext(declaration.KindClass, "X")
	used, err := m.Use(using, m.ReturnTypeFact(), "alias", declaration.Protected)
	require.NoError(t, err)

	assert.Equal(t, id.Method{Class: id.NamedClass{Name: "X"}, Name: "alias"}, used.ID())
	assert.Equal(t, id.Method{Class: id.NamedClass{Name: "T"}, Name: "m"}, used.DeclarationID())
	assert.True(t, used.IsProtected())

	p, ok := used.Parameters().Get("owner")
	require.True(t, ok)
	v, err := p.EvaluateDefault(expr.Throwing{})
	require.NoError(t, err)
	assert.Equal(t, expr.String("X"), v)
	assert.True(t, p.IsOptional())
}

func TestMethodInheritSubstitutesParameterTypes(t *testing.T) {
	box := classContext(declaration.KindClass, "Box").WithTemplates("T")
	tmpl, _ := box.Template("T")
	methodCtx := box.EnterMethod("put")
	decl := declaration.Method{
		Context:    methodCtx,
		Name:       "put",
		Parameters: []declaration.Parameter{{Context: methodCtx, Name: "value"}},
	}
	meta := metadata.Method{Parameters: map[string]metadata.Parameter{"value": {Type: types.NewTemplate(tmpl)}}}
	m := DeclareMethod(decl, meta, false)

	r := types.NewTemplateResolver([]id.Template{tmpl}, nil, []types.Type{types.String})
	inherited := m.Inherit(id.NamedClass{Name: "StringBox"}, m.ReturnTypeFact(), r)

	p, ok := inherited.Parameters().Get("value")
	require.True(t, ok)
	assert.Equal(t, types.String, p.Type(types.KindResolved))
	assert.Equal(t, id.Method{Class: id.NamedClass{Name: "StringBox"}, Name: "put"}, p.Function())
}

func TestEnumCaseEvaluatesToCaseObject(t *testing.T) {
	enum := classContext(declaration.KindEnum, "Suit")
	c := DeclareClassConstant(declaration.ClassConstant{
		Context:      enum,
		Name:         "Hearts",
		EnumCase:     true,
		BackingValue: expr.Lit(expr.String("H")),
	}, metadata.ClassConstant{})

	assert.True(t, c.IsEnumCase())
	assert.True(t, c.IsBackedEnumCase())
	assert.True(t, c.IsPublic())

	v, err := c.Evaluate(expr.Throwing{})
	require.NoError(t, err)
	assert.Equal(t, &expr.Object{Class: "Suit", Case: "Hearts"}, v)

	backing, err := c.EnumBackingValue(expr.Throwing{})
	require.NoError(t, err)
	assert.Equal(t, expr.String("H"), backing)
}

func TestClassQueries(t *testing.T) {
	methods := NewCollection(true, DeclareMethod(declaration.Method{
		Context:    classContext(declaration.KindClass, "C").EnterMethod("__clone"),
		Name:       "__clone",
		Visibility: declaration.Private,
	}, metadata.Method{}, false))

	c := NewClass(ClassSpec{
		ID:         id.NamedClass{Name: `App\C`},
		Kind:       declaration.KindClass,
		Methods:    methods,
		Parents:    []Ancestor{{Name: `App\B`}, {Name: `App\A`}},
		Interfaces: []Ancestor{{Name: "Countable"}},
		Source:     declaration.FileSource("/src/C.php"),
	})

	assert.Equal(t, `App\B`, c.ParentName())
	assert.True(t, c.IsInstanceOf(`\app\a`))
	assert.True(t, c.IsInstanceOf("countable"))
	assert.False(t, c.IsInstanceOf("Stringable"))
	assert.False(t, c.IsCloneable())
	assert.Equal(t, "/src/C.php", c.File())
	assert.False(t, c.IsInternallyDefined())
}
