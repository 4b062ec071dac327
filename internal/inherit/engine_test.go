package inherit

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jward/phpreflect/internal/declaration"
	"github.com/jward/phpreflect/internal/errs"
	"github.com/jward/phpreflect/internal/expr"
	"github.com/jward/phpreflect/internal/id"
	"github.com/jward/phpreflect/internal/metadata"
	"github.com/jward/phpreflect/internal/model"
	"github.com/jward/phpreflect/internal/types"
)

// mapSource resolves classes from in-memory declarations, memoising models.
type mapSource struct {
	engine *Engine
	decls  map[string]*declaration.Class
	metas  map[string]metadata.Class
	models map[string]*model.Class
}

func newSource() *mapSource {
	s := &mapSource{
		decls:  map[string]*declaration.Class{},
		metas:  map[string]metadata.Class{},
		models: map[string]*model.Class{},
	}
	s.engine = New(s)
	s.add(iface("Stringable", method(classCtx(declaration.KindInterface, "Stringable", ""), "__toString", types.String)))
	s.add(iface("UnitEnum"))
	s.add(iface("BackedEnum"))
	return s
}

func (s *mapSource) add(c *declaration.Class, meta ...metadata.Class) {
	k := strings.ToLower(c.Name())
	s.decls[k] = c
	if len(meta) > 0 {
		s.metas[k] = meta[0]
	}
}

func (s *mapSource) ReflectClass(ctx context.Context, name string) (*model.Class, error) {
	k := strings.ToLower(strings.TrimPrefix(name, `\`))
	if m, ok := s.models[k]; ok {
		return m, nil
	}
	d, ok := s.decls[k]
	if !ok {
		return nil, errs.NotFound(id.NamedClass{Name: name})
	}
	m, err := s.engine.Resolve(ctx, d, s.metas[k])
	if err != nil {
		return nil, err
	}
	s.models[k] = m
	return m, nil
}

func (s *mapSource) reflect(t *testing.T, name string) *model.Class {
	t.Helper()
	c, err := s.ReflectClass(context.Background(), name)
	require.NoError(t, err)
	return c
}

func classCtx(kind declaration.ClassKind, name, parent string) declaration.Context {
	return declaration.NewContext(declaration.FileSource("/src/"+name+".php"), declaration.NameScope{}).
		EnterClass(kind, id.NamedClass{Name: name}, parent)
}

func method(ctx declaration.Context, name string, ret types.Type) declaration.Method {
	return declaration.Method{Context: ctx.EnterMethod(name), Name: name, ReturnType: ret}
}

func privateMethod(ctx declaration.Context, name string) declaration.Method {
	m := method(ctx, name, types.Void)
	m.Visibility = declaration.Private
	return m
}

func constant(ctx declaration.Context, name string, value expr.Expr) declaration.ClassConstant {
	return declaration.ClassConstant{Context: ctx, Name: name, Value: value}
}

func class(name, parent string, build func(c *declaration.Class)) *declaration.Class {
	c := &declaration.Class{Context: classCtx(declaration.KindClass, name, parent), Kind: declaration.KindClass, Parent: parent}
	if build != nil {
		build(c)
	}
	return c
}

func trait(name string, build func(c *declaration.Class)) *declaration.Class {
	c := &declaration.Class{Context: classCtx(declaration.KindTrait, name, ""), Kind: declaration.KindTrait}
	if build != nil {
		build(c)
	}
	return c
}

func iface(name string, methods ...declaration.Method) *declaration.Class {
	return &declaration.Class{Context: classCtx(declaration.KindInterface, name, ""), Kind: declaration.KindInterface, Methods: methods}
}

func TestTraitMethodScenario(t *testing.T) {
	s := newSource()
	s.add(trait("T", func(c *declaration.Class) {
		m := method(c.Context, "m", types.Int)
		m.Visibility = declaration.Public
		c.Methods = []declaration.Method{m}
	}))
	s.add(class("C", "", func(c *declaration.Class) { c.Traits = []string{"T"} }))

	m, ok := s.reflect(t, "C").Methods().Get("m")
	require.True(t, ok)
	assert.Equal(t, id.Method{Class: id.NamedClass{Name: "T"}, Name: "m"}, m.DeclarationID())
	assert.Equal(t, id.Method{Class: id.NamedClass{Name: "C"}, Name: "m"}, m.ID())
	assert.Equal(t, declaration.Public, m.Visibility())
	assert.Equal(t, types.Int, m.ReturnType(types.KindResolved))
}

func TestFirstOccurrenceWins(t *testing.T) {
	s := newSource()
	s.add(class("P", "", func(c *declaration.Class) {
		c.Constants = []declaration.ClassConstant{constant(c.Context, "X", expr.Lit(expr.String("parent")))}
	}))
	s.add(trait("T", func(c *declaration.Class) {
		c.Constants = []declaration.ClassConstant{constant(c.Context, "X", expr.Lit(expr.String("trait")))}
	}))
	s.add(class("C", "P", func(c *declaration.Class) {
		c.Traits = []string{"T"}
		c.Constants = []declaration.ClassConstant{constant(c.Context, "X", expr.Lit(expr.String("own")))}
	}))

	x, ok := s.reflect(t, "C").Constants().Get("X")
	require.True(t, ok)
	assert.Equal(t, id.ClassConstant{Class: id.NamedClass{Name: "C"}, Name: "X"}, x.DeclarationID())
	v, err := x.Evaluate(expr.Throwing{})
	require.NoError(t, err)
	assert.Equal(t, expr.String("own"), v)
}

func TestTraitBeatsParent(t *testing.T) {
	s := newSource()
	s.add(class("P", "", func(c *declaration.Class) {
		c.Methods = []declaration.Method{method(c.Context, "m", types.Void)}
	}))
	s.add(trait("T", func(c *declaration.Class) {
		c.Methods = []declaration.Method{method(c.Context, "m", types.Void)}
	}))
	s.add(class("C", "P", func(c *declaration.Class) { c.Traits = []string{"T"} }))

	m, ok := s.reflect(t, "C").Methods().Get("M")
	require.True(t, ok)
	assert.Equal(t, id.Method{Class: id.NamedClass{Name: "T"}, Name: "m"}, m.DeclarationID())
}

func TestPrivateMembers(t *testing.T) {
	s := newSource()
	s.add(class("P", "", func(c *declaration.Class) {
		c.Methods = []declaration.Method{privateMethod(c.Context, "hidden")}
		c.Properties = []declaration.Property{{Context: c.Context, Name: "secret", Visibility: declaration.Private}}
	}))
	s.add(trait("T", func(c *declaration.Class) {
		c.Methods = []declaration.Method{privateMethod(c.Context, "helper")}
	}))
	s.add(class("C", "P", func(c *declaration.Class) { c.Traits = []string{"T"} }))

	cls := s.reflect(t, "C")
	assert.False(t, cls.Methods().Has("hidden"))
	assert.False(t, cls.Properties().Has("secret"))

	helper, ok := cls.Methods().Get("helper")
	require.True(t, ok)
	assert.True(t, helper.IsPrivate())
}

func TestTraitPrecedenceAndAliases(t *testing.T) {
	s := newSource()
	s.add(trait("A", func(c *declaration.Class) {
		c.Methods = []declaration.Method{method(c.Context, "m", types.Int)}
	}))
	s.add(trait("B", func(c *declaration.Class) {
		c.Methods = []declaration.Method{method(c.Context, "m", types.String)}
	}))
	s.add(class("C", "", func(c *declaration.Class) {
		c.Traits = []string{"A", "B"}
		c.TraitMethodPrecedence = map[string]string{"m": "B"}
		c.TraitMethodAliases = []declaration.TraitMethodAlias{
			{Trait: "A", Method: "m", NewName: "n", NewVisibility: declaration.Protected},
		}
	}))

	cls := s.reflect(t, "C")

	m, ok := cls.Methods().Get("m")
	require.True(t, ok)
	assert.Equal(t, id.Method{Class: id.NamedClass{Name: "B"}, Name: "m"}, m.DeclarationID())
	assert.Equal(t, types.String, m.ReturnType(types.KindResolved))

	// A::m is excluded by precedence, so its alias is not bound either.
	assert.False(t, cls.Methods().Has("n"))
}

func TestTraitAliasKeepsOriginal(t *testing.T) {
	s := newSource()
	s.add(trait("A", func(c *declaration.Class) {
		c.Methods = []declaration.Method{method(c.Context, "m", types.Int)}
	}))
	s.add(class("C", "", func(c *declaration.Class) {
		c.Traits = []string{"A"}
		c.TraitMethodAliases = []declaration.TraitMethodAlias{
			{Trait: "A", Method: "m", NewName: "n", NewVisibility: declaration.Protected},
		}
	}))

	cls := s.reflect(t, "C")
	assert.Equal(t, []string{"n", "m"}, cls.Methods().Names())

	n, _ := cls.Methods().Get("n")
	m, _ := cls.Methods().Get("m")
	want := id.Method{Class: id.NamedClass{Name: "A"}, Name: "m"}
	assert.Equal(t, want, n.DeclarationID())
	assert.Equal(t, want, m.DeclarationID())
	assert.True(t, n.IsProtected())
	assert.True(t, m.IsPublic())
	assert.Equal(t, id.Method{Class: id.NamedClass{Name: "C"}, Name: "n"}, n.ID())
}

func TestTypePrecedenceByKind(t *testing.T) {
	s := newSource()
	s.add(class("C", "", func(c *declaration.Class) {
		c.Properties = []declaration.Property{
			{Context: c.Context, Name: "count", Type: types.Int},
			{Context: c.Context, Name: "label", Type: types.String},
		}
	}), metadata.Class{Properties: map[string]metadata.Property{"count": {Type: types.PositiveInt}}})

	cls := s.reflect(t, "C")
	count, _ := cls.Properties().Get("count")
	assert.Equal(t, types.PositiveInt, count.Type(types.KindResolved))
	assert.Equal(t, types.Int, count.Type(types.KindNative))
	assert.Equal(t, types.PositiveInt, count.Type(types.KindAnnotated))

	label, _ := cls.Properties().Get("label")
	assert.Nil(t, label.Type(types.KindAnnotated))
	assert.Equal(t, types.String, label.Type(types.KindResolved))
}

func TestEnumSynthesis(t *testing.T) {
	s := newSource()
	backed := &declaration.Class{Context: classCtx(declaration.KindEnum, "Suit", ""), Kind: declaration.KindEnum, BackingType: types.String}
	backed.Constants = []declaration.ClassConstant{{Context: backed.Context, Name: "Hearts", EnumCase: true, BackingValue: expr.Lit(expr.String("H"))}}
	s.add(backed)
	s.add(&declaration.Class{Context: classCtx(declaration.KindEnum, "Status", ""), Kind: declaration.KindEnum})

	suit := s.reflect(t, "Suit")
	value, ok := suit.Properties().Get("value")
	require.True(t, ok)
	assert.Equal(t, types.String, value.Type(types.KindResolved))
	assert.True(t, value.IsReadonly(model.ModifierResolved))
	assert.True(t, value.IsInternallyDefined())
	for _, name := range []string{"cases", "from", "tryFrom"} {
		assert.True(t, suit.Methods().Has(name), name)
	}
	assert.True(t, suit.IsFinal(model.ModifierNative))
	assert.True(t, suit.IsInstanceOf("BackedEnum"))
	assert.True(t, suit.IsInstanceOf("UnitEnum"))
	assert.Equal(t, []string{"Hearts"}, suit.EnumCases().Names())

	status := s.reflect(t, "Status")
	assert.True(t, status.Properties().Has("name"))
	assert.True(t, status.Methods().Has("cases"))
	assert.False(t, status.Properties().Has("value"))
	assert.False(t, status.Methods().Has("from"))
	assert.False(t, status.Methods().Has("tryFrom"))
	assert.False(t, status.IsInstanceOf("BackedEnum"))
}

func TestEnumUserMemberWins(t *testing.T) {
	s := newSource()
	enum := &declaration.Class{Context: classCtx(declaration.KindEnum, "Odd", ""), Kind: declaration.KindEnum}
	enum.Methods = []declaration.Method{method(enum.Context, "cases", types.Void)}
	s.add(enum)

	cases, ok := s.reflect(t, "Odd").Methods().Get("cases")
	require.True(t, ok)
	assert.Equal(t, types.Void, cases.ReturnType(types.KindResolved))
}

func TestStringableIsImplicit(t *testing.T) {
	s := newSource()
	s.add(class("Name", "", func(c *declaration.Class) {
		c.Methods = []declaration.Method{method(c.Context, "__toString", types.String)}
	}))
	s.add(trait("Printable", func(c *declaration.Class) {
		c.Methods = []declaration.Method{method(c.Context, "__toString", types.String)}
	}))

	assert.True(t, s.reflect(t, "Name").IsInstanceOf("Stringable"))
	assert.False(t, s.reflect(t, "Printable").IsInstanceOf("Stringable"))
	assert.Empty(t, s.reflect(t, "Stringable").Interfaces())
}

func TestParentChainAndInterfaces(t *testing.T) {
	s := newSource()
	s.add(iface("Countable"))
	s.add(iface("Sized"))
	s.decls["sized"].Interfaces = []string{"Countable"}
	s.add(class("A", "", func(c *declaration.Class) { c.Interfaces = []string{"Sized"} }))
	s.add(class("B", "A", nil))
	s.add(class("C", "B", func(c *declaration.Class) { c.Interfaces = []string{"Countable"} }))

	cls := s.reflect(t, "C")
	assert.Equal(t, "B", cls.ParentName())
	assert.Equal(t, []model.Ancestor{{Name: "B"}, {Name: "A"}}, cls.Parents())
	assert.ElementsMatch(t, []string{"Countable", "Sized"}, cls.InterfaceNames())
	assert.True(t, cls.IsInstanceOf("a"))
}

func genericBase(s *mapSource) {
	base := class("Base", "", nil)
	base.Context = base.Context.WithTemplates("T")
	tmpl, _ := base.Context.Template("T")
	base.Methods = []declaration.Method{method(base.Context, "get", types.Mixed)}
	s.add(base, metadata.Class{
		Templates: []metadata.Template{{Name: "T"}},
		Methods:   map[string]metadata.Method{"get": {ReturnType: types.NewTemplate(tmpl)}},
	})
}

func TestInheritedTypeIsSubstituted(t *testing.T) {
	s := newSource()
	genericBase(s)
	s.add(class("Ints", "Base", nil), metadata.Class{Extends: map[string][]types.Type{"Base": {types.Int}}})
	s.add(class("Anything", "Base", nil))

	get, _ := s.reflect(t, "Ints").Methods().Get("get")
	assert.Equal(t, types.Int, get.ReturnType(types.KindResolved))
	assert.Equal(t, types.Mixed, get.ReturnType(types.KindNative))
	assert.Equal(t, []model.Ancestor{{Name: "Base", Args: []types.Type{types.Int}}}, s.reflect(t, "Ints").Parents())

	get, _ = s.reflect(t, "Anything").Methods().Get("get")
	assert.Equal(t, types.Mixed, get.ReturnType(types.KindResolved))
}

func TestOwnRedeclarationAdoptsNarrowerInheritedType(t *testing.T) {
	s := newSource()
	genericBase(s)
	s.add(class("Ints", "Base", func(c *declaration.Class) {
		c.Methods = []declaration.Method{method(c.Context, "get", types.Mixed)}
	}), metadata.Class{Extends: map[string][]types.Type{"Base": {types.Int}}})
	s.add(class("Strings", "Base", func(c *declaration.Class) {
		c.Methods = []declaration.Method{method(c.Context, "get", types.String)}
	}), metadata.Class{Extends: map[string][]types.Type{"Base": {types.Int}}})

	get, _ := s.reflect(t, "Ints").Methods().Get("get")
	assert.Equal(t, id.Method{Class: id.NamedClass{Name: "Ints"}, Name: "get"}, get.DeclarationID())
	assert.Equal(t, types.Int, get.ReturnType(types.KindResolved))

	// A different native type is a deliberate override and is kept.
	get, _ = s.reflect(t, "Strings").Methods().Get("get")
	assert.Equal(t, types.String, get.ReturnType(types.KindResolved))
	assert.Nil(t, get.ReturnType(types.KindAnnotated))
}

func TestOwnParameterAdoptsNarrowerInheritedType(t *testing.T) {
	s := newSource()
	setter := func(ctx declaration.Context, native types.Type) declaration.Method {
		m := method(ctx, "set", types.Void)
		m.Parameters = []declaration.Parameter{{Context: m.Context, Name: "items", Type: native}}
		return m
	}
	s.add(class("Base", "", func(c *declaration.Class) {
		c.Methods = []declaration.Method{setter(c.Context, types.Array)}
	}), metadata.Class{Methods: map[string]metadata.Method{
		"set": {Parameters: map[string]metadata.Parameter{"items": {Type: types.ListOf(types.Int)}}},
	}})
	s.add(class("Child", "Base", func(c *declaration.Class) {
		c.Methods = []declaration.Method{setter(c.Context, types.Array)}
	}))
	s.add(class("Loose", "Base", func(c *declaration.Class) {
		c.Methods = []declaration.Method{setter(c.Context, types.Mixed)}
	}))
	s.add(class("Heir", "Child", nil))

	set, _ := s.reflect(t, "Base").Methods().Get("set")
	items, _ := set.Parameters().Get("items")
	assert.Equal(t, "list<int>", items.Type(types.KindResolved).String())

	set, _ = s.reflect(t, "Child").Methods().Get("set")
	assert.Equal(t, id.Method{Class: id.NamedClass{Name: "Child"}, Name: "set"}, set.DeclarationID())
	items, ok := set.Parameters().Get("items")
	require.True(t, ok)
	assert.Equal(t, "list<int>", items.Type(types.KindResolved).String())
	assert.Equal(t, types.Array, items.Type(types.KindNative))

	set, _ = s.reflect(t, "Heir").Methods().Get("set")
	items, _ = set.Parameters().Get("items")
	assert.Equal(t, "list<int>", items.Type(types.KindResolved).String())

	// A widened native type is a deliberate override and is kept.
	set, _ = s.reflect(t, "Loose").Methods().Get("set")
	items, _ = set.Parameters().Get("items")
	assert.Equal(t, types.Mixed, items.Type(types.KindResolved))
}

func TestInheritedCandidateWithAnnotationIsPreferred(t *testing.T) {
	s := newSource()
	s.add(iface("Plain", method(classCtx(declaration.KindInterface, "Plain", ""), "items", types.Array)))
	s.add(iface("Typed", method(classCtx(declaration.KindInterface, "Typed", ""), "items", types.Array)),
		metadata.Class{Methods: map[string]metadata.Method{"items": {ReturnType: types.ListOf(types.Int)}}})
	s.add(class("C", "", func(c *declaration.Class) {
		c.Abstract = true
		c.Interfaces = []string{"Plain", "Typed"}
	}))

	items, ok := s.reflect(t, "C").Methods().Get("items")
	require.True(t, ok)
	assert.Equal(t, id.Method{Class: id.NamedClass{Name: "Plain"}, Name: "items"}, items.DeclarationID())
	assert.Equal(t, "list<int>", items.ReturnType(types.KindResolved).String())
	assert.True(t, items.IsAbstract())
}

func TestMagicClassInTraitConstant(t *testing.T) {
	s := newSource()
	s.add(trait("T", func(c *declaration.Class) {
		value, err := declaration.RebuildIn(c.Context, expr.Magic{Kind: expr.MagicClass})
		require.NoError(t, err)
		c.Constants = []declaration.ClassConstant{constant(c.Context, "OWNER", value)}
	}))
	s.add(class("X", "", func(c *declaration.Class) { c.Traits = []string{"T"} }))

	owner, ok := s.reflect(t, "X").Constants().Get("OWNER")
	require.True(t, ok)
	v, err := owner.Evaluate(expr.Throwing{})
	require.NoError(t, err)
	assert.Equal(t, expr.String("X"), v)

	inTrait, _ := s.reflect(t, "T").Constants().Get("OWNER")
	v, err = inTrait.Evaluate(expr.Throwing{})
	require.NoError(t, err)
	assert.Equal(t, expr.String("T"), v)
}

func TestPromotedConstructorParameters(t *testing.T) {
	s := newSource()
	s.add(class("Point", "", func(c *declaration.Class) {
		ctor := method(c.Context, "__construct", nil)
		ctor.Parameters = []declaration.Parameter{
			{Context: ctor.Context, Name: "x", Type: types.Int, Visibility: declaration.Public, Readonly: true},
			{Context: ctor.Context, Name: "scale", Type: types.Float},
		}
		c.Methods = []declaration.Method{ctor}
	}))

	cls := s.reflect(t, "Point")
	x, ok := cls.Properties().Get("x")
	require.True(t, ok)
	assert.True(t, x.IsPromoted())
	assert.True(t, x.IsReadonly(model.ModifierNative))
	assert.Equal(t, types.Int, x.Type(types.KindNative))
	assert.False(t, cls.Properties().Has("scale"))
}

func TestModifiersOr(t *testing.T) {
	s := newSource()
	s.add(class("C", "", func(c *declaration.Class) {
		c.Properties = []declaration.Property{{Context: c.Context, Name: "p"}}
	}), metadata.Class{Final: true, Readonly: true})

	cls := s.reflect(t, "C")
	assert.True(t, cls.IsFinal(model.ModifierResolved))
	assert.False(t, cls.IsFinal(model.ModifierNative))
	p, _ := cls.Properties().Get("p")
	assert.True(t, p.IsReadonly(model.ModifierResolved))
	assert.True(t, p.IsReadonly(model.ModifierAnnotated))
}

func TestMissingAncestorFails(t *testing.T) {
	s := newSource()
	s.add(class("C", "Missing", nil))

	_, err := s.ReflectClass(context.Background(), "C")
	require.Error(t, err)
	assert.True(t, errs.IsCode(err, errs.CodeNotFound))
}
