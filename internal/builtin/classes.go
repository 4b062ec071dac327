package builtin

import (
	"github.com/jward/phpreflect/internal/declaration"
	"github.com/jward/phpreflect/internal/expr"
	"github.com/jward/phpreflect/internal/id"
	"github.com/jward/phpreflect/internal/types"
)

type classBuilder struct {
	c *declaration.Class
}

func newClass(kind declaration.ClassKind, name, parent string) *classBuilder {
	ctx := declaration.NewContext(declaration.ExtensionSource(declaration.CoreExtension), declaration.NameScope{}).
		EnterClass(kind, id.NamedClass{Name: name}, parent)
	return &classBuilder{c: &declaration.Class{Context: ctx, Kind: kind, Parent: parent}}
}

func (b *classBuilder) implements(names ...string) *classBuilder {
	b.c.Interfaces = append(b.c.Interfaces, names...)
	return b
}

func (b *classBuilder) property(name string, vis declaration.Visibility, typ types.Type, def expr.Value) *classBuilder {
	p := declaration.Property{Context: b.c.Context, Name: name, Visibility: vis, Type: typ}
	if def != nil {
		p.Default = expr.Lit(def)
	}
	b.c.Properties = append(b.c.Properties, p)
	return b
}

// method adds a public method. Internal interface methods mostly carry a
// tentative return type rather than a native one.
func (b *classBuilder) method(name string, native, tentative types.Type, params ...param) *classBuilder {
	return b.add(declaration.Method{Name: name, Visibility: declaration.Public, ReturnType: native, TentativeReturnType: tentative}, params)
}

func (b *classBuilder) final(name string, native types.Type, params ...param) *classBuilder {
	return b.add(declaration.Method{Name: name, Visibility: declaration.Public, Final: true, ReturnType: native}, params)
}

func (b *classBuilder) static(name string, native types.Type, params ...param) *classBuilder {
	return b.add(declaration.Method{Name: name, Visibility: declaration.Public, Static: true, ReturnType: native}, params)
}

func (b *classBuilder) add(m declaration.Method, params []param) *classBuilder {
	m.Context = b.c.Context.EnterMethod(m.Name)
	for _, p := range params {
		m.Parameters = append(m.Parameters, p.declare(m.Context))
	}
	if b.c.Kind == declaration.KindInterface {
		m.Abstract = true
	}
	b.c.Methods = append(b.c.Methods, m)
	return b
}

func (b *classBuilder) build() *declaration.Class { return b.c }

type param struct {
	name     string
	typ      types.Type
	def      expr.Expr
	variadic bool
}

func (p param) declare(ctx declaration.Context) declaration.Parameter {
	return declaration.Parameter{Context: ctx, Name: p.name, Type: p.typ, Default: p.def, Variadic: p.variadic}
}

func arg(name string, typ types.Type) param { return param{name: name, typ: typ} }

func opt(name string, typ types.Type, def expr.Value) param {
	return param{name: name, typ: typ, def: expr.Lit(def)}
}

func named(name string) types.Type { return types.NewNamed(name) }

func throwable(kind declaration.ClassKind, name string) *declaration.Class {
	b := newClass(kind, name, "").implements("Throwable").
		property("message", declaration.Protected, nil, expr.String("")).
		property("code", declaration.Protected, nil, expr.Int(0)).
		property("file", declaration.Protected, types.String, expr.String("")).
		property("line", declaration.Protected, types.Int, expr.Int(0)).
		property("previous", declaration.Private, types.NewNullable(named("Throwable")), expr.Null{})
	b.method("__construct", nil, nil,
		opt("message", types.String, expr.String("")),
		opt("code", types.Int, expr.Int(0)),
		opt("previous", types.NewNullable(named("Throwable")), expr.Null{}))
	b.final("getMessage", types.String).
		final("getCode", nil).
		final("getPrevious", types.NewNullable(named("Throwable"))).
		final("getFile", types.String).
		final("getLine", types.Int).
		final("getTrace", types.Array).
		final("getTraceAsString", types.String).
		method("__toString", types.String, nil)
	return b.build()
}

func coreClasses() []*declaration.Class {
	intOrString := types.NewUnion(types.Int, types.String)

	return []*declaration.Class{
		newClass(declaration.KindInterface, "Stringable", "").
			method("__toString", types.String, nil).
			build(),
		newClass(declaration.KindInterface, "UnitEnum", "").
			static("cases", types.Array).
			build(),
		newClass(declaration.KindInterface, "BackedEnum", "").implements("UnitEnum").
			static("from", types.NewStatic("BackedEnum"), arg("value", intOrString)).
			static("tryFrom", types.NewNullable(types.NewStatic("BackedEnum")), arg("value", intOrString)).
			build(),
		newClass(declaration.KindInterface, "Traversable", "").build(),
		newClass(declaration.KindInterface, "Iterator", "").implements("Traversable").
			method("current", nil, types.Mixed).
			method("next", nil, types.Void).
			method("key", nil, types.Mixed).
			method("valid", nil, types.Bool).
			method("rewind", nil, types.Void).
			build(),
		newClass(declaration.KindInterface, "IteratorAggregate", "").implements("Traversable").
			method("getIterator", nil, named("Traversable")).
			build(),
		newClass(declaration.KindInterface, "ArrayAccess", "").
			method("offsetExists", nil, types.Bool, arg("offset", types.Mixed)).
			method("offsetGet", nil, types.Mixed, arg("offset", types.Mixed)).
			method("offsetSet", nil, types.Void, arg("offset", types.Mixed), arg("value", types.Mixed)).
			method("offsetUnset", nil, types.Void, arg("offset", types.Mixed)).
			build(),
		newClass(declaration.KindInterface, "Countable", "").
			method("count", nil, types.Int).
			build(),
		newClass(declaration.KindInterface, "JsonSerializable", "").
			method("jsonSerialize", nil, types.Mixed).
			build(),
		newClass(declaration.KindInterface, "Throwable", "").implements("Stringable").
			method("getMessage", types.String, nil).
			method("getCode", nil, nil).
			method("getFile", types.String, nil).
			method("getLine", types.Int, nil).
			method("getTrace", types.Array, nil).
			method("getPrevious", types.NewNullable(named("Throwable")), nil).
			method("getTraceAsString", types.String, nil).
			build(),
		throwable(declaration.KindClass, "Exception"),
		throwable(declaration.KindClass, "Error"),
		newClass(declaration.KindClass, "ArrayIterator", "").implements("Iterator", "ArrayAccess", "Countable").
			method("__construct", nil, nil, opt("array", types.NewUnion(types.Array, types.Object), expr.NewArray())).
			method("current", nil, types.Mixed).
			method("next", nil, types.Void).
			method("key", nil, types.NewUnion(types.String, types.Int, types.Null)).
			method("valid", nil, types.Bool).
			method("rewind", nil, types.Void).
			method("offsetExists", nil, types.Bool, arg("key", types.Mixed)).
			method("offsetGet", nil, types.Mixed, arg("key", types.Mixed)).
			method("offsetSet", nil, types.Void, arg("key", types.Mixed), arg("value", types.Mixed)).
			method("offsetUnset", nil, types.Void, arg("key", types.Mixed)).
			method("count", nil, types.Int).
			build(),
	}
}
