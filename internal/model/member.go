package model

import (
	"github.com/jward/phpreflect/internal/declaration"
	"github.com/jward/phpreflect/internal/expr"
	"github.com/jward/phpreflect/internal/id"
	"github.com/jward/phpreflect/internal/metadata"
	"github.com/jward/phpreflect/internal/types"
)

// ClassConstant is a resolved class constant or enum case.
type ClassConstant struct {
	id            id.ClassConstant
	declarationID id.ClassConstant
	visibility    declaration.Visibility
	final         Modifier
	typ           types.Fact
	value         expr.Expr
	enumCase      bool
	backingValue  expr.Expr
	attributes    []Attribute
	snippet       declaration.Snippet
	phpDoc        *declaration.Snippet
	deprecation   *metadata.Deprecation
}

func DeclareClassConstant(d declaration.ClassConstant, meta metadata.ClassConstant) ClassConstant {
	cid := id.ClassConstant{Class: d.Context.Self, Name: d.Name}
	c := ClassConstant{
		id:            cid,
		declarationID: cid,
		visibility:    d.Visibility,
		final:         NewModifier(d.Final, meta.Final),
		typ:           types.NewFact(d.Type, nil, meta.Type),
		value:         d.Value,
		attributes:    Attributes(cid, d.Attributes),
		snippet:       d.Snippet,
		phpDoc:        d.PhpDoc,
		deprecation:   meta.Deprecation,
	}
	if d.EnumCase {
		c.visibility = declaration.Public
		c.final = Modifier{}
		c.typ = types.Fact{}
		c.value = nil
		c.enumCase = true
		c.backingValue = d.BackingValue
	}
	return c
}

func (c ClassConstant) ID() id.ClassConstant            { return c.id }
func (c ClassConstant) DeclarationID() id.ClassConstant { return c.declarationID }
func (c ClassConstant) Name() string                    { return c.id.Name }
func (c ClassConstant) Class() id.Class                 { return c.id.Class }
func (c ClassConstant) Visibility() declaration.Visibility {
	return c.visibility.Resolve()
}
func (c ClassConstant) IsPublic() bool    { return c.Visibility() == declaration.Public }
func (c ClassConstant) IsProtected() bool { return c.visibility == declaration.Protected }
func (c ClassConstant) IsPrivate() bool   { return c.visibility == declaration.Private }

func (c ClassConstant) IsFinal(k ModifierKind) bool { return c.final.ByKind(k) }
func (c ClassConstant) IsEnumCase() bool            { return c.enumCase }
func (c ClassConstant) IsBackedEnumCase() bool      { return c.enumCase && c.backingValue != nil }

// Type returns the facet of kind k; nil when that facet is absent.
func (c ClassConstant) Type(k types.Kind) types.Type { return c.typ.ByKind(k) }
func (c ClassConstant) TypeFact() types.Fact         { return c.typ }

// Value is the initializer expression. It is nil for enum cases.
func (c ClassConstant) Value() expr.Expr                     { return c.value }
func (c ClassConstant) Attributes() []Attribute              { return c.attributes }
func (c ClassConstant) Snippet() declaration.Snippet         { return c.snippet }
func (c ClassConstant) PhpDoc() *declaration.Snippet         { return c.phpDoc }
func (c ClassConstant) Deprecation() *metadata.Deprecation   { return c.deprecation }
func (c ClassConstant) IsDeprecated() bool                   { return c.deprecation != nil }
func (c ClassConstant) BackingValueExpr() expr.Expr          { return c.backingValue }

// Evaluate computes the constant value. Enum cases evaluate to a case
// object of the declaring enum.
func (c ClassConstant) Evaluate(ctx expr.EvaluationContext) (expr.Value, error) {
	if c.enumCase {
		return &expr.Object{Class: id.ClassName(c.declarationID.Class), Case: c.id.Name}, nil
	}
	return expr.Evaluate(c.value, ctx)
}

// EnumBackingValue evaluates the backing value of a backed enum case.
func (c ClassConstant) EnumBackingValue(ctx expr.EvaluationContext) (expr.Value, error) {
	if c.backingValue == nil {
		return expr.Null{}, nil
	}
	return expr.Evaluate(c.backingValue, ctx)
}

// Inherit re-keys the constant to class, keeping its declaration.
func (c ClassConstant) Inherit(class id.Class, fact types.Fact) ClassConstant {
	c.id = id.ClassConstant{Class: class, Name: c.id.Name}
	c.typ = fact
	c.attributes = retarget(c.attributes, c.id)
	return c
}

// Use copies a trait constant into the class of ctx, rebuilding its value
// expression there.
func (c ClassConstant) Use(ctx declaration.Context, fact types.Fact) (ClassConstant, error) {
	value, err := declaration.RebuildIn(ctx, c.value)
	if err != nil {
		return ClassConstant{}, err
	}
	c.id = id.ClassConstant{Class: ctx.Self, Name: c.id.Name}
	c.typ = fact
	c.value = value
	c.attributes = retarget(c.attributes, c.id)
	return c, nil
}

func (c ClassConstant) WithType(fact types.Fact) ClassConstant {
	c.typ = fact
	return c
}

// Property is a resolved property, declared or promoted.
type Property struct {
	id            id.Property
	declarationID id.Property
	visibility    declaration.Visibility
	static        bool
	readonly      Modifier
	typ           types.Fact
	def           expr.Expr
	promoted      bool
	attributes    []Attribute
	snippet       declaration.Snippet
	phpDoc        *declaration.Snippet
	deprecation   *metadata.Deprecation
	source        declaration.Source
}

// DeclareProperty resolves an own property. classReadonly is OR-ed into the
// property's readonly modifier.
func DeclareProperty(d declaration.Property, meta metadata.Property, classReadonly Modifier) Property {
	pid := id.Property{Class: d.Context.Self, Name: d.Name}
	return Property{
		id:            pid,
		declarationID: pid,
		visibility:    d.Visibility,
		static:        d.Static,
		readonly:      NewModifier(d.Readonly, meta.Readonly).Or(classReadonly),
		typ:           types.NewFact(d.Type, nil, meta.Type),
		def:           d.Default,
		attributes:    Attributes(pid, d.Attributes),
		snippet:       d.Snippet,
		phpDoc:        d.PhpDoc,
		deprecation:   meta.Deprecation,
		source:        d.Context.Source,
	}
}

// DeclarePromoted resolves the property declared by a promoted constructor
// parameter.
func DeclarePromoted(p declaration.Parameter, meta metadata.Parameter, classReadonly Modifier) Property {
	pid := id.Property{Class: p.Context.Self, Name: p.Name}
	return Property{
		id:            pid,
		declarationID: pid,
		visibility:    p.Visibility,
		readonly:      NewModifier(p.Readonly, meta.Readonly).Or(classReadonly),
		typ:           types.NewFact(p.Type, nil, meta.Type),
		promoted:      true,
		attributes:    Attributes(pid, p.Attributes),
		snippet:       p.Snippet,
		phpDoc:        p.PhpDoc,
		deprecation:   meta.Deprecation,
		source:        p.Context.Source,
	}
}

func (p Property) ID() id.Property            { return p.id }
func (p Property) DeclarationID() id.Property { return p.declarationID }
func (p Property) Name() string               { return p.id.Name }
func (p Property) Class() id.Class            { return p.id.Class }
func (p Property) Visibility() declaration.Visibility {
	return p.visibility.Resolve()
}
func (p Property) IsPublic() bool    { return p.Visibility() == declaration.Public }
func (p Property) IsProtected() bool { return p.visibility == declaration.Protected }
func (p Property) IsPrivate() bool   { return p.visibility == declaration.Private }
func (p Property) IsStatic() bool    { return p.static }
func (p Property) IsPromoted() bool  { return p.promoted }

func (p Property) IsReadonly(k ModifierKind) bool { return p.readonly.ByKind(k) }
func (p Property) Type(k types.Kind) types.Type   { return p.typ.ByKind(k) }
func (p Property) TypeFact() types.Fact           { return p.typ }

func (p Property) HasDefaultValue() bool                  { return p.def != nil }
func (p Property) Default() expr.Expr                     { return p.def }
func (p Property) Attributes() []Attribute                { return p.attributes }
func (p Property) Snippet() declaration.Snippet           { return p.snippet }
func (p Property) PhpDoc() *declaration.Snippet           { return p.phpDoc }
func (p Property) Deprecation() *metadata.Deprecation     { return p.deprecation }
func (p Property) IsDeprecated() bool                     { return p.deprecation != nil }
func (p Property) IsInternallyDefined() bool              { return p.source.IsInternal() }

// EvaluateDefault evaluates the default value; null when none is declared.
func (p Property) EvaluateDefault(ctx expr.EvaluationContext) (expr.Value, error) {
	if p.def == nil {
		return expr.Null{}, nil
	}
	return expr.Evaluate(p.def, ctx)
}

func (p Property) Inherit(class id.Class, fact types.Fact) Property {
	p.id = id.Property{Class: class, Name: p.id.Name}
	p.typ = fact
	p.attributes = retarget(p.attributes, p.id)
	return p
}

func (p Property) Use(ctx declaration.Context, fact types.Fact) (Property, error) {
	def, err := declaration.RebuildIn(ctx, p.def)
	if err != nil {
		return Property{}, err
	}
	p.id = id.Property{Class: ctx.Self, Name: p.id.Name}
	p.typ = fact
	p.def = def
	p.attributes = retarget(p.attributes, p.id)
	return p, nil
}

func (p Property) WithType(fact types.Fact) Property {
	p.typ = fact
	return p
}

// Parameter is a resolved function or method parameter.
type Parameter struct {
	id            id.Parameter
	declarationID id.Parameter
	index         int
	typ           types.Fact
	def           expr.Expr
	variadic      bool
	passedBy      declaration.PassedBy
	promoted      bool
	attributes    []Attribute
	snippet       declaration.Snippet
	phpDoc        *declaration.Snippet
	deprecation   *metadata.Deprecation
}

// Parameters resolves the parameter list of fn.
func Parameters(fn id.Function, decls []declaration.Parameter, meta map[string]metadata.Parameter) Collection[Parameter] {
	items := make([]Parameter, len(decls))
	for i, d := range decls {
		pid := id.Parameter{Function: fn, Name: d.Name}
		m := meta[d.Name]
		items[i] = Parameter{
			id:            pid,
			declarationID: pid,
			index:         i,
			typ:           types.NewFact(d.Type, nil, m.Type),
			def:           d.Default,
			variadic:      d.Variadic,
			passedBy:      d.PassedBy,
			promoted:      d.IsPromoted(),
			attributes:    Attributes(pid, d.Attributes),
			snippet:       d.Snippet,
			phpDoc:        d.PhpDoc,
			deprecation:   m.Deprecation,
		}
	}
	return NewCollection(false, items...)
}

func (p Parameter) ID() id.Parameter            { return p.id }
func (p Parameter) DeclarationID() id.Parameter { return p.declarationID }
func (p Parameter) Name() string                { return p.id.Name }
func (p Parameter) Function() id.Function       { return p.id.Function }
func (p Parameter) Index() int                  { return p.index }
func (p Parameter) IsVariadic() bool            { return p.variadic }
func (p Parameter) IsPromoted() bool            { return p.promoted }
func (p Parameter) PassedBy() declaration.PassedBy {
	return p.passedBy
}
func (p Parameter) CanBePassedByValue() bool {
	return p.passedBy != declaration.ByReference
}
func (p Parameter) CanBePassedByReference() bool {
	return p.passedBy != declaration.ByValue
}

// IsOptional reports whether callers may omit the parameter.
func (p Parameter) IsOptional() bool { return p.def != nil || p.variadic }

func (p Parameter) HasDefaultValue() bool                { return p.def != nil }
func (p Parameter) Default() expr.Expr                   { return p.def }
func (p Parameter) Type(k types.Kind) types.Type         { return p.typ.ByKind(k) }
func (p Parameter) TypeFact() types.Fact                 { return p.typ }
func (p Parameter) Attributes() []Attribute              { return p.attributes }
func (p Parameter) Snippet() declaration.Snippet         { return p.snippet }
func (p Parameter) PhpDoc() *declaration.Snippet         { return p.phpDoc }
func (p Parameter) Deprecation() *metadata.Deprecation   { return p.deprecation }
func (p Parameter) IsDeprecated() bool                   { return p.deprecation != nil }

func (p Parameter) EvaluateDefault(ctx expr.EvaluationContext) (expr.Value, error) {
	if p.def == nil {
		return expr.Null{}, nil
	}
	return expr.Evaluate(p.def, ctx)
}

func (p Parameter) inherit(fn id.Function, r types.Resolver) Parameter {
	p.id = id.Parameter{Function: fn, Name: p.id.Name}
	p.typ = p.typ.Inherit(r)
	p.attributes = retarget(p.attributes, p.id)
	return p
}

func (p Parameter) use(ctx declaration.Context) (Parameter, error) {
	def, err := declaration.RebuildIn(ctx, p.def)
	if err != nil {
		return Parameter{}, err
	}
	fn, _ := ctx.ID.(id.Function)
	p.id = id.Parameter{Function: fn, Name: p.id.Name}
	p.def = def
	p.attributes = retarget(p.attributes, p.id)
	return p, nil
}

// Method is a resolved method.
type Method struct {
	id               id.Method
	declarationID    id.Method
	source           declaration.Source
	visibility       declaration.Visibility
	static           bool
	abstract         bool
	final            Modifier
	generator        bool
	returnsReference bool
	returnType       types.Fact
	throwsType       types.Type
	templates        Collection[Template]
	parameters       Collection[Parameter]
	attributes       []Attribute
	snippet          declaration.Snippet
	phpDoc           *declaration.Snippet
	deprecation      *metadata.Deprecation
}

// DeclareMethod resolves an own method. Interface methods are abstract.
func DeclareMethod(d declaration.Method, meta metadata.Method, inInterface bool) Method {
	mid := d.ID()
	var throws types.Type
	if len(meta.ThrowsTypes) > 0 {
		throws = types.NewUnion(meta.ThrowsTypes...)
	}
	return Method{
		id:               mid,
		declarationID:    mid,
		source:           d.Context.Source,
		visibility:       d.Visibility,
		static:           d.Static,
		abstract:         inInterface || d.Abstract,
		final:            NewModifier(d.Final, meta.Final),
		generator:        d.Generator,
		returnsReference: d.ReturnsReference,
		returnType:       types.NewFact(d.ReturnType, d.TentativeReturnType, meta.ReturnType),
		throwsType:       throws,
		templates:        Templates(mid, meta.Templates),
		parameters:       Parameters(mid, d.Parameters, meta.Parameters),
		attributes:       Attributes(mid, d.Attributes),
		snippet:          d.Snippet,
		phpDoc:           d.PhpDoc,
		deprecation:      deprecation(meta.Deprecation, d.Deprecated),
	}
}

func (m Method) ID() id.Method            { return m.id }
func (m Method) DeclarationID() id.Method { return m.declarationID }
func (m Method) Name() string             { return m.id.Name }
func (m Method) Class() id.Class          { return m.id.Class }
func (m Method) Visibility() declaration.Visibility {
	return m.visibility.Resolve()
}
func (m Method) IsPublic() bool           { return m.Visibility() == declaration.Public }
func (m Method) IsProtected() bool        { return m.visibility == declaration.Protected }
func (m Method) IsPrivate() bool          { return m.visibility == declaration.Private }
func (m Method) IsStatic() bool           { return m.static }
func (m Method) IsAbstract() bool         { return m.abstract }
func (m Method) IsGenerator() bool        { return m.generator }
func (m Method) ReturnsReference() bool   { return m.returnsReference }
func (m Method) IsInternallyDefined() bool { return m.source.IsInternal() }

func (m Method) IsFinal(k ModifierKind) bool      { return m.final.ByKind(k) }
func (m Method) ReturnType(k types.Kind) types.Type { return m.returnType.ByKind(k) }
func (m Method) ReturnTypeFact() types.Fact         { return m.returnType }

// ThrowsType is the union of declared @throws types, nil when none.
func (m Method) ThrowsType() types.Type { return m.throwsType }

func (m Method) Templates() Collection[Template]   { return m.templates }
func (m Method) Parameters() Collection[Parameter] { return m.parameters }
func (m Method) Attributes() []Attribute           { return m.attributes }
func (m Method) Snippet() declaration.Snippet      { return m.snippet }
func (m Method) PhpDoc() *declaration.Snippet      { return m.phpDoc }
func (m Method) Deprecation() *metadata.Deprecation {
	return m.deprecation
}
func (m Method) IsDeprecated() bool { return m.deprecation != nil }

func (m Method) Extension() string { return m.source.Extension }
func (m Method) File() string      { return m.source.File }

// IsVariadic reports whether the last parameter is variadic.
func (m Method) IsVariadic() bool {
	n := len(m.parameters.items)
	return n > 0 && m.parameters.items[n-1].variadic
}

// Inherit re-keys the method to class. Parameter types are substituted
// through r.
func (m Method) Inherit(class id.Class, returnType types.Fact, r types.Resolver) Method {
	m.id = id.Method{Class: class, Name: m.id.Name}
	m.returnType = returnType
	params := NewBuilder[Parameter](false)
	for _, p := range m.parameters.items {
		params.Add(p.inherit(m.id, r))
	}
	m.parameters = params.Collection()
	m.attributes = retarget(m.attributes, m.id)
	return m
}

// Use copies a trait method into the class of ctx under newName (the
// original name when empty) and newVisibility (unchanged when none).
// Parameter defaults are rebuilt in the new method context.
func (m Method) Use(ctx declaration.Context, returnType types.Fact, newName string, newVisibility declaration.Visibility) (Method, error) {
	name := m.id.Name
	if newName != "" {
		name = newName
	}
	methodCtx := ctx.EnterMethod(name)
	m.id = id.Method{Class: ctx.Self, Name: name}
	m.returnType = returnType
	if newVisibility != declaration.VisibilityNone {
		m.visibility = newVisibility
	}
	params := NewBuilder[Parameter](false)
	for _, p := range m.parameters.items {
		used, err := p.use(methodCtx)
		if err != nil {
			return Method{}, err
		}
		params.Add(used)
	}
	m.parameters = params.Collection()
	m.attributes = retarget(m.attributes, m.id)
	return m, nil
}

func (m Method) WithType(returnType types.Fact) Method {
	m.returnType = returnType
	return m
}

// WithParameterTypes replaces the type facts of the parameters named in
// facts.
func (m Method) WithParameterTypes(facts map[string]types.Fact) Method {
	if len(facts) == 0 {
		return m
	}
	params := NewBuilder[Parameter](false)
	for _, p := range m.parameters.items {
		if f, ok := facts[p.Name()]; ok {
			p.typ = f
		}
		params.Add(p)
	}
	m.parameters = params.Collection()
	return m
}
