package model

import (
	"github.com/jward/phpreflect/internal/declaration"
	"github.com/jward/phpreflect/internal/expr"
	"github.com/jward/phpreflect/internal/id"
	"github.com/jward/phpreflect/internal/metadata"
	"github.com/jward/phpreflect/internal/types"
)

// Function is a resolved named or anonymous function.
type Function struct {
	id               id.Function
	source           declaration.Source
	namespace        string
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

func DeclareFunction(d *declaration.Function, meta metadata.Function) *Function {
	fid := d.ID()
	var throws types.Type
	if len(meta.ThrowsTypes) > 0 {
		throws = types.NewUnion(meta.ThrowsTypes...)
	}
	return &Function{
		id:               fid,
		source:           d.Context.Source,
		namespace:        d.Context.Namespace(),
		generator:        d.Generator,
		returnsReference: d.ReturnsReference,
		returnType:       types.NewFact(d.ReturnType, d.TentativeReturnType, meta.ReturnType),
		throwsType:       throws,
		templates:        Templates(fid, meta.Templates),
		parameters:       Parameters(fid, d.Parameters, meta.Parameters),
		attributes:       Attributes(fid, d.Attributes),
		snippet:          d.Snippet,
		phpDoc:           d.PhpDoc,
		deprecation:      deprecation(meta.Deprecation, d.Deprecated),
	}
}

func (f *Function) ID() id.Function { return f.id }

// Name is the fully qualified name, or "{closure}" for anonymous functions.
func (f *Function) Name() string {
	if named, ok := f.id.(id.NamedFunction); ok {
		return named.Name
	}
	return "{closure}"
}

func (f *Function) IsAnonymous() bool {
	_, ok := f.id.(id.AnonymousFunction)
	return ok
}

func (f *Function) Namespace() string                  { return f.namespace }
func (f *Function) IsGenerator() bool                  { return f.generator }
func (f *Function) ReturnsReference() bool             { return f.returnsReference }
func (f *Function) ReturnType(k types.Kind) types.Type { return f.returnType.ByKind(k) }
func (f *Function) ReturnTypeFact() types.Fact         { return f.returnType }
func (f *Function) ThrowsType() types.Type             { return f.throwsType }
func (f *Function) Templates() Collection[Template]    { return f.templates }
func (f *Function) Parameters() Collection[Parameter]  { return f.parameters }
func (f *Function) Attributes() []Attribute            { return f.attributes }
func (f *Function) Snippet() declaration.Snippet       { return f.snippet }
func (f *Function) PhpDoc() *declaration.Snippet       { return f.phpDoc }
func (f *Function) Deprecation() *metadata.Deprecation { return f.deprecation }
func (f *Function) IsDeprecated() bool                 { return f.deprecation != nil }
func (f *Function) IsInternallyDefined() bool          { return f.source.IsInternal() }
func (f *Function) Extension() string                  { return f.source.Extension }
func (f *Function) File() string                       { return f.source.File }

func (f *Function) IsVariadic() bool {
	n := len(f.parameters.items)
	return n > 0 && f.parameters.items[n-1].variadic
}

// Constant is a resolved global constant.
type Constant struct {
	id          id.Constant
	source      declaration.Source
	value       expr.Expr
	typ         types.Fact
	snippet     declaration.Snippet
	phpDoc      *declaration.Snippet
	deprecation *metadata.Deprecation
}

func DeclareConstant(d *declaration.Constant, meta metadata.Constant) *Constant {
	return &Constant{
		id:          d.ID(),
		source:      d.Context.Source,
		value:       d.Value,
		typ:         types.NewFact(nil, nil, meta.Type),
		snippet:     d.Snippet,
		phpDoc:      d.PhpDoc,
		deprecation: meta.Deprecation,
	}
}

func (c *Constant) ID() id.Constant                    { return c.id }
func (c *Constant) Name() string                       { return c.id.Name }
func (c *Constant) ShortName() string                  { return c.id.ShortName() }
func (c *Constant) Namespace() string                  { return c.id.Namespace() }
func (c *Constant) Value() expr.Expr                   { return c.value }
func (c *Constant) Type(k types.Kind) types.Type       { return c.typ.ByKind(k) }
func (c *Constant) Snippet() declaration.Snippet       { return c.snippet }
func (c *Constant) PhpDoc() *declaration.Snippet       { return c.phpDoc }
func (c *Constant) Deprecation() *metadata.Deprecation { return c.deprecation }
func (c *Constant) IsDeprecated() bool                 { return c.deprecation != nil }
func (c *Constant) IsInternallyDefined() bool          { return c.source.IsInternal() }
func (c *Constant) Extension() string                  { return c.source.Extension }
func (c *Constant) File() string                       { return c.source.File }

func (c *Constant) Evaluate(ctx expr.EvaluationContext) (expr.Value, error) {
	return expr.Evaluate(c.value, ctx)
}
