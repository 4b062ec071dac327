package model

import (
	"github.com/jward/phpreflect/internal/declaration"
	"github.com/jward/phpreflect/internal/errs"
	"github.com/jward/phpreflect/internal/expr"
	"github.com/jward/phpreflect/internal/id"
	"github.com/jward/phpreflect/internal/metadata"
	"github.com/jward/phpreflect/internal/types"
)

// ModifierKind selects which source of a modifier is queried.
type ModifierKind uint8

const (
	ModifierResolved ModifierKind = iota
	ModifierNative
	ModifierAnnotated
)

// Modifier is a flag such as final or readonly that may be set natively or
// through metadata. The resolved value is the OR of both.
type Modifier struct {
	native    bool
	annotated bool
}

func NewModifier(native, annotated bool) Modifier {
	return Modifier{native: native, annotated: annotated}
}

func (m Modifier) ByKind(k ModifierKind) bool {
	switch k {
	case ModifierNative:
		return m.native
	case ModifierAnnotated:
		return m.annotated
	}
	return m.native || m.annotated
}

// Or combines two modifiers facet by facet.
func (m Modifier) Or(o Modifier) Modifier {
	return Modifier{native: m.native || o.native, annotated: m.annotated || o.annotated}
}

// Template is a resolved generic parameter.
type Template struct {
	id         id.Template
	index      int
	variance   metadata.Variance
	constraint types.Type
	snippet    *declaration.Snippet
}

// Templates builds the template collection of declaration owner.
func Templates(owner id.ID, decls []metadata.Template) Collection[Template] {
	items := make([]Template, len(decls))
	for i, d := range decls {
		items[i] = Template{
			id:         id.Template{Declaration: owner, Name: d.Name},
			index:      i,
			variance:   d.Variance,
			constraint: d.ConstraintOrMixed(),
			snippet:    d.Snippet,
		}
	}
	return NewCollection(false, items...)
}

func (t Template) ID() id.Template                { return t.id }
func (t Template) Name() string                   { return t.id.Name }
func (t Template) Index() int                     { return t.index }
func (t Template) Variance() metadata.Variance    { return t.variance }
func (t Template) Constraint() types.Type         { return t.constraint }
func (t Template) Snippet() *declaration.Snippet { return t.snippet }

// TemplateResolver maps the templates to args by position, falling back to
// each template's constraint.
func TemplateResolver(templates Collection[Template], args []types.Type) types.TemplateResolver {
	ids := make([]id.Template, 0, templates.Len())
	defaults := make([]types.Type, 0, templates.Len())
	for _, t := range templates.items {
		ids = append(ids, t.id)
		defaults = append(defaults, t.constraint)
	}
	return types.NewTemplateResolver(ids, defaults, args)
}

// Attribute is a PHP attribute attached to a declaration. Its arguments are
// evaluated only on request.
type Attribute struct {
	target    id.ID
	index     int
	repeated  bool
	class     string
	arguments expr.Expr
	snippet   declaration.Snippet
}

// Attributes builds the attribute list of target.
func Attributes(target id.ID, decls []declaration.Attribute) []Attribute {
	if len(decls) == 0 {
		return nil
	}
	counts := make(map[string]int, len(decls))
	for _, d := range decls {
		counts[id.NamedClass{Name: d.Class}.Encode()]++
	}
	out := make([]Attribute, len(decls))
	for i, d := range decls {
		out[i] = Attribute{
			target:    target,
			index:     i,
			repeated:  counts[id.NamedClass{Name: d.Class}.Encode()] > 1,
			class:     d.Class,
			arguments: d.Arguments,
			snippet:   d.Snippet,
		}
	}
	return out
}

func (a Attribute) Target() id.ID                 { return a.target }
func (a Attribute) Index() int                    { return a.index }
func (a Attribute) IsRepeated() bool              { return a.repeated }
func (a Attribute) ClassName() string             { return a.class }
func (a Attribute) Arguments() expr.Expr          { return a.arguments }
func (a Attribute) Snippet() declaration.Snippet { return a.snippet }

// EvaluateArguments evaluates the argument list, keyed by position and
// argument name.
func (a Attribute) EvaluateArguments(ctx expr.EvaluationContext) (*expr.Array, error) {
	if a.arguments == nil {
		return expr.NewArray(), nil
	}
	v, err := expr.Evaluate(a.arguments, ctx)
	if err != nil {
		return nil, err
	}
	arr, ok := v.(*expr.Array)
	if !ok {
		return nil, errs.Evaluation("attribute %s arguments evaluated to %s", a.class, expr.TypeName(v))
	}
	return arr, nil
}

// NewInstance evaluates the attribute into an object value.
func (a Attribute) NewInstance(ctx expr.EvaluationContext) (*expr.Object, error) {
	args, err := a.EvaluateArguments(ctx)
	if err != nil {
		return nil, err
	}
	return &expr.Object{Class: a.class, Arguments: args}, nil
}

func retarget(attrs []Attribute, target id.ID) []Attribute {
	if len(attrs) == 0 {
		return nil
	}
	out := make([]Attribute, len(attrs))
	for i, a := range attrs {
		a.target = target
		out[i] = a
	}
	return out
}

func deprecation(meta *metadata.Deprecation, declared bool) *metadata.Deprecation {
	if meta != nil {
		return meta
	}
	if declared {
		return &metadata.Deprecation{}
	}
	return nil
}
