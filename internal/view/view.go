// Package view projects resolved models into plain structs for JSON, YAML
// and script output.
package view

import (
	"github.com/jward/phpreflect/internal/declaration"
	"github.com/jward/phpreflect/internal/expr"
	"github.com/jward/phpreflect/internal/id"
	"github.com/jward/phpreflect/internal/metadata"
	"github.com/jward/phpreflect/internal/model"
	"github.com/jward/phpreflect/internal/types"
)

// Type shows every facet of a member type. Resolved is always set.
type Type struct {
	Resolved  string `json:"resolved" yaml:"resolved"`
	Native    string `json:"native,omitempty" yaml:"native,omitempty"`
	Tentative string `json:"tentative,omitempty" yaml:"tentative,omitempty"`
	Annotated string `json:"annotated,omitempty" yaml:"annotated,omitempty"`
}

// Value is an evaluated constant expression. Error is set instead of Value
// when evaluation failed.
type Value struct {
	Value any    `json:"value" yaml:"value"`
	Error string `json:"error,omitempty" yaml:"error,omitempty"`
}

type Location struct {
	File      string `json:"file,omitempty" yaml:"file,omitempty"`
	Extension string `json:"extension,omitempty" yaml:"extension,omitempty"`
	StartLine int    `json:"start_line,omitempty" yaml:"start_line,omitempty"`
	EndLine   int    `json:"end_line,omitempty" yaml:"end_line,omitempty"`
}

type Template struct {
	Name       string `json:"name" yaml:"name"`
	Variance   string `json:"variance" yaml:"variance"`
	Constraint string `json:"constraint,omitempty" yaml:"constraint,omitempty"`
}

type Attribute struct {
	Class     string `json:"class" yaml:"class"`
	Repeated  bool   `json:"repeated,omitempty" yaml:"repeated,omitempty"`
	Arguments *Value `json:"arguments,omitempty" yaml:"arguments,omitempty"`
}

type Ancestor struct {
	Name string   `json:"name" yaml:"name"`
	Args []string `json:"args,omitempty" yaml:"args,omitempty"`
}

type Class struct {
	Name        string      `json:"name" yaml:"name"`
	Kind        string      `json:"kind" yaml:"kind"`
	Namespace   string      `json:"namespace,omitempty" yaml:"namespace,omitempty"`
	Anonymous   bool        `json:"anonymous,omitempty" yaml:"anonymous,omitempty"`
	Abstract    bool        `json:"abstract,omitempty" yaml:"abstract,omitempty"`
	Final       bool        `json:"final,omitempty" yaml:"final,omitempty"`
	Readonly    bool        `json:"readonly,omitempty" yaml:"readonly,omitempty"`
	Deprecated  string      `json:"deprecated,omitempty" yaml:"deprecated,omitempty"`
	BackingType string      `json:"backing_type,omitempty" yaml:"backing_type,omitempty"`
	Location    Location    `json:"location" yaml:"location"`
	Parents     []Ancestor  `json:"parents,omitempty" yaml:"parents,omitempty"`
	Interfaces  []Ancestor  `json:"interfaces,omitempty" yaml:"interfaces,omitempty"`
	Templates   []Template  `json:"templates,omitempty" yaml:"templates,omitempty"`
	Attributes  []Attribute `json:"attributes,omitempty" yaml:"attributes,omitempty"`
	Constants   []Constant  `json:"constants,omitempty" yaml:"constants,omitempty"`
	Properties  []Property  `json:"properties,omitempty" yaml:"properties,omitempty"`
	Methods     []Method    `json:"methods,omitempty" yaml:"methods,omitempty"`
}

// Constant is a class constant, an enum case or a global constant.
type Constant struct {
	Name           string      `json:"name" yaml:"name"`
	Class          string      `json:"class,omitempty" yaml:"class,omitempty"`
	DeclaringClass string      `json:"declaring_class,omitempty" yaml:"declaring_class,omitempty"`
	Visibility     string      `json:"visibility,omitempty" yaml:"visibility,omitempty"`
	Final          bool        `json:"final,omitempty" yaml:"final,omitempty"`
	EnumCase       bool        `json:"enum_case,omitempty" yaml:"enum_case,omitempty"`
	Deprecated     string      `json:"deprecated,omitempty" yaml:"deprecated,omitempty"`
	Type           Type        `json:"type" yaml:"type"`
	Value          *Value      `json:"value,omitempty" yaml:"value,omitempty"`
	Attributes     []Attribute `json:"attributes,omitempty" yaml:"attributes,omitempty"`
	Location       *Location   `json:"location,omitempty" yaml:"location,omitempty"`
}

// Property is a class property. Class is the class it was reflected on,
// DeclaringClass the class that declares it.
type Property struct {
	Name           string      `json:"name" yaml:"name"`
	Class          string      `json:"class" yaml:"class"`
	DeclaringClass string      `json:"declaring_class" yaml:"declaring_class"`
	Visibility     string      `json:"visibility" yaml:"visibility"`
	Static         bool        `json:"static,omitempty" yaml:"static,omitempty"`
	Readonly       bool        `json:"readonly,omitempty" yaml:"readonly,omitempty"`
	Promoted       bool        `json:"promoted,omitempty" yaml:"promoted,omitempty"`
	Deprecated     string      `json:"deprecated,omitempty" yaml:"deprecated,omitempty"`
	Type           Type        `json:"type" yaml:"type"`
	Default        *Value      `json:"default,omitempty" yaml:"default,omitempty"`
	Attributes     []Attribute `json:"attributes,omitempty" yaml:"attributes,omitempty"`
}

type Parameter struct {
	Name        string      `json:"name" yaml:"name"`
	Type        Type        `json:"type" yaml:"type"`
	Variadic    bool        `json:"variadic,omitempty" yaml:"variadic,omitempty"`
	ByReference bool        `json:"by_reference,omitempty" yaml:"by_reference,omitempty"`
	Promoted    bool        `json:"promoted,omitempty" yaml:"promoted,omitempty"`
	Optional    bool        `json:"optional,omitempty" yaml:"optional,omitempty"`
	Default     *Value      `json:"default,omitempty" yaml:"default,omitempty"`
	Attributes  []Attribute `json:"attributes,omitempty" yaml:"attributes,omitempty"`
}

// Function is a function or a method. Class, DeclaringClass and Visibility
// are empty for functions.
type Function struct {
	Name             string      `json:"name" yaml:"name"`
	Class            string      `json:"class,omitempty" yaml:"class,omitempty"`
	DeclaringClass   string      `json:"declaring_class,omitempty" yaml:"declaring_class,omitempty"`
	Namespace        string      `json:"namespace,omitempty" yaml:"namespace,omitempty"`
	Visibility       string      `json:"visibility,omitempty" yaml:"visibility,omitempty"`
	Static           bool        `json:"static,omitempty" yaml:"static,omitempty"`
	Abstract         bool        `json:"abstract,omitempty" yaml:"abstract,omitempty"`
	Final            bool        `json:"final,omitempty" yaml:"final,omitempty"`
	Generator        bool        `json:"generator,omitempty" yaml:"generator,omitempty"`
	ReturnsReference bool        `json:"returns_reference,omitempty" yaml:"returns_reference,omitempty"`
	Deprecated       string      `json:"deprecated,omitempty" yaml:"deprecated,omitempty"`
	ReturnType       Type        `json:"return_type" yaml:"return_type"`
	Throws           string      `json:"throws,omitempty" yaml:"throws,omitempty"`
	Templates        []Template  `json:"templates,omitempty" yaml:"templates,omitempty"`
	Parameters       []Parameter `json:"parameters,omitempty" yaml:"parameters,omitempty"`
	Attributes       []Attribute `json:"attributes,omitempty" yaml:"attributes,omitempty"`
	Location         *Location   `json:"location,omitempty" yaml:"location,omitempty"`
}

type Method = Function

// Projector builds views. Values are evaluated with Context when it is set
// and omitted otherwise.
type Projector struct {
	Context expr.EvaluationContext
}

func (p Projector) Class(c *model.Class) Class {
	v := Class{
		Name:       c.Name(),
		Kind:       c.Kind().String(),
		Namespace:  c.Namespace(),
		Anonymous:  c.IsAnonymous(),
		Abstract:   c.IsAbstract(),
		Final:      c.IsFinal(model.ModifierResolved),
		Readonly:   c.IsReadonly(model.ModifierResolved),
		Deprecated: deprecation(c.Deprecation()),
		Location:   location(c.Source(), c.Snippet()),
		Parents:    ancestors(c.Parents()),
		Interfaces: ancestors(c.Interfaces()),
		Templates:  templates(c.Templates()),
		Attributes: p.attributes(c.Attributes()),
	}
	if t := c.EnumBackingType(); t != nil {
		v.BackingType = t.String()
	}
	for _, k := range c.Constants().Values() {
		v.Constants = append(v.Constants, p.ClassConstant(k))
	}
	for _, prop := range c.Properties().Values() {
		v.Properties = append(v.Properties, p.Property(prop))
	}
	for _, m := range c.Methods().Values() {
		v.Methods = append(v.Methods, p.Method(m))
	}
	return v
}

func (p Projector) ClassConstant(c model.ClassConstant) Constant {
	return Constant{
		Name:           c.Name(),
		Class:          id.ClassName(c.Class()),
		DeclaringClass: id.ClassName(c.DeclarationID().Class),
		Visibility:     c.Visibility().String(),
		Final:          c.IsFinal(model.ModifierResolved),
		EnumCase:       c.IsEnumCase(),
		Deprecated:     deprecation(c.Deprecation()),
		Type:           fact(c.TypeFact()),
		Value:          p.value(c.Value() != nil, func() (expr.Value, error) { return c.Evaluate(p.Context) }),
		Attributes:     p.attributes(c.Attributes()),
	}
}

func (p Projector) Property(prop model.Property) Property {
	return Property{
		Name:           prop.Name(),
		Class:          id.ClassName(prop.Class()),
		DeclaringClass: id.ClassName(prop.DeclarationID().Class),
		Visibility:     prop.Visibility().String(),
		Static:         prop.IsStatic(),
		Readonly:       prop.IsReadonly(model.ModifierResolved),
		Promoted:       prop.IsPromoted(),
		Deprecated:     deprecation(prop.Deprecation()),
		Type:           fact(prop.TypeFact()),
		Default:        p.value(prop.HasDefaultValue(), func() (expr.Value, error) { return prop.EvaluateDefault(p.Context) }),
		Attributes:     p.attributes(prop.Attributes()),
	}
}

func (p Projector) Method(m model.Method) Method {
	return Function{
		Name:             m.Name(),
		Class:            id.ClassName(m.Class()),
		DeclaringClass:   id.ClassName(m.DeclarationID().Class),
		Visibility:       m.Visibility().String(),
		Static:           m.IsStatic(),
		Abstract:         m.IsAbstract(),
		Final:            m.IsFinal(model.ModifierResolved),
		Generator:        m.IsGenerator(),
		ReturnsReference: m.ReturnsReference(),
		Deprecated:       deprecation(m.Deprecation()),
		ReturnType:       fact(m.ReturnTypeFact()),
		Throws:           typeString(m.ThrowsType()),
		Templates:        templates(m.Templates()),
		Parameters:       p.parameters(m.Parameters()),
		Attributes:       p.attributes(m.Attributes()),
	}
}

func (p Projector) Function(f *model.Function) Function {
	return Function{
		Name:             f.Name(),
		Namespace:        f.Namespace(),
		Generator:        f.IsGenerator(),
		ReturnsReference: f.ReturnsReference(),
		Deprecated:       deprecation(f.Deprecation()),
		ReturnType:       fact(f.ReturnTypeFact()),
		Throws:           typeString(f.ThrowsType()),
		Templates:        templates(f.Templates()),
		Parameters:       p.parameters(f.Parameters()),
		Attributes:       p.attributes(f.Attributes()),
		Location:         ptr(location(declaration.Source{File: f.File(), Extension: f.Extension()}, f.Snippet())),
	}
}

func (p Projector) Constant(c *model.Constant) Constant {
	return Constant{
		Name:       c.Name(),
		Deprecated: deprecation(c.Deprecation()),
		Type:       Type{Resolved: typeString(c.Type(types.KindResolved)), Annotated: typeString(c.Type(types.KindAnnotated))},
		Value:      p.value(c.Value() != nil, func() (expr.Value, error) { return c.Evaluate(p.Context) }),
		Location:   ptr(location(declaration.Source{File: c.File(), Extension: c.Extension()}, c.Snippet())),
	}
}

func (p Projector) parameters(params model.Collection[model.Parameter]) []Parameter {
	var out []Parameter
	for _, param := range params.Values() {
		out = append(out, Parameter{
			Name:        param.Name(),
			Type:        fact(param.TypeFact()),
			Variadic:    param.IsVariadic(),
			ByReference: param.PassedBy() == declaration.ByReference,
			Promoted:    param.IsPromoted(),
			Optional:    param.IsOptional(),
			Default:     p.value(param.HasDefaultValue(), func() (expr.Value, error) { return param.EvaluateDefault(p.Context) }),
			Attributes:  p.attributes(param.Attributes()),
		})
	}
	return out
}

func (p Projector) attributes(attrs []model.Attribute) []Attribute {
	var out []Attribute
	for _, a := range attrs {
		out = append(out, Attribute{
			Class:    a.ClassName(),
			Repeated: a.IsRepeated(),
			Arguments: p.value(a.Arguments() != nil, func() (expr.Value, error) {
				arr, err := a.EvaluateArguments(p.Context)
				if err != nil {
					return nil, err
				}
				return arr, nil
			}),
		})
	}
	return out
}

func (p Projector) value(present bool, eval func() (expr.Value, error)) *Value {
	if !present || p.Context == nil {
		return nil
	}
	v, err := eval()
	if err != nil {
		return &Value{Error: err.Error()}
	}
	return &Value{Value: expr.Interface(v)}
}

func fact(f types.Fact) Type {
	return Type{
		Resolved:  typeString(f.Resolve()),
		Native:    typeString(f.Native()),
		Tentative: typeString(f.Tentative()),
		Annotated: typeString(f.Annotated()),
	}
}

func typeString(t types.Type) string {
	if t == nil {
		return ""
	}
	return t.String()
}

func templates(ts model.Collection[model.Template]) []Template {
	var out []Template
	for _, t := range ts.Values() {
		out = append(out, Template{Name: t.Name(), Variance: t.Variance().String(), Constraint: typeString(t.Constraint())})
	}
	return out
}

func ancestors(as []model.Ancestor) []Ancestor {
	var out []Ancestor
	for _, a := range as {
		anc := Ancestor{Name: a.Name}
		for _, t := range a.Args {
			anc.Args = append(anc.Args, typeString(t))
		}
		out = append(out, anc)
	}
	return out
}

func location(src declaration.Source, s declaration.Snippet) Location {
	return Location{File: src.File, Extension: src.Extension, StartLine: s.StartLine, EndLine: s.EndLine}
}

func deprecation(d *metadata.Deprecation) string {
	if d == nil {
		return ""
	}
	if d.Message != "" {
		return d.Message
	}
	return "deprecated"
}

func ptr[T any](v T) *T { return &v }
