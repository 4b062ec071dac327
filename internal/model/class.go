package model

import (
	"strings"

	"github.com/jward/phpreflect/internal/declaration"
	"github.com/jward/phpreflect/internal/id"
	"github.com/jward/phpreflect/internal/metadata"
	"github.com/jward/phpreflect/internal/types"
)

// Ancestor is a parent class or an implemented interface together with the
// type arguments it was extended or implemented with.
type Ancestor struct {
	Name string
	Args []types.Type
}

// ClassSpec carries everything NewClass needs. It is filled in by the
// inheritance engine.
type ClassSpec struct {
	ID          id.Class
	Kind        declaration.ClassKind
	Templates   Collection[Template]
	Attributes  []Attribute
	Constants   Collection[ClassConstant]
	Properties  Collection[Property]
	Methods     Collection[Method]
	BackingType types.Type
	Snippet     declaration.Snippet
	PhpDoc      *declaration.Snippet
	Abstract    bool
	Readonly    Modifier
	Final       Modifier
	Namespace   string
	Source      declaration.Source
	Deprecation *metadata.Deprecation
	// Parents lists the parent chain, nearest first.
	Parents    []Ancestor
	Interfaces []Ancestor
}

// Class is a fully resolved class, interface, trait or enum.
type Class struct {
	spec ClassSpec
}

func NewClass(spec ClassSpec) *Class {
	return &Class{spec: spec}
}

func (c *Class) ID() id.Class                   { return c.spec.ID }
func (c *Class) Name() string                   { return id.ClassName(c.spec.ID) }
func (c *Class) Kind() declaration.ClassKind    { return c.spec.Kind }
func (c *Class) IsClass() bool                  { return c.spec.Kind == declaration.KindClass }
func (c *Class) IsInterface() bool              { return c.spec.Kind == declaration.KindInterface }
func (c *Class) IsTrait() bool                  { return c.spec.Kind == declaration.KindTrait }
func (c *Class) IsEnum() bool                   { return c.spec.Kind == declaration.KindEnum }
func (c *Class) IsBackedEnum() bool             { return c.spec.BackingType != nil }
func (c *Class) EnumBackingType() types.Type    { return c.spec.BackingType }
func (c *Class) Namespace() string              { return c.spec.Namespace }
func (c *Class) Snippet() declaration.Snippet   { return c.spec.Snippet }
func (c *Class) PhpDoc() *declaration.Snippet   { return c.spec.PhpDoc }
func (c *Class) Attributes() []Attribute        { return c.spec.Attributes }
func (c *Class) Templates() Collection[Template] { return c.spec.Templates }

func (c *Class) IsAnonymous() bool {
	_, ok := c.spec.ID.(id.AnonymousClass)
	return ok
}

// IsAbstract reports an explicit abstract modifier only. Interfaces and
// traits with abstract methods are not abstract classes.
func (c *Class) IsAbstract() bool { return c.spec.Abstract }

func (c *Class) IsFinal(k ModifierKind) bool    { return c.spec.Final.ByKind(k) }
func (c *Class) IsReadonly(k ModifierKind) bool { return c.spec.Readonly.ByKind(k) }

func (c *Class) Constants() Collection[ClassConstant] { return c.spec.Constants }
func (c *Class) Properties() Collection[Property]     { return c.spec.Properties }
func (c *Class) Methods() Collection[Method]          { return c.spec.Methods }

// EnumCases returns the enum cases among the constants.
func (c *Class) EnumCases() Collection[ClassConstant] {
	return c.spec.Constants.Filter(ClassConstant.IsEnumCase)
}

func (c *Class) Deprecation() *metadata.Deprecation { return c.spec.Deprecation }
func (c *Class) IsDeprecated() bool                 { return c.spec.Deprecation != nil }

func (c *Class) IsInternallyDefined() bool { return c.spec.Source.IsInternal() }

// Extension is the defining extension of internal classes, "" otherwise.
func (c *Class) Extension() string { return c.spec.Source.Extension }

// File is the defining file, "" for internal classes.
func (c *Class) File() string { return c.spec.Source.File }

func (c *Class) Source() declaration.Source { return c.spec.Source }

// Parents returns the parent chain, nearest first.
func (c *Class) Parents() []Ancestor { return c.spec.Parents }

func (c *Class) Interfaces() []Ancestor { return c.spec.Interfaces }

// ParentName is the direct parent, "" when there is none.
func (c *Class) ParentName() string {
	if len(c.spec.Parents) == 0 {
		return ""
	}
	return c.spec.Parents[0].Name
}

// InterfaceNames lists every implemented interface, transitively.
func (c *Class) InterfaceNames() []string {
	names := make([]string, len(c.spec.Interfaces))
	for i, a := range c.spec.Interfaces {
		names[i] = a.Name
	}
	return names
}

// IsInstanceOf reports whether the class is name or extends or implements
// it. Names compare case-insensitively.
func (c *Class) IsInstanceOf(name string) bool {
	name = strings.TrimPrefix(name, `\`)
	if id.SameClass(c.spec.ID, name) {
		return true
	}
	for _, a := range c.spec.Parents {
		if strings.EqualFold(a.Name, name) {
			return true
		}
	}
	for _, a := range c.spec.Interfaces {
		if strings.EqualFold(a.Name, name) {
			return true
		}
	}
	return false
}

// IsCloneable reports whether instances of the class can be cloned.
func (c *Class) IsCloneable() bool {
	if c.spec.Kind != declaration.KindClass || c.spec.Abstract {
		return false
	}
	clone, ok := c.spec.Methods.Get("__clone")
	return !ok || clone.IsPublic()
}

// CreateTemplateResolver binds the class templates to args by position.
func (c *Class) CreateTemplateResolver(args []types.Type) types.TemplateResolver {
	return TemplateResolver(c.spec.Templates, args)
}

// Spec returns a copy of the construction parameters.
func (c *Class) Spec() ClassSpec { return c.spec }
