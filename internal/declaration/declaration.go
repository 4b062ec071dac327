// Package declaration holds the raw, as-written records a parser produces
// for classes, functions and constants before any inheritance is applied.
// Records are plain values with exported fields and are never mutated after
// construction.
package declaration

import (
	"strings"

	"github.com/jward/phpreflect/internal/expr"
	"github.com/jward/phpreflect/internal/id"
	"github.com/jward/phpreflect/internal/types"
)

type ClassKind uint8

const (
	KindClass ClassKind = iota + 1
	KindInterface
	KindTrait
	KindEnum
)

func (k ClassKind) String() string {
	switch k {
	case KindClass:
		return "class"
	case KindInterface:
		return "interface"
	case KindTrait:
		return "trait"
	case KindEnum:
		return "enum"
	}
	return "unknown"
}

// Visibility of a member. VisibilityNone means no modifier was written,
// which PHP treats as public.
type Visibility uint8

const (
	VisibilityNone Visibility = iota
	Public
	Protected
	Private
)

func (v Visibility) String() string {
	switch v {
	case Protected:
		return "protected"
	case Private:
		return "private"
	}
	return "public"
}

// Resolve maps VisibilityNone to Public.
func (v Visibility) Resolve() Visibility {
	if v == VisibilityNone {
		return Public
	}
	return v
}

func ParseVisibility(s string) Visibility {
	switch strings.ToLower(s) {
	case "public":
		return Public
	case "protected":
		return Protected
	case "private":
		return Private
	}
	return VisibilityNone
}

type PassedBy uint8

const (
	ByValue PassedBy = iota
	ByReference
	ByValueOrReference
)

func (p PassedBy) String() string {
	switch p {
	case ByReference:
		return "reference"
	case ByValueOrReference:
		return "value or reference"
	}
	return "value"
}

// Declaration is a *Class, *Function or *Constant.
type Declaration interface {
	SymbolID() id.ID
	DeclarationContext() Context
	isDeclaration()
}

type Attribute struct {
	Class string
	// Arguments is an array literal keyed by position and argument name.
	Arguments expr.Expr
	Snippet   Snippet
}

// TraitMethodAlias is `Trait::method as [visibility] [newName]`. Trait is
// empty when the alias does not name a trait.
type TraitMethodAlias struct {
	Trait         string
	Method        string
	NewName       string
	NewVisibility Visibility
}

type Class struct {
	Context    Context
	Kind       ClassKind
	Snippet    Snippet
	PhpDoc     *Snippet
	Attributes []Attribute

	Abstract bool
	Final    bool
	Readonly bool

	Parent     string
	Interfaces []string
	Traits     []string
	// TraitMethodPrecedence maps a lowercase method name to the trait chosen
	// with insteadof.
	TraitMethodPrecedence map[string]string
	TraitMethodAliases    []TraitMethodAlias
	// TraitUsePhpDocs are the doc comments of `use` statements, which may
	// carry @use tags.
	TraitUsePhpDocs []Snippet

	BackingType types.Type

	Constants  []ClassConstant
	Properties []Property
	Methods    []Method
}

func (c *Class) SymbolID() id.ID             { return c.Context.Self }
func (c *Class) DeclarationContext() Context { return c.Context }
func (*Class) isDeclaration()                {}

func (c *Class) ID() id.Class { return c.Context.Self }
func (c *Class) Name() string { return c.Context.SelfName() }

// Method finds a declared method by case-insensitive name.
func (c *Class) Method(name string) (*Method, bool) {
	for i := range c.Methods {
		if strings.EqualFold(c.Methods[i].Name, name) {
			return &c.Methods[i], true
		}
	}
	return nil, false
}

type ClassConstant struct {
	Context    Context
	Name       string
	Visibility Visibility
	Final      bool
	Type       types.Type
	Value      expr.Expr
	// EnumCase marks an enum case. Value then evaluates to the case object
	// and BackingValue holds the backed value, if any.
	EnumCase     bool
	BackingValue expr.Expr
	Attributes   []Attribute
	PhpDoc       *Snippet
	Snippet      Snippet
}

type Property struct {
	Context    Context
	Name       string
	Visibility Visibility
	Static     bool
	Readonly   bool
	Type       types.Type
	// Default is nil when no default is written.
	Default    expr.Expr
	Attributes []Attribute
	PhpDoc     *Snippet
	Snippet    Snippet
}

type Parameter struct {
	Context  Context
	Name     string
	Type     types.Type
	Default  expr.Expr
	Variadic bool
	PassedBy PassedBy
	// Visibility and Readonly are set on promoted constructor parameters.
	Visibility Visibility
	Readonly   bool
	Attributes []Attribute
	PhpDoc     *Snippet
	Snippet    Snippet
}

// IsPromoted reports whether the parameter also declares a property.
func (p *Parameter) IsPromoted() bool {
	return p.Readonly || p.Visibility != VisibilityNone
}

type Method struct {
	Context             Context
	Name                string
	Visibility          Visibility
	Static              bool
	Abstract            bool
	Final               bool
	ReturnsReference    bool
	Generator           bool
	ReturnType          types.Type
	TentativeReturnType types.Type
	Parameters          []Parameter
	Attributes          []Attribute
	PhpDoc              *Snippet
	Snippet             Snippet
	Deprecated          bool
}

func (m *Method) ID() id.Method {
	return id.Method{Class: m.Context.Self, Name: m.Name}
}

type Function struct {
	Context             Context
	ReturnsReference    bool
	Generator           bool
	ReturnType          types.Type
	TentativeReturnType types.Type
	Parameters          []Parameter
	Attributes          []Attribute
	PhpDoc              *Snippet
	Snippet             Snippet
	Deprecated          bool
}

func (f *Function) SymbolID() id.ID             { return f.Context.ID }
func (f *Function) DeclarationContext() Context { return f.Context }
func (*Function) isDeclaration()                {}

func (f *Function) ID() id.Function {
	fn, _ := f.Context.ID.(id.Function)
	return fn
}

type Constant struct {
	Context Context
	Name    string
	Value   expr.Expr
	// Defined marks constants declared with define() rather than const.
	Defined bool
	PhpDoc  *Snippet
	Snippet Snippet
}

func (c *Constant) SymbolID() id.ID             { return c.ID() }
func (c *Constant) DeclarationContext() Context { return c.Context }
func (*Constant) isDeclaration()                {}

func (c *Constant) ID() id.Constant { return id.Constant{Name: c.Name} }
