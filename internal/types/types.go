// Package types models PHP native and docblock types as a closed set of
// variants, and tracks where a member's type came from.
package types

import (
	"strings"

	"github.com/jward/phpreflect/internal/id"
)

// Type is implemented by the variants of this package only.
type Type interface {
	String() string
	isType()
}

// Keyword is an atomic type without arguments: int, string, mixed,
// non-empty-string, array, and so on. Names are lowercase.
type Keyword struct {
	Name string
}

// Literal is a constant type such as 'foo', 42 or 1.5, kept in source form.
type Literal struct {
	Value string
}

type Nullable struct {
	Type Type
}

type Union struct {
	Types []Type
}

type Intersection struct {
	Types []Type
}

// Generic is a keyword type with arguments: array<K, V>, list<T>,
// iterable<T>, class-string<T>.
type Generic struct {
	Name string
	Args []Type
}

// Named is a class, interface or enum type with optional type arguments.
type Named struct {
	Class string
	Args  []Type
}

type RelativeKind uint8

const (
	Self RelativeKind = iota + 1
	Parent
	Static
)

func (k RelativeKind) String() string {
	switch k {
	case Self:
		return "self"
	case Parent:
		return "parent"
	case Static:
		return "static"
	}
	return "relative"
}

// Relative is self, parent or static. Class holds the class the keyword
// resolved to in its declaring context, when known.
type Relative struct {
	Kind  RelativeKind
	Class string
	Args  []Type
}

// TemplateRef refers to a generic parameter.
type TemplateRef struct {
	ID id.Template
}

// AliasRef refers to a class-level type alias.
type AliasRef struct {
	ID   id.Alias
	Args []Type
}

type ShapeItem struct {
	Key      string
	Optional bool
	Type     Type
}

// Shape is array{...} or list{...}. Items with an empty Key are positional.
type Shape struct {
	List   bool
	Items  []ShapeItem
	Sealed bool
}

// Callable is callable(...): T or Closure(...): T.
type Callable struct {
	Name   string
	Params []Type
	Return Type
}

func (Keyword) isType()      {}
func (Literal) isType()      {}
func (Nullable) isType()     {}
func (Union) isType()        {}
func (Intersection) isType() {}
func (Generic) isType()      {}
func (Named) isType()        {}
func (Relative) isType()     {}
func (TemplateRef) isType()  {}
func (AliasRef) isType()     {}
func (Shape) isType()        {}
func (Callable) isType()     {}

var (
	Mixed          Type = Keyword{Name: "mixed"}
	Never          Type = Keyword{Name: "never"}
	Void           Type = Keyword{Name: "void"}
	Null           Type = Keyword{Name: "null"}
	Bool           Type = Keyword{Name: "bool"}
	True           Type = Keyword{Name: "true"}
	False          Type = Keyword{Name: "false"}
	Int            Type = Keyword{Name: "int"}
	Float          Type = Keyword{Name: "float"}
	String         Type = Keyword{Name: "string"}
	ArrayKey       Type = Keyword{Name: "array-key"}
	Array          Type = Keyword{Name: "array"}
	Iterable       Type = Keyword{Name: "iterable"}
	Object         Type = Keyword{Name: "object"}
	Scalar         Type = Keyword{Name: "scalar"}
	Resource       Type = Keyword{Name: "resource"}
	PositiveInt    Type = Keyword{Name: "positive-int"}
	NonEmptyString Type = Keyword{Name: "non-empty-string"}
)

// NewNamed returns the object type of class.
func NewNamed(class string, args ...Type) Type {
	return Named{Class: strings.TrimPrefix(class, `\`), Args: args}
}

func NewStatic(class string) Type {
	return Relative{Kind: Static, Class: class}
}

func NewTemplate(t id.Template) Type {
	return TemplateRef{ID: t}
}

func ListOf(t Type) Type {
	return Generic{Name: "list", Args: []Type{t}}
}

func ArrayOf(key, value Type) Type {
	return Generic{Name: "array", Args: []Type{key, value}}
}

// NewNullable wraps t unless it already admits null.
func NewNullable(t Type) Type {
	switch v := t.(type) {
	case Nullable:
		return v
	case Keyword:
		if v.Name == "null" || v.Name == "mixed" {
			return v
		}
	}
	return Nullable{Type: t}
}

// NewUnion flattens nested unions and drops structural duplicates. A single
// member is returned as-is.
func NewUnion(members ...Type) Type {
	var flat []Type
	var add func(t Type)
	add = func(t Type) {
		if u, ok := t.(Union); ok {
			for _, m := range u.Types {
				add(m)
			}
			return
		}
		for _, seen := range flat {
			if Equal(seen, t) {
				return
			}
		}
		flat = append(flat, t)
	}
	for _, m := range members {
		if m != nil {
			add(m)
		}
	}
	switch len(flat) {
	case 0:
		return Never
	case 1:
		return flat[0]
	}
	return Union{Types: flat}
}

func NewIntersection(members ...Type) Type {
	if len(members) == 1 {
		return members[0]
	}
	return Intersection{Types: members}
}

// IsKeyword reports whether t is the keyword type name.
func IsKeyword(t Type, name string) bool {
	k, ok := t.(Keyword)
	return ok && k.Name == name
}

func (t Keyword) String() string { return t.Name }
func (t Literal) String() string { return t.Value }

func (t Nullable) String() string {
	switch t.Type.(type) {
	case Union, Intersection:
		return "null|" + t.Type.String()
	}
	return "?" + t.Type.String()
}

func (t Union) String() string {
	parts := make([]string, len(t.Types))
	for i, m := range t.Types {
		if _, ok := m.(Intersection); ok {
			parts[i] = "(" + m.String() + ")"
			continue
		}
		parts[i] = m.String()
	}
	return strings.Join(parts, "|")
}

func (t Intersection) String() string {
	parts := make([]string, len(t.Types))
	for i, m := range t.Types {
		if _, ok := m.(Union); ok {
			parts[i] = "(" + m.String() + ")"
			continue
		}
		parts[i] = m.String()
	}
	return strings.Join(parts, "&")
}

func (t Generic) String() string { return t.Name + argsString(t.Args) }
func (t Named) String() string   { return t.Class + argsString(t.Args) }

func (t Relative) String() string { return t.Kind.String() + argsString(t.Args) }

func (t TemplateRef) String() string { return t.ID.Name }
func (t AliasRef) String() string    { return t.ID.Name + argsString(t.Args) }

func (t Shape) String() string {
	var b strings.Builder
	if t.List {
		b.WriteString("list{")
	} else {
		b.WriteString("array{")
	}
	for i, item := range t.Items {
		if i > 0 {
			b.WriteString(", ")
		}
		if item.Key != "" {
			b.WriteString(item.Key)
			if item.Optional {
				b.WriteByte('?')
			}
			b.WriteString(": ")
		}
		b.WriteString(item.Type.String())
	}
	if !t.Sealed {
		if len(t.Items) > 0 {
			b.WriteString(", ")
		}
		b.WriteString("...")
	}
	b.WriteByte('}')
	return b.String()
}

func (t Callable) String() string {
	if t.Params == nil && t.Return == nil {
		return t.Name
	}
	parts := make([]string, len(t.Params))
	for i, p := range t.Params {
		parts[i] = p.String()
	}
	s := t.Name + "(" + strings.Join(parts, ", ") + ")"
	if t.Return != nil {
		s += ": " + t.Return.String()
	}
	return s
}

func argsString(args []Type) string {
	if len(args) == 0 {
		return ""
	}
	parts := make([]string, len(args))
	for i, a := range args {
		parts[i] = a.String()
	}
	return "<" + strings.Join(parts, ", ") + ">"
}

// Equal reports structural equality. Class names compare case-insensitively,
// member order matters.
func Equal(a, b Type) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	switch a := a.(type) {
	case Keyword:
		b, ok := b.(Keyword)
		return ok && a.Name == b.Name
	case Literal:
		b, ok := b.(Literal)
		return ok && a.Value == b.Value
	case Nullable:
		b, ok := b.(Nullable)
		return ok && Equal(a.Type, b.Type)
	case Union:
		b, ok := b.(Union)
		return ok && equalAll(a.Types, b.Types)
	case Intersection:
		b, ok := b.(Intersection)
		return ok && equalAll(a.Types, b.Types)
	case Generic:
		b, ok := b.(Generic)
		return ok && a.Name == b.Name && equalAll(a.Args, b.Args)
	case Named:
		b, ok := b.(Named)
		return ok && strings.EqualFold(a.Class, b.Class) && equalAll(a.Args, b.Args)
	case Relative:
		b, ok := b.(Relative)
		return ok && a.Kind == b.Kind && strings.EqualFold(a.Class, b.Class) && equalAll(a.Args, b.Args)
	case TemplateRef:
		b, ok := b.(TemplateRef)
		return ok && id.Equal(a.ID, b.ID)
	case AliasRef:
		b, ok := b.(AliasRef)
		return ok && id.Equal(a.ID, b.ID) && equalAll(a.Args, b.Args)
	case Shape:
		b, ok := b.(Shape)
		if !ok || a.List != b.List || a.Sealed != b.Sealed || len(a.Items) != len(b.Items) {
			return false
		}
		for i := range a.Items {
			x, y := a.Items[i], b.Items[i]
			if x.Key != y.Key || x.Optional != y.Optional || !Equal(x.Type, y.Type) {
				return false
			}
		}
		return true
	case Callable:
		b, ok := b.(Callable)
		return ok && a.Name == b.Name && equalAll(a.Params, b.Params) && Equal(a.Return, b.Return)
	}
	return false
}

func equalAll(a, b []Type) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if !Equal(a[i], b[i]) {
			return false
		}
	}
	return true
}

// Map rebuilds t bottom-up, replacing every node with fn(node) after its
// children were mapped.
func Map(t Type, fn func(Type) Type) Type {
	if t == nil {
		return nil
	}
	switch v := t.(type) {
	case Nullable:
		t = Nullable{Type: Map(v.Type, fn)}
	case Union:
		t = Union{Types: mapAll(v.Types, fn)}
	case Intersection:
		t = Intersection{Types: mapAll(v.Types, fn)}
	case Generic:
		t = Generic{Name: v.Name, Args: mapAll(v.Args, fn)}
	case Named:
		t = Named{Class: v.Class, Args: mapAll(v.Args, fn)}
	case Relative:
		t = Relative{Kind: v.Kind, Class: v.Class, Args: mapAll(v.Args, fn)}
	case AliasRef:
		t = AliasRef{ID: v.ID, Args: mapAll(v.Args, fn)}
	case Shape:
		items := make([]ShapeItem, len(v.Items))
		for i, item := range v.Items {
			item.Type = Map(item.Type, fn)
			items[i] = item
		}
		t = Shape{List: v.List, Items: items, Sealed: v.Sealed}
	case Callable:
		t = Callable{Name: v.Name, Params: mapAll(v.Params, fn), Return: Map(v.Return, fn)}
	}
	return fn(t)
}

func mapAll(ts []Type, fn func(Type) Type) []Type {
	if ts == nil {
		return nil
	}
	out := make([]Type, len(ts))
	for i, t := range ts {
		out[i] = Map(t, fn)
	}
	return out
}
