// Package id defines structural identifiers for every declarable PHP symbol.
//
// Identifiers are comparable values. Two identifiers denote the same symbol
// when their encodings are equal: class, function and method names compare
// case-insensitively, everything else case-sensitively. An identifier never
// implies that the symbol exists.
package id

import (
	"fmt"
	"strconv"
	"strings"
)

type Kind uint8

const (
	KindConstant Kind = iota + 1
	KindNamedFunction
	KindAnonymousFunction
	KindNamedClass
	KindAnonymousClass
	KindClassConstant
	KindProperty
	KindMethod
	KindParameter
	KindTemplate
	KindAlias
)

func (k Kind) String() string {
	switch k {
	case KindConstant:
		return "constant"
	case KindNamedFunction:
		return "function"
	case KindAnonymousFunction:
		return "anonymous function"
	case KindNamedClass:
		return "class"
	case KindAnonymousClass:
		return "anonymous class"
	case KindClassConstant:
		return "class constant"
	case KindProperty:
		return "property"
	case KindMethod:
		return "method"
	case KindParameter:
		return "parameter"
	case KindTemplate:
		return "template"
	case KindAlias:
		return "alias"
	}
	return "unknown"
}

// ID is implemented by the identifier types of this package only.
type ID interface {
	Kind() Kind
	// Encode returns a stable key. Equal symbols have equal encodings.
	Encode() string
	// Describe returns a human readable description for error messages.
	Describe() string
	isID()
}

// Class is a NamedClass or an AnonymousClass.
type Class interface {
	ID
	isClass()
}

// Function is a NamedFunction, AnonymousFunction or Method.
type Function interface {
	ID
	isFunction()
}

// Equal reports whether a and b denote the same symbol.
func Equal(a, b ID) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return a.Encode() == b.Encode()
}

// Constant identifies a global constant. Names are case-sensitive.
type Constant struct {
	Name string
}

func (Constant) Kind() Kind { return KindConstant }
func (c Constant) Encode() string { return "const:" + trimLeadingSlash(c.Name) }
func (c Constant) Describe() string { return "constant " + trimLeadingSlash(c.Name) }
func (Constant) isID() {}
func (c Constant) ShortName() string { return shortName(c.Name) }
func (c Constant) Namespace() string { return namespaceOf(c.Name) }

// NamedFunction identifies a function declared with a name.
type NamedFunction struct {
	Name string
}

func (NamedFunction) Kind() Kind { return KindNamedFunction }
func (f NamedFunction) Encode() string { return "func:" + strings.ToLower(trimLeadingSlash(f.Name)) }
func (f NamedFunction) Describe() string { return "function " + trimLeadingSlash(f.Name) + "()" }
func (NamedFunction) isID() {}
func (NamedFunction) isFunction() {}
func (f NamedFunction) ShortName() string { return shortName(f.Name) }
func (f NamedFunction) Namespace() string { return namespaceOf(f.Name) }

// AnonymousFunction identifies a closure by its position.
type AnonymousFunction struct {
	File   string
	Line   int
	Column int
}

func (AnonymousFunction) Kind() Kind { return KindAnonymousFunction }
func (f AnonymousFunction) Encode() string {
	return fmt.Sprintf("closure:%s:%d:%d", f.File, f.Line, f.Column)
}
func (f AnonymousFunction) Describe() string {
	return fmt.Sprintf("anonymous function at %s", position(f.File, f.Line, f.Column))
}
func (AnonymousFunction) isID() {}
func (AnonymousFunction) isFunction() {}

// NamedClass identifies a class, interface, trait or enum by name.
type NamedClass struct {
	Name string
}

func (NamedClass) Kind() Kind { return KindNamedClass }
func (c NamedClass) Encode() string { return "class:" + strings.ToLower(trimLeadingSlash(c.Name)) }
func (c NamedClass) Describe() string { return "class " + trimLeadingSlash(c.Name) }
func (NamedClass) isID() {}
func (NamedClass) isClass() {}
func (c NamedClass) ShortName() string { return shortName(c.Name) }
func (c NamedClass) Namespace() string { return namespaceOf(c.Name) }

// AnonymousClass identifies a `new class` expression. Column 0 means the
// column is unknown, which can make a lookup ambiguous.
type AnonymousClass struct {
	File   string
	Line   int
	Column int
}

func (AnonymousClass) Kind() Kind { return KindAnonymousClass }
func (c AnonymousClass) Encode() string {
	return fmt.Sprintf("anon:%s:%d:%d", c.File, c.Line, c.Column)
}
func (c AnonymousClass) Describe() string {
	return "anonymous class at " + position(c.File, c.Line, c.Column)
}
func (AnonymousClass) isID() {}
func (AnonymousClass) isClass() {}

func (c AnonymousClass) HasColumn() bool { return c.Column > 0 }

func (c AnonymousClass) WithoutColumn() AnonymousClass {
	c.Column = 0
	return c
}

func (c AnonymousClass) WithColumn(column int) AnonymousClass {
	c.Column = column
	return c
}

// Name is the display name, "class@anonymous@file:line:column".
func (c AnonymousClass) Name() string {
	return "class@anonymous@" + position(c.File, c.Line, c.Column)
}

// ParseAnonymousClassName reverses Name for names that carry a column.
func ParseAnonymousClassName(name string) (AnonymousClass, bool) {
	rest, ok := strings.CutPrefix(name, "class@anonymous@")
	if !ok {
		return AnonymousClass{}, false
	}
	i := strings.LastIndexByte(rest, ':')
	if i < 0 {
		return AnonymousClass{}, false
	}
	column, err := strconv.Atoi(rest[i+1:])
	if err != nil {
		return AnonymousClass{}, false
	}
	rest = rest[:i]
	j := strings.LastIndexByte(rest, ':')
	if j < 0 {
		return AnonymousClass{}, false
	}
	line, err := strconv.Atoi(rest[j+1:])
	if err != nil {
		return AnonymousClass{}, false
	}
	return AnonymousClass{File: rest[:j], Line: line, Column: column}, true
}

// ClassConstant identifies a constant or enum case of a class.
type ClassConstant struct {
	Class Class
	Name  string
}

func (ClassConstant) Kind() Kind { return KindClassConstant }
func (c ClassConstant) Encode() string {
	return c.Class.Encode() + "::" + c.Name
}
func (c ClassConstant) Describe() string {
	return "class constant " + ClassName(c.Class) + "::" + c.Name
}
func (ClassConstant) isID() {}

// Property identifies a class property.
type Property struct {
	Class Class
	Name  string
}

func (Property) Kind() Kind { return KindProperty }
func (p Property) Encode() string {
	return p.Class.Encode() + "::$" + p.Name
}
func (p Property) Describe() string {
	return "property " + ClassName(p.Class) + "::$" + p.Name
}
func (Property) isID() {}

// Method identifies a class method. Names are case-insensitive.
type Method struct {
	Class Class
	Name  string
}

func (Method) Kind() Kind { return KindMethod }
func (m Method) Encode() string {
	return m.Class.Encode() + "::" + strings.ToLower(m.Name) + "()"
}
func (m Method) Describe() string {
	return "method " + ClassName(m.Class) + "::" + m.Name + "()"
}
func (Method) isID() {}
func (Method) isFunction() {}

// Parameter identifies a parameter of a function or method.
type Parameter struct {
	Function Function
	Name     string
}

func (Parameter) Kind() Kind { return KindParameter }
func (p Parameter) Encode() string {
	return p.Function.Encode() + "#$" + p.Name
}
func (p Parameter) Describe() string {
	return "parameter $" + p.Name + " of " + p.Function.Describe()
}
func (Parameter) isID() {}

// Template identifies a generic parameter declared on a class or function.
type Template struct {
	Declaration ID
	Name        string
}

func (Template) Kind() Kind { return KindTemplate }
func (t Template) Encode() string {
	return t.Declaration.Encode() + "#" + t.Name
}
func (t Template) Describe() string {
	return "template " + t.Name + " of " + t.Declaration.Describe()
}
func (Template) isID() {}

// Alias identifies a type alias declared on a class.
type Alias struct {
	Class Class
	Name  string
}

func (Alias) Kind() Kind { return KindAlias }
func (a Alias) Encode() string {
	return a.Class.Encode() + "#alias:" + a.Name
}
func (a Alias) Describe() string {
	return "type alias " + a.Name + " of " + a.Class.Describe()
}
func (Alias) isID() {}

// ClassName returns the display name of a class identifier.
func ClassName(c Class) string {
	switch c := c.(type) {
	case NamedClass:
		return trimLeadingSlash(c.Name)
	case AnonymousClass:
		return c.Name()
	}
	return ""
}

// SameClass reports whether the named class n equals c.
func SameClass(c Class, name string) bool {
	return c != nil && c.Encode() == (NamedClass{Name: name}).Encode()
}

func trimLeadingSlash(name string) string {
	return strings.TrimPrefix(name, `\`)
}

func shortName(name string) string {
	name = trimLeadingSlash(name)
	if i := strings.LastIndexByte(name, '\\'); i >= 0 {
		return name[i+1:]
	}
	return name
}

func namespaceOf(name string) string {
	name = trimLeadingSlash(name)
	if i := strings.LastIndexByte(name, '\\'); i >= 0 {
		return name[:i]
	}
	return ""
}

func position(file string, line, column int) string {
	if column > 0 {
		return fmt.Sprintf("%s:%d:%d", file, line, column)
	}
	return fmt.Sprintf("%s:%d", file, line)
}
