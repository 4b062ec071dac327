// Package metadata holds facts that come from outside the language syntax:
// docblock types, deprecations, templates and extra modifier flags.
//
// Several sources may describe the same declaration. Fragments combine with
// With, a right-biased merge: every field the incoming fragment sets wins,
// absent fields keep the existing value, boolean flags are OR-ed and map
// fields merge key by key with the same rule.
package metadata

import (
	"github.com/jward/phpreflect/internal/declaration"
	"github.com/jward/phpreflect/internal/types"
)

type Variance uint8

const (
	Invariant Variance = iota
	Covariant
	Contravariant
)

func (v Variance) String() string {
	switch v {
	case Covariant:
		return "covariant"
	case Contravariant:
		return "contravariant"
	}
	return "invariant"
}

type Deprecation struct {
	Message string
}

// Template is a generic parameter declaration. A nil Constraint means mixed.
type Template struct {
	Name       string
	Variance   Variance
	Constraint types.Type
	Default    types.Type
	Snippet    *declaration.Snippet
}

// ConstraintOrMixed returns the declared constraint, mixed when absent.
func (t Template) ConstraintOrMixed() types.Type {
	if t.Constraint == nil {
		return types.Mixed
	}
	return t.Constraint
}

type Constant struct {
	Type        types.Type
	Deprecation *Deprecation
}

func (a Constant) With(b Constant) Constant {
	return Constant{
		Type:        or(b.Type, a.Type),
		Deprecation: orPtr(b.Deprecation, a.Deprecation),
	}
}

type ClassConstant struct {
	Type        types.Type
	Deprecation *Deprecation
	Final       bool
}

func (a ClassConstant) With(b ClassConstant) ClassConstant {
	return ClassConstant{
		Type:        or(b.Type, a.Type),
		Deprecation: orPtr(b.Deprecation, a.Deprecation),
		Final:       a.Final || b.Final,
	}
}

type Property struct {
	Type        types.Type
	Readonly    bool
	Deprecation *Deprecation
}

func (a Property) With(b Property) Property {
	return Property{
		Type:        or(b.Type, a.Type),
		Readonly:    a.Readonly || b.Readonly,
		Deprecation: orPtr(b.Deprecation, a.Deprecation),
	}
}

type Parameter struct {
	Type        types.Type
	Deprecation *Deprecation
	Readonly    bool
}

func (a Parameter) With(b Parameter) Parameter {
	return Parameter{
		Type:        or(b.Type, a.Type),
		Deprecation: orPtr(b.Deprecation, a.Deprecation),
		Readonly:    a.Readonly || b.Readonly,
	}
}

type Function struct {
	ReturnType  types.Type
	ThrowsTypes []types.Type
	Deprecation *Deprecation
	Parameters  map[string]Parameter
	Templates   []Template
}

func (a Function) With(b Function) Function {
	return Function{
		ReturnType:  or(b.ReturnType, a.ReturnType),
		ThrowsTypes: orSlice(b.ThrowsTypes, a.ThrowsTypes),
		Deprecation: orPtr(b.Deprecation, a.Deprecation),
		Parameters:  mergeMap(a.Parameters, b.Parameters),
		Templates:   orSlice(b.Templates, a.Templates),
	}
}

type Method struct {
	ReturnType  types.Type
	ThrowsTypes []types.Type
	Deprecation *Deprecation
	Parameters  map[string]Parameter
	Templates   []Template
	Final       bool
}

func (a Method) With(b Method) Method {
	return Method{
		ReturnType:  or(b.ReturnType, a.ReturnType),
		ThrowsTypes: orSlice(b.ThrowsTypes, a.ThrowsTypes),
		Deprecation: orPtr(b.Deprecation, a.Deprecation),
		Parameters:  mergeMap(a.Parameters, b.Parameters),
		Templates:   orSlice(b.Templates, a.Templates),
		Final:       a.Final || b.Final,
	}
}

// Class holds class-level facts plus per-member fragments keyed by member
// name as written in the declaration.
type Class struct {
	Readonly    bool
	Final       bool
	Deprecation *Deprecation
	Templates   []Template
	// Extends, Implements and Uses map an ancestor or trait name to the type
	// arguments supplied for its templates.
	Extends    map[string][]types.Type
	Implements map[string][]types.Type
	Uses       map[string][]types.Type
	Constants  map[string]ClassConstant
	Properties map[string]Property
	Methods    map[string]Method
}

func (a Class) With(b Class) Class {
	return Class{
		Readonly:    a.Readonly || b.Readonly,
		Final:       a.Final || b.Final,
		Deprecation: orPtr(b.Deprecation, a.Deprecation),
		Templates:   orSlice(b.Templates, a.Templates),
		Extends:     mergeArgs(a.Extends, b.Extends),
		Implements:  mergeArgs(a.Implements, b.Implements),
		Uses:        mergeArgs(a.Uses, b.Uses),
		Constants:   mergeMap(a.Constants, b.Constants),
		Properties:  mergeMap(a.Properties, b.Properties),
		Methods:     mergeMap(a.Methods, b.Methods),
	}
}

// TypeArguments returns the type arguments given for ancestor name across
// extends, implements and use.
func (c Class) TypeArguments(name string) []types.Type {
	for _, m := range []map[string][]types.Type{c.Extends, c.Implements, c.Uses} {
		for k, args := range m {
			if equalFold(k, name) {
				return args
			}
		}
	}
	return nil
}

func (c Class) Method(name string) Method {
	for k, m := range c.Methods {
		if equalFold(k, name) {
			return m
		}
	}
	return Method{}
}

type merger[T any] interface {
	With(T) T
}

func mergeMap[T merger[T]](a, b map[string]T) map[string]T {
	if len(a) == 0 && len(b) == 0 {
		return nil
	}
	out := make(map[string]T, len(a)+len(b))
	for k, v := range a {
		out[k] = v
	}
	for k, v := range b {
		if existing, ok := out[k]; ok {
			out[k] = existing.With(v)
			continue
		}
		out[k] = v
	}
	return out
}

func mergeArgs(a, b map[string][]types.Type) map[string][]types.Type {
	if len(a) == 0 && len(b) == 0 {
		return nil
	}
	out := make(map[string][]types.Type, len(a)+len(b))
	for k, v := range a {
		out[k] = v
	}
	for k, v := range b {
		out[k] = v
	}
	return out
}

func or(b, a types.Type) types.Type {
	if b != nil {
		return b
	}
	return a
}

func orPtr[T any](b, a *T) *T {
	if b != nil {
		return b
	}
	return a
}

func orSlice[T any](b, a []T) []T {
	if len(b) > 0 {
		return b
	}
	return a
}

func equalFold(a, b string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := 0; i < len(a); i++ {
		x, y := a[i], b[i]
		if 'A' <= x && x <= 'Z' {
			x += 'a' - 'A'
		}
		if 'A' <= y && y <= 'Z' {
			y += 'a' - 'A'
		}
		if x != y {
			return false
		}
	}
	return true
}
