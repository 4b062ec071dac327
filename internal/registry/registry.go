// Package registry resolves symbols lazily. A Session finds the declaration
// of a requested class, function or constant (cache, locator and parser,
// then the host environment), materialises its model once and memoises it.
//
// A Session is not safe for concurrent use.
package registry

import (
	"github.com/jward/phpreflect/internal/declaration"
	"github.com/jward/phpreflect/internal/model"
)

type entry[D declaration.Declaration, M any] struct {
	decl      D
	declared  bool
	model     M
	resolved  bool
	resolving bool
}

// Registry maps encoded identifiers to declarations and their models.
type Registry[D declaration.Declaration, M any] struct {
	entries map[string]*entry[D, M]
}

type (
	ClassRegistry    = Registry[*declaration.Class, *model.Class]
	FunctionRegistry = Registry[*declaration.Function, *model.Function]
	ConstantRegistry = Registry[*declaration.Constant, *model.Constant]
)

func newRegistry[D declaration.Declaration, M any]() *Registry[D, M] {
	return &Registry[D, M]{entries: make(map[string]*entry[D, M])}
}

func (r *Registry[D, M]) entry(key string) *entry[D, M] {
	e, ok := r.entries[key]
	if !ok {
		e = &entry[D, M]{}
		r.entries[key] = e
	}
	return e
}

// declare records d under key unless a declaration is already known.
func (r *Registry[D, M]) declare(key string, d D) bool {
	e := r.entry(key)
	if e.declared {
		return false
	}
	e.decl, e.declared = d, true
	return true
}

// Declared reports whether a declaration is known for key.
func (r *Registry[D, M]) Declared(key string) bool {
	e, ok := r.entries[key]
	return ok && e.declared
}

// Resolved reports whether the model for key has been built.
func (r *Registry[D, M]) Resolved(key string) bool {
	e, ok := r.entries[key]
	return ok && e.resolved
}

// Len counts known declarations.
func (r *Registry[D, M]) Len() int {
	n := 0
	for _, e := range r.entries {
		if e.declared {
			n++
		}
	}
	return n
}
