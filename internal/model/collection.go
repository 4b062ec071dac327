// Package model holds the resolved reflection models: classes with every
// inherited member bound, functions and constants. Models are immutable once
// built and may be shared freely between callers.
package model

import (
	"iter"
	"strings"
)

// Named is implemented by every model that lives in a Collection.
type Named interface {
	Name() string
}

// Collection is an insertion-ordered set of models keyed by name.
type Collection[T Named] struct {
	items []T
	index map[string]int
	fold  bool
}

// NewCollection builds a collection from items in order. When fold is set,
// names are matched case-insensitively. Later duplicates are dropped.
func NewCollection[T Named](fold bool, items ...T) Collection[T] {
	b := NewBuilder[T](fold)
	for _, item := range items {
		b.Add(item)
	}
	return b.Collection()
}

func (c Collection[T]) key(name string) string {
	if c.fold {
		return strings.ToLower(name)
	}
	return name
}

func (c Collection[T]) Len() int { return len(c.items) }

func (c Collection[T]) Get(name string) (T, bool) {
	i, ok := c.index[c.key(name)]
	if !ok {
		var zero T
		return zero, false
	}
	return c.items[i], true
}

func (c Collection[T]) Has(name string) bool {
	_, ok := c.index[c.key(name)]
	return ok
}

// Names returns member names in insertion order.
func (c Collection[T]) Names() []string {
	names := make([]string, len(c.items))
	for i, item := range c.items {
		names[i] = item.Name()
	}
	return names
}

// Values returns a copy of the members in insertion order.
func (c Collection[T]) Values() []T {
	return append([]T(nil), c.items...)
}

func (c Collection[T]) All() iter.Seq2[string, T] {
	return func(yield func(string, T) bool) {
		for _, item := range c.items {
			if !yield(item.Name(), item) {
				return
			}
		}
	}
}

// Filter returns the members for which keep is true.
func (c Collection[T]) Filter(keep func(T) bool) Collection[T] {
	b := NewBuilder[T](c.fold)
	for _, item := range c.items {
		if keep(item) {
			b.Add(item)
		}
	}
	return b.Collection()
}

// Builder accumulates a Collection. The zero Builder is not usable.
type Builder[T Named] struct {
	c Collection[T]
}

func NewBuilder[T Named](fold bool) *Builder[T] {
	return &Builder[T]{c: Collection[T]{index: make(map[string]int), fold: fold}}
}

// Add binds item under its name unless the name is already bound. It reports
// whether the item was bound.
func (b *Builder[T]) Add(item T) bool {
	k := b.c.key(item.Name())
	if _, ok := b.c.index[k]; ok {
		return false
	}
	b.c.index[k] = len(b.c.items)
	b.c.items = append(b.c.items, item)
	return true
}

// Replace overwrites the member bound under item's name, keeping its
// position, or appends it.
func (b *Builder[T]) Replace(item T) {
	k := b.c.key(item.Name())
	if i, ok := b.c.index[k]; ok {
		b.c.items[i] = item
		return
	}
	b.Add(item)
}

func (b *Builder[T]) Has(name string) bool { return b.c.Has(name) }

func (b *Builder[T]) Get(name string) (T, bool) { return b.c.Get(name) }

func (b *Builder[T]) Names() []string { return b.c.Names() }

// Collection freezes the builder. The builder must not be used afterwards.
func (b *Builder[T]) Collection() Collection[T] {
	c := b.c
	b.c = Collection[T]{}
	return c
}
