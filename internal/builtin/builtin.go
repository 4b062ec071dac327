// Package builtin synthesises declarations for symbols the PHP engine
// provides without source: core interfaces and classes, a handful of
// standard functions and the predefined constants. Declarations are
// attributed to their extension, so models built from them report
// IsInternallyDefined.
package builtin

import (
	"sort"
	"strings"

	"github.com/jward/phpreflect/internal/declaration"
	"github.com/jward/phpreflect/internal/id"
)

// Environment is a read-only table of builtin declarations. It is safe for
// concurrent use.
type Environment struct {
	classes   map[string]*declaration.Class
	functions map[string]*declaration.Function
	constants map[string]*declaration.Constant
}

// New builds the builtin environment.
func New() *Environment {
	e := &Environment{
		classes:   make(map[string]*declaration.Class),
		functions: make(map[string]*declaration.Function),
		constants: make(map[string]*declaration.Constant),
	}
	for _, c := range coreClasses() {
		e.classes[strings.ToLower(c.Name())] = c
	}
	for _, f := range coreFunctions() {
		e.functions[f.ID().Encode()] = f
	}
	for _, c := range coreConstants() {
		e.constants[c.Name] = c
	}
	return e
}

// Class returns the builtin class-like named name, matched
// case-insensitively.
func (e *Environment) Class(name string) (*declaration.Class, bool) {
	c, ok := e.classes[strings.ToLower(strings.TrimPrefix(name, `\`))]
	return c, ok
}

func (e *Environment) Function(name string) (*declaration.Function, bool) {
	f, ok := e.functions[id.NamedFunction{Name: name}.Encode()]
	return f, ok
}

// Constant looks a constant up by its case-sensitive name.
func (e *Environment) Constant(name string) (*declaration.Constant, bool) {
	c, ok := e.constants[strings.TrimPrefix(name, `\`)]
	return c, ok
}

func (e *Environment) ClassNames() []string {
	names := make([]string, 0, len(e.classes))
	for _, c := range e.classes {
		names = append(names, c.Name())
	}
	sort.Strings(names)
	return names
}

func (e *Environment) ConstantNames() []string {
	names := make([]string, 0, len(e.constants))
	for name := range e.constants {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
