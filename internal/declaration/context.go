package declaration

import (
	"path/filepath"
	"strings"

	"github.com/jward/phpreflect/internal/id"
	"github.com/jward/phpreflect/internal/types"
)

// CoreExtension names the pseudo-source of engine-synthesised declarations.
const CoreExtension = "Core"

// Source is where a declaration comes from: a file, or an extension for
// declarations that have no PHP source.
type Source struct {
	File      string
	Extension string
}

func FileSource(path string) Source       { return Source{File: path} }
func ExtensionSource(name string) Source  { return Source{Extension: name} }
func (s Source) IsInternal() bool         { return s.Extension != "" }

func (s Source) String() string {
	if s.Extension != "" {
		return "extension " + s.Extension
	}
	return s.File
}

// Snippet locates a piece of source text.
type Snippet struct {
	Text        string
	StartLine   int
	EndLine     int
	StartColumn int
}

// Context is the lexical context a declaration appears in. Contexts are
// values; Enter* methods return derived copies.
type Context struct {
	Source Source
	Scope  NameScope
	// ID is the innermost enclosing declaration, nil at file level.
	ID id.ID
	// Self is the enclosing class, nil outside of classes.
	Self id.Class
	// Trait is set inside trait bodies.
	Trait *id.NamedClass
	// Parent is the parent of the enclosing class, if any.
	Parent    *id.NamedClass
	Templates []id.Template
	Aliases   []id.Alias
}

// NewContext starts a file-level context.
func NewContext(source Source, scope NameScope) Context {
	return Context{Source: source, Scope: scope}
}

// EnterClass derives the context of a class-like body. parent is the fully
// qualified parent name or "".
func (c Context) EnterClass(kind ClassKind, class id.Class, parent string) Context {
	c.ID = class
	c.Self = class
	c.Trait = nil
	c.Parent = nil
	c.Templates = nil
	c.Aliases = nil
	if parent != "" {
		c.Parent = &id.NamedClass{Name: parent}
	}
	if named, ok := class.(id.NamedClass); ok && kind == KindTrait {
		c.Trait = &named
	}
	return c
}

// EnterMethod derives the context of a method body.
func (c Context) EnterMethod(name string) Context {
	c.ID = id.Method{Class: c.Self, Name: name}
	return c
}

func (c Context) EnterFunction(name string) Context {
	c.ID = id.NamedFunction{Name: name}
	c.Templates = nil
	return c
}

func (c Context) EnterAnonymousFunction(line, column int) Context {
	c.ID = id.AnonymousFunction{File: c.Source.File, Line: line, Column: column}
	return c
}

// WithTemplates declares generic parameters on the current declaration.
// Later declarations shadow earlier ones of the same name.
func (c Context) WithTemplates(names ...string) Context {
	if len(names) == 0 {
		return c
	}
	templates := append([]id.Template(nil), c.Templates...)
	for _, name := range names {
		templates = append(templates, id.Template{Declaration: c.ID, Name: name})
	}
	c.Templates = templates
	return c
}

func (c Context) WithAliases(names ...string) Context {
	if len(names) == 0 || c.Self == nil {
		return c
	}
	aliases := append([]id.Alias(nil), c.Aliases...)
	for _, name := range names {
		aliases = append(aliases, id.Alias{Class: c.Self, Name: name})
	}
	c.Aliases = aliases
	return c
}

// WithSource returns c attributed to another source.
func (c Context) WithSource(s Source) Context {
	c.Source = s
	return c
}

func (c Context) Template(name string) (id.Template, bool) {
	for i := len(c.Templates) - 1; i >= 0; i-- {
		if c.Templates[i].Name == name {
			return c.Templates[i], true
		}
	}
	return id.Template{}, false
}

func (c Context) Alias(name string) (id.Alias, bool) {
	for _, a := range c.Aliases {
		if a.Name == name {
			return a, true
		}
	}
	return id.Alias{}, false
}

// SelfName is the display name of the enclosing class or "".
func (c Context) SelfName() string {
	if c.Self == nil {
		return ""
	}
	return id.ClassName(c.Self)
}

func (c Context) Namespace() string { return c.Scope.Namespace }

func (c Context) ResolveClassName(name string) string {
	return c.Scope.ResolveClass(name)
}

// ResolveConstantName returns the namespaced constant and, for unqualified
// names in a namespace, the global fallback.
func (c Context) ResolveConstantName(name string) (id.Constant, *id.Constant) {
	namespaced, global := c.Scope.ResolveConstant(name)
	if global == "" {
		return id.Constant{Name: namespaced}, nil
	}
	return id.Constant{Name: namespaced}, &id.Constant{Name: global}
}

func (c Context) ResolveFunctionName(name string) (id.NamedFunction, *id.NamedFunction) {
	namespaced, global := c.Scope.ResolveFunction(name)
	if global == "" {
		return id.NamedFunction{Name: namespaced}, nil
	}
	return id.NamedFunction{Name: namespaced}, &id.NamedFunction{Name: global}
}

// ResolveNameAsType turns a class-like name in type position into a type:
// self, parent and static become relative types, anything else a named
// class.
func (c Context) ResolveNameAsType(name string, args ...types.Type) types.Type {
	switch strings.ToLower(name) {
	case "self":
		return types.Relative{Kind: types.Self, Class: c.SelfName(), Args: args}
	case "static":
		return types.Relative{Kind: types.Static, Class: c.SelfName(), Args: args}
	case "parent":
		parent := ""
		if c.Parent != nil {
			parent = c.Parent.Name
		}
		return types.Relative{Kind: types.Parent, Class: parent, Args: args}
	}
	return types.NewNamed(c.ResolveClassName(name), args...)
}

func (c Context) dir() string {
	if c.Source.File == "" {
		return ""
	}
	return filepath.Dir(c.Source.File)
}
