// Package inherit turns one class declaration plus the resolved models of its
// ancestors and traits into a fully resolved class model.
//
// Members are bound first-occurrence-wins in this order: own members,
// promoted constructor parameters, trait members, synthetic enum members,
// then members of every ancestor in flattened order. Type facts of all
// candidates are collected along the way and narrowed once every candidate
// is known.
package inherit

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/jward/phpreflect/internal/declaration"
	"github.com/jward/phpreflect/internal/id"
	"github.com/jward/phpreflect/internal/metadata"
	"github.com/jward/phpreflect/internal/model"
	"github.com/jward/phpreflect/internal/types"
)

// Names of the interfaces the engine adds implicitly.
const (
	Stringable = "Stringable"
	UnitEnum   = "UnitEnum"
	BackedEnum = "BackedEnum"
)

// ClassSource resolves ancestors and traits by fully qualified name.
type ClassSource interface {
	ReflectClass(ctx context.Context, name string) (*model.Class, error)
}

// Option configures an Engine.
type Option func(*Engine)

func WithLogger(logger *slog.Logger) Option {
	return func(e *Engine) {
		e.logger = logger
	}
}

type Engine struct {
	classes ClassSource
	logger  *slog.Logger
}

func New(classes ClassSource, opts ...Option) *Engine {
	e := &Engine{classes: classes, logger: slog.Default()}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// resolution is the mutable state of one Resolve call.
type resolution struct {
	decl    *declaration.Class
	meta    metadata.Class
	classID id.Class

	constants  *model.Builder[model.ClassConstant]
	properties *model.Builder[model.Property]
	methods    *model.Builder[model.Method]

	constantTypes  typeSet
	propertyTypes  typeSet
	methodTypes    typeSet
	parameterTypes typeSet

	parents    []model.Ancestor
	interfaces []model.Ancestor
}

// Resolve builds the resolved model of decl. Ancestors and traits that
// cannot be resolved fail the whole resolution.
func (e *Engine) Resolve(ctx context.Context, decl *declaration.Class, meta metadata.Class) (*model.Class, error) {
	r := &resolution{
		decl:           decl,
		meta:           meta,
		classID:        decl.ID(),
		constants:      model.NewBuilder[model.ClassConstant](false),
		properties:     model.NewBuilder[model.Property](false),
		methods:        model.NewBuilder[model.Method](true),
		constantTypes:  typeSet{},
		propertyTypes:  typeSet{},
		methodTypes:    typeSet{},
		parameterTypes: typeSet{},
	}
	readonly := model.NewModifier(decl.Readonly, meta.Readonly)

	r.declareOwn(readonly)
	r.declarePromoted(readonly)

	for _, name := range decl.Traits {
		trait, err := e.classes.ReflectClass(ctx, name)
		if err != nil {
			return nil, fmt.Errorf("inherit: trait %s of %s: %w", name, decl.Name(), err)
		}
		if err := r.useTrait(trait); err != nil {
			return nil, fmt.Errorf("inherit: use %s in %s: %w", trait.Name(), decl.Name(), err)
		}
	}

	ancestors := declaredAncestors(decl)
	if decl.Kind == declaration.KindEnum {
		ancestors = append(ancestors, r.synthesizeEnum()...)
	}
	if decl.Kind != declaration.KindTrait && !id.SameClass(r.classID, Stringable) && r.methods.Has("__toString") {
		ancestors = append(ancestors, Stringable)
	}

	for _, name := range dedupe(ancestors) {
		ancestor, err := e.classes.ReflectClass(ctx, name)
		if err != nil {
			return nil, fmt.Errorf("inherit: ancestor %s of %s: %w", name, decl.Name(), err)
		}
		r.inheritFrom(ancestor)
	}

	r.narrow()

	e.logger.Debug("class resolved",
		"class", decl.Name(),
		"constants", len(r.constants.Names()),
		"properties", len(r.properties.Names()),
		"methods", len(r.methods.Names()))

	return model.NewClass(model.ClassSpec{
		ID:          r.classID,
		Kind:        decl.Kind,
		Templates:   model.Templates(r.classID, meta.Templates),
		Attributes:  model.Attributes(r.classID, decl.Attributes),
		Constants:   r.constants.Collection(),
		Properties:  r.properties.Collection(),
		Methods:     r.methods.Collection(),
		BackingType: decl.BackingType,
		Snippet:     decl.Snippet,
		PhpDoc:      decl.PhpDoc,
		Abstract:    decl.Abstract,
		Readonly:    readonly,
		Final:       model.NewModifier(decl.Kind == declaration.KindEnum || decl.Final, meta.Final),
		Namespace:   decl.Context.Namespace(),
		Source:      decl.Context.Source,
		Deprecation: meta.Deprecation,
		Parents:     r.parents,
		Interfaces:  r.interfaces,
	}), nil
}

func (r *resolution) declareOwn(readonly model.Modifier) {
	for _, c := range r.decl.Constants {
		m := model.DeclareClassConstant(c, r.meta.Constants[c.Name])
		if r.constants.Add(m) {
			r.constantTypes.get(m.Name()).applyOwn(m.TypeFact())
		}
	}
	for _, p := range r.decl.Properties {
		m := model.DeclareProperty(p, r.meta.Properties[p.Name], readonly)
		if r.properties.Add(m) {
			r.propertyTypes.get(m.Name()).applyOwn(m.TypeFact())
		}
	}
	inInterface := r.decl.Kind == declaration.KindInterface
	for _, d := range r.decl.Methods {
		r.ownMethod(model.DeclareMethod(d, r.meta.Method(d.Name), inInterface))
	}
}

func (r *resolution) declarePromoted(readonly model.Modifier) {
	ctor, ok := r.decl.Method("__construct")
	if !ok {
		return
	}
	meta := r.meta.Method(ctor.Name)
	for _, p := range ctor.Parameters {
		if !p.IsPromoted() {
			continue
		}
		m := model.DeclarePromoted(p, meta.Parameters[p.Name], readonly)
		if r.properties.Add(m) {
			r.propertyTypes.get(m.Name()).applyOwn(m.TypeFact())
		}
	}
}

func (r *resolution) useTrait(trait *model.Class) error {
	ctx := r.decl.Context
	identity := types.Identity{}

	for _, c := range trait.Constants().Values() {
		if !r.constants.Has(c.Name()) {
			used, err := c.Use(ctx, c.TypeFact())
			if err != nil {
				return err
			}
			r.constants.Add(used)
		}
		r.constantTypes.get(c.Name()).applyInherited(c.TypeFact(), identity)
	}

	for _, p := range trait.Properties().Values() {
		if !r.properties.Has(p.Name()) {
			used, err := p.Use(ctx, p.TypeFact())
			if err != nil {
				return err
			}
			r.properties.Add(used)
		}
		r.propertyTypes.get(p.Name()).applyInherited(p.TypeFact(), identity)
	}

	for _, m := range trait.Methods().Values() {
		if preferred, ok := r.decl.TraitMethodPrecedence[methodKey(m.Name())]; ok && !strings.EqualFold(trimSlash(preferred), trait.Name()) {
			continue
		}
		for _, alias := range r.decl.TraitMethodAliases {
			if alias.Trait != "" && !strings.EqualFold(trimSlash(alias.Trait), trait.Name()) {
				continue
			}
			if !strings.EqualFold(alias.Method, m.Name()) {
				continue
			}
			name := m.Name()
			if alias.NewName != "" {
				name = alias.NewName
			}
			if !r.methods.Has(name) {
				used, err := m.Use(ctx, m.ReturnTypeFact(), alias.NewName, alias.NewVisibility)
				if err != nil {
					return err
				}
				r.methods.Add(used)
			}
			r.methodTypes.get(methodKey(name)).applyInherited(m.ReturnTypeFact(), identity)
			r.inheritParameters(name, m, identity)
		}

		if !r.methods.Has(m.Name()) {
			used, err := m.Use(ctx, m.ReturnTypeFact(), "", declaration.VisibilityNone)
			if err != nil {
				return err
			}
			r.methods.Add(used)
		}
		r.methodTypes.get(methodKey(m.Name())).applyInherited(m.ReturnTypeFact(), identity)
		r.inheritParameters(m.Name(), m, identity)
	}
	return nil
}

// synthesizeEnum binds the implicit enum members that are not already
// declared and returns the implicit enum interfaces.
func (r *resolution) synthesizeEnum() []string {
	ctx := r.decl.Context
	ancestors := []string{UnitEnum}

	r.ownProperty(model.DeclareProperty(declaration.EnumNameProperty(ctx), metadata.Property{}, model.Modifier{}))
	r.ownMethod(model.DeclareMethod(declaration.EnumCasesMethod(ctx), metadata.Method{}, false))

	if r.decl.BackingType != nil {
		ancestors = append(ancestors, BackedEnum)
		r.ownProperty(model.DeclareProperty(declaration.EnumValueProperty(ctx, r.decl.BackingType), metadata.Property{}, model.Modifier{}))
		r.ownMethod(model.DeclareMethod(declaration.EnumFromMethod(ctx), metadata.Method{}, false))
		r.ownMethod(model.DeclareMethod(declaration.EnumTryFromMethod(ctx), metadata.Method{}, false))
	}
	return ancestors
}

func (r *resolution) ownProperty(p model.Property) {
	if r.properties.Add(p) {
		r.propertyTypes.get(p.Name()).applyOwn(p.TypeFact())
	}
}

func (r *resolution) ownMethod(m model.Method) {
	if !r.methods.Add(m) {
		return
	}
	r.methodTypes.get(methodKey(m.Name())).applyOwn(m.ReturnTypeFact())
	for _, p := range m.Parameters().Values() {
		r.parameterTypes.get(parameterKey(m.Name(), p.Name())).applyOwn(p.TypeFact())
	}
}

// inheritParameters records the parameter types of m, bound as method name,
// as candidates for narrowing.
func (r *resolution) inheritParameters(name string, m model.Method, resolver types.Resolver) {
	for _, p := range m.Parameters().Values() {
		r.parameterTypes.get(parameterKey(name, p.Name())).applyInherited(p.TypeFact(), resolver)
	}
}

func (r *resolution) inheritFrom(ancestor *model.Class) {
	args := r.meta.TypeArguments(ancestor.Name())
	resolver := ancestor.CreateTemplateResolver(args)

	for _, a := range ancestor.Interfaces() {
		r.interfaces = addAncestor(r.interfaces, model.Ancestor{Name: a.Name, Args: substitute(a.Args, resolver)})
	}
	self := model.Ancestor{Name: ancestor.Name(), Args: templateArguments(ancestor, args)}
	if ancestor.IsInterface() {
		r.interfaces = addAncestor(r.interfaces, self)
	} else {
		parents := []model.Ancestor{self}
		for _, a := range ancestor.Parents() {
			parents = append(parents, model.Ancestor{Name: a.Name, Args: substitute(a.Args, resolver)})
		}
		r.parents = parents
	}

	for _, c := range ancestor.Constants().Values() {
		if c.IsPrivate() {
			continue
		}
		if !r.constants.Has(c.Name()) {
			r.constants.Add(c.Inherit(r.classID, c.TypeFact()))
		}
		r.constantTypes.get(c.Name()).applyInherited(c.TypeFact(), resolver)
	}
	for _, p := range ancestor.Properties().Values() {
		if p.IsPrivate() {
			continue
		}
		if !r.properties.Has(p.Name()) {
			r.properties.Add(p.Inherit(r.classID, p.TypeFact()))
		}
		r.propertyTypes.get(p.Name()).applyInherited(p.TypeFact(), resolver)
	}
	for _, m := range ancestor.Methods().Values() {
		if m.IsPrivate() {
			continue
		}
		if !r.methods.Has(m.Name()) {
			r.methods.Add(m.Inherit(r.classID, m.ReturnTypeFact(), resolver))
		}
		r.methodTypes.get(methodKey(m.Name())).applyInherited(m.ReturnTypeFact(), resolver)
		r.inheritParameters(m.Name(), m, resolver)
	}
}

func (r *resolution) narrow() {
	for _, name := range r.constants.Names() {
		if t, ok := r.constantTypes[name]; ok {
			c, _ := r.constants.Get(name)
			r.constants.Replace(c.WithType(t.build()))
		}
	}
	for _, name := range r.properties.Names() {
		if t, ok := r.propertyTypes[name]; ok {
			p, _ := r.properties.Get(name)
			r.properties.Replace(p.WithType(t.build()))
		}
	}
	for _, name := range r.methods.Names() {
		m, _ := r.methods.Get(name)
		if t, ok := r.methodTypes[methodKey(name)]; ok {
			m = m.WithType(t.build())
		}
		params := make(map[string]types.Fact)
		for _, p := range m.Parameters().Values() {
			if t, ok := r.parameterTypes[parameterKey(name, p.Name())]; ok {
				params[p.Name()] = t.build()
			}
		}
		r.methods.Replace(m.WithParameterTypes(params))
	}
}

func declaredAncestors(decl *declaration.Class) []string {
	out := make([]string, 0, 1+len(decl.Interfaces))
	if decl.Parent != "" {
		out = append(out, decl.Parent)
	}
	return append(out, decl.Interfaces...)
}

// dedupe drops repeated class names, keeping the first occurrence.
func dedupe(names []string) []string {
	seen := make(map[string]bool, len(names))
	out := names[:0:0]
	for _, n := range names {
		n = trimSlash(n)
		k := strings.ToLower(n)
		if seen[k] {
			continue
		}
		seen[k] = true
		out = append(out, n)
	}
	return out
}

func addAncestor(list []model.Ancestor, a model.Ancestor) []model.Ancestor {
	for _, existing := range list {
		if strings.EqualFold(existing.Name, a.Name) {
			return list
		}
	}
	return append(list, a)
}

// templateArguments lists the type arguments of every ancestor template,
// defaulting to the template constraint.
func templateArguments(ancestor *model.Class, args []types.Type) []types.Type {
	templates := ancestor.Templates().Values()
	if len(templates) == 0 {
		return nil
	}
	out := make([]types.Type, len(templates))
	for i, t := range templates {
		if i < len(args) && args[i] != nil {
			out[i] = args[i]
			continue
		}
		out[i] = t.Constraint()
	}
	return out
}

func substitute(args []types.Type, r types.Resolver) []types.Type {
	if len(args) == 0 {
		return nil
	}
	out := make([]types.Type, len(args))
	for i, a := range args {
		out[i] = r.Resolve(a)
	}
	return out
}

func methodKey(name string) string { return strings.ToLower(name) }

func parameterKey(method, parameter string) string { return methodKey(method) + "$" + parameter }

func trimSlash(name string) string { return strings.TrimPrefix(name, `\`) }
