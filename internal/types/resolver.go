package types

import "github.com/jward/phpreflect/internal/id"

// Resolver rewrites a type, typically substituting template references with
// concrete arguments.
type Resolver interface {
	Resolve(t Type) Type
}

// Identity leaves types untouched.
type Identity struct{}

func (Identity) Resolve(t Type) Type { return t }

// TemplateResolver substitutes template references by template identity.
type TemplateResolver struct {
	args map[string]Type
}

// NewTemplateResolver maps templates[i] to args[i], or to defaults[i] when no
// argument was supplied at that position.
func NewTemplateResolver(templates []id.Template, defaults []Type, args []Type) TemplateResolver {
	r := TemplateResolver{args: make(map[string]Type, len(templates))}
	for i, t := range templates {
		var arg Type
		if i < len(args) {
			arg = args[i]
		}
		if arg == nil && i < len(defaults) {
			arg = defaults[i]
		}
		if arg == nil {
			arg = Mixed
		}
		r.args[t.Encode()] = arg
	}
	return r
}

func (r TemplateResolver) Resolve(t Type) Type {
	if len(r.args) == 0 {
		return t
	}
	return Map(t, func(n Type) Type {
		if ref, ok := n.(TemplateRef); ok {
			if arg, ok := r.args[ref.ID.Encode()]; ok {
				return arg
			}
		}
		return n
	})
}

// Len returns the number of substituted templates.
func (r TemplateResolver) Len() int { return len(r.args) }

// Chain applies resolvers in order, each to the previous result.
type Chain []Resolver

func (c Chain) Resolve(t Type) Type {
	for _, r := range c {
		if r != nil {
			t = r.Resolve(t)
		}
	}
	return t
}
