package inherit

import "github.com/jward/phpreflect/internal/types"

type candidate struct {
	fact     types.Fact
	resolver types.Resolver
}

// typeInheritance collects every type fact seen for one member name and
// picks the one the resolved member carries.
//
// Comparison is structural equality, not a variance-aware subtype check, so
// a redeclaration that widens or narrows the native type always keeps its
// own fact.
type typeInheritance struct {
	own       *types.Fact
	inherited []candidate
}

func (t *typeInheritance) applyOwn(f types.Fact) {
	t.own = &f
}

func (t *typeInheritance) applyInherited(f types.Fact, r types.Resolver) {
	t.inherited = append(t.inherited, candidate{fact: f, resolver: r})
}

func (t *typeInheritance) build() types.Fact {
	if t.own != nil {
		own := *t.own
		if own.Annotated() != nil {
			return own
		}
		ownResolved := own.Resolve()
		for _, c := range t.inherited {
			if !types.Equal(c.fact.Native(), own.Native()) {
				continue
			}
			// Same signature resolving to the same type: keep looking for
			// something more specific.
			if types.Equal(c.fact.Resolve(), ownResolved) {
				continue
			}
			return c.fact.WithTentative(nil).Inherit(c.resolver)
		}
		return own
	}

	if len(t.inherited) == 0 {
		return types.Fact{}
	}
	if len(t.inherited) > 1 {
		for _, c := range t.inherited {
			if types.Equal(c.fact.Resolve(), c.fact.Native()) {
				continue
			}
			return c.fact.Inherit(c.resolver)
		}
	}
	first := t.inherited[0]
	return first.fact.Inherit(first.resolver)
}

// typeSet tracks typeInheritance per member key.
type typeSet map[string]*typeInheritance

func (s typeSet) get(key string) *typeInheritance {
	t, ok := s[key]
	if !ok {
		t = &typeInheritance{}
		s[key] = t
	}
	return t
}
