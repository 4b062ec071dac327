package types

// Kind selects one facet of a Fact.
type Kind uint8

const (
	// KindResolved is the effective type: annotated, else tentative, else
	// native, else mixed.
	KindResolved Kind = iota
	KindNative
	KindTentative
	KindAnnotated
)

func (k Kind) String() string {
	switch k {
	case KindNative:
		return "native"
	case KindTentative:
		return "tentative"
	case KindAnnotated:
		return "annotated"
	}
	return "resolved"
}

// Fact records a member type from up to three independent sources. The zero
// Fact has no facets and resolves to mixed.
type Fact struct {
	native    Type
	tentative Type
	annotated Type
}

func NewFact(native, tentative, annotated Type) Fact {
	return Fact{native: native, tentative: tentative, annotated: annotated}
}

// NativeFact is shorthand for a fact known only from the signature.
func NativeFact(native Type) Fact {
	return Fact{native: native}
}

func (f Fact) Native() Type    { return f.native }
func (f Fact) Tentative() Type { return f.tentative }
func (f Fact) Annotated() Type { return f.annotated }

// IsZero reports whether no facet is present.
func (f Fact) IsZero() bool {
	return f.native == nil && f.tentative == nil && f.annotated == nil
}

func (f Fact) Resolve() Type {
	switch {
	case f.annotated != nil:
		return f.annotated
	case f.tentative != nil:
		return f.tentative
	case f.native != nil:
		return f.native
	}
	return Mixed
}

// ByKind returns the requested facet, or nil when it is absent.
// KindResolved never returns nil.
func (f Fact) ByKind(k Kind) Type {
	switch k {
	case KindNative:
		return f.native
	case KindTentative:
		return f.tentative
	case KindAnnotated:
		return f.annotated
	}
	return f.Resolve()
}

func (f Fact) WithTentative(t Type) Fact {
	f.tentative = t
	return f
}

func (f Fact) WithAnnotated(t Type) Fact {
	f.annotated = t
	return f
}

// Inherit substitutes every present facet through r.
func (f Fact) Inherit(r Resolver) Fact {
	if r == nil {
		return f
	}
	return Fact{
		native:    resolveOptional(r, f.native),
		tentative: resolveOptional(r, f.tentative),
		annotated: resolveOptional(r, f.annotated),
	}
}

// Equal compares every facet structurally.
func (f Fact) Equal(g Fact) bool {
	return Equal(f.native, g.native) && Equal(f.tentative, g.tentative) && Equal(f.annotated, g.annotated)
}

func resolveOptional(r Resolver, t Type) Type {
	if t == nil {
		return nil
	}
	return r.Resolve(t)
}
