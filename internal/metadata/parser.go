package metadata

import "github.com/jward/phpreflect/internal/declaration"

// ClassParser extracts class metadata from a raw declaration.
type ClassParser interface {
	ParseClass(c *declaration.Class) (Class, error)
}

type FunctionParser interface {
	ParseFunction(f *declaration.Function) (Function, error)
}

type ConstantParser interface {
	ParseConstant(c *declaration.Constant) (Constant, error)
}

// Parsers folds the results of several parsers with With, in order, so later
// parsers override earlier ones. Entries may implement any subset of the
// parser interfaces.
type Parsers []any

func (ps Parsers) ParseClass(c *declaration.Class) (Class, error) {
	var out Class
	for _, p := range ps {
		cp, ok := p.(ClassParser)
		if !ok {
			continue
		}
		m, err := cp.ParseClass(c)
		if err != nil {
			return Class{}, err
		}
		out = out.With(m)
	}
	return out, nil
}

func (ps Parsers) ParseFunction(f *declaration.Function) (Function, error) {
	var out Function
	for _, p := range ps {
		fp, ok := p.(FunctionParser)
		if !ok {
			continue
		}
		m, err := fp.ParseFunction(f)
		if err != nil {
			return Function{}, err
		}
		out = out.With(m)
	}
	return out, nil
}

func (ps Parsers) ParseConstant(c *declaration.Constant) (Constant, error) {
	var out Constant
	for _, p := range ps {
		cp, ok := p.(ConstantParser)
		if !ok {
			continue
		}
		m, err := cp.ParseConstant(c)
		if err != nil {
			return Constant{}, err
		}
		out = out.With(m)
	}
	return out, nil
}

// AttributeParser derives deprecations from #[Deprecated] attributes.
type AttributeParser struct{}

func (AttributeParser) ParseClass(c *declaration.Class) (Class, error) {
	var out Class
	if dep := deprecatedAttribute(c.Attributes); dep != nil {
		out.Deprecation = dep
	}
	for _, m := range c.Methods {
		if dep := deprecatedAttribute(m.Attributes); dep != nil {
			if out.Methods == nil {
				out.Methods = map[string]Method{}
			}
			out.Methods[m.Name] = Method{Deprecation: dep}
		}
	}
	for _, k := range c.Constants {
		if dep := deprecatedAttribute(k.Attributes); dep != nil {
			if out.Constants == nil {
				out.Constants = map[string]ClassConstant{}
			}
			out.Constants[k.Name] = ClassConstant{Deprecation: dep}
		}
	}
	return out, nil
}

func (AttributeParser) ParseFunction(f *declaration.Function) (Function, error) {
	return Function{Deprecation: deprecatedAttribute(f.Attributes)}, nil
}

func deprecatedAttribute(attrs []declaration.Attribute) *Deprecation {
	for _, a := range attrs {
		if a.Class == "Deprecated" || a.Class == `\Deprecated` {
			return &Deprecation{}
		}
	}
	return nil
}
