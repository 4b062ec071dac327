package declaration

import "strings"

// NameScope resolves names written in source against the current namespace
// and `use` imports. Import keys for classes and functions are lowercase.
type NameScope struct {
	Namespace string
	Classes   map[string]string
	Functions map[string]string
	Constants map[string]string
}

// ResolveClass returns the fully qualified class name for name.
func (s NameScope) ResolveClass(name string) string {
	if strings.HasPrefix(name, `\`) {
		return name[1:]
	}
	if rest, ok := cutPrefixFold(name, `namespace\`); ok {
		return s.Qualify(rest)
	}
	first, rest, qualified := strings.Cut(name, `\`)
	if target, ok := s.Classes[strings.ToLower(first)]; ok {
		if qualified {
			return target + `\` + rest
		}
		return target
	}
	return s.Qualify(name)
}

// ResolveFunction returns the namespaced candidate and, for unqualified
// names inside a namespace, the global fallback.
func (s NameScope) ResolveFunction(name string) (string, string) {
	return s.resolveFallback(name, func(short string) (string, bool) {
		target, ok := s.Functions[strings.ToLower(short)]
		return target, ok
	})
}

// ResolveConstant works like ResolveFunction with case-sensitive imports.
func (s NameScope) ResolveConstant(name string) (string, string) {
	return s.resolveFallback(name, func(short string) (string, bool) {
		target, ok := s.Constants[short]
		return target, ok
	})
}

func (s NameScope) resolveFallback(name string, imported func(string) (string, bool)) (string, string) {
	if strings.HasPrefix(name, `\`) {
		return name[1:], ""
	}
	if rest, ok := cutPrefixFold(name, `namespace\`); ok {
		return s.Qualify(rest), ""
	}
	if strings.Contains(name, `\`) {
		return s.ResolveClass(name), ""
	}
	if target, ok := imported(name); ok {
		return target, ""
	}
	if s.Namespace == "" {
		return name, ""
	}
	return s.Namespace + `\` + name, name
}

// Qualify prefixes name with the current namespace.
func (s NameScope) Qualify(name string) string {
	if s.Namespace == "" {
		return name
	}
	return s.Namespace + `\` + name
}

func cutPrefixFold(s, prefix string) (string, bool) {
	if len(s) >= len(prefix) && strings.EqualFold(s[:len(prefix)], prefix) {
		return s[len(prefix):], true
	}
	return "", false
}
