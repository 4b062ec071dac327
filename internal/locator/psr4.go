package locator

import (
	"context"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// Psr4 maps namespace prefixes to base directories.
type Psr4 struct {
	prefixes []psr4Prefix
}

type psr4Prefix struct {
	namespace string
	dirs      []string
}

// NewPsr4 builds a PSR-4 locator. Prefixes are namespace names with or
// without the trailing backslash; the empty prefix is a fallback for every
// class.
func NewPsr4(mapping map[string][]string) *Psr4 {
	p := &Psr4{}
	for ns, dirs := range mapping {
		ns = strings.Trim(ns, `\`)
		if ns != "" {
			ns += `\`
		}
		p.prefixes = append(p.prefixes, psr4Prefix{namespace: ns, dirs: dirs})
	}
	// Longest prefix first.
	sort.Slice(p.prefixes, func(i, j int) bool {
		a, b := p.prefixes[i].namespace, p.prefixes[j].namespace
		if len(a) != len(b) {
			return len(a) > len(b)
		}
		return a < b
	})
	return p
}

func (p *Psr4) LocateClass(_ context.Context, name string) (Resource, bool, error) {
	name = strings.TrimPrefix(name, `\`)
	for _, prefix := range p.prefixes {
		if !strings.HasPrefix(name, prefix.namespace) {
			continue
		}
		rel := strings.ReplaceAll(name[len(prefix.namespace):], `\`, string(filepath.Separator)) + ".php"
		for _, dir := range prefix.dirs {
			path := filepath.Join(dir, rel)
			if info, err := os.Stat(path); err == nil && !info.IsDir() {
				return File(path), true, nil
			}
		}
	}
	return Resource{}, false, nil
}
