package locator

import (
	"context"
	"strings"
	"sync"
)

// Names are the top-level symbols a file declares.
type Names struct {
	Classes   []string
	Functions []string
	Constants []string
}

// Indexer extracts the top-level names of a file without building full
// declarations.
type Indexer interface {
	Names(ctx context.Context, res Resource) (Names, error)
}

// FileLocator resolves a path to a resource. In-memory locators use it to
// serve code for files that do not exist on disk.
type FileLocator interface {
	LocateFile(ctx context.Context, path string) (Resource, bool, error)
}

func (ls Locators) LocateFile(ctx context.Context, path string) (Resource, bool, error) {
	for _, l := range ls {
		fl, ok := l.(FileLocator)
		if !ok {
			continue
		}
		res, found, err := fl.LocateFile(ctx, path)
		if err != nil || found {
			return res, found, err
		}
	}
	return Resource{}, false, nil
}

// index maps names to paths. The first file to declare a name keeps it.
type index struct {
	mu        sync.RWMutex
	classes   map[string]string
	functions map[string]string
	constants map[string]string
}

func newIndex() *index {
	return &index{
		classes:   make(map[string]string),
		functions: make(map[string]string),
		constants: make(map[string]string),
	}
}

func (ix *index) add(path string, names Names) {
	ix.mu.Lock()
	defer ix.mu.Unlock()
	for _, n := range names.Classes {
		addFirst(ix.classes, foldName(n), path)
	}
	for _, n := range names.Functions {
		addFirst(ix.functions, foldName(n), path)
	}
	for _, n := range names.Constants {
		addFirst(ix.constants, strings.TrimPrefix(n, `\`), path)
	}
}

// remove drops every name pointing at path.
func (ix *index) remove(path string) {
	ix.mu.Lock()
	defer ix.mu.Unlock()
	for _, m := range []map[string]string{ix.classes, ix.functions, ix.constants} {
		for k, p := range m {
			if p == path {
				delete(m, k)
			}
		}
	}
}

func (ix *index) class(name string) (string, bool) {
	ix.mu.RLock()
	defer ix.mu.RUnlock()
	p, ok := ix.classes[foldName(name)]
	return p, ok
}

func (ix *index) function(name string) (string, bool) {
	ix.mu.RLock()
	defer ix.mu.RUnlock()
	p, ok := ix.functions[foldName(name)]
	return p, ok
}

func (ix *index) constant(name string) (string, bool) {
	ix.mu.RLock()
	defer ix.mu.RUnlock()
	p, ok := ix.constants[strings.TrimPrefix(name, `\`)]
	return p, ok
}

func (ix *index) len() int {
	ix.mu.RLock()
	defer ix.mu.RUnlock()
	return len(ix.classes) + len(ix.functions) + len(ix.constants)
}

func addFirst(m map[string]string, key, path string) {
	if _, ok := m[key]; !ok {
		m[key] = path
	}
}

func foldName(name string) string {
	return strings.ToLower(strings.TrimPrefix(name, `\`))
}
