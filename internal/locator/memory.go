package locator

import (
	"context"
	"fmt"
	"sync"
)

// Memory serves in-memory sources. Each added file is indexed immediately.
type Memory struct {
	indexer Indexer
	index   *index

	mu    sync.RWMutex
	files map[string][]byte
}

func NewMemory(indexer Indexer) *Memory {
	return &Memory{indexer: indexer, index: newIndex(), files: make(map[string][]byte)}
}

// Add registers code under path, replacing any previous code for it.
func (m *Memory) Add(ctx context.Context, path string, code []byte) error {
	res := Source(path, code)
	names, err := m.indexer.Names(ctx, res)
	if err != nil {
		return fmt.Errorf("locator: index %s: %w", path, err)
	}
	m.mu.Lock()
	m.files[path] = code
	m.mu.Unlock()
	m.index.remove(path)
	m.index.add(path, names)
	return nil
}

func (m *Memory) LocateFile(_ context.Context, path string) (Resource, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	code, ok := m.files[path]
	if !ok {
		return Resource{}, false, nil
	}
	return Source(path, code), true, nil
}

func (m *Memory) LocateClass(ctx context.Context, name string) (Resource, bool, error) {
	return m.locate(ctx, m.index.class, name)
}

func (m *Memory) LocateFunction(ctx context.Context, name string) (Resource, bool, error) {
	return m.locate(ctx, m.index.function, name)
}

func (m *Memory) LocateConstant(ctx context.Context, name string) (Resource, bool, error) {
	return m.locate(ctx, m.index.constant, name)
}

func (m *Memory) locate(ctx context.Context, lookup func(string) (string, bool), name string) (Resource, bool, error) {
	path, ok := lookup(name)
	if !ok {
		return Resource{}, false, nil
	}
	return m.LocateFile(ctx, path)
}
