package doctree

import (
	"context"
	"encoding/json"
	"sync"
)

// Memory is a mutex-guarded in-process document tree.
type Memory struct {
	mu   sync.RWMutex
	root any
}

// NewMemory constructs an empty tree.
func NewMemory() *Memory {
	return &Memory{}
}

// Get decodes the value at path into out. A missing value leaves out untouched.
func (m *Memory) Get(_ context.Context, path string, out any) error {
	m.mu.RLock()
	value := Get(m.root, SplitPath(path))
	var (
		raw []byte
		err error
	)
	if value != nil {
		raw, err = json.Marshal(value)
	}
	m.mu.RUnlock()
	if err != nil || value == nil {
		return err
	}
	return json.Unmarshal(raw, out)
}

// Put replaces the value at path.
func (m *Memory) Put(_ context.Context, path string, value any) error {
	normalized, err := Normalize(value)
	if err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.root = Set(m.root, SplitPath(path), normalized)
	return nil
}

// Delete removes the value at path.
func (m *Memory) Delete(_ context.Context, path string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.root = Delete(m.root, SplitPath(path))
	return nil
}
