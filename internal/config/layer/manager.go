package layer

import (
	"errors"
	"fmt"
	"sort"
	"sync"
)

var (
	// ErrLayerNotFound is returned for an unknown layer name.
	ErrLayerNotFound = errors.New("layer not found")
	// ErrReadOnly is returned when writing to a read-only layer.
	ErrReadOnly = errors.New("layer is read-only")
)

// Manager keeps layers sorted by priority and caches their merge.
type Manager struct {
	mu     sync.RWMutex
	layers []*Layer
	merged map[string]any
	dirty  bool
}

// NewManager creates an empty manager.
func NewManager() *Manager {
	return &Manager{dirty: true}
}

// Put adds l, replacing any layer with the same name.
func (m *Manager) Put(l *Layer) {
	m.mu.Lock()
	defer m.mu.Unlock()

	for i, existing := range m.layers {
		if existing.Name == l.Name {
			m.layers[i] = l
			m.dirty = true
			return
		}
	}
	m.layers = append(m.layers, l)
	sort.SliceStable(m.layers, func(i, j int) bool {
		return m.layers[i].Priority < m.layers[j].Priority
	})
	m.dirty = true
}

// Remove drops a layer by name.
func (m *Manager) Remove(name string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	for i, l := range m.layers {
		if l.Name == name {
			m.layers = append(m.layers[:i], m.layers[i+1:]...)
			m.dirty = true
			return true
		}
	}
	return false
}

// Layer returns the named layer or nil.
func (m *Manager) Layer(name string) *Layer {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.find(name)
}

// Layers returns the layers in ascending priority.
func (m *Manager) Layers() []*Layer {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return append([]*Layer(nil), m.layers...)
}

// Merged returns a copy of all layers merged lowest priority first.
func (m *Manager) Merged() map[string]any {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.dirty || m.merged == nil {
		out := make(map[string]any)
		for _, l := range m.layers {
			out = Merge(out, l.Data)
		}
		m.merged = out
		m.dirty = false
	}
	return Clone(m.merged)
}

// Get returns the effective value at path and the layer providing it.
func (m *Manager) Get(path string) (any, *Layer, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	for i := len(m.layers) - 1; i >= 0; i-- {
		if v, ok := GetByPath(m.layers[i].Data, path); ok {
			return v, m.layers[i], true
		}
	}
	return nil, nil, false
}

// Set writes a value into the named layer.
func (m *Manager) Set(name, path string, value any) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	l := m.find(name)
	if l == nil {
		return fmt.Errorf("%w: %s", ErrLayerNotFound, name)
	}
	if l.ReadOnly {
		return fmt.Errorf("%w: %s", ErrReadOnly, name)
	}
	SetByPath(l.Data, path, value)
	m.dirty = true
	return nil
}

// Delete removes a value from the named layer.
func (m *Manager) Delete(name, path string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	l := m.find(name)
	if l == nil {
		return fmt.Errorf("%w: %s", ErrLayerNotFound, name)
	}
	if l.ReadOnly {
		return fmt.Errorf("%w: %s", ErrReadOnly, name)
	}
	if DeleteByPath(l.Data, path) {
		m.dirty = true
	}
	return nil
}

func (m *Manager) find(name string) *Layer {
	for _, l := range m.layers {
		if l.Name == name {
			return l
		}
	}
	return nil
}
