package safe

import (
	"sort"
	"sync"
)

// Map is a concurrency & type safe map
type Map[T any] struct {
	mu   sync.RWMutex
	data map[string]T
}

// NewMap returns a Map seeded with data. The map takes ownership of data.
func NewMap[T any](data map[string]T) *Map[T] {
	if data == nil {
		data = map[string]T{}
	}
	return &Map[T]{
		data: data,
	}
}

// Get returns the value of key (the zero value if missing)
func (m *Map[T]) Get(key string) T {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.data[key]
}

// Lookup returns the value of key and whether it exists
func (m *Map[T]) Lookup(key string) (T, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	val, ok := m.data[key]
	return val, ok
}

func (m *Map[T]) Exists(key string) bool {
	_, ok := m.Lookup(key)
	return ok
}

func (m *Map[T]) Set(key string, value T) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.data == nil {
		m.data = map[string]T{}
	}
	m.data[key] = value
}

// SetFunc replaces the value of key with the output of fn while holding the lock
func (m *Map[T]) SetFunc(key string, fn func(T) T) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.data == nil {
		m.data = map[string]T{}
	}
	m.data[key] = fn(m.data[key])
}

func (m *Map[T]) Del(key string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.data, key)
}

// Keys returns the sorted keys of the map
func (m *Map[T]) Keys() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	keys := make([]string, 0, len(m.data))
	for k := range m.data {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
