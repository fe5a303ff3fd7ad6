package matching

import "sync"

// memo caches the result of a pure string function keyed by its exact input.
// Safe for concurrent use; racing first calls may both compute, with identical results.
type memo[T any] struct {
	fn    func(string) T
	store sync.Map
}

func newMemo[T any](fn func(string) T) *memo[T] {
	return &memo[T]{fn: fn}
}

func (m *memo[T]) get(value string, enabled bool) T {
	if !enabled {
		return m.fn(value)
	}
	if v, ok := m.store.Load(value); ok {
		return v.(T)
	}
	v, _ := m.store.LoadOrStore(value, m.fn(value))
	return v.(T)
}

func (m *memo[T]) reset() {
	m.store.Clear()
}
