package cartographer

import (
	"sync"

	"Atlas/model"
)

// table is one entity kind's map with its own writer lock. Values are kept
// by pointer internally and handed out as clones.
type table[T any] struct {
	mu    sync.RWMutex
	rows  map[model.ID]*T
	clone func(T) T
}

func newTable[T any](clone func(T) T) *table[T] {
	return &table[T]{rows: make(map[model.ID]*T), clone: clone}
}

func (t *table[T]) get(id model.ID) (T, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	row, ok := t.rows[id]
	if !ok {
		var zero T
		return zero, false
	}
	return t.clone(*row), true
}

func (t *table[T]) has(id model.ID) bool {
	t.mu.RLock()
	defer t.mu.RUnlock()
	_, ok := t.rows[id]
	return ok
}

func (t *table[T]) all() []T {
	t.mu.RLock()
	defer t.mu.RUnlock()
	out := make([]T, 0, len(t.rows))
	for _, row := range t.rows {
		out = append(out, t.clone(*row))
	}
	return out
}

func (t *table[T]) len() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return len(t.rows)
}
