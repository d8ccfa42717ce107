package client

import (
	"encoding/json"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/Bla-nqo/fundiconnect-builder/internal/realtime"
)

// Mirror is a local, ordered copy of a remote table slice. Rows are keyed by
// id, so an optimistic insert and its echo from the feed collapse into one.
type Mirror[T any] struct {
	mu    sync.RWMutex
	items []T
	index map[uuid.UUID]int

	key       func(T) uuid.UUID
	createdAt func(T) time.Time
	ascending bool
	keep      func(T) bool
	carry     func(prev, next T) T

	changed chan struct{}
}

// NewMirror orders rows by createdAt, oldest first when ascending.
func NewMirror[T any](key func(T) uuid.UUID, createdAt func(T) time.Time, ascending bool) *Mirror[T] {
	return &Mirror[T]{
		key:       key,
		createdAt: createdAt,
		ascending: ascending,
		index:     map[uuid.UUID]int{},
		changed:   make(chan struct{}, 1),
	}
}

// Changes fires after the mirror changes. Bursts coalesce into one signal.
func (m *Mirror[T]) Changes() <-chan struct{} { return m.changed }

func (m *Mirror[T]) signal() {
	select {
	case m.changed <- struct{}{}:
	default:
	}
}

// Keep drops rows for which pred is false, both on Reset and on Apply. A
// row updated out of the view's slice is removed rather than kept stale.
func (m *Mirror[T]) Keep(pred func(T) bool) *Mirror[T] {
	m.mu.Lock()
	m.keep = pred
	m.mu.Unlock()
	return m
}

// Carry lets a feed row inherit fields from the row it replaces. Feed records
// are bare table rows, so joined relations would otherwise be lost.
func (m *Mirror[T]) Carry(fn func(prev, next T) T) *Mirror[T] {
	m.mu.Lock()
	m.carry = fn
	m.mu.Unlock()
	return m
}

func (m *Mirror[T]) Reset(items []T) {
	defer m.signal()
	m.mu.Lock()
	defer m.mu.Unlock()
	m.items = m.items[:0]
	m.index = make(map[uuid.UUID]int, len(items))
	for _, it := range items {
		if m.keep != nil && !m.keep(it) {
			continue
		}
		if i, ok := m.index[m.key(it)]; ok {
			m.items[i] = it
			continue
		}
		m.index[m.key(it)] = len(m.items)
		m.items = append(m.items, it)
	}
	m.sortLocked()
}

// Upsert inserts item or replaces the row with the same id in place. It
// reports whether the row was new.
func (m *Mirror[T]) Upsert(item T) bool {
	defer m.signal()
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.upsertLocked(item)
}

func (m *Mirror[T]) upsertLocked(item T) bool {
	id := m.key(item)
	if i, ok := m.index[id]; ok {
		m.items[i] = item
		m.sortLocked()
		return false
	}
	m.items = append(m.items, item)
	m.sortLocked()
	return true
}

// UpsertAll merges a fetched page without dropping rows spliced in meanwhile.
func (m *Mirror[T]) UpsertAll(items []T) {
	defer m.signal()
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, it := range items {
		if m.keep != nil && !m.keep(it) {
			continue
		}
		id := m.key(it)
		if i, ok := m.index[id]; ok {
			m.items[i] = it
			continue
		}
		m.index[id] = len(m.items)
		m.items = append(m.items, it)
	}
	m.sortLocked()
}

func (m *Mirror[T]) Remove(id uuid.UUID) bool {
	defer m.signal()
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.removeLocked(id)
}

func (m *Mirror[T]) removeLocked(id uuid.UUID) bool {
	i, ok := m.index[id]
	if !ok {
		return false
	}
	m.items = append(m.items[:i], m.items[i+1:]...)
	m.reindexLocked()
	return true
}

// Apply splices one feed change into the mirror.
func (m *Mirror[T]) Apply(ch realtime.Change) error {
	raw := ch.Record
	if ch.Type == realtime.EventDelete {
		raw = ch.Old
	}
	if len(raw) == 0 {
		return fmt.Errorf("mirror: %s change on %s has no row", ch.Type, ch.Table)
	}
	var row T
	if err := json.Unmarshal(raw, &row); err != nil {
		return fmt.Errorf("mirror: decode %s row: %w", ch.Table, err)
	}

	defer m.signal()
	m.mu.Lock()
	defer m.mu.Unlock()
	if ch.Type == realtime.EventDelete || (m.keep != nil && !m.keep(row)) {
		m.removeLocked(m.key(row))
		return nil
	}
	if m.carry != nil {
		if i, ok := m.index[m.key(row)]; ok {
			row = m.carry(m.items[i], row)
		}
	}
	m.upsertLocked(row)
	return nil
}

func (m *Mirror[T]) Get(id uuid.UUID) (T, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	i, ok := m.index[id]
	if !ok {
		var zero T
		return zero, false
	}
	return m.items[i], true
}

// Snapshot returns a copy safe to range over while the mirror changes.
func (m *Mirror[T]) Snapshot() []T {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]T, len(m.items))
	copy(out, m.items)
	return out
}

func (m *Mirror[T]) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.items)
}

// sortLocked orders by creation time, then id so equal timestamps stay stable.
func (m *Mirror[T]) sortLocked() {
	sort.SliceStable(m.items, func(i, j int) bool {
		ti, tj := m.createdAt(m.items[i]), m.createdAt(m.items[j])
		if !ti.Equal(tj) {
			if m.ascending {
				return ti.Before(tj)
			}
			return ti.After(tj)
		}
		return m.key(m.items[i]).String() < m.key(m.items[j]).String()
	})
	m.reindexLocked()
}

func (m *Mirror[T]) reindexLocked() {
	m.index = make(map[uuid.UUID]int, len(m.items))
	for i, it := range m.items {
		m.index[m.key(it)] = i
	}
}
