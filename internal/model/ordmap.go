package model

import (
	"sort"

	"timebill/internal/id"
)

// OrderedMap is a mapping keyed by entity id whose canonical iteration order
// is ascending id order. Ids sort by creation time, so ascending order is
// creation order and reverse order is newest-first display order.
type OrderedMap[V any] struct {
	keys   []id.ID
	values map[id.ID]V
}

func NewOrderedMap[V any]() *OrderedMap[V] {
	return &OrderedMap[V]{values: make(map[id.ID]V)}
}

func (m *OrderedMap[V]) Len() int {
	if m == nil {
		return 0
	}
	return len(m.keys)
}

func (m *OrderedMap[V]) Get(k id.ID) (V, bool) {
	var zero V
	if m == nil {
		return zero, false
	}
	v, ok := m.values[k]
	if !ok {
		return zero, false
	}
	return v, true
}

// Set inserts or replaces the value for k, preserving ascending key order.
func (m *OrderedMap[V]) Set(k id.ID, v V) {
	if _, exists := m.values[k]; !exists {
		i := sort.Search(len(m.keys), func(i int) bool { return !m.keys[i].Less(k) })
		m.keys = append(m.keys, "")
		copy(m.keys[i+1:], m.keys[i:])
		m.keys[i] = k
	}
	m.values[k] = v
}

func (m *OrderedMap[V]) Delete(k id.ID) bool {
	if m == nil {
		return false
	}
	if _, exists := m.values[k]; !exists {
		return false
	}
	delete(m.values, k)
	i := sort.Search(len(m.keys), func(i int) bool { return !m.keys[i].Less(k) })
	m.keys = append(m.keys[:i], m.keys[i+1:]...)
	return true
}

// Keys returns ids in ascending (creation) order.
func (m *OrderedMap[V]) Keys() []id.ID {
	if m == nil {
		return nil
	}
	out := make([]id.ID, len(m.keys))
	copy(out, m.keys)
	return out
}

// KeysNewestFirst returns ids in reverse creation order, the default list
// display order.
func (m *OrderedMap[V]) KeysNewestFirst() []id.ID {
	if m == nil {
		return nil
	}
	out := make([]id.ID, len(m.keys))
	for i, k := range m.keys {
		out[len(m.keys)-1-i] = k
	}
	return out
}

// Last returns the most recently created pair.
func (m *OrderedMap[V]) Last() (id.ID, V, bool) {
	var zero V
	if m.Len() == 0 {
		return "", zero, false
	}
	k := m.keys[len(m.keys)-1]
	return k, m.values[k], true
}
