// Package shard provides a concurrent map split into independently locked shards.
//
// Operations on one key lock only the shard that key hashes to, so unrelated
// keys never contend on a single global lock. Iteration copies each shard
// under its read lock and returns a snapshot.
package shard

import (
	"sync"

	"github.com/cespare/xxhash/v2"
)

// DefaultShards is the shard count used by New.
const DefaultShards = 32

type bucket[V any] struct {
	mu    sync.RWMutex
	items map[string]V
}

// Map is a string-keyed concurrent map.
type Map[V any] struct {
	buckets []*bucket[V]
}

// New creates a Map with DefaultShards shards.
func New[V any]() *Map[V] {
	return NewWithShards[V](DefaultShards)
}

// NewWithShards creates a Map with n shards (minimum 1).
func NewWithShards[V any](n int) *Map[V] {
	if n < 1 {
		n = 1
	}
	m := &Map[V]{buckets: make([]*bucket[V], n)}
	for i := range m.buckets {
		m.buckets[i] = &bucket[V]{items: make(map[string]V)}
	}
	return m
}

func (m *Map[V]) bucketFor(key string) *bucket[V] {
	return m.buckets[xxhash.Sum64String(key)%uint64(len(m.buckets))]
}

// Get returns the value stored under key.
func (m *Map[V]) Get(key string) (V, bool) {
	b := m.bucketFor(key)
	b.mu.RLock()
	defer b.mu.RUnlock()
	v, ok := b.items[key]
	return v, ok
}

// Set stores value under key, replacing any previous value.
func (m *Map[V]) Set(key string, value V) {
	b := m.bucketFor(key)
	b.mu.Lock()
	defer b.mu.Unlock()
	b.items[key] = value
}

// Delete removes key and reports whether it was present.
func (m *Map[V]) Delete(key string) bool {
	b := m.bucketFor(key)
	b.mu.Lock()
	defer b.mu.Unlock()
	_, ok := b.items[key]
	delete(b.items, key)
	return ok
}

// DeleteIf removes key only when pred accepts the current value.
func (m *Map[V]) DeleteIf(key string, pred func(V) bool) bool {
	b := m.bucketFor(key)
	b.mu.Lock()
	defer b.mu.Unlock()
	v, ok := b.items[key]
	if !ok || !pred(v) {
		return false
	}
	delete(b.items, key)
	return true
}

// GetOrCreate returns the value under key, storing create() first if absent.
func (m *Map[V]) GetOrCreate(key string, create func() V) V {
	b := m.bucketFor(key)
	b.mu.RLock()
	v, ok := b.items[key]
	b.mu.RUnlock()
	if ok {
		return v
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	if v, ok := b.items[key]; ok {
		return v
	}
	v = create()
	b.items[key] = v
	return v
}

// Update runs fn as an atomic read-modify-write on key. fn receives the
// current value and whether it exists; it returns the new value and whether
// to keep it (false deletes the key).
func (m *Map[V]) Update(key string, fn func(old V, exists bool) (V, bool)) V {
	b := m.bucketFor(key)
	b.mu.Lock()
	defer b.mu.Unlock()
	old, exists := b.items[key]
	v, keep := fn(old, exists)
	if keep {
		b.items[key] = v
	} else {
		delete(b.items, key)
	}
	return v
}

// Keys returns a snapshot of the keys.
func (m *Map[V]) Keys() []string {
	var keys []string
	for _, b := range m.buckets {
		b.mu.RLock()
		for k := range b.items {
			keys = append(keys, k)
		}
		b.mu.RUnlock()
	}
	return keys
}

// Values returns a snapshot of the values.
func (m *Map[V]) Values() []V {
	var values []V
	for _, b := range m.buckets {
		b.mu.RLock()
		for _, v := range b.items {
			values = append(values, v)
		}
		b.mu.RUnlock()
	}
	return values
}

// Range calls fn for every entry of a snapshot; returning false stops early.
// fn runs without any shard lock held.
func (m *Map[V]) Range(fn func(key string, value V) bool) {
	type entry struct {
		key   string
		value V
	}
	var entries []entry
	for _, b := range m.buckets {
		b.mu.RLock()
		for k, v := range b.items {
			entries = append(entries, entry{k, v})
		}
		b.mu.RUnlock()
	}
	for _, e := range entries {
		if !fn(e.key, e.value) {
			return
		}
	}
}

// Len returns the number of entries.
func (m *Map[V]) Len() int {
	n := 0
	for _, b := range m.buckets {
		b.mu.RLock()
		n += len(b.items)
		b.mu.RUnlock()
	}
	return n
}
