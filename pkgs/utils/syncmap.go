package utils

import (
	"sort"
	"sync"
	"sync/atomic"
)

////////////////////////////////////////////////////////////////////////////////

// SyncMap is a typed wrapper over sync.Map.
type SyncMap[K comparable, V any] struct {
	sm sync.Map
}

func NewSyncMap[K comparable, V any]() *SyncMap[K, V] {
	return &SyncMap[K, V]{}
}

func (sm *SyncMap[K, V]) Load(key K) (V, bool) {
	value, ok := sm.sm.Load(key)
	if !ok {
		var zero V
		return zero, false
	}
	return value.(V), true
}

func (sm *SyncMap[K, V]) Store(key K, value V) {
	sm.sm.Store(key, value)
}

func (sm *SyncMap[K, V]) LoadOrStore(key K, value V) (V, bool) {
	existing, loaded := sm.sm.LoadOrStore(key, value)
	if loaded {
		return existing.(V), true
	}
	return value, false
}

// Range calls fn for every entry until fn returns false.
func (sm *SyncMap[K, V]) Range(fn func(key K, value V) bool) {
	sm.sm.Range(func(k, v any) bool {
		return fn(k.(K), v.(V))
	})
}

////////////////////////////////////////////////////////////////////////////////

// Counters is a set of named atomic counters safe for concurrent use.
type Counters struct {
	m SyncMap[string, *atomic.Int64]
}

func NewCounters() *Counters {
	return &Counters{}
}

// Inc adds one to the named counter and returns the new value.
func (c *Counters) Inc(name string) int64 {
	counter, _ := c.m.LoadOrStore(name, &atomic.Int64{})
	return counter.Add(1)
}

// Get returns the current value of the named counter.
func (c *Counters) Get(name string) int64 {
	counter, ok := c.m.Load(name)
	if !ok {
		return 0
	}
	return counter.Load()
}

// Snapshot returns all counter names in sorted order with their values.
func (c *Counters) Snapshot() ([]string, map[string]int64) {
	values := map[string]int64{}
	c.m.Range(func(name string, counter *atomic.Int64) bool {
		values[name] = counter.Load()
		return true
	})

	names := make([]string, 0, len(values))
	for name := range values {
		names = append(names, name)
	}
	sort.Strings(names)
	return names, values
}
