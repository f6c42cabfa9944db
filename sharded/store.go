// Copyright (C) 2025-2026, Memodex, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// Package sharded provides a string-keyed memoization store spread across
// shards to reduce lock contention. Intended for one store shared by many
// goroutines, e.g. behind a memoized function hit from every request path.
package sharded

import (
	"sync"
	"sync/atomic"

	"github.com/spaolacci/murmur3"

	"github.com/memodex/memo"
)

const (
	numShards = 256
	shardMask = numShards - 1
)

var _ memo.Store[string, struct{}] = (*Store[struct{}])(nil)

// Stats contains store performance counters.
type Stats struct {
	EntriesCount uint64
	GetCalls     uint64
	PutCalls     uint64
	Misses       uint64
}

// Store is a sharded, unbounded memoization store. Keys are hashed with
// murmur3 to pick a shard; each shard has its own lock.
type Store[V any] struct {
	shards   [numShards]*shard[V]
	getCalls uint64
	putCalls uint64
	misses   uint64
}

type shard[V any] struct {
	mu    sync.RWMutex
	items map[string]V
}

// New creates an empty sharded store.
func New[V any]() *Store[V] {
	s := &Store[V]{}
	for i := range s.shards {
		s.shards[i] = &shard[V]{items: make(map[string]V)}
	}
	return s
}

func (s *Store[V]) shard(key string) *shard[V] {
	return s.shards[murmur3.Sum32([]byte(key))&shardMask]
}

// Put inserts or replaces an entry.
func (s *Store[V]) Put(key string, value V) {
	atomic.AddUint64(&s.putCalls, 1)
	sh := s.shard(key)
	sh.mu.Lock()
	sh.items[key] = value
	sh.mu.Unlock()
}

// Get returns the entry with the key, if it exists.
func (s *Store[V]) Get(key string) (V, bool) {
	atomic.AddUint64(&s.getCalls, 1)
	sh := s.shard(key)
	sh.mu.RLock()
	value, ok := sh.items[key]
	sh.mu.RUnlock()
	if !ok {
		atomic.AddUint64(&s.misses, 1)
	}
	return value, ok
}

// Evict removes a key from the store.
func (s *Store[V]) Evict(key string) {
	sh := s.shard(key)
	sh.mu.Lock()
	delete(sh.items, key)
	sh.mu.Unlock()
}

// Flush removes all entries from every shard.
func (s *Store[V]) Flush() {
	for _, sh := range s.shards {
		sh.mu.Lock()
		sh.items = make(map[string]V)
		sh.mu.Unlock()
	}
}

// Len returns the total number of entries across all shards.
func (s *Store[V]) Len() int {
	total := 0
	for _, sh := range s.shards {
		sh.mu.RLock()
		total += len(sh.items)
		sh.mu.RUnlock()
	}
	return total
}

// UpdateStats populates the provided stats struct.
func (s *Store[V]) UpdateStats(st *Stats) {
	if st == nil {
		return
	}
	var entries uint64
	for _, sh := range s.shards {
		sh.mu.RLock()
		entries += uint64(len(sh.items))
		sh.mu.RUnlock()
	}
	st.EntriesCount = entries
	st.GetCalls = atomic.LoadUint64(&s.getCalls)
	st.PutCalls = atomic.LoadUint64(&s.putCalls)
	st.Misses = atomic.LoadUint64(&s.misses)
}
