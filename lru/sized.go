// Copyright (C) 2025-2026, Memodex, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package lru

import (
	"container/list"
	"sync"

	"github.com/memodex/memo"
)

var _ memo.Store[struct{}, struct{}] = (*SizedStore[struct{}, struct{}])(nil)

// SizedStore is an LRU store bounded by total weight rather than entry
// count. The weight of an entry is fixed at Put time; useful when cached
// results vary widely in size.
type SizedStore[K comparable, V any] struct {
	mu        sync.Mutex
	maxWeight int
	weight    int
	weighFn   func(K, V) int
	onEvict   func(K, V)
	items     map[K]*list.Element
	order     *list.List
}

type sizedEntry[K comparable, V any] struct {
	key    K
	value  V
	weight int
}

// NewSized creates a weight-bounded LRU store. A nil weighFn weighs every
// entry as 1, making the store count-bounded.
func NewSized[K comparable, V any](maxWeight int, weighFn func(K, V) int) *SizedStore[K, V] {
	return NewSizedWithOnEvict[K, V](maxWeight, weighFn, nil)
}

// NewSizedWithOnEvict creates a store that calls onEvict for each entry
// removed to make room for a newer one. Evict and Flush do not trigger the
// callback.
func NewSizedWithOnEvict[K comparable, V any](maxWeight int, weighFn func(K, V) int, onEvict func(K, V)) *SizedStore[K, V] {
	if maxWeight <= 0 {
		maxWeight = 1
	}
	if weighFn == nil {
		weighFn = func(K, V) int { return 1 }
	}
	return &SizedStore[K, V]{
		maxWeight: maxWeight,
		weighFn:   weighFn,
		onEvict:   onEvict,
		items:     make(map[K]*list.Element),
		order:     list.New(),
	}
}

// Put inserts or replaces an entry, then evicts least-recently-used entries
// until the store is back under its weight bound. An entry heavier than the
// whole store is dropped without being retained; existing entries are left
// untouched, except that a stale entry under the same key is removed.
func (s *SizedStore[K, V]) Put(key K, value V) {
	s.mu.Lock()
	defer s.mu.Unlock()

	weight := s.weighFn(key, value)

	if elem, ok := s.items[key]; ok {
		if weight > s.maxWeight {
			s.removeLocked(elem)
			return
		}
		e := elem.Value.(*sizedEntry[K, V])
		s.weight += weight - e.weight
		e.value = value
		e.weight = weight
		s.order.MoveToFront(elem)
		s.trimLocked()
		return
	}

	if weight > s.maxWeight {
		return
	}
	e := &sizedEntry[K, V]{key: key, value: value, weight: weight}
	s.items[key] = s.order.PushFront(e)
	s.weight += weight
	s.trimLocked()
}

// Get retrieves an entry and marks it as most recently used.
func (s *SizedStore[K, V]) Get(key K) (V, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if elem, ok := s.items[key]; ok {
		s.order.MoveToFront(elem)
		return elem.Value.(*sizedEntry[K, V]).value, true
	}
	var zero V
	return zero, false
}

// Evict removes a key from the store.
func (s *SizedStore[K, V]) Evict(key K) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if elem, ok := s.items[key]; ok {
		s.removeLocked(elem)
	}
}

// Flush removes all entries.
func (s *SizedStore[K, V]) Flush() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.items = make(map[K]*list.Element)
	s.order.Init()
	s.weight = 0
}

// Len returns the number of entries.
func (s *SizedStore[K, V]) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.items)
}

// PortionFilled returns the ratio of weight used to max weight.
func (s *SizedStore[K, V]) PortionFilled() float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return float64(s.weight) / float64(s.maxWeight)
}

// trimLocked evicts from the cold end until the weight bound holds. The most
// recently inserted entry is always at the front, so it survives the trim.
func (s *SizedStore[K, V]) trimLocked() {
	for s.weight > s.maxWeight {
		back := s.order.Back()
		if back == nil {
			return
		}
		e := back.Value.(*sizedEntry[K, V])
		s.removeLocked(back)
		if s.onEvict != nil {
			s.onEvict(e.key, e.value)
		}
	}
}

func (s *SizedStore[K, V]) removeLocked(elem *list.Element) {
	e := elem.Value.(*sizedEntry[K, V])
	s.weight -= e.weight
	delete(s.items, e.key)
	s.order.Remove(elem)
}
