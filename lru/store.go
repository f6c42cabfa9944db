// Copyright (C) 2025-2026, Memodex, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// Package lru provides bounded memoization stores with least-recently-used
// eviction. Use one of these instead of the default unbounded store when the
// argument space of the wrapped function is too large to retain in full.
package lru

import (
	"container/list"
	"sync"

	"github.com/memodex/memo"
)

var _ memo.Store[struct{}, struct{}] = (*Store[struct{}, struct{}])(nil)

// entry is a store entry.
type entry[K comparable, V any] struct {
	key   K
	value V
}

// Store is a thread-safe LRU store bounded by entry count.
type Store[K comparable, V any] struct {
	lock     sync.Mutex
	size     int
	onEvict  func(K, V)
	elements map[K]*list.Element
	order    *list.List
}

// New creates a new LRU store holding at most size entries.
func New[K comparable, V any](size int) *Store[K, V] {
	return NewWithOnEvict[K, V](size, nil)
}

// NewWithOnEvict creates a store that calls onEvict for each entry removed
// to make room for a newer one. Evict and Flush do not trigger the callback.
func NewWithOnEvict[K comparable, V any](size int, onEvict func(K, V)) *Store[K, V] {
	if size <= 0 {
		size = 1
	}
	return &Store[K, V]{
		size:     size,
		onEvict:  onEvict,
		elements: make(map[K]*list.Element),
		order:    list.New(),
	}
}

// Put inserts an entry into the store.
func (s *Store[K, V]) Put(key K, value V) {
	s.lock.Lock()
	defer s.lock.Unlock()

	if elem, ok := s.elements[key]; ok {
		elem.Value.(*entry[K, V]).value = value
		s.order.MoveToFront(elem)
		return
	}

	if s.order.Len() >= s.size {
		oldest := s.order.Back()
		if oldest != nil {
			e := oldest.Value.(*entry[K, V])
			s.removeElement(oldest)
			if s.onEvict != nil {
				s.onEvict(e.key, e.value)
			}
		}
	}

	e := &entry[K, V]{key: key, value: value}
	elem := s.order.PushFront(e)
	s.elements[key] = elem
}

// Get returns the entry with the key, if it exists, marking it most
// recently used.
func (s *Store[K, V]) Get(key K) (V, bool) {
	s.lock.Lock()
	defer s.lock.Unlock()

	if elem, ok := s.elements[key]; ok {
		s.order.MoveToFront(elem)
		return elem.Value.(*entry[K, V]).value, true
	}
	var zero V
	return zero, false
}

// Evict removes the specified entry from the store.
func (s *Store[K, V]) Evict(key K) {
	s.lock.Lock()
	defer s.lock.Unlock()

	if elem, ok := s.elements[key]; ok {
		s.removeElement(elem)
	}
}

// Flush removes all entries from the store.
func (s *Store[K, V]) Flush() {
	s.lock.Lock()
	defer s.lock.Unlock()

	s.elements = make(map[K]*list.Element)
	s.order.Init()
}

// Len returns the number of entries in the store.
func (s *Store[K, V]) Len() int {
	s.lock.Lock()
	defer s.lock.Unlock()
	return s.order.Len()
}

// PortionFilled returns the fraction of capacity currently in use (0 --> 1).
func (s *Store[K, V]) PortionFilled() float64 {
	s.lock.Lock()
	defer s.lock.Unlock()
	return float64(s.order.Len()) / float64(s.size)
}

func (s *Store[K, V]) removeElement(elem *list.Element) {
	e := elem.Value.(*entry[K, V])
	delete(s.elements, e.key)
	s.order.Remove(elem)
}
