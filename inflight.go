// Copyright (C) 2025-2026, Memodex, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package memo

import "sync"

// inflightGroup deduplicates concurrent computations for the same key.
// The first caller for a key runs the function; later callers for the same
// key block until it finishes and share the result. Once the call completes
// the key is forgotten, so a failed call can be retried.
type inflightGroup[K comparable, V any] struct {
	mu    sync.Mutex
	calls map[K]*inflightCall[V]
}

type inflightCall[V any] struct {
	wg  sync.WaitGroup
	val V
	err error
}

func newInflightGroup[K comparable, V any]() *inflightGroup[K, V] {
	return &inflightGroup[K, V]{calls: make(map[K]*inflightCall[V])}
}

func (g *inflightGroup[K, V]) do(key K, fn func() (V, error)) (V, error) {
	g.mu.Lock()
	if c, ok := g.calls[key]; ok {
		g.mu.Unlock()
		c.wg.Wait()
		return c.val, c.err
	}
	c := &inflightCall[V]{}
	c.wg.Add(1)
	g.calls[key] = c
	g.mu.Unlock()

	c.val, c.err = fn()
	c.wg.Done()

	g.mu.Lock()
	delete(g.calls, key)
	g.mu.Unlock()

	return c.val, c.err
}
