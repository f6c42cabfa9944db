// Copyright (C) 2025-2026, Memodex, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package memo

// Store acts as a key value store backing a memoized function.
type Store[K comparable, V any] interface {
	// Put inserts a computed result into the store.
	Put(key K, value V)

	// Get returns the result stored under the key, if it exists.
	Get(key K) (V, bool)

	// Evict removes the specified entry from the store.
	Evict(key K)

	// Flush removes all entries from the store.
	Flush()

	// Len returns the number of entries in the store.
	Len() int
}

// Fetch returns the value stored under key, computing and storing it with fn
// on a miss. A failed compute leaves the store unmodified, so the next Fetch
// for the same key runs fn again.
func Fetch[K comparable, V any](store Store[K, V], key K, fn func() (V, error)) (V, error) {
	if value, ok := store.Get(key); ok {
		return value, nil
	}
	value, err := fn()
	if err != nil {
		var zero V
		return zero, err
	}
	store.Put(key, value)
	return value, nil
}
