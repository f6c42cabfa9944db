// Copyright (C) 2025-2026, Memodex, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// Package memo provides generic function memoization backed by pluggable
// stores. A wrapped function is invoked at most once per distinct key on the
// happy path; repeated calls are served from the store. Failed calls are
// never cached, so a later call with the same key retries the function.
package memo

import (
	"sync/atomic"

	"go.uber.org/zap"
)

// Func is a fallible function of one comparable argument.
type Func[K comparable, V any] func(K) (V, error)

// Memo caches the results of a Func in a Store.
type Memo[K comparable, V any] struct {
	fn     Func[K, V]
	store  Store[K, V]
	logger *zap.Logger
	group  *inflightGroup[K, V]

	hits   uint64
	misses uint64
	errors uint64
}

// New wraps fn with a private MapStore. The store lives as long as the Memo
// and is not shared with anyone else.
func New[K comparable, V any](fn Func[K, V], opts ...Option) *Memo[K, V] {
	return NewWithStore(fn, NewMapStore[K, V](), opts...)
}

// NewWithStore wraps fn against a caller-owned store. The caller may inspect,
// populate, or flush the store independently; two Memos sharing one store
// share its entries.
func NewWithStore[K comparable, V any](fn Func[K, V], store Store[K, V], opts ...Option) *Memo[K, V] {
	cfg := defaultConfig()
	for _, opt := range opts {
		opt(&cfg)
	}
	m := &Memo[K, V]{
		fn:     fn,
		store:  store,
		logger: cfg.logger,
	}
	if cfg.dedupe {
		m.group = newInflightGroup[K, V]()
	}
	return m
}

// Call returns the result for key, computing it with the wrapped function on
// a miss. On a hit the wrapped function is not invoked.
func (m *Memo[K, V]) Call(key K) (V, error) {
	if value, ok := m.store.Get(key); ok {
		atomic.AddUint64(&m.hits, 1)
		return value, nil
	}
	atomic.AddUint64(&m.misses, 1)

	if m.group != nil {
		return m.group.do(key, func() (V, error) {
			return m.compute(key)
		})
	}
	return m.compute(key)
}

func (m *Memo[K, V]) compute(key K) (V, error) {
	m.logger.Debug("computing uncached result", zap.Any("key", key))
	value, err := m.fn(key)
	if err != nil {
		atomic.AddUint64(&m.errors, 1)
		var zero V
		return zero, err
	}
	m.store.Put(key, value)
	return value, nil
}

// Store returns the backing store for inspection and clearing.
func (m *Memo[K, V]) Store() Store[K, V] {
	return m.store
}

// Wrap memoizes fn with a private store. The returned function has the same
// signature as fn.
func Wrap[K comparable, V any](fn Func[K, V], opts ...Option) Func[K, V] {
	return New(fn, opts...).Call
}

// WrapWithStore memoizes fn against a caller-owned store.
func WrapWithStore[K comparable, V any](fn Func[K, V], store Store[K, V], opts ...Option) Func[K, V] {
	return NewWithStore(fn, store, opts...).Call
}

// WrapNoError memoizes an infallible function.
//
// fn is only ever called once for each argument.
func WrapNoError[K comparable, V any](fn func(K) V, opts ...Option) func(K) V {
	m := New(func(key K) (V, error) {
		return fn(key), nil
	}, opts...)
	return func(key K) V {
		value, _ := m.Call(key)
		return value
	}
}
