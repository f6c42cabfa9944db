// Copyright (C) 2025-2026, Memodex, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package memo

import (
	"go.uber.org/zap"

	"github.com/memodex/memo/keys"
)

// VariadicFunc is a fallible function of arbitrary positional arguments.
type VariadicFunc func(args ...any) (any, error)

// Named is a set of keyword arguments. Two Named values with equal name/value
// pairs key the same cache entry regardless of construction order.
type Named map[string]any

// NamedFunc is a fallible function of keyword arguments.
type NamedFunc func(named Named) (any, error)

// WrapVariadic memoizes a function of arbitrary positional arguments, keyed
// by the canonical encoding of the argument values in order. Returns
// keys.ErrUnsupportedKey when an argument cannot be keyed; the wrapped
// function is not invoked in that case.
func WrapVariadic(fn VariadicFunc, opts ...Option) VariadicFunc {
	return WrapVariadicWithStore(fn, NewMapStore[string, any](), opts...)
}

// WrapVariadicWithStore is WrapVariadic against a caller-owned store.
func WrapVariadicWithStore(fn VariadicFunc, store Store[string, any], opts ...Option) VariadicFunc {
	call := newKeyedCall(positionalOnly(fn), store, opts)
	return func(args ...any) (any, error) {
		key, err := keys.Make(args, nil)
		if err != nil {
			return nil, err
		}
		return call(key, args, nil)
	}
}

// WrapNamed memoizes a function of keyword arguments. The key is insensitive
// to argument order: fn(Named{"a": 1, "b": 2}) and fn(Named{"b": 2, "a": 1})
// share one cache entry.
func WrapNamed(fn NamedFunc, opts ...Option) NamedFunc {
	return WrapNamedWithStore(fn, NewMapStore[string, any](), opts...)
}

// WrapNamedWithStore is WrapNamed against a caller-owned store.
func WrapNamedWithStore(fn NamedFunc, store Store[string, any], opts ...Option) NamedFunc {
	call := newKeyedCall(func(_ []any, named Named) (any, error) {
		return fn(named)
	}, store, opts)
	return func(named Named) (any, error) {
		key, err := keys.Make(nil, named)
		if err != nil {
			return nil, err
		}
		return call(key, nil, named)
	}
}

func positionalOnly(fn VariadicFunc) func([]any, Named) (any, error) {
	return func(args []any, _ Named) (any, error) {
		return fn(args...)
	}
}

// newKeyedCall builds the shared hit/miss path for the argument-keyed
// wrappers: check the store, compute on a miss, never store failures.
func newKeyedCall(fn func([]any, Named) (any, error), store Store[string, any], opts []Option) func(string, []any, Named) (any, error) {
	cfg := defaultConfig()
	for _, opt := range opts {
		opt(&cfg)
	}
	var group *inflightGroup[string, any]
	if cfg.dedupe {
		group = newInflightGroup[string, any]()
	}
	return func(key string, args []any, named Named) (any, error) {
		if value, ok := store.Get(key); ok {
			return value, nil
		}
		compute := func() (any, error) {
			cfg.logger.Debug("computing uncached result", zap.String("key", key))
			return Fetch(store, key, func() (any, error) {
				return fn(args, named)
			})
		}
		if group != nil {
			return group.do(key, compute)
		}
		return compute()
	}
}
