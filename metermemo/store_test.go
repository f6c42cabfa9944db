// Copyright (C) 2025-2026, Memodex, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package metermemo

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"

	"github.com/memodex/memo"
)

func TestMeteredStore(t *testing.T) {
	require := require.New(t)

	registry := prometheus.NewRegistry()
	store, err := New("test", registry, memo.NewMapStore[string, int]())
	require.NoError(err)

	_, ok := store.Get("a")
	require.False(ok)
	require.Equal(1.0, testutil.ToFloat64(store.metrics.getCount.With(missLabels)))

	store.Put("a", 1)
	require.Equal(1.0, testutil.ToFloat64(store.metrics.putCount))
	require.Equal(1.0, testutil.ToFloat64(store.metrics.len))

	val, ok := store.Get("a")
	require.True(ok)
	require.Equal(1, val)
	require.Equal(1.0, testutil.ToFloat64(store.metrics.getCount.With(hitLabels)))

	store.Evict("a")
	require.Equal(0.0, testutil.ToFloat64(store.metrics.len))
}

func TestMeteredStoreDuplicateRegistration(t *testing.T) {
	require := require.New(t)

	registry := prometheus.NewRegistry()
	_, err := New("dup", registry, memo.NewMapStore[string, int]())
	require.NoError(err)

	_, err = New("dup", registry, memo.NewMapStore[string, int]())
	require.Error(err)
}

func TestMeteredStoreBacksMemoizedFunction(t *testing.T) {
	require := require.New(t)

	registry := prometheus.NewRegistry()
	store, err := New("fn", registry, memo.NewMapStore[string, string]())
	require.NoError(err)

	calls := 0
	g := memo.WrapWithStore(func(s string) (string, error) {
		calls++
		return s + s, nil
	}, store)

	got, err := g("ab")
	require.NoError(err)
	require.Equal("abab", got)
	_, err = g("ab")
	require.NoError(err)

	require.Equal(1, calls)
	require.Equal(1.0, testutil.ToFloat64(store.metrics.getCount.With(hitLabels)))
	require.Equal(1.0, testutil.ToFloat64(store.metrics.getCount.With(missLabels)))
}
