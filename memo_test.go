// Copyright (C) 2025-2026, Memodex, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package memo

import (
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func TestWrapIdempotentHit(t *testing.T) {
	require := require.New(t)

	calls := 0
	double := Wrap(func(x int) (int, error) {
		calls++
		return 2 * x, nil
	})

	for i := 0; i < 5; i++ {
		got, err := double(3)
		require.NoError(err)
		require.Equal(6, got)
	}
	require.Equal(1, calls)
}

func TestKeyDiscrimination(t *testing.T) {
	require := require.New(t)

	m := New(func(x int) (int, error) {
		return x * x, nil
	})

	_, err := m.Call(1)
	require.NoError(err)
	_, err = m.Call(2)
	require.NoError(err)

	require.Equal(2, m.Store().Len())
}

func TestErrorsNotCached(t *testing.T) {
	require := require.New(t)

	errBroken := errors.New("broken")
	fail := true
	calls := 0
	g := Wrap(func(x int) (int, error) {
		calls++
		if fail {
			return 0, errBroken
		}
		return x, nil
	})

	_, err := g(7)
	require.ErrorIs(err, errBroken)
	require.Equal(1, calls)

	// The failure must not have poisoned the cache.
	fail = false
	got, err := g(7)
	require.NoError(err)
	require.Equal(7, got)
	require.Equal(2, calls)

	// Now it is a hit.
	_, err = g(7)
	require.NoError(err)
	require.Equal(2, calls)
}

func TestExternalStoreSharing(t *testing.T) {
	require := require.New(t)

	calls := 0
	f := func(x int) (int, error) {
		calls++
		return x + 1, nil
	}

	store := NewMapStore[int, int]()
	g1 := WrapWithStore(f, store)
	g2 := WrapWithStore(f, store)

	_, err := g1(7)
	require.NoError(err)
	require.Equal(1, calls)

	// g2 shares the store, so this is a hit.
	got, err := g2(7)
	require.NoError(err)
	require.Equal(8, got)
	require.Equal(1, calls)
	require.Equal(1, store.Len())
}

func TestPrivateStoreIsolation(t *testing.T) {
	require := require.New(t)

	calls := 0
	f := func(x int) (int, error) {
		calls++
		return x + 1, nil
	}

	g1 := Wrap(f)
	g2 := Wrap(f)

	_, err := g1(7)
	require.NoError(err)
	_, err = g2(7)
	require.NoError(err)
	require.Equal(2, calls)
}

func TestFlushInvalidates(t *testing.T) {
	require := require.New(t)

	calls := 0
	m := New(func(x int) (int, error) {
		calls++
		return x, nil
	})

	_, err := m.Call(1)
	require.NoError(err)
	_, err = m.Call(1)
	require.NoError(err)
	require.Equal(1, calls)

	m.Store().Flush()

	_, err = m.Call(1)
	require.NoError(err)
	require.Equal(2, calls)
}

func TestMemoizedFibonacci(t *testing.T) {
	require := require.New(t)

	calls := 0
	var fib Func[int, int]
	fib = Wrap(func(n int) (int, error) {
		calls++
		if n < 2 {
			return n, nil
		}
		a, err := fib(n - 1)
		if err != nil {
			return 0, err
		}
		b, err := fib(n - 2)
		if err != nil {
			return 0, err
		}
		return a + b, nil
	})

	got, err := fib(10)
	require.NoError(err)
	require.Equal(55, got)

	// Each of fib(0)..fib(10) is computed exactly once.
	require.Equal(11, calls)

	_, err = fib(10)
	require.NoError(err)
	require.Equal(11, calls)
}

func TestWrapNoError(t *testing.T) {
	require := require.New(t)

	calls := 0
	upper := WrapNoError(func(s string) string {
		calls++
		return s + "!"
	})

	require.Equal("go!", upper("go"))
	require.Equal("go!", upper("go"))
	require.Equal(1, calls)
}

func TestStats(t *testing.T) {
	require := require.New(t)

	errBoom := errors.New("boom")
	m := New(func(x int) (int, error) {
		if x < 0 {
			return 0, errBoom
		}
		return x, nil
	})

	_, _ = m.Call(1)  // miss
	_, _ = m.Call(1)  // hit
	_, _ = m.Call(2)  // miss
	_, _ = m.Call(-1) // miss + error

	stats := m.Stats()
	require.Equal(uint64(1), stats.Hits)
	require.Equal(uint64(3), stats.Misses)
	require.Equal(uint64(1), stats.Errors)
}

func TestDedupeCoalescesConcurrentCalls(t *testing.T) {
	require := require.New(t)

	var calls atomic.Int64
	g := Wrap(func(x int) (int, error) {
		calls.Add(1)
		time.Sleep(50 * time.Millisecond)
		return x * 10, nil
	}, WithDedupe())

	const workers = 10
	results := make([]int, workers)
	errs := make([]error, workers)

	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i], errs[i] = g(4)
		}(i)
	}
	wg.Wait()

	for i := 0; i < workers; i++ {
		require.NoError(errs[i])
		require.Equal(40, results[i])
	}
	require.Equal(int64(1), calls.Load())
}

func TestDedupeSharesErrorAcrossWaiters(t *testing.T) {
	require := require.New(t)

	errBroken := errors.New("broken")
	var calls atomic.Int64
	started := make(chan struct{})
	release := make(chan struct{})

	m := New(func(x int) (int, error) {
		if calls.Add(1) == 1 {
			close(started)
			<-release
			return 0, errBroken
		}
		return x * 2, nil
	}, WithDedupe())

	const workers = 5
	errs := make([]error, workers)
	var wg sync.WaitGroup

	wg.Add(1)
	go func() {
		defer wg.Done()
		_, errs[0] = m.Call(9)
	}()
	<-started

	// The first call is now blocked inside the function; everyone arriving
	// from here on joins it as a waiter.
	for i := 1; i < workers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = m.Call(9)
		}(i)
	}
	time.Sleep(50 * time.Millisecond)
	close(release)
	wg.Wait()

	for i := 0; i < workers; i++ {
		require.ErrorIs(errs[i], errBroken)
	}
	require.Equal(int64(1), calls.Load())
	require.Equal(0, m.Store().Len())

	// The failure was not cached, so the next call retries and succeeds.
	got, err := m.Call(9)
	require.NoError(err)
	require.Equal(18, got)
	require.Equal(int64(2), calls.Load())
}

func TestWithLoggerLogsMissesOnly(t *testing.T) {
	require := require.New(t)

	core, logs := observer.New(zap.DebugLevel)
	g := Wrap(func(x int) (int, error) {
		return x, nil
	}, WithLogger(zap.New(core)))

	_, err := g(1)
	require.NoError(err)
	_, err = g(1)
	require.NoError(err)

	require.Equal(1, logs.Len())
}
