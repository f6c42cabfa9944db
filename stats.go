// Copyright (C) 2025-2026, Memodex, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package memo

import "sync/atomic"

// Stats contains counters for a memoized function.
type Stats struct {
	Hits   uint64
	Misses uint64
	Errors uint64
}

// Stats returns a snapshot of the Memo's counters. A call that misses and
// then fails counts as both a miss and an error.
func (m *Memo[K, V]) Stats() Stats {
	return Stats{
		Hits:   atomic.LoadUint64(&m.hits),
		Misses: atomic.LoadUint64(&m.misses),
		Errors: atomic.LoadUint64(&m.errors),
	}
}
