// Copyright (C) 2025-2026, Memodex, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package memo

import "go.uber.org/zap"

type config struct {
	logger *zap.Logger
	dedupe bool
}

func defaultConfig() config {
	return config{
		logger: zap.NewNop(),
	}
}

// Option configures a Memo at construction time.
type Option func(*config)

// WithLogger attaches a logger. Miss-path computations are logged at debug
// level with the key as a structured field.
func WithLogger(logger *zap.Logger) Option {
	return func(c *config) {
		c.logger = logger
	}
}

// WithDedupe coalesces concurrent calls for the same uncached key into a
// single execution of the wrapped function. All callers receive the same
// result or the same error. Without this option concurrent misses may run
// the function more than once; the store is still never corrupted, the last
// Put wins.
func WithDedupe() Option {
	return func(c *config) {
		c.dedupe = true
	}
}
