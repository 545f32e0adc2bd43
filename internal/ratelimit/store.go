// Package ratelimit implements fixed-window request budgets. Each route
// composes its own limiter with its own (limit, window) pair; sensitive or
// expensive operations get materially lower budgets than reads. The Store
// interface is deliberately narrow so the in-process map can be swapped for
// a shared Redis counter in multi-instance deployments without touching
// call sites.
package ratelimit

import (
	"context"
	"time"
)

// Result reports the outcome of a single admission decision.
type Result struct {
	Allowed   bool
	Remaining int
	ResetAt   time.Time
}

// Store admits or rejects one request for the given key. Implementations
// never treat an absent record as an error; that is the fresh-window case.
type Store interface {
	Admit(ctx context.Context, key string, limit int, window time.Duration) (Result, error)
}
