// Package ratelimit paces outbound mail API calls.
package ratelimit

import (
	"context"
	"time"

	"golang.org/x/time/rate"
)

// Limiter blocks until the next call may proceed.
type Limiter interface {
	Wait(ctx context.Context) error
}

// Fixed spaces calls at least Interval apart. The first call passes at once.
type Fixed struct {
	Interval time.Duration
	limiter  *rate.Limiter
}

// NewFixed returns a limiter allowing one call per interval. A non-positive
// interval never blocks.
func NewFixed(interval time.Duration) *Fixed {
	limit := rate.Inf
	if interval > 0 {
		limit = rate.Every(interval)
	}
	return &Fixed{Interval: interval, limiter: rate.NewLimiter(limit, 1)}
}

// Wait implements Limiter.
func (f *Fixed) Wait(ctx context.Context) error {
	return f.limiter.Wait(ctx)
}

type unlimited struct{}

func (unlimited) Wait(ctx context.Context) error {
	return ctx.Err()
}

// Unlimited never blocks. It still reports a cancelled context.
var Unlimited Limiter = unlimited{}
