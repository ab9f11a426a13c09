package ratelimit

import (
	"context"
	"time"

	limiter "github.com/ulule/limiter/v3"
)

// StoreLimiter adapts a ulule limiter store to the Allower contract.
type StoreLimiter struct {
	Store limiter.Store
}

// Allow consumes one token for the key within the window.
func (l StoreLimiter) Allow(ctx context.Context, key string, window time.Duration, max int) (bool, int, time.Time, error) {
	if l.Store == nil || max <= 0 || window <= 0 {
		return true, max, time.Now().Add(window), nil
	}
	lim := limiter.New(l.Store, limiter.Rate{Period: window, Limit: int64(max)})
	res, err := lim.Get(ctx, key)
	if err != nil {
		return false, 0, time.Time{}, err
	}
	return !res.Reached, int(res.Remaining), time.Unix(res.Reset, 0), nil
}

// Fallback consults the primary limiter and, when it fails, the secondary,
// so a broken sliding window does not leave the route unlimited.
type Fallback struct {
	Primary   Allower
	Secondary Allower
}

// Allow delegates to the primary limiter and retries the decision on the
// secondary when the primary returns an error.
func (f Fallback) Allow(ctx context.Context, key string, window time.Duration, max int) (bool, int, time.Time, error) {
	allowed, remaining, reset, err := f.Primary.Allow(ctx, key, window, max)
	if err == nil || f.Secondary == nil {
		return allowed, remaining, reset, err
	}
	return f.Secondary.Allow(ctx, key, window, max)
}
