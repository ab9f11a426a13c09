package ratelimit

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/ulule/limiter/v3/drivers/store/memory"
)

func TestStoreLimiterEnforcesLimit(t *testing.T) {
	l := StoreLimiter{Store: memory.NewStore()}

	allowed, _, _, err := l.Allow(context.Background(), "static", time.Minute, 1)
	if err != nil {
		t.Fatalf("first allow: %v", err)
	}
	if !allowed {
		t.Fatal("expected first request allowed")
	}

	allowed, remaining, _, err := l.Allow(context.Background(), "static", time.Minute, 1)
	if err != nil {
		t.Fatalf("second allow: %v", err)
	}
	if allowed {
		t.Fatal("expected second request blocked")
	}
	if remaining != 0 {
		t.Fatalf("expected zero remaining, got %d", remaining)
	}
}

type failingAllower struct{}

func (failingAllower) Allow(context.Context, string, time.Duration, int) (bool, int, time.Time, error) {
	return false, 0, time.Time{}, errors.New("redis unavailable")
}

func TestFallbackUsesSecondaryOnPrimaryError(t *testing.T) {
	f := Fallback{
		Primary:   failingAllower{},
		Secondary: StoreLimiter{Store: memory.NewStore()},
	}

	allowed, _, _, err := f.Allow(context.Background(), "cb", time.Minute, 1)
	if err != nil {
		t.Fatalf("fallback allow: %v", err)
	}
	if !allowed {
		t.Fatal("expected secondary limiter to allow first request")
	}

	allowed, _, _, err = f.Allow(context.Background(), "cb", time.Minute, 1)
	if err != nil {
		t.Fatalf("fallback allow: %v", err)
	}
	if allowed {
		t.Fatal("expected secondary limiter to block second request")
	}
}
