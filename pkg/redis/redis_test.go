package redis

import (
	"context"
	"testing"
	"time"

	"github.com/xzemt/omnialpha/pkg/config"
)

func disabledClient(t *testing.T) *Client {
	t.Helper()
	c, err := New(&config.Config{Redis: config.RedisConfig{Enabled: false}})
	if err != nil {
		t.Fatalf("New() with redis disabled: %v", err)
	}
	return c
}

func TestDisabledClientIsNoOp(t *testing.T) {
	c := disabledClient(t)
	if c.Enabled() {
		t.Error("Enabled() = true for disabled config")
	}
	if err := c.Close(); err != nil {
		t.Errorf("Close() on disabled client: %v", err)
	}
}

func TestCacheDegradesWhenDisabled(t *testing.T) {
	cache := NewCache(disabledClient(t), "test")
	ctx := context.Background()

	if err := cache.Set(ctx, "k", map[string]int{"a": 1}, time.Minute); err != nil {
		t.Errorf("Set() on disabled cache: %v", err)
	}

	var dest map[string]int
	found, err := cache.Get(ctx, "k", &dest)
	if err != nil {
		t.Errorf("Get() on disabled cache: %v", err)
	}
	if found {
		t.Error("Get() found = true on disabled cache")
	}
}

func TestRateLimiterAllowsAllWhenDisabled(t *testing.T) {
	rl := NewRateLimiter(disabledClient(t), "test")
	ctx := context.Background()

	for i := 0; i < 100; i++ {
		allowed, _, err := rl.Allow(ctx, QuotesRateLimit)
		if err != nil {
			t.Fatalf("Allow() on disabled limiter: %v", err)
		}
		if !allowed {
			t.Fatal("Allow() = false on disabled limiter")
		}
	}

	if err := rl.Wait(ctx, QuotesRateLimit); err != nil {
		t.Errorf("Wait() on disabled limiter: %v", err)
	}
}

func TestCacheKeys(t *testing.T) {
	if got := FinancialKey("profit", "sh.600000", 2023, 3); got != "financial:profit:sh.600000:2023:Q3" {
		t.Errorf("FinancialKey = %q", got)
	}
	if got := PoolKey("hs300", "2024-06-03"); got != "pool:hs300:2024-06-03" {
		t.Errorf("PoolKey = %q", got)
	}
}
