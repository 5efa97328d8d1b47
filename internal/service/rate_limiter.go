// internal/service/rate_limiter.go
package service

import (
    "context"
    "log"
    "time"

    "github.com/unclebandit/mailleopard-backend/internal/redisstore"
)

const rateLimitWindow = time.Second

// RateLimiter enforces a per-provider fixed-window request budget on
// the shared store, so the budget holds across all worker processes.
type RateLimiter struct {
    Store        redisstore.Store
    DefaultLimit int
}

// Allow atomically increments the provider's window counter and checks
// it against the limit. The window expiry is set only on the first
// increment, so the window stays fixed instead of sliding on every
// call. If the shared store is unavailable the limiter fails open:
// availability is worth more here than strict enforcement.
func (rl *RateLimiter) Allow(ctx context.Context, providerName string, limit int) bool {
    if limit <= 0 {
        limit = rl.DefaultLimit
    }

    key := "ratelimit:" + providerName

    count, err := rl.Store.Incr(ctx, key)
    if err != nil {
        log.Printf("⚠️ rate limiter unavailable for %s, allowing: %v\n", providerName, err)
        return true
    }

    if count == 1 {
        if err := rl.Store.Expire(ctx, key, rateLimitWindow); err != nil {
            log.Printf("⚠️ failed to set rate limit window for %s: %v\n", providerName, err)
        }
    }

    return count <= int64(limit)
}
