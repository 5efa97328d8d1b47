// internal/service/selection.go
package service

import (
    "context"
    "log"

    "github.com/unclebandit/mailleopard-backend/internal/model"
    "github.com/unclebandit/mailleopard-backend/internal/redisstore"
)

const rotationCounterKey = "providers:rotation"

// RotationStrategy spreads traffic across providers by left-rotating
// the priority-ordered list. The rotation counter lives in the shared
// store, so the rotation is coordinated across all worker processes and
// survives restarts.
type RotationStrategy struct {
    Store redisstore.Store
}

// Rotate returns the list rotated left by (counter mod len). Lists of
// 0 or 1 entries pass through unchanged. If the shared store is
// unavailable the strategy fails open and returns the original order:
// selection must never block sending.
func (s *RotationStrategy) Rotate(ctx context.Context, providers []model.Provider) []model.Provider {
    if len(providers) <= 1 {
        return providers
    }

    counter, err := s.Store.Incr(ctx, rotationCounterKey)
    if err != nil {
        log.Println("⚠️ rotation counter unavailable, using unrotated order:", err)
        return providers
    }

    offset := int(counter % int64(len(providers)))
    if offset == 0 {
        return providers
    }

    rotated := make([]model.Provider, 0, len(providers))
    rotated = append(rotated, providers[offset:]...)
    rotated = append(rotated, providers[:offset]...)
    return rotated
}
