// internal/service/provider_service.go
package service

import (
    "context"
    "encoding/json"
    "log"
    "time"

    "github.com/unclebandit/mailleopard-backend/internal/model"
    "github.com/unclebandit/mailleopard-backend/internal/redisstore"
    "github.com/unclebandit/mailleopard-backend/internal/repository"
)

const (
    providersCacheKey = "providers:active"
    providersCacheTTL = time.Hour
)

// ProviderService is the provider registry: a read-through cache over
// the providers table, invalidated on writes.
type ProviderService struct {
    ProviderRepo repository.ProviderRepositoryInterface
    Store        redisstore.Store
}

// cachedProvider is the cache wire form. model.Provider hides the
// encrypted config from API responses with json:"-", but the processor
// needs it back on every cache hit, so the cache uses its own shape.
type cachedProvider struct {
    ID        string    `json:"id"`
    Name      string    `json:"name"`
    Type      string    `json:"type"`
    Priority  int       `json:"priority"`
    Status    string    `json:"status"`
    Config    string    `json:"config"`
    CreatedAt time.Time `json:"created_at"`
    UpdatedAt time.Time `json:"updated_at"`
}

func toCached(providers []model.Provider) []cachedProvider {
    out := make([]cachedProvider, len(providers))
    for i, p := range providers {
        out[i] = cachedProvider(p)
    }
    return out
}

func fromCached(entries []cachedProvider) []model.Provider {
    out := make([]model.Provider, len(entries))
    for i, e := range entries {
        out[i] = model.Provider(e)
    }
    return out
}

// GetActiveProviders returns the priority-ordered active provider set,
// from cache when possible. Cache misses repopulate from the database.
func (s *ProviderService) GetActiveProviders(ctx context.Context) ([]model.Provider, error) {
    cached, err := s.Store.Get(ctx, providersCacheKey)
    if err != nil {
        log.Println("⚠️ provider cache read failed:", err)
    } else if cached != "" {
        var entries []cachedProvider
        if err := json.Unmarshal([]byte(cached), &entries); err == nil {
            return fromCached(entries), nil
        }
        log.Println("⚠️ provider cache entry corrupt, reloading from DB")
    }

    providers, err := s.ProviderRepo.GetActiveProviders()
    if err != nil {
        return nil, err
    }

    if data, err := json.Marshal(toCached(providers)); err == nil {
        if err := s.Store.Set(ctx, providersCacheKey, string(data), providersCacheTTL); err != nil {
            log.Println("⚠️ provider cache write failed:", err)
        }
    }

    return providers, nil
}

func (s *ProviderService) MarkProviderDown(ctx context.Context, name string) error {
    if err := s.ProviderRepo.MarkProviderDown(name); err != nil {
        return err
    }
    s.invalidateCache(ctx)
    return nil
}

// SetProviderConfig upserts a provider row (config already encrypted by
// the caller) and invalidates the cache so the next read repopulates.
func (s *ProviderService) SetProviderConfig(ctx context.Context, p *model.Provider) error {
    if p.Status == "" {
        p.Status = model.ProviderStatusActive
    }
    if err := s.ProviderRepo.SetProviderConfig(p); err != nil {
        return err
    }
    s.invalidateCache(ctx)
    return nil
}

func (s *ProviderService) invalidateCache(ctx context.Context) {
    if err := s.Store.Del(ctx, providersCacheKey); err != nil {
        log.Println("⚠️ provider cache invalidation failed:", err)
        return
    }
    log.Println("✅ Provider cache invalidated")
}
