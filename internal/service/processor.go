// internal/service/processor.go
package service

import (
    "context"
    "log"

    "github.com/unclebandit/mailleopard-backend/internal/encryption"
    "github.com/unclebandit/mailleopard-backend/internal/model"
    "github.com/unclebandit/mailleopard-backend/internal/provider"
    "github.com/unclebandit/mailleopard-backend/internal/repository"
)

// Outcome classifies one delivery pass over the provider list. The
// worker consumes it to decide between acking and backoff redelivery;
// no errors cross the queue boundary.
type Outcome int

const (
    OutcomeSent Outcome = iota
    OutcomeRetry
    OutcomeFailed
)

type Result struct {
    Outcome Outcome
    Reason  string
}

// Processor drives one email through the delivery state machine:
// processing, then sent, retrying or failed.
type Processor struct {
    EmailRepo        repository.EmailRepositoryInterface
    Providers        *ProviderService
    Strategy         *RotationStrategy
    Limiter          *RateLimiter
    MasterKey        []byte
    DefaultRateLimit int

    // Factory defaults to provider.New; overridable in tests
    Factory func(ptype string, rawConfig []byte, defaultRateLimit int) provider.EmailProvider
}

// Process handles one dequeued job. attempt is the queue delivery
// attempt (1-based), maxAttempts the total retry budget. Redelivery of
// an already-handled job is tolerated: attempts rows just duplicate.
func (p *Processor) Process(ctx context.Context, emailID string, req model.EmailRequest, attempt, maxAttempts int) Result {
    if err := p.EmailRepo.UpdateStatus(emailID, model.EmailStatusProcessing, ""); err != nil {
        log.Println("⚠️ failed to mark email processing:", err)
        return p.finish(emailID, "failed to update email status: "+err.Error(), attempt, maxAttempts)
    }

    providers, err := p.Providers.GetActiveProviders(ctx)
    if err != nil {
        log.Println("⚠️ failed to load providers:", err)
        return p.finish(emailID, "failed to load providers: "+err.Error(), attempt, maxAttempts)
    }

    if len(providers) == 0 {
        return p.finish(emailID, "no active providers available", attempt, maxAttempts)
    }

    factory := p.Factory
    if factory == nil {
        factory = provider.New
    }

    lastErr := "all providers failed"

    for _, pr := range p.Strategy.Rotate(ctx, providers) {
        plaintext, err := encryption.Decrypt(p.MasterKey, pr.Config)
        if err != nil {
            msg := "failed to decrypt config for provider " + pr.Name
            log.Println("⚠️", msg, ":", err)
            p.addAttempt(emailID, pr.Name, model.AttemptStatusFailed, msg)
            lastErr = msg
            continue
        }

        adapter := factory(pr.Type, []byte(plaintext), p.DefaultRateLimit)
        if adapter == nil {
            log.Println("⚠️ skipping unknown or misconfigured provider type:", pr.Type)
            continue
        }

        if !p.Limiter.Allow(ctx, pr.Name, adapter.RateLimit()) {
            p.addAttempt(emailID, pr.Name, model.AttemptStatusRateLimitExceeded, "rate limit exceeded")
            continue
        }

        res := adapter.Send(ctx, req)
        if res.Success {
            p.addAttempt(emailID, pr.Name, model.AttemptStatusSuccess, "")
            if err := p.EmailRepo.UpdateStatus(emailID, model.EmailStatusSent, ""); err != nil {
                log.Println("⚠️ failed to mark email sent:", err)
            }
            log.Println("✅ Email sent:", emailID, "via", pr.Name)
            return Result{Outcome: OutcomeSent}
        }

        log.Printf("⚠️ provider %s failed: %s\n", pr.Name, res.Error)
        p.addAttempt(emailID, pr.Name, model.AttemptStatusFailed, res.Error)
        lastErr = res.Error
    }

    return p.finish(emailID, lastErr, attempt, maxAttempts)
}

// finish records the transitional or terminal status once a pass ends
// without a successful send.
func (p *Processor) finish(emailID, reason string, attempt, maxAttempts int) Result {
    if attempt >= maxAttempts {
        if err := p.EmailRepo.UpdateStatus(emailID, model.EmailStatusFailed, reason); err != nil {
            log.Println("⚠️ failed to mark email failed:", err)
        }
        log.Println("❌ Email permanently failed:", emailID, "-", reason)
        return Result{Outcome: OutcomeFailed, Reason: reason}
    }

    if err := p.EmailRepo.UpdateStatus(emailID, model.EmailStatusRetrying, reason); err != nil {
        log.Println("⚠️ failed to mark email retrying:", err)
    }
    return Result{Outcome: OutcomeRetry, Reason: reason}
}

func (p *Processor) addAttempt(emailID, providerName, status, errMsg string) {
    if err := p.EmailRepo.AddAttempt(emailID, providerName, status, errMsg); err != nil {
        log.Println("⚠️ failed to record attempt:", err)
    }
}
