package service_test

import (
	"context"
	"encoding/hex"
	"testing"

	"github.com/unclebandit/mailleopard-backend/internal/encryption"
	"github.com/unclebandit/mailleopard-backend/internal/model"
	"github.com/unclebandit/mailleopard-backend/internal/provider"
	"github.com/unclebandit/mailleopard-backend/internal/service"
)

// --- Mocks ---

type recordedAttempt struct {
	Provider string
	Status   string
	Error    string
}

type recordedStatus struct {
	Status string
	Error  string
}

// MockEmailRepo records status transitions and attempt rows.
type MockEmailRepo struct {
	statuses []recordedStatus
	attempts []recordedAttempt
}

func (m *MockEmailRepo) Create(req model.EmailRequest) (*model.Email, error) { return nil, nil }
func (m *MockEmailRepo) UpdateStatus(emailID, status, lastError string) error {
	m.statuses = append(m.statuses, recordedStatus{Status: status, Error: lastError})
	return nil
}
func (m *MockEmailRepo) AddAttempt(emailID, providerName, status, errMsg string) error {
	m.attempts = append(m.attempts, recordedAttempt{Provider: providerName, Status: status, Error: errMsg})
	return nil
}
func (m *MockEmailRepo) GetByID(emailID string) (*model.Email, []model.Attempt, error) {
	return nil, nil, nil
}
func (m *MockEmailRepo) List(status string, offset, limit int) ([]*model.Email, int, error) {
	return nil, 0, nil
}
func (m *MockEmailRepo) GetByIDs(ids []string) ([]*model.Email, error) { return nil, nil }

func (m *MockEmailRepo) lastStatus() recordedStatus {
	if len(m.statuses) == 0 {
		return recordedStatus{}
	}
	return m.statuses[len(m.statuses)-1]
}

// MockProviderRepo serves a fixed provider list.
type MockProviderRepo struct {
	providers []model.Provider
}

func (m *MockProviderRepo) GetActiveProviders() ([]model.Provider, error) { return m.providers, nil }
func (m *MockProviderRepo) MarkProviderDown(name string) error            { return nil }
func (m *MockProviderRepo) SetProviderConfig(p *model.Provider) error     { return nil }

// stubAdapter returns a scripted result per provider name.
type stubAdapter struct {
	name   string
	rate   int
	result provider.SendResult
}

func (a *stubAdapter) Name() string { return a.name }
func (a *stubAdapter) Send(ctx context.Context, req model.EmailRequest) provider.SendResult {
	return a.result
}
func (a *stubAdapter) RateLimit() int { return a.rate }

// --- Helpers ---

var processorTestKey, _ = hex.DecodeString("000102030405060708090a0b0c0d0e0f101112131415161718191a1b1c1d1e1f")

func encryptedConfig(t *testing.T, plaintext string) string {
	t.Helper()
	encrypted, err := encryption.Encrypt(processorTestKey, plaintext)
	if err != nil {
		t.Fatal(err)
	}
	return encrypted
}

// newProcessor builds a processor whose factory hands out the stubbed
// adapters by provider name.
func newProcessor(emailRepo *MockEmailRepo, providerRepo *MockProviderRepo, results map[string]provider.SendResult) *service.Processor {
	store := newFakeStore()
	return &service.Processor{
		EmailRepo:        emailRepo,
		Providers:        &service.ProviderService{ProviderRepo: providerRepo, Store: store},
		Strategy:         &service.RotationStrategy{Store: store},
		Limiter:          &service.RateLimiter{Store: store, DefaultLimit: 100},
		MasterKey:        processorTestKey,
		DefaultRateLimit: 100,
		Factory: func(ptype string, rawConfig []byte, defaultRateLimit int) provider.EmailProvider {
			result, ok := results[ptype]
			if !ok {
				return nil
			}
			return &stubAdapter{name: ptype, rate: 100, result: result}
		},
	}
}

func testRequest() model.EmailRequest {
	return model.EmailRequest{
		From:    "noreply@example.com",
		To:      []string{"user@example.com"},
		Subject: "hello",
		Body:    model.EmailContent{Text: "hi"},
	}
}

// --- Tests ---

// One email, two providers: the first fails, the second succeeds.
func TestProcessFailoverToSecondProvider(t *testing.T) {
	emailRepo := &MockEmailRepo{}
	providerRepo := &MockProviderRepo{providers: []model.Provider{
		{Name: "primary", Type: "type-a", Priority: 1, Status: model.ProviderStatusActive, Config: encryptedConfig(t, "{}")},
		{Name: "backup", Type: "type-b", Priority: 2, Status: model.ProviderStatusActive, Config: encryptedConfig(t, "{}")},
	}}

	p := newProcessor(emailRepo, providerRepo, map[string]provider.SendResult{
		"type-a": {Success: false, Error: "connection refused"},
		"type-b": {Success: true, ProviderID: "msg-1"},
	})
	// Pin the rotation so the priority order is preserved:
	// counter starts at 0, first Incr yields 1, offset 1 would rotate.
	// Use a single-increment pre-spin to land offset 0.
	p.Strategy.Rotate(context.Background(), providerRepo.providers)

	result := p.Process(context.Background(), "email-1", testRequest(), 1, 3)

	if result.Outcome != service.OutcomeSent {
		t.Fatalf("expected OutcomeSent, got %v (%s)", result.Outcome, result.Reason)
	}

	if len(emailRepo.attempts) != 2 {
		t.Fatalf("expected exactly 2 attempts, got %d: %+v", len(emailRepo.attempts), emailRepo.attempts)
	}
	if emailRepo.attempts[0].Provider != "primary" || emailRepo.attempts[0].Status != model.AttemptStatusFailed {
		t.Errorf("first attempt should be FAILED on primary, got %+v", emailRepo.attempts[0])
	}
	if emailRepo.attempts[1].Provider != "backup" || emailRepo.attempts[1].Status != model.AttemptStatusSuccess {
		t.Errorf("second attempt should be SUCCESS on backup, got %+v", emailRepo.attempts[1])
	}

	if last := emailRepo.lastStatus(); last.Status != model.EmailStatusSent {
		t.Errorf("final status should be sent, got %s", last.Status)
	}
}

// All providers fail on the final permitted attempt: terminal FAILED
// with the last provider's error.
func TestProcessAllProvidersFailFinalAttempt(t *testing.T) {
	emailRepo := &MockEmailRepo{}
	providerRepo := &MockProviderRepo{providers: []model.Provider{
		{Name: "primary", Type: "type-a", Priority: 1, Status: model.ProviderStatusActive, Config: encryptedConfig(t, "{}")},
		{Name: "backup", Type: "type-b", Priority: 2, Status: model.ProviderStatusActive, Config: encryptedConfig(t, "{}")},
	}}

	p := newProcessor(emailRepo, providerRepo, map[string]provider.SendResult{
		"type-a": {Success: false, Error: "timeout"},
		"type-b": {Success: false, Error: "mailbox unavailable"},
	})
	p.Strategy.Rotate(context.Background(), providerRepo.providers)

	result := p.Process(context.Background(), "email-2", testRequest(), 3, 3)

	if result.Outcome != service.OutcomeFailed {
		t.Fatalf("expected OutcomeFailed, got %v", result.Outcome)
	}

	last := emailRepo.lastStatus()
	if last.Status != model.EmailStatusFailed {
		t.Errorf("final status should be failed, got %s", last.Status)
	}
	if last.Error != "mailbox unavailable" {
		t.Errorf("stored error should be the last provider's error, got %q", last.Error)
	}
}

// All providers fail with attempts remaining: status retrying, the
// queue gets to redeliver.
func TestProcessAllProvidersFailWithBudgetLeft(t *testing.T) {
	emailRepo := &MockEmailRepo{}
	providerRepo := &MockProviderRepo{providers: []model.Provider{
		{Name: "only", Type: "type-a", Priority: 1, Status: model.ProviderStatusActive, Config: encryptedConfig(t, "{}")},
	}}

	p := newProcessor(emailRepo, providerRepo, map[string]provider.SendResult{
		"type-a": {Success: false, Error: "timeout"},
	})

	result := p.Process(context.Background(), "email-3", testRequest(), 1, 3)

	if result.Outcome != service.OutcomeRetry {
		t.Fatalf("expected OutcomeRetry, got %v", result.Outcome)
	}
	if last := emailRepo.lastStatus(); last.Status != model.EmailStatusRetrying || last.Error != "timeout" {
		t.Errorf("expected retrying with error, got %+v", last)
	}
}

// Zero active providers: fails immediately, no rotation, no rate
// limiting, no attempt rows.
func TestProcessNoActiveProviders(t *testing.T) {
	emailRepo := &MockEmailRepo{}
	providerRepo := &MockProviderRepo{providers: []model.Provider{}}
	store := newFakeStore()

	p := &service.Processor{
		EmailRepo: emailRepo,
		Providers: &service.ProviderService{ProviderRepo: providerRepo, Store: store},
		Strategy:  &service.RotationStrategy{Store: store},
		Limiter:   &service.RateLimiter{Store: store, DefaultLimit: 100},
		MasterKey: processorTestKey,
	}

	result := p.Process(context.Background(), "email-4", testRequest(), 3, 3)

	if result.Outcome != service.OutcomeFailed {
		t.Fatalf("expected OutcomeFailed, got %v", result.Outcome)
	}
	if result.Reason != "no active providers available" {
		t.Errorf("unexpected reason: %q", result.Reason)
	}
	if len(emailRepo.attempts) != 0 {
		t.Errorf("no attempts should be recorded, got %+v", emailRepo.attempts)
	}
	if store.counters["providers:rotation"] != 0 {
		t.Error("selection strategy must not be consulted with zero providers")
	}
	if len(store.counters) != 0 {
		t.Errorf("rate limiter must not be consulted with zero providers, counters: %v", store.counters)
	}
}

// A provider whose config cannot be decrypted gets a FAILED attempt and
// the loop moves on.
func TestProcessDecryptFailureSkipsToNextProvider(t *testing.T) {
	emailRepo := &MockEmailRepo{}
	providerRepo := &MockProviderRepo{providers: []model.Provider{
		{Name: "corrupted", Type: "type-a", Priority: 1, Status: model.ProviderStatusActive, Config: "not:valid:config"},
		{Name: "good", Type: "type-b", Priority: 2, Status: model.ProviderStatusActive, Config: encryptedConfig(t, "{}")},
	}}

	p := newProcessor(emailRepo, providerRepo, map[string]provider.SendResult{
		"type-a": {Success: true},
		"type-b": {Success: true, ProviderID: "msg-2"},
	})
	p.Strategy.Rotate(context.Background(), providerRepo.providers)

	result := p.Process(context.Background(), "email-5", testRequest(), 1, 3)

	if result.Outcome != service.OutcomeSent {
		t.Fatalf("expected OutcomeSent via the good provider, got %v", result.Outcome)
	}
	if len(emailRepo.attempts) != 2 {
		t.Fatalf("expected 2 attempts, got %+v", emailRepo.attempts)
	}
	if emailRepo.attempts[0].Provider != "corrupted" || emailRepo.attempts[0].Status != model.AttemptStatusFailed {
		t.Errorf("decryption failure should record a FAILED attempt, got %+v", emailRepo.attempts[0])
	}
}

// An unsupported provider type is skipped without an attempt row.
func TestProcessUnknownProviderTypeSkippedSilently(t *testing.T) {
	emailRepo := &MockEmailRepo{}
	providerRepo := &MockProviderRepo{providers: []model.Provider{
		{Name: "mystery", Type: "carrier-pigeon", Priority: 1, Status: model.ProviderStatusActive, Config: encryptedConfig(t, "{}")},
		{Name: "good", Type: "type-b", Priority: 2, Status: model.ProviderStatusActive, Config: encryptedConfig(t, "{}")},
	}}

	p := newProcessor(emailRepo, providerRepo, map[string]provider.SendResult{
		"type-b": {Success: true},
	})
	p.Strategy.Rotate(context.Background(), providerRepo.providers)

	result := p.Process(context.Background(), "email-6", testRequest(), 1, 3)

	if result.Outcome != service.OutcomeSent {
		t.Fatalf("expected OutcomeSent, got %v", result.Outcome)
	}
	if len(emailRepo.attempts) != 1 {
		t.Fatalf("the skipped provider must not produce an attempt row, got %+v", emailRepo.attempts)
	}
	if emailRepo.attempts[0].Provider != "good" {
		t.Errorf("expected attempt on good provider, got %+v", emailRepo.attempts[0])
	}
}

// A rate-limited provider gets a RATE_LIMIT_EXCEEDED attempt and the
// loop continues.
func TestProcessRateLimitedProviderRecordsAttempt(t *testing.T) {
	emailRepo := &MockEmailRepo{}
	providerRepo := &MockProviderRepo{providers: []model.Provider{
		{Name: "limited", Type: "type-a", Priority: 1, Status: model.ProviderStatusActive, Config: encryptedConfig(t, "{}")},
		{Name: "open", Type: "type-b", Priority: 2, Status: model.ProviderStatusActive, Config: encryptedConfig(t, "{}")},
	}}

	p := newProcessor(emailRepo, providerRepo, map[string]provider.SendResult{
		"type-a": {Success: true},
		"type-b": {Success: true},
	})
	p.Strategy.Rotate(context.Background(), providerRepo.providers)

	// Exhaust the limited provider's window before processing
	for i := 0; i < 100; i++ {
		p.Limiter.Allow(context.Background(), "limited", 100)
	}

	result := p.Process(context.Background(), "email-7", testRequest(), 1, 3)

	if result.Outcome != service.OutcomeSent {
		t.Fatalf("expected OutcomeSent via the open provider, got %v", result.Outcome)
	}
	if len(emailRepo.attempts) != 2 {
		t.Fatalf("expected 2 attempts, got %+v", emailRepo.attempts)
	}
	if emailRepo.attempts[0].Provider != "limited" || emailRepo.attempts[0].Status != model.AttemptStatusRateLimitExceeded {
		t.Errorf("expected RATE_LIMIT_EXCEEDED on the limited provider, got %+v", emailRepo.attempts[0])
	}
}

// Observed transitions stay within the allowed state machine.
func TestProcessStatusTransitions(t *testing.T) {
	emailRepo := &MockEmailRepo{}
	providerRepo := &MockProviderRepo{providers: []model.Provider{
		{Name: "only", Type: "type-a", Priority: 1, Status: model.ProviderStatusActive, Config: encryptedConfig(t, "{}")},
	}}

	p := newProcessor(emailRepo, providerRepo, map[string]provider.SendResult{
		"type-a": {Success: true},
	})

	p.Process(context.Background(), "email-8", testRequest(), 1, 3)

	if len(emailRepo.statuses) != 2 {
		t.Fatalf("expected processing then sent, got %+v", emailRepo.statuses)
	}
	if emailRepo.statuses[0].Status != model.EmailStatusProcessing {
		t.Errorf("first transition must be to processing, got %s", emailRepo.statuses[0].Status)
	}
	if emailRepo.statuses[1].Status != model.EmailStatusSent {
		t.Errorf("second transition must be to sent, got %s", emailRepo.statuses[1].Status)
	}
}
