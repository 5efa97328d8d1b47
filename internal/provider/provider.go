// Package provider holds the delivery backend adapters. Each adapter
// translates a generic send request into a provider-specific call and
// normalizes the result into a SendResult.
package provider

import (
    "context"

    "github.com/unclebandit/mailleopard-backend/internal/model"
)

// SendResult is the normalized outcome of one provider call.
type SendResult struct {
    Success    bool
    ProviderID string
    Error      string
    StatusCode int
}

// EmailProvider is the adapter contract.
type EmailProvider interface {
    Name() string
    Send(ctx context.Context, req model.EmailRequest) SendResult
    RateLimit() int // requests per second
}
