// internal/model/provider.go
package model

import "time"

// Provider types (one adapter per type)
const (
    ProviderTypeSendGrid = "sendgrid"
    ProviderTypeSMTP     = "smtp"
)

// Provider statuses. Note: only "inactive" is excluded from the active
// pool; a provider marked "down" is still tried.
const (
    ProviderStatusActive   = "active"
    ProviderStatusInactive = "inactive"
    ProviderStatusDown     = "down"
)

type Provider struct {
    ID        string    `db:"id" json:"id"`
    Name      string    `db:"name" json:"name"`
    Type      string    `db:"type" json:"type"`
    Priority  int       `db:"priority" json:"priority"`
    Status    string    `db:"status" json:"status"`
    Config    string    `db:"config" json:"-"` // encrypted, never exposed
    CreatedAt time.Time `db:"created_at" json:"created_at"`
    UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}
