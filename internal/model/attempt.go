// internal/model/attempt.go
package model

import "time"

// Attempt statuses (audit log rows, never mutated)
const (
    AttemptStatusSuccess           = "SUCCESS"
    AttemptStatusFailed            = "FAILED"
    AttemptStatusRateLimitExceeded = "RATE_LIMIT_EXCEEDED"
)

type Attempt struct {
    ID        string    `db:"id" json:"-"`
    EmailID   string    `db:"email_id" json:"-"`
    Provider  string    `db:"provider" json:"provider"`
    Status    string    `db:"status" json:"status"`
    Error     string    `db:"error" json:"error,omitempty"`
    CreatedAt time.Time `db:"created_at" json:"created_at"`
}
