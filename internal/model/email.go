// internal/model/email.go
package model

import "time"

// Email statuses
const (
    EmailStatusQueued     = "queued"
    EmailStatusProcessing = "processing"
    EmailStatusSent       = "sent"
    EmailStatusRetrying   = "retrying"
    EmailStatusFailed     = "failed"
)

// EmailContent is the body of an email. Text is always required,
// HTML is optional.
type EmailContent struct {
    Text string `json:"text"`
    HTML string `json:"html,omitempty"`
}

// EmailRequest is the send request as submitted by a client. It is
// also the payload snapshot carried by queue jobs.
type EmailRequest struct {
    From    string       `json:"from"`
    To      []string     `json:"to"`
    CC      []string     `json:"cc,omitempty"`
    BCC     []string     `json:"bcc,omitempty"`
    ReplyTo string       `json:"reply_to,omitempty"`
    Subject string       `json:"subject"`
    Body    EmailContent `json:"body"`
}

type Email struct {
    ID          string    `db:"id" json:"email_id"`
    FromAddress string    `db:"from_address" json:"from"`
    ToAddress   []string  `db:"to_address" json:"to"`
    CC          []string  `db:"cc" json:"cc,omitempty"`
    BCC         []string  `db:"bcc" json:"bcc,omitempty"`
    ReplyTo     string    `db:"reply_to" json:"reply_to,omitempty"`
    Subject     string    `db:"subject" json:"subject"`
    Body        string    `db:"body" json:"-"` // JSON-encoded EmailContent
    Status      string    `db:"status" json:"status"`
    LastError   string    `db:"error" json:"error,omitempty"`
    CreatedAt   time.Time `db:"created_at" json:"created_at"`
    UpdatedAt   time.Time `db:"updated_at" json:"updated_at"`
}
