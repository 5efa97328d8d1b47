// internal/service/email_service.go
package service

import (
    "encoding/json"
    "log"
    "time"

    "github.com/unclebandit/mailleopard-backend/internal/model"
    "github.com/unclebandit/mailleopard-backend/internal/queue"
    "github.com/unclebandit/mailleopard-backend/internal/repository"
)

type EmailService struct {
    EmailRepo repository.EmailRepositoryInterface
    Queue     queue.Queue
}

// EmailDetails is the status view returned to clients: the email plus
// its attempt history, most recent attempt first.
type EmailDetails struct {
    EmailID   string          `json:"email_id"`
    Status    string          `json:"status"`
    From      string          `json:"from"`
    To        []string        `json:"to"`
    CC        []string        `json:"cc,omitempty"`
    BCC       []string        `json:"bcc,omitempty"`
    ReplyTo   string          `json:"reply_to,omitempty"`
    Subject   string          `json:"subject"`
    Error     string          `json:"error,omitempty"`
    CreatedAt string          `json:"created_at"`
    UpdatedAt string          `json:"updated_at"`
    Attempts  []model.Attempt `json:"attempts"`
}

// SendEmail persists the email and enqueues the delivery job.
func (s *EmailService) SendEmail(req model.EmailRequest) (*model.Email, error) {
    email, err := s.EmailRepo.Create(req)
    if err != nil {
        return nil, err
    }

    if err := s.Queue.Add(email.ID, req); err != nil {
        return nil, err
    }

    return email, nil
}

func (s *EmailService) GetEmailStatus(emailID string) (*EmailDetails, error) {
    email, attempts, err := s.EmailRepo.GetByID(emailID)
    if err != nil {
        return nil, err
    }

    return &EmailDetails{
        EmailID:   email.ID,
        Status:    email.Status,
        From:      email.FromAddress,
        To:        email.ToAddress,
        CC:        email.CC,
        BCC:       email.BCC,
        ReplyTo:   email.ReplyTo,
        Subject:   email.Subject,
        Error:     email.LastError,
        CreatedAt: email.CreatedAt.Format(time.RFC3339),
        UpdatedAt: email.UpdatedAt.Format(time.RFC3339),
        Attempts:  attempts,
    }, nil
}

// ListEmails fetches emails filtered by status with pagination
func (s *EmailService) ListEmails(status string, page, pageSize int) ([]*model.Email, map[string]int, error) {
    if page < 1 {
        page = 1
    }
    if pageSize < 1 {
        pageSize = 10
    }
    if pageSize > 100 {
        pageSize = 100
    }
    offset := (page - 1) * pageSize

    emails, total, err := s.EmailRepo.List(status, offset, pageSize)
    if err != nil {
        return nil, nil, err
    }

    totalPages := (total + pageSize - 1) / pageSize
    pagination := map[string]int{
        "page":        page,
        "page_size":   pageSize,
        "total_count": total,
        "total_pages": totalPages,
    }

    return emails, pagination, nil
}

// RetryEmails moves FAILED emails back to QUEUED and re-enqueues them.
// The request is reconstructed from the persisted row; a body that is
// not valid structured content falls back to plain text. Returns the
// number of emails requeued.
func (s *EmailService) RetryEmails(emailIDs []string) (int, error) {
    emails, err := s.EmailRepo.GetByIDs(emailIDs)
    if err != nil {
        return 0, err
    }

    retried := 0
    for _, email := range emails {
        if email.Status != model.EmailStatusFailed {
            continue
        }

        if err := s.EmailRepo.UpdateStatus(email.ID, model.EmailStatusQueued, ""); err != nil {
            log.Println("⚠️ failed to reset email status:", err)
            continue
        }

        req := reconstructRequest(email)
        if err := s.Queue.Add(email.ID, req); err != nil {
            log.Println("⚠️ failed to re-enqueue email", email.ID, ":", err)
            continue
        }
        retried++
    }

    return retried, nil
}

func reconstructRequest(email *model.Email) model.EmailRequest {
    var body model.EmailContent
    if err := json.Unmarshal([]byte(email.Body), &body); err != nil || body.Text == "" && body.HTML == "" {
        body = model.EmailContent{Text: email.Body}
    }

    return model.EmailRequest{
        From:    email.FromAddress,
        To:      email.ToAddress,
        CC:      email.CC,
        BCC:     email.BCC,
        ReplyTo: email.ReplyTo,
        Subject: email.Subject,
        Body:    body,
    }
}
