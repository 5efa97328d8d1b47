// internal/controller/email_controller.go
package controller

import (
    "encoding/json"
    "errors"
    "net/http"
    "strconv"

    "github.com/go-chi/chi/v5"

    appErrors "github.com/unclebandit/mailleopard-backend/internal/errors"
    "github.com/unclebandit/mailleopard-backend/internal/model"
    "github.com/unclebandit/mailleopard-backend/internal/service"
)

type EmailController struct {
    EmailService *service.EmailService
}

// SendEmail accepts a submission, persists it and queues the delivery.
// Responds 202: delivery is asynchronous, poll the status endpoint.
func (c *EmailController) SendEmail(w http.ResponseWriter, r *http.Request) {
    var req model.EmailRequest
    if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
        http.Error(w, "invalid body", http.StatusBadRequest)
        return
    }

    if err := validateEmailRequest(&req); err != nil {
        http.Error(w, err.Error(), http.StatusBadRequest)
        return
    }

    email, err := c.EmailService.SendEmail(req)
    if err != nil {
        http.Error(w, err.Error(), http.StatusInternalServerError)
        return
    }

    w.Header().Set("Content-Type", "application/json")
    w.WriteHeader(http.StatusAccepted)
    json.NewEncoder(w).Encode(map[string]interface{}{
        "email_id":   email.ID,
        "status":     email.Status,
        "created_at": email.CreatedAt,
    })
}

func (c *EmailController) GetEmailStatus(w http.ResponseWriter, r *http.Request) {
    emailID := chi.URLParam(r, "emailId")

    details, err := c.EmailService.GetEmailStatus(emailID)
    if err != nil {
        var notFound *appErrors.ErrEmailNotFound
        if errors.As(err, &notFound) {
            http.Error(w, err.Error(), http.StatusNotFound)
            return
        }
        http.Error(w, err.Error(), http.StatusInternalServerError)
        return
    }

    w.Header().Set("Content-Type", "application/json")
    json.NewEncoder(w).Encode(details)
}

func (c *EmailController) ListEmails(w http.ResponseWriter, r *http.Request) {
    page, _ := strconv.Atoi(r.URL.Query().Get("page"))
    limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
    status := r.URL.Query().Get("status")

    if page < 1 {
        page = 1
    }
    if limit < 1 {
        limit = 10
    }

    emails, pagination, err := c.EmailService.ListEmails(status, page, limit)
    if err != nil {
        http.Error(w, err.Error(), http.StatusInternalServerError)
        return
    }

    w.Header().Set("Content-Type", "application/json")
    json.NewEncoder(w).Encode(map[string]interface{}{
        "data":       emails,
        "pagination": pagination,
    })
}

func (c *EmailController) RetryEmails(w http.ResponseWriter, r *http.Request) {
    var body struct {
        EmailIDs []string `json:"email_ids"`
    }
    if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
        http.Error(w, "invalid body", http.StatusBadRequest)
        return
    }
    if len(body.EmailIDs) == 0 {
        http.Error(w, "email_ids is required", http.StatusBadRequest)
        return
    }

    retried, err := c.EmailService.RetryEmails(body.EmailIDs)
    if err != nil {
        http.Error(w, err.Error(), http.StatusInternalServerError)
        return
    }

    w.Header().Set("Content-Type", "application/json")
    json.NewEncoder(w).Encode(map[string]interface{}{
        "message": "Emails retried successfully",
        "retried": retried,
    })
}

// validateEmailRequest rejects malformed submissions before any side
// effect.
func validateEmailRequest(req *model.EmailRequest) error {
    if req.From == "" {
        return errors.New("from is required")
    }
    if len(req.To) == 0 {
        return errors.New("at least one recipient is required")
    }
    if req.Subject == "" {
        return errors.New("subject is required")
    }
    if req.Body.Text == "" {
        return errors.New("body.text is required")
    }
    return nil
}
