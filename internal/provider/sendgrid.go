package provider

import (
    "context"
    "fmt"
    "log"
    "time"

    "github.com/sendgrid/sendgrid-go"
    "github.com/sendgrid/sendgrid-go/helpers/mail"

    "github.com/unclebandit/mailleopard-backend/internal/model"
)

// SendGridProvider delivers through the SendGrid v3 mail send API.
type SendGridProvider struct {
    client    *sendgrid.Client
    rateLimit int
}

func NewSendGridProvider(cfg SendGridConfig) *SendGridProvider {
    return &SendGridProvider{
        client:    sendgrid.NewSendClient(cfg.APIKey),
        rateLimit: cfg.RateLimit,
    }
}

func (p *SendGridProvider) Name() string {
    return model.ProviderTypeSendGrid
}

func (p *SendGridProvider) RateLimit() int {
    return p.rateLimit
}

func (p *SendGridProvider) Send(ctx context.Context, req model.EmailRequest) SendResult {
    log.Printf("[SendGrid] Sending email to %v\n", req.To)

    message := mail.NewV3Mail()
    message.SetFrom(mail.NewEmail("", req.From))
    message.Subject = req.Subject

    personalization := mail.NewPersonalization()
    for _, to := range req.To {
        personalization.AddTos(mail.NewEmail("", to))
    }
    for _, cc := range req.CC {
        personalization.AddCCs(mail.NewEmail("", cc))
    }
    for _, bcc := range req.BCC {
        personalization.AddBCCs(mail.NewEmail("", bcc))
    }
    message.AddPersonalizations(personalization)

    if req.ReplyTo != "" {
        message.SetReplyTo(mail.NewEmail("", req.ReplyTo))
    }

    message.AddContent(mail.NewContent("text/plain", req.Body.Text))
    if req.Body.HTML != "" {
        message.AddContent(mail.NewContent("text/html", req.Body.HTML))
    }

    response, err := p.client.SendWithContext(ctx, message)
    if err != nil {
        log.Println("[SendGrid] Error sending email:", err)
        return SendResult{
            Success:    false,
            Error:      err.Error(),
            StatusCode: 500,
        }
    }

    if response.StatusCode >= 400 {
        log.Println("[SendGrid] API error:", response.Body)
        return SendResult{
            Success:    false,
            Error:      response.Body,
            StatusCode: response.StatusCode,
        }
    }

    providerID := ""
    if ids := response.Headers["X-Message-Id"]; len(ids) > 0 {
        providerID = ids[0]
    }
    if providerID == "" {
        providerID = fmt.Sprintf("sg-%d", time.Now().UnixMilli())
    }

    return SendResult{
        Success:    true,
        ProviderID: providerID,
        StatusCode: response.StatusCode,
    }
}

var _ EmailProvider = (*SendGridProvider)(nil)
