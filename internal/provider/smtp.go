package provider

import (
    "context"
    "fmt"
    "log"
    "net/smtp"
    "strings"
    "time"

    "github.com/unclebandit/mailleopard-backend/internal/model"
)

// SMTPProvider delivers over a plain SMTP transport via net/smtp.
type SMTPProvider struct {
    cfg SMTPConfig
}

func NewSMTPProvider(cfg SMTPConfig) *SMTPProvider {
    return &SMTPProvider{cfg: cfg}
}

func (p *SMTPProvider) Name() string {
    return model.ProviderTypeSMTP
}

func (p *SMTPProvider) RateLimit() int {
    return p.cfg.RateLimit
}

func (p *SMTPProvider) Send(ctx context.Context, req model.EmailRequest) SendResult {
    log.Printf("[SMTP] Sending email to %v\n", req.To)

    addr := fmt.Sprintf("%s:%d", p.cfg.Host, p.cfg.Port)

    var auth smtp.Auth
    if p.cfg.Auth != nil && p.cfg.Auth.User != "" {
        auth = smtp.PlainAuth("", p.cfg.Auth.User, p.cfg.Auth.Pass, p.cfg.Host)
    }

    recipients := []string{}
    recipients = append(recipients, req.To...)
    recipients = append(recipients, req.CC...)
    recipients = append(recipients, req.BCC...)

    message := buildMessage(req)

    if err := smtp.SendMail(addr, auth, req.From, recipients, message); err != nil {
        log.Println("[SMTP] Error sending email:", err)
        return SendResult{
            Success:    false,
            Error:      err.Error(),
            StatusCode: 500,
        }
    }

    // SMTP gives us no message ID back, so synthesize one
    return SendResult{
        Success:    true,
        ProviderID: fmt.Sprintf("%d@%s", time.Now().UnixNano(), p.cfg.Host),
        StatusCode: 250,
    }
}

// buildMessage renders the request as an RFC 5322 message, using
// multipart/alternative when both text and HTML bodies are present.
func buildMessage(req model.EmailRequest) []byte {
    var b strings.Builder

    b.WriteString("From: " + req.From + "\r\n")
    b.WriteString("To: " + strings.Join(req.To, ", ") + "\r\n")
    if len(req.CC) > 0 {
        b.WriteString("Cc: " + strings.Join(req.CC, ", ") + "\r\n")
    }
    if req.ReplyTo != "" {
        b.WriteString("Reply-To: " + req.ReplyTo + "\r\n")
    }
    b.WriteString("Subject: " + req.Subject + "\r\n")
    b.WriteString("Date: " + time.Now().Format(time.RFC1123Z) + "\r\n")
    b.WriteString("MIME-Version: 1.0\r\n")

    if req.Body.HTML != "" {
        boundary := fmt.Sprintf("boundary_%d", time.Now().UnixNano())
        b.WriteString("Content-Type: multipart/alternative; boundary=" + boundary + "\r\n")
        b.WriteString("\r\n")

        b.WriteString("--" + boundary + "\r\n")
        b.WriteString("Content-Type: text/plain; charset=UTF-8\r\n")
        b.WriteString("\r\n")
        b.WriteString(req.Body.Text + "\r\n")
        b.WriteString("\r\n")

        b.WriteString("--" + boundary + "\r\n")
        b.WriteString("Content-Type: text/html; charset=UTF-8\r\n")
        b.WriteString("\r\n")
        b.WriteString(req.Body.HTML + "\r\n")
        b.WriteString("\r\n")

        b.WriteString("--" + boundary + "--\r\n")
    } else {
        b.WriteString("Content-Type: text/plain; charset=UTF-8\r\n")
        b.WriteString("\r\n")
        b.WriteString(req.Body.Text + "\r\n")
    }

    return []byte(b.String())
}

var _ EmailProvider = (*SMTPProvider)(nil)
