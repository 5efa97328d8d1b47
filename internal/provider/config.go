package provider

import (
    "encoding/json"
    "fmt"
    "strings"

    "github.com/unclebandit/mailleopard-backend/internal/model"
)

// Per-type config shapes. Exactly one shape per provider type; the
// declared type tells us which one to decode (tagged variant).

type SMTPConfig struct {
    Host      string    `json:"host"`
    Port      int       `json:"port"`
    Secure    bool      `json:"secure"`
    Auth      *SMTPAuth `json:"auth,omitempty"`
    RateLimit int       `json:"rateLimit,omitempty"`
}

type SMTPAuth struct {
    User string `json:"user"`
    Pass string `json:"pass"`
}

type SendGridConfig struct {
    APIKey    string `json:"apiKey"`
    RateLimit int    `json:"rateLimit,omitempty"`
}

// ValidateConfig checks a raw config blob against its declared type.
// Called at upsert time so bad configs are rejected before they are
// encrypted and persisted, not discovered at send time.
func ValidateConfig(ptype string, rawConfig []byte) error {
    switch strings.ToLower(ptype) {
    case model.ProviderTypeSendGrid:
        var cfg SendGridConfig
        if err := json.Unmarshal(rawConfig, &cfg); err != nil {
            return fmt.Errorf("invalid sendgrid config: %w", err)
        }
        if cfg.APIKey == "" {
            return fmt.Errorf("sendgrid config requires apiKey")
        }
    case model.ProviderTypeSMTP:
        var cfg SMTPConfig
        if err := json.Unmarshal(rawConfig, &cfg); err != nil {
            return fmt.Errorf("invalid smtp config: %w", err)
        }
        if cfg.Host == "" || cfg.Port == 0 {
            return fmt.Errorf("smtp config requires host and port")
        }
    default:
        return fmt.Errorf("unsupported provider type: %s", ptype)
    }
    return nil
}
