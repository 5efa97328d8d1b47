package provider

import (
    "encoding/json"
    "strings"

    "github.com/unclebandit/mailleopard-backend/internal/model"
)

// New maps a declared provider type plus its decrypted config to a
// concrete adapter. Unsupported types or configs missing required
// fields yield nil; the processor treats that as a skip, not a failure.
func New(ptype string, rawConfig []byte, defaultRateLimit int) EmailProvider {
    switch strings.ToLower(ptype) {
    case model.ProviderTypeSendGrid:
        var cfg SendGridConfig
        if err := json.Unmarshal(rawConfig, &cfg); err != nil {
            return nil
        }
        if cfg.APIKey == "" {
            return nil
        }
        if cfg.RateLimit == 0 {
            cfg.RateLimit = defaultRateLimit
        }
        return NewSendGridProvider(cfg)
    case model.ProviderTypeSMTP:
        var cfg SMTPConfig
        if err := json.Unmarshal(rawConfig, &cfg); err != nil {
            return nil
        }
        if cfg.Host == "" || cfg.Port == 0 {
            return nil
        }
        if cfg.RateLimit == 0 {
            cfg.RateLimit = defaultRateLimit
        }
        return NewSMTPProvider(cfg)
    default:
        return nil
    }
}
