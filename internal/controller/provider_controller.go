// internal/controller/provider_controller.go
package controller

import (
    "encoding/json"
    "net/http"

    "github.com/unclebandit/mailleopard-backend/internal/encryption"
    "github.com/unclebandit/mailleopard-backend/internal/model"
    "github.com/unclebandit/mailleopard-backend/internal/provider"
    "github.com/unclebandit/mailleopard-backend/internal/service"
)

type ProviderController struct {
    ProviderService *service.ProviderService
    MasterKey       []byte
}

// ConfigureProvider validates the config against its declared type,
// encrypts it, and upserts the provider by name. The plaintext config
// never reaches the database or the logs.
func (c *ProviderController) ConfigureProvider(w http.ResponseWriter, r *http.Request) {
    var body struct {
        Name     string          `json:"name"`
        Type     string          `json:"type"`
        Priority int             `json:"priority"`
        Status   string          `json:"status"`
        Config   json.RawMessage `json:"config"`
    }
    if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
        http.Error(w, "invalid body", http.StatusBadRequest)
        return
    }

    if body.Name == "" || body.Type == "" {
        http.Error(w, "name and type are required", http.StatusBadRequest)
        return
    }
    if len(body.Config) == 0 {
        http.Error(w, "config is required", http.StatusBadRequest)
        return
    }

    if err := provider.ValidateConfig(body.Type, body.Config); err != nil {
        http.Error(w, err.Error(), http.StatusBadRequest)
        return
    }

    encryptedConfig, err := encryption.Encrypt(c.MasterKey, string(body.Config))
    if err != nil {
        http.Error(w, "failed to encrypt provider config", http.StatusInternalServerError)
        return
    }

    err = c.ProviderService.SetProviderConfig(r.Context(), &model.Provider{
        Name:     body.Name,
        Type:     body.Type,
        Priority: body.Priority,
        Status:   body.Status,
        Config:   encryptedConfig,
    })
    if err != nil {
        http.Error(w, err.Error(), http.StatusInternalServerError)
        return
    }

    w.Header().Set("Content-Type", "application/json")
    json.NewEncoder(w).Encode(map[string]interface{}{
        "message":  "Provider configured successfully",
        "provider": body.Name,
    })
}
