//cmd/seeder/main.go
package main

import (
    "encoding/json"
    "fmt"
    "log"
    "os"
    "strconv"

    "github.com/joho/godotenv"

    "github.com/unclebandit/mailleopard-backend/internal/config"
    "github.com/unclebandit/mailleopard-backend/internal/db"
    "github.com/unclebandit/mailleopard-backend/internal/encryption"
    "github.com/unclebandit/mailleopard-backend/internal/model"
    "github.com/unclebandit/mailleopard-backend/internal/provider"
    "github.com/unclebandit/mailleopard-backend/internal/repository"
)

func main() {
    if err := godotenv.Load(); err != nil {
        log.Println("⚠️ No .env file found, relying on OS environment variables")
    }

    cfg, err := config.Load()
    if err != nil {
        log.Fatal("invalid configuration:", err)
    }

    conn, err := db.Connect()
    if err != nil {
        log.Fatal(err)
    }
    defer conn.Close()

    content, err := os.ReadFile("seed/schema.sql")
    if err != nil {
        log.Fatalf("failed to read seed/schema.sql: %v", err)
    }
    if _, err := conn.Exec(string(content)); err != nil {
        log.Fatalf("failed to execute seed/schema.sql: %v", err)
    }
    fmt.Println("Seeded: seed/schema.sql")

    // Optionally seed an initial SMTP provider from the environment
    if host := os.Getenv("SEED_SMTP_HOST"); host != "" {
        port, err := strconv.Atoi(os.Getenv("SEED_SMTP_PORT"))
        if err != nil {
            log.Fatal("invalid SEED_SMTP_PORT")
        }

        smtpConfig := provider.SMTPConfig{Host: host, Port: port}
        if user := os.Getenv("SEED_SMTP_USER"); user != "" {
            smtpConfig.Auth = &provider.SMTPAuth{
                User: user,
                Pass: os.Getenv("SEED_SMTP_PASS"),
            }
        }

        raw, _ := json.Marshal(smtpConfig)
        encrypted, err := encryption.Encrypt(cfg.MasterKey, string(raw))
        if err != nil {
            log.Fatalf("failed to encrypt seed provider config: %v", err)
        }

        providerRepo := &repository.ProviderRepository{DB: conn}
        err = providerRepo.SetProviderConfig(&model.Provider{
            Name:     "smtp-primary",
            Type:     model.ProviderTypeSMTP,
            Priority: 1,
            Status:   model.ProviderStatusActive,
            Config:   encrypted,
        })
        if err != nil {
            log.Fatalf("failed to seed provider: %v", err)
        }
        fmt.Println("Seeded: smtp-primary provider")
    }

    fmt.Println("Database seeding completed successfully!")
}
