// cmd/server/main.go
package main

import (
    "log"
    "net/http"

    "github.com/go-chi/chi/v5"
    "github.com/joho/godotenv"
    "github.com/redis/go-redis/v9"
    "github.com/streadway/amqp"

    "github.com/unclebandit/mailleopard-backend/internal/config"
    "github.com/unclebandit/mailleopard-backend/internal/controller"
    "github.com/unclebandit/mailleopard-backend/internal/db"
    "github.com/unclebandit/mailleopard-backend/internal/middleware"
    "github.com/unclebandit/mailleopard-backend/internal/queue"
    "github.com/unclebandit/mailleopard-backend/internal/redisstore"
    "github.com/unclebandit/mailleopard-backend/internal/repository"
    "github.com/unclebandit/mailleopard-backend/internal/service"
)

func main() {
    // Load .env
    if err := godotenv.Load(); err != nil {
        log.Println("⚠️ No .env file found, relying on OS environment variables")
    }

    cfg, err := config.Load()
    if err != nil {
        log.Fatal("invalid configuration:", err)
    }

    // Connect to DB
    conn, err := db.Connect()
    if err != nil {
        log.Fatal(err)
    }
    defer conn.Close()

    // Connect to Redis
    rdb := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
    defer rdb.Close()
    store := redisstore.NewRedisStore(rdb)

    // Connect to RabbitMQ
    amqpConn, err := amqp.Dial(cfg.AMQPURL)
    if err != nil {
        log.Fatal("Failed to connect to RabbitMQ:", err)
    }
    defer amqpConn.Close()

    emailQueue, err := queue.NewRabbitQueue(amqpConn)
    if err != nil {
        log.Fatal(err)
    }
    defer emailQueue.Close()

    emailRepo := &repository.EmailRepository{DB: conn}
    providerRepo := &repository.ProviderRepository{DB: conn}

    emailService := &service.EmailService{
        EmailRepo: emailRepo,
        Queue:     emailQueue,
    }
    providerService := &service.ProviderService{
        ProviderRepo: providerRepo,
        Store:        store,
    }

    emailController := &controller.EmailController{
        EmailService: emailService,
    }
    providerController := &controller.ProviderController{
        ProviderService: providerService,
        MasterKey:       cfg.MasterKey,
    }

    r := chi.NewRouter()

    // Email routes
    r.With(middleware.Idempotency(store)).Post("/api/v1/emails/send", emailController.SendEmail)
    r.Get("/api/v1/emails/{emailId}/status", emailController.GetEmailStatus)
    r.Get("/api/v1/emails", emailController.ListEmails)
    r.Post("/api/v1/emails/retry", emailController.RetryEmails)

    // Provider admin routes
    r.With(middleware.AdminAuth(cfg.MasterKeyHex)).Post("/api/v1/providers", providerController.ConfigureProvider)

    log.Println("🚀 Server running on :" + cfg.Port)
    log.Fatal(http.ListenAndServe(":"+cfg.Port, r))
}
