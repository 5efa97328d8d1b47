package main

import (
    "context"
    "encoding/json"
    "log"

    "github.com/joho/godotenv"
    "github.com/redis/go-redis/v9"
    "github.com/streadway/amqp"

    "github.com/unclebandit/mailleopard-backend/internal/config"
    "github.com/unclebandit/mailleopard-backend/internal/db"
    "github.com/unclebandit/mailleopard-backend/internal/model"
    "github.com/unclebandit/mailleopard-backend/internal/queue"
    "github.com/unclebandit/mailleopard-backend/internal/redisstore"
    "github.com/unclebandit/mailleopard-backend/internal/repository"
    "github.com/unclebandit/mailleopard-backend/internal/service"
)

func main() {
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

    processor := &service.Processor{
        EmailRepo: emailRepo,
        Providers: &service.ProviderService{
            ProviderRepo: providerRepo,
            Store:        store,
        },
        Strategy:         &service.RotationStrategy{Store: store},
        Limiter:          &service.RateLimiter{Store: store, DefaultLimit: cfg.DefaultRateLimit},
        MasterKey:        cfg.MasterKey,
        DefaultRateLimit: cfg.DefaultRateLimit,
    }

    msgs, err := emailQueue.Consume()
    if err != nil {
        log.Fatal("Failed to register consumer:", err)
    }

    forever := make(chan bool)

    go func() {
        for d := range msgs {
            handleDelivery(d, emailQueue, processor)
        }
    }()

    log.Println("Worker running, waiting for messages...")
    <-forever
}

// jobProcessor and retryQueue are the two seams handleDelivery needs;
// satisfied by *service.Processor and *queue.RabbitQueue.
type jobProcessor interface {
    Process(ctx context.Context, emailID string, req model.EmailRequest, attempt, maxAttempts int) service.Result
}

type retryQueue interface {
    Requeue(job queue.Job, attempt int) error
}

// handleDelivery runs one job through the processor and turns the
// result into a queue decision. The ack is sent after the handler
// finishes, so delivery is at-least-once: a crash in between means a
// redelivery, which the processor tolerates.
func handleDelivery(d amqp.Delivery, q retryQueue, processor jobProcessor) {
    var job queue.Job
    if err := json.Unmarshal(d.Body, &job); err != nil {
        log.Println("Invalid job:", err)
        d.Ack(false)
        return
    }

    attempt := queue.Attempt(d)
    log.Printf("📩 Processing email %s (attempt %d/%d)\n", job.EmailID, attempt, queue.MaxAttempts)

    result := processor.Process(context.Background(), job.EmailID, job.Request, attempt, queue.MaxAttempts)

    if result.Outcome == service.OutcomeRetry {
        if err := q.Requeue(job, attempt+1); err != nil {
            log.Println("⚠️ failed to requeue job, redelivering:", err)
            d.Nack(false, true)
            return
        }
    }

    d.Ack(false)
}
