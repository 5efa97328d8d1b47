package queue

import (
    "encoding/json"
    "fmt"
    "strconv"
    "time"

    "github.com/streadway/amqp"

    "github.com/unclebandit/mailleopard-backend/internal/model"
)

const (
    QueueName      = "email_sends"
    retryQueueName = "email_sends_retry"

    // Retry policy: 3 total delivery attempts, exponential backoff
    // doubling from 2s (2s, 4s, 8s, ...).
    MaxAttempts = 3
    baseBackoff = 2 * time.Second

    attemptHeader = "x-attempt"
)

// Job is the payload carried per send: the email id plus a snapshot of
// the original request.
type Job struct {
    EmailID string             `json:"email_id"`
    Request model.EmailRequest `json:"request"`
}

// Queue is the enqueue contract the API side uses.
type Queue interface {
    Add(emailID string, req model.EmailRequest) error
}

// RabbitQueue publishes jobs to a durable RabbitMQ queue. Failed jobs
// are parked on a retry queue with a per-message TTL that dead-letters
// back onto the work queue, which is what implements the backoff.
type RabbitQueue struct {
    ch *amqp.Channel
}

func NewRabbitQueue(conn *amqp.Connection) (*RabbitQueue, error) {
    ch, err := conn.Channel()
    if err != nil {
        return nil, fmt.Errorf("failed to open a channel: %w", err)
    }

    _, err = ch.QueueDeclare(
        QueueName,
        true,  // durable
        false, // delete when unused
        false, // exclusive
        false, // no-wait
        nil,
    )
    if err != nil {
        return nil, fmt.Errorf("failed to declare queue: %w", err)
    }

    _, err = ch.QueueDeclare(
        retryQueueName,
        true,
        false,
        false,
        false,
        amqp.Table{
            "x-dead-letter-exchange":    "",
            "x-dead-letter-routing-key": QueueName,
        },
    )
    if err != nil {
        return nil, fmt.Errorf("failed to declare retry queue: %w", err)
    }

    return &RabbitQueue{ch: ch}, nil
}

// Add enqueues a fresh job (attempt 1).
func (q *RabbitQueue) Add(emailID string, req model.EmailRequest) error {
    return q.publish(QueueName, Job{EmailID: emailID, Request: req}, 1, "")
}

// Requeue parks a job on the retry queue for the backoff of the given
// upcoming attempt, after which it dead-letters back to the work queue.
func (q *RabbitQueue) Requeue(job Job, attempt int) error {
    delay := Backoff(attempt)
    expiration := strconv.FormatInt(delay.Milliseconds(), 10)
    return q.publish(retryQueueName, job, attempt, expiration)
}

func (q *RabbitQueue) publish(queueName string, job Job, attempt int, expiration string) error {
    body, err := json.Marshal(job)
    if err != nil {
        return err
    }

    msg := amqp.Publishing{
        ContentType:  "application/json",
        DeliveryMode: amqp.Persistent,
        Body:         body,
        Headers:      amqp.Table{attemptHeader: int32(attempt)},
    }
    if expiration != "" {
        msg.Expiration = expiration
    }

    return q.ch.Publish("", queueName, false, false, msg)
}

// Consume registers a consumer on the work queue with manual acks.
func (q *RabbitQueue) Consume() (<-chan amqp.Delivery, error) {
    return q.ch.Consume(
        QueueName,
        "",
        false, // autoAck = false for reliability
        false,
        false,
        false,
        nil,
    )
}

func (q *RabbitQueue) Close() error {
    return q.ch.Close()
}

// Backoff returns the redelivery delay before the given attempt:
// attempt 2 waits 2s, attempt 3 waits 4s, and so on.
func Backoff(attempt int) time.Duration {
    if attempt <= 2 {
        return baseBackoff
    }
    return baseBackoff << (attempt - 2)
}

// Attempt reads the attempt counter from a delivery's headers,
// defaulting to 1 for messages without one.
func Attempt(d amqp.Delivery) int {
    v, ok := d.Headers[attemptHeader]
    if !ok {
        return 1
    }
    switch n := v.(type) {
    case int32:
        return int(n)
    case int64:
        return int(n)
    case int:
        return n
    default:
        return 1
    }
}

var _ Queue = (*RabbitQueue)(nil)
