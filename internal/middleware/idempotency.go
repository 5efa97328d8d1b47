// internal/middleware/idempotency.go
package middleware

import (
    "bytes"
    "encoding/json"
    "log"
    "net/http"
    "time"

    "github.com/unclebandit/mailleopard-backend/internal/redisstore"
)

const (
    idempotencyHeader = "X-Idempotency-Key"
    idempotencyTTL    = 24 * time.Hour
)

type cachedResponse struct {
    Status int    `json:"status"`
    Body   string `json:"body"`
}

// captureWriter buffers the handler's response so it can be cached
// before being sent.
type captureWriter struct {
    http.ResponseWriter
    status int
    body   bytes.Buffer
}

func (w *captureWriter) WriteHeader(status int) {
    w.status = status
    w.ResponseWriter.WriteHeader(status)
}

func (w *captureWriter) Write(b []byte) (int, error) {
    w.body.Write(b)
    return w.ResponseWriter.Write(b)
}

// Idempotency replays the cached response verbatim for repeat requests
// carrying the same client token. This, not database constraints, is
// what protects against duplicate sends from client-side retries.
func Idempotency(store redisstore.Store) func(http.Handler) http.Handler {
    return func(next http.Handler) http.Handler {
        return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
            key := r.Header.Get(idempotencyHeader)
            if key == "" {
                next.ServeHTTP(w, r)
                return
            }

            redisKey := "idempotency:" + key

            cached, err := store.Get(r.Context(), redisKey)
            if err != nil {
                log.Println("⚠️ idempotency cache read failed:", err)
            } else if cached != "" {
                var resp cachedResponse
                if err := json.Unmarshal([]byte(cached), &resp); err == nil {
                    log.Println("✅ Idempotency hit for key:", key)
                    w.Header().Set("Content-Type", "application/json")
                    w.WriteHeader(resp.Status)
                    w.Write([]byte(resp.Body))
                    return
                }
            }

            cw := &captureWriter{ResponseWriter: w, status: http.StatusOK}
            next.ServeHTTP(cw, r)

            data, err := json.Marshal(cachedResponse{Status: cw.status, Body: cw.body.String()})
            if err != nil {
                return
            }
            if err := store.Set(r.Context(), redisKey, string(data), idempotencyTTL); err != nil {
                log.Println("⚠️ failed to cache idempotency key:", err)
            }
        })
    }
}
