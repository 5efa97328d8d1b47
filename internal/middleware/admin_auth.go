// internal/middleware/admin_auth.go
package middleware

import "net/http"

const adminHeader = "X-Admin-Key"

// AdminAuth gates provider administration behind a shared secret.
// Rejected requests never reach the handler, so no provider mutation
// can happen without the key.
func AdminAuth(adminKey string) func(http.Handler) http.Handler {
    return func(next http.Handler) http.Handler {
        return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
            key := r.Header.Get(adminHeader)
            if key == "" || key != adminKey {
                http.Error(w, "Unauthorized: Invalid Admin Key", http.StatusUnauthorized)
                return
            }
            next.ServeHTTP(w, r)
        })
    }
}
