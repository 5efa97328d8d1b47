// internal/errors/errors.go
package appErrors

import "fmt"

// ErrEmailNotFound is a sentinel error
type ErrEmailNotFound struct {
    EmailID string
}

func (e *ErrEmailNotFound) Error() string {
    return fmt.Sprintf("email with ID %s not found", e.EmailID)
}

// Helper constructor
func NewEmailNotFound(id string) error {
    return &ErrEmailNotFound{EmailID: id}
}
