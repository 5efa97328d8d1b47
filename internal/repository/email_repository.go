package repository

import (
    "database/sql"
    "encoding/json"
    "fmt"
    "time"

    "github.com/google/uuid"
    "github.com/lib/pq"

    appErrors "github.com/unclebandit/mailleopard-backend/internal/errors"
    "github.com/unclebandit/mailleopard-backend/internal/model"
)

type EmailRepositoryInterface interface {
    Create(req model.EmailRequest) (*model.Email, error)
    UpdateStatus(emailID, status, lastError string) error
    AddAttempt(emailID, provider, status, errMsg string) error
    GetByID(emailID string) (*model.Email, []model.Attempt, error)
    List(status string, offset, limit int) ([]*model.Email, int, error)
    GetByIDs(ids []string) ([]*model.Email, error)
}

type EmailRepository struct {
    DB *sql.DB
}

// ====================== Emails ======================

func (r *EmailRepository) Create(req model.EmailRequest) (*model.Email, error) {
    body, err := json.Marshal(req.Body)
    if err != nil {
        return nil, err
    }

    e := &model.Email{
        ID:          uuid.New().String(),
        FromAddress: req.From,
        ToAddress:   req.To,
        CC:          req.CC,
        BCC:         req.BCC,
        ReplyTo:     req.ReplyTo,
        Subject:     req.Subject,
        Body:        string(body),
        Status:      model.EmailStatusQueued,
    }

    query := `
        INSERT INTO emails (id, from_address, to_address, cc, bcc, reply_to, subject, body, status, created_at, updated_at)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, NOW(), NOW())
        RETURNING created_at, updated_at
    `
    err = r.DB.QueryRow(query,
        e.ID, e.FromAddress, pq.Array(e.ToAddress), pq.Array(e.CC), pq.Array(e.BCC),
        e.ReplyTo, e.Subject, e.Body, e.Status,
    ).Scan(&e.CreatedAt, &e.UpdatedAt)
    if err != nil {
        return nil, err
    }
    return e, nil
}

func (r *EmailRepository) UpdateStatus(emailID, status, lastError string) error {
    query := `UPDATE emails SET status=$1, error=$2, updated_at=$3 WHERE id=$4`
    _, err := r.DB.Exec(query, status, lastError, time.Now(), emailID)
    return err
}

func (r *EmailRepository) GetByID(emailID string) (*model.Email, []model.Attempt, error) {
    query := `
        SELECT id, from_address, to_address, cc, bcc, reply_to, subject, body, status, error, created_at, updated_at
        FROM emails WHERE id=$1
    `
    e, err := scanEmail(r.DB.QueryRow(query, emailID))
    if err != nil {
        if err == sql.ErrNoRows {
            return nil, nil, appErrors.NewEmailNotFound(emailID)
        }
        return nil, nil, err
    }

    // Most-recent-first is the canonical read order for the audit log
    attemptQuery := `
        SELECT id, email_id, provider, status, COALESCE(error, ''), created_at
        FROM email_attempts
        WHERE email_id=$1
        ORDER BY created_at DESC
    `
    rows, err := r.DB.Query(attemptQuery, emailID)
    if err != nil {
        return nil, nil, err
    }
    defer rows.Close()

    attempts := []model.Attempt{}
    for rows.Next() {
        var a model.Attempt
        if err := rows.Scan(&a.ID, &a.EmailID, &a.Provider, &a.Status, &a.Error, &a.CreatedAt); err != nil {
            return nil, nil, err
        }
        attempts = append(attempts, a)
    }

    return e, attempts, nil
}

func (r *EmailRepository) List(status string, offset, limit int) ([]*model.Email, int, error) {
    emails := []*model.Email{}
    query := `SELECT id, from_address, to_address, cc, bcc, reply_to, subject, body, status, error, created_at, updated_at FROM emails WHERE 1=1`
    args := []interface{}{}
    argPos := 1

    if status != "" {
        query += fmt.Sprintf(" AND status=$%d", argPos)
        args = append(args, status)
        argPos++
    }

    query += fmt.Sprintf(" ORDER BY created_at DESC LIMIT $%d OFFSET $%d", argPos, argPos+1)
    args = append(args, limit, offset)

    rows, err := r.DB.Query(query, args...)
    if err != nil {
        return nil, 0, err
    }
    defer rows.Close()

    for rows.Next() {
        e, err := scanEmail(rows)
        if err != nil {
            return nil, 0, err
        }
        emails = append(emails, e)
    }

    // Count total
    countQuery := `SELECT COUNT(*) FROM emails WHERE 1=1`
    argsCount := []interface{}{}
    if status != "" {
        countQuery += " AND status=$1"
        argsCount = append(argsCount, status)
    }

    var total int
    if err := r.DB.QueryRow(countQuery, argsCount...).Scan(&total); err != nil {
        return nil, 0, err
    }

    return emails, total, nil
}

func (r *EmailRepository) GetByIDs(ids []string) ([]*model.Email, error) {
    if len(ids) == 0 {
        return []*model.Email{}, nil
    }

    query := `
        SELECT id, from_address, to_address, cc, bcc, reply_to, subject, body, status, error, created_at, updated_at
        FROM emails WHERE id = ANY($1)
    `
    rows, err := r.DB.Query(query, pq.Array(ids))
    if err != nil {
        return nil, err
    }
    defer rows.Close()

    emails := []*model.Email{}
    for rows.Next() {
        e, err := scanEmail(rows)
        if err != nil {
            return nil, err
        }
        emails = append(emails, e)
    }
    return emails, nil
}

// ====================== Attempts ======================

// Append-only audit log; rows are never mutated or deleted here.
// Duplicate rows from queue redelivery are accepted.
func (r *EmailRepository) AddAttempt(emailID, provider, status, errMsg string) error {
    query := `
        INSERT INTO email_attempts (email_id, provider, status, error, created_at)
        VALUES ($1, $2, $3, NULLIF($4, ''), NOW())
    `
    _, err := r.DB.Exec(query, emailID, provider, status, errMsg)
    return err
}

type rowScanner interface {
    Scan(dest ...interface{}) error
}

func scanEmail(row rowScanner) (*model.Email, error) {
    var e model.Email
    var errText sql.NullString
    err := row.Scan(
        &e.ID, &e.FromAddress, pq.Array(&e.ToAddress), pq.Array(&e.CC), pq.Array(&e.BCC),
        &e.ReplyTo, &e.Subject, &e.Body, &e.Status, &errText, &e.CreatedAt, &e.UpdatedAt,
    )
    if err != nil {
        return nil, err
    }
    e.LastError = errText.String
    return &e, nil
}

var _ EmailRepositoryInterface = (*EmailRepository)(nil)
