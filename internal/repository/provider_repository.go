package repository

import (
    "database/sql"
    "time"

    "github.com/unclebandit/mailleopard-backend/internal/model"
)

type ProviderRepositoryInterface interface {
    GetActiveProviders() ([]model.Provider, error)
    MarkProviderDown(name string) error
    SetProviderConfig(p *model.Provider) error
}

type ProviderRepository struct {
    DB *sql.DB
}

// GetActiveProviders returns providers ordered by priority ascending.
// Only "inactive" is excluded: a provider marked "down" stays in the
// pool and will still be tried (see DESIGN.md, open questions).
func (r *ProviderRepository) GetActiveProviders() ([]model.Provider, error) {
    query := `
        SELECT id, name, type, priority, status, config, created_at, updated_at
        FROM providers
        WHERE status != 'inactive'
        ORDER BY priority ASC
    `
    rows, err := r.DB.Query(query)
    if err != nil {
        return nil, err
    }
    defer rows.Close()

    providers := []model.Provider{}
    for rows.Next() {
        var p model.Provider
        if err := rows.Scan(&p.ID, &p.Name, &p.Type, &p.Priority, &p.Status, &p.Config, &p.CreatedAt, &p.UpdatedAt); err != nil {
            return nil, err
        }
        providers = append(providers, p)
    }
    return providers, nil
}

func (r *ProviderRepository) MarkProviderDown(name string) error {
    query := `UPDATE providers SET status='down', updated_at=$1 WHERE name=$2`
    _, err := r.DB.Exec(query, time.Now(), name)
    return err
}

// SetProviderConfig upserts by name, so repeated configuration pushes
// are idempotent.
func (r *ProviderRepository) SetProviderConfig(p *model.Provider) error {
    if p.Status == "" {
        p.Status = model.ProviderStatusActive
    }
    query := `
        INSERT INTO providers (name, type, priority, status, config, created_at, updated_at)
        VALUES ($1, $2, $3, $4, $5, NOW(), NOW())
        ON CONFLICT (name) DO UPDATE
        SET type=EXCLUDED.type, priority=EXCLUDED.priority, status=EXCLUDED.status, config=EXCLUDED.config, updated_at=NOW()
    `
    _, err := r.DB.Exec(query, p.Name, p.Type, p.Priority, p.Status, p.Config)
    return err
}

var _ ProviderRepositoryInterface = (*ProviderRepository)(nil)
