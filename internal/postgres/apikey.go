package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/rpggio/chainledger/internal/repository"
)

// APIKeyRepository stores hashed bearer tokens and the tenant they belong to.
type APIKeyRepository struct {
	db *DB
}

// NewAPIKeyRepository creates a new APIKeyRepository
func NewAPIKeyRepository(db *DB) *APIKeyRepository {
	return &APIKeyRepository{db: db}
}

// Add registers a key hash for tenantID.
func (r *APIKeyRepository) Add(ctx context.Context, keyHash, tenantID, description string) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO api_keys (key_hash, tenant_id, created_at, description) VALUES ($1, $2, $3, $4)`,
		keyHash, tenantID, time.Now().UTC(), description,
	)
	if err != nil {
		if errors.Is(constraintError(err), repository.ErrDuplicate) {
			return repository.ErrDuplicate
		}
		return fmt.Errorf("failed to add api key: %w", err)
	}
	return nil
}

// TenantForHash returns the tenant owning keyHash and stamps last_used.
func (r *APIKeyRepository) TenantForHash(ctx context.Context, keyHash string) (string, error) {
	var tenantID string
	err := r.db.QueryRowContext(ctx,
		`UPDATE api_keys SET last_used = now() WHERE key_hash = $1 RETURNING tenant_id`, keyHash,
	).Scan(&tenantID)
	if errors.Is(err, sql.ErrNoRows) {
		return "", repository.ErrNotFound
	}
	if err != nil {
		return "", fmt.Errorf("failed to resolve api key: %w", err)
	}
	return tenantID, nil
}
