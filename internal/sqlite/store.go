package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/rpggio/chainledger/internal/domain/store"
	"github.com/rpggio/chainledger/internal/repository"
)

// StoreRepository implements store.Repository for SQLite
type StoreRepository struct {
	db *DB
}

// NewStoreRepository creates a new StoreRepository
func NewStoreRepository(db *DB) *StoreRepository {
	return &StoreRepository{db: db}
}

// Create inserts a store, assigning the next free ID when s.ID is zero
func (r *StoreRepository) Create(ctx context.Context, tenantID string, s *store.Store) error {
	query := `
		INSERT INTO stores (tenant_id, id, code, name, created_at)
		VALUES (
			?,
			COALESCE(NULLIF(?, 0), (SELECT COALESCE(MAX(id), 0) + 1 FROM stores WHERE tenant_id = ?)),
			?, ?, ?
		)
		RETURNING id
	`

	err := r.db.QueryRowContext(ctx, query,
		tenantID,
		s.ID,
		tenantID,
		s.Code,
		s.Name,
		s.CreatedAt,
	).Scan(&s.ID)
	if err != nil {
		if isUniqueViolation(err) {
			return repository.ErrDuplicate
		}
		return fmt.Errorf("failed to create store: %w", err)
	}

	s.TenantID = tenantID
	return nil
}

// Get retrieves a store by ID
func (r *StoreRepository) Get(ctx context.Context, tenantID string, id int64) (*store.Store, error) {
	query := `
		SELECT id, tenant_id, code, name, created_at
		FROM stores
		WHERE tenant_id = ? AND id = ?
	`

	var s store.Store
	err := r.db.QueryRowContext(ctx, query, tenantID, id).Scan(
		&s.ID,
		&s.TenantID,
		&s.Code,
		&s.Name,
		&s.CreatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, repository.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get store: %w", err)
	}

	return &s, nil
}

// List returns all stores of a tenant ordered by ID
func (r *StoreRepository) List(ctx context.Context, tenantID string) ([]store.Store, error) {
	query := `
		SELECT id, tenant_id, code, name, created_at
		FROM stores
		WHERE tenant_id = ?
		ORDER BY id ASC
	`

	rows, err := r.db.QueryContext(ctx, query, tenantID)
	if err != nil {
		return nil, fmt.Errorf("failed to list stores: %w", err)
	}
	defer rows.Close()

	stores := []store.Store{}
	for rows.Next() {
		var s store.Store
		if err := rows.Scan(&s.ID, &s.TenantID, &s.Code, &s.Name, &s.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan store: %w", err)
		}
		stores = append(stores, s)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating store rows: %w", err)
	}

	return stores, nil
}

// Exists reports whether the tenant has a store with the ID
func (r *StoreRepository) Exists(ctx context.Context, tenantID string, id int64) (bool, error) {
	var exists bool
	err := r.db.QueryRowContext(ctx,
		`SELECT EXISTS(SELECT 1 FROM stores WHERE tenant_id = ? AND id = ?)`,
		tenantID, id,
	).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("failed to check store: %w", err)
	}
	return exists, nil
}
