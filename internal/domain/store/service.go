package store

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/rpggio/chainledger/internal/domain/activity"
	"github.com/rpggio/chainledger/internal/repository"
)

// Service handles store operations.
type Service struct {
	repo       Repository
	activities ActivityRepository
	logger     *slog.Logger
}

// NewService creates a new store service.
func NewService(repo Repository, activities ActivityRepository, logger *slog.Logger) *Service {
	return &Service{repo: repo, activities: activities, logger: logger}
}

// CreateRequest defines store creation inputs. A zero ID lets the repository assign one.
type CreateRequest struct {
	ID   int64
	Code string
	Name string
}

// Create registers a new store.
func (s *Service) Create(ctx context.Context, tenantID string, req CreateRequest) (*Store, error) {
	code := strings.TrimSpace(req.Code)
	name := strings.TrimSpace(req.Name)
	if code == "" || name == "" || req.ID < 0 {
		return nil, ErrInvalidInput
	}

	st := &Store{
		ID:        req.ID,
		TenantID:  tenantID,
		Code:      code,
		Name:      name,
		CreatedAt: time.Now().UTC(),
	}

	if err := s.repo.Create(ctx, tenantID, st); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, ErrStoreExists
		}
		return nil, fmt.Errorf("creating store: %w", err)
	}

	if s.activities != nil {
		id := st.ID
		_ = s.activities.Log(ctx, tenantID, &activity.ActivityEntry{
			TenantID:     tenantID,
			StoreID:      &id,
			ActivityType: activity.TypeStoreCreated,
			Summary:      fmt.Sprintf("Created store %s (%s)", st.Code, st.Name),
			CreatedAt:    st.CreatedAt,
		})
	}

	return st, nil
}

// Get fetches a store by ID.
func (s *Service) Get(ctx context.Context, tenantID string, id int64) (*Store, error) {
	st, err := s.repo.Get(ctx, tenantID, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrStoreNotFound
		}
		return nil, fmt.Errorf("getting store: %w", err)
	}
	return st, nil
}

// List returns the tenant's stores ordered by ID.
func (s *Service) List(ctx context.Context, tenantID string) ([]Store, error) {
	stores, err := s.repo.List(ctx, tenantID)
	if err != nil {
		return nil, fmt.Errorf("listing stores: %w", err)
	}
	return stores, nil
}

// Exists reports whether the tenant has a store with the ID.
func (s *Service) Exists(ctx context.Context, tenantID string, id int64) (bool, error) {
	ok, err := s.repo.Exists(ctx, tenantID, id)
	if err != nil {
		return false, fmt.Errorf("checking store: %w", err)
	}
	return ok, nil
}
