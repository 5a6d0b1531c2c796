package store

import (
	"context"

	"github.com/rpggio/chainledger/internal/domain/activity"
)

// Repository provides persistence for stores.
// Create assigns an ID when the store's ID is zero.
type Repository interface {
	Create(ctx context.Context, tenantID string, s *Store) error
	Get(ctx context.Context, tenantID string, id int64) (*Store, error)
	List(ctx context.Context, tenantID string) ([]Store, error)
	Exists(ctx context.Context, tenantID string, id int64) (bool, error)
}

// ActivityRepository logs store activities.
type ActivityRepository interface {
	Log(ctx context.Context, tenantID string, entry *activity.ActivityEntry) error
}
