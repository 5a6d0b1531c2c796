package period

import (
	"context"
	"time"

	"github.com/rpggio/chainledger/internal/domain/activity"
)

// Repository provides persistence for weekly periods.
//
// Get returns retired periods too. Update and Retire only touch active
// periods and report repository.ErrNotFound otherwise. Create and Update
// report repository.ErrDuplicate or repository.ErrOverlap when the store's
// own constraints reject the write.
type Repository interface {
	Create(ctx context.Context, tenantID string, p *WeeklyPeriod) error
	Get(ctx context.Context, tenantID, id string) (*WeeklyPeriod, error)
	Update(ctx context.Context, tenantID string, p *WeeklyPeriod) error
	Retire(ctx context.Context, tenantID, id string, at time.Time) error
	List(ctx context.Context, tenantID string, opts ListOptions) ([]WeeklyPeriod, error)
	FindByStoreAndWeek(ctx context.Context, tenantID string, storeID int64, weekNumber, startYear int) (*WeeklyPeriod, error)
}

// StoreDirectory answers whether a store exists.
type StoreDirectory interface {
	Exists(ctx context.Context, tenantID string, storeID int64) (bool, error)
}

// ActivityRepository logs period activities.
type ActivityRepository interface {
	Log(ctx context.Context, tenantID string, entry *activity.ActivityEntry) error
}

// MetricsRecorder counts ledger traffic.
type MetricsRecorder interface {
	RecordWrite(operation, outcome string)
	RecordQuery(query string)
}
