package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/rpggio/chainledger/internal/domain/activity"
)

// ActivityRepository implements activity.Repository for PostgreSQL
type ActivityRepository struct {
	db *DB
}

// NewActivityRepository creates a new ActivityRepository
func NewActivityRepository(db *DB) *ActivityRepository {
	return &ActivityRepository{db: db}
}

// Log inserts a new activity entry
func (r *ActivityRepository) Log(ctx context.Context, tenantID string, entry *activity.ActivityEntry) error {
	createdAt := entry.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now().UTC()
	}

	err := r.db.QueryRowContext(ctx, `
		INSERT INTO activity_log (
			tenant_id, store_id, period_id, activity_type, summary, details, created_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id
	`,
		tenantID,
		entry.StoreID,
		entry.PeriodID,
		string(entry.ActivityType),
		entry.Summary,
		entry.Details,
		createdAt,
	).Scan(&entry.ID)
	if err != nil {
		return fmt.Errorf("failed to log activity: %w", err)
	}

	entry.TenantID = tenantID
	entry.CreatedAt = createdAt
	return nil
}

// List returns activity entries matching the given filters, newest first
func (r *ActivityRepository) List(ctx context.Context, tenantID string, opts activity.ListActivityOptions) ([]activity.ActivityEntry, error) {
	ph := &placeholders{}
	conditions := []string{"tenant_id = " + ph.add(tenantID)}

	if opts.StoreID != nil {
		conditions = append(conditions, "store_id = "+ph.add(*opts.StoreID))
	}
	if opts.PeriodID != nil {
		conditions = append(conditions, "period_id = "+ph.add(*opts.PeriodID))
	}
	if opts.ActivityType != nil {
		conditions = append(conditions, "activity_type = "+ph.add(string(*opts.ActivityType)))
	}

	query := `
		SELECT id, tenant_id, store_id, period_id, activity_type, summary, details, created_at
		FROM activity_log
		WHERE ` + strings.Join(conditions, " AND ") + `
		ORDER BY created_at DESC, id DESC`

	if opts.Limit > 0 {
		query += " LIMIT " + ph.add(opts.Limit)
	}
	if opts.Offset > 0 {
		query += " OFFSET " + ph.add(opts.Offset)
	}

	rows, err := r.db.QueryContext(ctx, query, ph.args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list activity: %w", err)
	}
	defer rows.Close()

	entries := []activity.ActivityEntry{}
	for rows.Next() {
		var entry activity.ActivityEntry
		var storeID sql.NullInt64
		var periodID, details sql.NullString
		if err := rows.Scan(
			&entry.ID,
			&entry.TenantID,
			&storeID,
			&periodID,
			&entry.ActivityType,
			&entry.Summary,
			&details,
			&entry.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan activity entry: %w", err)
		}
		if storeID.Valid {
			entry.StoreID = &storeID.Int64
		}
		if periodID.Valid {
			entry.PeriodID = &periodID.String
		}
		entry.Details = details.String
		entries = append(entries, entry)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating activity rows: %w", err)
	}
	return entries, nil
}
