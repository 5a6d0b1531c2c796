package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rpggio/chainledger/internal/calendar"
	"github.com/rpggio/chainledger/internal/domain/period"
	"github.com/rpggio/chainledger/internal/repository"
)

const dateLayout = "2006-01-02"

const periodColumns = `
	id, tenant_id, store_id, week_number, week_start, week_end,
	revenue, units_sold, active, created_at, updated_at`

// PeriodRepository implements period.Repository for PostgreSQL
type PeriodRepository struct {
	db *DB
}

// NewPeriodRepository creates a new PeriodRepository
func NewPeriodRepository(db *DB) *PeriodRepository {
	return &PeriodRepository{db: db}
}

// Create inserts a new period
func (r *PeriodRepository) Create(ctx context.Context, tenantID string, p *period.WeeklyPeriod) error {
	query := `
		INSERT INTO weekly_periods (
			id, tenant_id, store_id, week_number, week_start, week_end, start_year,
			revenue, units_sold, active, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
	`

	_, err := r.db.ExecContext(ctx, query,
		p.ID,
		tenantID,
		p.StoreID,
		p.WeekNumber,
		p.WeekStart.Format(dateLayout),
		p.WeekEnd.Format(dateLayout),
		p.StartYear(),
		p.Revenue,
		p.UnitsSold,
		p.Active,
		p.CreatedAt,
		p.UpdatedAt,
	)
	if err != nil {
		if cerr := constraintError(err); cerr != nil {
			return cerr
		}
		return fmt.Errorf("failed to create period: %w", err)
	}

	p.TenantID = tenantID
	return nil
}

// Get retrieves a period by ID, retired or not
func (r *PeriodRepository) Get(ctx context.Context, tenantID, id string) (*period.WeeklyPeriod, error) {
	query := `SELECT` + periodColumns + `
		FROM weekly_periods
		WHERE id = $1 AND tenant_id = $2
	`

	p, err := scanPeriod(r.db.QueryRowContext(ctx, query, id, tenantID))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, repository.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get period: %w", err)
	}
	return p, nil
}

// Update rewrites the figures of an active period
func (r *PeriodRepository) Update(ctx context.Context, tenantID string, p *period.WeeklyPeriod) error {
	query := `
		UPDATE weekly_periods
		SET week_number = $1, week_start = $2, week_end = $3, start_year = $4,
			revenue = $5, units_sold = $6, updated_at = $7
		WHERE id = $8 AND tenant_id = $9 AND active
	`

	result, err := r.db.ExecContext(ctx, query,
		p.WeekNumber,
		p.WeekStart.Format(dateLayout),
		p.WeekEnd.Format(dateLayout),
		p.StartYear(),
		p.Revenue,
		p.UnitsSold,
		p.UpdatedAt,
		p.ID,
		tenantID,
	)
	if err != nil {
		if cerr := constraintError(err); cerr != nil {
			return cerr
		}
		return fmt.Errorf("failed to update period: %w", err)
	}

	return requireAffected(result, "update period")
}

// Retire soft-deletes an active period
func (r *PeriodRepository) Retire(ctx context.Context, tenantID, id string, at time.Time) error {
	query := `
		UPDATE weekly_periods
		SET active = FALSE, updated_at = $1
		WHERE id = $2 AND tenant_id = $3 AND active
	`

	result, err := r.db.ExecContext(ctx, query, at, id, tenantID)
	if err != nil {
		return fmt.Errorf("failed to retire period: %w", err)
	}

	return requireAffected(result, "retire period")
}

// List returns active periods matching the options
func (r *PeriodRepository) List(ctx context.Context, tenantID string, opts period.ListOptions) ([]period.WeeklyPeriod, error) {
	ph := &placeholders{}
	conditions := []string{"tenant_id = " + ph.add(tenantID), "active"}

	if opts.StoreID != nil {
		conditions = append(conditions, "store_id = "+ph.add(*opts.StoreID))
	}
	if opts.From != nil {
		conditions = append(conditions, "week_start >= "+ph.add(opts.From.Format(dateLayout)))
	}
	if opts.To != nil {
		conditions = append(conditions, "week_end <= "+ph.add(opts.To.Format(dateLayout)))
	}
	if opts.StartYear != nil {
		conditions = append(conditions, "start_year = "+ph.add(*opts.StartYear))
	}

	query := `SELECT` + periodColumns + `
		FROM weekly_periods
		WHERE ` + strings.Join(conditions, " AND ")

	switch opts.Order {
	case period.OrderByStoreWeek:
		query += " ORDER BY store_id, week_number, week_start"
	default:
		query += " ORDER BY store_id, week_start"
	}

	rows, err := r.db.QueryContext(ctx, query, ph.args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list periods: %w", err)
	}
	defer rows.Close()

	periods := []period.WeeklyPeriod{}
	for rows.Next() {
		p, err := scanPeriod(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan period: %w", err)
		}
		periods = append(periods, *p)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating period rows: %w", err)
	}

	return periods, nil
}

// FindByStoreAndWeek returns the store's active period for a week number and start year
func (r *PeriodRepository) FindByStoreAndWeek(ctx context.Context, tenantID string, storeID int64, weekNumber, startYear int) (*period.WeeklyPeriod, error) {
	query := `SELECT` + periodColumns + `
		FROM weekly_periods
		WHERE tenant_id = $1 AND store_id = $2 AND week_number = $3 AND start_year = $4 AND active
	`

	p, err := scanPeriod(r.db.QueryRowContext(ctx, query, tenantID, storeID, weekNumber, startYear))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, repository.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find period: %w", err)
	}
	return p, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanPeriod(row rowScanner) (*period.WeeklyPeriod, error) {
	var p period.WeeklyPeriod
	if err := row.Scan(
		&p.ID,
		&p.TenantID,
		&p.StoreID,
		&p.WeekNumber,
		&p.WeekStart,
		&p.WeekEnd,
		&p.Revenue,
		&p.UnitsSold,
		&p.Active,
		&p.CreatedAt,
		&p.UpdatedAt,
	); err != nil {
		return nil, err
	}
	p.WeekStart = calendar.DateOf(p.WeekStart)
	p.WeekEnd = calendar.DateOf(p.WeekEnd)
	return &p, nil
}

func requireAffected(result sql.Result, op string) error {
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to %s: %w", op, err)
	}
	if affected == 0 {
		return repository.ErrNotFound
	}
	return nil
}
