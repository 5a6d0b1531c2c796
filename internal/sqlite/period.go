package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/rpggio/chainledger/internal/domain/period"
	"github.com/rpggio/chainledger/internal/repository"
)

const dateLayout = "2006-01-02"

const periodColumns = `
	id, tenant_id, store_id, week_number, week_start, week_end,
	revenue, units_sold, active, created_at, updated_at`

// PeriodRepository implements period.Repository for SQLite
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
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
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
		WHERE id = ? AND tenant_id = ?
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
		SET week_number = ?, week_start = ?, week_end = ?, start_year = ?,
			revenue = ?, units_sold = ?, updated_at = ?
		WHERE id = ? AND tenant_id = ? AND active = 1
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
		SET active = 0, updated_at = ?
		WHERE id = ? AND tenant_id = ? AND active = 1
	`

	result, err := r.db.ExecContext(ctx, query, at, id, tenantID)
	if err != nil {
		return fmt.Errorf("failed to retire period: %w", err)
	}

	return requireAffected(result, "retire period")
}

// List returns active periods matching the options
func (r *PeriodRepository) List(ctx context.Context, tenantID string, opts period.ListOptions) ([]period.WeeklyPeriod, error) {
	query := `SELECT` + periodColumns + `
		FROM weekly_periods
		WHERE tenant_id = ? AND active = 1
	`

	args := []interface{}{tenantID}
	conditions := []string{}

	if opts.StoreID != nil {
		conditions = append(conditions, "store_id = ?")
		args = append(args, *opts.StoreID)
	}
	if opts.From != nil {
		conditions = append(conditions, "week_start >= ?")
		args = append(args, opts.From.Format(dateLayout))
	}
	if opts.To != nil {
		conditions = append(conditions, "week_end <= ?")
		args = append(args, opts.To.Format(dateLayout))
	}
	if opts.StartYear != nil {
		conditions = append(conditions, "start_year = ?")
		args = append(args, *opts.StartYear)
	}

	if len(conditions) > 0 {
		query += " AND " + joinConditions(conditions)
	}

	switch opts.Order {
	case period.OrderByStoreWeek:
		query += " ORDER BY store_id ASC, week_number ASC, week_start ASC"
	default:
		query += " ORDER BY store_id ASC, week_start ASC"
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
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
		WHERE tenant_id = ? AND store_id = ? AND week_number = ? AND start_year = ? AND active = 1
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
	var weekStart, weekEnd string
	if err := row.Scan(
		&p.ID,
		&p.TenantID,
		&p.StoreID,
		&p.WeekNumber,
		&weekStart,
		&weekEnd,
		&p.Revenue,
		&p.UnitsSold,
		&p.Active,
		&p.CreatedAt,
		&p.UpdatedAt,
	); err != nil {
		return nil, err
	}

	var err error
	if p.WeekStart, err = time.Parse(dateLayout, weekStart); err != nil {
		return nil, fmt.Errorf("parsing week_start %q: %w", weekStart, err)
	}
	if p.WeekEnd, err = time.Parse(dateLayout, weekEnd); err != nil {
		return nil, fmt.Errorf("parsing week_end %q: %w", weekEnd, err)
	}
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
