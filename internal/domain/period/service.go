package period

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/rpggio/chainledger/internal/calendar"
	"github.com/rpggio/chainledger/internal/domain/activity"
	"github.com/rpggio/chainledger/internal/repository"
	"github.com/shopspring/decimal"
)

const dateLayout = "2006-01-02"

// Write operations and outcomes reported to the metrics recorder.
const (
	OpAdmit  = "admit"
	OpRevise = "revise"
	OpRetire = "retire"

	OutcomeOK       = "ok"
	OutcomeRejected = "rejected"
	OutcomeNotFound = "not_found"
	OutcomeError    = "error"
)

// Ledger owns the weekly periods of every store and validates each write.
type Ledger struct {
	periods    Repository
	stores     StoreDirectory
	activities ActivityRepository
	metrics    MetricsRecorder
	validator  *Validator
	clock      calendar.Clock
	calendar   *calendar.Engine
	locks      *storeLocks
	logger     *slog.Logger
}

// NewLedger creates a ledger. activities and logger may be nil.
func NewLedger(
	periods Repository,
	stores StoreDirectory,
	activities ActivityRepository,
	logger *slog.Logger,
	opts ...Option,
) *Ledger {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	l := &Ledger{
		periods:    periods,
		stores:     stores,
		activities: activities,
		validator:  NewValidator(DefaultLimits()),
		clock:      calendar.SystemClock{},
		calendar:   calendar.NewEngine(nil),
		locks:      newStoreLocks(),
		logger:     logger,
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Entry holds the caller-supplied figures of a period.
type Entry struct {
	WeekNumber int
	WeekStart  time.Time
	WeekEnd    time.Time
	Revenue    decimal.Decimal
	UnitsSold  int64
}

func (e Entry) candidate(storeID int64) Candidate {
	return Candidate{
		StoreID:    storeID,
		WeekNumber: e.WeekNumber,
		WeekStart:  calendar.DateOf(e.WeekStart),
		WeekEnd:    calendar.DateOf(e.WeekEnd),
		Revenue:    e.Revenue,
		UnitsSold:  e.UnitsSold,
	}
}

// Admit validates and stores a new active period for the store.
func (l *Ledger) Admit(ctx context.Context, tenantID string, storeID int64, entry Entry) (*WeeklyPeriod, error) {
	p, err := l.admit(ctx, tenantID, storeID, entry)
	l.recordWrite(OpAdmit, err)
	return p, err
}

func (l *Ledger) admit(ctx context.Context, tenantID string, storeID int64, entry Entry) (*WeeklyPeriod, error) {
	exists, err := l.stores.Exists(ctx, tenantID, storeID)
	if err != nil {
		return nil, persistenceError("checking store", err)
	}
	if !exists {
		return nil, ErrStoreNotFound
	}

	unlock := l.locks.lock(tenantID, storeID)
	defer unlock()

	active, err := l.activeForStore(ctx, tenantID, storeID)
	if err != nil {
		return nil, err
	}

	now := l.clock.Now()
	c, err := l.validator.Validate(entry.candidate(storeID), active, now, "")
	if err != nil {
		l.logger.Debug("period rejected", "tenant_id", tenantID, "store_id", storeID, "operation", OpAdmit, "reason", err)
		return nil, err
	}

	ts := now.UTC()
	p := &WeeklyPeriod{
		ID:         uuid.NewString(),
		TenantID:   tenantID,
		StoreID:    c.StoreID,
		WeekNumber: c.WeekNumber,
		WeekStart:  c.WeekStart,
		WeekEnd:    c.WeekEnd,
		Revenue:    c.Revenue,
		UnitsSold:  c.UnitsSold,
		Active:     true,
		CreatedAt:  ts,
		UpdatedAt:  ts,
	}
	if err := l.periods.Create(ctx, tenantID, p); err != nil {
		return nil, writeError("creating period", err)
	}

	l.logActivity(ctx, tenantID, p, activity.TypePeriodAdmitted,
		fmt.Sprintf("Admitted week %d starting %s", p.WeekNumber, p.WeekStart.Format(dateLayout)))
	l.logger.Info("period admitted", "tenant_id", tenantID, "store_id", storeID, "period_id", p.ID, "week_number", p.WeekNumber)
	return p, nil
}

// Revise replaces the figures of an active period. The store stays the same.
func (l *Ledger) Revise(ctx context.Context, tenantID, id string, entry Entry) (*WeeklyPeriod, error) {
	p, err := l.revise(ctx, tenantID, id, entry)
	l.recordWrite(OpRevise, err)
	return p, err
}

func (l *Ledger) revise(ctx context.Context, tenantID, id string, entry Entry) (*WeeklyPeriod, error) {
	existing, err := l.getActive(ctx, tenantID, id)
	if err != nil {
		return nil, err
	}

	unlock := l.locks.lock(tenantID, existing.StoreID)
	defer unlock()

	// Re-read under the lock; a concurrent retire may have won.
	current, err := l.getActive(ctx, tenantID, id)
	if err != nil {
		return nil, err
	}

	active, err := l.activeForStore(ctx, tenantID, current.StoreID)
	if err != nil {
		return nil, err
	}

	now := l.clock.Now()
	c, err := l.validator.Validate(entry.candidate(current.StoreID), active, now, current.ID)
	if err != nil {
		l.logger.Debug("period rejected", "tenant_id", tenantID, "store_id", current.StoreID, "period_id", id, "operation", OpRevise, "reason", err)
		return nil, err
	}

	updated := *current
	updated.WeekNumber = c.WeekNumber
	updated.WeekStart = c.WeekStart
	updated.WeekEnd = c.WeekEnd
	updated.Revenue = c.Revenue
	updated.UnitsSold = c.UnitsSold
	updated.UpdatedAt = now.UTC()

	if err := l.periods.Update(ctx, tenantID, &updated); err != nil {
		return nil, writeError("updating period", err)
	}

	l.logActivity(ctx, tenantID, &updated, activity.TypePeriodRevised,
		fmt.Sprintf("Revised week %d starting %s", updated.WeekNumber, updated.WeekStart.Format(dateLayout)))
	l.logger.Info("period revised", "tenant_id", tenantID, "store_id", updated.StoreID, "period_id", id)
	return &updated, nil
}

// Retire marks an active period as retired. Retiring twice reports ErrPeriodNotFound.
func (l *Ledger) Retire(ctx context.Context, tenantID, id string) error {
	err := l.retire(ctx, tenantID, id)
	l.recordWrite(OpRetire, err)
	return err
}

func (l *Ledger) retire(ctx context.Context, tenantID, id string) error {
	existing, err := l.getActive(ctx, tenantID, id)
	if err != nil {
		return err
	}

	unlock := l.locks.lock(tenantID, existing.StoreID)
	defer unlock()

	now := l.clock.Now().UTC()
	if err := l.periods.Retire(ctx, tenantID, id, now); err != nil {
		return writeError("retiring period", err)
	}

	existing.Active = false
	existing.UpdatedAt = now
	l.logActivity(ctx, tenantID, existing, activity.TypePeriodRetired,
		fmt.Sprintf("Retired week %d starting %s", existing.WeekNumber, existing.WeekStart.Format(dateLayout)))
	l.logger.Info("period retired", "tenant_id", tenantID, "store_id", existing.StoreID, "period_id", id)
	return nil
}

// Get returns an active period by ID.
func (l *Ledger) Get(ctx context.Context, tenantID, id string) (*WeeklyPeriod, error) {
	l.recordQuery("get")
	return l.getActive(ctx, tenantID, id)
}

// ByStore lists the store's active periods by week start.
func (l *Ledger) ByStore(ctx context.Context, tenantID string, storeID int64) ([]WeeklyPeriod, error) {
	l.recordQuery("by_store")
	return l.list(ctx, tenantID, ListOptions{StoreID: &storeID, Order: OrderByStoreStart})
}

// ByDateRange lists active periods lying entirely within [start, end].
func (l *Ledger) ByDateRange(ctx context.Context, tenantID string, start, end time.Time) ([]WeeklyPeriod, error) {
	l.recordQuery("by_date_range")
	from, to := calendar.DateOf(start), calendar.DateOf(end)
	return l.list(ctx, tenantID, ListOptions{From: &from, To: &to, Order: OrderByStoreStart})
}

// ByStoreAndWeek returns the store's active period for the week, or nil if there is none.
// year is the calendar year of the week start.
func (l *Ledger) ByStoreAndWeek(ctx context.Context, tenantID string, storeID int64, weekNumber, year int) (*WeeklyPeriod, error) {
	l.recordQuery("by_store_and_week")
	p, err := l.periods.FindByStoreAndWeek(ctx, tenantID, storeID, weekNumber, year)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, nil
		}
		return nil, persistenceError("finding period", err)
	}
	return p, nil
}

// ByYear lists active periods starting in the calendar year, by store then week number.
func (l *Ledger) ByYear(ctx context.Context, tenantID string, year int) ([]WeeklyPeriod, error) {
	l.recordQuery("by_year")
	return l.list(ctx, tenantID, ListOptions{StartYear: &year, Order: OrderByStoreWeek})
}

// TotalRevenue sums the revenue of the store's active periods within [start, end].
func (l *Ledger) TotalRevenue(ctx context.Context, tenantID string, storeID int64, start, end time.Time) (decimal.Decimal, error) {
	l.recordQuery("total_revenue")
	periods, err := l.storeRange(ctx, tenantID, storeID, start, end)
	if err != nil {
		return decimal.Zero, err
	}
	return sumRevenue(periods), nil
}

// AverageRevenue is the mean revenue of the store's active periods within [start, end], zero if none match.
func (l *Ledger) AverageRevenue(ctx context.Context, tenantID string, storeID int64, start, end time.Time) (decimal.Decimal, error) {
	l.recordQuery("average_revenue")
	periods, err := l.storeRange(ctx, tenantID, storeID, start, end)
	if err != nil {
		return decimal.Zero, err
	}
	if len(periods) == 0 {
		return decimal.Zero, nil
	}
	return sumRevenue(periods).Div(decimal.NewFromInt(int64(len(periods)))), nil
}

// WeekInfo describes ISO week weekNumber of year.
func (l *Ledger) WeekInfo(year, weekNumber int) (WeekInfo, error) {
	l.recordQuery("week_info")
	if !ValidWeekNumber(weekNumber) {
		return WeekInfo{}, ErrInvalidWeekNumber
	}
	start := calendar.WeekStart(year, weekNumber)
	end := calendar.WeekEnd(year, weekNumber)
	return WeekInfo{
		Year:       year,
		WeekNumber: weekNumber,
		WeekStart:  start,
		WeekEnd:    end,
		// Week 53 of a 52-week year rolls into the next year's week 1.
		IsAligned: calendar.IsAlignedWeek(start, end) && calendar.IsoWeekNumber(start) == weekNumber,
	}, nil
}

// CurrentWeek decomposes today.
func (l *Ledger) CurrentWeek() calendar.Week {
	l.recordQuery("current_week")
	return l.calendar.Now()
}

// Limits returns the validation limits in force.
func (l *Ledger) Limits() Limits {
	return l.validator.Limits()
}

func (l *Ledger) getActive(ctx context.Context, tenantID, id string) (*WeeklyPeriod, error) {
	p, err := l.periods.Get(ctx, tenantID, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrPeriodNotFound
		}
		return nil, persistenceError("getting period", err)
	}
	if !p.Active {
		return nil, ErrPeriodNotFound
	}
	return p, nil
}

func (l *Ledger) activeForStore(ctx context.Context, tenantID string, storeID int64) ([]WeeklyPeriod, error) {
	return l.list(ctx, tenantID, ListOptions{StoreID: &storeID, Order: OrderByStoreStart})
}

func (l *Ledger) storeRange(ctx context.Context, tenantID string, storeID int64, start, end time.Time) ([]WeeklyPeriod, error) {
	from, to := calendar.DateOf(start), calendar.DateOf(end)
	return l.list(ctx, tenantID, ListOptions{StoreID: &storeID, From: &from, To: &to, Order: OrderByStoreStart})
}

func (l *Ledger) list(ctx context.Context, tenantID string, opts ListOptions) ([]WeeklyPeriod, error) {
	periods, err := l.periods.List(ctx, tenantID, opts)
	if err != nil {
		return nil, persistenceError("listing periods", err)
	}
	if periods == nil {
		periods = []WeeklyPeriod{}
	}
	return periods, nil
}

func (l *Ledger) logActivity(ctx context.Context, tenantID string, p *WeeklyPeriod, kind activity.ActivityType, summary string) {
	if l.activities == nil {
		return
	}
	details, _ := json.Marshal(map[string]any{
		"week_number": p.WeekNumber,
		"week_start":  p.WeekStart.Format(dateLayout),
		"week_end":    p.WeekEnd.Format(dateLayout),
		"revenue":     p.Revenue.String(),
		"units_sold":  p.UnitsSold,
	})
	storeID := p.StoreID
	periodID := p.ID
	if err := l.activities.Log(ctx, tenantID, &activity.ActivityEntry{
		TenantID:     tenantID,
		StoreID:      &storeID,
		PeriodID:     &periodID,
		ActivityType: kind,
		Summary:      summary,
		Details:      string(details),
		CreatedAt:    p.UpdatedAt,
	}); err != nil {
		l.logger.Warn("activity log failed", "tenant_id", tenantID, "period_id", p.ID, "error", err)
	}
}

func (l *Ledger) recordWrite(operation string, err error) {
	if l.metrics == nil {
		return
	}
	l.metrics.RecordWrite(operation, Outcome(err))
}

func (l *Ledger) recordQuery(query string) {
	if l.metrics == nil {
		return
	}
	l.metrics.RecordQuery(query)
}

// Outcome classifies a write result for metrics.
func Outcome(err error) string {
	switch {
	case err == nil:
		return OutcomeOK
	case IsValidationError(err):
		return OutcomeRejected
	case errors.Is(err, ErrStoreNotFound), errors.Is(err, ErrPeriodNotFound):
		return OutcomeNotFound
	default:
		return OutcomeError
	}
}

func sumRevenue(periods []WeeklyPeriod) decimal.Decimal {
	total := decimal.Zero
	for _, p := range periods {
		total = total.Add(p.Revenue)
	}
	return total
}

func persistenceError(op string, err error) error {
	return fmt.Errorf("%s: %w: %w", op, ErrPersistenceUnavailable, err)
}

// writeError maps constraint violations raised by the store after the
// validator passed onto the matching domain errors.
func writeError(op string, err error) error {
	switch {
	case errors.Is(err, repository.ErrDuplicate):
		return ErrDuplicateWeekNumber
	case errors.Is(err, repository.ErrOverlap):
		return ErrOverlappingPeriod
	case errors.Is(err, repository.ErrNotFound):
		return ErrPeriodNotFound
	default:
		return persistenceError(op, err)
	}
}
