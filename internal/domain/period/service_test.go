package period_test

import (
	"context"
	"errors"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/rpggio/chainledger/internal/calendar"
	"github.com/rpggio/chainledger/internal/domain/activity"
	"github.com/rpggio/chainledger/internal/domain/period"
	"github.com/rpggio/chainledger/internal/repository"
	"github.com/rpggio/chainledger/internal/repository/mocks"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

const tenantID = "tenant1"

var ledgerNow = time.Date(2025, time.March, 1, 9, 0, 0, 0, time.UTC)

// memRepo is an in-memory period.Repository without constraint backstops.
type memRepo struct {
	mu      sync.Mutex
	periods map[string]period.WeeklyPeriod
}

func newMemRepo() *memRepo {
	return &memRepo{periods: make(map[string]period.WeeklyPeriod)}
}

func (r *memRepo) Create(_ context.Context, tenantID string, p *period.WeeklyPeriod) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := *p
	cp.TenantID = tenantID
	r.periods[p.ID] = cp
	return nil
}

func (r *memRepo) Get(_ context.Context, tenantID, id string) (*period.WeeklyPeriod, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.periods[id]
	if !ok || p.TenantID != tenantID {
		return nil, repository.ErrNotFound
	}
	return &p, nil
}

func (r *memRepo) Update(_ context.Context, tenantID string, p *period.WeeklyPeriod) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	cur, ok := r.periods[p.ID]
	if !ok || cur.TenantID != tenantID || !cur.Active {
		return repository.ErrNotFound
	}
	r.periods[p.ID] = *p
	return nil
}

func (r *memRepo) Retire(_ context.Context, tenantID, id string, at time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	cur, ok := r.periods[id]
	if !ok || cur.TenantID != tenantID || !cur.Active {
		return repository.ErrNotFound
	}
	cur.Active = false
	cur.UpdatedAt = at
	r.periods[id] = cur
	return nil
}

func (r *memRepo) List(_ context.Context, tenantID string, opts period.ListOptions) ([]period.WeeklyPeriod, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []period.WeeklyPeriod
	for _, p := range r.periods {
		if !p.Active || p.TenantID != tenantID {
			continue
		}
		if opts.StoreID != nil && p.StoreID != *opts.StoreID {
			continue
		}
		if opts.From != nil && p.WeekStart.Before(*opts.From) {
			continue
		}
		if opts.To != nil && p.WeekEnd.After(*opts.To) {
			continue
		}
		if opts.StartYear != nil && p.StartYear() != *opts.StartYear {
			continue
		}
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].StoreID != out[j].StoreID {
			return out[i].StoreID < out[j].StoreID
		}
		if opts.Order == period.OrderByStoreWeek {
			return out[i].WeekNumber < out[j].WeekNumber
		}
		return out[i].WeekStart.Before(out[j].WeekStart)
	})
	return out, nil
}

func (r *memRepo) FindByStoreAndWeek(ctx context.Context, tenantID string, storeID int64, weekNumber, startYear int) (*period.WeeklyPeriod, error) {
	list, _ := r.List(ctx, tenantID, period.ListOptions{StoreID: &storeID, StartYear: &startYear})
	for _, p := range list {
		if p.WeekNumber == weekNumber {
			return &p, nil
		}
	}
	return nil, repository.ErrNotFound
}

func knownStores(ids ...int64) *mocks.StoreDirectory {
	dir := &mocks.StoreDirectory{}
	for _, id := range ids {
		dir.On("Exists", mock.Anything, tenantID, id).Return(true, nil)
	}
	dir.On("Exists", mock.Anything, mock.Anything, mock.Anything).Return(false, nil)
	return dir
}

func newTestLedger(repo period.Repository, opts ...period.Option) *period.Ledger {
	opts = append([]period.Option{period.WithClock(calendar.FixedClock{At: ledgerNow})}, opts...)
	return period.NewLedger(repo, knownStores(7, 8), nil, nil, opts...)
}

func entry(year, week int, revenue int64, units int64) period.Entry {
	return period.Entry{
		WeekNumber: week,
		WeekStart:  calendar.WeekStart(year, week),
		WeekEnd:    calendar.WeekEnd(year, week),
		Revenue:    decimal.NewFromInt(revenue),
		UnitsSold:  units,
	}
}

func TestLedger_ScenarioAdmitAndAggregate(t *testing.T) {
	ctx := context.Background()
	ledger := newTestLedger(newMemRepo())

	// Week 1 of 2025 starts on Monday 2024-12-30.
	first, err := ledger.Admit(ctx, tenantID, 7, period.Entry{
		WeekNumber: 1,
		WeekStart:  calendar.Date(2024, time.December, 30),
		WeekEnd:    calendar.Date(2025, time.January, 5),
		Revenue:    decimal.NewFromInt(50000),
		UnitsSold:  120,
	})
	require.NoError(t, err)
	require.NotEmpty(t, first.ID)
	require.True(t, first.Active)
	require.Equal(t, ledgerNow, first.CreatedAt)
	require.Equal(t, first.CreatedAt, first.UpdatedAt)

	found, err := ledger.ByStoreAndWeek(ctx, tenantID, 7, 1, 2024)
	require.NoError(t, err)
	require.NotNil(t, found)
	require.Equal(t, first.ID, found.ID)

	_, err = ledger.Admit(ctx, tenantID, 7, period.Entry{
		WeekNumber: 1,
		WeekStart:  calendar.Date(2024, time.December, 30),
		WeekEnd:    calendar.Date(2025, time.January, 5),
		Revenue:    decimal.NewFromInt(1),
		UnitsSold:  1,
	})
	require.ErrorIs(t, err, period.ErrDuplicateWeekNumber)

	_, err = ledger.Admit(ctx, tenantID, 7, period.Entry{
		WeekNumber: 2,
		WeekStart:  calendar.Date(2025, time.January, 6),
		WeekEnd:    calendar.Date(2025, time.January, 12),
		Revenue:    decimal.NewFromInt(30000),
		UnitsSold:  80,
	})
	require.NoError(t, err)

	total, err := ledger.TotalRevenue(ctx, tenantID, 7, calendar.Date(2024, time.December, 30), calendar.Date(2025, time.January, 12))
	require.NoError(t, err)
	require.True(t, total.Equal(decimal.NewFromInt(80000)), total.String())

	avg, err := ledger.AverageRevenue(ctx, tenantID, 7, calendar.Date(2024, time.December, 30), calendar.Date(2025, time.January, 12))
	require.NoError(t, err)
	require.True(t, avg.Equal(decimal.NewFromInt(40000)), avg.String())

	_, err = ledger.Admit(ctx, tenantID, 7, period.Entry{
		WeekNumber: 1,
		WeekStart:  calendar.Date(2025, time.January, 1),
		WeekEnd:    calendar.Date(2025, time.January, 7),
		Revenue:    decimal.NewFromInt(1),
	})
	require.ErrorIs(t, err, period.ErrMisalignedWeek)
}

func TestLedger_AdmitUnknownStore(t *testing.T) {
	repo := &mocks.PeriodRepository{}
	ledger := newTestLedger(repo)

	_, err := ledger.Admit(context.Background(), tenantID, 99, entry(2025, 2, 1, 1))
	require.ErrorIs(t, err, period.ErrStoreNotFound)
	repo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything, mock.Anything)
}

func TestLedger_AdmitOverlapAcrossStoresIsAllowed(t *testing.T) {
	ctx := context.Background()
	ledger := newTestLedger(newMemRepo())

	_, err := ledger.Admit(ctx, tenantID, 7, entry(2025, 3, 100, 1))
	require.NoError(t, err)
	_, err = ledger.Admit(ctx, tenantID, 8, entry(2025, 3, 100, 1))
	require.NoError(t, err)
}

func TestLedger_FailedValidationWritesNothing(t *testing.T) {
	ctx := context.Background()
	repo := &mocks.PeriodRepository{}
	repo.On("List", ctx, tenantID, mock.Anything).Return([]period.WeeklyPeriod{}, nil)
	ledger := newTestLedger(repo)

	bad := entry(2025, 2, 1, 1)
	bad.WeekNumber = 5
	_, err := ledger.Admit(ctx, tenantID, 7, bad)
	require.ErrorIs(t, err, period.ErrWeekNumberMismatch)
	repo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything, mock.Anything)
}

func TestLedger_ReviseSelfExclusion(t *testing.T) {
	ctx := context.Background()
	ledger := newTestLedger(newMemRepo())

	p, err := ledger.Admit(ctx, tenantID, 7, entry(2025, 4, 1000, 10))
	require.NoError(t, err)

	revised, err := ledger.Revise(ctx, tenantID, p.ID, entry(2025, 4, 1000, 10))
	require.NoError(t, err)
	require.Equal(t, p.ID, revised.ID)
	require.Equal(t, int64(7), revised.StoreID)

	revised, err = ledger.Revise(ctx, tenantID, p.ID, entry(2025, 5, 2500, 12))
	require.NoError(t, err)
	require.Equal(t, 5, revised.WeekNumber)
	require.True(t, revised.Revenue.Equal(decimal.NewFromInt(2500)))
	require.Equal(t, p.CreatedAt, revised.CreatedAt)

	stored, err := ledger.Get(ctx, tenantID, p.ID)
	require.NoError(t, err)
	require.Equal(t, 5, stored.WeekNumber)
}

func TestLedger_ReviseIntoNeighbourRejected(t *testing.T) {
	ctx := context.Background()
	ledger := newTestLedger(newMemRepo())

	a, err := ledger.Admit(ctx, tenantID, 7, entry(2025, 4, 1000, 10))
	require.NoError(t, err)
	_, err = ledger.Admit(ctx, tenantID, 7, entry(2025, 5, 1000, 10))
	require.NoError(t, err)

	_, err = ledger.Revise(ctx, tenantID, a.ID, entry(2025, 5, 1, 1))
	require.ErrorIs(t, err, period.ErrDuplicateWeekNumber)

	unchanged, err := ledger.Get(ctx, tenantID, a.ID)
	require.NoError(t, err)
	require.Equal(t, 4, unchanged.WeekNumber)
}

func TestLedger_RetireTwice(t *testing.T) {
	ctx := context.Background()
	ledger := newTestLedger(newMemRepo())

	p, err := ledger.Admit(ctx, tenantID, 7, entry(2025, 6, 1000, 10))
	require.NoError(t, err)

	require.NoError(t, ledger.Retire(ctx, tenantID, p.ID))
	require.ErrorIs(t, ledger.Retire(ctx, tenantID, p.ID), period.ErrPeriodNotFound)

	_, err = ledger.Get(ctx, tenantID, p.ID)
	require.ErrorIs(t, err, period.ErrPeriodNotFound)
	_, err = ledger.Revise(ctx, tenantID, p.ID, entry(2025, 6, 1, 1))
	require.ErrorIs(t, err, period.ErrPeriodNotFound)

	list, err := ledger.ByStore(ctx, tenantID, 7)
	require.NoError(t, err)
	require.Empty(t, list)

	// The retired week no longer blocks a fresh admission.
	_, err = ledger.Admit(ctx, tenantID, 7, entry(2025, 6, 900, 9))
	require.NoError(t, err)
}

func TestLedger_RetireUnknown(t *testing.T) {
	ledger := newTestLedger(newMemRepo())
	require.ErrorIs(t, ledger.Retire(context.Background(), tenantID, "missing"), period.ErrPeriodNotFound)
}

func TestLedger_Queries(t *testing.T) {
	ctx := context.Background()
	ledger := newTestLedger(newMemRepo())

	for _, e := range []struct {
		store int64
		year  int
		week  int
	}{
		{8, 2024, 40},
		{7, 2025, 3},
		{7, 2024, 40},
		{7, 2024, 41},
		{8, 2025, 2},
	} {
		_, err := ledger.Admit(ctx, tenantID, e.store, entry(e.year, e.week, 100, 1))
		require.NoError(t, err)
	}

	byStore, err := ledger.ByStore(ctx, tenantID, 7)
	require.NoError(t, err)
	require.Len(t, byStore, 3)
	require.Equal(t, []int{40, 41, 3}, weeks(byStore))

	byYear, err := ledger.ByYear(ctx, tenantID, 2024)
	require.NoError(t, err)
	require.Len(t, byYear, 3)
	require.Equal(t, int64(7), byYear[0].StoreID)
	require.Equal(t, []int{40, 41, 40}, weeks(byYear))

	inRange, err := ledger.ByDateRange(ctx, tenantID, calendar.WeekStart(2024, 41), calendar.WeekEnd(2025, 3))
	require.NoError(t, err)
	require.Len(t, inRange, 3)

	// A range cutting a week in half doesn't include it.
	partial, err := ledger.ByDateRange(ctx, tenantID, calendar.WeekStart(2025, 3).AddDate(0, 0, 1), calendar.WeekEnd(2025, 3))
	require.NoError(t, err)
	require.Empty(t, partial)

	none, err := ledger.ByStoreAndWeek(ctx, tenantID, 7, 52, 2024)
	require.NoError(t, err)
	require.Nil(t, none)
}

func TestLedger_AggregatesOverEmptyRange(t *testing.T) {
	ctx := context.Background()
	ledger := newTestLedger(newMemRepo())

	total, err := ledger.TotalRevenue(ctx, tenantID, 7, calendar.Date(2020, 1, 1), calendar.Date(2020, 2, 1))
	require.NoError(t, err)
	require.True(t, total.IsZero())

	avg, err := ledger.AverageRevenue(ctx, tenantID, 7, calendar.Date(2020, 1, 1), calendar.Date(2020, 2, 1))
	require.NoError(t, err)
	require.True(t, avg.IsZero())
}

func TestLedger_WeekInfo(t *testing.T) {
	ledger := newTestLedger(newMemRepo())

	info, err := ledger.WeekInfo(2025, 1)
	require.NoError(t, err)
	require.Equal(t, calendar.Date(2024, time.December, 30), info.WeekStart)
	require.Equal(t, calendar.Date(2025, time.January, 5), info.WeekEnd)
	require.True(t, info.IsAligned)

	info, err = ledger.WeekInfo(2026, 53)
	require.NoError(t, err)
	require.True(t, info.IsAligned)

	info, err = ledger.WeekInfo(2025, 53)
	require.NoError(t, err)
	require.False(t, info.IsAligned)

	_, err = ledger.WeekInfo(2025, 0)
	require.ErrorIs(t, err, period.ErrInvalidWeekNumber)
	_, err = ledger.WeekInfo(2025, 54)
	require.ErrorIs(t, err, period.ErrInvalidWeekNumber)
}

func TestLedger_CurrentWeek(t *testing.T) {
	ledger := newTestLedger(newMemRepo())

	week := ledger.CurrentWeek()
	require.Equal(t, calendar.Date(2025, time.March, 1), week.Date)
	require.Equal(t, 9, week.WeekNumber)
	require.Equal(t, 2025, week.Year)
}

func TestLedger_PersistenceErrorsAreWrapped(t *testing.T) {
	ctx := context.Background()
	boom := errors.New("connection reset")
	repo := &mocks.PeriodRepository{}
	repo.On("List", ctx, tenantID, mock.Anything).Return(nil, boom)
	repo.On("Get", ctx, tenantID, "p1").Return(nil, boom)
	ledger := newTestLedger(repo)

	_, err := ledger.Admit(ctx, tenantID, 7, entry(2025, 2, 1, 1))
	require.ErrorIs(t, err, period.ErrPersistenceUnavailable)
	require.ErrorIs(t, err, boom)
	require.False(t, period.IsValidationError(err))

	_, err = ledger.ByStore(ctx, tenantID, 7)
	require.ErrorIs(t, err, period.ErrPersistenceUnavailable)

	err = ledger.Retire(ctx, tenantID, "p1")
	require.ErrorIs(t, err, period.ErrPersistenceUnavailable)
}

func TestLedger_ConstraintBackstopMapsToDomainErrors(t *testing.T) {
	ctx := context.Background()
	tests := []struct {
		repoErr error
		want    error
	}{
		{repository.ErrDuplicate, period.ErrDuplicateWeekNumber},
		{repository.ErrOverlap, period.ErrOverlappingPeriod},
	}
	for _, tt := range tests {
		repo := &mocks.PeriodRepository{}
		repo.On("List", ctx, tenantID, mock.Anything).Return([]period.WeeklyPeriod{}, nil)
		repo.On("Create", ctx, tenantID, mock.Anything).Return(tt.repoErr)
		ledger := newTestLedger(repo)

		_, err := ledger.Admit(ctx, tenantID, 7, entry(2025, 2, 1, 1))
		require.ErrorIs(t, err, tt.want)
	}
}

func TestLedger_LogsActivity(t *testing.T) {
	ctx := context.Background()
	activities := &mocks.ActivityRepository{}
	activities.On("Log", ctx, tenantID, mock.MatchedBy(func(e *activity.ActivityEntry) bool {
		return e.ActivityType == activity.TypePeriodAdmitted && *e.StoreID == 7 && e.PeriodID != nil
	})).Return(nil)
	activities.On("Log", ctx, tenantID, mock.MatchedBy(func(e *activity.ActivityEntry) bool {
		return e.ActivityType == activity.TypePeriodRetired
	})).Return(errors.New("audit down"))

	ledger := period.NewLedger(newMemRepo(), knownStores(7), activities, nil,
		period.WithClock(calendar.FixedClock{At: ledgerNow}))

	p, err := ledger.Admit(ctx, tenantID, 7, entry(2025, 2, 1, 1))
	require.NoError(t, err)
	// An audit failure doesn't fail the write.
	require.NoError(t, ledger.Retire(ctx, tenantID, p.ID))
	activities.AssertExpectations(t)
}

func TestLedger_RecordsMetrics(t *testing.T) {
	ctx := context.Background()
	recorder := &mocks.MetricsRecorder{}
	recorder.On("RecordWrite", period.OpAdmit, period.OutcomeOK).Once()
	recorder.On("RecordWrite", period.OpAdmit, period.OutcomeRejected).Once()
	recorder.On("RecordWrite", period.OpRetire, period.OutcomeNotFound).Once()
	recorder.On("RecordQuery", "by_store").Once()

	ledger := newTestLedger(newMemRepo(), period.WithMetrics(recorder))

	_, err := ledger.Admit(ctx, tenantID, 7, entry(2025, 2, 1, 1))
	require.NoError(t, err)
	_, err = ledger.Admit(ctx, tenantID, 7, entry(2025, 2, 1, 1))
	require.Error(t, err)
	require.Error(t, ledger.Retire(ctx, tenantID, "missing"))
	_, err = ledger.ByStore(ctx, tenantID, 7)
	require.NoError(t, err)

	recorder.AssertExpectations(t)
}

func TestLedger_ConcurrentAdmitsSameStore(t *testing.T) {
	ctx := context.Background()
	ledger := newTestLedger(newMemRepo())

	const workers = 16
	var wg sync.WaitGroup
	errs := make(chan error, workers*2)
	for i := 0; i < workers; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			_, err := ledger.Admit(ctx, tenantID, 7, entry(2025, 7, 10, 1))
			errs <- err
		}()
		go func() {
			defer wg.Done()
			_, err := ledger.Admit(ctx, tenantID, 8, entry(2025, 7, 10, 1))
			errs <- err
		}()
	}
	wg.Wait()
	close(errs)

	var ok, dup int
	for err := range errs {
		switch {
		case err == nil:
			ok++
		case errors.Is(err, period.ErrDuplicateWeekNumber):
			dup++
		default:
			t.Fatalf("unexpected error: %v", err)
		}
	}
	require.Equal(t, 2, ok)
	require.Equal(t, workers*2-2, dup)
}

func weeks(periods []period.WeeklyPeriod) []int {
	out := make([]int, len(periods))
	for i, p := range periods {
		out[i] = p.WeekNumber
	}
	return out
}
