package sqlite

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/rpggio/chainledger/internal/calendar"
	"github.com/rpggio/chainledger/internal/domain/period"
	"github.com/rpggio/chainledger/internal/repository"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

func newPeriod(storeID int64, year, week int, revenue string) *period.WeeklyPeriod {
	now := time.Date(2025, time.March, 1, 10, 0, 0, 0, time.UTC)
	return &period.WeeklyPeriod{
		ID:         uuid.NewString(),
		StoreID:    storeID,
		WeekNumber: week,
		WeekStart:  calendar.WeekStart(year, week),
		WeekEnd:    calendar.WeekEnd(year, week),
		Revenue:    decimal.RequireFromString(revenue),
		UnitsSold:  12,
		Active:     true,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
}

func TestPeriodRepository_CreateGet(t *testing.T) {
	db := NewTestDB(t)
	ctx := context.Background()
	insertStore(t, db, "tenant1", 7)

	repo := NewPeriodRepository(db)
	p := newPeriod(7, 2025, 1, "50000.25")
	require.NoError(t, repo.Create(ctx, "tenant1", p))

	got, err := repo.Get(ctx, "tenant1", p.ID)
	require.NoError(t, err)
	require.Equal(t, p.ID, got.ID)
	require.Equal(t, "tenant1", got.TenantID)
	require.Equal(t, int64(7), got.StoreID)
	require.Equal(t, 1, got.WeekNumber)
	require.Equal(t, calendar.Date(2024, time.December, 30), got.WeekStart)
	require.Equal(t, calendar.Date(2025, time.January, 5), got.WeekEnd)
	require.True(t, got.Revenue.Equal(decimal.RequireFromString("50000.25")))
	require.Equal(t, int64(12), got.UnitsSold)
	require.True(t, got.Active)
	require.True(t, got.CreatedAt.Equal(p.CreatedAt))

	_, err = repo.Get(ctx, "tenant2", p.ID)
	require.ErrorIs(t, err, repository.ErrNotFound)
}

func TestPeriodRepository_CreateConstraintErrors(t *testing.T) {
	db := NewTestDB(t)
	ctx := context.Background()
	insertStore(t, db, "tenant1", 7)
	repo := NewPeriodRepository(db)

	require.NoError(t, repo.Create(ctx, "tenant1", newPeriod(7, 2025, 2, "1")))

	err := repo.Create(ctx, "tenant1", newPeriod(7, 2025, 2, "2"))
	require.ErrorIs(t, err, repository.ErrDuplicate)

	// 2024-W01 and 2025-W01 both start in calendar year 2024.
	require.NoError(t, repo.Create(ctx, "tenant1", newPeriod(7, 2024, 1, "1")))
	err = repo.Create(ctx, "tenant1", newPeriod(7, 2025, 1, "1"))
	require.ErrorIs(t, err, repository.ErrDuplicate)

	overlapping := newPeriod(7, 2025, 3, "1")
	overlapping.WeekStart = calendar.Date(2025, time.January, 12)
	overlapping.WeekEnd = calendar.Date(2025, time.January, 18)
	err = repo.Create(ctx, "tenant1", overlapping)
	require.ErrorIs(t, err, repository.ErrOverlap)

	err = repo.Create(ctx, "tenant1", newPeriod(99, 2025, 5, "1"))
	require.ErrorIs(t, err, repository.ErrForeignKeyViolation)
}

func TestPeriodRepository_UpdateAndRetire(t *testing.T) {
	db := NewTestDB(t)
	ctx := context.Background()
	insertStore(t, db, "tenant1", 7)
	repo := NewPeriodRepository(db)

	a := newPeriod(7, 2025, 2, "100")
	b := newPeriod(7, 2025, 3, "200")
	require.NoError(t, repo.Create(ctx, "tenant1", a))
	require.NoError(t, repo.Create(ctx, "tenant1", b))

	// Updating a period onto itself passes the backstop.
	a.Revenue = decimal.NewFromInt(150)
	require.NoError(t, repo.Update(ctx, "tenant1", a))

	moved := *a
	moved.WeekNumber = 3
	moved.WeekStart = b.WeekStart
	moved.WeekEnd = b.WeekEnd
	require.ErrorIs(t, repo.Update(ctx, "tenant1", &moved), repository.ErrDuplicate)

	retiredAt := time.Date(2025, time.March, 2, 0, 0, 0, 0, time.UTC)
	require.NoError(t, repo.Retire(ctx, "tenant1", b.ID, retiredAt))
	require.ErrorIs(t, repo.Retire(ctx, "tenant1", b.ID, retiredAt), repository.ErrNotFound)
	require.ErrorIs(t, repo.Update(ctx, "tenant1", b), repository.ErrNotFound)

	got, err := repo.Get(ctx, "tenant1", b.ID)
	require.NoError(t, err)
	require.False(t, got.Active)
	require.True(t, got.UpdatedAt.Equal(retiredAt))

	// With b retired, a can take its week.
	require.NoError(t, repo.Update(ctx, "tenant1", &moved))
	got, err = repo.Get(ctx, "tenant1", a.ID)
	require.NoError(t, err)
	require.Equal(t, 3, got.WeekNumber)
	require.True(t, got.Revenue.Equal(decimal.NewFromInt(150)))
}

func TestPeriodRepository_ListAndFind(t *testing.T) {
	db := NewTestDB(t)
	ctx := context.Background()
	insertStore(t, db, "tenant1", 7)
	insertStore(t, db, "tenant1", 8)
	insertStore(t, db, "tenant2", 7)
	repo := NewPeriodRepository(db)

	for _, p := range []*period.WeeklyPeriod{
		newPeriod(8, 2024, 40, "1"),
		newPeriod(7, 2025, 3, "1"),
		newPeriod(7, 2024, 41, "1"),
		newPeriod(7, 2024, 40, "1"),
	} {
		require.NoError(t, repo.Create(ctx, "tenant1", p))
	}
	require.NoError(t, repo.Create(ctx, "tenant2", newPeriod(7, 2024, 40, "1")))
	retired := newPeriod(7, 2024, 42, "1")
	require.NoError(t, repo.Create(ctx, "tenant1", retired))
	require.NoError(t, repo.Retire(ctx, "tenant1", retired.ID, time.Now()))

	store7 := int64(7)
	list, err := repo.List(ctx, "tenant1", period.ListOptions{StoreID: &store7})
	require.NoError(t, err)
	require.Equal(t, []int{40, 41, 3}, weekNumbers(list))

	year := 2024
	list, err = repo.List(ctx, "tenant1", period.ListOptions{StartYear: &year, Order: period.OrderByStoreWeek})
	require.NoError(t, err)
	require.Equal(t, []int{40, 41, 40}, weekNumbers(list))
	require.Equal(t, int64(8), list[2].StoreID)

	from := calendar.WeekStart(2024, 41)
	to := calendar.WeekEnd(2025, 3)
	list, err = repo.List(ctx, "tenant1", period.ListOptions{From: &from, To: &to})
	require.NoError(t, err)
	require.Equal(t, []int{41, 3}, weekNumbers(list))

	found, err := repo.FindByStoreAndWeek(ctx, "tenant1", 7, 41, 2024)
	require.NoError(t, err)
	require.Equal(t, calendar.WeekStart(2024, 41), found.WeekStart)

	_, err = repo.FindByStoreAndWeek(ctx, "tenant1", 7, 42, 2024)
	require.ErrorIs(t, err, repository.ErrNotFound)

	list, err = repo.List(ctx, "tenant3", period.ListOptions{})
	require.NoError(t, err)
	require.Empty(t, list)
}

func weekNumbers(periods []period.WeeklyPeriod) []int {
	out := make([]int, len(periods))
	for i, p := range periods {
		out[i] = p.WeekNumber
	}
	return out
}
