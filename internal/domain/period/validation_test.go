package period_test

import (
	"testing"
	"time"

	"github.com/rpggio/chainledger/internal/calendar"
	"github.com/rpggio/chainledger/internal/domain/period"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

var validationNow = time.Date(2025, time.March, 1, 12, 0, 0, 0, time.UTC)

func weekCandidate(start time.Time, week int) period.Candidate {
	return period.Candidate{
		StoreID:    7,
		WeekNumber: week,
		WeekStart:  start,
		WeekEnd:    start.AddDate(0, 0, 6),
		Revenue:    decimal.NewFromInt(50000),
		UnitsSold:  120,
	}
}

func activePeriod(id string, start time.Time, week int) period.WeeklyPeriod {
	return period.WeeklyPeriod{
		ID:         id,
		StoreID:    7,
		WeekNumber: week,
		WeekStart:  start,
		WeekEnd:    start.AddDate(0, 0, 6),
		Revenue:    decimal.NewFromInt(1),
		Active:     true,
	}
}

func TestValidator_Accepts(t *testing.T) {
	v := period.NewValidator(period.DefaultLimits())
	c := weekCandidate(calendar.Date(2024, time.December, 30), 1)

	got, err := v.Validate(c, nil, validationNow, "")
	require.NoError(t, err)
	require.Equal(t, c, got)
}

func TestValidator_RuleOrder(t *testing.T) {
	mon := calendar.Date(2025, time.January, 6)
	existing := []period.WeeklyPeriod{activePeriod("p1", mon, 2)}

	tests := []struct {
		name   string
		mutate func(*period.Candidate)
		want   error
	}{
		{
			name: "start not monday wins over mismatch",
			mutate: func(c *period.Candidate) {
				c.WeekStart = calendar.Date(2025, time.January, 1)
				c.WeekEnd = c.WeekStart.AddDate(0, 0, 6)
				c.WeekNumber = 99
			},
			want: period.ErrMisalignedWeek,
		},
		{
			name:   "span of eight days",
			mutate: func(c *period.Candidate) { c.WeekEnd = c.WeekEnd.AddDate(0, 0, 1) },
			want:   period.ErrMisalignedWeek,
		},
		{
			name:   "week zero",
			mutate: func(c *period.Candidate) { c.WeekNumber = 0 },
			want:   period.ErrInvalidWeekNumber,
		},
		{
			name:   "week 54",
			mutate: func(c *period.Candidate) { c.WeekNumber = 54 },
			want:   period.ErrInvalidWeekNumber,
		},
		{
			name:   "wrong week number",
			mutate: func(c *period.Candidate) { c.WeekNumber = 3 },
			want:   period.ErrWeekNumberMismatch,
		},
		{
			name: "ends after today",
			mutate: func(c *period.Candidate) {
				c.WeekStart = calendar.Date(2025, time.February, 24)
				c.WeekEnd = calendar.Date(2025, time.March, 2)
				c.WeekNumber = 9
			},
			want: period.ErrFutureWeek,
		},
		{
			name: "older than history window",
			mutate: func(c *period.Candidate) {
				c.WeekStart = calendar.WeekStart(2019, 10)
				c.WeekEnd = calendar.WeekEnd(2019, 10)
				c.WeekNumber = 10
				c.Revenue = decimal.NewFromInt(-1)
			},
			want: period.ErrTooFarInPast,
		},
		{
			name:   "negative revenue",
			mutate: func(c *period.Candidate) { c.Revenue = decimal.NewFromInt(-1); c.UnitsSold = -1 },
			want:   period.ErrRevenueOutOfRange,
		},
		{
			name:   "revenue over limit",
			mutate: func(c *period.Candidate) { c.Revenue = decimal.NewFromInt(1_000_000_001) },
			want:   period.ErrRevenueOutOfRange,
		},
		{
			name:   "negative units",
			mutate: func(c *period.Candidate) { c.UnitsSold = -1 },
			want:   period.ErrUnitsOutOfRange,
		},
		{
			name:   "units over limit",
			mutate: func(c *period.Candidate) { c.UnitsSold = 100_001 },
			want:   period.ErrUnitsOutOfRange,
		},
		{
			name:   "same week again",
			mutate: func(c *period.Candidate) {},
			want:   period.ErrDuplicateWeekNumber,
		},
	}

	v := period.NewValidator(period.DefaultLimits())
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := weekCandidate(mon, 2)
			tt.mutate(&c)
			_, err := v.Validate(c, existing, validationNow, "")
			require.ErrorIs(t, err, tt.want)
		})
	}
}

func TestValidator_BoundaryValuesAccepted(t *testing.T) {
	v := period.NewValidator(period.DefaultLimits())

	c := weekCandidate(calendar.Date(2025, time.February, 17), 8)
	c.WeekEnd = calendar.Date(2025, time.February, 23)
	c.Revenue = decimal.NewFromInt(1_000_000_000)
	c.UnitsSold = 100_000
	_, err := v.Validate(c, nil, validationNow, "")
	require.NoError(t, err)

	// Ends exactly today.
	sunday := time.Date(2025, time.February, 23, 8, 0, 0, 0, time.UTC)
	_, err = v.Validate(c, nil, sunday, "")
	require.NoError(t, err)

	c.Revenue = decimal.Zero
	c.UnitsSold = 0
	_, err = v.Validate(c, nil, validationNow, "")
	require.NoError(t, err)
}

func TestValidator_HistoryWindowIsConfigurable(t *testing.T) {
	limits := period.DefaultLimits()
	limits.MaxHistoryYears = 1
	v := period.NewValidator(limits)

	c := weekCandidate(calendar.WeekStart(2023, 40), 40)
	_, err := v.Validate(c, nil, validationNow, "")
	require.ErrorIs(t, err, period.ErrTooFarInPast)

	c = weekCandidate(calendar.WeekStart(2024, 40), 40)
	_, err = v.Validate(c, nil, validationNow, "")
	require.NoError(t, err)
}

func TestValidator_Overlap(t *testing.T) {
	v := period.NewValidator(period.DefaultLimits())
	// A misaligned legacy record spanning Wednesday to Tuesday.
	legacy := period.WeeklyPeriod{
		ID:         "legacy",
		StoreID:    7,
		WeekNumber: 1,
		WeekStart:  calendar.Date(2025, time.January, 1),
		WeekEnd:    calendar.Date(2025, time.January, 7),
		Active:     true,
	}

	c := weekCandidate(calendar.Date(2025, time.January, 6), 2)
	_, err := v.Validate(c, []period.WeeklyPeriod{legacy}, validationNow, "")
	require.ErrorIs(t, err, period.ErrOverlappingPeriod)
}

func TestValidator_DuplicateUsesCalendarYearOfStart(t *testing.T) {
	v := period.NewValidator(period.DefaultLimits())
	// Week 1 of 2025 starts 2024-12-30 so it shares the 2024 bucket with week 1 of 2024.
	first2024 := activePeriod("p1", calendar.WeekStart(2024, 1), 1)

	c := weekCandidate(calendar.WeekStart(2025, 1), 1)
	_, err := v.Validate(c, []period.WeeklyPeriod{first2024}, validationNow, "")
	require.ErrorIs(t, err, period.ErrDuplicateWeekNumber)

	// Week 1 of 2026 starts 2025-12-29, so it lands in the 2025 bucket.
	now := calendar.Date(2026, time.February, 1)
	first2025 := activePeriod("p2", calendar.WeekStart(2025, 1), 1)
	c = weekCandidate(calendar.WeekStart(2026, 1), 1)
	_, err = v.Validate(c, []period.WeeklyPeriod{first2025}, now, "")
	require.NoError(t, err)
}

func TestValidator_ExcludesSelfAndRetired(t *testing.T) {
	v := period.NewValidator(period.DefaultLimits())
	start := calendar.Date(2025, time.January, 6)
	self := activePeriod("p1", start, 2)
	retired := activePeriod("p0", start, 2)
	retired.Active = false

	c := weekCandidate(start, 2)
	_, err := v.Validate(c, []period.WeeklyPeriod{self, retired}, validationNow, "p1")
	require.NoError(t, err)

	_, err = v.Validate(c, []period.WeeklyPeriod{self, retired}, validationNow, "")
	require.ErrorIs(t, err, period.ErrDuplicateWeekNumber)
}

func TestOverlaps(t *testing.T) {
	a := calendar.Date(2025, time.January, 6)
	b := calendar.Date(2025, time.January, 12)

	require.True(t, period.Overlaps(a, b, b, b.AddDate(0, 0, 6)))
	require.False(t, period.Overlaps(a, b, b.AddDate(0, 0, 1), b.AddDate(0, 0, 7)))
	require.True(t, period.Overlaps(a, b, a.AddDate(0, 0, -3), a.AddDate(0, 0, 20)))
}

func TestValidator_FutureCheckUsesUTCDate(t *testing.T) {
	v := period.NewValidator(period.DefaultLimits())
	c := weekCandidate(calendar.Date(2025, time.March, 10), 11)

	eastern := time.FixedZone("EST", -5*60*60)
	saturdayNight := time.Date(2025, time.March, 15, 22, 0, 0, 0, eastern)
	_, err := v.Validate(c, nil, saturdayNight, "")
	require.NoError(t, err)

	pacificSaturdayNoon := time.Date(2025, time.March, 15, 12, 0, 0, 0, time.FixedZone("PST", -8*60*60))
	_, err = v.Validate(c, nil, pacificSaturdayNoon, "")
	require.ErrorIs(t, err, period.ErrFutureWeek)
}
