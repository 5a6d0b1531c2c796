package period

import (
	"time"

	"github.com/rpggio/chainledger/internal/calendar"
	"github.com/shopspring/decimal"
)

// Limits bounds the values a period may carry.
type Limits struct {
	MaxHistoryYears int
	MaxRevenue      decimal.Decimal
	MaxUnits        int64
}

// DefaultLimits returns the stock limits: five years of history,
// one billion in revenue and 100,000 units per week.
func DefaultLimits() Limits {
	return Limits{
		MaxHistoryYears: 5,
		MaxRevenue:      decimal.NewFromInt(1_000_000_000),
		MaxUnits:        100_000,
	}
}

// Validator decides whether a candidate period may be written.
type Validator struct {
	limits Limits
}

// NewValidator creates a validator with the given limits.
func NewValidator(limits Limits) *Validator {
	return &Validator{limits: limits}
}

// Limits returns the validator's limits.
func (v *Validator) Limits() Limits {
	return v.limits
}

// Validate checks the candidate against the store's active periods as of now.
//
// Checks run in a fixed order and the first failure is returned. The period
// with ID excludeID is ignored, which lets a revision compare against
// everything but itself. The candidate is returned unchanged on success.
func (v *Validator) Validate(c Candidate, existing []WeeklyPeriod, now time.Time, excludeID string) (Candidate, error) {
	if !calendar.IsAlignedWeek(c.WeekStart, c.WeekEnd) {
		return Candidate{}, ErrMisalignedWeek
	}
	if !ValidWeekNumber(c.WeekNumber) {
		return Candidate{}, ErrInvalidWeekNumber
	}
	if c.WeekNumber != calendar.IsoWeekNumber(c.WeekStart) {
		return Candidate{}, ErrWeekNumberMismatch
	}

	today := calendar.DateOf(now.UTC())
	if calendar.DateOf(c.WeekEnd).After(today) {
		return Candidate{}, ErrFutureWeek
	}
	if calendar.DateOf(c.WeekStart).Before(today.AddDate(-v.limits.MaxHistoryYears, 0, 0)) {
		return Candidate{}, ErrTooFarInPast
	}

	if c.Revenue.IsNegative() || c.Revenue.GreaterThan(v.limits.MaxRevenue) {
		return Candidate{}, ErrRevenueOutOfRange
	}
	if c.UnitsSold < 0 || c.UnitsSold > v.limits.MaxUnits {
		return Candidate{}, ErrUnitsOutOfRange
	}

	others := activeExcept(existing, excludeID)
	for _, p := range others {
		if p.WeekNumber == c.WeekNumber && p.StartYear() == c.StartYear() {
			return Candidate{}, ErrDuplicateWeekNumber
		}
	}
	for _, p := range others {
		if Overlaps(c.WeekStart, c.WeekEnd, p.WeekStart, p.WeekEnd) {
			return Candidate{}, ErrOverlappingPeriod
		}
	}

	return c, nil
}

// ValidWeekNumber reports whether week is within 1..53.
func ValidWeekNumber(week int) bool {
	return week >= MinWeekNumber && week <= MaxWeekNumber
}

// Overlaps reports whether two inclusive date ranges share at least one day.
func Overlaps(aStart, aEnd, bStart, bEnd time.Time) bool {
	return !calendar.DateOf(aStart).After(calendar.DateOf(bEnd)) &&
		!calendar.DateOf(bStart).After(calendar.DateOf(aEnd))
}

func activeExcept(existing []WeeklyPeriod, excludeID string) []WeeklyPeriod {
	out := make([]WeeklyPeriod, 0, len(existing))
	for _, p := range existing {
		if !p.Active || (excludeID != "" && p.ID == excludeID) {
			continue
		}
		out = append(out, p)
	}
	return out
}
