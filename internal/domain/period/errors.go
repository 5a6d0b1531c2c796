package period

import "errors"

// Validation failures, in the order the validator checks them.
var (
	// ErrMisalignedWeek indicates the range is not exactly one Monday-to-Sunday week.
	ErrMisalignedWeek = errors.New("period is not a Monday-to-Sunday week")
	// ErrInvalidWeekNumber indicates a week number outside 1..53.
	ErrInvalidWeekNumber = errors.New("week number must be between 1 and 53")
	// ErrWeekNumberMismatch indicates the week number disagrees with the ISO week of the start date.
	ErrWeekNumberMismatch = errors.New("week number does not match the ISO week of the start date")
	// ErrFutureWeek indicates the week has not finished yet.
	ErrFutureWeek = errors.New("period ends in the future")
	// ErrTooFarInPast indicates the week starts before the history window.
	ErrTooFarInPast = errors.New("period starts before the allowed history window")
	// ErrRevenueOutOfRange indicates negative or excessive revenue.
	ErrRevenueOutOfRange = errors.New("revenue out of range")
	// ErrUnitsOutOfRange indicates negative or excessive units sold.
	ErrUnitsOutOfRange = errors.New("units sold out of range")
	// ErrDuplicateWeekNumber indicates the store already has an active period for the week.
	ErrDuplicateWeekNumber = errors.New("store already has an active period for this week")
	// ErrOverlappingPeriod indicates the range intersects another active period of the store.
	ErrOverlappingPeriod = errors.New("period overlaps an existing active period")
)

var (
	// ErrStoreNotFound indicates the store doesn't exist for the tenant.
	ErrStoreNotFound = errors.New("store not found")
	// ErrPeriodNotFound indicates no active period has the ID.
	ErrPeriodNotFound = errors.New("period not found")
	// ErrPersistenceUnavailable wraps failures of the underlying store.
	ErrPersistenceUnavailable = errors.New("persistence unavailable")
)

// IsValidationError reports whether err is one of the validator's rejections.
func IsValidationError(err error) bool {
	for _, target := range []error{
		ErrMisalignedWeek,
		ErrInvalidWeekNumber,
		ErrWeekNumberMismatch,
		ErrFutureWeek,
		ErrTooFarInPast,
		ErrRevenueOutOfRange,
		ErrUnitsOutOfRange,
		ErrDuplicateWeekNumber,
		ErrOverlappingPeriod,
	} {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}
