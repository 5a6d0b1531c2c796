package period

import (
	"time"

	"github.com/rpggio/chainledger/internal/calendar"
)

// Order selects the sort order of listed periods.
type Order int

const (
	// OrderByStoreStart sorts by store, then week start.
	OrderByStoreStart Order = iota
	// OrderByStoreWeek sorts by store, then week number.
	OrderByStoreWeek
)

// ListOptions filters active periods. Nil fields don't filter.
type ListOptions struct {
	StoreID *int64
	// From and To keep periods lying entirely within [From, To].
	From *time.Time
	To   *time.Time
	// StartYear matches the calendar year of the week start.
	StartYear *int
	Order     Order
}

// Option configures a Ledger.
type Option func(*Ledger)

// WithClock sets the clock used for "today" and timestamps.
func WithClock(clock calendar.Clock) Option {
	return func(l *Ledger) {
		if clock == nil {
			return
		}
		l.calendar = calendar.NewEngine(clock)
		l.clock = clock
	}
}

// WithLimits replaces the default validation limits.
func WithLimits(limits Limits) Option {
	return func(l *Ledger) {
		l.validator = NewValidator(limits)
	}
}

// WithMetrics records write outcomes and query counts.
func WithMetrics(recorder MetricsRecorder) Option {
	return func(l *Ledger) {
		l.metrics = recorder
	}
}
