package period

import (
	"time"

	"github.com/shopspring/decimal"
)

// MinWeekNumber and MaxWeekNumber bound any ISO week number.
const (
	MinWeekNumber = 1
	MaxWeekNumber = 53
)

// WeeklyPeriod is one store's sales performance for one ISO week.
type WeeklyPeriod struct {
	ID         string          `json:"id"`
	TenantID   string          `json:"tenant_id"`
	StoreID    int64           `json:"store_id"`
	WeekNumber int             `json:"week_number"`
	WeekStart  time.Time       `json:"week_start"`
	WeekEnd    time.Time       `json:"week_end"`
	Revenue    decimal.Decimal `json:"revenue"`
	UnitsSold  int64           `json:"units_sold"`
	Active     bool            `json:"active"`
	CreatedAt  time.Time       `json:"created_at"`
	UpdatedAt  time.Time       `json:"updated_at"`
}

// StartYear is the calendar year of WeekStart, the bucket week numbers are unique within.
func (p WeeklyPeriod) StartYear() int {
	return p.WeekStart.Year()
}

// Candidate is the set of caller-supplied fields checked before a write.
type Candidate struct {
	StoreID    int64
	WeekNumber int
	WeekStart  time.Time
	WeekEnd    time.Time
	Revenue    decimal.Decimal
	UnitsSold  int64
}

// StartYear is the calendar year of WeekStart.
func (c Candidate) StartYear() int {
	return c.WeekStart.Year()
}

// WeekInfo describes an ISO week for client pre-fill.
type WeekInfo struct {
	Year       int       `json:"year"`
	WeekNumber int       `json:"week_number"`
	WeekStart  time.Time `json:"week_start"`
	WeekEnd    time.Time `json:"week_end"`
	IsAligned  bool      `json:"is_aligned"`
}
