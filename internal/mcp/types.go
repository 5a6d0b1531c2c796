package mcp

import (
	"time"

	"github.com/rpggio/chainledger/internal/calendar"
	"github.com/rpggio/chainledger/internal/domain/activity"
	"github.com/rpggio/chainledger/internal/domain/period"
	"github.com/rpggio/chainledger/internal/domain/store"
)

type CreateStoreParams struct {
	ID   int64  `json:"id,omitempty" validate:"gte=0"`
	Code string `json:"code" validate:"required,max=32"`
	Name string `json:"name" validate:"required,max=200"`
}

type GetStoreParams struct {
	ID int64 `json:"id" validate:"required"`
}

// PeriodEntryParams are the caller-supplied period fields. Presence and
// format are checked here; ranges are the ledger's concern.
type PeriodEntryParams struct {
	WeekNumber *int   `json:"week_number" validate:"required"`
	WeekStart  string `json:"week_start" validate:"required,datetime=2006-01-02"`
	WeekEnd    string `json:"week_end" validate:"required,datetime=2006-01-02"`
	Revenue    string `json:"revenue" validate:"required,decimal"`
	UnitsSold  *int64 `json:"units_sold" validate:"required"`
}

func (p PeriodEntryParams) entry() period.Entry {
	return period.Entry{
		WeekNumber: *p.WeekNumber,
		WeekStart:  parseDate(p.WeekStart),
		WeekEnd:    parseDate(p.WeekEnd),
		Revenue:    parseAmount(p.Revenue),
		UnitsSold:  *p.UnitsSold,
	}
}

type AdmitPeriodParams struct {
	StoreID *int64 `json:"store_id" validate:"required"`
	PeriodEntryParams
}

type RevisePeriodParams struct {
	ID string `json:"id" validate:"required"`
	PeriodEntryParams
}

type PeriodIDParams struct {
	ID string `json:"id" validate:"required"`
}

type StorePeriodsParams struct {
	StoreID *int64 `json:"store_id" validate:"required"`
}

type DateRangeParams struct {
	Start string `json:"start" validate:"required,datetime=2006-01-02"`
	End   string `json:"end" validate:"required,datetime=2006-01-02"`
}

type StoreWeekParams struct {
	StoreID    *int64 `json:"store_id" validate:"required"`
	WeekNumber *int   `json:"week_number" validate:"required"`
	Year       *int   `json:"year" validate:"required"`
}

type YearParams struct {
	Year *int `json:"year" validate:"required"`
}

type StoreRevenueParams struct {
	StoreID *int64 `json:"store_id" validate:"required"`
	DateRangeParams
}

type WeekInfoParams struct {
	Year       *int `json:"year" validate:"required"`
	WeekNumber *int `json:"week_number" validate:"required"`
}

type ListActivityParams struct {
	StoreID  *int64  `json:"store_id,omitempty"`
	PeriodID *string `json:"period_id,omitempty"`
	Type     string  `json:"type,omitempty" validate:"omitempty,oneof=store_created period_admitted period_revised period_retired"`
	Limit    int     `json:"limit,omitempty" validate:"gte=0,lte=500"`
	Offset   int     `json:"offset,omitempty" validate:"gte=0"`
}

// PeriodResponse renders a period with plain dates and a decimal string revenue.
type PeriodResponse struct {
	ID         string    `json:"id"`
	StoreID    int64     `json:"store_id"`
	WeekNumber int       `json:"week_number"`
	Year       int       `json:"year"`
	WeekStart  string    `json:"week_start"`
	WeekEnd    string    `json:"week_end"`
	Revenue    string    `json:"revenue"`
	UnitsSold  int64     `json:"units_sold"`
	Active     bool      `json:"active"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

func newPeriodResponse(p *period.WeeklyPeriod) PeriodResponse {
	return PeriodResponse{
		ID:         p.ID,
		StoreID:    p.StoreID,
		WeekNumber: p.WeekNumber,
		Year:       p.StartYear(),
		WeekStart:  formatDate(p.WeekStart),
		WeekEnd:    formatDate(p.WeekEnd),
		Revenue:    p.Revenue.String(),
		UnitsSold:  p.UnitsSold,
		Active:     p.Active,
		CreatedAt:  p.CreatedAt,
		UpdatedAt:  p.UpdatedAt,
	}
}

type ListPeriodsResponse struct {
	Periods []PeriodResponse `json:"periods"`
}

func newListPeriodsResponse(periods []period.WeeklyPeriod) ListPeriodsResponse {
	resp := ListPeriodsResponse{Periods: make([]PeriodResponse, 0, len(periods))}
	for i := range periods {
		resp.Periods = append(resp.Periods, newPeriodResponse(&periods[i]))
	}
	return resp
}

// StoreWeekResponse carries the period for a store week, if one is recorded.
type StoreWeekResponse struct {
	Found  bool            `json:"found"`
	Period *PeriodResponse `json:"period,omitempty"`
}

type RetireResponse struct {
	ID      string `json:"id"`
	Retired bool   `json:"retired"`
}

type RevenueResponse struct {
	StoreID int64  `json:"store_id"`
	Start   string `json:"start"`
	End     string `json:"end"`
	Revenue string `json:"revenue"`
}

type WeekInfoResponse struct {
	Year       int    `json:"year"`
	WeekNumber int    `json:"week_number"`
	WeekStart  string `json:"week_start"`
	WeekEnd    string `json:"week_end"`
	IsAligned  bool   `json:"is_aligned"`
}

func newWeekInfoResponse(info period.WeekInfo) WeekInfoResponse {
	return WeekInfoResponse{
		Year:       info.Year,
		WeekNumber: info.WeekNumber,
		WeekStart:  formatDate(info.WeekStart),
		WeekEnd:    formatDate(info.WeekEnd),
		IsAligned:  info.IsAligned,
	}
}

type CurrentWeekResponse struct {
	Date       string `json:"date"`
	Year       int    `json:"year"`
	WeekNumber int    `json:"week_number"`
	WeekStart  string `json:"week_start"`
	WeekEnd    string `json:"week_end"`
}

func newCurrentWeekResponse(w calendar.Week) CurrentWeekResponse {
	return CurrentWeekResponse{
		Date:       formatDate(w.Date),
		Year:       w.Year,
		WeekNumber: w.WeekNumber,
		WeekStart:  formatDate(w.WeekStart),
		WeekEnd:    formatDate(w.WeekEnd),
	}
}

type ListStoresResponse struct {
	Stores []store.Store `json:"stores"`
}

type ActivityEntryResponse struct {
	Timestamp time.Time             `json:"timestamp"`
	Type      activity.ActivityType `json:"type"`
	StoreID   *int64                `json:"store_id,omitempty"`
	PeriodID  *string               `json:"period_id,omitempty"`
	Summary   string                `json:"summary"`
	Details   string                `json:"details,omitempty"`
}

type ListActivityResponse struct {
	Activity []ActivityEntryResponse `json:"activity"`
}
