package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/rpggio/chainledger/internal/calendar"
	"github.com/rpggio/chainledger/internal/domain/activity"
	"github.com/rpggio/chainledger/internal/domain/period"
	"github.com/rpggio/chainledger/internal/domain/store"
	"github.com/rpggio/chainledger/internal/transport"
	"github.com/shopspring/decimal"
)

// StoreService defines store operations needed by MCP.
type StoreService interface {
	Create(ctx context.Context, tenantID string, req store.CreateRequest) (*store.Store, error)
	Get(ctx context.Context, tenantID string, id int64) (*store.Store, error)
	List(ctx context.Context, tenantID string) ([]store.Store, error)
}

// LedgerService defines period operations needed by MCP.
type LedgerService interface {
	Admit(ctx context.Context, tenantID string, storeID int64, entry period.Entry) (*period.WeeklyPeriod, error)
	Revise(ctx context.Context, tenantID, id string, entry period.Entry) (*period.WeeklyPeriod, error)
	Retire(ctx context.Context, tenantID, id string) error
	Get(ctx context.Context, tenantID, id string) (*period.WeeklyPeriod, error)
	ByStore(ctx context.Context, tenantID string, storeID int64) ([]period.WeeklyPeriod, error)
	ByDateRange(ctx context.Context, tenantID string, start, end time.Time) ([]period.WeeklyPeriod, error)
	ByStoreAndWeek(ctx context.Context, tenantID string, storeID int64, weekNumber, year int) (*period.WeeklyPeriod, error)
	ByYear(ctx context.Context, tenantID string, year int) ([]period.WeeklyPeriod, error)
	TotalRevenue(ctx context.Context, tenantID string, storeID int64, start, end time.Time) (decimal.Decimal, error)
	AverageRevenue(ctx context.Context, tenantID string, storeID int64, start, end time.Time) (decimal.Decimal, error)
	WeekInfo(year, weekNumber int) (period.WeekInfo, error)
	CurrentWeek() calendar.Week
}

// ActivityService defines activity operations needed by MCP.
type ActivityService interface {
	GetRecentActivity(ctx context.Context, tenantID string, opts activity.ListActivityOptions) ([]activity.ActivityEntry, error)
}

// Handler dispatches ledger methods. It serves both the JSON-RPC endpoint
// and the MCP tools.
type Handler struct {
	stores   StoreService
	ledger   LedgerService
	activity ActivityService
}

// NewHandler creates a new MCP handler.
func NewHandler(stores StoreService, ledger LedgerService, activitySvc ActivityService) *Handler {
	return &Handler{
		stores:   stores,
		ledger:   ledger,
		activity: activitySvc,
	}
}

// Handle dispatches requests to domain services. Domain failures come back as *APIError.
func (h *Handler) Handle(ctx context.Context, tenantID, method string, params json.RawMessage) (any, error) {
	result, err := h.dispatch(ctx, tenantID, method, params)
	if err != nil {
		return nil, mapError(err)
	}
	return result, nil
}

func (h *Handler) dispatch(ctx context.Context, tenantID, method string, params json.RawMessage) (any, error) {
	switch method {
	case "create_store":
		var req CreateStoreParams
		if err := decodeParams(params, &req); err != nil {
			return nil, err
		}
		return h.stores.Create(ctx, tenantID, store.CreateRequest{
			ID:   req.ID,
			Code: req.Code,
			Name: req.Name,
		})
	case "list_stores":
		stores, err := h.stores.List(ctx, tenantID)
		if err != nil {
			return nil, err
		}
		if stores == nil {
			stores = []store.Store{}
		}
		return ListStoresResponse{Stores: stores}, nil
	case "get_store":
		var req GetStoreParams
		if err := decodeParams(params, &req); err != nil {
			return nil, err
		}
		return h.stores.Get(ctx, tenantID, req.ID)
	case "admit_period":
		var req AdmitPeriodParams
		if err := decodeParams(params, &req); err != nil {
			return nil, err
		}
		p, err := h.ledger.Admit(ctx, tenantID, *req.StoreID, req.entry())
		if err != nil {
			return nil, err
		}
		return newPeriodResponse(p), nil
	case "revise_period":
		var req RevisePeriodParams
		if err := decodeParams(params, &req); err != nil {
			return nil, err
		}
		p, err := h.ledger.Revise(ctx, tenantID, req.ID, req.entry())
		if err != nil {
			return nil, err
		}
		return newPeriodResponse(p), nil
	case "retire_period":
		var req PeriodIDParams
		if err := decodeParams(params, &req); err != nil {
			return nil, err
		}
		if err := h.ledger.Retire(ctx, tenantID, req.ID); err != nil {
			return nil, err
		}
		return RetireResponse{ID: req.ID, Retired: true}, nil
	case "get_period":
		var req PeriodIDParams
		if err := decodeParams(params, &req); err != nil {
			return nil, err
		}
		p, err := h.ledger.Get(ctx, tenantID, req.ID)
		if err != nil {
			return nil, err
		}
		return newPeriodResponse(p), nil
	case "list_store_periods":
		var req StorePeriodsParams
		if err := decodeParams(params, &req); err != nil {
			return nil, err
		}
		periods, err := h.ledger.ByStore(ctx, tenantID, *req.StoreID)
		if err != nil {
			return nil, err
		}
		return newListPeriodsResponse(periods), nil
	case "list_periods_in_range":
		var req DateRangeParams
		if err := decodeParams(params, &req); err != nil {
			return nil, err
		}
		periods, err := h.ledger.ByDateRange(ctx, tenantID, parseDate(req.Start), parseDate(req.End))
		if err != nil {
			return nil, err
		}
		return newListPeriodsResponse(periods), nil
	case "get_store_week":
		var req StoreWeekParams
		if err := decodeParams(params, &req); err != nil {
			return nil, err
		}
		p, err := h.ledger.ByStoreAndWeek(ctx, tenantID, *req.StoreID, *req.WeekNumber, *req.Year)
		if err != nil {
			return nil, err
		}
		if p == nil {
			return StoreWeekResponse{}, nil
		}
		resp := newPeriodResponse(p)
		return StoreWeekResponse{Found: true, Period: &resp}, nil
	case "list_year_periods":
		var req YearParams
		if err := decodeParams(params, &req); err != nil {
			return nil, err
		}
		periods, err := h.ledger.ByYear(ctx, tenantID, *req.Year)
		if err != nil {
			return nil, err
		}
		return newListPeriodsResponse(periods), nil
	case "total_revenue", "average_revenue":
		var req StoreRevenueParams
		if err := decodeParams(params, &req); err != nil {
			return nil, err
		}
		start, end := parseDate(req.Start), parseDate(req.End)
		var amount string
		if method == "average_revenue" {
			avg, err := h.ledger.AverageRevenue(ctx, tenantID, *req.StoreID, start, end)
			if err != nil {
				return nil, err
			}
			// Means are reported to the cent.
			amount = avg.StringFixed(2)
		} else {
			total, err := h.ledger.TotalRevenue(ctx, tenantID, *req.StoreID, start, end)
			if err != nil {
				return nil, err
			}
			amount = total.String()
		}
		return RevenueResponse{
			StoreID: *req.StoreID,
			Start:   req.Start,
			End:     req.End,
			Revenue: amount,
		}, nil
	case "week_info":
		var req WeekInfoParams
		if err := decodeParams(params, &req); err != nil {
			return nil, err
		}
		info, err := h.ledger.WeekInfo(*req.Year, *req.WeekNumber)
		if err != nil {
			return nil, err
		}
		return newWeekInfoResponse(info), nil
	case "current_week":
		return newCurrentWeekResponse(h.ledger.CurrentWeek()), nil
	case "list_activity":
		var req ListActivityParams
		if err := decodeParams(params, &req); err != nil {
			return nil, err
		}
		opts := activity.ListActivityOptions{
			StoreID:  req.StoreID,
			PeriodID: req.PeriodID,
			Limit:    req.Limit,
			Offset:   req.Offset,
		}
		if req.Type != "" {
			kind := activity.ActivityType(req.Type)
			opts.ActivityType = &kind
		}
		entries, err := h.activity.GetRecentActivity(ctx, tenantID, opts)
		if err != nil {
			return nil, err
		}
		resp := ListActivityResponse{Activity: make([]ActivityEntryResponse, 0, len(entries))}
		for _, entry := range entries {
			resp.Activity = append(resp.Activity, ActivityEntryResponse{
				Timestamp: entry.CreatedAt,
				Type:      entry.ActivityType,
				StoreID:   entry.StoreID,
				PeriodID:  entry.PeriodID,
				Summary:   entry.Summary,
				Details:   entry.Details,
			})
		}
		return resp, nil
	default:
		return nil, fmt.Errorf("%w: %s", transport.ErrUnknownMethod, method)
	}
}
