package mcp

import (
	"errors"
	"fmt"

	"github.com/rpggio/chainledger/internal/domain/activity"
	"github.com/rpggio/chainledger/internal/domain/period"
	"github.com/rpggio/chainledger/internal/domain/store"
)

// APIError represents an MCP error response.
type APIError struct {
	Code         string `json:"code"`
	Message      string `json:"message"`
	Details      any    `json:"details,omitempty"`
	RecoveryHint string `json:"recovery_hint,omitempty"`
}

func (e *APIError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *APIError) CodeValue() string {
	return e.Code
}

func (e *APIError) MessageValue() string {
	return e.Message
}

func (e *APIError) DetailsValue() any {
	return e.Details
}

func (e *APIError) RecoveryHintValue() string {
	return e.RecoveryHint
}

// Stable error codes returned to clients.
const (
	CodeMisalignedWeek         = "MISALIGNED_WEEK"
	CodeInvalidWeekNumber      = "INVALID_WEEK_NUMBER"
	CodeWeekNumberMismatch     = "WEEK_NUMBER_MISMATCH"
	CodeFutureWeek             = "FUTURE_WEEK"
	CodeTooFarInPast           = "TOO_FAR_IN_PAST"
	CodeRevenueOutOfRange      = "REVENUE_OUT_OF_RANGE"
	CodeUnitsOutOfRange        = "UNITS_OUT_OF_RANGE"
	CodeDuplicateWeekNumber    = "DUPLICATE_WEEK_NUMBER"
	CodeOverlappingPeriod      = "OVERLAPPING_PERIOD"
	CodeStoreNotFound          = "STORE_NOT_FOUND"
	CodeStoreExists            = "STORE_EXISTS"
	CodePeriodNotFound         = "PERIOD_NOT_FOUND"
	CodePersistenceUnavailable = "PERSISTENCE_UNAVAILABLE"
	CodeInvalidParams          = "INVALID_PARAMS"
)

// MapError maps domain errors to MCP error codes.
func MapError(err error) *APIError {
	if err == nil {
		return nil
	}
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr
	}
	switch {
	case errors.Is(err, period.ErrPersistenceUnavailable):
		return &APIError{Code: CodePersistenceUnavailable, Message: "ledger storage unavailable", RecoveryHint: "Retry later"}
	case errors.Is(err, period.ErrMisalignedWeek):
		return &APIError{Code: CodeMisalignedWeek, Message: err.Error(), RecoveryHint: "Use week_info to get the Monday and Sunday of the week"}
	case errors.Is(err, period.ErrInvalidWeekNumber):
		return &APIError{Code: CodeInvalidWeekNumber, Message: err.Error(), RecoveryHint: "Week numbers run from 1 to 53"}
	case errors.Is(err, period.ErrWeekNumberMismatch):
		return &APIError{Code: CodeWeekNumberMismatch, Message: err.Error(), RecoveryHint: "Use the ISO week number of week_start"}
	case errors.Is(err, period.ErrFutureWeek):
		return &APIError{Code: CodeFutureWeek, Message: err.Error(), RecoveryHint: "Record the week once it has ended"}
	case errors.Is(err, period.ErrTooFarInPast):
		return &APIError{Code: CodeTooFarInPast, Message: err.Error(), RecoveryHint: "The week is outside the history window"}
	case errors.Is(err, period.ErrRevenueOutOfRange):
		return &APIError{Code: CodeRevenueOutOfRange, Message: err.Error(), RecoveryHint: "Check the revenue amount"}
	case errors.Is(err, period.ErrUnitsOutOfRange):
		return &APIError{Code: CodeUnitsOutOfRange, Message: err.Error(), RecoveryHint: "Check units sold"}
	case errors.Is(err, period.ErrDuplicateWeekNumber):
		return &APIError{Code: CodeDuplicateWeekNumber, Message: err.Error(), RecoveryHint: "Revise the existing period with get_store_week"}
	case errors.Is(err, period.ErrOverlappingPeriod):
		return &APIError{Code: CodeOverlappingPeriod, Message: err.Error(), RecoveryHint: "List the store's periods to find the overlap"}
	case errors.Is(err, period.ErrStoreNotFound), errors.Is(err, store.ErrStoreNotFound):
		return &APIError{Code: CodeStoreNotFound, Message: "store not found", RecoveryHint: "Check the store ID with list_stores"}
	case errors.Is(err, store.ErrStoreExists):
		return &APIError{Code: CodeStoreExists, Message: "store already exists", RecoveryHint: "Store IDs and codes are unique"}
	case errors.Is(err, period.ErrPeriodNotFound):
		return &APIError{Code: CodePeriodNotFound, Message: "period not found", RecoveryHint: "Check ID spelling"}
	case errors.Is(err, store.ErrInvalidInput), errors.Is(err, activity.ErrInvalidInput):
		return &APIError{Code: CodeInvalidParams, Message: err.Error()}
	default:
		return nil
	}
}

func mapError(err error) error {
	if apiErr := MapError(err); apiErr != nil {
		return apiErr
	}
	return err
}
