package mocks

import (
	"context"
	"time"

	"github.com/rpggio/chainledger/internal/domain/activity"
	"github.com/rpggio/chainledger/internal/domain/period"
	"github.com/rpggio/chainledger/internal/domain/store"
	"github.com/stretchr/testify/mock"
)

// PeriodRepository is a mock for period.Repository.
type PeriodRepository struct {
	mock.Mock
}

func (m *PeriodRepository) Create(ctx context.Context, tenantID string, p *period.WeeklyPeriod) error {
	args := m.Called(ctx, tenantID, p)
	return args.Error(0)
}

func (m *PeriodRepository) Get(ctx context.Context, tenantID, id string) (*period.WeeklyPeriod, error) {
	args := m.Called(ctx, tenantID, id)
	if p, ok := args.Get(0).(*period.WeeklyPeriod); ok {
		return p, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *PeriodRepository) Update(ctx context.Context, tenantID string, p *period.WeeklyPeriod) error {
	args := m.Called(ctx, tenantID, p)
	return args.Error(0)
}

func (m *PeriodRepository) Retire(ctx context.Context, tenantID, id string, at time.Time) error {
	args := m.Called(ctx, tenantID, id, at)
	return args.Error(0)
}

func (m *PeriodRepository) List(ctx context.Context, tenantID string, opts period.ListOptions) ([]period.WeeklyPeriod, error) {
	args := m.Called(ctx, tenantID, opts)
	if list, ok := args.Get(0).([]period.WeeklyPeriod); ok {
		return list, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *PeriodRepository) FindByStoreAndWeek(ctx context.Context, tenantID string, storeID int64, weekNumber, startYear int) (*period.WeeklyPeriod, error) {
	args := m.Called(ctx, tenantID, storeID, weekNumber, startYear)
	if p, ok := args.Get(0).(*period.WeeklyPeriod); ok {
		return p, args.Error(1)
	}
	return nil, args.Error(1)
}

// StoreRepository is a mock for store.Repository.
type StoreRepository struct {
	mock.Mock
}

func (m *StoreRepository) Create(ctx context.Context, tenantID string, s *store.Store) error {
	args := m.Called(ctx, tenantID, s)
	return args.Error(0)
}

func (m *StoreRepository) Get(ctx context.Context, tenantID string, id int64) (*store.Store, error) {
	args := m.Called(ctx, tenantID, id)
	if s, ok := args.Get(0).(*store.Store); ok {
		return s, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *StoreRepository) List(ctx context.Context, tenantID string) ([]store.Store, error) {
	args := m.Called(ctx, tenantID)
	if list, ok := args.Get(0).([]store.Store); ok {
		return list, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *StoreRepository) Exists(ctx context.Context, tenantID string, id int64) (bool, error) {
	args := m.Called(ctx, tenantID, id)
	return args.Bool(0), args.Error(1)
}

// StoreDirectory is a mock for period.StoreDirectory.
type StoreDirectory struct {
	mock.Mock
}

func (m *StoreDirectory) Exists(ctx context.Context, tenantID string, storeID int64) (bool, error) {
	args := m.Called(ctx, tenantID, storeID)
	return args.Bool(0), args.Error(1)
}

// ActivityRepository is a mock for activity.Repository.
type ActivityRepository struct {
	mock.Mock
}

func (m *ActivityRepository) Log(ctx context.Context, tenantID string, entry *activity.ActivityEntry) error {
	args := m.Called(ctx, tenantID, entry)
	return args.Error(0)
}

func (m *ActivityRepository) List(ctx context.Context, tenantID string, opts activity.ListActivityOptions) ([]activity.ActivityEntry, error) {
	args := m.Called(ctx, tenantID, opts)
	if list, ok := args.Get(0).([]activity.ActivityEntry); ok {
		return list, args.Error(1)
	}
	return nil, args.Error(1)
}

// MetricsRecorder is a mock for period.MetricsRecorder.
type MetricsRecorder struct {
	mock.Mock
}

func (m *MetricsRecorder) RecordWrite(operation, outcome string) {
	m.Called(operation, outcome)
}

func (m *MetricsRecorder) RecordQuery(query string) {
	m.Called(query)
}
