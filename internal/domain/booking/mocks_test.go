package booking

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"
	"gorm.io/gorm"
)

type MockRepository struct {
	mock.Mock
}

func (m *MockRepository) GetByID(ctx context.Context, id uuid.UUID) (*Booking, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*Booking), args.Error(1)
}

func (m *MockRepository) FindBlocking(ctx context.Context, equipmentID uuid.UUID, statuses []Status, exclude *uuid.UUID) ([]Conflict, error) {
	args := m.Called(ctx, equipmentID, statuses, exclude)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]Conflict), args.Error(1)
}

func (m *MockRepository) Create(ctx context.Context, b *Booking, g Guard) error {
	return m.Called(ctx, b, g).Error(0)
}

func (m *MockRepository) UpdateDates(ctx context.Context, id uuid.UUID, start, end time.Time, total int64, g Guard) (*Booking, error) {
	args := m.Called(ctx, id, start, end, total, g)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*Booking), args.Error(1)
}

func (m *MockRepository) Confirm(ctx context.Context, id uuid.UUID, g Guard) (*Booking, error) {
	args := m.Called(ctx, id, g)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*Booking), args.Error(1)
}

func (m *MockRepository) Transition(ctx context.Context, id uuid.UUID, to Status, fields map[string]any) (*Booking, error) {
	args := m.Called(ctx, id, to, fields)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*Booking), args.Error(1)
}

func (m *MockRepository) UpdatePending(ctx context.Context, id uuid.UUID, fields map[string]any) (*Booking, error) {
	args := m.Called(ctx, id, fields)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*Booking), args.Error(1)
}

func (m *MockRepository) List(ctx context.Context, f ListFilter) ([]Booking, int64, error) {
	args := m.Called(ctx, f)
	return args.Get(0).([]Booking), args.Get(1).(int64), args.Error(2)
}

func (m *MockRepository) MarkPaidTx(tx *gorm.DB, id uuid.UUID) (*Booking, error) {
	args := m.Called(tx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*Booking), args.Error(1)
}

func (m *MockRepository) MarkRefundedTx(tx *gorm.DB, id uuid.UUID) (*Booking, error) {
	args := m.Called(tx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*Booking), args.Error(1)
}

func (m *MockRepository) CancelStalePending(ctx context.Context, startedBefore time.Time) (int64, error) {
	args := m.Called(ctx, startedBefore)
	return args.Get(0).(int64), args.Error(1)
}
