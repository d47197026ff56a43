package webhook

import (
	"context"

	"fygaro-bridge/internal/deliveries"
	"fygaro-bridge/internal/order"

	"github.com/stretchr/testify/mock"
)

type MockOrderUpdater struct {
	mock.Mock
}

func (m *MockOrderUpdater) RecordTransaction(ctx context.Context, reference string, kind order.TransactionKind, status order.TransactionStatus, amount string) error {
	args := m.Called(ctx, reference, kind, status, amount)
	return args.Error(0)
}

func (m *MockOrderUpdater) SetFinancialStatus(ctx context.Context, reference string, status order.FinancialStatus) error {
	args := m.Called(ctx, reference, status)
	return args.Error(0)
}

type MockDeliveryRepository struct {
	mock.Mock
}

func (m *MockDeliveryRepository) Claim(ctx context.Context, key, reference string) (deliveries.ClaimResult, error) {
	args := m.Called(ctx, key, reference)
	return args.Get(0).(deliveries.ClaimResult), args.Error(1)
}

func (m *MockDeliveryRepository) MarkProcessed(ctx context.Context, key, note string) error {
	args := m.Called(ctx, key, note)
	return args.Error(0)
}

func (m *MockDeliveryRepository) Release(ctx context.Context, key string) error {
	args := m.Called(ctx, key)
	return args.Error(0)
}
