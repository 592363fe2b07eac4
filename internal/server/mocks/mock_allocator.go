package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"parking-allocator/internal/parking"
)

// MockAllocator is a mock implementation of server.Allocator
type MockAllocator struct {
	mock.Mock
}

func (m *MockAllocator) Park(ctx context.Context, licensePlate string, vehicleType parking.VehicleType) (parking.Transaction, error) {
	args := m.Called(ctx, licensePlate, vehicleType)
	return args.Get(0).(parking.Transaction), args.Error(1)
}

func (m *MockAllocator) Unpark(ctx context.Context, licensePlate string) (parking.Transaction, error) {
	args := m.Called(ctx, licensePlate)
	return args.Get(0).(parking.Transaction), args.Error(1)
}

func (m *MockAllocator) Transfer(ctx context.Context, licensePlate, slotID string) (parking.Transaction, parking.Transaction, error) {
	args := m.Called(ctx, licensePlate, slotID)
	return args.Get(0).(parking.Transaction), args.Get(1).(parking.Transaction), args.Error(2)
}

func (m *MockAllocator) Close(ctx context.Context) ([]parking.Transaction, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]parking.Transaction), args.Error(1)
}

func (m *MockAllocator) VehicleInfo(ctx context.Context, licensePlate string) (parking.VehicleInfo, error) {
	args := m.Called(ctx, licensePlate)
	return args.Get(0).(parking.VehicleInfo), args.Error(1)
}

func (m *MockAllocator) Status(ctx context.Context) parking.Status {
	args := m.Called(ctx)
	return args.Get(0).(parking.Status)
}

func (m *MockAllocator) Receipt(ctx context.Context, transactionID string) (parking.Transaction, error) {
	args := m.Called(ctx, transactionID)
	return args.Get(0).(parking.Transaction), args.Error(1)
}

func (m *MockAllocator) ReceiptsByPlate(ctx context.Context, licensePlate string) ([]parking.Transaction, error) {
	args := m.Called(ctx, licensePlate)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]parking.Transaction), args.Error(1)
}
