package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"docpipe/internal/domain"
	"docpipe/internal/port"
)

// MockDatasetStore is a mock implementation of port.DatasetStore.
type MockDatasetStore struct {
	mock.Mock
}

func (m *MockDatasetStore) Publish(ctx context.Context, input port.PublishInput) (*domain.DatasetEntry, error) {
	args := m.Called(ctx, input)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.DatasetEntry), args.Error(1)
}

func (m *MockDatasetStore) Get(ctx context.Context, key string) (*domain.DatasetEntry, error) {
	args := m.Called(ctx, key)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.DatasetEntry), args.Error(1)
}
