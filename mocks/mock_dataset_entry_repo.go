package mocks

import (
	"context"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"

	"docpipe/internal/domain"
)

// MockDatasetEntryRepo is a mock implementation of port.DatasetEntryRepository.
type MockDatasetEntryRepo struct {
	mock.Mock
}

func (m *MockDatasetEntryRepo) Create(ctx context.Context, entry *domain.DatasetEntry) error {
	args := m.Called(ctx, entry)
	return args.Error(0)
}

func (m *MockDatasetEntryRepo) GetByKey(ctx context.Context, key string) (*domain.DatasetEntry, error) {
	args := m.Called(ctx, key)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.DatasetEntry), args.Error(1)
}

func (m *MockDatasetEntryRepo) GetByJobID(ctx context.Context, jobID uuid.UUID) (*domain.DatasetEntry, error) {
	args := m.Called(ctx, jobID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.DatasetEntry), args.Error(1)
}

func (m *MockDatasetEntryRepo) List(ctx context.Context, offset, limit int) ([]domain.DatasetEntry, int, error) {
	args := m.Called(ctx, offset, limit)
	if args.Get(0) == nil {
		return nil, args.Int(1), args.Error(2)
	}
	return args.Get(0).([]domain.DatasetEntry), args.Int(1), args.Error(2)
}
