package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"docpipe/internal/domain"
)

// MockProcessService is a mock implementation of service.ProcessService.
type MockProcessService struct {
	mock.Mock
}

func (m *MockProcessService) ProcessJob(ctx context.Context, job *domain.Job, maxRetries int) {
	m.Called(ctx, job, maxRetries)
}
