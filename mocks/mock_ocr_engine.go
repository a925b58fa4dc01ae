package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"docpipe/internal/domain"
)

// MockOCREngine is a mock implementation of port.OCREngine.
type MockOCREngine struct {
	mock.Mock

	EngineID domain.EngineID
}

func (m *MockOCREngine) ID() domain.EngineID {
	return m.EngineID
}

func (m *MockOCREngine) Recognize(ctx context.Context, page *domain.Page) (*domain.OCRResult, error) {
	args := m.Called(ctx, page)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.OCRResult), args.Error(1)
}
