package port

import (
	"context"

	"docpipe/internal/domain"
)

// OCREngine is the uniform capability wrapping one underlying OCR engine.
// Implementations are stateless per call and safe for concurrent use.
// Failures are reported as *domain.EngineError so the router can tell
// transient from permanent.
type OCREngine interface {
	ID() domain.EngineID
	Recognize(ctx context.Context, page *domain.Page) (*domain.OCRResult, error)
}
