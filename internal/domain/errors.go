package domain

import (
	"errors"
	"fmt"
)

var (
	ErrNotFound            = errors.New("resource not found")
	ErrUnsupportedFormat   = errors.New("unsupported file format")
	ErrFileTooLarge        = errors.New("file exceeds maximum allowed size")
	ErrDuplicateEntry      = errors.New("dataset entry already exists with different content")
	ErrResultNotReady      = errors.New("result not available until processing completes")
	ErrUploadFailed        = errors.New("file upload to storage failed")
	ErrJobAlreadyClaimed   = errors.New("job already claimed by another worker")
	ErrDocumentUnreadable  = errors.New("document could not be opened")
	ErrNoAcceptedPages     = errors.New("no page reached an accepted state")
	ErrProcessingCancelled = errors.New("processing cancelled")
)

// ParseError marks a page-scoped parse failure. It isolates to the page it
// names; sibling pages keep processing.
type ParseError struct {
	PageIndex int
	Err       error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("parse-error on page %d: %v", e.PageIndex, e.Err)
}

func (e *ParseError) Unwrap() error { return e.Err }

// EngineError wraps an OCR engine failure. Transient errors (including
// per-call timeouts) are retried up to the configured limit; permanent
// errors fail the page immediately.
type EngineError struct {
	Engine    EngineID
	Transient bool
	Err       error
}

func (e *EngineError) Error() string {
	kind := "permanent"
	if e.Transient {
		kind = "transient"
	}
	return fmt.Sprintf("%s engine error (%s): %v", e.Engine, kind, e.Err)
}

func (e *EngineError) Unwrap() error { return e.Err }

// IsTransientEngineError reports whether err is an EngineError eligible for
// retry.
func IsTransientEngineError(err error) bool {
	var ee *EngineError
	return errors.As(err, &ee) && ee.Transient
}
