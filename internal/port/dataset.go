package port

import (
	"context"

	"github.com/google/uuid"

	"docpipe/internal/domain"
)

// PublishInput carries the three artifacts persisted as one dataset entry.
type PublishInput struct {
	Key       string
	JobID     uuid.UUID
	Source    []byte
	SourceExt string
	Text      string
	Metadata  *domain.MetadataRecord
}

// DatasetStore persists (source, text, metadata) triples with all-or-nothing
// visibility. Publishing the same key with identical content is idempotent;
// publishing the same key with different content fails with
// domain.ErrDuplicateEntry.
type DatasetStore interface {
	Publish(ctx context.Context, input PublishInput) (*domain.DatasetEntry, error)
	Get(ctx context.Context, key string) (*domain.DatasetEntry, error)
}
