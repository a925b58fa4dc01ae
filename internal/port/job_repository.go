package port

import (
	"context"
	"encoding/json"

	"github.com/google/uuid"

	"docpipe/internal/domain"
)

// JobRepository defines the contract for job persistence.
type JobRepository interface {
	Create(ctx context.Context, job *domain.Job) error
	GetByID(ctx context.Context, jobID uuid.UUID) (*domain.Job, error)
	List(ctx context.Context, offset, limit int) ([]domain.Job, int, error)
	// ClaimQueued atomically flips up to limit pending jobs to processing and
	// returns them. Concurrent workers never claim the same job twice.
	ClaimQueued(ctx context.Context, limit int) ([]domain.Job, error)
	// Requeue returns a claimed job to pending for a later attempt.
	Requeue(ctx context.Context, jobID uuid.UUID, errMsg string) error
	MarkDone(ctx context.Context, jobID uuid.UUID, datasetKey string, metadata json.RawMessage) error
	MarkFailed(ctx context.Context, jobID uuid.UUID, errMsg string, metadata json.RawMessage) error
}

// DatasetEntryRepository indexes published dataset entries for lookup by job.
type DatasetEntryRepository interface {
	Create(ctx context.Context, entry *domain.DatasetEntry) error
	GetByKey(ctx context.Context, key string) (*domain.DatasetEntry, error)
	GetByJobID(ctx context.Context, jobID uuid.UUID) (*domain.DatasetEntry, error)
	List(ctx context.Context, offset, limit int) ([]domain.DatasetEntry, int, error)
}
