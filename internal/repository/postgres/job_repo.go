package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"docpipe/internal/domain"
	"docpipe/internal/port"
)

type jobRepo struct {
	db *sqlx.DB
}

// NewJobRepo creates a new PostgreSQL-backed JobRepository.
func NewJobRepo(db *sqlx.DB) port.JobRepository {
	return &jobRepo{db: db}
}

func (r *jobRepo) Create(ctx context.Context, job *domain.Job) error {
	now := time.Now().UTC()
	job.CreatedAt = now
	job.UpdatedAt = now

	query := `INSERT INTO jobs (
		id, original_name, content_type, file_type, file_size,
		s3_bucket, s3_key, status, attempts, error_message,
		metadata, dataset_key, started_at, finished_at,
		created_at, updated_at
	) VALUES (
		$1, $2, $3, $4, $5,
		$6, $7, $8, $9, $10,
		$11, $12, $13, $14,
		$15, $16
	)`

	_, err := r.db.ExecContext(ctx, query,
		job.ID, job.OriginalName, job.ContentType, job.FileType, job.FileSize,
		job.S3Bucket, job.S3Key, job.Status, job.Attempts, job.ErrorMessage,
		job.Metadata, job.DatasetKey, job.StartedAt, job.FinishedAt,
		job.CreatedAt, job.UpdatedAt)
	if err != nil {
		return fmt.Errorf("jobRepo.Create: %w", err)
	}
	return nil
}

func (r *jobRepo) GetByID(ctx context.Context, jobID uuid.UUID) (*domain.Job, error) {
	var job domain.Job
	err := r.db.GetContext(ctx, &job, "SELECT * FROM jobs WHERE id = $1", jobID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("jobRepo.GetByID: %w", err)
	}
	return &job, nil
}

func (r *jobRepo) List(ctx context.Context, offset, limit int) ([]domain.Job, int, error) {
	var total int
	err := r.db.GetContext(ctx, &total, "SELECT COUNT(*) FROM jobs")
	if err != nil {
		return nil, 0, fmt.Errorf("jobRepo.List count: %w", err)
	}

	var jobs []domain.Job
	err = r.db.SelectContext(ctx, &jobs,
		"SELECT * FROM jobs ORDER BY created_at DESC LIMIT $1 OFFSET $2",
		limit, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("jobRepo.List: %w", err)
	}
	return jobs, total, nil
}

// ClaimQueued flips up to limit pending jobs to processing in one statement.
// SKIP LOCKED keeps concurrent workers from claiming the same row.
func (r *jobRepo) ClaimQueued(ctx context.Context, limit int) ([]domain.Job, error) {
	now := time.Now().UTC()
	query := `UPDATE jobs SET
			status = $1, attempts = attempts + 1,
			started_at = $2, updated_at = $2
		WHERE id IN (
			SELECT id FROM jobs WHERE status = $3
			ORDER BY created_at ASC LIMIT $4
			FOR UPDATE SKIP LOCKED
		)
		RETURNING *`

	var jobs []domain.Job
	err := r.db.SelectContext(ctx, &jobs, query,
		domain.JobStatusProcessing, now, domain.JobStatusPending, limit)
	if err != nil {
		return nil, fmt.Errorf("jobRepo.ClaimQueued: %w", err)
	}
	return jobs, nil
}

func (r *jobRepo) Requeue(ctx context.Context, jobID uuid.UUID, errMsg string) error {
	result, err := r.db.ExecContext(ctx,
		`UPDATE jobs SET status = $1, error_message = $2, updated_at = $3
		 WHERE id = $4 AND status = $5`,
		domain.JobStatusPending, errMsg, time.Now().UTC(),
		jobID, domain.JobStatusProcessing)
	if err != nil {
		return fmt.Errorf("jobRepo.Requeue: %w", err)
	}
	rows, _ := result.RowsAffected()
	if rows == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *jobRepo) MarkDone(ctx context.Context, jobID uuid.UUID, datasetKey string, metadata json.RawMessage) error {
	now := time.Now().UTC()
	result, err := r.db.ExecContext(ctx,
		`UPDATE jobs SET
			status = $1, dataset_key = $2, metadata = $3, error_message = '',
			finished_at = $4, updated_at = $4
		 WHERE id = $5`,
		domain.JobStatusDone, datasetKey, metadata, now, jobID)
	if err != nil {
		return fmt.Errorf("jobRepo.MarkDone: %w", err)
	}
	rows, _ := result.RowsAffected()
	if rows == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *jobRepo) MarkFailed(ctx context.Context, jobID uuid.UUID, errMsg string, metadata json.RawMessage) error {
	now := time.Now().UTC()
	result, err := r.db.ExecContext(ctx,
		`UPDATE jobs SET
			status = $1, error_message = $2, metadata = $3,
			finished_at = $4, updated_at = $4
		 WHERE id = $5`,
		domain.JobStatusFailed, errMsg, metadata, now, jobID)
	if err != nil {
		return fmt.Errorf("jobRepo.MarkFailed: %w", err)
	}
	rows, _ := result.RowsAffected()
	if rows == 0 {
		return domain.ErrNotFound
	}
	return nil
}
