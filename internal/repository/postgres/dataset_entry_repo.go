package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"docpipe/internal/domain"
	"docpipe/internal/port"
)

type datasetEntryRepo struct {
	db *sqlx.DB
}

// NewDatasetEntryRepo creates a new PostgreSQL-backed DatasetEntryRepository.
func NewDatasetEntryRepo(db *sqlx.DB) port.DatasetEntryRepository {
	return &datasetEntryRepo{db: db}
}

func (r *datasetEntryRepo) Create(ctx context.Context, entry *domain.DatasetEntry) error {
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now().UTC()
	}

	query := `INSERT INTO dataset_entries (
		dataset_key, job_id, source_path, text_path, metadata_path,
		content_hash, created_at
	) VALUES ($1, $2, $3, $4, $5, $6, $7)`

	_, err := r.db.ExecContext(ctx, query,
		entry.Key, entry.JobID, entry.SourcePath, entry.TextPath, entry.MetadataPath,
		entry.ContentHash, entry.CreatedAt)
	if err != nil {
		if strings.Contains(err.Error(), "duplicate key") {
			return domain.ErrDuplicateEntry
		}
		return fmt.Errorf("datasetEntryRepo.Create: %w", err)
	}
	return nil
}

func (r *datasetEntryRepo) GetByKey(ctx context.Context, key string) (*domain.DatasetEntry, error) {
	var entry domain.DatasetEntry
	err := r.db.GetContext(ctx, &entry,
		"SELECT * FROM dataset_entries WHERE dataset_key = $1", key)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("datasetEntryRepo.GetByKey: %w", err)
	}
	return &entry, nil
}

func (r *datasetEntryRepo) GetByJobID(ctx context.Context, jobID uuid.UUID) (*domain.DatasetEntry, error) {
	var entry domain.DatasetEntry
	err := r.db.GetContext(ctx, &entry,
		"SELECT * FROM dataset_entries WHERE job_id = $1", jobID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("datasetEntryRepo.GetByJobID: %w", err)
	}
	return &entry, nil
}

func (r *datasetEntryRepo) List(ctx context.Context, offset, limit int) ([]domain.DatasetEntry, int, error) {
	var total int
	err := r.db.GetContext(ctx, &total, "SELECT COUNT(*) FROM dataset_entries")
	if err != nil {
		return nil, 0, fmt.Errorf("datasetEntryRepo.List count: %w", err)
	}

	var entries []domain.DatasetEntry
	err = r.db.SelectContext(ctx, &entries,
		"SELECT * FROM dataset_entries ORDER BY created_at DESC LIMIT $1 OFFSET $2",
		limit, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("datasetEntryRepo.List: %w", err)
	}
	return entries, total, nil
}
