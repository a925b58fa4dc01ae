package service

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log"
	"mime/multipart"

	"github.com/gabriel-vasile/mimetype"
	"github.com/google/uuid"

	"docpipe/internal/config"
	"docpipe/internal/domain"
	"docpipe/internal/port"
)

// JobSubmitInput is the DTO for document submission requests.
type JobSubmitInput struct {
	File   multipart.File
	Header *multipart.FileHeader
}

// JobResult is the DTO returned for a finished job: the dataset entry plus a
// time-limited download URL for the archived source file.
type JobResult struct {
	Job       *domain.Job          `json:"job"`
	Entry     *domain.DatasetEntry `json:"entry"`
	SourceURL string               `json:"source_url,omitempty"`
}

// JobService defines the submission and status contract.
type JobService interface {
	Submit(ctx context.Context, input JobSubmitInput) (*domain.Job, error)
	Status(ctx context.Context, jobID uuid.UUID) (*domain.Job, error)
	Result(ctx context.Context, jobID uuid.UUID) (*JobResult, error)
	List(ctx context.Context, offset, limit int) ([]domain.Job, int, error)
}

type jobService struct {
	jobRepo   port.JobRepository
	entryRepo port.DatasetEntryRepository
	storage   port.ObjectStorage
	cfg       *config.S3Config
}

// NewJobService creates a new JobService implementation.
func NewJobService(
	jobRepo port.JobRepository,
	entryRepo port.DatasetEntryRepository,
	storage port.ObjectStorage,
	cfg *config.S3Config,
) JobService {
	return &jobService{
		jobRepo:   jobRepo,
		entryRepo: entryRepo,
		storage:   storage,
		cfg:       cfg,
	}
}

// Submit validates the uploaded file by content, archives it in object
// storage and enqueues a pending job. The declared filename extension is
// recorded but never trusted for type detection.
func (s *jobService) Submit(ctx context.Context, input JobSubmitInput) (*domain.Job, error) {
	maxBytes := s.cfg.MaxFileSizeMB * 1024 * 1024
	if input.Header.Size > maxBytes {
		return nil, domain.ErrFileTooLarge
	}

	data, err := io.ReadAll(io.LimitReader(input.File, maxBytes+1))
	if err != nil {
		return nil, fmt.Errorf("reading upload: %w", err)
	}
	if int64(len(data)) > maxBytes {
		return nil, domain.ErrFileTooLarge
	}

	detected := mimetype.Detect(data)
	fileType, ok := allowedMIME(detected)
	if !ok {
		log.Printf("jobService.Submit: rejected %s (detected %s)", input.Header.Filename, detected.String())
		return nil, fmt.Errorf("%w: %s", domain.ErrUnsupportedFormat, detected.String())
	}

	jobID := uuid.New()
	s3Key := fmt.Sprintf("uploads/%s/%s", jobID, input.Header.Filename)

	job := &domain.Job{
		ID:           jobID,
		OriginalName: input.Header.Filename,
		ContentType:  detected.String(),
		FileType:     fileType,
		FileSize:     int64(len(data)),
		S3Bucket:     s.cfg.Bucket,
		S3Key:        s3Key,
		Status:       domain.JobStatusPending,
	}

	log.Printf("jobService.Submit: uploading %s (%s, %d bytes) as job %s",
		input.Header.Filename, job.ContentType, job.FileSize, jobID)

	_, err = s.storage.Upload(ctx, port.UploadInput{
		Bucket:      s.cfg.Bucket,
		Key:         s3Key,
		Body:        bytes.NewReader(data),
		ContentType: job.ContentType,
		Size:        job.FileSize,
	})
	if err != nil {
		log.Printf("jobService.Submit: upload failed for job %s: %v", jobID, err)
		return nil, domain.ErrUploadFailed
	}

	if err := s.jobRepo.Create(ctx, job); err != nil {
		return nil, fmt.Errorf("creating job: %w", err)
	}
	return job, nil
}

func (s *jobService) Status(ctx context.Context, jobID uuid.UUID) (*domain.Job, error) {
	return s.jobRepo.GetByID(ctx, jobID)
}

// Result returns the dataset entry references for a finished job. Jobs that
// are still pending or processing report ErrResultNotReady so clients can
// distinguish "keep polling" from "does not exist".
func (s *jobService) Result(ctx context.Context, jobID uuid.UUID) (*JobResult, error) {
	job, err := s.jobRepo.GetByID(ctx, jobID)
	if err != nil {
		return nil, err
	}

	switch job.Status {
	case domain.JobStatusDone:
	case domain.JobStatusFailed:
		return &JobResult{Job: job}, nil
	default:
		return nil, domain.ErrResultNotReady
	}

	entry, err := s.entryRepo.GetByJobID(ctx, jobID)
	if err != nil {
		return nil, err
	}

	result := &JobResult{Job: job, Entry: entry}
	url, err := s.storage.GetPresignedURL(ctx, job.S3Bucket, job.S3Key, s.cfg.PresignExpiry)
	if err != nil {
		// The entry references are still useful without a download URL.
		log.Printf("jobService.Result: presign failed for job %s: %v", jobID, err)
		return result, nil
	}
	result.SourceURL = url
	return result, nil
}

func (s *jobService) List(ctx context.Context, offset, limit int) ([]domain.Job, int, error) {
	return s.jobRepo.List(ctx, offset, limit)
}

// allowedMIME matches a detected MIME type against the accepted formats.
// Is() tolerates optional parameters and known aliases.
func allowedMIME(m *mimetype.MIME) (domain.FileType, bool) {
	for ct, ft := range domain.AllowedContentTypes {
		if m.Is(ct) {
			return ft, true
		}
	}
	return "", false
}
