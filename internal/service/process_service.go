package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"docpipe/internal/config"
	"docpipe/internal/domain"
	"docpipe/internal/extract"
	"docpipe/internal/pipeline"
	"docpipe/internal/port"
)

// ProcessService drives one claimed job through extraction, routing,
// aggregation, assembly and dataset publication.
type ProcessService interface {
	ProcessJob(ctx context.Context, job *domain.Job, maxRetries int)
}

type processService struct {
	jobRepo    port.JobRepository
	entryRepo  port.DatasetEntryRepository
	storage    port.ObjectStorage
	datasets   port.DatasetStore
	extractor  *extract.Extractor
	router     *pipeline.Router
	aggregator *pipeline.Aggregator
	assembler  *pipeline.Assembler
	cfg        *config.PipelineConfig
}

// NewProcessService creates a new ProcessService implementation.
func NewProcessService(
	jobRepo port.JobRepository,
	entryRepo port.DatasetEntryRepository,
	storage port.ObjectStorage,
	datasets port.DatasetStore,
	extractor *extract.Extractor,
	router *pipeline.Router,
	aggregator *pipeline.Aggregator,
	assembler *pipeline.Assembler,
	cfg *config.PipelineConfig,
) ProcessService {
	return &processService{
		jobRepo:    jobRepo,
		entryRepo:  entryRepo,
		storage:    storage,
		datasets:   datasets,
		extractor:  extractor,
		router:     router,
		aggregator: aggregator,
		assembler:  assembler,
		cfg:        cfg,
	}
}

// ProcessJob runs the pipeline for one job and records the outcome on the
// job row. Transient failures requeue the job until the attempt cap is
// reached; permanent failures and exhausted attempts mark it failed.
func (s *processService) ProcessJob(ctx context.Context, job *domain.Job, maxRetries int) {
	started := time.Now()

	ctx, cancel := context.WithTimeout(ctx, s.cfg.DocumentTimeout)
	defer cancel()

	doc, err := s.runPipeline(ctx, job, started)
	if err == nil {
		return
	}

	if isPermanentJobError(err) {
		log.Printf("processService: job %s failed permanently: %v", job.ID, err)
		s.markFailed(job, doc, started, err)
		return
	}
	if job.Attempts >= maxRetries {
		log.Printf("processService: job %s exhausted %d attempts: %v", job.ID, job.Attempts, err)
		s.markFailed(job, doc, started, err)
		return
	}

	log.Printf("processService: requeueing job %s (attempt %d): %v", job.ID, job.Attempts, err)
	if reqErr := s.jobRepo.Requeue(context.Background(), job.ID, err.Error()); reqErr != nil {
		log.Printf("processService: requeue failed for job %s: %v", job.ID, reqErr)
	}
}

func (s *processService) runPipeline(ctx context.Context, job *domain.Job, started time.Time) (*domain.Document, error) {
	data, err := s.storage.Download(ctx, job.S3Bucket, job.S3Key)
	if err != nil {
		return nil, fmt.Errorf("downloading source: %w", err)
	}

	doc := &domain.Document{
		ID:          job.ID,
		ContentType: job.ContentType,
		FileType:    job.FileType,
		CreatedAt:   job.CreatedAt,
	}
	if err := s.extractor.ExtractPages(doc, data); err != nil {
		return doc, err
	}

	s.routePages(ctx, doc)

	// Publication must not happen for a half-processed document.
	if err := ctx.Err(); err != nil {
		return doc, fmt.Errorf("%w: %v", domain.ErrProcessingCancelled, err)
	}

	s.scorePages(doc)
	if acceptedPages(doc) == 0 {
		return doc, domain.ErrNoAcceptedPages
	}

	text := s.assembler.AssembleDocument(doc)
	metadata := s.buildMetadata(job, doc, domain.JobStatusDone, time.Since(started))

	entry, err := s.datasets.Publish(ctx, port.PublishInput{
		Key:       job.ID.String(),
		JobID:     job.ID,
		Source:    data,
		SourceExt: domain.Extensions[job.FileType],
		Text:      text,
		Metadata:  metadata,
	})
	if err != nil {
		return doc, fmt.Errorf("publishing dataset entry: %w", err)
	}
	if err := s.entryRepo.Create(ctx, entry); err != nil && !errors.Is(err, domain.ErrDuplicateEntry) {
		return doc, fmt.Errorf("indexing dataset entry: %w", err)
	}

	metadataJSON, err := json.Marshal(metadata)
	if err != nil {
		return doc, fmt.Errorf("encoding metadata: %w", err)
	}
	if err := s.jobRepo.MarkDone(ctx, job.ID, entry.Key, metadataJSON); err != nil {
		return doc, fmt.Errorf("marking job done: %w", err)
	}

	log.Printf("processService: job %s done (%d pages, %d failed, confidence %.2f)",
		job.ID, len(doc.Pages), len(failedPages(doc)), metadata.DocumentConfidence)
	return doc, nil
}

// routePages fans the document's pending pages over a bounded worker set.
// Page order in doc.Pages is never changed; only page fields are written,
// each page by exactly one goroutine.
func (s *processService) routePages(ctx context.Context, doc *domain.Document) {
	concurrency := s.cfg.PageConcurrency
	if concurrency < 1 {
		concurrency = 1
	}
	sem := make(chan struct{}, concurrency)
	var wg sync.WaitGroup

	docID := doc.ID.String()
	for _, page := range doc.Pages {
		if page.State != domain.PageStatePending {
			continue
		}
		sem <- struct{}{}
		wg.Add(1)
		go func(p *domain.Page) {
			defer wg.Done()
			defer func() { <-sem }()
			s.router.RoutePage(ctx, docID, p)
		}(page)
	}
	wg.Wait()
}

func (s *processService) scorePages(doc *domain.Document) {
	for _, page := range doc.Pages {
		if page.State == domain.PageStateAccepted && !page.EmptyPage {
			page.Confidence = s.aggregator.PageConfidence(page.Regions)
		}
	}
}

func (s *processService) buildMetadata(job *domain.Job, doc *domain.Document, status domain.JobStatus, elapsed time.Duration) *domain.MetadataRecord {
	pages := make([]domain.PageMetadata, len(doc.Pages))
	for i, page := range doc.Pages {
		verdict := s.aggregator.Assess(page)
		pages[i] = domain.PageMetadata{
			Index:          page.Index,
			Source:         page.Source,
			Engine:         page.Engine,
			Script:         page.Script,
			Confidence:     verdict.Score,
			EmptyPage:      page.EmptyPage,
			LowConfidence:  verdict.Verdict == domain.VerdictAccept && !page.EmptyPage && s.aggregator.IsLowConfidence(verdict.Score),
			Failed:         verdict.Verdict == domain.VerdictReject,
			FastPassMS:     page.FastPassMS,
			AccuratePassMS: page.AccuratePassMS,
		}
		if verdict.Verdict == domain.VerdictReject {
			pages[i].FailureReason = verdict.Reason
		}
	}

	return &domain.MetadataRecord{
		SchemaVersion:      domain.MetadataSchemaVersion,
		JobID:              job.ID.String(),
		OriginalName:       job.OriginalName,
		ContentType:        string(job.FileType),
		PageCount:          len(doc.Pages),
		Pages:              pages,
		DocumentConfidence: s.aggregator.DocumentConfidence(doc.Pages),
		ProcessingMS:       elapsed.Milliseconds(),
		FailedPages:        failedPages(doc),
		Status:             status,
		CreatedAt:          time.Now().UTC(),
	}
}

// markFailed records the terminal failure with whatever page metadata was
// produced before the error. The fresh context lets the status update land
// even when the processing context is already dead.
func (s *processService) markFailed(job *domain.Job, doc *domain.Document, started time.Time, cause error) {
	var metadataJSON json.RawMessage
	if doc != nil && len(doc.Pages) > 0 {
		metadata := s.buildMetadata(job, doc, domain.JobStatusFailed, time.Since(started))
		if encoded, err := json.Marshal(metadata); err == nil {
			metadataJSON = encoded
		}
	}
	if err := s.jobRepo.MarkFailed(context.Background(), job.ID, cause.Error(), metadataJSON); err != nil {
		log.Printf("processService: MarkFailed failed for job %s: %v", job.ID, err)
	}
}

// isPermanentJobError reports whether retrying cannot change the outcome.
func isPermanentJobError(err error) bool {
	return errors.Is(err, domain.ErrDocumentUnreadable) ||
		errors.Is(err, domain.ErrUnsupportedFormat) ||
		errors.Is(err, domain.ErrNoAcceptedPages) ||
		errors.Is(err, domain.ErrDuplicateEntry)
}

func acceptedPages(doc *domain.Document) int {
	n := 0
	for _, page := range doc.Pages {
		if page.State == domain.PageStateAccepted {
			n++
		}
	}
	return n
}

func failedPages(doc *domain.Document) []int {
	out := []int{}
	for _, page := range doc.Pages {
		if page.State == domain.PageStateFailed {
			out = append(out, page.Index)
		}
	}
	return out
}
