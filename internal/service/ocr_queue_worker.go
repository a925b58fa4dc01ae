package service

import (
	"context"
	"log"
	"sync"
	"time"

	"docpipe/internal/config"
	"docpipe/internal/port"
)

// OCRQueueWorker polls for pending jobs and dispatches them to the
// ProcessService with bounded concurrency.
type OCRQueueWorker struct {
	jobRepo port.JobRepository
	proc    ProcessService
	cfg     config.QueueConfig
	timeout time.Duration
	wg      sync.WaitGroup
}

// NewOCRQueueWorker creates a new OCRQueueWorker. documentTimeout bounds each
// dispatched job independently of the poll context.
func NewOCRQueueWorker(jobRepo port.JobRepository, proc ProcessService, cfg config.QueueConfig, documentTimeout time.Duration) *OCRQueueWorker {
	return &OCRQueueWorker{
		jobRepo: jobRepo,
		proc:    proc,
		cfg:     cfg,
		timeout: documentTimeout,
	}
}

// Start runs the polling loop until ctx is canceled. It blocks until all
// in-flight jobs have finished.
func (w *OCRQueueWorker) Start(ctx context.Context) {
	interval := time.Duration(w.cfg.PollIntervalSecs) * time.Second
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	sem := make(chan struct{}, w.cfg.Concurrency)

	log.Printf("ocrQueueWorker: started (poll=%s, concurrency=%d, maxRetries=%d)",
		interval, w.cfg.Concurrency, w.cfg.MaxRetries)

	for {
		select {
		case <-ctx.Done():
			log.Printf("ocrQueueWorker: shutting down, waiting for in-flight jobs...")
			w.wg.Wait()
			log.Printf("ocrQueueWorker: shutdown complete")
			return
		case <-ticker.C:
			available := w.cfg.Concurrency - len(sem)
			if available <= 0 {
				continue
			}

			jobs, err := w.jobRepo.ClaimQueued(ctx, available)
			if err != nil {
				if ctx.Err() != nil {
					// Context canceled during poll, exit gracefully
					continue
				}
				log.Printf("ocrQueueWorker: ClaimQueued error: %v", err)
				continue
			}

			for i := range jobs {
				job := jobs[i] // copy for goroutine

				sem <- struct{}{} // acquire
				w.wg.Add(1)
				go func() {
					defer w.wg.Done()
					defer func() { <-sem }() // release

					// Use a fresh context independent of the poll context
					// so in-flight jobs complete even during shutdown.
					jobCtx, cancel := context.WithTimeout(context.Background(), w.timeout)
					defer cancel()

					log.Printf("ocrQueueWorker: dispatching job %s (attempt %d)", job.ID, job.Attempts)
					w.proc.ProcessJob(jobCtx, &job, w.cfg.MaxRetries)
				}()
			}
		}
	}
}
