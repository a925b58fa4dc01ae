package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"docpipe/internal/config"
	"docpipe/internal/dataset"
	"docpipe/internal/extract"
	"docpipe/internal/handler"
	"docpipe/internal/ocr"
	"docpipe/internal/pdfengine"
	"docpipe/internal/pipeline"
	"docpipe/internal/repository/postgres"
	"docpipe/internal/router"
	"docpipe/internal/script"
	"docpipe/internal/service"
	s3storage "docpipe/internal/storage/s3"
)

func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	db, err := postgres.NewDB(&cfg.DB)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer db.Close()

	// Initialize repositories
	jobRepo := postgres.NewJobRepo(db)
	entryRepo := postgres.NewDatasetEntryRepo(db)

	// Initialize storage
	s3Client, err := s3storage.NewS3Client(&cfg.S3)
	if err != nil {
		return fmt.Errorf("failed to initialize S3 client: %w", err)
	}
	datasetStore, err := dataset.NewStore(cfg.Dataset.RootDir)
	if err != nil {
		return fmt.Errorf("failed to initialize dataset store: %w", err)
	}

	// Initialize pipeline components
	detector := script.NewDetector(cfg.Pipeline.ArabicThreshold)
	extractor := extract.NewExtractor(pdfengine.New(), detector, &cfg.Pipeline)
	fastEngine := ocr.NewFastEngine(&cfg.OCR)
	accurateEngine := ocr.NewAccurateEngine(&cfg.OCR)
	ocrRouter := pipeline.NewRouter(fastEngine, accurateEngine, detector, &cfg.OCR)
	aggregator := pipeline.NewAggregator(cfg.Pipeline.LowConfidenceThreshold)
	assembler := pipeline.NewAssembler()

	// Initialize services
	jobSvc := service.NewJobService(jobRepo, entryRepo, s3Client, &cfg.S3)
	processSvc := service.NewProcessService(
		jobRepo, entryRepo, s3Client, datasetStore,
		extractor, ocrRouter, aggregator, assembler, &cfg.Pipeline)
	worker := service.NewOCRQueueWorker(jobRepo, processSvc, cfg.Queue, cfg.Pipeline.DocumentTimeout)

	// Initialize handlers
	jobH := handler.NewJobHandler(jobSvc)
	reportH := handler.NewReportHandler(jobSvc)
	healthH := handler.NewHealthHandler(db)

	r := router.Setup(jobH, reportH, healthH)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	workerDone := make(chan struct{})
	go func() {
		defer close(workerDone)
		worker.Start(ctx)
	}()

	srv := &http.Server{
		Addr:         cfg.Server.Port,
		Handler:      r,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	serverErr := make(chan error, 1)
	go func() {
		log.Printf("Server starting on %s", cfg.Server.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			serverErr <- err
		}
	}()

	select {
	case err := <-serverErr:
		stop()
		<-workerDone
		return fmt.Errorf("server failed: %w", err)
	case <-ctx.Done():
	}

	log.Printf("Shutting down...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Printf("server shutdown: %v", err)
	}
	<-workerDone
	return nil
}
