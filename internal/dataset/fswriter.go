package dataset

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"docpipe/internal/domain"
	"docpipe/internal/port"
)

const (
	sourcePrefix   = "SOURCE_"
	targetPrefix   = "TARGET_"
	detailsPrefix  = "DETAILS_"
	manifestName   = ".entry.json"
	stagingDirName = ".staging"
)

// Store is a filesystem implementation of port.DatasetStore. Each entry is a
// directory holding the source file, the extracted text and the metadata
// record. Writes land in a staging directory first and become visible through
// a single rename, so a reader never observes a partial triple.
type Store struct {
	rootDir string

	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

// NewStore creates the dataset root and staging directories if needed.
func NewStore(rootDir string) (*Store, error) {
	if err := os.MkdirAll(filepath.Join(rootDir, stagingDirName), 0o755); err != nil {
		return nil, fmt.Errorf("failed to create dataset root: %w", err)
	}
	return &Store{rootDir: rootDir, locks: map[string]*sync.Mutex{}}, nil
}

// Publish writes the (source, text, metadata) triple for key. Re-publishing
// a key with the same source and text returns the existing entry; divergent
// content fails with domain.ErrDuplicateEntry. Concurrent publishes of the
// same key serialize on a per-key lock.
func (s *Store) Publish(ctx context.Context, input port.PublishInput) (*domain.DatasetEntry, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	lock := s.keyLock(input.Key)
	lock.Lock()
	defer lock.Unlock()

	// Hash covers the substantive artifacts only. Metadata carries
	// timestamps that legitimately differ between retries of the same job.
	hash := contentHash(input.Source, input.Text)

	finalDir := filepath.Join(s.rootDir, input.Key)
	if existing, err := s.loadManifest(finalDir); err == nil {
		if existing.ContentHash == hash {
			log.Printf("datasetStore: key %s already published, idempotent", input.Key)
			return existing, nil
		}
		return nil, fmt.Errorf("%w: dataset key %s", domain.ErrDuplicateEntry, input.Key)
	}

	entry := &domain.DatasetEntry{
		Key:          input.Key,
		JobID:        input.JobID,
		SourcePath:   filepath.Join(finalDir, sourcePrefix+input.Key+normalizeExt(input.SourceExt)),
		TextPath:     filepath.Join(finalDir, targetPrefix+input.Key+".txt"),
		MetadataPath: filepath.Join(finalDir, detailsPrefix+input.Key+".json"),
		ContentHash:  hash,
		CreatedAt:    time.Now().UTC(),
	}

	stageDir := filepath.Join(s.rootDir, stagingDirName, input.Key)
	if err := os.RemoveAll(stageDir); err != nil {
		return nil, fmt.Errorf("failed to clear stale staging dir: %w", err)
	}
	if err := s.writeStaged(stageDir, entry, input); err != nil {
		os.RemoveAll(stageDir)
		return nil, err
	}
	if err := os.Rename(stageDir, finalDir); err != nil {
		os.RemoveAll(stageDir)
		return nil, fmt.Errorf("failed to publish dataset entry %s: %w", input.Key, err)
	}

	log.Printf("datasetStore: published key %s (%d source bytes, %d text bytes)",
		input.Key, len(input.Source), len(input.Text))
	return entry, nil
}

// Get returns the entry for key, or domain.ErrNotFound.
func (s *Store) Get(ctx context.Context, key string) (*domain.DatasetEntry, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	entry, err := s.loadManifest(filepath.Join(s.rootDir, key))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%w: dataset key %s", domain.ErrNotFound, key)
		}
		return nil, fmt.Errorf("failed to read dataset entry %s: %w", key, err)
	}
	return entry, nil
}

func (s *Store) writeStaged(stageDir string, entry *domain.DatasetEntry, input port.PublishInput) error {
	if err := os.MkdirAll(stageDir, 0o755); err != nil {
		return fmt.Errorf("failed to create staging dir: %w", err)
	}

	metadataJSON, err := json.MarshalIndent(input.Metadata, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode metadata record: %w", err)
	}
	manifestJSON, err := json.Marshal(manifest{DatasetEntry: *entry, Hash: entry.ContentHash})
	if err != nil {
		return fmt.Errorf("failed to encode dataset manifest: %w", err)
	}

	files := map[string][]byte{
		filepath.Base(entry.SourcePath):   input.Source,
		filepath.Base(entry.TextPath):     []byte(input.Text),
		filepath.Base(entry.MetadataPath): metadataJSON,
		manifestName:                      manifestJSON,
	}
	for name, data := range files {
		if err := os.WriteFile(filepath.Join(stageDir, name), data, 0o644); err != nil {
			return fmt.Errorf("failed to stage %s: %w", name, err)
		}
	}
	return nil
}

// manifest persists the entry on disk. The content hash is excluded from the
// JSON body served to clients, so the manifest carries it under its own key.
type manifest struct {
	domain.DatasetEntry
	Hash string `json:"content_hash"`
}

func (s *Store) loadManifest(dir string) (*domain.DatasetEntry, error) {
	data, err := os.ReadFile(filepath.Join(dir, manifestName))
	if err != nil {
		return nil, err
	}
	var m manifest
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("corrupt dataset manifest in %s: %w", dir, err)
	}
	entry := m.DatasetEntry
	entry.ContentHash = m.Hash
	return &entry, nil
}

func (s *Store) keyLock(key string) *sync.Mutex {
	s.mu.Lock()
	defer s.mu.Unlock()
	lock, ok := s.locks[key]
	if !ok {
		lock = &sync.Mutex{}
		s.locks[key] = lock
	}
	return lock
}

func contentHash(source []byte, text string) string {
	h := sha256.New()
	h.Write(source)
	h.Write([]byte(text))
	return hex.EncodeToString(h.Sum(nil))
}

func normalizeExt(ext string) string {
	if ext == "" {
		return ""
	}
	if !strings.HasPrefix(ext, ".") {
		return "." + ext
	}
	return ext
}
