package dataset_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"docpipe/internal/dataset"
	"docpipe/internal/domain"
	"docpipe/internal/port"
)

func publishInput(key string) port.PublishInput {
	return port.PublishInput{
		Key:       key,
		JobID:     uuid.New(),
		Source:    []byte("%PDF-1.4 fake"),
		SourceExt: ".pdf",
		Text:      "hello\n-------------------\nworld",
		Metadata: &domain.MetadataRecord{
			SchemaVersion: domain.MetadataSchemaVersion,
			JobID:         key,
			PageCount:     2,
			Status:        domain.JobStatusDone,
			CreatedAt:     time.Now().UTC(),
		},
	}
}

func TestPublish_WritesTripleAtomically(t *testing.T) {
	store, err := dataset.NewStore(t.TempDir())
	require.NoError(t, err)

	input := publishInput("entry-a")
	entry, err := store.Publish(context.Background(), input)
	require.NoError(t, err)

	assert.Equal(t, "entry-a", entry.Key)
	assert.Equal(t, input.JobID, entry.JobID)
	assert.NotEmpty(t, entry.ContentHash)

	source, err := os.ReadFile(entry.SourcePath)
	require.NoError(t, err)
	assert.Equal(t, input.Source, source)

	text, err := os.ReadFile(entry.TextPath)
	require.NoError(t, err)
	assert.Equal(t, input.Text, string(text))

	metadata, err := os.ReadFile(entry.MetadataPath)
	require.NoError(t, err)
	assert.Contains(t, string(metadata), `"schema_version": "1"`)
}

func TestPublish_NoStagingResidue(t *testing.T) {
	root := t.TempDir()
	store, err := dataset.NewStore(root)
	require.NoError(t, err)

	_, err = store.Publish(context.Background(), publishInput("entry-b"))
	require.NoError(t, err)

	entries, err := os.ReadDir(filepath.Join(root, ".staging"))
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestPublish_SameContentIsIdempotent(t *testing.T) {
	store, err := dataset.NewStore(t.TempDir())
	require.NoError(t, err)

	input := publishInput("entry-c")
	first, err := store.Publish(context.Background(), input)
	require.NoError(t, err)

	// Identical source and text republish cleanly even when the metadata
	// timestamps differ, which they do on a retried job.
	input.Metadata.CreatedAt = input.Metadata.CreatedAt.Add(time.Minute)
	second, err := store.Publish(context.Background(), input)
	require.NoError(t, err)
	assert.Equal(t, first.ContentHash, second.ContentHash)
	assert.Equal(t, first.SourcePath, second.SourcePath)
}

func TestPublish_DivergentContentRejected(t *testing.T) {
	store, err := dataset.NewStore(t.TempDir())
	require.NoError(t, err)

	input := publishInput("entry-d")
	_, err = store.Publish(context.Background(), input)
	require.NoError(t, err)

	input.Text = "different extraction"
	_, err = store.Publish(context.Background(), input)
	assert.ErrorIs(t, err, domain.ErrDuplicateEntry)
}

func TestGet_RoundTrip(t *testing.T) {
	store, err := dataset.NewStore(t.TempDir())
	require.NoError(t, err)

	published, err := store.Publish(context.Background(), publishInput("entry-e"))
	require.NoError(t, err)

	got, err := store.Get(context.Background(), "entry-e")
	require.NoError(t, err)
	assert.Equal(t, published.Key, got.Key)
	assert.Equal(t, published.JobID, got.JobID)
	assert.Equal(t, published.ContentHash, got.ContentHash)
	assert.Equal(t, published.TextPath, got.TextPath)
}

func TestGet_UnknownKey_NotFound(t *testing.T) {
	store, err := dataset.NewStore(t.TempDir())
	require.NoError(t, err)

	_, err = store.Get(context.Background(), "missing")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}
