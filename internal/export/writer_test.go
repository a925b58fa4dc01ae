package export

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"docpipe/internal/domain"
)

func doneJob(t *testing.T) domain.Job {
	t.Helper()
	record := domain.MetadataRecord{
		SchemaVersion:      domain.MetadataSchemaVersion,
		PageCount:          3,
		DocumentConfidence: 0.8675,
		ProcessingMS:       1234,
		FailedPages:        []int{2},
		Pages: []domain.PageMetadata{
			{Index: 0, Confidence: 0.9},
			{Index: 1, EmptyPage: true},
			{Index: 2, Failed: true, FailureReason: "engine error"},
		},
		Status: domain.JobStatusDone,
	}
	raw, err := json.Marshal(record)
	require.NoError(t, err)

	finished := time.Date(2025, 6, 1, 12, 30, 0, 0, time.UTC)
	return domain.Job{
		ID:           uuid.New(),
		OriginalName: "contract.pdf",
		FileType:     domain.FileTypePDF,
		Status:       domain.JobStatusDone,
		Attempts:     1,
		DatasetKey:   "abc",
		Metadata:     raw,
		FinishedAt:   &finished,
		CreatedAt:    time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC),
	}
}

func TestWriteHeader(t *testing.T) {
	var buf bytes.Buffer
	w := NewWriter(&buf)
	require.NoError(t, w.WriteHeader())
	w.Flush()
	require.NoError(t, w.Error())

	r := csv.NewReader(&buf)
	row, err := r.Read()
	require.NoError(t, err)

	assert.Len(t, row, 15)
	assert.Equal(t, "Job ID", row[0])
	assert.Equal(t, "Created At", row[14])
}

func TestWriteJobs_DoneJob(t *testing.T) {
	job := doneJob(t)

	var buf bytes.Buffer
	w := NewWriter(&buf)
	require.NoError(t, w.WriteHeader())
	require.NoError(t, w.WriteJobs([]domain.Job{job}))
	w.Flush()
	require.NoError(t, w.Error())

	r := csv.NewReader(&buf)
	rows, err := r.ReadAll()
	require.NoError(t, err)
	require.Len(t, rows, 2)

	row := rows[1]
	assert.Equal(t, job.ID.String(), row[0])
	assert.Equal(t, "contract.pdf", row[1])
	assert.Equal(t, "done", row[3])
	assert.Equal(t, "3", row[5])
	assert.Equal(t, "1", row[6])
	assert.Equal(t, "1", row[7])
	assert.Equal(t, "0.8675", row[8])
	assert.Equal(t, "1234", row[9])
	assert.Equal(t, "2025-06-01T12:30:00Z", row[13])
}

func TestWriteJobs_PendingJobLeavesPipelineColumnsEmpty(t *testing.T) {
	job := domain.Job{
		ID:           uuid.New(),
		OriginalName: "scan.png",
		FileType:     domain.FileTypePNG,
		Status:       domain.JobStatusPending,
		CreatedAt:    time.Now().UTC(),
	}

	var buf bytes.Buffer
	w := NewWriter(&buf)
	require.NoError(t, w.WriteJobs([]domain.Job{job}))
	w.Flush()
	require.NoError(t, w.Error())

	r := csv.NewReader(&buf)
	rows, err := r.ReadAll()
	require.NoError(t, err)
	require.Len(t, rows, 1)

	assert.Equal(t, "pending", rows[0][3])
	assert.Empty(t, rows[0][5])
	assert.Empty(t, rows[0][8])
	assert.Empty(t, rows[0][13])
}

func TestWriteXLSX(t *testing.T) {
	job := doneJob(t)

	var buf bytes.Buffer
	require.NoError(t, WriteXLSX(&buf, []domain.Job{job}))

	f, err := excelize.OpenReader(&buf)
	require.NoError(t, err)
	defer f.Close()

	rows, err := f.GetRows("Jobs")
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, "Job ID", rows[0][0])
	assert.Equal(t, "contract.pdf", rows[1][1])
	assert.Equal(t, "0.8675", rows[1][8])
}
