package export

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/xuri/excelize/v2"

	"docpipe/internal/domain"
)

// UTF-8 BOM bytes for Excel compatibility on Windows.
var BOM = []byte{0xEF, 0xBB, 0xBF}

// columns defines the report header row.
var columns = []string{
	"Job ID",
	"Original Name",
	"File Type",
	"Status",
	"Attempts",
	"Page Count",
	"Failed Pages",
	"Empty Pages",
	"Document Confidence",
	"Processing MS",
	"Dataset Key",
	"Error Message",
	"Started At",
	"Finished At",
	"Created At",
}

// Writer wraps csv.Writer for exporting processed jobs as CSV.
type Writer struct {
	csv *csv.Writer
}

// NewWriter creates a Writer that writes CSV to w.
func NewWriter(w io.Writer) *Writer {
	return &Writer{csv: csv.NewWriter(w)}
}

// WriteHeader writes the header row.
func (w *Writer) WriteHeader() error {
	return w.csv.Write(columns)
}

// WriteJobs converts a batch of jobs to CSV rows and writes them.
func (w *Writer) WriteJobs(jobs []domain.Job) error {
	for i := range jobs {
		if err := w.csv.Write(jobToRow(&jobs[i])); err != nil {
			return err
		}
	}
	return nil
}

// Flush flushes the underlying csv.Writer buffer.
func (w *Writer) Flush() {
	w.csv.Flush()
}

// Error returns any error from the underlying csv.Writer.
func (w *Writer) Error() error {
	return w.csv.Error()
}

// WriteXLSX writes the same report as a single-sheet XLSX workbook.
func WriteXLSX(w io.Writer, jobs []domain.Job) error {
	f := excelize.NewFile()
	defer f.Close()

	const sheet = "Jobs"
	f.SetSheetName("Sheet1", sheet)

	header := make([]interface{}, len(columns))
	for i, c := range columns {
		header[i] = c
	}
	if err := f.SetSheetRow(sheet, "A1", &header); err != nil {
		return fmt.Errorf("writing xlsx header: %w", err)
	}

	for i := range jobs {
		row := jobToRow(&jobs[i])
		cells := make([]interface{}, len(row))
		for j, v := range row {
			cells[j] = v
		}
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return fmt.Errorf("xlsx cell name: %w", err)
		}
		if err := f.SetSheetRow(sheet, cell, &cells); err != nil {
			return fmt.Errorf("writing xlsx row: %w", err)
		}
	}

	if err := f.Write(w); err != nil {
		return fmt.Errorf("writing xlsx: %w", err)
	}
	return nil
}

// jobToRow converts one job to a report row. Jobs without a metadata record
// yet leave the pipeline columns empty.
func jobToRow(job *domain.Job) []string {
	row := make([]string, len(columns))
	row[0] = job.ID.String()
	row[1] = job.OriginalName
	row[2] = string(job.FileType)
	row[3] = string(job.Status)
	row[4] = strconv.Itoa(job.Attempts)
	row[10] = job.DatasetKey
	row[11] = job.ErrorMessage
	row[12] = formatTime(job.StartedAt)
	row[13] = formatTime(job.FinishedAt)
	row[14] = job.CreatedAt.Format(time.RFC3339)

	if len(job.Metadata) == 0 {
		return row
	}
	var record domain.MetadataRecord
	if err := json.Unmarshal(job.Metadata, &record); err != nil {
		return row
	}

	empty := 0
	for _, page := range record.Pages {
		if page.EmptyPage {
			empty++
		}
	}
	row[5] = strconv.Itoa(record.PageCount)
	row[6] = strconv.Itoa(len(record.FailedPages))
	row[7] = strconv.Itoa(empty)
	row[8] = fmt.Sprintf("%.4f", record.DocumentConfidence)
	row[9] = strconv.FormatInt(record.ProcessingMS, 10)
	return row
}

func formatTime(t *time.Time) string {
	if t == nil {
		return ""
	}
	return t.Format(time.RFC3339)
}
