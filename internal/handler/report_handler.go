package handler

import (
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"docpipe/internal/domain"
	"docpipe/internal/export"
	"docpipe/internal/service"
)

// reportBatchSize bounds how many jobs are loaded per page while streaming
// a report.
const reportBatchSize = 500

// ReportHandler handles dataset report export endpoints.
type ReportHandler struct {
	jobService service.JobService
}

// NewReportHandler creates a new ReportHandler.
func NewReportHandler(jobService service.JobService) *ReportHandler {
	return &ReportHandler{jobService: jobService}
}

// DatasetCSV handles GET /api/v1/reports/dataset.csv
func (h *ReportHandler) DatasetCSV(c *gin.Context) {
	filename := fmt.Sprintf("dataset-%s.csv", time.Now().UTC().Format("20060102-150405"))
	c.Header("Content-Type", "text/csv; charset=utf-8")
	c.Header("Content-Disposition", `attachment; filename="`+filename+`"`)

	if _, err := c.Writer.Write(export.BOM); err != nil {
		return
	}

	w := export.NewWriter(c.Writer)
	if err := w.WriteHeader(); err != nil {
		return
	}

	offset := 0
	for {
		jobs, total, err := h.jobService.List(c.Request.Context(), offset, reportBatchSize)
		if err != nil {
			// Headers are already sent; the truncated body is the best we
			// can signal here.
			return
		}
		if err := w.WriteJobs(jobs); err != nil {
			return
		}
		offset += len(jobs)
		if offset >= total || len(jobs) == 0 {
			break
		}
	}
	w.Flush()
}

// DatasetXLSX handles GET /api/v1/reports/dataset.xlsx
func (h *ReportHandler) DatasetXLSX(c *gin.Context) {
	var all []domain.Job
	offset := 0
	for {
		jobs, total, err := h.jobService.List(c.Request.Context(), offset, reportBatchSize)
		if err != nil {
			HandleError(c, err)
			return
		}
		all = append(all, jobs...)
		offset += len(jobs)
		if offset >= total || len(jobs) == 0 {
			break
		}
	}

	filename := fmt.Sprintf("dataset-%s.xlsx", time.Now().UTC().Format("20060102-150405"))
	c.Header("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	c.Header("Content-Disposition", `attachment; filename="`+filename+`"`)
	c.Status(http.StatusOK)

	if err := export.WriteXLSX(c.Writer, all); err != nil {
		return
	}
}
