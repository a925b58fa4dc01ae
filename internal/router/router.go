package router

import (
	"github.com/gin-gonic/gin"

	"docpipe/internal/handler"
	"docpipe/internal/middleware"
)

// Setup configures the Gin engine with all routes and middleware.
func Setup(
	jobH *handler.JobHandler,
	reportH *handler.ReportHandler,
	healthH *handler.HealthHandler,
) *gin.Engine {
	r := gin.New()

	// Global middleware
	r.Use(middleware.Recovery())
	r.Use(middleware.RequestID())
	r.Use(middleware.Logger())
	r.Use(middleware.CORS())

	// Health checks
	r.GET("/healthz", healthH.Liveness)
	r.GET("/readyz", healthH.Readiness)

	v1 := r.Group("/api/v1")

	// Submission and job lifecycle
	v1.POST("/documents", jobH.Submit)
	jobs := v1.Group("/jobs")
	jobs.GET("", jobH.List)
	jobs.GET("/:id", jobH.Status)
	jobs.GET("/:id/result", jobH.Result)

	// Dataset reports
	reports := v1.Group("/reports")
	reports.GET("/dataset.csv", reportH.DatasetCSV)
	reports.GET("/dataset.xlsx", reportH.DatasetXLSX)

	return r
}
