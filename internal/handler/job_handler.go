// internal/handler/job_handler.go
package handler

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"pos-service/internal/model"
	"pos-service/internal/service"
	"pos-service/internal/utils"
)

// JobHandler handles print job log requests
type JobHandler struct {
	jobService *service.PrintJobService
	logger     *utils.ServiceLogger
}

// NewJobHandler creates a new print job handler
func NewJobHandler(jobService *service.PrintJobService, logger *zap.Logger) *JobHandler {
	return &JobHandler{
		jobService: jobService,
		logger:     utils.NewServiceLogger(logger, "job-handler"),
	}
}

// RegisterRoutes registers print job routes
func (h *JobHandler) RegisterRoutes(router *gin.RouterGroup) {
	jobs := router.Group("/printer/jobs")
	{
		jobs.GET("", h.ListJobs)
		jobs.GET("/stats", h.GetStats)
		jobs.GET("/:id", h.GetJob)
	}
}

// ListJobs lists print jobs newest first
// @Summary List print jobs
// @Tags Print Jobs
// @Produce json
// @Param page query int false "Page number" default(1)
// @Param per_page query int false "Items per page" default(20)
// @Param status query string false "Filter by status" Enums(PROCESSING, SUCCESS, FAILED, REJECTED)
// @Param source query string false "Filter by source" Enums(API, CHECKOUT, REPRINT)
// @Param transaction_number query string false "Filter by transaction number"
// @Param start_date query string false "Jobs created at or after (RFC3339)"
// @Success 200 {object} utils.APIResponse{data=object{jobs=[]model.PrintJob,pagination=service.PaginationResult}} "Print jobs retrieved"
// @Router /printer/jobs [get]
func (h *JobHandler) ListJobs(c *gin.Context) {
	filter := &service.PrintJobFilter{Page: 1, PerPage: 20}

	if page := c.Query("page"); page != "" {
		if p, err := strconv.Atoi(page); err == nil && p > 0 {
			filter.Page = p
		}
	}
	if perPage := c.Query("per_page"); perPage != "" {
		if pp, err := strconv.Atoi(perPage); err == nil && pp > 0 && pp <= 100 {
			filter.PerPage = pp
		}
	}
	if status := c.Query("status"); status != "" {
		s := model.PrintJobStatus(status)
		filter.Status = &s
	}
	if source := c.Query("source"); source != "" {
		s := model.PrintJobSource(source)
		filter.Source = &s
	}
	if trx := c.Query("transaction_number"); trx != "" {
		filter.TransactionNumber = &trx
	}
	if startDate := c.Query("start_date"); startDate != "" {
		if t, err := time.Parse(time.RFC3339, startDate); err == nil {
			filter.StartDate = &t
		}
	}

	jobs, pagination, err := h.jobService.ListJobs(c.Request.Context(), filter)
	if err != nil {
		serviceErrorResponse(c, "Failed to list print jobs", err)
		return
	}

	utils.SuccessResponse(c, http.StatusOK, "Print jobs retrieved", gin.H{
		"jobs":       jobs,
		"pagination": pagination,
	})
}

// GetStats returns print job totals
// @Summary Print job stats
// @Tags Print Jobs
// @Produce json
// @Param since query string false "Only jobs created at or after (RFC3339)"
// @Success 200 {object} utils.APIResponse{data=repository.PrintJobStats} "Stats retrieved"
// @Router /printer/jobs/stats [get]
func (h *JobHandler) GetStats(c *gin.Context) {
	var since *time.Time
	if s := c.Query("since"); s != "" {
		t, err := time.Parse(time.RFC3339, s)
		if err != nil {
			utils.ErrorResponse(c, http.StatusBadRequest, "Invalid since timestamp", err)
			return
		}
		since = &t
	}

	stats, err := h.jobService.GetStats(c.Request.Context(), since)
	if err != nil {
		serviceErrorResponse(c, "Failed to get print job stats", err)
		return
	}

	utils.SuccessResponse(c, http.StatusOK, "Print job stats retrieved", stats)
}

// GetJob returns one print job
// @Summary Get print job
// @Tags Print Jobs
// @Produce json
// @Param id path string true "Print job ID"
// @Success 200 {object} utils.APIResponse{data=model.PrintJob} "Print job retrieved"
// @Failure 404 {object} utils.APIResponse "Print job not found"
// @Router /printer/jobs/{id} [get]
func (h *JobHandler) GetJob(c *gin.Context) {
	id, ok := parseID(c, "print job")
	if !ok {
		return
	}

	job, err := h.jobService.GetJob(c.Request.Context(), id)
	if err != nil {
		serviceErrorResponse(c, "Failed to get print job", err)
		return
	}

	utils.SuccessResponse(c, http.StatusOK, "Print job retrieved", job)
}
