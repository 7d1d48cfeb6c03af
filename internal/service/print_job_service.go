// internal/service/print_job_service.go
package service

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"pos-service/internal/model"
	"pos-service/internal/repository"
	"pos-service/internal/utils"
)

// PrintJobService exposes the print job log
type PrintJobService struct {
	jobRepo repository.PrintJobRepository
	logger  *utils.ServiceLogger
}

// NewPrintJobService creates a new print job service instance
func NewPrintJobService(jobRepo repository.PrintJobRepository, logger *zap.Logger) *PrintJobService {
	return &PrintJobService{
		jobRepo: jobRepo,
		logger:  utils.NewServiceLogger(logger, "print-job-service"),
	}
}

// GetJob retrieves one print job
func (js *PrintJobService) GetJob(ctx context.Context, jobID uuid.UUID) (*model.PrintJob, error) {
	job, err := js.jobRepo.GetByID(ctx, jobID)
	if err != nil {
		return nil, fmt.Errorf("print job not found: %w", err)
	}
	return job, nil
}

// ListJobs lists print jobs newest first
func (js *PrintJobService) ListJobs(ctx context.Context, filter *PrintJobFilter) ([]*model.PrintJob, *PaginationResult, error) {
	filter.normalize()

	jobs, total, err := js.jobRepo.List(ctx, filter.toRepoFilter())
	if err != nil {
		return nil, nil, fmt.Errorf("failed to list print jobs: %w", err)
	}

	pagination := &PaginationResult{
		Total:      total,
		Page:       filter.Page,
		PerPage:    filter.PerPage,
		TotalPages: (total + filter.PerPage - 1) / filter.PerPage,
	}
	return jobs, pagination, nil
}

// GetStats aggregates print jobs created since the given time, or all jobs
func (js *PrintJobService) GetStats(ctx context.Context, since *time.Time) (*repository.PrintJobStats, error) {
	stats, err := js.jobRepo.GetStats(ctx, since)
	if err != nil {
		return nil, fmt.Errorf("failed to get print job stats: %w", err)
	}
	return stats, nil
}

// Cleanup deletes print jobs older than retention
func (js *PrintJobService) Cleanup(ctx context.Context, retention time.Duration) (int64, error) {
	deleted, err := js.jobRepo.DeleteOlderThan(ctx, time.Now().Add(-retention))
	if err != nil {
		return 0, fmt.Errorf("failed to clean up print jobs: %w", err)
	}
	if deleted > 0 {
		js.logger.Info("Old print jobs removed",
			zap.Int64("deleted", deleted),
			zap.Duration("retention", retention),
		)
	}
	return deleted, nil
}

// PrintJobFilter represents print job listing filters
type PrintJobFilter struct {
	Status            *model.PrintJobStatus `json:"status,omitempty"`
	Source            *model.PrintJobSource `json:"source,omitempty"`
	TransactionNumber *string               `json:"transaction_number,omitempty"`
	StartDate         *time.Time            `json:"start_date,omitempty"`
	Page              int                   `json:"page"`
	PerPage           int                   `json:"per_page"`
}

func (f *PrintJobFilter) normalize() {
	if f.Page < 1 {
		f.Page = 1
	}
	if f.PerPage < 1 || f.PerPage > 100 {
		f.PerPage = 20
	}
}

// toRepoFilter converts to repository filter
func (f *PrintJobFilter) toRepoFilter() *repository.PrintJobFilter {
	return &repository.PrintJobFilter{
		Status:            f.Status,
		Source:            f.Source,
		TransactionNumber: f.TransactionNumber,
		StartDate:         f.StartDate,
		Limit:             f.PerPage,
		Offset:            (f.Page - 1) * f.PerPage,
	}
}

// PaginationResult represents pagination information
type PaginationResult struct {
	Total      int `json:"total"`
	Page       int `json:"page"`
	PerPage    int `json:"per_page"`
	TotalPages int `json:"total_pages"`
}
