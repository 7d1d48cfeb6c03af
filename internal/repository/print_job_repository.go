// internal/repository/print_job_repository.go
package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"pos-service/internal/database"
	"pos-service/internal/model"
)

const printJobColumns = `
	id, transaction_number, device_id, connection_type, source, status,
	byte_count, started_at, completed_at, duration_ms, error_message,
	result, created_at`

// printJobRepository implements PrintJobRepository on postgres
type printJobRepository struct {
	db     *database.DB
	logger *zap.Logger
}

// NewPrintJobRepository creates a new postgres print job repository
func NewPrintJobRepository(db *database.DB, logger *zap.Logger) PrintJobRepository {
	return &printJobRepository{
		db:     db,
		logger: logger,
	}
}

// Create creates a new print job
func (r *printJobRepository) Create(ctx context.Context, job *model.PrintJob) error {
	query := `
		INSERT INTO print_jobs (` + printJobColumns + `
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
	`

	_, err := r.db.ExecContext(ctx, query,
		job.ID, job.TransactionNumber, job.DeviceID, job.ConnectionType,
		job.Source, job.Status, job.ByteCount, job.StartedAt, job.CompletedAt,
		job.DurationMs, job.ErrorMessage, job.Result, job.CreatedAt,
	)
	if err != nil {
		r.logger.Error("Failed to create print job", zap.Error(err))
		return fmt.Errorf("failed to create print job: %w", err)
	}

	return nil
}

// GetByID retrieves a print job by ID
func (r *printJobRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.PrintJob, error) {
	query := `SELECT ` + printJobColumns + ` FROM print_jobs WHERE id = $1`

	job, err := scanPrintJob(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("print job %s: %w", id, ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get print job: %w", err)
	}

	return job, nil
}

// Update stores the outcome of a print job
func (r *printJobRepository) Update(ctx context.Context, job *model.PrintJob) error {
	query := `
		UPDATE print_jobs SET
			device_id = $2, connection_type = $3, status = $4, byte_count = $5,
			completed_at = $6, duration_ms = $7, error_message = $8, result = $9
		WHERE id = $1
	`

	result, err := r.db.ExecContext(ctx, query,
		job.ID, job.DeviceID, job.ConnectionType, job.Status, job.ByteCount,
		job.CompletedAt, job.DurationMs, job.ErrorMessage, job.Result,
	)
	if err != nil {
		return fmt.Errorf("failed to update print job: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return fmt.Errorf("print job %s: %w", job.ID, ErrNotFound)
	}

	return nil
}

// List retrieves print jobs newest first with filtering and pagination
func (r *printJobRepository) List(ctx context.Context, filter *PrintJobFilter) ([]*model.PrintJob, int, error) {
	whereConditions := []string{}
	args := []interface{}{}
	argIndex := 1

	if filter.Status != nil {
		whereConditions = append(whereConditions, fmt.Sprintf("status = $%d", argIndex))
		args = append(args, *filter.Status)
		argIndex++
	}

	if filter.Source != nil {
		whereConditions = append(whereConditions, fmt.Sprintf("source = $%d", argIndex))
		args = append(args, *filter.Source)
		argIndex++
	}

	if filter.TransactionNumber != nil {
		whereConditions = append(whereConditions, fmt.Sprintf("transaction_number = $%d", argIndex))
		args = append(args, *filter.TransactionNumber)
		argIndex++
	}

	if filter.StartDate != nil {
		whereConditions = append(whereConditions, fmt.Sprintf("created_at >= $%d", argIndex))
		args = append(args, *filter.StartDate)
		argIndex++
	}

	whereClause := ""
	if len(whereConditions) > 0 {
		whereClause = "WHERE " + strings.Join(whereConditions, " AND ")
	}

	var total int
	countQuery := fmt.Sprintf("SELECT COUNT(*) FROM print_jobs %s", whereClause)
	if err := r.db.QueryRowContext(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count print jobs: %w", err)
	}

	query := fmt.Sprintf(`
		SELECT %s FROM print_jobs %s
		ORDER BY created_at DESC
		LIMIT $%d OFFSET $%d
	`, printJobColumns, whereClause, argIndex, argIndex+1)
	args = append(args, normalizeLimit(filter.Limit), filter.Offset)

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list print jobs: %w", err)
	}
	defer rows.Close()

	jobs := []*model.PrintJob{}
	for rows.Next() {
		job, err := scanPrintJob(rows)
		if err != nil {
			r.logger.Error("Failed to scan print job row", zap.Error(err))
			continue
		}
		jobs = append(jobs, job)
	}

	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("failed to iterate print jobs: %w", err)
	}

	return jobs, total, nil
}

// GetStats aggregates print jobs created since the given time
func (r *printJobRepository) GetStats(ctx context.Context, since *time.Time) (*PrintJobStats, error) {
	whereClause := ""
	args := []interface{}{}
	if since != nil {
		whereClause = "WHERE created_at >= $1"
		args = append(args, *since)
	}

	query := fmt.Sprintf(`
		SELECT
			COUNT(*) AS total_jobs,
			COUNT(CASE WHEN status = 'SUCCESS' THEN 1 END) AS successful_jobs,
			COUNT(CASE WHEN status = 'FAILED' THEN 1 END) AS failed_jobs,
			COUNT(CASE WHEN status = 'REJECTED' THEN 1 END) AS rejected_jobs,
			COALESCE(SUM(CASE WHEN status = 'SUCCESS' THEN byte_count END), 0) AS total_bytes,
			AVG(duration_ms) AS avg_duration_ms
		FROM print_jobs %s
	`, whereClause)

	stats := &PrintJobStats{
		ByStatus: make(map[model.PrintJobStatus]int),
		BySource: make(map[model.PrintJobSource]int),
	}

	var avgDurationMs sql.NullFloat64
	err := r.db.QueryRowContext(ctx, query, args...).Scan(
		&stats.TotalJobs,
		&stats.SuccessfulJobs,
		&stats.FailedJobs,
		&stats.RejectedJobs,
		&stats.TotalBytes,
		&avgDurationMs,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to get print job stats: %w", err)
	}

	if avgDurationMs.Valid {
		stats.AvgDuration = time.Duration(avgDurationMs.Float64) * time.Millisecond
	}

	sourceQuery := fmt.Sprintf(`SELECT source, status, COUNT(*) FROM print_jobs %s GROUP BY source, status`, whereClause)
	rows, err := r.db.QueryContext(ctx, sourceQuery, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to group print jobs: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var source model.PrintJobSource
		var status model.PrintJobStatus
		var count int
		if err := rows.Scan(&source, &status, &count); err != nil {
			return nil, fmt.Errorf("failed to scan print job group: %w", err)
		}
		stats.BySource[source] += count
		stats.ByStatus[status] += count
	}

	return stats, rows.Err()
}

// DeleteOlderThan removes old print job records
func (r *printJobRepository) DeleteOlderThan(ctx context.Context, olderThan time.Time) (int64, error) {
	result, err := r.db.ExecContext(ctx, `DELETE FROM print_jobs WHERE created_at < $1`, olderThan)
	if err != nil {
		return 0, fmt.Errorf("failed to delete old print jobs: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to get rows affected: %w", err)
	}

	r.logger.Info("Deleted old print jobs",
		zap.Int64("rows_deleted", rowsAffected),
		zap.Time("older_than", olderThan),
	)

	return rowsAffected, nil
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanPrintJob(row rowScanner) (*model.PrintJob, error) {
	job := &model.PrintJob{}
	err := row.Scan(
		&job.ID, &job.TransactionNumber, &job.DeviceID, &job.ConnectionType,
		&job.Source, &job.Status, &job.ByteCount, &job.StartedAt,
		&job.CompletedAt, &job.DurationMs, &job.ErrorMessage, &job.Result,
		&job.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return job, nil
}
