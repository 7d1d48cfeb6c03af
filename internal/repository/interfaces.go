// internal/repository/interfaces.go
package repository

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"pos-service/internal/model"
)

// ErrNotFound is returned when a record does not exist
var ErrNotFound = errors.New("record not found")

// ErrDuplicate is returned when a unique key is already taken
var ErrDuplicate = errors.New("record already exists")

// PairingRepository remembers the last printer the service connected to
type PairingRepository interface {
	Load(ctx context.Context) (*model.PairedDevice, error)
	Save(ctx context.Context, device *model.PairedDevice) error
	Clear(ctx context.Context) error
	Persistent() bool
}

// ProductRepository defines product catalog data access operations
type ProductRepository interface {
	Create(ctx context.Context, product *model.Product) error
	GetByID(ctx context.Context, id uuid.UUID) (*model.Product, error)
	Update(ctx context.Context, product *model.Product) error
	Delete(ctx context.Context, id uuid.UUID) error

	// List returns all products newest first, or active products by name
	List(ctx context.Context, activeOnly bool) ([]*model.Product, error)
}

// TransactionRepository defines sales history data access operations
type TransactionRepository interface {
	// Create stores the transaction and its items atomically
	Create(ctx context.Context, transaction *model.Transaction) error
	GetByID(ctx context.Context, id uuid.UUID) (*model.Transaction, error)
	GetByNumber(ctx context.Context, transactionNumber string) (*model.Transaction, error)

	// List returns transactions newest first with their items
	List(ctx context.Context, filter *TransactionFilter) ([]*model.Transaction, error)
	Stats(ctx context.Context, since *time.Time) (*TransactionTotals, error)
}

// PrintJobRepository defines print job log data access operations
type PrintJobRepository interface {
	Create(ctx context.Context, job *model.PrintJob) error
	GetByID(ctx context.Context, id uuid.UUID) (*model.PrintJob, error)
	Update(ctx context.Context, job *model.PrintJob) error
	List(ctx context.Context, filter *PrintJobFilter) ([]*model.PrintJob, int, error)
	GetStats(ctx context.Context, since *time.Time) (*PrintJobStats, error)
	DeleteOlderThan(ctx context.Context, olderThan time.Time) (int64, error)
}

// TransactionFilter represents transaction listing filters
type TransactionFilter struct {
	Since  *time.Time `json:"since,omitempty"`
	Limit  int        `json:"limit"`
	Offset int        `json:"offset"`
}

// TransactionTotals aggregates transactions
type TransactionTotals struct {
	Count int             `json:"count"`
	Total decimal.Decimal `json:"total"`
}

// PrintJobFilter represents print job listing filters
type PrintJobFilter struct {
	Status            *model.PrintJobStatus `json:"status,omitempty"`
	Source            *model.PrintJobSource `json:"source,omitempty"`
	TransactionNumber *string               `json:"transaction_number,omitempty"`
	StartDate         *time.Time            `json:"start_date,omitempty"`
	Limit             int                   `json:"limit"`
	Offset            int                   `json:"offset"`
}

// PrintJobStats represents print job statistics
type PrintJobStats struct {
	TotalJobs      int                          `json:"total_jobs"`
	SuccessfulJobs int                          `json:"successful_jobs"`
	FailedJobs     int                          `json:"failed_jobs"`
	RejectedJobs   int                          `json:"rejected_jobs"`
	TotalBytes     int64                        `json:"total_bytes"`
	AvgDuration    time.Duration                `json:"average_duration"`
	ByStatus       map[model.PrintJobStatus]int `json:"by_status"`
	BySource       map[model.PrintJobSource]int `json:"by_source"`
}

// DefaultListLimit caps list queries without an explicit limit
const DefaultListLimit = 100

func normalizeLimit(limit int) int {
	if limit <= 0 || limit > 1000 {
		return DefaultListLimit
	}
	return limit
}
