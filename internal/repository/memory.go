// internal/repository/memory.go
package repository

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"pos-service/internal/model"
)

// MemoryPairingRepository keeps the last used printer for the process lifetime
type MemoryPairingRepository struct {
	mu     sync.RWMutex
	device *model.PairedDevice
}

// NewMemoryPairingRepository creates an empty in-memory pairing store
func NewMemoryPairingRepository() *MemoryPairingRepository {
	return &MemoryPairingRepository{}
}

// Load returns the remembered device or nil
func (r *MemoryPairingRepository) Load(ctx context.Context) (*model.PairedDevice, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if r.device == nil {
		return nil, nil
	}
	device := *r.device
	return &device, nil
}

// Save remembers device
func (r *MemoryPairingRepository) Save(ctx context.Context, device *model.PairedDevice) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	copied := *device
	r.device = &copied
	return nil
}

// Clear forgets the device
func (r *MemoryPairingRepository) Clear(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.device = nil
	return nil
}

// Persistent is false for the in-memory store
func (r *MemoryPairingRepository) Persistent() bool {
	return false
}

// memoryProductRepository implements ProductRepository in memory
type memoryProductRepository struct {
	mu       sync.RWMutex
	products map[uuid.UUID]model.Product
}

// NewMemoryProductRepository creates an in-memory product catalog
func NewMemoryProductRepository() ProductRepository {
	return &memoryProductRepository{products: make(map[uuid.UUID]model.Product)}
}

func (r *memoryProductRepository) Create(ctx context.Context, product *model.Product) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.products[product.ID]; exists {
		return fmt.Errorf("%w: product %s", ErrDuplicate, product.ID)
	}
	r.products[product.ID] = *product
	return nil
}

func (r *memoryProductRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.Product, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	product, ok := r.products[id]
	if !ok {
		return nil, fmt.Errorf("product %s: %w", id, ErrNotFound)
	}
	return &product, nil
}

func (r *memoryProductRepository) Update(ctx context.Context, product *model.Product) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.products[product.ID]; !ok {
		return fmt.Errorf("product %s: %w", product.ID, ErrNotFound)
	}
	r.products[product.ID] = *product
	return nil
}

func (r *memoryProductRepository) Delete(ctx context.Context, id uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.products[id]; !ok {
		return fmt.Errorf("product %s: %w", id, ErrNotFound)
	}
	delete(r.products, id)
	return nil
}

func (r *memoryProductRepository) List(ctx context.Context, activeOnly bool) ([]*model.Product, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	products := []*model.Product{}
	for _, p := range r.products {
		if activeOnly && !p.Active {
			continue
		}
		product := p
		products = append(products, &product)
	}

	if activeOnly {
		sort.Slice(products, func(i, j int) bool { return products[i].Name < products[j].Name })
	} else {
		sort.Slice(products, func(i, j int) bool { return products[i].CreatedAt.After(products[j].CreatedAt) })
	}
	return products, nil
}

// memoryTransactionRepository implements TransactionRepository in memory
type memoryTransactionRepository struct {
	mu           sync.RWMutex
	transactions []model.Transaction
}

// NewMemoryTransactionRepository creates an in-memory sales history
func NewMemoryTransactionRepository() TransactionRepository {
	return &memoryTransactionRepository{}
}

func (r *memoryTransactionRepository) Create(ctx context.Context, trx *model.Transaction) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, existing := range r.transactions {
		if existing.TransactionNumber == trx.TransactionNumber {
			return fmt.Errorf("%w: transaction %s", ErrDuplicate, trx.TransactionNumber)
		}
	}
	r.transactions = append(r.transactions, copyTransaction(trx))
	return nil
}

func (r *memoryTransactionRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.Transaction, error) {
	return r.find(func(t *model.Transaction) bool { return t.ID == id }, id)
}

func (r *memoryTransactionRepository) GetByNumber(ctx context.Context, transactionNumber string) (*model.Transaction, error) {
	return r.find(func(t *model.Transaction) bool { return t.TransactionNumber == transactionNumber }, transactionNumber)
}

func (r *memoryTransactionRepository) find(match func(*model.Transaction) bool, key interface{}) (*model.Transaction, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for i := range r.transactions {
		if match(&r.transactions[i]) {
			trx := copyTransaction(&r.transactions[i])
			return &trx, nil
		}
	}
	return nil, fmt.Errorf("transaction %v: %w", key, ErrNotFound)
}

func (r *memoryTransactionRepository) List(ctx context.Context, filter *TransactionFilter) ([]*model.Transaction, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	matched := []*model.Transaction{}
	for i := range r.transactions {
		if filter.Since != nil && r.transactions[i].CreatedAt.Before(*filter.Since) {
			continue
		}
		trx := copyTransaction(&r.transactions[i])
		matched = append(matched, &trx)
	}

	sort.SliceStable(matched, func(i, j int) bool { return matched[i].CreatedAt.After(matched[j].CreatedAt) })
	return paginate(matched, filter.Limit, filter.Offset), nil
}

func (r *memoryTransactionRepository) Stats(ctx context.Context, since *time.Time) (*TransactionTotals, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	totals := &TransactionTotals{Total: decimal.Zero}
	for _, trx := range r.transactions {
		if since != nil && trx.CreatedAt.Before(*since) {
			continue
		}
		totals.Count++
		totals.Total = totals.Total.Add(trx.GrandTotal)
	}
	return totals, nil
}

func copyTransaction(trx *model.Transaction) model.Transaction {
	copied := *trx
	copied.Items = append([]model.TransactionItem(nil), trx.Items...)
	return copied
}

// memoryPrintJobRepository implements PrintJobRepository in memory
type memoryPrintJobRepository struct {
	mu   sync.RWMutex
	jobs []model.PrintJob
}

// NewMemoryPrintJobRepository creates an in-memory print job log
func NewMemoryPrintJobRepository() PrintJobRepository {
	return &memoryPrintJobRepository{}
}

func (r *memoryPrintJobRepository) Create(ctx context.Context, job *model.PrintJob) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.jobs = append(r.jobs, *job)
	return nil
}

func (r *memoryPrintJobRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.PrintJob, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, job := range r.jobs {
		if job.ID == id {
			return &job, nil
		}
	}
	return nil, fmt.Errorf("print job %s: %w", id, ErrNotFound)
}

func (r *memoryPrintJobRepository) Update(ctx context.Context, job *model.PrintJob) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for i := range r.jobs {
		if r.jobs[i].ID == job.ID {
			r.jobs[i] = *job
			return nil
		}
	}
	return fmt.Errorf("print job %s: %w", job.ID, ErrNotFound)
}

func (r *memoryPrintJobRepository) List(ctx context.Context, filter *PrintJobFilter) ([]*model.PrintJob, int, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	matched := []*model.PrintJob{}
	for _, job := range r.jobs {
		if filter.Status != nil && job.Status != *filter.Status {
			continue
		}
		if filter.Source != nil && job.Source != *filter.Source {
			continue
		}
		if filter.TransactionNumber != nil && job.TransactionNumber != *filter.TransactionNumber {
			continue
		}
		if filter.StartDate != nil && job.CreatedAt.Before(*filter.StartDate) {
			continue
		}
		j := job
		matched = append(matched, &j)
	}

	sort.SliceStable(matched, func(i, j int) bool { return matched[i].CreatedAt.After(matched[j].CreatedAt) })
	return paginate(matched, filter.Limit, filter.Offset), len(matched), nil
}

func (r *memoryPrintJobRepository) GetStats(ctx context.Context, since *time.Time) (*PrintJobStats, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	stats := &PrintJobStats{
		ByStatus: make(map[model.PrintJobStatus]int),
		BySource: make(map[model.PrintJobSource]int),
	}

	var totalDurationMs, completed int
	for _, job := range r.jobs {
		if since != nil && job.CreatedAt.Before(*since) {
			continue
		}
		stats.TotalJobs++
		stats.ByStatus[job.Status]++
		stats.BySource[job.Source]++

		switch job.Status {
		case model.PrintJobStatusSuccess:
			stats.SuccessfulJobs++
			stats.TotalBytes += int64(job.ByteCount)
		case model.PrintJobStatusFailed:
			stats.FailedJobs++
		case model.PrintJobStatusRejected:
			stats.RejectedJobs++
		}

		if job.DurationMs != nil {
			totalDurationMs += *job.DurationMs
			completed++
		}
	}

	if completed > 0 {
		stats.AvgDuration = time.Duration(totalDurationMs/completed) * time.Millisecond
	}
	return stats, nil
}

func (r *memoryPrintJobRepository) DeleteOlderThan(ctx context.Context, olderThan time.Time) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	kept := r.jobs[:0]
	var deleted int64
	for _, job := range r.jobs {
		if job.CreatedAt.Before(olderThan) {
			deleted++
			continue
		}
		kept = append(kept, job)
	}
	r.jobs = kept
	return deleted, nil
}

func paginate[T any](items []T, limit, offset int) []T {
	if offset >= len(items) {
		return []T{}
	}
	items = items[offset:]

	limit = normalizeLimit(limit)
	if len(items) > limit {
		items = items[:limit]
	}
	return items
}
