// internal/service/checkout_service.go
package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"pos-service/internal/model"
	"pos-service/internal/repository"
	"pos-service/internal/utils"
)

// maxNumberAttempts bounds the transaction number retries of one checkout
const maxNumberAttempts = 5

// CheckoutService records sales and prints their receipts. It is the caller
// of the printer service and decides on the HTML fallback.
type CheckoutService struct {
	transactionRepo repository.TransactionRepository
	productRepo     repository.ProductRepository
	printer         *PrinterService
	location        *time.Location
	clock           func() time.Time
	logger          *utils.ServiceLogger
	auditLogger     *utils.AuditLogger
}

// NewCheckoutService creates a new checkout service instance
func NewCheckoutService(
	transactionRepo repository.TransactionRepository,
	productRepo repository.ProductRepository,
	printer *PrinterService,
	location *time.Location,
	logger *zap.Logger,
) *CheckoutService {
	if location == nil {
		location = time.Local
	}
	return &CheckoutService{
		transactionRepo: transactionRepo,
		productRepo:     productRepo,
		printer:         printer,
		location:        location,
		clock:           time.Now,
		logger:          utils.NewServiceLogger(logger, "checkout-service"),
		auditLogger:     utils.NewAuditLogger(logger),
	}
}

// Checkout stores a sale and prints its receipt. The sale is kept when the
// print fails; the outcome carries the fallback link instead.
func (cs *CheckoutService) Checkout(ctx context.Context, req *CheckoutRequest) (*CheckoutResult, error) {
	items, err := cs.resolveItems(ctx, req.Items)
	if err != nil {
		return nil, err
	}

	trx, err := model.NewTransaction(
		items,
		decimal.NewFromInt(req.ShippingCost),
		decimal.NewFromInt(req.PaidAmount),
		cs.clock(),
	)
	if err != nil {
		return nil, err
	}

	if err := cs.store(ctx, trx); err != nil {
		return nil, err
	}
	cs.auditLogger.LogCheckout(trx.TransactionNumber, trx.GrandTotal.String(), len(trx.Items))

	result := &CheckoutResult{Transaction: trx}
	if req.SkipPrint {
		result.PrintOutcome = *cs.fallback(trx, nil)
		return result, nil
	}
	result.PrintOutcome = *cs.printOrFallback(ctx, trx, model.PrintJobSourceCheckout)
	return result, nil
}

// store saves the sale. A transaction number taken by a sale in the same
// millisecond is moved forward one millisecond at a time.
func (cs *CheckoutService) store(ctx context.Context, trx *model.Transaction) error {
	at := trx.CreatedAt
	for attempt := 0; ; attempt++ {
		err := cs.transactionRepo.Create(ctx, trx)
		if err == nil {
			return nil
		}
		if !errors.Is(err, repository.ErrDuplicate) || attempt >= maxNumberAttempts-1 {
			return fmt.Errorf("failed to store transaction: %w", err)
		}
		cs.logger.Debug("Transaction number taken, retrying",
			zap.String("transaction_number", trx.TransactionNumber))
		trx.TransactionNumber = model.NewTransactionNumber(at.Add(time.Duration(attempt+1) * time.Millisecond))
	}
}

// resolveItems fills name and price from the catalog for lines that carry a
// product id
func (cs *CheckoutService) resolveItems(ctx context.Context, lines []CheckoutItem) ([]model.CartItem, error) {
	items := make([]model.CartItem, 0, len(lines))
	for i, line := range lines {
		item := model.CartItem{
			ProductID: line.ProductID,
			Name:      line.Name,
			Price:     decimal.NewFromInt(line.Price),
			Quantity:  line.Quantity,
		}

		if line.ProductID != nil {
			product, err := cs.productRepo.GetByID(ctx, *line.ProductID)
			if err != nil {
				return nil, fmt.Errorf("%w: item %d references unknown product %s",
					model.ErrInvalidTransaction, i, line.ProductID)
			}
			if item.Name == "" {
				item.Name = product.Name
			}
			if line.Price == 0 {
				item.Price = product.Price
			}
		}

		items = append(items, item)
	}
	return items, nil
}

// Reprint prints the receipt of a stored sale
func (cs *CheckoutService) Reprint(ctx context.Context, id uuid.UUID) (*PrintOutcome, error) {
	trx, err := cs.GetTransaction(ctx, id)
	if err != nil {
		return nil, err
	}
	return cs.printOrFallback(ctx, trx, model.PrintJobSourceReprint), nil
}

func (cs *CheckoutService) printOrFallback(ctx context.Context, trx *model.Transaction, source model.PrintJobSource) *PrintOutcome {
	result, err := cs.printer.Print(ctx, trx.ToReceipt(), source)
	if err != nil {
		cs.logger.Warn("Receipt not printed, HTML fallback offered",
			zap.String("transaction_number", trx.TransactionNumber),
			zap.String("source", string(source)),
			zap.Error(err),
		)
		return cs.fallback(trx, err)
	}

	return &PrintOutcome{Printed: true, Print: result}
}

func (cs *CheckoutService) fallback(trx *model.Transaction, err error) *PrintOutcome {
	outcome := &PrintOutcome{
		Printed:     false,
		FallbackURL: ReceiptHTMLPath(trx.ID),
	}
	if err != nil {
		outcome.PrintError = err.Error()
	}
	return outcome
}

// GetTransaction retrieves one stored sale
func (cs *CheckoutService) GetTransaction(ctx context.Context, id uuid.UUID) (*model.Transaction, error) {
	trx, err := cs.transactionRepo.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("transaction not found: %w", err)
	}
	return trx, nil
}

// ListTransactions lists sales in the period newest first
func (cs *CheckoutService) ListTransactions(ctx context.Context, period model.TransactionPeriod, limit, offset int) ([]*model.Transaction, error) {
	transactions, err := cs.transactionRepo.List(ctx, &repository.TransactionFilter{
		Since:  period.Since(cs.clock(), cs.location),
		Limit:  limit,
		Offset: offset,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list transactions: %w", err)
	}
	return transactions, nil
}

// Stats summarises sales in the period
func (cs *CheckoutService) Stats(ctx context.Context, period model.TransactionPeriod) (*model.TransactionStats, error) {
	totals, err := cs.transactionRepo.Stats(ctx, period.Since(cs.clock(), cs.location))
	if err != nil {
		return nil, fmt.Errorf("failed to get transaction stats: %w", err)
	}

	return &model.TransactionStats{
		Period:  period,
		Count:   totals.Count,
		Total:   totals.Total,
		Average: totals.Average(),
	}, nil
}

// ReceiptHTMLPath is the fallback document of a stored sale
func ReceiptHTMLPath(id uuid.UUID) string {
	return fmt.Sprintf("/api/v1/transactions/%s/receipt.html", id)
}

// CheckoutItem is one cart line. Name and price may be omitted when the line
// references a catalog product.
type CheckoutItem struct {
	ProductID *uuid.UUID
	Name      string
	Price     int64
	Quantity  int
}

// CheckoutRequest represents a checkout
type CheckoutRequest struct {
	Items        []CheckoutItem
	ShippingCost int64
	PaidAmount   int64
	SkipPrint    bool
}

// PrintOutcome tells the caller whether the receipt printed or which fallback
// to open
type PrintOutcome struct {
	Printed     bool         `json:"printed"`
	Print       *PrintResult `json:"print,omitempty"`
	PrintError  string       `json:"print_error,omitempty"`
	FallbackURL string       `json:"fallback_url,omitempty"`
}

// CheckoutResult is a stored sale with its print outcome
type CheckoutResult struct {
	Transaction *model.Transaction `json:"transaction"`
	PrintOutcome
}
