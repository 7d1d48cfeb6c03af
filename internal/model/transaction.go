// internal/model/transaction.go
package model

import (
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ErrInvalidTransaction is returned when checkout input is inconsistent
var ErrInvalidTransaction = errors.New("invalid transaction")

// TransactionNumberPrefix starts every transaction number
const TransactionNumberPrefix = "TRX"

// NewTransactionNumber derives the human readable number from the sale time
func NewTransactionNumber(at time.Time) string {
	return TransactionNumberPrefix + strconv.FormatInt(at.UnixMilli(), 10)
}

// Transaction is a completed sale
type Transaction struct {
	ID                uuid.UUID         `json:"id" db:"id"`
	TransactionNumber string            `json:"transaction_no" db:"transaction_no"`
	Items             []TransactionItem `json:"items"`
	Subtotal          decimal.Decimal   `json:"total" db:"total"`
	ShippingCost      decimal.Decimal   `json:"shipping_cost" db:"shipping_cost"`
	GrandTotal        decimal.Decimal   `json:"grand_total" db:"grand_total"`
	PaidAmount        decimal.Decimal   `json:"paid" db:"paid"`
	ChangeAmount      decimal.Decimal   `json:"change" db:"change"`
	CreatedAt         time.Time         `json:"created_at" db:"created_at"`
}

// TransactionItem is a product line stored with a transaction
type TransactionItem struct {
	ID            uuid.UUID       `json:"id" db:"id"`
	TransactionID uuid.UUID       `json:"transaction_id" db:"transaction_id"`
	ProductID     *uuid.UUID      `json:"product_id,omitempty" db:"product_id"`
	ProductName   string          `json:"product_name" db:"product_name"`
	Price         decimal.Decimal `json:"price" db:"price"`
	Quantity      int             `json:"qty" db:"qty"`
	Subtotal      decimal.Decimal `json:"subtotal" db:"subtotal"`
}

// CartItem is one line of a checkout request
type CartItem struct {
	ProductID *uuid.UUID
	Name      string
	Price     decimal.Decimal
	Quantity  int
}

// NewTransaction computes totals and change for a cart. The paid amount must
// cover the grand total.
func NewTransaction(items []CartItem, shippingCost, paidAmount decimal.Decimal, at time.Time) (*Transaction, error) {
	if len(items) == 0 {
		return nil, fmt.Errorf("%w: cart is empty", ErrInvalidTransaction)
	}
	if shippingCost.IsNegative() {
		return nil, fmt.Errorf("%w: shipping cost must not be negative", ErrInvalidTransaction)
	}
	if !shippingCost.IsInteger() || !paidAmount.IsInteger() {
		return nil, fmt.Errorf("%w: amounts must be whole rupiah", ErrInvalidTransaction)
	}

	trx := &Transaction{
		ID:                uuid.New(),
		TransactionNumber: NewTransactionNumber(at),
		Items:             make([]TransactionItem, 0, len(items)),
		ShippingCost:      shippingCost,
		PaidAmount:        paidAmount,
		CreatedAt:         at,
	}

	subtotal := decimal.Zero
	for i, item := range items {
		if item.Name == "" {
			return nil, fmt.Errorf("%w: item %d has no name", ErrInvalidTransaction, i)
		}
		if item.Quantity <= 0 {
			return nil, fmt.Errorf("%w: item %d has non-positive quantity", ErrInvalidTransaction, i)
		}
		if item.Price.IsNegative() {
			return nil, fmt.Errorf("%w: item %d has negative price", ErrInvalidTransaction, i)
		}
		if !item.Price.IsInteger() {
			return nil, fmt.Errorf("%w: item %d price %s is not whole rupiah", ErrInvalidTransaction, i, item.Price.String())
		}

		lineTotal := item.Price.Mul(decimal.NewFromInt(int64(item.Quantity)))
		subtotal = subtotal.Add(lineTotal)

		trx.Items = append(trx.Items, TransactionItem{
			ID:            uuid.New(),
			TransactionID: trx.ID,
			ProductID:     item.ProductID,
			ProductName:   item.Name,
			Price:         item.Price,
			Quantity:      item.Quantity,
			Subtotal:      lineTotal,
		})
	}

	trx.Subtotal = subtotal
	trx.GrandTotal = subtotal.Add(shippingCost)

	if paidAmount.LessThan(trx.GrandTotal) {
		return nil, fmt.Errorf("%w: paid amount %s is less than grand total %s",
			ErrInvalidTransaction, paidAmount.String(), trx.GrandTotal.String())
	}
	trx.ChangeAmount = paidAmount.Sub(trx.GrandTotal)

	return trx, nil
}

// ToReceipt converts the stored sale to whole rupiah receipt figures. Prices
// are rounded once per line and the totals are derived from the rounded
// figures, so rows stored with fractional amounts still print consistently.
func (t *Transaction) ToReceipt() *Receipt {
	items := make([]LineItem, 0, len(t.Items))
	var subtotal int64
	for _, item := range t.Items {
		price := item.Price.Round(0).IntPart()
		items = append(items, LineItem{
			Name:      item.ProductName,
			UnitPrice: price,
			Quantity:  item.Quantity,
		})
		subtotal += price * int64(item.Quantity)
	}

	shipping := t.ShippingCost.Round(0).IntPart()
	paid := t.PaidAmount.Round(0).IntPart()
	grandTotal := subtotal + shipping

	return &Receipt{
		TransactionNumber: t.TransactionNumber,
		Items:             items,
		Subtotal:          subtotal,
		ShippingCost:      shipping,
		GrandTotal:        grandTotal,
		PaidAmount:        paid,
		ChangeAmount:      paid - grandTotal,
	}
}

// TransactionPeriod limits a history listing to recent sales
type TransactionPeriod string

const (
	PeriodAll   TransactionPeriod = "all"
	PeriodToday TransactionPeriod = "today"
	PeriodWeek  TransactionPeriod = "week"
	PeriodMonth TransactionPeriod = "month"
)

// ParseTransactionPeriod accepts an empty value as all
func ParseTransactionPeriod(s string) (TransactionPeriod, error) {
	switch TransactionPeriod(s) {
	case "", PeriodAll:
		return PeriodAll, nil
	case PeriodToday, PeriodWeek, PeriodMonth:
		return TransactionPeriod(s), nil
	default:
		return "", fmt.Errorf("unknown period %q (use all|today|week|month)", s)
	}
}

// Since returns the start of the period relative to now in loc, or nil for all
func (p TransactionPeriod) Since(now time.Time, loc *time.Location) *time.Time {
	if loc == nil {
		loc = time.Local
	}
	local := now.In(loc)
	today := time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, loc)

	var since time.Time
	switch p {
	case PeriodToday:
		since = today
	case PeriodWeek:
		since = today.AddDate(0, 0, -7)
	case PeriodMonth:
		since = today.AddDate(0, 0, -30)
	default:
		return nil
	}
	return &since
}

// TransactionStats summarises sales in a period
type TransactionStats struct {
	Period  TransactionPeriod `json:"period"`
	Count   int               `json:"count"`
	Total   decimal.Decimal   `json:"total"`
	Average decimal.Decimal   `json:"average"`
}
