// internal/model/receipt.go
package model

import (
	"errors"
	"fmt"
)

// ErrInvalidReceipt is returned when a receipt violates its payment invariants
var ErrInvalidReceipt = errors.New("invalid receipt")

// Receipt is the summary of one completed or historical sale. Amounts are
// whole rupiah.
type Receipt struct {
	TransactionNumber string     `json:"transaction_number"`
	Items             []LineItem `json:"items"`
	Subtotal          int64      `json:"subtotal"`
	ShippingCost      int64      `json:"shipping_cost"`
	GrandTotal        int64      `json:"grand_total"`
	PaidAmount        int64      `json:"paid_amount"`
	ChangeAmount      int64      `json:"change_amount"`
}

// LineItem is one product line on a receipt
type LineItem struct {
	Name      string `json:"name"`
	UnitPrice int64  `json:"unit_price"`
	Quantity  int    `json:"quantity"`
}

// LineTotal returns unit price times quantity
func (li LineItem) LineTotal() int64 {
	return li.UnitPrice * int64(li.Quantity)
}

// StoreProfile is the static store identity printed on every receipt
type StoreProfile struct {
	Name          string   `json:"name" mapstructure:"name"`
	AddressLines  []string `json:"address_lines" mapstructure:"address_lines"`
	PhoneNumber   string   `json:"phone_number" mapstructure:"phone"`
	FeedbackLines []string `json:"feedback_lines" mapstructure:"feedback_lines"`
	ClosingLine   string   `json:"closing_line" mapstructure:"closing_line"`
}

// NewReceipt builds a receipt from items and payment figures, deriving the
// subtotal, grand total and change.
func NewReceipt(transactionNumber string, items []LineItem, shippingCost, paidAmount int64) *Receipt {
	var subtotal int64
	for _, item := range items {
		subtotal += item.LineTotal()
	}

	grandTotal := subtotal + shippingCost

	return &Receipt{
		TransactionNumber: transactionNumber,
		Items:             items,
		Subtotal:          subtotal,
		ShippingCost:      shippingCost,
		GrandTotal:        grandTotal,
		PaidAmount:        paidAmount,
		ChangeAmount:      paidAmount - grandTotal,
	}
}

// Validate checks the totals and payment invariants. A receipt that fails
// validation must not be printed.
func (r *Receipt) Validate() error {
	if r == nil {
		return fmt.Errorf("%w: receipt is missing", ErrInvalidReceipt)
	}
	if r.ShippingCost < 0 {
		return fmt.Errorf("%w: shipping cost must not be negative", ErrInvalidReceipt)
	}
	if r.Subtotal < 0 {
		return fmt.Errorf("%w: subtotal must not be negative", ErrInvalidReceipt)
	}

	for i, item := range r.Items {
		if item.Quantity <= 0 {
			return fmt.Errorf("%w: item %d has non-positive quantity %d", ErrInvalidReceipt, i, item.Quantity)
		}
		if item.UnitPrice < 0 {
			return fmt.Errorf("%w: item %d has negative unit price", ErrInvalidReceipt, i)
		}
	}

	if r.GrandTotal != r.Subtotal+r.ShippingCost {
		return fmt.Errorf("%w: grand total %d does not equal subtotal %d plus shipping %d",
			ErrInvalidReceipt, r.GrandTotal, r.Subtotal, r.ShippingCost)
	}
	if r.PaidAmount < r.GrandTotal {
		return fmt.Errorf("%w: paid amount %d is less than grand total %d",
			ErrInvalidReceipt, r.PaidAmount, r.GrandTotal)
	}
	if r.ChangeAmount != r.PaidAmount-r.GrandTotal {
		return fmt.Errorf("%w: change %d does not equal paid %d minus grand total %d",
			ErrInvalidReceipt, r.ChangeAmount, r.PaidAmount, r.GrandTotal)
	}

	return nil
}
