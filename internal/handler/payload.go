// internal/handler/payload.go
package handler

import (
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"pos-service/internal/model"
	"pos-service/internal/service"
)

// Request bodies accept every field name the POS front end has used. Amounts
// decode from JSON numbers or numeric strings and are truncated to whole rupiah.

// ReceiptItemPayload is one receipt line in any accepted shape
type ReceiptItemPayload struct {
	Name      string           `json:"name"`
	UnitPrice *decimal.Decimal `json:"unit_price,omitempty"`
	Price     *decimal.Decimal `json:"price,omitempty"`
	Quantity  *int             `json:"quantity,omitempty"`
	Qty       *int             `json:"qty,omitempty"`
}

// ReceiptPayload is a print request in any accepted shape
type ReceiptPayload struct {
	TransactionNumber string               `json:"transaction_number"`
	TransactionNo     string               `json:"transaction_no,omitempty"`
	TransactionNoOld  string               `json:"transactionNo,omitempty"`
	Items             []ReceiptItemPayload `json:"items"`

	Subtotal          *decimal.Decimal `json:"subtotal,omitempty"`
	Total             *decimal.Decimal `json:"total,omitempty"`
	ShippingCost      *decimal.Decimal `json:"shipping_cost,omitempty"`
	ShippingCostCamel *decimal.Decimal `json:"shippingCost,omitempty"`
	GrandTotal        *decimal.Decimal `json:"grand_total,omitempty"`
	GrandTotalCamel   *decimal.Decimal `json:"grandTotal,omitempty"`
	Paid              *decimal.Decimal `json:"paid,omitempty"`
	PaidAmount        *decimal.Decimal `json:"paid_amount,omitempty"`
	PaidAmountCamel   *decimal.Decimal `json:"paidAmount,omitempty"`
	Change            *decimal.Decimal `json:"change,omitempty"`
	ChangeAmount      *decimal.Decimal `json:"change_amount,omitempty"`
	ChangeAmountCamel *decimal.Decimal `json:"changeAmount,omitempty"`
}

// ToReceipt normalizes the payload into the canonical receipt. Totals the
// payload omits are derived; totals it carries are kept so Validate can reject
// inconsistent input.
func (p *ReceiptPayload) ToReceipt() (*model.Receipt, error) {
	transactionNumber := firstString(p.TransactionNumber, p.TransactionNo, p.TransactionNoOld)
	if transactionNumber == "" {
		return nil, fmt.Errorf("%w: transaction_number is required", model.ErrInvalidReceipt)
	}

	paid := firstAmount(p.Paid, p.PaidAmount, p.PaidAmountCamel)
	if paid == nil {
		return nil, fmt.Errorf("%w: paid is required", model.ErrInvalidReceipt)
	}

	items := make([]model.LineItem, 0, len(p.Items))
	for i, item := range p.Items {
		price := firstAmount(item.UnitPrice, item.Price)
		if price == nil {
			return nil, fmt.Errorf("%w: item %d has no price", model.ErrInvalidReceipt, i)
		}
		quantity := firstInt(item.Quantity, item.Qty)
		if quantity == nil {
			return nil, fmt.Errorf("%w: item %d has no quantity", model.ErrInvalidReceipt, i)
		}
		items = append(items, model.LineItem{
			Name:      item.Name,
			UnitPrice: price.IntPart(),
			Quantity:  *quantity,
		})
	}

	var shipping int64
	if s := firstAmount(p.ShippingCost, p.ShippingCostCamel); s != nil {
		shipping = s.IntPart()
	}

	r := model.NewReceipt(transactionNumber, items, shipping, paid.IntPart())
	if v := firstAmount(p.Subtotal, p.Total); v != nil {
		r.Subtotal = v.IntPart()
	}
	if v := firstAmount(p.GrandTotal, p.GrandTotalCamel); v != nil {
		r.GrandTotal = v.IntPart()
	}
	if v := firstAmount(p.Change, p.ChangeAmount, p.ChangeAmountCamel); v != nil {
		r.ChangeAmount = v.IntPart()
	}
	return r, nil
}

// CheckoutItemPayload is one cart line in any accepted shape
type CheckoutItemPayload struct {
	ProductID *uuid.UUID       `json:"product_id,omitempty"`
	Name      string           `json:"name"`
	Price     *decimal.Decimal `json:"price,omitempty"`
	Quantity  *int             `json:"quantity,omitempty"`
	Qty       *int             `json:"qty,omitempty"`
}

// CheckoutPayload is a checkout request in any accepted shape
type CheckoutPayload struct {
	Items             []CheckoutItemPayload `json:"items"`
	ShippingCost      *decimal.Decimal      `json:"shipping_cost,omitempty"`
	ShippingCostCamel *decimal.Decimal      `json:"shippingCost,omitempty"`
	Paid              *decimal.Decimal      `json:"paid,omitempty"`
	PaidAmount        *decimal.Decimal      `json:"paid_amount,omitempty"`
	PaidAmountCamel   *decimal.Decimal      `json:"paidAmount,omitempty"`
	Print             *bool                 `json:"print,omitempty"`
}

// ToRequest normalizes the payload into a checkout request
func (p *CheckoutPayload) ToRequest() (*service.CheckoutRequest, error) {
	paid := firstAmount(p.Paid, p.PaidAmount, p.PaidAmountCamel)
	if paid == nil {
		return nil, fmt.Errorf("%w: paid is required", model.ErrInvalidTransaction)
	}

	req := &service.CheckoutRequest{
		Items:      make([]service.CheckoutItem, 0, len(p.Items)),
		PaidAmount: paid.IntPart(),
		SkipPrint:  p.Print != nil && !*p.Print,
	}
	if s := firstAmount(p.ShippingCost, p.ShippingCostCamel); s != nil {
		req.ShippingCost = s.IntPart()
	}

	for i, item := range p.Items {
		quantity := firstInt(item.Quantity, item.Qty)
		if quantity == nil {
			return nil, fmt.Errorf("%w: item %d has no quantity", model.ErrInvalidTransaction, i)
		}
		line := service.CheckoutItem{
			ProductID: item.ProductID,
			Name:      item.Name,
			Quantity:  *quantity,
		}
		if item.Price != nil {
			line.Price = item.Price.IntPart()
		} else if item.ProductID == nil {
			return nil, fmt.Errorf("%w: item %d has no price", model.ErrInvalidTransaction, i)
		}
		req.Items = append(req.Items, line)
	}
	return req, nil
}

func firstString(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

func firstAmount(values ...*decimal.Decimal) *decimal.Decimal {
	for _, v := range values {
		if v != nil {
			return v
		}
	}
	return nil
}

func firstInt(values ...*int) *int {
	for _, v := range values {
		if v != nil {
			return v
		}
	}
	return nil
}
