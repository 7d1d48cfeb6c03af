// internal/receipt/html.go
package receipt

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"strings"
	"time"

	"pos-service/internal/model"
)

//go:embed templates/receipt.html.tmpl
var templateFS embed.FS

type htmlItem struct {
	Name      string
	Quantity  int
	LineTotal string
}

type htmlView struct {
	Store             model.StoreProfile
	TransactionNumber string
	Timestamp         string
	Items             []htmlItem
	Subtotal          string
	ShowShipping      bool
	ShippingCost      string
	GrandTotal        string
	PaidAmount        string
	ChangeAmount      string
	Feedback          string
}

// HTMLRenderer renders the browser print-dialog fallback for a receipt
type HTMLRenderer struct {
	tmpl            *template.Template
	timestampLayout string
	location        *time.Location
}

// NewHTMLRenderer parses the embedded receipt template
func NewHTMLRenderer(timestampLayout string, loc *time.Location) (*HTMLRenderer, error) {
	tmpl, err := template.ParseFS(templateFS, "templates/receipt.html.tmpl")
	if err != nil {
		return nil, fmt.Errorf("failed to parse receipt template: %w", err)
	}

	if timestampLayout == "" {
		timestampLayout = DefaultTimestampLayout
	}
	if loc == nil {
		loc = time.Local
	}

	return &HTMLRenderer{
		tmpl:            tmpl,
		timestampLayout: timestampLayout,
		location:        loc,
	}, nil
}

// Render produces the HTML document for r
func (h *HTMLRenderer) Render(r *model.Receipt, store model.StoreProfile, at time.Time) ([]byte, error) {
	view := htmlView{
		Store:             store,
		TransactionNumber: r.TransactionNumber,
		Timestamp:         at.In(h.location).Format(h.timestampLayout),
		Items:             make([]htmlItem, 0, len(r.Items)),
		Subtotal:          FormatCurrency(r.Subtotal),
		ShowShipping:      r.ShippingCost > 0,
		ShippingCost:      FormatCurrency(r.ShippingCost),
		GrandTotal:        FormatCurrency(r.GrandTotal),
		PaidAmount:        FormatCurrency(r.PaidAmount),
		ChangeAmount:      FormatCurrency(r.ChangeAmount),
		Feedback:          strings.Join(store.FeedbackLines, " "),
	}
	for _, item := range r.Items {
		view.Items = append(view.Items, htmlItem{
			Name:      item.Name,
			Quantity:  item.Quantity,
			LineTotal: FormatCurrency(item.LineTotal()),
		})
	}

	var buf bytes.Buffer
	if err := h.tmpl.ExecuteTemplate(&buf, "receipt.html.tmpl", view); err != nil {
		return nil, fmt.Errorf("failed to render receipt html: %w", err)
	}
	return buf.Bytes(), nil
}
