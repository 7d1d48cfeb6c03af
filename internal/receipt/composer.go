// internal/receipt/composer.go
package receipt

import (
	"time"

	"pos-service/internal/driver/escpos"
	"pos-service/internal/model"
)

// DefaultTimestampLayout prints the sale time as day/month/year hour:minute:second
const DefaultTimestampLayout = "02/01/2006 15:04:05"

const (
	columnHeader  = "Item                Qty   Harga"
	labelNumber   = "No: "
	labelSubtotal = "Subtotal:"
	labelShipping = "Ongkir:"
	labelTotal    = "TOTAL:"
	labelPaid     = "BAYAR:"
	labelChange   = "KEMBALI:"
)

// Composer turns a receipt into the ESC/POS stream for the thermal printer
type Composer struct {
	store           model.StoreProfile
	formatter       *LineFormatter
	timestampLayout string
	location        *time.Location
}

// ComposerOption customises a Composer
type ComposerOption func(*Composer)

// WithTimestampLayout overrides the timestamp layout
func WithTimestampLayout(layout string) ComposerOption {
	return func(c *Composer) {
		if layout != "" {
			c.timestampLayout = layout
		}
	}
}

// WithLocation renders timestamps in loc
func WithLocation(loc *time.Location) ComposerOption {
	return func(c *Composer) {
		if loc != nil {
			c.location = loc
		}
	}
}

// NewComposer creates a receipt composer for the given store and formatter
func NewComposer(store model.StoreProfile, formatter *LineFormatter, opts ...ComposerOption) *Composer {
	if formatter == nil {
		formatter = NewLineFormatter(DefaultWidth)
	}

	c := &Composer{
		store:           store,
		formatter:       formatter,
		timestampLayout: DefaultTimestampLayout,
		location:        time.Local,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Store returns the store profile printed on receipts
func (c *Composer) Store() model.StoreProfile {
	return c.store
}

// FormatTimestamp renders at the way it appears on the receipt
func (c *Composer) FormatTimestamp(at time.Time) string {
	return at.In(c.location).Format(c.timestampLayout)
}

// Compose returns the full byte stream for r printed at the given time. The
// same receipt and time always produce identical bytes.
func (c *Composer) Compose(r *model.Receipt, at time.Time) []byte {
	return c.ComposeDocument(r, at).Bytes()
}

// ComposeDocument builds the receipt document, keeping the text shadow
func (c *Composer) ComposeDocument(r *model.Receipt, at time.Time) *escpos.Document {
	doc := escpos.NewDocument()

	c.writeHeader(doc)
	c.writeTransactionInfo(doc, r, at)
	c.writeItems(doc, r.Items)
	c.writeTotals(doc, r)
	c.writePayment(doc, r)
	c.writeFooter(doc)

	return doc
}

// writeHeader prints the store name and address block
func (c *Composer) writeHeader(doc *escpos.Document) {
	doc.Init().
		Align(escpos.Center).
		Scale(escpos.ScaleDoubleBoth).
		Bold(true).
		Text(c.store.Name).
		Scale(escpos.ScaleNormal).
		Bold(false)

	for _, line := range c.store.AddressLines {
		doc.Text(line)
	}
	doc.LineFeed()
}

// writeTransactionInfo prints the transaction number, timestamp and column header
func (c *Composer) writeTransactionInfo(doc *escpos.Document, r *model.Receipt, at time.Time) {
	f := c.formatter

	doc.Align(escpos.Left).
		Text(f.LightSeparator()).
		Text(labelNumber + r.TransactionNumber).
		Text(c.FormatTimestamp(at)).
		Text(f.LightSeparator()).
		Text(columnHeader).
		Text(f.LightSeparator())
}

// writeItems prints two lines per item: name, then quantity and line total
func (c *Composer) writeItems(doc *escpos.Document, items []model.LineItem) {
	f := c.formatter

	for _, item := range items {
		doc.Text(f.ItemName(item.Name))
		doc.Text(f.QuantityPrice(item.Quantity, item.LineTotal()))
	}
}

// writeTotals prints subtotal, optional shipping and the emphasised grand total
func (c *Composer) writeTotals(doc *escpos.Document, r *model.Receipt) {
	f := c.formatter

	doc.Text(f.LightSeparator()).
		Text(f.Amount(labelSubtotal, r.Subtotal))

	if r.ShippingCost > 0 {
		doc.Text(f.Amount(labelShipping, r.ShippingCost))
	}

	doc.Text(f.HeavySeparator()).
		Bold(true).
		Text(f.Amount(labelTotal, r.GrandTotal)).
		Bold(false).
		Text(f.HeavySeparator())
}

// writePayment prints the paid amount and change
func (c *Composer) writePayment(doc *escpos.Document, r *model.Receipt) {
	f := c.formatter

	doc.Text(f.Amount(labelPaid, r.PaidAmount)).
		Text(f.Amount(labelChange, r.ChangeAmount)).
		Text(f.LightSeparator()).
		LineFeed()
}

// writeFooter prints contact details, the feedback message and the cut
func (c *Composer) writeFooter(doc *escpos.Document) {
	doc.Align(escpos.Center).
		Text(c.store.PhoneNumber).
		LineFeed()

	for _, line := range c.store.FeedbackLines {
		doc.Text(line)
	}

	doc.LineFeed().
		Bold(true).
		Write(c.store.ClosingLine).
		Bold(false).
		Feed(3).
		Cut()
}
