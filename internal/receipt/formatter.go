// internal/receipt/formatter.go
package receipt

import (
	"strconv"
	"strings"
	"unicode/utf8"
)

// DefaultWidth is the column count of a 58mm thermal printer in font A
const DefaultWidth = 32

const (
	currencyPrefix = "Rp"
	groupSeparator = '.'
	ellipsis       = "..."
	quantityIndent = "  "
	minimumGap     = 1
	lightRule      = '-'
	heavyRule      = '='
)

// LineFormatter renders fixed width text lines for the receipt body
type LineFormatter struct {
	width int
}

// NewLineFormatter creates a formatter for the given column width
func NewLineFormatter(width int) *LineFormatter {
	if width <= len(ellipsis) {
		width = DefaultWidth
	}
	return &LineFormatter{width: width}
}

// Width returns the configured column width
func (f *LineFormatter) Width() int {
	return f.width
}

// Separator returns char repeated across the full width
func (f *LineFormatter) Separator(char rune) string {
	return strings.Repeat(string(char), f.width)
}

// LightSeparator returns the dashed divider
func (f *LineFormatter) LightSeparator() string {
	return f.Separator(lightRule)
}

// HeavySeparator returns the double divider used around the grand total
func (f *LineFormatter) HeavySeparator() string {
	return f.Separator(heavyRule)
}

// LabelValue left-aligns label and right-aligns value within the width. When
// both do not fit, a single space separates them and the line overflows.
func (f *LineFormatter) LabelValue(label, value string) string {
	padding := f.width - utf8.RuneCountInString(label) - utf8.RuneCountInString(value)
	if padding < minimumGap {
		padding = minimumGap
	}
	return label + strings.Repeat(" ", padding) + value
}

// Amount renders a label/value line with the value formatted as currency
func (f *LineFormatter) Amount(label string, amount int64) string {
	return f.LabelValue(label, FormatCurrency(amount))
}

// ItemName truncates names wider than the column with a trailing ellipsis
func (f *LineFormatter) ItemName(name string) string {
	if utf8.RuneCountInString(name) <= f.width {
		return name
	}
	runes := []rune(name)
	return string(runes[:f.width-len(ellipsis)]) + ellipsis
}

// QuantityPrice renders the second line of an item: indented quantity on the
// left, line total on the right.
func (f *LineFormatter) QuantityPrice(quantity int, lineTotal int64) string {
	return f.LabelValue(quantityIndent+strconv.Itoa(quantity), FormatCurrency(lineTotal))
}

// FormatCurrency renders a whole rupiah amount as "Rp1.234.567". Digits are
// grouped by hand so the output does not depend on the host locale.
func FormatCurrency(amount int64) string {
	negative := amount < 0
	digits := strconv.FormatInt(amount, 10)
	if negative {
		digits = digits[1:]
	}

	var b strings.Builder
	b.Grow(len(currencyPrefix) + len(digits) + len(digits)/3 + 1)
	b.WriteString(currencyPrefix)
	if negative {
		b.WriteByte('-')
	}

	lead := len(digits) % 3
	if lead == 0 {
		lead = 3
	}
	b.WriteString(digits[:lead])
	for i := lead; i < len(digits); i += 3 {
		b.WriteByte(groupSeparator)
		b.WriteString(digits[i : i+3])
	}

	return b.String()
}
