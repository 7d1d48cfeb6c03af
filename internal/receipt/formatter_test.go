package receipt

import (
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
)

func TestFormatCurrency(t *testing.T) {
	tests := []struct {
		name   string
		amount int64
		want   string
	}{
		{name: "zero", amount: 0, want: "Rp0"},
		{name: "below one thousand", amount: 999, want: "Rp999"},
		{name: "one thousand", amount: 1000, want: "Rp1.000"},
		{name: "six digits", amount: 100000, want: "Rp100.000"},
		{name: "millions", amount: 1234567, want: "Rp1.234.567"},
		{name: "negative", amount: -1000, want: "Rp-1.000"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, FormatCurrency(tt.amount))
		})
	}
}

func TestLineFormatter_LabelValue(t *testing.T) {
	f := NewLineFormatter(DefaultWidth)

	t.Run("fits within width", func(t *testing.T) {
		line := f.Amount("TOTAL:", 60000)

		assert.Equal(t, DefaultWidth, utf8.RuneCountInString(line))
		assert.True(t, strings.HasPrefix(line, "TOTAL:"))
		assert.True(t, strings.HasSuffix(line, "Rp60.000"))
	})

	t.Run("overflow keeps a single space", func(t *testing.T) {
		label := strings.Repeat("L", 28)
		line := f.LabelValue(label, "Rp1.000")

		assert.Equal(t, label+" Rp1.000", line)
	})
}

func TestLineFormatter_ItemName(t *testing.T) {
	f := NewLineFormatter(DefaultWidth)

	short := "Brownies Coklat"
	assert.Equal(t, short, f.ItemName(short))

	exact := strings.Repeat("a", DefaultWidth)
	assert.Equal(t, exact, f.ItemName(exact))

	long := "Roti Sobek Keju Coklat Susu Spesial Jumbo"
	got := f.ItemName(long)
	assert.Equal(t, DefaultWidth, utf8.RuneCountInString(got))
	assert.True(t, strings.HasSuffix(got, "..."))
	assert.True(t, strings.HasPrefix(long, strings.TrimSuffix(got, "...")))
}

func TestLineFormatter_QuantityPrice(t *testing.T) {
	f := NewLineFormatter(DefaultWidth)

	line := f.QuantityPrice(2, 50000)

	assert.Equal(t, "  2"+strings.Repeat(" ", 21)+"Rp50.000", line)
}

func TestLineFormatter_Separators(t *testing.T) {
	f := NewLineFormatter(0)

	assert.Equal(t, DefaultWidth, f.Width())
	assert.Equal(t, strings.Repeat("-", DefaultWidth), f.LightSeparator())
	assert.Equal(t, strings.Repeat("=", DefaultWidth), f.HeavySeparator())
}
