package receipt

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pos-service/internal/model"
)

func testStore() model.StoreProfile {
	return model.StoreProfile{
		Name:          "BAKE BLISS",
		AddressLines:  []string{"Jl. Ahmad Yani No. 24A", "Magelang"},
		PhoneNumber:   "0881-0124-64949",
		FeedbackLines: []string{"We love to hear your feedback", "(the sweet and the bitter one)"},
		ClosingLine:   "Thank you!",
	}
}

func testComposer() *Composer {
	return NewComposer(testStore(), NewLineFormatter(DefaultWidth), WithLocation(time.UTC))
}

func testReceipt(shipping int64) *model.Receipt {
	items := []model.LineItem{{Name: "Brownies Coklat", UnitPrice: 25000, Quantity: 2}}
	return model.NewReceipt("TRX1736937045000", items, shipping, 100000)
}

var testTime = time.Date(2025, time.January, 15, 10, 30, 45, 0, time.UTC)

func findLine(lines []string, prefix string) (string, bool) {
	for _, line := range lines {
		if strings.HasPrefix(line, prefix) {
			return line, true
		}
	}
	return "", false
}

func TestComposer_TotalsScenario(t *testing.T) {
	doc := testComposer().ComposeDocument(testReceipt(10000), testTime)
	lines := doc.Lines()

	total, ok := findLine(lines, "TOTAL:")
	require.True(t, ok)
	assert.True(t, strings.HasSuffix(total, "Rp60.000"))
	assert.Len(t, total, DefaultWidth)

	change, ok := findLine(lines, "KEMBALI:")
	require.True(t, ok)
	assert.True(t, strings.HasSuffix(change, "Rp40.000"))

	shipping, ok := findLine(lines, "Ongkir:")
	require.True(t, ok)
	assert.True(t, strings.HasSuffix(shipping, "Rp10.000"))

	paid, ok := findLine(lines, "BAYAR:")
	require.True(t, ok)
	assert.True(t, strings.HasSuffix(paid, "Rp100.000"))
}

func TestComposer_NoShippingLine(t *testing.T) {
	doc := testComposer().ComposeDocument(testReceipt(0), testTime)

	_, ok := findLine(doc.Lines(), "Ongkir:")
	assert.False(t, ok)
	assert.NotContains(t, string(doc.Bytes()), "Ongkir")

	total, ok := findLine(doc.Lines(), "TOTAL:")
	require.True(t, ok)
	assert.True(t, strings.HasSuffix(total, "Rp50.000"))
}

func TestComposer_Deterministic(t *testing.T) {
	c := testComposer()
	r := testReceipt(10000)

	first := c.Compose(r, testTime)
	second := c.Compose(r, testTime)

	assert.True(t, bytes.Equal(first, second))
}

func TestComposer_HeaderAndFooterBytes(t *testing.T) {
	out := testComposer().Compose(testReceipt(0), testTime)

	header := []byte{0x1B, 0x40, 0x1B, 0x61, 0x01, 0x1D, 0x21, 0x11, 0x1B, 0x45, 0x01}
	header = append(header, "BAKE BLISS"...)
	header = append(header, 0x0A, 0x1D, 0x21, 0x00, 0x1B, 0x45, 0x00)
	assert.True(t, bytes.HasPrefix(out, header))

	footer := []byte{0x1B, 0x45, 0x01}
	footer = append(footer, "Thank you!"...)
	footer = append(footer, 0x1B, 0x45, 0x00, 0x0A, 0x0A, 0x0A, 0x1D, 0x56, 0x00)
	assert.True(t, bytes.HasSuffix(out, footer))

	totalBlock := []byte{0x1B, 0x45, 0x01}
	totalBlock = append(totalBlock, "TOTAL:"...)
	assert.True(t, bytes.Contains(out, totalBlock))
}

func TestComposer_TransactionInfo(t *testing.T) {
	lines := testComposer().ComposeDocument(testReceipt(0), testTime).Lines()

	assert.Contains(t, lines, "No: TRX1736937045000")
	assert.Contains(t, lines, "15/01/2025 10:30:45")
	assert.Contains(t, lines, "Item                Qty   Harga")
	assert.Contains(t, lines, "Brownies Coklat")
	assert.Contains(t, lines, "  2"+strings.Repeat(" ", 21)+"Rp50.000")
}

func TestComposer_TimestampLocation(t *testing.T) {
	jakarta := time.FixedZone("WIB", 7*60*60)
	c := NewComposer(testStore(), nil, WithLocation(jakarta))

	assert.Equal(t, "15/01/2025 17:30:45", c.FormatTimestamp(testTime))
}

func TestComposer_ZeroItems(t *testing.T) {
	r := model.NewReceipt("TRX1", nil, 0, 0)

	var out []byte
	require.NotPanics(t, func() {
		out = testComposer().Compose(r, testTime)
	})
	assert.True(t, bytes.HasSuffix(out, []byte{0x1D, 0x56, 0x00}))
}

func TestComposer_TruncatesLongNames(t *testing.T) {
	items := []model.LineItem{{Name: "Roti Sobek Keju Coklat Susu Spesial Jumbo", UnitPrice: 15000, Quantity: 1}}
	r := model.NewReceipt("TRX2", items, 0, 15000)

	lines := testComposer().ComposeDocument(r, testTime).Lines()

	name, ok := findLine(lines, "Roti Sobek")
	require.True(t, ok)
	assert.Len(t, name, DefaultWidth)
	assert.True(t, strings.HasSuffix(name, "..."))
}
