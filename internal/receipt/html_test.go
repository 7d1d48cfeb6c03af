package receipt

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHTMLRenderer_Render(t *testing.T) {
	h, err := NewHTMLRenderer("", time.UTC)
	require.NoError(t, err)

	out, err := h.Render(testReceipt(10000), testStore(), testTime)
	require.NoError(t, err)

	page := string(out)
	assert.Contains(t, page, "<title>Nota - TRX1736937045000</title>")
	assert.Contains(t, page, "BAKE BLISS")
	assert.Contains(t, page, "15/01/2025 10:30:45")
	assert.Contains(t, page, "2x")
	assert.Contains(t, page, "Ongkir:")
	assert.Contains(t, page, "Rp60.000")
	assert.Contains(t, page, "Rp40.000")
	assert.Contains(t, page, "Thank you!")
}

func TestHTMLRenderer_OmitsShippingAndEscapes(t *testing.T) {
	h, err := NewHTMLRenderer("", time.UTC)
	require.NoError(t, err)

	r := testReceipt(0)
	r.Items[0].Name = "<b>Bolu</b>"

	out, err := h.Render(r, testStore(), testTime)
	require.NoError(t, err)

	page := string(out)
	assert.NotContains(t, page, "Ongkir:")
	assert.NotContains(t, page, "<b>Bolu</b>")
	assert.Contains(t, page, "&lt;b&gt;Bolu&lt;/b&gt;")
}
