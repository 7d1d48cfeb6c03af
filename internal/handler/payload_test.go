package handler

import (
	"encoding/json"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pos-service/internal/model"
)

func decodeReceipt(t *testing.T, body string) (*model.Receipt, error) {
	t.Helper()
	var payload ReceiptPayload
	require.NoError(t, json.Unmarshal([]byte(body), &payload))
	return payload.ToReceipt()
}

func TestReceiptPayload_FieldAliases(t *testing.T) {
	bodies := map[string]string{
		"canonical": `{"transaction_number": "TRX1", "items": [{"name": "Kue", "unit_price": 12500, "quantity": 2}], "shipping_cost": 5000, "paid": 30000}`,
		"snake":     `{"transaction_no": "TRX1", "items": [{"name": "Kue", "price": 12500, "qty": 2}], "shipping_cost": 5000, "paid_amount": 30000}`,
		"camel":     `{"transactionNo": "TRX1", "items": [{"name": "Kue", "price": "12500", "qty": 2}], "shippingCost": "5000", "paidAmount": "30000"}`,
	}

	for name, body := range bodies {
		t.Run(name, func(t *testing.T) {
			r, err := decodeReceipt(t, body)
			require.NoError(t, err)

			assert.Equal(t, "TRX1", r.TransactionNumber)
			require.Len(t, r.Items, 1)
			assert.Equal(t, int64(12500), r.Items[0].UnitPrice)
			assert.Equal(t, 2, r.Items[0].Quantity)
			assert.Equal(t, int64(25000), r.Subtotal)
			assert.Equal(t, int64(30000), r.GrandTotal)
			assert.Equal(t, int64(0), r.ChangeAmount)
			assert.NoError(t, r.Validate())
		})
	}
}

func TestReceiptPayload_ExplicitTotalsAreKept(t *testing.T) {
	r, err := decodeReceipt(t, `{
		"transaction_number": "TRX1",
		"items": [{"name": "Kue", "price": 10000, "qty": 1}],
		"total": 10000,
		"grand_total": 12000,
		"paid": 20000,
		"change": 8000
	}`)
	require.NoError(t, err)

	assert.Equal(t, int64(12000), r.GrandTotal)
	assert.ErrorIs(t, r.Validate(), model.ErrInvalidReceipt)
}

func TestReceiptPayload_MissingFields(t *testing.T) {
	_, err := decodeReceipt(t, `{"items": [], "paid": 1}`)
	assert.ErrorIs(t, err, model.ErrInvalidReceipt)

	_, err = decodeReceipt(t, `{"transaction_number": "TRX1", "items": []}`)
	assert.ErrorIs(t, err, model.ErrInvalidReceipt)

	_, err = decodeReceipt(t, `{"transaction_number": "TRX1", "items": [{"name": "Kue", "qty": 1}], "paid": 1}`)
	assert.ErrorIs(t, err, model.ErrInvalidReceipt)
}

func TestCheckoutPayload_ToRequest(t *testing.T) {
	productID := uuid.New()
	body := `{
		"items": [
			{"product_id": "` + productID.String() + `", "qty": 3},
			{"name": "Teh", "price": "4000.75", "quantity": 1}
		],
		"shippingCost": 2000,
		"paidAmount": 100000,
		"print": false
	}`

	var payload CheckoutPayload
	require.NoError(t, json.Unmarshal([]byte(body), &payload))
	req, err := payload.ToRequest()
	require.NoError(t, err)

	assert.True(t, req.SkipPrint)
	assert.Equal(t, int64(2000), req.ShippingCost)
	assert.Equal(t, int64(100000), req.PaidAmount)
	require.Len(t, req.Items, 2)
	assert.Equal(t, productID, *req.Items[0].ProductID)
	assert.Equal(t, 3, req.Items[0].Quantity)
	assert.Equal(t, int64(4000), req.Items[1].Price)

	payload = CheckoutPayload{Items: []CheckoutItemPayload{{Name: "Teh"}}}
	_, err = payload.ToRequest()
	assert.ErrorIs(t, err, model.ErrInvalidTransaction)
}
