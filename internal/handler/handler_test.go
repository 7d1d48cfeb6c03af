package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"pos-service/internal/config"
	"pos-service/internal/discovery"
	"pos-service/internal/model"
	"pos-service/internal/receipt"
	"pos-service/internal/repository"
	"pos-service/internal/service"
	"pos-service/pkg/driver"
)

type stubTransport struct {
	mu        sync.Mutex
	connected bool
	deviceID  string
	sent      int
}

func (s *stubTransport) IsSupported() bool { return true }

func (s *stubTransport) Connect(ctx context.Context, deviceID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if deviceID == "" {
		deviceID = "66:22:B3:0A:11:7F"
	}
	s.connected, s.deviceID = true, deviceID
	return nil
}

func (s *stubTransport) Reconnect(ctx context.Context, deviceID string) error {
	return s.Connect(ctx, deviceID)
}

func (s *stubTransport) Disconnect(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.connected, s.deviceID = false, ""
	return nil
}

func (s *stubTransport) IsConnected() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.connected
}

func (s *stubTransport) DeviceID() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.deviceID
}

func (s *stubTransport) ConnectionType() model.ConnectionType { return model.ConnectionTypeBluetooth }

func (s *stubTransport) Send(ctx context.Context, data []byte) (*driver.SendResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sent++
	return &driver.SendResult{DeviceID: s.deviceID, Bytes: len(data), Chunks: (len(data) + 255) / 256}, nil
}

func (s *stubTransport) GetHealthMetrics() *driver.HealthMetrics { return &driver.HealthMetrics{} }

func (s *stubTransport) SetEventHandler(handler driver.EventHandler) {}

type apiFixture struct {
	router    *gin.Engine
	transport *stubTransport
	printer   *service.PrinterService
	websocket *WebSocketHandler
}

func newAPIFixture(t *testing.T) *apiFixture {
	t.Helper()
	gin.SetMode(gin.TestMode)
	logger := zap.NewNop()

	store := model.StoreProfile{Name: "Toko Roti Sejahtera", PhoneNumber: "0812-3456-7890", ClosingLine: "Thank you!"}
	composer := receipt.NewComposer(store, receipt.NewLineFormatter(32), receipt.WithLocation(time.UTC))
	renderer, err := receipt.NewHTMLRenderer("", time.UTC)
	require.NoError(t, err)

	transport := &stubTransport{}
	jobs := repository.NewMemoryPrintJobRepository()
	products := repository.NewMemoryProductRepository()
	transactions := repository.NewMemoryTransactionRepository()

	printer := service.NewPrinterService(transport, composer, repository.NewMemoryPairingRepository(), jobs, logger)
	receipts := NewReceiptHandler(renderer, store, logger)

	cfg := &config.Config{App: config.AppConfig{Name: "pos-service", Version: "test"}}

	websocket := NewWebSocketHandler(printer, NewEventBus(logger), nil, logger)
	t.Cleanup(websocket.Close)

	router := gin.New()
	NewHealthHandler(nil, printer, websocket, cfg, logger).RegisterRoutes(router)
	websocket.RegisterRoutes(router.Group("/ws"))
	api := router.Group("/api/v1")
	NewPrinterHandler(printer, service.NewDiscoveryService(discovery.NewScannerManager(logger), time.Second, logger), logger).RegisterRoutes(api)
	NewJobHandler(service.NewPrintJobService(jobs, logger), logger).RegisterRoutes(api)
	receipts.RegisterRoutes(api)
	NewProductHandler(service.NewProductService(products, logger), logger).RegisterRoutes(api)
	NewTransactionHandler(service.NewCheckoutService(transactions, products, printer, time.UTC, logger), receipts, logger).RegisterRoutes(api)

	return &apiFixture{router: router, transport: transport, printer: printer, websocket: websocket}
}

type apiResponse struct {
	Success bool            `json:"success"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
	Error   *struct {
		Code string `json:"code"`
	} `json:"error"`
}

func (f *apiFixture) do(t *testing.T, method, path, body string) (*httptest.ResponseRecorder, apiResponse) {
	t.Helper()

	var reader *bytes.Reader
	if body != "" {
		reader = bytes.NewReader([]byte(body))
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}

	w := httptest.NewRecorder()
	f.router.ServeHTTP(w, req)

	var resp apiResponse
	if strings.HasPrefix(w.Header().Get("Content-Type"), "application/json") {
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	}
	return w, resp
}

const legacyReceipt = `{
	"transactionNo": "TRX1709649015000",
	"items": [{"name": "Brownies Coklat", "price": "25000", "qty": 2}],
	"shippingCost": 10000,
	"paidAmount": 100000
}`

func TestPrinterHandler_PrintRequiresConnection(t *testing.T) {
	f := newAPIFixture(t)

	w, resp := f.do(t, http.MethodPost, "/api/v1/printer/print", legacyReceipt)
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	require.NotNil(t, resp.Error)
	assert.Equal(t, CodePrinterNotConnected, resp.Error.Code)
	assert.Zero(t, f.transport.sent)

	w, resp = f.do(t, http.MethodGet, "/api/v1/printer/jobs?status=REJECTED", "")
	assert.Equal(t, http.StatusOK, w.Code)
	var listed struct {
		Jobs       []model.PrintJob         `json:"jobs"`
		Pagination service.PaginationResult `json:"pagination"`
	}
	require.NoError(t, json.Unmarshal(resp.Data, &listed))
	require.Len(t, listed.Jobs, 1)
	assert.Equal(t, "TRX1709649015000", listed.Jobs[0].TransactionNumber)
	assert.Equal(t, 1, listed.Pagination.Total)
}

func TestPrinterHandler_ConnectAndPrint(t *testing.T) {
	f := newAPIFixture(t)

	w, resp := f.do(t, http.MethodPost, "/api/v1/printer/connect", `{"device_id": "AA:BB:CC:DD:EE:FF"}`)
	require.Equal(t, http.StatusOK, w.Code)
	var status service.PrinterStatus
	require.NoError(t, json.Unmarshal(resp.Data, &status))
	assert.True(t, status.Connected)
	assert.Equal(t, "AA:BB:CC:DD:EE:FF", status.DeviceID)

	w, resp = f.do(t, http.MethodPost, "/api/v1/printer/print", legacyReceipt)
	require.Equal(t, http.StatusOK, w.Code)
	var result service.PrintResult
	require.NoError(t, json.Unmarshal(resp.Data, &result))
	assert.Equal(t, "TRX1709649015000", result.TransactionNumber)
	assert.Positive(t, result.Bytes)
	assert.Equal(t, 1, f.transport.sent)

	w, _ = f.do(t, http.MethodPost, "/api/v1/printer/disconnect", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.False(t, f.printer.IsConnected())

	w, _ = f.do(t, http.MethodPost, "/api/v1/printer/auto-connect", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "AA:BB:CC:DD:EE:FF", f.transport.DeviceID())
}

func TestPrinterHandler_InvalidReceipt(t *testing.T) {
	f := newAPIFixture(t)
	f.do(t, http.MethodPost, "/api/v1/printer/connect", "")

	w, resp := f.do(t, http.MethodPost, "/api/v1/printer/print", `{"transaction_number": "TRX1", "items": []}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, CodeInvalidReceipt, resp.Error.Code)

	underpaid := `{"transaction_number": "TRX1", "items": [{"name": "Donat", "unit_price": 5000, "quantity": 4}], "paid": 10000}`
	w, resp = f.do(t, http.MethodPost, "/api/v1/printer/print", underpaid)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, CodeInvalidReceipt, resp.Error.Code)
	assert.Zero(t, f.transport.sent)
}

func TestPrinterHandler_Preview(t *testing.T) {
	f := newAPIFixture(t)

	w, resp := f.do(t, http.MethodPost, "/api/v1/printer/preview", legacyReceipt)
	require.Equal(t, http.StatusOK, w.Code)

	var preview service.PreviewResult
	require.NoError(t, json.Unmarshal(resp.Data, &preview))
	assert.True(t, strings.HasPrefix(preview.Hex, "1b40"))
	assert.True(t, strings.HasSuffix(preview.Hex, "1d5600"))
	assert.Contains(t, preview.Lines, "No: TRX1709649015000")
	assert.Zero(t, f.transport.sent)
}

func TestPrinterHandler_ScanRejectsUnknownType(t *testing.T) {
	f := newAPIFixture(t)

	w, _ := f.do(t, http.MethodGet, "/api/v1/printer/scan?type=CARRIER_PIGEON", "")
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w, _ = f.do(t, http.MethodGet, "/api/v1/printer/scan", "")
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestReceiptHandler_RenderHTML(t *testing.T) {
	f := newAPIFixture(t)

	w, _ := f.do(t, http.MethodPost, "/api/v1/receipts/html", legacyReceipt)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Header().Get("Content-Type"), "text/html")
	assert.Contains(t, w.Body.String(), "No: TRX1709649015000")
	assert.Contains(t, w.Body.String(), "Rp60.000")
}

func TestTransactionHandler_CheckoutFallback(t *testing.T) {
	f := newAPIFixture(t)

	w, resp := f.do(t, http.MethodPost, "/api/v1/transactions", `{
		"items": [{"name": "Roti Tawar", "price": 15000, "quantity": 2}],
		"paid_amount": 50000
	}`)
	require.Equal(t, http.StatusCreated, w.Code)

	var result service.CheckoutResult
	require.NoError(t, json.Unmarshal(resp.Data, &result))
	assert.False(t, result.Printed)
	assert.NotEmpty(t, result.PrintError)
	require.NotEmpty(t, result.FallbackURL)
	assert.Equal(t, "20000", result.Transaction.ChangeAmount.String())

	w, _ = f.do(t, http.MethodGet, result.FallbackURL, "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), result.Transaction.TransactionNumber)

	w, resp = f.do(t, http.MethodGet, "/api/v1/transactions/stats?period=today", "")
	require.Equal(t, http.StatusOK, w.Code)
	var stats model.TransactionStats
	require.NoError(t, json.Unmarshal(resp.Data, &stats))
	assert.Equal(t, 1, stats.Count)

	w, _ = f.do(t, http.MethodGet, "/api/v1/transactions?period=yesterday", "")
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestTransactionHandler_CheckoutAndReprint(t *testing.T) {
	f := newAPIFixture(t)
	f.do(t, http.MethodPost, "/api/v1/printer/connect", "")

	w, resp := f.do(t, http.MethodPost, "/api/v1/transactions", `{
		"items": [{"name": "Donat", "price": 5000, "qty": 4}],
		"paid": 20000
	}`)
	require.Equal(t, http.StatusCreated, w.Code)
	var result service.CheckoutResult
	require.NoError(t, json.Unmarshal(resp.Data, &result))
	assert.True(t, result.Printed)

	w, resp = f.do(t, http.MethodPost, "/api/v1/transactions/"+result.Transaction.ID.String()+"/reprint", "")
	require.Equal(t, http.StatusOK, w.Code)
	var outcome service.PrintOutcome
	require.NoError(t, json.Unmarshal(resp.Data, &outcome))
	assert.True(t, outcome.Printed)
	assert.Equal(t, 2, f.transport.sent)

	w, _ = f.do(t, http.MethodPost, "/api/v1/transactions", `{"items": [{"name": "Donat", "price": 5000, "qty": 4}], "paid": 1000}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestProductHandler_CRUD(t *testing.T) {
	f := newAPIFixture(t)

	w, resp := f.do(t, http.MethodPost, "/api/v1/products", `{"name": "Croissant", "price": "18000"}`)
	require.Equal(t, http.StatusCreated, w.Code)
	var product model.Product
	require.NoError(t, json.Unmarshal(resp.Data, &product))
	assert.True(t, product.Active)

	path := "/api/v1/products/" + product.ID.String()
	w, _ = f.do(t, http.MethodPut, path, `{"name": "Croissant Keju", "price": 21000}`)
	assert.Equal(t, http.StatusOK, w.Code)

	w, _ = f.do(t, http.MethodDelete, path, "")
	assert.Equal(t, http.StatusOK, w.Code)

	w, resp = f.do(t, http.MethodGet, "/api/v1/products?active=true", "")
	require.Equal(t, http.StatusOK, w.Code)
	var active []model.Product
	require.NoError(t, json.Unmarshal(resp.Data, &active))
	assert.Empty(t, active)

	w, _ = f.do(t, http.MethodDelete, path+"?hard=true", "")
	assert.Equal(t, http.StatusOK, w.Code)

	w, resp = f.do(t, http.MethodGet, path, "")
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, CodeRecordNotFound, resp.Error.Code)

	w, _ = f.do(t, http.MethodGet, "/api/v1/products/not-a-uuid", "")
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestHealthHandler_WithoutDatabase(t *testing.T) {
	f := newAPIFixture(t)

	w, _ := f.do(t, http.MethodGet, "/health", "")
	require.Equal(t, http.StatusOK, w.Code)

	var health HealthResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &health))
	assert.Equal(t, "healthy", health.Status)
	assert.Equal(t, "disabled", health.Checks["database"].Status)
	assert.Equal(t, "degraded", health.Checks["printer"].Status)
	assert.Equal(t, "healthy", health.Checks["websocket"].Status)
	assert.EqualValues(t, 0, health.Checks["websocket"].Data["total_connections"])

	w, _ = f.do(t, http.MethodGet, "/ready", "")
	assert.Equal(t, http.StatusOK, w.Code)
}
