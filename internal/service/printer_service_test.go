package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"pos-service/internal/model"
	"pos-service/internal/receipt"
	"pos-service/internal/repository"
	"pos-service/pkg/driver"
)

type fakeTransport struct {
	mu          sync.Mutex
	supported   bool
	connected   bool
	deviceID    string
	discoverID  string
	connectErr  error
	sendErr     error
	sendBlock   chan struct{}
	sendStarted chan struct{}
	sent        [][]byte
	connects    []string
	reconnects  []string
	disconnects int
}

func newFakeTransport() *fakeTransport {
	return &fakeTransport{supported: true, discoverID: "AA:BB:CC:DD:EE:FF"}
}

func (f *fakeTransport) IsSupported() bool { return f.supported }

func (f *fakeTransport) Connect(ctx context.Context, deviceID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.connects = append(f.connects, deviceID)
	if f.connectErr != nil {
		return f.connectErr
	}
	f.connected = true
	f.deviceID = deviceID
	if deviceID == "" {
		f.deviceID = f.discoverID
	}
	return nil
}

func (f *fakeTransport) Reconnect(ctx context.Context, deviceID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.reconnects = append(f.reconnects, deviceID)
	if f.connectErr != nil {
		return f.connectErr
	}
	f.connected = true
	f.deviceID = deviceID
	return nil
}

func (f *fakeTransport) Disconnect(ctx context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.disconnects++
	f.connected = false
	f.deviceID = ""
	return nil
}

func (f *fakeTransport) IsConnected() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.connected
}

func (f *fakeTransport) DeviceID() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.deviceID
}

func (f *fakeTransport) ConnectionType() model.ConnectionType {
	return model.ConnectionTypeBluetooth
}

func (f *fakeTransport) Send(ctx context.Context, data []byte) (*driver.SendResult, error) {
	if f.sendStarted != nil {
		close(f.sendStarted)
	}
	if f.sendBlock != nil {
		<-f.sendBlock
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	f.sent = append(f.sent, data)
	if f.sendErr != nil {
		return &driver.SendResult{DeviceID: f.deviceID, Bytes: 128, Chunks: 1}, f.sendErr
	}
	return &driver.SendResult{DeviceID: f.deviceID, Bytes: len(data), Chunks: (len(data) + 255) / 256}, nil
}

func (f *fakeTransport) GetHealthMetrics() *driver.HealthMetrics { return &driver.HealthMetrics{} }

func (f *fakeTransport) SetEventHandler(handler driver.EventHandler) {}

func (f *fakeTransport) sendCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.sent)
}

var fixedNow = time.Date(2024, 3, 5, 14, 30, 15, 0, time.UTC)

type printerFixture struct {
	transport *fakeTransport
	pairing   *repository.MemoryPairingRepository
	jobs      repository.PrintJobRepository
	service   *PrinterService
	events    []*model.PrinterEvent
	eventsMu  sync.Mutex
}

func newPrinterFixture(t *testing.T) *printerFixture {
	t.Helper()

	f := &printerFixture{
		transport: newFakeTransport(),
		pairing:   repository.NewMemoryPairingRepository(),
		jobs:      repository.NewMemoryPrintJobRepository(),
	}
	composer := receipt.NewComposer(model.StoreProfile{Name: "Bakery", PhoneNumber: "0812"}, nil, receipt.WithLocation(time.UTC))
	f.service = NewPrinterService(f.transport, composer, f.pairing, f.jobs, zap.NewNop(),
		WithClock(func() time.Time { return fixedNow }))
	f.service.SetEventListener(func(event *model.PrinterEvent) {
		f.eventsMu.Lock()
		defer f.eventsMu.Unlock()
		f.events = append(f.events, event)
	})
	return f
}

func (f *printerFixture) eventTypes() []model.EventType {
	f.eventsMu.Lock()
	defer f.eventsMu.Unlock()

	types := make([]model.EventType, 0, len(f.events))
	for _, e := range f.events {
		types = append(types, e.EventType)
	}
	return types
}

func (f *printerFixture) jobsWithStatus(t *testing.T, status model.PrintJobStatus) []*model.PrintJob {
	t.Helper()
	jobs, _, err := f.jobs.List(context.Background(), &repository.PrintJobFilter{Status: &status})
	require.NoError(t, err)
	return jobs
}

func sampleReceipt() *model.Receipt {
	return model.NewReceipt("TRX1709649015000", []model.LineItem{
		{Name: "Brownies Coklat", UnitPrice: 25000, Quantity: 2},
	}, 10000, 100000)
}

func TestPrinterService_PrintWhileDisconnected(t *testing.T) {
	f := newPrinterFixture(t)

	result, err := f.service.Print(context.Background(), sampleReceipt(), model.PrintJobSourceAPI)
	require.ErrorIs(t, err, ErrNotConnected)
	assert.Nil(t, result)
	assert.Zero(t, f.transport.sendCount())

	rejected := f.jobsWithStatus(t, model.PrintJobStatusRejected)
	require.Len(t, rejected, 1)
	assert.Equal(t, "TRX1709649015000", rejected[0].TransactionNumber)
	assert.Equal(t, ErrNotConnected.Error(), *rejected[0].ErrorMessage)
}

func TestPrinterService_ConnectAndPrint(t *testing.T) {
	f := newPrinterFixture(t)
	ctx := context.Background()

	require.True(t, f.service.Connect(ctx))
	assert.Equal(t, model.PrinterStateConnected, f.service.State())
	assert.True(t, f.service.IsConnected())

	result, err := f.service.Print(ctx, sampleReceipt(), model.PrintJobSourceCheckout)
	require.NoError(t, err)
	assert.Equal(t, "AA:BB:CC:DD:EE:FF", result.DeviceID)
	assert.Equal(t, fixedNow, result.PrintedAt)

	composer := receipt.NewComposer(model.StoreProfile{Name: "Bakery", PhoneNumber: "0812"}, nil, receipt.WithLocation(time.UTC))
	expected := composer.Compose(sampleReceipt(), fixedNow)
	require.Equal(t, 1, f.transport.sendCount())
	assert.Equal(t, expected, f.transport.sent[0])
	assert.Equal(t, len(expected), result.Bytes)

	succeeded := f.jobsWithStatus(t, model.PrintJobStatusSuccess)
	require.Len(t, succeeded, 1)
	assert.Equal(t, model.PrintJobSourceCheckout, succeeded[0].Source)
	assert.Equal(t, len(expected), succeeded[0].ByteCount)

	assert.Equal(t, []model.EventType{model.EventPrinterConnected, model.EventPrintCompleted}, f.eventTypes())
}

func TestPrinterService_SendFailureForcesDisconnect(t *testing.T) {
	f := newPrinterFixture(t)
	ctx := context.Background()

	require.NoError(t, f.service.ConnectDevice(ctx, "printer-1"))
	f.transport.sendErr = errors.New("gatt write failed")

	_, err := f.service.Print(ctx, sampleReceipt(), model.PrintJobSourceAPI)
	require.ErrorIs(t, err, ErrSendFailed)
	assert.Contains(t, err.Error(), "gatt write failed")

	assert.Equal(t, model.PrinterStateDisconnected, f.service.State())
	assert.False(t, f.service.IsConnected())
	assert.Equal(t, 1, f.transport.disconnects)

	last, err := f.service.LastDevice(ctx)
	require.NoError(t, err)
	require.NotNil(t, last)
	assert.Equal(t, "printer-1", last.DeviceID)

	failed := f.jobsWithStatus(t, model.PrintJobStatusFailed)
	require.Len(t, failed, 1)
	assert.Equal(t, 128, failed[0].Result["delivered_bytes"])

	_, err = f.service.Print(ctx, sampleReceipt(), model.PrintJobSourceAPI)
	assert.ErrorIs(t, err, ErrNotConnected)
	assert.Equal(t, 1, f.transport.sendCount())

	f.transport.sendErr = nil
	require.True(t, f.service.AutoConnect(ctx))
	assert.Equal(t, []string{"printer-1"}, f.transport.reconnects)
}

func TestPrinterService_BusyFailsFast(t *testing.T) {
	f := newPrinterFixture(t)
	ctx := context.Background()
	require.True(t, f.service.Connect(ctx))

	f.transport.sendBlock = make(chan struct{})
	f.transport.sendStarted = make(chan struct{})

	done := make(chan error, 1)
	go func() {
		_, err := f.service.Print(ctx, sampleReceipt(), model.PrintJobSourceAPI)
		done <- err
	}()
	<-f.transport.sendStarted

	_, err := f.service.Print(ctx, sampleReceipt(), model.PrintJobSourceAPI)
	assert.ErrorIs(t, err, ErrBusy)

	close(f.transport.sendBlock)
	require.NoError(t, <-done)
	assert.Equal(t, 1, f.transport.sendCount())
	assert.Len(t, f.jobsWithStatus(t, model.PrintJobStatusRejected), 1)
}

func TestPrinterService_InvalidReceiptIsNotSent(t *testing.T) {
	f := newPrinterFixture(t)
	ctx := context.Background()
	require.True(t, f.service.Connect(ctx))

	r := sampleReceipt()
	r.PaidAmount = 1000
	r.ChangeAmount = 1000 - r.GrandTotal

	_, err := f.service.Print(ctx, r, model.PrintJobSourceAPI)
	assert.ErrorIs(t, err, model.ErrInvalidReceipt)
	assert.Zero(t, f.transport.sendCount())
	assert.True(t, f.service.IsConnected())
}

func TestPrinterService_NilReceipt(t *testing.T) {
	f := newPrinterFixture(t)
	ctx := context.Background()
	require.True(t, f.service.Connect(ctx))

	assert.NotPanics(t, func() {
		_, err := f.service.Print(ctx, nil, model.PrintJobSourceAPI)
		assert.ErrorIs(t, err, model.ErrInvalidReceipt)

		_, err = f.service.Preview(nil)
		assert.ErrorIs(t, err, model.ErrInvalidReceipt)
	})
	assert.Zero(t, f.transport.sendCount())
}

func TestPrinterService_NotSupported(t *testing.T) {
	f := newPrinterFixture(t)
	f.transport.supported = false
	ctx := context.Background()

	assert.False(t, f.service.IsSupported())
	assert.ErrorIs(t, f.service.ConnectDevice(ctx, ""), ErrNotSupported)
	assert.False(t, f.service.AutoConnect(ctx))
	assert.Empty(t, f.transport.connects)
}

func TestPrinterService_ConnectFailure(t *testing.T) {
	f := newPrinterFixture(t)
	f.transport.connectErr = errors.New("no printer advertising service")

	err := f.service.ConnectDevice(context.Background(), "")
	require.ErrorIs(t, err, ErrConnectionFailed)
	assert.Equal(t, model.PrinterStateDisconnected, f.service.State())
	assert.Equal(t, []model.EventType{model.EventPrinterConnectionFailed}, f.eventTypes())

	last, err := f.service.LastDevice(context.Background())
	require.NoError(t, err)
	assert.Nil(t, last)
}

func TestPrinterService_AutoConnectWithoutHistory(t *testing.T) {
	f := newPrinterFixture(t)

	assert.False(t, f.service.AutoConnect(context.Background()))
	assert.Empty(t, f.transport.reconnects)
}

func TestPrinterService_AutoConnectFromPairingStore(t *testing.T) {
	f := newPrinterFixture(t)
	ctx := context.Background()

	require.NoError(t, f.pairing.Save(ctx, &model.PairedDevice{
		DeviceID:       "printer-9",
		ConnectionType: model.ConnectionTypeBluetooth,
	}))

	require.True(t, f.service.AutoConnect(ctx))
	assert.Equal(t, []string{"printer-9"}, f.transport.reconnects)
	assert.Empty(t, f.transport.connects)
}

func TestPrinterService_AutoConnectIgnoresOtherLinkType(t *testing.T) {
	f := newPrinterFixture(t)
	ctx := context.Background()

	require.NoError(t, f.pairing.Save(ctx, &model.PairedDevice{
		DeviceID:       "/dev/rfcomm0",
		ConnectionType: model.ConnectionTypeSerial,
	}))

	err := f.service.Reconnect(ctx)
	assert.ErrorIs(t, err, ErrConnectionFailed)
	assert.Empty(t, f.transport.reconnects)
}

func TestPrinterService_DisconnectKeepsLastDevice(t *testing.T) {
	f := newPrinterFixture(t)
	ctx := context.Background()

	require.NoError(t, f.service.ConnectDevice(ctx, "printer-2"))
	f.service.Disconnect(ctx)
	f.service.Disconnect(ctx)

	assert.Equal(t, model.PrinterStateDisconnected, f.service.State())
	assert.Equal(t, []model.EventType{model.EventPrinterConnected, model.EventPrinterDisconnected}, f.eventTypes())

	stored, err := f.pairing.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, "printer-2", stored.DeviceID)

	require.NoError(t, f.service.ForgetDevice(ctx))
	assert.False(t, f.service.AutoConnect(ctx))
}

func TestPrinterService_CheckLink(t *testing.T) {
	f := newPrinterFixture(t)
	ctx := context.Background()

	assert.False(t, f.service.CheckLink(ctx))

	require.True(t, f.service.Connect(ctx))
	assert.False(t, f.service.CheckLink(ctx))

	f.transport.mu.Lock()
	f.transport.connected = false
	f.transport.mu.Unlock()

	assert.True(t, f.service.CheckLink(ctx))
	assert.Equal(t, model.PrinterStateDisconnected, f.service.State())
	assert.False(t, f.service.CheckLink(ctx))
}

func TestPrinterService_Preview(t *testing.T) {
	f := newPrinterFixture(t)

	preview, err := f.service.Preview(sampleReceipt())
	require.NoError(t, err)
	assert.Equal(t, "1b40", preview.Hex[:4])
	assert.Equal(t, len(preview.Hex)/2, preview.Bytes)
	assert.Contains(t, preview.Lines, "No: TRX1709649015000")
	assert.Zero(t, f.transport.sendCount())
}

func TestPrinterService_Status(t *testing.T) {
	f := newPrinterFixture(t)
	ctx := context.Background()
	require.NoError(t, f.service.ConnectDevice(ctx, "printer-3"))

	status := f.service.Status(ctx)
	assert.Equal(t, model.PrinterStateConnected, status.State)
	assert.True(t, status.Connected)
	assert.True(t, status.Supported)
	assert.Equal(t, "printer-3", status.DeviceID)
	assert.Equal(t, "printer-3", status.LastDevice.DeviceID)
	assert.False(t, status.PairingPersistent)
}

func TestIsPrinterUnavailable(t *testing.T) {
	assert.True(t, IsPrinterUnavailable(ErrNotConnected))
	assert.True(t, IsPrinterUnavailable(errors.Join(ErrSendFailed, errors.New("io"))))
	assert.False(t, IsPrinterUnavailable(model.ErrInvalidReceipt))
}
