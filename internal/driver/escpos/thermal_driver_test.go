package escpos

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
	"pos-service/internal/protocol"
	"pos-service/pkg/driver"
)

type fakeLink struct {
	id      string
	open    bool
	openErr error
	failAt  int
	writes  [][]byte
	closed  int
}

func (l *fakeLink) Open(ctx context.Context) error {
	if l.openErr != nil {
		return l.openErr
	}
	l.open = true
	return nil
}

func (l *fakeLink) Close() error {
	l.open = false
	l.closed++
	return nil
}

func (l *fakeLink) IsOpen() bool { return l.open }

func (l *fakeLink) Write(ctx context.Context, data []byte) error {
	if l.failAt > 0 && len(l.writes)+1 == l.failAt {
		return errors.New("gatt write failed")
	}
	l.writes = append(l.writes, append([]byte(nil), data...))
	return nil
}

func (l *fakeLink) GetProtocolType() model.ConnectionType { return model.ConnectionTypeBluetooth }
func (l *fakeLink) DeviceID() string                      { return l.id }

func (l *fakeLink) GetStats() protocol.ProtocolStats {
	stats := protocol.ProtocolStats{OperationCount: int64(len(l.writes)), IsConnected: l.open}
	for _, w := range l.writes {
		stats.BytesWritten += int64(len(w))
	}
	return stats
}

type recordingHandler struct {
	mu           sync.Mutex
	connected    []string
	disconnected []string
	errors       int
	sent         int
}

func (h *recordingHandler) OnDeviceConnected(deviceID string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.connected = append(h.connected, deviceID)
}

func (h *recordingHandler) OnDeviceDisconnected(deviceID, reason string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.disconnected = append(h.disconnected, deviceID)
}

func (h *recordingHandler) OnDeviceError(deviceID string, err error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.errors++
}

func (h *recordingHandler) OnSendCompleted(deviceID string, result *driver.SendResult) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.sent++
}

func newTestDriver(link *fakeLink, requested *[]string) *ThermalDriver {
	cfg := &protocol.LinkConfig{Type: model.ConnectionTypeBluetooth}
	writer := protocol.NewChunkedWriter(128, 100*time.Millisecond, zap.NewNop(),
		protocol.WithSleeper(func(time.Duration) {}))

	return NewThermalDriver(cfg, nil, writer, zap.NewNop(),
		WithLinkFactory(func(deviceID string) (protocol.DeviceProtocol, error) {
			if requested != nil {
				*requested = append(*requested, deviceID)
			}
			if deviceID != "" {
				link.id = deviceID
			}
			return link, nil
		}),
		WithSupportProbe(func() bool { return true }),
	)
}

func TestThermalDriver_ConnectAndSend(t *testing.T) {
	link := &fakeLink{id: "AA:BB:CC:DD:EE:FF"}
	handler := &recordingHandler{}
	var requested []string

	d := newTestDriver(link, &requested)
	d.SetEventHandler(handler)

	require.NoError(t, d.Connect(context.Background(), ""))
	assert.True(t, d.IsConnected())
	assert.Equal(t, "AA:BB:CC:DD:EE:FF", d.DeviceID())
	assert.Equal(t, []string{""}, requested)

	result, err := d.Send(context.Background(), make([]byte, 300))
	require.NoError(t, err)
	assert.Equal(t, 300, result.Bytes)
	assert.Equal(t, 3, result.Chunks)
	require.Len(t, link.writes, 3)
	assert.Len(t, link.writes[2], 44)

	metrics := d.GetHealthMetrics()
	assert.Equal(t, int64(300), metrics.BytesSent)
	assert.Equal(t, int64(2), metrics.TotalOperations)
	require.NotNil(t, metrics.Link)
	assert.Equal(t, int64(300), metrics.Link.BytesWritten)
	assert.Equal(t, int64(3), metrics.Link.Writes)
	assert.Equal(t, []string{"AA:BB:CC:DD:EE:FF"}, handler.connected)
	assert.Equal(t, 1, handler.sent)
}

func TestThermalDriver_SendWithoutLink(t *testing.T) {
	d := newTestDriver(&fakeLink{}, nil)

	_, err := d.Send(context.Background(), []byte("x"))
	assert.ErrorIs(t, err, driver.ErrNotConnected)
}

func TestThermalDriver_SendFailure(t *testing.T) {
	link := &fakeLink{id: "printer", failAt: 2}
	handler := &recordingHandler{}

	d := newTestDriver(link, nil)
	d.SetEventHandler(handler)
	require.NoError(t, d.Connect(context.Background(), ""))

	result, err := d.Send(context.Background(), make([]byte, 300))
	require.Error(t, err)

	var chunkErr *protocol.ChunkError
	require.ErrorAs(t, err, &chunkErr)
	assert.Equal(t, 1, chunkErr.Index)
	assert.Equal(t, 128, chunkErr.Offset)
	assert.Equal(t, "printer", result.DeviceID)
	assert.Equal(t, 1, handler.errors)
	assert.Equal(t, int64(1), d.GetHealthMetrics().ErrorCount)
}

func TestThermalDriver_ConnectFailure(t *testing.T) {
	link := &fakeLink{openErr: errors.New("no printer advertising")}
	d := newTestDriver(link, nil)

	err := d.Connect(context.Background(), "")
	assert.Error(t, err)
	assert.False(t, d.IsConnected())
	assert.Empty(t, d.DeviceID())
}

func TestThermalDriver_ReconnectTargetsDevice(t *testing.T) {
	link := &fakeLink{}
	var requested []string
	d := newTestDriver(link, &requested)

	assert.Error(t, d.Reconnect(context.Background(), ""))

	require.NoError(t, d.Reconnect(context.Background(), "11:22:33:44:55:66"))
	assert.Equal(t, []string{"11:22:33:44:55:66"}, requested)
	assert.Equal(t, "11:22:33:44:55:66", d.DeviceID())
}

func TestThermalDriver_DisconnectIsIdempotent(t *testing.T) {
	link := &fakeLink{id: "printer"}
	handler := &recordingHandler{}
	d := newTestDriver(link, nil)
	d.SetEventHandler(handler)

	require.NoError(t, d.Disconnect(context.Background()))

	require.NoError(t, d.Connect(context.Background(), ""))
	require.NoError(t, d.Disconnect(context.Background()))
	require.NoError(t, d.Disconnect(context.Background()))

	assert.False(t, d.IsConnected())
	assert.Equal(t, 1, link.closed)
	assert.Equal(t, []string{"printer"}, handler.disconnected)
}

func TestThermalDriver_IsSupported(t *testing.T) {
	writer := protocol.NewChunkedWriter(0, 0, zap.NewNop())

	tcp := NewThermalDriver(&protocol.LinkConfig{Type: model.ConnectionTypeTCP}, nil, writer, zap.NewNop())
	assert.True(t, tcp.IsSupported())

	ble := NewThermalDriver(&protocol.LinkConfig{Type: model.ConnectionTypeBluetooth}, nil, writer, zap.NewNop())
	assert.False(t, ble.IsSupported())
}
