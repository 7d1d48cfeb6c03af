// internal/driver/escpos/thermal_driver.go
package escpos

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"pos-service/internal/model"
	"pos-service/internal/protocol"
	"pos-service/internal/utils"
	"pos-service/pkg/driver"
)

// LinkFactory opens a link to deviceID. An empty deviceID means discover.
type LinkFactory func(deviceID string) (protocol.DeviceProtocol, error)

// ThermalDriver implements driver.Transport for ESC/POS thermal printers. It
// holds at most one open link and delivers buffers through a ChunkedWriter.
type ThermalDriver struct {
	connectionType model.ConnectionType
	newLink        LinkFactory
	supported      func() bool
	writer         *protocol.ChunkedWriter
	link           protocol.DeviceProtocol
	logger         *utils.DeviceLogger
	eventHandler   driver.EventHandler
	healthMetrics  *driver.HealthMetrics
	mutex          sync.RWMutex
}

var _ driver.Transport = (*ThermalDriver)(nil)

// ThermalDriverOption customises a ThermalDriver
type ThermalDriverOption func(*ThermalDriver)

// WithLinkFactory replaces the protocol factory
func WithLinkFactory(f LinkFactory) ThermalDriverOption {
	return func(d *ThermalDriver) {
		d.newLink = f
	}
}

// WithSupportProbe replaces the platform capability probe
func WithSupportProbe(probe func() bool) ThermalDriverOption {
	return func(d *ThermalDriver) {
		d.supported = probe
	}
}

// NewThermalDriver creates a driver for the configured link type
func NewThermalDriver(cfg *protocol.LinkConfig, host *protocol.BluetoothHost, writer *protocol.ChunkedWriter, logger *zap.Logger, opts ...ThermalDriverOption) *ThermalDriver {
	deviceLogger := utils.NewDeviceLogger(logger, string(cfg.Type))

	d := &ThermalDriver{
		connectionType: cfg.Type,
		writer:         writer,
		logger:         deviceLogger,
		healthMetrics:  &driver.HealthMetrics{},
		newLink: func(deviceID string) (protocol.DeviceProtocol, error) {
			return protocol.CreateProtocol(cfg, host, deviceID, deviceLogger.Logger)
		},
		supported: func() bool {
			if cfg.Type != model.ConnectionTypeBluetooth {
				return true
			}
			return host != nil && host.Available()
		},
	}

	for _, opt := range opts {
		opt(d)
	}
	return d
}

// IsSupported reports whether the platform can drive this link type
func (d *ThermalDriver) IsSupported() bool {
	return d.supported()
}

// Connect opens a link. An empty deviceID discovers the first matching
// printer; an open link is replaced.
func (d *ThermalDriver) Connect(ctx context.Context, deviceID string) error {
	return d.open(ctx, "connect", deviceID)
}

// Reconnect opens a link to a known device without discovery
func (d *ThermalDriver) Reconnect(ctx context.Context, deviceID string) error {
	if deviceID == "" {
		return fmt.Errorf("reconnect requires a device id")
	}
	return d.open(ctx, "reconnect", deviceID)
}

func (d *ThermalDriver) open(ctx context.Context, action, deviceID string) error {
	d.mutex.Lock()
	defer d.mutex.Unlock()

	if d.link != nil {
		d.closeLocked("replaced")
	}

	startTime := time.Now()

	link, err := d.newLink(deviceID)
	if err != nil {
		d.healthMetrics.Record(false, time.Since(startTime), err)
		d.logger.LogConnection(action, deviceID, false, err)
		return fmt.Errorf("failed to create %s link: %w", d.connectionType, err)
	}

	if err := link.Open(ctx); err != nil {
		d.healthMetrics.Record(false, time.Since(startTime), err)
		d.logger.LogConnection(action, deviceID, false, err)
		d.notifyError(deviceID, err)
		return fmt.Errorf("failed to open %s link: %w", d.connectionType, err)
	}

	now := time.Now()
	d.link = link
	d.healthMetrics.ConnectedSince = &now
	d.healthMetrics.Record(true, time.Since(startTime), nil)
	d.logger.LogConnection(action, link.DeviceID(), true, nil)

	if d.eventHandler != nil {
		d.eventHandler.OnDeviceConnected(link.DeviceID())
	}
	return nil
}

// Disconnect closes the link. Safe to call when not connected.
func (d *ThermalDriver) Disconnect(ctx context.Context) error {
	d.mutex.Lock()
	defer d.mutex.Unlock()

	if d.link == nil {
		return nil
	}
	return d.closeLocked("requested")
}

func (d *ThermalDriver) closeLocked(reason string) error {
	deviceID := d.link.DeviceID()
	err := d.link.Close()

	d.link = nil
	d.healthMetrics.ConnectedSince = nil
	d.logger.LogConnection("disconnect", deviceID, err == nil, err)

	if d.eventHandler != nil {
		d.eventHandler.OnDeviceDisconnected(deviceID, reason)
	}

	if err != nil {
		return fmt.Errorf("failed to close %s link: %w", d.connectionType, err)
	}
	return nil
}

// IsConnected reports whether a link is open
func (d *ThermalDriver) IsConnected() bool {
	d.mutex.RLock()
	defer d.mutex.RUnlock()

	return d.link != nil && d.link.IsOpen()
}

// DeviceID returns the identifier of the open link, or empty
func (d *ThermalDriver) DeviceID() string {
	d.mutex.RLock()
	defer d.mutex.RUnlock()

	if d.link == nil {
		return ""
	}
	return d.link.DeviceID()
}

// ConnectionType returns the configured link type
func (d *ThermalDriver) ConnectionType() model.ConnectionType {
	return d.connectionType
}

// Send delivers data in paced chunks over the open link
func (d *ThermalDriver) Send(ctx context.Context, data []byte) (*driver.SendResult, error) {
	d.mutex.Lock()
	defer d.mutex.Unlock()

	if d.link == nil || !d.link.IsOpen() {
		return nil, driver.ErrNotConnected
	}

	deviceID := d.link.DeviceID()
	report, err := d.writer.Send(ctx, d.link, data)

	result := &driver.SendResult{DeviceID: deviceID}
	if report != nil {
		result.Bytes = report.Bytes
		result.Chunks = report.Chunks
		result.Duration = report.Duration
	}

	d.healthMetrics.Record(err == nil, result.Duration, err)
	d.logger.LogSend(deviceID, result.Bytes, result.Chunks, result.Duration, err)

	if err != nil {
		var chunkErr *protocol.ChunkError
		if errors.As(err, &chunkErr) {
			d.logger.Warn("Receipt partially delivered",
				zap.Int("failed_chunk", chunkErr.Index),
				zap.Int("delivered_bytes", chunkErr.Offset),
			)
		}
		d.notifyError(deviceID, err)
		return result, fmt.Errorf("failed to send %d bytes: %w", len(data), err)
	}

	d.healthMetrics.BytesSent += int64(result.Bytes)
	if d.eventHandler != nil {
		d.eventHandler.OnSendCompleted(deviceID, result)
	}
	return result, nil
}

// GetHealthMetrics returns a copy of the link health metrics
func (d *ThermalDriver) GetHealthMetrics() *driver.HealthMetrics {
	d.mutex.RLock()
	defer d.mutex.RUnlock()

	metrics := *d.healthMetrics
	if d.link != nil {
		stats := d.link.GetStats()
		metrics.Link = &driver.LinkStats{
			BytesWritten:   stats.BytesWritten,
			Writes:         stats.OperationCount,
			WriteErrors:    stats.ErrorCount,
			AverageLatency: stats.AverageLatency,
			LastActivity:   stats.LastActivity,
		}
	}
	d.logger.LogHealth(metrics.HealthScore, metrics.ResponseTime, metrics.SuccessRate)
	return &metrics
}

// SetEventHandler sets the event handler for link events
func (d *ThermalDriver) SetEventHandler(handler driver.EventHandler) {
	d.mutex.Lock()
	defer d.mutex.Unlock()

	d.eventHandler = handler
}

func (d *ThermalDriver) notifyError(deviceID string, err error) {
	if d.eventHandler != nil {
		d.eventHandler.OnDeviceError(deviceID, err)
	}
}
