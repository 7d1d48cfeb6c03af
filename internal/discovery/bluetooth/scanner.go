// internal/discovery/bluetooth/scanner.go
package bluetooth

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/go-ble/ble"
	"go.uber.org/zap"

	"pos-service/internal/model"
	"pos-service/internal/protocol"
)

// Scanner listens for BLE advertisements of thermal printers
type Scanner struct {
	host        *protocol.BluetoothHost
	serviceUUID ble.UUID
	namePrefix  string
	timeout     time.Duration
	logger      *zap.Logger
}

// NewScanner creates a BLE scanner for printers advertising the service UUID
// or a local name starting with the configured prefix
func NewScanner(host *protocol.BluetoothHost, cfg *protocol.BluetoothConfig, logger *zap.Logger) (*Scanner, error) {
	serviceUUID, err := ble.Parse(cfg.ServiceUUID)
	if err != nil {
		return nil, fmt.Errorf("invalid service UUID: %w", err)
	}

	timeout := cfg.ScanTimeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	return &Scanner{
		host:        host,
		serviceUUID: serviceUUID,
		namePrefix:  cfg.NamePrefix,
		timeout:     timeout,
		logger:      logger.With(zap.String("scanner", "bluetooth")),
	}, nil
}

// GetScannerType returns scanner type
func (s *Scanner) GetScannerType() model.ConnectionType {
	return model.ConnectionTypeBluetooth
}

// IsAvailable reports whether a BLE controller is present
func (s *Scanner) IsAvailable() bool {
	return s.host != nil && s.host.Available()
}

// Scan collects matching advertisements until the scan timeout
func (s *Scanner) Scan(ctx context.Context) ([]*model.DiscoveredPrinter, error) {
	startTime := time.Now()
	s.logger.Info("Starting bluetooth scan", zap.Duration("timeout", s.timeout))

	scanCtx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	collector := newAdvertisementCollector(s.serviceUUID, s.namePrefix)
	err := ble.Scan(scanCtx, false, collector.handle, nil)
	if err != nil && !errors.Is(err, context.DeadlineExceeded) && !errors.Is(err, context.Canceled) {
		return nil, fmt.Errorf("bluetooth scan failed: %w", err)
	}

	printers := collector.printers()
	s.logger.Info("Bluetooth scan completed",
		zap.Int("printers_found", len(printers)),
		zap.Duration("scan_duration", time.Since(startTime)),
	)
	return printers, nil
}

// advertisementCollector deduplicates advertisements by address
type advertisementCollector struct {
	serviceUUID ble.UUID
	namePrefix  string

	mu    sync.Mutex
	seen  map[string]*model.DiscoveredPrinter
	order []string
}

func newAdvertisementCollector(serviceUUID ble.UUID, namePrefix string) *advertisementCollector {
	return &advertisementCollector{
		serviceUUID: serviceUUID,
		namePrefix:  namePrefix,
		seen:        make(map[string]*model.DiscoveredPrinter),
	}
}

func (c *advertisementCollector) handle(a ble.Advertisement) {
	if !protocol.MatchesAdvertisement(a, c.serviceUUID, c.namePrefix) {
		return
	}

	address := a.Addr().String()
	rssi := a.RSSI()

	c.mu.Lock()
	defer c.mu.Unlock()

	if existing, ok := c.seen[address]; ok {
		existing.RSSI = &rssi
		if existing.Name == "" {
			existing.Name = a.LocalName()
		}
		return
	}

	c.seen[address] = &model.DiscoveredPrinter{
		DeviceID:       address,
		Name:           a.LocalName(),
		ConnectionType: model.ConnectionTypeBluetooth,
		RSSI:           &rssi,
		Metadata: model.JSONObject{
			"connectable":  a.Connectable(),
			"service_uuid": c.serviceUUID.String(),
		},
		DiscoveredAt: time.Now(),
	}
	c.order = append(c.order, address)
}

func (c *advertisementCollector) printers() []*model.DiscoveredPrinter {
	c.mu.Lock()
	defer c.mu.Unlock()

	printers := make([]*model.DiscoveredPrinter, 0, len(c.order))
	for _, address := range c.order {
		printers = append(printers, c.seen[address])
	}
	return printers
}
