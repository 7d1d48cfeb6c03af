// internal/discovery/serial/scanner.go
package serial

import (
	"context"
	"fmt"
	"time"

	"go.bug.st/serial/enumerator"
	"go.uber.org/zap"

	"pos-service/internal/model"
	"pos-service/internal/protocol"
)

// PortLister enumerates serial ports
type PortLister func() ([]*enumerator.PortDetails, error)

// Scanner lists serial ports that can carry an ESC/POS printer, including
// Bluetooth Classic SPP ports bound to /dev/rfcomm*
type Scanner struct {
	pattern   string
	listPorts PortLister
	logger    *zap.Logger
}

// NewScanner creates a serial scanner. An empty pattern lists every port.
func NewScanner(pattern string, logger *zap.Logger) *Scanner {
	return &Scanner{
		pattern:   pattern,
		listPorts: enumerator.GetDetailedPortsList,
		logger:    logger.With(zap.String("scanner", "serial")),
	}
}

// WithPortLister replaces the port enumerator
func (s *Scanner) WithPortLister(lister PortLister) *Scanner {
	s.listPorts = lister
	return s
}

// GetScannerType returns scanner type
func (s *Scanner) GetScannerType() model.ConnectionType {
	return model.ConnectionTypeSerial
}

// IsAvailable is always true; ports are enumerated on every platform
func (s *Scanner) IsAvailable() bool {
	return true
}

// Scan enumerates ports matching the pattern
func (s *Scanner) Scan(ctx context.Context) ([]*model.DiscoveredPrinter, error) {
	ports, err := s.listPorts()
	if err != nil {
		return nil, fmt.Errorf("failed to enumerate serial ports: %w", err)
	}

	printers := []*model.DiscoveredPrinter{}
	for _, port := range ports {
		if ctx.Err() != nil {
			return printers, ctx.Err()
		}
		if !protocol.MatchPortPattern(s.pattern, port.Name) {
			continue
		}

		metadata := model.JSONObject{"usb": port.IsUSB}
		name := port.Name
		if port.IsUSB {
			metadata["vendor_id"] = port.VID
			metadata["product_id"] = port.PID
			metadata["serial_number"] = port.SerialNumber
			if port.Product != "" {
				name = port.Product
			}
		}

		printers = append(printers, &model.DiscoveredPrinter{
			DeviceID:       port.Name,
			Name:           name,
			ConnectionType: model.ConnectionTypeSerial,
			Metadata:       metadata,
			DiscoveredAt:   time.Now(),
		})
	}

	s.logger.Info("Serial scan completed",
		zap.Int("ports_total", len(ports)),
		zap.Int("ports_matched", len(printers)),
		zap.String("pattern", s.pattern),
	)
	return printers, nil
}
