// internal/discovery/usb/scanner.go
package usb

import (
	"context"
	"fmt"
	"time"

	"github.com/google/gousb"
	"go.uber.org/zap"

	"pos-service/internal/model"
	"pos-service/internal/protocol"
)

// Scanner enumerates USB printer-class devices and devices of known receipt
// printer vendors
type Scanner struct {
	timeout       time.Duration
	maxConcurrent int
	logger        *zap.Logger
}

// NewScanner creates a new USB scanner
func NewScanner(timeout time.Duration, logger *zap.Logger) *Scanner {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Scanner{
		timeout:       timeout,
		maxConcurrent: 4,
		logger:        logger.With(zap.String("scanner", "usb")),
	}
}

// GetScannerType returns scanner type identifier
func (s *Scanner) GetScannerType() model.ConnectionType {
	return model.ConnectionTypeUSB
}

// IsAvailable checks that libusb can enumerate devices
func (s *Scanner) IsAvailable() bool {
	usbCtx := gousb.NewContext()
	defer usbCtx.Close()

	_, err := usbCtx.OpenDevices(func(desc *gousb.DeviceDesc) bool {
		return false
	})
	if err != nil {
		s.logger.Debug("USB subsystem not accessible", zap.Error(err))
		return false
	}
	return true
}

// ShouldExamine reports whether a descriptor may be a receipt printer
func ShouldExamine(desc *gousb.DeviceDesc) bool {
	return protocol.IsPrinterClass(desc) || IsKnownVendor(desc.Vendor)
}

// Scan performs USB printer discovery
func (s *Scanner) Scan(ctx context.Context) ([]*model.DiscoveredPrinter, error) {
	startTime := time.Now()

	scanCtx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	usbCtx := gousb.NewContext()
	defer func() {
		if err := usbCtx.Close(); err != nil {
			s.logger.Warn("Failed to close USB context", zap.Error(err))
		}
	}()

	devices, err := usbCtx.OpenDevices(ShouldExamine)
	defer func() {
		for _, device := range devices {
			device.Close()
		}
	}()
	if err != nil && len(devices) == 0 {
		return nil, fmt.Errorf("failed to enumerate USB devices: %w", err)
	}
	if err != nil {
		s.logger.Warn("Some USB devices could not be opened", zap.Error(err))
	}

	printers, err := s.describeConcurrently(scanCtx, devices)

	s.logger.Info("USB scan completed",
		zap.Int("printers_found", len(printers)),
		zap.Duration("scan_duration", time.Since(startTime)),
	)
	return printers, err
}

// describeConcurrently reads string descriptors with a small worker pool
func (s *Scanner) describeConcurrently(ctx context.Context, devices []*gousb.Device) ([]*model.DiscoveredPrinter, error) {
	if len(devices) == 0 {
		return []*model.DiscoveredPrinter{}, nil
	}

	deviceChan := make(chan *gousb.Device, len(devices))
	resultChan := make(chan *model.DiscoveredPrinter, len(devices))

	workers := s.maxConcurrent
	if workers > len(devices) {
		workers = len(devices)
	}
	for i := 0; i < workers; i++ {
		go func() {
			for device := range deviceChan {
				resultChan <- s.describe(device)
			}
		}()
	}

	for _, device := range devices {
		deviceChan <- device
	}
	close(deviceChan)

	printers := []*model.DiscoveredPrinter{}
	for i := 0; i < len(devices); i++ {
		select {
		case printer := <-resultChan:
			printers = append(printers, printer)
		case <-ctx.Done():
			return printers, ctx.Err()
		}
	}
	return printers, nil
}

func (s *Scanner) describe(device *gousb.Device) *model.DiscoveredPrinter {
	desc := device.Desc
	deviceID := protocol.FormatUSBDeviceID(desc.Vendor.String(), desc.Product.String())

	manufacturer, err := device.Manufacturer()
	if err != nil {
		manufacturer = VendorName(desc.Vendor)
	}
	product, err := device.Product()
	if err != nil || product == "" {
		product = fmt.Sprintf("USB printer %s", deviceID)
	}

	metadata := model.JSONObject{
		"vendor_id":     desc.Vendor.String(),
		"product_id":    desc.Product.String(),
		"manufacturer":  manufacturer,
		"bus":           desc.Bus,
		"address":       desc.Address,
		"printer_class": protocol.IsPrinterClass(desc),
	}
	if serial, err := device.SerialNumber(); err == nil && serial != "" {
		metadata["serial_number"] = serial
	}

	return &model.DiscoveredPrinter{
		DeviceID:       deviceID,
		Name:           product,
		ConnectionType: model.ConnectionTypeUSB,
		Metadata:       metadata,
		DiscoveredAt:   time.Now(),
	}
}
