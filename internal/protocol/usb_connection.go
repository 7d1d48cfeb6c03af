// internal/protocol/usb_connection.go
package protocol

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/google/gousb"
	"go.uber.org/zap"

	"pos-service/internal/model"
)

// USBConnection implements DeviceProtocol over a USB bulk OUT endpoint
type USBConnection struct {
	config   *USBConfig
	deviceID string
	ctx      *gousb.Context
	device   *gousb.Device
	intf     *gousb.Interface
	release  func()
	outEndpt *gousb.OutEndpoint
	logger   *zap.Logger
	mutex    sync.RWMutex
	isOpen   bool
	stats    statsRecorder
}

// NewUSBConnection creates a new USB connection. deviceID has the form
// "vvvv:pppp"; when empty the configured vendor and product are used, and when
// those are empty too the first printer class device is opened.
func NewUSBConnection(config *USBConfig, deviceID string, logger *zap.Logger) DeviceProtocol {
	if deviceID == "" && config.VendorID != "" && config.ProductID != "" {
		deviceID = FormatUSBDeviceID(config.VendorID, config.ProductID)
	}
	return &USBConnection{
		config:   config,
		deviceID: deviceID,
		logger: logger.With(
			zap.String("protocol", "usb"),
			zap.String("device_id", deviceID),
		),
	}
}

// Open opens the USB connection
func (uc *USBConnection) Open(ctx context.Context) error {
	uc.mutex.Lock()
	defer uc.mutex.Unlock()

	if uc.isOpen {
		return nil
	}

	uc.logger.Info("Opening USB connection", zap.Int("interface", uc.config.Interface))

	usbCtx := gousb.NewContext()

	device, err := uc.findAndOpenDevice(usbCtx)
	if err != nil {
		usbCtx.Close()
		return err
	}

	if err := device.SetAutoDetach(true); err != nil {
		uc.logger.Debug("Kernel driver auto detach unavailable", zap.Error(err))
	}

	intf, done, err := device.DefaultInterface()
	if err != nil {
		device.Close()
		usbCtx.Close()
		return fmt.Errorf("failed to claim interface: %w", err)
	}

	endpoint := uc.config.Endpoint
	if endpoint <= 0 {
		endpoint = bulkOutEndpoint(intf.Setting)
	}

	outEndpt, err := intf.OutEndpoint(endpoint)
	if err != nil {
		done()
		device.Close()
		usbCtx.Close()
		return fmt.Errorf("failed to get out endpoint %d: %w", endpoint, err)
	}

	uc.ctx = usbCtx
	uc.device = device
	uc.intf = intf
	uc.release = done
	uc.outEndpt = outEndpt
	uc.deviceID = FormatUSBDeviceID(device.Desc.Vendor.String(), device.Desc.Product.String())
	uc.isOpen = true
	uc.stats.setConnected(true)

	uc.logger.Info("USB connection opened successfully",
		zap.String("device_id", uc.deviceID),
		zap.Int("endpoint", endpoint),
	)
	return nil
}

// Close closes the USB connection
func (uc *USBConnection) Close() error {
	uc.mutex.Lock()
	defer uc.mutex.Unlock()

	if !uc.isOpen {
		return nil
	}

	if uc.release != nil {
		uc.release()
		uc.release = nil
	}
	uc.intf = nil

	var closeErr error
	if uc.device != nil {
		closeErr = uc.device.Close()
		uc.device = nil
	}

	if uc.ctx != nil {
		uc.ctx.Close()
		uc.ctx = nil
	}

	uc.outEndpt = nil
	uc.isOpen = false
	uc.stats.setConnected(false)

	if closeErr != nil {
		return fmt.Errorf("failed to close USB device: %w", closeErr)
	}

	uc.logger.Info("USB connection closed successfully")
	return nil
}

// IsOpen returns whether the connection is open
func (uc *USBConnection) IsOpen() bool {
	uc.mutex.RLock()
	defer uc.mutex.RUnlock()
	return uc.isOpen && uc.device != nil && uc.outEndpt != nil
}

// Write writes data to the bulk OUT endpoint
func (uc *USBConnection) Write(ctx context.Context, data []byte) error {
	uc.mutex.RLock()
	defer uc.mutex.RUnlock()

	if !uc.isOpen || uc.outEndpt == nil {
		return fmt.Errorf("USB connection not open")
	}

	writeCtx := ctx
	if uc.config.Timeout > 0 {
		var cancel context.CancelFunc
		writeCtx, cancel = context.WithTimeout(ctx, uc.config.Timeout)
		defer cancel()
	}

	startTime := time.Now()
	n, err := uc.outEndpt.WriteContext(writeCtx, data)
	if err != nil {
		uc.stats.recordError()
		uc.logger.Error("USB write failed", zap.Error(err))
		return fmt.Errorf("failed to write to USB device: %w", err)
	}

	if n != len(data) {
		uc.stats.recordError()
		return fmt.Errorf("incomplete write: wrote %d of %d bytes", n, len(data))
	}

	uc.stats.recordWrite(len(data), time.Since(startTime))
	uc.logger.Debug("USB write completed", zap.Int("bytes", len(data)))
	return nil
}

// GetProtocolType returns the protocol type
func (uc *USBConnection) GetProtocolType() model.ConnectionType {
	return model.ConnectionTypeUSB
}

// DeviceID returns vendor:product of the device
func (uc *USBConnection) DeviceID() string {
	uc.mutex.RLock()
	defer uc.mutex.RUnlock()
	return uc.deviceID
}

// GetStats returns a snapshot of the link statistics
func (uc *USBConnection) GetStats() ProtocolStats {
	return uc.stats.snapshot()
}

// findAndOpenDevice opens the device named by deviceID or the first printer
func (uc *USBConnection) findAndOpenDevice(usbCtx *gousb.Context) (*gousb.Device, error) {
	var match func(desc *gousb.DeviceDesc) bool

	if uc.deviceID != "" {
		vendorID, productID, err := ParseUSBDeviceID(uc.deviceID)
		if err != nil {
			return nil, err
		}
		match = func(desc *gousb.DeviceDesc) bool {
			return desc.Vendor == vendorID && desc.Product == productID
		}
	} else {
		match = IsPrinterClass
	}

	devices, err := usbCtx.OpenDevices(match)
	if err != nil && len(devices) == 0 {
		return nil, fmt.Errorf("failed to enumerate USB devices: %w", err)
	}

	if len(devices) == 0 {
		if uc.deviceID != "" {
			return nil, fmt.Errorf("USB device %s not found", uc.deviceID)
		}
		return nil, fmt.Errorf("no USB printer found")
	}

	if len(devices) > 1 {
		for i := 1; i < len(devices); i++ {
			devices[i].Close()
		}
		uc.logger.Warn("Multiple matching USB devices found, using first one")
	}

	return devices[0], nil
}

// IsPrinterClass reports whether any interface of the device is a printer
func IsPrinterClass(desc *gousb.DeviceDesc) bool {
	if desc.Class == gousb.ClassPrinter {
		return true
	}
	for _, cfg := range desc.Configs {
		for _, intf := range cfg.Interfaces {
			for _, alt := range intf.AltSettings {
				if alt.Class == gousb.ClassPrinter {
					return true
				}
			}
		}
	}
	return false
}

// FormatUSBDeviceID joins vendor and product ids as "vvvv:pppp"
func FormatUSBDeviceID(vendorID, productID string) string {
	return strings.ToLower(trimHexPrefix(vendorID) + ":" + trimHexPrefix(productID))
}

// ParseUSBDeviceID splits "vvvv:pppp" into gousb ids
func ParseUSBDeviceID(deviceID string) (gousb.ID, gousb.ID, error) {
	vendor, product, ok := strings.Cut(deviceID, ":")
	if !ok {
		return 0, 0, fmt.Errorf("invalid USB device id %q, expected vvvv:pppp", deviceID)
	}

	vendorID, err := parseHexID(vendor)
	if err != nil {
		return 0, 0, fmt.Errorf("invalid vendor ID: %w", err)
	}
	productID, err := parseHexID(product)
	if err != nil {
		return 0, 0, fmt.Errorf("invalid product ID: %w", err)
	}
	return vendorID, productID, nil
}

// parseHexID parses hex ID string (0x1234 or 1234)
func parseHexID(hexStr string) (gousb.ID, error) {
	id, err := strconv.ParseUint(trimHexPrefix(hexStr), 16, 16)
	if err != nil {
		return 0, err
	}
	return gousb.ID(id), nil
}

func trimHexPrefix(s string) string {
	s = strings.TrimSpace(s)
	if len(s) > 2 && (s[:2] == "0x" || s[:2] == "0X") {
		return s[2:]
	}
	return s
}

// bulkOutEndpoint returns the first bulk OUT endpoint number of the setting
func bulkOutEndpoint(setting gousb.InterfaceSetting) int {
	for _, ep := range setting.Endpoints {
		if ep.Direction == gousb.EndpointDirectionOut && ep.TransferType == gousb.TransferTypeBulk {
			return ep.Number
		}
	}
	return 1
}
