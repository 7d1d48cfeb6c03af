// internal/protocol/factory.go
package protocol

import (
	"fmt"

	"github.com/go-ble/ble"
	"go.uber.org/zap"

	"pos-service/internal/model"
)

// CreateProtocol creates the link for the configured connection type. An
// empty deviceID lets the link discover a printer; a non-empty one targets
// exactly that device.
func CreateProtocol(cfg *LinkConfig, host *BluetoothHost, deviceID string, logger *zap.Logger) (DeviceProtocol, error) {
	if err := ValidateConfig(cfg); err != nil {
		return nil, err
	}

	switch cfg.Type {
	case model.ConnectionTypeBluetooth:
		if host == nil {
			return nil, fmt.Errorf("bluetooth host is required for %s links", cfg.Type)
		}
		logger.Info("Creating bluetooth protocol",
			zap.String("service_uuid", cfg.Bluetooth.ServiceUUID),
			zap.String("device_id", deviceID),
		)
		return NewBluetoothConnection(&cfg.Bluetooth, host, deviceID, logger), nil

	case model.ConnectionTypeSerial:
		logger.Info("Creating serial protocol",
			zap.String("port", firstNonEmpty(deviceID, cfg.Serial.Port)),
			zap.Int("baud_rate", cfg.Serial.BaudRate),
		)
		return NewSerialConnection(&cfg.Serial, deviceID, logger), nil

	case model.ConnectionTypeTCP:
		logger.Info("Creating TCP protocol",
			zap.String("host", cfg.TCP.Host),
			zap.Int("port", cfg.TCP.Port),
			zap.String("device_id", deviceID),
		)
		return NewTCPConnection(&cfg.TCP, deviceID, logger), nil

	case model.ConnectionTypeUSB:
		logger.Info("Creating USB protocol",
			zap.String("vendor_id", cfg.USB.VendorID),
			zap.String("product_id", cfg.USB.ProductID),
			zap.String("device_id", deviceID),
		)
		return NewUSBConnection(&cfg.USB, deviceID, logger), nil

	default:
		return nil, fmt.Errorf("unsupported protocol type: %s", cfg.Type)
	}
}

// ValidateConfig validates configuration for the selected link
func ValidateConfig(cfg *LinkConfig) error {
	if cfg == nil {
		return fmt.Errorf("link configuration is required")
	}

	switch cfg.Type {
	case model.ConnectionTypeBluetooth:
		return validateBluetoothConfig(&cfg.Bluetooth)
	case model.ConnectionTypeSerial:
		return validateSerialConfig(&cfg.Serial)
	case model.ConnectionTypeTCP:
		return validateTCPConfig(&cfg.TCP)
	case model.ConnectionTypeUSB:
		return validateUSBConfig(&cfg.USB)
	default:
		return fmt.Errorf("unsupported connection type: %s", cfg.Type)
	}
}

// validateBluetoothConfig validates Bluetooth configuration
func validateBluetoothConfig(cfg *BluetoothConfig) error {
	if _, err := ble.Parse(cfg.ServiceUUID); err != nil {
		return fmt.Errorf("invalid bluetooth service_uuid %q: %w", cfg.ServiceUUID, err)
	}
	if _, err := ble.Parse(cfg.CharacteristicUUID); err != nil {
		return fmt.Errorf("invalid bluetooth characteristic_uuid %q: %w", cfg.CharacteristicUUID, err)
	}
	return nil
}

// validateSerialConfig validates serial configuration
func validateSerialConfig(cfg *SerialConfig) error {
	validRates := []int{1200, 2400, 4800, 9600, 19200, 38400, 57600, 115200}
	for _, rate := range validRates {
		if cfg.BaudRate == rate {
			return nil
		}
	}
	return fmt.Errorf("invalid baud rate: %d", cfg.BaudRate)
}

// validateTCPConfig validates TCP configuration
func validateTCPConfig(cfg *TCPConfig) error {
	if cfg.Port != 0 && (cfg.Port < 1 || cfg.Port > 65535) {
		return fmt.Errorf("invalid port number: %d", cfg.Port)
	}
	return nil
}

// validateUSBConfig validates USB configuration
func validateUSBConfig(cfg *USBConfig) error {
	if (cfg.VendorID == "") != (cfg.ProductID == "") {
		return fmt.Errorf("USB vendor_id and product_id must be set together")
	}
	if cfg.VendorID != "" {
		if _, _, err := ParseUSBDeviceID(FormatUSBDeviceID(cfg.VendorID, cfg.ProductID)); err != nil {
			return err
		}
	}
	return nil
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
