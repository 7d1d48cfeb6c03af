// internal/protocol/bluetooth_host.go
package protocol

import (
	"fmt"
	"sync"

	"github.com/go-ble/ble"
	"github.com/go-ble/ble/linux"
	"go.uber.org/zap"
)

// BluetoothHost owns the local HCI controller. It is opened lazily on first
// use and registered as the default go-ble device.
type BluetoothHost struct {
	logger *zap.Logger
	once   sync.Once
	mutex  sync.Mutex
	device ble.Device
	err    error
}

// NewBluetoothHost creates a host handle without touching the controller
func NewBluetoothHost(logger *zap.Logger) *BluetoothHost {
	return &BluetoothHost{
		logger: logger.With(zap.String("component", "bluetooth_host")),
	}
}

// Init opens the controller once. Later calls return the first result.
func (h *BluetoothHost) Init() error {
	h.once.Do(func() {
		device, err := linux.NewDevice()
		if err != nil {
			h.err = fmt.Errorf("failed to open bluetooth controller: %w", err)
			h.logger.Warn("Bluetooth controller unavailable", zap.Error(err))
			return
		}

		ble.SetDefaultDevice(device)

		h.mutex.Lock()
		h.device = device
		h.mutex.Unlock()

		h.logger.Info("Bluetooth controller opened")
	})
	return h.err
}

// Available reports whether the host has a usable controller
func (h *BluetoothHost) Available() bool {
	return h.Init() == nil
}

// Stop releases the controller if it was opened
func (h *BluetoothHost) Stop() error {
	h.mutex.Lock()
	defer h.mutex.Unlock()

	if h.device == nil {
		return nil
	}
	if err := h.device.Stop(); err != nil {
		return fmt.Errorf("failed to stop bluetooth controller: %w", err)
	}
	h.device = nil
	h.logger.Info("Bluetooth controller stopped")
	return nil
}
