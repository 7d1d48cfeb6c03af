// internal/protocol/bluetooth_connection.go
package protocol

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/go-ble/ble"
	"go.uber.org/zap"

	"pos-service/internal/model"
)

// attHeaderSize is subtracted from the negotiated MTU to get the payload size
// of a single characteristic write.
const (
	attHeaderSize  = 3
	defaultBLEMTU  = 23
	maxRequestMTU  = 512
	defaultTimeout = 10 * time.Second
)

// BluetoothConnection implements DeviceProtocol over a BLE GATT characteristic
type BluetoothConnection struct {
	config   *BluetoothConfig
	host     *BluetoothHost
	address  string
	client   ble.Client
	char     *ble.Characteristic
	fragment int
	noRsp    bool
	logger   *zap.Logger
	mutex    sync.RWMutex
	isOpen   bool
	stats    statsRecorder
}

// NewBluetoothConnection creates a BLE link. An empty address connects to the
// first peripheral advertising the configured service.
func NewBluetoothConnection(config *BluetoothConfig, host *BluetoothHost, address string, logger *zap.Logger) DeviceProtocol {
	return &BluetoothConnection{
		config:  config,
		host:    host,
		address: address,
		logger: logger.With(
			zap.String("protocol", "bluetooth"),
			zap.String("address", address),
		),
	}
}

// Open connects to the peripheral and resolves the writable characteristic
func (bc *BluetoothConnection) Open(ctx context.Context) error {
	bc.mutex.Lock()
	defer bc.mutex.Unlock()

	if bc.isOpen {
		return nil
	}

	if err := bc.host.Init(); err != nil {
		return err
	}

	serviceUUID, err := ble.Parse(bc.config.ServiceUUID)
	if err != nil {
		return fmt.Errorf("invalid service uuid %q: %w", bc.config.ServiceUUID, err)
	}
	charUUID, err := ble.Parse(bc.config.CharacteristicUUID)
	if err != nil {
		return fmt.Errorf("invalid characteristic uuid %q: %w", bc.config.CharacteristicUUID, err)
	}

	client, err := bc.connect(ctx, serviceUUID)
	if err != nil {
		return err
	}

	char, err := bc.resolveCharacteristic(client, serviceUUID, charUUID)
	if err != nil {
		client.CancelConnection()
		return err
	}

	bc.client = client
	bc.char = char
	bc.address = client.Addr().String()
	bc.fragment = bc.negotiateFragmentSize(client)
	bc.noRsp = bc.config.WriteWithoutResponse && char.Property&ble.CharWriteNR != 0
	bc.isOpen = true
	bc.stats.setConnected(true)

	go bc.watchDisconnect(client)

	bc.logger.Info("Bluetooth printer connected",
		zap.String("address", bc.address),
		zap.Int("fragment_size", bc.fragment),
		zap.Bool("write_without_response", bc.noRsp),
	)
	return nil
}

// connect either dials the remembered address or scans for the service
func (bc *BluetoothConnection) connect(ctx context.Context, serviceUUID ble.UUID) (ble.Client, error) {
	if bc.address != "" {
		dialCtx, cancel := context.WithTimeout(ctx, durationOr(bc.config.ConnectTimeout, defaultTimeout))
		defer cancel()

		bc.logger.Info("Dialing bluetooth printer", zap.String("address", bc.address))
		client, err := ble.Dial(dialCtx, ble.NewAddr(bc.address))
		if err != nil {
			return nil, fmt.Errorf("failed to dial %s: %w", bc.address, err)
		}
		return client, nil
	}

	scanCtx, cancel := context.WithTimeout(ctx, durationOr(bc.config.ScanTimeout, defaultTimeout))
	defer cancel()

	bc.logger.Info("Scanning for bluetooth printer", zap.String("service_uuid", serviceUUID.String()))
	client, err := ble.Connect(scanCtx, func(a ble.Advertisement) bool {
		return MatchesAdvertisement(a, serviceUUID, bc.config.NamePrefix)
	})
	if err != nil {
		return nil, fmt.Errorf("no printer advertising %s found: %w", serviceUUID.String(), err)
	}
	return client, nil
}

func (bc *BluetoothConnection) resolveCharacteristic(client ble.Client, serviceUUID, charUUID ble.UUID) (*ble.Characteristic, error) {
	services, err := client.DiscoverServices([]ble.UUID{serviceUUID})
	if err != nil {
		return nil, fmt.Errorf("failed to discover services: %w", err)
	}

	for _, svc := range services {
		if !svc.UUID.Equal(serviceUUID) {
			continue
		}

		chars, err := client.DiscoverCharacteristics([]ble.UUID{charUUID}, svc)
		if err != nil {
			return nil, fmt.Errorf("failed to discover characteristics: %w", err)
		}
		for _, c := range chars {
			if c.UUID.Equal(charUUID) {
				return c, nil
			}
		}
	}

	return nil, fmt.Errorf("characteristic %s not found in service %s", charUUID.String(), serviceUUID.String())
}

func (bc *BluetoothConnection) negotiateFragmentSize(client ble.Client) int {
	requested := bc.config.MTU
	if requested <= 0 {
		return defaultBLEMTU - attHeaderSize
	}
	if requested > maxRequestMTU {
		requested = maxRequestMTU
	}

	mtu, err := client.ExchangeMTU(requested)
	if err != nil || mtu < defaultBLEMTU {
		bc.logger.Debug("MTU exchange failed, using default", zap.Error(err))
		return defaultBLEMTU - attHeaderSize
	}
	return mtu - attHeaderSize
}

func (bc *BluetoothConnection) watchDisconnect(client ble.Client) {
	<-client.Disconnected()

	bc.mutex.Lock()
	defer bc.mutex.Unlock()

	if bc.client != client {
		return
	}
	bc.client = nil
	bc.char = nil
	bc.isOpen = false
	bc.stats.setConnected(false)

	bc.logger.Warn("Bluetooth printer dropped the connection")
}

// Close tears down the GATT session
func (bc *BluetoothConnection) Close() error {
	bc.mutex.Lock()
	defer bc.mutex.Unlock()

	if !bc.isOpen || bc.client == nil {
		return nil
	}

	client := bc.client
	bc.client = nil
	bc.char = nil
	bc.isOpen = false
	bc.stats.setConnected(false)

	if err := client.CancelConnection(); err != nil {
		bc.logger.Error("Failed to cancel bluetooth connection", zap.Error(err))
		return fmt.Errorf("failed to close bluetooth connection: %w", err)
	}

	bc.logger.Info("Bluetooth connection closed")
	return nil
}

// IsOpen returns whether the connection is open
func (bc *BluetoothConnection) IsOpen() bool {
	bc.mutex.RLock()
	defer bc.mutex.RUnlock()
	return bc.isOpen && bc.client != nil
}

// Write sends data to the characteristic in MTU sized fragments
func (bc *BluetoothConnection) Write(ctx context.Context, data []byte) error {
	bc.mutex.RLock()
	defer bc.mutex.RUnlock()

	if !bc.isOpen || bc.client == nil || bc.char == nil {
		return fmt.Errorf("bluetooth connection not open")
	}

	startTime := time.Now()
	for offset := 0; offset < len(data); offset += bc.fragment {
		end := offset + bc.fragment
		if end > len(data) {
			end = len(data)
		}

		if err := bc.client.WriteCharacteristic(bc.char, data[offset:end], bc.noRsp); err != nil {
			bc.stats.recordError()
			bc.logger.Error("Bluetooth write failed", zap.Int("offset", offset), zap.Error(err))
			return fmt.Errorf("failed to write characteristic at offset %d: %w", offset, err)
		}
	}

	bc.stats.recordWrite(len(data), time.Since(startTime))
	bc.logger.Debug("Bluetooth write completed", zap.Int("bytes", len(data)))
	return nil
}

// GetProtocolType returns the protocol type
func (bc *BluetoothConnection) GetProtocolType() model.ConnectionType {
	return model.ConnectionTypeBluetooth
}

// DeviceID returns the peripheral address
func (bc *BluetoothConnection) DeviceID() string {
	bc.mutex.RLock()
	defer bc.mutex.RUnlock()
	return bc.address
}

// GetStats returns a snapshot of the link statistics
func (bc *BluetoothConnection) GetStats() ProtocolStats {
	return bc.stats.snapshot()
}

// MatchesAdvertisement reports whether an advertisement looks like the target
// printer: it lists the service or its local name starts with namePrefix.
func MatchesAdvertisement(a ble.Advertisement, serviceUUID ble.UUID, namePrefix string) bool {
	if ble.Contains(a.Services(), serviceUUID) {
		return true
	}
	return namePrefix != "" && strings.HasPrefix(a.LocalName(), namePrefix)
}

func durationOr(d, fallback time.Duration) time.Duration {
	if d <= 0 {
		return fallback
	}
	return d
}
