// internal/protocol/serial_connection.go
package protocol

import (
	"context"
	"fmt"
	"path/filepath"
	"sync"
	"time"

	"go.bug.st/serial"
	"go.bug.st/serial/enumerator"
	"go.uber.org/zap"

	"pos-service/internal/model"
)

// SerialConnection implements DeviceProtocol for serial and RFCOMM ports
type SerialConnection struct {
	config   *SerialConfig
	portName string
	port     serial.Port
	logger   *zap.Logger
	mutex    sync.RWMutex
	isOpen   bool
	stats    statsRecorder
}

// NewSerialConnection creates a new serial connection. An empty portName
// falls back to the configured port, then to the first enumerated port that
// matches the configured pattern.
func NewSerialConnection(config *SerialConfig, portName string, logger *zap.Logger) DeviceProtocol {
	if portName == "" {
		portName = config.Port
	}
	return &SerialConnection{
		config:   config,
		portName: portName,
		logger: logger.With(
			zap.String("protocol", "serial"),
			zap.String("port", portName),
		),
	}
}

// Open opens the serial connection
func (sc *SerialConnection) Open(ctx context.Context) error {
	sc.mutex.Lock()
	defer sc.mutex.Unlock()

	if sc.isOpen {
		return nil
	}

	if sc.portName == "" {
		name, err := FindSerialPort(sc.config.PortPattern)
		if err != nil {
			return err
		}
		sc.portName = name
	}

	sc.logger.Info("Opening serial port",
		zap.String("port", sc.portName),
		zap.Int("baud_rate", sc.config.BaudRate),
	)

	mode := &serial.Mode{
		BaudRate: sc.config.BaudRate,
		DataBits: sc.config.DataBits,
		StopBits: serialStopBits(sc.config.StopBits),
		Parity:   serialParity(sc.config.Parity),
	}

	port, err := serial.Open(sc.portName, mode)
	if err != nil {
		sc.logger.Error("Failed to open serial port", zap.Error(err))
		return fmt.Errorf("failed to open serial port %s: %w", sc.portName, err)
	}

	if sc.config.Timeout > 0 {
		if err := port.SetReadTimeout(sc.config.Timeout); err != nil {
			port.Close()
			return fmt.Errorf("failed to set read timeout: %w", err)
		}
	}

	sc.port = port
	sc.isOpen = true
	sc.stats.setConnected(true)

	sc.logger.Info("Serial port opened successfully")
	return nil
}

// Close closes the serial connection
func (sc *SerialConnection) Close() error {
	sc.mutex.Lock()
	defer sc.mutex.Unlock()

	if !sc.isOpen || sc.port == nil {
		return nil
	}

	port := sc.port
	sc.port = nil
	sc.isOpen = false
	sc.stats.setConnected(false)

	if err := port.Close(); err != nil {
		sc.logger.Error("Failed to close serial port", zap.Error(err))
		return fmt.Errorf("failed to close serial port: %w", err)
	}

	sc.logger.Info("Serial port closed successfully")
	return nil
}

// IsOpen returns whether the connection is open
func (sc *SerialConnection) IsOpen() bool {
	sc.mutex.RLock()
	defer sc.mutex.RUnlock()
	return sc.isOpen && sc.port != nil
}

// Write writes data to the serial port
func (sc *SerialConnection) Write(ctx context.Context, data []byte) error {
	sc.mutex.RLock()
	defer sc.mutex.RUnlock()

	if !sc.isOpen || sc.port == nil {
		return fmt.Errorf("serial port not open")
	}

	startTime := time.Now()
	n, err := sc.port.Write(data)
	if err != nil {
		sc.stats.recordError()
		sc.logger.Error("Serial write failed", zap.Error(err))
		return fmt.Errorf("failed to write to serial port: %w", err)
	}

	if n != len(data) {
		sc.stats.recordError()
		return fmt.Errorf("incomplete write: wrote %d of %d bytes", n, len(data))
	}

	if err := sc.port.Drain(); err != nil {
		sc.logger.Debug("Serial drain failed", zap.Error(err))
	}

	sc.stats.recordWrite(len(data), time.Since(startTime))
	sc.logger.Debug("Serial write completed", zap.Int("bytes", len(data)))
	return nil
}

// GetProtocolType returns the protocol type
func (sc *SerialConnection) GetProtocolType() model.ConnectionType {
	return model.ConnectionTypeSerial
}

// DeviceID returns the port name
func (sc *SerialConnection) DeviceID() string {
	sc.mutex.RLock()
	defer sc.mutex.RUnlock()
	return sc.portName
}

// GetStats returns a snapshot of the link statistics
func (sc *SerialConnection) GetStats() ProtocolStats {
	return sc.stats.snapshot()
}

// FindSerialPort returns the first enumerated port whose name matches pattern.
// An empty pattern matches any port.
func FindSerialPort(pattern string) (string, error) {
	ports, err := enumerator.GetDetailedPortsList()
	if err != nil {
		return "", fmt.Errorf("failed to enumerate serial ports: %w", err)
	}

	for _, p := range ports {
		if MatchPortPattern(pattern, p.Name) {
			return p.Name, nil
		}
	}
	return "", fmt.Errorf("no serial port matches %q", pattern)
}

// MatchPortPattern applies a shell glob to a port name
func MatchPortPattern(pattern, name string) bool {
	if pattern == "" {
		return true
	}
	ok, err := filepath.Match(pattern, name)
	return err == nil && ok
}

func serialStopBits(bits int) serial.StopBits {
	if bits == 2 {
		return serial.TwoStopBits
	}
	return serial.OneStopBit
}

func serialParity(parity string) serial.Parity {
	switch parity {
	case "odd":
		return serial.OddParity
	case "even":
		return serial.EvenParity
	default:
		return serial.NoParity
	}
}
