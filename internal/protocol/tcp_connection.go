// internal/protocol/tcp_connection.go
package protocol

import (
	"context"
	"fmt"
	"net"
	"strconv"
	"sync"
	"time"

	"go.uber.org/zap"

	"pos-service/internal/model"
)

// DefaultRawPrintPort is the JetDirect raw printing port
const DefaultRawPrintPort = 9100

// TCPConnection implements DeviceProtocol for network printers
type TCPConnection struct {
	config  *TCPConfig
	address string
	conn    net.Conn
	logger  *zap.Logger
	mutex   sync.RWMutex
	isOpen  bool
	stats   statsRecorder
}

// NewTCPConnection creates a new TCP connection. An empty address uses the
// configured host and port.
func NewTCPConnection(config *TCPConfig, address string, logger *zap.Logger) DeviceProtocol {
	if address == "" {
		port := config.Port
		if port == 0 {
			port = DefaultRawPrintPort
		}
		address = net.JoinHostPort(config.Host, strconv.Itoa(port))
	}
	return &TCPConnection{
		config:  config,
		address: address,
		logger: logger.With(
			zap.String("protocol", "tcp"),
			zap.String("address", address),
		),
	}
}

// Open opens the TCP connection
func (tc *TCPConnection) Open(ctx context.Context) error {
	tc.mutex.Lock()
	defer tc.mutex.Unlock()

	if tc.isOpen {
		return nil
	}

	tc.logger.Info("Opening TCP connection", zap.String("address", tc.address))

	dialer := &net.Dialer{
		Timeout: durationOr(tc.config.Timeout, defaultTimeout),
	}
	if tc.config.KeepAlive {
		dialer.KeepAlive = 30 * time.Second
	}

	conn, err := dialer.DialContext(ctx, "tcp", tc.address)
	if err != nil {
		tc.logger.Error("Failed to open TCP connection", zap.Error(err))
		return fmt.Errorf("failed to connect to %s: %w", tc.address, err)
	}

	tc.conn = conn
	tc.isOpen = true
	tc.stats.setConnected(true)

	tc.logger.Info("TCP connection opened successfully")
	return nil
}

// Close closes the TCP connection
func (tc *TCPConnection) Close() error {
	tc.mutex.Lock()
	defer tc.mutex.Unlock()

	if !tc.isOpen || tc.conn == nil {
		return nil
	}

	conn := tc.conn
	tc.conn = nil
	tc.isOpen = false
	tc.stats.setConnected(false)

	if err := conn.Close(); err != nil {
		tc.logger.Error("Failed to close TCP connection", zap.Error(err))
		return fmt.Errorf("failed to close TCP connection: %w", err)
	}

	tc.logger.Info("TCP connection closed successfully")
	return nil
}

// IsOpen returns whether the connection is open
func (tc *TCPConnection) IsOpen() bool {
	tc.mutex.RLock()
	defer tc.mutex.RUnlock()
	return tc.isOpen && tc.conn != nil
}

// Write writes data to the TCP connection
func (tc *TCPConnection) Write(ctx context.Context, data []byte) error {
	tc.mutex.RLock()
	defer tc.mutex.RUnlock()

	if !tc.isOpen || tc.conn == nil {
		return fmt.Errorf("TCP connection not open")
	}

	if tc.config.WriteTimeout > 0 {
		tc.conn.SetWriteDeadline(time.Now().Add(tc.config.WriteTimeout))
	}

	startTime := time.Now()
	n, err := tc.conn.Write(data)
	if err != nil {
		tc.stats.recordError()
		tc.logger.Error("TCP write failed", zap.Error(err))
		return fmt.Errorf("failed to write to TCP connection: %w", err)
	}

	if n != len(data) {
		tc.stats.recordError()
		return fmt.Errorf("incomplete write: wrote %d of %d bytes", n, len(data))
	}

	tc.stats.recordWrite(len(data), time.Since(startTime))
	tc.logger.Debug("TCP write completed", zap.Int("bytes", len(data)))
	return nil
}

// GetProtocolType returns the protocol type
func (tc *TCPConnection) GetProtocolType() model.ConnectionType {
	return model.ConnectionTypeTCP
}

// DeviceID returns host:port
func (tc *TCPConnection) DeviceID() string {
	return tc.address
}

// GetStats returns a snapshot of the link statistics
func (tc *TCPConnection) GetStats() ProtocolStats {
	return tc.stats.snapshot()
}
