// pkg/driver/interfaces.go
package driver

import (
	"context"

	"pos-service/internal/model"
)

// Transport delivers composed receipt bytes to a single printer. At most one
// link is open at a time.
type Transport interface {
	// Platform probe
	IsSupported() bool

	// Connection management
	Connect(ctx context.Context, deviceID string) error
	Reconnect(ctx context.Context, deviceID string) error
	Disconnect(ctx context.Context) error
	IsConnected() bool

	// Device information
	DeviceID() string
	ConnectionType() model.ConnectionType

	// Delivery
	Send(ctx context.Context, data []byte) (*SendResult, error)

	// Health and monitoring
	GetHealthMetrics() *HealthMetrics

	// Event handling
	SetEventHandler(handler EventHandler)
}
