// internal/model/device.go
package model

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// ConnectionType represents how the printer is connected
type ConnectionType string

const (
	ConnectionTypeSerial    ConnectionType = "SERIAL"
	ConnectionTypeUSB       ConnectionType = "USB"
	ConnectionTypeTCP       ConnectionType = "TCP"
	ConnectionTypeBluetooth ConnectionType = "BLUETOOTH"
)

// ParseConnectionType accepts the configured link name in any case
func ParseConnectionType(s string) (ConnectionType, error) {
	switch ConnectionType(strings.ToUpper(strings.TrimSpace(s))) {
	case ConnectionTypeSerial:
		return ConnectionTypeSerial, nil
	case ConnectionTypeUSB:
		return ConnectionTypeUSB, nil
	case ConnectionTypeTCP:
		return ConnectionTypeTCP, nil
	case ConnectionTypeBluetooth, "BLE":
		return ConnectionTypeBluetooth, nil
	default:
		return "", fmt.Errorf("unsupported connection type: %q", s)
	}
}

// PrinterState is the connection state of the printer service
type PrinterState string

const (
	PrinterStateDisconnected PrinterState = "DISCONNECTED"
	PrinterStateConnecting   PrinterState = "CONNECTING"
	PrinterStateConnected    PrinterState = "CONNECTED"
)

// PairedDevice is the last printer the service connected to
type PairedDevice struct {
	DeviceID       string         `json:"device_id"`
	ConnectionType ConnectionType `json:"connection_type"`
	PairedAt       time.Time      `json:"paired_at"`
}

// DiscoveredPrinter is a printer found by a discovery scan
type DiscoveredPrinter struct {
	DeviceID       string         `json:"device_id"`
	Name           string         `json:"name"`
	ConnectionType ConnectionType `json:"connection_type"`
	RSSI           *int           `json:"rssi,omitempty"`
	Metadata       JSONObject     `json:"metadata,omitempty"`
	DiscoveredAt   time.Time      `json:"discovered_at"`
}

// JSONObject type for PostgreSQL JSONB objects
type JSONObject map[string]interface{}

func (j *JSONObject) Scan(value interface{}) error {
	if value == nil {
		*j = nil
		return nil
	}
	bytes, ok := value.([]byte)
	if !ok {
		return fmt.Errorf("unexpected JSONB type %T", value)
	}
	return json.Unmarshal(bytes, j)
}

func (j JSONObject) Value() (driver.Value, error) {
	if j == nil {
		return nil, nil
	}
	return json.Marshal(j)
}
