// internal/protocol/connection.go
package protocol

import (
	"time"

	"pos-service/internal/model"
)

// Default GATT identifiers of the common 58mm BLE thermal printers
const (
	DefaultServiceUUID        = "000018f0-0000-1000-8000-00805f9b34fb"
	DefaultCharacteristicUUID = "00002af1-0000-1000-8000-00805f9b34fb"
)

// LinkConfig selects and configures the printer link
type LinkConfig struct {
	Type      model.ConnectionType
	Bluetooth BluetoothConfig
	Serial    SerialConfig
	TCP       TCPConfig
	USB       USBConfig
}

// BluetoothConfig represents BLE GATT connection configuration
type BluetoothConfig struct {
	ServiceUUID          string        `json:"service_uuid"`
	CharacteristicUUID   string        `json:"characteristic_uuid"`
	NamePrefix           string        `json:"name_prefix"`
	ScanTimeout          time.Duration `json:"scan_timeout"`
	ConnectTimeout       time.Duration `json:"connect_timeout"`
	WriteWithoutResponse bool          `json:"write_without_response"`
	MTU                  int           `json:"mtu"`
}

// SerialConfig represents serial connection configuration. Bluetooth Classic
// printers bound to /dev/rfcomm* use this link.
type SerialConfig struct {
	Port        string        `json:"port"`
	PortPattern string        `json:"port_pattern"`
	BaudRate    int           `json:"baud_rate"`
	DataBits    int           `json:"data_bits"`
	StopBits    int           `json:"stop_bits"`
	Parity      string        `json:"parity"`
	Timeout     time.Duration `json:"timeout"`
}

// USBConfig represents USB connection configuration
type USBConfig struct {
	VendorID  string        `json:"vendor_id"`
	ProductID string        `json:"product_id"`
	Interface int           `json:"interface"`
	Endpoint  int           `json:"endpoint"`
	Timeout   time.Duration `json:"timeout"`
}

// TCPConfig represents raw TCP (port 9100) connection configuration
type TCPConfig struct {
	Host         string        `json:"host"`
	Port         int           `json:"port"`
	KeepAlive    bool          `json:"keep_alive"`
	Timeout      time.Duration `json:"timeout"`
	WriteTimeout time.Duration `json:"write_timeout"`
}
