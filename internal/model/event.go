// internal/model/event.go
package model

import (
	"time"

	"github.com/google/uuid"
)

// EventType represents the type of printer event
type EventType string

const (
	EventPrinterConnected        EventType = "PRINTER_CONNECTED"
	EventPrinterDisconnected     EventType = "PRINTER_DISCONNECTED"
	EventPrinterConnectionFailed EventType = "PRINTER_CONNECTION_FAILED"
	EventPrintCompleted          EventType = "PRINT_COMPLETED"
	EventPrintFailed             EventType = "PRINT_FAILED"
	EventStatusChange            EventType = "STATUS_CHANGE"
	EventLinkError               EventType = "LINK_ERROR"
)

// Event severities
const (
	SeverityInfo    = "INFO"
	SeverityWarning = "WARNING"
	SeverityError   = "ERROR"
)

// PrinterEvent is broadcast to websocket subscribers
type PrinterEvent struct {
	ID        uuid.UUID    `json:"id"`
	EventType EventType    `json:"event_type"`
	DeviceID  string       `json:"device_id,omitempty"`
	State     PrinterState `json:"state"`
	Data      JSONObject   `json:"data,omitempty"`
	Timestamp time.Time    `json:"timestamp"`
	Source    string       `json:"source"`
	Severity  string       `json:"severity"`
}

// NewPrinterEvent creates an event stamped with a fresh id and the current time
func NewPrinterEvent(eventType EventType, deviceID string, state PrinterState, severity string, data JSONObject) *PrinterEvent {
	return &PrinterEvent{
		ID:        uuid.New(),
		EventType: eventType,
		DeviceID:  deviceID,
		State:     state,
		Data:      data,
		Timestamp: time.Now(),
		Source:    "printer-service",
		Severity:  severity,
	}
}
