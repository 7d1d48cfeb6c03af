// pkg/driver/types.go
package driver

import (
	"errors"
	"time"
)

// ErrNotConnected is returned by Send when no link is open
var ErrNotConnected = errors.New("printer link is not open")

// SendResult describes a completed delivery
type SendResult struct {
	DeviceID string        `json:"device_id"`
	Bytes    int           `json:"bytes"`
	Chunks   int           `json:"chunks"`
	Duration time.Duration `json:"duration"`
}

// HealthMetrics contains link health information
type HealthMetrics struct {
	HealthScore     int           `json:"health_score"` // 0-100
	ResponseTime    time.Duration `json:"response_time"`
	SuccessRate     float64       `json:"success_rate"` // 0.0-1.0
	ErrorCount      int64         `json:"error_count"`
	TotalOperations int64         `json:"total_operations"`
	BytesSent       int64         `json:"bytes_sent"`
	LastErrorTime   *time.Time    `json:"last_error_time,omitempty"`
	LastError       string        `json:"last_error,omitempty"`
	LastSuccessTime *time.Time    `json:"last_success_time,omitempty"`
	ConnectedSince  *time.Time    `json:"connected_since,omitempty"`
	Link            *LinkStats    `json:"link,omitempty"`
}

// LinkStats is the write accounting of the open link
type LinkStats struct {
	BytesWritten   int64         `json:"bytes_written"`
	Writes         int64         `json:"writes"`
	WriteErrors    int64         `json:"write_errors"`
	AverageLatency time.Duration `json:"average_latency"`
	LastActivity   time.Time     `json:"last_activity"`
}

// Record updates the metrics with the outcome of one operation
func (m *HealthMetrics) Record(success bool, responseTime time.Duration, err error) {
	now := time.Now()
	m.TotalOperations++
	m.ResponseTime = responseTime

	if success {
		m.LastSuccessTime = &now
	} else {
		m.ErrorCount++
		m.LastErrorTime = &now
		if err != nil {
			m.LastError = err.Error()
		}
	}

	m.SuccessRate = float64(m.TotalOperations-m.ErrorCount) / float64(m.TotalOperations)
	m.HealthScore = int(m.SuccessRate * 100)
	if responseTime > 5*time.Second {
		m.HealthScore -= 10
	}
	if m.HealthScore < 0 {
		m.HealthScore = 0
	}
}

// EventHandler handles transport events
type EventHandler interface {
	OnDeviceConnected(deviceID string)
	OnDeviceDisconnected(deviceID string, reason string)
	OnDeviceError(deviceID string, err error)
	OnSendCompleted(deviceID string, result *SendResult)
}
