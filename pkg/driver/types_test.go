package driver

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestHealthMetrics_Record(t *testing.T) {
	m := &HealthMetrics{}

	m.Record(true, 100*time.Millisecond, nil)
	assert.Equal(t, int64(1), m.TotalOperations)
	assert.Equal(t, 100, m.HealthScore)
	assert.NotNil(t, m.LastSuccessTime)

	m.Record(false, 6*time.Second, errors.New("write failed"))
	assert.Equal(t, int64(2), m.TotalOperations)
	assert.Equal(t, int64(1), m.ErrorCount)
	assert.InDelta(t, 0.5, m.SuccessRate, 0.0001)
	assert.Equal(t, 40, m.HealthScore)
	assert.Equal(t, "write failed", m.LastError)
	assert.NotNil(t, m.LastErrorTime)
}
