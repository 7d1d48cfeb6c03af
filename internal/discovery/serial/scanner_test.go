package serial

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.bug.st/serial/enumerator"
	"go.uber.org/zap"

	"pos-service/internal/model"
)

func TestScanner_FiltersByPattern(t *testing.T) {
	s := NewScanner("/dev/rfcomm*", zap.NewNop()).WithPortLister(func() ([]*enumerator.PortDetails, error) {
		return []*enumerator.PortDetails{
			{Name: "/dev/ttyS0"},
			{Name: "/dev/rfcomm0"},
			{Name: "/dev/rfcomm1", IsUSB: true, VID: "0483", PID: "5740", Product: "POS58"},
		}, nil
	})

	printers, err := s.Scan(context.Background())
	require.NoError(t, err)
	require.Len(t, printers, 2)
	assert.Equal(t, "/dev/rfcomm0", printers[0].DeviceID)
	assert.Equal(t, model.ConnectionTypeSerial, printers[0].ConnectionType)
	assert.Equal(t, "POS58", printers[1].Name)
	assert.Equal(t, "0483", printers[1].Metadata["vendor_id"])
}
