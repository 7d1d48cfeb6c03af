package discovery

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"pos-service/internal/model"
)

type stubScanner struct {
	kind      model.ConnectionType
	available bool
	printers  []*model.DiscoveredPrinter
	err       error
}

func (s *stubScanner) Scan(ctx context.Context) ([]*model.DiscoveredPrinter, error) {
	return s.printers, s.err
}

func (s *stubScanner) GetScannerType() model.ConnectionType { return s.kind }
func (s *stubScanner) IsAvailable() bool                    { return s.available }

func rssi(v int) *int { return &v }

func TestScannerManager_ScanAll(t *testing.T) {
	sm := NewScannerManager(zap.NewNop())
	sm.RegisterScanner(&stubScanner{
		kind:      model.ConnectionTypeBluetooth,
		available: true,
		printers: []*model.DiscoveredPrinter{
			{DeviceID: "weak", ConnectionType: model.ConnectionTypeBluetooth, RSSI: rssi(-90)},
			{DeviceID: "strong", ConnectionType: model.ConnectionTypeBluetooth, RSSI: rssi(-40)},
		},
	})
	sm.RegisterScanner(&stubScanner{
		kind:      model.ConnectionTypeSerial,
		available: true,
		err:       errors.New("permission denied"),
	})
	sm.RegisterScanner(&stubScanner{
		kind:     model.ConnectionTypeUSB,
		printers: []*model.DiscoveredPrinter{{DeviceID: "04b8:0202"}},
	})

	printers, err := sm.ScanAll(context.Background())
	require.NoError(t, err)
	require.Len(t, printers, 2)
	assert.Equal(t, "strong", printers[0].DeviceID)
	assert.Equal(t, "weak", printers[1].DeviceID)

	assert.Equal(t, []model.ConnectionType{model.ConnectionTypeBluetooth, model.ConnectionTypeSerial}, sm.GetAvailableScanners())
}

func TestScannerManager_ScanByType(t *testing.T) {
	sm := NewScannerManager(zap.NewNop())
	sm.RegisterScanner(&stubScanner{kind: model.ConnectionTypeUSB})

	_, err := sm.ScanByType(context.Background(), model.ConnectionTypeTCP)
	assert.Error(t, err)

	_, err = sm.ScanByType(context.Background(), model.ConnectionTypeUSB)
	assert.Error(t, err)
}
