package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pos-service/internal/model"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoadFrom_Defaults(t *testing.T) {
	path := writeConfig(t, "store:\n  name: Toko Roti\n")

	cfg, err := LoadFrom(path)
	require.NoError(t, err)

	assert.Equal(t, "Toko Roti", cfg.Store.Name)
	assert.Equal(t, 32, cfg.Receipt.Width)
	assert.Equal(t, "02/01/2006 15:04:05", cfg.Receipt.TimestampLayout)
	assert.Equal(t, 256, cfg.Printer.ChunkSize)
	assert.Equal(t, 150*time.Millisecond, cfg.Printer.ChunkDelay)
	assert.Equal(t, PairingMemory, cfg.Pairing.Persistence)
	assert.False(t, cfg.Database.Enabled)

	link := cfg.LinkConfig()
	assert.Equal(t, model.ConnectionTypeBluetooth, link.Type)
	assert.Equal(t, cfg.Printer.ServiceUUID, link.Bluetooth.ServiceUUID)
}

func TestLoadFrom_EnvOverride(t *testing.T) {
	path := writeConfig(t, "printer:\n  chunk_size: 200\n")
	t.Setenv("POS_SERVICE_PRINTER_CHUNK_SIZE", "128")

	cfg, err := LoadFrom(path)
	require.NoError(t, err)
	assert.Equal(t, 128, cfg.Printer.ChunkSize)
}

func TestLoadFrom_Validation(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"chunk size too small", "printer:\n  chunk_size: 64\n"},
		{"chunk size too large", "printer:\n  chunk_size: 512\n"},
		{"chunk delay too short", "printer:\n  chunk_delay: 50ms\n"},
		{"chunk delay too long", "printer:\n  chunk_delay: 1s\n"},
		{"unknown connection type", "printer:\n  connection_type: infrared\n"},
		{"unknown pairing policy", "pairing:\n  persistence: cloud\n"},
		{"bad timezone", "receipt:\n  timezone: Mars/Olympus\n"},
		{"bad log level", "logging:\n  level: loud\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := LoadFrom(writeConfig(t, tt.body))
			assert.Error(t, err)
		})
	}
}

func TestConfig_StoreProfile(t *testing.T) {
	path := writeConfig(t, `
store:
  name: Toko Roti
  address_lines: ["Jl. Mawar 1", "Bandung"]
  phone: "0812"
  feedback: ["a", "b"]
`)
	cfg, err := LoadFrom(path)
	require.NoError(t, err)

	store := cfg.StoreProfile()
	assert.Equal(t, "Toko Roti", store.Name)
	assert.Equal(t, []string{"Jl. Mawar 1", "Bandung"}, store.AddressLines)
	assert.Equal(t, "0812", store.PhoneNumber)
	assert.Equal(t, []string{"a", "b"}, store.FeedbackLines)
	assert.Equal(t, "Thank you!", store.ClosingLine)
	assert.Equal(t, "Asia/Jakarta", cfg.Location().String())
}
