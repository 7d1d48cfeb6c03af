package protocol

import (
	"context"
	"io"
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestTCPConnection_WriteRecordsStats(t *testing.T) {
	listener, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	defer listener.Close()

	received := make(chan []byte, 1)
	go func() {
		conn, err := listener.Accept()
		if err != nil {
			return
		}
		defer conn.Close()
		data, _ := io.ReadAll(conn)
		received <- data
	}()

	link := NewTCPConnection(&TCPConfig{Timeout: time.Second}, listener.Addr().String(), zap.NewNop())
	ctx := context.Background()

	require.NoError(t, link.Open(ctx))
	assert.True(t, link.GetStats().IsConnected)

	require.NoError(t, link.Write(ctx, []byte{0x1b, 0x40}))
	require.NoError(t, link.Write(ctx, []byte("Kue\n")))

	stats := link.GetStats()
	assert.Equal(t, int64(6), stats.BytesWritten)
	assert.Equal(t, int64(2), stats.OperationCount)
	assert.Zero(t, stats.ErrorCount)
	assert.False(t, stats.LastActivity.IsZero())

	require.NoError(t, link.Close())
	assert.False(t, link.GetStats().IsConnected)
	assert.Error(t, link.Write(ctx, []byte("x")))

	select {
	case data := <-received:
		assert.Equal(t, []byte("\x1b@Kue\n"), data)
	case <-time.After(2 * time.Second):
		t.Fatal("listener received nothing")
	}
}
