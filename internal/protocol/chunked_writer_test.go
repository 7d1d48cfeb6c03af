package protocol

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type recordingLink struct {
	writes [][]byte
	failAt int
	err    error
}

func (l *recordingLink) Write(ctx context.Context, data []byte) error {
	if l.err != nil && len(l.writes) == l.failAt {
		return l.err
	}
	chunk := make([]byte, len(data))
	copy(chunk, data)
	l.writes = append(l.writes, chunk)
	return nil
}

type recordingSleeper struct {
	calls []time.Duration
}

func (s *recordingSleeper) sleep(d time.Duration) {
	s.calls = append(s.calls, d)
}

func TestChunkedWriter_SplitsAndPaces(t *testing.T) {
	link := &recordingLink{}
	sleeper := &recordingSleeper{}
	w := NewChunkedWriter(128, 150*time.Millisecond, zap.NewNop(), WithSleeper(sleeper.sleep))

	data := make([]byte, 300)
	for i := range data {
		data[i] = byte(i)
	}

	report, err := w.Send(context.Background(), link, data)
	require.NoError(t, err)

	require.Len(t, link.writes, 3)
	assert.Len(t, link.writes[0], 128)
	assert.Len(t, link.writes[1], 128)
	assert.Len(t, link.writes[2], 44)
	assert.Equal(t, data[256:], link.writes[2])

	assert.Equal(t, []time.Duration{150 * time.Millisecond, 150 * time.Millisecond}, sleeper.calls)
	assert.Equal(t, 3, report.Chunks)
	assert.Equal(t, 300, report.Bytes)
}

func TestChunkedWriter_SingleChunkHasNoDelay(t *testing.T) {
	link := &recordingLink{}
	sleeper := &recordingSleeper{}
	w := NewChunkedWriter(256, 150*time.Millisecond, zap.NewNop(), WithSleeper(sleeper.sleep))

	_, err := w.Send(context.Background(), link, make([]byte, 256))
	require.NoError(t, err)

	assert.Len(t, link.writes, 1)
	assert.Empty(t, sleeper.calls)
}

func TestChunkedWriter_EmptyBuffer(t *testing.T) {
	link := &recordingLink{}
	w := NewChunkedWriter(128, time.Millisecond, zap.NewNop(), WithSleeper(func(time.Duration) {}))

	report, err := w.Send(context.Background(), link, nil)
	require.NoError(t, err)

	assert.Empty(t, link.writes)
	assert.Zero(t, report.Chunks)
}

func TestChunkedWriter_StopsOnFailure(t *testing.T) {
	writeErr := errors.New("gatt write rejected")
	link := &recordingLink{failAt: 1, err: writeErr}
	sleeper := &recordingSleeper{}
	w := NewChunkedWriter(128, 100*time.Millisecond, zap.NewNop(), WithSleeper(sleeper.sleep))

	report, err := w.Send(context.Background(), link, make([]byte, 300))
	require.Error(t, err)

	var chunkErr *ChunkError
	require.ErrorAs(t, err, &chunkErr)
	assert.Equal(t, 1, chunkErr.Index)
	assert.Equal(t, 128, chunkErr.Offset)
	assert.ErrorIs(t, err, writeErr)

	assert.Len(t, link.writes, 1)
	assert.Equal(t, 1, report.Chunks)
	assert.Len(t, sleeper.calls, 1)
}

func TestNewChunkedWriter_Defaults(t *testing.T) {
	w := NewChunkedWriter(0, -1, zap.NewNop())

	assert.Equal(t, DefaultChunkSize, w.ChunkSize())
	assert.Equal(t, DefaultChunkDelay, w.Delay())
}
