// internal/protocol/chunked_writer.go
package protocol

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"
)

// Pacing bounds for thermal printers with small receive buffers
const (
	DefaultChunkSize  = 256
	MinChunkSize      = 128
	MaxChunkSize      = 256
	DefaultChunkDelay = 150 * time.Millisecond
	MinChunkDelay     = 100 * time.Millisecond
	MaxChunkDelay     = 200 * time.Millisecond
)

// ChunkWriter is the part of a link the chunked writer needs
type ChunkWriter interface {
	Write(ctx context.Context, data []byte) error
}

// Sleeper waits between chunks
type Sleeper func(d time.Duration)

// ChunkError reports which chunk of a send failed
type ChunkError struct {
	Index  int
	Offset int
	Err    error
}

func (e *ChunkError) Error() string {
	return fmt.Sprintf("chunk %d at offset %d: %v", e.Index, e.Offset, e.Err)
}

func (e *ChunkError) Unwrap() error {
	return e.Err
}

// SendReport describes a completed send
type SendReport struct {
	Bytes    int           `json:"bytes"`
	Chunks   int           `json:"chunks"`
	Duration time.Duration `json:"duration"`
}

// ChunkedWriter splits a buffer into fixed size chunks and writes them in
// order, waiting a fixed delay between consecutive writes.
type ChunkedWriter struct {
	chunkSize int
	delay     time.Duration
	sleep     Sleeper
	logger    *zap.Logger
}

// ChunkedWriterOption customises a ChunkedWriter
type ChunkedWriterOption func(*ChunkedWriter)

// WithSleeper replaces time.Sleep, mostly for tests
func WithSleeper(s Sleeper) ChunkedWriterOption {
	return func(w *ChunkedWriter) {
		if s != nil {
			w.sleep = s
		}
	}
}

// NewChunkedWriter creates a paced writer. Non-positive values fall back to
// the defaults.
func NewChunkedWriter(chunkSize int, delay time.Duration, logger *zap.Logger, opts ...ChunkedWriterOption) *ChunkedWriter {
	if chunkSize <= 0 {
		chunkSize = DefaultChunkSize
	}
	if delay < 0 {
		delay = DefaultChunkDelay
	}

	w := &ChunkedWriter{
		chunkSize: chunkSize,
		delay:     delay,
		sleep:     time.Sleep,
		logger:    logger,
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// ChunkSize returns the configured chunk size
func (w *ChunkedWriter) ChunkSize() int {
	return w.chunkSize
}

// Delay returns the configured inter-chunk delay
func (w *ChunkedWriter) Delay() time.Duration {
	return w.delay
}

// Send writes data through link. Each write completes before the next one is
// issued. The first failing write aborts the send with a *ChunkError.
func (w *ChunkedWriter) Send(ctx context.Context, link ChunkWriter, data []byte) (*SendReport, error) {
	startTime := time.Now()
	report := &SendReport{}

	for index, offset := 0, 0; offset < len(data); index, offset = index+1, offset+w.chunkSize {
		if index > 0 && w.delay > 0 {
			w.sleep(w.delay)
		}

		end := offset + w.chunkSize
		if end > len(data) {
			end = len(data)
		}

		if err := link.Write(ctx, data[offset:end]); err != nil {
			w.logger.Error("Chunk write failed",
				zap.Int("chunk", index),
				zap.Int("offset", offset),
				zap.Int("total_bytes", len(data)),
				zap.Error(err),
			)
			return report, &ChunkError{Index: index, Offset: offset, Err: err}
		}

		report.Chunks++
		report.Bytes += end - offset
	}

	report.Duration = time.Since(startTime)
	w.logger.Debug("Chunked send completed",
		zap.Int("bytes", report.Bytes),
		zap.Int("chunks", report.Chunks),
		zap.Duration("duration", report.Duration),
	)
	return report, nil
}
