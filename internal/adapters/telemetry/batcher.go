// Package telemetry records task tree nodes as OpenTelemetry spans and fans
// vertices out to several recorders.
package telemetry

import (
	"bytes"
	"sync"
	"time"

	"go.trai.ch/zerr"
)

const (
	// DefaultSizeLimit is the default buffer size (4KB) if not specified.
	DefaultSizeLimit = 4096
	// DefaultTimeLimit is the default flush interval (50ms) if not specified.
	DefaultTimeLimit = 50 * time.Millisecond
)

// ErrBatcherClosed is returned by Write after Close.
var ErrBatcherClosed = zerr.New("batch processor is closed")

// BatchProcessor buffers process output and hands it on in batches of complete lines.
// A batch is flushed when sizeLimit is reached or timeLimit elapses; a trailing
// partial line is held back until it is completed or the processor is closed.
// It is thread-safe.
type BatchProcessor struct {
	sizeLimit int
	timeLimit time.Duration
	onFlush   func([]byte)

	mu     sync.Mutex
	buffer *bytes.Buffer
	ticker *time.Ticker
	stopCh chan struct{}
	closed bool
}

// NewBatchProcessor returns a new BatchProcessor.
// Call Close to stop the background ticker.
func NewBatchProcessor(sizeLimit int, timeLimit time.Duration, onFlush func([]byte)) *BatchProcessor {
	if sizeLimit <= 0 {
		sizeLimit = DefaultSizeLimit
	}
	if timeLimit <= 0 {
		timeLimit = DefaultTimeLimit
	}

	bp := &BatchProcessor{
		sizeLimit: sizeLimit,
		timeLimit: timeLimit,
		onFlush:   onFlush,
		buffer:    new(bytes.Buffer),
		stopCh:    make(chan struct{}),
	}

	bp.ticker = time.NewTicker(timeLimit)
	go bp.run()

	return bp
}

// Write appends p to the buffer, flushing complete lines once sizeLimit is reached.
func (bp *BatchProcessor) Write(p []byte) (n int, err error) {
	bp.mu.Lock()
	defer bp.mu.Unlock()

	if bp.closed {
		return 0, ErrBatcherClosed
	}

	n, _ = bp.buffer.Write(p)

	if bp.buffer.Len() >= bp.sizeLimit {
		bp.flushLocked(bp.buffer.Len() >= 2*bp.sizeLimit)
		bp.ticker.Reset(bp.timeLimit)
	}

	return n, nil
}

// Flush hands on every complete buffered line.
func (bp *BatchProcessor) Flush() {
	bp.mu.Lock()
	defer bp.mu.Unlock()
	if bp.closed {
		return
	}
	bp.flushLocked(false)
}

// Close stops the background flusher and flushes everything, partial line included.
func (bp *BatchProcessor) Close() error {
	bp.mu.Lock()
	defer bp.mu.Unlock()

	if bp.closed {
		return nil
	}

	bp.closed = true
	close(bp.stopCh)
	bp.flushLocked(true)
	return nil
}

func (bp *BatchProcessor) run() {
	for {
		select {
		case <-bp.ticker.C:
			bp.Flush()
		case <-bp.stopCh:
			bp.ticker.Stop()
			return
		}
	}
}

// flushLocked must be called with mu held. Unless all is set, only data up to
// the last newline is flushed.
func (bp *BatchProcessor) flushLocked(all bool) {
	size := bp.buffer.Len()
	if !all {
		size = bytes.LastIndexByte(bp.buffer.Bytes(), '\n') + 1
	}
	if size == 0 {
		return
	}

	data := make([]byte, size)
	copy(data, bp.buffer.Next(size))
	if bp.buffer.Len() == 0 {
		bp.buffer.Reset()
	}

	if bp.onFlush != nil {
		bp.onFlush(data)
	}
}
