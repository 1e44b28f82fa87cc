package telemetry_test

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.trai.ch/kiln/internal/adapters/telemetry"
)

type collector struct {
	mu   sync.Mutex
	data []byte
	n    int
}

func (c *collector) flush(data []byte) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.data = append(c.data, data...)
	c.n++
}

func (c *collector) String() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return string(c.data)
}

func TestBatchProcessor_FlushOnSize(t *testing.T) {
	c := &collector{}
	bp := telemetry.NewBatchProcessor(8, time.Hour, c.flush)
	defer func() { _ = bp.Close() }()

	_, err := bp.Write([]byte("one\n"))
	require.NoError(t, err)
	assert.Empty(t, c.String())

	_, err = bp.Write([]byte("two\nthr"))
	require.NoError(t, err)
	assert.Equal(t, "one\ntwo\n", c.String(), "the partial line is held back")
}

func TestBatchProcessor_OversizedLineIsFlushed(t *testing.T) {
	c := &collector{}
	bp := telemetry.NewBatchProcessor(4, time.Hour, c.flush)
	defer func() { _ = bp.Close() }()

	_, err := bp.Write([]byte("abcdefgh"))
	require.NoError(t, err)

	assert.Equal(t, "abcdefgh", c.String())
}

func TestBatchProcessor_FlushOnTime(t *testing.T) {
	flushed := make(chan []byte, 1)
	bp := telemetry.NewBatchProcessor(100, 20*time.Millisecond, func(data []byte) {
		select {
		case flushed <- data:
		default:
		}
	})
	defer func() { _ = bp.Close() }()

	_, err := bp.Write([]byte("test\n"))
	require.NoError(t, err)

	select {
	case data := <-flushed:
		assert.Equal(t, "test\n", string(data))
	case <-time.After(time.Second):
		t.Fatal("timeout waiting for flush")
	}
}

func TestBatchProcessor_ManualFlush(t *testing.T) {
	c := &collector{}
	bp := telemetry.NewBatchProcessor(100, time.Hour, c.flush)
	defer func() { _ = bp.Close() }()

	_, err := bp.Write([]byte("hello\nwor"))
	require.NoError(t, err)
	assert.Empty(t, c.String())

	bp.Flush()
	assert.Equal(t, "hello\n", c.String())
}

func TestBatchProcessor_CloseFlushes(t *testing.T) {
	c := &collector{}
	bp := telemetry.NewBatchProcessor(100, time.Hour, c.flush)

	_, err := bp.Write([]byte("pending"))
	require.NoError(t, err)
	assert.Empty(t, c.String())

	require.NoError(t, bp.Close())
	assert.Equal(t, "pending", c.String())

	_, err = bp.Write([]byte("fail"))
	require.ErrorIs(t, err, telemetry.ErrBatcherClosed)
	require.NoError(t, bp.Close(), "closing twice is harmless")
}

func TestBatchProcessor_ThreadSafety(t *testing.T) {
	c := &collector{}
	bp := telemetry.NewBatchProcessor(20, 5*time.Millisecond, c.flush)

	const workers, iterations = 10, 100
	var wg sync.WaitGroup
	for range workers {
		wg.Go(func() {
			for j := range iterations {
				_, _ = bp.Write([]byte("a\n"))
				if j%10 == 0 {
					bp.Flush()
				}
			}
		})
	}
	wg.Wait()
	require.NoError(t, bp.Close())

	assert.Len(t, c.String(), workers*iterations*2)
}
