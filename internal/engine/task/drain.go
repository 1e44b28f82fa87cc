package task

import (
	"bytes"
	"context"
	"errors"
	"io"
	"os"
	"strings"
	"sync"

	"go.trai.ch/zerr"
	"golang.org/x/sync/errgroup"
)

// drainWorkers is the number of readers a pool runs: one per process output stream.
const drainWorkers = 2

// ErrPoolClosed is returned by Drain after the pool has been closed.
var ErrPoolClosed = zerr.New("drain pool closed")

// Stream pairs a reader with the sink that receives its lines.
type Stream struct {
	Reader io.Reader
	Sink   func(line string)
}

// DrainPool reads process output streams line by line on a fixed set of workers.
//
// A child process blocks once a pipe buffer fills, so both of its output streams
// must be read at the same time while the caller waits for it to exit.
type DrainPool struct {
	jobs   chan *drainJob
	ctx    context.Context
	cancel context.CancelFunc
	group  *errgroup.Group

	mu       sync.Mutex
	closed   bool
	inflight map[*drainJob]struct{}
}

type drainJob struct {
	stream Stream
	done   chan error
}

// NewDrainPool starts a pool with two workers.
func NewDrainPool() *DrainPool {
	ctx, cancel := context.WithCancel(context.Background())
	group, groupCtx := errgroup.WithContext(ctx)
	p := &DrainPool{
		jobs:     make(chan *drainJob, drainWorkers*4),
		ctx:      groupCtx,
		cancel:   cancel,
		group:    group,
		inflight: make(map[*drainJob]struct{}),
	}
	for range drainWorkers {
		group.Go(p.work)
	}
	return p
}

// Drain schedules every stream and returns a function that blocks until all of
// them reached end of file. The returned function reports the first read error.
func (p *DrainPool) Drain(streams ...Stream) (wait func() error, err error) {
	p.mu.Lock()
	closed := p.closed
	p.mu.Unlock()
	if closed {
		return nil, ErrPoolClosed
	}

	jobs := make([]*drainJob, 0, len(streams))
	for _, stream := range streams {
		job := &drainJob{stream: stream, done: make(chan error, 1)}
		select {
		case p.jobs <- job:
			jobs = append(jobs, job)
		case <-p.ctx.Done():
			return nil, ErrPoolClosed
		}
	}

	return func() error {
		var errs error
		for _, job := range jobs {
			ok, err := p.await(job)
			if !ok {
				return ErrPoolClosed
			}
			errs = errors.Join(errs, err)
		}
		return errs
	}, nil
}

// await prefers a finished job over a closed pool.
func (p *DrainPool) await(job *drainJob) (ok bool, err error) {
	select {
	case err := <-job.done:
		return true, err
	default:
	}
	select {
	case err := <-job.done:
		return true, err
	case <-p.ctx.Done():
		return false, nil
	}
}

// Close stops the workers without waiting for them.
// Readers being drained that implement io.Closer are closed to abort blocked reads.
func (p *DrainPool) Close() {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return
	}
	p.closed = true
	for job := range p.inflight {
		if c, ok := job.stream.Reader.(io.Closer); ok {
			_ = c.Close()
		}
	}
	p.mu.Unlock()
	p.cancel()
}

// Wait blocks until every worker has exited. It is only meaningful after Close.
func (p *DrainPool) Wait() error {
	return p.group.Wait()
}

func (p *DrainPool) work() error {
	for {
		select {
		case <-p.ctx.Done():
			return nil
		case job := <-p.jobs:
			if !p.track(job) {
				job.done <- ErrPoolClosed
				continue
			}
			err := drainLines(job.stream)
			p.untrack(job)
			job.done <- err
		}
	}
}

func (p *DrainPool) track(job *drainJob) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return false
	}
	p.inflight[job] = struct{}{}
	return true
}

func (p *DrainPool) untrack(job *drainJob) {
	p.mu.Lock()
	defer p.mu.Unlock()
	delete(p.inflight, job)
}

func drainLines(stream Stream) error {
	w := &lineWriter{sink: stream.Sink}
	_, err := io.Copy(w, stream.Reader)
	_ = w.Close()
	if err != nil && !errors.Is(err, os.ErrClosed) && !errors.Is(err, io.ErrClosedPipe) {
		return zerr.Wrap(err, "failed to read process output")
	}
	return nil
}

// lineWriter splits written bytes into lines and hands each to sink.
type lineWriter struct {
	sink func(string)
	buf  []byte
}

func (w *lineWriter) Write(p []byte) (n int, err error) {
	w.buf = append(w.buf, p...)

	for {
		i := bytes.IndexByte(w.buf, '\n')
		if i < 0 {
			break
		}
		w.emit(w.buf[:i])
		w.buf = w.buf[i+1:]
	}

	return len(p), nil
}

// Close flushes a trailing line that had no newline.
func (w *lineWriter) Close() error {
	if len(w.buf) > 0 {
		w.emit(w.buf)
		w.buf = nil
	}
	return nil
}

func (w *lineWriter) emit(line []byte) {
	if w.sink == nil {
		return
	}
	w.sink(strings.TrimSuffix(string(line), "\r"))
}
