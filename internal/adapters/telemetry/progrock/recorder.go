// Package progrock records task tree nodes as progrock vertices.
package progrock

import (
	"context"
	"fmt"
	"sync"

	"github.com/opencontainers/go-digest"
	"github.com/vito/progrock"
	"go.trai.ch/kiln/internal/core/ports"
)

// Recorder implements ports.Telemetry on a progrock writer.
type Recorder struct {
	w   progrock.Writer
	rec *progrock.Recorder

	mu   sync.Mutex
	seen map[digest.Digest]int
}

// New creates a Recorder writing to an in-memory tape.
func New() *Recorder {
	return NewRecorder(progrock.NewTape())
}

// NewRecorder creates a Recorder writing to w.
func NewRecorder(w progrock.Writer) *Recorder {
	return &Recorder{
		w:    w,
		rec:  progrock.NewRecorder(w),
		seen: make(map[digest.Digest]int),
	}
}

// Record starts a vertex for the node path name.
// A node recorded again in the same session gets a fresh digest.
func (r *Recorder) Record(ctx context.Context, name string) (context.Context, ports.Vertex) {
	v := r.rec.Vertex(r.digest(name), name)
	vertex := &Vertex{vertex: v}
	return ports.ContextWithVertex(ctx, vertex), vertex
}

func (r *Recorder) digest(name string) digest.Digest {
	d := digest.FromString(name)

	r.mu.Lock()
	defer r.mu.Unlock()
	n := r.seen[d]
	r.seen[d] = n + 1
	if n == 0 {
		return d
	}
	return digest.FromString(fmt.Sprintf("%s#%d", name, n))
}

// Close flushes and closes the recording session.
func (r *Recorder) Close() error {
	if c, ok := r.w.(interface{ Close() error }); ok {
		return c.Close()
	}
	return nil
}
