package task

import (
	"maps"
	"slices"
	"sync"

	"go.trai.ch/kiln/internal/core/domain"
)

// readRecorder accumulates the variables a node read, shared by every
// environment derived from the recording proxy.
type readRecorder struct {
	mu    sync.Mutex
	reads map[string]string
}

func newReadRecorder() *readRecorder {
	return &readRecorder{reads: make(map[string]string)}
}

func (r *readRecorder) record(name, value string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.reads[name] = value
}

// lines renders the reads as "  NAME = value", sorted by name.
func (r *readRecorder) lines() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	names := slices.Sorted(maps.Keys(r.reads))
	out := make([]string, len(names))
	for i, name := range names {
		out[i] = "  " + name + " = " + r.reads[name]
	}
	return out
}

// recordingEnvironment decorates an Environment, remembering successful reads.
// IsSet and ToMap are not reads of a particular value and are not recorded.
type recordingEnvironment struct {
	inner domain.Environment
	rec   *readRecorder
}

func (e *recordingEnvironment) IsSet(name string) bool {
	return e.inner.IsSet(name)
}

func (e *recordingEnvironment) Get(name string) (string, error) {
	value, err := e.inner.Get(name)
	if err != nil {
		return "", err
	}
	e.rec.record(name, value)
	return value, nil
}

func (e *recordingEnvironment) ToMap() map[string]string {
	return e.inner.ToMap()
}

func (e *recordingEnvironment) Derive(overlay map[string]string) domain.Environment {
	return &recordingEnvironment{inner: e.inner.Derive(overlay), rec: e.rec}
}

func (e *recordingEnvironment) ResolvePlaceholders(text string) string {
	return domain.ExpandPlaceholders(text, func(name string) (string, bool) {
		value, err := e.Get(name)
		return value, err == nil
	})
}
