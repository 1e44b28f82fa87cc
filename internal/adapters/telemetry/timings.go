package telemetry

import (
	"context"
	"fmt"
	"slices"
	"sync"
	"time"

	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.trai.ch/kiln/internal/core/domain"
	"go.trai.ch/kiln/internal/ui/style"
)

// Timing is the outcome of one finished node span.
type Timing struct {
	Name     string
	Start    time.Time
	Duration time.Duration
	Failed   bool
	// Error is the status description of a failed span.
	Error string
}

// Timings implements sdktrace.SpanProcessor by collecting finished spans.
type Timings struct {
	mu      sync.Mutex
	entries []Timing
}

// NewTimings returns an empty collector.
func NewTimings() *Timings {
	return &Timings{}
}

// OnStart does nothing.
func (t *Timings) OnStart(context.Context, sdktrace.ReadWriteSpan) {}

// OnEnd records the span.
func (t *Timings) OnEnd(s sdktrace.ReadOnlySpan) {
	if !s.SpanContext().IsValid() {
		return
	}

	entry := Timing{
		Name:     s.Name(),
		Start:    s.StartTime(),
		Duration: s.EndTime().Sub(s.StartTime()),
	}
	if s.Status().Code == codes.Error {
		entry.Failed = true
		entry.Error = s.Status().Description
	}

	t.mu.Lock()
	defer t.mu.Unlock()
	t.entries = append(t.entries, entry)
}

// ForceFlush does nothing.
func (t *Timings) ForceFlush(context.Context) error {
	return nil
}

// Shutdown does nothing.
func (t *Timings) Shutdown(context.Context) error {
	return nil
}

// Entries returns the recorded timings in start order.
func (t *Timings) Entries() []Timing {
	t.mu.Lock()
	entries := slices.Clone(t.entries)
	t.mu.Unlock()

	slices.SortStableFunc(entries, func(a, b Timing) int {
		return a.Start.Compare(b.Start)
	})
	return entries
}

// Summary renders one line per recorded node.
func (t *Timings) Summary() []string {
	entries := t.Entries()
	lines := make([]string, 0, len(entries))
	for _, e := range entries {
		status := domain.NodeStatusCompleted
		if e.Failed {
			status = domain.NodeStatusFailed
		}
		lines = append(lines, fmt.Sprintf("%s %8s  %s", style.StatusIcon(status), e.Duration.Round(time.Millisecond), e.Name))
	}
	return lines
}
