package task

import (
	"context"
	"sync"

	"go.trai.ch/kiln/internal/core/domain"
)

// Report collects the status of every node visited during a run.
// A nil *Report ignores updates.
type Report struct {
	mu     sync.RWMutex
	order  []string
	status map[string]domain.NodeStatus
}

// ReportEntry is the final status of one node.
type ReportEntry struct {
	Path   string            `json:"path"`
	Status domain.NodeStatus `json:"status"`
}

// NewReport creates an empty report.
func NewReport() *Report {
	return &Report{status: make(map[string]domain.NodeStatus)}
}

type reportKey struct{}

type nodePathKey struct{}

// ContextWithReport returns a context whose tree runs record into r.
func ContextWithReport(ctx context.Context, r *Report) context.Context {
	return context.WithValue(ctx, reportKey{}, r)
}

func reportFromContext(ctx context.Context) *Report {
	r, _ := ctx.Value(reportKey{}).(*Report)
	return r
}

// NodePath returns the path of the tree node whose task is running in ctx.
func NodePath(ctx context.Context) string {
	path, _ := ctx.Value(nodePathKey{}).(string)
	return path
}

func markSkipped(ctx context.Context) {
	if path := NodePath(ctx); path != "" {
		reportFromContext(ctx).update(path, domain.NodeStatusSkipped)
	}
}

func (r *Report) update(path string, status domain.NodeStatus) {
	if r == nil {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, seen := r.status[path]; !seen {
		r.order = append(r.order, path)
	}
	r.status[path] = status
}

// Status returns the status of path, or pending if it was never visited.
func (r *Report) Status(path string) domain.NodeStatus {
	if r == nil {
		return domain.NodeStatusPending
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	if status, ok := r.status[path]; ok {
		return status
	}
	return domain.NodeStatusPending
}

// Entries returns the visited nodes in the order they started.
func (r *Report) Entries() []ReportEntry {
	if r == nil {
		return nil
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	entries := make([]ReportEntry, len(r.order))
	for i, path := range r.order {
		entries[i] = ReportEntry{Path: path, Status: r.status[path]}
	}
	return entries
}
