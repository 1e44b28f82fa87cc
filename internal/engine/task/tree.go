package task

import (
	"context"
	"errors"
	"iter"
	"slices"
	"strings"

	"go.trai.ch/kiln/internal/core/domain"
	"go.trai.ch/kiln/internal/core/ports"
	"go.trai.ch/zerr"
)

// Tree is an immutable, ordered composition of named tasks.
// A node without a task only groups its children.
type Tree struct {
	name     domain.InternedString
	task     Task
	children []*Tree
}

// Name returns the node name.
func (t *Tree) Name() string {
	return t.name.String()
}

// Task returns the node's own task, or nil for a grouping node.
func (t *Tree) Task() Task {
	return t.task
}

// Children returns the child nodes in declaration order.
func (t *Tree) Children() []*Tree {
	return slices.Clone(t.children)
}

// Handle runs the node's task, then each child in order against tc.
// The first failure aborts the run. Every named node it passes through logs
// "<name>: terminated" before returning the same error.
func (t *Tree) Handle(ctx context.Context, tc *Context) error {
	return t.handle(ctx, tc, "")
}

// handle runs the node found at path, which is empty for the root.
func (t *Tree) handle(ctx context.Context, tc *Context, path string) error {
	var report *Report
	if path != "" {
		report = reportFromContext(ctx)
	}
	report.update(path, domain.NodeStatusRunning)

	if err := t.run(ctx, tc, path); err != nil {
		report.update(path, domain.NodeStatusFailed)
		if name := t.Name(); name != "" {
			tc.Logger().Error(zerr.Wrap(err, name+": terminated"))
		}
		return err
	}

	if report.Status(path) != domain.NodeStatusSkipped {
		report.update(path, domain.NodeStatusCompleted)
	}
	return nil
}

func (t *Tree) run(ctx context.Context, tc *Context, path string) error {
	if t.task != nil {
		if err := t.runTask(ctx, tc, path); err != nil {
			var taskErr *domain.TaskError
			if errors.As(err, &taskErr) {
				return err
			}
			return &domain.TaskError{Node: displayPath(path, t.Name()), Err: err}
		}
	}

	for _, child := range t.children {
		if err := child.handle(ctx, tc, joinPath(path, child.Name())); err != nil {
			return err
		}
	}
	return nil
}

func (t *Tree) runTask(ctx context.Context, tc *Context, path string) error {
	if err := ctx.Err(); err != nil {
		return &domain.InterruptedError{Err: err}
	}

	name := t.Name()
	logger := tc.Logger()
	logger.Info(name + ": starting")

	rec := newReadRecorder()
	recording := tc.Wrap(&recordingEnvironment{inner: tc.Environment(), rec: rec})

	taskCtx := context.WithValue(ctx, nodePathKey{}, path)
	var vertex ports.Vertex
	if telemetry, ok := ports.TelemetryFromContext(ctx); ok {
		taskCtx, vertex = telemetry.Record(taskCtx, displayPath(path, name))
	}

	err := t.task.Handle(taskCtx, recording)
	if vertex != nil {
		vertex.Complete(err)
	}
	if err != nil {
		return err
	}

	if lines := rec.lines(); len(lines) > 0 {
		logger.Info(strings.Join(lines, "\n"))
	}
	logger.Info(name + ": completed")
	return nil
}

// Walk yields every descendant depth-first with its slash-separated path relative to t.
func (t *Tree) Walk() iter.Seq2[string, *Tree] {
	return func(yield func(string, *Tree) bool) {
		t.walk("", yield)
	}
}

func (t *Tree) walk(parent string, yield func(string, *Tree) bool) bool {
	for _, child := range t.children {
		path := joinPath(parent, child.Name())
		if !yield(path, child) || !child.walk(path, yield) {
			return false
		}
	}
	return true
}

// Find returns the descendant at a slash-separated path. The empty path is t itself.
func (t *Tree) Find(path string) (*Tree, error) {
	node := t
	for _, segment := range splitPath(path) {
		next := node.child(segment)
		if next == nil {
			return nil, zerr.With(zerr.Wrap(domain.ErrTaskNotFound, "no such node"), "path", path)
		}
		node = next
	}
	return node, nil
}

// Select returns a tree keeping only the subtrees at paths, in declaration order.
// Ancestors of a selected node are kept as grouping nodes so their own tasks do not run.
func (t *Tree) Select(paths ...string) (*Tree, error) {
	if len(paths) == 0 {
		return t, nil
	}
	wanted := make([][]string, 0, len(paths))
	for _, path := range paths {
		if _, err := t.Find(path); err != nil {
			return nil, err
		}
		segments := splitPath(path)
		if len(segments) == 0 {
			return t, nil
		}
		wanted = append(wanted, segments)
	}
	return t.prune(wanted), nil
}

func (t *Tree) prune(wanted [][]string) *Tree {
	out := &Tree{name: t.name}
	for _, child := range t.children {
		var below [][]string
		whole := false
		for _, segments := range wanted {
			if segments[0] != child.Name() {
				continue
			}
			if len(segments) == 1 {
				whole = true
				break
			}
			below = append(below, segments[1:])
		}
		switch {
		case whole:
			out.children = append(out.children, child)
		case len(below) > 0:
			out.children = append(out.children, child.prune(below))
		}
	}
	return out
}

func (t *Tree) child(name string) *Tree {
	for _, c := range t.children {
		if c.Name() == name {
			return c
		}
	}
	return nil
}

func splitPath(path string) []string {
	var segments []string
	for segment := range strings.SplitSeq(path, "/") {
		if segment != "" {
			segments = append(segments, segment)
		}
	}
	return segments
}

func joinPath(parent, name string) string {
	if parent == "" {
		return name
	}
	return parent + "/" + name
}

func displayPath(path, name string) string {
	if path == "" {
		return name
	}
	return path
}
