package app

import (
	"cmp"
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"slices"
	"strings"
	"sync"

	"go.trai.ch/kiln/internal/adapters/watcher"
	"go.trai.ch/kiln/internal/core/domain"
	"go.trai.ch/zerr"
)

// Watch runs the pipeline, then reruns it whenever files below the working directory change.
// Changes to declared outputs and clean paths are ignored. It returns when ctx is done.
func (a *App) Watch(ctx context.Context, opts RunOptions) error {
	dir, err := filepath.Abs(cmp.Or(opts.Dir, "."))
	if err != nil {
		return zerr.With(zerr.Wrap(err, "failed to resolve working directory"), "dir", opts.Dir)
	}

	w, err := a.newWatcher()
	if err != nil {
		return err
	}
	defer func() { _ = w.Stop() }()

	watchCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	if err := w.Start(watchCtx, dir); err != nil {
		return err
	}

	var ignores ignoreSet
	trigger := make(chan []string, 1)
	debouncer := watcher.NewDebouncer(watcher.DefaultDebounceWindow, func(paths []string) {
		select {
		case trigger <- paths:
		default:
			// A rerun is already pending.
		}
	})
	defer debouncer.Stop()

	go func() {
		for event := range w.Events() {
			if !ignores.matches(event.Path) {
				debouncer.Add(event.Path)
			}
		}
	}()

	for {
		a.watchRun(ctx, opts, &ignores)
		a.logger.Info("watching " + dir + " for changes")

		select {
		case <-ctx.Done():
			return nil
		case paths := <-trigger:
			a.logger.Info(fmt.Sprintf("%d paths changed, running again", len(paths)))
		}
	}
}

func (a *App) watchRun(ctx context.Context, opts RunOptions, ignores *ignoreSet) {
	p, err := a.prepare(ctx, opts)
	if err != nil {
		a.logger.Error(err)
		return
	}
	ignores.set(outputPatterns(p.dir, p.pipeline.Steps))

	err = a.execute(ctx, p, opts)
	switch {
	case err == nil, ctx.Err() != nil:
	case errors.Is(err, domain.ErrBuildExecutionFailed):
		// Failing nodes have been logged already.
	default:
		a.logger.Error(err)
	}
}

// ignoreSet holds the paths a run writes itself.
type ignoreSet struct {
	mu      sync.RWMutex
	entries []ignoreEntry
}

// ignoreEntry is an absolute glob pattern plus the directory its literal segments name.
type ignoreEntry struct {
	pattern string
	prefix  string
}

func (s *ignoreSet) set(entries []ignoreEntry) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries = entries
}

func (s *ignoreSet) matches(path string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, entry := range s.entries {
		if ok, _ := filepath.Match(entry.pattern, path); ok {
			return true
		}
		if entry.prefix != "" && within(entry.prefix, path) {
			return true
		}
	}
	return false
}

// outputPatterns collects the outputs and clean patterns of every step.
func outputPatterns(dir string, steps []domain.StepSpec) []ignoreEntry {
	var entries []ignoreEntry
	for i := range steps {
		step := &steps[i]
		stepDir := dir
		switch {
		case step.Dir == "":
		case filepath.IsAbs(step.Dir):
			stepDir = step.Dir
		default:
			stepDir = filepath.Join(dir, step.Dir)
		}
		for _, pattern := range slices.Concat(step.Outputs, step.Clean) {
			entries = append(entries, newIgnoreEntry(stepDir, pattern))
		}
		entries = append(entries, outputPatterns(stepDir, step.Steps)...)
	}
	return entries
}

func newIgnoreEntry(dir, pattern string) ignoreEntry {
	base := dir
	rel := filepath.ToSlash(pattern)
	if filepath.IsAbs(pattern) {
		base = string(filepath.Separator)
		rel = strings.TrimPrefix(rel, "/")
	}

	var literal []string
	for segment := range strings.SplitSeq(rel, "/") {
		if segment == "" || strings.ContainsAny(segment, "*?[") {
			break
		}
		literal = append(literal, segment)
	}

	entry := ignoreEntry{pattern: filepath.Join(base, filepath.FromSlash(rel))}
	if len(literal) > 0 {
		entry.prefix = filepath.Join(base, filepath.Join(literal...))
	}
	return entry
}

func within(dir, path string) bool {
	rel, err := filepath.Rel(dir, path)
	return err == nil && rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator))
}
