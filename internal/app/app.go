// Package app implements the application layer for kiln.
package app

import (
	"context"
	"errors"
	"fmt"
	"maps"
	"path/filepath"
	"slices"
	"strings"

	"github.com/google/uuid"
	"go.trai.ch/kiln/internal/adapters/telemetry"
	"go.trai.ch/kiln/internal/adapters/telemetry/progrock"
	"go.trai.ch/kiln/internal/core/domain"
	"go.trai.ch/kiln/internal/core/ports"
	"go.trai.ch/kiln/internal/engine/task"
	"go.trai.ch/zerr"
)

// RunIDVariable carries the unique id of a run.
const RunIDVariable = "KILN_RUN_ID"

// App represents the main application logic.
type App struct {
	configLoader ports.ConfigLoader
	factory      *Factory
	opener       ports.RepositoryOpener
	logger       ports.Logger
	newWatcher   ports.WatcherFactory
	baseEnv      func() domain.Environment
}

// New creates a new App instance.
func New(
	loader ports.ConfigLoader,
	factory *Factory,
	opener ports.RepositoryOpener,
	log ports.Logger,
	newWatcher ports.WatcherFactory,
) *App {
	return &App{
		configLoader: loader,
		factory:      factory,
		opener:       opener,
		logger:       log,
		newWatcher:   newWatcher,
		baseEnv:      domain.EnvironmentFromOS,
	}
}

// WithBaseEnvironment replaces the process environment the root environment starts from.
// This is primarily used for testing.
func (a *App) WithBaseEnvironment(env func() domain.Environment) *App {
	a.baseEnv = env
	return a
}

// RunOptions configuration for the Run method.
type RunOptions struct {
	// Dir is the working directory; empty means the current one.
	Dir string
	// File is the pipeline file; empty discovers it in Dir.
	File string
	// Targets restricts the run to these node paths.
	Targets []string
	// Environment is applied on top of the process and pipeline environments.
	Environment map[string]string
	// NoVCS skips the revision lookup.
	NoVCS bool
	// Timings logs how long every node took once the run ends.
	Timings bool
}

// plan is a loaded pipeline ready to run.
type plan struct {
	dir      string
	pipeline *domain.Pipeline
	tree     *task.Tree
	env      domain.Environment
}

// Run executes the pipeline, or the selected targets of it.
func (a *App) Run(ctx context.Context, opts RunOptions) error {
	p, err := a.prepare(ctx, opts)
	if err != nil {
		return err
	}
	return a.execute(ctx, p, opts)
}

func (a *App) prepare(ctx context.Context, opts RunOptions) (*plan, error) {
	dir, pipeline, err := a.load(opts)
	if err != nil {
		return nil, err
	}

	tree, err := a.factory.Build(pipeline).Select(opts.Targets...)
	if err != nil {
		return nil, err
	}

	env, err := a.rootEnvironment(ctx, dir, pipeline, opts)
	if err != nil {
		return nil, err
	}
	return &plan{dir: dir, pipeline: pipeline, tree: tree, env: env}, nil
}

func (a *App) load(opts RunOptions) (string, *domain.Pipeline, error) {
	dir := opts.Dir
	if dir == "" {
		dir = "."
	}
	dir, err := filepath.Abs(dir)
	if err != nil {
		return "", nil, zerr.With(zerr.Wrap(err, "failed to resolve working directory"), "dir", opts.Dir)
	}

	path := opts.File
	switch {
	case path == "":
		if path, err = a.configLoader.Discover(dir); err != nil {
			return "", nil, err
		}
	case !filepath.IsAbs(path):
		path = filepath.Join(dir, path)
	}

	pipeline, err := a.configLoader.Load(path)
	if err != nil {
		return "", nil, zerr.Wrap(err, "failed to load configuration")
	}
	return dir, pipeline, nil
}

// rootEnvironment layers the process environment, the pipeline environment, the
// requested overlay, the revision variables and the run id, later layers winning.
func (a *App) rootEnvironment(ctx context.Context, dir string, p *domain.Pipeline, opts RunOptions) (domain.Environment, error) {
	env := a.baseEnv()
	if len(p.Environment) > 0 {
		env = env.Derive(p.Environment)
	}
	if len(opts.Environment) > 0 {
		env = env.Derive(opts.Environment)
	}

	if !opts.NoVCS {
		vars, err := a.revisionVariables(ctx, dir, env)
		if err != nil {
			return nil, err
		}
		if len(vars) > 0 {
			env = env.Derive(vars)
		}
	}

	return env.Derive(map[string]string{RunIDVariable: uuid.NewString()}), nil
}

// revisionVariables describes HEAD. Outside a repository it warns and returns nothing.
func (a *App) revisionVariables(ctx context.Context, dir string, env domain.Environment) (map[string]string, error) {
	tc, err := task.NewContext(dir, env, a.logger)
	if err != nil {
		return nil, err
	}

	var vars map[string]string
	lookup := task.SkipOnConfigurationError(task.Func(func(ctx context.Context, tc *task.Context) error {
		repo, err := a.opener.Open(ctx, tc.WorkingDir(), tc.Environment(), tc.Logger())
		if err != nil {
			return err
		}
		rev, err := repo.Revision(ctx)
		if err != nil {
			return err
		}
		vars = rev.Variables()
		return nil
	}))
	if err := lookup.Handle(ctx, tc); err != nil {
		return nil, zerr.Wrap(err, "failed to describe revision")
	}
	return vars, nil
}

func (a *App) execute(ctx context.Context, p *plan, opts RunOptions) error {
	async, err := task.NewAsyncContext(p.dir, p.env, a.logger)
	if err != nil {
		return err
	}
	defer async.Close()

	timings := telemetry.NewTimings()
	recorder := telemetry.Multi(progrock.New(), telemetry.NewTracer("kiln", timings))
	report := task.NewReport()

	ctx = ports.ContextWithTelemetry(ctx, recorder)
	ctx = task.ContextWithReport(ctx, report)

	runErr := p.tree.Handle(ctx, async.Context)
	closeErr := recorder.Close()

	if opts.Timings {
		for _, line := range timings.Summary() {
			a.logger.Info(line)
		}
	}
	a.logger.Info(summarize(p.pipeline.Name, report))

	if runErr != nil {
		return errors.Join(domain.ErrBuildExecutionFailed, runErr)
	}
	if closeErr != nil {
		a.logger.Warn("failed to close telemetry: " + closeErr.Error())
	}
	return nil
}

// summarize counts the final node statuses, e.g. "demo: 3 completed, 1 skipped".
func summarize(name string, report *task.Report) string {
	counts := make(map[domain.NodeStatus]int)
	for _, entry := range report.Entries() {
		counts[entry.Status]++
	}
	order := []domain.NodeStatus{
		domain.NodeStatusCompleted,
		domain.NodeStatusSkipped,
		domain.NodeStatusFailed,
		domain.NodeStatusRunning,
	}
	var parts []string
	for _, status := range order {
		if n := counts[status]; n > 0 {
			parts = append(parts, fmt.Sprintf("%d %s", n, status))
		}
	}
	if len(parts) == 0 {
		return name + ": nothing to run"
	}
	return name + ": " + strings.Join(parts, ", ")
}

// ListEntry is one node of a pipeline tree.
type ListEntry struct {
	Path    string `json:"path"`
	Depth   int    `json:"depth"`
	HasTask bool   `json:"hasTask"`
}

// List returns every node of the pipeline tree depth-first.
func (a *App) List(_ context.Context, opts RunOptions) ([]ListEntry, error) {
	_, pipeline, err := a.load(opts)
	if err != nil {
		return nil, err
	}
	tree, err := a.factory.Build(pipeline).Select(opts.Targets...)
	if err != nil {
		return nil, err
	}

	var entries []ListEntry
	for path, node := range tree.Walk() {
		entries = append(entries, ListEntry{
			Path:    path,
			Depth:   strings.Count(path, "/"),
			HasTask: node.Task() != nil,
		})
	}
	return entries, nil
}

// Env returns the resolved root environment as sorted KEY=VALUE lines.
func (a *App) Env(ctx context.Context, opts RunOptions) ([]string, error) {
	dir, pipeline, err := a.load(opts)
	if err != nil {
		return nil, err
	}
	env, err := a.rootEnvironment(ctx, dir, pipeline, opts)
	if err != nil {
		return nil, err
	}

	vars := env.ToMap()
	lines := make([]string, 0, len(vars))
	for _, key := range slices.Sorted(maps.Keys(vars)) {
		lines = append(lines, key+"="+vars[key])
	}
	return lines, nil
}
