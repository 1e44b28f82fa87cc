package app

import (
	"context"
	"path/filepath"
	"strconv"
	"strings"

	"go.trai.ch/kiln/internal/adapters/shell"
	"go.trai.ch/kiln/internal/core/domain"
	"go.trai.ch/kiln/internal/core/ports"
	"go.trai.ch/kiln/internal/engine/task"
	"go.trai.ch/zerr"
)

// Factory turns pipelines into task trees.
type Factory struct {
	verifier ports.Verifier
	cleaner  ports.Cleaner
	opener   ports.RepositoryOpener
}

// NewFactory creates a new Factory.
func NewFactory(verifier ports.Verifier, cleaner ports.Cleaner, opener ports.RepositoryOpener) *Factory {
	return &Factory{verifier: verifier, cleaner: cleaner, opener: opener}
}

// scope is the directory and environment a step inherits from its ancestors.
type scope struct {
	dir      string
	overlays []map[string]string
}

func (s scope) enter(step *domain.StepSpec) scope {
	next := scope{dir: s.dir, overlays: s.overlays}
	switch {
	case step.Dir == "":
	case filepath.IsAbs(step.Dir) || next.dir == "":
		next.dir = step.Dir
	default:
		next.dir = filepath.Join(next.dir, step.Dir)
	}
	if len(step.Environment) > 0 {
		next.overlays = append(s.overlays[:len(s.overlays):len(s.overlays)], step.Environment)
	}
	return next
}

func (s scope) apply(tc *task.Context) *task.Context {
	env := tc.Environment()
	for _, overlay := range s.overlays {
		env = env.Derive(overlay)
	}
	return tc.WrapDir(s.dir, env)
}

// Build returns a tree whose root groups the pipeline's top-level steps.
func (f *Factory) Build(p *domain.Pipeline) *task.Tree {
	b := task.NewBuilder(p.Name)
	f.addSteps(b, p.Steps, scope{})
	return b.Build()
}

func (f *Factory) addSteps(parent *task.Builder, steps []domain.StepSpec, inherited scope) {
	for i := range steps {
		step := &steps[i]
		s := inherited.enter(step)

		var child *task.Builder
		if step.HasTask() {
			child = parent.AddTask(step.Name, f.stepTask(step, s))
		} else {
			child = parent.AddGroup(step.Name)
		}
		f.addSteps(child, step.Steps, s)
	}
}

// stepTask cleans, runs the step's command or git action, then verifies outputs.
func (f *Factory) stepTask(step *domain.StepSpec, s scope) task.Task {
	var main task.Task
	switch {
	case step.Git != nil:
		main = f.gitTask(*step.Git)
	case step.Cmd != "":
		main = f.processTask(shell.Script(step.Cmd), step.AllowFailure)
	case len(step.Args) > 0:
		main = f.processTask(shell.Command(step.Args...), step.AllowFailure)
	}

	clean := step.Clean
	outputs := step.Outputs
	var t task.Task = task.Func(func(ctx context.Context, tc *task.Context) error {
		tc = s.apply(tc)
		if len(clean) > 0 {
			if err := f.clean(tc, clean); err != nil {
				return err
			}
		}
		if main != nil {
			if err := main.Handle(ctx, tc); err != nil {
				return err
			}
		}
		if len(outputs) > 0 {
			return f.verify(tc, outputs)
		}
		return nil
	})

	if step.Optional {
		t = task.SkipOnConfigurationError(t)
	}
	return t
}

func (f *Factory) processTask(builder shell.RequestBuilder, allowFailure bool) task.Task {
	if allowFailure {
		return shell.NewProcessTask(builder, shell.TolerateFailure())
	}
	return shell.NewProcessTask(builder)
}

func (f *Factory) clean(tc *task.Context, patterns []string) error {
	removed, err := f.cleaner.Clean(tc.WorkingDir(), patterns)
	if err != nil {
		return err
	}
	for _, path := range removed {
		tc.Logger().Info("removed " + path)
	}
	return nil
}

func (f *Factory) verify(tc *task.Context, outputs []string) error {
	missing, err := f.verifier.VerifyOutputs(tc.WorkingDir(), outputs)
	if err != nil {
		return err
	}
	if len(missing) > 0 {
		err := zerr.Wrap(domain.ErrOutputMissing, "step did not produce its outputs")
		return zerr.With(zerr.With(err, "missing", strings.Join(missing, ", ")), "dir", tc.WorkingDir())
	}
	return nil
}

func (f *Factory) gitTask(op domain.GitStep) task.Task {
	return task.Func(func(ctx context.Context, tc *task.Context) error {
		repo, err := f.opener.Open(ctx, tc.WorkingDir(), tc.Environment(), tc.Logger())
		if err != nil {
			return err
		}

		repos := []ports.Repository{repo}
		if op.Submodules {
			subs, err := allSubmodules(ctx, repo)
			if err != nil {
				return err
			}
			repos = append(repos, subs...)
		}

		for _, r := range repos {
			if err := runGitAction(ctx, r, op); err != nil {
				return zerr.With(err, "repository", r.Root())
			}
		}
		if len(repos) > 1 {
			tc.Logger().Info("git " + string(op.Action) + " done in " + strconv.Itoa(len(repos)) + " repositories")
		}
		return nil
	})
}

// allSubmodules lists submodules depth-first in declaration order.
func allSubmodules(ctx context.Context, repo ports.Repository) ([]ports.Repository, error) {
	subs, err := repo.Submodules(ctx)
	if err != nil {
		return nil, err
	}
	var all []ports.Repository
	for _, sub := range subs {
		nested, err := allSubmodules(ctx, sub)
		if err != nil {
			return nil, err
		}
		all = append(all, sub)
		all = append(all, nested...)
	}
	return all, nil
}

func runGitAction(ctx context.Context, repo ports.Repository, op domain.GitStep) error {
	switch op.Action {
	case domain.GitFetch:
		return repo.Fetch(ctx, op.Ref)
	case domain.GitPull:
		return repo.Pull(ctx, op.Ref)
	case domain.GitCheckout:
		return repo.Checkout(ctx, op.Ref)
	case domain.GitCommit:
		return repo.Commit(ctx, op.Message)
	case domain.GitTag:
		return repo.Tag(ctx, op.Name, op.Message)
	default:
		return zerr.With(zerr.Wrap(domain.ErrConfiguration, "unknown git action"), "action", string(op.Action))
	}
}
