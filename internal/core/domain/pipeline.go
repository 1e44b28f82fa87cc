package domain

import (
	"slices"
	"strings"

	"go.trai.ch/zerr"
)

// GitAction names a repository operation a step can perform.
type GitAction string

const (
	GitFetch    GitAction = "fetch"
	GitPull     GitAction = "pull"
	GitCheckout GitAction = "checkout"
	GitCommit   GitAction = "commit"
	GitTag      GitAction = "tag"
)

var knownGitActions = []GitAction{GitFetch, GitPull, GitCheckout, GitCommit, GitTag}

// IsKnown reports whether a is one of the supported actions.
func (a GitAction) IsKnown() bool {
	return slices.Contains(knownGitActions, a)
}

// GitStep configures a repository operation.
type GitStep struct {
	Action GitAction
	// Ref is the branch or revision for fetch, pull and checkout.
	Ref string
	// Message is the commit or annotated tag message.
	Message string
	// Name is the tag name.
	Name string
	// Submodules repeats the action in every submodule.
	Submodules bool
}

// Pipeline is a loaded pipeline file.
type Pipeline struct {
	Name        string
	Environment map[string]string
	Steps       []StepSpec
}

// StepSpec configures one node of the task tree.
type StepSpec struct {
	Name        string
	Dir         string
	Environment map[string]string
	// Cmd is a script run through the platform shell.
	Cmd string
	// Args is an argv run without a shell.
	Args         []string
	AllowFailure bool
	// Optional steps log configuration errors as warnings instead of failing.
	Optional bool
	Outputs  []string
	Clean    []string
	Git      *GitStep
	Steps    []StepSpec
}

// HasTask reports whether the step does any work of its own.
func (s *StepSpec) HasTask() bool {
	return s.Cmd != "" || len(s.Args) > 0 || len(s.Clean) > 0 || len(s.Outputs) > 0 || s.Git != nil
}

// Validate checks names, sibling uniqueness and mutually exclusive fields for the whole pipeline.
func (p *Pipeline) Validate() error {
	return validateSteps(p.Steps, "")
}

func validateSteps(steps []StepSpec, parent string) error {
	seen := make(map[string]struct{}, len(steps))
	for i := range steps {
		step := &steps[i]
		path := step.Name
		if parent != "" {
			path = parent + "/" + step.Name
		}
		if err := validateStep(step, path); err != nil {
			return err
		}
		if _, dup := seen[step.Name]; dup {
			return zerr.With(zerr.Wrap(ErrConfiguration, "duplicate step name"), "step", path)
		}
		seen[step.Name] = struct{}{}
		if err := validateSteps(step.Steps, path); err != nil {
			return err
		}
	}
	return nil
}

func validateStep(step *StepSpec, path string) error {
	switch {
	case strings.TrimSpace(step.Name) == "":
		return zerr.With(zerr.Wrap(ErrConfiguration, "step name is empty"), "parent", path)
	case strings.Contains(step.Name, "/"):
		return zerr.With(zerr.Wrap(ErrConfiguration, "step name must not contain '/'"), "step", path)
	case step.Cmd != "" && len(step.Args) > 0:
		return zerr.With(zerr.Wrap(ErrConfiguration, "cmd and args are mutually exclusive"), "step", path)
	case step.Git != nil && (step.Cmd != "" || len(step.Args) > 0):
		return zerr.With(zerr.Wrap(ErrConfiguration, "git and cmd/args are mutually exclusive"), "step", path)
	case step.Git != nil && !step.Git.Action.IsKnown():
		return zerr.With(
			zerr.With(zerr.Wrap(ErrConfiguration, "unknown git action"), "step", path),
			"action", string(step.Git.Action),
		)
	case step.Git != nil && step.Git.Action == GitTag && step.Git.Name == "":
		return zerr.With(zerr.Wrap(ErrConfiguration, "git tag requires a name"), "step", path)
	}
	return nil
}
