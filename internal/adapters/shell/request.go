// Package shell runs process requests as child OS processes.
package shell

import (
	"strings"

	"go.trai.ch/kiln/internal/core/domain"
	"go.trai.ch/kiln/internal/engine/task"
	"go.trai.ch/zerr"
)

// RequestBuilder produces the process request for one invocation.
type RequestBuilder interface {
	Build(tc *task.Context) (domain.ProcessRequest, error)
}

// BuilderFunc adapts a function to RequestBuilder.
type BuilderFunc func(tc *task.Context) (domain.ProcessRequest, error)

// Build calls f(tc).
func (f BuilderFunc) Build(tc *task.Context) (domain.ProcessRequest, error) {
	return f(tc)
}

// Request returns a builder that always yields a copy of req.
func Request(req domain.ProcessRequest) RequestBuilder {
	return BuilderFunc(func(*task.Context) (domain.ProcessRequest, error) {
		return req.Clone(), nil
	})
}

// Script runs script through the platform shell.
// On POSIX the shell expands $NAME itself from the exported environment, so
// values are never spliced into the script source; the reads are still
// recorded. Dotted names are not shell syntax and are substituted. cmd does
// not understand $NAME at all, so on Windows every known placeholder is substituted.
func Script(script string) RequestBuilder {
	return BuilderFunc(func(tc *task.Context) (domain.ProcessRequest, error) {
		if strings.TrimSpace(script) == "" {
			return domain.ProcessRequest{}, zerr.Wrap(domain.ErrConfiguration, "script is empty")
		}
		platform := domain.CurrentPlatform()
		source := shellSource(platform, tc.Environment(), script)
		return domain.ProcessRequest{Argv: platform.ShellCommand(source)}, nil
	})
}

func shellSource(platform domain.Platform, env domain.Environment, script string) string {
	if platform.IsWindows() {
		return env.ResolvePlaceholders(script)
	}
	return domain.ExpandPlaceholders(script, func(name string) (string, bool) {
		value, err := env.Get(name)
		if err != nil || !strings.Contains(name, ".") {
			return "", false
		}
		return value, true
	})
}

// Command runs args without a shell, resolving placeholders in every argument.
func Command(args ...string) RequestBuilder {
	return BuilderFunc(func(tc *task.Context) (domain.ProcessRequest, error) {
		if len(args) == 0 {
			return domain.ProcessRequest{}, zerr.Wrap(domain.ErrConfiguration, "command is empty")
		}
		env := tc.Environment()
		argv := make([]string, len(args))
		for i, arg := range args {
			argv[i] = env.ResolvePlaceholders(arg)
		}
		return domain.ProcessRequest{Argv: argv}, nil
	})
}
