// Package task implements the task orchestration engine: task contexts, the
// output drain pool and the ordered task tree.
package task

import (
	"path/filepath"

	"go.trai.ch/kiln/internal/core/domain"
	"go.trai.ch/kiln/internal/core/ports"
	"go.trai.ch/zerr"
)

// Context carries the working directory, environment and logger a Task runs with.
// It is never mutated; Wrap and WrapDir return derived copies sharing the logger
// and drain pool.
type Context struct {
	workingDir string
	env        domain.Environment
	logger     ports.Logger
	drains     *DrainPool
}

// NewContext creates a root context. dir is made absolute; a nil env is empty.
func NewContext(dir string, env domain.Environment, logger ports.Logger) (*Context, error) {
	if logger == nil {
		return nil, zerr.Wrap(domain.ErrConfiguration, "task context requires a logger")
	}
	abs, err := filepath.Abs(dir)
	if err != nil {
		return nil, zerr.With(zerr.Wrap(err, "failed to resolve working directory"), "dir", dir)
	}
	if env == nil {
		env = domain.NewEnvironment(nil)
	}
	return &Context{workingDir: abs, env: env, logger: logger}, nil
}

// WorkingDir returns the absolute working directory.
func (c *Context) WorkingDir() string {
	return c.workingDir
}

// Environment returns the context's environment.
func (c *Context) Environment() domain.Environment {
	return c.env
}

// Logger returns the shared logger.
func (c *Context) Logger() ports.Logger {
	return c.logger
}

// DrainPool returns the shared drain pool, or nil for a context without one.
func (c *Context) DrainPool() *DrainPool {
	return c.drains
}

// Wrap returns a context with env replacing the environment.
func (c *Context) Wrap(env domain.Environment) *Context {
	derived := *c
	if env != nil {
		derived.env = env
	}
	return &derived
}

// WrapDir returns a context with a new working directory and environment.
// A relative dir is resolved against the receiver's working directory; a nil env keeps the current one.
func (c *Context) WrapDir(dir string, env domain.Environment) *Context {
	derived := c.Wrap(env)
	switch {
	case dir == "":
	case filepath.IsAbs(dir):
		derived.workingDir = filepath.Clean(dir)
	default:
		derived.workingDir = filepath.Join(c.workingDir, dir)
	}
	return derived
}

// WithLogger returns a context logging to logger. A nil logger keeps the current one.
func (c *Context) WithLogger(logger ports.Logger) *Context {
	derived := *c
	if logger != nil {
		derived.logger = logger
	}
	return &derived
}
