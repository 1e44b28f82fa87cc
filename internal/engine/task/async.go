package task

import (
	"go.trai.ch/kiln/internal/core/domain"
	"go.trai.ch/kiln/internal/core/ports"
)

// AsyncContext is a root Context that owns a drain pool.
// Contexts derived from it share the pool; Close shuts it down.
type AsyncContext struct {
	*Context
}

// NewAsyncContext creates a root context with a running two-worker drain pool.
func NewAsyncContext(dir string, env domain.Environment, logger ports.Logger) (*AsyncContext, error) {
	c, err := NewContext(dir, env, logger)
	if err != nil {
		return nil, err
	}
	c.drains = NewDrainPool()
	return &AsyncContext{Context: c}, nil
}

// Close stops the drain pool immediately. Running processes are not killed.
func (a *AsyncContext) Close() {
	a.drains.Close()
}
