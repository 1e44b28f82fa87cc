package task

import (
	"context"
	"errors"

	"go.trai.ch/kiln/internal/core/domain"
)

// Task is a unit of work run against a Context.
// Errors are returned to the caller unchanged; nothing is retried.
type Task interface {
	Handle(ctx context.Context, tc *Context) error
}

// Func adapts an ordinary function to the Task interface.
type Func func(ctx context.Context, tc *Context) error

// Handle calls f(ctx, tc).
func (f Func) Handle(ctx context.Context, tc *Context) error {
	return f(ctx, tc)
}

// SkipOnConfigurationError runs t and downgrades a configuration error to a warning.
// Every other failure is returned as is.
func SkipOnConfigurationError(t Task) Task {
	return Func(func(ctx context.Context, tc *Context) error {
		err := t.Handle(ctx, tc)
		if err == nil || !errors.Is(err, domain.ErrConfiguration) {
			return err
		}
		tc.Logger().Warn("skipped: " + err.Error())
		markSkipped(ctx)
		return nil
	})
}
