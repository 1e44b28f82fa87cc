package shell

import (
	"context"
	"errors"
	"io"
	"os"
	"os/exec"
	"strings"
	"time"

	"go.trai.ch/kiln/internal/core/domain"
	"go.trai.ch/kiln/internal/core/ports"
	"go.trai.ch/kiln/internal/engine/task"
	"go.trai.ch/zerr"
)

// DefaultWaitDelay is how long output is still read after the process exited.
// Background children that inherited the output pipes are cut off after it.
const DefaultWaitDelay = time.Second

// ProcessTask is a task that runs the request produced by its builder as a child process.
type ProcessTask struct {
	builder       RequestBuilder
	throwIfFailed bool
	waitDelay     time.Duration
	// capture receives stdout lines instead of the logger when set.
	capture func(string)
}

// Option configures a ProcessTask.
type Option func(*ProcessTask)

// TolerateFailure makes a nonzero exit code a warning instead of an error.
func TolerateFailure() Option {
	return func(p *ProcessTask) {
		p.throwIfFailed = false
	}
}

// WaitDelay bounds how long output is drained once the process has exited.
func WaitDelay(d time.Duration) Option {
	return func(p *ProcessTask) {
		p.waitDelay = d
	}
}

// NewProcessTask creates a ProcessTask that fails on a nonzero exit code unless configured otherwise.
func NewProcessTask(builder RequestBuilder, opts ...Option) *ProcessTask {
	p := &ProcessTask{builder: builder, throwIfFailed: true, waitDelay: DefaultWaitDelay}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Handle builds the request, logs how to replay it and runs it to completion.
func (p *ProcessTask) Handle(ctx context.Context, tc *task.Context) error {
	if p.builder == nil {
		return zerr.Wrap(domain.ErrConfiguration, "process task has no request builder")
	}
	req, err := p.builder.Build(tc)
	if err != nil {
		return err
	}
	if len(req.Argv) == 0 {
		return zerr.Wrap(domain.ErrConfiguration, "process request has no command")
	}

	dir := tc.WrapDir(req.WorkingDir, nil).WorkingDir()
	platform := domain.CurrentPlatform()
	env := mergeEnvironment(platform, tc.Environment().ToMap(), req.Environment)

	tc.Logger().Info(describe(env, dir, req))

	return p.run(ctx, tc, platform, dir, env, req.Argv)
}

func (p *ProcessTask) run(
	ctx context.Context,
	tc *task.Context,
	platform domain.Platform,
	dir string,
	env map[string]string,
	argv []string,
) error {
	name := argv[0]
	executable := name
	if resolved, ok := lookPath(platform, name, env); ok {
		executable = resolved
	}

	//nolint:gosec // running configured commands is the point of this package
	cmd := exec.CommandContext(ctx, executable, argv[1:]...)
	// Restore the original name
	cmd.Args[0] = name
	cmd.Dir = dir
	cmd.Env = environList(env)

	stdoutR, stdoutW, err := os.Pipe()
	if err != nil {
		return zerr.Wrap(err, "failed to create stdout pipe")
	}
	stderrR, stderrW, err := os.Pipe()
	if err != nil {
		closeAll(stdoutR, stdoutW)
		return zerr.Wrap(err, "failed to create stderr pipe")
	}
	cmd.Stdout = stdoutW
	cmd.Stderr = stderrW

	startErr := cmd.Start()
	// The child holds its own copies; ours must go so the readers see EOF.
	closeAll(stdoutW, stderrW)
	if startErr != nil {
		closeAll(stdoutR, stderrR)
		if ctx.Err() != nil {
			return &domain.InterruptedError{Err: ctx.Err()}
		}
		return &domain.ProcessLaunchError{Executable: name, Err: startErr}
	}

	pool := tc.DrainPool()
	if pool == nil {
		pool = task.NewDrainPool()
		defer pool.Close()
	}

	vertex, _ := ports.VertexFromContext(ctx)
	logger := tc.Logger()
	wait, err := pool.Drain(
		task.Stream{Reader: stdoutR, Sink: p.sink(logger, vertex, domain.Stdout)},
		task.Stream{Reader: stderrR, Sink: p.sink(logger, vertex, domain.Stderr)},
	)
	if err != nil {
		_ = cmd.Process.Kill()
		_ = cmd.Wait()
		closeAll(stdoutR, stderrR)
		return zerr.Wrap(err, "failed to drain process output")
	}

	waitErr := cmd.Wait()
	if ctx.Err() != nil {
		// Orphaned grandchildren may keep the pipes open.
		closeAll(stdoutR, stderrR)
	}
	drainErr := p.awaitDrain(wait, logger, name, stdoutR, stderrR)
	closeAll(stdoutR, stderrR)

	if errors.Is(drainErr, task.ErrPoolClosed) {
		logger.Warn("output draining stopped before " + name + " finished")
		drainErr = nil
	}

	return p.result(ctx, logger, argv, waitErr, drainErr)
}

// awaitDrain waits for the output readers, closing them when a process that
// inherited the pipes keeps them open past the wait delay.
func (p *ProcessTask) awaitDrain(wait func() error, logger ports.Logger, name string, readers ...*os.File) error {
	drained := make(chan error, 1)
	go func() {
		drained <- wait()
	}()

	timer := time.NewTimer(p.waitDelay)
	defer timer.Stop()
	select {
	case err := <-drained:
		return err
	case <-timer.C:
		logger.Warn(name + " exited but its output is still held open, probably by a background process; no longer reading it")
		closeAll(readers...)
		return <-drained
	}
}

func (p *ProcessTask) result(ctx context.Context, logger ports.Logger, argv []string, waitErr, drainErr error) error {
	if waitErr == nil {
		return drainErr
	}
	if ctx.Err() != nil {
		return &domain.InterruptedError{Err: ctx.Err()}
	}

	var exitErr *exec.ExitError
	if !errors.As(waitErr, &exitErr) {
		return zerr.Wrap(waitErr, "failed to wait for process")
	}

	failure := &domain.ProcessExitError{Code: exitErr.ExitCode(), Command: argv}
	if p.throwIfFailed {
		return failure
	}
	logger.Warn(failure.Error() + ", ignored")
	return drainErr
}

func (p *ProcessTask) sink(logger ports.Logger, vertex ports.Vertex, stream domain.Stream) func(string) {
	var mirror io.Writer
	if vertex != nil {
		if stream == domain.Stdout {
			mirror = vertex.Stdout()
		} else {
			mirror = vertex.Stderr()
		}
	}

	return func(line string) {
		if mirror != nil {
			_, _ = io.WriteString(mirror, line+"\n")
		}
		if p.capture != nil && stream == domain.Stdout {
			p.capture(line)
			return
		}
		logger.Output(stream, line)
	}
}

// Output runs req and returns its standard output with the trailing newline removed.
// Standard error is still forwarded to the logger.
func Output(ctx context.Context, tc *task.Context, req domain.ProcessRequest) (string, error) {
	var out strings.Builder
	p := NewProcessTask(Request(req))
	p.capture = func(line string) {
		out.WriteString(line)
		out.WriteByte('\n')
	}
	err := p.Handle(ctx, tc)
	return strings.TrimSuffix(out.String(), "\n"), err
}

func closeAll(files ...*os.File) {
	for _, f := range files {
		_ = f.Close()
	}
}
