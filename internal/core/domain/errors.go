package domain

import (
	"errors"
	"fmt"
	"strings"

	"go.trai.ch/zerr"
)

var (
	// ErrConfiguration is returned when a required argument or variable is missing
	// before any process is spawned.
	ErrConfiguration = zerr.New("configuration error")

	// ErrMissingVariable is returned when an environment variable is read but not set.
	ErrMissingVariable = zerr.New("missing variable")

	// ErrProcessLaunch is returned when the OS fails to create a process.
	ErrProcessLaunch = zerr.New("process launch failed")

	// ErrProcessExit is returned when a process exits with a nonzero code.
	ErrProcessExit = zerr.New("process exited with nonzero code")

	// ErrInterrupted is returned when waiting on a process is cancelled.
	ErrInterrupted = zerr.New("interrupted")

	// ErrTaskExecution marks a failure raised by a task tree node.
	ErrTaskExecution = zerr.New("task execution failed")

	// ErrBuildExecutionFailed is returned when a pipeline run fails.
	ErrBuildExecutionFailed = zerr.New("build execution failed")

	// ErrTaskNotFound is returned when a requested tree path does not exist.
	ErrTaskNotFound = zerr.New("task not found")

	// ErrConfigNotFound is returned when no pipeline file can be located.
	ErrConfigNotFound = zerr.New("pipeline file not found")

	// ErrOutputMissing is returned when a step does not produce a declared output.
	ErrOutputMissing = zerr.New("declared output missing")
)

// MissingVariableError reports a read of an unset environment variable.
type MissingVariableError struct {
	Name string
}

func (e *MissingVariableError) Error() string {
	return fmt.Sprintf("missing variable %q", e.Name)
}

// Is matches ErrMissingVariable and ErrConfiguration.
func (e *MissingVariableError) Is(target error) bool {
	return target == ErrMissingVariable || target == ErrConfiguration
}

// ProcessLaunchError reports that an executable could not be started.
type ProcessLaunchError struct {
	Executable string
	Err        error
}

func (e *ProcessLaunchError) Error() string {
	return fmt.Sprintf("failed to launch %s: %v", e.Executable, e.Err)
}

// Is matches ErrProcessLaunch.
func (e *ProcessLaunchError) Is(target error) bool {
	return target == ErrProcessLaunch
}

func (e *ProcessLaunchError) Unwrap() error {
	return e.Err
}

// ProcessExitError reports a nonzero exit code.
type ProcessExitError struct {
	Code    int
	Command []string
}

func (e *ProcessExitError) Error() string {
	return fmt.Sprintf("%s exited with code %d", strings.Join(e.Command, " "), e.Code)
}

// Is matches ErrProcessExit.
func (e *ProcessExitError) Is(target error) bool {
	return target == ErrProcessExit
}

// InterruptedError reports that a wait on a process was cancelled.
// The process has been killed and reaped by the time it is returned.
type InterruptedError struct {
	Err error
}

func (e *InterruptedError) Error() string {
	return fmt.Sprintf("interrupted: %v", e.Err)
}

// Is matches ErrInterrupted.
func (e *InterruptedError) Is(target error) bool {
	return target == ErrInterrupted
}

func (e *InterruptedError) Unwrap() error {
	return e.Err
}

// TaskError attributes a failure to the tree node whose own task raised it.
type TaskError struct {
	Node string
	Err  error
}

func (e *TaskError) Error() string {
	return fmt.Sprintf("%s: %v", e.Node, e.Err)
}

// Is matches ErrTaskExecution.
func (e *TaskError) Is(target error) bool {
	return target == ErrTaskExecution
}

func (e *TaskError) Unwrap() error {
	return e.Err
}

// ExitCode extracts the process exit code carried by err, or 1 when there is none.
func ExitCode(err error) int {
	if err == nil {
		return 0
	}
	var exitErr *ProcessExitError
	if errors.As(err, &exitErr) {
		return exitErr.Code
	}
	return 1
}
