package commands_test

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.trai.ch/kiln/cmd/kiln/commands"
	"go.trai.ch/kiln/internal/adapters/detector"
	"go.trai.ch/kiln/internal/app"
	"go.trai.ch/kiln/internal/build"
	"go.trai.ch/kiln/internal/core/domain"
)

type mockApp struct {
	runFunc   func(ctx context.Context, opts app.RunOptions) error
	watchFunc func(ctx context.Context, opts app.RunOptions) error
	listFunc  func(ctx context.Context, opts app.RunOptions) ([]app.ListEntry, error)
	envFunc   func(ctx context.Context, opts app.RunOptions) ([]string, error)
}

func (m *mockApp) Run(ctx context.Context, opts app.RunOptions) error {
	if m.runFunc != nil {
		return m.runFunc(ctx, opts)
	}
	return nil
}

func (m *mockApp) Watch(ctx context.Context, opts app.RunOptions) error {
	if m.watchFunc != nil {
		return m.watchFunc(ctx, opts)
	}
	return nil
}

func (m *mockApp) List(ctx context.Context, opts app.RunOptions) ([]app.ListEntry, error) {
	if m.listFunc != nil {
		return m.listFunc(ctx, opts)
	}
	return nil, nil
}

func (m *mockApp) Env(ctx context.Context, opts app.RunOptions) ([]string, error) {
	if m.envFunc != nil {
		return m.envFunc(ctx, opts)
	}
	return nil, nil
}

type logSettings struct {
	level domain.LogLevel
	mode  detector.OutputMode
	calls int
}

func (l *logSettings) SetLevel(level domain.LogLevel) {
	l.level = level
	l.calls++
}

func (l *logSettings) SetMode(mode detector.OutputMode) {
	l.mode = mode
}

func execute(t *testing.T, a commands.Application, log commands.LogSettings, args ...string) (string, error) {
	t.Helper()
	cli := commands.New(a, log)
	out := new(bytes.Buffer)
	cli.SetArgs(args)
	cli.SetOutput(out, new(bytes.Buffer))
	err := cli.Execute(context.Background())
	return out.String(), err
}

func TestCommands_Run(t *testing.T) {
	t.Run("wires flags correctly", func(t *testing.T) {
		var captured app.RunOptions
		mock := &mockApp{
			runFunc: func(_ context.Context, opts app.RunOptions) error {
				captured = opts
				return nil
			},
		}

		_, err := execute(t, mock, nil,
			"run", "build", "docs/pdf",
			"-C", "/work", "-f", "ci.yaml",
			"--no-vcs", "--timings",
			"-e", "MODE=release", "--env", "EMPTY=", "-e", "MODE=debug",
		)
		require.NoError(t, err)

		assert.Equal(t, app.RunOptions{
			Dir:         "/work",
			File:        "ci.yaml",
			Targets:     []string{"build", "docs/pdf"},
			Environment: map[string]string{"MODE": "debug", "EMPTY": ""},
			NoVCS:       true,
			Timings:     true,
		}, captured)
	})

	t.Run("watch flag switches to watch mode", func(t *testing.T) {
		watched := false
		mock := &mockApp{
			runFunc: func(context.Context, app.RunOptions) error {
				panic("should not be called")
			},
			watchFunc: func(_ context.Context, opts app.RunOptions) error {
				watched = true
				assert.Equal(t, []string{"build"}, opts.Targets)
				return nil
			},
		}

		_, err := execute(t, mock, nil, "run", "-w", "build")
		require.NoError(t, err)
		assert.True(t, watched)
	})

	t.Run("returns error on run failure", func(t *testing.T) {
		mock := &mockApp{
			runFunc: func(context.Context, app.RunOptions) error {
				return errors.New("simulated error")
			},
		}

		_, err := execute(t, mock, nil, "run")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "simulated error")
	})

	t.Run("rejects malformed environment flags", func(t *testing.T) {
		_, err := execute(t, &mockApp{}, nil, "run", "-e", "NOVALUE")
		require.ErrorIs(t, err, domain.ErrConfiguration)
	})
}

func TestCommands_List(t *testing.T) {
	mock := &mockApp{
		listFunc: func(_ context.Context, opts app.RunOptions) ([]app.ListEntry, error) {
			assert.Equal(t, []string{"docs"}, opts.Targets)
			return []app.ListEntry{
				{Path: "docs", Depth: 0},
				{Path: "docs/pdf", Depth: 1, HasTask: true},
			}, nil
		},
	}

	out, err := execute(t, mock, nil, "list", "docs")
	require.NoError(t, err)
	assert.Equal(t, "docs/\n  pdf\n", out)
}

func TestCommands_Env(t *testing.T) {
	mock := &mockApp{
		envFunc: func(_ context.Context, opts app.RunOptions) ([]string, error) {
			assert.True(t, opts.NoVCS)
			return []string{"A=1", "B=2"}, nil
		},
	}

	out, err := execute(t, mock, nil, "env", "--no-vcs")
	require.NoError(t, err)
	assert.Equal(t, "A=1\nB=2\n", out)
}

func TestCommands_Version(t *testing.T) {
	out, err := execute(t, &mockApp{}, nil, "version")
	require.NoError(t, err)
	assert.Contains(t, out, "kiln version "+build.Version)
	assert.Contains(t, out, "commit: "+build.Commit)
}

func TestCommands_LogFlags(t *testing.T) {
	t.Run("applies level and format", func(t *testing.T) {
		log := &logSettings{}
		_, err := execute(t, &mockApp{}, log, "version", "--log-level", "DEBUG", "--log-format", "json")
		require.NoError(t, err)
		assert.Equal(t, 1, log.calls)
		assert.Equal(t, domain.LogLevelDebug, log.level)
		assert.Equal(t, detector.ModeJSON, log.mode)
	})

	t.Run("rejects unknown level", func(t *testing.T) {
		_, err := execute(t, &mockApp{}, &logSettings{}, "version", "--log-level", "loud")
		require.ErrorIs(t, err, domain.ErrConfiguration)
	})

	t.Run("rejects unknown format", func(t *testing.T) {
		_, err := execute(t, &mockApp{}, &logSettings{}, "version", "--log-format", "xml")
		require.ErrorIs(t, err, domain.ErrConfiguration)
	})
}

func TestCommands_PluginExecute(t *testing.T) {
	t.Run("runs the request from a file", func(t *testing.T) {
		var captured app.RunOptions
		mock := &mockApp{
			runFunc: func(_ context.Context, opts app.RunOptions) error {
				captured = opts
				return nil
			},
		}
		request := filepath.Join(t.TempDir(), "request.json")
		body := `{"workingDir": "/src", "pipeline": "kiln.toml", "targets": ["build"], "environment": {"CI": "1"}}`
		require.NoError(t, os.WriteFile(request, []byte(body), 0o600))

		out, err := execute(t, mock, nil, "plugin", "execute", "--request", request)
		require.NoError(t, err)

		assert.JSONEq(t, `{"success": true, "exitCode": 0}`, out)
		assert.Equal(t, app.RunOptions{
			Dir:         "/src",
			File:        "kiln.toml",
			Targets:     []string{"build"},
			Environment: map[string]string{"CI": "1"},
		}, captured)
	})

	t.Run("reads standard input and reports failures", func(t *testing.T) {
		mock := &mockApp{
			runFunc: func(context.Context, app.RunOptions) error {
				return &domain.ProcessExitError{Code: 3, Command: []string{"make"}}
			},
		}
		cli := commands.New(mock, nil)
		out := new(bytes.Buffer)
		cli.SetArgs([]string{"plugin", "execute"})
		cli.SetOutput(out, new(bytes.Buffer))
		cli.SetInput(strings.NewReader(`{"workingDir": "/src"}`))

		err := cli.Execute(context.Background())
		require.ErrorIs(t, err, domain.ErrBuildExecutionFailed)
		assert.Contains(t, out.String(), `"success": false`)
		assert.Contains(t, out.String(), `"exitCode": 3`)
	})

	t.Run("missing request file", func(t *testing.T) {
		_, err := execute(t, &mockApp{}, nil, "plugin", "execute", "--request", filepath.Join(t.TempDir(), "nope.json"))
		require.ErrorIs(t, err, os.ErrNotExist)
	})
}
