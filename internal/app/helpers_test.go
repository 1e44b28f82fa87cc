package app_test

import (
	"os"
	"path/filepath"
	"runtime"
	"slices"
	"strings"
	"sync"
	"testing"

	"go.trai.ch/kiln/internal/core/domain"
)

// recordingLogger keeps every message for assertions.
type recordingLogger struct {
	mu     sync.Mutex
	infos  []string
	warns  []string
	errs   []error
	output []string
}

func (l *recordingLogger) Info(msg string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.infos = append(l.infos, msg)
}

func (l *recordingLogger) Warn(msg string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.warns = append(l.warns, msg)
}

func (l *recordingLogger) Error(err error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.errs = append(l.errs, err)
}

func (l *recordingLogger) Output(stream domain.Stream, line string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.output = append(l.output, stream.String()+": "+line)
}

func (l *recordingLogger) Outputs() []string {
	l.mu.Lock()
	defer l.mu.Unlock()
	return slices.Clone(l.output)
}

func (l *recordingLogger) Infos() []string {
	l.mu.Lock()
	defer l.mu.Unlock()
	return slices.Clone(l.infos)
}

func (l *recordingLogger) Warns() []string {
	l.mu.Lock()
	defer l.mu.Unlock()
	return slices.Clone(l.warns)
}

func (l *recordingLogger) hasInfo(substr string) bool {
	return slices.ContainsFunc(l.Infos(), func(msg string) bool {
		return strings.Contains(msg, substr)
	})
}

func requireUnix(t *testing.T) {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("uses a POSIX shell")
	}
}

func pathEnvironment(extra map[string]string) func() domain.Environment {
	return func() domain.Environment {
		vars := map[string]string{"PATH": os.Getenv("PATH")}
		for k, v := range extra {
			vars[k] = v
		}
		return domain.NewEnvironment(vars)
	}
}

func realDir(t *testing.T) string {
	t.Helper()
	dir, err := filepath.EvalSymlinks(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	return dir
}
