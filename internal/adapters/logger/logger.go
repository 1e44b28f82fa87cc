// Package logger implements a logging adapter using log/slog.
package logger

import (
	"context"
	"io"
	"log/slog"
	"os"
	"sync"

	"go.trai.ch/kiln/internal/adapters/detector"
	"go.trai.ch/kiln/internal/core/domain"
	"go.trai.ch/zerr"
)

// Logger implements ports.Logger using log/slog.
// Safe for concurrent use; the drain workers call Output while the tree logs progress.
type Logger struct {
	logger *slog.Logger
	mu     sync.RWMutex
	mode   detector.OutputMode
	output io.Writer
	level  *slog.LevelVar
}

// New creates a Logger writing to stderr in the mode detected for it.
func New() *Logger {
	l := &Logger{
		output: os.Stderr,
		mode:   detector.DetectEnvironment(os.Stderr),
		level:  &slog.LevelVar{},
	}
	l.rebuild()
	return l
}

// SetOutput updates the logger's output destination, preserving the mode.
// If w is nil, os.Stderr is used.
func (l *Logger) SetOutput(w io.Writer) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if w == nil {
		w = os.Stderr
	}
	l.output = w
	l.rebuild()
}

// SetMode switches the rendering mode. ModeAuto is resolved against the current output.
func (l *Logger) SetMode(mode detector.OutputMode) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if mode == detector.ModeAuto {
		f, _ := l.output.(*os.File)
		mode = detector.DetectEnvironment(f)
	}
	l.mode = mode
	l.rebuild()
}

// SetLevel sets the minimum level that is written.
func (l *Logger) SetLevel(level domain.LogLevel) {
	l.level.Set(level.Slog())
}

// Mode reports the active rendering mode.
func (l *Logger) Mode() detector.OutputMode {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.mode
}

// rebuild must be called with mu held.
func (l *Logger) rebuild() {
	opts := &slog.HandlerOptions{Level: l.level}

	var handler slog.Handler
	switch l.mode {
	case detector.ModeJSON:
		handler = slog.NewJSONHandler(l.output, opts)
	case detector.ModeText:
		handler = slog.NewTextHandler(l.output, opts)
	default:
		handler = NewPrettyHandler(l.output, opts)
	}
	l.logger = slog.New(handler)
}

// Info logs an informational message.
func (l *Logger) Info(msg string) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	l.logger.Info(msg)
}

// Warn logs a warning message.
func (l *Logger) Warn(msg string) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	l.logger.Warn(msg)
}

// Error logs an error with its cause chain.
func (l *Logger) Error(err error) {
	if err == nil {
		return
	}

	l.mu.RLock()
	defer l.mu.RUnlock()

	if l.mode == detector.ModePretty {
		l.logger.Error(FormatError(err))
		return
	}
	zerr.Log(context.Background(), l.logger, err)
}

// Output logs one line written by a child process.
func (l *Logger) Output(stream domain.Stream, line string) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	l.logger.LogAttrs(context.Background(), slog.LevelInfo, line, slog.String(StreamKey, stream.String()))
}
