// Package ports defines the core interfaces for the application.
package ports

import "go.trai.ch/kiln/internal/core/domain"

// Logger defines the interface for logging.
// Implementations must tolerate concurrent calls from the drain workers and the caller.
//
//go:generate go run go.uber.org/mock/mockgen -source=logger.go -destination=mocks/mock_logger.go -package=mocks
type Logger interface {
	Info(msg string)
	Warn(msg string)
	Error(err error)
	// Output records one line written by a child process.
	Output(stream domain.Stream, line string)
}
