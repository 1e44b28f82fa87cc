package domain

import (
	"log/slog"
	"strings"
)

// NodeStatus represents the lifecycle state of a task tree node during a run.
type NodeStatus string

const (
	// NodeStatusPending indicates the node has not started yet.
	NodeStatusPending NodeStatus = "pending"
	// NodeStatusRunning indicates the node's task or its children are executing.
	NodeStatusRunning NodeStatus = "running"
	// NodeStatusCompleted indicates the node and all of its children succeeded.
	NodeStatusCompleted NodeStatus = "completed"
	// NodeStatusFailed indicates the node or one of its descendants failed.
	NodeStatusFailed NodeStatus = "failed"
	// NodeStatusSkipped indicates the node's task was skipped after a configuration error.
	NodeStatusSkipped NodeStatus = "skipped"
)

// IsTerminal checks if a status is a terminal state (Completed, Failed, Skipped).
func (s NodeStatus) IsTerminal() bool {
	switch s {
	case NodeStatusCompleted, NodeStatusFailed, NodeStatusSkipped:
		return true
	default:
		return false
	}
}

// NormalizeNodeStatus converts a string to a NodeStatus, defaulting to pending if unknown.
func NormalizeNodeStatus(s string) NodeStatus {
	switch status := NodeStatus(strings.ToLower(s)); status {
	case NodeStatusRunning, NodeStatusCompleted, NodeStatusFailed, NodeStatusSkipped:
		return status
	default:
		return NodeStatusPending
	}
}

// LogLevel represents the severity of a log message, mirroring the standard slog levels.
type LogLevel int

const (
	// LogLevelDebug represents debug-level verbosity.
	LogLevelDebug LogLevel = -4
	// LogLevelInfo represents informational verbosity.
	LogLevelInfo LogLevel = 0
	// LogLevelWarn represents warning verbosity.
	LogLevelWarn LogLevel = 4
	// LogLevelError represents error verbosity.
	LogLevelError LogLevel = 8
)

// String returns the string representation of the LogLevel.
func (l LogLevel) String() string {
	switch l {
	case LogLevelDebug:
		return "DEBUG"
	case LogLevelInfo:
		return "INFO"
	case LogLevelWarn:
		return "WARN"
	case LogLevelError:
		return "ERROR"
	default:
		return "INFO"
	}
}

// Slog converts the level to its log/slog equivalent.
func (l LogLevel) Slog() slog.Level {
	return slog.Level(l)
}

// ParseLogLevel parses a case-insensitive level name. Unknown names yield LogLevelInfo and false.
func ParseLogLevel(s string) (LogLevel, bool) {
	switch strings.ToLower(s) {
	case "debug":
		return LogLevelDebug, true
	case "info", "":
		return LogLevelInfo, true
	case "warn", "warning":
		return LogLevelWarn, true
	case "error":
		return LogLevelError, true
	default:
		return LogLevelInfo, false
	}
}
