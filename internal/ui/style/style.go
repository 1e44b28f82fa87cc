// Package style holds the colors and icons kiln renders node states with.
package style

import (
	"github.com/charmbracelet/lipgloss"
	"go.trai.ch/kiln/internal/core/domain"
)

// Colors.
var (
	Slate  = lipgloss.Color("#667085")
	Green  = lipgloss.Color("#22A06B")
	Red    = lipgloss.Color("#D93025")
	Yellow = lipgloss.Color("#F59E0B")
)

// Icons.
const (
	Check   = "✓"
	Cross   = "✗"
	Skip    = "-"
	Running = "…"
	Warning = "!"
	Gutter  = "│"
)

// StatusIcon returns the icon a node in status is listed with.
func StatusIcon(status domain.NodeStatus) string {
	switch status {
	case domain.NodeStatusCompleted:
		return Check
	case domain.NodeStatusFailed:
		return Cross
	case domain.NodeStatusSkipped:
		return Skip
	default:
		return Running
	}
}

// StatusColor returns the color a node in status is listed with.
func StatusColor(status domain.NodeStatus) lipgloss.Color {
	switch status {
	case domain.NodeStatusCompleted:
		return Green
	case domain.NodeStatusFailed:
		return Red
	case domain.NodeStatusSkipped:
		return Yellow
	default:
		return Slate
	}
}
