// Package detector selects how log output is rendered for the current environment.
package detector

import (
	"os"
	"strings"

	"golang.org/x/term"
)

// OutputMode represents the rendering mode for log output.
type OutputMode int

const (
	// ModeAuto automatically detects the appropriate mode.
	ModeAuto OutputMode = iota
	// ModePretty renders colored, human-oriented lines.
	ModePretty
	// ModeText renders logfmt-style key=value lines.
	ModeText
	// ModeJSON renders one JSON object per line.
	ModeJSON
)

func (m OutputMode) String() string {
	switch m {
	case ModePretty:
		return "pretty"
	case ModeText:
		return "text"
	case ModeJSON:
		return "json"
	default:
		return "auto"
	}
}

// DetectEnvironment returns the recommended output mode for logs written to f.
// Terminals get pretty output unless a CI variable is set.
func DetectEnvironment(f *os.File) OutputMode {
	isTTY := f != nil && term.IsTerminal(int(f.Fd()))

	ci := os.Getenv("CI")
	isCI := ci == "true" || ci == "1"

	if !isTTY || isCI {
		return ModeText
	}
	return ModePretty
}

// ResolveMode applies a user override flag to auto-detection.
// userFlag should be one of: "auto", "pretty", "text", "ci", "json", or empty.
func ResolveMode(autoDetected OutputMode, userFlag string) OutputMode {
	switch strings.ToLower(userFlag) {
	case "pretty":
		return ModePretty
	case "text", "ci":
		return ModeText
	case "json":
		return ModeJSON
	default:
		return autoDetected
	}
}
