package domain

import (
	"maps"
	"slices"
	"strconv"
	"strings"
)

// ProcessRequest describes one external command invocation.
type ProcessRequest struct {
	// WorkingDir is the directory to run in. Empty means the task context's directory.
	WorkingDir string
	// Environment is an overlay applied over the context environment.
	Environment map[string]string
	// Argv is the fully resolved command line, shell wrapper included.
	Argv []string
}

// CommandLine renders Argv as a shell-quoted line suitable for replaying by hand.
func (r ProcessRequest) CommandLine() string {
	quoted := make([]string, len(r.Argv))
	for i, arg := range r.Argv {
		quoted[i] = QuoteArg(arg)
	}
	return strings.Join(quoted, " ")
}

// Clone returns a deep copy of the request.
func (r ProcessRequest) Clone() ProcessRequest {
	return ProcessRequest{
		WorkingDir:  r.WorkingDir,
		Environment: maps.Clone(r.Environment),
		Argv:        slices.Clone(r.Argv),
	}
}

// QuoteArg quotes arg if it contains characters a POSIX shell would interpret.
func QuoteArg(arg string) string {
	if arg == "" {
		return "''"
	}
	if strings.IndexFunc(arg, needsQuoting) < 0 {
		return arg
	}
	if !strings.Contains(arg, "'") {
		return "'" + arg + "'"
	}
	return strconv.Quote(arg)
}

func needsQuoting(r rune) bool {
	switch {
	case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
		return false
	}
	return !strings.ContainsRune("-_./:=,+@%", r)
}
