package domain

import (
	"runtime"
	"strings"
	"sync"
)

// Platform identifies the operating system family a build runs on.
type Platform int

const (
	// PlatformLinux is any Linux distribution.
	PlatformLinux Platform = iota
	// PlatformMacOS is Apple macOS.
	PlatformMacOS
	// PlatformWindows is Microsoft Windows.
	PlatformWindows
	// PlatformOtherUnix covers the remaining POSIX systems (BSDs, illumos, ...).
	PlatformOtherUnix
)

var currentPlatform = sync.OnceValue(func() Platform {
	return PlatformFromGOOS(runtime.GOOS)
})

// CurrentPlatform returns the platform of the running process.
// Detection happens once per process.
func CurrentPlatform() Platform {
	return currentPlatform()
}

// PlatformFromGOOS maps a GOOS value to a Platform.
func PlatformFromGOOS(goos string) Platform {
	switch goos {
	case "linux", "android":
		return PlatformLinux
	case "darwin", "ios":
		return PlatformMacOS
	case "windows":
		return PlatformWindows
	default:
		return PlatformOtherUnix
	}
}

// String returns the platform tag used in qualified environment keys.
func (p Platform) String() string {
	switch p {
	case PlatformLinux:
		return "LINUX"
	case PlatformMacOS:
		return "MACOS"
	case PlatformWindows:
		return "WINDOWS"
	default:
		return "UNIX"
	}
}

// IsWindows reports whether p is Windows.
func (p Platform) IsWindows() bool {
	return p == PlatformWindows
}

// Matches reports whether a bracketed platform tag (without brackets) selects p.
// Tags are case-insensitive. UNIX selects every non-Windows platform.
func (p Platform) Matches(tag string) bool {
	switch strings.ToUpper(tag) {
	case "WINDOWS":
		return p == PlatformWindows
	case "LINUX":
		return p == PlatformLinux
	case "MACOS", "DARWIN", "OSX":
		return p == PlatformMacOS
	case "UNIX", "POSIX":
		return p != PlatformWindows
	default:
		return false
	}
}

// PathListSeparator returns the separator used in PATH-like variables.
func (p Platform) PathListSeparator() string {
	if p.IsWindows() {
		return ";"
	}
	return ":"
}

// PathVariable returns the name of the executable search path variable.
func (p Platform) PathVariable() string {
	return "PATH"
}

// LibraryPathVariable returns the name of the dynamic-library search path variable.
func (p Platform) LibraryPathVariable() string {
	switch p {
	case PlatformWindows:
		return "PATH"
	case PlatformMacOS:
		return "DYLD_LIBRARY_PATH"
	default:
		return "LD_LIBRARY_PATH"
	}
}

// ShellCommand wraps a script in the platform's command interpreter.
func (p Platform) ShellCommand(script string) []string {
	if p.IsWindows() {
		return []string{"cmd", "/c", script}
	}
	return []string{"sh", "-c", script}
}

// pathLikeVariables are merged by concatenation instead of overwrite.
var pathLikeVariables = map[string]struct{}{
	"PATH":              {},
	"LD_LIBRARY_PATH":   {},
	"DYLD_LIBRARY_PATH": {},
}

// IsPathLike reports whether name holds a separator-delimited search path.
func IsPathLike(name string) bool {
	_, ok := pathLikeVariables[name]
	return ok
}

// SameName reports whether two variable names refer to the same variable.
// Windows variable names are case-insensitive, so "Path" and "PATH" are one.
func (p Platform) SameName(a, b string) bool {
	if p.IsWindows() {
		return strings.EqualFold(a, b)
	}
	return a == b
}

// IsPathLike reports whether name holds a search path on p.
func (p Platform) IsPathLike(name string) bool {
	if p.IsWindows() {
		name = strings.ToUpper(name)
	}
	return IsPathLike(name)
}

// EnvKey returns the key under which vars holds name, matching case-insensitively
// on Windows. The exact spelling wins when several keys match.
func (p Platform) EnvKey(vars map[string]string, name string) (string, bool) {
	if _, ok := vars[name]; ok {
		return name, true
	}
	if !p.IsWindows() {
		return "", false
	}
	found := ""
	for key := range vars {
		if strings.EqualFold(key, name) && (found == "" || key < found) {
			found = key
		}
	}
	return found, found != ""
}

// JoinPathLists concatenates two search paths, first taking precedence.
// Empty sides are dropped instead of producing a dangling separator.
func (p Platform) JoinPathLists(first, second string) string {
	switch {
	case first == "":
		return second
	case second == "":
		return first
	default:
		return first + p.PathListSeparator() + second
	}
}
