package domain

import (
	"maps"
	"os"
	"regexp"
	"slices"
	"strings"
)

// Environment is an immutable mapping of variable names to values.
//
// Keys may carry a platform qualifier such as "[WINDOWS]FOO". A qualified entry is
// visible under its bare name only on a matching platform and takes precedence over
// an unqualified entry of the same name.
type Environment interface {
	// IsSet reports whether name is visible on the environment's platform.
	IsSet(name string) bool
	// Get returns the value of name or a *MissingVariableError.
	Get(name string) (string, error)
	// ToMap returns a snapshot of the visible, unqualified view.
	ToMap() map[string]string
	// Derive returns a new environment with overlay applied on top of the receiver.
	Derive(overlay map[string]string) Environment
	// ResolvePlaceholders replaces $NAME and ${NAME} with visible values.
	// Unknown placeholders are left untouched.
	ResolvePlaceholders(text string) string
}

type environment struct {
	platform Platform
	raw      map[string]string
	visible  map[string]string
}

// NewEnvironment creates an environment for the current platform.
// The map is copied; later changes to vars are not observed.
func NewEnvironment(vars map[string]string) Environment {
	return NewEnvironmentFor(CurrentPlatform(), vars)
}

// NewEnvironmentFor creates an environment that resolves qualifiers against platform.
func NewEnvironmentFor(platform Platform, vars map[string]string) Environment {
	raw := make(map[string]string, len(vars))
	maps.Copy(raw, vars)
	return newEnvironment(platform, raw)
}

// EnvironmentFromOS captures the environment of the running process.
func EnvironmentFromOS() Environment {
	vars := make(map[string]string)
	for _, kv := range os.Environ() {
		name, value, ok := strings.Cut(kv, "=")
		// Windows exposes per-drive working directories as "=C:=C:\...".
		if !ok || name == "" {
			continue
		}
		vars[name] = value
	}
	return newEnvironment(CurrentPlatform(), vars)
}

func newEnvironment(platform Platform, raw map[string]string) *environment {
	return &environment{platform: platform, raw: raw, visible: resolveVisible(platform, raw)}
}

// splitQualifier separates "[TAG]NAME" into its parts.
func splitQualifier(key string) (tag, name string, qualified bool) {
	if !strings.HasPrefix(key, "[") {
		return "", key, false
	}
	end := strings.IndexByte(key, ']')
	if end < 0 {
		return "", key, false
	}
	return key[1:end], key[end+1:], true
}

// qualifierRank orders matching qualifiers: a named OS beats the UNIX family.
func qualifierRank(tag string) int {
	switch strings.ToUpper(tag) {
	case "UNIX", "POSIX":
		return 1
	default:
		return 2
	}
}

func resolveVisible(platform Platform, raw map[string]string) map[string]string {
	visible := make(map[string]string, len(raw))
	rank := make(map[string]int)
	for _, key := range slices.Sorted(maps.Keys(raw)) {
		tag, name, qualified := splitQualifier(key)
		switch {
		case !qualified:
			if _, taken := rank[name]; !taken {
				visible[name] = raw[key]
			}
		case platform.Matches(tag) && qualifierRank(tag) > rank[name]:
			visible[name] = raw[key]
			rank[name] = qualifierRank(tag)
		}
	}
	return visible
}

func (e *environment) lookup(name string) (string, bool) {
	value, ok := e.visible[name]
	return value, ok
}

func (e *environment) IsSet(name string) bool {
	_, ok := e.lookup(name)
	return ok
}

func (e *environment) Get(name string) (string, error) {
	value, ok := e.lookup(name)
	if !ok {
		return "", &MissingVariableError{Name: name}
	}
	return value, nil
}

func (e *environment) ToMap() map[string]string {
	return maps.Clone(e.visible)
}

func (e *environment) Derive(overlay map[string]string) Environment {
	raw := make(map[string]string, len(e.raw)+len(overlay))
	maps.Copy(raw, e.raw)

	// Names the overlay makes visible replace every base variant, qualified or not.
	var shadowed []string
	for key := range overlay {
		if name, visible := e.visibleName(key); visible {
			shadowed = append(shadowed, name)
		}
	}
	for key := range e.raw {
		_, name, _ := splitQualifier(key)
		if slices.ContainsFunc(shadowed, func(s string) bool { return e.platform.SameName(s, name) }) {
			delete(raw, key)
		}
	}

	for key, value := range overlay {
		if name, visible := e.visibleName(key); visible && e.platform.IsPathLike(name) {
			if baseKey, ok := e.platform.EnvKey(e.visible, name); ok {
				value = e.platform.JoinPathLists(value, e.visible[baseKey])
			}
		}
		raw[key] = value
	}
	return newEnvironment(e.platform, raw)
}

// visibleName returns the bare name of key and whether key is visible on the platform.
func (e *environment) visibleName(key string) (string, bool) {
	tag, name, qualified := splitQualifier(key)
	return name, !qualified || e.platform.Matches(tag)
}

func (e *environment) ResolvePlaceholders(text string) string {
	return ExpandPlaceholders(text, e.lookup)
}

var placeholderPattern = regexp.MustCompile(`\$\{([A-Za-z_][A-Za-z0-9_.]*)\}|\$([A-Za-z_][A-Za-z0-9_]*)`)

// ExpandPlaceholders substitutes $NAME and ${NAME} in text using lookup.
// Placeholders that lookup cannot resolve are kept verbatim.
func ExpandPlaceholders(text string, lookup func(string) (string, bool)) string {
	if !strings.Contains(text, "$") {
		return text
	}
	return placeholderPattern.ReplaceAllStringFunc(text, func(match string) string {
		groups := placeholderPattern.FindStringSubmatch(match)
		name := groups[1]
		if name == "" {
			name = groups[2]
		}
		if value, ok := lookup(name); ok {
			return value
		}
		return match
	})
}
