package shell

import (
	"fmt"
	"maps"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/cespare/xxhash/v2"
	"go.trai.ch/kiln/internal/core/domain"
)

// passThroughEnvVars are request keys that replace the context value outright.
var passThroughEnvVars = []string{"HOME", "TERM", "USER"}

// mergeEnvironment applies the request overlay to the context environment.
// Path lists are prefixed with the request value; other request keys are ignored.
// On Windows keys match regardless of case and keep the base's spelling.
func mergeEnvironment(platform domain.Platform, base, overlay map[string]string) map[string]string {
	merged := maps.Clone(base)
	if merged == nil {
		merged = make(map[string]string)
	}

	pathKeys := []string{platform.PathVariable(), platform.LibraryPathVariable()}
	for _, key := range slices.Compact(pathKeys) {
		overlayKey, ok := platform.EnvKey(overlay, key)
		if !ok {
			continue
		}
		target, _ := platform.EnvKey(merged, key)
		if target == "" {
			target = key
		}
		merged[target] = platform.JoinPathLists(overlay[overlayKey], merged[target])
	}

	for _, key := range passThroughEnvVars {
		overlayKey, ok := platform.EnvKey(overlay, key)
		if !ok {
			continue
		}
		target, _ := platform.EnvKey(merged, key)
		if target == "" {
			target = key
		}
		merged[target] = overlay[overlayKey]
	}
	return merged
}

// environList renders env as sorted KEY=VALUE pairs.
func environList(env map[string]string) []string {
	keys := slices.Sorted(maps.Keys(env))
	list := make([]string, 0, len(keys))
	for _, key := range keys {
		list = append(list, key+"="+env[key])
	}
	return list
}

// describe renders the replayable preamble logged before a process starts.
func describe(env map[string]string, dir string, req domain.ProcessRequest) string {
	var b strings.Builder
	b.WriteString("fingerprint ")
	b.WriteString(fingerprint(env, dir, req.Argv))
	b.WriteByte('\n')
	for _, key := range slices.Sorted(maps.Keys(env)) {
		b.WriteString("export ")
		b.WriteString(key)
		b.WriteByte('=')
		b.WriteString(domain.QuoteArg(env[key]))
		b.WriteByte('\n')
	}
	b.WriteString("cd ")
	b.WriteString(domain.QuoteArg(dir))
	b.WriteByte('\n')
	b.WriteString(req.CommandLine())
	return b.String()
}

// fingerprint hashes everything that determines what a process invocation does.
func fingerprint(env map[string]string, dir string, argv []string) string {
	h := xxhash.New()
	for _, entry := range environList(env) {
		_, _ = h.WriteString(entry)
		_, _ = h.Write([]byte{0})
	}
	_, _ = h.WriteString(dir)
	_, _ = h.Write([]byte{0})
	for _, arg := range argv {
		_, _ = h.WriteString(arg)
		_, _ = h.Write([]byte{0})
	}
	return fmt.Sprintf("%016x", h.Sum64())
}

// lookPath searches for an executable named file in the directories named by
// the path variable of env. Names containing a separator are returned as is.
func lookPath(platform domain.Platform, file string, env map[string]string) (string, bool) {
	if strings.ContainsRune(file, '/') || strings.ContainsRune(file, filepath.Separator) {
		return file, true
	}
	key, ok := platform.EnvKey(env, platform.PathVariable())
	if !ok {
		return "", false
	}
	path := env[key]
	for dir := range strings.SplitSeq(path, platform.PathListSeparator()) {
		if dir == "" {
			dir = "."
		}
		candidate := filepath.Join(dir, file)
		if findExecutable(candidate) {
			return candidate, true
		}
	}
	return "", false
}

func findExecutable(file string) bool {
	d, err := os.Stat(file)
	if err != nil {
		return false
	}
	m := d.Mode()
	if m.IsDir() {
		return false
	}
	if domain.CurrentPlatform().IsWindows() {
		return true
	}
	return m&0o111 != 0
}
