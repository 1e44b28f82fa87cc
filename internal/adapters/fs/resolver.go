package fs

import (
	"path"
	"path/filepath"
	"slices"
	"strings"

	"go.trai.ch/kiln/internal/core/domain"
	"go.trai.ch/kiln/internal/core/ports"
	"go.trai.ch/zerr"
)

var _ ports.PathResolver = (*Resolver)(nil)

// Resolver implements ports.PathResolver with filepath.Glob.
// Patterns containing a "**" segment are matched against every file below root.
type Resolver struct {
	walker *Walker
}

// NewResolver creates a new Resolver.
func NewResolver(walker *Walker) *Resolver {
	if walker == nil {
		walker = NewWalker()
	}
	return &Resolver{walker: walker}
}

// Resolve returns the sorted, de-duplicated absolute paths matching patterns under root.
// A pattern without matches contributes nothing.
func (r *Resolver) Resolve(patterns []string, root string) ([]string, error) {
	root, err := filepath.Abs(root)
	if err != nil {
		return nil, zerr.With(zerr.Wrap(err, "failed to resolve root"), "root", root)
	}

	var result []string
	for _, pattern := range patterns {
		matches, err := r.match(pattern, root)
		if err != nil {
			return nil, err
		}
		result = append(result, matches...)
	}

	slices.Sort(result)
	return slices.Compact(result), nil
}

func (r *Resolver) match(pattern, root string) ([]string, error) {
	if strings.TrimSpace(pattern) == "" {
		return nil, zerr.Wrap(domain.ErrConfiguration, "empty path pattern")
	}

	slashed := filepath.ToSlash(pattern)
	if !slices.Contains(strings.Split(slashed, "/"), "**") {
		full := pattern
		if !filepath.IsAbs(full) {
			full = filepath.Join(root, pattern)
		}
		matches, err := filepath.Glob(full)
		if err != nil {
			return nil, zerr.With(zerr.Wrap(domain.ErrConfiguration, "failed to glob path"), "pattern", pattern)
		}
		return matches, nil
	}

	if _, err := path.Match(strings.ReplaceAll(slashed, "**", "*"), ""); err != nil {
		return nil, zerr.With(zerr.Wrap(domain.ErrConfiguration, "failed to glob path"), "pattern", pattern)
	}

	base := root
	if path.IsAbs(slashed) {
		base = "/"
		slashed = strings.TrimPrefix(slashed, "/")
	}
	segments := strings.Split(slashed, "/")

	var matches []string
	for file := range r.walker.WalkFiles(base, nil) {
		rel, err := filepath.Rel(base, file)
		if err != nil {
			continue
		}
		if matchSegments(segments, strings.Split(filepath.ToSlash(rel), "/")) {
			matches = append(matches, file)
		}
	}
	return matches, nil
}

// matchSegments matches a slash-split pattern where "**" spans any number of segments.
func matchSegments(pattern, name []string) bool {
	for len(pattern) > 0 {
		if pattern[0] == "**" {
			rest := pattern[1:]
			if len(rest) == 0 {
				return true
			}
			for i := range len(name) + 1 {
				if matchSegments(rest, name[i:]) {
					return true
				}
			}
			return false
		}
		if len(name) == 0 {
			return false
		}
		if ok, err := path.Match(pattern[0], name[0]); err != nil || !ok {
			return false
		}
		pattern, name = pattern[1:], name[1:]
	}
	return len(name) == 0
}
