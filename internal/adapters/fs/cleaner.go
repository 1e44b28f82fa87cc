package fs

import (
	"os"
	"path/filepath"
	"strings"

	"go.trai.ch/kiln/internal/core/domain"
	"go.trai.ch/kiln/internal/core/ports"
	"go.trai.ch/zerr"
)

var _ ports.Cleaner = (*Cleaner)(nil)

// Cleaner removes files and directories matching clean patterns.
type Cleaner struct {
	resolver ports.PathResolver
}

// NewCleaner creates a new Cleaner.
func NewCleaner(resolver ports.PathResolver) *Cleaner {
	return &Cleaner{resolver: resolver}
}

// Clean removes every path matching patterns under root and returns what was removed.
// Matches outside root, and root itself, are refused before anything is deleted.
func (c *Cleaner) Clean(root string, patterns []string) ([]string, error) {
	root, err := filepath.Abs(root)
	if err != nil {
		return nil, zerr.With(zerr.Wrap(err, "failed to resolve root"), "root", root)
	}

	matches, err := c.resolver.Resolve(patterns, root)
	if err != nil {
		return nil, err
	}

	for _, match := range matches {
		if !within(root, match) {
			return nil, zerr.With(zerr.Wrap(domain.ErrConfiguration, "refusing to clean outside the step directory"), "path", match)
		}
	}

	removed := make([]string, 0, len(matches))
	for _, match := range matches {
		if err := os.RemoveAll(match); err != nil {
			return removed, zerr.With(zerr.Wrap(err, "failed to remove path"), "path", match)
		}
		removed = append(removed, match)
	}
	return removed, nil
}

func within(root, path string) bool {
	rel, err := filepath.Rel(root, path)
	if err != nil || rel == "." {
		return false
	}
	return rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator))
}
