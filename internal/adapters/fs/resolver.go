package fs

import (
	"errors"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/gobwas/glob"
	"go.trai.ch/kiln/internal/core/domain"
	"go.trai.ch/kiln/internal/core/ports"
	"go.trai.ch/zerr"
)

var _ ports.InputResolver = (*Resolver)(nil)

// Resolver implements the InputResolver interface using slash-separated glob patterns.
// A single star stays within one path segment, a double star crosses segments.
type Resolver struct {
	walker *Walker
}

// NewResolver creates a new Resolver.
func NewResolver(walker *Walker) *Resolver {
	return &Resolver{walker: walker}
}

// ResolveInputs resolves the given patterns to a sorted list of absolute paths below root.
func (r *Resolver) ResolveInputs(root string, include, exclude []string, dirs bool) ([]string, error) {
	info, err := os.Stat(root)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, errors.Join(domain.ErrMissingInput, zerr.With(zerr.New("input directory not found"), "path", root))
		}
		return nil, domain.IOError(root, err)
	}
	if !info.IsDir() {
		return nil, errors.Join(domain.ErrMissingInput, zerr.With(zerr.New("input is not a directory"), "path", root))
	}

	includes, err := compileAll(include)
	if err != nil {
		return nil, err
	}
	excludes, err := compileAll(exclude)
	if err != nil {
		return nil, err
	}

	var result []string
	for path, d := range r.walker.Walk(root) {
		if d.IsDir() && !dirs {
			continue
		}
		rel, relErr := filepath.Rel(root, path)
		if relErr != nil {
			return nil, zerr.With(zerr.Wrap(relErr, "failed to relativize path"), "path", path)
		}
		rel = filepath.ToSlash(rel)
		if matchAny(includes, rel) && !matchAny(excludes, rel) {
			result = append(result, path)
		}
	}

	sort.Strings(result)
	return result, nil
}

func compileAll(patterns []string) ([]glob.Glob, error) {
	globs := make([]glob.Glob, 0, len(patterns))
	for _, pattern := range patterns {
		g, err := glob.Compile(strings.TrimPrefix(pattern, "./"), '/')
		if err != nil {
			return nil, zerr.With(zerr.Wrap(err, "invalid glob pattern"), "pattern", pattern)
		}
		globs = append(globs, g)
	}
	return globs, nil
}

func matchAny(globs []glob.Glob, rel string) bool {
	for _, g := range globs {
		if g.Match(rel) {
			return true
		}
	}
	return false
}
