// Package fs provides file system adapters for walking, matching and hashing source files.
package fs

import (
	"io/fs"
	"iter"
	"path/filepath"

	"go.trai.ch/kiln/internal/core/domain"
)

// skippedDirs are never descended into.
var skippedDirs = map[string]bool{
	".git":          true,
	".jj":           true,
	domain.StateDir: true,
	"node_modules":  true,
}

// Walker provides file walking functionality.
type Walker struct{}

// NewWalker creates a new Walker.
func NewWalker() *Walker {
	return &Walker{}
}

// Walk yields every entry below root, excluding root itself and skipped directories.
// Paths are yielded in lexical order and include root as prefix.
func (w *Walker) Walk(root string) iter.Seq2[string, fs.DirEntry] {
	return func(yield func(string, fs.DirEntry) bool) {
		_ = filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				return err
			}
			if path == root {
				return nil
			}
			if d.IsDir() && SkipDir(d.Name()) {
				return filepath.SkipDir
			}
			if !yield(path, d) {
				return filepath.SkipAll
			}
			return nil
		})
	}
}

// SkipDir reports whether a directory with the given base name is ignored.
func SkipDir(name string) bool {
	return skippedDirs[name]
}
