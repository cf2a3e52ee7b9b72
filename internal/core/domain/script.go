package domain

import (
	"path/filepath"
	"strings"
)

// ScriptEntry is a top-level entry of the scripts directory.
// It is either a SingleFile or a Directory.
type ScriptEntry interface {
	// ArtifactName is the base name of the unminified artifact, e.g. "app.js".
	ArtifactName() string
	isScriptEntry()
}

// SingleFile is a script processed on its own.
type SingleFile struct {
	Path string
}

// ArtifactName implements ScriptEntry.
func (f SingleFile) ArtifactName() string { return filepath.Base(f.Path) }

func (SingleFile) isScriptEntry() {}

// Directory is a folder whose immediate .js children are concatenated, in
// enumeration order, into one artifact named after the folder.
type Directory struct {
	Path     string
	Children []string
}

// ArtifactName implements ScriptEntry.
func (d Directory) ArtifactName() string { return filepath.Base(d.Path) + ".js" }

func (Directory) isScriptEntry() {}

// MinifiedName inserts suffix before the extension of name: "app.js" becomes "app.min.js".
func MinifiedName(name, suffix string) string {
	ext := filepath.Ext(name)
	return strings.TrimSuffix(name, ext) + suffix + ext
}
