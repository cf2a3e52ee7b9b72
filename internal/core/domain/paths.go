package domain

import (
	"errors"
	"path/filepath"
	"strings"

	"go.trai.ch/zerr"
)

// AssetPaths locates the sources of one asset category and where its artifacts go.
// Relative Dirs are resolved against the input root and relative Outputs against
// the output root. Include and Exclude are glob patterns relative to Dir; `*` stays
// within one path segment, `**` crosses segments.
type AssetPaths struct {
	Dir       string   `yaml:"dir"`
	Include   []string `yaml:"include"`
	Exclude   []string `yaml:"exclude"`
	Output    string   `yaml:"output"`
	Suffix    string   `yaml:"suffix"`
	Extension string   `yaml:"extension"`
}

// Paths is the path configuration of a project. It is built once at start-up
// and handed to consumers by value. Input, Output and Config are relative to the
// project root, Config being resolved against the input root.
type Paths struct {
	Input     string     `yaml:"input"`
	Output    string     `yaml:"output"`
	Config    string     `yaml:"config"`
	Scripts   AssetPaths `yaml:"scripts"`
	Styles    AssetPaths `yaml:"styles"`
	Svgs      AssetPaths `yaml:"svgs"`
	Templates AssetPaths `yaml:"templates"`
}

// DefaultPaths returns the conventional src/ to dist/ layout.
func DefaultPaths() Paths {
	return Paths{
		Input:  "src",
		Output: "dist",
		Config: "config.json",
		Scripts: AssetPaths{
			Dir:     "js",
			Include: []string{"*"},
			Output:  "js",
			Suffix:  ".min",
		},
		Styles: AssetPaths{
			Dir:     "sass",
			Include: []string{"main.scss"},
			Output:  "css",
			Suffix:  ".min",
		},
		Svgs: AssetPaths{
			Dir:     "svg",
			Include: []string{"*.svg"},
			Output:  "svg",
		},
		Templates: AssetPaths{
			Dir:       "template",
			Include:   []string{"**.njk"},
			Exclude:   []string{"base.njk"},
			Output:    ".",
			Extension: ".html",
		},
	}
}

// For returns the asset paths of a producer kind.
func (p Paths) For(kind TaskKind) (AssetPaths, bool) {
	switch kind {
	case KindScripts:
		return p.Scripts, true
	case KindStyles:
		return p.Styles, true
	case KindSvgs:
		return p.Svgs, true
	case KindTemplates:
		return p.Templates, true
	default:
		return AssetPaths{}, false
	}
}

// Within resolves every relative path: the roots against root, category sources
// and Config against the input root, category outputs against the output root.
func (p Paths) Within(root string) Paths {
	join := func(base, s string) string {
		if filepath.IsAbs(s) {
			return filepath.Clean(s)
		}
		return filepath.Join(base, s)
	}
	input := join(root, p.Input)
	output := join(root, p.Output)
	rebase := func(a AssetPaths) AssetPaths {
		a.Dir = join(input, a.Dir)
		a.Output = join(output, a.Output)
		return a
	}
	return Paths{
		Input:     input,
		Output:    output,
		Config:    join(input, p.Config),
		Scripts:   rebase(p.Scripts),
		Styles:    rebase(p.Styles),
		Svgs:      rebase(p.Svgs),
		Templates: rebase(p.Templates),
	}
}

// Validate checks that every category writes below the output root, so that
// cleaning the output root removes all previous artifacts. It expects resolved paths.
func (p Paths) Validate() error {
	for _, kind := range ProducerKinds {
		a, _ := p.For(kind)
		if !IsWithin(p.Output, a.Output) {
			cause := zerr.With(zerr.New("category output lies outside the output root"), "category", string(kind))
			return errors.Join(ErrInvalidPaths, zerr.With(cause, "path", a.Output))
		}
	}
	return nil
}

// KindOf reports which category the source file at path belongs to.
// Paths outside every category dir report false.
func (p Paths) KindOf(path string) (TaskKind, bool) {
	for _, kind := range ProducerKinds {
		a, _ := p.For(kind)
		if a.Dir == "" {
			continue
		}
		if IsWithin(a.Dir, path) {
			return kind, true
		}
	}
	return "", false
}

// IsWithin reports whether path is dir or lies below it.
func IsWithin(dir, path string) bool {
	rel, err := filepath.Rel(dir, path)
	if err != nil {
		return false
	}
	return rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator))
}
