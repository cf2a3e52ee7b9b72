// Package pipeline runs the transformation chain of each build task.
package pipeline

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"time"

	"go.trai.ch/kiln/internal/core/domain"
	"go.trai.ch/kiln/internal/core/ports"
	"go.trai.ch/zerr"
)

var _ ports.Executor = (*Executor)(nil)

// Executor implements ports.Executor by dispatching on the task kind.
type Executor struct {
	resolver  ports.InputResolver
	styles    ports.StyleCompiler
	prefixer  ports.Prefixer
	scripts   ports.ScriptMinifier
	minifier  ports.Minifier
	templates ports.TemplateRenderer
	now       func() time.Time
}

// Option configures an Executor.
type Option func(*Executor)

// WithClock sets the clock used for the banner year.
func WithClock(now func() time.Time) Option {
	return func(e *Executor) {
		e.now = now
	}
}

// NewExecutor creates a new Executor.
func NewExecutor(
	resolver ports.InputResolver,
	styles ports.StyleCompiler,
	prefixer ports.Prefixer,
	scripts ports.ScriptMinifier,
	minifier ports.Minifier,
	templates ports.TemplateRenderer,
	opts ...Option,
) *Executor {
	e := &Executor{
		resolver:  resolver,
		styles:    styles,
		prefixer:  prefixer,
		scripts:   scripts,
		minifier:  minifier,
		templates: templates,
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Execute runs task against cfg and returns the artifacts it wrote, relative to the output root.
func (e *Executor) Execute(ctx context.Context, cfg *domain.Config, task *domain.Task) ([]string, error) {
	switch task.Kind {
	case domain.KindClean:
		return nil, clean(cfg)
	case domain.KindStyles:
		return e.buildStyles(ctx, cfg)
	case domain.KindScripts:
		return e.buildScripts(ctx, cfg)
	case domain.KindTemplates:
		return e.buildTemplates(ctx, cfg)
	case domain.KindSvgs:
		return e.buildSvgs(ctx, cfg)
	default:
		return nil, errors.Join(domain.ErrUnknownTaskKind, zerr.With(zerr.New("no transformation for task"), "kind", string(task.Kind)))
	}
}

// banner returns the license comment for cfg's project.
func (e *Executor) banner(cfg *domain.Config) string {
	return cfg.Project.Banner(e.now().Year())
}

// resolve lists the sources of a category and prepares its output directory.
// A category without sources logs a warning and yields no inputs.
func (e *Executor) resolve(ctx context.Context, kind domain.TaskKind, assets domain.AssetPaths, dirs bool) ([]string, error) {
	if err := os.MkdirAll(assets.Output, 0o750); err != nil {
		return nil, domain.IOError(assets.Output, err)
	}

	inputs, err := e.resolver.ResolveInputs(assets.Dir, assets.Include, assets.Exclude, dirs)
	if err != nil {
		if errors.Is(err, domain.ErrMissingInput) {
			warn(ctx, "source directory "+assets.Dir+" not found")
			return nil, nil
		}
		return nil, err
	}
	if len(inputs) == 0 {
		warn(ctx, domain.ErrMissingInput.Error()+" for "+string(kind))
	}
	return inputs, nil
}

// write stores data at path and returns path relative to the output root.
func write(cfg *domain.Config, path string, data []byte) (string, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
		return "", domain.IOError(filepath.Dir(path), err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil { //nolint:gosec // Build output is world readable
		return "", domain.IOError(path, err)
	}
	rel, err := filepath.Rel(cfg.Paths.Output, path)
	if err != nil {
		return filepath.ToSlash(path), nil //nolint:nilerr // Outputs outside the root are reported verbatim
	}
	return filepath.ToSlash(rel), nil
}

// read returns the content of a source file.
func read(path string) ([]byte, error) {
	data, err := os.ReadFile(path) //nolint:gosec // Path comes from the resolver
	if err != nil {
		return nil, domain.IOError(path, err)
	}
	return data, nil
}

func warn(ctx context.Context, msg string) {
	if v, ok := ports.VertexFromContext(ctx); ok {
		v.Log(domain.LogLevelWarn, msg)
	}
}

// withBanner returns banner followed by body.
func withBanner(banner string, body []byte) []byte {
	out := make([]byte, 0, len(banner)+len(body))
	out = append(out, banner...)
	return append(out, body...)
}

// replaceExt swaps the extension of name for ext.
func replaceExt(name, ext string) string {
	return name[:len(name)-len(filepath.Ext(name))] + ext
}
