package pipeline

import (
	"context"
	"encoding/json"
	"errors"
	"maps"
	"os"
	"path/filepath"

	"go.trai.ch/kiln/internal/core/domain"
	"go.trai.ch/kiln/internal/core/ports"
	"go.trai.ch/zerr"
	"golang.org/x/sync/errgroup"
)

// buildTemplates renders every page template with the project data to collapsed HTML.
func (e *Executor) buildTemplates(ctx context.Context, cfg *domain.Config) ([]string, error) {
	assets := cfg.Paths.Templates
	inputs, err := e.resolve(ctx, domain.KindTemplates, assets, false)
	if err != nil || len(inputs) == 0 {
		return nil, err
	}

	data, err := loadData(ctx, cfg.Paths.Config)
	if err != nil {
		return nil, err
	}

	results := make([]string, len(inputs))
	g, gctx := errgroup.WithContext(ctx)
	for i, path := range inputs {
		g.Go(func() error {
			written, err := e.buildPage(gctx, cfg, path, maps.Clone(data))
			results[i] = written
			return err
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}

func (e *Executor) buildPage(ctx context.Context, cfg *domain.Config, path string, data map[string]any) (string, error) {
	assets := cfg.Paths.Templates

	rel, err := filepath.Rel(assets.Dir, path)
	if err != nil {
		return "", domain.IOError(path, err)
	}

	html, err := e.templates.Render(ctx, assets.Dir, rel, data)
	if err != nil {
		return "", err
	}
	collapsed, err := e.minifier.Minify(ports.MediaHTML, html)
	if err != nil {
		return "", domain.SourceError(path, err)
	}
	if err := ctx.Err(); err != nil {
		return "", err
	}

	ext := assets.Extension
	if ext == "" {
		ext = ".html"
	}
	return write(cfg, filepath.Join(assets.Output, replaceExt(rel, ext)), collapsed)
}

// loadData parses the JSON template data at path. A missing file yields empty data.
func loadData(ctx context.Context, path string) (map[string]any, error) {
	raw, err := os.ReadFile(path) //nolint:gosec // Configured path
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			warn(ctx, "template data "+path+" not found, rendering with empty data")
			return map[string]any{}, nil
		}
		return nil, domain.IOError(path, err)
	}

	data := map[string]any{}
	if err := json.Unmarshal(raw, &data); err != nil {
		return nil, domain.SourceError(path, zerr.Wrap(err, "invalid template data"))
	}
	return data, nil
}
