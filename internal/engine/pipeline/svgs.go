package pipeline

import (
	"context"
	"path/filepath"

	"go.trai.ch/kiln/internal/core/domain"
	"go.trai.ch/kiln/internal/core/ports"
	"golang.org/x/sync/errgroup"
)

// buildSvgs minifies every vector image, keeping its path relative to the source directory.
func (e *Executor) buildSvgs(ctx context.Context, cfg *domain.Config) ([]string, error) {
	assets := cfg.Paths.Svgs
	inputs, err := e.resolve(ctx, domain.KindSvgs, assets, false)
	if err != nil {
		return nil, err
	}

	results := make([]string, len(inputs))
	g, gctx := errgroup.WithContext(ctx)
	for i, path := range inputs {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			source, err := read(path)
			if err != nil {
				return err
			}
			minified, err := e.minifier.Minify(ports.MediaSVG, source)
			if err != nil {
				return domain.SourceError(path, err)
			}
			rel, err := filepath.Rel(assets.Dir, path)
			if err != nil {
				return domain.IOError(path, err)
			}
			results[i], err = write(cfg, filepath.Join(assets.Output, rel), minified)
			return err
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}
