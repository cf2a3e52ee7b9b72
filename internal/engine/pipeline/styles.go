package pipeline

import (
	"context"
	"path/filepath"
	"strings"

	"go.trai.ch/kiln/internal/core/domain"
	"go.trai.ch/kiln/internal/core/ports"
	"golang.org/x/sync/errgroup"
)

// buildStyles compiles every stylesheet into an expanded and a minified artifact.
func (e *Executor) buildStyles(ctx context.Context, cfg *domain.Config) ([]string, error) {
	assets := cfg.Paths.Styles
	inputs, err := e.resolve(ctx, domain.KindStyles, assets, false)
	if err != nil {
		return nil, err
	}

	banner := e.banner(cfg)
	results := make([][]string, len(inputs))
	g, gctx := errgroup.WithContext(ctx)
	for i, path := range inputs {
		if isPartial(path) {
			continue
		}
		g.Go(func() error {
			written, err := e.buildStylesheet(gctx, cfg, path, banner)
			results[i] = written
			return err
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return flatten(results), nil
}

func (e *Executor) buildStylesheet(ctx context.Context, cfg *domain.Config, path, banner string) ([]string, error) {
	assets := cfg.Paths.Styles

	source, err := read(path)
	if err != nil {
		return nil, err
	}
	css, err := e.styles.Compile(ctx, path, source, []string{assets.Dir})
	if err != nil {
		return nil, err
	}
	css, err = e.prefixer.Prefix(ctx, path, css)
	if err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	name := replaceExt(filepath.Base(path), ".css")
	expanded, err := write(cfg, filepath.Join(assets.Output, name), withBanner(banner, css))
	if err != nil {
		return nil, err
	}

	minified, err := e.minifier.Minify(ports.MediaCSS, css)
	if err != nil {
		return nil, domain.SourceError(path, err)
	}
	compact, err := write(cfg, filepath.Join(assets.Output, domain.MinifiedName(name, assets.Suffix)), withBanner(banner, minified))
	if err != nil {
		return nil, err
	}

	return []string{expanded, compact}, nil
}

// isPartial reports whether path is a Sass partial, which is only ever imported.
func isPartial(path string) bool {
	return strings.HasPrefix(filepath.Base(path), "_")
}

func flatten(results [][]string) []string {
	var out []string
	for _, r := range results {
		out = append(out, r...)
	}
	return out
}
