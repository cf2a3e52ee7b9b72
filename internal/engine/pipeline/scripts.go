package pipeline

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"slices"

	"go.trai.ch/kiln/internal/core/domain"
	"go.trai.ch/kiln/internal/core/ports"
	"golang.org/x/sync/errgroup"
)

// buildScripts minifies every top-level script and concatenates every top-level directory.
func (e *Executor) buildScripts(ctx context.Context, cfg *domain.Config) ([]string, error) {
	assets := cfg.Paths.Scripts
	inputs, err := e.resolve(ctx, domain.KindScripts, assets, true)
	if err != nil {
		return nil, err
	}

	entries, err := classifyScripts(inputs)
	if err != nil {
		return nil, err
	}

	banner := e.banner(cfg)
	results := make([]string, len(entries))
	g, gctx := errgroup.WithContext(ctx)
	for i, entry := range entries {
		g.Go(func() error {
			written, err := e.buildScript(gctx, cfg, entry, banner)
			results[i] = written
			return err
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}

// classifyScripts turns resolved paths into script entries. Plain files other than .js
// and directories without .js children are dropped.
func classifyScripts(paths []string) ([]domain.ScriptEntry, error) {
	var entries []domain.ScriptEntry
	for _, path := range paths {
		info, err := os.Stat(path)
		if err != nil {
			return nil, domain.IOError(path, err)
		}
		if !info.IsDir() {
			if filepath.Ext(path) == ".js" {
				entries = append(entries, domain.SingleFile{Path: path})
			}
			continue
		}

		children, err := scriptChildren(path)
		if err != nil {
			return nil, err
		}
		if len(children) > 0 {
			entries = append(entries, domain.Directory{Path: path, Children: children})
		}
	}
	return entries, nil
}

// scriptChildren lists the immediate .js files of dir, sorted by name.
func scriptChildren(dir string) ([]string, error) {
	dirents, err := os.ReadDir(dir)
	if err != nil {
		return nil, domain.IOError(dir, err)
	}
	var children []string
	for _, d := range dirents {
		if d.Type().IsRegular() && filepath.Ext(d.Name()) == ".js" {
			children = append(children, filepath.Join(dir, d.Name()))
		}
	}
	slices.Sort(children)
	return children, nil
}

// scriptSource returns the unminified content of entry.
func scriptSource(entry domain.ScriptEntry) ([]byte, error) {
	switch e := entry.(type) {
	case domain.SingleFile:
		return read(e.Path)
	case domain.Directory:
		parts := make([][]byte, 0, len(e.Children))
		for _, child := range e.Children {
			data, err := read(child)
			if err != nil {
				return nil, err
			}
			parts = append(parts, data)
		}
		return bytes.Join(parts, []byte("\n")), nil
	default:
		panic("unreachable: unknown script entry")
	}
}

func scriptPath(entry domain.ScriptEntry) string {
	switch e := entry.(type) {
	case domain.SingleFile:
		return e.Path
	case domain.Directory:
		return e.Path
	default:
		return ""
	}
}

func (e *Executor) buildScript(ctx context.Context, cfg *domain.Config, entry domain.ScriptEntry, banner string) (string, error) {
	assets := cfg.Paths.Scripts
	path := scriptPath(entry)

	source, err := scriptSource(entry)
	if err != nil {
		return "", err
	}
	minified, err := e.scripts.MinifyScript(ctx, path, source)
	if err != nil {
		return "", err
	}
	optimized, err := e.minifier.Minify(ports.MediaJS, minified)
	if err != nil {
		return "", domain.SourceError(path, err)
	}
	if err := ctx.Err(); err != nil {
		return "", err
	}

	name := domain.MinifiedName(entry.ArtifactName(), assets.Suffix)
	return write(cfg, filepath.Join(assets.Output, name), withBanner(banner, optimized))
}
