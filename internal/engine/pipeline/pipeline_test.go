package pipeline_test

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.trai.ch/kiln/internal/adapters/esbuild"
	"go.trai.ch/kiln/internal/adapters/fs"
	"go.trai.ch/kiln/internal/adapters/minify"
	"go.trai.ch/kiln/internal/adapters/pongo"
	"go.trai.ch/kiln/internal/core/domain"
	"go.trai.ch/kiln/internal/core/ports"
	"go.trai.ch/kiln/internal/core/ports/mocks"
	"go.trai.ch/kiln/internal/engine/pipeline"
	"go.uber.org/mock/gomock"
)

const banner = "/*! site v1.0.0 | (c) 2026 Ada | MIT License */\n"

// passthroughStyles treats every stylesheet as plain CSS and fails on @error.
type passthroughStyles struct{}

func (passthroughStyles) Compile(_ context.Context, path string, source []byte, _ []string) ([]byte, error) {
	if bytes.Contains(source, []byte("@error")) {
		return nil, domain.SourceError(path, errors.New("expected \"}\""))
	}
	return source, nil
}

func newExecutor() *pipeline.Executor {
	transformer := esbuild.NewTransformer()
	clock := func() time.Time { return time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC) }
	return pipeline.NewExecutor(
		fs.NewResolver(fs.NewWalker()),
		passthroughStyles{},
		transformer,
		transformer,
		minify.New(),
		pongo.NewRenderer(),
		pipeline.WithClock(clock),
	)
}

func newProject(t *testing.T, files map[string]string) *domain.Config {
	t.Helper()
	root := t.TempDir()
	for name, content := range files {
		path := filepath.Join(root, filepath.FromSlash(name))
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o750))
		require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	}
	return &domain.Config{
		Root:    root,
		Project: domain.Project{Name: "site", Version: "1.0.0", Author: "Ada", License: "MIT"},
		Paths:   domain.DefaultPaths().Within(root),
	}
}

func run(t *testing.T, cfg *domain.Config, kind domain.TaskKind) []string {
	t.Helper()
	files, err := newExecutor().Execute(context.Background(), cfg, &domain.Task{Name: string(kind), Kind: kind})
	require.NoError(t, err)
	return files
}

func readOutput(t *testing.T, cfg *domain.Config, rel string) string {
	t.Helper()
	data, err := os.ReadFile(filepath.Join(cfg.Paths.Output, filepath.FromSlash(rel)))
	require.NoError(t, err)
	return string(data)
}

func TestExecute_Styles(t *testing.T) {
	cfg := newProject(t, map[string]string{
		"src/sass/main.scss":     ".button {\n  user-select: none;\n  color: #ff0000;\n}\n",
		"src/sass/_partial.scss": ".ignored { color: blue; }",
	})

	files := run(t, cfg, domain.KindStyles)
	assert.ElementsMatch(t, []string{"css/main.css", "css/main.min.css"}, files)

	expanded := readOutput(t, cfg, "css/main.css")
	minified := readOutput(t, cfg, "css/main.min.css")

	assert.True(t, strings.HasPrefix(expanded, banner), expanded)
	assert.True(t, strings.HasPrefix(minified, banner), minified)
	assert.Contains(t, expanded, "-webkit-user-select: none")
	assert.Less(t, len(minified), len(expanded))
	assert.NotContains(t, minified, "\n  ")

	_, err := os.Stat(filepath.Join(cfg.Paths.Styles.Output, "_partial.css"))
	assert.ErrorIs(t, err, os.ErrNotExist, "partials are only ever imported")
}

func TestExecute_Styles_SyntaxError(t *testing.T) {
	cfg := newProject(t, map[string]string{
		"src/sass/main.scss": "@error \"broken\";",
	})

	_, err := newExecutor().Execute(context.Background(), cfg, &domain.Task{Name: "styles", Kind: domain.KindStyles})
	require.ErrorIs(t, err, domain.ErrSourceSyntax)
	assert.NotErrorIs(t, err, domain.ErrIO)
}

func TestExecute_Scripts(t *testing.T) {
	cfg := newProject(t, map[string]string{
		"src/js/app.js":      "function greet(name) {\n  return 'hello ' + name;\n}\nwindow.greet = greet;\n",
		"src/js/vendor/b.js": "window.second = 'beta';\n",
		"src/js/vendor/a.js": "window.first = 'alpha';\n",
		"src/js/notes.txt":   "not a script",
	})

	files := run(t, cfg, domain.KindScripts)
	assert.ElementsMatch(t, []string{"js/app.min.js", "js/vendor.min.js"}, files)

	app := readOutput(t, cfg, "js/app.min.js")
	assert.True(t, strings.HasPrefix(app, banner))
	assert.NotContains(t, strings.TrimPrefix(app, banner), "\n  ")

	vendor := readOutput(t, cfg, "js/vendor.min.js")
	assert.True(t, strings.HasPrefix(vendor, banner))
	first, second := strings.Index(vendor, "alpha"), strings.Index(vendor, "beta")
	require.NotEqual(t, -1, first)
	require.NotEqual(t, -1, second)
	assert.Less(t, first, second, "directory children are concatenated in name order")
}

func TestExecute_Scripts_Empty(t *testing.T) {
	cfg := newProject(t, map[string]string{
		"src/js/.keep": "",
	})

	files := run(t, cfg, domain.KindScripts)
	assert.Empty(t, files)

	entries, err := os.ReadDir(cfg.Paths.Scripts.Output)
	require.NoError(t, err, "the output directory exists even without scripts")
	assert.Empty(t, entries)
}

func TestExecute_Scripts_SyntaxError(t *testing.T) {
	cfg := newProject(t, map[string]string{
		"src/js/app.js": "function (",
	})

	_, err := newExecutor().Execute(context.Background(), cfg, &domain.Task{Name: "scripts", Kind: domain.KindScripts})
	require.ErrorIs(t, err, domain.ErrSourceSyntax)
}

func TestExecute_Templates(t *testing.T) {
	cfg := newProject(t, map[string]string{
		"src/config.json":            `{"title":"Home"}`,
		"src/template/base.njk":      "<html>\n  <body>\n    {% block content %}{% endblock %}\n  </body>\n</html>\n",
		"src/template/index.njk":     `{% extends "base.njk" %}{% block content %}<h1>{{ title }}</h1>{% endblock %}`,
		"src/template/blog/post.njk": `{% extends "base.njk" %}{% block content %}<p>{{ title }} post</p>{% endblock %}`,
		"src/template/partial.html":  "<p>not a template</p>",
	})

	files := run(t, cfg, domain.KindTemplates)
	assert.ElementsMatch(t, []string{"index.html", "blog/post.html"}, files)

	index := readOutput(t, cfg, "index.html")
	assert.Contains(t, index, "<h1>Home</h1>")
	assert.NotContains(t, index, "\n  ", "whitespace is collapsed")
	assert.Contains(t, readOutput(t, cfg, "blog/post.html"), "Home post")

	_, err := os.Stat(filepath.Join(cfg.Paths.Output, "base.html"))
	assert.ErrorIs(t, err, os.ErrNotExist, "layouts are not rendered on their own")
}

func TestExecute_Templates_MissingData(t *testing.T) {
	ctrl := gomock.NewController(t)
	vertex := mocks.NewMockVertex(ctrl)
	vertex.EXPECT().Log(domain.LogLevelWarn, gomock.Any()).Times(1)

	cfg := newProject(t, map[string]string{
		"src/template/index.njk": "<p>[{{ title }}]</p>",
	})

	ctx := ports.ContextWithVertex(context.Background(), vertex)
	files, err := newExecutor().Execute(ctx, cfg, &domain.Task{Name: "templates", Kind: domain.KindTemplates})
	require.NoError(t, err)
	require.Equal(t, []string{"index.html"}, files)
	assert.Contains(t, readOutput(t, cfg, "index.html"), "[]")
}

func TestExecute_Templates_MalformedData(t *testing.T) {
	cfg := newProject(t, map[string]string{
		"src/config.json":        `{"title":`,
		"src/template/index.njk": "<p>{{ title }}</p>",
	})

	_, err := newExecutor().Execute(context.Background(), cfg, &domain.Task{Name: "templates", Kind: domain.KindTemplates})
	require.ErrorIs(t, err, domain.ErrSourceSyntax)
}

func TestExecute_Svgs(t *testing.T) {
	source := "<?xml version=\"1.0\"?>\n<!-- logo -->\n<svg xmlns=\"http://www.w3.org/2000/svg\" width=\"10\" height=\"10\">\n  <rect x=\"0\" y=\"0\" width=\"10\" height=\"10\" fill=\"#ff0000\"/>\n</svg>\n"
	cfg := newProject(t, map[string]string{
		"src/svg/logo.svg": source,
	})

	files := run(t, cfg, domain.KindSvgs)
	require.Equal(t, []string{"svg/logo.svg"}, files)

	out := readOutput(t, cfg, "svg/logo.svg")
	assert.Less(t, len(out), len(source))
	assert.NotContains(t, out, "logo -->")
}

func TestExecute_MissingCategory(t *testing.T) {
	ctrl := gomock.NewController(t)
	vertex := mocks.NewMockVertex(ctrl)
	vertex.EXPECT().Log(domain.LogLevelWarn, gomock.Any()).Times(1)

	cfg := newProject(t, map[string]string{
		"src/config.json": "{}",
	})

	ctx := ports.ContextWithVertex(context.Background(), vertex)
	files, err := newExecutor().Execute(ctx, cfg, &domain.Task{Name: "svgs", Kind: domain.KindSvgs})
	require.NoError(t, err, "a missing category is a warning")
	assert.Empty(t, files)
}

func TestExecute_Idempotent(t *testing.T) {
	cfg := newProject(t, map[string]string{
		"src/config.json":        `{"title":"Home"}`,
		"src/sass/main.scss":     ".a { color: red; }",
		"src/js/app.js":          "window.a = 1;",
		"src/template/index.njk": "<h1>{{ title }}</h1>",
		"src/svg/icon.svg":       "<svg xmlns=\"http://www.w3.org/2000/svg\"></svg>",
	})
	hasher := fs.NewHasher()

	build := func() string {
		var files []string
		run(t, cfg, domain.KindClean)
		for _, kind := range domain.ProducerKinds {
			files = append(files, run(t, cfg, kind)...)
		}
		hash, err := hasher.ComputeOutputHash(files, cfg.Paths.Output)
		require.NoError(t, err)
		return hash
	}

	assert.Equal(t, build(), build())
}

func TestExecute_Clean(t *testing.T) {
	cfg := newProject(t, map[string]string{
		"dist/stale.css": "old",
	})

	run(t, cfg, domain.KindClean)
	_, err := os.Stat(cfg.Paths.Output)
	assert.ErrorIs(t, err, os.ErrNotExist)

	// Cleaning an absent root is not an error.
	run(t, cfg, domain.KindClean)
}

func TestExecute_Clean_RefusesProjectRoot(t *testing.T) {
	tests := []struct {
		name   string
		output func(cfg *domain.Config) string
	}{
		{"project root", func(cfg *domain.Config) string { return cfg.Root }},
		{"input root", func(cfg *domain.Config) string { return cfg.Paths.Input }},
		{"ancestor", func(cfg *domain.Config) string { return filepath.Dir(cfg.Root) }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := newProject(t, map[string]string{"src/js/app.js": "x"})
			cfg.Paths.Output = tt.output(cfg)

			_, err := newExecutor().Execute(context.Background(), cfg, &domain.Task{Name: "clean", Kind: domain.KindClean})
			require.ErrorIs(t, err, domain.ErrUnsafeOutput)

			_, statErr := os.Stat(filepath.Join(cfg.Root, "src", "js", "app.js"))
			assert.NoError(t, statErr)
		})
	}
}

func TestExecute_UnknownKind(t *testing.T) {
	cfg := newProject(t, nil)
	_, err := newExecutor().Execute(context.Background(), cfg, &domain.Task{Name: "fonts", Kind: "fonts"})
	require.ErrorIs(t, err, domain.ErrUnknownTaskKind)
}
