package config_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.trai.ch/kiln/internal/adapters/config"
	"go.trai.ch/kiln/internal/core/domain"
	"go.trai.ch/kiln/internal/core/ports/mocks"
	"go.uber.org/mock/gomock"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o750))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
}

func TestLoad_PackageJSON(t *testing.T) {
	tests := []struct {
		name       string
		pkg        string
		wantAuthor string
	}{
		{
			name:       "author object",
			pkg:        `{"name":"site","version":"1.2.0","author":{"name":"Ada Lovelace","url":"https://example.com"},"license":"MIT"}`,
			wantAuthor: "Ada Lovelace",
		},
		{
			name:       "author string",
			pkg:        `{"name":"site","version":"1.2.0","author":"Ada Lovelace","license":"MIT"}`,
			wantAuthor: "Ada Lovelace",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := t.TempDir()
			writeFile(t, filepath.Join(dir, config.PackageFileName), tt.pkg)

			cfg, err := config.NewLoader(nil).Load(dir)
			require.NoError(t, err)

			assert.Equal(t, domain.Project{Name: "site", Version: "1.2.0", Author: tt.wantAuthor, License: "MIT"}, cfg.Project)
			assert.Equal(t, filepath.Join(dir, "src"), cfg.Paths.Input)
			assert.Equal(t, filepath.Join(dir, "dist", "css"), cfg.Paths.Styles.Output)
			assert.True(t, filepath.IsAbs(cfg.Root))
		})
	}
}

func TestLoad_KilnfileOverrides(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, config.FileName), `
version: "1"
project:
  name: docs
  version: 2.0.0-rc.1
  author: Grace
  license: Apache-2.0
paths:
  output: public
  styles:
    include: ["*.scss"]
    output: styles
`)
	// package.json is ignored when kiln.yaml names the project.
	writeFile(t, filepath.Join(dir, config.PackageFileName), `{"name":"other","version":"9.9.9"}`)

	cfg, err := config.NewLoader(nil).Load(dir)
	require.NoError(t, err)

	assert.Equal(t, "docs", cfg.Project.Name)
	assert.Equal(t, "2.0.0-rc.1", cfg.Project.Version)
	assert.Equal(t, filepath.Join(dir, "public"), cfg.Paths.Output)
	assert.Equal(t, []string{"*.scss"}, cfg.Paths.Styles.Include)
	assert.Equal(t, filepath.Join(dir, "public", "styles"), cfg.Paths.Styles.Output)
	assert.Equal(t, filepath.Join(dir, "src", "sass"), cfg.Paths.Styles.Dir, "unset keys keep defaults")
	assert.Equal(t, ".min", cfg.Paths.Styles.Suffix)
	assert.Equal(t, []string{"base.njk"}, cfg.Paths.Templates.Exclude)
}

func TestLoad_OutputOverrideMovesCategories(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, config.FileName), "paths:\n  input: assets\n  output: public\n")
	writeFile(t, filepath.Join(dir, config.PackageFileName), `{"name":"site","version":"1.0.0"}`)

	cfg, err := config.NewLoader(nil).Load(dir)
	require.NoError(t, err)

	public := filepath.Join(dir, "public")
	assert.Equal(t, filepath.Join(public, "js"), cfg.Paths.Scripts.Output)
	assert.Equal(t, filepath.Join(public, "css"), cfg.Paths.Styles.Output)
	assert.Equal(t, filepath.Join(public, "svg"), cfg.Paths.Svgs.Output)
	assert.Equal(t, public, cfg.Paths.Templates.Output)
	assert.Equal(t, filepath.Join(dir, "assets", "js"), cfg.Paths.Scripts.Dir)
	assert.Equal(t, filepath.Join(dir, "assets", "config.json"), cfg.Paths.Config)
}

func TestLoad_NoMetadataWarns(t *testing.T) {
	ctrl := gomock.NewController(t)
	log := mocks.NewMockLogger(ctrl)
	log.EXPECT().Warn(gomock.Any()).Times(1)

	dir := t.TempDir()
	cfg, err := config.NewLoader(log).Load(dir)
	require.NoError(t, err)

	assert.Equal(t, filepath.Base(dir), cfg.Project.Name)
	assert.Equal(t, "0.0.0", cfg.Project.Version)
}

func TestLoad_Errors(t *testing.T) {
	tests := []struct {
		name    string
		files   map[string]string
		wantErr error
	}{
		{
			name:    "malformed kiln.yaml",
			files:   map[string]string{config.FileName: "paths: [unterminated"},
			wantErr: domain.ErrConfigParseFailed,
		},
		{
			name:    "malformed package.json",
			files:   map[string]string{config.PackageFileName: `{"name":`},
			wantErr: domain.ErrConfigParseFailed,
		},
		{
			name:    "package.json without name",
			files:   map[string]string{config.PackageFileName: `{"version":"1.0.0"}`},
			wantErr: domain.ErrMissingProjectName,
		},
		{
			name:    "unsupported kiln.yaml version",
			files:   map[string]string{config.FileName: "version: \"2\"\n"},
			wantErr: domain.ErrConfigParseFailed,
		},
		{
			name:  "category output outside the output root",
			files: map[string]string{
				config.FileName:        "paths:\n  scripts:\n    output: ../../elsewhere\n",
				config.PackageFileName: `{"name":"site","version":"1.0.0"}`,
			},
			wantErr: domain.ErrInvalidPaths,
		},
		{
			name:    "invalid version",
			files:   map[string]string{config.PackageFileName: `{"name":"site","version":"one"}`},
			wantErr: domain.ErrInvalidVersion,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := t.TempDir()
			for name, content := range tt.files {
				writeFile(t, filepath.Join(dir, name), content)
			}

			_, err := config.NewLoader(nil).Load(dir)
			require.ErrorIs(t, err, tt.wantErr)
		})
	}
}
