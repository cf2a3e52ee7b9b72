// Package config provides the configuration loader for kiln.
package config

import (
	"encoding/json"
	"errors"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/Masterminds/semver/v3"
	"go.trai.ch/kiln/internal/core/domain"
	"go.trai.ch/kiln/internal/core/ports"
	"go.trai.ch/zerr"
	"gopkg.in/yaml.v3"
)

const fallbackVersion = "0.0.0"

// Loader implements ports.ConfigLoader on kiln.yaml and package.json.
type Loader struct {
	Logger ports.Logger
}

// NewLoader creates a new Loader with the given logger.
func NewLoader(logger ports.Logger) *Loader {
	return &Loader{Logger: logger}
}

// Load reads the project configuration rooted at cwd.
// A missing kiln.yaml is not an error: the default layout applies.
func (l *Loader) Load(cwd string) (*domain.Config, error) {
	root, err := filepath.Abs(cwd)
	if err != nil {
		return nil, zerr.With(zerr.Wrap(err, "failed to resolve working directory"), "cwd", cwd)
	}

	kilnfile, err := readKilnfile(filepath.Join(root, FileName))
	if err != nil {
		return nil, err
	}

	paths := domain.DefaultPaths()
	if kilnfile.Paths != nil {
		paths = *kilnfile.Paths
	}

	project, err := l.loadProject(root, kilnfile.Project)
	if err != nil {
		return nil, err
	}

	if _, err := semver.NewVersion(project.Version); err != nil {
		return nil, errors.Join(domain.ErrInvalidVersion, zerr.With(err, "version", project.Version))
	}

	resolved := paths.Within(root)
	if err := resolved.Validate(); err != nil {
		return nil, err
	}

	return &domain.Config{
		Root:    root,
		Project: project,
		Paths:   resolved,
	}, nil
}

func readKilnfile(path string) (Kilnfile, error) {
	defaults := domain.DefaultPaths()
	kilnfile := Kilnfile{Paths: &defaults}

	data, err := os.ReadFile(path) //nolint:gosec // path is derived from the working directory
	if errors.Is(err, fs.ErrNotExist) {
		return kilnfile, nil
	}
	if err != nil {
		return kilnfile, errors.Join(domain.ErrConfigReadFailed, zerr.With(err, "path", path))
	}

	if err := yaml.Unmarshal(data, &kilnfile); err != nil {
		return kilnfile, errors.Join(domain.ErrConfigParseFailed, zerr.With(err, "path", path))
	}
	if kilnfile.Version != "" && kilnfile.Version != SchemaVersion {
		cause := zerr.With(zerr.New("unsupported kiln.yaml version"), "version", kilnfile.Version)
		return kilnfile, errors.Join(domain.ErrConfigParseFailed, zerr.With(cause, "path", path))
	}
	return kilnfile, nil
}

func (l *Loader) loadProject(root string, dto *ProjectDTO) (domain.Project, error) {
	if dto != nil && dto.Name != "" {
		return domain.Project{
			Name:    dto.Name,
			Version: dto.Version,
			Author:  string(dto.Author),
			License: dto.License,
		}, nil
	}

	path := filepath.Join(root, PackageFileName)
	data, err := os.ReadFile(path) //nolint:gosec // path is derived from the working directory
	if errors.Is(err, fs.ErrNotExist) {
		name := filepath.Base(root)
		l.Logger.Warn("no project metadata found, banner uses " + name + " v" + fallbackVersion)
		return domain.Project{Name: name, Version: fallbackVersion}, nil
	}
	if err != nil {
		return domain.Project{}, errors.Join(domain.ErrConfigReadFailed, zerr.With(err, "path", path))
	}

	var pkg PackageJSON
	if err := json.Unmarshal(data, &pkg); err != nil {
		return domain.Project{}, errors.Join(domain.ErrConfigParseFailed, zerr.With(err, "path", path))
	}
	if pkg.Name == "" {
		return domain.Project{}, errors.Join(domain.ErrMissingProjectName, zerr.With(zerr.New("package.json has no name"), "path", path))
	}

	return domain.Project{
		Name:    pkg.Name,
		Version: pkg.Version,
		Author:  string(pkg.Author),
		License: pkg.License,
	}, nil
}
