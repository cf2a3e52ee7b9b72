package config

import (
	"encoding/json"

	"go.trai.ch/kiln/internal/core/domain"
	"gopkg.in/yaml.v3"
)

// FileName is the optional project file read from the working directory.
const FileName = "kiln.yaml"

// SchemaVersion is the only kiln.yaml version understood. An empty version means this one.
const SchemaVersion = "1"

// PackageFileName is the npm manifest used for project metadata when kiln.yaml has none.
const PackageFileName = "package.json"

// Kilnfile represents the structure of kiln.yaml.
// Server, watch and log settings in the same file are read by Settings.
type Kilnfile struct {
	Version string        `yaml:"version"`
	Project *ProjectDTO   `yaml:"project"`
	Paths   *domain.Paths `yaml:"paths"`
}

// ProjectDTO is the project section of kiln.yaml.
type ProjectDTO struct {
	Name    string `yaml:"name"`
	Version string `yaml:"version"`
	Author  Author `yaml:"author"`
	License string `yaml:"license"`
}

// PackageJSON is the subset of package.json the banner needs.
type PackageJSON struct {
	Name    string `json:"name"`
	Version string `json:"version"`
	Author  Author `json:"author"`
	License string `json:"license"`
}

// Author accepts both the "Name <mail>" string form and the {name: ...} object form.
type Author string

type authorObject struct {
	Name string `json:"name" yaml:"name"`
}

// UnmarshalYAML implements yaml.Unmarshaler.
func (a *Author) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind == yaml.ScalarNode {
		*a = Author(node.Value)
		return nil
	}
	var obj authorObject
	if err := node.Decode(&obj); err != nil {
		return err
	}
	*a = Author(obj.Name)
	return nil
}

// UnmarshalJSON implements json.Unmarshaler.
func (a *Author) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		*a = Author(s)
		return nil
	}
	var obj authorObject
	if err := json.Unmarshal(data, &obj); err != nil {
		return err
	}
	*a = Author(obj.Name)
	return nil
}
