package domain

import "fmt"

// Project holds the package metadata stamped into every script and stylesheet.
type Project struct {
	Name    string `yaml:"name"`
	Version string `yaml:"version"`
	Author  string `yaml:"author"`
	License string `yaml:"license"`
}

// Banner returns the license comment prepended to scripts and stylesheets.
func (p Project) Banner(year int) string {
	return fmt.Sprintf("/*! %s v%s | (c) %d %s | %s License */\n", p.Name, p.Version, year, p.Author, p.License)
}

// Config is everything the pipeline needs to know about a project.
type Config struct {
	// Root is the absolute project directory all paths are relative to.
	Root    string
	Project Project
	Paths   Paths
}
