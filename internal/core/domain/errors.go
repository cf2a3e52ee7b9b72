package domain

import (
	"errors"

	"go.trai.ch/zerr"
)

var (
	// ErrTaskAlreadyExists is returned when attempting to add a task with a name that already exists.
	ErrTaskAlreadyExists = zerr.New("task already exists")

	// ErrMissingDependency is returned when a task references a dependency that doesn't exist in the graph.
	ErrMissingDependency = zerr.New("missing dependency")

	// ErrCycleDetected is returned when a cycle is detected in the task dependency graph.
	ErrCycleDetected = zerr.New("cycle detected")

	// ErrTaskNotFound is returned when a requested task is not found in the graph.
	ErrTaskNotFound = zerr.New("task not found")

	// ErrUnknownTaskKind is returned when the executor is handed a task kind it has no adapter for.
	ErrUnknownTaskKind = zerr.New("unknown task kind")

	// ErrSourceSyntax is returned when a stylesheet, script, template or data file cannot be parsed.
	ErrSourceSyntax = zerr.New("source syntax error")

	// ErrMissingInput signals that a category matched no source files.
	// It is logged as a warning and never fails a build.
	ErrMissingInput = zerr.New("no input files matched")

	// ErrIO is returned when reading a source or writing an artifact fails.
	ErrIO = zerr.New("filesystem operation failed")

	// ErrInputRootMissing is returned when the configured input root does not exist.
	ErrInputRootMissing = zerr.New("input root does not exist")

	// ErrUnsafeOutput is returned when cleaning the output root would remove the project or its sources.
	ErrUnsafeOutput = zerr.New("refusing to remove output root")

	// ErrBuildExecutionFailed is returned when one or more build tasks fail.
	ErrBuildExecutionFailed = zerr.New("build execution failed")

	// ErrConfigReadFailed is returned when the config file cannot be read.
	ErrConfigReadFailed = zerr.New("failed to read config file")

	// ErrConfigParseFailed is returned when the config file cannot be parsed.
	ErrConfigParseFailed = zerr.New("failed to parse config file")

	// ErrInvalidVersion is returned when the project version is not a semantic version.
	ErrInvalidVersion = zerr.New("invalid project version")

	// ErrInvalidPaths is returned when the path configuration would write artifacts outside the output root.
	ErrInvalidPaths = zerr.New("invalid path configuration")

	// ErrMissingProjectName is returned when no project name could be determined.
	ErrMissingProjectName = zerr.New("missing project name")

	// ErrStoreReadFailed is returned when the build state cannot be read.
	ErrStoreReadFailed = zerr.New("failed to read build state")

	// ErrStoreWriteFailed is returned when the build state cannot be written.
	ErrStoreWriteFailed = zerr.New("failed to write build state")

	// ErrServerFailed is returned when the development server stops unexpectedly.
	ErrServerFailed = zerr.New("development server failed")
)

// SourceError classifies cause as a malformed source at path.
func SourceError(path string, cause error) error {
	return errors.Join(ErrSourceSyntax, zerr.With(cause, "path", path))
}

// IOError classifies cause as a filesystem failure at path.
func IOError(path string, cause error) error {
	return errors.Join(ErrIO, zerr.With(cause, "path", path))
}
