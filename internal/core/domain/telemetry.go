package domain

// VertexStatus is the lifecycle state of a task during one build.
type VertexStatus string

const (
	// VertexStatusPending indicates the task is waiting for its dependencies.
	VertexStatusPending VertexStatus = "pending"
	// VertexStatusRunning indicates the task is currently executing.
	VertexStatusRunning VertexStatus = "running"
	// VertexStatusCompleted indicates the task executed successfully.
	VertexStatusCompleted VertexStatus = "completed"
	// VertexStatusFailed indicates the task execution failed.
	VertexStatusFailed VertexStatus = "failed"
	// VertexStatusSkipped indicates the task never ran because a dependency failed.
	VertexStatusSkipped VertexStatus = "skipped"
)

// IsTerminal checks if a status is a terminal state.
func (s VertexStatus) IsTerminal() bool {
	switch s {
	case VertexStatusCompleted, VertexStatusFailed, VertexStatusSkipped:
		return true
	default:
		return false
	}
}

// LogLevel represents the severity of a message recorded on a vertex, mirroring slog levels.
type LogLevel int

const (
	// LogLevelDebug represents debug-level verbosity.
	LogLevelDebug LogLevel = -4
	// LogLevelInfo represents informational verbosity.
	LogLevelInfo LogLevel = 0
	// LogLevelWarn represents warning verbosity.
	LogLevelWarn LogLevel = 4
	// LogLevelError represents error verbosity.
	LogLevelError LogLevel = 8
)

// String returns the string representation of the LogLevel.
func (l LogLevel) String() string {
	switch l {
	case LogLevelDebug:
		return "DEBUG"
	case LogLevelWarn:
		return "WARN"
	case LogLevelError:
		return "ERROR"
	default:
		return "INFO"
	}
}
