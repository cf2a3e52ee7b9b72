package domain

import "time"

// StateDir holds kiln's own bookkeeping, relative to the project root.
const StateDir = ".kiln"

// BuildInfo records what a producer task wrote during its last successful run.
type BuildInfo struct {
	TaskName   string    `json:"task_name,omitzero"`
	OutputHash string    `json:"output_hash,omitzero"`
	Files      []string  `json:"files,omitempty"`
	Timestamp  time.Time `json:"timestamp,omitzero"`
}

// BuildReport summarizes one run of the build graph.
type BuildReport struct {
	// Statuses holds the final status of every task.
	Statuses map[string]VertexStatus
	// Changed lists, sorted, the producer tasks whose output differs from the previous run.
	Changed []string
}

// OnlyChanged reports whether kind is the single task with changed output.
func (r BuildReport) OnlyChanged(kind TaskKind) bool {
	return len(r.Changed) == 1 && r.Changed[0] == string(kind)
}
