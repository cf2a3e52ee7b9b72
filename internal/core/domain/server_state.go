package domain

// ServerState is the lifecycle state of the development server.
type ServerState int32

const (
	// StateIdle means nothing is being served yet.
	StateIdle ServerState = iota
	// StateServing means the output root is served and sources are watched.
	StateServing
	// StateRebuilding means a rebuild triggered by a source change is running.
	StateRebuilding
	// StateTerminal means the server has shut down.
	StateTerminal
)

func (s ServerState) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateServing:
		return "serving"
	case StateRebuilding:
		return "rebuilding"
	case StateTerminal:
		return "terminal"
	default:
		return "unknown"
	}
}

// ReloadKind tells connected browsers how to pick up new output.
type ReloadKind string

const (
	// ReloadPage asks the browser to reload the whole page.
	ReloadPage ReloadKind = "reload"
	// ReloadCSS asks the browser to swap stylesheets in place.
	ReloadCSS ReloadKind = "css"
)

// ReloadMessage is broadcast to browsers after a successful rebuild.
type ReloadMessage struct {
	Type    ReloadKind `json:"type"`
	Changed []string   `json:"changed,omitempty"`
}
