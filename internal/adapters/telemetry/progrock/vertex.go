package progrock

import (
	"fmt"
	"io"
	"time"

	"github.com/vito/progrock"
	"go.trai.ch/kiln/internal/core/domain"
	"go.trai.ch/kiln/internal/core/ports"
)

// Vertex implements ports.Vertex wrapping *progrock.VertexRecorder.
type Vertex struct {
	vertex  *progrock.VertexRecorder
	name    string
	started time.Time
	logger  ports.Logger
}

func newVertex(v *progrock.VertexRecorder, name string, logger ports.Logger) *Vertex {
	return &Vertex{vertex: v, name: name, started: time.Now(), logger: logger}
}

// Stdout returns a writer to capture standard output stream.
func (v *Vertex) Stdout() io.Writer {
	return v.vertex.Stdout()
}

// Log records a message on the vertex. Warnings and errors also reach the logger.
func (v *Vertex) Log(level domain.LogLevel, msg string) {
	_, _ = fmt.Fprintf(v.vertex.Stdout(), "[%s] %s\n", level.String(), msg)
	if v.logger != nil && level >= domain.LogLevelWarn {
		v.logger.Warn(v.name + ": " + msg)
	}
}

// Complete marks the vertex as finished (successfully or with an error).
func (v *Vertex) Complete(err error) {
	v.vertex.Done(err)
	if err == nil && v.logger != nil {
		v.logger.Info(fmt.Sprintf("%s done in %s", v.name, time.Since(v.started).Round(time.Millisecond)))
	}
}
