package logger

import (
	"context"
	"os"
	"strconv"

	"github.com/grindlemire/graft"
	"go.trai.ch/kiln/internal/core/ports"
)

// NodeID is the unique identifier for the logger Graft node.
const NodeID graft.ID = "adapter.logger"

// JSONEnv switches the logger to JSON before any settings are read, so that
// start-up failures are already logged in the requested format.
const JSONEnv = "KILN_LOG_JSON"

func init() {
	graft.Register(graft.Node[ports.Logger]{
		ID:        NodeID,
		Cacheable: true,
		Run: func(_ context.Context) (ports.Logger, error) {
			l := &Logger{output: os.Stderr}
			enabled, _ := strconv.ParseBool(os.Getenv(JSONEnv))
			l.SetJSON(enabled)
			return l, nil
		},
	})
}
