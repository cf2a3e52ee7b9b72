package devloop

import (
	"context"

	"github.com/grindlemire/graft"
	"go.trai.ch/kiln/internal/adapters/logger"  //nolint:depguard // Wired in engine wiring
	"go.trai.ch/kiln/internal/adapters/server"  //nolint:depguard // Wired in engine wiring
	"go.trai.ch/kiln/internal/adapters/watcher" //nolint:depguard // Wired in engine wiring
	"go.trai.ch/kiln/internal/core/ports"
)

// NodeID is the unique identifier for the dev loop Graft node.
const NodeID graft.ID = "engine.devloop"

func init() {
	graft.Register(graft.Node[*Loop]{
		ID:        NodeID,
		Cacheable: true,
		DependsOn: []graft.ID{watcher.NodeID, server.NodeID, logger.NodeID},
		Run: func(ctx context.Context) (*Loop, error) {
			w, err := graft.Dep[ports.Watcher](ctx)
			if err != nil {
				return nil, err
			}
			reloader, err := graft.Dep[ports.Reloader](ctx)
			if err != nil {
				return nil, err
			}
			log, err := graft.Dep[ports.Logger](ctx)
			if err != nil {
				return nil, err
			}
			return New(w, reloader, log), nil
		},
	})
}
