package pipeline

import (
	"context"

	"github.com/grindlemire/graft"
	"go.trai.ch/kiln/internal/adapters/esbuild" //nolint:depguard // Wired in engine wiring
	"go.trai.ch/kiln/internal/adapters/fs"      //nolint:depguard // Wired in engine wiring
	"go.trai.ch/kiln/internal/adapters/minify"  //nolint:depguard // Wired in engine wiring
	"go.trai.ch/kiln/internal/adapters/pongo"   //nolint:depguard // Wired in engine wiring
	"go.trai.ch/kiln/internal/adapters/sass"    //nolint:depguard // Wired in engine wiring
	"go.trai.ch/kiln/internal/core/ports"
)

// NodeID is the unique identifier for the pipeline executor Graft node.
const NodeID graft.ID = "engine.pipeline"

func init() {
	graft.Register(graft.Node[ports.Executor]{
		ID:        NodeID,
		Cacheable: true,
		DependsOn: []graft.ID{
			fs.ResolverNodeID,
			sass.NodeID,
			esbuild.PrefixerNodeID,
			esbuild.MinifierNodeID,
			minify.NodeID,
			pongo.NodeID,
		},
		Run: func(ctx context.Context) (ports.Executor, error) {
			resolver, err := graft.Dep[ports.InputResolver](ctx)
			if err != nil {
				return nil, err
			}
			styles, err := graft.Dep[ports.StyleCompiler](ctx)
			if err != nil {
				return nil, err
			}
			prefixer, err := graft.Dep[ports.Prefixer](ctx)
			if err != nil {
				return nil, err
			}
			scripts, err := graft.Dep[ports.ScriptMinifier](ctx)
			if err != nil {
				return nil, err
			}
			minifier, err := graft.Dep[ports.Minifier](ctx)
			if err != nil {
				return nil, err
			}
			templates, err := graft.Dep[ports.TemplateRenderer](ctx)
			if err != nil {
				return nil, err
			}
			return NewExecutor(resolver, styles, prefixer, scripts, minifier, templates), nil
		},
	})
}
