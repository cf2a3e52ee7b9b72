package esbuild

import (
	"context"

	"github.com/grindlemire/graft"
	"go.trai.ch/kiln/internal/core/ports"
)

const (
	TransformerNodeID graft.ID = "adapter.esbuild"
	PrefixerNodeID    graft.ID = "adapter.esbuild.prefixer"
	MinifierNodeID    graft.ID = "adapter.esbuild.minifier"
)

func init() {
	graft.Register(graft.Node[*Transformer]{
		ID:        TransformerNodeID,
		Cacheable: true,
		Run: func(_ context.Context) (*Transformer, error) {
			return NewTransformer(), nil
		},
	})

	graft.Register(graft.Node[ports.Prefixer]{
		ID:        PrefixerNodeID,
		Cacheable: true,
		DependsOn: []graft.ID{TransformerNodeID},
		Run: func(ctx context.Context) (ports.Prefixer, error) {
			t, err := graft.Dep[*Transformer](ctx)
			if err != nil {
				return nil, err
			}
			return t, nil
		},
	})

	graft.Register(graft.Node[ports.ScriptMinifier]{
		ID:        MinifierNodeID,
		Cacheable: true,
		DependsOn: []graft.ID{TransformerNodeID},
		Run: func(ctx context.Context) (ports.ScriptMinifier, error) {
			t, err := graft.Dep[*Transformer](ctx)
			if err != nil {
				return nil, err
			}
			return t, nil
		},
	})
}
