package ports

import (
	"context"

	"go.trai.ch/kiln/internal/core/domain"
)

// Reloader serves the output root and notifies connected browsers.
//
//go:generate mockgen -source=reloader.go -destination=mocks/mock_reloader.go -package=mocks
type Reloader interface {
	// Serve blocks serving root on addr until ctx is cancelled.
	Serve(ctx context.Context, addr, root string) error
	// Broadcast sends msg to every connected browser.
	Broadcast(msg domain.ReloadMessage)
}
