// Package ports defines the core interfaces for the application.
package ports

import (
	"context"

	"go.trai.ch/kiln/internal/core/domain"
)

// Executor defines the interface for executing build tasks.
//
//go:generate mockgen -source=executor.go -destination=mocks/mock_executor.go -package=mocks
type Executor interface {
	// Execute runs the given task against cfg.
	// It returns the artifacts the task wrote, relative to the output root.
	Execute(ctx context.Context, cfg *domain.Config, task *domain.Task) ([]string, error)
}
