// Package wiring registers all Graft nodes for the application.
package wiring

import (
	// Register adapter nodes.
	_ "go.trai.ch/kiln/internal/adapters/cas"
	_ "go.trai.ch/kiln/internal/adapters/config"
	_ "go.trai.ch/kiln/internal/adapters/esbuild"
	_ "go.trai.ch/kiln/internal/adapters/fs"
	_ "go.trai.ch/kiln/internal/adapters/logger"
	_ "go.trai.ch/kiln/internal/adapters/minify"
	_ "go.trai.ch/kiln/internal/adapters/pongo"
	_ "go.trai.ch/kiln/internal/adapters/sass"
	_ "go.trai.ch/kiln/internal/adapters/server"
	_ "go.trai.ch/kiln/internal/adapters/telemetry/progrock"
	_ "go.trai.ch/kiln/internal/adapters/watcher"
	// Register app and engine nodes.
	_ "go.trai.ch/kiln/internal/app"
	_ "go.trai.ch/kiln/internal/engine/devloop"
	_ "go.trai.ch/kiln/internal/engine/pipeline"
	_ "go.trai.ch/kiln/internal/engine/scheduler"
)
