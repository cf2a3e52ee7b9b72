// Package app implements the application layer for kiln.
package app

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"runtime"
	"time"

	"go.trai.ch/kiln/internal/core/domain"
	"go.trai.ch/kiln/internal/core/ports"
	"go.trai.ch/kiln/internal/engine/devloop"
	"go.trai.ch/kiln/internal/engine/scheduler"
	"go.trai.ch/zerr"
	"golang.org/x/sync/errgroup"
)

// App represents the main application logic.
type App struct {
	configLoader ports.ConfigLoader
	scheduler    *scheduler.Scheduler
	stores       ports.BuildInfoStoreOpener
	reloader     ports.Reloader
	loop         *devloop.Loop
	telemetry    ports.Telemetry
	logger       ports.Logger
	workDir      string
	parallelism  int
}

// New creates a new App instance.
func New(
	loader ports.ConfigLoader,
	sched *scheduler.Scheduler,
	stores ports.BuildInfoStoreOpener,
	reloader ports.Reloader,
	loop *devloop.Loop,
	telemetry ports.Telemetry,
	log ports.Logger,
) *App {
	return &App{
		configLoader: loader,
		scheduler:    sched,
		stores:       stores,
		reloader:     reloader,
		loop:         loop,
		telemetry:    telemetry,
		logger:       log,
		workDir:      ".",
		parallelism:  runtime.NumCPU(),
	}
}

// WithWorkDir sets the directory the project configuration is loaded from.
func (a *App) WithWorkDir(dir string) *App {
	a.workDir = dir
	return a
}

// WithParallelism bounds the number of tasks run at once.
func (a *App) WithParallelism(n int) *App {
	a.parallelism = n
	return a
}

// WatchOptions configuration for the Watch method.
type WatchOptions struct {
	// Addr is the host:port the development server listens on.
	Addr string
	// Debounce is the quiet window after the last change before a rebuild starts.
	Debounce time.Duration
}

// CleanOptions configuration for the Clean method.
type CleanOptions struct {
	// State also removes the stored build fingerprints.
	State bool
}

// Build runs clean followed by every producer once.
func (a *App) Build(ctx context.Context) error {
	defer a.closeTelemetry()

	cfg, err := a.load()
	if err != nil {
		return err
	}

	_, err = a.build(ctx, cfg, a.openStore(cfg))
	return err
}

// Watch builds the project, serves the output root and rebuilds on every source change
// until ctx is cancelled. Build failures are logged and never end the session.
func (a *App) Watch(ctx context.Context, opts WatchOptions) error {
	defer a.closeTelemetry()

	cfg, err := a.load()
	if err != nil {
		return err
	}
	store := a.openStore(cfg)

	if _, err := a.build(ctx, cfg, store); err != nil {
		a.logger.Warn("initial build failed, serving partial output: " + err.Error())
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		return a.reloader.Serve(gctx, opts.Addr, cfg.Paths.Output)
	})

	g.Go(func() error {
		return a.loop.Run(gctx, cfg, opts.Debounce, func(ctx context.Context) (domain.BuildReport, error) {
			return a.build(ctx, cfg, store)
		})
	})

	return g.Wait()
}

// Clean removes the output root and, when requested, the stored build state.
func (a *App) Clean(ctx context.Context, opts CleanOptions) error {
	defer a.closeTelemetry()

	cfg, err := a.configLoader.Load(a.workDir)
	if err != nil {
		return zerr.Wrap(err, "failed to load configuration")
	}

	clean, err := domain.NewBuildGraph().Task(string(domain.KindClean))
	if err != nil {
		return err
	}
	graph := domain.NewGraph()
	if err := graph.AddTask(&clean); err != nil {
		return err
	}
	if _, err := a.scheduler.Run(ctx, graph, cfg, nil, 1); err != nil {
		return errors.Join(domain.ErrBuildExecutionFailed, err)
	}
	a.logger.Info("removed " + cfg.Paths.Output)

	if opts.State {
		dir := filepath.Join(cfg.Root, domain.StateDir)
		if err := os.RemoveAll(dir); err != nil {
			return domain.IOError(dir, err)
		}
		a.logger.Info("removed " + dir)
	}
	return nil
}

// load reads the configuration and checks that the input root exists.
func (a *App) load() (*domain.Config, error) {
	cfg, err := a.configLoader.Load(a.workDir)
	if err != nil {
		return nil, zerr.Wrap(err, "failed to load configuration")
	}

	info, err := os.Stat(cfg.Paths.Input)
	if err != nil || !info.IsDir() {
		cause := zerr.With(zerr.New("input root is not a directory"), "path", cfg.Paths.Input)
		return nil, errors.Join(domain.ErrInputRootMissing, cause)
	}
	return cfg, nil
}

// openStore opens the build state of cfg. Builds run without one when it is unreadable.
func (a *App) openStore(cfg *domain.Config) ports.BuildInfoStore {
	store, err := a.stores.Open(cfg.Root)
	if err != nil {
		a.logger.Warn("ignoring build state: " + err.Error())
		return nil
	}
	return store
}

func (a *App) build(ctx context.Context, cfg *domain.Config, store ports.BuildInfoStore) (domain.BuildReport, error) {
	report, err := a.scheduler.Run(ctx, domain.NewBuildGraph(), cfg, store, a.parallelism)
	if err != nil {
		return report, errors.Join(domain.ErrBuildExecutionFailed, err)
	}
	return report, nil
}

func (a *App) closeTelemetry() {
	if err := a.telemetry.Close(); err != nil {
		a.logger.Error(zerr.Wrap(err, "failed to close progress recorder"))
	}
}
