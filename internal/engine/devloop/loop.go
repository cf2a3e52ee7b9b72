// Package devloop rebuilds the project on source changes and tells browsers to reload.
package devloop

import (
	"context"
	"path/filepath"
	"slices"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"go.trai.ch/kiln/internal/core/domain"
	"go.trai.ch/kiln/internal/core/ports"
	"go.trai.ch/zerr"
)

// RebuildFunc runs the build graph once.
type RebuildFunc func(ctx context.Context) (domain.BuildReport, error)

// Loop drives the Serving and Rebuilding states of the development server.
// At most one rebuild is in flight; changes arriving meanwhile trigger exactly one follow-up.
type Loop struct {
	watcher  ports.Watcher
	reloader ports.Reloader
	logger   ports.Logger

	state atomic.Int32

	mu      sync.Mutex
	running bool
	pending bool
	closed  bool
	wg      sync.WaitGroup
}

// DefaultWindow is the quiet window used when Run is given none.
const DefaultWindow = 200 * time.Millisecond

// New creates a new Loop.
func New(watcher ports.Watcher, reloader ports.Reloader, logger ports.Logger) *Loop {
	return &Loop{
		watcher:  watcher,
		reloader: reloader,
		logger:   logger,
	}
}

// State returns the current state of the loop.
func (l *Loop) State() domain.ServerState {
	return domain.ServerState(l.state.Load())
}

func (l *Loop) setState(s domain.ServerState) {
	l.state.Store(int32(s))
}

// Run watches the input root of cfg and calls rebuild once no change arrived for window.
// It blocks until ctx is cancelled and the in-flight rebuild, if any, has returned.
func (l *Loop) Run(ctx context.Context, cfg *domain.Config, window time.Duration, rebuild RebuildFunc) error {
	if window <= 0 {
		window = DefaultWindow
	}
	if err := l.watcher.Start(ctx, cfg.Paths.Input); err != nil {
		l.setState(domain.StateTerminal)
		return zerr.With(zerr.Wrap(err, "failed to watch sources"), "path", cfg.Paths.Input)
	}
	l.setState(domain.StateServing)
	l.logger.Info("watching " + cfg.Paths.Input)

	debouncer := NewDebouncer(window, func(paths []string) {
		l.trigger(ctx, cfg, rebuild, paths)
	})

	consumed := make(chan struct{})
	go func() {
		defer close(consumed)
		for event := range l.watcher.Events() {
			if ignored(cfg, event.Path) {
				continue
			}
			debouncer.Add(event.Path)
		}
	}()

	<-ctx.Done()

	if err := l.watcher.Stop(); err != nil {
		l.logger.Error(zerr.Wrap(err, "failed to stop watcher"))
	}
	<-consumed
	debouncer.Stop()

	l.mu.Lock()
	l.closed = true
	l.mu.Unlock()
	l.wg.Wait()

	l.setState(domain.StateTerminal)
	return nil
}

// trigger starts a rebuild, or marks one as pending when a rebuild is in flight.
func (l *Loop) trigger(ctx context.Context, cfg *domain.Config, rebuild RebuildFunc, paths []string) {
	l.mu.Lock()
	if l.closed || ctx.Err() != nil {
		l.mu.Unlock()
		return
	}
	if l.running {
		l.pending = true
		l.mu.Unlock()
		return
	}
	l.running = true
	l.wg.Add(1)
	l.mu.Unlock()

	defer l.wg.Done()
	l.logger.Info(changeSummary(cfg.Paths, paths))
	for {
		l.rebuildOnce(ctx, rebuild)

		l.mu.Lock()
		if !l.pending || ctx.Err() != nil {
			l.running = false
			l.pending = false
			l.mu.Unlock()
			return
		}
		l.pending = false
		l.mu.Unlock()
	}
}

func (l *Loop) rebuildOnce(ctx context.Context, rebuild RebuildFunc) {
	l.setState(domain.StateRebuilding)
	report, err := rebuild(ctx)
	l.setState(domain.StateServing)

	if ctx.Err() != nil {
		return
	}
	if err != nil {
		l.logger.Warn("rebuild failed, failed categories stay empty until the next change: " + err.Error())
		return
	}

	msg := domain.ReloadMessage{Type: domain.ReloadPage, Changed: report.Changed}
	if report.OnlyChanged(domain.KindStyles) {
		msg.Type = domain.ReloadCSS
	}
	l.reloader.Broadcast(msg)
}

// ignored reports whether path lies in the output root or the build state directory.
func ignored(cfg *domain.Config, path string) bool {
	return domain.IsWithin(cfg.Paths.Output, path) ||
		domain.IsWithin(filepath.Join(cfg.Root, domain.StateDir), path)
}

// changeSummary describes a batch of changed files and the categories they belong to.
func changeSummary(p domain.Paths, changed []string) string {
	var kinds []string
	for _, path := range changed {
		if kind, ok := p.KindOf(path); ok && !slices.Contains(kinds, string(kind)) {
			kinds = append(kinds, string(kind))
		}
	}
	slices.Sort(kinds)

	var msg string
	switch len(changed) {
	case 0:
		return "rebuilding"
	case 1:
		msg = "changed " + changed[0]
	default:
		msg = "changed " + changed[0] + " and " + strconv.Itoa(len(changed)-1) + " more"
	}
	if len(kinds) > 0 {
		msg += " [" + strings.Join(kinds, ", ") + "]"
	}
	return msg + ", rebuilding"
}
