// Package scheduler runs the build graph.
package scheduler

import (
	"context"
	"errors"
	"slices"
	"time"

	"go.trai.ch/kiln/internal/core/domain"
	"go.trai.ch/kiln/internal/core/ports"
	"go.trai.ch/zerr"
)

// Scheduler executes the tasks of a graph as soon as their dependencies completed.
type Scheduler struct {
	executor  ports.Executor
	hasher    ports.Hasher
	telemetry ports.Telemetry
	now       func() time.Time
}

// NewScheduler creates a new Scheduler.
func NewScheduler(executor ports.Executor, hasher ports.Hasher, telemetry ports.Telemetry) *Scheduler {
	return &Scheduler{
		executor:  executor,
		hasher:    hasher,
		telemetry: telemetry,
		now:       time.Now,
	}
}

// Run executes every task of graph against cfg with at most parallelism tasks in flight.
// Siblings of a failed task keep running; its dependents are skipped. After each successful
// producer the fingerprint of its artifacts is compared with store and updated.
func (s *Scheduler) Run(
	ctx context.Context,
	graph *domain.Graph,
	cfg *domain.Config,
	store ports.BuildInfoStore,
	parallelism int,
) (domain.BuildReport, error) {
	if err := graph.Validate(); err != nil {
		return domain.BuildReport{}, err
	}
	if parallelism < 1 {
		parallelism = 1
	}

	state := s.newRunState(ctx, graph, cfg, store, parallelism)
	err := state.runExecutionLoop()

	slices.Sort(state.changed)
	return domain.BuildReport{Statuses: state.statuses, Changed: state.changed}, err
}

type result struct {
	task    string
	err     error
	changed bool
}

type schedulerRunState struct {
	graph       *domain.Graph
	cfg         *domain.Config
	store       ports.BuildInfoStore
	inDegree    map[string]int
	tasks       map[string]domain.Task
	statuses    map[string]domain.VertexStatus
	changed     []string
	ready       []string
	active      int
	resultsCh   chan result
	errs        error
	ctx         context.Context
	parallelism int
	s           *Scheduler
}

func (s *Scheduler) newRunState(
	ctx context.Context,
	graph *domain.Graph,
	cfg *domain.Config,
	store ports.BuildInfoStore,
	parallelism int,
) *schedulerRunState {
	taskCount := graph.TaskCount()
	state := &schedulerRunState{
		graph:       graph,
		cfg:         cfg,
		store:       store,
		inDegree:    make(map[string]int, taskCount),
		tasks:       make(map[string]domain.Task, taskCount),
		statuses:    make(map[string]domain.VertexStatus, taskCount),
		resultsCh:   make(chan result, taskCount),
		ctx:         ctx,
		parallelism: parallelism,
		s:           s,
	}

	// Walk yields dependencies first and is deterministic, so ready starts in a stable order.
	for task := range graph.Walk() {
		state.tasks[task.Name] = task
		state.inDegree[task.Name] = len(task.Dependencies)
		state.statuses[task.Name] = domain.VertexStatusPending
		if len(task.Dependencies) == 0 {
			state.ready = append(state.ready, task.Name)
		}
	}
	return state
}

func (state *schedulerRunState) runExecutionLoop() error {
	for !state.isDone() {
		state.schedule()

		if state.isDone() {
			break
		}

		if state.ctx.Err() != nil {
			if state.active == 0 {
				return errors.Join(state.errs, state.ctx.Err())
			}
			// Drain in-flight tasks; nothing new is scheduled.
			state.handleResult(<-state.resultsCh)
			continue
		}

		select {
		case res := <-state.resultsCh:
			state.handleResult(res)
		case <-state.ctx.Done():
		}
	}

	if state.ctx.Err() != nil {
		state.errs = errors.Join(state.errs, state.ctx.Err())
	}

	return state.errs
}

func (state *schedulerRunState) isDone() bool {
	return state.active == 0 && len(state.ready) == 0
}

func (state *schedulerRunState) schedule() {
	for len(state.ready) > 0 && state.active < state.parallelism && state.ctx.Err() == nil {
		taskName := state.ready[0]
		state.ready = state.ready[1:]

		state.active++
		state.statuses[taskName] = domain.VertexStatusRunning

		t := state.tasks[taskName]
		go state.executeTask(&t)
	}
}

func (state *schedulerRunState) executeTask(t *domain.Task) {
	ctx, vertex := state.s.telemetry.Record(state.ctx, t.Name)

	files, err := state.s.executor.Execute(ctx, state.cfg, t)
	changed := false
	if err == nil && t.Kind != domain.KindClean {
		changed = state.recordOutputs(ctx, t, files)
	}

	vertex.Complete(err)
	state.resultsCh <- result{task: t.Name, err: err, changed: changed}
}

// recordOutputs fingerprints the artifacts of t and reports whether they differ from the
// previous run. Build state problems are logged on the vertex and never fail the task.
func (state *schedulerRunState) recordOutputs(ctx context.Context, t *domain.Task, files []string) bool {
	hash, err := state.s.hasher.ComputeOutputHash(files, state.cfg.Paths.Output)
	if err != nil {
		warn(ctx, "failed to fingerprint outputs: "+err.Error())
		return true
	}
	if state.store == nil {
		return true
	}

	changed := true
	prev, err := state.store.Get(t.Name)
	switch {
	case err != nil:
		warn(ctx, "failed to read build state: "+err.Error())
	case prev != nil:
		changed = prev.OutputHash != hash
	}

	info := domain.BuildInfo{
		TaskName:   t.Name,
		OutputHash: hash,
		Files:      files,
		Timestamp:  state.s.now(),
	}
	if err := state.store.Put(info); err != nil {
		warn(ctx, "failed to store build state: "+err.Error())
	}
	return changed
}

func (state *schedulerRunState) handleResult(res result) {
	state.active--

	if res.err != nil {
		wrappedErr := zerr.With(zerr.Wrap(res.err, "task execution failed"), "task", res.task)
		state.errs = errors.Join(state.errs, wrappedErr)
		state.statuses[res.task] = domain.VertexStatusFailed
		state.skipDependents(res.task)
		return
	}

	state.statuses[res.task] = domain.VertexStatusCompleted
	if res.changed {
		state.changed = append(state.changed, res.task)
	}
	for _, dep := range state.graph.Dependents(res.task) {
		state.inDegree[dep]--
		if state.inDegree[dep] == 0 && state.statuses[dep] == domain.VertexStatusPending {
			state.ready = append(state.ready, dep)
		}
	}
}

// skipDependents marks every transitive dependent of name as skipped.
func (state *schedulerRunState) skipDependents(name string) {
	for _, dep := range state.graph.Dependents(name) {
		if state.statuses[dep] == domain.VertexStatusSkipped {
			continue
		}
		state.statuses[dep] = domain.VertexStatusSkipped
		state.skipDependents(dep)
	}
}

func warn(ctx context.Context, msg string) {
	if v, ok := ports.VertexFromContext(ctx); ok {
		v.Log(domain.LogLevelWarn, msg)
	}
}
