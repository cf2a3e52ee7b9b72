// Package domain contains the core models of the asset pipeline: paths, tasks and the build graph.
package domain

import (
	"errors"
	"iter"
	"slices"
	"strings"

	"go.trai.ch/zerr"
)

// Graph represents a dependency graph of tasks.
type Graph struct {
	tasks          map[string]Task
	dependents     map[string][]string
	executionOrder []string
}

// NewGraph creates a new empty Graph.
func NewGraph() *Graph {
	return &Graph{
		tasks:      make(map[string]Task),
		dependents: make(map[string][]string),
	}
}

// NewBuildGraph returns the default build graph: clean runs first and every
// producer depends on it and on nothing else.
func NewBuildGraph() *Graph {
	g := NewGraph()
	_ = g.AddTask(&Task{Name: string(KindClean), Kind: KindClean})
	for _, kind := range ProducerKinds {
		_ = g.AddTask(&Task{
			Name:         string(kind),
			Kind:         kind,
			Dependencies: []string{string(KindClean)},
		})
	}
	return g
}

// AddTask adds a task to the graph.
// It returns an error if a task with the same name already exists.
func (g *Graph) AddTask(t *Task) error {
	if _, exists := g.tasks[t.Name]; exists {
		return errors.Join(ErrTaskAlreadyExists, zerr.With(zerr.New("duplicate task name"), "task_name", t.Name))
	}
	g.tasks[t.Name] = *t
	for _, dep := range t.Dependencies {
		g.dependents[dep] = append(g.dependents[dep], t.Name)
	}
	g.executionOrder = nil
	return nil
}

// Task returns the task with the given name.
func (g *Graph) Task(name string) (Task, error) {
	t, ok := g.tasks[name]
	if !ok {
		return Task{}, errors.Join(ErrTaskNotFound, zerr.With(zerr.New("no such task"), "task_name", name))
	}
	return t, nil
}

// TaskCount returns the number of tasks in the graph.
func (g *Graph) TaskCount() int {
	return len(g.tasks)
}

// Dependents returns the names of the tasks that depend directly on name, sorted.
func (g *Graph) Dependents(name string) []string {
	out := slices.Clone(g.dependents[name])
	slices.Sort(out)
	return out
}

// Validate checks for cycles and missing dependencies using a topological sort.
// It populates the execution order used by Walk.
func (g *Graph) Validate() error {
	order := make([]string, 0, len(g.tasks))
	visited := make(map[string]int) // 0: unvisited, 1: visiting, 2: visited
	var path []string

	var visit func(u string) error
	visit = func(u string) error {
		visited[u] = 1
		path = append(path, u)

		task, exists := g.tasks[u]
		if !exists {
			return errors.Join(ErrMissingDependency, zerr.With(zerr.New("unknown task referenced"), "dependency", u))
		}

		for _, dep := range task.Dependencies {
			switch visited[dep] {
			case 1:
				return buildCycleError(path, dep)
			case 0:
				if err := visit(dep); err != nil {
					return err
				}
			}
		}

		visited[u] = 2
		path = path[:len(path)-1]
		order = append(order, u)
		return nil
	}

	names := make([]string, 0, len(g.tasks))
	for name := range g.tasks {
		names = append(names, name)
	}
	slices.Sort(names)

	for _, name := range names {
		if visited[name] == 0 {
			if err := visit(name); err != nil {
				return err
			}
		}
	}

	g.executionOrder = order
	return nil
}

func buildCycleError(path []string, dep string) error {
	start := slices.Index(path, dep)
	cycle := append(slices.Clone(path[start:]), dep)
	return errors.Join(ErrCycleDetected, zerr.With(zerr.New("tasks depend on each other"), "cycle", strings.Join(cycle, " -> ")))
}

// Walk returns an iterator that yields tasks in execution order.
// It assumes Validate() has been called and returned nil.
func (g *Graph) Walk() iter.Seq[Task] {
	return func(yield func(Task) bool) {
		for _, name := range g.executionOrder {
			if !yield(g.tasks[name]) {
				return
			}
		}
	}
}
