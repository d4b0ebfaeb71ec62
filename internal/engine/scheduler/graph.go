// Package scheduler holds the task graph and the wave scheduler that drives it.
package scheduler

import (
	"context"
	"slices"

	"go.trai.ch/rig/internal/core/domain"
	"go.trai.ch/rig/internal/engine/execctx"
	"go.trai.ch/zerr"
)

// Handler performs one task, issuing every command through ec.
type Handler func(ctx context.Context, ec *execctx.Context) error

// Task is a registered unit of provisioning work.
type Task struct {
	Name         string
	Handler      Handler
	Dependencies []string
	Description  string
}

// Graph is the registry of tasks for one run. Dependencies may name tasks that are
// never registered; such tasks surface as a cycle when scheduling stalls.
type Graph struct {
	tasks map[string]*Task
	order []string
}

// NewGraph creates an empty Graph.
func NewGraph() *Graph {
	return &Graph{tasks: make(map[string]*Task)}
}

// Register adds a task. It fails if name is empty, taken, or has no handler.
func (g *Graph) Register(name string, handler Handler, dependencies []string, description string) error {
	if name == "" {
		return zerr.Wrap(domain.ErrInvalidTaskName, "task name cannot be empty")
	}
	if _, exists := g.tasks[name]; exists {
		return zerr.With(zerr.Wrap(domain.ErrTaskAlreadyExists, "cannot register task"), "task", name)
	}
	if handler == nil {
		return zerr.With(zerr.Wrap(domain.ErrMissingTaskHandler, "cannot register task"), "task", name)
	}

	g.tasks[name] = &Task{
		Name:         name,
		Handler:      handler,
		Dependencies: slices.Clone(dependencies),
		Description:  description,
	}
	g.order = append(g.order, name)
	return nil
}

// Len returns the number of registered tasks.
func (g *Graph) Len() int {
	return len(g.order)
}

// Task returns the registered task called name.
func (g *Graph) Task(name string) (Task, bool) {
	t, ok := g.tasks[name]
	if !ok {
		return Task{}, false
	}
	return *t, true
}

// Names returns task names in registration order.
func (g *Graph) Names() []string {
	return slices.Clone(g.order)
}

// Waves returns the waves a run would execute, without running anything.
func (g *Graph) Waves() ([][]string, error) {
	var waves [][]string
	err := g.walk(func(ready []string) error {
		waves = append(waves, ready)
		return nil
	})
	return waves, err
}

// walk computes waves the way Run executes them: every remaining task whose
// dependencies all completed forms the next wave, and visit must return before the
// following wave is computed.
func (g *Graph) walk(visit func(ready []string) error) error {
	remaining := slices.Clone(g.order)
	completed := make(map[string]bool, len(remaining))

	for len(remaining) > 0 {
		var ready, blocked []string
		for _, name := range remaining {
			if g.satisfied(name, completed) {
				ready = append(ready, name)
			} else {
				blocked = append(blocked, name)
			}
		}

		if len(ready) == 0 {
			return &domain.CycleError{Remaining: remaining}
		}

		if err := visit(ready); err != nil {
			return err
		}

		for _, name := range ready {
			completed[name] = true
		}
		remaining = blocked
	}
	return nil
}

func (g *Graph) satisfied(name string, completed map[string]bool) bool {
	for _, dep := range g.tasks[name].Dependencies {
		if !completed[dep] {
			return false
		}
	}
	return true
}
