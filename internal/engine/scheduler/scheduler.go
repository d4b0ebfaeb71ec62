package scheduler

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.trai.ch/rig/internal/core/domain"
	"go.trai.ch/rig/internal/core/ports"
	"go.trai.ch/rig/internal/engine/execctx"
	"go.trai.ch/zerr"
	"golang.org/x/sync/errgroup"
)

// Recorder receives task and wave durations.
type Recorder interface {
	Record(label string, d time.Duration)
}

// Scheduler drives a Graph to completion in barrier-synchronized waves.
//
// Every task of a wave starts together and the next wave is only computed once
// all of them have returned. A task whose dependencies complete mid-wave waits for
// the barrier.
type Scheduler struct {
	tracer ports.Tracer
	logger ports.Logger
}

// NewScheduler creates a new Scheduler with the given dependencies.
func NewScheduler(tracer ports.Tracer, logger ports.Logger) *Scheduler {
	return &Scheduler{
		tracer: tracer,
		logger: logger,
	}
}

// Run invokes every registered handler exactly once, in dependency order.
// The first failing task aborts the run: its siblings see a canceled context and no
// further wave starts.
func (s *Scheduler) Run(ctx context.Context, g *Graph, ec *execctx.Context, rec Recorder) error {
	wave := 0
	return g.walk(func(ready []string) error {
		wave++
		s.logger.Info(fmt.Sprintf("wave %d: %s", wave, strings.Join(ready, ", ")))
		return s.runWave(ctx, g, ec, rec, ready)
	})
}

func (s *Scheduler) runWave(ctx context.Context, g *Graph, ec *execctx.Context, rec Recorder, ready []string) error {
	label := domain.WaveLabel(ready)
	ctx, span := s.tracer.Start(ctx, label)
	defer span.End()
	span.SetAttribute("rig.wave.size", len(ready))

	start := time.Now()
	eg, egCtx := errgroup.WithContext(ctx)
	for _, name := range ready {
		task := g.tasks[name]
		eg.Go(func() error {
			return s.runTask(egCtx, task, ec, rec)
		})
	}
	err := eg.Wait()
	rec.Record(label, time.Since(start))

	if err != nil {
		span.RecordError(err)
	}
	return err
}

func (s *Scheduler) runTask(ctx context.Context, t *Task, ec *execctx.Context, rec Recorder) error {
	label := domain.TaskLabel(t.Name)
	ctx, span := s.tracer.Start(ctx, label)
	defer span.End()
	if t.Description != "" {
		span.SetAttribute("rig.task.description", t.Description)
	}

	start := time.Now()
	err := t.Handler(ctx, ec)
	rec.Record(label, time.Since(start))

	if err != nil {
		span.RecordError(err)
		return zerr.With(zerr.Wrap(err, domain.ErrTaskExecutionFailed.Error()), "task", t.Name)
	}
	return nil
}
