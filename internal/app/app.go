// Package app implements the application layer for rig.
package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"go.trai.ch/rig/internal/adapters/hostinfo"
	"go.trai.ch/rig/internal/adapters/transport/direct"
	"go.trai.ch/rig/internal/core/domain"
	"go.trai.ch/rig/internal/core/ports"
	"go.trai.ch/rig/internal/engine/execctx"
	"go.trai.ch/rig/internal/engine/isolation"
	"go.trai.ch/rig/internal/engine/scheduler"
	"go.trai.ch/rig/internal/engine/timing"
	"go.trai.ch/zerr"
)

// App represents the main application logic.
type App struct {
	loader     ports.PlanLoader
	dialer     ports.TargetDialer
	probe      ports.HostProbe
	logger     ports.Logger
	scheduler  *scheduler.Scheduler
	executable func() (string, error)
}

// New creates a new App instance.
func New(
	loader ports.PlanLoader,
	dialer ports.TargetDialer,
	probe ports.HostProbe,
	log ports.Logger,
	sched *scheduler.Scheduler,
) *App {
	return &App{
		loader:     loader,
		dialer:     dialer,
		probe:      probe,
		logger:     log,
		scheduler:  sched,
		executable: os.Executable,
	}
}

// WithExecutable overrides how the exec service binary is located.
// This is primarily used for testing.
func (a *App) WithExecutable(fn func() (string, error)) *App {
	a.executable = fn
	return a
}

// RunOptions configuration for the Run method.
// Nil overrides leave the plan's values in place.
type RunOptions struct {
	PlanPath  string
	VCPUs     *int
	MemoryMiB *int64
	ShowGraph bool
}

// Run provisions the target described by the plan.
//
//nolint:cyclop // orchestration function
func (a *App) Run(ctx context.Context, out io.Writer, opts RunOptions) error {
	// 1. Load the plan
	plan, err := a.loadPlan(opts)
	if err != nil {
		return err
	}

	// 2. Build the graph. The target is only needed once tasks run.
	var deployer *Deployer
	if plan.Execd.Enabled {
		deployer = NewDeployer(plan.Execd, a.logger, a.executable)
	}
	graph, err := BuildGraph(plan, deployer)
	if err != nil {
		return err
	}

	if opts.ShowGraph {
		return RenderGraph(out, graph)
	}

	// 3. Connect to the target
	remote, err := a.dialer.Dial(ctx, plan.Target)
	if err != nil {
		return zerr.Wrap(err, "failed to open target")
	}
	defer func() { _ = remote.Close() }()
	if deployer != nil {
		deployer.Attach(remote)
	}

	if plan.Target.Kind == domain.TargetLocal {
		a.warnCapacity(ctx, plan.Resources)
	}

	// 4. Build the execution context
	ec := execctx.New(direct.New(remote, a.logger), plan.Env)
	a.applyIsolation(ctx, ec, plan.Resources)

	// 5. Run the scheduler
	collector := timing.NewCollector()
	runErr := a.scheduler.Run(ctx, graph, ec, collector)

	if len(collector.Entries()) > 0 {
		for _, line := range collector.Summarize() {
			a.logger.Info(line)
		}
	}

	if runErr != nil {
		return errors.Join(domain.ErrRunFailed, runErr)
	}
	return nil
}

// Graph prints the waves of the plan without connecting to the target.
func (a *App) Graph(ctx context.Context, out io.Writer, planPath string) error {
	return a.Run(ctx, out, RunOptions{PlanPath: planPath, ShowGraph: true})
}

func (a *App) loadPlan(opts RunOptions) (*domain.Plan, error) {
	path := opts.PlanPath
	if path == "" {
		path = domain.DefaultPlanFile
	}
	plan, err := a.loader.Load(path)
	if err != nil {
		return nil, zerr.Wrap(err, "failed to load plan")
	}
	if opts.VCPUs != nil {
		plan.Resources.VCPUs = *opts.VCPUs
	}
	if opts.MemoryMiB != nil {
		plan.Resources.MemoryMiB = *opts.MemoryMiB
	}
	return plan, nil
}

func (a *App) warnCapacity(ctx context.Context, res domain.ResourceSpec) {
	if res.VCPUs <= 0 && res.MemoryMiB <= 0 {
		return
	}
	capacity, err := a.probe.Capacity(ctx)
	if err != nil {
		a.logger.Warn(fmt.Sprintf("could not read host capacity: %v", err))
		return
	}
	if over := hostinfo.Exceeds(capacity, res.VCPUs, res.MemoryMiB); len(over) > 0 {
		a.logger.Warn(fmt.Sprintf(
			"requested %s exceeds host capacity (%d vcpus, %d MiB), limits are compiled from the request anyway",
			strings.Join(over, " and "), capacity.CPUs, capacity.MemoryMiB))
	}
}

func (a *App) applyIsolation(ctx context.Context, ec *execctx.Context, res domain.ResourceSpec) {
	if res.Cgroup == "" {
		return
	}
	profile := domain.CompileProfile(res.VCPUs, res.MemoryMiB)
	procs, err := isolation.TryApply(ctx, ec, res.Cgroup, profile)
	if err != nil {
		a.logger.Warn(fmt.Sprintf("continuing without resource isolation: %v", err))
		return
	}
	ec.SetCgroup(procs...)
	a.logger.Info(fmt.Sprintf("commands confined to cgroup %s", res.Cgroup))
}
