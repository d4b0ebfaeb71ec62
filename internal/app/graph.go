package app

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"go.trai.ch/rig/internal/core/domain"
	"go.trai.ch/rig/internal/engine/execctx"
	"go.trai.ch/rig/internal/engine/scheduler"
	"go.trai.ch/rig/internal/ui/style"
)

// execdDescription is shown for the deploy task in graph output.
const execdDescription = "deploy the exec service"

// BuildGraph registers one task per plan entry, plus the exec service deploy task
// when deployer is non-nil.
func BuildGraph(plan *domain.Plan, deployer *Deployer) (*scheduler.Graph, error) {
	g := scheduler.NewGraph()
	for _, spec := range plan.Tasks {
		if err := g.Register(spec.Name, commandHandler(spec), spec.DependsOn, spec.Description); err != nil {
			return nil, err
		}
	}
	if deployer != nil {
		if err := g.Register(domain.ExecdTaskName, deployer.Handle, plan.Execd.DependsOn, execdDescription); err != nil {
			return nil, err
		}
	}
	return g, nil
}

func commandHandler(spec domain.TaskSpec) scheduler.Handler {
	label := domain.TaskLabel(spec.Name)
	return func(ctx context.Context, ec *execctx.Context) error {
		_, err := ec.Run(ctx, label, spec.Command, spec.Timeout)
		return err
	}
}

// RenderGraph writes one block per wave: the "wave N: a, b" header, then each task
// with its description.
func RenderGraph(w io.Writer, g *scheduler.Graph) error {
	waves, err := g.Waves()
	if err != nil {
		return err
	}

	r := lipgloss.NewRenderer(w)
	heading := r.NewStyle().Inherit(style.Heading)
	dim := r.NewStyle().Inherit(style.Dim)

	var b strings.Builder
	for i, wave := range waves {
		b.WriteString(heading.Render(fmt.Sprintf("wave %d: %s", i+1, strings.Join(wave, ", "))))
		b.WriteByte('\n')
		for _, name := range wave {
			task, _ := g.Task(name)
			b.WriteString("  " + style.Dot + " " + name)
			if task.Description != "" {
				b.WriteString("  " + dim.Render(task.Description))
			}
			b.WriteByte('\n')
		}
	}
	_, err = io.WriteString(w, b.String())
	return err
}
