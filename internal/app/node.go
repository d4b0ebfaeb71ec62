package app

import (
	"context"

	"github.com/grindlemire/graft"
	"go.trai.ch/rig/internal/adapters/config"
	"go.trai.ch/rig/internal/adapters/hostinfo"
	"go.trai.ch/rig/internal/adapters/logger"
	"go.trai.ch/rig/internal/adapters/target"
	"go.trai.ch/rig/internal/core/ports"
	"go.trai.ch/rig/internal/engine/scheduler"
)

// Components holds everything the CLI needs.
type Components struct {
	App    *App
	Logger ports.Logger
}

// NodeID is the unique identifier for the application Graft node.
const NodeID graft.ID = "app.components"

func init() {
	graft.Register(graft.Node[*Components]{
		ID:        NodeID,
		Cacheable: true,
		DependsOn: []graft.ID{
			config.NodeID,
			target.NodeID,
			hostinfo.NodeID,
			logger.NodeID,
			scheduler.NodeID,
		},
		Run: func(ctx context.Context) (*Components, error) {
			loader, err := graft.Dep[ports.PlanLoader](ctx)
			if err != nil {
				return nil, err
			}
			dialer, err := graft.Dep[ports.TargetDialer](ctx)
			if err != nil {
				return nil, err
			}
			probe, err := graft.Dep[ports.HostProbe](ctx)
			if err != nil {
				return nil, err
			}
			log, err := graft.Dep[ports.Logger](ctx)
			if err != nil {
				return nil, err
			}
			sched, err := graft.Dep[*scheduler.Scheduler](ctx)
			if err != nil {
				return nil, err
			}
			return &Components{
				App:    New(loader, dialer, probe, log, sched),
				Logger: log,
			}, nil
		},
	})
}
