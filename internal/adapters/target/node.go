package target

import (
	"context"

	"github.com/grindlemire/graft"
	"go.trai.ch/rig/internal/core/ports"
)

// NodeID is the unique identifier for the target dialer Graft node.
const NodeID graft.ID = "adapter.target"

func init() {
	graft.Register(graft.Node[ports.TargetDialer]{
		ID:        NodeID,
		Cacheable: true,
		Run: func(_ context.Context) (ports.TargetDialer, error) {
			return NewDialer(), nil
		},
	})
}
