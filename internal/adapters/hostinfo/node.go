package hostinfo

import (
	"context"

	"github.com/grindlemire/graft"
	"go.trai.ch/rig/internal/core/ports"
)

// NodeID is the unique identifier for the host probe Graft node.
const NodeID graft.ID = "adapter.hostinfo"

func init() {
	graft.Register(graft.Node[ports.HostProbe]{
		ID:        NodeID,
		Cacheable: true,
		Run: func(_ context.Context) (ports.HostProbe, error) {
			return NewProbe(), nil
		},
	})
}
