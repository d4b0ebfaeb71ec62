package ports

import (
	"context"

	"go.trai.ch/rig/internal/core/domain"
)

// HostProbe reports the capacity of the machine rig runs on.
//
//go:generate mockgen -source=host.go -destination=mocks/mock_host.go -package=mocks
type HostProbe interface {
	Capacity(ctx context.Context) (domain.HostCapacity, error)
}
