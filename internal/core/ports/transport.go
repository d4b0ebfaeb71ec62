package ports

import (
	"context"
	"time"

	"go.trai.ch/rig/internal/core/domain"
)

// Transport runs commands on the provisioned host.
//
//go:generate mockgen -source=transport.go -destination=mocks/mock_transport.go -package=mocks
type Transport interface {
	// Run executes argv under the given label. A zero timeout means no limit.
	//
	// A non-zero exit code yields both the result and a *domain.CommandError.
	// Connection and protocol failures match domain.ErrTransport.
	Run(ctx context.Context, label string, argv []string, timeout time.Duration) (*domain.ExecResult, error)
}
