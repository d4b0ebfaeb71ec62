package ports

import (
	"context"
	"time"

	"go.trai.ch/rig/internal/core/domain"
)

//go:generate mockgen -source=target.go -destination=mocks/mock_target.go -package=mocks

// RemoteTarget is the native exec facility of the provisioned host.
type RemoteTarget interface {
	// Exec runs argv and captures its output. A non-zero exit is reported through the
	// result, not the error. Errors are reserved for transport failures and match
	// domain.ErrTransport.
	Exec(ctx context.Context, argv []string, timeout time.Duration) (*domain.ExecResult, error)
	// Upload copies a local file to remotePath on the host.
	Upload(ctx context.Context, localPath, remotePath string) error
	// Host returns the address other services on the target can be reached at.
	Host() string
	// Close releases the connection.
	Close() error
}

// TargetDialer opens a RemoteTarget from its plan description.
type TargetDialer interface {
	Dial(ctx context.Context, spec domain.TargetSpec) (RemoteTarget, error)
}
