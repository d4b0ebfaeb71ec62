// Package target opens the RemoteTarget a plan points at.
package target

import (
	"context"

	"go.trai.ch/rig/internal/adapters/target/local"
	"go.trai.ch/rig/internal/adapters/target/sshtarget"
	"go.trai.ch/rig/internal/core/domain"
	"go.trai.ch/rig/internal/core/ports"
	"go.trai.ch/zerr"
)

// Dialer implements ports.TargetDialer for local and ssh targets.
type Dialer struct{}

// NewDialer creates a new Dialer.
func NewDialer() *Dialer {
	return &Dialer{}
}

// Dial opens the target described by spec.
func (d *Dialer) Dial(ctx context.Context, spec domain.TargetSpec) (ports.RemoteTarget, error) {
	switch spec.Kind {
	case "", domain.TargetLocal:
		return local.New(), nil
	case domain.TargetSSH:
		if spec.Host == "" {
			return nil, domain.ErrMissingTargetHost
		}
		t, err := sshtarget.Dial(ctx, spec)
		if err != nil {
			return nil, err
		}
		return t, nil
	default:
		return nil, zerr.With(zerr.Wrap(domain.ErrUnknownTargetKind, ""), "kind", string(spec.Kind))
	}
}
