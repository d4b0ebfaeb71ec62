// Package direct implements the transport that talks straight to the target's exec facility.
package direct

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.trai.ch/rig/internal/adapters/logsink"
	"go.trai.ch/rig/internal/core/domain"
	"go.trai.ch/rig/internal/core/ports"
	"go.trai.ch/rig/internal/engine/retry"
	"go.trai.ch/zerr"
)

const (
	// MaxAttempts bounds how often a command is tried on transport errors.
	MaxAttempts = 3
	// BaseDelay is doubled after every failed attempt.
	BaseDelay = time.Second
	// MaxDelay caps the delay between attempts.
	MaxDelay = 8 * time.Second
)

// DefaultPolicy retries transport errors only, backing off min(2^attempt, 8) seconds.
func DefaultPolicy() retry.Policy {
	return retry.Policy{
		MaxAttempts: MaxAttempts,
		Backoff:     retry.Exponential(BaseDelay, MaxDelay),
		IsRetryable: func(err error) bool { return errors.Is(err, domain.ErrTransport) },
	}
}

// Transport implements ports.Transport on top of a RemoteTarget.
type Transport struct {
	target ports.RemoteTarget
	logger ports.Logger
	policy retry.Policy
}

// New creates a Transport using DefaultPolicy.
func New(target ports.RemoteTarget, logger ports.Logger) *Transport {
	return NewWithPolicy(target, logger, DefaultPolicy())
}

// NewWithPolicy creates a Transport with a custom retry policy.
func NewWithPolicy(target ports.RemoteTarget, logger ports.Logger, policy retry.Policy) *Transport {
	return &Transport{target: target, logger: logger, policy: policy}
}

// Run executes argv, retrying transport failures. Captured output is forwarded to
// the logger once the command finishes.
func (t *Transport) Run(ctx context.Context, label string, argv []string, timeout time.Duration) (*domain.ExecResult, error) {
	policy := t.policy
	attempts := 0
	policy.OnRetry = func(attempt int, err error, delay time.Duration) {
		t.logger.Warn(fmt.Sprintf("[%s] attempt %d/%d failed, retrying in %s: %v",
			label, attempt, max(policy.MaxAttempts, 1), delay, err))
	}

	res, err := retry.Do(ctx, policy, func(ctx context.Context, attempt int) (*domain.ExecResult, error) {
		attempts = attempt
		return t.target.Exec(ctx, argv, timeout)
	})
	if err != nil {
		return nil, zerr.With(zerr.With(zerr.Wrap(err, ""), "label", label), "attempts", attempts)
	}

	logsink.Replay(t.logger, label, res.Stdout, res.Stderr)

	if !res.Succeeded() {
		return res, &domain.CommandError{Label: label, Result: res}
	}
	return res, nil
}
