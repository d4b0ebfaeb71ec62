package isolation

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.trai.ch/rig/internal/core/domain"
	"go.trai.ch/zerr"
)

// applyTimeout bounds each of the two isolation commands.
const applyTimeout = 30 * time.Second

// Runner issues commands on the target.
type Runner interface {
	Run(ctx context.Context, label string, cmd domain.Command, timeout time.Duration) (*domain.ExecResult, error)
}

// TryApply runs the isolation fragment for name and verifies the group exists.
// It returns the membership files commands should join.
//
// Every failure matches domain.ErrIsolationUnavailable. Callers are expected to log it
// and carry on without isolation.
func TryApply(ctx context.Context, r Runner, name string, p domain.ResourceProfile) ([]string, error) {
	if !ValidName(name) {
		return nil, unavailable(domain.ErrInvalidTaskName, "invalid cgroup name", name)
	}

	if _, err := r.Run(ctx, "isolation:apply", domain.Shell(Script(name, p)), applyTimeout); err != nil {
		return nil, unavailable(err, "failed to apply cgroup limits", name)
	}

	res, err := r.Run(ctx, "isolation:verify", domain.Shell(VerifyScript(name)), applyTimeout)
	if err != nil {
		return nil, unavailable(err, "failed to verify cgroup", name)
	}

	var procs []string
	for line := range strings.Lines(res.Stdout) {
		if f := strings.TrimSpace(line); f != "" {
			procs = append(procs, f)
		}
	}
	if len(procs) == 0 {
		return nil, zerr.With(zerr.Wrap(domain.ErrIsolationUnavailable, "cgroup was not created"), "cgroup", name)
	}
	return procs, nil
}

func unavailable(cause error, msg, name string) error {
	return zerr.With(zerr.Wrap(fmt.Errorf("%w: %w", domain.ErrIsolationUnavailable, cause), msg), "cgroup", name)
}
