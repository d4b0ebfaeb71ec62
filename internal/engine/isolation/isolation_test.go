package isolation_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/sebdah/goldie/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.trai.ch/rig/internal/core/domain"
	"go.trai.ch/rig/internal/engine/isolation"
)

func TestScript_Golden(t *testing.T) {
	g := goldie.New(t)

	g.Assert(t, "full_profile", []byte(isolation.Script("rig-provision", domain.CompileProfile(4, 16384))))
	g.Assert(t, "weights_only", []byte(isolation.Script("builder", domain.CompileProfile(0, 0))))
}

func TestVerifyScript(t *testing.T) {
	assert.Equal(t,
		"for d in /sys/fs/cgroup/rig /sys/fs/cgroup/cpu/rig /sys/fs/cgroup/memory/rig /sys/fs/cgroup/blkio/rig; do\n"+
			"  if [ -d \"$d\" ] && [ -f \"$d/cgroup.procs\" ]; then echo \"$d/cgroup.procs\"; fi\n"+
			"done\n"+
			"exit 0\n",
		isolation.VerifyScript("rig"))
}

// scriptedRunner answers each call with the next canned reply.
type scriptedRunner struct {
	labels  []string
	replies []reply
}

type reply struct {
	res *domain.ExecResult
	err error
}

func (r *scriptedRunner) Run(_ context.Context, label string, _ domain.Command, _ time.Duration) (*domain.ExecResult, error) {
	r.labels = append(r.labels, label)
	next := r.replies[0]
	r.replies = r.replies[1:]
	return next.res, next.err
}

func TestTryApply_V2(t *testing.T) {
	r := &scriptedRunner{replies: []reply{
		{res: &domain.ExecResult{ExitCode: domain.ExitCode(0)}},
		{res: &domain.ExecResult{ExitCode: domain.ExitCode(0), Stdout: "/sys/fs/cgroup/rig/cgroup.procs\n"}},
	}}

	procs, err := isolation.TryApply(t.Context(), r, "rig", domain.CompileProfile(2, 2048))
	require.NoError(t, err)
	assert.Equal(t, []string{"/sys/fs/cgroup/rig/cgroup.procs"}, procs)
	assert.Equal(t, []string{"isolation:apply", "isolation:verify"}, r.labels)
}

func TestTryApply_V1Hierarchies(t *testing.T) {
	r := &scriptedRunner{replies: []reply{
		{res: &domain.ExecResult{}},
		{res: &domain.ExecResult{Stdout: "/sys/fs/cgroup/cpu/rig/cgroup.procs\n/sys/fs/cgroup/memory/rig/cgroup.procs\n"}},
	}}

	procs, err := isolation.TryApply(t.Context(), r, "rig", domain.CompileProfile(2, 2048))
	require.NoError(t, err)
	assert.Equal(t, []string{
		"/sys/fs/cgroup/cpu/rig/cgroup.procs",
		"/sys/fs/cgroup/memory/rig/cgroup.procs",
	}, procs)
}

func TestTryApply_Unavailable(t *testing.T) {
	transportErr := domain.NewTransportError(errors.New("connection reset"))

	tests := []struct {
		name    string
		cgroup  string
		replies []reply
	}{
		{
			name:   "invalid name",
			cgroup: "../escape",
		},
		{
			name:    "apply transport failure",
			cgroup:  "rig",
			replies: []reply{{err: transportErr}},
		},
		{
			name:   "verify command failure",
			cgroup: "rig",
			replies: []reply{
				{res: &domain.ExecResult{}},
				{err: &domain.CommandError{Label: "isolation:verify", Result: &domain.ExecResult{ExitCode: domain.ExitCode(1)}}},
			},
		},
		{
			name:   "group missing after apply",
			cgroup: "rig",
			replies: []reply{
				{res: &domain.ExecResult{}},
				{res: &domain.ExecResult{Stdout: "\n"}},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := &scriptedRunner{replies: tt.replies}

			procs, err := isolation.TryApply(t.Context(), r, tt.cgroup, domain.CompileProfile(1, 512))
			require.ErrorIs(t, err, domain.ErrIsolationUnavailable)
			assert.Nil(t, procs)
		})
	}
}
