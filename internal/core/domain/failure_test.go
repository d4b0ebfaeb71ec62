package domain_test

import (
	"errors"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.trai.ch/rig/internal/core/domain"
)

func TestCycleError(t *testing.T) {
	err := error(&domain.CycleError{Remaining: []string{"a", "b"}})

	require.ErrorIs(t, err, domain.ErrCycleDetected)
	assert.Equal(t, "dependency cycle detected: a, b", err.Error())
}

func TestCommandError(t *testing.T) {
	err := error(&domain.CommandError{
		Label: "install",
		Result: &domain.ExecResult{
			ExitCode: domain.ExitCode(2),
			Stdout:   "a\n",
			Stderr:   "boom\n",
		},
	})

	require.ErrorIs(t, err, domain.ErrCommandFailed)
	assert.Equal(t, "command failed: install exited with code 2\nstdout:\na\nstderr:\nboom", err.Error())

	var cmdErr *domain.CommandError
	require.ErrorAs(t, err, &cmdErr)
	assert.Equal(t, 2, cmdErr.Result.Code())
}

func TestTransportError(t *testing.T) {
	err := domain.NewTransportError(io.ErrUnexpectedEOF)

	require.ErrorIs(t, err, domain.ErrTransport)
	require.ErrorIs(t, err, io.ErrUnexpectedEOF)
	assert.Equal(t, "transport error: unexpected EOF", err.Error())
	assert.NoError(t, domain.NewTransportError(nil))
	assert.False(t, errors.Is(&domain.CycleError{}, domain.ErrTransport))
}

func TestExecResult_Code(t *testing.T) {
	var nilResult *domain.ExecResult
	assert.Equal(t, 0, nilResult.Code())
	assert.True(t, (&domain.ExecResult{}).Succeeded())
	assert.False(t, (&domain.ExecResult{ExitCode: domain.ExitCode(1)}).Succeeded())
}

func TestTimingLabels(t *testing.T) {
	assert.Equal(t, "task:base", domain.TaskLabel("base"))

	label := domain.WaveLabel([]string{"A", "B"})
	assert.Equal(t, "wave:A+B", label)
	assert.Equal(t, []string{"A", "B"}, domain.WaveMembers(label))
	assert.Nil(t, domain.WaveMembers("task:A"))
}
