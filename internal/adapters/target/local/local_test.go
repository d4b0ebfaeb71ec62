package local_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.trai.ch/rig/internal/adapters/target/local"
	"go.trai.ch/rig/internal/core/domain"
)

func TestTarget_Exec(t *testing.T) {
	target := local.New()

	t.Run("captures output and exit code", func(t *testing.T) {
		res, err := target.Exec(context.Background(), []string{"sh", "-c", "echo out; echo err >&2; exit 3"}, 0)
		require.NoError(t, err)
		assert.Equal(t, 3, res.Code())
		assert.Equal(t, "out\n", res.Stdout)
		assert.Equal(t, "err\n", res.Stderr)
	})

	t.Run("success", func(t *testing.T) {
		res, err := target.Exec(context.Background(), []string{"true"}, 0)
		require.NoError(t, err)
		require.NotNil(t, res.ExitCode)
		assert.True(t, res.Succeeded())
	})

	t.Run("missing executable", func(t *testing.T) {
		res, err := target.Exec(context.Background(), []string{"rig-definitely-missing-binary"}, 0)
		require.NoError(t, err)
		assert.Equal(t, 127, res.Code())
		assert.NotEmpty(t, res.Stderr)
	})

	t.Run("timeout", func(t *testing.T) {
		res, err := target.Exec(context.Background(), []string{"sleep", "5"}, 50*time.Millisecond)
		require.NoError(t, err)
		assert.Equal(t, domain.ExecdTimeoutExitCode, res.Code())
		assert.Contains(t, res.Stderr, "timed out")
	})

	t.Run("canceled context", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		_, err := target.Exec(ctx, []string{"true"}, 0)
		require.ErrorIs(t, err, context.Canceled)
	})

	t.Run("empty argv is a transport error", func(t *testing.T) {
		_, err := target.Exec(context.Background(), nil, 0)
		require.ErrorIs(t, err, domain.ErrTransport)
	})

	t.Run("extra environment", func(t *testing.T) {
		withEnv := &local.Target{Env: []string{"RIG_LOCAL_TEST=yes"}}
		res, err := withEnv.Exec(context.Background(), []string{"sh", "-c", "printf %s \"$RIG_LOCAL_TEST\""}, 0)
		require.NoError(t, err)
		assert.Equal(t, "yes", res.Stdout)
	})
}

func TestTarget_Upload(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "src")
	require.NoError(t, os.WriteFile(src, []byte("#!/bin/sh\necho hi\n"), domain.PrivateFilePerm))

	dst := filepath.Join(dir, "nested", "bin", "tool")
	target := local.New()
	require.NoError(t, target.Upload(context.Background(), src, dst))

	data, err := os.ReadFile(dst)
	require.NoError(t, err)
	assert.Equal(t, "#!/bin/sh\necho hi\n", string(data))

	info, err := os.Stat(dst)
	require.NoError(t, err)
	assert.NotZero(t, info.Mode()&0o100, "uploaded file is executable")

	err = target.Upload(context.Background(), filepath.Join(dir, "missing"), dst)
	require.ErrorIs(t, err, domain.ErrUploadFailed)
}

func TestTarget_HostAndClose(t *testing.T) {
	target := local.New()
	assert.Equal(t, local.Host, target.Host())
	assert.NoError(t, target.Close())
}
