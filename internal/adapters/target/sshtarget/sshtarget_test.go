package sshtarget_test

import (
	"context"
	"errors"
	"io"
	"net"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"testing"
	"time"

	charmssh "github.com/charmbracelet/ssh"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.trai.ch/rig/internal/adapters/target/sshtarget"
	"go.trai.ch/rig/internal/core/domain"
)

// startServer runs an in-process SSH server that executes each request with sh -c.
func startServer(t *testing.T) domain.TargetSpec {
	t.Helper()

	listener, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	srv := &charmssh.Server{Handler: shellHandler}
	go func() { _ = srv.Serve(listener) }()
	t.Cleanup(func() { _ = srv.Close() })

	addr := listener.Addr().(*net.TCPAddr)
	return domain.TargetSpec{
		Kind:        domain.TargetSSH,
		Host:        "127.0.0.1",
		Port:        addr.Port,
		User:        "rig",
		DialTimeout: 5 * time.Second,
	}
}

func shellHandler(s charmssh.Session) {
	cmd := exec.CommandContext(s.Context(), "sh", "-c", s.RawCommand())
	cmd.Stdin = s
	cmd.Stdout = s
	cmd.Stderr = s.Stderr()

	code := 0
	if err := cmd.Run(); err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			code = exitErr.ExitCode()
		} else {
			code = 255
		}
	}
	_ = s.Exit(code)
}

func dial(t *testing.T) *sshtarget.Target {
	t.Helper()
	target, err := sshtarget.Dial(context.Background(), startServer(t))
	require.NoError(t, err)
	t.Cleanup(func() { _ = target.Close() })
	return target
}

func TestTarget_Exec(t *testing.T) {
	target := dial(t)

	t.Run("quotes arguments", func(t *testing.T) {
		res, err := target.Exec(context.Background(), []string{"printf", "%s|%s", "a b", "it's"}, 0)
		require.NoError(t, err)
		assert.Equal(t, 0, res.Code())
		assert.Equal(t, "a b|it's", res.Stdout)
	})

	t.Run("non-zero exit is a result", func(t *testing.T) {
		res, err := target.Exec(context.Background(), []string{"sh", "-c", "echo boom >&2; exit 7"}, 0)
		require.NoError(t, err)
		assert.Equal(t, 7, res.Code())
		assert.Equal(t, "boom\n", res.Stderr)
	})

	t.Run("timeout", func(t *testing.T) {
		res, err := target.Exec(context.Background(), []string{"sleep", "5"}, 100*time.Millisecond)
		require.NoError(t, err)
		assert.Equal(t, domain.ExecdTimeoutExitCode, res.Code())
	})

	t.Run("sessions run concurrently", func(t *testing.T) {
		errs := make(chan error, 4)
		for i := range 4 {
			go func() {
				res, err := target.Exec(context.Background(), []string{"echo", strconv.Itoa(i)}, 0)
				if err == nil && res.Stdout != strconv.Itoa(i)+"\n" {
					err = errors.New("unexpected output " + res.Stdout)
				}
				errs <- err
			}()
		}
		for range 4 {
			require.NoError(t, <-errs)
		}
	})
}

func TestTarget_ExecAfterClose(t *testing.T) {
	target, err := sshtarget.Dial(context.Background(), startServer(t))
	require.NoError(t, err)
	require.NoError(t, target.Close())

	_, err = target.Exec(context.Background(), []string{"true"}, 0)
	require.ErrorIs(t, err, domain.ErrTransport)
}

func TestTarget_Upload(t *testing.T) {
	target := dial(t)

	dir := t.TempDir()
	src := filepath.Join(dir, "payload")
	require.NoError(t, os.WriteFile(src, []byte("binary\x00data"), domain.PrivateFilePerm))

	dst := filepath.Join(dir, "uploaded file")
	require.NoError(t, target.Upload(context.Background(), src, dst))

	data, err := os.ReadFile(dst)
	require.NoError(t, err)
	assert.Equal(t, "binary\x00data", string(data))

	err = target.Upload(context.Background(), src, filepath.Join(dir, "missing", "dir", "file"))
	require.ErrorIs(t, err, domain.ErrUploadFailed)
}

func TestTarget_Host(t *testing.T) {
	target := dial(t)
	assert.Equal(t, "127.0.0.1", target.Host())
}

func TestDial_Failures(t *testing.T) {
	t.Run("connection refused", func(t *testing.T) {
		listener, err := net.Listen("tcp", "127.0.0.1:0")
		require.NoError(t, err)
		port := listener.Addr().(*net.TCPAddr).Port
		require.NoError(t, listener.Close())

		_, err = sshtarget.Dial(context.Background(), domain.TargetSpec{
			Kind:        domain.TargetSSH,
			Host:        "127.0.0.1",
			Port:        port,
			DialTimeout: time.Second,
		})
		require.ErrorIs(t, err, domain.ErrTargetDialFailed)
	})

	t.Run("unknown host key", func(t *testing.T) {
		spec := startServer(t)
		spec.KnownHostsFile = filepath.Join(t.TempDir(), "known_hosts")
		require.NoError(t, os.WriteFile(spec.KnownHostsFile, nil, domain.PrivateFilePerm))

		_, err := sshtarget.Dial(context.Background(), spec)
		require.ErrorIs(t, err, domain.ErrTargetDialFailed)
	})

	t.Run("unreadable identity", func(t *testing.T) {
		spec := startServer(t)
		spec.IdentityFile = filepath.Join(t.TempDir(), "id_missing")

		_, err := sshtarget.Dial(context.Background(), spec)
		require.ErrorIs(t, err, domain.ErrTargetDialFailed)
	})
}

// fakeAgent points SSH_AUTH_SOCK at a socket that reports each connection the client hangs up.
func fakeAgent(t *testing.T) <-chan struct{} {
	t.Helper()

	sock := filepath.Join(t.TempDir(), "agent.sock")
	listener, err := net.Listen("unix", sock)
	require.NoError(t, err)
	t.Cleanup(func() { _ = listener.Close() })
	t.Setenv("SSH_AUTH_SOCK", sock)

	hungUp := make(chan struct{}, 8)
	go func() {
		for {
			conn, err := listener.Accept()
			if err != nil {
				return
			}
			go func() {
				_, _ = io.Copy(io.Discard, conn)
				_ = conn.Close()
				hungUp <- struct{}{}
			}()
		}
	}()
	return hungUp
}

func TestTarget_CloseReleasesAgentConnection(t *testing.T) {
	hungUp := fakeAgent(t)

	target, err := sshtarget.Dial(context.Background(), startServer(t))
	require.NoError(t, err)

	select {
	case <-hungUp:
		t.Fatal("agent connection closed while the target is open")
	case <-time.After(50 * time.Millisecond):
	}

	require.NoError(t, target.Close())
	select {
	case <-hungUp:
	case <-time.After(5 * time.Second):
		t.Fatal("agent connection left open after Close")
	}
}

func TestDial_FailureReleasesAgentConnection(t *testing.T) {
	hungUp := fakeAgent(t)

	listener, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	port := listener.Addr().(*net.TCPAddr).Port
	require.NoError(t, listener.Close())

	_, err = sshtarget.Dial(context.Background(), domain.TargetSpec{
		Kind:        domain.TargetSSH,
		Host:        "127.0.0.1",
		Port:        port,
		DialTimeout: time.Second,
	})
	require.ErrorIs(t, err, domain.ErrTargetDialFailed)

	select {
	case <-hungUp:
	case <-time.After(5 * time.Second):
		t.Fatal("agent connection left open after a failed dial")
	}
}
