// Package local runs provisioning commands on the machine running rig.
package local

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"time"

	"go.trai.ch/rig/internal/core/domain"
	"go.trai.ch/zerr"
)

// Host is the address services started by a local target are reachable at.
const Host = "127.0.0.1"

// exitCommandNotFound mirrors the shell's code for a missing executable.
const exitCommandNotFound = 127

// Target implements ports.RemoteTarget with os/exec.
type Target struct {
	// Env is appended to the process environment of every command.
	Env []string
}

// New creates a local target.
func New() *Target {
	return &Target{}
}

// Exec runs argv as a child process and captures its output.
func (t *Target) Exec(ctx context.Context, argv []string, timeout time.Duration) (*domain.ExecResult, error) {
	if len(argv) == 0 {
		return nil, domain.NewTransportError(errors.New("empty argument vector"))
	}

	runCtx := ctx
	if timeout > 0 {
		var cancel context.CancelFunc
		runCtx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	// #nosec G204 -- executing plan commands is the purpose of this target
	cmd := exec.CommandContext(runCtx, argv[0], argv[1:]...)
	if len(t.Env) > 0 {
		cmd.Env = append(os.Environ(), t.Env...)
	}
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	err := cmd.Run()
	result := &domain.ExecResult{Stdout: stdout.String(), Stderr: stderr.String()}

	if ctx.Err() != nil {
		return nil, ctx.Err()
	}
	if timeout > 0 && errors.Is(runCtx.Err(), context.DeadlineExceeded) {
		result.ExitCode = domain.ExitCode(domain.ExecdTimeoutExitCode)
		result.Stderr += fmt.Sprintf("command timed out after %s\n", timeout)
		return result, nil
	}

	var exitErr *exec.ExitError
	switch {
	case err == nil:
		result.ExitCode = domain.ExitCode(0)
	case errors.As(err, &exitErr):
		result.ExitCode = domain.ExitCode(exitErr.ExitCode())
	case errors.Is(err, exec.ErrNotFound):
		result.ExitCode = domain.ExitCode(exitCommandNotFound)
		result.Stderr += err.Error() + "\n"
	default:
		return nil, domain.NewTransportError(err)
	}
	return result, nil
}

// Upload copies localPath to remotePath, creating parent directories.
func (t *Target) Upload(ctx context.Context, localPath, remotePath string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	// #nosec G304 -- the source is rig's own executable or a plan-provided file
	src, err := os.Open(localPath)
	if err != nil {
		return uploadFailed(err, localPath, remotePath)
	}
	defer func() { _ = src.Close() }()

	if err := os.MkdirAll(filepath.Dir(remotePath), domain.DirPerm); err != nil {
		return uploadFailed(err, localPath, remotePath)
	}

	// #nosec G302 G304 -- uploaded binaries must stay executable
	dst, err := os.OpenFile(remotePath, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, domain.ExecPerm)
	if err != nil {
		return uploadFailed(err, localPath, remotePath)
	}
	if _, err := io.Copy(dst, src); err != nil {
		_ = dst.Close()
		return uploadFailed(err, localPath, remotePath)
	}
	if err := dst.Close(); err != nil {
		return uploadFailed(err, localPath, remotePath)
	}
	return nil
}

// Host returns the loopback address.
func (t *Target) Host() string {
	return Host
}

// Close is a no-op for local targets.
func (t *Target) Close() error {
	return nil
}

func uploadFailed(err error, localPath, remotePath string) error {
	wrapped := zerr.Wrap(fmt.Errorf("%w: %w", domain.ErrUploadFailed, err), "")
	return zerr.With(zerr.With(wrapped, "source", localPath), "destination", remotePath)
}
