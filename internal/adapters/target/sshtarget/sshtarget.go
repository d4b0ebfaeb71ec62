// Package sshtarget runs provisioning commands on a host reached over SSH.
package sshtarget

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"os"
	"os/user"
	"strconv"
	"time"

	"go.trai.ch/rig/internal/core/domain"
	"go.trai.ch/rig/internal/shellquote"
	"go.trai.ch/zerr"
	"golang.org/x/crypto/ssh"
	"golang.org/x/crypto/ssh/agent"
	"golang.org/x/crypto/ssh/knownhosts"
)

// Target implements ports.RemoteTarget over a single SSH connection.
// Each command runs in its own session so tasks in one wave can share the connection.
type Target struct {
	client *ssh.Client
	agent  io.Closer
	host   string
}

// Dial connects to the host described by spec.
func Dial(ctx context.Context, spec domain.TargetSpec) (*Target, error) {
	cfg, agentConn, err := clientConfig(spec)
	if err != nil {
		return nil, dialFailed(err, spec)
	}
	fail := func(err error) (*Target, error) {
		if agentConn != nil {
			_ = agentConn.Close()
		}
		return nil, dialFailed(err, spec)
	}

	port := spec.Port
	if port == 0 {
		port = domain.DefaultSSHPort
	}
	addr := net.JoinHostPort(spec.Host, strconv.Itoa(port))

	dialer := net.Dialer{Timeout: spec.DialTimeout}
	conn, err := dialer.DialContext(ctx, "tcp", addr)
	if err != nil {
		return fail(err)
	}

	if spec.DialTimeout > 0 {
		_ = conn.SetDeadline(time.Now().Add(spec.DialTimeout))
	}
	c, chans, reqs, err := ssh.NewClientConn(conn, addr, cfg)
	if err != nil {
		_ = conn.Close()
		return fail(err)
	}
	_ = conn.SetDeadline(time.Time{})

	return &Target{client: ssh.NewClient(c, chans, reqs), agent: agentConn, host: spec.Host}, nil
}

// clientConfig also returns the agent connection backing the auth methods, if any.
// It stays open for the life of the client and belongs to the caller.
func clientConfig(spec domain.TargetSpec) (*ssh.ClientConfig, net.Conn, error) {
	name := spec.User
	if name == "" {
		if u, err := user.Current(); err == nil {
			name = u.Username
		}
	}

	hostKeys := ssh.InsecureIgnoreHostKey()
	if spec.KnownHostsFile != "" {
		cb, err := knownhosts.New(spec.KnownHostsFile)
		if err != nil {
			return nil, nil, err
		}
		hostKeys = cb
	}

	var methods []ssh.AuthMethod
	if spec.IdentityFile != "" {
		// #nosec G304 -- the identity file is chosen by the user
		pem, err := os.ReadFile(spec.IdentityFile)
		if err != nil {
			return nil, nil, err
		}
		signer, err := ssh.ParsePrivateKey(pem)
		if err != nil {
			return nil, nil, err
		}
		methods = append(methods, ssh.PublicKeys(signer))
	}
	var agentConn net.Conn
	if sock := os.Getenv("SSH_AUTH_SOCK"); sock != "" {
		if conn, err := net.Dial("unix", sock); err == nil {
			agentConn = conn
			methods = append(methods, ssh.PublicKeysCallback(agent.NewClient(conn).Signers))
		}
	}

	return &ssh.ClientConfig{
		User:            name,
		Auth:            methods,
		HostKeyCallback: hostKeys,
		Timeout:         spec.DialTimeout,
	}, agentConn, nil
}

// Exec joins argv into a shell line and runs it in a new session.
// A timeout kills the remote command and reports the timeout exit code.
func (t *Target) Exec(ctx context.Context, argv []string, timeout time.Duration) (*domain.ExecResult, error) {
	line, err := shellquote.Join(argv)
	if err != nil {
		return nil, domain.NewTransportError(err)
	}

	session, err := t.client.NewSession()
	if err != nil {
		return nil, domain.NewTransportError(err)
	}
	defer func() { _ = session.Close() }()

	var stdout, stderr bytes.Buffer
	session.Stdout = &stdout
	session.Stderr = &stderr

	if err := session.Start(line); err != nil {
		return nil, domain.NewTransportError(err)
	}

	done := make(chan error, 1)
	go func() { done <- session.Wait() }()

	var expired <-chan time.Time
	if timeout > 0 {
		timer := time.NewTimer(timeout)
		defer timer.Stop()
		expired = timer.C
	}

	select {
	case err = <-done:
	case <-expired:
		_ = session.Signal(ssh.SIGKILL)
		_ = session.Close()
		<-done
		return &domain.ExecResult{
			ExitCode: domain.ExitCode(domain.ExecdTimeoutExitCode),
			Stdout:   stdout.String(),
			Stderr:   stderr.String() + fmt.Sprintf("command timed out after %s\n", timeout),
		}, nil
	case <-ctx.Done():
		_ = session.Signal(ssh.SIGKILL)
		_ = session.Close()
		<-done
		return nil, ctx.Err()
	}

	result := &domain.ExecResult{Stdout: stdout.String(), Stderr: stderr.String()}
	var exitErr *ssh.ExitError
	switch {
	case err == nil:
		result.ExitCode = domain.ExitCode(0)
	case errors.As(err, &exitErr):
		result.ExitCode = domain.ExitCode(exitErr.ExitStatus())
	default:
		return nil, domain.NewTransportError(err)
	}
	return result, nil
}

// Upload streams localPath into remotePath through cat on the target.
func (t *Target) Upload(ctx context.Context, localPath, remotePath string) error {
	// #nosec G304 -- the source is rig's own executable or a plan-provided file
	src, err := os.Open(localPath)
	if err != nil {
		return uploadFailed(err, localPath, remotePath)
	}
	defer func() { _ = src.Close() }()

	session, err := t.client.NewSession()
	if err != nil {
		return uploadFailed(domain.NewTransportError(err), localPath, remotePath)
	}
	defer func() { _ = session.Close() }()

	var stderr bytes.Buffer
	session.Stdin = src
	session.Stderr = &stderr

	done := make(chan error, 1)
	go func() { done <- session.Run("cat > " + shellquote.MustQuote(remotePath)) }()

	select {
	case err = <-done:
	case <-ctx.Done():
		_ = session.Close()
		<-done
		return ctx.Err()
	}

	var exitErr *ssh.ExitError
	switch {
	case err == nil:
		return nil
	case errors.As(err, &exitErr):
		return zerr.With(uploadFailed(err, localPath, remotePath), "stderr", stderr.String())
	default:
		return uploadFailed(domain.NewTransportError(err), localPath, remotePath)
	}
}

// Host returns the host name or address from the plan.
func (t *Target) Host() string {
	return t.host
}

// Close closes the SSH connection and the agent connection used to authenticate it.
func (t *Target) Close() error {
	err := t.client.Close()
	if t.agent != nil {
		err = errors.Join(err, t.agent.Close())
	}
	return err
}

func dialFailed(err error, spec domain.TargetSpec) error {
	wrapped := zerr.Wrap(fmt.Errorf("%w: %w", domain.ErrTargetDialFailed, err), "")
	return zerr.With(zerr.With(wrapped, "host", spec.Host), "port", spec.Port)
}

func uploadFailed(err error, localPath, remotePath string) error {
	wrapped := zerr.Wrap(fmt.Errorf("%w: %w", domain.ErrUploadFailed, err), "")
	return zerr.With(zerr.With(wrapped, "source", localPath), "destination", remotePath)
}
