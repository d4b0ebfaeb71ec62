package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path"
	"time"

	"github.com/cespare/xxhash/v2"
	"go.trai.ch/rig/internal/adapters/transport/direct"
	"go.trai.ch/rig/internal/adapters/transport/stream"
	"go.trai.ch/rig/internal/core/domain"
	"go.trai.ch/rig/internal/core/ports"
	"go.trai.ch/rig/internal/engine/execctx"
	"go.trai.ch/rig/internal/engine/retry"
	"go.trai.ch/rig/internal/shellquote"
	"go.trai.ch/zerr"
)

// deployStepTimeout bounds the probe, chmod and start commands.
const deployStepTimeout = time.Minute

// Deployer installs the exec service on the target and switches the execution
// context over to it.
type Deployer struct {
	spec       domain.ExecdSpec
	logger     ports.Logger
	executable func() (string, error)
	remote     ports.RemoteTarget
	httpOpts   []stream.Option
}

// NewDeployer creates a Deployer. Attach must be called before the handler runs.
func NewDeployer(spec domain.ExecdSpec, logger ports.Logger, executable func() (string, error)) *Deployer {
	return &Deployer{spec: spec, logger: logger, executable: executable}
}

// Attach sets the target the binary is uploaded to.
func (d *Deployer) Attach(remote ports.RemoteTarget) {
	d.remote = remote
}

// WithClientOptions configures the streaming client installed after deployment.
func (d *Deployer) WithClientOptions(opts ...stream.Option) *Deployer {
	d.httpOpts = append(d.httpOpts, opts...)
	return d
}

// RemotePath returns where a binary with the given fingerprint is installed.
func (d *Deployer) RemotePath(fingerprint string) string {
	return path.Join(d.spec.RemoteDir, domain.ExecdBinaryPrefix+fingerprint)
}

// Handle is the scheduler handler for the deploy task.
func (d *Deployer) Handle(ctx context.Context, ec *execctx.Context) error {
	if d.remote == nil {
		return zerr.New("exec service deployer has no target")
	}

	local, err := d.executable()
	if err != nil {
		return zerr.Wrap(err, "failed to locate rig executable")
	}
	fp, err := Fingerprint(local)
	if err != nil {
		return err
	}
	remotePath := d.RemotePath(fp)

	installed, err := d.installed(ctx, ec, remotePath)
	if err != nil {
		return err
	}
	if installed {
		d.logger.Info(fmt.Sprintf("exec service %s already installed", fp))
	} else {
		if err := d.upload(ctx, local, remotePath); err != nil {
			return err
		}
		chmod := domain.Args("chmod", fmt.Sprintf("%o", domain.ExecPerm), remotePath)
		if _, err := ec.Run(ctx, "execd:chmod", chmod, deployStepTimeout); err != nil {
			return err
		}
	}

	if _, err := ec.Run(ctx, "execd:start", d.StartCommand(remotePath), deployStepTimeout); err != nil {
		return err
	}

	client := stream.NewClient(stream.BaseURL(d.remote.Host(), d.spec.Port), d.logger, d.httpOpts...)
	if err := client.WaitReady(ctx, d.spec.ReadyAttempts, d.spec.ReadyDelay); err != nil {
		return err
	}
	if err := ec.UseTransport(client); err != nil {
		return err
	}

	d.logger.Info(fmt.Sprintf("exec service ready on %s:%d", d.remote.Host(), d.spec.Port))
	return nil
}

// StartCommand returns the shell line that starts the service detached from the session.
func (d *Deployer) StartCommand(remotePath string) domain.Command {
	return domain.Shell(fmt.Sprintf("nohup %s execd --listen :%d --idle-timeout %s >%s 2>&1 </dev/null &",
		shellquote.MustQuote(remotePath),
		d.spec.Port,
		d.spec.IdleTimeout,
		shellquote.MustQuote(remotePath+".log"),
	))
}

func (d *Deployer) installed(ctx context.Context, ec *execctx.Context, remotePath string) (bool, error) {
	_, err := ec.Run(ctx, "execd:probe", domain.Args("test", "-x", remotePath), deployStepTimeout)
	switch {
	case err == nil:
		return true, nil
	case errors.Is(err, domain.ErrCommandFailed):
		return false, nil
	default:
		return false, err
	}
}

func (d *Deployer) upload(ctx context.Context, local, remotePath string) error {
	d.logger.Info(fmt.Sprintf("uploading exec service to %s", remotePath))
	policy := direct.DefaultPolicy()
	policy.OnRetry = func(attempt int, err error, delay time.Duration) {
		d.logger.Warn(fmt.Sprintf("upload attempt %d failed, retrying in %s: %v", attempt, delay, err))
	}
	_, err := retry.Do(ctx, policy, func(ctx context.Context, _ int) (struct{}, error) {
		return struct{}{}, d.remote.Upload(ctx, local, remotePath)
	})
	return err
}

// Fingerprint returns the xxhash of the file at path as 16 hex digits.
func Fingerprint(path string) (string, error) {
	// #nosec G304 -- path is rig's own executable
	f, err := os.Open(path)
	if err != nil {
		return "", zerr.With(zerr.Wrap(err, "failed to fingerprint executable"), "path", path)
	}
	defer func() { _ = f.Close() }()

	h := xxhash.New()
	if _, err := io.Copy(h, f); err != nil {
		return "", zerr.With(zerr.Wrap(err, "failed to fingerprint executable"), "path", path)
	}
	return fmt.Sprintf("%016x", h.Sum64()), nil
}
