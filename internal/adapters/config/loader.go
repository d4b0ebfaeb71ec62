// Package config loads rig.yaml provisioning plans.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"go.trai.ch/rig/internal/core/domain"
	"go.trai.ch/rig/internal/core/ports"
	"go.trai.ch/zerr"
	"gopkg.in/yaml.v3"
)

// SupportedVersion is the plan file version this loader understands.
const SupportedVersion = "1"

var validNameRegex = regexp.MustCompile(`^[A-Za-z0-9][A-Za-z0-9._-]*$`)

// Loader implements ports.PlanLoader using a YAML file.
type Loader struct {
	Logger ports.Logger
}

// NewLoader creates a new Loader with the given logger.
func NewLoader(logger ports.Logger) *Loader {
	return &Loader{Logger: logger}
}

// Load reads the plan at path and converts it to a domain.Plan.
// Task dependencies are not checked here: the scheduler reports them when it stalls.
func (l *Loader) Load(path string) (*domain.Plan, error) {
	var file Planfile
	if err := readAndUnmarshalYAML(path, &file); err != nil {
		return nil, err
	}

	if file.Version != "" && file.Version != SupportedVersion {
		l.Logger.Warn(fmt.Sprintf("plan version %q is not %q, loading anyway", file.Version, SupportedVersion))
	}

	target, err := buildTarget(file.Target)
	if err != nil {
		return nil, err
	}

	resources, err := buildResources(file.Resources)
	if err != nil {
		return nil, err
	}

	execd, err := buildExecd(file.Execd)
	if err != nil {
		return nil, err
	}

	tasks := make([]domain.TaskSpec, 0, len(file.Tasks))
	for _, entry := range file.Tasks {
		task, err := buildTask(entry, execd.Enabled)
		if err != nil {
			return nil, err
		}
		tasks = append(tasks, task)
	}

	return &domain.Plan{
		Target:    target,
		Env:       file.Env,
		Resources: resources,
		Execd:     execd,
		Tasks:     tasks,
	}, nil
}

func buildTarget(dto TargetDTO) (domain.TargetSpec, error) {
	spec := domain.TargetSpec{
		Kind:           domain.TargetKind(strings.ToLower(dto.Kind)),
		Host:           dto.Host,
		Port:           dto.Port,
		User:           dto.User,
		IdentityFile:   expandHome(dto.IdentityFile),
		KnownHostsFile: expandHome(dto.KnownHostsFile),
	}

	switch spec.Kind {
	case "", domain.TargetLocal:
		spec.Kind = domain.TargetLocal
	case domain.TargetSSH:
		if spec.Host == "" {
			return spec, domain.ErrMissingTargetHost
		}
		if spec.Port == 0 {
			spec.Port = domain.DefaultSSHPort
		}
	default:
		return spec, zerr.With(zerr.Wrap(domain.ErrUnknownTargetKind, "invalid target"), "kind", dto.Kind)
	}

	timeout, err := parseDuration("target.dialTimeout", dto.DialTimeout, domain.DefaultDialTimeout)
	if err != nil {
		return spec, err
	}
	spec.DialTimeout = timeout
	return spec, nil
}

func buildResources(dto ResourcesDTO) (domain.ResourceSpec, error) {
	if dto.Cgroup != "" && !validNameRegex.MatchString(dto.Cgroup) {
		return domain.ResourceSpec{}, zerr.With(zerr.Wrap(domain.ErrInvalidTaskName, "invalid cgroup name"), "cgroup", dto.Cgroup)
	}
	return domain.ResourceSpec{
		VCPUs:     dto.VCPUs,
		MemoryMiB: dto.MemoryMiB,
		Cgroup:    dto.Cgroup,
	}, nil
}

func buildExecd(dto ExecdDTO) (domain.ExecdSpec, error) {
	spec := domain.ExecdSpec{
		Enabled:       dto.Enabled,
		Port:          dto.Port,
		RemoteDir:     dto.RemoteDir,
		ReadyAttempts: dto.ReadyAttempts,
		DependsOn:     dto.DependsOn,
	}
	if spec.Port == 0 {
		spec.Port = domain.DefaultExecdPort
	}
	if spec.RemoteDir == "" {
		spec.RemoteDir = domain.DefaultExecdRemoteDir
	}
	if spec.ReadyAttempts <= 0 {
		spec.ReadyAttempts = domain.DefaultExecdReadyAttempts
	}

	var err error
	if spec.ReadyDelay, err = parseDuration("execd.readyDelay", dto.ReadyDelay, domain.DefaultExecdReadyDelay); err != nil {
		return spec, err
	}
	if spec.IdleTimeout, err = parseDuration("execd.idleTimeout", dto.IdleTimeout, domain.DefaultExecdIdleTimeout); err != nil {
		return spec, err
	}
	return spec, nil
}

func buildTask(entry TaskEntry, execdEnabled bool) (domain.TaskSpec, error) {
	if err := validateTaskName(entry.Name, execdEnabled); err != nil {
		return domain.TaskSpec{}, err
	}

	dto := entry.Task
	var cmd domain.Command
	switch {
	case dto.Run != "" && len(dto.Argv) == 0:
		cmd = domain.Shell(dto.Run)
	case dto.Run == "" && len(dto.Argv) > 0:
		cmd = domain.Args(dto.Argv...)
	default:
		return domain.TaskSpec{}, annotate(domain.ErrInvalidTaskCommand, "task_name", entry.Name)
	}

	timeout, err := parseDuration("tasks."+entry.Name+".timeout", dto.Timeout, 0)
	if err != nil {
		return domain.TaskSpec{}, err
	}

	return domain.TaskSpec{
		Name:        entry.Name,
		Description: dto.Description,
		Command:     cmd,
		DependsOn:   dto.DependsOn,
		Timeout:     timeout,
	}, nil
}

// validateTaskName checks if the task name is reserved or contains invalid characters.
func validateTaskName(name string, execdEnabled bool) error {
	if execdEnabled && name == domain.ExecdTaskName {
		return annotate(domain.ErrReservedTaskName, "task_name", name)
	}
	if !validNameRegex.MatchString(name) {
		return annotate(domain.ErrInvalidTaskName, "task_name", name)
	}
	return nil
}

func parseDuration(field, value string, fallback time.Duration) (time.Duration, error) {
	if value == "" {
		return fallback, nil
	}
	d, err := time.ParseDuration(value)
	if err != nil || d < 0 {
		return 0, zerr.With(annotate(domain.ErrInvalidDuration, "field", field), "value", value)
	}
	return d, nil
}

// annotate attaches metadata without hiding the sentinel from errors.Is.
func annotate(sentinel error, key string, value any) error {
	return zerr.With(zerr.Wrap(sentinel, ""), key, value)
}

func expandHome(path string) string {
	rest, ok := strings.CutPrefix(path, "~/")
	if !ok {
		return path
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return path
	}
	return filepath.Join(home, rest)
}

// readAndUnmarshalYAML reads a YAML file and unmarshals it into the target struct.
func readAndUnmarshalYAML[T any](path string, target *T) error {
	// #nosec G304 -- the plan path is chosen by the user
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return zerr.With(zerr.Wrap(domain.ErrConfigNotFound, "cannot load plan"), "path", path)
	}
	if err != nil {
		return zerr.With(fmt.Errorf("%w: %w", domain.ErrConfigReadFailed, err), "path", path)
	}

	if err := yaml.Unmarshal(data, target); err != nil {
		return zerr.With(fmt.Errorf("%w: %w", domain.ErrConfigParseFailed, err), "path", path)
	}
	return nil
}
