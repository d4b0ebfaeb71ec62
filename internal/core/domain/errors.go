package domain

import "go.trai.ch/zerr"

var (
	// ErrTaskAlreadyExists is returned when registering a task whose name is already taken.
	ErrTaskAlreadyExists = zerr.New("task already exists")

	// ErrCycleDetected is returned when scheduling stalls with tasks remaining.
	ErrCycleDetected = zerr.New("dependency cycle detected")

	// ErrTransport is returned for connection or protocol failures talking to the target.
	ErrTransport = zerr.New("transport error")

	// ErrCommandFailed is returned when a remote command exits with a non-zero code.
	ErrCommandFailed = zerr.New("command failed")

	// ErrExecdNotReady is returned when the exec service never answers its health check.
	ErrExecdNotReady = zerr.New("exec service did not become ready")

	// ErrTransportInstalled is returned when a streaming transport is installed twice.
	ErrTransportInstalled = zerr.New("streaming transport already installed")

	// ErrIsolationUnavailable is returned when cgroup limits could not be applied or verified.
	ErrIsolationUnavailable = zerr.New("resource isolation unavailable")

	// ErrUploadFailed is returned when a file could not be copied to the target.
	ErrUploadFailed = zerr.New("failed to upload file")

	// ErrTargetDialFailed is returned when the target connection cannot be established.
	ErrTargetDialFailed = zerr.New("failed to connect to target")

	// ErrUnknownTargetKind is returned when the plan names an unsupported target kind.
	ErrUnknownTargetKind = zerr.New("unknown target kind, expected 'ssh' or 'local'")

	// ErrMissingTargetHost is returned when an ssh target has no host.
	ErrMissingTargetHost = zerr.New("ssh target requires a host")

	// ErrConfigNotFound is returned when the plan file does not exist.
	ErrConfigNotFound = zerr.New("could not find plan file")

	// ErrConfigReadFailed is returned when the plan file cannot be read.
	ErrConfigReadFailed = zerr.New("failed to read plan file")

	// ErrConfigParseFailed is returned when the plan file cannot be parsed.
	ErrConfigParseFailed = zerr.New("failed to parse plan file")

	// ErrInvalidTaskName is returned when a task name contains invalid characters.
	ErrInvalidTaskName = zerr.New("invalid task name")

	// ErrReservedTaskName is returned when a task uses the name of the exec service deploy task.
	ErrReservedTaskName = zerr.New("task name 'execd' is reserved")

	// ErrInvalidTaskCommand is returned when a task sets both or neither of run and argv.
	ErrInvalidTaskCommand = zerr.New("task must set exactly one of 'run' or 'argv'")

	// ErrInvalidDuration is returned when a duration field cannot be parsed.
	ErrInvalidDuration = zerr.New("invalid duration")

	// ErrInvalidExecRequest is returned by the exec service for malformed requests.
	ErrInvalidExecRequest = zerr.New("invalid exec request")

	// ErrRunFailed is returned when the provisioning run fails.
	ErrRunFailed = zerr.New("provisioning run failed")
)

var (
	// ErrTaskExecutionFailed is returned when a task handler fails.
	ErrTaskExecutionFailed = zerr.New("task execution failed")

	// ErrMissingTaskHandler is returned when registering a task without a handler.
	ErrMissingTaskHandler = zerr.New("task has no handler")
)
