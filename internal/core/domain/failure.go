package domain

import (
	"fmt"
	"strings"
)

// CycleError reports the tasks that never became ready.
type CycleError struct {
	Remaining []string
}

func (e *CycleError) Error() string {
	return fmt.Sprintf("%s: %s", ErrCycleDetected.Error(), strings.Join(e.Remaining, ", "))
}

// Unwrap returns ErrCycleDetected so callers can match with errors.Is.
func (e *CycleError) Unwrap() error {
	return ErrCycleDetected
}

// CommandError reports a command that ran to completion with a non-zero exit code.
// It carries the captured output for diagnosis.
type CommandError struct {
	Label  string
	Result *ExecResult
}

func (e *CommandError) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s: %s exited with code %d", ErrCommandFailed.Error(), e.Label, e.Result.Code())
	if out := strings.TrimRight(e.Result.Stdout, "\n"); out != "" {
		b.WriteString("\nstdout:\n")
		b.WriteString(out)
	}
	if out := strings.TrimRight(e.Result.Stderr, "\n"); out != "" {
		b.WriteString("\nstderr:\n")
		b.WriteString(out)
	}
	return b.String()
}

// Unwrap returns ErrCommandFailed so callers can match with errors.Is.
func (e *CommandError) Unwrap() error {
	return ErrCommandFailed
}

// TransportError marks a connection or protocol failure.
// It matches both ErrTransport and its cause with errors.Is.
type TransportError struct {
	Cause error
}

// NewTransportError wraps cause as a transport failure. It returns nil for a nil cause.
func NewTransportError(cause error) error {
	if cause == nil {
		return nil
	}
	return &TransportError{Cause: cause}
}

func (e *TransportError) Error() string {
	return ErrTransport.Error() + ": " + e.Cause.Error()
}

// Unwrap exposes both the sentinel and the underlying cause.
func (e *TransportError) Unwrap() []error {
	return []error{ErrTransport, e.Cause}
}
