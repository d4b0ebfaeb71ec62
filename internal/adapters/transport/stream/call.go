package stream

import (
	"fmt"
	"strings"

	"go.trai.ch/rig/internal/adapters/logsink"
	"go.trai.ch/rig/internal/core/domain"
	"go.trai.ch/rig/internal/core/ports"
)

// State is the progress of one streamed command.
type State int

const (
	// AwaitingExit means events are still being consumed.
	AwaitingExit State = iota
	// Exited means the exit event was received. Later events are ignored.
	Exited
)

// call accumulates the events of one command.
type call struct {
	label  string
	logger ports.Logger
	state  State

	stdout, stderr strings.Builder
	outLog, errLog *logsink.Writer
	code           *int
}

func newCall(label string, logger ports.Logger) *call {
	return &call{
		label:  label,
		logger: logger,
		outLog: logsink.New(logger, label, logsink.Stdout),
		errLog: logsink.New(logger, label, logsink.Stderr),
	}
}

// State returns the current state.
func (c *call) State() State {
	return c.state
}

// Handle applies one line of the stream.
func (c *call) Handle(line []byte) {
	if c.state == Exited {
		return
	}

	ev, err := ParseEvent(line)
	if err != nil {
		c.diagnose(fmt.Sprintf("invalid event: %s", strings.TrimSpace(string(line))))
		return
	}

	switch ev.Type {
	case EventStdout:
		c.stdout.WriteString(ev.Data)
		_, _ = c.outLog.WriteString(ev.Data)
	case EventStderr:
		c.stderr.WriteString(ev.Data)
		_, _ = c.errLog.WriteString(ev.Data)
	case EventError:
		c.diagnose(ev.Message)
	case EventExit:
		c.code = domain.ExitCode(ev.ExitCode())
		c.state = Exited
	default:
		c.diagnose(fmt.Sprintf("unknown event type %q", ev.Type))
	}
}

// Result flushes pending output and returns the accumulated result.
// A stream that ended without an exit event is assumed to have succeeded.
func (c *call) Result() *domain.ExecResult {
	c.close()
	if c.code == nil {
		c.logger.Warn(fmt.Sprintf("[%s] exec service sent no exit event, assuming success", c.label))
		c.code = domain.ExitCode(0)
		c.state = Exited
	}
	return &domain.ExecResult{
		ExitCode: c.code,
		Stdout:   c.stdout.String(),
		Stderr:   c.stderr.String(),
	}
}

func (c *call) close() {
	_ = c.outLog.Close()
	_ = c.errLog.Close()
}

func (c *call) diagnose(msg string) {
	if !strings.HasSuffix(msg, "\n") {
		msg += "\n"
	}
	c.stderr.WriteString(msg)
	_ = c.errLog.Close()
	_, _ = c.errLog.WriteString(msg)
}
