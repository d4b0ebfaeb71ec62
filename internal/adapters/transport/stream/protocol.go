package stream

import (
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/goccy/go-json"
)

// Endpoints served by the exec service.
const (
	HealthPath = "/healthz"
	ExecPath   = "/exec"
)

// ContentType is the media type of the event stream.
const ContentType = "application/x-ndjson"

// Event types carried on the stream.
const (
	EventStdout = "stdout"
	EventStderr = "stderr"
	EventExit   = "exit"
	EventError  = "error"
)

// defaultExitCode is used when an exit event carries no usable code.
const defaultExitCode = 1

// Request is the body of POST /exec.
type Request struct {
	Command   string `json:"command"`
	TimeoutMS *int64 `json:"timeout_ms,omitempty"`
}

// Event is one line of the response stream.
type Event struct {
	Type    string `json:"type"`
	Data    string `json:"data,omitempty"`
	Code    any    `json:"code,omitempty"`
	Message string `json:"message,omitempty"`
}

// StdoutEvent returns a stdout event.
func StdoutEvent(data string) Event { return Event{Type: EventStdout, Data: data} }

// StderrEvent returns a stderr event.
func StderrEvent(data string) Event { return Event{Type: EventStderr, Data: data} }

// ExitEvent returns an exit event.
func ExitEvent(code int) Event { return Event{Type: EventExit, Code: code} }

// ErrorEvent returns an error event.
func ErrorEvent(message string) Event { return Event{Type: EventError, Message: message} }

// Marshal encodes e as one newline-terminated line carrying only the fields its type uses.
func (e Event) Marshal() ([]byte, error) {
	var v any
	switch e.Type {
	case EventExit:
		v = struct {
			Type string `json:"type"`
			Code int    `json:"code"`
		}{e.Type, e.ExitCode()}
	case EventError:
		v = struct {
			Type    string `json:"type"`
			Message string `json:"message"`
		}{e.Type, e.Message}
	default:
		v = struct {
			Type string `json:"type"`
			Data string `json:"data"`
		}{e.Type, e.Data}
	}
	b, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	return append(b, '\n'), nil
}

// ExitCode coerces the code field to an integer, falling back to 1.
func (e Event) ExitCode() int {
	switch v := e.Code.(type) {
	case float64:
		// -MinInt is exact in float64; MaxInt is not.
		if math.IsNaN(v) || v < math.MinInt || v >= -float64(math.MinInt) {
			return defaultExitCode
		}
		return int(v)
	case int:
		return v
	case int64:
		if v >= math.MinInt && v <= math.MaxInt {
			return int(v)
		}
	case json.Number:
		if n, err := strconv.Atoi(v.String()); err == nil {
			return n
		}
	case string:
		if n, err := strconv.Atoi(strings.TrimSpace(v)); err == nil {
			return n
		}
	}
	return defaultExitCode
}

// ParseEvent decodes one line of the stream.
func ParseEvent(line []byte) (Event, error) {
	var e Event
	err := json.Unmarshal(line, &e)
	return e, err
}

// TimeoutMillis converts a timeout to the request field, rounding up to whole
// milliseconds. It returns nil when unbounded.
func TimeoutMillis(timeout time.Duration) *int64 {
	if timeout <= 0 {
		return nil
	}
	ms := int64((timeout + time.Millisecond - 1) / time.Millisecond)
	return &ms
}
