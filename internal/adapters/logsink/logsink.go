// Package logsink forwards command output to the logger one line at a time.
package logsink

import (
	"bytes"
	"strings"
	"sync"

	"go.trai.ch/rig/internal/core/ports"
)

// Stream identifies which output a Writer carries.
type Stream int

const (
	// Stdout lines are logged at info level.
	Stdout Stream = iota
	// Stderr lines are logged as warnings.
	Stderr
)

// Writer buffers partial lines and logs each complete one, prefixed with a label.
// Close flushes a trailing unterminated line.
type Writer struct {
	logger ports.Logger
	label  string
	stream Stream

	mu  sync.Mutex
	buf []byte
}

// New creates a Writer for the given stream.
func New(logger ports.Logger, label string, stream Stream) *Writer {
	return &Writer{logger: logger, label: label, stream: stream}
}

// Write never fails.
func (w *Writer) Write(p []byte) (int, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	w.buf = append(w.buf, p...)
	for {
		i := bytes.IndexByte(w.buf, '\n')
		if i < 0 {
			break
		}
		w.emit(w.buf[:i])
		w.buf = w.buf[i+1:]
	}
	return len(p), nil
}

// WriteString is Write for strings.
func (w *Writer) WriteString(s string) (int, error) {
	return w.Write([]byte(s))
}

// Close logs any buffered partial line.
func (w *Writer) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if len(w.buf) > 0 {
		w.emit(w.buf)
		w.buf = nil
	}
	return nil
}

func (w *Writer) emit(line []byte) {
	msg := strings.TrimSuffix(string(line), "\r")
	if w.label != "" {
		msg = "[" + w.label + "] " + msg
	}
	if w.stream == Stderr {
		w.logger.Warn(msg)
		return
	}
	w.logger.Info(msg)
}

// Replay logs already captured output, for transports that only see it at the end.
func Replay(logger ports.Logger, label, stdout, stderr string) {
	for _, s := range []struct {
		text   string
		stream Stream
	}{{stdout, Stdout}, {stderr, Stderr}} {
		if s.text == "" {
			continue
		}
		w := New(logger, label, s.stream)
		_, _ = w.WriteString(s.text)
		_ = w.Close()
	}
}
