// Package execd implements the exec service rig deploys onto targets: it runs shell
// commands on request and streams their output back as newline-delimited JSON events.
package execd

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"os/exec"
	"sync"
	"time"

	"github.com/goccy/go-json"
	"go.trai.ch/rig/internal/adapters/transport/stream"
	"go.trai.ch/rig/internal/core/domain"
	"go.trai.ch/rig/internal/core/ports"
	"go.trai.ch/zerr"
)

const (
	// maxRequestBytes bounds the size of an exec request body.
	maxRequestBytes = 1 << 20
	// exitStartFailed is reported when the shell cannot be started.
	exitStartFailed = 127
	// shutdownGrace bounds waiting for in-flight requests on shutdown.
	shutdownGrace = 10 * time.Second
	// pipeGrace bounds waiting for output after the shell exits.
	pipeGrace = 2 * time.Second
)

// Health response headers describing the service lifecycle.
const (
	HeaderUptime        = "X-Rig-Uptime"
	HeaderLastActivity  = "X-Rig-Last-Activity"
	HeaderIdleRemaining = "X-Rig-Idle-Remaining"
)

// Server serves the exec service endpoints.
type Server struct {
	lifecycle *Lifecycle
	logger    ports.Logger
	shell     string
}

// NewServer creates a new exec service.
func NewServer(lifecycle *Lifecycle, logger ports.Logger) *Server {
	return &Server{lifecycle: lifecycle, logger: logger, shell: domain.ShellBinary}
}

// Handler returns the HTTP handler for the service endpoints.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc(stream.HealthPath, s.handleHealth)
	mux.HandleFunc(stream.ExecPath, s.handleExec)
	return mux
}

// ListenAndServe listens on addr and serves until ctx is done or the service goes idle.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	var lc net.ListenConfig
	lis, err := lc.Listen(ctx, "tcp", addr)
	if err != nil {
		return zerr.With(zerr.Wrap(err, "failed to listen"), "addr", addr)
	}
	return s.Serve(ctx, lis)
}

// Serve serves on lis until ctx is done or the idle timeout elapses.
// An idle shutdown returns nil.
func (s *Server) Serve(ctx context.Context, lis net.Listener) error {
	srv := &http.Server{
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	s.logger.Info(fmt.Sprintf("exec service listening on %s", lis.Addr()))

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Serve(lis)
	}()

	var result error
	select {
	case <-ctx.Done():
		result = ctx.Err()
	case <-s.lifecycle.ShutdownChan():
		s.logger.Info("exec service idle, shutting down")
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}

	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), shutdownGrace)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		_ = srv.Close()
	}
	return result
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet && r.Method != http.MethodHead {
		w.Header().Set("Allow", "GET, HEAD")
		http.Error(w, http.StatusText(http.StatusMethodNotAllowed), http.StatusMethodNotAllowed)
		return
	}
	h := w.Header()
	h.Set(HeaderUptime, s.lifecycle.Uptime().String())
	h.Set(HeaderLastActivity, s.lifecycle.LastActivity().UTC().Format(time.RFC3339Nano))
	if s.lifecycle.IdleShutdown() {
		h.Set(HeaderIdleRemaining, s.lifecycle.IdleRemaining().String())
	}
	s.lifecycle.ResetTimer()
	h.Set("Content-Type", "text/plain; charset=utf-8")
	_, _ = io.WriteString(w, "ok")
}

func (s *Server) handleExec(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.Header().Set("Allow", http.MethodPost)
		http.Error(w, http.StatusText(http.StatusMethodNotAllowed), http.StatusMethodNotAllowed)
		return
	}

	s.lifecycle.Begin()
	defer s.lifecycle.End()

	req, err := decodeRequest(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	w.Header().Set("Content-Type", stream.ContentType)
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(http.StatusOK)

	events := newEventStream(w)
	code := s.run(r.Context(), req, events)
	events.Send(stream.ExitEvent(code))
}

func decodeRequest(r *http.Request) (stream.Request, error) {
	var req stream.Request
	body, err := io.ReadAll(io.LimitReader(r.Body, maxRequestBytes))
	if err != nil {
		return req, fmt.Errorf("%w: %w", domain.ErrInvalidExecRequest, err)
	}
	if err := json.Unmarshal(body, &req); err != nil {
		return req, fmt.Errorf("%w: %w", domain.ErrInvalidExecRequest, err)
	}
	if req.Command == "" {
		return req, fmt.Errorf("%w: command is required", domain.ErrInvalidExecRequest)
	}
	if req.TimeoutMS != nil && *req.TimeoutMS < 0 {
		return req, fmt.Errorf("%w: timeout_ms must not be negative", domain.ErrInvalidExecRequest)
	}
	return req, nil
}

// run executes the request and returns the exit code to report.
func (s *Server) run(ctx context.Context, req stream.Request, events *eventStream) int {
	runCtx := ctx
	var timeout time.Duration
	if req.TimeoutMS != nil && *req.TimeoutMS > 0 {
		timeout = time.Duration(*req.TimeoutMS) * time.Millisecond
		var cancel context.CancelFunc
		runCtx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	stdout := newLineWriter(events, stream.EventStdout)
	stderr := newLineWriter(events, stream.EventStderr)

	// #nosec G204 -- running caller-supplied commands is the purpose of the service
	cmd := exec.CommandContext(runCtx, s.shell, "-c", req.Command)
	cmd.Stdout = stdout
	cmd.Stderr = stderr
	cmd.WaitDelay = pipeGrace

	err := cmd.Run()
	stdout.Flush()
	stderr.Flush()

	if timeout > 0 && errors.Is(runCtx.Err(), context.DeadlineExceeded) {
		events.Send(stream.ErrorEvent(fmt.Sprintf("command timed out after %s", timeout)))
		return domain.ExecdTimeoutExitCode
	}

	var exitErr *exec.ExitError
	switch {
	case err == nil:
		return 0
	case errors.As(err, &exitErr) && exitErr.ExitCode() >= 0:
		return exitErr.ExitCode()
	case errors.As(err, &exitErr):
		events.Send(stream.ErrorEvent(exitErr.String()))
		return 1
	default:
		events.Send(stream.ErrorEvent(err.Error()))
		return exitStartFailed
	}
}

// eventStream writes events to the response, flushing after each one.
type eventStream struct {
	mu      sync.Mutex
	w       io.Writer
	flusher http.Flusher
	failed  bool
}

func newEventStream(w http.ResponseWriter) *eventStream {
	flusher, _ := w.(http.Flusher)
	return &eventStream{w: w, flusher: flusher}
}

// Send writes one event. Errors after the client went away are ignored.
func (e *eventStream) Send(ev stream.Event) {
	line, err := ev.Marshal()
	if err != nil {
		return
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	if e.failed {
		return
	}
	if _, err := e.w.Write(line); err != nil {
		e.failed = true
		return
	}
	if e.flusher != nil {
		e.flusher.Flush()
	}
}

// lineWriter turns process output into one event per line.
type lineWriter struct {
	events    *eventStream
	eventType string

	mu  sync.Mutex
	buf []byte
}

func newLineWriter(events *eventStream, eventType string) *lineWriter {
	return &lineWriter{events: events, eventType: eventType}
}

func (l *lineWriter) Write(p []byte) (int, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.buf = append(l.buf, p...)
	for {
		i := bytes.IndexByte(l.buf, '\n')
		if i < 0 {
			break
		}
		l.events.Send(stream.Event{Type: l.eventType, Data: string(l.buf[:i+1])})
		l.buf = l.buf[i+1:]
	}
	return len(p), nil
}

// Flush sends any trailing partial line.
func (l *lineWriter) Flush() {
	l.mu.Lock()
	defer l.mu.Unlock()
	if len(l.buf) > 0 {
		l.events.Send(stream.Event{Type: l.eventType, Data: string(l.buf)})
		l.buf = nil
	}
}
