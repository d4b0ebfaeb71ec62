// Package stream implements the transport that talks to the exec service over HTTP,
// reading command output as newline-delimited JSON events.
package stream

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/goccy/go-json"
	"go.trai.ch/rig/internal/core/domain"
	"go.trai.ch/rig/internal/core/ports"
	"go.trai.ch/rig/internal/shellquote"
	"go.trai.ch/zerr"
)

// Client implements ports.Transport against a running exec service.
type Client struct {
	baseURL string
	http    *http.Client
	logger  ports.Logger
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the default HTTP client.
func WithHTTPClient(c *http.Client) Option {
	return func(cl *Client) { cl.http = c }
}

// BaseURL returns the service URL for host and port.
func BaseURL(host string, port int) string {
	return "http://" + net.JoinHostPort(host, strconv.Itoa(port))
}

// NewClient creates a Client for the service at baseURL.
func NewClient(baseURL string, logger ports.Logger, opts ...Option) *Client {
	c := &Client{
		baseURL: strings.TrimSuffix(baseURL, "/"),
		http:    &http.Client{},
		logger:  logger,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// WaitReady polls the health endpoint until it answers 200, up to attempts times
// with delay between polls.
func (c *Client) WaitReady(ctx context.Context, attempts int, delay time.Duration) error {
	for attempt := 1; attempt <= attempts; attempt++ {
		if c.healthy(ctx) {
			return nil
		}
		if attempt == attempts {
			break
		}
		timer := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}
	}
	return zerr.With(zerr.With(zerr.Wrap(domain.ErrExecdNotReady, ""), "url", c.baseURL), "attempts", attempts)
}

func (c *Client) healthy(ctx context.Context) bool {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+HealthPath, http.NoBody)
	if err != nil {
		return false
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return false
	}
	_, _ = io.Copy(io.Discard, resp.Body)
	_ = resp.Body.Close()
	return resp.StatusCode == http.StatusOK
}

// Run sends argv to the service and consumes the event stream until the exit event.
func (c *Client) Run(ctx context.Context, label string, argv []string, timeout time.Duration) (*domain.ExecResult, error) {
	command, err := shellquote.Join(argv)
	if err != nil {
		return nil, domain.NewTransportError(err)
	}
	body, err := json.Marshal(Request{Command: command, TimeoutMS: TimeoutMillis(timeout)})
	if err != nil {
		return nil, domain.NewTransportError(err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+ExecPath, bytes.NewReader(body))
	if err != nil {
		return nil, domain.NewTransportError(err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", ContentType)

	resp, err := c.http.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, c.transportError(err, label)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		err := fmt.Errorf("exec service returned %s: %s", resp.Status, strings.TrimSpace(string(snippet)))
		return nil, c.transportError(err, label)
	}

	call := newCall(label, c.logger)
	defer call.close()

	reader := bufio.NewReader(resp.Body)
	for call.State() == AwaitingExit {
		line, readErr := reader.ReadBytes('\n')
		if len(bytes.TrimSpace(line)) > 0 {
			call.Handle(line)
		}
		if readErr != nil {
			if errors.Is(readErr, io.EOF) {
				break
			}
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			return nil, c.transportError(readErr, label)
		}
	}

	res := call.Result()
	if !res.Succeeded() {
		return res, &domain.CommandError{Label: label, Result: res}
	}
	return res, nil
}

func (c *Client) transportError(err error, label string) error {
	return zerr.With(zerr.Wrap(domain.NewTransportError(err), ""), "label", label)
}
