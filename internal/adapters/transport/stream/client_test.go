package stream_test

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"testing/synctest"
	"time"

	"github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.trai.ch/rig/internal/adapters/transport/stream"
	"go.trai.ch/rig/internal/core/domain"
	"go.trai.ch/rig/internal/core/ports/mocks"
	"go.uber.org/mock/gomock"
)

// scripted serves /exec by writing body verbatim and records the decoded request.
func scripted(t *testing.T, status int, body string, got *stream.Request) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != stream.ExecPath || r.Method != http.MethodPost {
			http.NotFound(w, r)
			return
		}
		if got != nil {
			data, _ := io.ReadAll(r.Body)
			_ = json.Unmarshal(data, got)
		}
		w.WriteHeader(status)
		_, _ = io.WriteString(w, body)
	}))
	t.Cleanup(srv.Close)
	return srv
}

func permissiveLogger(t *testing.T) *mocks.MockLogger {
	t.Helper()
	logger := mocks.NewMockLogger(gomock.NewController(t))
	logger.EXPECT().Info(gomock.Any()).AnyTimes()
	logger.EXPECT().Warn(gomock.Any()).AnyTimes()
	return logger
}

func TestClient_Run_StreamsEvents(t *testing.T) {
	ctrl := gomock.NewController(t)
	logger := mocks.NewMockLogger(ctrl)
	gomock.InOrder(
		logger.EXPECT().Info("[task:docker] Reading package lists..."),
		logger.EXPECT().Info("[task:docker] Done"),
	)
	logger.EXPECT().Warn("[task:docker] W: warning")

	var req stream.Request
	srv := scripted(t, http.StatusOK, strings.Join([]string{
		`{"type":"stdout","data":"Reading package "}`,
		`{"type":"stdout","data":"lists...\nDone\n"}`,
		`{"type":"stderr","data":"W: warning\n"}`,
		`{"type":"exit","code":0}`,
		`{"type":"stdout","data":"after exit is ignored\n"}`,
	}, "\n")+"\n", &req)

	client := stream.NewClient(srv.URL, logger)
	res, err := client.Run(context.Background(), "task:docker", []string{"apt-get", "install", "-y", "docker io"}, 90*time.Second)
	require.NoError(t, err)

	assert.Equal(t, 0, res.Code())
	assert.Equal(t, "Reading package lists...\nDone\n", res.Stdout)
	assert.Equal(t, "W: warning\n", res.Stderr)

	assert.Equal(t, "apt-get install -y 'docker io'", req.Command)
	require.NotNil(t, req.TimeoutMS)
	assert.Equal(t, int64(90000), *req.TimeoutMS)
}

func TestClient_Run_OmitsTimeoutWhenUnbounded(t *testing.T) {
	var req stream.Request
	srv := scripted(t, http.StatusOK, `{"type":"exit","code":0}`+"\n", &req)

	_, err := stream.NewClient(srv.URL, permissiveLogger(t)).Run(context.Background(), "x", []string{"true"}, 0)
	require.NoError(t, err)
	assert.Nil(t, req.TimeoutMS)
}

func TestClient_Run_SubMillisecondTimeoutIsBounded(t *testing.T) {
	var req stream.Request
	srv := scripted(t, http.StatusOK, `{"type":"exit","code":0}`+"\n", &req)

	_, err := stream.NewClient(srv.URL, permissiveLogger(t)).Run(context.Background(), "x", []string{"true"}, 500*time.Microsecond)
	require.NoError(t, err)
	require.NotNil(t, req.TimeoutMS)
	assert.Equal(t, int64(1), *req.TimeoutMS)
}

func TestTimeoutMillis(t *testing.T) {
	tests := []struct {
		timeout time.Duration
		want    *int64
	}{
		{0, nil},
		{-time.Second, nil},
		{time.Nanosecond, ptr(1)},
		{time.Millisecond, ptr(1)},
		{1500*time.Millisecond + 1, ptr(1501)},
		{90 * time.Second, ptr(90000)},
	}

	for _, tt := range tests {
		t.Run(tt.timeout.String(), func(t *testing.T) {
			assert.Equal(t, tt.want, stream.TimeoutMillis(tt.timeout))
		})
	}
}

func ptr(v int64) *int64 { return &v }

func TestClient_Run_NonZeroExit(t *testing.T) {
	srv := scripted(t, http.StatusOK, strings.Join([]string{
		`{"type":"stderr","data":"E: Unable to locate package\n"}`,
		`{"type":"exit","code":100}`,
	}, "\n"), nil)

	res, err := stream.NewClient(srv.URL, permissiveLogger(t)).Run(context.Background(), "task:pkg", []string{"false"}, 0)
	require.ErrorIs(t, err, domain.ErrCommandFailed)
	assert.Equal(t, 100, res.Code())
	assert.Contains(t, err.Error(), "Unable to locate package")
}

func TestClient_Run_ExitCodeCoercion(t *testing.T) {
	tests := []struct {
		name string
		line string
		want int
	}{
		{"integer", `{"type":"exit","code":3}`, 3},
		{"float", `{"type":"exit","code":2.0}`, 2},
		{"numeric string", `{"type":"exit","code":"4"}`, 4},
		{"garbage string", `{"type":"exit","code":"boom"}`, 1},
		{"null", `{"type":"exit","code":null}`, 1},
		{"missing", `{"type":"exit"}`, 1},
		{"above int range", `{"type":"exit","code":1e20}`, 1},
		{"below int range", `{"type":"exit","code":-1e20}`, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := scripted(t, http.StatusOK, tt.line+"\n", nil)
			res, _ := stream.NewClient(srv.URL, permissiveLogger(t)).Run(context.Background(), "x", []string{"true"}, 0)
			require.NotNil(t, res)
			assert.Equal(t, tt.want, res.Code())
		})
	}
}

func TestClient_Run_DiagnosticsDoNotAbort(t *testing.T) {
	srv := scripted(t, http.StatusOK, strings.Join([]string{
		`not json at all`,
		`{"type":"progress","data":"50%"}`,
		`{"type":"error","message":"killed after timeout"}`,
		`{"type":"stdout","data":"still here\n"}`,
		`{"type":"exit","code":0}`,
	}, "\n")+"\n", nil)

	res, err := stream.NewClient(srv.URL, permissiveLogger(t)).Run(context.Background(), "x", []string{"true"}, 0)
	require.NoError(t, err)
	assert.Equal(t, "still here\n", res.Stdout)
	assert.Contains(t, res.Stderr, "invalid event: not json at all\n")
	assert.Contains(t, res.Stderr, `unknown event type "progress"`)
	assert.Contains(t, res.Stderr, "killed after timeout\n")
}

func TestClient_Run_MissingExitAssumesSuccess(t *testing.T) {
	ctrl := gomock.NewController(t)
	logger := mocks.NewMockLogger(ctrl)
	logger.EXPECT().Info("[task:x] partial")
	logger.EXPECT().Warn("[task:x] exec service sent no exit event, assuming success")

	srv := scripted(t, http.StatusOK, `{"type":"stdout","data":"partial"}`, nil)

	res, err := stream.NewClient(srv.URL, logger).Run(context.Background(), "task:x", []string{"true"}, 0)
	require.NoError(t, err)
	require.NotNil(t, res.ExitCode)
	assert.Equal(t, 0, *res.ExitCode)
	assert.Equal(t, "partial", res.Stdout)
}

func TestClient_Run_BadStatusIsTransportError(t *testing.T) {
	srv := scripted(t, http.StatusBadRequest, "invalid exec request", nil)

	res, err := stream.NewClient(srv.URL, permissiveLogger(t)).Run(context.Background(), "x", []string{"true"}, 0)
	require.ErrorIs(t, err, domain.ErrTransport)
	assert.Nil(t, res)
	assert.Contains(t, err.Error(), "400")
}

func TestClient_Run_ConnectionFailureIsTransportError(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	_, err := stream.NewClient(url, permissiveLogger(t)).Run(context.Background(), "x", []string{"true"}, 0)
	require.ErrorIs(t, err, domain.ErrTransport)
}

// roundTripFunc lets WaitReady run inside a synctest bubble without real sockets.
type roundTripFunc func(*http.Request) (*http.Response, error)

func (f roundTripFunc) RoundTrip(r *http.Request) (*http.Response, error) { return f(r) }

func healthAfter(n int32, calls *atomic.Int32) *http.Client {
	return &http.Client{Transport: roundTripFunc(func(r *http.Request) (*http.Response, error) {
		if calls.Add(1) < n {
			return nil, errors.New("connection refused")
		}
		return &http.Response{
			StatusCode: http.StatusOK,
			Body:       io.NopCloser(strings.NewReader("ok")),
			Request:    r,
		}, nil
	})}
}

func TestClient_WaitReady(t *testing.T) {
	synctest.Test(t, func(t *testing.T) {
		var calls atomic.Int32
		client := stream.NewClient("http://target:7777", permissiveLogger(t), stream.WithHTTPClient(healthAfter(3, &calls)))

		start := time.Now()
		require.NoError(t, client.WaitReady(t.Context(), 5, time.Second))
		assert.Equal(t, int32(3), calls.Load())
		assert.Equal(t, 2*time.Second, time.Since(start))
	})
}

func TestClient_WaitReady_Exhausted(t *testing.T) {
	synctest.Test(t, func(t *testing.T) {
		var calls atomic.Int32
		client := stream.NewClient("http://target:7777", permissiveLogger(t), stream.WithHTTPClient(healthAfter(100, &calls)))

		start := time.Now()
		err := client.WaitReady(t.Context(), 4, 500*time.Millisecond)
		require.ErrorIs(t, err, domain.ErrExecdNotReady)
		assert.Equal(t, "exec service did not become ready", err.Error())
		assert.Equal(t, int32(4), calls.Load())
		assert.Equal(t, 1500*time.Millisecond, time.Since(start))
	})
}

func TestClient_WaitReady_Canceled(t *testing.T) {
	synctest.Test(t, func(t *testing.T) {
		var calls atomic.Int32
		client := stream.NewClient("http://target:7777", permissiveLogger(t), stream.WithHTTPClient(healthAfter(100, &calls)))

		ctx, cancel := context.WithTimeout(t.Context(), 2500*time.Millisecond)
		defer cancel()

		err := client.WaitReady(ctx, 10, time.Second)
		require.ErrorIs(t, err, context.DeadlineExceeded)
	})
}

func TestBaseURL(t *testing.T) {
	assert.Equal(t, "http://10.0.0.5:7777", stream.BaseURL("10.0.0.5", 7777))
	assert.Equal(t, "http://[::1]:7777", stream.BaseURL("::1", 7777))
}
