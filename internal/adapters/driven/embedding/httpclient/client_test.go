package httpclient

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/vectorlite-cli/internal/core/domain"
)

type echoResponse struct {
	Value string `json:"value"`
}

func newTestClient(opts Options) *Client {
	if opts.Provider == "" {
		opts.Provider = "test"
	}
	if opts.RetryDelay == 0 {
		opts.RetryDelay = time.Millisecond
	}
	return New(opts)
}

func TestClient_PostJSON_Success(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		assert.Equal(t, "Bearer k", r.Header.Get("Authorization"))
		_, _ = w.Write([]byte(`{"value":"ok"}`))
	}))
	defer srv.Close()

	var out echoResponse
	err := newTestClient(Options{}).PostJSON(context.Background(), srv.URL,
		map[string]string{"Authorization": "Bearer k"}, map[string]string{"a": "b"}, &out)

	require.NoError(t, err)
	assert.Equal(t, "ok", out.Value)
}

func TestClient_PostJSON_StatusClassification(t *testing.T) {
	tests := []struct {
		name   string
		status int
		kind   error
	}{
		{name: "unauthorized", status: http.StatusUnauthorized, kind: domain.ErrProviderUnauthenticated},
		{name: "forbidden", status: http.StatusForbidden, kind: domain.ErrProviderUnauthenticated},
		{name: "bad request", status: http.StatusBadRequest, kind: domain.ErrProviderBadResponse},
		{name: "server error", status: http.StatusInternalServerError, kind: domain.ErrProviderBadResponse},
		{name: "unavailable", status: http.StatusServiceUnavailable, kind: domain.ErrProviderUnavailable},
		{name: "rate limited", status: http.StatusTooManyRequests, kind: domain.ErrProviderBadResponse},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(`{"error":"nope"}`))
			}))
			defer srv.Close()

			var out echoResponse
			err := newTestClient(Options{MaxRetries: -1}).PostJSON(context.Background(), srv.URL, nil, struct{}{}, &out)

			require.Error(t, err)
			assert.ErrorIs(t, err, tt.kind)

			var pe *domain.ProviderError
			require.ErrorAs(t, err, &pe)
			assert.Equal(t, tt.status, pe.StatusCode)
		})
	}
}

func TestClient_PostJSON_RetriesRateLimit(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		if calls.Add(1) < 3 {
			w.WriteHeader(http.StatusTooManyRequests)
			return
		}
		_, _ = w.Write([]byte(`{"value":"finally"}`))
	}))
	defer srv.Close()

	var out echoResponse
	err := newTestClient(Options{MaxRetries: 2}).PostJSON(context.Background(), srv.URL, nil, struct{}{}, &out)

	require.NoError(t, err)
	assert.Equal(t, "finally", out.Value)
	assert.Equal(t, int32(3), calls.Load())
}

func TestClient_PostJSON_RetriesExhausted(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	var out echoResponse
	err := newTestClient(Options{MaxRetries: 1}).PostJSON(context.Background(), srv.URL, nil, struct{}{}, &out)

	assert.ErrorIs(t, err, domain.ErrProviderUnavailable)
	assert.Equal(t, int32(2), calls.Load())
}

func TestClient_PostJSON_NoRetryOnAuth(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer srv.Close()

	var out echoResponse
	err := newTestClient(Options{MaxRetries: 3}).PostJSON(context.Background(), srv.URL, nil, struct{}{}, &out)

	assert.ErrorIs(t, err, domain.ErrProviderUnauthenticated)
	assert.Equal(t, int32(1), calls.Load())
}

func TestClient_PostJSON_MalformedBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`not json`))
	}))
	defer srv.Close()

	var out echoResponse
	err := newTestClient(Options{}).PostJSON(context.Background(), srv.URL, nil, struct{}{}, &out)
	assert.ErrorIs(t, err, domain.ErrProviderBadResponse)
}

func TestClient_PostJSON_Timeout(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		time.Sleep(200 * time.Millisecond)
		_, _ = w.Write([]byte(`{}`))
	}))
	defer srv.Close()

	var out echoResponse
	err := newTestClient(Options{Timeout: 20 * time.Millisecond, MaxRetries: -1}).
		PostJSON(context.Background(), srv.URL, nil, struct{}{}, &out)
	assert.ErrorIs(t, err, domain.ErrProviderUnavailable)
}

func TestClient_PostJSON_ConnectionRefused(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	var out echoResponse
	err := newTestClient(Options{MaxRetries: -1}).PostJSON(context.Background(), url, nil, struct{}{}, &out)
	assert.ErrorIs(t, err, domain.ErrProviderUnavailable)
}

func TestClient_PostJSON_ContextCancelled(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	var out echoResponse
	err := newTestClient(Options{MaxRetries: 5}).PostJSON(ctx, srv.URL, nil, struct{}{}, &out)
	assert.Error(t, err)
	assert.LessOrEqual(t, calls.Load(), int32(1))
}

func TestCheckVector(t *testing.T) {
	assert.NoError(t, CheckVector("p", []float32{1, 2}, 0))
	assert.NoError(t, CheckVector("p", []float32{1, 2}, 2))
	assert.ErrorIs(t, CheckVector("p", nil, 0), domain.ErrProviderBadResponse)
	assert.ErrorIs(t, CheckVector("p", []float32{1}, 3), domain.ErrProviderBadResponse)
}

func TestToFloat32(t *testing.T) {
	assert.Equal(t, []float32{1, 0.5}, ToFloat32([]float64{1, 0.5}))
}

func TestRateLimiter(t *testing.T) {
	t.Run("unthrottled by default", func(t *testing.T) {
		r := NewRateLimiter(0)
		assert.Nil(t, r.bucket)
		assert.NoError(t, r.Wait(context.Background()))
	})

	t.Run("retry-after honoured", func(t *testing.T) {
		r := NewRateLimiter(100)
		assert.NotNil(t, r.bucket)

		resp := &http.Response{StatusCode: http.StatusTooManyRequests, Header: http.Header{}}
		resp.Header.Set(HeaderRetryAfter, "60")
		r.Observe(resp)

		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
		defer cancel()
		assert.Error(t, r.Wait(ctx))
	})

	t.Run("ignores other statuses", func(t *testing.T) {
		r := NewRateLimiter(0)
		resp := &http.Response{StatusCode: http.StatusOK, Header: http.Header{}}
		resp.Header.Set(HeaderRetryAfter, "60")
		r.Observe(resp)
		assert.NoError(t, r.Wait(context.Background()))
	})
}
