package clients

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/ajitpratap0/source-coda/pkg/errors"
)

func testConfig() *HTTPConfig {
	cfg := DefaultHTTPConfig()
	cfg.RateLimit = 0
	cfg.EnableHTTP2 = false
	cfg.RequestTimeout = 2 * time.Second
	return cfg
}

func TestHTTPClientSendsBearerToken(t *testing.T) {
	var gotAuth, gotAgent string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		gotAgent = r.Header.Get("User-Agent")
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	cfg := testConfig()
	cfg.BearerToken = "abc"
	client := NewHTTPClient(cfg, zaptest.NewLogger(t))
	defer client.Close()

	resp, err := client.Get(context.Background(), srv.URL, nil)
	require.NoError(t, err)
	resp.Body.Close()

	assert.Equal(t, "Bearer abc", gotAuth)
	assert.Equal(t, "source-coda/1.0", gotAgent)

	stats := client.GetStats()
	assert.Equal(t, int64(1), stats.TotalRequests)
	assert.Equal(t, float64(100), stats.SuccessRate)
}

func TestHTTPClientWithoutTokenSendsNoAuthorization(t *testing.T) {
	var gotAuth string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
	}))
	defer srv.Close()

	client := NewHTTPClient(testConfig(), zaptest.NewLogger(t))
	resp, err := client.Get(context.Background(), srv.URL, map[string]string{"X-Test": "1"})
	require.NoError(t, err)
	resp.Body.Close()

	assert.Empty(t, gotAuth)
}

func TestHTTPClientTransportErrors(t *testing.T) {
	t.Run("connection refused", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
		url := srv.URL
		srv.Close()

		client := NewHTTPClient(testConfig(), zaptest.NewLogger(t))
		_, err := client.Get(context.Background(), url, nil)
		require.Error(t, err)
		assert.True(t, errors.IsType(err, errors.ErrorTypeConnection))
		assert.True(t, errors.IsRetryable(err))
	})

	t.Run("timeout", func(t *testing.T) {
		release := make(chan struct{})
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			select {
			case <-release:
			case <-r.Context().Done():
			}
		}))
		defer srv.Close()
		defer close(release)

		cfg := testConfig()
		cfg.RequestTimeout = 50 * time.Millisecond
		client := NewHTTPClient(cfg, zaptest.NewLogger(t))

		_, err := client.Get(context.Background(), srv.URL, nil)
		require.Error(t, err)
		assert.True(t, errors.IsType(err, errors.ErrorTypeTimeout))
	})
}

func TestHTTPClientCircuitBreakerOpensOnServerErrors(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	cfg := testConfig()
	cfg.FailureThreshold = 2
	cfg.Timeout = time.Hour
	client := NewHTTPClient(cfg, zaptest.NewLogger(t))

	for i := 0; i < 2; i++ {
		resp, err := client.Get(context.Background(), srv.URL, nil)
		require.NoError(t, err)
		resp.Body.Close()
	}

	_, err := client.Get(context.Background(), srv.URL, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "circuit breaker open")
	assert.Equal(t, int32(2), atomic.LoadInt32(&calls))
	assert.Equal(t, StateOpen, client.CircuitBreaker().State())
}

func TestHTTPClientRateLimiterHonoursContext(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	defer srv.Close()

	cfg := testConfig()
	cfg.RateLimit = 0.001
	cfg.RateBurst = 1
	client := NewHTTPClient(cfg, zaptest.NewLogger(t))

	resp, err := client.Get(context.Background(), srv.URL, nil)
	require.NoError(t, err)
	resp.Body.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	_, err = client.Get(ctx, srv.URL, nil)
	require.Error(t, err)
	assert.True(t, errors.IsType(err, errors.ErrorTypeTimeout))
}
