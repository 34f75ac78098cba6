// Package clients provides the HTTP transport used to talk to the Coda API
package clients

import (
	"context"
	"crypto/tls"
	"io"
	"net"
	"net/http"
	"sync/atomic"
	"time"

	"go.uber.org/zap"
	"golang.org/x/net/http2"

	"github.com/ajitpratap0/source-coda/pkg/errors"
)

// HTTPClient is an HTTP client with rate limiting, a circuit breaker and
// optional bearer authentication.
type HTTPClient struct {
	config     *HTTPConfig
	logger     *zap.Logger
	httpClient *http.Client
	transport  *http.Transport

	totalRequests  int64
	failedRequests int64

	metrics        *HTTPMetrics
	circuitBreaker *HTTPCircuitBreaker
	rateLimiter    RateLimiter
}

// HTTPConfig configures the HTTP client
type HTTPConfig struct {
	// Connection settings
	MaxIdleConnsPerHost int           `json:"max_idle_conns_per_host"`
	IdleConnTimeout     time.Duration `json:"idle_conn_timeout"`
	EnableHTTP2         bool          `json:"enable_http2"`

	// Timeouts
	DialTimeout           time.Duration `json:"dial_timeout"`
	TLSHandshakeTimeout   time.Duration `json:"tls_handshake_timeout"`
	ResponseHeaderTimeout time.Duration `json:"response_header_timeout"`
	RequestTimeout        time.Duration `json:"request_timeout"`

	// Authentication; empty means no Authorization header
	BearerToken string `json:"-"`
	UserAgent   string `json:"user_agent"`

	// Rate limiting (0 = unlimited)
	RateLimit float64 `json:"rate_limit"`
	RateBurst int     `json:"rate_burst"`

	// Circuit breaker
	CircuitBreakerEnabled bool          `json:"circuit_breaker_enabled"`
	FailureThreshold      int           `json:"failure_threshold"`
	SuccessThreshold      int           `json:"success_threshold"`
	Timeout               time.Duration `json:"timeout"`

	// Transport replaces the default transport, mainly for tests. HTTP/2 and
	// dial settings are ignored when it is set.
	Transport http.RoundTripper `json:"-"`
}

// DefaultHTTPConfig returns the default configuration
func DefaultHTTPConfig() *HTTPConfig {
	return &HTTPConfig{
		MaxIdleConnsPerHost:   10,
		IdleConnTimeout:       90 * time.Second,
		EnableHTTP2:           true,
		DialTimeout:           10 * time.Second,
		TLSHandshakeTimeout:   10 * time.Second,
		ResponseHeaderTimeout: 30 * time.Second,
		RequestTimeout:        30 * time.Second,
		UserAgent:             "source-coda/1.0",
		RateLimit:             10,
		RateBurst:             5,
		CircuitBreakerEnabled: true,
		FailureThreshold:      5,
		SuccessThreshold:      2,
		Timeout:               30 * time.Second,
	}
}

// NewHTTPClient creates a new HTTP client
func NewHTTPClient(config *HTTPConfig, logger *zap.Logger) *HTTPClient {
	if config == nil {
		config = DefaultHTTPConfig()
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	client := &HTTPClient{
		config:  config,
		logger:  logger.With(zap.String("component", "http_client")),
		metrics: NewHTTPMetrics(),
	}

	var rt http.RoundTripper = config.Transport
	if rt == nil {
		client.transport = &http.Transport{
			Proxy: http.ProxyFromEnvironment,
			DialContext: (&net.Dialer{
				Timeout:   config.DialTimeout,
				KeepAlive: 30 * time.Second,
			}).DialContext,
			MaxIdleConnsPerHost:   config.MaxIdleConnsPerHost,
			IdleConnTimeout:       config.IdleConnTimeout,
			TLSHandshakeTimeout:   config.TLSHandshakeTimeout,
			ResponseHeaderTimeout: config.ResponseHeaderTimeout,
			ExpectContinueTimeout: 1 * time.Second,
			TLSClientConfig: &tls.Config{
				MinVersion: tls.VersionTLS12,
			},
		}

		if config.EnableHTTP2 {
			if err := http2.ConfigureTransport(client.transport); err != nil {
				client.logger.Warn("failed to configure HTTP/2", zap.Error(err))
			} else {
				client.logger.Debug("HTTP/2 enabled")
			}
		}
		rt = client.transport
	}

	if config.BearerToken != "" {
		rt = NewBearerTransport(rt, config.BearerToken)
	}

	client.httpClient = &http.Client{
		Transport: rt,
		Timeout:   config.RequestTimeout,
		CheckRedirect: func(req *http.Request, via []*http.Request) error {
			if len(via) >= 10 {
				return errors.New(errors.ErrorTypeConnection, "too many redirects")
			}
			return nil
		},
	}

	if config.RateLimit > 0 {
		client.rateLimiter = NewTokenBucketRateLimiter(config.RateLimit, config.RateBurst)
	}

	if config.CircuitBreakerEnabled {
		client.circuitBreaker = NewHTTPCircuitBreaker("coda_api", CircuitBreakerConfig{
			FailureThreshold: config.FailureThreshold,
			SuccessThreshold: config.SuccessThreshold,
			Timeout:          config.Timeout,
		}, logger)
	}

	return client
}

// Get performs an HTTP GET request
func (c *HTTPClient) Get(ctx context.Context, url string, headers map[string]string) (*http.Response, error) {
	req, err := c.newRequest(ctx, http.MethodGet, url, nil, headers)
	if err != nil {
		return nil, err
	}
	return c.Do(req)
}

// Do sends the request through the rate limiter and circuit breaker.
// Transport failures come back as typed errors: timeouts as
// ErrorTypeTimeout, everything else as ErrorTypeConnection. A response with
// any status is returned as is; 5xx responses count against the breaker.
func (c *HTTPClient) Do(req *http.Request) (*http.Response, error) {
	if c.rateLimiter != nil {
		if err := c.rateLimiter.Wait(req.Context()); err != nil {
			atomic.AddInt64(&c.failedRequests, 1)
			return nil, errors.Wrap(err, errors.ErrorTypeTimeout, "rate limiter wait aborted")
		}
	}

	if c.circuitBreaker != nil && !c.circuitBreaker.Allow() {
		atomic.AddInt64(&c.failedRequests, 1)
		return nil, errors.New(errors.ErrorTypeConnection, "circuit breaker open").
			WithDetail("host", req.URL.Host)
	}

	atomic.AddInt64(&c.totalRequests, 1)
	start := time.Now()

	resp, err := c.httpClient.Do(req)

	c.metrics.RecordRequest(req.Method, req.URL.Host, time.Since(start), err)

	if err != nil {
		atomic.AddInt64(&c.failedRequests, 1)
		if c.circuitBreaker != nil {
			c.circuitBreaker.RecordFailure()
		}
		return nil, classifyTransportError(err)
	}

	if c.circuitBreaker != nil {
		if resp.StatusCode >= http.StatusInternalServerError {
			c.circuitBreaker.RecordFailure()
		} else {
			c.circuitBreaker.RecordSuccess()
		}
	}

	return resp, nil
}

func classifyTransportError(err error) error {
	var netErr net.Error
	if errors.Is(err, context.DeadlineExceeded) || (errors.As(err, &netErr) && netErr.Timeout()) {
		return errors.Wrap(err, errors.ErrorTypeTimeout, "request timed out")
	}
	return errors.Wrap(err, errors.ErrorTypeConnection, "request failed")
}

func (c *HTTPClient) newRequest(ctx context.Context, method, url string, body io.Reader, headers map[string]string) (*http.Request, error) {
	req, err := http.NewRequestWithContext(ctx, method, url, body)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrorTypeConfig, "invalid request").WithDetail("url", url)
	}

	for key, value := range headers {
		req.Header.Set(key, value)
	}

	if req.Header.Get("Accept") == "" {
		req.Header.Set("Accept", "application/json")
	}

	if req.Header.Get("User-Agent") == "" && c.config.UserAgent != "" {
		req.Header.Set("User-Agent", c.config.UserAgent)
	}

	return req, nil
}

// CircuitBreaker returns the breaker, or nil when disabled
func (c *HTTPClient) CircuitBreaker() *HTTPCircuitBreaker {
	return c.circuitBreaker
}

// GetStats returns current client statistics
func (c *HTTPClient) GetStats() HTTPStats {
	totalRequests := atomic.LoadInt64(&c.totalRequests)
	failedRequests := atomic.LoadInt64(&c.failedRequests)

	stats := HTTPStats{
		TotalRequests:  totalRequests,
		FailedRequests: failedRequests,
		AverageLatency: c.metrics.GetAverageLatency(),
		MaxLatency:     c.metrics.GetMaxLatency(),
	}

	if totalRequests > 0 {
		stats.SuccessRate = float64(totalRequests-failedRequests) / float64(totalRequests) * 100
	}

	return stats
}

// Close releases idle connections
func (c *HTTPClient) Close() error {
	if c.transport != nil {
		c.transport.CloseIdleConnections()
	}
	return nil
}

// HTTPStats represents HTTP client statistics
type HTTPStats struct {
	TotalRequests  int64         `json:"total_requests"`
	FailedRequests int64         `json:"failed_requests"`
	SuccessRate    float64       `json:"success_rate"`
	AverageLatency time.Duration `json:"average_latency"`
	MaxLatency     time.Duration `json:"max_latency"`
}
