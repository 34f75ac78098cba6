// Package coda is a small client for the parts of the Coda REST API the
// source needs: listing documents, listing tables and reading rows.
//
// Document and table listings are decoded only as far as the item ids;
// rows pages are handed back byte for byte so callers can forward them
// without re-encoding.
package coda

import (
	"context"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"

	"github.com/ajitpratap0/source-coda/pkg/clients"
	"github.com/ajitpratap0/source-coda/pkg/config"
	"github.com/ajitpratap0/source-coda/pkg/errors"
	"github.com/ajitpratap0/source-coda/pkg/metrics"
	"github.com/ajitpratap0/source-coda/pkg/observability"
)

// Endpoint labels used for metrics, spans and retry bookkeeping
const (
	EndpointDocs   = "docs"
	EndpointTables = "tables"
	EndpointRows   = "rows"
)

// maxErrorBody bounds how much of a failed response is kept for logs
const maxErrorBody = 512

// RetryFunc runs fn, possibly more than once. base.BaseConnector's
// ExecuteWithRetry has this shape.
type RetryFunc func(ctx context.Context, operation string, fn func() error) error

// Progress receives traversal counts. base.ProgressReporter implements it.
type Progress interface {
	AddDocuments(n int)
	AddTables(n int)
	AddPages(n int)
}

// Option customizes a Client
type Option func(*Client)

// WithLogger sets the client logger
func WithLogger(logger *zap.Logger) Option {
	return func(c *Client) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// WithRetry routes every API call through retry
func WithRetry(retry RetryFunc) Option {
	return func(c *Client) {
		if retry != nil {
			c.retry = retry
		}
	}
}

// WithProgress reports fetched pages and listed items to p
func WithProgress(p Progress) Option {
	return func(c *Client) {
		c.progress = p
	}
}

// Client talks to one Coda workspace with one API key
type Client struct {
	http     *clients.HTTPClient
	baseURL  string
	cfg      *config.CodaSourceConfig
	logger   *zap.Logger
	retry    RetryFunc
	progress Progress
}

// NewClient builds a client from a validated source configuration
func NewClient(cfg *config.CodaSourceConfig, opts ...Option) *Client {
	c := &Client{
		baseURL: cfg.Endpoint(),
		cfg:     cfg,
		logger:  zap.NewNop(),
		retry: func(_ context.Context, _ string, fn func() error) error {
			return fn()
		},
	}
	for _, opt := range opts {
		opt(c)
	}

	httpCfg := clients.DefaultHTTPConfig()
	httpCfg.BearerToken = cfg.APIKey
	httpCfg.RequestTimeout = cfg.Timeouts.Request
	httpCfg.ResponseHeaderTimeout = cfg.Timeouts.Request
	if cfg.Timeouts.Connection > 0 {
		httpCfg.DialTimeout = cfg.Timeouts.Connection
		httpCfg.TLSHandshakeTimeout = cfg.Timeouts.Connection
	}
	if cfg.Timeouts.Idle > 0 {
		httpCfg.IdleConnTimeout = cfg.Timeouts.Idle
	}
	httpCfg.RateLimit = float64(cfg.Reliability.RateLimitPerSec)
	httpCfg.RateBurst = cfg.Reliability.RateLimitPerSec
	httpCfg.CircuitBreakerEnabled = cfg.Reliability.CircuitBreaker

	c.http = clients.NewHTTPClient(httpCfg, c.logger)
	return c
}

// ListDocuments fetches one page of documents. An empty pageToken asks for
// the first page.
func (c *Client) ListDocuments(ctx context.Context, pageToken string) (*Page, error) {
	q := url.Values{}
	q.Set("isOwner", strconv.FormatBool(c.cfg.IsOwner))
	c.setPaging(q, pageToken)

	body, err := c.get(ctx, EndpointDocs, c.baseURL+"/docs?"+q.Encode())
	if err != nil {
		return nil, err
	}
	page, err := parseListPage(EndpointDocs, body)
	if err != nil {
		return nil, err
	}
	if c.progress != nil {
		c.progress.AddDocuments(len(page.Items))
	}
	return page, nil
}

// ListTables fetches one page of the tables in docID
func (c *Client) ListTables(ctx context.Context, docID, pageToken string) (*Page, error) {
	q := url.Values{}
	c.setPaging(q, pageToken)

	body, err := c.get(ctx, EndpointTables, withQuery(c.baseURL+"/docs/"+url.PathEscape(docID)+"/tables", q))
	if err != nil {
		return nil, err
	}
	page, err := parseListPage(EndpointTables, body)
	if err != nil {
		return nil, errorWithIDs(err, docID, "")
	}
	if c.progress != nil {
		c.progress.AddTables(len(page.Items))
	}
	return page, nil
}

// ListRows fetches one page of rows. Page.Raw holds the response body
// unchanged; Page.Items is left empty.
func (c *Client) ListRows(ctx context.Context, docID, tableID, pageToken string) (*Page, error) {
	q := url.Values{}
	q.Set("useColumnNames", strconv.FormatBool(c.cfg.UseColumnNames))
	q.Set("valueFormat", c.cfg.ValueFormat)
	c.setPaging(q, pageToken)

	rowsURL := c.baseURL + "/docs/" + url.PathEscape(docID) + "/tables/" + url.PathEscape(tableID) + "/rows?" + q.Encode()
	body, err := c.get(ctx, EndpointRows, rowsURL)
	if err != nil {
		return nil, err
	}
	page, err := parseRowsPage(body)
	if err != nil {
		return nil, errorWithIDs(err, docID, tableID)
	}
	return page, nil
}

// Close releases idle connections
func (c *Client) Close() error {
	return c.http.Close()
}

func (c *Client) setPaging(q url.Values, pageToken string) {
	if c.cfg.PageSize > 0 {
		q.Set("limit", strconv.Itoa(c.cfg.PageSize))
	}
	if pageToken != "" {
		q.Set("pageToken", pageToken)
	}
}

func withQuery(base string, q url.Values) string {
	if len(q) == 0 {
		return base
	}
	return base + "?" + q.Encode()
}

// get fetches rawURL under the retry function and returns the body of a 2xx
// response.
func (c *Client) get(ctx context.Context, endpoint, rawURL string) ([]byte, error) {
	var body []byte
	err := c.retry(ctx, endpoint, func() error {
		b, err := c.fetch(ctx, endpoint, rawURL)
		if err != nil {
			return err
		}
		body = b
		return nil
	})
	if err != nil {
		return nil, err
	}
	if c.progress != nil {
		c.progress.AddPages(1)
	}
	return body, nil
}

func (c *Client) fetch(ctx context.Context, endpoint, rawURL string) (body []byte, err error) {
	ctx, span := observability.StartSpan(ctx, "coda."+endpoint,
		attribute.String("coda.endpoint", endpoint),
		attribute.String("http.url", rawURL),
	)
	defer func() { observability.EndSpan(span, err) }()

	start := time.Now()
	resp, err := c.http.Get(ctx, rawURL, nil)
	metrics.APIRequestDuration.WithLabelValues(endpoint).Observe(time.Since(start).Seconds())
	if err != nil {
		metrics.APIRequests.WithLabelValues(endpoint, "error").Inc()
		c.logger.Debug("coda request failed",
			zap.String("endpoint", endpoint),
			zap.Error(err))
		return nil, err
	}
	defer resp.Body.Close()

	metrics.APIRequests.WithLabelValues(endpoint, strconv.Itoa(resp.StatusCode)).Inc()
	span.SetAttributes(attribute.Int("http.status_code", resp.StatusCode))

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		excerpt, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		c.logger.Debug("coda request rejected",
			zap.String("endpoint", endpoint),
			zap.Int("status_code", resp.StatusCode))
		return nil, errors.FromHTTPStatus(resp.StatusCode, string(excerpt)).
			WithDetail("endpoint", endpoint)
	}

	body, err = io.ReadAll(resp.Body)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrorTypeConnection, "failed to read response body").
			WithDetail("endpoint", endpoint)
	}
	return body, nil
}
