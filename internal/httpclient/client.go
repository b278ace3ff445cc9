package httpclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"sort"
	"strings"
	"time"

	"tradepost/internal/cache"
	"tradepost/internal/config"
	"tradepost/internal/metrics"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"golang.org/x/time/rate"
)

const maxResponseBody = 4 << 20

// Request describes one backend call. At most one of JSON and Form is set;
// when both are nil the request has no body.
type Request struct {
	Method string
	Path   string
	Query  url.Values
	JSON   any
	Form   url.Values
	// CacheScope groups responses for caching: GETs are read through the
	// cache, any other method invalidates the whole scope on success.
	CacheScope string
}

type freshReadKey struct{}

// WithFreshRead marks ctx so GETs skip the cache lookup and always reach the
// backend. The response still replaces the cached entry.
func WithFreshRead(ctx context.Context) context.Context {
	return context.WithValue(ctx, freshReadKey{}, true)
}

func isFreshRead(ctx context.Context) bool {
	fresh, _ := ctx.Value(freshReadKey{}).(bool)
	return fresh
}

// Client is the authenticated transport to the marketplace backend.
type Client struct {
	baseURL    string
	token      string
	httpClient *http.Client
	limiter    *rate.Limiter
	logger     *zerolog.Logger

	cache    cache.Store
	cacheTTL time.Duration
}

type Option func(*Client)

func WithToken(token string) Option {
	return func(c *Client) { c.token = strings.TrimSpace(token) }
}

func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.httpClient = hc
		}
	}
}

// WithRateLimit paces outgoing requests; rps <= 0 disables pacing.
func WithRateLimit(rps float64, burst int) Option {
	return func(c *Client) {
		if rps <= 0 {
			c.limiter = nil
			return
		}
		if burst <= 0 {
			burst = 1
		}
		c.limiter = rate.NewLimiter(rate.Limit(rps), burst)
	}
}

// WithCache enables response caching for requests that carry a CacheScope.
func WithCache(store cache.Store, ttl time.Duration) Option {
	return func(c *Client) {
		c.cache = store
		c.cacheTTL = ttl
	}
}

func WithLogger(logger *zerolog.Logger) Option {
	return func(c *Client) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// New constructs a client for baseURL. A zero timeout leaves the
// http.Client default (no timeout).
func New(baseURL string, timeout time.Duration, opts ...Option) *Client {
	nop := zerolog.Nop()
	c := &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: timeout},
		logger:     &nop,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// NewFromConfig builds the client for the configured backend. A nil store
// disables response caching.
func NewFromConfig(cfg config.BackendConfig, store cache.Store, ttl time.Duration, logger *zerolog.Logger) *Client {
	opts := []Option{
		WithToken(cfg.AuthToken),
		WithRateLimit(cfg.RPS, cfg.Burst),
		WithLogger(logger),
	}
	if store != nil {
		opts = append(opts, WithCache(store, ttl))
	}
	return New(cfg.BaseURL, cfg.Timeout, opts...)
}

// Do sends req and returns the raw response body.
func (c *Client) Do(ctx context.Context, req Request) ([]byte, error) {
	method := strings.ToUpper(req.Method)
	if method == "" {
		method = http.MethodGet
	}

	cacheKey := ""
	if c.cachingEnabled() && req.CacheScope != "" && method == http.MethodGet {
		cacheKey = cacheKeyFor(req)
		if !isFreshRead(ctx) {
			if body, ok := c.readCache(ctx, cacheKey); ok {
				return body, nil
			}
		}
	}

	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, fmt.Errorf("backend rate limit wait: %w", err)
		}
	}

	httpReq, err := c.newRequest(ctx, method, req)
	if err != nil {
		return nil, err
	}

	start := time.Now()
	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		metrics.IncBackendRequest(method, 0)
		c.logger.Error().Err(err).Str("method", method).Str("path", req.Path).Msg("backend request failed")
		return nil, fmt.Errorf("%s %s: %w", method, req.Path, err)
	}
	defer resp.Body.Close()
	metrics.IncBackendRequest(method, resp.StatusCode)

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBody))
	if err != nil {
		return nil, fmt.Errorf("%s %s: read body: %w", method, req.Path, err)
	}

	c.logger.Debug().
		Str("method", method).
		Str("path", req.Path).
		Int("status", resp.StatusCode).
		Dur("dur", time.Since(start)).
		Str("request_id", httpReq.Header.Get("X-Request-ID")).
		Msg("backend response")

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		if len(body) > maxErrorBody {
			body = body[:maxErrorBody]
		}
		return nil, &APIError{
			Method:  method,
			Path:    req.Path,
			Status:  resp.StatusCode,
			Message: errorMessage(body),
			Body:    body,
		}
	}

	if c.cachingEnabled() && req.CacheScope != "" {
		if cacheKey != "" {
			c.writeCache(ctx, cacheKey, body)
		} else {
			c.invalidate(ctx, req.CacheScope)
		}
	}

	return body, nil
}

func (c *Client) newRequest(ctx context.Context, method string, req Request) (*http.Request, error) {
	endpoint := c.baseURL + req.Path
	if len(req.Query) > 0 {
		endpoint += "?" + req.Query.Encode()
	}

	var (
		body        io.Reader
		contentType string
	)
	switch {
	case req.JSON != nil:
		data, err := json.Marshal(req.JSON)
		if err != nil {
			return nil, fmt.Errorf("encode request body: %w", err)
		}
		body = bytes.NewReader(data)
		contentType = "application/json"
	case req.Form != nil:
		buf, ct, err := encodeMultipart(req.Form)
		if err != nil {
			return nil, err
		}
		body = buf
		contentType = ct
	}

	httpReq, err := http.NewRequestWithContext(ctx, method, endpoint, body)
	if err != nil {
		return nil, err
	}
	if contentType != "" {
		httpReq.Header.Set("Content-Type", contentType)
	}
	httpReq.Header.Set("Accept", "application/json")
	httpReq.Header.Set("X-Request-ID", uuid.NewString())
	if c.token != "" {
		httpReq.Header.Set("Authorization", "Bearer "+c.token)
	}
	return httpReq, nil
}

func encodeMultipart(fields url.Values) (*bytes.Buffer, string, error) {
	buf := &bytes.Buffer{}
	w := multipart.NewWriter(buf)

	keys := make([]string, 0, len(fields))
	for k := range fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for _, k := range keys {
		for _, v := range fields[k] {
			if err := w.WriteField(k, v); err != nil {
				return nil, "", fmt.Errorf("write form field %s: %w", k, err)
			}
		}
	}
	if err := w.Close(); err != nil {
		return nil, "", fmt.Errorf("close multipart body: %w", err)
	}
	return buf, w.FormDataContentType(), nil
}

func (c *Client) cachingEnabled() bool {
	return c.cache != nil && c.cacheTTL > 0
}

func cacheKeyFor(req Request) string {
	key := req.CacheScope + ":" + req.Path
	if len(req.Query) > 0 {
		key += "?" + req.Query.Encode()
	}
	return key
}

func (c *Client) readCache(ctx context.Context, key string) ([]byte, bool) {
	body, ok, err := c.cache.Get(ctx, key)
	if err != nil {
		c.logger.Warn().Err(err).Str("key", key).Msg("cache read failed")
		return nil, false
	}
	return body, ok
}

func (c *Client) writeCache(ctx context.Context, key string, body []byte) {
	if err := c.cache.Set(ctx, key, body, c.cacheTTL); err != nil {
		c.logger.Warn().Err(err).Str("key", key).Msg("cache write failed")
	}
}

func (c *Client) invalidate(ctx context.Context, scope string) {
	if err := c.cache.DeletePrefix(ctx, scope+":"); err != nil {
		c.logger.Warn().Err(err).Str("scope", scope).Msg("cache invalidation failed")
	}
}
