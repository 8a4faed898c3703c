// Package httpclient provides the HTTP client used by the registry transport
// and the geocoder.
package httpclient

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"golang.org/x/time/rate"
)

const (
	// DefaultTimeout is the default timeout for HTTP requests
	DefaultTimeout = 30 * time.Second

	// MaxResponseSize is the maximum allowed response size (10MB)
	MaxResponseSize = 10 * 1024 * 1024

	// UserAgent is the default user agent string for HTTP requests
	UserAgent = "rir-manager/1.0"
)

// Request describes one HTTP call.
type Request struct {
	Method      string
	URL         string
	Body        []byte
	ContentType string
	Accept      string
}

// Response is a fully read HTTP response.
type Response struct {
	StatusCode int
	Header     http.Header
	Body       []byte
}

// Client is an interface for HTTP operations
type Client interface {
	// Do performs the request and returns the read response. Non-2xx
	// responses are returned together with an *HTTPError.
	Do(ctx context.Context, req Request) (*Response, error)
}

// Option configures the default client
type Option func(*DefaultClient)

// WithTimeout sets the per-request timeout
func WithTimeout(timeout time.Duration) Option {
	return func(c *DefaultClient) {
		if timeout > 0 {
			c.client.Timeout = timeout
		}
	}
}

// WithRateLimit caps the request rate. A zero rps disables limiting.
func WithRateLimit(rps float64, burst int) Option {
	return func(c *DefaultClient) {
		if rps <= 0 {
			c.limiter = nil
			return
		}
		if burst < 1 {
			burst = 1
		}
		c.limiter = rate.NewLimiter(rate.Limit(rps), burst)
	}
}

// WithUserAgent overrides the User-Agent header
func WithUserAgent(ua string) Option {
	return func(c *DefaultClient) {
		if ua != "" {
			c.userAgent = ua
		}
	}
}

// WithTransport sets the underlying round tripper
func WithTransport(rt http.RoundTripper) Option {
	return func(c *DefaultClient) {
		c.client.Transport = rt
	}
}

// DefaultClient is the default HTTP client implementation
type DefaultClient struct {
	client    *http.Client
	limiter   *rate.Limiter
	userAgent string
}

// NewDefaultClient creates a new default HTTP client
func NewDefaultClient(opts ...Option) *DefaultClient {
	c := &DefaultClient{
		client:    &http.Client{Timeout: DefaultTimeout},
		userAgent: UserAgent,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Do performs an HTTP request
func (c *DefaultClient) Do(ctx context.Context, r Request) (*Response, error) {
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, fmt.Errorf("rate limiter: %w", err)
		}
	}

	var body io.Reader
	if r.Body != nil {
		body = bytes.NewReader(r.Body)
	}

	method := r.Method
	if method == "" {
		method = http.MethodGet
	}

	req, err := http.NewRequestWithContext(ctx, method, r.URL, body)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", redactError(err))
	}

	req.Header.Set("User-Agent", c.userAgent)
	if r.Accept != "" {
		req.Header.Set("Accept", r.Accept)
	}
	if r.ContentType != "" {
		req.Header.Set("Content-Type", r.ContentType)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to execute request: %w", redactError(err))
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	if resp.ContentLength > MaxResponseSize {
		return nil, fmt.Errorf("response size %d bytes exceeds maximum allowed size of %d bytes",
			resp.ContentLength, MaxResponseSize)
	}

	// +1 to detect if limit exceeded
	data, err := io.ReadAll(io.LimitReader(resp.Body, MaxResponseSize+1))
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}
	if int64(len(data)) > MaxResponseSize {
		return nil, fmt.Errorf("response size exceeds maximum allowed size of %d bytes", MaxResponseSize)
	}

	out := &Response{StatusCode: resp.StatusCode, Header: resp.Header, Body: data}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return out, NewHTTPError(resp.StatusCode, r.URL, resp.Status)
	}
	return out, nil
}
