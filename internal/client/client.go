// Package client is the HTTP transport for the OilPriceAPI REST service.
// It owns authentication headers, per-request deadlines and the mapping of
// non-2xx responses to typed errors. It never retries.
package client

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/ternarybob/arbor"
)

const (
	// DefaultBaseURL is the base URL for the OilPriceAPI service.
	DefaultBaseURL = "https://api.oilpriceapi.com"

	// DefaultTimeout applies when a request is issued without a timeout.
	DefaultTimeout = 30 * time.Second

	// Version is reported in the User-Agent header.
	Version = "0.3.0"
)

// Limiter throttles outgoing requests. *infra.RateLimiter satisfies it.
type Limiter interface {
	Wait(ctx context.Context) error
}

// Client is an OilPriceAPI transport.
type Client struct {
	baseURL        string
	apiKey         string
	userAgent      string
	defaultTimeout time.Duration
	httpClient     *http.Client
	logger         arbor.ILogger
	limiter        Limiter
}

// ClientOption configures the Client.
type ClientOption func(*Client)

// WithBaseURL sets a custom base URL.
func WithBaseURL(baseURL string) ClientOption {
	return func(c *Client) {
		if baseURL != "" {
			c.baseURL = strings.TrimRight(baseURL, "/")
		}
	}
}

// WithHTTPClient sets a custom HTTP client. A Timeout set on it caps every
// request regardless of the per-request timeout.
func WithHTTPClient(httpClient *http.Client) ClientOption {
	return func(c *Client) {
		if httpClient != nil {
			c.httpClient = httpClient
		}
	}
}

// WithLogger sets a logger.
func WithLogger(logger arbor.ILogger) ClientOption {
	return func(c *Client) {
		c.logger = logger
	}
}

// WithDefaultTimeout sets the timeout used when Request receives zero.
func WithDefaultTimeout(d time.Duration) ClientOption {
	return func(c *Client) {
		if d > 0 {
			c.defaultTimeout = d
		}
	}
}

// WithUserAgent overrides the User-Agent header.
func WithUserAgent(ua string) ClientOption {
	return func(c *Client) {
		if ua != "" {
			c.userAgent = ua
		}
	}
}

// WithRateLimiter throttles requests through l.
func WithRateLimiter(l Limiter) ClientOption {
	return func(c *Client) {
		c.limiter = l
	}
}

// NewClient creates a new transport. An empty apiKey is a configuration error.
func NewClient(apiKey string, opts ...ClientOption) (*Client, error) {
	apiKey = strings.TrimSpace(apiKey)
	if apiKey == "" {
		return nil, ErrMissingAPIKey
	}

	c := &Client{
		baseURL:        DefaultBaseURL,
		apiKey:         apiKey,
		userAgent:      "oilprice-go/" + Version,
		defaultTimeout: DefaultTimeout,
		// No client-wide Timeout: deadlines are set per request.
		httpClient: &http.Client{},
	}

	for _, opt := range opts {
		opt(c)
	}

	return c, nil
}

// BaseURL returns the configured base URL.
func (c *Client) BaseURL() string { return c.baseURL }

// Request performs one HTTP call against path with the given query and
// returns the raw response body. A timeout of zero uses the default timeout.
func (c *Client) Request(ctx context.Context, method, path string, query url.Values, timeout time.Duration) ([]byte, error) {
	if timeout <= 0 {
		timeout = c.defaultTimeout
	}

	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, &TransportError{Method: method, Endpoint: path, Err: err}
		}
	}

	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	reqURL := c.baseURL + path
	if len(query) > 0 {
		reqURL += "?" + query.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, method, reqURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	requestID := uuid.NewString()
	req.Header.Set("Authorization", "Token "+c.apiKey)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("X-Request-Id", requestID)

	if c.logger != nil {
		c.logger.Debug().
			Str("method", method).
			Str("path", path).
			Str("request_id", requestID).
			Str("timeout", timeout.String()).
			Msg("OilPriceAPI request")
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		terr := &TransportError{Method: method, Endpoint: path, Timeout: isTimeout(ctx, err), Err: err}
		if c.logger != nil {
			c.logger.Warn().Err(err).Str("path", path).Str("request_id", requestID).Bool("timeout", terr.Timeout).Msg("OilPriceAPI request failed")
		}
		return nil, terr
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &TransportError{Method: method, Endpoint: path, Timeout: isTimeout(ctx, err), Err: fmt.Errorf("failed to read response: %w", err)}
	}

	if c.logger != nil {
		c.logger.Debug().
			Str("path", path).
			Int("status", resp.StatusCode).
			Int("bytes", len(body)).
			Str("elapsed", time.Since(start).String()).
			Msg("OilPriceAPI response")
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, newAPIError(resp, body, path, requestID)
	}

	return body, nil
}

// Get is Request with method GET.
func (c *Client) Get(ctx context.Context, path string, query url.Values, timeout time.Duration) ([]byte, error) {
	return c.Request(ctx, http.MethodGet, path, query, timeout)
}

func isTimeout(ctx context.Context, err error) bool {
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}
