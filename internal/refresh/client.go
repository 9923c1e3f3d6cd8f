// Package refresh asks the remote refresh endpoint to repopulate the
// properties table before it is queried.
package refresh

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.uber.org/zap"

	"property-browser/internal/filter"
)

// ErrCircuitOpen is returned while the breaker is rejecting refreshes.
var ErrCircuitOpen = errors.New("refresh circuit breaker open")

// StatusError is returned for a non-2xx response.
type StatusError struct {
	StatusCode int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("refresh endpoint returned status %d", e.StatusCode)
}

// TokenSource returns the current session's access token, if any.
type TokenSource func(ctx context.Context) (token string, ok bool)

// Refresher triggers a remote refresh for a set of criteria.
type Refresher interface {
	Refresh(ctx context.Context, c filter.Criteria) error
}

// Config configures a Client.
type Config struct {
	BaseURL string
	Path    string
	// AnonKey is the public anonymous credential used when no session exists.
	AnonKey string
	Timeout time.Duration
	Tokens  TokenSource
	Breaker *CircuitBreaker
}

// Client calls GET <BaseURL><Path> with the criteria as query parameters.
type Client struct {
	endpoint   string
	anonKey    string
	tokens     TokenSource
	breaker    *CircuitBreaker
	httpClient *http.Client
	logger     *zap.Logger
}

// NewClient builds a refresh client.
func NewClient(cfg Config, logger *zap.Logger) (*Client, error) {
	base, err := url.Parse(cfg.BaseURL)
	if err != nil || base.Scheme == "" || base.Host == "" {
		return nil, fmt.Errorf("invalid refresh base url %q", cfg.BaseURL)
	}
	ref, err := url.Parse(cfg.Path)
	if err != nil {
		return nil, fmt.Errorf("invalid refresh path %q: %w", cfg.Path, err)
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	return &Client{
		endpoint:   base.ResolveReference(ref).String(),
		anonKey:    cfg.AnonKey,
		tokens:     cfg.Tokens,
		breaker:    cfg.Breaker,
		httpClient: &http.Client{Timeout: timeout},
		logger:     logger,
	}, nil
}

// Params returns the query parameters forwarded to the endpoint. Bathrooms
// are not understood by the upstream provider and are left out.
func Params(c filter.Criteria) url.Values {
	v := c.Values()
	v.Del("bathrooms")
	return v
}

// Refresh performs one refresh request. Any error means the refresh did not
// happen; callers treat that as non-fatal.
func (c *Client) Refresh(ctx context.Context, criteria filter.Criteria) error {
	if c.breaker != nil && !c.breaker.CanProceed() {
		return ErrCircuitOpen
	}

	target := c.endpoint
	if params := Params(criteria).Encode(); params != "" {
		sep := "?"
		if strings.Contains(target, "?") {
			sep = "&"
		}
		target += sep + params
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return fmt.Errorf("build refresh request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.bearer(ctx))
	req.Header.Set("apikey", c.anonKey)

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.recordFailure(0)
		return fmt.Errorf("refresh request: %w", err)
	}
	defer resp.Body.Close()
	// The endpoint's body is not used; drain it so the connection is reused.
	_, _ = io.Copy(io.Discard, resp.Body)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		c.recordFailure(resp.StatusCode)
		return &StatusError{StatusCode: resp.StatusCode}
	}

	if c.breaker != nil {
		c.breaker.RecordSuccess()
	}
	c.logger.Debug("refresh completed",
		zap.String("params", Params(criteria).Encode()),
		zap.Duration("duration", time.Since(start)))
	return nil
}

func (c *Client) bearer(ctx context.Context) string {
	if c.tokens != nil {
		if token, ok := c.tokens(ctx); ok && token != "" {
			return token
		}
	}
	return c.anonKey
}

func (c *Client) recordFailure(status int) {
	if c.breaker != nil {
		c.breaker.RecordFailure(status)
	}
}
