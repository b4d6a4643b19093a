package resilience

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/sony/gobreaker/v2"
)

const defaultClientTimeout = 5 * time.Second

// ClientConfig configures a guarded HTTP client for a REST data backend.
type ClientConfig struct {
	Name string

	// Timeout bounds each attempt, not the whole retry sequence.
	Timeout time.Duration

	// UserAgent is sent on every request that does not set its own.
	UserAgent string

	Retry          RetryConfig
	CircuitBreaker *CircuitBreakerConfig

	// Registry, if set, tracks the health of this backend.
	Registry *Registry
}

// DefaultClientConfig returns the settings used for the PostgREST backend.
func DefaultClientConfig(name string) ClientConfig {
	cb := DefaultCircuitBreakerConfig(name)
	return ClientConfig{
		Name:           name,
		Timeout:        defaultClientTimeout,
		UserAgent:      "statusboard",
		Retry:          DefaultRetryConfig(),
		CircuitBreaker: &cb,
	}
}

// Client sends HTTP requests through a Guard. Responses with a retryable
// status count as failures towards the breaker.
type Client struct {
	name       string
	userAgent  string
	httpClient *http.Client
	guard      *Guard[*http.Response]
}

// NewClient creates a guarded HTTP client.
func NewClient(cfg ClientConfig) *Client {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultClientTimeout
	}

	return &Client{
		name:       cfg.Name,
		userAgent:  cfg.UserAgent,
		httpClient: &http.Client{Timeout: timeout},
		guard: NewGuard[*http.Response](GuardConfig{
			Name:           cfg.Name,
			Retry:          cfg.Retry,
			CircuitBreaker: cfg.CircuitBreaker,
			Registry:       cfg.Registry,
		}),
	}
}

// Name returns the backend name.
func (c *Client) Name() string {
	return c.name
}

// Do sends req, retrying network errors and retryable statuses until the
// retry budget or the request context runs out. Bodies of discarded
// responses are closed. When retries are exhausted on a status the error is
// an *UpstreamError. Any other response is returned for the caller to close.
func (c *Client) Do(req *http.Request) (*http.Response, error) {
	return c.guard.Execute(req.Context(), func(ctx context.Context) (*http.Response, error) {
		attempt := req.Clone(ctx)
		if c.userAgent != "" && attempt.Header.Get("User-Agent") == "" {
			attempt.Header.Set("User-Agent", c.userAgent)
		}

		resp, err := c.httpClient.Do(attempt)
		if err != nil {
			return nil, err
		}
		if retryableStatus(resp.StatusCode) {
			resp.Body.Close()
			return nil, &UpstreamError{Backend: c.name, StatusCode: resp.StatusCode}
		}
		return resp, nil
	})
}

// CircuitBreakerState returns the breaker state.
func (c *Client) CircuitBreakerState() gobreaker.State {
	return c.guard.State()
}

// CircuitBreakerCounts returns the breaker counters for the current
// generation.
func (c *Client) CircuitBreakerCounts() gobreaker.Counts {
	return c.guard.Counts()
}

func retryableStatus(code int) bool {
	return code >= http.StatusInternalServerError || code == http.StatusTooManyRequests
}

// UpstreamError reports a backend response whose status signals a transient
// failure.
type UpstreamError struct {
	Backend    string
	StatusCode int
}

func (e *UpstreamError) Error() string {
	return fmt.Sprintf("%s: upstream returned %d %s", e.Backend, e.StatusCode, http.StatusText(e.StatusCode))
}
