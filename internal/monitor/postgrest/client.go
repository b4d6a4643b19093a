// Package postgrest reads monitors from a hosted PostgREST-style table API,
// the kind exposed by managed Postgres backends.
package postgrest

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/statusboard/statusboard/internal/backend/resilience"
	"github.com/statusboard/statusboard/internal/monitor"
)

const (
	// BackendName identifies this source in health reports.
	BackendName = "postgrest"

	// maxErrorBody limits how much of an error response is read.
	maxErrorBody = 4096
)

// Config holds configuration for the REST source.
type Config struct {
	// BaseURL is the project URL, e.g. https://xyz.example.co.
	BaseURL string

	// APIKey is sent as both the apikey header and the bearer token.
	APIKey string

	// Table is the monitors table name. Default: monitors
	Table string

	// HTTPClient is the resilient client used for requests.
	// If nil, one is created with resilience.DefaultClientConfig.
	HTTPClient *resilience.Client
}

// Client lists monitors over HTTP.
type Client struct {
	baseURL    string
	apiKey     string
	table      string
	httpClient *resilience.Client
}

// NewClient creates a new REST monitor source.
func NewClient(cfg Config) *Client {
	table := cfg.Table
	if table == "" {
		table = "monitors"
	}

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = resilience.NewClient(resilience.DefaultClientConfig(BackendName))
	}

	return &Client{
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
		apiKey:     cfg.APIKey,
		table:      table,
		httpClient: httpClient,
	}
}

// ListMonitors fetches every monitor ordered by status descending, then title.
func (c *Client) ListMonitors(ctx context.Context) ([]monitor.Monitor, error) {
	query := url.Values{}
	query.Set("select", "*")
	query.Set("order", "status.desc,title.asc")

	reqURL := fmt.Sprintf("%s/rest/v1/%s?%s", c.baseURL, url.PathEscape(c.table), query.Encode())

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, http.NoBody)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if c.apiKey != "" {
		req.Header.Set("apikey", c.apiKey)
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("listing %s: %w", c.table, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, decodeError(resp)
	}

	var rows []monitorRow
	if err := json.NewDecoder(resp.Body).Decode(&rows); err != nil {
		return nil, fmt.Errorf("decoding %s: %w", c.table, err)
	}

	monitors := make([]monitor.Monitor, 0, len(rows))
	for _, row := range rows {
		monitors = append(monitors, row.toMonitor())
	}

	return monitors, nil
}

// StatusError is returned for non-200 responses.
type StatusError struct {
	StatusCode int
	Code       string
	Message    string
}

func (e *StatusError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("postgrest: unexpected status %d", e.StatusCode)
	}
	if e.Code == "" {
		return fmt.Sprintf("postgrest: status %d: %s", e.StatusCode, e.Message)
	}
	return fmt.Sprintf("postgrest: status %d (%s): %s", e.StatusCode, e.Code, e.Message)
}

func decodeError(resp *http.Response) error {
	statusErr := &StatusError{StatusCode: resp.StatusCode}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
	if err != nil || len(body) == 0 {
		return statusErr
	}

	var apiErr apiError
	if json.Unmarshal(body, &apiErr) == nil && apiErr.Message != "" {
		statusErr.Code = apiErr.Code
		statusErr.Message = apiErr.Message
		return statusErr
	}

	statusErr.Message = strings.TrimSpace(string(body))
	return statusErr
}

var _ monitor.Source = (*Client)(nil)
