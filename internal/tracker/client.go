package tracker

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"
)

// Default API parameters for a Monday-style board API.
const (
	// DefaultAPIURL is the GraphQL endpoint tasks are reported to.
	DefaultAPIURL = "https://api.monday.com/v2"

	// apiVersion pins the board API version so response shapes stay stable.
	apiVersion = "2024-01"

	// defaultPageSize is how many items one list query requests.
	defaultPageSize = 100
)

// Tracker errors.
var (
	// ErrGraphQL is returned when the API accepts the request but reports
	// errors in the response body.
	ErrGraphQL = errors.New("tracker api returned errors")

	// ErrTaskCreation is returned when a create mutation yields no task ID.
	ErrTaskCreation = errors.New("task creation returned no id")
)

// Client talks to a task-tracker board over its GraphQL API.
//
// Design decision: We issue raw GraphQL over net/http rather than pulling in
// a GraphQL client library. The board API needs exactly two request shapes,
// a query and a mutation, both plain JSON POSTs; a schema-aware client would
// add code generation for no benefit at this size.
type Client struct {
	// httpClient performs the API requests.
	httpClient *http.Client

	// apiURL is the GraphQL endpoint.
	apiURL string

	// token is the API token sent in the Authorization header.
	token string

	// boardID is the board all queries and mutations target.
	boardID string

	// pageSize bounds items returned per list request.
	pageSize int

	// logger receives request diagnostics.
	logger *slog.Logger

	// groupIDs caches group title → ID after EnsureGroups.
	groupIDs map[string]string
}

// ClientOption configures a Client.
type ClientOption func(*Client)

// WithHTTPClient sets the HTTP client used for API calls.
func WithHTTPClient(c *http.Client) ClientOption {
	return func(cl *Client) {
		cl.httpClient = c
	}
}

// WithAPIURL overrides the GraphQL endpoint.
func WithAPIURL(url string) ClientOption {
	return func(cl *Client) {
		cl.apiURL = url
	}
}

// WithPageSize sets how many items one list query requests.
func WithPageSize(n int) ClientOption {
	return func(cl *Client) {
		cl.pageSize = n
	}
}

// WithLogger sets the logger for request diagnostics.
func WithLogger(logger *slog.Logger) ClientOption {
	return func(cl *Client) {
		cl.logger = logger
	}
}

// NewClient creates a board API client for one board.
func NewClient(token, boardID string, opts ...ClientOption) *Client {
	c := &Client{
		httpClient: &http.Client{Timeout: 30 * time.Second},
		apiURL:     DefaultAPIURL,
		token:      token,
		boardID:    boardID,
		pageSize:   defaultPageSize,
		logger:     slog.Default(),
		groupIDs:   make(map[string]string),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// graphQLError is one entry of a GraphQL errors array.
type graphQLError struct {
	Message string `json:"message"`
}

// execute POSTs one GraphQL request and decodes the data field into out.
func (c *Client) execute(ctx context.Context, query string, variables map[string]any, out any) error {
	payload, err := json.Marshal(map[string]any{
		"query":     query,
		"variables": variables,
	})
	if err != nil {
		return fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.apiURL, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Authorization", c.token)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("API-Version", apiVersion)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("tracker request: %w", err)
	}
	defer resp.Body.Close() //nolint:errcheck // Read errors surface below.

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read tracker response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("tracker api status %d: %s", resp.StatusCode, body)
	}

	var envelope struct {
		Data   json.RawMessage `json:"data"`
		Errors []graphQLError  `json:"errors"`
	}
	if err := json.Unmarshal(body, &envelope); err != nil {
		return fmt.Errorf("decode tracker response: %w", err)
	}
	if len(envelope.Errors) > 0 {
		return fmt.Errorf("%w: %s", ErrGraphQL, envelope.Errors[0].Message)
	}

	if out != nil {
		if err := json.Unmarshal(envelope.Data, out); err != nil {
			return fmt.Errorf("decode tracker data: %w", err)
		}
	}
	return nil
}
