package llm

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"google.golang.org/genai"
)

// ErrEmptyResponse is returned when the model replies with no usable text.
var ErrEmptyResponse = errors.New("model returned an empty response")

// Completer is the minimal surface the evaluator needs from a model client.
// It must fail closed: any error degrades the affected rules to unknown at
// the evaluator level rather than aborting the run.
//
// Design decision: We define the interface here, at the consumer, so tests
// substitute a fake without touching the network and the production client
// stays swappable for other schema-capable model backends.
type Completer interface {
	// CompleteJSON sends one prompt and returns the raw JSON text of the
	// model's response, constrained by the given response schema.
	CompleteJSON(ctx context.Context, system, user string, schema *genai.Schema) (string, error)
}

// Default client settings.
const (
	// DefaultCallTimeout bounds one model call when the caller's context
	// carries no deadline of its own.
	DefaultCallTimeout = 90 * time.Second

	// DefaultMaxRetries is how many times a rate-limited or transient
	// failure is retried before the call is given up.
	DefaultMaxRetries = 3
)

// GeminiClient implements Completer against the Gemini API.
type GeminiClient struct {
	client     *genai.Client
	model      string
	timeout    time.Duration
	maxRetries int
	logger     *slog.Logger
}

// GeminiOption configures a GeminiClient.
type GeminiOption func(*GeminiClient)

// WithCallTimeout sets the per-call timeout applied when the caller's
// context has no deadline.
func WithCallTimeout(d time.Duration) GeminiOption {
	return func(c *GeminiClient) {
		c.timeout = d
	}
}

// WithMaxRetries sets the retry budget for transient failures.
func WithMaxRetries(n int) GeminiOption {
	return func(c *GeminiClient) {
		c.maxRetries = n
	}
}

// WithClientLogger sets the logger for retry and failure events.
func WithClientLogger(logger *slog.Logger) GeminiOption {
	return func(c *GeminiClient) {
		c.logger = logger
	}
}

// NewGeminiClient creates a Gemini-backed Completer.
func NewGeminiClient(ctx context.Context, apiKey, model string, opts ...GeminiOption) (*GeminiClient, error) {
	if apiKey == "" {
		return nil, errors.New("gemini api key is required")
	}
	if model == "" {
		return nil, errors.New("gemini model name is required")
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey: apiKey,
	})
	if err != nil {
		return nil, fmt.Errorf("create gemini client: %w", err)
	}

	c := &GeminiClient{
		client:     client,
		model:      model,
		timeout:    DefaultCallTimeout,
		maxRetries: DefaultMaxRetries,
		logger:     slog.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// CompleteJSON sends one schema-constrained prompt to the model.
// Rate-limited and transient failures are retried with exponential backoff;
// other errors return immediately.
func (c *GeminiClient) CompleteJSON(ctx context.Context, system, user string, schema *genai.Schema) (string, error) {
	// Bound the call if the caller didn't.
	if _, ok := ctx.Deadline(); !ok {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	cfg := &genai.GenerateContentConfig{
		ResponseMIMEType: "application/json",
		ResponseSchema:   schema,
	}
	if system != "" {
		cfg.SystemInstruction = genai.NewContentFromText(system, genai.RoleUser)
	}

	var lastErr error
	for attempt := 0; attempt <= c.maxRetries; attempt++ {
		if attempt > 0 {
			backoff := time.Duration(1<<uint(attempt)) * time.Second
			c.logger.Debug("retrying model call",
				"attempt", attempt,
				"backoff", backoff,
				"error", lastErr)
			select {
			case <-ctx.Done():
				return "", ctx.Err()
			case <-time.After(backoff):
			}
		}

		resp, err := c.client.Models.GenerateContent(ctx, c.model, genai.Text(user), cfg)
		if err != nil {
			lastErr = err
			if !isRetryable(err) {
				return "", fmt.Errorf("model call: %w", err)
			}
			continue
		}

		text := resp.Text()
		if text == "" {
			return "", ErrEmptyResponse
		}
		return text, nil
	}

	return "", fmt.Errorf("model call failed after %d attempts: %w", c.maxRetries+1, lastErr)
}

// isRetryable reports whether an error is worth retrying: rate limits and
// transient server-side failures. Auth and bad-request errors are not.
func isRetryable(err error) bool {
	var apiErr genai.APIError
	if errors.As(err, &apiErr) {
		switch apiErr.Code {
		case 429, 500, 502, 503, 504:
			return true
		default:
			return false
		}
	}
	// Network-level errors without an API code are treated as transient.
	return !errors.Is(err, context.Canceled) && !errors.Is(err, context.DeadlineExceeded)
}
