// Package graphql executes console list queries against a GraphQL endpoint and adapts
// their paged results to collection.DataSource.
package graphql

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"catalogview/internal/collection"

	"github.com/cenkalti/backoff/v4"
	"github.com/rs/zerolog/log"
)

const maxErrorBody = 512

type ctxKey string

const ctxBearer ctxKey = "bearer_token"

// WithBearer stores the caller's token; Client forwards it as an Authorization header
func WithBearer(ctx context.Context, token string) context.Context {
	return context.WithValue(ctx, ctxBearer, token)
}

// Bearer returns the token stored by WithBearer
func Bearer(ctx context.Context) (string, bool) {
	v, ok := ctx.Value(ctxBearer).(string)
	return v, ok && v != ""
}

// Request is the JSON body of a GraphQL POST
type Request struct {
	OperationName string         `json:"operationName,omitempty"`
	Query         string         `json:"query"`
	Variables     map[string]any `json:"variables,omitempty"`
}

// Envelope is the JSON body of a GraphQL response
type Envelope struct {
	Data   json.RawMessage          `json:"data"`
	Errors []collection.RemoteError `json:"errors,omitempty"`
}

// StatusError is a non-2xx answer that carried no GraphQL errors
type StatusError struct {
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("graphql endpoint returned %d", e.StatusCode)
	}
	return fmt.Sprintf("graphql endpoint returned %d: %s", e.StatusCode, e.Body)
}

// Temporary reports whether retrying may help
func (e *StatusError) Temporary() bool {
	return e.StatusCode >= 500 || e.StatusCode == http.StatusTooManyRequests
}

// Options tunes a Client
type Options struct {
	Timeout      time.Duration
	MaxRetries   int
	InitialDelay time.Duration // first retry delay, grows exponentially
	HTTPClient   *http.Client
	UserAgent    string
}

// Client posts GraphQL documents to one endpoint
type Client struct {
	client     *http.Client
	endpoint   string
	maxRetries int
	delay      time.Duration
	userAgent  string
}

// NewClient creates a client with default settings for zero option values
func NewClient(endpoint string, opts Options) *Client {
	if opts.Timeout == 0 {
		opts.Timeout = 30 * time.Second
	}
	if opts.InitialDelay == 0 {
		opts.InitialDelay = 200 * time.Millisecond
	}
	if opts.MaxRetries < 0 {
		opts.MaxRetries = 0
	}
	if opts.UserAgent == "" {
		opts.UserAgent = "catalogview/graphql"
	}
	hc := opts.HTTPClient
	if hc == nil {
		hc = &http.Client{Timeout: opts.Timeout}
	}
	return &Client{
		client:     hc,
		endpoint:   endpoint,
		maxRetries: opts.MaxRetries,
		delay:      opts.InitialDelay,
		userAgent:  opts.UserAgent,
	}
}

// Endpoint returns the URL queries are posted to
func (c *Client) Endpoint() string {
	return c.endpoint
}

// CloseIdleConnections releases pooled keep-alive connections
func (c *Client) CloseIdleConnections() {
	c.client.CloseIdleConnections()
}

// Do posts req and decodes the envelope. Network failures, 5xx and 429 are retried;
// any other non-2xx status without GraphQL errors fails immediately.
func (c *Client) Do(ctx context.Context, req Request) (*Envelope, error) {
	body, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal graphql request: %w", err)
	}

	policy := backoff.NewExponentialBackOff()
	policy.InitialInterval = c.delay
	policy.MaxElapsedTime = 0
	b := backoff.WithContext(backoff.WithMaxRetries(policy, uint64(c.maxRetries)), ctx)

	var env *Envelope
	attempt := 0
	err = backoff.Retry(func() error {
		attempt++
		var err error
		env, err = c.post(ctx, req.OperationName, body)
		if err == nil {
			return nil
		}
		var se *StatusError
		if errors.As(err, &se) && !se.Temporary() {
			return backoff.Permanent(err)
		}
		if errors.Is(err, errDecode) || ctx.Err() != nil {
			return backoff.Permanent(err)
		}
		log.Warn().
			Str("operation", req.OperationName).
			Int("attempt", attempt).
			Err(err).
			Msg("graphql request failed")
		return err
	}, b)
	if err != nil {
		return nil, err
	}
	return env, nil
}

var errDecode = errors.New("invalid graphql response")

func (c *Client) post(ctx context.Context, operation string, body []byte) (*Envelope, error) {
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Accept", "application/json")
	httpReq.Header.Set("User-Agent", c.userAgent)
	if token, ok := Bearer(ctx); ok {
		httpReq.Header.Set("Authorization", "Bearer "+token)
	}

	log.Debug().
		Str("operation", operation).
		Str("url", c.endpoint).
		Msg("making graphql request")

	resp, err := c.client.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("graphql request failed: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read graphql response: %w", err)
	}

	log.Debug().
		Str("operation", operation).
		Int("status_code", resp.StatusCode).
		Int("body_length", len(raw)).
		Msg("received graphql response")

	var env Envelope
	decodeErr := json.Unmarshal(raw, &env)

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		// servers answer validation failures with 400 and a regular errors list
		if decodeErr == nil && len(env.Errors) > 0 && resp.StatusCode < 500 {
			return &env, nil
		}
		return nil, &StatusError{StatusCode: resp.StatusCode, Body: truncate(string(raw), maxErrorBody)}
	}
	if decodeErr != nil {
		return nil, fmt.Errorf("%w: %v", errDecode, decodeErr)
	}
	return &env, nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
