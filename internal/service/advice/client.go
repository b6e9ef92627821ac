package advice

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	model "github.com/zhouzirui/advice-chat/internal/model/advice"
)

// Path is the advice endpoint relative to the service base URL.
const Path = "/api/get_advice"

// maxErrorBody caps how much of a failed response body ends up in logs.
const maxErrorBody = 512

// ErrRequestFailed matches every *RequestFailure through errors.Is.
var ErrRequestFailed = errors.New("advice request failed")

// RequestFailure covers transport errors, non-2xx statuses and unusable
// response bodies.
type RequestFailure struct {
	RequestID  string
	StatusCode int
	Body       string
	Err        error
}

func (e *RequestFailure) Error() string {
	switch {
	case e.StatusCode != 0 && e.Err != nil:
		return fmt.Sprintf("advice request %s: status %d: %v", e.RequestID, e.StatusCode, e.Err)
	case e.StatusCode != 0:
		return fmt.Sprintf("advice request %s: status %d", e.RequestID, e.StatusCode)
	default:
		return fmt.Sprintf("advice request %s: %v", e.RequestID, e.Err)
	}
}

func (e *RequestFailure) Unwrap() error { return e.Err }

// Is lets errors.Is(err, ErrRequestFailed) hold for any RequestFailure.
func (e *RequestFailure) Is(target error) bool { return target == ErrRequestFailed }

// Option customises a Client.
type Option func(*Client)

// WithHTTPClient swaps the underlying HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// WithTimeout bounds every request.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) { c.timeout = d }
}

// WithBearerToken attaches an Authorization header to every request.
func WithBearerToken(token string) Option {
	return func(c *Client) { c.token = strings.TrimSpace(token) }
}

// Client talks to the remote advice service.
type Client struct {
	baseURL    string
	httpClient *http.Client
	timeout    time.Duration
	token      string
}

// NewClient creates a client for the service rooted at baseURL.
func NewClient(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: http.DefaultClient,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// GetAdvice posts message and returns the advice text.
func (c *Client) GetAdvice(ctx context.Context, message string) (string, error) {
	requestID := RequestIDFromContext(ctx)
	if requestID == "" {
		requestID = uuid.NewString()
	}

	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	payload, err := json.Marshal(model.Request{Message: message})
	if err != nil {
		return "", &RequestFailure{RequestID: requestID, Err: fmt.Errorf("encode request: %w", err)}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+Path, bytes.NewReader(payload))
	if err != nil {
		return "", &RequestFailure{RequestID: requestID, Err: fmt.Errorf("build request: %w", err)}
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Request-Id", requestID)
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	started := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", &RequestFailure{RequestID: requestID, Err: err}
	}
	defer resp.Body.Close()

	log.Debug().
		Str("request_id", requestID).
		Int("status", resp.StatusCode).
		Dur("elapsed", time.Since(started)).
		Msg("advice response received")

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		failure := &RequestFailure{
			RequestID:  requestID,
			StatusCode: resp.StatusCode,
			Body:       strings.TrimSpace(string(body)),
		}
		var errBody model.ErrorResponse
		if json.Unmarshal(body, &errBody) == nil && errBody.Error != "" {
			failure.Err = errors.New(errBody.Error)
		}
		return "", failure
	}

	var decoded model.Response
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return "", &RequestFailure{RequestID: requestID, StatusCode: resp.StatusCode, Err: fmt.Errorf("decode response: %w", err)}
	}
	if decoded.Advice == nil {
		return "", &RequestFailure{RequestID: requestID, StatusCode: resp.StatusCode, Err: errors.New("response has no advice field")}
	}

	return *decoded.Advice, nil
}
