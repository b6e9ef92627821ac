package auth

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/rs/zerolog/log"

	model "github.com/zhouzirui/advice-chat/internal/model/auth"
)

const defaultErrorMessage = "Something went wrong"

var ErrEmptyCredentials = errors.New("username and password are required")

// AuthError carries the message returned by the auth service.
type AuthError struct {
	StatusCode int
	Message    string
}

func (e *AuthError) Error() string {
	return e.Message
}

// Client talks to the login/registration endpoints.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// NewClient creates a client rooted at baseURL. A nil httpClient uses
// http.DefaultClient.
func NewClient(baseURL string, httpClient *http.Client) *Client {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: httpClient,
	}
}

// Login exchanges credentials for an access token.
func (c *Client) Login(ctx context.Context, username, password string) (Token, error) {
	body, err := c.post(ctx, "/login", username, password)
	if err != nil {
		return Token{}, err
	}

	var resp model.LoginResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return Token{}, fmt.Errorf("decode login response: %w", err)
	}
	if resp.AccessToken == "" {
		return Token{}, &AuthError{StatusCode: http.StatusOK, Message: "login response has no access token"}
	}

	log.Info().Str("username", username).Msg("login succeeded")
	return NewToken(resp.AccessToken), nil
}

// Register creates an account. The caller logs in separately afterwards.
func (c *Client) Register(ctx context.Context, username, password string) error {
	if _, err := c.post(ctx, "/register", username, password); err != nil {
		return err
	}
	log.Info().Str("username", username).Msg("registration succeeded")
	return nil
}

func (c *Client) post(ctx context.Context, path, username, password string) ([]byte, error) {
	if strings.TrimSpace(username) == "" || password == "" {
		return nil, ErrEmptyCredentials
	}

	payload, err := json.Marshal(model.Credentials{Username: username, Password: password})
	if err != nil {
		return nil, fmt.Errorf("encode credentials: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("build %s request: %w", path, err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%s request: %w", path, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read %s response: %w", path, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		message := defaultErrorMessage
		var errBody model.ErrorResponse
		if json.Unmarshal(body, &errBody) == nil && errBody.Error != "" {
			message = errBody.Error
		}
		log.Warn().Str("path", path).Int("status", resp.StatusCode).Msg("auth request rejected")
		return nil, &AuthError{StatusCode: resp.StatusCode, Message: message}
	}

	return body, nil
}
