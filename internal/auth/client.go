// Package auth exchanges email and password for an access token and keeps
// the result in the local journal.
package auth

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// Error is a non-2xx reply from the authentication service.
type Error struct {
	StatusCode int
	Detail     string
}

func (e *Error) Error() string {
	if e.Detail != "" {
		return fmt.Sprintf("auth: %s (status %d)", e.Detail, e.StatusCode)
	}
	return fmt.Sprintf("auth: status %d", e.StatusCode)
}

// Client talks to the /auth endpoints of the quiz service.
type Client struct {
	baseURL string
	http    *http.Client
}

// NewClient creates a Client for the service at baseURL.
func NewClient(baseURL string, timeout time.Duration) (*Client, error) {
	if baseURL == "" {
		return nil, fmt.Errorf("auth: base URL is required")
	}
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: timeout},
	}, nil
}

type credentialsRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Login exchanges an existing account's email and password for credentials.
func (c *Client) Login(ctx context.Context, email, password string) (*Credentials, error) {
	return c.exchange(ctx, "/auth/login", email, password)
}

// Signup creates an account and returns its credentials.
func (c *Client) Signup(ctx context.Context, email, password string) (*Credentials, error) {
	return c.exchange(ctx, "/auth/signup", email, password)
}

func (c *Client) exchange(ctx context.Context, path, email, password string) (*Credentials, error) {
	body, err := json.Marshal(credentialsRequest{Email: email, Password: password})
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("auth request: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		var detail struct {
			Detail string `json:"detail"`
		}
		_ = json.Unmarshal(raw, &detail)
		return nil, &Error{StatusCode: resp.StatusCode, Detail: detail.Detail}
	}

	var creds Credentials
	if err := json.Unmarshal(raw, &creds); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}
	if creds.AccessToken == "" {
		return nil, fmt.Errorf("auth: response carried no access token")
	}
	return &creds, nil
}
