package evaluator

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"
)

// maxBodyBytes caps how much of a reply is read.
const maxBodyBytes = 1 << 20

// HTTPConfig configures an HTTPClient.
type HTTPConfig struct {
	// BaseURL is the service root, e.g. "http://localhost:8000".
	BaseURL string

	// AccessToken is sent as a bearer token when non-empty.
	AccessToken string

	// Timeout bounds a single HTTP exchange. Default: 10s.
	Timeout time.Duration
}

// HTTPClient talks to the evaluation service over JSON/HTTP.
type HTTPClient struct {
	baseURL string
	token   string
	http    *http.Client
}

var _ Client = (*HTTPClient)(nil)

// NewHTTPClient creates an HTTPClient.
func NewHTTPClient(cfg HTTPConfig) (*HTTPClient, error) {
	if cfg.BaseURL == "" {
		return nil, fmt.Errorf("evaluation service base URL is required")
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &HTTPClient{
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		token:   cfg.AccessToken,
		http:    &http.Client{Timeout: timeout},
	}, nil
}

func (c *HTTPClient) Next(ctx context.Context, req Request) (*Response, error) {
	body, err := c.post(ctx, "/quiz/next", req)
	if err != nil {
		return nil, err
	}
	return decodeResponse(body)
}

func (c *HTTPClient) LogMistake(ctx context.Context, notice MistakeNotice) error {
	_, err := c.post(ctx, "/quiz/log_mistake", notice)
	return err
}

// post sends payload as JSON and returns the reply body of a 2xx response.
func (c *HTTPClient) post(ctx context.Context, path string, payload any) ([]byte, error) {
	reqBody, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(reqBody))
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Accept", "application/json")
	if c.token != "" {
		httpReq.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.http.Do(httpReq)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, &ErrUnavailable{Err: err}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil, &ErrUnavailable{StatusCode: resp.StatusCode, Err: fmt.Errorf("read body: %w", err)}
	}

	switch {
	case resp.StatusCode >= 200 && resp.StatusCode < 300:
		return body, nil
	case resp.StatusCode == http.StatusTooManyRequests:
		return nil, &ErrRateLimit{
			RetryAfter: parseRetryAfter(resp.Header.Get("Retry-After")),
			Err:        fmt.Errorf("%s", errorDetail(body)),
		}
	case resp.StatusCode >= 500:
		return nil, &ErrUnavailable{StatusCode: resp.StatusCode, Err: fmt.Errorf("%s", errorDetail(body))}
	default:
		return nil, &ErrRejected{StatusCode: resp.StatusCode, Detail: errorDetail(body)}
	}
}

// errorDetail extracts the "detail" field error bodies carry, falling back
// to the raw body.
func errorDetail(body []byte) string {
	var e struct {
		Detail any `json:"detail"`
	}
	if json.Unmarshal(body, &e) == nil && e.Detail != nil {
		if s, ok := e.Detail.(string); ok {
			return s
		}
		b, _ := json.Marshal(e.Detail)
		return string(b)
	}
	s := strings.TrimSpace(string(body))
	if len(s) > 200 {
		s = s[:200]
	}
	return s
}

func parseRetryAfter(v string) time.Duration {
	if v == "" {
		return 0
	}
	if secs, err := strconv.Atoi(v); err == nil && secs > 0 {
		return time.Duration(secs) * time.Second
	}
	if t, err := http.ParseTime(v); err == nil {
		if d := time.Until(t); d > 0 {
			return d
		}
	}
	return 0
}
