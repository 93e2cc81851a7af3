package evaluator

import (
	"encoding/json"
	"fmt"
	"time"
)

// ErrRateLimit indicates the service returned 429.
type ErrRateLimit struct {
	RetryAfter time.Duration
	Err        error
}

func (e *ErrRateLimit) Error() string {
	return fmt.Sprintf("rate limited (retry after %s): %v", e.RetryAfter, e.Err)
}

func (e *ErrRateLimit) Unwrap() error { return e.Err }

// ErrInvalidResponse indicates the service replied with a body that is not
// valid JSON or does not conform to the response schema.
type ErrInvalidResponse struct {
	Body json.RawMessage
	Err  error
}

func (e *ErrInvalidResponse) Error() string {
	return fmt.Sprintf("invalid evaluation response: %v", e.Err)
}

func (e *ErrInvalidResponse) Unwrap() error { return e.Err }

// ErrUnavailable indicates the service is down or unreachable.
type ErrUnavailable struct {
	StatusCode int // 0 for transport errors
	Err        error
}

func (e *ErrUnavailable) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("evaluation service unavailable (status %d): %v", e.StatusCode, e.Err)
	}
	return fmt.Sprintf("evaluation service unavailable: %v", e.Err)
}

func (e *ErrUnavailable) Unwrap() error { return e.Err }

// ErrRejected indicates the service refused the request (4xx other than
// 429). Retrying the same request will not help.
type ErrRejected struct {
	StatusCode int
	Detail     string
}

func (e *ErrRejected) Error() string {
	if e.Detail != "" {
		return fmt.Sprintf("evaluation request rejected (status %d): %s", e.StatusCode, e.Detail)
	}
	return fmt.Sprintf("evaluation request rejected (status %d)", e.StatusCode)
}
