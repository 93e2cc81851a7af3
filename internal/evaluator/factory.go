package evaluator

import (
	"fmt"
	"log"

	"github.com/abhisek/sketchbook/internal/store"
)

// Config holds everything needed to build the client stack.
type Config struct {
	HTTP  HTTPConfig
	Retry RetryConfig
}

// New creates the evaluation client used by sessions.
// Middleware order: caller → tracing → retry → journal → HTTP, so each
// attempt is journaled and the span covers the retries.
// eventRepo may be nil to skip journaling.
func New(cfg Config, eventRepo store.EventRepo, logger *log.Logger) (Client, error) {
	base, err := NewHTTPClient(cfg.HTTP)
	if err != nil {
		return nil, fmt.Errorf("initializing evaluation client: %w", err)
	}

	var c Client = base
	if eventRepo != nil {
		c = WithJournal(c, eventRepo, logger)
	}
	c = WithRetry(c, cfg.Retry)
	return WithTracing(c), nil
}
