package evaluator

import (
	"context"
	"encoding/json"
	"log"
	"time"

	"github.com/abhisek/sketchbook/internal/store"
)

type contextKey string

const sessionKey contextKey = "evaluator_session"

// WithSessionID attaches the quiz session ID to ctx for journaling.
func WithSessionID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, sessionKey, id)
}

// SessionIDFrom extracts the quiz session ID from ctx.
func SessionIDFrom(ctx context.Context) string {
	if v, ok := ctx.Value(sessionKey).(string); ok {
		return v
	}
	return ""
}

// JournalClient is a decorator that records every call in the event journal.
type JournalClient struct {
	inner     Client
	eventRepo store.EventRepo
	logger    *log.Logger
}

// WithJournal wraps a Client with event journaling. Journal failures are
// logged and never fail the call.
func WithJournal(c Client, repo store.EventRepo, logger *log.Logger) Client {
	return &JournalClient{inner: c, eventRepo: repo, logger: logger}
}

func (j *JournalClient) Next(ctx context.Context, req Request) (*Response, error) {
	start := time.Now()
	resp, err := j.inner.Next(ctx, req)

	data := store.EvaluationEventData{
		SessionID:   SessionIDFrom(ctx),
		Endpoint:    store.EndpointNext,
		QuestionID:  req.QuestionID,
		RequestBody: marshalOrEmpty(req),
		LatencyMs:   time.Since(start).Milliseconds(),
		Success:     err == nil,
	}
	if resp != nil {
		data.ResponseBody = marshalOrEmpty(resp)
	}
	if err != nil {
		data.ErrorMessage = err.Error()
	}
	j.append(ctx, data)

	return resp, err
}

func (j *JournalClient) LogMistake(ctx context.Context, notice MistakeNotice) error {
	start := time.Now()
	err := j.inner.LogMistake(ctx, notice)

	data := store.EvaluationEventData{
		SessionID:   SessionIDFrom(ctx),
		Endpoint:    store.EndpointLogMistake,
		QuestionID:  notice.QuestionID,
		RequestBody: marshalOrEmpty(notice),
		LatencyMs:   time.Since(start).Milliseconds(),
		Success:     err == nil,
	}
	if err != nil {
		data.ErrorMessage = err.Error()
	}
	j.append(ctx, data)

	return err
}

func (j *JournalClient) append(ctx context.Context, data store.EvaluationEventData) {
	// A cancelled call still deserves a journal row.
	if err := j.eventRepo.AppendEvaluation(context.WithoutCancel(ctx), data); err != nil && j.logger != nil {
		j.logger.Printf("warning: failed to journal %s call: %v", data.Endpoint, err)
	}
}

func marshalOrEmpty(v any) string {
	b, err := json.Marshal(v)
	if err != nil {
		return ""
	}
	return string(b)
}
