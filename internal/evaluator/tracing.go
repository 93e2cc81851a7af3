package evaluator

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const tracerName = "github.com/abhisek/sketchbook/internal/evaluator"

// TracingClient is a decorator that opens one span per call.
type TracingClient struct {
	inner  Client
	tracer trace.Tracer
}

// WithTracing wraps a Client with OpenTelemetry spans. Without a configured
// tracer provider the global no-op provider is used.
func WithTracing(c Client) Client {
	return &TracingClient{inner: c, tracer: otel.Tracer(tracerName)}
}

func (t *TracingClient) Next(ctx context.Context, req Request) (*Response, error) {
	ctx, span := t.tracer.Start(ctx, "evaluator.Next", trace.WithAttributes(
		attribute.String("quiz.question_id", req.QuestionID),
		attribute.Bool("quiz.skip", req.IsSkip()),
		attribute.Float64("quiz.time_taken", req.TimeTaken),
	))
	defer span.End()

	resp, err := t.inner.Next(ctx, req)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}
	span.SetAttributes(
		attribute.Bool("quiz.has_next_question", resp.NextQuestion != nil),
		attribute.Bool("quiz.has_learner_state", resp.LearnerState.Complete()),
		attribute.Bool("quiz.has_explanation", resp.Explanation != ""),
	)
	return resp, nil
}

func (t *TracingClient) LogMistake(ctx context.Context, notice MistakeNotice) error {
	ctx, span := t.tracer.Start(ctx, "evaluator.LogMistake", trace.WithAttributes(
		attribute.String("quiz.question_id", notice.QuestionID),
		attribute.String("quiz.topic", notice.Topic),
	))
	defer span.End()

	err := t.inner.LogMistake(ctx, notice)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	return err
}
