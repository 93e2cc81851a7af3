package session

import (
	"errors"
	"log"
	"time"

	"github.com/abhisek/sketchbook/internal/store"
)

// Phase represents where the session is in its question cycle.
type Phase int

const (
	PhaseIdle           Phase = iota // No current question
	PhaseAwaitingAnswer              // Question shown, waiting for a submission
	PhaseEvaluating                  // Submission in flight
	PhaseRemediating                 // Explanation shown, waiting for acknowledgement
)

func (p Phase) String() string {
	switch p {
	case PhaseIdle:
		return "idle"
	case PhaseAwaitingAnswer:
		return "awaiting_answer"
	case PhaseEvaluating:
		return "evaluating"
	case PhaseRemediating:
		return "remediating"
	default:
		return "unknown"
	}
}

var (
	// ErrRemediationPending is returned by Submit while an explanation has
	// not been acknowledged.
	ErrRemediationPending = errors.New("remediation pending")

	// ErrNoQuestion is returned by Submit when there is no current question.
	ErrNoQuestion = errors.New("no current question")

	// ErrSubmissionInFlight is returned when another submission has not
	// finished evaluating.
	ErrSubmissionInFlight = errors.New("submission in flight")

	// ErrNoRemediation is returned by AcknowledgeRemediation when there is
	// nothing to acknowledge.
	ErrNoRemediation = errors.New("no remediation to acknowledge")

	// ErrStaleSubmission is returned by Finish for a submission that is not
	// the one currently evaluating.
	ErrStaleSubmission = errors.New("stale submission")
)

const (
	// CorrectReward is added to the score for each correct, non-remediating
	// submission.
	CorrectReward = 10

	// RemediationMediaURL is the illustration shown alongside every
	// explanation.
	RemediationMediaURL = "https://images.unsplash.com/photo-1559757175-5700dde675bc?w=800"

	// DefaultNotifyTimeout bounds a single mistake notification.
	DefaultNotifyTimeout = 10 * time.Second
)

// Options configures a Store. The zero value is usable.
type Options struct {
	// UserID stamps outgoing requests. 0 means unauthenticated.
	UserID int

	// EventRepo mirrors mistakes and session lifecycle into the journal.
	// Nil disables journaling.
	EventRepo store.EventRepo

	// Logger receives diagnostics that are never surfaced to the learner.
	// Nil discards them.
	Logger *log.Logger

	// Now overrides the clock (for testing).
	Now func() time.Time

	// SessionID overrides the generated session UUID.
	SessionID string

	// NotifyTimeout bounds each mistake notification. Defaults to
	// DefaultNotifyTimeout.
	NotifyTimeout time.Duration
}
