package store

import (
	"context"
	"time"
)

// QueryOpts configures journal queries with filtering and pagination.
type QueryOpts struct {
	Limit  int       // max results (0 = unlimited)
	After  int64     // sequence > After
	Before int64     // sequence < Before
	From   time.Time // timestamp >= From
	To     time.Time // timestamp <= To
}

// Endpoints recorded in the evaluation journal.
const (
	EndpointNext       = "next"
	EndpointLogMistake = "log_mistake"
)

// EvaluationEventData captures one call to the remote evaluation service.
type EvaluationEventData struct {
	SessionID    string
	Endpoint     string
	QuestionID   string
	RequestBody  string
	ResponseBody string
	LatencyMs    int64
	Success      bool
	ErrorMessage string
}

// EvaluationEvent is a journaled EvaluationEventData.
type EvaluationEvent struct {
	EvaluationEventData
	ID        int64
	Sequence  int64
	Timestamp time.Time
}

// MistakeEventData mirrors one entry of a session's mistake ledger.
type MistakeEventData struct {
	SessionID     string
	UserID        int
	QuestionID    string
	Topic         string
	QuestionText  string
	UserAnswer    string
	CorrectAnswer string
	Mode          string
	At            time.Time
}

// MistakeEvent is a journaled MistakeEventData.
type MistakeEvent struct {
	MistakeEventData
	ID       int64
	Sequence int64
}

// Session lifecycle actions.
const (
	SessionStart = "start"
	SessionEnd   = "end"
)

// SessionEventData records a session start or end.
type SessionEventData struct {
	SessionID         string
	Action            string
	UserID            int
	QuestionsAnswered int // end only
	Mistakes          int // end only
	Score             int // end only
	DurationSecs      int // end only
}

// EventRepo provides append and query access to the journal.
type EventRepo interface {
	// AppendEvaluation records a call to the evaluation service.
	AppendEvaluation(ctx context.Context, data EvaluationEventData) error

	// AppendMistake records an incorrect answer.
	AppendMistake(ctx context.Context, data MistakeEventData) error

	// AppendSession records a session lifecycle event.
	AppendSession(ctx context.Context, data SessionEventData) error

	// QueryEvaluations returns evaluation calls, newest first.
	QueryEvaluations(ctx context.Context, opts QueryOpts) ([]EvaluationEvent, error)

	// GetEvaluation returns one evaluation call by ID, or nil if not found.
	GetEvaluation(ctx context.Context, id int64) (*EvaluationEvent, error)

	// QueryMistakes returns mistakes, newest first, optionally for one topic.
	QueryMistakes(ctx context.Context, opts QueryOpts, topic string) ([]MistakeEvent, error)

	// MistakeCountsByTopic returns the number of journaled mistakes per topic.
	MistakeCountsByTopic(ctx context.Context) (map[string]int, error)
}

// Credential is the persisted result of a login or signup.
type Credential struct {
	UserID      int
	Email       string
	AccessToken string
	SavedAt     time.Time
}

// CredentialRepo persists at most one credential.
type CredentialRepo interface {
	// Save replaces the stored credential.
	Save(ctx context.Context, c Credential) error

	// Load returns the stored credential, or nil if none is stored.
	Load(ctx context.Context) (*Credential, error)

	// Delete removes the stored credential. Deleting nothing is not an error.
	Delete(ctx context.Context) error
}
