package evaluator

import (
	"context"

	"github.com/abhisek/sketchbook/internal/quiz"
)

// Client is the contract with the remote answer-evaluation service.
// Implementations hold no session state.
type Client interface {
	// Next evaluates a submission (or a skip) and returns the next question
	// along with the service's view of the learner.
	Next(ctx context.Context, req Request) (*Response, error)

	// LogMistake notifies the remote mistake ledger. The response body is
	// ignored.
	LogMistake(ctx context.Context, notice MistakeNotice) error
}

// Skip sentinels used when asking for a question without answering one.
const (
	SkipQuestionID = "SKIP"
	SkipAnswer     = "SKIP"
)

// Request is the body of an evaluation call.
type Request struct {
	UserID     int     `json:"user_id"`
	QuestionID string  `json:"question_id"`
	Answer     string  `json:"answer"`
	IsCorrect  *bool   `json:"is_correct,omitempty"`
	TimeTaken  float64 `json:"time_taken"`
	Confidence float64 `json:"confidence"`
}

// SkipRequest returns the request that asks for a question with no prior
// answer attached.
func SkipRequest(userID int) Request {
	return Request{
		UserID:     userID,
		QuestionID: SkipQuestionID,
		Answer:     SkipAnswer,
	}
}

// IsSkip reports whether r carries no answer.
func (r Request) IsSkip() bool {
	return r.QuestionID == SkipQuestionID && r.Answer == SkipAnswer
}

// Response is the evaluation service's reply. Every field may be absent.
type Response struct {
	NextQuestion *quiz.Question `json:"next_question"`
	LearnerState *LearnerState  `json:"learner_state,omitempty"`
	Explanation  string         `json:"explanation,omitempty"`
}

// LearnerState is the service's authoritative learner model.
type LearnerState struct {
	ConfidenceAvg *float64           `json:"confidence_avg,omitempty"`
	TopicMastery  map[string]float64 `json:"topic_mastery"`
}

// Complete reports whether ls carries a confidence average. A partial state
// must not replace the local estimate.
func (ls *LearnerState) Complete() bool {
	return ls != nil && ls.ConfidenceAvg != nil
}

// MistakeNotice is the body of a mistake-ledger notification.
type MistakeNotice struct {
	UserID        int    `json:"user_id"`
	QuestionID    string `json:"question_id"`
	Topic         string `json:"topic"`
	QuestionText  string `json:"question_text"`
	UserAnswer    string `json:"user_answer"`
	CorrectAnswer string `json:"correct_answer"`
}
