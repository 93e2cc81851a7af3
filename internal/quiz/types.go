package quiz

import (
	"fmt"
	"time"
)

// Difficulty bounds for a Question.
const (
	MinDifficulty = 1
	MaxDifficulty = 5
)

// Option count bounds for a Question.
const (
	MinOptions = 2
	MaxOptions = 5
)

// Question is a multiple choice item served by the evaluation service.
// It is never mutated after it has been presented.
type Question struct {
	// ID is the service-assigned question identifier.
	ID string `json:"id"`

	// Topic is the anatomy topic the question belongs to, e.g. "Cardio".
	Topic string `json:"topic"`

	// Difficulty is an ordinal 1-5.
	Difficulty int `json:"difficulty"`

	// Text is the prompt shown to the learner.
	Text string `json:"question"`

	// Options holds 2-5 answer strings. Order is significant: option letters
	// A..E map positionally onto it.
	Options []string `json:"options"`

	// Correct is the canonical correct option.
	Correct string `json:"correct"`

	// Misconception is an optional note about the common wrong belief this
	// question probes. Empty when the service supplied none.
	Misconception string `json:"misconception,omitempty"`
}

// IsCorrect reports whether answer exactly matches the canonical option.
func (q *Question) IsCorrect(answer string) bool {
	return answer == q.Correct
}

// Validate reports structural problems with the question.
func (q *Question) Validate() error {
	if q.ID == "" {
		return fmt.Errorf("question has no id")
	}
	if n := len(q.Options); n < MinOptions || n > MaxOptions {
		return fmt.Errorf("question %s: %d options, want %d-%d", q.ID, n, MinOptions, MaxOptions)
	}
	if q.Difficulty < MinDifficulty || q.Difficulty > MaxDifficulty {
		return fmt.Errorf("question %s: difficulty %d out of range", q.ID, q.Difficulty)
	}
	for _, opt := range q.Options {
		if opt == q.Correct {
			return nil
		}
	}
	return fmt.Errorf("question %s: correct option %q not among options", q.ID, q.Correct)
}

// Mode is the session variant. Exactly one is active at a time.
type Mode string

const (
	ModePractice Mode = "practice"
	ModeExam     Mode = "exam"
)

// Toggle returns the other mode.
func (m Mode) Toggle() Mode {
	if m == ModeExam {
		return ModePractice
	}
	return ModeExam
}

// Mistake records one incorrect answer. Mistakes are append-only.
type Mistake struct {
	Topic         string
	QuestionID    string
	QuestionText  string
	UserAnswer    string
	CorrectAnswer string
	At            time.Time
}

// Remediation is the explanatory step shown after an incorrect practice
// answer. While one is pending the current question stays on screen.
type Remediation struct {
	Explanation string
	MediaURL    string
}

// Interaction is one entry in the session's answer history.
type Interaction struct {
	Question *Question
	Answer   string
	Correct  bool
}
