package session

import (
	"context"
	"fmt"
	"io"
	"log"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/abhisek/sketchbook/internal/evaluator"
	"github.com/abhisek/sketchbook/internal/quiz"
	"github.com/abhisek/sketchbook/internal/store"
)

// Store is the authoritative state of one quiz session. It owns the current
// question, the learner model, the mistake ledger and the pending
// remediation, and mediates every transition between them.
//
// Store is not safe for concurrent use. Callers serialize mutations on a
// single goroutine; only Send may run elsewhere.
type Store struct {
	client        evaluator.Client
	events        store.EventRepo
	logger        *log.Logger
	now           func() time.Time
	userID        int
	sessionID     string
	notifyTimeout time.Duration

	started   bool
	startedAt time.Time

	current     *quiz.Question
	learner     quiz.LearnerState
	mistakes    []quiz.Mistake
	history     []quiz.Interaction
	score       int
	answered    int
	correct     int
	mode        quiz.Mode
	remediation *quiz.Remediation
	inflight    *Submission

	notifications sync.WaitGroup
}

// New creates a Store in practice mode with no current question.
func New(client evaluator.Client, opts Options) *Store {
	s := &Store{
		client:        client,
		events:        opts.EventRepo,
		logger:        opts.Logger,
		now:           opts.Now,
		userID:        opts.UserID,
		sessionID:     opts.SessionID,
		notifyTimeout: opts.NotifyTimeout,
		learner:       quiz.NewLearnerState(),
		mode:          quiz.ModePractice,
	}
	if s.logger == nil {
		s.logger = log.New(io.Discard, "", 0)
	}
	if s.now == nil {
		s.now = time.Now
	}
	if s.sessionID == "" {
		s.sessionID = uuid.New().String()
	}
	if s.notifyTimeout <= 0 {
		s.notifyTimeout = DefaultNotifyTimeout
	}
	return s
}

// Submission is an answer whose local effects are committed and whose
// evaluation is pending.
type Submission struct {
	question   *quiz.Question
	answer     string
	correct    bool
	confidence float64
	elapsed    float64
	userID     int
}

// Request returns the evaluation request for this submission.
func (sub *Submission) Request() evaluator.Request {
	correct := sub.correct
	return evaluator.Request{
		UserID:     sub.userID,
		QuestionID: sub.question.ID,
		Answer:     sub.answer,
		IsCorrect:  &correct,
		TimeTaken:  sub.elapsed,
		Confidence: sub.confidence,
	}
}

// Correct reports whether the submitted answer matched the canonical option.
func (sub *Submission) Correct() bool { return sub.correct }

// Question returns the question that was answered.
func (sub *Submission) Question() *quiz.Question { return sub.question }

// Outcome describes how a submission resolved.
type Outcome struct {
	Correct bool

	// Remediating is true when the question was kept and an explanation
	// must be acknowledged.
	Remediating bool

	// Next is the new current question when not remediating. It may be nil.
	Next *quiz.Question

	// Reward is the score added by this submission.
	Reward int

	// ServerLearnerState is true when the service's learner model replaced
	// the local estimate.
	ServerLearnerState bool
}

// LoadInitial starts the session and fetches the first question.
func (s *Store) LoadInitial(ctx context.Context) error {
	s.Start(ctx)
	return s.Advance(ctx)
}

// Start records the beginning of the session. Later calls are no-ops.
// Callers that fetch the first question asynchronously use it in place of
// LoadInitial.
func (s *Store) Start(ctx context.Context) {
	if s.started {
		return
	}
	s.started = true
	s.startedAt = s.now()
	s.journalSession(ctx, store.SessionEventData{
		SessionID: s.sessionID,
		Action:    store.SessionStart,
		UserID:    s.userID,
	})
}

// AdvanceRequest returns the skip request used to fetch a question without
// answering one.
func (s *Store) AdvanceRequest() evaluator.Request {
	return evaluator.SkipRequest(s.userID)
}

// Advance fetches the next question without answering the current one.
// Remediation is cleared even when the fetch fails; on failure the current
// question is kept and the error is returned for logging.
func (s *Store) Advance(ctx context.Context) error {
	if s.inflight != nil {
		return ErrSubmissionInFlight
	}
	resp, err := s.Send(ctx, s.AdvanceRequest())
	return s.ApplyAdvance(resp, err)
}

// ApplyAdvance applies the result of an advance request made with Send.
func (s *Store) ApplyAdvance(resp *evaluator.Response, err error) error {
	s.remediation = nil
	if err != nil {
		return fmt.Errorf("fetching next question: %w", err)
	}
	if resp == nil {
		resp = &evaluator.Response{}
	}
	s.current = resp.NextQuestion
	return nil
}

// Send performs an evaluation call tagged with this session. It touches no
// session state and may run off the caller's goroutine.
func (s *Store) Send(ctx context.Context, req evaluator.Request) (*evaluator.Response, error) {
	return s.client.Next(evaluator.WithSessionID(ctx, s.sessionID), req)
}

// Submit answers the current question and waits for the evaluation.
// Local effects (mistake ledger, learner estimate) are committed before the
// network call and survive its failure.
func (s *Store) Submit(ctx context.Context, answer string, confidenceHint, elapsedSecs float64) (*Outcome, error) {
	sub, err := s.begin(ctx, answer, confidenceHint, elapsedSecs)
	if err != nil {
		return nil, err
	}
	resp, err := s.Send(ctx, sub.Request())
	return s.Finish(sub, resp, err)
}

// Begin performs the local half of Submit and marks the session as
// evaluating. The caller sends sub.Request() and passes the result to Finish.
func (s *Store) Begin(answer string, confidenceHint, elapsedSecs float64) (*Submission, error) {
	return s.begin(context.Background(), answer, confidenceHint, elapsedSecs)
}

func (s *Store) begin(ctx context.Context, answer string, confidenceHint, elapsedSecs float64) (*Submission, error) {
	switch {
	case s.inflight != nil:
		return nil, ErrSubmissionInFlight
	case s.remediation != nil:
		return nil, ErrRemediationPending
	case s.current == nil:
		return nil, ErrNoQuestion
	}

	q := s.current
	correct := q.IsCorrect(answer)
	s.answered++

	if correct {
		s.correct++
	} else {
		m := quiz.Mistake{
			Topic:         q.Topic,
			QuestionID:    q.ID,
			QuestionText:  q.Text,
			UserAnswer:    answer,
			CorrectAnswer: q.Correct,
			At:            s.now(),
		}
		s.mistakes = append(s.mistakes, m)
		s.journalMistake(ctx, m)
		s.notifyMistake(ctx, m)
	}

	s.learner = localEstimate(s.learner, q.Topic, correct, elapsedSecs)

	sub := &Submission{
		question:   q,
		answer:     answer,
		correct:    correct,
		confidence: confidenceHint,
		elapsed:    elapsedSecs,
		userID:     s.userID,
	}
	s.inflight = sub
	return sub, nil
}

// Finish applies the evaluation result of sub. On error the session leaves
// the evaluating phase with everything Begin committed intact.
func (s *Store) Finish(sub *Submission, resp *evaluator.Response, err error) (*Outcome, error) {
	if sub == nil || sub != s.inflight {
		return nil, ErrStaleSubmission
	}
	s.inflight = nil

	if err != nil {
		return nil, fmt.Errorf("evaluating answer to %s: %w", sub.question.ID, err)
	}
	if resp == nil {
		resp = &evaluator.Response{}
	}

	out := &Outcome{Correct: sub.correct}
	if resp.LearnerState.Complete() {
		s.learner = fromServer(resp.LearnerState)
		out.ServerLearnerState = true
	}

	q := sub.question
	if !sub.correct && s.mode == quiz.ModePractice && (resp.Explanation != "" || q.Misconception != "") {
		explanation := resp.Explanation
		if explanation == "" {
			explanation = fmt.Sprintf("It seems you have a misconception about %s. %s.", q.Topic, q.Misconception)
		}
		s.remediation = &quiz.Remediation{Explanation: explanation, MediaURL: RemediationMediaURL}
		out.Remediating = true
		return out, nil
	}

	s.current = resp.NextQuestion
	if sub.correct {
		s.score += CorrectReward
		out.Reward = CorrectReward
	}
	s.history = append(s.history, quiz.Interaction{Question: q, Answer: sub.answer, Correct: sub.correct})
	out.Next = resp.NextQuestion
	return out, nil
}

// Acknowledge clears the pending remediation without fetching a question.
// Callers that fetch asynchronously follow it with Send and ApplyAdvance.
func (s *Store) Acknowledge() error {
	if s.remediation == nil {
		return ErrNoRemediation
	}
	s.remediation = nil
	return nil
}

// AcknowledgeRemediation clears the pending remediation and advances.
func (s *Store) AcknowledgeRemediation(ctx context.Context) error {
	if err := s.Acknowledge(); err != nil {
		return err
	}
	return s.Advance(ctx)
}

// ToggleMode flips between practice and exam. Nothing else changes.
func (s *Store) ToggleMode() {
	s.mode = s.mode.Toggle()
}

// Close waits for outstanding mistake notifications, bounded by ctx, and
// records the end of the session.
func (s *Store) Close(ctx context.Context) error {
	done := make(chan struct{})
	go func() {
		s.notifications.Wait()
		close(done)
	}()

	var err error
	select {
	case <-done:
	case <-ctx.Done():
		err = fmt.Errorf("waiting for mistake notifications: %w", ctx.Err())
	}

	if s.started {
		sum := s.Summary()
		s.journalSession(ctx, store.SessionEventData{
			SessionID:         s.sessionID,
			Action:            store.SessionEnd,
			UserID:            s.userID,
			QuestionsAnswered: sum.Answered,
			Mistakes:          sum.Mistakes,
			Score:             sum.Score,
			DurationSecs:      int(sum.Duration.Seconds()),
		})
	}
	return err
}

// Current returns the current question, or nil.
func (s *Store) Current() *quiz.Question { return s.current }

// Learner returns a copy of the learner model.
func (s *Store) Learner() quiz.LearnerState { return s.learner.Clone() }

// Mistakes returns a copy of the mistake ledger in submission order.
func (s *Store) Mistakes() []quiz.Mistake { return slices.Clone(s.mistakes) }

// History returns a copy of the interaction log.
func (s *Store) History() []quiz.Interaction { return slices.Clone(s.history) }

// Score returns the accumulated reward.
func (s *Store) Score() int { return s.score }

// Mode returns the active session mode.
func (s *Store) Mode() quiz.Mode { return s.mode }

// Remediation returns the pending remediation, or nil.
func (s *Store) Remediation() *quiz.Remediation {
	if s.remediation == nil {
		return nil
	}
	r := *s.remediation
	return &r
}

// SessionID returns the session's UUID.
func (s *Store) SessionID() string { return s.sessionID }

// UserID returns the user the session's requests are stamped with.
func (s *Store) UserID() int { return s.userID }

// Phase reports the current session phase.
func (s *Store) Phase() Phase {
	switch {
	case s.inflight != nil:
		return PhaseEvaluating
	case s.remediation != nil:
		return PhaseRemediating
	case s.current == nil:
		return PhaseIdle
	default:
		return PhaseAwaitingAnswer
	}
}

// notifyMistake tells the remote ledger about m without blocking. The
// outcome is only logged.
func (s *Store) notifyMistake(ctx context.Context, m quiz.Mistake) {
	notice := evaluator.MistakeNotice{
		UserID:        s.userID,
		QuestionID:    m.QuestionID,
		Topic:         m.Topic,
		QuestionText:  m.QuestionText,
		UserAnswer:    m.UserAnswer,
		CorrectAnswer: m.CorrectAnswer,
	}
	ctx = evaluator.WithSessionID(context.WithoutCancel(ctx), s.sessionID)

	s.notifications.Add(1)
	go func() {
		defer s.notifications.Done()
		ctx, cancel := context.WithTimeout(ctx, s.notifyTimeout)
		defer cancel()
		if err := s.client.LogMistake(ctx, notice); err != nil {
			s.logger.Printf("warning: mistake notification for %s failed: %v", notice.QuestionID, err)
		}
	}()
}

func (s *Store) journalMistake(ctx context.Context, m quiz.Mistake) {
	if s.events == nil {
		return
	}
	err := s.events.AppendMistake(context.WithoutCancel(ctx), store.MistakeEventData{
		SessionID:     s.sessionID,
		UserID:        s.userID,
		QuestionID:    m.QuestionID,
		Topic:         m.Topic,
		QuestionText:  m.QuestionText,
		UserAnswer:    m.UserAnswer,
		CorrectAnswer: m.CorrectAnswer,
		Mode:          string(s.mode),
		At:            m.At,
	})
	if err != nil {
		s.logger.Printf("warning: failed to journal mistake on %s: %v", m.QuestionID, err)
	}
}

func (s *Store) journalSession(ctx context.Context, data store.SessionEventData) {
	if s.events == nil {
		return
	}
	if err := s.events.AppendSession(context.WithoutCancel(ctx), data); err != nil {
		s.logger.Printf("warning: failed to journal session %s: %v", data.Action, err)
	}
}
