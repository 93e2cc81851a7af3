package session

import (
	"bytes"
	"context"
	"errors"
	"log"
	"math/rand/v2"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/abhisek/sketchbook/internal/evaluator"
	"github.com/abhisek/sketchbook/internal/quiz"
	"github.com/abhisek/sketchbook/internal/store"
)

var testNow = time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)

func cardioQuestion() *quiz.Question {
	return &quiz.Question{
		ID:            "Q1",
		Topic:         "Cardio",
		Difficulty:    2,
		Text:          "Which chamber pumps oxygenated blood to the body?",
		Options:       []string{"Left ventricle", "Right ventricle", "Left atrium", "Right atrium"},
		Correct:       "Left ventricle",
		Misconception: "Mixing up systemic and pulmonary circulation",
	}
}

func neuroQuestion() *quiz.Question {
	return &quiz.Question{
		ID:         "Q2",
		Topic:      "Neuro",
		Difficulty: 3,
		Text:       "Which lobe processes vision?",
		Options:    []string{"Frontal", "Occipital", "Temporal"},
		Correct:    "Occipital",
	}
}

func next(q *quiz.Question) evaluator.MockResponse {
	return evaluator.MockResponse{Response: &evaluator.Response{NextQuestion: q}}
}

// newLoadedStore returns a Store whose current question is cardioQuestion.
func newLoadedStore(t *testing.T, opts Options, responses ...evaluator.MockResponse) (*Store, *evaluator.MockClient) {
	t.Helper()
	mock := evaluator.NewMockClient(append([]evaluator.MockResponse{next(cardioQuestion())}, responses...)...)
	if opts.Now == nil {
		opts.Now = func() time.Time { return testNow }
	}
	s := New(mock, opts)
	require.NoError(t, s.LoadInitial(context.Background()))
	require.Equal(t, PhaseAwaitingAnswer, s.Phase())
	return s, mock
}

func TestNew_InitialState(t *testing.T) {
	s := New(evaluator.NewMockClient(), Options{})

	assert.Equal(t, PhaseIdle, s.Phase())
	assert.Nil(t, s.Current())
	assert.Equal(t, quiz.ModePractice, s.Mode())
	assert.Equal(t, 0, s.Score())
	assert.NotEmpty(t, s.SessionID())

	l := s.Learner()
	assert.Equal(t, quiz.InitialConfidence, l.Confidence)
	assert.Equal(t, map[string]float64{"General": 0.5}, l.Topics)
}

func TestLoadInitial_SendsSkipRequest(t *testing.T) {
	s, mock := newLoadedStore(t, Options{UserID: 42})

	req := mock.LastCall()
	assert.True(t, req.IsSkip())
	assert.Equal(t, 42, req.UserID)
	assert.Nil(t, req.IsCorrect)
	assert.Zero(t, req.TimeTaken)
	assert.Equal(t, "Q1", s.Current().ID)
}

func TestLoadInitial_FailureLeavesIdle(t *testing.T) {
	mock := evaluator.NewMockClient(evaluator.MockResponse{Err: &evaluator.ErrUnavailable{}})
	s := New(mock, Options{})

	err := s.LoadInitial(context.Background())
	require.Error(t, err)
	assert.Equal(t, PhaseIdle, s.Phase())
	assert.Nil(t, s.Current())
}

func TestSubmit_CorrectFastOnCardio(t *testing.T) {
	s, mock := newLoadedStore(t, Options{}, next(neuroQuestion()))

	out, err := s.Submit(context.Background(), "Left ventricle", 0.7, 3)
	require.NoError(t, err)

	assert.True(t, out.Correct)
	assert.False(t, out.Remediating)
	assert.False(t, out.ServerLearnerState)
	assert.Equal(t, CorrectReward, out.Reward)
	assert.Equal(t, "Q2", out.Next.ID)

	l := s.Learner()
	assert.InDelta(t, 0.6, l.Topics["Cardio"], 1e-9)
	assert.InDelta(t, quiz.InitialConfidence+0.10, l.Confidence, 1e-9)

	assert.Equal(t, 10, s.Score())
	assert.Equal(t, "Q2", s.Current().ID)
	assert.Empty(t, s.Mistakes())

	history := s.History()
	require.Len(t, history, 1)
	assert.Equal(t, "Q1", history[0].Question.ID)
	assert.True(t, history[0].Correct)

	req := mock.LastCall()
	assert.Equal(t, "Q1", req.QuestionID)
	assert.Equal(t, "Left ventricle", req.Answer)
	require.NotNil(t, req.IsCorrect)
	assert.True(t, *req.IsCorrect)
	assert.Equal(t, 3.0, req.TimeTaken)
	assert.Equal(t, 0.7, req.Confidence)
}

func TestSubmit_WrongFastInPracticeRemediates(t *testing.T) {
	s, mock := newLoadedStore(t, Options{}, next(neuroQuestion()))

	out, err := s.Submit(context.Background(), "Right ventricle", 0.4, 2)
	require.NoError(t, err)
	require.NoError(t, s.Close(context.Background()))

	assert.False(t, out.Correct)
	assert.True(t, out.Remediating)
	assert.Nil(t, out.Next)
	assert.Equal(t, PhaseRemediating, s.Phase())

	rem := s.Remediation()
	require.NotNil(t, rem)
	assert.Equal(t,
		"It seems you have a misconception about Cardio. Mixing up systemic and pulmonary circulation.",
		rem.Explanation)
	assert.Equal(t, RemediationMediaURL, rem.MediaURL)

	assert.Equal(t, "Q1", s.Current().ID, "question must not be replaced until acknowledged")
	assert.Empty(t, s.History())
	assert.Equal(t, 0, s.Score())

	l := s.Learner()
	assert.InDelta(t, 0.4, l.Topics["Cardio"], 1e-9)
	assert.InDelta(t, quiz.InitialConfidence-0.15, l.Confidence, 1e-9)

	mistakes := s.Mistakes()
	require.Len(t, mistakes, 1)
	assert.Equal(t, quiz.Mistake{
		Topic:         "Cardio",
		QuestionID:    "Q1",
		QuestionText:  "Which chamber pumps oxygenated blood to the body?",
		UserAnswer:    "Right ventricle",
		CorrectAnswer: "Left ventricle",
		At:            testNow,
	}, mistakes[0])

	require.Equal(t, 1, mock.MistakeCount())
	assert.Equal(t, "Right ventricle", mock.Mistakes[0].UserAnswer)
}

func TestSubmit_ServerExplanationPreferred(t *testing.T) {
	s, _ := newLoadedStore(t, Options{}, evaluator.MockResponse{Response: &evaluator.Response{
		NextQuestion: neuroQuestion(),
		Explanation:  "The left ventricle feeds the aorta.",
	}})

	out, err := s.Submit(context.Background(), "Left atrium", 0.5, 8)
	require.NoError(t, err)
	assert.True(t, out.Remediating)
	assert.Equal(t, "The left ventricle feeds the aorta.", s.Remediation().Explanation)
}

func TestSubmit_WrongWithoutExplanationAdvances(t *testing.T) {
	mock := evaluator.NewMockClient(next(neuroQuestion()), next(cardioQuestion()))
	s := New(mock, Options{})
	require.NoError(t, s.LoadInitial(context.Background()))

	out, err := s.Submit(context.Background(), "Frontal", 0.5, 10)
	require.NoError(t, err)

	assert.False(t, out.Remediating)
	assert.Nil(t, s.Remediation())
	assert.Equal(t, "Q1", s.Current().ID)
	assert.Equal(t, 0, s.Score())
	require.Len(t, s.History(), 1)
	assert.False(t, s.History()[0].Correct)
	assert.Len(t, s.Mistakes(), 1)
}

func TestSubmit_ExamNeverRemediates(t *testing.T) {
	s, _ := newLoadedStore(t, Options{}, evaluator.MockResponse{Response: &evaluator.Response{
		NextQuestion: neuroQuestion(),
		Explanation:  "explained anyway",
	}})
	s.ToggleMode()
	require.Equal(t, quiz.ModeExam, s.Mode())

	out, err := s.Submit(context.Background(), "Right atrium", 0.5, 2)
	require.NoError(t, err)

	assert.False(t, out.Remediating)
	assert.Nil(t, s.Remediation())
	assert.Equal(t, "Q2", s.Current().ID)
	assert.Len(t, s.Mistakes(), 1)
}

func TestSubmit_ServerLearnerStateOverrides(t *testing.T) {
	s, _ := newLoadedStore(t, Options{}, evaluator.MockResponse{Response: &evaluator.Response{
		NextQuestion: neuroQuestion(),
		LearnerState: &evaluator.LearnerState{
			ConfidenceAvg: float64Ptr(0.33),
			TopicMastery:  map[string]float64{"Cardio": 0.72, "Renal": 1.4, "Neuro": -0.2},
		},
	}})

	out, err := s.Submit(context.Background(), "Left ventricle", 0.9, 1)
	require.NoError(t, err)
	assert.True(t, out.ServerLearnerState)

	l := s.Learner()
	assert.Equal(t, 0.33, l.Confidence)
	assert.Equal(t, map[string]float64{"Cardio": 0.72, "Renal": 1.0, "Neuro": 0.0}, l.Topics)
}

func TestSubmit_PartialLearnerStateKeepsLocalEstimate(t *testing.T) {
	s, _ := newLoadedStore(t, Options{}, evaluator.MockResponse{Response: &evaluator.Response{
		NextQuestion: neuroQuestion(),
		LearnerState: &evaluator.LearnerState{TopicMastery: map[string]float64{}},
	}})

	out, err := s.Submit(context.Background(), "Left ventricle", 0.9, 10)
	require.NoError(t, err)
	assert.False(t, out.ServerLearnerState)
	assert.Equal(t, "Q2", s.Current().ID)

	l := s.Learner()
	assert.InDelta(t, quiz.InitialConfidence+0.05, l.Confidence, 1e-9)
	assert.InDelta(t, 0.6, l.Topics["Cardio"], 1e-9)
	assert.Equal(t, 0.5, l.Topics["General"])
}

func TestSubmit_NetworkFailureKeepsLocalState(t *testing.T) {
	s, mock := newLoadedStore(t, Options{}, evaluator.MockResponse{Err: &evaluator.ErrUnavailable{Err: errors.New("offline")}})

	out, err := s.Submit(context.Background(), "Left atrium", 0.5, 20)
	require.Error(t, err)
	assert.Nil(t, out)
	assert.Contains(t, err.Error(), "offline")

	assert.Equal(t, PhaseAwaitingAnswer, s.Phase())
	assert.Equal(t, "Q1", s.Current().ID)
	assert.Len(t, s.Mistakes(), 1)
	assert.Nil(t, s.Remediation())
	assert.Empty(t, s.History())

	l := s.Learner()
	assert.InDelta(t, 0.4, l.Topics["Cardio"], 1e-9)
	assert.InDelta(t, quiz.InitialConfidence-0.10, l.Confidence, 1e-9)

	// The learner may retry the same question.
	mock.AddResponse(next(neuroQuestion()))
	out, err = s.Submit(context.Background(), "Left ventricle", 0.5, 4)
	require.NoError(t, err)
	assert.True(t, out.Correct)
	assert.Equal(t, "Q2", s.Current().ID)
}

func TestSubmit_RejectedWhileRemediating(t *testing.T) {
	s, mock := newLoadedStore(t, Options{}, next(neuroQuestion()))

	_, err := s.Submit(context.Background(), "Left atrium", 0.5, 2)
	require.NoError(t, err)
	calls := mock.CallCount()

	_, err = s.Submit(context.Background(), "Left ventricle", 0.5, 2)
	assert.ErrorIs(t, err, ErrRemediationPending)
	assert.Equal(t, calls, mock.CallCount())
	assert.Len(t, s.Mistakes(), 1)
}

func TestSubmit_RejectedWithoutQuestion(t *testing.T) {
	s := New(evaluator.NewMockClient(), Options{})
	_, err := s.Submit(context.Background(), "x", 0.5, 1)
	assert.ErrorIs(t, err, ErrNoQuestion)
}

func TestBeginFinish_SplitSubmission(t *testing.T) {
	s, _ := newLoadedStore(t, Options{UserID: 7})

	sub, err := s.Begin("Left ventricle", 0.6, 4)
	require.NoError(t, err)
	assert.Equal(t, PhaseEvaluating, s.Phase())
	assert.True(t, sub.Correct())
	assert.Equal(t, "Q1", sub.Question().ID)

	req := sub.Request()
	assert.Equal(t, 7, req.UserID)
	assert.Equal(t, "Q1", req.QuestionID)
	require.NotNil(t, req.IsCorrect)
	assert.True(t, *req.IsCorrect)

	_, err = s.Begin("Left ventricle", 0.6, 4)
	assert.ErrorIs(t, err, ErrSubmissionInFlight)
	assert.ErrorIs(t, s.Advance(context.Background()), ErrSubmissionInFlight)

	out, err := s.Finish(sub, &evaluator.Response{NextQuestion: neuroQuestion()}, nil)
	require.NoError(t, err)
	assert.Equal(t, "Q2", out.Next.ID)
	assert.Equal(t, PhaseAwaitingAnswer, s.Phase())

	_, err = s.Finish(sub, nil, nil)
	assert.ErrorIs(t, err, ErrStaleSubmission)
}

func TestFinish_NilResponseTolerated(t *testing.T) {
	s, _ := newLoadedStore(t, Options{})

	sub, err := s.Begin("Left ventricle", 0.6, 4)
	require.NoError(t, err)
	out, err := s.Finish(sub, nil, nil)
	require.NoError(t, err)

	assert.Nil(t, out.Next)
	assert.Equal(t, PhaseIdle, s.Phase())
	assert.Equal(t, 10, s.Score())
}

func TestAcknowledgeRemediation(t *testing.T) {
	s, mock := newLoadedStore(t, Options{}, next(neuroQuestion()), evaluator.MockResponse{})

	assert.ErrorIs(t, s.AcknowledgeRemediation(context.Background()), ErrNoRemediation)

	_, err := s.Submit(context.Background(), "Left atrium", 0.5, 2)
	require.NoError(t, err)
	require.Equal(t, PhaseRemediating, s.Phase())

	// The response that triggered remediation carried Q2, but the next
	// question comes from a fresh skip request.
	require.NoError(t, s.AcknowledgeRemediation(context.Background()))
	assert.True(t, mock.LastCall().IsSkip())
	assert.Nil(t, s.Remediation())
	assert.Equal(t, PhaseIdle, s.Phase(), "a null next_question leaves no current question")
}

func TestAcknowledgeRemediation_ClearsEvenWhenAdvanceFails(t *testing.T) {
	s, mock := newLoadedStore(t, Options{}, next(neuroQuestion()))

	_, err := s.Submit(context.Background(), "Left atrium", 0.5, 2)
	require.NoError(t, err)

	mock.AddResponse(evaluator.MockResponse{Err: &evaluator.ErrUnavailable{}})
	err = s.AcknowledgeRemediation(context.Background())
	require.Error(t, err)
	assert.Nil(t, s.Remediation())
	assert.Equal(t, "Q1", s.Current().ID)
	assert.Equal(t, PhaseAwaitingAnswer, s.Phase())

	mock.AddResponse(next(neuroQuestion()))
	require.NoError(t, s.Advance(context.Background()))
	assert.Equal(t, "Q2", s.Current().ID)
}

func TestAcknowledge_ThenApplyAdvance(t *testing.T) {
	s, _ := newLoadedStore(t, Options{}, next(neuroQuestion()))
	_, err := s.Submit(context.Background(), "Left atrium", 0.5, 2)
	require.NoError(t, err)

	require.NoError(t, s.Acknowledge())
	assert.ErrorIs(t, s.Acknowledge(), ErrNoRemediation)

	require.NoError(t, s.ApplyAdvance(&evaluator.Response{NextQuestion: neuroQuestion()}, nil))
	assert.Equal(t, "Q2", s.Current().ID)
}

func TestToggleMode_ChangesNothingElse(t *testing.T) {
	s, _ := newLoadedStore(t, Options{})
	before := s.Learner()

	s.ToggleMode()
	assert.Equal(t, quiz.ModeExam, s.Mode())
	s.ToggleMode()
	assert.Equal(t, quiz.ModePractice, s.Mode())

	assert.Equal(t, before, s.Learner())
	assert.Equal(t, "Q1", s.Current().ID)
	assert.Equal(t, PhaseAwaitingAnswer, s.Phase())
}

func TestSubmit_OneMistakePerIncorrectAnswer(t *testing.T) {
	answers := []struct {
		answer string
		mode   quiz.Mode
		expl   string
	}{
		{"Left atrium", quiz.ModePractice, ""},
		{"Left ventricle", quiz.ModePractice, ""},
		{"Right atrium", quiz.ModeExam, "exam explanation"},
		{"Right ventricle", quiz.ModeExam, ""},
		{"Left ventricle", quiz.ModeExam, ""},
	}

	q := cardioQuestion()
	q.Misconception = ""
	mock := evaluator.NewMockClient(next(q))
	s := New(mock, Options{})
	require.NoError(t, s.LoadInitial(context.Background()))

	want := 0
	for _, a := range answers {
		if s.Mode() != a.mode {
			s.ToggleMode()
		}
		mock.AddResponse(evaluator.MockResponse{Response: &evaluator.Response{NextQuestion: q, Explanation: a.expl}})
		out, err := s.Submit(context.Background(), a.answer, 0.5, 6)
		require.NoError(t, err)
		if !out.Correct {
			want++
		}
		assert.Len(t, s.Mistakes(), want)
		assert.Nil(t, s.Remediation())
	}
	require.NoError(t, s.Close(context.Background()))
	assert.Equal(t, want, mock.MistakeCount())
}

func TestSubmit_ScoresStayInBounds(t *testing.T) {
	rng := rand.New(rand.NewPCG(1, 2))
	topics := []string{"Cardio", "Neuro", "Renal"}

	mock := evaluator.NewMockClient()
	s := New(mock, Options{})

	for i := range 300 {
		q := &quiz.Question{
			ID:      "Q",
			Topic:   topics[rng.IntN(len(topics))],
			Options: []string{"a", "b"},
			Correct: "a",
		}
		if i%7 == 0 {
			q.Misconception = "note"
		}
		require.NoError(t, s.ApplyAdvance(&evaluator.Response{NextQuestion: q}, nil))

		answer := "a"
		if rng.IntN(2) == 0 {
			answer = "b"
		}
		if rng.IntN(10) == 0 {
			s.ToggleMode()
		}

		resp := &evaluator.Response{NextQuestion: q}
		if rng.IntN(5) == 0 {
			resp.LearnerState = &evaluator.LearnerState{
				ConfidenceAvg: float64Ptr(rng.Float64()*3 - 1),
				TopicMastery:  map[string]float64{q.Topic: rng.Float64()*3 - 1},
			}
		}
		mock.AddResponse(evaluator.MockResponse{Response: resp})

		_, err := s.Submit(context.Background(), answer, rng.Float64(), rng.Float64()*30)
		require.NoError(t, err)
		if s.Phase() == PhaseRemediating {
			require.NoError(t, s.Acknowledge())
		}

		l := s.Learner()
		require.GreaterOrEqual(t, l.Confidence, 0.0)
		require.LessOrEqual(t, l.Confidence, 1.0)
		for topic, m := range l.Topics {
			require.GreaterOrEqual(t, m, 0.0, topic)
			require.LessOrEqual(t, m, 1.0, topic)
		}
	}
	require.NoError(t, s.Close(context.Background()))
}

// blockingClient holds every mistake notification until released.
type blockingClient struct {
	*evaluator.MockClient
	release chan struct{}
}

func (b *blockingClient) LogMistake(ctx context.Context, n evaluator.MistakeNotice) error {
	select {
	case <-b.release:
	case <-ctx.Done():
		return ctx.Err()
	}
	return b.MockClient.LogMistake(ctx, n)
}

func TestSubmit_NotificationDoesNotBlock(t *testing.T) {
	client := &blockingClient{
		MockClient: evaluator.NewMockClient(next(cardioQuestion()), next(neuroQuestion())),
		release:    make(chan struct{}),
	}
	s := New(client, Options{})
	require.NoError(t, s.LoadInitial(context.Background()))

	out, err := s.Submit(context.Background(), "Left atrium", 0.5, 2)
	require.NoError(t, err)
	assert.True(t, out.Remediating)
	assert.Equal(t, 0, client.MistakeCount())

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	assert.Error(t, s.Close(ctx))

	close(client.release)
	require.NoError(t, s.Close(context.Background()))
	assert.Equal(t, 1, client.MistakeCount())
}

func TestSubmit_NotificationFailureOnlyLogged(t *testing.T) {
	var mu sync.Mutex
	var buf bytes.Buffer
	logger := log.New(&lockedWriter{mu: &mu, w: &buf}, "", 0)

	s, mock := newLoadedStore(t, Options{Logger: logger}, next(neuroQuestion()))
	mock.OnMistake(func(evaluator.MistakeNotice) error { return errors.New("ledger down") })

	_, err := s.Submit(context.Background(), "Left atrium", 0.5, 2)
	require.NoError(t, err)
	require.NoError(t, s.Close(context.Background()))

	assert.Len(t, s.Mistakes(), 1)
	mu.Lock()
	defer mu.Unlock()
	assert.Contains(t, buf.String(), "ledger down")
}

type lockedWriter struct {
	mu *sync.Mutex
	w  *bytes.Buffer
}

func (l *lockedWriter) Write(p []byte) (int, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.w.Write(p)
}

func TestJournal_MirrorsMistakesAndLifecycle(t *testing.T) {
	st, err := store.Open(filepath.Join(t.TempDir(), "journal.db"))
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() })
	repo := st.EventRepo()

	clock := testNow
	s, _ := newLoadedStore(t, Options{
		UserID:    3,
		EventRepo: repo,
		SessionID: "sess-9",
		Now:       func() time.Time { return clock },
	}, next(neuroQuestion()), next(cardioQuestion()))

	_, err = s.Submit(context.Background(), "Left ventricle", 0.5, 3)
	require.NoError(t, err)
	s.ToggleMode()
	_, err = s.Submit(context.Background(), "Frontal", 0.5, 3)
	require.NoError(t, err)

	clock = clock.Add(95 * time.Second)
	require.NoError(t, s.Close(context.Background()))

	mistakes, err := repo.QueryMistakes(context.Background(), store.QueryOpts{}, "")
	require.NoError(t, err)
	require.Len(t, mistakes, 1)
	assert.Equal(t, "sess-9", mistakes[0].SessionID)
	assert.Equal(t, 3, mistakes[0].UserID)
	assert.Equal(t, "Neuro", mistakes[0].Topic)
	assert.Equal(t, "Frontal", mistakes[0].UserAnswer)
	assert.Equal(t, "exam", mistakes[0].Mode)

	var action string
	var answered, score, duration int
	err = st.DB().QueryRow(`SELECT action, questions_answered, score, duration_secs
		FROM session_events WHERE session_id = ? ORDER BY sequence DESC LIMIT 1`, "sess-9").
		Scan(&action, &answered, &score, &duration)
	require.NoError(t, err)
	assert.Equal(t, store.SessionEnd, action)
	assert.Equal(t, 2, answered)
	assert.Equal(t, 10, score)
	assert.Equal(t, 95, duration)
}

func TestSummary(t *testing.T) {
	s, _ := newLoadedStore(t, Options{}, next(neuroQuestion()), next(cardioQuestion()))

	_, err := s.Submit(context.Background(), "Left ventricle", 0.5, 3)
	require.NoError(t, err)
	_, err = s.Submit(context.Background(), "Temporal", 0.5, 3)
	require.NoError(t, err)
	require.NoError(t, s.Close(context.Background()))

	sum := s.Summary()
	assert.Equal(t, 2, sum.Answered)
	assert.Equal(t, 1, sum.Correct)
	assert.Equal(t, 1, sum.Mistakes)
	assert.Equal(t, 0.5, sum.Accuracy)
	assert.Equal(t, 10, sum.Score)

	var names []string
	for _, tm := range sum.Topics {
		names = append(names, tm.Topic)
	}
	assert.Equal(t, "Cardio,General,Neuro", strings.Join(names, ","))
}

func TestPhaseString(t *testing.T) {
	assert.Equal(t, "idle", PhaseIdle.String())
	assert.Equal(t, "remediating", PhaseRemediating.String())
	assert.Equal(t, "unknown", Phase(99).String())
}

func TestStart_RecordsOnce(t *testing.T) {
	st, err := store.Open(filepath.Join(t.TempDir(), "start.db"))
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() })

	s := New(evaluator.NewMockClient(), Options{EventRepo: st.EventRepo(), SessionID: "sess-1"})
	s.Start(context.Background())
	s.Start(context.Background())

	assert.Equal(t, PhaseIdle, s.Phase())

	var n int
	require.NoError(t, st.DB().QueryRow(
		`SELECT COUNT(*) FROM session_events WHERE session_id = ? AND action = ?`,
		"sess-1", store.SessionStart).Scan(&n))
	assert.Equal(t, 1, n)
}

func float64Ptr(v float64) *float64 { return &v }
