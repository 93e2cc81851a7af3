package play

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"time"

	tea "charm.land/bubbletea/v2"

	"github.com/abhisek/sketchbook/internal/quiz"
	"github.com/abhisek/sketchbook/internal/router"
	"github.com/abhisek/sketchbook/internal/screen"
	"github.com/abhisek/sketchbook/internal/screens/notebook"
	"github.com/abhisek/sketchbook/internal/screens/summary"
	"github.com/abhisek/sketchbook/internal/session"
	"github.com/abhisek/sketchbook/internal/store"
	"github.com/abhisek/sketchbook/internal/timer"
	"github.com/abhisek/sketchbook/internal/transcript"
	"github.com/abhisek/sketchbook/internal/ui/components"
	"github.com/abhisek/sketchbook/internal/ui/layout"
)

const (
	// DefaultConfidence is the confidence hint before the learner adjusts it.
	DefaultConfidence = 0.7

	confidenceStep = 0.1
	voiceCharLimit = 120
)

// Screen is the quiz itself: one question at a time, answered by key or by
// voice transcript, with remediation shown inline.
type Screen struct {
	store  *session.Store
	timer  *timer.Controller
	events store.EventRepo
	logger *log.Logger
	now    func() time.Time

	options     components.OptionList
	shownID     string
	shownAt     time.Time
	confidence  float64
	voice       components.VoiceInput
	voiceActive bool

	fetching bool
	feedback string
	status   string
}

var _ screen.Screen = (*Screen)(nil)
var _ screen.KeyHintProvider = (*Screen)(nil)
var _ screen.StatusProvider = (*Screen)(nil)

// New creates the quiz screen over st. events backs the notebook's journal
// view and may be nil.
func New(st *session.Store, events store.EventRepo, logger *log.Logger) *Screen {
	return newScreen(st, events, logger, time.Now)
}

func newScreen(st *session.Store, events store.EventRepo, logger *log.Logger, now func() time.Time) *Screen {
	if logger == nil {
		logger = log.New(io.Discard, "", 0)
	}
	return &Screen{
		store:      st,
		timer:      timer.New(st),
		events:     events,
		logger:     logger,
		now:        now,
		confidence: DefaultConfidence,
	}
}

func (s *Screen) Init() tea.Cmd {
	s.store.Start(context.Background())
	s.syncQuestion()
	if s.store.Current() != nil {
		return tickCmd()
	}
	return tea.Batch(s.fetchNext(), tickCmd())
}

func (s *Screen) Title() string {
	return "Anatomy Quiz"
}

func (s *Screen) HeaderStatus() layout.Status {
	remaining := -1
	if s.timer.Running() {
		remaining = s.timer.Remaining()
	}
	return layout.Status{
		Score:     s.store.Score(),
		Mode:      string(s.store.Mode()),
		Remaining: remaining,
	}
}

func (s *Screen) KeyHints() []layout.KeyHint {
	if s.voiceActive {
		return []layout.KeyHint{
			{Key: "Enter", Description: "Match"},
			{Key: "Esc", Description: "Cancel"},
		}
	}
	common := []layout.KeyHint{
		{Key: "m", Description: "Mode"},
		{Key: "n", Description: "Notebook"},
		{Key: "q", Description: "Finish"},
	}
	switch s.store.Phase() {
	case session.PhaseAwaitingAnswer:
		return append([]layout.KeyHint{
			{Key: "A-E", Description: "Pick"},
			{Key: "Enter", Description: "Submit"},
			{Key: "v", Description: "Voice"},
			{Key: "+/-", Description: "Confidence"},
			{Key: "s", Description: "Skip"},
		}, common...)
	case session.PhaseRemediating:
		return append([]layout.KeyHint{{Key: "Enter", Description: "Got it"}}, common...)
	case session.PhaseIdle:
		if !s.fetching {
			return append([]layout.KeyHint{{Key: "r", Description: "Retry"}}, common...)
		}
	}
	return common
}

func (s *Screen) Update(msg tea.Msg) (screen.Screen, tea.Cmd) {
	switch msg := msg.(type) {
	case advancedMsg:
		return s.handleAdvanced(msg)
	case evaluatedMsg:
		return s.handleEvaluated(msg)
	case timerTickMsg:
		return s.handleTick()
	case tea.KeyPressMsg:
		return s.handleKey(msg)
	}

	if s.voiceActive {
		var cmd tea.Cmd
		s.voice, cmd = s.voice.Update(msg)
		return s, cmd
	}
	return s, nil
}

func (s *Screen) handleAdvanced(msg advancedMsg) (screen.Screen, tea.Cmd) {
	s.fetching = false
	if err := s.store.ApplyAdvance(msg.Resp, msg.Err); err != nil {
		s.logger.Printf("advance: %v", err)
		s.status = "Couldn't reach the quiz server."
	} else {
		s.status = ""
	}
	s.syncQuestion()
	return s, nil
}

func (s *Screen) handleEvaluated(msg evaluatedMsg) (screen.Screen, tea.Cmd) {
	out, err := s.store.Finish(msg.Sub, msg.Resp, msg.Err)
	if errors.Is(err, session.ErrStaleSubmission) {
		return s, nil
	}
	if err != nil {
		s.logger.Printf("evaluate: %v", err)
		s.status = "Couldn't reach the quiz server. Your answer was still counted."
		s.feedback = ""
		s.shownID = ""
		s.syncQuestion()
		return s, nil
	}

	s.status = ""
	q := msg.Sub.Question()
	switch {
	case out.Remediating:
		s.feedback = ""
		return s, nil
	case out.Correct:
		s.feedback = fmt.Sprintf("Correct! +%d", out.Reward)
	default:
		s.feedback = fmt.Sprintf("Not quite. The answer was %s.", q.Correct)
	}
	s.syncQuestion()
	return s, nil
}

func (s *Screen) handleTick() (screen.Screen, tea.Cmd) {
	if s.timer.Tick() {
		s.status = "Time's up! Back to practice."
	}
	return s, tickCmd()
}

func (s *Screen) handleKey(msg tea.KeyPressMsg) (screen.Screen, tea.Cmd) {
	if s.voiceActive {
		return s.handleVoiceKey(msg)
	}

	key := msg.String()
	switch key {
	case "m":
		s.timer.ToggleMode()
		s.status = ""
		return s, nil
	case "n":
		return s, func() tea.Msg {
			return router.PushScreenMsg{Screen: notebook.New(s.store, s.events)}
		}
	case "q":
		sum := s.store.Summary()
		return s, func() tea.Msg {
			return router.PushScreenMsg{Screen: summary.New(sum)}
		}
	}

	switch s.store.Phase() {
	case session.PhaseAwaitingAnswer:
		return s.handleAnswerKey(msg)
	case session.PhaseRemediating:
		if key == "enter" {
			return s.acknowledge()
		}
	case session.PhaseIdle:
		if key == "r" || key == "enter" {
			if s.fetching {
				return s, nil
			}
			s.status = ""
			return s, s.fetchNext()
		}
	}
	return s, nil
}

func (s *Screen) handleAnswerKey(msg tea.KeyPressMsg) (screen.Screen, tea.Cmd) {
	switch msg.String() {
	case "enter":
		return s.submit(s.options.Value())
	case "v":
		s.voiceActive = true
		s.voice = components.NewVoiceInput(voiceCharLimit)
		return s, s.voice.Init()
	case "+", "=":
		s.confidence = quiz.Clamp(s.confidence+confidenceStep, 0, 1)
		return s, nil
	case "-":
		s.confidence = quiz.Clamp(s.confidence-confidenceStep, 0, 1)
		return s, nil
	case "s":
		if s.fetching {
			return s, nil
		}
		s.feedback = ""
		return s, s.fetchNext()
	}

	var cmd tea.Cmd
	s.options, cmd = s.options.Update(msg)
	return s, cmd
}

func (s *Screen) handleVoiceKey(msg tea.KeyPressMsg) (screen.Screen, tea.Cmd) {
	switch msg.String() {
	case "esc":
		s.voiceActive = false
		return s, nil
	case "enter":
		q := s.store.Current()
		if q == nil || s.store.Phase() != session.PhaseAwaitingAnswer {
			s.voiceActive = false
			return s, nil
		}
		answer, ok := transcript.Match(s.voice.Value(), q.Options)
		s.voice.Submit(ok)
		if !ok {
			return s, nil
		}
		s.voiceActive = false
		s.options.SelectValue(answer)
		return s.submit(answer)
	}

	var cmd tea.Cmd
	s.voice, cmd = s.voice.Update(msg)
	return s, cmd
}

func (s *Screen) submit(answer string) (screen.Screen, tea.Cmd) {
	if answer == "" || s.fetching {
		return s, nil
	}
	elapsed := s.now().Sub(s.shownAt).Seconds()
	sub, err := s.store.Begin(answer, s.confidence, elapsed)
	if err != nil {
		s.logger.Printf("submit: %v", err)
		return s, nil
	}

	s.options.Reveal(answer, sub.Question().Correct)
	s.feedback = ""
	s.status = "Checking..."

	st := s.store
	return s, func() tea.Msg {
		resp, err := st.Send(context.Background(), sub.Request())
		return evaluatedMsg{Sub: sub, Resp: resp, Err: err}
	}
}

func (s *Screen) acknowledge() (screen.Screen, tea.Cmd) {
	if err := s.store.Acknowledge(); err != nil {
		return s, nil
	}
	s.feedback = ""
	return s, s.fetchNext()
}

// fetchNext requests a new question off the update loop.
func (s *Screen) fetchNext() tea.Cmd {
	s.fetching = true
	st := s.store
	req := st.AdvanceRequest()
	return func() tea.Msg {
		resp, err := st.Send(context.Background(), req)
		return advancedMsg{Resp: resp, Err: err}
	}
}

// syncQuestion resets per-question input when the current question changed.
func (s *Screen) syncQuestion() {
	q := s.store.Current()
	if q == nil {
		s.shownID = ""
		s.options = components.NewOptionList(nil)
		return
	}
	if q.ID == s.shownID && !s.options.Revealed() {
		return
	}
	s.shownID = q.ID
	s.shownAt = s.now()
	s.options = components.NewOptionList(q.Options)
	s.voiceActive = false
}

// tickCmd returns a 1-second tick command.
func tickCmd() tea.Cmd {
	return tea.Tick(time.Second, func(t time.Time) tea.Msg {
		return timerTickMsg(t)
	})
}

var (
	_ router.StackMsg = advancedMsg{}
	_ router.StackMsg = evaluatedMsg{}
	_ router.StackMsg = timerTickMsg{}
)
