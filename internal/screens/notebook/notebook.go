// Package notebook shows the learner's mistakes, from this session and from
// the journal of earlier ones.
package notebook

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	tea "charm.land/bubbletea/v2"
	"charm.land/lipgloss/v2"

	"github.com/abhisek/sketchbook/internal/quiz"
	"github.com/abhisek/sketchbook/internal/router"
	"github.com/abhisek/sketchbook/internal/screen"
	"github.com/abhisek/sketchbook/internal/store"
	"github.com/abhisek/sketchbook/internal/ui/layout"
	"github.com/abhisek/sketchbook/internal/ui/theme"
)

// JournalLimit caps the mistakes loaded from earlier sessions.
const JournalLimit = 50

// MistakeSource is the part of a session the notebook reads.
type MistakeSource interface {
	Mistakes() []quiz.Mistake
}

// Tab selects which mistakes are listed.
type Tab int

const (
	TabSession Tab = iota
	TabJournal
)

type journalLoadedMsg struct {
	Mistakes []store.MistakeEvent
	Counts   map[string]int
	Err      error
}

// entry is one row of the notebook, whatever its origin.
type entry struct {
	Topic         string
	QuestionText  string
	UserAnswer    string
	CorrectAnswer string
	At            time.Time
}

// NotebookScreen lists mistakes with the right answer beside each one.
type NotebookScreen struct {
	session  MistakeSource
	events   store.EventRepo
	tab      Tab
	selected int

	journal []entry
	counts  map[string]int
	loaded  bool
	errMsg  string
}

var _ screen.Screen = (*NotebookScreen)(nil)
var _ screen.KeyHintProvider = (*NotebookScreen)(nil)

// New creates a NotebookScreen. events may be nil, in which case only the
// current session's mistakes are available.
func New(session MistakeSource, events store.EventRepo) *NotebookScreen {
	return &NotebookScreen{session: session, events: events}
}

func (s *NotebookScreen) Init() tea.Cmd {
	if s.events == nil {
		s.loaded = true
		return nil
	}
	events := s.events
	return func() tea.Msg {
		ctx := context.Background()
		mistakes, err := events.QueryMistakes(ctx, store.QueryOpts{Limit: JournalLimit}, "")
		if err != nil {
			return journalLoadedMsg{Err: err}
		}
		counts, err := events.MistakeCountsByTopic(ctx)
		if err != nil {
			return journalLoadedMsg{Mistakes: mistakes, Err: err}
		}
		return journalLoadedMsg{Mistakes: mistakes, Counts: counts}
	}
}

func (s *NotebookScreen) Title() string {
	return "Mistake Notebook"
}

func (s *NotebookScreen) KeyHints() []layout.KeyHint {
	hints := []layout.KeyHint{
		{Key: "↑↓", Description: "Navigate"},
	}
	if s.events != nil {
		hints = append(hints, layout.KeyHint{Key: "Tab", Description: "Session/All"})
	}
	return append(hints, layout.KeyHint{Key: "Esc", Description: "Back"})
}

func (s *NotebookScreen) Update(msg tea.Msg) (screen.Screen, tea.Cmd) {
	switch msg := msg.(type) {
	case journalLoadedMsg:
		s.loaded = true
		if msg.Err != nil {
			s.errMsg = msg.Err.Error()
		}
		s.journal = make([]entry, 0, len(msg.Mistakes))
		for _, m := range msg.Mistakes {
			s.journal = append(s.journal, entry{
				Topic:         m.Topic,
				QuestionText:  m.QuestionText,
				UserAnswer:    m.UserAnswer,
				CorrectAnswer: m.CorrectAnswer,
				At:            m.At,
			})
		}
		s.counts = msg.Counts
		return s, nil

	case tea.KeyPressMsg:
		switch msg.String() {
		case "esc", "n":
			return s, func() tea.Msg { return router.PopScreenMsg{} }
		case "tab":
			if s.events != nil {
				s.tab = 1 - s.tab
				s.selected = 0
			}
			return s, nil
		case "up", "k":
			if s.selected > 0 {
				s.selected--
			}
			return s, nil
		case "down", "j":
			if s.selected < len(s.entries())-1 {
				s.selected++
			}
			return s, nil
		}
	}
	return s, nil
}

// Tab returns the visible tab.
func (s *NotebookScreen) Tab() Tab {
	return s.tab
}

// entries returns the rows of the visible tab, newest first.
func (s *NotebookScreen) entries() []entry {
	if s.tab == TabJournal {
		return s.journal
	}
	mistakes := s.session.Mistakes()
	out := make([]entry, 0, len(mistakes))
	for i := len(mistakes) - 1; i >= 0; i-- {
		m := mistakes[i]
		out = append(out, entry{
			Topic:         m.Topic,
			QuestionText:  m.QuestionText,
			UserAnswer:    m.UserAnswer,
			CorrectAnswer: m.CorrectAnswer,
			At:            m.At,
		})
	}
	return out
}

func (s *NotebookScreen) View(width, height int) string {
	var b strings.Builder
	b.WriteString("\n")
	b.WriteString(s.renderTabs(width))
	b.WriteString("\n\n")

	if s.tab == TabJournal {
		if s.errMsg != "" {
			b.WriteString(lipgloss.NewStyle().
				Width(width).Align(lipgloss.Center).Foreground(theme.Error).
				Render(fmt.Sprintf("Error: %s", s.errMsg)))
			b.WriteString("\n\n")
		}
		if !s.loaded {
			return b.String() + lipgloss.NewStyle().
				Width(width).Align(lipgloss.Center).Foreground(theme.TextDim).
				Render("Loading notebook...")
		}
		if len(s.counts) > 0 {
			b.WriteString(renderCounts(s.counts, width))
			b.WriteString("\n\n")
		}
	}

	entries := s.entries()
	if len(entries) == 0 {
		b.WriteString(lipgloss.NewStyle().
			Width(width).Align(lipgloss.Center).Foreground(theme.TextDim).Italic(true).
			Render("No mistakes yet. Keep sketching!"))
		return b.String()
	}

	for i, e := range entries {
		prefix := "  "
		titleStyle := lipgloss.NewStyle().Foreground(theme.Text)
		if i == s.selected {
			prefix = "▸ "
			titleStyle = theme.Selected
		}
		b.WriteString(titleStyle.Render(fmt.Sprintf("%s[%s] %s", prefix, e.Topic, e.QuestionText)))
		b.WriteString("\n")
		if i == s.selected {
			b.WriteString("    " + theme.Incorrect.Render("you said: "+e.UserAnswer))
			b.WriteString("\n")
			b.WriteString("    " + theme.Correct.Render("answer:   "+e.CorrectAnswer))
			b.WriteString("\n")
			if !e.At.IsZero() {
				b.WriteString("    " + theme.Hint.Render(e.At.Local().Format("Jan 02, 15:04")))
				b.WriteString("\n")
			}
		}
	}
	return b.String()
}

func (s *NotebookScreen) renderTabs(width int) string {
	names := []string{"This session", "All sessions"}
	if s.events == nil {
		names = names[:1]
	}
	parts := make([]string, len(names))
	for i, n := range names {
		if Tab(i) == s.tab {
			parts[i] = theme.Selected.Render("[" + n + "]")
		} else {
			parts[i] = lipgloss.NewStyle().Foreground(theme.TextDim).Render(" " + n + " ")
		}
	}
	return lipgloss.PlaceHorizontal(width, lipgloss.Center, strings.Join(parts, "   "))
}

func renderCounts(counts map[string]int, width int) string {
	topics := make([]string, 0, len(counts))
	for t := range counts {
		topics = append(topics, t)
	}
	sort.Slice(topics, func(i, j int) bool {
		if counts[topics[i]] != counts[topics[j]] {
			return counts[topics[i]] > counts[topics[j]]
		}
		return topics[i] < topics[j]
	})

	parts := make([]string, len(topics))
	for i, t := range topics {
		parts[i] = fmt.Sprintf("%s %d", t, counts[t])
	}
	return lipgloss.PlaceHorizontal(width, lipgloss.Center,
		theme.Hint.Render("By topic: "+strings.Join(parts, " · ")))
}
