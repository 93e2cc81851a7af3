package play

import (
	"fmt"
	"sort"
	"strings"

	"charm.land/lipgloss/v2"

	"github.com/abhisek/sketchbook/internal/quiz"
	"github.com/abhisek/sketchbook/internal/session"
	"github.com/abhisek/sketchbook/internal/ui/components"
	"github.com/abhisek/sketchbook/internal/ui/layout"
	"github.com/abhisek/sketchbook/internal/ui/theme"
)

// meterLabelWidth lines up topic names in the mastery panel.
const meterLabelWidth = 12

func (s *Screen) View(width, height int) string {
	var b strings.Builder

	q := s.store.Current()
	if q == nil {
		b.WriteString(s.renderEmpty(width))
	} else {
		b.WriteString(s.renderQuestion(q, width))
	}

	if rem := s.store.Remediation(); rem != nil {
		b.WriteString("\n")
		b.WriteString(renderRemediation(rem, width))
		b.WriteString("\n")
	}

	if s.feedback != "" {
		b.WriteString("\n")
		style := theme.Incorrect
		if strings.HasPrefix(s.feedback, "Correct") {
			style = theme.Correct
		}
		b.WriteString("  " + style.Render(s.feedback))
		b.WriteString("\n")
	}
	if s.status != "" {
		b.WriteString("\n  " + theme.Hint.Render(s.status) + "\n")
	}

	b.WriteString("\n")
	if layout.IsCompactHeight(height) {
		b.WriteString(s.renderLearnerLine())
	} else {
		b.WriteString(s.renderLearner(width))
	}

	return b.String()
}

func (s *Screen) renderEmpty(width int) string {
	msg := "Fetching a question..."
	if !s.fetching {
		msg = "No question right now. Press r to try again."
	}
	return lipgloss.NewStyle().
		Width(width).
		Align(lipgloss.Center).
		Foreground(theme.TextDim).
		Render("\n\n" + msg + "\n")
}

func (s *Screen) renderQuestion(q *quiz.Question, width int) string {
	var b strings.Builder

	infoLeft := lipgloss.NewStyle().
		Foreground(theme.Secondary).
		Bold(true).
		Render("  Topic: " + q.Topic)
	pips := difficultyPips(q.Difficulty)
	if !layout.IsCompactWidth(width) {
		pips = "Difficulty " + pips
	}
	infoRight := lipgloss.NewStyle().
		Foreground(theme.TextDim).
		Render(pips)

	infoLine := infoLeft
	if pad := width - lipgloss.Width(infoLeft) - lipgloss.Width(infoRight) - 4; pad > 0 {
		infoLine += strings.Repeat(" ", pad) + infoRight
	}
	b.WriteString(infoLine)
	b.WriteString("\n")
	if width > 4 {
		b.WriteString(lipgloss.NewStyle().Foreground(theme.Border).Render(strings.Repeat("─", width-4)))
	}
	b.WriteString("\n\n")

	b.WriteString(lipgloss.NewStyle().
		Width(width).
		Align(lipgloss.Center).
		Foreground(theme.Text).
		Bold(true).
		Render(q.Text))
	b.WriteString("\n\n")

	b.WriteString(s.options.View())

	if s.store.Phase() == session.PhaseAwaitingAnswer {
		b.WriteString("\n")
		b.WriteString("  " + theme.Hint.Render(fmt.Sprintf("Confidence %d%%  (+/-)", percent(s.confidence))))
		b.WriteString("\n")
	}
	if s.voiceActive {
		b.WriteString("\n  " + s.voice.View() + "\n")
	}
	return b.String()
}

func renderRemediation(rem *quiz.Remediation, width int) string {
	body := theme.Warning.Render("Let's look at that again") + "\n\n" +
		theme.Body.Render(rem.Explanation) + "\n\n" +
		theme.Hint.Render("See: "+rem.MediaURL) + "\n" +
		theme.Hint.Render("Press Enter when you're ready to move on.")

	boxWidth := width - 8
	if boxWidth < 20 {
		boxWidth = 20
	}
	return lipgloss.NewStyle().
		Width(width).
		Align(lipgloss.Center).
		Render(theme.Callout.Width(boxWidth).Render(body))
}

func (s *Screen) renderLearner(width int) string {
	l := s.store.Learner()

	topics := make([]string, 0, len(l.Topics))
	for t := range l.Topics {
		topics = append(topics, t)
	}
	sort.Strings(topics)

	meterWidth := width - 4
	if meterWidth > 60 {
		meterWidth = 60
	}

	var b strings.Builder
	b.WriteString("  " + theme.Hint.Render("Mastery") + "\n")
	for _, t := range topics {
		b.WriteString("  " + components.NewMeter(t, meterLabelWidth, l.Topics[t], meterWidth).View() + "\n")
	}
	b.WriteString("  " + components.NewMeter("Confidence", meterLabelWidth, l.Confidence, meterWidth).View() + "\n")
	return b.String()
}

// renderLearnerLine squeezes the mastery panel onto one line for short terminals.
func (s *Screen) renderLearnerLine() string {
	l := s.store.Learner()

	topics := make([]string, 0, len(l.Topics))
	for t := range l.Topics {
		topics = append(topics, t)
	}
	sort.Strings(topics)

	parts := make([]string, 0, len(topics)+1)
	for _, t := range topics {
		parts = append(parts, fmt.Sprintf("%s %d%%", t, percent(l.Topics[t])))
	}
	parts = append(parts, fmt.Sprintf("Confidence %d%%", percent(l.Confidence)))
	return "  " + theme.Hint.Render("Mastery  "+strings.Join(parts, " · ")) + "\n"
}

func percent(v float64) int {
	return int(quiz.Clamp(v, 0, 1)*100 + 0.5)
}

func difficultyPips(d int) string {
	d = max(quiz.MinDifficulty, min(d, quiz.MaxDifficulty))
	return strings.Repeat("●", d) + strings.Repeat("○", quiz.MaxDifficulty-d)
}
