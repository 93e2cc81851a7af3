package components

import (
	"charm.land/bubbles/v2/textinput"
	tea "charm.land/bubbletea/v2"
	"charm.land/lipgloss/v2"

	"github.com/abhisek/sketchbook/internal/ui/theme"
)

// VoiceInput collects a spoken-answer transcript. Speech capture happens
// outside the terminal; whatever the recogniser produced is typed or pasted
// here and matched against the options.
type VoiceInput struct {
	Model     textinput.Model
	submitted bool
	matched   bool
}

// NewVoiceInput creates a focused transcript input.
func NewVoiceInput(charLimit int) VoiceInput {
	ti := textinput.New()
	ti.Placeholder = "say or type your answer"
	ti.Prompt = "🎤 "
	if charLimit > 0 {
		ti.CharLimit = charLimit
	}
	ti.Focus()

	return VoiceInput{Model: ti}
}

// Init returns the initial command.
func (v VoiceInput) Init() tea.Cmd {
	return v.Model.Focus()
}

// Update handles messages.
func (v VoiceInput) Update(msg tea.Msg) (VoiceInput, tea.Cmd) {
	var cmd tea.Cmd
	v.Model, cmd = v.Model.Update(msg)
	v.submitted = false
	return v, cmd
}

// View renders the input, with a mark once a transcript was submitted.
func (v VoiceInput) View() string {
	view := v.Model.View()
	if v.submitted {
		if v.matched {
			view += " " + lipgloss.NewStyle().Foreground(theme.Success).Render("✓")
		} else {
			view += " " + lipgloss.NewStyle().Foreground(theme.Error).Render("✗ no option matched")
		}
	}
	return view
}

// Value returns the current transcript.
func (v VoiceInput) Value() string {
	return v.Model.Value()
}

// Submit records whether the transcript matched an option.
func (v *VoiceInput) Submit(matched bool) {
	v.submitted = true
	v.matched = matched
}
