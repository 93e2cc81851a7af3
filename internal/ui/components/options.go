package components

import (
	"fmt"
	"strings"

	tea "charm.land/bubbletea/v2"
	"charm.land/lipgloss/v2"

	"github.com/abhisek/sketchbook/internal/ui/theme"
)

// OptionLabels are the letters shown next to answer options, in order.
const OptionLabels = "ABCDE"

// OptionList is a lettered answer selector.
type OptionList struct {
	Options  []string
	Selected int

	// Chosen and Correct are set by Reveal; -1 until then.
	Chosen  int
	Correct int
}

// NewOptionList creates a selector over options with the first one
// highlighted.
func NewOptionList(options []string) OptionList {
	return OptionList{
		Options: options,
		Chosen:  -1,
		Correct: -1,
	}
}

// Revealed reports whether the answer has been marked.
func (o OptionList) Revealed() bool {
	return o.Chosen >= 0
}

// Value returns the highlighted option text, or "" when there are none.
func (o OptionList) Value() string {
	if o.Selected < 0 || o.Selected >= len(o.Options) {
		return ""
	}
	return o.Options[o.Selected]
}

// SelectValue highlights the option equal to v. It reports whether one
// was found.
func (o *OptionList) SelectValue(v string) bool {
	for i, opt := range o.Options {
		if opt == v {
			o.Selected = i
			return true
		}
	}
	return false
}

// Reveal marks chosen and correct answers for display and freezes the list.
func (o *OptionList) Reveal(chosen, correct string) {
	o.Chosen, o.Correct = -1, -1
	for i, opt := range o.Options {
		if opt == chosen {
			o.Chosen = i
		}
		if opt == correct {
			o.Correct = i
		}
	}
	if o.Chosen < 0 {
		// Keep the list frozen even when the answer is not an option.
		o.Chosen = len(o.Options)
	}
}

// Update handles arrow, letter and digit selection. Enter is left to the
// owning screen.
func (o OptionList) Update(msg tea.Msg) (OptionList, tea.Cmd) {
	if o.Revealed() {
		return o, nil
	}

	kmsg, ok := msg.(tea.KeyPressMsg)
	if !ok {
		return o, nil
	}

	key := kmsg.String()
	switch key {
	case "up", "k":
		if o.Selected > 0 {
			o.Selected--
		}
		return o, nil
	case "down", "j":
		if o.Selected < len(o.Options)-1 {
			o.Selected++
		}
		return o, nil
	}

	if len(key) == 1 {
		if i := strings.IndexByte(strings.ToLower(OptionLabels), key[0]); i >= 0 && i < len(o.Options) {
			o.Selected = i
		} else if key[0] >= '1' && key[0] <= '9' {
			if i := int(key[0] - '1'); i < len(o.Options) {
				o.Selected = i
			}
		}
	}
	return o, nil
}

// View renders the options, one per line.
func (o OptionList) View() string {
	var b strings.Builder
	for i, opt := range o.Options {
		prefix := "  "
		if i == o.Selected && !o.Revealed() {
			prefix = "▸ "
		}
		line := fmt.Sprintf("%s%c)  %s", prefix, OptionLabels[i], opt)

		var style lipgloss.Style
		switch {
		case o.Revealed() && i == o.Correct:
			style = theme.Correct
		case o.Revealed() && i == o.Chosen:
			style = theme.Incorrect
		case o.Revealed():
			style = lipgloss.NewStyle().Foreground(theme.TextDim)
		case i == o.Selected:
			style = theme.Selected
		default:
			style = theme.Unselected
		}
		b.WriteString(style.Render(line))
		b.WriteString("\n")
	}
	return b.String()
}
