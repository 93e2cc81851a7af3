package components

import (
	"fmt"

	"charm.land/bubbles/v2/progress"
	"charm.land/lipgloss/v2"

	"github.com/abhisek/sketchbook/internal/ui/theme"
)

// meterPercentWidth is the space reserved for the "  100%" suffix.
const meterPercentWidth = 6

// Meter is a labelled horizontal bar for values in [0, 1].
type Meter struct {
	Label      string
	LabelWidth int
	Value      float64
	Width      int
}

// NewMeter creates a meter. labelWidth pads labels so several meters line up.
func NewMeter(label string, labelWidth int, value float64, width int) Meter {
	return Meter{
		Label:      label,
		LabelWidth: labelWidth,
		Value:      value,
		Width:      width,
	}
}

// View renders the meter.
func (m Meter) View() string {
	label := lipgloss.NewStyle().
		Foreground(theme.Text).
		Width(m.LabelWidth).
		Render(m.Label)

	barWidth := m.Width - lipgloss.Width(label) - meterPercentWidth - 2
	if barWidth < 4 {
		barWidth = 4
	}

	v := m.Value
	if v < 0 {
		v = 0
	}
	if v > 1 {
		v = 1
	}

	bar := progress.New(progress.WithWidth(barWidth), progress.WithoutPercentage())

	return label + "  " + bar.ViewAs(v) +
		lipgloss.NewStyle().Foreground(theme.TextDim).Render(fmt.Sprintf("  %3d%%", int(v*100+0.5)))
}
