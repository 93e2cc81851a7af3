package timer

import "github.com/abhisek/sketchbook/internal/quiz"

// ExamDuration is the countdown length, in seconds, of a timed exam.
const ExamDuration = 180

// ModeSwitch is the part of the session the timer is allowed to touch.
type ModeSwitch interface {
	Mode() quiz.Mode
	ToggleMode()
}

// Controller drives the exam countdown and practice/exam transitions.
// It is not safe for concurrent use; call it from the same loop that
// mutates the session.
type Controller struct {
	modes     ModeSwitch
	remaining int
	running   bool
}

// New creates a Controller. If the session is already in exam mode the
// countdown starts immediately.
func New(modes ModeSwitch) *Controller {
	c := &Controller{modes: modes}
	if modes.Mode() == quiz.ModeExam {
		c.start()
	}
	return c
}

// ToggleMode flips the session mode. Entering exam resets the countdown.
func (c *Controller) ToggleMode() {
	c.modes.ToggleMode()
	if c.modes.Mode() == quiz.ModeExam {
		c.start()
		return
	}
	c.stop()
}

// Tick advances the countdown by one second. It reports true on the tick
// that expired the exam and switched the session back to practice.
func (c *Controller) Tick() bool {
	if c.modes.Mode() != quiz.ModeExam {
		c.stop()
		return false
	}
	if !c.running {
		// Exam was entered without going through the controller.
		c.start()
		return false
	}

	c.remaining--
	if c.remaining > 0 {
		return false
	}

	c.stop()
	c.modes.ToggleMode()
	return true
}

// Remaining returns the seconds left in the exam, 0 when not running.
func (c *Controller) Remaining() int {
	return c.remaining
}

// Running reports whether a countdown is active.
func (c *Controller) Running() bool {
	return c.running
}

func (c *Controller) start() {
	c.remaining = ExamDuration
	c.running = true
}

func (c *Controller) stop() {
	c.remaining = 0
	c.running = false
}
