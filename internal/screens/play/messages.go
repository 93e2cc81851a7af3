package play

import (
	"time"

	"github.com/abhisek/sketchbook/internal/evaluator"
	"github.com/abhisek/sketchbook/internal/session"
)

// The messages below carry results of background work. They implement
// router.StackMsg so they still reach the quiz while another screen covers it.

// advancedMsg is sent when a skip request (initial load, skip, or
// post-remediation advance) returns.
type advancedMsg struct {
	Resp *evaluator.Response
	Err  error
}

// evaluatedMsg is sent when the evaluation of a submission returns.
type evaluatedMsg struct {
	Sub  *session.Submission
	Resp *evaluator.Response
	Err  error
}

// timerTickMsg is sent every second to drive the exam countdown.
type timerTickMsg time.Time

func (advancedMsg) StackWide()  {}
func (evaluatedMsg) StackWide() {}
func (timerTickMsg) StackWide() {}
