package quiz

import "maps"

// DefaultMastery is the score assumed for a topic the learner has not seen.
const DefaultMastery = 0.5

// InitialConfidence is the learner confidence at session start.
const InitialConfidence = 0.8

// LearnerState is the per-session learner model.
type LearnerState struct {
	// Topics maps topic name to mastery in [0,1].
	Topics map[string]float64

	// Confidence is the overall learner confidence in [0,1].
	Confidence float64
}

// NewLearnerState returns the state a fresh session starts from.
func NewLearnerState() LearnerState {
	return LearnerState{
		Topics:     map[string]float64{"General": DefaultMastery},
		Confidence: InitialConfidence,
	}
}

// Mastery returns the mastery score for topic, or DefaultMastery if unseen.
func (l LearnerState) Mastery(topic string) float64 {
	if v, ok := l.Topics[topic]; ok {
		return v
	}
	return DefaultMastery
}

// Clone returns a deep copy.
func (l LearnerState) Clone() LearnerState {
	out := LearnerState{Confidence: l.Confidence, Topics: make(map[string]float64, len(l.Topics))}
	maps.Copy(out.Topics, l.Topics)
	return out
}

// Clamp returns v limited to [lo,hi].
func Clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
