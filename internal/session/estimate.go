package session

import (
	"maps"

	"github.com/abhisek/sketchbook/internal/evaluator"
	"github.com/abhisek/sketchbook/internal/quiz"
)

// Local fallback adjustments applied before the service answers.
const (
	fastCorrectSecs  = 5.0
	quickCorrectSecs = 15.0
	rushedWrongSecs  = 3.0

	fastCorrectGain  = 0.10
	quickCorrectGain = 0.05
	rushedWrongLoss  = 0.15
	wrongLoss        = 0.10
	confidenceFloor  = 0.10

	masteryStep = 0.10
)

// adjustConfidence estimates the learner's confidence after one answer.
func adjustConfidence(c float64, correct bool, elapsedSecs float64) float64 {
	switch {
	case correct && elapsedSecs < fastCorrectSecs:
		c += fastCorrectGain
	case correct && elapsedSecs < quickCorrectSecs:
		c += quickCorrectGain
	case correct:
	case elapsedSecs < rushedWrongSecs:
		c = max(confidenceFloor, c-rushedWrongLoss)
	default:
		c = max(confidenceFloor, c-wrongLoss)
	}
	return quiz.Clamp(c, 0, 1)
}

// adjustMastery moves a topic score one step toward the answer's outcome.
func adjustMastery(m float64, correct bool) float64 {
	if correct {
		return quiz.Clamp(m+masteryStep, 0, 1)
	}
	return quiz.Clamp(m-masteryStep, 0, 1)
}

// localEstimate returns the learner state after applying both fallbacks for
// an answer on topic.
func localEstimate(l quiz.LearnerState, topic string, correct bool, elapsedSecs float64) quiz.LearnerState {
	out := l.Clone()
	out.Confidence = adjustConfidence(l.Confidence, correct, elapsedSecs)
	out.Topics[topic] = adjustMastery(l.Mastery(topic), correct)
	return out
}

// fromServer converts the service's learner model, clamping every score.
// ls must be Complete.
func fromServer(ls *evaluator.LearnerState) quiz.LearnerState {
	out := quiz.LearnerState{
		Confidence: quiz.Clamp(*ls.ConfidenceAvg, 0, 1),
		Topics:     make(map[string]float64, len(ls.TopicMastery)),
	}
	maps.Copy(out.Topics, ls.TopicMastery)
	for topic, v := range out.Topics {
		out.Topics[topic] = quiz.Clamp(v, 0, 1)
	}
	return out
}
