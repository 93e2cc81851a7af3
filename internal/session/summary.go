package session

import (
	"sort"
	"time"
)

// Summary holds the data displayed when a session ends.
type Summary struct {
	SessionID string
	Duration  time.Duration
	Answered  int
	Correct   int
	Mistakes  int
	Score     int
	Accuracy  float64
	Topics    []TopicMastery
}

// TopicMastery is one topic's final mastery score.
type TopicMastery struct {
	Topic   string
	Mastery float64
}

// Summary builds a Summary from the session so far.
func (s *Store) Summary() *Summary {
	var accuracy float64
	if s.answered > 0 {
		accuracy = float64(s.correct) / float64(s.answered)
	}

	var duration time.Duration
	if s.started {
		duration = s.now().Sub(s.startedAt)
	}

	topics := make([]TopicMastery, 0, len(s.learner.Topics))
	for topic, m := range s.learner.Topics {
		topics = append(topics, TopicMastery{Topic: topic, Mastery: m})
	}
	sort.Slice(topics, func(i, j int) bool { return topics[i].Topic < topics[j].Topic })

	return &Summary{
		SessionID: s.sessionID,
		Duration:  duration,
		Answered:  s.answered,
		Correct:   s.correct,
		Mistakes:  len(s.mistakes),
		Score:     s.score,
		Accuracy:  accuracy,
		Topics:    topics,
	}
}
