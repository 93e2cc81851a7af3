package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sync"
	"time"
)

// sequenceCounter hands out one monotonic sequence shared by every journal
// table, so an evaluation call, the mistake it produced and the session
// bracketing both can be put back in order after the fact.
//
// The mutex serializes within the process; the RETURNING clause makes the
// increment atomic at the database level.
type sequenceCounter struct {
	mu sync.Mutex
	db *sql.DB
}

// newSequenceCounter creates a counter and ensures the tracking table exists.
func newSequenceCounter(db *sql.DB) (*sequenceCounter, error) {
	_, err := db.Exec(`CREATE TABLE IF NOT EXISTS global_sequence (
		id INTEGER PRIMARY KEY CHECK (id = 1),
		next_val INTEGER NOT NULL DEFAULT 1
	)`)
	if err != nil {
		return nil, fmt.Errorf("create sequence table: %w", err)
	}

	_, err = db.Exec(`INSERT OR IGNORE INTO global_sequence (id, next_val) VALUES (1, 1)`)
	if err != nil {
		return nil, fmt.Errorf("seed sequence: %w", err)
	}

	return &sequenceCounter{db: db}, nil
}

// Next atomically returns the next sequence number and increments the counter.
func (sc *sequenceCounter) Next(ctx context.Context) (int64, error) {
	sc.mu.Lock()
	defer sc.mu.Unlock()

	var seq int64
	err := sc.db.QueryRowContext(ctx,
		`UPDATE global_sequence SET next_val = next_val + 1 WHERE id = 1 RETURNING next_val - 1`,
	).Scan(&seq)
	if err != nil {
		return 0, fmt.Errorf("next sequence: %w", err)
	}
	return seq, nil
}

type eventRepo struct {
	db  *sql.DB
	seq *sequenceCounter
}

func (r *eventRepo) AppendEvaluation(ctx context.Context, data EvaluationEventData) error {
	seqNum, err := r.seq.Next(ctx)
	if err != nil {
		return fmt.Errorf("next sequence: %w", err)
	}

	_, err = r.db.ExecContext(ctx, `INSERT INTO evaluation_events
		(sequence, timestamp, session_id, endpoint, question_id, request_body, response_body, latency_ms, success, error_message)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		seqNum, time.Now().UnixNano(), data.SessionID, data.Endpoint, data.QuestionID,
		data.RequestBody, data.ResponseBody, data.LatencyMs, data.Success, data.ErrorMessage,
	)
	if err != nil {
		return fmt.Errorf("save evaluation event: %w", err)
	}
	return nil
}

func (r *eventRepo) AppendMistake(ctx context.Context, data MistakeEventData) error {
	seqNum, err := r.seq.Next(ctx)
	if err != nil {
		return fmt.Errorf("next sequence: %w", err)
	}

	at := data.At
	if at.IsZero() {
		at = time.Now()
	}
	_, err = r.db.ExecContext(ctx, `INSERT INTO mistake_events
		(sequence, timestamp, session_id, user_id, question_id, topic, question_text, user_answer, correct_answer, mode)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		seqNum, at.UnixNano(), data.SessionID, data.UserID, data.QuestionID, data.Topic,
		data.QuestionText, data.UserAnswer, data.CorrectAnswer, data.Mode,
	)
	if err != nil {
		return fmt.Errorf("save mistake event: %w", err)
	}
	return nil
}

func (r *eventRepo) AppendSession(ctx context.Context, data SessionEventData) error {
	seqNum, err := r.seq.Next(ctx)
	if err != nil {
		return fmt.Errorf("next sequence: %w", err)
	}

	_, err = r.db.ExecContext(ctx, `INSERT INTO session_events
		(sequence, timestamp, session_id, action, user_id, questions_answered, mistakes, score, duration_secs)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		seqNum, time.Now().UnixNano(), data.SessionID, data.Action, data.UserID,
		data.QuestionsAnswered, data.Mistakes, data.Score, data.DurationSecs,
	)
	if err != nil {
		return fmt.Errorf("save session event: %w", err)
	}
	return nil
}

func (r *eventRepo) QueryEvaluations(ctx context.Context, opts QueryOpts) ([]EvaluationEvent, error) {
	where, args := opts.where()
	rows, err := r.db.QueryContext(ctx, `SELECT id, sequence, timestamp, session_id, endpoint, question_id,
		request_body, response_body, latency_ms, success, error_message
		FROM evaluation_events`+where+` ORDER BY sequence DESC`+opts.limit(), args...)
	if err != nil {
		return nil, fmt.Errorf("query evaluation events: %w", err)
	}
	defer rows.Close()

	var out []EvaluationEvent
	for rows.Next() {
		var e EvaluationEvent
		var ts int64
		if err := rows.Scan(&e.ID, &e.Sequence, &ts, &e.SessionID, &e.Endpoint, &e.QuestionID,
			&e.RequestBody, &e.ResponseBody, &e.LatencyMs, &e.Success, &e.ErrorMessage); err != nil {
			return nil, fmt.Errorf("scan evaluation event: %w", err)
		}
		e.Timestamp = time.Unix(0, ts)
		out = append(out, e)
	}
	return out, rows.Err()
}

func (r *eventRepo) GetEvaluation(ctx context.Context, id int64) (*EvaluationEvent, error) {
	var e EvaluationEvent
	var ts int64
	err := r.db.QueryRowContext(ctx, `SELECT id, sequence, timestamp, session_id, endpoint, question_id,
		request_body, response_body, latency_ms, success, error_message
		FROM evaluation_events WHERE id = ?`, id).
		Scan(&e.ID, &e.Sequence, &ts, &e.SessionID, &e.Endpoint, &e.QuestionID,
			&e.RequestBody, &e.ResponseBody, &e.LatencyMs, &e.Success, &e.ErrorMessage)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get evaluation event %d: %w", id, err)
	}
	e.Timestamp = time.Unix(0, ts)
	return &e, nil
}

func (r *eventRepo) QueryMistakes(ctx context.Context, opts QueryOpts, topic string) ([]MistakeEvent, error) {
	where, args := opts.where()
	if topic != "" {
		if where == "" {
			where = " WHERE topic = ?"
		} else {
			where += " AND topic = ?"
		}
		args = append(args, topic)
	}

	rows, err := r.db.QueryContext(ctx, `SELECT id, sequence, timestamp, session_id, user_id, question_id,
		topic, question_text, user_answer, correct_answer, mode
		FROM mistake_events`+where+` ORDER BY sequence DESC`+opts.limit(), args...)
	if err != nil {
		return nil, fmt.Errorf("query mistake events: %w", err)
	}
	defer rows.Close()

	var out []MistakeEvent
	for rows.Next() {
		var e MistakeEvent
		var ts int64
		if err := rows.Scan(&e.ID, &e.Sequence, &ts, &e.SessionID, &e.UserID, &e.QuestionID,
			&e.Topic, &e.QuestionText, &e.UserAnswer, &e.CorrectAnswer, &e.Mode); err != nil {
			return nil, fmt.Errorf("scan mistake event: %w", err)
		}
		e.At = time.Unix(0, ts)
		out = append(out, e)
	}
	return out, rows.Err()
}

func (r *eventRepo) MistakeCountsByTopic(ctx context.Context) (map[string]int, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT topic, COUNT(*) FROM mistake_events GROUP BY topic`)
	if err != nil {
		return nil, fmt.Errorf("query mistake counts: %w", err)
	}
	defer rows.Close()

	counts := make(map[string]int)
	for rows.Next() {
		var topic string
		var n int
		if err := rows.Scan(&topic, &n); err != nil {
			return nil, fmt.Errorf("scan mistake count: %w", err)
		}
		counts[topic] = n
	}
	return counts, rows.Err()
}

// where renders the sequence and time filters of opts.
func (o QueryOpts) where() (string, []any) {
	var clauses []string
	var args []any
	if o.After > 0 {
		clauses = append(clauses, "sequence > ?")
		args = append(args, o.After)
	}
	if o.Before > 0 {
		clauses = append(clauses, "sequence < ?")
		args = append(args, o.Before)
	}
	if !o.From.IsZero() {
		clauses = append(clauses, "timestamp >= ?")
		args = append(args, o.From.UnixNano())
	}
	if !o.To.IsZero() {
		clauses = append(clauses, "timestamp <= ?")
		args = append(args, o.To.UnixNano())
	}
	if len(clauses) == 0 {
		return "", nil
	}
	w := " WHERE " + clauses[0]
	for _, c := range clauses[1:] {
		w += " AND " + c
	}
	return w, args
}

func (o QueryOpts) limit() string {
	if o.Limit <= 0 {
		return ""
	}
	return fmt.Sprintf(" LIMIT %d", o.Limit)
}
