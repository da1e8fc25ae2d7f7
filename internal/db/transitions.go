package db

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/banshee-data/blink/internal/presence"
)

// DefaultTransitionLimit caps list queries when no limit is given.
const DefaultTransitionLimit = 100

// TransitionRecord is a stored Rising or Falling edge.
type TransitionRecord struct {
	ID         int64     `json:"id"`
	SessionID  string    `json:"session_id"`
	Event      string    `json:"event"`
	Frame      uint64    `json:"frame"`
	Classes    []int     `json:"classes"`
	At         time.Time `json:"at"`
	SignalSent bool      `json:"signal_sent"`
}

// HourCount is the number of Rising edges that started within an hour.
type HourCount struct {
	Hour  time.Time `json:"hour"`
	Count int       `json:"count"`
}

// RecordTransition stores t under session. None events are rejected.
func (db *DB) RecordTransition(sessionID string, t presence.Transition) error {
	if t.Event != presence.Rising && t.Event != presence.Falling {
		return fmt.Errorf("record transition: unexpected event %s", t.Event)
	}
	classes := t.Classes
	if classes == nil {
		classes = []int{}
	}
	classJSON, err := json.Marshal(classes)
	if err != nil {
		return fmt.Errorf("marshal classes: %w", err)
	}
	_, err = db.Exec(
		`INSERT INTO transitions (session_id, event, frame, classes, at_unix_nanos, signal_sent)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		sessionID, t.Event.String(), int64(t.Frame), string(classJSON), t.At.UnixNano(), t.SignalSent,
	)
	if err != nil {
		return fmt.Errorf("insert transition: %w", err)
	}
	return nil
}

// Transitions returns the most recent transitions, newest first.
func (db *DB) Transitions(limit int) ([]TransitionRecord, error) {
	if limit <= 0 {
		limit = DefaultTransitionLimit
	}
	rows, err := db.Query(
		`SELECT transition_id, session_id, event, frame, classes, at_unix_nanos, signal_sent
		 FROM transitions ORDER BY at_unix_nanos DESC, transition_id DESC LIMIT ?`, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("query transitions: %w", err)
	}
	defer rows.Close()

	records := []TransitionRecord{}
	for rows.Next() {
		var (
			r       TransitionRecord
			frame   int64
			classes string
			at      int64
		)
		if err := rows.Scan(&r.ID, &r.SessionID, &r.Event, &frame, &classes, &at, &r.SignalSent); err != nil {
			return nil, fmt.Errorf("scan transition: %w", err)
		}
		if err := json.Unmarshal([]byte(classes), &r.Classes); err != nil {
			return nil, fmt.Errorf("decode classes of transition %d: %w", r.ID, err)
		}
		r.Frame = uint64(frame)
		r.At = time.Unix(0, at).UTC()
		records = append(records, r)
	}
	return records, rows.Err()
}

// RisingPerHour counts Rising edges per UTC hour since the given time,
// oldest hour first. Hours without any edge are omitted.
func (db *DB) RisingPerHour(since time.Time) ([]HourCount, error) {
	const hourNanos = int64(time.Hour)
	rows, err := db.Query(
		`SELECT (at_unix_nanos / ?) AS hour_bucket, COUNT(*)
		 FROM transitions
		 WHERE event = 'RISING' AND at_unix_nanos >= ?
		 GROUP BY hour_bucket ORDER BY hour_bucket`,
		hourNanos, since.UnixNano(),
	)
	if err != nil {
		return nil, fmt.Errorf("query rising per hour: %w", err)
	}
	defer rows.Close()

	counts := []HourCount{}
	for rows.Next() {
		var bucket int64
		var c HourCount
		if err := rows.Scan(&bucket, &c.Count); err != nil {
			return nil, fmt.Errorf("scan hour count: %w", err)
		}
		c.Hour = time.Unix(0, bucket*hourNanos).UTC()
		counts = append(counts, c)
	}
	return counts, rows.Err()
}
