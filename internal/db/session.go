package db

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Session is one run of the detector.
type Session struct {
	ID         string          `json:"session_id"`
	StartedAt  time.Time       `json:"started_at"`
	EndedAt    *time.Time      `json:"ended_at,omitempty"`
	Version    string          `json:"version"`
	Config     json.RawMessage `json:"config"`
	StopReason string          `json:"stop_reason,omitempty"`
	Frames     uint64          `json:"frames"`
}

// StartSession records the start of a run and returns its generated id.
// config is stored as JSON for later inspection.
func (db *DB) StartSession(startedAt time.Time, version string, config any) (*Session, error) {
	cfg, err := json.Marshal(config)
	if err != nil {
		return nil, fmt.Errorf("marshal session config: %w", err)
	}
	s := &Session{
		ID:        uuid.NewString(),
		StartedAt: startedAt.UTC(),
		Version:   version,
		Config:    cfg,
	}
	_, err = db.Exec(
		`INSERT INTO sessions (session_id, started_at, version, config_json) VALUES (?, ?, ?, ?)`,
		s.ID, s.StartedAt.UnixNano(), s.Version, string(s.Config),
	)
	if err != nil {
		return nil, fmt.Errorf("insert session: %w", err)
	}
	return s, nil
}

// EndSession stamps the end of a run.
func (db *DB) EndSession(id string, endedAt time.Time, reason string, frames uint64) error {
	res, err := db.Exec(
		`UPDATE sessions SET ended_at = ?, stop_reason = ?, frames = ? WHERE session_id = ?`,
		endedAt.UTC().UnixNano(), reason, int64(frames), id,
	)
	if err != nil {
		return fmt.Errorf("end session %s: %w", id, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("end session %s: no such session", id)
	}
	return nil
}

// GetSession loads one session.
func (db *DB) GetSession(id string) (*Session, error) {
	var (
		s          Session
		startedAt  int64
		endedAt    *int64
		config     string
		stopReason *string
		frames     int64
	)
	err := db.QueryRow(
		`SELECT session_id, started_at, ended_at, version, config_json, stop_reason, frames
		 FROM sessions WHERE session_id = ?`, id,
	).Scan(&s.ID, &startedAt, &endedAt, &s.Version, &config, &stopReason, &frames)
	if err != nil {
		return nil, fmt.Errorf("get session %s: %w", id, err)
	}
	s.StartedAt = time.Unix(0, startedAt).UTC()
	if endedAt != nil {
		t := time.Unix(0, *endedAt).UTC()
		s.EndedAt = &t
	}
	if stopReason != nil {
		s.StopReason = *stopReason
	}
	s.Config = json.RawMessage(config)
	s.Frames = uint64(frames)
	return &s, nil
}
