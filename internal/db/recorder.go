package db

import (
	"github.com/banshee-data/blink/internal/monitoring"
	"github.com/banshee-data/blink/internal/presence"
)

// Recorder is a presence.Sink that writes every transition to the event
// log. Edges are rare, so the insert runs inline on the frame loop.
type Recorder struct {
	db        *DB
	sessionID string
}

// NewRecorder returns a Recorder that files transitions under sessionID.
func NewRecorder(db *DB, sessionID string) *Recorder {
	return &Recorder{db: db, sessionID: sessionID}
}

// Handle stores t. A failed insert is logged and dropped.
func (r *Recorder) Handle(t presence.Transition) {
	if err := r.db.RecordTransition(r.sessionID, t); err != nil {
		monitoring.Logf("event log: %v", err)
	}
}
