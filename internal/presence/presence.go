// Package presence holds the edge-triggered state machine that turns
// per-frame presence into discrete signal events.
package presence

import (
	"fmt"
	"time"
)

// State is whether any object of interest is currently present.
type State int

const (
	Absent State = iota
	Present
)

func (s State) String() string {
	switch s {
	case Absent:
		return "ABSENT"
	case Present:
		return "PRESENT"
	default:
		return fmt.Sprintf("State(%d)", int(s))
	}
}

// Event is the signal decision made for one frame.
type Event int

const (
	None Event = iota
	Rising
	Falling
)

func (e Event) String() string {
	switch e {
	case None:
		return "NONE"
	case Rising:
		return "RISING"
	case Falling:
		return "FALLING"
	default:
		return fmt.Sprintf("Event(%d)", int(e))
	}
}

// Transition describes a non-None event together with the frame that
// caused it. It is handed to sinks and then discarded.
type Transition struct {
	Event   Event
	Frame   uint64
	Classes []int
	At      time.Time
	// SignalSent is true only when the Signaller wrote the signal for
	// this transition. Sinks see the outcome, never the intent.
	SignalSent bool
}

// Signaller acts on a transition before any Sink sees it and reports
// whether the signal reached the receiver.
type Signaller interface {
	Signal(Transition) bool
}

// Sink consumes transitions. Implementations must not block the frame loop
// for long and must not feed back into the Tracker.
type Sink interface {
	Handle(Transition)
}

// SinkFunc adapts a function to Sink.
type SinkFunc func(Transition)

// Handle calls f(t).
func (f SinkFunc) Handle(t Transition) { f(t) }
