package presence

// Tracker owns the presence state. It starts Absent regardless of what the
// first frame contains, so a real presence always shows up as a Rising
// edge. A Tracker is driven by a single goroutine and is not safe for
// concurrent use.
type Tracker struct {
	state   State
	rising  uint64
	falling uint64
}

// NewTracker returns a Tracker in the Absent state.
func NewTracker() *Tracker {
	return &Tracker{state: Absent}
}

// Update applies one frame's aggregate presence and returns the resulting
// event. It must be called exactly once per processed frame.
func (t *Tracker) Update(anyPresent bool) Event {
	next, ev := step(t.state, anyPresent)
	t.state = next
	switch ev {
	case Rising:
		t.rising++
	case Falling:
		t.falling++
	}
	return ev
}

// step is the transition function. It depends on nothing but its inputs.
func step(s State, anyPresent bool) (State, Event) {
	switch {
	case s == Absent && anyPresent:
		return Present, Rising
	case s == Present && !anyPresent:
		return Absent, Falling
	default:
		return s, None
	}
}

// State returns the current state.
func (t *Tracker) State() State {
	return t.state
}

// Counts returns the number of Rising and Falling events emitted so far.
// rising equals falling, or falling+1 while the state is Present.
func (t *Tracker) Counts() (rising, falling uint64) {
	return t.rising, t.falling
}
