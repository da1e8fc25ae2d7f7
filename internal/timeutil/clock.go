// Package timeutil provides a testable abstraction over the clock used to
// time inference.
package timeutil

import (
	"sync"
	"time"
)

// Clock provides the time operations the frame loop depends on.
type Clock interface {
	// Now returns the current time.
	Now() time.Time

	// Since returns the duration since t.
	Since(t time.Time) time.Duration
}

// RealClock implements Clock using the standard time package.
type RealClock struct{}

// Now returns the current time.
func (RealClock) Now() time.Time {
	return time.Now()
}

// Since returns the time elapsed since t.
func (RealClock) Since(t time.Time) time.Duration {
	return time.Since(t)
}

// MockClock is a manually controlled clock for testing.
type MockClock struct {
	mu  sync.Mutex
	now time.Time
}

// NewMockClock creates a new MockClock set to the given time.
func NewMockClock(t time.Time) *MockClock {
	return &MockClock{now: t}
}

// Now returns the mocked current time.
func (c *MockClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

// Since returns the mocked time elapsed since t.
func (c *MockClock) Since(t time.Time) time.Duration {
	return c.Now().Sub(t)
}

// Set sets the mock clock to a specific time.
func (c *MockClock) Set(t time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = t
}

// Advance moves the mock clock forward by d.
func (c *MockClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

// Stopwatch measures one interval at a time, in the manner of a tick meter:
// Start, then Stop to read the elapsed duration.
type Stopwatch struct {
	clock   Clock
	started time.Time
	elapsed time.Duration
}

// NewStopwatch returns a Stopwatch reading from clock. A nil clock means
// RealClock.
func NewStopwatch(clock Clock) *Stopwatch {
	if clock == nil {
		clock = RealClock{}
	}
	return &Stopwatch{clock: clock}
}

// Start resets the stopwatch and begins a new measurement.
func (s *Stopwatch) Start() {
	s.elapsed = 0
	s.started = s.clock.Now()
}

// Stop ends the measurement and returns the elapsed time.
func (s *Stopwatch) Stop() time.Duration {
	s.elapsed = s.clock.Since(s.started)
	return s.elapsed
}

// Elapsed returns the last measured duration.
func (s *Stopwatch) Elapsed() time.Duration {
	return s.elapsed
}

// Milliseconds returns d in fractional milliseconds.
func Milliseconds(d time.Duration) float64 {
	return float64(d) / float64(time.Millisecond)
}
