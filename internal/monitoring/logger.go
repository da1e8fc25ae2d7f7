// Package monitoring holds the diagnostic logging hook shared by the frame
// loop, the overlay renderer and the serial emitter.
package monitoring

import (
	"log"
	"sync/atomic"
)

// Logf is the package-level diagnostic logger. It defaults to log.Printf.
// Tests replace it with SetLogger to capture or mute output.
var Logf func(format string, v ...interface{}) = log.Printf

// SetLogger replaces Logf. Passing nil installs a no-op logger.
func SetLogger(f func(format string, v ...interface{})) {
	if f == nil {
		Logf = func(string, ...interface{}) {}
		return
	}
	Logf = f
}

// Sampler rate-limits per-frame diagnostics to one line every N frames.
// An interval of 0 disables sampled logging entirely.
type Sampler struct {
	every uint64
	count atomic.Uint64
}

// NewSampler returns a Sampler that lets through one call in every.
func NewSampler(every uint64) *Sampler {
	return &Sampler{every: every}
}

// Logf forwards to the package logger on every Nth call.
func (s *Sampler) Logf(format string, v ...interface{}) {
	if s == nil || s.every == 0 {
		return
	}
	if n := s.count.Add(1); (n-1)%s.every == 0 {
		Logf(format, v...)
	}
}
