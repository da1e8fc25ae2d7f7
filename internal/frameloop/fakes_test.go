package frameloop

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/banshee-data/blink/internal/detection"
	"github.com/banshee-data/blink/internal/overlay"
	"github.com/banshee-data/blink/internal/presence"
	"github.com/banshee-data/blink/internal/timeutil"
)

// fakeCamera yields n blank 640x480 frames, then end of stream.
type fakeCamera struct {
	n     int
	reads int
	err   error
}

func (c *fakeCamera) ReadFrame() (Frame, FrameResult, error) {
	if c.err != nil {
		return nil, EndOfStream, c.err
	}
	if c.reads >= c.n {
		return nil, EndOfStream, nil
	}
	c.reads++
	return overlay.NewRGBACanvas(640, 480), FrameAvailable, nil
}

// fakeDetector returns scripted batches in order and advances the clock
// by latency on each call.
type fakeDetector struct {
	batches  []detection.Batch
	clock    *timeutil.MockClock
	latency  time.Duration
	failAt   int
	calls    int
	cancel   context.CancelFunc
	cancelAt int
}

var errModel = errors.New("model exploded")

func (d *fakeDetector) Infer(ctx context.Context, _ Frame) (detection.Batch, error) {
	d.calls++
	if d.clock != nil {
		d.clock.Advance(d.latency)
	}
	if d.cancel != nil && d.calls == d.cancelAt {
		d.cancel()
	}
	if d.failAt > 0 && d.calls == d.failAt {
		return nil, errModel
	}
	if d.calls-1 < len(d.batches) {
		return d.batches[d.calls-1], nil
	}
	return nil, nil
}

type fakeDisplay struct {
	shows   int
	polls   int
	keyAt   int
	showErr error
}

func (d *fakeDisplay) Show(Frame) error {
	d.shows++
	return d.showErr
}

func (d *fakeDisplay) PollKey(time.Duration) bool {
	d.polls++
	return d.keyAt > 0 && d.polls == d.keyAt
}

// recordingSink keeps every transition it is handed.
type recordingSink struct {
	mu  sync.Mutex
	got []presence.Transition
}

func (s *recordingSink) Handle(t presence.Transition) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.got = append(s.got, t)
}

func (s *recordingSink) events() []presence.Event {
	s.mu.Lock()
	defer s.mu.Unlock()
	var evs []presence.Event
	for _, t := range s.got {
		evs = append(evs, t.Event)
	}
	return evs
}

type recordingObserver struct {
	stats []FrameStats
}

func (o *recordingObserver) ObserveFrame(s FrameStats) {
	o.stats = append(o.stats, s)
}

func person(conf float64) detection.RawDetection {
	return detection.RawDetection{ClassID: 1, Confidence: conf, Box: [4]float64{0.1, 0.2, 0.5, 0.6}}
}

func dog(conf float64) detection.RawDetection {
	return detection.RawDetection{ClassID: 18, Confidence: conf, Box: [4]float64{0.1, 0.2, 0.5, 0.6}}
}
