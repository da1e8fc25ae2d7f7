// Package frameloop drives the per-frame pipeline: capture, inference,
// extraction, aggregation, the presence state machine, signal dispatch,
// overlay rendering and display, until the stream ends, the operator
// presses a key or the context is cancelled.
package frameloop

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/banshee-data/blink/internal/detection"
	"github.com/banshee-data/blink/internal/monitoring"
	"github.com/banshee-data/blink/internal/overlay"
	"github.com/banshee-data/blink/internal/presence"
	"github.com/banshee-data/blink/internal/timeutil"
)

// ErrInference wraps a detector failure. It ends the loop.
var ErrInference = errors.New("inference failed")

// DefaultPollTimeout is how long the display waits for a key per frame.
const DefaultPollTimeout = time.Millisecond

// StopReason says why Run returned.
type StopReason int

const (
	NotStopped StopReason = iota
	StopEndOfStream
	StopKeyPressed
	StopInterrupted
	StopFailed
)

func (r StopReason) String() string {
	switch r {
	case NotStopped:
		return "running"
	case StopEndOfStream:
		return "end of stream"
	case StopKeyPressed:
		return "key pressed"
	case StopInterrupted:
		return "interrupted"
	case StopFailed:
		return "failed"
	default:
		return fmt.Sprintf("StopReason(%d)", int(r))
	}
}

// Config holds the loop parameters fixed at startup.
type Config struct {
	Threshold   float64
	Classes     detection.ClassSet
	PollTimeout time.Duration
}

// Deps are the collaborators the loop drives. Camera, Detector, Display
// and Renderer are required. Signaller runs before Sinks so they record
// whether the signal actually went out.
type Deps struct {
	Camera    Camera
	Detector  Detector
	Display   Display
	Renderer  *overlay.Renderer
	Clock     timeutil.Clock
	Signaller presence.Signaller
	Sinks     []presence.Sink
	Observers []FrameObserver
	Sampler   *monitoring.Sampler
}

// Status is a point-in-time view of the loop for HTTP readers.
type Status struct {
	Running       bool       `json:"running"`
	State         string     `json:"state"`
	Frames        uint64     `json:"frames"`
	Rising        uint64     `json:"rising"`
	Falling       uint64     `json:"falling"`
	LastLatencyMs float64    `json:"last_latency_ms"`
	Present       []int      `json:"present"`
	StopReason    string     `json:"stop_reason,omitempty"`
	StartedAt     *time.Time `json:"started_at,omitempty"`
	LastFrameAt   *time.Time `json:"last_frame_at,omitempty"`
}

// Driver runs the frame loop. The Tracker is touched only by the goroutine
// inside Run; Status may be called from anywhere.
type Driver struct {
	cfg     Config
	deps    Deps
	tracker *presence.Tracker
	sw      *timeutil.Stopwatch

	mu     sync.Mutex
	status Status
}

// NewDriver validates deps and returns a Driver ready to Run.
func NewDriver(cfg Config, deps Deps) (*Driver, error) {
	switch {
	case deps.Camera == nil:
		return nil, errors.New("frameloop: camera is required")
	case deps.Detector == nil:
		return nil, errors.New("frameloop: detector is required")
	case deps.Display == nil:
		return nil, errors.New("frameloop: display is required")
	case deps.Renderer == nil:
		return nil, errors.New("frameloop: renderer is required")
	}
	if deps.Clock == nil {
		deps.Clock = timeutil.RealClock{}
	}
	if cfg.PollTimeout <= 0 {
		cfg.PollTimeout = DefaultPollTimeout
	}
	if cfg.Classes.Len() == 0 {
		cfg.Classes = detection.NewClassSet(detection.DefaultClassIDs...)
	}

	return &Driver{
		cfg:     cfg,
		deps:    deps,
		tracker: presence.NewTracker(),
		sw:      timeutil.NewStopwatch(deps.Clock),
		status:  Status{State: presence.Absent.String()},
	}, nil
}

// Run processes frames until a stop condition. End of stream, a key press
// and cancellation of ctx are normal stops and return a nil error. A
// camera or detector failure returns StopFailed and the error.
func (d *Driver) Run(ctx context.Context) (StopReason, error) {
	d.mu.Lock()
	d.status.Running = true
	started := d.deps.Clock.Now()
	d.status.StartedAt = &started
	d.mu.Unlock()

	reason, err := d.loop(ctx)

	d.mu.Lock()
	d.status.Running = false
	d.status.StopReason = reason.String()
	d.mu.Unlock()

	rising, falling := d.tracker.Counts()
	monitoring.Logf("frame loop stopped: %s (frames=%d rising=%d falling=%d)",
		reason, d.Status().Frames, rising, falling)
	return reason, err
}

func (d *Driver) loop(ctx context.Context) (StopReason, error) {
	var frameNo uint64
	for {
		if ctx.Err() != nil {
			return StopInterrupted, nil
		}

		frame, result, err := d.deps.Camera.ReadFrame()
		if err != nil {
			return StopFailed, fmt.Errorf("read frame %d: %w", frameNo+1, err)
		}
		if result == EndOfStream {
			return StopEndOfStream, nil
		}
		frameNo++

		if err := d.processFrame(ctx, frameNo, frame); err != nil {
			if ctx.Err() != nil {
				return StopInterrupted, nil
			}
			return StopFailed, err
		}

		if d.deps.Display.PollKey(d.cfg.PollTimeout) {
			return StopKeyPressed, nil
		}
	}
}

// processFrame runs one frame through the pipeline. Only an inference
// failure is returned; render and display faults are logged.
func (d *Driver) processFrame(ctx context.Context, frameNo uint64, frame Frame) error {
	d.sw.Start()
	batch, err := d.deps.Detector.Infer(ctx, frame)
	latency := d.sw.Stop()
	if err != nil {
		return fmt.Errorf("%w on frame %d: %w", ErrInference, frameNo, err)
	}

	bounds := frame.Bounds()
	records := detection.Extract(batch, bounds.Dx(), bounds.Dy(), d.cfg.Threshold)
	flags := detection.Aggregate(records, d.cfg.Classes)
	present := flags.Present()

	ev := d.tracker.Update(flags.AnyPresent())
	now := d.deps.Clock.Now()
	if ev != presence.None {
		t := presence.Transition{Event: ev, Frame: frameNo, Classes: present, At: now}
		if d.deps.Signaller != nil {
			t.SignalSent = d.deps.Signaller.Signal(t)
		}
		for _, s := range d.deps.Sinks {
			s.Handle(t)
		}
	}

	renderErrs := d.deps.Renderer.Render(frame, records, latency)
	if err := d.deps.Display.Show(frame); err != nil {
		monitoring.Logf("display frame %d: %v", frameNo, err)
	}

	d.deps.Sampler.Logf("frame %d: %d candidates, %d records, present=%v, %.2f ms",
		frameNo, len(batch), len(records), present, timeutil.Milliseconds(latency))

	rising, falling := d.tracker.Counts()
	d.mu.Lock()
	d.status.State = d.tracker.State().String()
	d.status.Frames = frameNo
	d.status.Rising = rising
	d.status.Falling = falling
	d.status.LastLatencyMs = timeutil.Milliseconds(latency)
	d.status.Present = present
	d.status.LastFrameAt = &now
	d.mu.Unlock()

	stats := FrameStats{
		Frame:    frameNo,
		Latency:  latency,
		Records:  len(records),
		Present:  present,
		Event:    ev.String(),
		RenderOK: len(renderErrs) == 0,
	}
	for _, o := range d.deps.Observers {
		o.ObserveFrame(stats)
	}
	return nil
}

// Status returns a copy of the latest loop status.
func (d *Driver) Status() Status {
	d.mu.Lock()
	defer d.mu.Unlock()
	s := d.status
	s.Present = append([]int{}, d.status.Present...)
	return s
}
