package frameloop

import (
	"context"
	"image"
	"time"

	"github.com/banshee-data/blink/internal/detection"
	"github.com/banshee-data/blink/internal/overlay"
)

// FrameResult says whether ReadFrame produced a frame.
type FrameResult int

const (
	FrameAvailable FrameResult = iota
	EndOfStream
)

func (r FrameResult) String() string {
	if r == EndOfStream {
		return "END_OF_STREAM"
	}
	return "FRAME_AVAILABLE"
}

// Frame is one captured image that the overlay can draw on. A Frame is only
// valid until the next ReadFrame.
type Frame interface {
	overlay.Canvas
	Bounds() image.Rectangle
}

// Camera yields frames in capture order.
type Camera interface {
	ReadFrame() (Frame, FrameResult, error)
}

// Detector runs the object detector over a frame.
type Detector interface {
	Infer(ctx context.Context, f Frame) (detection.Batch, error)
}

// Display shows annotated frames and reports operator key presses.
type Display interface {
	Show(f Frame) error
	// PollKey waits up to timeout and reports whether a key was pressed.
	PollKey(timeout time.Duration) bool
}

// FrameStats summarises one processed frame for observers.
type FrameStats struct {
	Frame    uint64
	Latency  time.Duration
	Records  int
	Present  []int
	Event    string
	RenderOK bool
}

// FrameObserver is told about every processed frame, after the transition
// has been dispatched.
type FrameObserver interface {
	ObserveFrame(FrameStats)
}
