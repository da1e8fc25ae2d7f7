package replay

import (
	"context"
	"fmt"
	"sync"

	"github.com/banshee-data/blink/internal/detection"
	"github.com/banshee-data/blink/internal/frameloop"
	"github.com/banshee-data/blink/internal/overlay"
)

// Frame is a blank canvas carrying the detections recorded for it.
type Frame struct {
	*overlay.RGBACanvas
	batch detection.Batch
}

// Camera replays fixture entries in order. With Loop set it starts over at
// the end instead of reporting end of stream.
type Camera struct {
	mu      sync.Mutex
	entries []Entry
	next    int
	Loop    bool
}

// NewCamera returns a Camera over entries.
func NewCamera(entries []Entry, loop bool) *Camera {
	return &Camera{entries: entries, Loop: loop}
}

// ReadFrame returns the next fixture frame.
func (c *Camera) ReadFrame() (frameloop.Frame, frameloop.FrameResult, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.next >= len(c.entries) {
		if !c.Loop || len(c.entries) == 0 {
			return nil, frameloop.EndOfStream, nil
		}
		c.next = 0
	}
	e := c.entries[c.next]
	c.next++
	return &Frame{RGBACanvas: overlay.NewRGBACanvas(e.Width, e.Height), batch: e.Batch()}, frameloop.FrameAvailable, nil
}

// Close is a no-op so the camera can be registered like a real device.
func (c *Camera) Close() error { return nil }

// Detector returns the detections stored with each replayed frame.
type Detector struct{}

// Infer returns f's recorded batch.
func (Detector) Infer(ctx context.Context, f frameloop.Frame) (detection.Batch, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	frame, ok := f.(*Frame)
	if !ok {
		return nil, fmt.Errorf("replay detector: unsupported frame type %T", f)
	}
	return frame.batch, nil
}
