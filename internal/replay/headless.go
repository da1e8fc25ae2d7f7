package replay

import (
	"bytes"
	"fmt"
	"image"
	"image/jpeg"
	"sync"
	"time"

	"github.com/banshee-data/blink/internal/frameloop"
)

// JPEGQuality is the encoder quality for snapshots.
const JPEGQuality = 80

// Headless is a Display that never shows a window. It keeps the latest
// frame as a JPEG for the snapshot endpoint and paces the loop by sleeping
// in PollKey. It serves fixture replays and camera runs without a screen.
type Headless struct {
	// Interval is the minimum time PollKey waits, to replay at a steady
	// frame rate. Zero means only the poll timeout.
	Interval time.Duration

	mu     sync.RWMutex
	latest []byte
	shown  uint64

	stopMu sync.Mutex
	stop   chan struct{}
}

// NewHeadless returns a Headless display pacing frames at interval.
func NewHeadless(interval time.Duration) *Headless {
	return &Headless{Interval: interval}
}

// Show encodes f as the latest snapshot. Frames backed by an RGBA image
// are encoded directly; camera frames are converted first.
func (h *Headless) Show(f frameloop.Frame) error {
	var img image.Image
	switch frame := f.(type) {
	case interface{ Image() *image.RGBA }:
		img = frame.Image()
	case interface{ ToImage() (image.Image, error) }:
		converted, err := frame.ToImage()
		if err != nil {
			return fmt.Errorf("headless display: %w", err)
		}
		img = converted
	default:
		return fmt.Errorf("headless display: frame %T has no image", f)
	}
	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: JPEGQuality}); err != nil {
		return fmt.Errorf("encode snapshot: %w", err)
	}

	h.mu.Lock()
	h.latest = buf.Bytes()
	h.shown++
	h.mu.Unlock()
	return nil
}

// PollKey sleeps and reports that no key was pressed. It returns early
// once Stop has been called.
func (h *Headless) PollKey(timeout time.Duration) bool {
	if h.Interval > timeout {
		timeout = h.Interval
	}
	timer := time.NewTimer(timeout)
	defer timer.Stop()
	select {
	case <-timer.C:
	case <-h.stopped():
	}
	return false
}

// Stop wakes any pending PollKey and makes later calls return at once.
func (h *Headless) Stop() {
	h.stopMu.Lock()
	defer h.stopMu.Unlock()
	if h.stop == nil {
		h.stop = make(chan struct{})
	}
	select {
	case <-h.stop:
	default:
		close(h.stop)
	}
}

func (h *Headless) stopped() <-chan struct{} {
	h.stopMu.Lock()
	defer h.stopMu.Unlock()
	if h.stop == nil {
		h.stop = make(chan struct{})
	}
	return h.stop
}

// Snapshot returns the latest JPEG, if any frame has been shown.
func (h *Headless) Snapshot() ([]byte, bool) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	if h.latest == nil {
		return nil, false
	}
	return h.latest, true
}

// Shown returns how many frames have been displayed.
func (h *Headless) Shown() uint64 {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.shown
}

// Close is a no-op.
func (h *Headless) Close() error { return nil }
