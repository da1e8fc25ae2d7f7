package cv

import (
	"fmt"
	"time"

	"gocv.io/x/gocv"

	"github.com/banshee-data/blink/internal/frameloop"
)

// Window is the operator preview.
type Window struct {
	w *gocv.Window
}

// NewWindow opens a named preview window.
func NewWindow(name string) *Window {
	return &Window{w: gocv.NewWindow(name)}
}

// Show draws f in the window.
func (w *Window) Show(f frameloop.Frame) error {
	frame, ok := f.(*Frame)
	if !ok {
		return fmt.Errorf("unsupported frame type %T", f)
	}
	w.w.IMShow(*frame.Mat())
	return nil
}

// PollKey pumps the window event loop for timeout and reports whether any
// key was pressed.
func (w *Window) PollKey(timeout time.Duration) bool {
	ms := int(timeout / time.Millisecond)
	if ms < 1 {
		ms = 1
	}
	return w.w.WaitKey(ms) >= 0
}

// Close destroys the window.
func (w *Window) Close() error {
	return w.w.Close()
}
