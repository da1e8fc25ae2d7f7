package cv

import (
	"fmt"

	"gocv.io/x/gocv"

	"github.com/banshee-data/blink/internal/frameloop"
)

// Camera reads frames from a video capture device into one reused Mat.
type Camera struct {
	vc    *gocv.VideoCapture
	mat   gocv.Mat
	frame *Frame
}

// OpenCamera opens capture device index.
func OpenCamera(index int) (*Camera, error) {
	vc, err := gocv.OpenVideoCapture(index)
	if err != nil {
		return nil, fmt.Errorf("open camera %d: %w", index, err)
	}
	if !vc.IsOpened() {
		vc.Close()
		return nil, fmt.Errorf("open camera %d: device not opened", index)
	}
	c := &Camera{vc: vc, mat: gocv.NewMat()}
	c.frame = NewFrame(&c.mat)
	return c, nil
}

// ReadFrame grabs the next frame. A failed or empty read is the end of the
// stream.
func (c *Camera) ReadFrame() (frameloop.Frame, frameloop.FrameResult, error) {
	if ok := c.vc.Read(&c.mat); !ok || c.mat.Empty() {
		return nil, frameloop.EndOfStream, nil
	}
	return c.frame, frameloop.FrameAvailable, nil
}

// Close releases the device and the frame buffer.
func (c *Camera) Close() error {
	err := c.vc.Close()
	if merr := c.mat.Close(); err == nil {
		err = merr
	}
	return err
}
