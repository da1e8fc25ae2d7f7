package cv

import (
	"image"
	"image/color"

	"gocv.io/x/gocv"
)

// Frame is a captured Mat that implements overlay.Canvas. It borrows the
// camera's buffer and is only valid until the next read.
type Frame struct {
	mat *gocv.Mat
}

// NewFrame wraps mat.
func NewFrame(mat *gocv.Mat) *Frame {
	return &Frame{mat: mat}
}

// Mat returns the underlying Mat.
func (f *Frame) Mat() *gocv.Mat {
	return f.mat
}

// Bounds returns the frame rectangle.
func (f *Frame) Bounds() image.Rectangle {
	return image.Rect(0, 0, f.mat.Cols(), f.mat.Rows())
}

func (f *Frame) Rectangle(r image.Rectangle, c color.RGBA, thickness int) {
	gocv.Rectangle(f.mat, r, c, thickness)
}

// FillRectangle draws r with negative thickness, which OpenCV fills.
func (f *Frame) FillRectangle(r image.Rectangle, c color.RGBA) {
	gocv.Rectangle(f.mat, r, c, -1)
}

func (f *Frame) TextSize(text string, scale float64, thickness int) (image.Point, int) {
	return gocv.GetTextSizeWithBaseline(text, gocv.FontHersheySimplex, scale, thickness)
}

func (f *Frame) PutText(text string, org image.Point, scale float64, c color.RGBA, thickness int) {
	gocv.PutText(f.mat, text, org, gocv.FontHersheySimplex, scale, c, thickness)
}

// ToImage copies the frame out of OpenCV for encoders that need an
// image.Image.
func (f *Frame) ToImage() (image.Image, error) {
	return f.mat.ToImage()
}
