package overlay

import (
	"image"
	"image/color"
	"image/draw"

	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"
)

// RGBACanvas is an in-memory Canvas backed by *image.RGBA. Text is drawn
// with the fixed 7x13 basic font; scale and thickness do not change glyph
// size.
type RGBACanvas struct {
	img  *image.RGBA
	face font.Face
}

// NewRGBACanvas returns a canvas of the given size filled with black.
func NewRGBACanvas(width, height int) *RGBACanvas {
	img := image.NewRGBA(image.Rect(0, 0, width, height))
	draw.Draw(img, img.Bounds(), image.NewUniform(Black), image.Point{}, draw.Src)
	return &RGBACanvas{img: img, face: basicfont.Face7x13}
}

// WrapRGBA draws onto an existing image.
func WrapRGBA(img *image.RGBA) *RGBACanvas {
	return &RGBACanvas{img: img, face: basicfont.Face7x13}
}

// Image returns the backing image.
func (c *RGBACanvas) Image() *image.RGBA {
	return c.img
}

// Bounds returns the image bounds.
func (c *RGBACanvas) Bounds() image.Rectangle {
	return c.img.Bounds()
}

// Rectangle draws the outline of r, growing inward from r's edges.
func (c *RGBACanvas) Rectangle(r image.Rectangle, col color.RGBA, thickness int) {
	r = r.Canon()
	if thickness < 1 {
		thickness = 1
	}
	src := image.NewUniform(col)
	edges := []image.Rectangle{
		image.Rect(r.Min.X, r.Min.Y, r.Max.X+1, r.Min.Y+thickness),
		image.Rect(r.Min.X, r.Max.Y-thickness+1, r.Max.X+1, r.Max.Y+1),
		image.Rect(r.Min.X, r.Min.Y, r.Min.X+thickness, r.Max.Y+1),
		image.Rect(r.Max.X-thickness+1, r.Min.Y, r.Max.X+1, r.Max.Y+1),
	}
	for _, e := range edges {
		draw.Draw(c.img, e.Intersect(c.img.Bounds()), src, image.Point{}, draw.Src)
	}
}

// FillRectangle paints r inclusive of both corners, matching the OpenCV
// filled rectangle.
func (c *RGBACanvas) FillRectangle(r image.Rectangle, col color.RGBA) {
	r = r.Canon()
	r.Max = r.Max.Add(image.Pt(1, 1))
	draw.Draw(c.img, r.Intersect(c.img.Bounds()), image.NewUniform(col), image.Point{}, draw.Src)
}

// TextSize measures text in the basic font.
func (c *RGBACanvas) TextSize(text string, _ float64, _ int) (image.Point, int) {
	m := c.face.Metrics()
	width := font.MeasureString(c.face, text).Ceil()
	return image.Pt(width, m.Ascent.Ceil()), m.Descent.Ceil()
}

// PutText draws text with its baseline at org.
func (c *RGBACanvas) PutText(text string, org image.Point, _ float64, col color.RGBA, _ int) {
	d := &font.Drawer{
		Dst:  c.img,
		Src:  image.NewUniform(col),
		Face: c.face,
		Dot:  fixed.Point26_6{X: fixed.I(org.X), Y: fixed.I(org.Y)},
	}
	d.DrawString(text)
}
