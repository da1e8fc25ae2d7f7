package overlay

import (
	"image"
	"image/color"
)

// Canvas is a drawable frame. Coordinates are pixels with the origin at the
// top-left corner. Text is anchored at the left end of its baseline.
type Canvas interface {
	// Rectangle draws the outline of r with the given line thickness.
	Rectangle(r image.Rectangle, c color.RGBA, thickness int)

	// FillRectangle paints r solid.
	FillRectangle(r image.Rectangle, c color.RGBA)

	// TextSize returns the width and height of text above the baseline and
	// the baseline offset below it.
	TextSize(text string, scale float64, thickness int) (size image.Point, baseline int)

	// PutText draws text with its baseline starting at org.
	PutText(text string, org image.Point, scale float64, c color.RGBA, thickness int)
}

var (
	White = color.RGBA{R: 255, G: 255, B: 255, A: 255}
	Black = color.RGBA{A: 255}
	Green = color.RGBA{G: 255, A: 255}
)
