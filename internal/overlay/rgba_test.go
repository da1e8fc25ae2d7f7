package overlay

import (
	"image"
	"image/color"
	"testing"
)

func TestRGBACanvas_Rectangle(t *testing.T) {
	c := NewRGBACanvas(40, 40)
	red := color.RGBA{R: 255, A: 255}
	c.Rectangle(image.Rect(5, 5, 30, 30), red, 2)

	img := c.Image()
	for _, p := range []image.Point{{5, 5}, {6, 6}, {30, 30}, {29, 17}, {17, 5}} {
		if got := img.RGBAAt(p.X, p.Y); got != red {
			t.Errorf("pixel %v = %v, want edge colour", p, got)
		}
	}
	if got := img.RGBAAt(17, 17); got != Black {
		t.Errorf("interior pixel = %v, want untouched", got)
	}
}

func TestRGBACanvas_FillClipsToBounds(t *testing.T) {
	c := NewRGBACanvas(20, 20)
	c.FillRectangle(image.Rect(-5, -5, 4, 4), White)

	img := c.Image()
	if got := img.RGBAAt(0, 0); got != White {
		t.Errorf("(0,0) = %v, want white", got)
	}
	if got := img.RGBAAt(4, 4); got != White {
		t.Errorf("(4,4) = %v, want white (inclusive corner)", got)
	}
	if got := img.RGBAAt(5, 5); got != Black {
		t.Errorf("(5,5) = %v, want black", got)
	}
}

func TestRGBACanvas_Text(t *testing.T) {
	c := NewRGBACanvas(100, 30)
	size, baseline := c.TextSize("abc", 0.5, 1)
	if size.X != 21 || size.Y != 11 || baseline != 2 {
		t.Errorf("TextSize = %v, %d; want (21,11), 2", size, baseline)
	}

	c.PutText("abc", image.Pt(2, 20), 0.5, White, 1)
	lit := false
	img := c.Image()
	for y := 20 - size.Y; y < 20+baseline && !lit; y++ {
		for x := 2; x < 2+size.X; x++ {
			if img.RGBAAt(x, y) == White {
				lit = true
				break
			}
		}
	}
	if !lit {
		t.Error("PutText drew nothing inside the measured box")
	}
}

func TestRenderer_OnRGBACanvas(t *testing.T) {
	muteLogs(t)
	c := NewRGBACanvas(64, 64)
	r := &Renderer{
		Labels: map[int]string{1: "person"},
		Colors: &ColorTable{colors: map[int]color.RGBA{1: {R: 10, G: 20, B: 30, A: 255}}},
	}
	_ = r.Render(c, nil, 0)
	if c.Image().Bounds().Dx() != 64 {
		t.Error("render changed image bounds")
	}
}
