package overlay

import (
	"errors"
	"fmt"
	"image"
	"math"
	"strconv"
	"time"

	"github.com/banshee-data/blink/internal/detection"
	"github.com/banshee-data/blink/internal/monitoring"
	"github.com/banshee-data/blink/internal/timeutil"
)

var (
	ErrNoColor = errors.New("no colour for class")
	ErrNoLabel = errors.New("no label for class")
)

const (
	BoxThickness   = 2
	LabelScale     = 0.5
	LabelThickness = 1
	LatencyScale   = 1.0
	LatencyThick   = 2
)

// LatencyOrigin is where the latency readout baseline starts.
var LatencyOrigin = image.Pt(10, 30)

// Renderer draws one frame's records and latency onto a Canvas. It reads
// its tables only and holds no per-frame state.
type Renderer struct {
	Labels detection.Labels
	Colors *ColorTable
}

// NewRenderer returns a Renderer over the given tables.
func NewRenderer(labels detection.Labels, colors *ColorTable) *Renderer {
	return &Renderer{Labels: labels, Colors: colors}
}

// Render draws every record and then the latency readout. A record whose
// class has no colour loses its box and a record whose class has no label
// loses its caption; each such fault is logged and returned, and drawing
// carries on with the next element.
func (r *Renderer) Render(c Canvas, records []detection.Record, latency time.Duration) []error {
	var errs []error
	for i, rec := range records {
		if col, ok := r.Colors.Color(rec.ClassID); ok {
			c.Rectangle(rec.Box, col, BoxThickness)
		} else {
			err := fmt.Errorf("record %d: class %d: %w", i, rec.ClassID, ErrNoColor)
			monitoring.Logf("overlay: %v", err)
			errs = append(errs, err)
		}

		name, ok := r.Labels.Name(rec.ClassID)
		if !ok {
			err := fmt.Errorf("record %d: class %d: %w", i, rec.ClassID, ErrNoLabel)
			monitoring.Logf("overlay: %v", err)
			errs = append(errs, err)
			continue
		}
		drawLabel(c, LabelText(name, rec.Confidence), rec.Box.Min)
	}

	c.PutText(LatencyText(latency), LatencyOrigin, LatencyScale, Green, LatencyThick)
	return errs
}

// drawLabel paints a white plate whose baseline sits on the box's top edge
// and writes the label on it in black.
func drawLabel(c Canvas, text string, at image.Point) {
	size, baseline := c.TextSize(text, LabelScale, LabelThickness)
	plate := image.Rectangle{
		Min: image.Pt(at.X, at.Y-size.Y),
		Max: image.Pt(at.X+size.X, at.Y+baseline),
	}
	c.FillRectangle(plate, White)
	c.PutText(text, at, LabelScale, Black, LabelThickness)
}

// LabelText formats "<name>: <percent>%" with the percentage rounded to two
// decimals.
func LabelText(name string, confidence float64) string {
	return name + ": " + formatPercent(confidence) + "%"
}

// formatPercent renders confidence*100 rounded to two decimals in shortest
// form, keeping one trailing zero for whole numbers ("91.0", "87.5",
// "45.68").
func formatPercent(confidence float64) string {
	p := math.Round(confidence*100*100) / 100
	s := strconv.FormatFloat(p, 'f', -1, 64)
	if p == math.Trunc(p) && !math.IsInf(p, 0) {
		s += ".0"
	}
	return s
}

// LatencyText formats the inference time as "12.35 ms".
func LatencyText(d time.Duration) string {
	return fmt.Sprintf("%.2f ms", timeutil.Milliseconds(d))
}
