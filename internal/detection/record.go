package detection

import "image"

// RawDetection is one candidate from the detector, before filtering.
// Box holds normalised (x0, y0, x1, y1) coordinates in [0, 1].
type RawDetection struct {
	ClassID    float64
	Confidence float64
	Box        [4]float64
}

// Batch is the detector's fixed-size candidate list for one frame, in the
// detector's native order.
type Batch []RawDetection

// Record is a candidate that passed the confidence threshold, with its box
// in pixel coordinates. Records are values and are never mutated after
// Extract returns them.
type Record struct {
	ClassID    int
	Confidence float64
	Box        image.Rectangle
}
