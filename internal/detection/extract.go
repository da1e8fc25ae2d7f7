package detection

import "image"

// DefaultConfidenceThreshold is the minimum confidence used when no
// threshold is configured.
const DefaultConfidenceThreshold = 0.3

// Extract filters batch by threshold and denormalises the surviving boxes
// against a width x height frame. Output order follows batch order.
func Extract(batch Batch, width, height int, threshold float64) []Record {
	records := make([]Record, 0, len(batch))
	for _, d := range batch {
		// NaN confidence never reaches the threshold.
		if !(d.Confidence >= threshold) {
			continue
		}
		records = append(records, Record{
			ClassID:    int(d.ClassID),
			Confidence: d.Confidence,
			Box:        denormalise(d.Box, width, height),
		})
	}
	return records
}

// denormalise scales x by width and y by height and truncates toward zero.
// image.Rect is not used because it would reorder inverted corners.
func denormalise(box [4]float64, width, height int) image.Rectangle {
	w, h := float64(width), float64(height)
	return image.Rectangle{
		Min: image.Point{X: int(box[0] * w), Y: int(box[1] * h)},
		Max: image.Point{X: int(box[2] * w), Y: int(box[3] * h)},
	}
}
