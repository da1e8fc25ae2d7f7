package detection

import "fmt"

// SSDValuesPerDetection is the row width of a MobileNet-SSD output blob:
// image id, class id, confidence, x0, y0, x1, y1.
const SSDValuesPerDetection = 7

// ParseSSDOutput decodes the flattened [1, 1, n, 7] output of an SSD
// detection network into a Batch.
func ParseSSDOutput(values []float32, n int) (Batch, error) {
	if n < 0 {
		return nil, fmt.Errorf("invalid detection count %d", n)
	}
	if len(values) < n*SSDValuesPerDetection {
		return nil, fmt.Errorf("ssd output too short: got %d values, want %d for %d detections",
			len(values), n*SSDValuesPerDetection, n)
	}

	batch := make(Batch, n)
	for i := range n {
		row := values[i*SSDValuesPerDetection : (i+1)*SSDValuesPerDetection]
		batch[i] = RawDetection{
			ClassID:    float64(row[1]),
			Confidence: float64(row[2]),
			Box:        [4]float64{float64(row[3]), float64(row[4]), float64(row[5]), float64(row[6])},
		}
	}
	return batch, nil
}
