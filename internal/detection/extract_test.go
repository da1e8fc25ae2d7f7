package detection

import (
	"image"
	"math"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestExtract_DenormalisesAndTruncates(t *testing.T) {
	batch := Batch{
		{ClassID: 1, Confidence: 0.91, Box: [4]float64{0.1, 0.2, 0.5, 0.6}},
	}

	got := Extract(batch, 640, 480, 0.3)
	want := []Record{
		{ClassID: 1, Confidence: 0.91, Box: image.Rectangle{Min: image.Pt(64, 96), Max: image.Pt(320, 288)}},
	}

	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("Extract mismatch (-want +got):\n%s", diff)
	}
}

func TestExtract_TruncatesFractionalPixels(t *testing.T) {
	batch := Batch{{ClassID: 3, Confidence: 0.5, Box: [4]float64{0.0999, 0.0999, 0.9999, 0.9999}}}

	got := Extract(batch, 100, 10, 0.3)
	if len(got) != 1 {
		t.Fatalf("expected 1 record, got %d", len(got))
	}
	want := image.Rectangle{Min: image.Pt(9, 0), Max: image.Pt(99, 9)}
	if got[0].Box != want {
		t.Errorf("box = %v, want %v", got[0].Box, want)
	}
}

func TestExtract_DropsBelowThreshold(t *testing.T) {
	confidences := []float64{0, 0.05, 0.1, 0.29, 0.2999, 0.3, 0.31, 0.5, 0.75, 0.99, 1}
	thresholds := []float64{0, 0.1, 0.3, 0.5, 0.99, 1}

	batch := make(Batch, 0, len(confidences))
	for _, c := range confidences {
		batch = append(batch, RawDetection{ClassID: 1, Confidence: c, Box: [4]float64{0, 0, 1, 1}})
	}

	for _, tau := range thresholds {
		records := Extract(batch, 10, 10, tau)
		want := 0
		for _, c := range confidences {
			if c >= tau {
				want++
			}
		}
		if len(records) != want {
			t.Errorf("threshold %.4f: got %d records, want %d", tau, len(records), want)
		}
		for _, r := range records {
			if r.Confidence < tau {
				t.Errorf("threshold %.4f: record with confidence %.4f leaked through", tau, r.Confidence)
			}
		}
	}
}

func TestExtract_PreservesDetectorOrder(t *testing.T) {
	batch := Batch{
		{ClassID: 18, Confidence: 0.4, Box: [4]float64{0.5, 0.5, 0.6, 0.6}},
		{ClassID: 1, Confidence: 0.2, Box: [4]float64{0, 0, 1, 1}},
		{ClassID: 3, Confidence: 0.95, Box: [4]float64{0.1, 0.1, 0.9, 0.9}},
		{ClassID: 1, Confidence: 0.6, Box: [4]float64{0, 0, 0.1, 0.1}},
	}

	got := Extract(batch, 100, 100, 0.3)
	var classes []int
	for _, r := range got {
		classes = append(classes, r.ClassID)
	}

	if diff := cmp.Diff([]int{18, 3, 1}, classes); diff != "" {
		t.Errorf("order mismatch (-want +got):\n%s", diff)
	}
}

func TestExtract_EmptyBatch(t *testing.T) {
	got := Extract(nil, 640, 480, DefaultConfidenceThreshold)
	if len(got) != 0 {
		t.Errorf("expected no records, got %d", len(got))
	}
}

func TestExtract_DropsNaNConfidence(t *testing.T) {
	batch := Batch{
		{ClassID: 1, Confidence: math.NaN(), Box: [4]float64{0, 0, 1, 1}},
		{ClassID: 3, Confidence: 0.8, Box: [4]float64{0, 0, 1, 1}},
	}
	for _, tau := range []float64{0, DefaultConfidenceThreshold} {
		got := Extract(batch, 10, 10, tau)
		if len(got) != 1 || got[0].ClassID != 3 {
			t.Errorf("threshold %.2f: got %+v, want only the class 3 record", tau, got)
		}
	}
}
