package metrics

import (
	"sort"
	"sync"

	"gonum.org/v1/gonum/stat"
)

// LatencyWindow is a fixed-size ring of recent latencies in milliseconds.
type LatencyWindow struct {
	mu     sync.Mutex
	values []float64
	next   int
	full   bool
}

// NewLatencyWindow returns a window holding up to size samples.
func NewLatencyWindow(size int) *LatencyWindow {
	return &LatencyWindow{values: make([]float64, size)}
}

// Add appends a sample, evicting the oldest once full.
func (w *LatencyWindow) Add(ms float64) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if len(w.values) == 0 {
		return
	}
	w.values[w.next] = ms
	w.next = (w.next + 1) % len(w.values)
	if w.next == 0 {
		w.full = true
	}
}

// Values returns the samples oldest first.
func (w *LatencyWindow) Values() []float64 {
	w.mu.Lock()
	defer w.mu.Unlock()
	if !w.full {
		return append([]float64(nil), w.values[:w.next]...)
	}
	out := make([]float64, 0, len(w.values))
	out = append(out, w.values[w.next:]...)
	return append(out, w.values[:w.next]...)
}

// Summary describes the window.
type Summary struct {
	Count  int     `json:"count"`
	Mean   float64 `json:"mean_ms"`
	StdDev float64 `json:"stddev_ms"`
	Min    float64 `json:"min_ms"`
	P50    float64 `json:"p50_ms"`
	P95    float64 `json:"p95_ms"`
	Max    float64 `json:"max_ms"`
}

// Summary computes statistics over the current samples. An empty window
// yields a zero Summary.
func (w *LatencyWindow) Summary() Summary {
	values := w.Values()
	if len(values) == 0 {
		return Summary{}
	}
	sort.Float64s(values)

	s := Summary{
		Count: len(values),
		Min:   values[0],
		Max:   values[len(values)-1],
		P50:   stat.Quantile(0.5, stat.Empirical, values, nil),
		P95:   stat.Quantile(0.95, stat.Empirical, values, nil),
	}
	s.Mean, s.StdDev = stat.MeanStdDev(values, nil)
	if len(values) == 1 {
		s.StdDev = 0
	}
	return s
}
