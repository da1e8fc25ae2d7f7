// Package metrics exposes loop counters, edge counts and inference latency
// to Prometheus and keeps a short latency window for plots.
package metrics

import (
	"net/http"
	"sync/atomic"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/banshee-data/blink/internal/frameloop"
	"github.com/banshee-data/blink/internal/presence"
	"github.com/banshee-data/blink/internal/timeutil"
)

// DefaultWindowSize is how many recent latencies are kept for statistics.
const DefaultWindowSize = 600

// Metrics holds all application metrics
type Metrics struct {
	FramesProcessed atomic.Uint64
	RisingEdges     atomic.Uint64
	FallingEdges    atomic.Uint64
	RenderFaults    atomic.Uint64
	Present         atomic.Uint64 // 0 = absent, 1 = present
	LastLatencyUs   atomic.Uint64

	latency  prometheus.Histogram
	window   *LatencyWindow
	registry *prometheus.Registry
}

// New creates a Metrics instance with its own registry.
func New(windowSize int) *Metrics {
	if windowSize <= 0 {
		windowSize = DefaultWindowSize
	}
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		window:   NewLatencyWindow(windowSize),
		latency: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "blink_inference_latency_seconds",
			Help:    "Detector inference time per frame",
			Buckets: prometheus.ExponentialBuckets(0.002, 2, 10),
		}),
	}
	m.registerPrometheusMetrics()
	return m
}

func (m *Metrics) registerPrometheusMetrics() {
	m.registry.MustRegister(m.latency)

	gauges := []struct {
		name, help string
		v          *atomic.Uint64
	}{
		{"blink_frames_processed_total", "Total frames run through the detector", &m.FramesProcessed},
		{"blink_rising_edges_total", "Total absent to present transitions", &m.RisingEdges},
		{"blink_falling_edges_total", "Total present to absent transitions", &m.FallingEdges},
		{"blink_render_faults_total", "Total frames with an overlay fault", &m.RenderFaults},
		{"blink_present", "Whether any object of interest is present (0 or 1)", &m.Present},
	}
	for _, g := range gauges {
		v := g.v
		m.registry.MustRegister(prometheus.NewGaugeFunc(
			prometheus.GaugeOpts{Name: g.name, Help: g.help},
			func() float64 { return float64(v.Load()) },
		))
	}

	m.registry.MustRegister(prometheus.NewGaugeFunc(
		prometheus.GaugeOpts{
			Name: "blink_last_inference_latency_ms",
			Help: "Inference time of the most recent frame",
		},
		func() float64 { return float64(m.LastLatencyUs.Load()) / 1000 },
	))
}

// RegisterSignalStats exports the serial emitter counters.
func (m *Metrics) RegisterSignalStats(stats func() (sent, failed uint64)) {
	m.registry.MustRegister(prometheus.NewGaugeFunc(
		prometheus.GaugeOpts{
			Name: "blink_signals_sent_total",
			Help: "Total signal bytes written to the serial port",
		},
		func() float64 { sent, _ := stats(); return float64(sent) },
	))
	m.registry.MustRegister(prometheus.NewGaugeFunc(
		prometheus.GaugeOpts{
			Name: "blink_signal_failures_total",
			Help: "Total failed signal writes",
		},
		func() float64 { _, failed := stats(); return float64(failed) },
	))
}

// ObserveFrame implements frameloop.FrameObserver.
func (m *Metrics) ObserveFrame(s frameloop.FrameStats) {
	m.FramesProcessed.Add(1)
	if !s.RenderOK {
		m.RenderFaults.Add(1)
	}
	m.LastLatencyUs.Store(uint64(s.Latency.Microseconds()))
	m.latency.Observe(s.Latency.Seconds())
	m.window.Add(timeutil.Milliseconds(s.Latency))
}

// Handle implements presence.Sink.
func (m *Metrics) Handle(t presence.Transition) {
	switch t.Event {
	case presence.Rising:
		m.RisingEdges.Add(1)
		m.Present.Store(1)
	case presence.Falling:
		m.FallingEdges.Add(1)
		m.Present.Store(0)
	}
}

// Window returns the recent latency window.
func (m *Metrics) Window() *LatencyWindow {
	return m.window
}

// Registry returns the Prometheus registry.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler returns the Prometheus HTTP handler
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
