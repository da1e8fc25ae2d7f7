package metrics

import (
	"io"
	"math"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/banshee-data/blink/internal/frameloop"
	"github.com/banshee-data/blink/internal/presence"
)

func TestMetrics_ObserveAndHandle(t *testing.T) {
	m := New(10)
	m.ObserveFrame(frameloop.FrameStats{Frame: 1, Latency: 12 * time.Millisecond, RenderOK: true})
	m.ObserveFrame(frameloop.FrameStats{Frame: 2, Latency: 8 * time.Millisecond})
	m.Handle(presence.Transition{Event: presence.Rising})

	if got := m.FramesProcessed.Load(); got != 2 {
		t.Errorf("FramesProcessed = %d, want 2", got)
	}
	if got := m.RenderFaults.Load(); got != 1 {
		t.Errorf("RenderFaults = %d, want 1", got)
	}
	if got := m.Present.Load(); got != 1 {
		t.Errorf("Present = %d, want 1", got)
	}

	m.Handle(presence.Transition{Event: presence.Falling})
	m.Handle(presence.Transition{Event: presence.None})
	if m.Present.Load() != 0 || m.FallingEdges.Load() != 1 || m.RisingEdges.Load() != 1 {
		t.Errorf("edges = %d/%d present=%d", m.RisingEdges.Load(), m.FallingEdges.Load(), m.Present.Load())
	}

	if diff := cmp.Diff([]float64{12, 8}, m.Window().Values()); diff != "" {
		t.Errorf("window mismatch (-want +got):\n%s", diff)
	}
}

func TestMetrics_Handler(t *testing.T) {
	m := New(0)
	m.RegisterSignalStats(func() (uint64, uint64) { return 3, 1 })
	m.ObserveFrame(frameloop.FrameStats{Latency: 5 * time.Millisecond, RenderOK: true})

	srv := httptest.NewServer(m.Handler())
	defer srv.Close()

	resp, err := srv.Client().Get(srv.URL)
	if err != nil {
		t.Fatalf("GET /metrics: %v", err)
	}
	defer resp.Body.Close()
	body, _ := io.ReadAll(resp.Body)

	for _, want := range []string{
		"blink_frames_processed_total 1",
		"blink_signals_sent_total 3",
		"blink_signal_failures_total 1",
		"blink_last_inference_latency_ms 5",
		"blink_inference_latency_seconds_count 1",
	} {
		if !strings.Contains(string(body), want) {
			t.Errorf("metrics output missing %q", want)
		}
	}
}

func TestLatencyWindow_Eviction(t *testing.T) {
	w := NewLatencyWindow(3)
	for _, v := range []float64{1, 2, 3, 4, 5} {
		w.Add(v)
	}
	if diff := cmp.Diff([]float64{3, 4, 5}, w.Values()); diff != "" {
		t.Errorf("values mismatch (-want +got):\n%s", diff)
	}

	empty := NewLatencyWindow(0)
	empty.Add(1)
	if len(empty.Values()) != 0 {
		t.Error("zero-size window kept a value")
	}
}

func TestLatencyWindow_Summary(t *testing.T) {
	w := NewLatencyWindow(100)
	if got := w.Summary(); got != (Summary{}) {
		t.Errorf("empty summary = %+v", got)
	}

	for i := 1; i <= 20; i++ {
		w.Add(float64(i))
	}
	s := w.Summary()
	if s.Count != 20 || s.Min != 1 || s.Max != 20 {
		t.Errorf("summary = %+v", s)
	}
	if s.Mean != 10.5 {
		t.Errorf("Mean = %v, want 10.5", s.Mean)
	}
	if s.P50 != 10 {
		t.Errorf("P50 = %v, want 10", s.P50)
	}
	if s.P95 != 19 {
		t.Errorf("P95 = %v, want 19", s.P95)
	}
	if math.Abs(s.StdDev-5.916) > 0.001 {
		t.Errorf("StdDev = %v, want ~5.916", s.StdDev)
	}

	single := NewLatencyWindow(4)
	single.Add(7)
	if s := single.Summary(); s.StdDev != 0 || s.P50 != 7 {
		t.Errorf("single-sample summary = %+v", s)
	}
}
