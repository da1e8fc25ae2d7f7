// Package api serves the HTTP view of a running detector: loop status, the
// transition event log, a live transition stream, charts and the latest
// annotated frame.
package api

import (
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/banshee-data/blink/internal/db"
	"github.com/banshee-data/blink/internal/frameloop"
	"github.com/banshee-data/blink/internal/httputil"
	"github.com/banshee-data/blink/internal/metrics"
	"github.com/banshee-data/blink/internal/monitoring"
	"github.com/banshee-data/blink/internal/version"
)

// ANSI escape codes for request logging
const colorCyan = "\033[36m"
const colorReset = "\033[0m"
const colorYellow = "\033[33m"
const colorBoldGreen = "\033[1;32m"
const colorBoldRed = "\033[1;31m"

// StatusSource reports the frame loop status.
type StatusSource interface {
	Status() frameloop.Status
}

// SnapshotSource yields the latest annotated frame as a JPEG.
type SnapshotSource interface {
	Snapshot() ([]byte, bool)
}

// Options wires the server to whatever is running. Only Status is
// required; routes backed by a nil source answer 404 or 503.
type Options struct {
	Status      StatusSource
	DB          *db.DB
	Metrics     *metrics.Metrics
	Snapshots   SnapshotSource
	Broadcaster *Broadcaster
	Config      any
}

// maxTransitionLimit caps /api/transitions?limit=.
const maxTransitionLimit = 10000

type Server struct {
	opts Options
}

func NewServer(opts Options) *Server {
	return &Server{opts: opts}
}

type loggingResponseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (lrw *loggingResponseWriter) WriteHeader(code int) {
	lrw.statusCode = code
	lrw.ResponseWriter.WriteHeader(code)
}

func (lrw *loggingResponseWriter) Flush() {
	if flusher, ok := lrw.ResponseWriter.(http.Flusher); ok {
		flusher.Flush()
	}
}

func statusCodeColor(statusCode int) string {
	switch {
	case statusCode >= 200 && statusCode < 300:
		return colorBoldGreen + strconv.Itoa(statusCode) + colorReset
	case statusCode >= 300 && statusCode < 400:
		return colorYellow + strconv.Itoa(statusCode) + colorReset
	case statusCode >= 400:
		return colorBoldRed + strconv.Itoa(statusCode) + colorReset
	default:
		return strconv.Itoa(statusCode)
	}
}

// LoggingMiddleware logs method, path, query, status, and duration
func LoggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		lrw := &loggingResponseWriter{w, http.StatusOK}
		next.ServeHTTP(lrw, r)
		monitoring.Logf(
			"[%s] %s %s%s%s %vms",
			statusCodeColor(lrw.statusCode), r.Method,
			colorCyan, r.RequestURI, colorReset,
			float64(time.Since(start).Nanoseconds())/1e6,
		)
	})
}

func (s *Server) ServeMux() *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/status", s.showStatus)
	mux.HandleFunc("/api/transitions", s.listTransitions)
	mux.HandleFunc("/api/transitions/stream", s.streamTransitions)
	mux.HandleFunc("/api/charts/transitions", s.transitionsChart)
	mux.HandleFunc("/api/plots/latency.png", s.latencyPlot)
	mux.HandleFunc("/api/snapshot.jpg", s.snapshot)
	if s.opts.Metrics != nil {
		mux.Handle("/metrics", s.opts.Metrics.Handler())
	}
	return mux
}

// StatusResponse is the body of /api/status.
type StatusResponse struct {
	Version string           `json:"version"`
	Loop    frameloop.Status `json:"loop"`
	Latency *metrics.Summary `json:"latency,omitempty"`
	Config  any              `json:"config,omitempty"`
}

func (s *Server) showStatus(w http.ResponseWriter, r *http.Request) {
	if !httputil.RequireMethod(w, r, http.MethodGet) {
		return
	}

	resp := StatusResponse{
		Version: version.Version,
		Loop:    s.opts.Status.Status(),
		Config:  s.opts.Config,
	}
	if s.opts.Metrics != nil {
		summary := s.opts.Metrics.Window().Summary()
		resp.Latency = &summary
	}

	httputil.WriteJSON(w, http.StatusOK, resp)
}

func (s *Server) listTransitions(w http.ResponseWriter, r *http.Request) {
	if !httputil.RequireMethod(w, r, http.MethodGet) {
		return
	}
	if s.opts.DB == nil {
		httputil.ServiceUnavailable(w, "event log disabled")
		return
	}

	limit, err := httputil.QueryInt(r, "limit", db.DefaultTransitionLimit, maxTransitionLimit)
	if err != nil {
		httputil.WriteJSONError(w, http.StatusBadRequest, err.Error())
		return
	}

	records, err := s.opts.DB.Transitions(limit)
	if err != nil {
		httputil.WriteJSONError(w, http.StatusInternalServerError, fmt.Sprintf("Failed to retrieve transitions: %v", err))
		return
	}

	httputil.WriteJSON(w, http.StatusOK, records)
}

func (s *Server) snapshot(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	if s.opts.Snapshots == nil {
		http.Error(w, "snapshots are only kept by the headless display", http.StatusNotFound)
		return
	}
	data, ok := s.opts.Snapshots.Snapshot()
	if !ok {
		http.Error(w, "no frame yet", http.StatusServiceUnavailable)
		return
	}
	w.Header().Set("Content-Type", "image/jpeg")
	w.Header().Set("Cache-Control", "no-cache")
	w.Write(data)
}
