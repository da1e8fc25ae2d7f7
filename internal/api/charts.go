package api

import (
	"bytes"
	"fmt"
	"net/http"
	"time"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/components"
	"github.com/go-echarts/go-echarts/v2/opts"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"

	"github.com/banshee-data/blink/internal/httputil"
)

// echartsAssetsPrefix serves the echarts scripts from the public CDN.
const echartsAssetsPrefix = "https://go-echarts.github.io/go-echarts-assets/assets/"

// Look-back window of the transitions chart.
const (
	defaultChartHours = 24
	maxChartHours     = 24 * 90
)

// transitionsChart renders rising edges per hour as an HTML bar chart.
// Query params:
//   - hours (optional; default 24) how far back to count
func (s *Server) transitionsChart(w http.ResponseWriter, r *http.Request) {
	if !httputil.RequireMethod(w, r, http.MethodGet) {
		return
	}
	if s.opts.DB == nil {
		httputil.ServiceUnavailable(w, "event log disabled")
		return
	}

	hours, err := httputil.QueryInt(r, "hours", defaultChartHours, maxChartHours)
	if err != nil {
		httputil.WriteJSONError(w, http.StatusBadRequest, err.Error())
		return
	}

	now := time.Now().UTC()
	since := now.Truncate(time.Hour).Add(-time.Duration(hours-1) * time.Hour)
	counts, err := s.opts.DB.RisingPerHour(since)
	if err != nil {
		httputil.WriteJSONError(w, http.StatusInternalServerError, fmt.Sprintf("Failed to count transitions: %v", err))
		return
	}

	byHour := make(map[int64]int, len(counts))
	for _, c := range counts {
		byHour[c.Hour.Unix()] = c.Count
	}
	x := make([]string, 0, hours)
	y := make([]opts.BarData, 0, hours)
	for h := since; !h.After(now); h = h.Add(time.Hour) {
		x = append(x, h.Format("01-02 15:04"))
		y = append(y, opts.BarData{Value: byHour[h.Unix()]})
	}

	bar := charts.NewBar()
	bar.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{PageTitle: "Detections", Width: "100%", Height: "480px", AssetsHost: echartsAssetsPrefix}),
		charts.WithTitleOpts(opts.Title{Title: "Detections per hour", Subtitle: fmt.Sprintf("since %s", since.Format(time.RFC3339))}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true)}),
	)
	bar.SetXAxis(x).
		AddSeries("rising", y,
			charts.WithLabelOpts(opts.Label{Show: opts.Bool(true), Position: "top"}),
		)

	page := components.NewPage()
	page.SetAssetsHost(echartsAssetsPrefix)
	page.AddCharts(bar)

	var buf bytes.Buffer
	if err := page.Render(&buf); err != nil {
		httputil.WriteJSONError(w, http.StatusInternalServerError, fmt.Sprintf("render error: %v", err))
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = w.Write(buf.Bytes())
}

// latencyPlot renders the recent inference latencies as a PNG line plot.
func (s *Server) latencyPlot(w http.ResponseWriter, r *http.Request) {
	if !httputil.RequireMethod(w, r, http.MethodGet) {
		return
	}
	if s.opts.Metrics == nil {
		httputil.ServiceUnavailable(w, "metrics disabled")
		return
	}

	values := s.opts.Metrics.Window().Values()
	p := plot.New()
	p.Title.Text = fmt.Sprintf("Inference latency (last %d frames)", len(values))
	p.X.Label.Text = "Frame"
	p.Y.Label.Text = "Latency (ms)"

	if len(values) > 0 {
		pts := make(plotter.XYs, len(values))
		for i, v := range values {
			pts[i] = plotter.XY{X: float64(i), Y: v}
		}
		line, err := plotter.NewLine(pts)
		if err != nil {
			httputil.WriteJSONError(w, http.StatusInternalServerError, fmt.Sprintf("plot error: %v", err))
			return
		}
		line.Width = vg.Points(1)
		p.Add(line)
	}

	wt, err := p.WriterTo(10*vg.Inch, 4*vg.Inch, "png")
	if err != nil {
		httputil.WriteJSONError(w, http.StatusInternalServerError, fmt.Sprintf("plot error: %v", err))
		return
	}
	var buf bytes.Buffer
	if _, err := wt.WriteTo(&buf); err != nil {
		httputil.WriteJSONError(w, http.StatusInternalServerError, fmt.Sprintf("plot error: %v", err))
		return
	}

	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("Cache-Control", "no-cache")
	_, _ = w.Write(buf.Bytes())
}
