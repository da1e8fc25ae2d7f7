// Package replay runs the frame loop without a camera, a model or a window.
// Frames come from a JSON-lines fixture file (or a built-in script), the
// detector hands back the detections recorded with each frame and the
// headless display keeps the latest annotated frame as a JPEG.
package replay

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/banshee-data/blink/internal/detection"
)

// Entry is one fixture line: the frame size and the raw detector output for
// that frame. Each detection is [class, confidence, x0, y0, x1, y1].
type Entry struct {
	Width      int          `json:"width"`
	Height     int          `json:"height"`
	Detections [][6]float64 `json:"detections"`
}

// Batch converts the recorded detections into detector output.
func (e Entry) Batch() detection.Batch {
	batch := make(detection.Batch, len(e.Detections))
	for i, d := range e.Detections {
		batch[i] = detection.RawDetection{
			ClassID:    d[0],
			Confidence: d[1],
			Box:        [4]float64{d[2], d[3], d[4], d[5]},
		}
	}
	return batch
}

// LoadFixtures reads JSON lines from r. Blank lines and lines starting with
// '#' are skipped.
func LoadFixtures(r io.Reader) ([]Entry, error) {
	var entries []Entry
	scan := bufio.NewScanner(r)
	scan.Buffer(make([]byte, 64*1024), 4*1024*1024)
	lineNo := 0
	for scan.Scan() {
		lineNo++
		line := strings.TrimSpace(scan.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		var e Entry
		if err := json.Unmarshal([]byte(line), &e); err != nil {
			return nil, fmt.Errorf("fixture line %d: %w", lineNo, err)
		}
		if e.Width <= 0 || e.Height <= 0 {
			return nil, fmt.Errorf("fixture line %d: invalid frame size %dx%d", lineNo, e.Width, e.Height)
		}
		entries = append(entries, e)
	}
	if err := scan.Err(); err != nil {
		return nil, fmt.Errorf("read fixtures: %w", err)
	}
	return entries, nil
}

// LoadFixtureFile reads fixtures from path.
func LoadFixtureFile(path string) ([]Entry, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open fixtures: %w", err)
	}
	defer f.Close()
	return LoadFixtures(f)
}

// DemoScript is the built-in scene used in dev mode without a fixture file:
// an empty street, a person walking through, a dog, then a car.
func DemoScript() []Entry {
	const w, h = 640, 480
	var script []Entry
	add := func(n int, dets ...[6]float64) {
		for range n {
			script = append(script, Entry{Width: w, Height: h, Detections: dets})
		}
	}
	add(30)
	add(60, [6]float64{detection.ClassPerson, 0.91, 0.1, 0.2, 0.5, 0.6})
	add(30, [6]float64{18, 0.88, 0.55, 0.5, 0.8, 0.9})
	add(45, [6]float64{detection.ClassCar, 0.76, 0.3, 0.4, 0.9, 0.85}, [6]float64{18, 0.2, 0.0, 0.0, 0.1, 0.1})
	add(30)
	return script
}
