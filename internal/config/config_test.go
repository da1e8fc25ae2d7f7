package config

import (
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/banshee-data/blink/internal/serialmux"
)

func writeConfig(t *testing.T, name, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestEmptyConfigDefaults(t *testing.T) {
	cfg := EmptyConfig()

	if got := cfg.GetConfidenceThreshold(); got != 0.3 {
		t.Errorf("GetConfidenceThreshold() = %v, want 0.3", got)
	}
	if diff := cmp.Diff([]int{1, 2, 3, 4}, cfg.GetClassesOfInterest()); diff != "" {
		t.Errorf("GetClassesOfInterest() mismatch (-want +got):\n%s", diff)
	}
	if got := cfg.GetPollInterval(); got != time.Millisecond {
		t.Errorf("GetPollInterval() = %v, want 1ms", got)
	}
	if got := cfg.GetSerialPort(); got != "/dev/ttyUSB0" {
		t.Errorf("GetSerialPort() = %q", got)
	}
	if got := cfg.GetWindowName(); got != "Live" {
		t.Errorf("GetWindowName() = %q", got)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("Validate() = %v", err)
	}
}

func TestDefaultConfigResolvesLikeEmpty(t *testing.T) {
	if diff := cmp.Diff(EmptyConfig().Resolve(), DefaultConfig().Resolve()); diff != "" {
		t.Errorf("defaults disagree (-empty +default):\n%s", diff)
	}
}

func TestLoadConfig(t *testing.T) {
	path := writeConfig(t, "blink.json", `{
  "confidence_threshold": 0.55,
  "classes_of_interest": [1, 18],
  "poll_interval": "5ms",
  "serial_port": "/dev/ttyACM0",
  "baud_rate": 9600,
  "parity": "even"
}`)

	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}

	want := Settings{
		ConfidenceThreshold: 0.55,
		ClassesOfInterest:   []int{1, 18},
		CameraIndex:         0,
		PollInterval:        "5ms",
		WindowName:          "Live",
		SerialPort:          "/dev/ttyACM0",
		Serial:              serialmux.PortOptions{BaudRate: 9600, DataBits: 8, StopBits: 1, Parity: "E"},
	}
	if diff := cmp.Diff(want, cfg.Resolve()); diff != "" {
		t.Errorf("Resolve() mismatch (-want +got):\n%s", diff)
	}
}

func TestLoadConfig_Example(t *testing.T) {
	cfg, err := LoadConfig(filepath.Join("..", "..", ExampleConfigPath))
	if err != nil {
		t.Fatalf("LoadConfig(example): %v", err)
	}
	if diff := cmp.Diff(DefaultConfig().Resolve(), cfg.Resolve()); diff != "" {
		t.Errorf("example differs from defaults (-want +got):\n%s", diff)
	}
}

func TestLoadConfig_Errors(t *testing.T) {
	tests := []struct {
		name    string
		file    string
		body    string
		wantErr string
	}{
		{"extension", "blink.yaml", `{}`, ".json extension"},
		{"syntax", "blink.json", `{"confidence_threshold":`, "parse"},
		{"unknown key", "blink.json", `{"confidence": 0.5}`, "unknown field"},
		{"threshold range", "blink.json", `{"confidence_threshold": 1.5}`, "confidence_threshold"},
		{"empty classes", "blink.json", `{"classes_of_interest": []}`, "classes_of_interest"},
		{"unknown class", "blink.json", `{"classes_of_interest": [12]}`, "unknown class id 12"},
		{"negative camera", "blink.json", `{"camera_index": -1}`, "camera_index"},
		{"bad poll", "blink.json", `{"poll_interval": "soon"}`, "poll_interval"},
		{"zero poll", "blink.json", `{"poll_interval": "0s"}`, "positive"},
		{"empty port", "blink.json", `{"serial_port": ""}`, "serial_port"},
		{"stop bits", "blink.json", `{"stop_bits": 3}`, "stop bits"},
		{"parity", "blink.json", `{"parity": "M"}`, "parity"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := LoadConfig(writeConfig(t, tt.file, tt.body))
			if err == nil {
				t.Fatalf("expected error containing %q", tt.wantErr)
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("error %q does not mention %q", err, tt.wantErr)
			}
		})
	}

	if _, err := LoadConfig(filepath.Join(t.TempDir(), "missing.json")); err == nil {
		t.Error("expected error for missing file")
	}
}

func TestLoadConfig_TooLarge(t *testing.T) {
	body := `{"window_name": "` + strings.Repeat("x", 1024*1024) + `"}`
	_, err := LoadConfig(writeConfig(t, "big.json", body))
	if err == nil || !strings.Contains(err.Error(), "too large") {
		t.Errorf("LoadConfig(big) = %v, want too large", err)
	}
}

func TestGetClassesOfInterest_Copies(t *testing.T) {
	cfg := &DetectorConfig{ClassesOfInterest: []int{1, 2}}
	got := cfg.GetClassesOfInterest()
	got[0] = 99
	if cfg.ClassesOfInterest[0] != 1 {
		t.Error("GetClassesOfInterest returned the backing slice")
	}
}

func TestValidate_ConfidenceOutOfRange(t *testing.T) {
	for _, v := range []float64{-0.01, 1.01, math.NaN(), math.Inf(1)} {
		cfg := &DetectorConfig{ConfidenceThreshold: &v}
		if err := cfg.Validate(); err == nil {
			t.Errorf("Validate(confidence_threshold=%g) = nil, want error", v)
		}
	}
	for _, v := range []float64{0, 0.3, 1} {
		cfg := &DetectorConfig{ConfidenceThreshold: &v}
		if err := cfg.Validate(); err != nil {
			t.Errorf("Validate(confidence_threshold=%g) = %v", v, err)
		}
	}
}
