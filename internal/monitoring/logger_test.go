package monitoring

import (
	"fmt"
	"testing"
)

func capture(t *testing.T) *[]string {
	t.Helper()
	original := Logf
	t.Cleanup(func() { Logf = original })

	var lines []string
	SetLogger(func(format string, v ...interface{}) {
		lines = append(lines, fmt.Sprintf(format, v...))
	})
	return &lines
}

func TestSetLogger(t *testing.T) {
	lines := capture(t)
	Logf("DETECTED %d", 1)
	if len(*lines) != 1 || (*lines)[0] != "DETECTED 1" {
		t.Fatalf("unexpected captured lines: %v", *lines)
	}

	SetLogger(nil)
	Logf("dropped")
	if len(*lines) != 1 {
		t.Errorf("no-op logger should not record, got %v", *lines)
	}
}

func TestLogf_Default(t *testing.T) {
	if Logf == nil {
		t.Fatal("Logf should not be nil by default")
	}
}

func TestSampler(t *testing.T) {
	lines := capture(t)

	s := NewSampler(3)
	for i := range 7 {
		s.Logf("frame %d", i)
	}
	want := []string{"frame 0", "frame 3", "frame 6"}
	if fmt.Sprint(*lines) != fmt.Sprint(want) {
		t.Errorf("sampled lines = %v, want %v", *lines, want)
	}
}

func TestSampler_Disabled(t *testing.T) {
	lines := capture(t)

	NewSampler(0).Logf("never")
	var nilSampler *Sampler
	nilSampler.Logf("never")

	if len(*lines) != 0 {
		t.Errorf("disabled sampler logged %v", *lines)
	}
}
