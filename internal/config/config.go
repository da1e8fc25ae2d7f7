package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"time"

	"github.com/banshee-data/blink/internal/detection"
	"github.com/banshee-data/blink/internal/serialmux"
)

// ExampleConfigPath is the checked-in example of every supported key.
const ExampleConfigPath = "config/blink.example.json"

// Defaults for values not present in the file or on the command line.
const (
	DefaultSerialPort   = "/dev/ttyUSB0"
	DefaultPollInterval = time.Millisecond
	DefaultWindowName   = "Live"
)

// DetectorConfig is the optional JSON configuration of a run. Every field
// is a pointer so a partial file only overrides what it names; the Get*
// methods supply defaults for the rest. It is not modified after startup.
type DetectorConfig struct {
	// Detection
	ConfidenceThreshold *float64 `json:"confidence_threshold,omitempty"`
	ClassesOfInterest   []int    `json:"classes_of_interest,omitempty"`

	// Camera and display
	CameraIndex  *int    `json:"camera_index,omitempty"`
	PollInterval *string `json:"poll_interval,omitempty"` // duration string like "1ms"
	WindowName   *string `json:"window_name,omitempty"`
	ColorSeed    *uint64 `json:"color_seed,omitempty"` // 0 = time based

	// Serial link
	SerialPort *string `json:"serial_port,omitempty"`
	BaudRate   *int    `json:"baud_rate,omitempty"`
	DataBits   *int    `json:"data_bits,omitempty"`
	StopBits   *int    `json:"stop_bits,omitempty"`
	Parity     *string `json:"parity,omitempty"`
}

// Helper functions to create pointers
func ptrFloat64(v float64) *float64 { return &v }
func ptrString(v string) *string    { return &v }
func ptrInt(v int) *int             { return &v }
func ptrUint64(v uint64) *uint64    { return &v }

// EmptyConfig returns a DetectorConfig with all fields unset.
func EmptyConfig() *DetectorConfig {
	return &DetectorConfig{}
}

// DefaultConfig returns a DetectorConfig with every field set to its
// default value.
func DefaultConfig() *DetectorConfig {
	return &DetectorConfig{
		ConfidenceThreshold: ptrFloat64(detection.DefaultConfidenceThreshold),
		ClassesOfInterest:   slices.Clone(detection.DefaultClassIDs),
		CameraIndex:         ptrInt(0),
		PollInterval:        ptrString(DefaultPollInterval.String()),
		WindowName:          ptrString(DefaultWindowName),
		ColorSeed:           ptrUint64(0),
		SerialPort:          ptrString(DefaultSerialPort),
		BaudRate:            ptrInt(serialmux.DefaultBaudRate),
		DataBits:            ptrInt(8),
		StopBits:            ptrInt(1),
		Parity:              ptrString("N"),
	}
}

// LoadConfig loads a DetectorConfig from a JSON file.
// The file must have a .json extension and be under 1MB. Unknown keys are
// rejected so typos do not silently fall back to defaults.
func LoadConfig(path string) (*DetectorConfig, error) {
	cleanPath := filepath.Clean(path)
	if ext := filepath.Ext(cleanPath); ext != ".json" {
		return nil, fmt.Errorf("config file must have .json extension, got %q", ext)
	}

	fileInfo, err := os.Stat(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to stat config file: %w", err)
	}
	const maxFileSize = 1 * 1024 * 1024 // 1MB
	if fileInfo.Size() > maxFileSize {
		return nil, fmt.Errorf("config file too large: %d bytes (max %d)", fileInfo.Size(), maxFileSize)
	}

	f, err := os.Open(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}
	defer f.Close()

	cfg := EmptyConfig()
	dec := json.NewDecoder(f)
	dec.DisallowUnknownFields()
	if err := dec.Decode(cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config JSON: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// Validate checks that the configuration values are valid.
func (c *DetectorConfig) Validate() error {
	if c.ConfidenceThreshold != nil {
		// Written as a positive range check so NaN fails it.
		if !(*c.ConfidenceThreshold >= 0 && *c.ConfidenceThreshold <= 1) {
			return fmt.Errorf("confidence_threshold must be between 0 and 1, got %g", *c.ConfidenceThreshold)
		}
	}

	if c.ClassesOfInterest != nil {
		if len(c.ClassesOfInterest) == 0 {
			return fmt.Errorf("classes_of_interest must not be empty")
		}
		for _, id := range c.ClassesOfInterest {
			if _, ok := detection.COCOLabels.Name(id); !ok {
				return fmt.Errorf("classes_of_interest: unknown class id %d", id)
			}
		}
	}

	if c.CameraIndex != nil && *c.CameraIndex < 0 {
		return fmt.Errorf("camera_index must be non-negative, got %d", *c.CameraIndex)
	}

	if c.PollInterval != nil && *c.PollInterval != "" {
		d, err := time.ParseDuration(*c.PollInterval)
		if err != nil {
			return fmt.Errorf("invalid poll_interval '%s': %w", *c.PollInterval, err)
		}
		if d <= 0 {
			return fmt.Errorf("poll_interval must be positive, got %s", d)
		}
	}

	if c.SerialPort != nil && *c.SerialPort == "" {
		return fmt.Errorf("serial_port must not be empty")
	}

	if _, err := c.PortOptions().Normalize(); err != nil {
		return err
	}
	return nil
}

// GetConfidenceThreshold returns the confidence_threshold value or the default.
func (c *DetectorConfig) GetConfidenceThreshold() float64 {
	if c.ConfidenceThreshold == nil {
		return detection.DefaultConfidenceThreshold
	}
	return *c.ConfidenceThreshold
}

// GetClassesOfInterest returns the classes_of_interest value or the default.
func (c *DetectorConfig) GetClassesOfInterest() []int {
	if len(c.ClassesOfInterest) == 0 {
		return slices.Clone(detection.DefaultClassIDs)
	}
	return slices.Clone(c.ClassesOfInterest)
}

func (c *DetectorConfig) GetCameraIndex() int {
	if c.CameraIndex == nil {
		return 0
	}
	return *c.CameraIndex
}

// GetPollInterval parses and returns the PollInterval as a time.Duration.
func (c *DetectorConfig) GetPollInterval() time.Duration {
	if c.PollInterval == nil || *c.PollInterval == "" {
		return DefaultPollInterval
	}
	d, err := time.ParseDuration(*c.PollInterval)
	if err != nil || d <= 0 {
		return DefaultPollInterval
	}
	return d
}

func (c *DetectorConfig) GetWindowName() string {
	if c.WindowName == nil || *c.WindowName == "" {
		return DefaultWindowName
	}
	return *c.WindowName
}

func (c *DetectorConfig) GetColorSeed() uint64 {
	if c.ColorSeed == nil {
		return 0
	}
	return *c.ColorSeed
}

func (c *DetectorConfig) GetSerialPort() string {
	if c.SerialPort == nil || *c.SerialPort == "" {
		return DefaultSerialPort
	}
	return *c.SerialPort
}

// PortOptions collects the serial settings. Unset values stay zero and are
// filled in by PortOptions.Normalize.
func (c *DetectorConfig) PortOptions() serialmux.PortOptions {
	var opts serialmux.PortOptions
	if c.BaudRate != nil {
		opts.BaudRate = *c.BaudRate
	}
	if c.DataBits != nil {
		opts.DataBits = *c.DataBits
	}
	if c.StopBits != nil {
		opts.StopBits = *c.StopBits
	}
	if c.Parity != nil {
		opts.Parity = *c.Parity
	}
	return opts
}

// Settings is the fully resolved configuration, reported by the status
// endpoint and stored with each session.
type Settings struct {
	ConfidenceThreshold float64               `json:"confidence_threshold"`
	ClassesOfInterest   []int                 `json:"classes_of_interest"`
	CameraIndex         int                   `json:"camera_index"`
	PollInterval        string                `json:"poll_interval"`
	WindowName          string                `json:"window_name"`
	ColorSeed           uint64                `json:"color_seed"`
	SerialPort          string                `json:"serial_port"`
	Serial              serialmux.PortOptions `json:"serial"`
}

// Resolve applies defaults to every field. It assumes Validate passed.
func (c *DetectorConfig) Resolve() Settings {
	opts, err := c.PortOptions().Normalize()
	if err != nil {
		opts = serialmux.PortOptions{}
	}
	return Settings{
		ConfidenceThreshold: c.GetConfidenceThreshold(),
		ClassesOfInterest:   c.GetClassesOfInterest(),
		CameraIndex:         c.GetCameraIndex(),
		PollInterval:        c.GetPollInterval().String(),
		WindowName:          c.GetWindowName(),
		ColorSeed:           c.GetColorSeed(),
		SerialPort:          c.GetSerialPort(),
		Serial:              opts,
	}
}
