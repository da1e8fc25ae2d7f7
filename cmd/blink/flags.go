package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"time"

	"github.com/banshee-data/blink/internal/config"
	"github.com/banshee-data/blink/internal/detection"
	"github.com/banshee-data/blink/internal/serialmux"
)

// options are the parsed command line flags.
type options struct {
	pbtxt      string
	weights    string
	confidence float64
	camera     int
	port       string
	baud       int
	poll       time.Duration
	window     string
	colorSeed  uint64
	configPath string

	listen     string
	grpcListen string
	dbPath     string
	logEvery   uint64

	dev            bool
	headless       bool
	fixtures       string
	loop           bool
	replayInterval time.Duration

	// set records flags given explicitly, keyed by their long name.
	set map[string]bool
}

// shortNames maps single letter aliases to their long flag.
var shortNames = map[string]string{
	"p": "pbtxt",
	"w": "weights",
	"c": "confidence",
}

var errMissingModel = errors.New("-p/--pbtxt and -w/--weights are required unless --dev is set")

func parseFlags(args []string, output io.Writer) (*options, error) {
	o := &options{}
	fs := flag.NewFlagSet("blink", flag.ContinueOnError)
	fs.SetOutput(output)

	fs.StringVar(&o.pbtxt, "pbtxt", "", "Model graph description (.pbtxt)")
	fs.StringVar(&o.pbtxt, "p", "", "Shorthand for --pbtxt")
	fs.StringVar(&o.weights, "weights", "", "Model weights (frozen graph .pb)")
	fs.StringVar(&o.weights, "w", "", "Shorthand for --weights")
	fs.Float64Var(&o.confidence, "confidence", detection.DefaultConfidenceThreshold, "Minimum detection confidence")
	fs.Float64Var(&o.confidence, "c", detection.DefaultConfidenceThreshold, "Shorthand for --confidence")
	fs.IntVar(&o.camera, "camera", 0, "Camera device index")
	fs.StringVar(&o.port, "port", config.DefaultSerialPort, "Serial port for the signal (ignored in dev mode)")
	fs.IntVar(&o.baud, "baud", serialmux.DefaultBaudRate, "Serial baud rate")
	fs.DurationVar(&o.poll, "poll", config.DefaultPollInterval, "Key poll timeout per frame")
	fs.StringVar(&o.window, "window", config.DefaultWindowName, "Display window title")
	fs.Uint64Var(&o.colorSeed, "color-seed", 0, "Seed for class box colours (0 = time based)")
	fs.StringVar(&o.configPath, "config", "", "Optional JSON config file; explicit flags override it")

	fs.StringVar(&o.listen, "listen", "", "HTTP listen address for the API (empty disables)")
	fs.StringVar(&o.grpcListen, "grpc-listen", "", "gRPC health listen address (empty disables)")
	fs.StringVar(&o.dbPath, "db", "", "SQLite event log path (empty disables)")
	fs.Uint64Var(&o.logEvery, "log-every", 0, "Log per-frame diagnostics every N frames (0 disables)")

	fs.BoolVar(&o.dev, "dev", false, "Replay fixtures instead of using a camera, model and serial port")
	fs.BoolVar(&o.headless, "headless", false, "Do not open a window; keep frames for /api/snapshot.jpg")
	fs.StringVar(&o.fixtures, "fixtures", "", "Fixture file for --dev (default: built-in demo script)")
	fs.BoolVar(&o.loop, "loop", false, "Restart the fixtures at end of stream")
	fs.DurationVar(&o.replayInterval, "replay-interval", 33*time.Millisecond, "Frame pacing for fixture replay")

	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	if fs.NArg() > 0 {
		return nil, fmt.Errorf("unexpected arguments: %v", fs.Args())
	}

	o.set = make(map[string]bool)
	fs.Visit(func(f *flag.Flag) {
		name := f.Name
		if long, ok := shortNames[name]; ok {
			name = long
		}
		o.set[name] = true
	})

	if !o.dev && (o.pbtxt == "" || o.weights == "") {
		return nil, errMissingModel
	}
	return o, nil
}

// detectorConfig loads --config, if any, and lets explicitly set flags
// override it.
func (o *options) detectorConfig() (*config.DetectorConfig, error) {
	cfg := config.EmptyConfig()
	if o.configPath != "" {
		loaded, err := config.LoadConfig(o.configPath)
		if err != nil {
			return nil, err
		}
		cfg = loaded
	}

	if o.set["confidence"] {
		cfg.ConfidenceThreshold = &o.confidence
	}
	if o.set["camera"] {
		cfg.CameraIndex = &o.camera
	}
	if o.set["port"] {
		cfg.SerialPort = &o.port
	}
	if o.set["baud"] {
		cfg.BaudRate = &o.baud
	}
	if o.set["poll"] {
		poll := o.poll.String()
		cfg.PollInterval = &poll
	}
	if o.set["window"] {
		cfg.WindowName = &o.window
	}
	if o.set["color-seed"] {
		cfg.ColorSeed = &o.colorSeed
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}
