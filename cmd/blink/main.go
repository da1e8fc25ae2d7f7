package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/banshee-data/blink/internal/api"
	"github.com/banshee-data/blink/internal/config"
	"github.com/banshee-data/blink/internal/cv"
	"github.com/banshee-data/blink/internal/db"
	"github.com/banshee-data/blink/internal/detection"
	"github.com/banshee-data/blink/internal/frameloop"
	"github.com/banshee-data/blink/internal/health"
	"github.com/banshee-data/blink/internal/metrics"
	"github.com/banshee-data/blink/internal/monitoring"
	"github.com/banshee-data/blink/internal/overlay"
	"github.com/banshee-data/blink/internal/presence"
	"github.com/banshee-data/blink/internal/replay"
	"github.com/banshee-data/blink/internal/serialmux"
	"github.com/banshee-data/blink/internal/version"
)

func main() {
	opts, err := parseFlags(os.Args[1:], os.Stderr)
	if errors.Is(err, flag.ErrHelp) {
		os.Exit(0)
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "blink: %v\n", err)
		os.Exit(2)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	code := run(ctx, opts)
	stop()

	os.Exit(finish(os.Stdout, code))
}

// finish prints the end banner after a clean run and passes code through.
func finish(w io.Writer, code int) int {
	if code == 0 {
		fmt.Fprintln(w, "blink end")
	}
	return code
}

// collaborators are the camera-side pieces of a run.
type collaborators struct {
	camera    frameloop.Camera
	detector  frameloop.Detector
	display   frameloop.Display
	snapshots api.SnapshotSource
	emitter   *serialmux.Emitter
}

// run performs one detector session and returns the process exit status.
// Anything acquired is released through the resource stack on every path.
func run(ctx context.Context, o *options) int {
	res := &frameloop.Resources{}
	defer res.CloseAll()

	cfg, err := o.detectorConfig()
	if err != nil {
		log.Printf("config: %v", err)
		return 1
	}
	settings := cfg.Resolve()
	log.Print(version.String())
	log.Printf("confidence threshold %.2f, classes of interest %v", settings.ConfidenceThreshold, settings.ClassesOfInterest)

	collab, err := openCollaborators(o, cfg, res)
	if err != nil {
		log.Printf("startup failed: %v", err)
		return 1
	}
	if s, ok := collab.display.(interface{ Stop() }); ok {
		defer context.AfterFunc(ctx, s.Stop)()
	}

	m := metrics.New(metrics.DefaultWindowSize)
	m.RegisterSignalStats(collab.emitter.Stats)
	broadcaster := api.NewBroadcaster()
	sinks := []presence.Sink{m, broadcaster}

	var store *db.DB
	var session *db.Session
	if o.dbPath != "" {
		store, err = db.NewDB(o.dbPath)
		if err != nil {
			log.Printf("startup failed: open event log: %v", err)
			return 1
		}
		res.Add("event log", store)
		session, err = store.StartSession(time.Now(), version.Version, settings)
		if err != nil {
			log.Printf("startup failed: %v", err)
			return 1
		}
		log.Printf("event log %s, session %s", store.Path(), session.ID)
		sinks = append(sinks, db.NewRecorder(store, session.ID))
	}

	colors := overlay.NewColorTable(detection.COCOLabels.IDs(), settings.ColorSeed)
	driver, err := frameloop.NewDriver(frameloop.Config{
		Threshold:   settings.ConfidenceThreshold,
		Classes:     detection.NewClassSet(settings.ClassesOfInterest...),
		PollTimeout: cfg.GetPollInterval(),
	}, frameloop.Deps{
		Camera:    collab.camera,
		Detector:  collab.detector,
		Display:   collab.display,
		Renderer:  overlay.NewRenderer(detection.COCOLabels, colors),
		Signaller: collab.emitter,
		Sinks:     sinks,
		Observers: []frameloop.FrameObserver{m},
		Sampler:   monitoring.NewSampler(o.logEvery),
	})
	if err != nil {
		log.Printf("startup failed: %v", err)
		return 1
	}

	if o.listen != "" {
		srv := api.NewServer(api.Options{
			Status:      driver,
			DB:          store,
			Metrics:     m,
			Snapshots:   collab.snapshots,
			Broadcaster: broadcaster,
			Config:      settings,
		})
		if err := startHTTP(o.listen, srv, collab.emitter, store, res); err != nil {
			log.Printf("startup failed: %v", err)
			return 1
		}
	}
	// Streams end before the HTTP server shuts down.
	res.Add("transition stream", broadcaster)

	var healthSrv *health.Server
	if o.grpcListen != "" {
		healthSrv = health.NewServer(o.grpcListen)
		if err := healthSrv.Start(); err != nil {
			log.Printf("startup failed: health service: %v", err)
			return 1
		}
		res.Add("health service", healthSrv)
		healthSrv.SetServing(true)
	}

	reason, runErr := driver.Run(ctx)
	if healthSrv != nil {
		healthSrv.SetServing(false)
	}
	if store != nil {
		if err := store.EndSession(session.ID, time.Now(), reason.String(), driver.Status().Frames); err != nil {
			log.Printf("end session: %v", err)
		}
	}
	if runErr != nil {
		log.Printf("frame loop failed: %v", runErr)
		return 1
	}
	log.Printf("stopped: %s", reason)
	return 0
}

// openCollaborators acquires the serial link, the camera and model, and the
// display. In dev mode fixtures stand in for all three.
func openCollaborators(o *options, cfg *config.DetectorConfig, res *frameloop.Resources) (*collaborators, error) {
	c := &collaborators{}

	if o.dev {
		emitter, path, err := serialmux.NewMockEmitter()
		if err != nil {
			return nil, fmt.Errorf("mock serial port: %w", err)
		}
		res.Add("serial port", emitter)
		log.Printf("dev mode: signals are written to %s", path)
		c.emitter = emitter

		entries := replay.DemoScript()
		if o.fixtures != "" {
			entries, err = replay.LoadFixtureFile(o.fixtures)
			if err != nil {
				return nil, err
			}
		}
		c.camera = replay.NewCamera(entries, o.loop)
		c.detector = replay.Detector{}
		headless := replay.NewHeadless(o.replayInterval)
		c.display, c.snapshots = headless, headless
		return c, nil
	}

	portOpts := cfg.PortOptions()
	emitter, err := serialmux.OpenEmitter(cfg.GetSerialPort(), portOpts)
	if err != nil {
		return nil, err
	}
	res.Add("serial port", emitter)
	log.Printf("serial port %s (%s)", cfg.GetSerialPort(), portOpts)
	c.emitter = emitter

	model, err := cv.OpenNet(o.weights, o.pbtxt)
	if err != nil {
		return nil, err
	}
	res.Add("model", model)
	c.detector = model

	camera, err := cv.OpenCamera(cfg.GetCameraIndex())
	if err != nil {
		return nil, err
	}
	res.Add("camera", camera)
	c.camera = camera

	if o.headless {
		headless := replay.NewHeadless(0)
		c.display, c.snapshots = headless, headless
		return c, nil
	}
	window := cv.NewWindow(cfg.GetWindowName())
	res.Add("window", window)
	c.display = window
	return c, nil
}

// startHTTP binds addr before serving so a bad address fails startup.
func startHTTP(addr string, srv *api.Server, emitter *serialmux.Emitter, store *db.DB, res *frameloop.Resources) error {
	mux := srv.ServeMux()
	emitter.AttachAdminRoutes(mux)
	if store != nil {
		if err := store.AttachAdminRoutes(mux); err != nil {
			return fmt.Errorf("admin routes: %w", err)
		}
	}

	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("listen %s: %w", addr, err)
	}
	server := &http.Server{Handler: api.LoggingMiddleware(mux)}
	go func() {
		if err := server.Serve(ln); err != nil && err != http.ErrServerClosed {
			log.Printf("HTTP server error: %v", err)
		}
	}()
	log.Printf("HTTP API listening on %s", ln.Addr())

	res.AddFunc("http server", func() error {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 1*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			log.Printf("HTTP server shutdown error: %v", err)
			return server.Close()
		}
		return nil
	})
	return nil
}
