// Package serialmux owns the serial link to the signal receiver. The Emitter
// turns presence transitions into the single-byte signal and fans the
// decisions out to debug subscribers.
package serialmux

import (
	"bytes"
	crand "crypto/rand"
	"embed"
	"encoding/hex"
	"errors"
	"fmt"
	"html/template"
	"io"
	"net/http"
	"strings"
	"sync"
	"sync/atomic"

	"tailscale.com/tsweb"

	"github.com/banshee-data/blink/internal/monitoring"
	"github.com/banshee-data/blink/internal/presence"
)

// SignalByte is written once per Rising transition.
const SignalByte byte = 'A'

var (
	ErrWriteFailed = fmt.Errorf("failed to write to serial port")
	ErrClosed      = errors.New("serial emitter closed")
)

//go:embed templates/*
var adminTemplateFS embed.FS

var sendSignalTemplate = template.Must(template.ParseFS(adminTemplateFS, "templates/send-signal.html.tmpl"))

// Emitter writes the signal byte to a serial port. Writes are
// fire-and-forget: a failure is logged and counted but never retried.
type Emitter struct {
	port    SerialPorter
	writeMu sync.Mutex

	subscribers  map[string]chan string
	subscriberMu sync.Mutex

	closed    atomic.Bool
	closeOnce sync.Once
	closeErr  error

	sent   atomic.Uint64
	failed atomic.Uint64
}

// NewEmitter returns an Emitter that owns port.
func NewEmitter(port SerialPorter) *Emitter {
	return &Emitter{
		port:        port,
		subscribers: make(map[string]chan string),
	}
}

// Handle reacts to one transition. Rising sends the signal byte, Falling is
// only logged. None is ignored.
func (e *Emitter) Handle(t presence.Transition) {
	e.Signal(t)
}

// Signal does what Handle does and reports whether the signal byte was
// written. It is false for Falling and for a failed write.
func (e *Emitter) Signal(t presence.Transition) bool {
	sent := false
	switch t.Event {
	case presence.Rising:
		monitoring.Logf("DETECTED frame=%d classes=%v", t.Frame, t.Classes)
		if err := e.Send(); err != nil {
			monitoring.Logf("serial: signal for frame %d not sent: %v", t.Frame, err)
		} else {
			sent = true
		}
	case presence.Falling:
		monitoring.Logf("UNDETECTED frame=%d", t.Frame)
	default:
		return false
	}
	e.publish(fmt.Sprintf("%s frame=%d", t.Event, t.Frame))
	return sent
}

// Send writes SignalByte to the port.
func (e *Emitter) Send() error {
	e.writeMu.Lock()
	defer e.writeMu.Unlock()

	if e.closed.Load() {
		e.failed.Add(1)
		return ErrClosed
	}

	n, err := e.port.Write([]byte{SignalByte})
	if err != nil {
		e.failed.Add(1)
		return fmt.Errorf("%w: %w", ErrWriteFailed, err)
	}
	if n != 1 {
		e.failed.Add(1)
		return ErrWriteFailed
	}
	e.sent.Add(1)
	e.publish(fmt.Sprintf("sent %q", SignalByte))
	return nil
}

// Stats returns how many signal bytes were written and how many writes
// failed.
func (e *Emitter) Stats() (sent, failed uint64) {
	return e.sent.Load(), e.failed.Load()
}

// randomID generates a random channel ID (8 byte random hex encoded value)
func randomID() string {
	b := make([]byte, 8)
	crand.Read(b)
	return hex.EncodeToString(b)
}

// Subscribe registers a channel that receives a line per emitted signal
// event. Slow subscribers miss lines rather than block the frame loop.
func (e *Emitter) Subscribe() (string, chan string) {
	id := randomID()
	ch := make(chan string, 16)

	e.subscriberMu.Lock()
	defer e.subscriberMu.Unlock()
	if e.closed.Load() {
		close(ch)
		return id, ch
	}
	e.subscribers[id] = ch
	return id, ch
}

// Unsubscribe removes and closes a subscriber channel.
func (e *Emitter) Unsubscribe(id string) {
	e.subscriberMu.Lock()
	defer e.subscriberMu.Unlock()
	if ch, ok := e.subscribers[id]; ok {
		close(ch)
		delete(e.subscribers, id)
	}
}

func (e *Emitter) publish(line string) {
	e.subscriberMu.Lock()
	defer e.subscriberMu.Unlock()
	for _, ch := range e.subscribers {
		select {
		case ch <- line:
		default:
		}
	}
}

// Close closes every subscriber and then the port. Only the first call has
// any effect; later calls return the first result.
func (e *Emitter) Close() error {
	e.closeOnce.Do(func() {
		e.writeMu.Lock()
		e.closed.Store(true)
		e.writeMu.Unlock()

		e.subscriberMu.Lock()
		for id, ch := range e.subscribers {
			close(ch)
			delete(e.subscribers, id)
		}
		e.subscriberMu.Unlock()

		e.closeErr = e.port.Close()
	})
	return e.closeErr
}

// AttachAdminRoutes mounts the signal debug pages under /debug/. They are
// reachable only from localhost or over Tailscale.
func (e *Emitter) AttachAdminRoutes(mux *http.ServeMux) {
	debug := tsweb.Debugger(mux)

	debug.HandleFunc("send-signal", "send the signal byte and tail signal events", func(w http.ResponseWriter, r *http.Request) {
		buf := bytes.NewBuffer(nil)
		if err := sendSignalTemplate.Execute(buf, struct{ Signal string }{string(SignalByte)}); err != nil {
			http.Error(w, "Failed to render template", http.StatusInternalServerError)
			return
		}
		io.Copy(w, buf)
	})

	debug.HandleSilentFunc("send-signal-api", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}
		if err := e.Send(); err != nil {
			http.Error(w, "Failed to write signal: "+err.Error(), http.StatusInternalServerError)
			return
		}
		io.WriteString(w, fmt.Sprintf("Wrote %q to serial port", SignalByte))
	})

	debug.HandleSilentFunc("signal-tail", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}
		flusher, ok := w.(http.Flusher)
		if !ok {
			http.Error(w, "Streaming unsupported", http.StatusInternalServerError)
			return
		}

		w.Header().Set("Content-Type", "text/event-stream")
		w.Header().Set("Cache-Control", "no-cache")
		w.Header().Set("Connection", "keep-alive")
		w.Header().Set("X-Accel-Buffering", "no")

		id, c := e.Subscribe()
		defer e.Unsubscribe(id)

		w.Write([]byte(": ping\n\n"))
		flusher.Flush()

		for {
			select {
			case line, ok := <-c:
				if !ok {
					return
				}
				if _, err := fmt.Fprintf(w, "data: %s\n\n", strings.ReplaceAll(line, "\n", " ")); err != nil {
					return
				}
				flusher.Flush()
			case <-r.Context().Done():
				return
			}
		}
	})

	debug.HandleSilentFunc("signal-tail.js", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/javascript")
		w.Header().Set("Cache-Control", "no-cache")

		f, err := adminTemplateFS.Open("templates/signal-tail.js")
		if err != nil {
			http.Error(w, "Failed to open signal-tail.js", http.StatusInternalServerError)
			return
		}
		defer f.Close()
		io.Copy(w, f)
	})
}
