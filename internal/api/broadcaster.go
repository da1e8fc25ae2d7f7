package api

import (
	"encoding/base64"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/banshee-data/blink/internal/monitoring"
	"github.com/banshee-data/blink/internal/presence"
)

// SerializedEvent holds one transition encoded in both stream formats so
// that fan-out to many clients does not re-encode per client.
type SerializedEvent struct {
	JSONData     []byte
	ProtobufData []byte // base64 of a structpb.Struct
}

// TransitionEvent is the JSON shape of a streamed transition.
type TransitionEvent struct {
	Event   string `json:"event"`
	Frame   uint64 `json:"frame"`
	Classes []int  `json:"classes"`
	At      string `json:"at"`
}

// Broadcaster fans transitions out to SSE clients. It is a presence.Sink;
// slow clients miss events rather than stall the frame loop.
type Broadcaster struct {
	mu      sync.Mutex
	clients map[int]chan *SerializedEvent
	nextID  int
	closed  bool
}

func NewBroadcaster() *Broadcaster {
	return &Broadcaster{clients: make(map[int]chan *SerializedEvent)}
}

// Subscribe adds a client. After Close the returned channel is already
// closed.
func (b *Broadcaster) Subscribe() (int, <-chan *SerializedEvent) {
	b.mu.Lock()
	defer b.mu.Unlock()

	ch := make(chan *SerializedEvent, 2)
	if b.closed {
		close(ch)
		return -1, ch
	}
	id := b.nextID
	b.nextID++
	b.clients[id] = ch
	return id, ch
}

func (b *Broadcaster) Unsubscribe(id int) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if ch, ok := b.clients[id]; ok {
		close(ch)
		delete(b.clients, id)
	}
}

// Clients returns the number of connected subscribers.
func (b *Broadcaster) Clients() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.clients)
}

// Close disconnects every client.
func (b *Broadcaster) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return nil
	}
	b.closed = true
	for id, ch := range b.clients {
		close(ch)
		delete(b.clients, id)
	}
	return nil
}

// Handle encodes t once and offers it to every client.
func (b *Broadcaster) Handle(t presence.Transition) {
	event, err := EncodeTransition(t)
	if err != nil {
		monitoring.Logf("broadcast %s frame=%d: %v", t.Event, t.Frame, err)
		return
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	for _, ch := range b.clients {
		select {
		case ch <- event:
		default:
		}
	}
}

// EncodeTransition pre-serialises t as JSON and as a base64 protobuf
// Struct with the same fields.
func EncodeTransition(t presence.Transition) (*SerializedEvent, error) {
	classes := t.Classes
	if classes == nil {
		classes = []int{}
	}
	ev := TransitionEvent{
		Event:   t.Event.String(),
		Frame:   t.Frame,
		Classes: classes,
		At:      t.At.UTC().Format(time.RFC3339Nano),
	}
	jsonData, err := json.Marshal(ev)
	if err != nil {
		return nil, fmt.Errorf("marshal json: %w", err)
	}

	classValues := make([]any, len(classes))
	for i, c := range classes {
		classValues[i] = float64(c)
	}
	st, err := structpb.NewStruct(map[string]any{
		"event":   ev.Event,
		"frame":   float64(ev.Frame),
		"classes": classValues,
		"at":      ev.At,
	})
	if err != nil {
		return nil, fmt.Errorf("build struct: %w", err)
	}
	pbData, err := proto.Marshal(st)
	if err != nil {
		return nil, fmt.Errorf("marshal protobuf: %w", err)
	}

	return &SerializedEvent{
		JSONData:     jsonData,
		ProtobufData: []byte(base64.StdEncoding.EncodeToString(pbData)),
	}, nil
}

func wantsProtobuf(r *http.Request) bool {
	if r.URL.Query().Get("format") == "protobuf" {
		return true
	}
	accept := r.Header.Get("Accept")
	return strings.Contains(accept, "application/protobuf") ||
		strings.Contains(accept, "application/x-protobuf")
}

func (s *Server) streamTransitions(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	if s.opts.Broadcaster == nil {
		http.Error(w, "transition stream disabled", http.StatusNotFound)
		return
	}
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "Streaming unsupported", http.StatusInternalServerError)
		return
	}

	id, eventCh := s.opts.Broadcaster.Subscribe()
	defer s.opts.Broadcaster.Unsubscribe(id)
	useProtobuf := wantsProtobuf(r)

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	if useProtobuf {
		w.Header().Set("X-Content-Format", "application/protobuf")
	} else {
		w.Header().Set("X-Content-Format", "application/json")
	}
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	for {
		select {
		case <-r.Context().Done():
			return
		case event, ok := <-eventCh:
			if !ok {
				return
			}
			data := event.JSONData
			if useProtobuf {
				data = event.ProtobufData
			}
			if _, err := fmt.Fprintf(w, "data: %s\n\n", data); err != nil {
				return
			}
			flusher.Flush()
		}
	}
}
