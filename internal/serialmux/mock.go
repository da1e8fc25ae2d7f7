package serialmux

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"sync"
	"time"

	"go.bug.st/serial"

	"github.com/banshee-data/blink/internal/monitoring"
)

// MockSerialPort implements SerialPorter over any WriteCloser.
type MockSerialPort struct {
	io.WriteCloser
}

// NewMockEmitter returns an Emitter whose port is a temp file, for running
// without the signal receiver attached. The file path is returned so the
// operator can inspect what would have been sent.
func NewMockEmitter() (*Emitter, string, error) {
	f, err := os.CreateTemp("", "blink_mock_serial_port")
	if err != nil {
		return nil, "", fmt.Errorf("create mock serial port: %w", err)
	}
	monitoring.Logf("Writing mock serial port output to %s", f.Name())
	return NewEmitter(&MockSerialPort{WriteCloser: f}), f.Name(), nil
}

// TestableSerialPort implements SerialPorter with configurable behaviour for
// testing writes, errors and latency.
type TestableSerialPort struct {
	mu sync.Mutex

	// WriteBuffer captures data written to the port
	WriteBuffer *bytes.Buffer

	// WriteLatency adds a delay to each Write call
	WriteLatency time.Duration

	// WriteError is returned by the next Write call if set
	WriteError error

	// ShortWrite makes Write report zero bytes written without an error
	ShortWrite bool

	// CloseError is returned by Close if set
	CloseError error

	// Closed indicates whether Close was called
	Closed bool

	// WriteCalls records the number of Write calls
	WriteCalls int

	// CloseCalls records the number of Close calls
	CloseCalls int
}

// NewTestableSerialPort creates a new TestableSerialPort for testing.
func NewTestableSerialPort() *TestableSerialPort {
	return &TestableSerialPort{WriteBuffer: bytes.NewBuffer(nil)}
}

// Write appends to the write buffer, optionally simulating latency and
// errors.
func (t *TestableSerialPort) Write(p []byte) (n int, err error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.WriteCalls++

	if t.Closed {
		return 0, errors.New("serial port closed")
	}

	if t.WriteError != nil {
		err := t.WriteError
		t.WriteError = nil
		return 0, err
	}

	if t.ShortWrite {
		return 0, nil
	}

	if t.WriteLatency > 0 {
		t.mu.Unlock()
		time.Sleep(t.WriteLatency)
		t.mu.Lock()
	}

	return t.WriteBuffer.Write(p)
}

// Close marks the port as closed.
func (t *TestableSerialPort) Close() error {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.CloseCalls++
	t.Closed = true
	return t.CloseError
}

// GetWrittenData returns a copy of all data written to the port.
func (t *TestableSerialPort) GetWrittenData() []byte {
	t.mu.Lock()
	defer t.mu.Unlock()

	return bytes.Clone(t.WriteBuffer.Bytes())
}

// SetWriteError makes the next Write fail with err.
func (t *TestableSerialPort) SetWriteError(err error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.WriteError = err
}

// MockOpenCall records details of an open call.
type MockOpenCall struct {
	Path string
	Mode *serial.Mode
}

// MockSerialPortOpener records open calls and hands back a fixed port.
type MockSerialPortOpener struct {
	mu sync.Mutex

	// Port is the port to return from Open
	Port SerialPorter

	// Error is returned by Open if set
	Error error

	// OpenCalls records all Open calls
	OpenCalls []MockOpenCall
}

// Open returns the configured port or error.
func (o *MockSerialPortOpener) Open(path string, mode *serial.Mode) (SerialPorter, error) {
	o.mu.Lock()
	defer o.mu.Unlock()

	o.OpenCalls = append(o.OpenCalls, MockOpenCall{Path: path, Mode: mode})
	if o.Error != nil {
		return nil, o.Error
	}
	return o.Port, nil
}
