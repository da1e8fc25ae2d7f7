package serialmux

import (
	"io"

	"go.bug.st/serial"
)

// SerialPorter is the minimal surface the emitter needs from a serial port.
// It lets tests run without serial hardware.
type SerialPorter interface {
	io.Writer
	io.Closer
}

// SerialPortOpener opens the port at path with the given mode.
type SerialPortOpener func(path string, mode *serial.Mode) (SerialPorter, error)

// openSerialPort is the opener used by OpenEmitter. Tests swap it out.
var openSerialPort SerialPortOpener = func(path string, mode *serial.Mode) (SerialPorter, error) {
	return serial.Open(path, mode)
}
