package serialmux

import "fmt"

// OpenEmitter opens the serial device at path and returns an Emitter that
// owns it.
func OpenEmitter(path string, opts PortOptions) (*Emitter, error) {
	mode, err := opts.SerialMode()
	if err != nil {
		return nil, fmt.Errorf("serial options: %w", err)
	}

	port, err := openSerialPort(path, mode)
	if err != nil {
		return nil, fmt.Errorf("open serial port %s: %w", path, err)
	}

	return NewEmitter(port), nil
}
