// Package serial opens the UART between the two halves and carries
// link words over it.
package serial

import (
	"github.com/tarm/serial"

	"github.com/keebworks/sidelink.go/pkg/link/transport/stream"
)

// DefaultBaud matches the firmware's UART rate.
const DefaultBaud = 115200

// Config selects the serial device.
type Config struct {
	// Device is the device path, e.g. /dev/ttyACM0.
	Device string
	// Baud is the line rate, DefaultBaud when zero.
	Baud int
}

// Port is an open serial device carrying link words.
type Port struct {
	*stream.ReadWriter
	port *serial.Port
}

// Open opens the configured device.
func Open(cfg Config) (*Port, error) {
	if cfg.Baud <= 0 {
		cfg.Baud = DefaultBaud
	}
	p, err := serial.OpenPort(&serial.Config{Name: cfg.Device, Baud: cfg.Baud})
	if err != nil {
		return nil, err
	}
	return &Port{stream.New(p), p}, nil
}

// Close closes the device.
func (p *Port) Close() error {
	return p.port.Close()
}
