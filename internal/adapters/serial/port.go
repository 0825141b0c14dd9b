// Package serial opens the capture and display device ports with
// go.bug.st/serial.
package serial

import (
	"errors"
	"fmt"
	"io"
	"sort"
	"time"

	bugst "go.bug.st/serial"
)

// ErrNoPortName is returned by Open when Config.Name is empty.
var ErrNoPortName = errors.New("serial: port name required")

// Config holds serial port configuration. Ports are always 8N1.
type Config struct {
	Name        string        // Device path (e.g., /dev/ttyUSB0, COM7)
	Baud        int           // Baud rate
	ReadTimeout time.Duration // Zero blocks until data arrives
}

// Port is an open serial port. A Read that times out returns 0, nil.
type Port interface {
	io.ReadWriteCloser
	ResetInputBuffer() error
}

// Open opens and configures the port described by c.
func Open(c Config) (Port, error) {
	if c.Name == "" {
		return nil, ErrNoPortName
	}
	mode := &bugst.Mode{
		BaudRate: c.Baud,
		DataBits: 8,
		Parity:   bugst.NoParity,
		StopBits: bugst.OneStopBit,
	}

	p, err := bugst.Open(c.Name, mode)
	if err != nil {
		return nil, fmt.Errorf("serial: open %s: %w", c.Name, err)
	}

	timeout := bugst.NoTimeout
	if c.ReadTimeout > 0 {
		timeout = c.ReadTimeout
	}
	if err := p.SetReadTimeout(timeout); err != nil {
		p.Close()
		return nil, fmt.Errorf("serial: set read timeout on %s: %w", c.Name, err)
	}
	return p, nil
}

// ListPorts returns the serial ports present on the system, sorted.
func ListPorts() ([]string, error) {
	ports, err := bugst.GetPortsList()
	if err != nil {
		return nil, fmt.Errorf("serial: list ports: %w", err)
	}
	sort.Strings(ports)
	return ports, nil
}
