// Package serialport adapts go.bug.st/serial to the port.Port interface
// the protocol, entry, and flash packages drive the RL78 bootloader
// protocol over.
package serialport

import (
	"fmt"
	"io"
	"time"

	"go.bug.st/serial"

	"github.com/devtty/rl78boot/port"
)

// breakSettle is how long Break is held so the line settles at the
// requested static level; go.bug.st/serial only exposes a timed break,
// not a static level, so SetTXD brackets one to approximate it.
const breakSettle = 2 * time.Millisecond

// Adapter wraps a serial.Port as a port.Port.
type Adapter struct {
	port serial.Port
}

// Open opens name at baud 115200 (the bootloader handshake's fixed
// starting rate) with sane defaults for this protocol's framing.
func Open(name string) (*Adapter, error) {
	mode := &serial.Mode{
		BaudRate: 115200,
		DataBits: 8,
		Parity:   serial.NoParity,
		StopBits: serial.OneStopBit,
	}
	p, err := serial.Open(name, mode)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", name, err)
	}
	if err := p.SetReadTimeout(2 * time.Second); err != nil {
		_ = p.Close()
		return nil, fmt.Errorf("set read timeout: %w", err)
	}
	return &Adapter{port: p}, nil
}

// Close releases the underlying serial port.
func (a *Adapter) Close() error {
	return a.port.Close()
}

func (a *Adapter) Write(b []byte) (int, error) {
	return a.port.Write(b)
}

func (a *Adapter) ReadExact(buf []byte) error {
	read := 0
	for read < len(buf) {
		n, err := a.port.Read(buf[read:])
		if n == 0 && err == nil {
			return io.ErrUnexpectedEOF
		}
		if err != nil {
			return fmt.Errorf("read: %w", err)
		}
		read += n
	}
	return nil
}

func (a *Adapter) Flush() error {
	return a.port.ResetInputBuffer()
}

func (a *Adapter) SetBaud(baud int) error {
	mode := &serial.Mode{
		BaudRate: baud,
		DataBits: 8,
		Parity:   serial.NoParity,
		StopBits: serial.OneStopBit,
	}
	return a.port.SetMode(mode)
}

func (a *Adapter) SetDTR(on bool) error {
	return a.port.SetDTR(on)
}

func (a *Adapter) SetRTS(on bool) error {
	return a.port.SetRTS(on)
}

// SetTXD drives TOOL0's static level. go.bug.st/serial models TXD control
// only as a timed break (idle-low for a duration); a level of false
// issues that break, a level of true is the line's natural idle-high
// rest state once no break is active.
func (a *Adapter) SetTXD(level bool) error {
	if level {
		return a.port.Break(0)
	}
	return a.port.Break(breakSettle)
}

var _ port.Port = (*Adapter)(nil)
