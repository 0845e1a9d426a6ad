// Package port defines the byte-level transport the rest of this module
// drives the RL78 bootloader protocol over, and a mock implementation used
// throughout the other packages' tests.
package port

import "time"

// Port is the serial-port surface the protocol, entry, and flash packages
// require. A real implementation backs it with an actual UART adapter
// (see the serialport package); tests back it with Mock.
type Port interface {
	// Write writes all of b to the port, blocking until accepted.
	Write(b []byte) (int, error)

	// ReadExact reads exactly len(buf) bytes into buf, blocking as needed.
	// Returns an error (wrapping the underlying timeout, if any) if the
	// full count cannot be read.
	ReadExact(buf []byte) error

	// Flush discards any buffered input the port has not yet delivered.
	Flush() error

	// SetBaud changes the port's baud rate for subsequent I/O.
	SetBaud(baud int) error

	// SetDTR drives the DTR modem-control line.
	SetDTR(on bool) error

	// SetRTS drives the RTS modem-control line.
	SetRTS(on bool) error

	// SetTXD drives the TXD line to a static level (true = mark/high,
	// false = space/low), independent of any byte framing. Used to hold
	// TOOL0 at a level during the entry sequence.
	SetTXD(level bool) error
}

// Sleep is a package-level indirection over time.Sleep so tests can run
// the entry sequence without paying its real-world delays.
var Sleep = time.Sleep
