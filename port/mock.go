package port

import (
	"bytes"
	"fmt"
)

// Mock is a test double implementing Port. Bytes written by the caller are
// appended to Written; if Echo is true they are also appended to the read
// queue first, simulating a one-wire bus where the host observes its own
// transmission before any reply. Reply frames to be consumed by ReadExact
// are queued in order via QueueReply.
type Mock struct {
	Echo    bool
	Written bytes.Buffer

	queue []byte
	baud  int
	dtr   bool
	rts   bool
	txd   bool

	// echoed counts the leading bytes of queue that echo writes not yet
	// read back; replies queued via QueueReply always follow them.
	echoed int

	// BaudHistory records every baud requested via SetBaud, in order.
	BaudHistory []int
}

// NewMock returns a Mock with the given echo behavior.
func NewMock(echo bool) *Mock {
	return &Mock{Echo: echo, txd: true}
}

// QueueReply appends bytes that future ReadExact calls will return, in
// addition to (and after) any echoed bytes a prior Write produced.
func (m *Mock) QueueReply(b []byte) {
	m.queue = append(m.queue, b...)
}

func (m *Mock) Write(b []byte) (int, error) {
	m.Written.Write(b)
	if m.Echo {
		q := make([]byte, 0, len(m.queue)+len(b))
		q = append(q, m.queue[:m.echoed]...)
		q = append(q, b...)
		m.queue = append(q, m.queue[m.echoed:]...)
		m.echoed += len(b)
	}
	return len(b), nil
}

func (m *Mock) ReadExact(buf []byte) error {
	if len(m.queue) < len(buf) {
		return fmt.Errorf("mock port: short read, want %d bytes, have %d queued", len(buf), len(m.queue))
	}
	copy(buf, m.queue[:len(buf)])
	m.queue = m.queue[len(buf):]
	m.echoed -= min(m.echoed, len(buf))
	return nil
}

// Flush discards echoed bytes that have not been read back. Replies queued
// via QueueReply stand for bytes the target has yet to send, so they stay.
func (m *Mock) Flush() error {
	m.queue = m.queue[m.echoed:]
	m.echoed = 0
	return nil
}

func (m *Mock) SetBaud(baud int) error {
	m.baud = baud
	m.BaudHistory = append(m.BaudHistory, baud)
	return nil
}

func (m *Mock) SetDTR(on bool) error { m.dtr = on; return nil }
func (m *Mock) SetRTS(on bool) error { m.rts = on; return nil }
func (m *Mock) SetTXD(level bool) error { m.txd = level; return nil }

// Baud returns the most recently requested baud rate.
func (m *Mock) Baud() int { return m.baud }

// DTR returns the last level SetDTR was called with.
func (m *Mock) DTR() bool { return m.dtr }

// RTS returns the last level SetRTS was called with.
func (m *Mock) RTS() bool { return m.rts }

// TXD returns the last level SetTXD was called with.
func (m *Mock) TXD() bool { return m.txd }
