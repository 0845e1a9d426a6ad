package protocol

import (
	"fmt"

	"github.com/devtty/rl78boot/port"
)

// Codec implements the RL78 bootloader's framing layer over a Port: frame
// encoding for command and data records, and response parsing with echo
// suppression, length-guard, and checksum validation. It has no notion of
// what any particular command means; see the command package for that.
type Codec struct {
	p       port.Port
	OneWire bool
}

// NewCodec returns a Codec driving p. oneWire selects half-duplex framing,
// where every write is immediately followed by consuming the host's own
// echo before a reply can be observed.
func NewCodec(p port.Port, oneWire bool) *Codec {
	return &Codec{p: p, OneWire: oneWire}
}

// SendCommand emits a command record: SOH, LEN, CMD, payload, CHK, ETX.
// len(payload) must be at most MaxCommandPayload.
func (c *Codec) SendCommand(cmd byte, payload []byte) error {
	if len(payload) > MaxCommandPayload {
		return &FrameError{Op: "send command", Reason: ReasonPayloadTooLarge}
	}

	frame := make([]byte, 0, len(payload)+5)
	frame = append(frame, SOH, byte(len(payload)+1), cmd)
	frame = append(frame, payload...)
	frame = append(frame, Checksum8(frame[1:]), ETX)

	return c.write(frame)
}

// SendData emits a data record: STX, LEN, payload, CHK, trailer. len(payload)
// must be in 1..=MaxDataPayload; last selects the ETX trailer over ETB.
func (c *Codec) SendData(payload []byte, last bool) error {
	if len(payload) == 0 || len(payload) > MaxDataPayload {
		return &FrameError{Op: "send data", Reason: ReasonPayloadTooLarge}
	}

	trailer := byte(ETB)
	if last {
		trailer = ETX
	}

	frame := make([]byte, 0, len(payload)+4)
	frame = append(frame, STX, byte(len(payload)%256))
	frame = append(frame, payload...)
	frame = append(frame, Checksum8(frame[1:]), trailer)

	return c.write(frame)
}

// write hands frame to the port and, in one-wire mode, consumes exactly
// len(frame) bytes of echo before returning.
func (c *Codec) write(frame []byte) error {
	if _, err := c.p.Write(frame); err != nil {
		return fmt.Errorf("write frame: %w", err)
	}
	if c.OneWire {
		echo := make([]byte, len(frame))
		if err := c.p.ReadExact(echo); err != nil {
			return fmt.Errorf("consume echo: %w", err)
		}
	}
	return nil
}

// Recv reads one response record and returns exactly expectedLen bytes of
// payload. It performs the wire's two-phase read: a 2-byte header (STX,
// LEN) first, then the remaining len+2 bytes (payload, checksum, trailer)
// once LEN is known. expectedLen must match the decoded LEN exactly or the
// read fails with ReasonExpectedLength, even though the frame is otherwise
// self-delimiting — callers rely on this to keep framing in lockstep with
// the target's own inter-record pacing.
func (c *Codec) Recv(expectedLen int) ([]byte, error) {
	header := make([]byte, 2)
	if err := c.p.ReadExact(header); err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}

	dataLen := int(header[1])
	if dataLen == 0 {
		dataLen = 256
	}

	if header[0] != STX {
		return nil, &FrameError{Op: "recv", Reason: ReasonFormat}
	}
	if dataLen != expectedLen {
		return nil, &FrameError{Op: "recv", Reason: ReasonExpectedLength}
	}

	rest := make([]byte, dataLen+2)
	if err := c.p.ReadExact(rest); err != nil {
		return nil, fmt.Errorf("read body: %w", err)
	}

	trailer := rest[dataLen+1]
	if trailer != ETX && trailer != ETB {
		return nil, &FrameError{Op: "recv", Reason: ReasonFormat}
	}

	covered := append([]byte{header[1]}, rest[:dataLen]...)
	if Checksum8(covered) != rest[dataLen] {
		return nil, &FrameError{Op: "recv", Reason: ReasonChecksum}
	}

	return rest[:dataLen], nil
}
