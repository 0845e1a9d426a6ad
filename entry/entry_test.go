package entry

import (
	"testing"
	"time"

	"github.com/devtty/rl78boot/port"
	"github.com/devtty/rl78boot/protocol"
)

func ackFrame(extra ...byte) []byte {
	payload := append([]byte{protocol.StatusAck}, extra...)
	frame := []byte{protocol.STX, byte(len(payload))}
	frame = append(frame, payload...)
	frame = append(frame, protocol.Checksum8(append([]byte{byte(len(payload))}, payload...)), protocol.ETX)
	return frame
}

func TestEnterTwoWireSequence(t *testing.T) {
	m := port.NewMock(false)
	m.QueueReply(ackFrame())                                            // baud rate set acceptance
	m.QueueReply([]byte{protocol.STX, 2, 20, 0, protocol.Checksum8([]byte{2, 20, 0}), protocol.ETX}) // info

	s := New(m)
	s.Sleep = func(time.Duration) {}

	kbHit := false
	result, err := s.Enter(Mode{OneWire: false, ResetLine: ResetViaDTR}, false, func() { kbHit = true }, 115200, 33)
	if err != nil {
		t.Fatalf("Enter: %v", err)
	}
	if result.Commands == nil {
		t.Fatalf("Enter returned nil Commands")
	}
	if result.Coerced {
		t.Errorf("Coerced = true for supported 115200 baud")
	}
	if result.ActualBaud != 115200 {
		t.Errorf("ActualBaud = %d, want 115200", result.ActualBaud)
	}
	if kbHit {
		t.Errorf("keypress wait invoked though waitForPower was false")
	}
	if !m.DTR() {
		t.Errorf("DTR left low at end of entry sequence, want high (RESET released)")
	}
	if !m.TXD() {
		t.Errorf("TXD left low at end of entry sequence, want high")
	}

	written := m.Written.Bytes()
	if len(written) == 0 || written[0] != byte(modeSelectTwoWire) {
		t.Errorf("first byte written = 0x%02X, want two-wire mode-select 0x%02X", written[0], modeSelectTwoWire)
	}
}

func TestEnterOneWireConsumesEcho(t *testing.T) {
	m := port.NewMock(true)
	m.QueueReply(ackFrame())
	m.QueueReply([]byte{protocol.STX, 2, 20, 0, protocol.Checksum8([]byte{2, 20, 0}), protocol.ETX})

	s := New(m)
	s.Sleep = func(time.Duration) {}

	if _, err := s.Enter(Mode{OneWire: true}, false, nil, 115200, 33); err != nil {
		t.Fatalf("Enter: %v", err)
	}
}

func TestResetLeavesTargetRunning(t *testing.T) {
	m := port.NewMock(false)
	s := New(m)
	s.Sleep = func(time.Duration) {}

	if err := s.Reset(Mode{ResetLine: ResetViaRTS}); err != nil {
		t.Fatalf("Reset: %v", err)
	}
	if !m.RTS() {
		t.Errorf("RTS left low after Reset, want high")
	}
	if !m.TXD() {
		t.Errorf("TXD left low after Reset, want high")
	}
}
