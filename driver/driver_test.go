package driver

import (
	"context"
	"testing"

	"github.com/devtty/rl78boot/entry"
	"github.com/devtty/rl78boot/flash"
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

func TestOperationsRequireEnter(t *testing.T) {
	ctx := context.Background()
	d := New(port.NewMock(false))

	if _, err := d.Identify(ctx); !isNotEntered(err) {
		t.Errorf("Identify before Enter: err = %v, want *NotEnteredError", err)
	}
	if err := d.Program(ctx, flash.Image{}); !isNotEntered(err) {
		t.Errorf("Program before Enter: err = %v, want *NotEnteredError", err)
	}
	if err := d.Erase(ctx, 0, flash.BlockSize); !isNotEntered(err) {
		t.Errorf("Erase before Enter: err = %v, want *NotEnteredError", err)
	}
	if err := d.Verify(ctx, flash.Image{}); !isNotEntered(err) {
		t.Errorf("Verify before Enter: err = %v, want *NotEnteredError", err)
	}
	if _, err := d.Checksum(ctx, 0, 1); !isNotEntered(err) {
		t.Errorf("Checksum before Enter: err = %v, want *NotEnteredError", err)
	}
}

func isNotEntered(err error) bool {
	_, ok := err.(*NotEnteredError)
	return ok
}

func TestEnterThenIdentify(t *testing.T) {
	m := port.NewMock(false)
	// Enter: baud rate set acceptance + info.
	m.QueueReply(ackFrame())
	m.QueueReply([]byte{protocol.STX, 2, 20, 0, protocol.Checksum8([]byte{2, 20, 0}), protocol.ETX})
	// Identify: silicon signature acceptance + 22-byte payload.
	m.QueueReply(ackFrame())
	sig := append([]byte{0x03, 0x01, 0x0A}, []byte("R5F100CBA")...)
	sig = append(sig, 0x00, 0xFF, 0x7F, 0x00, 0xFF, 0xFF, 0x00, 0x01, 0x02, 0x03)
	frame := []byte{protocol.STX, 22}
	frame = append(frame, sig...)
	frame = append(frame, protocol.Checksum8(append([]byte{22}, sig...)), protocol.ETX)
	m.QueueReply(frame)

	ctx := context.Background()
	d := New(m)
	if err := d.Enter(ctx, entry.Mode{}, false, nil, 115200); err != nil {
		t.Fatalf("Enter: %v", err)
	}

	id, err := d.Identify(ctx)
	if err != nil {
		t.Fatalf("Identify: %v", err)
	}
	if id.CodeFlashSize != 0x8000 {
		t.Errorf("CodeFlashSize = 0x%X, want 0x8000", id.CodeFlashSize)
	}
}
