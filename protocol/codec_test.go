package protocol

import (
	"bytes"
	"testing"

	"github.com/devtty/rl78boot/port"
)

func TestSendCommandFraming(t *testing.T) {
	tests := []struct {
		name string
		cmd  byte
		data []byte
	}{
		{name: "no payload", cmd: CmdReset, data: nil},
		{name: "short payload", cmd: CmdBlockErase, data: []byte{0x00, 0x10, 0x00}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := port.NewMock(false)
			c := NewCodec(m, false)

			if err := c.SendCommand(tt.cmd, tt.data); err != nil {
				t.Fatalf("SendCommand: %v", err)
			}

			frame := m.Written.Bytes()
			if frame[0] != SOH {
				t.Errorf("frame[0] = 0x%02X, want SOH", frame[0])
			}
			if int(frame[1]) != len(tt.data)+1 {
				t.Errorf("LEN = %d, want %d", frame[1], len(tt.data)+1)
			}
			if frame[2] != tt.cmd {
				t.Errorf("CMD = 0x%02X, want 0x%02X", frame[2], tt.cmd)
			}
			if !bytes.Equal(frame[3:3+len(tt.data)], tt.data) {
				t.Errorf("payload = %v, want %v", frame[3:3+len(tt.data)], tt.data)
			}
			if frame[len(frame)-1] != ETX {
				t.Errorf("trailer = 0x%02X, want ETX", frame[len(frame)-1])
			}
			wantChk := Checksum8(frame[1 : len(frame)-2])
			if frame[len(frame)-2] != wantChk {
				t.Errorf("checksum = 0x%02X, want 0x%02X", frame[len(frame)-2], wantChk)
			}
		})
	}
}

func TestSendDataLength256(t *testing.T) {
	payload := make([]byte, 256)

	t.Run("last frame uses ETX and LEN wraps to 0", func(t *testing.T) {
		m := port.NewMock(false)
		c := NewCodec(m, false)
		if err := c.SendData(payload, true); err != nil {
			t.Fatalf("SendData: %v", err)
		}
		frame := m.Written.Bytes()
		if frame[1] != 0 {
			t.Errorf("LEN = %d, want 0 (256 wraparound)", frame[1])
		}
		if frame[len(frame)-1] != ETX {
			t.Errorf("trailer = 0x%02X, want ETX", frame[len(frame)-1])
		}
	})

	t.Run("non-last frame uses ETB", func(t *testing.T) {
		m := port.NewMock(false)
		c := NewCodec(m, false)
		if err := c.SendData(payload, false); err != nil {
			t.Fatalf("SendData: %v", err)
		}
		frame := m.Written.Bytes()
		if frame[len(frame)-1] != ETB {
			t.Errorf("trailer = 0x%02X, want ETB", frame[len(frame)-1])
		}
	})
}

func TestEchoSuppression(t *testing.T) {
	m := port.NewMock(true)
	c := NewCodec(m, true)

	if err := c.SendCommand(CmdReset, nil); err != nil {
		t.Fatalf("SendCommand: %v", err)
	}

	// The echo of the 5-byte command frame must be fully consumed before
	// a reply becomes visible to Recv.
	m.QueueReply([]byte{STX, 1, StatusAck, Checksum8([]byte{1, StatusAck}), ETX})

	status, err := c.Recv(1)
	if err != nil {
		t.Fatalf("Recv: %v", err)
	}
	if status[0] != StatusAck {
		t.Errorf("status = 0x%02X, want StatusAck", status[0])
	}
}

func TestRecvChecksumError(t *testing.T) {
	m := port.NewMock(false)
	c := NewCodec(m, false)

	frame := []byte{STX, 1, StatusAck, Checksum8([]byte{1, StatusAck}), ETX}
	frame[3] ^= 0x01 // flip a single bit of the checksum byte
	m.QueueReply(frame)

	_, err := c.Recv(1)
	if !IsReason(err, ReasonChecksum) {
		t.Fatalf("Recv error = %v, want ChecksumError", err)
	}
}

func TestRecvExpectedLengthMismatch(t *testing.T) {
	m := port.NewMock(false)
	c := NewCodec(m, false)

	frame := []byte{STX, 1, StatusAck, Checksum8([]byte{1, StatusAck}), ETX}
	m.QueueReply(frame)

	// Caller expects 2 bytes of payload though the frame (and its
	// checksum) correctly encode 1; the mismatch must fail regardless.
	_, err := c.Recv(2)
	if !IsReason(err, ReasonExpectedLength) {
		t.Fatalf("Recv error = %v, want ExpectedLengthError", err)
	}
}
