package protocol

import "testing"

func TestChecksum8(t *testing.T) {
	tests := []struct {
		name string
		data []byte
		want byte
	}{
		{name: "empty", data: nil, want: 0},
		{name: "single byte", data: []byte{0x01}, want: 0xFF},
		{name: "four bytes", data: []byte{0x01, 0x02, 0x03, 0x04}, want: 0xF6},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Checksum8(tt.data); got != tt.want {
				t.Errorf("Checksum8(%v) = 0x%02X, want 0x%02X", tt.data, got, tt.want)
			}
		})
	}
}

func TestChecksum16(t *testing.T) {
	// 16-bit checksum of a 4-byte image: -(1+2+3+4) mod 0x10000 = 0xFFF6.
	got := Checksum16([]byte{0x01, 0x02, 0x03, 0x04})
	if got != 0xFFF6 {
		t.Errorf("Checksum16 = 0x%04X, want 0xFFF6", got)
	}
}
