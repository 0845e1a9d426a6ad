// Package command implements the RL78 bootloader's command set: one
// method per wire command, each issuing a request frame via a
// protocol.Codec and decoding its status/info reply.
package command

import (
	"encoding/binary"
	"time"

	"github.com/devtty/rl78boot/protocol"
)

// Commands issues RL78 bootloader commands over a protocol.Codec.
type Commands struct {
	codec *protocol.Codec

	// Sleep lets tests run the programming settling delay without
	// paying it in real time; defaults to time.Sleep.
	Sleep func(time.Duration)
}

// New returns a Commands layer driving codec.
func New(codec *protocol.Codec) *Commands {
	return &Commands{codec: codec, Sleep: time.Sleep}
}

func le3(v uint32) []byte {
	return []byte{byte(v), byte(v >> 8), byte(v >> 16)}
}

// recvStatus reads the 1-byte status reply to the already-sent command op
// and folds a non-ACK status into a *protocol.StatusError.
// ok is true when the target reported BlankError, which only
// BlockBlankCheck treats as a non-error result.
func (c *Commands) recvStatus(op string, allowBlankError bool) (ok bool, err error) {
	status, err := c.codec.Recv(1)
	if err != nil {
		return false, err
	}
	switch status[0] {
	case protocol.StatusAck:
		return false, nil
	case protocol.StatusBlankError:
		if allowBlankError {
			return true, nil
		}
	}
	return false, &protocol.StatusError{Op: op, Status: status[0]}
}

// Reset issues the Reset command, returning the target to application
// mode. This is distinct from the entry sequencer's line-level reset.
func (c *Commands) Reset() error {
	if err := c.codec.SendCommand(protocol.CmdReset, nil); err != nil {
		return err
	}
	_, err := c.recvStatus("reset", false)
	return err
}

// BaudInfo is the info payload of a successful BaudRateSet.
type BaudInfo struct {
	ClockMHz    byte
	WideVoltage bool
}

// BaudRateSet negotiates the link baud rate and supply voltage. baud is
// coerced to 115200 (reported via Coerced) if it is not one of the four
// rates the target supports. The port's own baud is switched to the
// resulting rate (actualBaud) after a successful handshake, unless that
// rate is the 115200 default.
func (c *Commands) BaudRateSet(baud int, voltageX10 byte, setPortBaud func(int) error) (info BaudInfo, actualBaud int, coerced bool, err error) {
	code, actualBaud, ok := protocol.BaudCode(baud)
	coerced = !ok

	if err = c.codec.SendCommand(protocol.CmdBaudRateSet, []byte{code, voltageX10}); err != nil {
		return BaudInfo{}, actualBaud, coerced, err
	}
	if _, err = c.recvStatus("baud rate set", false); err != nil {
		return BaudInfo{}, actualBaud, coerced, err
	}

	data, err := c.codec.Recv(2)
	if err != nil {
		return BaudInfo{}, actualBaud, coerced, err
	}
	info = BaudInfo{ClockMHz: data[0], WideVoltage: data[1] != 0}

	if actualBaud != protocol.DefaultBaud && setPortBaud != nil {
		if err = setPortBaud(actualBaud); err != nil {
			return info, actualBaud, coerced, err
		}
	}
	return info, actualBaud, coerced, nil
}

// SiliconSignature is the parsed 22-byte silicon signature payload.
type SiliconSignature struct {
	DeviceCode    [3]byte
	DeviceName    string
	CodeFlashSize uint32
	DataFlashSize uint32
	FirmwareVer   [3]byte
}

// SiliconSignature queries the target's silicon signature.
func (c *Commands) SiliconSignature() (SiliconSignature, error) {
	if err := c.codec.SendCommand(protocol.CmdSiliconSignature, nil); err != nil {
		return SiliconSignature{}, err
	}
	if _, err := c.recvStatus("silicon signature", false); err != nil {
		return SiliconSignature{}, err
	}

	data, err := c.codec.Recv(22)
	if err != nil {
		return SiliconSignature{}, err
	}

	codeEnd := uint32(data[13]) | uint32(data[14])<<8 | uint32(data[15])<<16
	dataEnd := uint32(data[16]) | uint32(data[17])<<8 | uint32(data[18])<<16

	sig := SiliconSignature{
		DeviceName:    string(data[3:13]),
		CodeFlashSize: codeEnd + 1,
		FirmwareVer:   [3]byte{data[19], data[20], data[21]},
	}
	copy(sig.DeviceCode[:], data[0:3])
	if dataEnd != 0 {
		sig.DataFlashSize = dataEnd - protocol.DataFlashBase + 1
	}
	return sig, nil
}

// BlockErase erases the block starting at addr.
func (c *Commands) BlockErase(addr uint32) error {
	if err := c.codec.SendCommand(protocol.CmdBlockErase, le3(addr)); err != nil {
		return err
	}
	_, err := c.recvStatus("block erase", false)
	return err
}

// BlockBlankCheck reports whether [start, end] is entirely erased (0xFF).
func (c *Commands) BlockBlankCheck(start, end uint32) (blank bool, err error) {
	payload := append(append(le3(start), le3(end)...), 0x00)
	if err = c.codec.SendCommand(protocol.CmdBlockBlankCheck, payload); err != nil {
		return false, err
	}
	nonBlank, err := c.recvStatus("block blank check", true)
	return !nonBlank, err
}

// Checksum returns the target's 16-bit checksum over [start, end].
func (c *Commands) Checksum(start, end uint32) (uint16, error) {
	payload := append(le3(start), le3(end)...)
	if err := c.codec.SendCommand(protocol.CmdChecksum, payload); err != nil {
		return 0, err
	}
	if _, err := c.recvStatus("checksum", false); err != nil {
		return 0, err
	}
	data, err := c.codec.Recv(2)
	if err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint16(data), nil
}

// sendBulk chunks data into ≤256-byte data frames (last uses ETX, the
// rest ETB) and reads a 2-byte status after each frame, both bytes of
// which must be ACK.
func (c *Commands) sendBulk(op string, data []byte) error {
	for len(data) > 0 {
		n := len(data)
		if n > protocol.MaxDataPayload {
			n = protocol.MaxDataPayload
		}
		last := n == len(data)
		if err := c.codec.SendData(data[:n], last); err != nil {
			return err
		}
		status, err := c.codec.Recv(2)
		if err != nil {
			return err
		}
		if status[0] != protocol.StatusAck {
			return &protocol.StatusError{Op: op + " (frame acceptance)", Status: status[0]}
		}
		if status[1] != protocol.StatusAck {
			return &protocol.StatusError{Op: op + " (frame result)", Status: status[1]}
		}
		data = data[n:]
	}
	return nil
}

// Programming writes data to [start, start+len(data)-1] on the target.
func (c *Commands) Programming(start uint32, data []byte) error {
	end := start + uint32(len(data)) - 1
	payload := append(le3(start), le3(end)...)
	if err := c.codec.SendCommand(protocol.CmdProgramming, payload); err != nil {
		return err
	}
	if _, err := c.recvStatus("programming", false); err != nil {
		return err
	}
	if err := c.sendBulk("programming", data); err != nil {
		return err
	}

	c.Sleep(time.Duration(len(data)/1024+1) * 1500 * time.Microsecond)

	_, err := c.recvStatus("programming completion", false)
	return err
}

// Verify compares data against [start, start+len(data)-1] on the target.
// Unlike Programming, there is no trailing completion status.
func (c *Commands) Verify(start uint32, data []byte) error {
	end := start + uint32(len(data)) - 1
	payload := append(le3(start), le3(end)...)
	if err := c.codec.SendCommand(protocol.CmdVerify, payload); err != nil {
		return err
	}
	if _, err := c.recvStatus("verify", false); err != nil {
		return err
	}
	return c.sendBulk("verify", data)
}
