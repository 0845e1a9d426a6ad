// Package protocol implements the framing layer of the RL78 single/two-wire
// bootloader protocol: command and data record encoding, response parsing,
// checksums, and the status/command byte tables.
//
// # Frame shapes
//
//	Command:  [SOH][LEN][CMD][payload...][CHK][ETX]
//	Data:     [STX][LEN][payload...][CHK][ETX|ETB]
//	Response: same shape as a data record
//
// LEN for a command record encodes len(payload)+1; for a data or response
// record it encodes len(payload), with 0 meaning 256. CHK is the 8-bit
// two's-complement negation of the bytes it covers (see Checksum8).
//
// # Usage
//
//	codec := protocol.NewCodec(p, oneWire)
//	if err := codec.SendCommand(protocol.CmdReset, nil); err != nil {
//	    return err
//	}
//	status, err := codec.Recv(1)
//
// Echo suppression, the two-phase response read, and the expected-length
// guard are all handled by Codec; callers never see raw port bytes.
package protocol
