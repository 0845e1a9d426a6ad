// Package entry implements the RL78 bootloader entry handshake: the
// reset/TOOL0 timing sequence that places the target into serial
// programming mode, and the separate line-level reset that returns it to
// application code.
package entry

import (
	"time"

	"github.com/devtty/rl78boot/command"
	"github.com/devtty/rl78boot/port"
	"github.com/devtty/rl78boot/protocol"
)

// ResetLine selects which modem-control line drives the target's RESET pin.
type ResetLine int

const (
	ResetViaDTR ResetLine = iota
	ResetViaRTS
)

// Mode configures a session's entry parameters.
type Mode struct {
	// OneWire selects half-duplex single-wire UART framing. Two-wire
	// framing (independent TX/RX, no echo) is used otherwise.
	OneWire bool

	// ResetLine selects DTR or RTS as the RESET driver.
	ResetLine ResetLine

	// InvertReset flips the logical sense of the RESET line.
	InvertReset bool
}

const (
	modeSelectOneWire = 0x00
	modeSelectTwoWire = 0x01
)

// Sequencer drives the entry handshake and the separate reset operation
// over a port.Port.
type Sequencer struct {
	p port.Port

	// Sleep lets tests run the sequence without paying its real-world
	// delays; defaults to time.Sleep.
	Sleep func(time.Duration)
}

// New returns a Sequencer driving p.
func New(p port.Port) *Sequencer {
	return &Sequencer{p: p, Sleep: port.Sleep}
}

func (s *Sequencer) setReset(mode Mode, value bool) error {
	level := value
	if mode.InvertReset {
		level = !level
	}
	if mode.ResetLine == ResetViaRTS {
		return s.p.SetRTS(level)
	}
	return s.p.SetDTR(level)
}

// Result is what a successful Enter negotiates: a Commands layer ready to
// issue further commands, and the baud rate actually in effect (which may
// differ from the one requested; see ActualBaud/Coerced).
type Result struct {
	Commands *command.Commands

	// ActualBaud is the baud rate the target and port ended up running
	// at. Coerced is true when the requested baud was not one of the
	// four the target supports, in which case ActualBaud is 115200.
	ActualBaud int
	Coerced    bool
}

// Enter runs the 10-step entry sequence and negotiates the session's
// Commands layer at the requested baud. waitForPower, when true, blocks
// on waitForKeypress before driving RESET high, giving the operator time
// to power the target manually.
func (s *Sequencer) Enter(mode Mode, waitForPower bool, waitForKeypress func(), baud int, voltageX10 byte) (Result, error) {
	modeSelect := byte(modeSelectTwoWire)
	if mode.OneWire {
		modeSelect = modeSelectOneWire
	}

	if err := s.setReset(mode, true); err != nil {
		return Result{}, err
	}
	if err := s.setReset(mode, false); err != nil {
		return Result{}, err
	}
	if err := s.p.SetTXD(false); err != nil {
		return Result{}, err
	}

	if waitForPower && waitForKeypress != nil {
		waitForKeypress()
	}

	if err := s.p.Flush(); err != nil {
		return Result{}, err
	}
	s.Sleep(1 * time.Millisecond)

	if err := s.setReset(mode, true); err != nil {
		return Result{}, err
	}
	s.Sleep(3 * time.Millisecond)

	if err := s.p.SetTXD(true); err != nil {
		return Result{}, err
	}
	s.Sleep(1 * time.Millisecond)
	if err := s.p.Flush(); err != nil {
		return Result{}, err
	}

	if _, err := s.p.Write([]byte{modeSelect}); err != nil {
		return Result{}, err
	}
	if mode.OneWire {
		echo := make([]byte, 1)
		if err := s.p.ReadExact(echo); err != nil {
			return Result{}, err
		}
	}
	s.Sleep(1 * time.Millisecond)

	codec := protocol.NewCodec(s.p, mode.OneWire)
	cmds := command.New(codec)

	_, actualBaud, coerced, err := cmds.BaudRateSet(baud, voltageX10, s.p.SetBaud)
	if err != nil {
		return Result{}, err
	}

	return Result{Commands: cmds, ActualBaud: actualBaud, Coerced: coerced}, nil
}

// Reset returns the target to application mode: TOOL0 high, RESET low for
// at least 10ms, then RESET high. This does not re-enter the bootloader.
func (s *Sequencer) Reset(mode Mode) error {
	if err := s.p.SetTXD(true); err != nil {
		return err
	}
	if err := s.setReset(mode, false); err != nil {
		return err
	}
	s.Sleep(10 * time.Millisecond)
	return s.setReset(mode, true)
}
