// Package driver presents the RL78 bootloader's public operations —
// enter, identify, program, erase, verify, checksum, reset — as thin
// sequencing over the entry, command, and flash packages.
package driver

import (
	"context"

	"github.com/pkg/errors"

	"github.com/devtty/rl78boot/command"
	"github.com/devtty/rl78boot/entry"
	"github.com/devtty/rl78boot/flash"
	"github.com/devtty/rl78boot/port"
)

// Driver is the top-level entry point for talking to an RL78 target. It
// holds no state of its own beyond the active session's Commands layer
// and the injected configuration.
type Driver struct {
	seq  *entry.Sequencer
	cfg  Config
	cmds *command.Commands
}

// New returns a Driver over p. No I/O happens until Enter is called.
func New(p port.Port, opts ...Option) *Driver {
	cfg := defaultConfig()
	for _, opt := range opts {
		opt(&cfg)
	}
	return &Driver{seq: entry.New(p), cfg: cfg}
}

// Enter runs the bootloader entry sequence at the requested baud and
// voltage, negotiating the session's Commands layer. waitForPower blocks
// on waitForKeypress (if non-nil) before driving RESET high, giving the
// operator a window to power the target.
func (d *Driver) Enter(ctx context.Context, mode entry.Mode, waitForPower bool, waitForKeypress func(), baud int) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	d.cfg.Logger.Info("entering bootloader", "one_wire", mode.OneWire, "baud", baud)

	result, err := d.seq.Enter(mode, waitForPower, waitForKeypress, baud, d.cfg.VoltageX10)
	if err != nil {
		return errors.Wrap(err, "enter bootloader")
	}
	if result.Coerced {
		err := &BaudCoercedError{Requested: baud, Actual: result.ActualBaud}
		d.cfg.Logger.Error(err.Error(), "requested", baud, "actual", result.ActualBaud)
	}
	d.cmds = result.Commands
	return nil
}

// Identity is the information Identify reports about the attached target.
type Identity struct {
	Name          string
	CodeFlashSize uint32
	DataFlashSize uint32
}

// Identify reads the target's silicon signature.
func (d *Driver) Identify(ctx context.Context) (Identity, error) {
	if err := ctx.Err(); err != nil {
		return Identity{}, err
	}
	if d.cmds == nil {
		return Identity{}, &NotEnteredError{}
	}
	sig, err := d.cmds.SiliconSignature()
	if err != nil {
		return Identity{}, errors.Wrap(err, "identify")
	}
	return Identity{
		Name:          sig.DeviceName,
		CodeFlashSize: sig.CodeFlashSize,
		DataFlashSize: sig.DataFlashSize,
	}, nil
}

// Program writes img to flash, block by block, skipping blocks whose image
// bytes are all 0xFF (the target's contents for those blocks are not read).
func (d *Driver) Program(ctx context.Context, img flash.Image) error {
	if d.cmds == nil {
		return &NotEnteredError{}
	}
	return d.runBlocks(ctx, PhaseProgramming, img.NumBlocks(), func(o *flash.Orchestrator) error {
		return o.Program(ctx, img)
	})
}

// Erase erases size bytes starting at addr, masked down to whole blocks.
func (d *Driver) Erase(ctx context.Context, addr uint32, size int) error {
	if d.cmds == nil {
		return &NotEnteredError{}
	}
	total := size &^ (flash.BlockSize - 1) / flash.BlockSize
	return d.runBlocks(ctx, PhaseErasing, total, func(o *flash.Orchestrator) error {
		return o.Erase(ctx, addr, size)
	})
}

// Verify compares img against the target's flash contents.
func (d *Driver) Verify(ctx context.Context, img flash.Image) error {
	if d.cmds == nil {
		return &NotEnteredError{}
	}
	return d.runBlocks(ctx, PhaseVerifying, img.NumBlocks(), func(o *flash.Orchestrator) error {
		return o.Verify(ctx, img)
	})
}

// runBlocks wraps an orchestrator call with entry/phase logging and a
// best-effort progress report (per-operation, not per-block: the
// orchestrator does not expose intra-loop hooks, matching the original
// implementation's coarse per-call progress markers). ctx is checked once
// up front; cancellation mid-operation is caught by the orchestrator's own
// per-block check.
func (d *Driver) runBlocks(ctx context.Context, phase Phase, totalBlocks int, fn func(*flash.Orchestrator) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	d.cfg.Logger.Debug(string(phase)+" starting", "blocks", totalBlocks)
	if d.cfg.ProgressCallback != nil {
		d.cfg.ProgressCallback(Progress{Phase: phase, TotalBlocks: totalBlocks})
	}

	o := flash.New(d.cmds)
	if err := fn(o); err != nil {
		return errors.Wrap(err, string(phase))
	}

	if d.cfg.ProgressCallback != nil {
		d.cfg.ProgressCallback(Progress{Phase: phase, Block: totalBlocks, TotalBlocks: totalBlocks})
	}
	return nil
}

// Checksum returns the target's 16-bit checksum over [start, end].
func (d *Driver) Checksum(ctx context.Context, start, end uint32) (uint16, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	if d.cmds == nil {
		return 0, &NotEnteredError{}
	}
	sum, err := d.cmds.Checksum(start, end)
	if err != nil {
		return 0, errors.Wrap(err, "checksum")
	}
	return sum, nil
}

// Reset returns the target to application mode.
func (d *Driver) Reset(ctx context.Context, mode entry.Mode) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	d.cfg.Logger.Info("resetting target")
	return errors.Wrap(d.seq.Reset(mode), "reset")
}
