package flash

import (
	"context"
	"fmt"

	"github.com/devtty/rl78boot/command"
)

// Commander is the subset of *command.Commands the orchestrator needs;
// declared as an interface so tests can substitute a recording fake
// without standing up a full Commands/Codec/Port stack.
type Commander interface {
	BlockErase(addr uint32) error
	BlockBlankCheck(start, end uint32) (blank bool, err error)
	Programming(start uint32, data []byte) error
	Verify(start uint32, data []byte) error
}

var _ Commander = (*command.Commands)(nil)

// Orchestrator reduces whole-image operations to a per-block decision
// tree of blank-check, erase, program, and verify commands.
type Orchestrator struct {
	cmds Commander
}

// New returns an Orchestrator issuing commands through cmds.
func New(cmds Commander) *Orchestrator {
	return &Orchestrator{cmds: cmds}
}

// Program writes img to the target one block at a time. A block whose
// host-side bytes are entirely 0xFF is skipped outright (no blank-check,
// no erase, no write): unwritten flash already reads as 0xFF, so writing
// it again only wears the device. Every other block is blank-checked and
// erased if dirty, then programmed. The first error aborts the loop.
func (o *Orchestrator) Program(ctx context.Context, img Image) error {
	for i := 0; i < img.NumBlocks(); i++ {
		if err := ctx.Err(); err != nil {
			return err
		}

		addr, data := img.Block(i)
		if allFF(data) {
			continue
		}

		blank, err := o.cmds.BlockBlankCheck(addr, addr+BlockSize-1)
		if err != nil {
			return err
		}
		if !blank {
			if err := o.cmds.BlockErase(addr); err != nil {
				return err
			}
		}
		if err := o.cmds.Programming(addr, data); err != nil {
			return err
		}
	}
	return nil
}

// Erase erases size bytes starting at addr, masked down to whole blocks.
// A block already reported blank by BlockBlankCheck is left alone.
func (o *Orchestrator) Erase(ctx context.Context, addr uint32, size int) error {
	n := alignDown(size) / BlockSize
	for i := 0; i < n; i++ {
		if err := ctx.Err(); err != nil {
			return err
		}

		blockAddr := addr + uint32(i*BlockSize)

		blank, err := o.cmds.BlockBlankCheck(blockAddr, blockAddr+BlockSize-1)
		if err != nil {
			return err
		}
		if blank {
			continue
		}
		if err := o.cmds.BlockErase(blockAddr); err != nil {
			return err
		}
	}
	return nil
}

// Verify compares img against the target one block at a time. A block
// whose host-side bytes are all 0xFF is checked via blank-check (it must
// read back blank); every other block is compared with a Verify command.
func (o *Orchestrator) Verify(ctx context.Context, img Image) error {
	for i := 0; i < img.NumBlocks(); i++ {
		if err := ctx.Err(); err != nil {
			return err
		}

		addr, data := img.Block(i)

		if allFF(data) {
			blank, err := o.cmds.BlockBlankCheck(addr, addr+BlockSize-1)
			if err != nil {
				return err
			}
			if !blank {
				return &MismatchError{Addr: addr}
			}
			continue
		}

		if err := o.cmds.Verify(addr, data); err != nil {
			return err
		}
	}
	return nil
}

// MismatchError reports a block whose target content does not match the
// expected host image, detected via blank-check rather than a Verify
// command rejection.
type MismatchError struct {
	Addr uint32
}

func (e *MismatchError) Error() string {
	return fmt.Sprintf("block content does not match expected image (addr=0x%06X)", e.Addr)
}
