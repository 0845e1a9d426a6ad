// Package flash implements the block-level flash orchestrator: reducing a
// memory image to a minimal, idempotent sequence of blank-check, erase,
// program, and verify commands.
package flash

import "github.com/devtty/rl78boot/protocol"

// BlockSize is the fixed erase/program granularity of the target flash.
const BlockSize = protocol.FlashBlockSize

// Image is a contiguous in-memory buffer paired with its target start
// address. Loading the buffer from a file format (Intel HEX, raw binary,
// or otherwise) is a concern of the caller, not of this package.
type Image struct {
	Start uint32
	Data  []byte
}

// AlignedSize returns the number of whole blocks covered by the image,
// measured in bytes (i.e. len(Data) masked down to a multiple of
// BlockSize). Any trailing partial block is not covered.
func (img Image) AlignedSize() int {
	return alignDown(len(img.Data))
}

func alignDown(n int) int {
	return n &^ (BlockSize - 1)
}

// Block returns the i'th block's bytes and start address, given a
// starting address that must itself be block-aligned.
func (img Image) Block(i int) (addr uint32, data []byte) {
	off := i * BlockSize
	return img.Start + uint32(off), img.Data[off : off+BlockSize]
}

// NumBlocks returns the count of whole blocks in the image.
func (img Image) NumBlocks() int {
	return img.AlignedSize() / BlockSize
}

// allFF reports whether every byte of b is 0xFF.
func allFF(b []byte) bool {
	for _, v := range b {
		if v != 0xFF {
			return false
		}
	}
	return true
}

// Checksum16 returns the host-side whole-image checksum over all of
// img.Data, including any trailing partial block (see protocol.Checksum16).
func (img Image) Checksum16() uint16 {
	return protocol.Checksum16(img.Data)
}
