package main

import (
	"fmt"
	"os"

	"github.com/marcinbor85/gohex"

	"github.com/devtty/rl78boot/flash"
)

// loadImage loads an Intel HEX or raw binary file into a flash.Image.
// Format is chosen by file extension: ".hex"/".ihx" parse as Intel HEX via
// gohex; anything else is read as a raw binary blob. A raw binary image
// starts at start; an Intel HEX image starts at the lowest address of its
// data records, and start is not used. Gaps between Intel HEX segments are padded with 0xFF so the
// result is the single contiguous buffer flash.Image requires.
func loadImage(path string, start uint32) (flash.Image, error) {
	switch ext(path) {
	case ".hex", ".ihx":
		return loadIntelHex(path, start)
	default:
		return loadRawBinary(path, start)
	}
}

// loadRawBinary reads path verbatim into an Image starting at start. This
// is the plain binary path; Intel HEX files go through loadIntelHex instead.
func loadRawBinary(path string, start uint32) (flash.Image, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return flash.Image{}, err
	}
	return flash.Image{Start: start, Data: data}, nil
}

func ext(path string) string {
	for i := len(path) - 1; i >= 0 && path[i] != '/'; i-- {
		if path[i] == '.' {
			return path[i:]
		}
	}
	return ""
}

func loadIntelHex(path string, start uint32) (flash.Image, error) {
	f, err := os.Open(path)
	if err != nil {
		return flash.Image{}, err
	}
	defer f.Close()

	mem := gohex.NewMemory()
	if err := mem.ParseIntelHex(f); err != nil {
		return flash.Image{}, fmt.Errorf("parse intel hex: %w", err)
	}

	segments := mem.GetDataSegments()
	if len(segments) == 0 {
		return flash.Image{}, fmt.Errorf("%s: no data records", path)
	}

	lo, hi := segments[0].Address, segments[0].Address+uint32(len(segments[0].Data))
	for _, seg := range segments[1:] {
		if seg.Address < lo {
			lo = seg.Address
		}
		end := seg.Address + uint32(len(seg.Data))
		if end > hi {
			hi = end
		}
	}
	if start == 0 {
		start = lo
	}

	buf := make([]byte, hi-lo)
	for i := range buf {
		buf[i] = 0xFF
	}
	for _, seg := range segments {
		copy(buf[seg.Address-lo:], seg.Data)
	}

	return flash.Image{Start: lo, Data: buf}, nil
}
