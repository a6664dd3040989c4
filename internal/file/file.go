// Package file decomposes byte-range read/write/resize requests on a
// regular file's FCB into whole-block operations against the block
// addressing layer, per spec.md §4.4.
package file

import (
	"github.com/StackCanary/os-filesystem/internal/blocks"
	"github.com/StackCanary/os-filesystem/internal/fcb"
)

const blockSize = blocks.BlockSize

// IO performs byte-range I/O and resizing against a single FCB's block
// chain.
type IO struct {
	addr *blocks.Addressing
}

// New builds an IO layer over addr.
func New(addr *blocks.Addressing) *IO {
	return &IO{addr: addr}
}

func ceilDivBlocks(n uint64) int {
	return int((n + blockSize - 1) / blockSize)
}

// ReadAt copies up to len(buf) bytes starting at off into buf, clipped
// to f.Size so callers never read past EOF. It returns the number of
// bytes copied.
func (io *IO) ReadAt(f *fcb.FCB, buf []byte, off int64) (int, error) {
	if off < 0 || uint64(off) >= f.Size {
		return 0, nil
	}

	remaining := f.Size - uint64(off)
	n := len(buf)
	if uint64(n) > remaining {
		n = int(remaining)
	}
	if n == 0 {
		return 0, nil
	}

	start := off
	bytesLeft := n
	written := 0
	blockIdx := int(start / blockSize)

	for bytesLeft > 0 {
		block, err := io.addr.ReadBlock(f, blockIdx)
		if err != nil {
			return 0, err
		}

		blockOff := int(start % blockSize)
		room := blockSize - blockOff
		chunk := bytesLeft
		if chunk > room {
			chunk = room
		}

		copy(buf[written:written+chunk], block[blockOff:blockOff+chunk])

		written += chunk
		bytesLeft -= chunk
		start = 0 // only the first touched block carries an intra-block offset
		blockIdx++
	}

	return n, nil
}

// WriteAt stores len(buf) bytes at off, growing the file first if the
// write extends past the current size. It returns the number of bytes
// written, which is always len(buf) on success.
func (io *IO) WriteAt(f *fcb.FCB, buf []byte, off int64) (int, error) {
	required := uint64(off) + uint64(len(buf))
	if required > f.Size {
		if err := io.Resize(f, required); err != nil {
			return 0, err
		}
	}

	start := off
	src := buf
	blockIdx := int(start / blockSize)

	for len(src) > 0 {
		block, err := io.addr.ReadBlock(f, blockIdx)
		if err != nil {
			return 0, err
		}

		blockOff := int(start % blockSize)
		room := blockSize - blockOff
		chunk := len(src)
		if chunk > room {
			chunk = room
		}

		copy(block[blockOff:blockOff+chunk], src[:chunk])
		if err := io.addr.WriteBlock(f, blockIdx, block); err != nil {
			return 0, err
		}

		src = src[chunk:]
		start = 0
		blockIdx++
	}

	return len(buf), nil
}

// Resize grows or shrinks f's block chain to match newSize, allocating
// or releasing whole blocks as needed, and updates f.Size.
func (io *IO) Resize(f *fcb.FCB, newSize uint64) error {
	required := ceilDivBlocks(newSize)
	current := ceilDivBlocks(f.Size)

	if required > current {
		for i := current; i < required; i++ {
			if err := io.addr.Extend(f, i); err != nil {
				return err
			}
		}
	} else if required < current {
		// Descending so an indirect table's slot 0 (which also frees
		// the table) is always cleared last within that table.
		for i := current - 1; i >= required; i-- {
			if err := io.addr.Shrink(f, i); err != nil {
				return err
			}
		}
	}

	f.Size = newSize
	return nil
}
