// Package bitmap implements the OASIS allocation bitmap: a best-fit,
// earliest-on-tie allocator over a bit array where bit 1 means "allocated".
//
// The block-allocation bookkeeping follows the same free/mark/unmark shape
// as a CBM-style BAM (bamIsFree/bamMarkUsed/bamMarkFree), generalized from a
// per-track byte-oriented layout to OASIS's flat MSB-first bit array, and
// extended with a best-fit scan a first-fit BAM allocator wouldn't need.
package bitmap

import "github.com/oasis-go/oasisutil/internal/oasiserr"

// Bitmap wraps a byte slice as a block allocation map.
type Bitmap struct {
	bytes    []byte
	numBlocks int
}

// New wraps buf as a bitmap covering numBlocks blocks. buf is used directly,
// not copied, so mutations are visible to the caller -- the layout owns
// this buffer for the life of the session.
func New(buf []byte, numBlocks int) *Bitmap {
	return &Bitmap{bytes: buf, numBlocks: numBlocks}
}

// NumBlocks returns the number of blocks this bitmap covers.
func (m *Bitmap) NumBlocks() int { return m.numBlocks }

func bitMask(block int) byte { return 1 << uint(7-(block%8)) }

// GetBit reports whether block is allocated (true) or free (false).
func (m *Bitmap) GetBit(block int) bool {
	byteIdx := block / 8
	return m.bytes[byteIdx]&bitMask(block) != 0
}

// SetBit sets block's allocation state directly, bypassing the allocator's
// bookkeeping. Used by the loader and by initdisk to mark system blocks.
func (m *Bitmap) SetBit(block int, allocated bool) error {
	if block < 0 || block >= m.numBlocks {
		return oasiserr.Newf(oasiserr.KindInvalidArgument, "block %d out of range [0,%d)", block, m.numBlocks)
	}
	byteIdx := block / 8
	if allocated {
		m.bytes[byteIdx] |= bitMask(block)
	} else {
		m.bytes[byteIdx] &^= bitMask(block)
	}
	return nil
}

// Allocate finds the best-fit run of n consecutive free blocks (the smallest
// sufficient run, earliest start on a tie), marks it allocated, and returns
// its first block index.
func (m *Bitmap) Allocate(n int) (int, error) {
	if n <= 0 {
		return 0, oasiserr.Newf(oasiserr.KindInvalidArgument, "allocate requires n > 0, got %d", n)
	}

	bestStart := -1
	bestLen := -1

	runStart := -1
	runLen := 0

	consider := func(start, length int) {
		if length < n {
			return
		}
		if bestLen == -1 || length < bestLen || (length == bestLen && start < bestStart) {
			bestStart = start
			bestLen = length
		}
	}

	for b := 0; b < m.numBlocks; b++ {
		if m.GetBit(b) {
			if runLen > 0 {
				consider(runStart, runLen)
			}
			runLen = 0
			runStart = -1
			continue
		}
		if runLen == 0 {
			runStart = b
		}
		runLen++
	}
	if runLen > 0 {
		consider(runStart, runLen)
	}

	if bestStart == -1 {
		return 0, oasiserr.Newf(oasiserr.KindOutOfSpace, "no free run of %d blocks", n)
	}

	for b := bestStart; b < bestStart+n; b++ {
		_ = m.SetBit(b, true)
	}

	return bestStart, nil
}

// Deallocate clears n bits starting at first. It is a two-pass operation: the
// first pass verifies every targeted bit is currently allocated (failing
// without mutating anything if not, modeling OASIS's "SC 28" release error);
// the second pass clears them.
func (m *Bitmap) Deallocate(first, n int) error {
	if n <= 0 {
		return oasiserr.Newf(oasiserr.KindInvalidArgument, "deallocate requires n > 0, got %d", n)
	}
	if first < 0 || first+n > m.numBlocks {
		return oasiserr.Newf(oasiserr.KindInvalidArgument, "range [%d,%d) out of bounds [0,%d)", first, first+n, m.numBlocks)
	}

	for b := first; b < first+n; b++ {
		if !m.GetBit(b) {
			return oasiserr.Newf(oasiserr.KindInconsistentState, "block %d is already free", b)
		}
	}

	for b := first; b < first+n; b++ {
		_ = m.SetBit(b, false)
	}

	return nil
}

// CountFree returns the number of free (0) bits over the in-range portion of
// the bitmap.
func (m *Bitmap) CountFree() int {
	free := 0
	for b := 0; b < m.numBlocks; b++ {
		if !m.GetBit(b) {
			free++
		}
	}
	return free
}

// LargestFreeRun returns the length, in blocks, of the longest contiguous
// run of free blocks.
func (m *Bitmap) LargestFreeRun() int {
	longest := 0
	run := 0
	for b := 0; b < m.numBlocks; b++ {
		if m.GetBit(b) {
			if run > longest {
				longest = run
			}
			run = 0
			continue
		}
		run++
	}
	if run > longest {
		longest = run
	}
	return longest
}

// Bytes returns the underlying buffer (for flushing to disk).
func (m *Bitmap) Bytes() []byte { return m.bytes }
