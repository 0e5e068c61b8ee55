// Package sectorio is the universal 256-byte logical sector substrate every
// higher layer (bitmap, directory, file I/O) reads and writes through. It
// hides the two container formats OASIS images show up in -- flat raw dumps
// and ImageDisk (.IMD) captures -- behind one handle.
//
// Each container format opens a flat byte slice and computes sector offsets
// by hand, the same shape disk-image packages commonly take; here that's
// factored into an explicit Backing interface so a second, structurally
// different container (IMD, track-based with an interleave-aware logical
// sector map) can implement the same contract alongside the flat raw one.
package sectorio

import (
	"path/filepath"
	"strings"

	"github.com/oasis-go/oasisutil/internal/geometry"
	"github.com/oasis-go/oasisutil/internal/oasiserr"
)

// Backing is the contract every sector container implements: read/write are
// always in units of one 256-byte logical sector, addressed by LBA.
type Backing interface {
	ReadSectors(lba, n int, buf []byte) (int, error)
	WriteSectors(lba, n int, buf []byte) (int, error)
	TotalSectors() int
	ReadOnly() bool
	Close() error
}

// Open selects a backing by the path's extension: ".imd" (case-insensitive)
// opens an ImageDisk container, anything else opens a raw flat image.
func Open(path string, readOnly bool) (Backing, error) {
	if strings.EqualFold(filepath.Ext(path), ".imd") {
		return openIMD(path, readOnly)
	}
	return openRaw(path, readOnly)
}

func checkLen(buf []byte, n int) error {
	need := n * geometry.SectorSize
	if len(buf) < need {
		return oasiserr.Newf(oasiserr.KindInvalidArgument, "buffer too small: need %d bytes for %d sectors, got %d", need, n, len(buf))
	}
	return nil
}
