// Package initdisk implements the disk-image initialization operations:
// FORMAT, BUILD, CLEAR, LABEL, and WP/NOWP.
//
// BUILD constructs a fresh header, allocation bitmap, and empty directory
// straight from raw geometry parameters, the from-scratch counterpart to
// the allocate/free bookkeeping a disk-image writer normally only applies
// to an already-formatted image.
package initdisk

import (
	"time"

	"github.com/oasis-go/oasisutil/internal/bitmap"
	"github.com/oasis-go/oasisutil/internal/deb"
	"github.com/oasis-go/oasisutil/internal/geometry"
	"github.com/oasis-go/oasisutil/internal/header"
	"github.com/oasis-go/oasisutil/internal/layout"
	"github.com/oasis-go/oasisutil/internal/oasiserr"
	"github.com/oasis-go/oasisutil/internal/sectorio"
)

// FillByte is the low-level format pattern FORMAT writes to every sector.
const FillByte = 0xE5

// Params describes the geometry and metadata BUILD/FORMAT need to lay out
// a filesystem from scratch, and LABEL needs to update.
type Params struct {
	Heads             int
	TracksPerSurface  int
	SectorsPerTrack   int
	SectorIncrement   int
	TrackSkew         int
	DirEntries        int // requested directory entry count; rounded up to whole sectors
	Label             string
}

func computeGeometry(p Params) (totalBlocks, bitmapBytes, additionalAM, dirSectors int, err error) {
	totalSectors := p.Heads * p.TracksPerSurface * p.SectorsPerTrack
	totalBlocks = totalSectors / geometry.SectorsPerBlock
	if totalBlocks > geometry.MaxBlocks {
		return 0, 0, 0, 0, oasiserr.Newf(oasiserr.KindInvalidArgument, "%d blocks exceeds system max %d", totalBlocks, geometry.MaxBlocks)
	}

	bitmapBytes = (totalBlocks + 7) / 8
	additionalAM = (bitmapBytes - 224 + 255) / 256
	if additionalAM < 0 {
		additionalAM = 0
	}
	if additionalAM > 7 {
		return 0, 0, 0, 0, oasiserr.Newf(oasiserr.KindInvalidArgument, "bitmap needs %d additional AM sectors, max is 7", additionalAM)
	}

	dirSectors = (p.DirEntries + geometry.DEBsPerSector - 1) / geometry.DEBsPerSector

	return totalBlocks, bitmapBytes, additionalAM, dirSectors, nil
}

// systemReservedBlocks returns the count of 1 KiB blocks reserved for the
// boot sector, header, allocation bitmap, and directory -- these are
// always allocated, never handed out by the bitmap allocator.
func systemReservedBlocks(additionalAM, dirSectors int) int {
	dirBase := 2 + additionalAM
	lastSystemLBA := dirBase + dirSectors - 1
	if dirSectors == 0 {
		lastSystemLBA = 1 + additionalAM
	}
	return lastSystemLBA/geometry.SectorsPerBlock + 1
}

// Build initializes filesystem structures on backing without a low-level
// format.
func Build(backing sectorio.Backing, p Params) (*layout.Layout, error) {
	totalBlocks, _, additionalAM, dirSectors, err := computeGeometry(p)
	if err != nil {
		return nil, err
	}

	reserved := systemReservedBlocks(additionalAM, dirSectors)
	bitmapSize := (geometry.SectorSize - geometry.HeaderSize) + additionalAM*geometry.SectorSize
	bm := bitmap.New(make([]byte, bitmapSize), totalBlocks)
	for b := 0; b < reserved && b < totalBlocks; b++ {
		if err := bm.SetBit(b, true); err != nil {
			return nil, err
		}
	}

	directory := make([]deb.DEB, dirSectors*geometry.DEBsPerSector)
	for i := range directory {
		directory[i].Format = deb.FormatEmpty
	}

	hdr := header.Header{
		Label:         p.Label,
		NumHeads:      byte(p.Heads << 4),
		NumCylinders:  byte(p.TracksPerSurface),
		NumSectors:    byte(p.SectorsPerTrack),
		DirSectorsMax: byte(dirSectors),
		FreeBlocks:    uint16(totalBlocks - reserved),
		FSFlags:       byte(additionalAM),
	}

	dirBase := 2 + additionalAM
	l := layout.New(backing, hdr, bm, directory, dirBase, dirSectors, additionalAM)

	if _, err := backing.WriteSectors(0, 1, make([]byte, geometry.SectorSize)); err != nil {
		return nil, err
	}
	if err := l.Flush(); err != nil {
		return nil, err
	}

	return l, nil
}

// Format performs a low-level fill-pattern write across the whole image,
// then runs Build.
func Format(backing sectorio.Backing, p Params) (*layout.Layout, error) {
	if formatter, ok := backing.(sectorio.Formatter); ok {
		if err := formatter.FormatTracks(sectorio.FormatParams{
			Heads:           p.Heads,
			Cylinders:       p.TracksPerSurface,
			SectorsPerTrack: p.SectorsPerTrack,
			SectorIncrement: p.SectorIncrement,
			TrackSkew:       p.TrackSkew,
			FillByte:        FillByte,
		}); err != nil {
			return nil, err
		}
	} else {
		total := p.Heads * p.TracksPerSurface * p.SectorsPerTrack
		fill := make([]byte, geometry.SectorSize)
		for i := range fill {
			fill[i] = FillByte
		}
		for lba := 0; lba < total; lba++ {
			if _, err := backing.WriteSectors(lba, 1, fill); err != nil {
				return nil, err
			}
		}
	}

	return Build(backing, p)
}

// Clear reloads the existing layout, zeroes the bitmap, re-marks system
// blocks, recomputes free_blocks, and marks every DEB empty.
func Clear(backing sectorio.Backing) (*layout.Layout, error) {
	l, err := layout.Load(backing)
	if err != nil {
		return nil, err
	}

	totalBlocks := l.Bitmap.NumBlocks()
	geomBlocks := l.Header.HeadCount() * int(l.Header.NumCylinders) * int(l.Header.NumSectors) / geometry.SectorsPerBlock
	if geomBlocks > 0 && geomBlocks < totalBlocks {
		totalBlocks = geomBlocks
	}
	reserved := systemReservedBlocks(l.AdditionalAMSectors(), int(l.Header.DirSectorsMax))

	for b := 0; b < l.Bitmap.NumBlocks(); b++ {
		if err := l.Bitmap.SetBit(b, b < reserved); err != nil {
			return nil, err
		}
	}
	l.Header.FreeBlocks = uint16(totalBlocks - reserved)

	for i := range l.Directory {
		l.Directory[i] = deb.DEB{Format: deb.FormatEmpty}
	}

	if err := l.Flush(); err != nil {
		return nil, err
	}
	return l, nil
}

// Label rewrites the volume label and bumps the header timestamp to now.
func Label(backing sectorio.Backing, label string) (*layout.Layout, error) {
	l, err := layout.Load(backing)
	if err != nil {
		return nil, err
	}
	l.Header.Label = label
	l.Header.Timestamp = geometry.FromTime(time.Now())
	if err := l.Flush(); err != nil {
		return nil, err
	}
	return l, nil
}

// SetWriteProtect toggles the software write-protect bit in fs_flags.
func SetWriteProtect(backing sectorio.Backing, protect bool) (*layout.Layout, error) {
	l, err := layout.Load(backing)
	if err != nil {
		return nil, err
	}
	if protect {
		l.Header.FSFlags |= header.FSFlagsWriteProtect
	} else {
		l.Header.FSFlags &^= header.FSFlagsWriteProtect
	}
	if err := l.Flush(); err != nil {
		return nil, err
	}
	return l, nil
}
