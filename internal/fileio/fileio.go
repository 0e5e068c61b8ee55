// Package fileio implements file content read/write over a loaded disk
// layout: fixed-footprint (relocatable/absolute/direct/indexed/keyed)
// extents and chained sequential files.
//
// The sequential-file walk is a next-link loop bounded by block_count*4
// sectors, which also stops a cyclic chain; the same shape a CBM-style
// track/sector link chain walk takes,
// generalized to OASIS's single 16-bit next-LBA word and 1 KiB block
// granularity. The write side follows the matching allocate/write/rollback
// pattern: allocate, write, and on failure free what was already claimed.
package fileio

import (
	"github.com/oasis-go/oasisutil/internal/deb"
	"github.com/oasis-go/oasisutil/internal/geometry"
	"github.com/oasis-go/oasisutil/internal/layout"
	"github.com/oasis-go/oasisutil/internal/oasiserr"
	"github.com/oasis-go/oasisutil/internal/oasislog"
)

const sequentialPayloadPerSector = geometry.SectorSize - 2

// Read dispatches to the sequential or contiguous reader by the DEB's
// format type.
func Read(l *layout.Layout, d deb.DEB) ([]byte, error) {
	if d.Format.Type() == deb.FormatSequential {
		return ReadSequential(l, d)
	}
	return ReadContiguous(l, d)
}

// Write dispatches to the sequential or contiguous writer by the DEB's
// format type, mutating d's extent fields on success.
func Write(l *layout.Layout, d *deb.DEB, data []byte) error {
	if d.Format.Type() == deb.FormatSequential {
		return WriteSequential(l, d, data)
	}
	return WriteContiguous(l, d, data)
}

// ReadContiguous reads a fixed-footprint file's allocated extent and
// truncates it to the type-dependent logical size.
func ReadContiguous(l *layout.Layout, d deb.DEB) ([]byte, error) {
	if d.BlockCount == 0 {
		return nil, nil
	}

	allocatedSectors := int(d.BlockCount) * geometry.SectorsPerBlock
	buf := make([]byte, allocatedSectors*geometry.SectorSize)
	n, err := l.Backing.ReadSectors(int(d.StartSector), allocatedSectors, buf)
	if err != nil {
		return nil, err
	}
	if n != allocatedSectors {
		return nil, oasiserr.Newf(oasiserr.KindIO, "short read: got %d of %d sectors", n, allocatedSectors)
	}

	allocatedSize := allocatedSectors * geometry.SectorSize
	logicalSize := allocatedSize

	switch d.Format.Type() {
	case deb.FormatRelocatable:
		logicalSize = int(d.FileFormatDependent2)
	case deb.FormatDirect:
		logicalSize = int(d.RecordCount) * int(d.FileFormatDependent1)
	case deb.FormatIndexed, deb.FormatKeyed:
		if int(d.FileFormatDependent2) < allocatedSize {
			logicalSize = int(d.FileFormatDependent2)
		}
	}

	if logicalSize < 0 {
		logicalSize = 0
	}
	if logicalSize > allocatedSize {
		logicalSize = allocatedSize
	}

	return buf[:logicalSize], nil
}

// ReadSequential walks a sequential file's sector chain, concatenating
// each sector's 254-byte payload until the next-link word is 0.
func ReadSequential(l *layout.Layout, d deb.DEB) ([]byte, error) {
	if d.BlockCount == 0 {
		return nil, nil
	}

	maxSectors := int(d.BlockCount) * geometry.SectorsPerBlock
	lba := int(d.StartSector)
	sector := make([]byte, geometry.SectorSize)
	out := make([]byte, 0, maxSectors*sequentialPayloadPerSector)

	visited := 0
	for {
		if visited >= maxSectors {
			return nil, oasiserr.Newf(oasiserr.KindInconsistentState, "sequential chain exceeds block_count*4 (%d) sectors", maxSectors)
		}
		n, err := l.Backing.ReadSectors(lba, 1, sector)
		if err != nil {
			return nil, err
		}
		if n != 1 {
			return nil, oasiserr.Newf(oasiserr.KindIO, "short read at sector %d", lba)
		}

		out = append(out, sector[:sequentialPayloadPerSector]...)
		next := geometry.ReadLE16(sector[sequentialPayloadPerSector:])
		visited++

		if next == 0 {
			if lba != int(d.FileFormatDependent2) {
				return nil, oasiserr.Newf(oasiserr.KindInconsistentState, "chain ends at sector %d, expected FFD2 %d", lba, d.FileFormatDependent2)
			}
			break
		}
		lba = int(next)
	}

	if visited != int(d.RecordCount) {
		return nil, oasiserr.Newf(oasiserr.KindInconsistentState, "chain visited %d sectors, record_count says %d", visited, d.RecordCount)
	}

	return out, nil
}

// WriteContiguous allocates blocks_needed = ceil(len(data)/1024) blocks in
// one shot, writes the zero-padded extent, and rolls back the allocation
// on any write failure.
func WriteContiguous(l *layout.Layout, d *deb.DEB, data []byte) error {
	if len(data) == 0 {
		d.StartSector = 0
		d.BlockCount = 0
		d.RecordCount = 0
		return nil
	}

	blocksNeeded := (len(data) + geometry.BlockSize - 1) / geometry.BlockSize
	if blocksNeeded > 0xFFFF {
		return oasiserr.Newf(oasiserr.KindInvalidArgument, "%d blocks exceeds the 16-bit block_count field", blocksNeeded)
	}
	if blocksNeeded > geometry.MaxBlocks {
		return oasiserr.Newf(oasiserr.KindOutOfSpace, "%d blocks exceeds system max %d", blocksNeeded, geometry.MaxBlocks)
	}

	start, err := l.Bitmap.Allocate(blocksNeeded)
	if err != nil {
		return err
	}
	l.Header.FreeBlocks -= uint16(blocksNeeded)

	sectors := blocksNeeded * geometry.SectorsPerBlock
	buf := make([]byte, sectors*geometry.SectorSize)
	copy(buf, data)

	startSector := start * geometry.SectorsPerBlock
	n, writeErr := l.Backing.WriteSectors(startSector, sectors, buf)
	if writeErr != nil || n != sectors {
		_ = l.Bitmap.Deallocate(start, blocksNeeded)
		l.Header.FreeBlocks += uint16(blocksNeeded)
		if writeErr != nil {
			return writeErr
		}
		return oasiserr.Newf(oasiserr.KindIO, "short write: wrote %d of %d sectors", n, sectors)
	}

	d.StartSector = uint16(startSector)
	d.BlockCount = uint16(blocksNeeded)
	return nil
}

// WriteSequential grows a sequential file one block at a time, maintaining
// a rollback tracker of every block it allocates.
func WriteSequential(l *layout.Layout, d *deb.DEB, data []byte) error {
	if len(data) == 0 {
		d.StartSector = 0
		d.BlockCount = 0
		d.RecordCount = 0
		d.FileFormatDependent2 = 0
		return nil
	}

	var tracker []int
	rollback := func() {
		if len(tracker) > 0 {
			oasislog.Logger().WithField("blocks", len(tracker)).Warn("sequential write failed, rolling back allocated blocks")
		}
		for _, blk := range tracker {
			_ = l.Bitmap.Deallocate(blk, 1)
			l.Header.FreeBlocks++
		}
	}

	curBlock := -1
	sectorsUsedInBlock := 0
	firstLBA := -1
	prevLBA := -1
	recordCount := 0

	pos := 0
	for pos < len(data) {
		if curBlock == -1 || sectorsUsedInBlock == geometry.SectorsPerBlock {
			if len(tracker)+1 > geometry.MaxBlocks {
				rollback()
				return oasiserr.Newf(oasiserr.KindOutOfSpace, "sequential write would need more than %d 1 KiB blocks", geometry.MaxBlocks)
			}
			blk, err := l.Bitmap.Allocate(1)
			if err != nil {
				rollback()
				return err
			}
			tracker = append(tracker, blk)
			l.Header.FreeBlocks--
			curBlock = blk
			sectorsUsedInBlock = 0
		}

		lba := curBlock*geometry.SectorsPerBlock + sectorsUsedInBlock
		if firstLBA == -1 {
			firstLBA = lba
		}

		end := pos + sequentialPayloadPerSector
		if end > len(data) {
			end = len(data)
		}
		chunk := make([]byte, geometry.SectorSize)
		copy(chunk[:sequentialPayloadPerSector], data[pos:end])
		// link word left zero; patched once the next sector is known.

		if _, err := l.Backing.WriteSectors(lba, 1, chunk); err != nil {
			rollback()
			return err
		}

		if prevLBA != -1 {
			prevSector := make([]byte, geometry.SectorSize)
			if _, err := l.Backing.ReadSectors(prevLBA, 1, prevSector); err != nil {
				rollback()
				return err
			}
			geometry.WriteLE16(prevSector[sequentialPayloadPerSector:], uint16(lba))
			if _, err := l.Backing.WriteSectors(prevLBA, 1, prevSector); err != nil {
				rollback()
				return err
			}
		}

		recordCount++
		prevLBA = lba
		sectorsUsedInBlock++
		pos = end
	}

	d.StartSector = uint16(firstLBA)
	d.RecordCount = uint16(recordCount)
	d.FileFormatDependent2 = uint16(prevLBA)
	d.BlockCount = uint16(len(tracker))
	return nil
}
