// Package fileops implements the compound directory operations that
// coordinate the DEB table, the allocation bitmap, and the header's
// free_blocks counter: erase, rename, and host-to-disk copy.
//
// Erase and rename pair allocation-bitmap bookkeeping with directory-slot
// rewriting, the same shape a CBM-style delete/rename operation takes;
// generalized here from a single-extent BAM walk to OASIS's
// sequential-chain-aware block collection.
package fileops

import (
	"strings"

	"github.com/oasis-go/oasisutil/internal/deb"
	"github.com/oasis-go/oasisutil/internal/fileio"
	"github.com/oasis-go/oasisutil/internal/geometry"
	"github.com/oasis-go/oasisutil/internal/layout"
	"github.com/oasis-go/oasisutil/internal/oasisascii"
	"github.com/oasis-go/oasisutil/internal/oasiserr"
)

// Erase deallocates the blocks backing the DEB at index i and marks the
// slot deleted, preserving every other field.
func Erase(l *layout.Layout, i int) error {
	d := l.Directory[i]
	if !d.Format.IsValid() {
		return oasiserr.New(oasiserr.KindNotFound, "slot does not hold a valid file")
	}

	if d.Format.Type() == deb.FormatSequential {
		blocks, err := sequentialChainBlocks(l, d)
		if err != nil {
			return err
		}
		for _, blk := range blocks {
			if err := l.Bitmap.Deallocate(blk, 1); err != nil {
				return err
			}
		}
	} else if d.BlockCount > 0 {
		firstBlock := int(d.StartSector) / geometry.SectorsPerBlock
		if err := l.Bitmap.Deallocate(firstBlock, int(d.BlockCount)); err != nil {
			return err
		}
	}

	l.Header.FreeBlocks += d.BlockCount

	d.Format = deb.FormatDeleted
	l.Directory[i] = d
	return nil
}

// sequentialChainBlocks walks a sequential file's sector chain and returns
// the unique set of 1 KiB blocks (lba/4) every visited sector belongs to.
func sequentialChainBlocks(l *layout.Layout, d deb.DEB) ([]int, error) {
	if d.BlockCount == 0 {
		return nil, nil
	}

	maxSectors := int(d.BlockCount) * geometry.SectorsPerBlock
	lba := int(d.StartSector)
	sector := make([]byte, geometry.SectorSize)

	seen := map[int]bool{}
	var blocks []int
	for i := 0; i < maxSectors; i++ {
		blk := lba / geometry.SectorsPerBlock
		if !seen[blk] {
			seen[blk] = true
			blocks = append(blocks, blk)
		}

		if _, err := l.Backing.ReadSectors(lba, 1, sector); err != nil {
			return nil, err
		}
		next := geometry.ReadLE16(sector[geometry.SectorSize-2:])
		if next == 0 {
			return blocks, nil
		}
		lba = int(next)
	}

	return nil, oasiserr.Newf(oasiserr.KindInconsistentState, "sequential chain exceeds block_count*4 (%d) sectors while erasing", maxSectors)
}

// Rename overwrites the file name and type at index i, leaving the
// timestamp and every other field untouched. Collision and pattern-match
// ambiguity checks are the caller's responsibility.
func Rename(l *layout.Layout, i int, newName, newType string) error {
	if len(newName) > 8 {
		return oasiserr.Newf(oasiserr.KindInvalidArgument, "name %q exceeds 8 characters", newName)
	}
	if len(newType) > 8 {
		return oasiserr.Newf(oasiserr.KindInvalidArgument, "type %q exceeds 8 characters", newType)
	}

	d := l.Directory[i]
	d.FileName = strings.ToUpper(newName)
	d.FileType = strings.ToUpper(newType)
	l.Directory[i] = d
	return nil
}

// HasCollision reports whether another valid DEB with the given owner and
// exact name+type already exists. Callers use this before Rename or Copy
// to decide whether to refuse the operation.
func HasCollision(l *layout.Layout, exceptIndex int, ownerID byte, name, typ string) bool {
	name, typ = strings.ToUpper(name), strings.ToUpper(typ)
	for i, d := range l.Directory {
		if i == exceptIndex || !d.Format.IsValid() {
			continue
		}
		if d.OwnerID == ownerID && d.FileName == name && d.FileType == typ {
			return true
		}
	}
	return false
}

// FindSlot returns the index of the first empty or deleted directory slot,
// or -1 if the directory is full.
func FindSlot(l *layout.Layout) int {
	for i, d := range l.Directory {
		if d.Format.IsEmpty() || d.Format.IsDeleted() {
			return i
		}
	}
	return -1
}

// FindByName returns the index of the valid DEB owned by ownerID with the
// given name/type, or -1 if none exists.
func FindByName(l *layout.Layout, ownerID byte, name, typ string) int {
	name, typ = strings.ToUpper(name), strings.ToUpper(typ)
	for i, d := range l.Directory {
		if d.Format.IsValid() && d.OwnerID == ownerID && d.FileName == name && d.FileType == typ {
			return i
		}
	}
	return -1
}

// CopyOptions configures a host-to-disk Copy.
type CopyOptions struct {
	TargetName      string // override; empty means derive from host path
	TargetType      string
	OwnerID         byte
	ASCIIConversion bool
}

// Copy writes host file bytes into the disk image under the target name,
// reusing an existing same-name slot if present.
func Copy(l *layout.Layout, hostBase, hostType string, data []byte, opts CopyOptions) error {
	name, typ := opts.TargetName, opts.TargetType
	if name == "" {
		name = hostBase
	}
	if typ == "" {
		typ = hostType
	}
	name, typ = strings.ToUpper(name), strings.ToUpper(typ)
	if len(name) > 8 || len(typ) > 8 {
		return oasiserr.New(oasiserr.KindInvalidArgument, "derived name/type exceeds 8 characters")
	}

	format := deb.FormatSequential
	ffd1 := uint16(0)
	if opts.ASCIIConversion && oasisascii.Is7Bit(data) {
		converted, longest := oasisascii.HostToOasis(data)
		data = converted
		if longest > 0xFFFF {
			longest = 256
		}
		ffd1 = uint16(longest)
	}

	slot := FindByName(l, opts.OwnerID, name, typ)
	if slot >= 0 {
		if err := Erase(l, slot); err != nil {
			return err
		}
		if err := l.Flush(); err != nil {
			return err
		}
	} else {
		slot = FindSlot(l)
		if slot < 0 {
			return oasiserr.New(oasiserr.KindOutOfSpace, "directory is full")
		}
	}

	blocksNeeded := (len(data) + geometry.BlockSize - 1) / geometry.BlockSize
	if uint16(blocksNeeded) > l.Header.FreeBlocks && blocksNeeded > 0 {
		return oasiserr.Newf(oasiserr.KindOutOfSpace, "need %d blocks, only %d free", blocksNeeded, l.Header.FreeBlocks)
	}

	d := deb.DEB{
		Format:               format,
		FileName:             name,
		FileType:             typ,
		OwnerID:              opts.OwnerID,
		FileFormatDependent1: ffd1,
	}
	if err := fileio.Write(l, &d, data); err != nil {
		return err
	}
	l.Directory[slot] = d

	return l.Flush()
}
