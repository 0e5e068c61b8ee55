// Package layout owns the in-memory disk image: the header, the
// allocation bitmap, and the directory, loaded once per session and
// flushed back in full on every mutation.
//
// The whole-image-parsed-and-cached-at-open shape follows a typical
// CBM-style disk image model (BAM plus directory loaded in full at open),
// generalized to OASIS's variable-length allocation-map region and flat
// DEB table.
package layout

import (
	"github.com/oasis-go/oasisutil/internal/bitmap"
	"github.com/oasis-go/oasisutil/internal/deb"
	"github.com/oasis-go/oasisutil/internal/geometry"
	"github.com/oasis-go/oasisutil/internal/header"
	"github.com/oasis-go/oasisutil/internal/oasiserr"
	"github.com/oasis-go/oasisutil/internal/oasislog"
	"github.com/oasis-go/oasisutil/internal/sectorio"
)

// firstBitmapChunkSize is the portion of sector 1 left over after the
// 32-byte header: 256 - 32.
const firstBitmapChunkSize = geometry.SectorSize - geometry.HeaderSize

// Layout is one open disk image's mutable filesystem state.
type Layout struct {
	Backing   sectorio.Backing
	Header    header.Header
	Bitmap    *bitmap.Bitmap
	Directory []deb.DEB

	dirBase       int // LBA where the directory begins
	dirSectors    int
	additionalAM  int
}

// New assembles a Layout from already-computed parts, for callers (such as
// initdisk) that build filesystem state from scratch rather than loading
// it off an existing image.
func New(backing sectorio.Backing, hdr header.Header, bm *bitmap.Bitmap, directory []deb.DEB, dirBase, dirSectors, additionalAM int) *Layout {
	return &Layout{
		Backing:      backing,
		Header:       hdr,
		Bitmap:       bm,
		Directory:    directory,
		dirBase:      dirBase,
		dirSectors:   dirSectors,
		additionalAM: additionalAM,
	}
}

// Load reads sector 0 (opaque boot), decodes the header and allocation
// bitmap from sector 1 (and the additional AM sectors it declares), and
// decodes the directory.
func Load(backing sectorio.Backing) (*Layout, error) {
	boot := make([]byte, geometry.SectorSize)
	if _, err := backing.ReadSectors(0, 1, boot); err != nil {
		return nil, err
	}

	sec1 := make([]byte, geometry.SectorSize)
	if _, err := backing.ReadSectors(1, 1, sec1); err != nil {
		return nil, err
	}

	hdr, err := header.Decode(sec1[:geometry.HeaderSize])
	if err != nil {
		return nil, err
	}

	additionalAM := hdr.AdditionalAMSectors()
	bitmapSize := firstBitmapChunkSize + additionalAM*geometry.SectorSize
	if bitmapSize > geometry.MaxAllocationMapBytes {
		return nil, oasiserr.Newf(oasiserr.KindInvalidImage, "allocation bitmap of %d bytes exceeds max %d", bitmapSize, geometry.MaxAllocationMapBytes)
	}

	bitmapBuf := make([]byte, bitmapSize)
	copy(bitmapBuf[:firstBitmapChunkSize], sec1[geometry.HeaderSize:])
	if additionalAM > 0 {
		extra := make([]byte, additionalAM*geometry.SectorSize)
		if _, err := backing.ReadSectors(2, additionalAM, extra); err != nil {
			return nil, err
		}
		copy(bitmapBuf[firstBitmapChunkSize:], extra)
	}

	numBlocks := bitmapSize * 8
	if numBlocks > geometry.MaxBlocks {
		numBlocks = geometry.MaxBlocks
	}
	bm := bitmap.New(bitmapBuf, numBlocks)

	dirBase := 2 + additionalAM
	dirSectors := int(hdr.DirSectorsMax)
	dirBuf := make([]byte, dirSectors*geometry.SectorSize)
	if dirSectors > 0 {
		if _, err := backing.ReadSectors(dirBase, dirSectors, dirBuf); err != nil {
			return nil, err
		}
	}

	numDEBs := dirSectors * geometry.DEBsPerSector
	directory := make([]deb.DEB, numDEBs)
	for i := 0; i < numDEBs; i++ {
		rec := dirBuf[i*geometry.DEBSize : (i+1)*geometry.DEBSize]
		d, err := deb.Decode(rec)
		if err != nil {
			return nil, err
		}
		if !d.Format.IsEmpty() && !d.Format.IsDeleted() && !d.Format.IsValid() {
			oasislog.Logger().WithField("slot", i).Warnf("directory entry has unrecognized format byte 0x%02X, keeping as-is", byte(d.Format))
		}
		directory[i] = d
	}

	_ = boot // opaque; not interpreted, not part of the write-back set

	return &Layout{
		Backing:      backing,
		Header:       hdr,
		Bitmap:       bm,
		Directory:    directory,
		dirBase:      dirBase,
		dirSectors:   dirSectors,
		additionalAM: additionalAM,
	}, nil
}

// Flush writes the directory, then the header + first bitmap chunk, then
// the additional bitmap sectors, in that order.
func (l *Layout) Flush() error {
	if l.dirSectors > 0 {
		dirBuf := make([]byte, l.dirSectors*geometry.SectorSize)
		for i, d := range l.Directory {
			rec, err := deb.Encode(d)
			if err != nil {
				return err
			}
			copy(dirBuf[i*geometry.DEBSize:], rec)
		}
		if _, err := l.Backing.WriteSectors(l.dirBase, l.dirSectors, dirBuf); err != nil {
			return err
		}
	}

	sec1 := make([]byte, geometry.SectorSize)
	hdrBytes, err := header.Encode(l.Header)
	if err != nil {
		return err
	}
	copy(sec1[:geometry.HeaderSize], hdrBytes)
	copy(sec1[geometry.HeaderSize:], l.Bitmap.Bytes()[:firstBitmapChunkSize])
	if _, err := l.Backing.WriteSectors(1, 1, sec1); err != nil {
		return err
	}

	if l.additionalAM > 0 {
		if _, err := l.Backing.WriteSectors(2, l.additionalAM, l.Bitmap.Bytes()[firstBitmapChunkSize:]); err != nil {
			return err
		}
	}

	return nil
}

// DirBase returns the LBA of the first directory sector.
func (l *Layout) DirBase() int { return l.dirBase }

// AdditionalAMSectors returns how many allocation-map sectors follow
// sector 1.
func (l *Layout) AdditionalAMSectors() int { return l.additionalAM }
