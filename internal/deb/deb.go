// Package deb implements the Directory Entry Block codec: converting
// between the 32-byte on-disk record and a host-level typed representation,
// plus the canonical host filename encoding.
//
// The per-slot decode loop and fixed-offset field layout follow the usual
// shape of a CBM-style directory-slot parser, adapted from CBM DOS's fixed
// 2-byte-link + 30-byte-entry slot to OASIS's flat 32-byte DEB with no
// sector link embedded in the slot itself.
package deb

import (
	"github.com/oasis-go/oasisutil/internal/geometry"
	"github.com/oasis-go/oasisutil/internal/oasiserr"
)

// FileFormat is the DEB's file_format byte: bits 7:5 are attribute flags,
// bits 4:0 select one of the six known type variants, and two whole-byte
// values are reserved for slot state (Empty, Deleted).
type FileFormat byte

const (
	FormatEmpty       FileFormat = 0x00
	FormatRelocatable FileFormat = 0x01
	FormatAbsolute    FileFormat = 0x02
	FormatSequential  FileFormat = 0x04
	FormatDirect      FileFormat = 0x08
	FormatIndexed     FileFormat = 0x10
	FormatKeyed       FileFormat = 0x18
	FormatDeleted     FileFormat = 0xFF
)

const (
	AttrRead   byte = 0x80
	AttrWrite  byte = 0x40
	AttrDelete byte = 0x20
	attrMask   byte = AttrRead | AttrWrite | AttrDelete
	typeMask   byte = 0x1F
)

// Type returns the low-5-bit type selector, ignoring attribute bits.
func (f FileFormat) Type() FileFormat { return FileFormat(byte(f) & typeMask) }

// Attrs returns the raw attribute bits (R/W/D), unshifted.
func (f FileFormat) Attrs() byte { return byte(f) & attrMask }

func (f FileFormat) ReadProtected() bool   { return byte(f)&AttrRead != 0 }
func (f FileFormat) WriteProtected() bool  { return byte(f)&AttrWrite != 0 }
func (f FileFormat) DeleteProtected() bool { return byte(f)&AttrDelete != 0 }

// IsEmpty reports whether this is an unused, never-written slot.
func (f FileFormat) IsEmpty() bool { return f == FormatEmpty }

// IsDeleted reports whether this slot was erased.
func (f FileFormat) IsDeleted() bool { return f == FormatDeleted }

// IsValid reports whether f is neither Empty nor Deleted and its type
// selector is one of the six defined format variants.
func (f FileFormat) IsValid() bool {
	if f.IsEmpty() || f.IsDeleted() {
		return false
	}
	switch f.Type() {
	case FormatRelocatable, FormatAbsolute, FormatSequential, FormatDirect, FormatIndexed, FormatKeyed:
		return true
	default:
		return false
	}
}

// DEB is the host-level decoding of one 32-byte Directory Entry Block.
type DEB struct {
	Format                FileFormat
	FileName              string // trimmed, upper-case, <=8 chars
	FileType              string // trimmed, upper-case, <=8 chars
	FileFormatDependent1  uint16
	FileFormatDependent2  uint16
	RecordCount           uint16
	BlockCount            uint16
	StartSector           uint16
	Timestamp             geometry.Timestamp
	OwnerID               byte
	SharedFromOwnerID     byte
}

// On-disk byte offsets within the 32-byte record.
const (
	offFormat   = 0
	offName     = 1
	offType     = 9
	offFFD1     = 17
	offFFD2     = 19
	offRecCount = 21
	offBlkCount = 23
	offStartSec = 25
	offTime     = 27
	offOwner    = 30
	offShared   = 31
)

// Decode parses a 32-byte on-disk DEB record.
func Decode(raw []byte) (DEB, error) {
	if len(raw) != geometry.DEBSize {
		return DEB{}, oasiserr.Newf(oasiserr.KindInvalidArgument, "DEB record must be %d bytes, got %d", geometry.DEBSize, len(raw))
	}

	var d DEB
	d.Format = FileFormat(raw[offFormat])
	d.FileName = trimPadded(raw[offName : offName+8])
	d.FileType = trimPadded(raw[offType : offType+8])
	d.FileFormatDependent1 = geometry.ReadLE16(raw[offFFD1 : offFFD1+2])
	d.FileFormatDependent2 = geometry.ReadLE16(raw[offFFD2 : offFFD2+2])
	d.RecordCount = geometry.ReadLE16(raw[offRecCount : offRecCount+2])
	d.BlockCount = geometry.ReadLE16(raw[offBlkCount : offBlkCount+2])
	d.StartSector = geometry.ReadLE16(raw[offStartSec : offStartSec+2])

	var ts [3]byte
	copy(ts[:], raw[offTime:offTime+3])
	d.Timestamp = geometry.UnpackTimestamp(ts)

	d.OwnerID = raw[offOwner]
	d.SharedFromOwnerID = raw[offShared]

	return d, nil
}

// Encode serializes d into a 32-byte on-disk record.
func Encode(d DEB) ([]byte, error) {
	raw := make([]byte, geometry.DEBSize)

	raw[offFormat] = byte(d.Format)
	if err := putPadded(raw[offName:offName+8], d.FileName); err != nil {
		return nil, err
	}
	if err := putPadded(raw[offType:offType+8], d.FileType); err != nil {
		return nil, err
	}
	geometry.WriteLE16(raw[offFFD1:offFFD1+2], d.FileFormatDependent1)
	geometry.WriteLE16(raw[offFFD2:offFFD2+2], d.FileFormatDependent2)
	geometry.WriteLE16(raw[offRecCount:offRecCount+2], d.RecordCount)
	geometry.WriteLE16(raw[offBlkCount:offBlkCount+2], d.BlockCount)
	geometry.WriteLE16(raw[offStartSec:offStartSec+2], d.StartSector)

	ts, err := geometry.PackTimestamp(d.Timestamp)
	if err != nil {
		return nil, err
	}
	copy(raw[offTime:offTime+3], ts[:])

	raw[offOwner] = d.OwnerID
	raw[offShared] = d.SharedFromOwnerID

	return raw, nil
}

func trimPadded(b []byte) string {
	end := len(b)
	for end > 0 && b[end-1] == ' ' {
		end--
	}
	start := 0
	for start < end && b[start] == ' ' {
		start++
	}
	return string(b[start:end])
}

func putPadded(dst []byte, s string) error {
	if len(s) > len(dst) {
		return oasiserr.Newf(oasiserr.KindInvalidArgument, "field %q exceeds %d characters", s, len(dst))
	}
	for i := range dst {
		dst[i] = ' '
	}
	copy(dst, []byte(s))
	return nil
}
