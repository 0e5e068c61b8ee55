// Package header implements the 32-byte OASIS filesystem header block that
// occupies the start of sector 1.
//
// The field layout follows the same fixed-offset, read-once-at-open shape
// as a CBM BAM sector's disk-name/ID fields, adapted to OASIS's header
// record and its little-endian 16-bit fields.
package header

import (
	"github.com/oasis-go/oasisutil/internal/geometry"
	"github.com/oasis-go/oasisutil/internal/oasiserr"
)

const Size = 32

// FSFlags bit meanings.
const (
	FSFlagsAMSectorsMask byte = 0x07
	FSFlagsWriteProtect  byte = 0x80
)

// Header is the host-level decoding of the filesystem header block.
type Header struct {
	Label            string // <=8 chars, space-padded on encode
	Timestamp        geometry.Timestamp
	BackupVol        string // <=8 chars
	BackupTimestamp  geometry.Timestamp
	Flags            byte // undocumented semantics; preserved verbatim
	NumHeads         byte // upper nibble: head count; lower nibble: drive type code
	NumCylinders     byte
	NumSectors       byte // sectors per track
	DirSectorsMax    byte
	FreeBlocks       uint16
	FSFlags          byte
}

// AdditionalAMSectors returns the count of allocation-map sectors beyond
// the first (packed in fs_flags bits 2:0).
func (h Header) AdditionalAMSectors() int { return int(h.FSFlags & FSFlagsAMSectorsMask) }

// WriteProtected reports the software write-protect bit (fs_flags bit 7).
func (h Header) WriteProtected() bool { return h.FSFlags&FSFlagsWriteProtect != 0 }

// HeadCount returns the upper-nibble head count from num_heads.
func (h Header) HeadCount() int { return int(h.NumHeads >> 4) }

// DriveType returns the lower-nibble drive-type code from num_heads.
func (h Header) DriveType() int { return int(h.NumHeads & 0x0F) }

const (
	offLabel           = 0
	offTimestamp       = 8
	offBackupVol       = 11
	offBackupTimestamp = 19
	offFlags           = 22
	offNumHeads        = 23
	offNumCyl          = 24
	offNumSectors      = 25
	offDirSectorsMax   = 26
	offReserved        = 27
	offFreeBlocks      = 29
	offFSFlags         = 31
)

// Decode parses the first 32 bytes of sector 1 into a Header.
func Decode(raw []byte) (Header, error) {
	if len(raw) != Size {
		return Header{}, oasiserr.Newf(oasiserr.KindInvalidArgument, "header record must be %d bytes, got %d", Size, len(raw))
	}

	var h Header
	h.Label = trimPadded(raw[offLabel : offLabel+8])

	var ts [3]byte
	copy(ts[:], raw[offTimestamp:offTimestamp+3])
	h.Timestamp = geometry.UnpackTimestamp(ts)

	h.BackupVol = trimPadded(raw[offBackupVol : offBackupVol+8])

	var bts [3]byte
	copy(bts[:], raw[offBackupTimestamp:offBackupTimestamp+3])
	h.BackupTimestamp = geometry.UnpackTimestamp(bts)

	h.Flags = raw[offFlags]
	h.NumHeads = raw[offNumHeads]
	h.NumCylinders = raw[offNumCyl]
	h.NumSectors = raw[offNumSectors]
	h.DirSectorsMax = raw[offDirSectorsMax]
	h.FreeBlocks = geometry.ReadLE16(raw[offFreeBlocks : offFreeBlocks+2])
	h.FSFlags = raw[offFSFlags]

	return h, nil
}

// Encode serializes h into the first 32 bytes of sector 1. Bytes 27-28
// (reserved) are always written as zero.
func Encode(h Header) ([]byte, error) {
	raw := make([]byte, Size)

	if err := putPadded(raw[offLabel:offLabel+8], h.Label); err != nil {
		return nil, err
	}
	ts, err := geometry.PackTimestamp(h.Timestamp)
	if err != nil {
		return nil, err
	}
	copy(raw[offTimestamp:offTimestamp+3], ts[:])

	if err := putPadded(raw[offBackupVol:offBackupVol+8], h.BackupVol); err != nil {
		return nil, err
	}
	bts, err := geometry.PackTimestamp(h.BackupTimestamp)
	if err != nil {
		return nil, err
	}
	copy(raw[offBackupTimestamp:offBackupTimestamp+3], bts[:])

	raw[offFlags] = h.Flags
	raw[offNumHeads] = h.NumHeads
	raw[offNumCyl] = h.NumCylinders
	raw[offNumSectors] = h.NumSectors
	raw[offDirSectorsMax] = h.DirSectorsMax
	geometry.WriteLE16(raw[offFreeBlocks:offFreeBlocks+2], h.FreeBlocks)
	raw[offFSFlags] = h.FSFlags

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
