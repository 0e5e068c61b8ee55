package sectorio

import (
	"bytes"
	"os"

	"github.com/oasis-go/oasisutil/internal/geometry"
	"github.com/oasis-go/oasisutil/internal/oasiserr"
	"github.com/oasis-go/oasisutil/internal/oasislog"
)

// Sector data record types, from the ImageDisk on-disk format.
const (
	imdSectorUnavailable            = 0
	imdSectorNormal                 = 1
	imdSectorCompressed             = 2
	imdSectorDeleted                = 3
	imdSectorCompressedDeleted      = 4
	imdSectorNormalError            = 5
	imdSectorCompressedError        = 6
	imdSectorDeletedError           = 7
	imdSectorCompressedDeletedError = 8
)

// imdTrack is one physical track: a fixed sector size, a sector numbering
// map (preserving interleave), and per-physical-sector data/flags.
type imdTrack struct {
	mode        byte
	cylinder    byte
	head        byte
	sectorSize  int // 128 or 256
	smap        []byte
	data        [][]byte // sectorSize bytes each, decompressed
	unavailable []bool
	dataError   []bool
}

func (t *imdTrack) logicalSectors() int {
	if t.sectorSize == 256 {
		return len(t.smap)
	}
	return len(t.smap) / 2
}

// findByID returns the physical index whose declared sector id is id, or -1.
func (t *imdTrack) findByID(id byte) int {
	for i, v := range t.smap {
		if v == id {
			return i
		}
	}
	return -1
}

type imdBacking struct {
	path     string
	readOnly bool
	comment  []byte
	tracks   []*imdTrack
	total    int
}

func openIMD(path string, readOnly bool) (*imdBacking, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, oasiserr.Wrapf(oasiserr.KindIO, err, "open %q", path)
	}

	sep := bytes.IndexByte(raw, 0x1A)
	if sep < 0 {
		return nil, oasiserr.New(oasiserr.KindInvalidImage, "IMD header is missing its 0x1A terminator")
	}
	comment := append([]byte(nil), raw[:sep]...)
	body := raw[sep+1:]

	tracks, err := parseIMDTracks(body)
	if err != nil {
		return nil, err
	}

	total := 0
	sawLargeSector := false
	for _, t := range tracks {
		if t.sectorSize == 128 && sawLargeSector {
			return nil, oasiserr.New(oasiserr.KindInvalidImage, "128-byte sectors follow a 256-byte track")
		}
		if t.sectorSize == 256 {
			sawLargeSector = true
		}
		total += t.logicalSectors()
	}

	return &imdBacking{path: path, readOnly: readOnly, comment: comment, tracks: tracks, total: total}, nil
}

func parseIMDTracks(body []byte) ([]*imdTrack, error) {
	var tracks []*imdTrack
	pos := 0

	for pos < len(body) {
		if pos+5 > len(body) {
			return nil, oasiserr.New(oasiserr.KindInvalidImage, "truncated track header")
		}
		mode := body[pos]
		cyl := body[pos+1]
		headByte := body[pos+2]
		numSectors := int(body[pos+3])
		sizeCode := body[pos+4]
		pos += 5

		sectorSize, err := decodeIMDSizeCode(sizeCode)
		if err != nil {
			return nil, err
		}
		if sectorSize != 128 && sectorSize != 256 {
			return nil, oasiserr.Newf(oasiserr.KindInvalidImage, "unsupported sector size %d", sectorSize)
		}

		if pos+numSectors > len(body) {
			return nil, oasiserr.New(oasiserr.KindInvalidImage, "truncated sector numbering map")
		}
		smap := append([]byte(nil), body[pos:pos+numSectors]...)
		pos += numSectors

		if headByte&0x80 != 0 { // cylinder map present
			pos += numSectors
		}
		if headByte&0x40 != 0 { // head map present
			pos += numSectors
		}
		if pos > len(body) {
			return nil, oasiserr.New(oasiserr.KindInvalidImage, "truncated optional sector map")
		}

		if sectorSize == 128 && numSectors%2 != 0 {
			return nil, oasiserr.New(oasiserr.KindInvalidImage, "track has an odd count of 128-byte sectors")
		}

		t := &imdTrack{
			mode:        mode,
			cylinder:    cyl,
			head:        headByte & 0x3F,
			sectorSize:  sectorSize,
			smap:        smap,
			data:        make([][]byte, numSectors),
			unavailable: make([]bool, numSectors),
			dataError:   make([]bool, numSectors),
		}

		for i := 0; i < numSectors; i++ {
			if pos >= len(body) {
				return nil, oasiserr.New(oasiserr.KindInvalidImage, "truncated sector data record")
			}
			recType := body[pos]
			pos++

			switch recType {
			case imdSectorUnavailable:
				t.unavailable[i] = true
				t.data[i] = make([]byte, sectorSize)

			case imdSectorCompressed, imdSectorCompressedDeleted, imdSectorCompressedError, imdSectorCompressedDeletedError:
				if pos >= len(body) {
					return nil, oasiserr.New(oasiserr.KindInvalidImage, "truncated compressed sector fill byte")
				}
				fill := body[pos]
				pos++
				d := make([]byte, sectorSize)
				for j := range d {
					d[j] = fill
				}
				t.data[i] = d
				t.dataError[i] = recType == imdSectorCompressedError || recType == imdSectorCompressedDeletedError

			case imdSectorNormal, imdSectorDeleted, imdSectorNormalError, imdSectorDeletedError:
				if pos+sectorSize > len(body) {
					return nil, oasiserr.New(oasiserr.KindInvalidImage, "truncated sector data")
				}
				t.data[i] = append([]byte(nil), body[pos:pos+sectorSize]...)
				pos += sectorSize
				t.dataError[i] = recType == imdSectorNormalError || recType == imdSectorDeletedError

			default:
				return nil, oasiserr.Newf(oasiserr.KindInvalidImage, "unknown sector data record type %d", recType)
			}
		}

		tracks = append(tracks, t)
	}

	return tracks, nil
}

func decodeIMDSizeCode(code byte) (int, error) {
	switch code {
	case 0:
		return 128, nil
	case 1:
		return 256, nil
	case 2:
		return 512, nil
	case 3:
		return 1024, nil
	case 4:
		return 2048, nil
	case 5:
		return 4096, nil
	case 6:
		return 8192, nil
	default:
		return 0, oasiserr.Newf(oasiserr.KindInvalidImage, "invalid sector size code %d", code)
	}
}

func (b *imdBacking) TotalSectors() int { return b.total }
func (b *imdBacking) ReadOnly() bool    { return b.readOnly }

// locate finds the track containing logical LBA and the logical index of
// the sector within that track.
func (b *imdBacking) locate(lba int) (*imdTrack, int, bool) {
	for _, t := range b.tracks {
		n := t.logicalSectors()
		if lba < n {
			return t, lba, true
		}
		lba -= n
	}
	return nil, 0, false
}

// readLogical returns the 256-byte logical sector at track-local index n,
// zero-filled if the underlying physical sector(s) are flagged unavailable
// or erroring.
func readLogical(t *imdTrack, n int) []byte {
	out := make([]byte, geometry.SectorSize)

	if t.sectorSize == 256 {
		idx := t.findByID(byte(n + 1))
		if idx < 0 || t.unavailable[idx] || t.dataError[idx] {
			if idx >= 0 {
				oasislog.Logger().WithField("track_sector", n).Warn("IMD sector unavailable or flagged erroring, returning zero-filled data")
			}
			return out
		}
		copy(out, t.data[idx])
		return out
	}

	firstIdx := t.findByID(byte(2*n + 1))
	secondIdx := t.findByID(byte(2*n + 2))
	if firstIdx >= 0 && !t.unavailable[firstIdx] && !t.dataError[firstIdx] {
		copy(out[:128], t.data[firstIdx])
	} else if firstIdx >= 0 {
		oasislog.Logger().WithField("track_sector", n).Warn("IMD half-sector unavailable or flagged erroring, returning zero-filled data")
	}
	if secondIdx >= 0 && !t.unavailable[secondIdx] && !t.dataError[secondIdx] {
		copy(out[128:], t.data[secondIdx])
	} else if secondIdx >= 0 {
		oasislog.Logger().WithField("track_sector", n).Warn("IMD half-sector unavailable or flagged erroring, returning zero-filled data")
	}
	return out
}

func writeLogical(t *imdTrack, n int, logical []byte) {
	if t.sectorSize == 256 {
		idx := t.findByID(byte(n + 1))
		if idx < 0 {
			return
		}
		t.data[idx] = append([]byte(nil), logical...)
		t.unavailable[idx] = false
		t.dataError[idx] = false
		return
	}

	firstIdx := t.findByID(byte(2*n + 1))
	secondIdx := t.findByID(byte(2*n + 2))
	if firstIdx >= 0 {
		t.data[firstIdx] = append([]byte(nil), logical[:128]...)
		t.unavailable[firstIdx] = false
		t.dataError[firstIdx] = false
	}
	if secondIdx >= 0 {
		t.data[secondIdx] = append([]byte(nil), logical[128:]...)
		t.unavailable[secondIdx] = false
		t.dataError[secondIdx] = false
	}
}

func (b *imdBacking) ReadSectors(lba, n int, buf []byte) (int, error) {
	if err := checkLen(buf, n); err != nil {
		return 0, err
	}
	read := 0
	for i := 0; i < n; i++ {
		t, local, ok := b.locate(lba + i)
		if !ok {
			break
		}
		copy(buf[read*geometry.SectorSize:], readLogical(t, local))
		read++
	}
	return read, nil
}

func (b *imdBacking) WriteSectors(lba, n int, buf []byte) (int, error) {
	if b.readOnly {
		return 0, oasiserr.New(oasiserr.KindReadOnly, "image opened read-only")
	}
	if err := checkLen(buf, n); err != nil {
		return 0, err
	}
	written := 0
	for i := 0; i < n; i++ {
		t, local, ok := b.locate(lba + i)
		if !ok {
			break
		}
		writeLogical(t, local, buf[written*geometry.SectorSize:(written+1)*geometry.SectorSize])
		written++
	}
	if written > 0 {
		if err := b.flush(); err != nil {
			return written, err
		}
	}
	return written, nil
}

// flush re-serializes the whole image. IMD's variable-length compressed
// encoding can't be patched in place, so every write rewrites the file
// (mirroring the raw backing's "flush after every write" rule at the image
// level instead of the byte-offset level).
func (b *imdBacking) flush() error {
	var out bytes.Buffer
	out.Write(b.comment)
	out.WriteByte(0x1A)

	for _, t := range b.tracks {
		head := t.head
		out.WriteByte(t.mode)
		out.WriteByte(t.cylinder)
		out.WriteByte(head)
		out.WriteByte(byte(len(t.smap)))
		sizeCode := byte(0)
		if t.sectorSize == 256 {
			sizeCode = 1
		}
		out.WriteByte(sizeCode)
		out.Write(t.smap)

		for i := range t.data {
			switch {
			case t.unavailable[i]:
				out.WriteByte(imdSectorUnavailable)
			case t.dataError[i]:
				out.WriteByte(imdSectorNormalError)
				out.Write(t.data[i])
			default:
				out.WriteByte(imdSectorNormal)
				out.Write(t.data[i])
			}
		}
	}

	if err := os.WriteFile(b.path, out.Bytes(), 0o644); err != nil {
		return oasiserr.Wrapf(oasiserr.KindIO, err, "write IMD image %q", b.path)
	}
	return nil
}

func (b *imdBacking) Close() error { return nil }
