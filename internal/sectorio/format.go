package sectorio

import "github.com/oasis-go/oasisutil/internal/geometry"

// FormatParams describes the low-level geometry initdisk's FORMAT
// operation applies.
type FormatParams struct {
	Heads            int
	Cylinders        int
	SectorsPerTrack  int
	SectorIncrement  int
	TrackSkew        int
	FillByte         byte
}

// Formatter is implemented by backings that support a low-level track
// format. Raw images satisfy it by writing the fill pattern across the
// whole LBA range; IMD images rebuild their track table from the given
// geometry and interleave parameters.
type Formatter interface {
	FormatTracks(p FormatParams) error
}

func (r *rawBacking) FormatTracks(p FormatParams) error {
	total := p.Heads * p.Cylinders * p.SectorsPerTrack
	fill := make([]byte, geometry.SectorSize)
	for i := range fill {
		fill[i] = p.FillByte
	}

	for lba := 0; lba < total; lba++ {
		if _, err := r.WriteSectors(lba, 1, fill); err != nil {
			return err
		}
	}
	if total > r.total {
		r.total = total
	}
	return nil
}

// interleavedIDs assigns 1-based sector ids to n physical positions,
// starting at position `skew mod n` and stepping by `increment` between
// successive ids -- the classic sector-interleave placement.
func interleavedIDs(n, increment, skew int) []byte {
	if n == 0 {
		return nil
	}
	ids := make([]byte, n)
	used := make([]bool, n)
	if increment <= 0 {
		increment = 1
	}
	pos := ((skew % n) + n) % n
	for id := 1; id <= n; id++ {
		for used[pos] {
			pos = (pos + 1) % n
		}
		ids[pos] = byte(id)
		used[pos] = true
		pos = (pos + increment) % n
	}
	return ids
}

const imdFormatMode = 3 // 500kbps MFM, a common default for 256-byte-sector images

func (b *imdBacking) FormatTracks(p FormatParams) error {
	var tracks []*imdTrack
	for head := 0; head < p.Heads; head++ {
		for cyl := 0; cyl < p.Cylinders; cyl++ {
			skew := (p.TrackSkew * cyl) % p.SectorsPerTrack
			smap := interleavedIDs(p.SectorsPerTrack, p.SectorIncrement, skew)

			t := &imdTrack{
				mode:        imdFormatMode,
				cylinder:    byte(cyl),
				head:        byte(head),
				sectorSize:  geometry.SectorSize,
				smap:        smap,
				data:        make([][]byte, p.SectorsPerTrack),
				unavailable: make([]bool, p.SectorsPerTrack),
				dataError:   make([]bool, p.SectorsPerTrack),
			}
			for i := range t.data {
				d := make([]byte, geometry.SectorSize)
				for j := range d {
					d[j] = p.FillByte
				}
				t.data[i] = d
			}
			tracks = append(tracks, t)
		}
	}

	b.tracks = tracks
	b.total = p.Heads * p.Cylinders * p.SectorsPerTrack
	return b.flush()
}
