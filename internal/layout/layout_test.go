package layout

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/oasis-go/oasisutil/internal/deb"
	"github.com/oasis-go/oasisutil/internal/geometry"
	"github.com/oasis-go/oasisutil/internal/header"
	"github.com/oasis-go/oasisutil/internal/sectorio"
	"github.com/stretchr/testify/require"
)

func newBlankImage(t *testing.T, totalSectors int) sectorio.Backing {
	t.Helper()
	path := filepath.Join(t.TempDir(), "image.dsk")
	require.NoError(t, os.WriteFile(path, make([]byte, totalSectors*geometry.SectorSize), 0o644))
	b, err := sectorio.Open(path, false)
	require.NoError(t, err)
	return b
}

func TestLayoutLoadFlushRoundTrip(t *testing.T) {
	const dirSectors = 2
	backing := newBlankImage(t, 2+dirSectors+4)

	hdr := header.Header{
		Label:         "TESTVOL",
		DirSectorsMax: dirSectors,
		FreeBlocks:    100,
		FSFlags:       0,
	}
	hdrBytes, err := header.Encode(hdr)
	require.NoError(t, err)

	sec1 := make([]byte, geometry.SectorSize)
	copy(sec1, hdrBytes)
	_, err = backing.WriteSectors(1, 1, sec1)
	require.NoError(t, err)

	l, err := Load(backing)
	require.NoError(t, err)
	require.Equal(t, "TESTVOL", l.Header.Label)
	require.Equal(t, dirSectors*geometry.DEBsPerSector, len(l.Directory))
	require.Equal(t, 2, l.DirBase())

	require.NoError(t, l.Bitmap.SetBit(0, true))
	l.Directory[0].Format = deb.FormatSequential
	l.Directory[0].FileName = "HELLO"
	l.Directory[0].FileType = "TXT"
	l.Header.FreeBlocks = 99

	require.NoError(t, l.Flush())

	reloaded, err := Load(backing)
	require.NoError(t, err)
	require.Equal(t, uint16(99), reloaded.Header.FreeBlocks)
	require.True(t, reloaded.Bitmap.GetBit(0))
	require.Equal(t, "HELLO", reloaded.Directory[0].FileName)
	require.Equal(t, "TXT", reloaded.Directory[0].FileType)
}

func TestLoadAcceptsMaximumAdditionalAMSectors(t *testing.T) {
	// fs_flags's additional-AM-sectors field is 3 bits wide (max 7), which
	// yields a 2016-byte bitmap -- under the 2048-byte ceiling, so this is
	// the largest legal bitmap the header format can express.
	backing := newBlankImage(t, 2+7+4)

	hdr := header.Header{FSFlags: 0x07}
	hdrBytes, err := header.Encode(hdr)
	require.NoError(t, err)
	sec1 := make([]byte, geometry.SectorSize)
	copy(sec1, hdrBytes)
	_, err = backing.WriteSectors(1, 1, sec1)
	require.NoError(t, err)

	l, err := Load(backing)
	require.NoError(t, err)
	require.Equal(t, 7, l.AdditionalAMSectors())
	require.Len(t, l.Bitmap.Bytes(), firstBitmapChunkSize+7*geometry.SectorSize)
}
