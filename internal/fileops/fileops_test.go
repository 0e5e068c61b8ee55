package fileops

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/oasis-go/oasisutil/internal/bitmap"
	"github.com/oasis-go/oasisutil/internal/deb"
	"github.com/oasis-go/oasisutil/internal/fileio"
	"github.com/oasis-go/oasisutil/internal/geometry"
	"github.com/oasis-go/oasisutil/internal/header"
	"github.com/oasis-go/oasisutil/internal/layout"
	"github.com/oasis-go/oasisutil/internal/sectorio"
	"github.com/stretchr/testify/require"
)

func newTestLayout(t *testing.T, totalBlocks, dirSlots int) *layout.Layout {
	t.Helper()
	path := filepath.Join(t.TempDir(), "image.dsk")
	totalSectors := totalBlocks * geometry.SectorsPerBlock
	require.NoError(t, os.WriteFile(path, make([]byte, totalSectors*geometry.SectorSize), 0o644))

	backing, err := sectorio.Open(path, false)
	require.NoError(t, err)

	bm := bitmap.New(make([]byte, geometry.SectorSize-geometry.HeaderSize), totalBlocks)
	return &layout.Layout{
		Backing:   backing,
		Bitmap:    bm,
		Header:    header.Header{FreeBlocks: uint16(totalBlocks)},
		Directory: make([]deb.DEB, dirSlots),
	}
}

func TestEraseContiguousFreesBlocks(t *testing.T) {
	l := newTestLayout(t, 8, 4)
	d := deb.DEB{Format: deb.FormatDirect, FileFormatDependent1: 100}
	require.NoError(t, fileio.WriteContiguous(l, &d, make([]byte, 3000)))
	l.Directory[0] = d
	freeBefore := l.Header.FreeBlocks

	require.NoError(t, Erase(l, 0))
	require.Equal(t, deb.FormatDeleted, l.Directory[0].Format)
	require.Equal(t, freeBefore+d.BlockCount, l.Header.FreeBlocks)
	require.Equal(t, 8, l.Bitmap.CountFree())
}

func TestEraseSequentialWalksChain(t *testing.T) {
	l := newTestLayout(t, 4, 4)
	d := deb.DEB{Format: deb.FormatSequential}
	require.NoError(t, fileio.WriteSequential(l, &d, make([]byte, 2000)))
	l.Directory[0] = d

	require.NoError(t, Erase(l, 0))
	require.Equal(t, 4, l.Bitmap.CountFree())
	require.Equal(t, uint16(4), l.Header.FreeBlocks)
}

func TestEraseRejectsInvalidSlot(t *testing.T) {
	l := newTestLayout(t, 4, 4)
	err := Erase(l, 0)
	require.Error(t, err)
}

func TestRenamePreservesOtherFields(t *testing.T) {
	l := newTestLayout(t, 4, 4)
	l.Directory[0] = deb.DEB{Format: deb.FormatSequential, FileName: "OLD", FileType: "TXT", OwnerID: 7}

	require.NoError(t, Rename(l, 0, "new", "doc"))
	require.Equal(t, "NEW", l.Directory[0].FileName)
	require.Equal(t, "DOC", l.Directory[0].FileType)
	require.Equal(t, byte(7), l.Directory[0].OwnerID)
}

func TestRenameRejectsOversizedFields(t *testing.T) {
	l := newTestLayout(t, 4, 4)
	err := Rename(l, 0, "WAYTOOLONGNAME", "TXT")
	require.Error(t, err)
}

func TestHasCollision(t *testing.T) {
	l := newTestLayout(t, 4, 4)
	l.Directory[0] = deb.DEB{Format: deb.FormatSequential, FileName: "FOO", FileType: "BAR", OwnerID: 1}

	require.True(t, HasCollision(l, 1, 1, "foo", "bar"))
	require.False(t, HasCollision(l, 0, 1, "foo", "bar")) // exempting the same slot
	require.False(t, HasCollision(l, 1, 2, "foo", "bar")) // different owner
}

func TestFindSlotPrefersFirstEmptyOrDeleted(t *testing.T) {
	l := newTestLayout(t, 4, 3)
	l.Directory[0] = deb.DEB{Format: deb.FormatSequential}
	l.Directory[1] = deb.DEB{Format: deb.FormatDeleted}
	require.Equal(t, 1, FindSlot(l))
}

func TestCopyHostToDiskRoundTrip(t *testing.T) {
	l := newTestLayout(t, 8, 4)
	data := []byte("hello world\nsecond line\n")

	require.NoError(t, Copy(l, "GREETING", "TXT", data, CopyOptions{ASCIIConversion: true}))

	idx := FindByName(l, 0, "GREETING", "TXT")
	require.GreaterOrEqual(t, idx, 0)
	require.Equal(t, deb.FormatSequential, l.Directory[idx].Format.Type())

	readBack, err := fileio.Read(l, l.Directory[idx])
	require.NoError(t, err)
	require.Contains(t, string(readBack), "hello world")
}

func TestCopyReusesExistingSlotOnSameName(t *testing.T) {
	l := newTestLayout(t, 8, 4)
	require.NoError(t, Copy(l, "FILE", "TXT", []byte("v1"), CopyOptions{}))
	require.NoError(t, Copy(l, "FILE", "TXT", []byte("version two, longer"), CopyOptions{}))

	count := 0
	for _, d := range l.Directory {
		if d.Format.IsValid() {
			count++
		}
	}
	require.Equal(t, 1, count)
}
