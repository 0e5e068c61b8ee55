package sectorio

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestRawBackingReadWriteRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "image.dsk")
	require.NoError(t, os.WriteFile(path, make([]byte, 10*256), 0o644))

	b, err := Open(path, false)
	require.NoError(t, err)
	defer b.Close()

	require.Equal(t, 10, b.TotalSectors())
	require.False(t, b.ReadOnly())

	sector := make([]byte, 256)
	for i := range sector {
		sector[i] = byte(i)
	}
	n, err := b.WriteSectors(3, 1, sector)
	require.NoError(t, err)
	require.Equal(t, 1, n)

	out := make([]byte, 256)
	n, err = b.ReadSectors(3, 1, out)
	require.NoError(t, err)
	require.Equal(t, 1, n)
	require.Equal(t, sector, out)
}

func TestRawBackingShortReadPastEnd(t *testing.T) {
	path := filepath.Join(t.TempDir(), "image.dsk")
	require.NoError(t, os.WriteFile(path, make([]byte, 4*256), 0o644))

	b, err := Open(path, true)
	require.NoError(t, err)
	defer b.Close()

	out := make([]byte, 256*3)
	n, err := b.ReadSectors(2, 3, out)
	require.NoError(t, err)
	require.Equal(t, 2, n) // only sectors 2,3 exist
}

func TestRawBackingRejectsWriteWhenReadOnly(t *testing.T) {
	path := filepath.Join(t.TempDir(), "image.dsk")
	require.NoError(t, os.WriteFile(path, make([]byte, 256), 0o644))

	b, err := Open(path, true)
	require.NoError(t, err)
	defer b.Close()

	_, err = b.WriteSectors(0, 1, make([]byte, 256))
	require.Error(t, err)
}

func TestRawBackingExtendsFileOnWrite(t *testing.T) {
	path := filepath.Join(t.TempDir(), "image.dsk")
	require.NoError(t, os.WriteFile(path, nil, 0o644))

	b, err := Open(path, false)
	require.NoError(t, err)
	defer b.Close()
	require.Equal(t, 0, b.TotalSectors())

	_, err = b.WriteSectors(4, 1, make([]byte, 256))
	require.NoError(t, err)
	require.Equal(t, 5, b.TotalSectors())
}
