package geometry

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestLoadPresetsWithoutFileReturnsBuiltins(t *testing.T) {
	out, err := LoadPresets("")
	require.NoError(t, err)
	require.Equal(t, BuiltinPresets, out)
}

func TestLoadPresetsMergesCustomEntry(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "presets.yaml")
	contents := `
presets:
  my-custom-disk:
    heads: 1
    tracks_per_surface: 77
    sectors_per_track: 26
    sector_increment: 1
    track_skew: 0
    dir_entries: 64
`
	require.NoError(t, os.WriteFile(path, []byte(contents), 0o644))

	out, err := LoadPresets(path)
	require.NoError(t, err)

	for name, p := range BuiltinPresets {
		require.Equal(t, p, out[name])
	}

	custom, ok := out["my-custom-disk"]
	require.True(t, ok)
	require.Equal(t, Preset{
		Heads: 1, TracksPerSurface: 77, SectorsPerTrack: 26,
		SectorIncrement: 1, TrackSkew: 0, DirEntries: 64,
	}, custom)
}

func TestLoadPresetsOverridesBuiltinFields(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "presets.yaml")
	contents := `
presets:
  8in-sssd:
    dir_entries: 96
`
	require.NoError(t, os.WriteFile(path, []byte(contents), 0o644))

	out, err := LoadPresets(path)
	require.NoError(t, err)

	got := out["8in-sssd"]
	want := BuiltinPresets["8in-sssd"]
	want.DirEntries = 96
	require.Equal(t, want, got)
}

func TestLoadPresetsRejectsNonMappingEntry(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "presets.yaml")
	contents := `
presets:
  broken: not-a-mapping
`
	require.NoError(t, os.WriteFile(path, []byte(contents), 0o644))

	_, err := LoadPresets(path)
	require.Error(t, err)
}

func TestLoadPresetsRejectsNonIntegerField(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "presets.yaml")
	contents := `
presets:
  broken:
    heads: not-a-number
`
	require.NoError(t, os.WriteFile(path, []byte(contents), 0o644))

	_, err := LoadPresets(path)
	require.Error(t, err)
}

func TestLoadPresetsMissingFileErrors(t *testing.T) {
	_, err := LoadPresets(filepath.Join(t.TempDir(), "does-not-exist.yaml"))
	require.Error(t, err)
}
