package geometry

import (
	"strings"

	"github.com/pkg/errors"
	"github.com/spf13/viper"
)

// Preset is a named disk geometry initdisk can build from: the same
// fields the initdisk CLI options expose directly (heads,
// tracks_per_surface, sectors_per_track, sector_increment, track_skew,
// dir_size).
type Preset struct {
	Heads            int
	TracksPerSurface int
	SectorsPerTrack  int
	SectorIncrement  int
	TrackSkew        int
	DirEntries       int
}

// BuiltinPresets ships the common OASIS-era floppy geometries so initdisk
// works with zero configuration.
var BuiltinPresets = map[string]Preset{
	"8in-sssd": {
		Heads: 1, TracksPerSurface: 77, SectorsPerTrack: 26,
		SectorIncrement: 1, TrackSkew: 0, DirEntries: 64,
	},
	"8in-dsdd": {
		Heads: 2, TracksPerSurface: 77, SectorsPerTrack: 26,
		SectorIncrement: 1, TrackSkew: 0, DirEntries: 128,
	},
	"525in-dsdd": {
		Heads: 2, TracksPerSurface: 40, SectorsPerTrack: 18,
		SectorIncrement: 1, TrackSkew: 0, DirEntries: 64,
	},
}

// LoadPresets merges an optional user-supplied YAML preset file (path, or
// "" for none) on top of BuiltinPresets: viper is additive, the built-in map
// always works without one. A preset file looks like:
//
//	presets:
//	  my-custom-disk:
//	    heads: 1
//	    tracks_per_surface: 77
//	    sectors_per_track: 26
//	    sector_increment: 1
//	    track_skew: 0
//	    dir_entries: 64
func LoadPresets(path string) (map[string]Preset, error) {
	out := make(map[string]Preset, len(BuiltinPresets))
	for k, v := range BuiltinPresets {
		out[k] = v
	}
	if path == "" {
		return out, nil
	}

	v := viper.New()
	v.SetConfigFile(path)
	if err := v.ReadInConfig(); err != nil {
		return nil, errors.Wrapf(err, "reading geometry preset file %q", path)
	}

	raw := v.GetStringMap("presets")
	for name, entry := range raw {
		sub, ok := entry.(map[string]interface{})
		if !ok {
			return nil, errors.Errorf("preset %q is not a mapping", name)
		}
		p := Preset{DirEntries: 64, SectorIncrement: 1}
		if existing, ok := out[name]; ok {
			p = existing
		}
		for field, val := range sub {
			n, ok := toInt(val)
			if !ok {
				return nil, errors.Errorf("preset %q field %q is not an integer", name, field)
			}
			switch strings.ToLower(field) {
			case "heads":
				p.Heads = n
			case "tracks_per_surface":
				p.TracksPerSurface = n
			case "sectors_per_track":
				p.SectorsPerTrack = n
			case "sector_increment":
				p.SectorIncrement = n
			case "track_skew":
				p.TrackSkew = n
			case "dir_entries":
				p.DirEntries = n
			}
		}
		out[strings.ToLower(name)] = p
	}

	return out, nil
}

func toInt(v interface{}) (int, bool) {
	switch n := v.(type) {
	case int:
		return n, true
	case int64:
		return int(n), true
	case float64:
		return int(n), true
	default:
		return 0, false
	}
}
