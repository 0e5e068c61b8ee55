package geometry

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestTimestampRoundTrip(t *testing.T) {
	tests := []struct {
		name string
		ts   Timestamp
	}{
		{"epoch", Timestamp{Month: 1, Day: 1, Year: 1977, Hour: 0, Minute: 0}},
		{"last year", Timestamp{Month: 12, Day: 31, Year: 1992, Hour: 23, Minute: 59}},
		{"mid", Timestamp{Month: 6, Day: 15, Year: 1984, Hour: 12, Minute: 30}},
		{"day-boundary", Timestamp{Month: 3, Day: 16, Year: 1980, Hour: 8, Minute: 7}},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			packed, err := PackTimestamp(tc.ts)
			require.NoError(t, err)

			got := UnpackTimestamp(packed)
			require.Equal(t, tc.ts, got)

			repacked, err := PackTimestamp(got)
			require.NoError(t, err)
			require.Equal(t, packed, repacked)
		})
	}
}

func TestTimestampRoundTripExhaustiveSample(t *testing.T) {
	for month := 1; month <= 12; month++ {
		for _, day := range []int{1, 15, 31} {
			for _, yearOff := range []int{0, 7, 15} {
				for _, hour := range []int{0, 13, 23} {
					for _, minute := range []int{0, 29, 59} {
						ts := Timestamp{Month: month, Day: day, Year: 1977 + yearOff, Hour: hour, Minute: minute}
						packed, err := PackTimestamp(ts)
						require.NoError(t, err)
						require.Equal(t, ts, UnpackTimestamp(packed))
					}
				}
			}
		}
	}
}

func TestPackTimestampRejectsOutOfRange(t *testing.T) {
	bad := []Timestamp{
		{Month: 0, Day: 1, Year: 1977, Hour: 0, Minute: 0},
		{Month: 13, Day: 1, Year: 1977, Hour: 0, Minute: 0},
		{Month: 1, Day: 0, Year: 1977, Hour: 0, Minute: 0},
		{Month: 1, Day: 32, Year: 1977, Hour: 0, Minute: 0},
		{Month: 1, Day: 1, Year: 1976, Hour: 0, Minute: 0},
		{Month: 1, Day: 1, Year: 1993, Hour: 0, Minute: 0},
		{Month: 1, Day: 1, Year: 1977, Hour: 24, Minute: 0},
		{Month: 1, Day: 1, Year: 1977, Hour: 0, Minute: 60},
	}
	for _, ts := range bad {
		_, err := PackTimestamp(ts)
		require.Error(t, err)
	}
}

func TestLE16RoundTrip(t *testing.T) {
	for _, v := range []uint16{0, 1, 0xFF, 0x100, 0x7FFF, 0x8000, 0xFFFF} {
		buf := make([]byte, 2)
		WriteLE16(buf, v)
		require.Equal(t, v, ReadLE16(buf))
	}
}
