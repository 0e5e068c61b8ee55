package geometry

import "time"

// FromTime converts a host time.Time into an OASIS Timestamp. The on-disk
// year field is a 4-bit offset from 1977 (1977-1992), so years outside that
// span wrap modulo 16 -- the same behavior a real OASIS system's clock
// hardware would show running past 1992.
func FromTime(t time.Time) Timestamp {
	yearOffset := ((t.Year()-1977)%16 + 16) % 16
	return Timestamp{
		Month:  int(t.Month()),
		Day:    t.Day(),
		Year:   1977 + yearOffset,
		Hour:   t.Hour(),
		Minute: t.Minute(),
	}
}
