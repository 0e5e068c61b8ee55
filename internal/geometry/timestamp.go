package geometry

import "github.com/oasis-go/oasisutil/internal/oasiserr"

// Timestamp is the decoded form of the OASIS 3-byte packed date-time.
// Seconds are not stored by the on-disk format.
type Timestamp struct {
	Month  int // 1-12
	Day    int // 1-31
	Year   int // 1977-1992 (packed as a 0-15 offset from 1977)
	Hour   int // 0-23
	Minute int // 0-59
}

// UnpackTimestamp decodes the 3-byte packed OASIS timestamp.
//
// Layout:
//
//	byte0 bits 7:4 = month;        bits 3:0 = day bits 4:1
//	byte1 bit  7   = day bit 0;    bits 6:3 = year offset from 1977; bits 2:0 = hour bits 4:2
//	byte2 bits 7:6 = hour bits 1:0; bits 5:0 = minute
//
// Three zero bytes (an unset date) decode to the zero Timestamp.
func UnpackTimestamp(b [3]byte) Timestamp {
	if b == ([3]byte{}) {
		return Timestamp{}
	}
	month := int(b[0]>>4) & 0x0F
	dayHigh := int(b[0]) & 0x0F
	dayLow := int(b[1]>>7) & 0x01
	day := dayHigh<<1 | dayLow
	yearOffset := int(b[1]>>3) & 0x0F
	hourHigh := int(b[1]) & 0x07
	hourLow := int(b[2]>>6) & 0x03
	hour := hourHigh<<2 | hourLow
	minute := int(b[2]) & 0x3F

	return Timestamp{
		Month:  month,
		Day:    day,
		Year:   1977 + yearOffset,
		Hour:   hour,
		Minute: minute,
	}
}

// PackTimestamp encodes t into the 3-byte on-disk form. The zero Timestamp
// (an unset date, as in an empty directory slot) packs to three zero bytes.
// Otherwise returns InvalidArgument if any field is out of its legal range.
func PackTimestamp(t Timestamp) ([3]byte, error) {
	var out [3]byte

	if t == (Timestamp{}) {
		return out, nil
	}

	if t.Month < 1 || t.Month > 12 {
		return out, oasiserr.Newf(oasiserr.KindInvalidArgument, "month %d out of range 1..12", t.Month)
	}
	if t.Day < 1 || t.Day > 31 {
		return out, oasiserr.Newf(oasiserr.KindInvalidArgument, "day %d out of range 1..31", t.Day)
	}
	yearOffset := t.Year - 1977
	if yearOffset < 0 || yearOffset > 15 {
		return out, oasiserr.Newf(oasiserr.KindInvalidArgument, "year %d out of range 1977..1992", t.Year)
	}
	if t.Hour < 0 || t.Hour > 23 {
		return out, oasiserr.Newf(oasiserr.KindInvalidArgument, "hour %d out of range 0..23", t.Hour)
	}
	if t.Minute < 0 || t.Minute > 59 {
		return out, oasiserr.Newf(oasiserr.KindInvalidArgument, "minute %d out of range 0..59", t.Minute)
	}

	dayHigh := byte((t.Day >> 1) & 0x0F)
	dayLow := byte(t.Day & 0x01)
	hourHigh := byte((t.Hour >> 2) & 0x07)
	hourLow := byte(t.Hour & 0x03)

	out[0] = byte(t.Month<<4)&0xF0 | dayHigh
	out[1] = dayLow<<7 | byte(yearOffset<<3)&0x78 | hourHigh
	out[2] = hourLow<<6 | byte(t.Minute)&0x3F

	return out, nil
}
