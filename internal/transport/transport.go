// Package transport implements the OASIS serial send/receive codec: a
// DLE-stuffed, shift-state, run-length-compressed byte stream wrapped in a
// DLE-STX/DLE-ETX frame with an LRC trailer.
//
// The encoder/decoder pair reads and writes fixed-width fields off an
// explicit byte cursor with plain error returns, the same shape a
// little-endian wire-protocol codec built on encoding/binary takes. The
// DLE-stuffing/shift-state/RLE framing itself is specific to this
// transport and has no direct analogue to adapt from.
package transport

import "github.com/oasis-go/oasisutil/internal/oasiserr"

// Control bytes used by the frame and run-length encodings.
const (
	DLE byte = 0x10
	STX byte = 0x02
	ETX byte = 0x03
	SI  byte = 0x0F // shift-in: subsequent bytes carry bit 7 set
	SO  byte = 0x0E // shift-out: subsequent bytes carry bit 7 clear
	VT  byte = 0x0B // run-length marker
	CAN byte = 0x18 // escapes a masked byte equal to ESC
	ESC byte = 0x1B
)

// RunLengthMax is the largest count a single DLE VT <count> pair can carry;
// longer runs are chunked.
const RunLengthMax = 127

// PayloadCapacity bounds decoded payload size; a decode that would exceed
// it is rejected as overflow rather than truncated.
const PayloadCapacity = 512

// TrailerPad is the fixed byte following the LRC at the end of every frame.
const TrailerPad = 0xFF

// LRC computes the longitudinal checksum: sum of bytes mod 256, OR 0xC0,
// AND 0x7F.
func LRC(b []byte) byte {
	sum := 0
	for _, c := range b {
		sum += int(c)
	}
	return byte((sum | 0xC0) & 0x7F)
}

func newUnknownSequence(ctrl byte) error {
	return oasiserr.Newf(oasiserr.KindInvalidArgument, "unknown DLE sequence 0x%02X", ctrl)
}
