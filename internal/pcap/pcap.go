// Package pcap writes transport frames to a PCAP capture file for offline
// inspection. Writing a capture is optional; nothing in internal/transport
// depends on this package.
//
// Each record is a constant-size header built field-by-field with
// encoding/binary and prepended to a variable-length payload, the usual
// shape for a fixed-header wire format; here that's the standard PCAP
// global header and per-record header, big-endian per-frame pseudo-header
// included.
package pcap

import (
	"encoding/binary"
	"io"
	"time"

	"github.com/oasis-go/oasisutil/internal/oasiserr"
)

// LinkTypeRTACSerial is the libpcap DLT value for RTAC serial captures.
const LinkTypeRTACSerial = 250

// pseudoHeaderSize is the 10-byte per-frame header this package prepends
// to every captured frame: a 4-byte big-endian timestamp-seconds field, a
// 2-byte big-endian
// timestamp-microseconds field (truncated to the range a single capture
// session spans), a 1-byte direction event, a 1-byte control-line state,
// and 2 reserved zero bytes.
const pseudoHeaderSize = 10

// Direction labels the per-frame direction event byte.
type Direction byte

const (
	DirectionSent     Direction = 0x01
	DirectionReceived Direction = 0x02
)

// globalHeaderSize is the standard 24-byte pcap file header.
const globalHeaderSize = 24

const (
	magicLittleEndian = 0xa1b2c3d4
	versionMajor      = 2
	versionMinor      = 4
	snapLen           = 65535
)

// Writer appends transport frames to a pcap capture stream, one record per
// call to WriteFrame.
type Writer struct {
	w io.Writer
}

// NewWriter writes the global pcap file header to w and returns a Writer
// ready to accept frames.
func NewWriter(w io.Writer) (*Writer, error) {
	hdr := make([]byte, globalHeaderSize)
	binary.LittleEndian.PutUint32(hdr[0:4], magicLittleEndian)
	binary.LittleEndian.PutUint16(hdr[4:6], versionMajor)
	binary.LittleEndian.PutUint16(hdr[6:8], versionMinor)
	// thiszone, sigfigs left zero.
	binary.LittleEndian.PutUint32(hdr[16:20], snapLen)
	binary.LittleEndian.PutUint32(hdr[20:24], LinkTypeRTACSerial)

	if _, err := w.Write(hdr); err != nil {
		return nil, oasiserr.Wrap(oasiserr.KindIO, err, "write pcap global header")
	}
	return &Writer{w: w}, nil
}

// ControlLineState is a bitmask of RS-232 control line states sampled at
// capture time; callers that don't track control lines pass 0.
type ControlLineState byte

// WriteFrame appends one capture record: a standard 16-byte pcap record
// header, followed by the packet data (the 10-byte pseudo-header followed
// by payload masked to 7 bits).
func (pw *Writer) WriteFrame(at time.Time, dir Direction, ctrl ControlLineState, payload []byte) error {
	masked := make([]byte, len(payload))
	for i, b := range payload {
		masked[i] = b & 0x7F
	}

	pseudo := make([]byte, pseudoHeaderSize)
	binary.BigEndian.PutUint32(pseudo[0:4], uint32(at.Unix()))
	binary.BigEndian.PutUint16(pseudo[4:6], uint16(at.Nanosecond()/1000))
	pseudo[6] = byte(dir)
	pseudo[7] = byte(ctrl)
	// pseudo[8:10] left as reserved zero bytes.

	data := append(pseudo, masked...)

	rec := make([]byte, 16)
	binary.LittleEndian.PutUint32(rec[0:4], uint32(at.Unix()))
	binary.LittleEndian.PutUint32(rec[4:8], uint32(at.Nanosecond()/1000))
	binary.LittleEndian.PutUint32(rec[8:12], uint32(len(data)))
	binary.LittleEndian.PutUint32(rec[12:16], uint32(len(data)))

	if _, err := pw.w.Write(rec); err != nil {
		return oasiserr.Wrap(oasiserr.KindIO, err, "write pcap record header")
	}
	if _, err := pw.w.Write(data); err != nil {
		return oasiserr.Wrap(oasiserr.KindIO, err, "write pcap frame data")
	}
	return nil
}
