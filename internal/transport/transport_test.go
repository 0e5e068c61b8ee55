package transport

import (
	"bytes"
	"testing"

	"github.com/oasis-go/oasisutil/internal/deb"
	"github.com/oasis-go/oasisutil/internal/oasiserr"
	"github.com/stretchr/testify/require"
)

func TestLRCFormula(t *testing.T) {
	for _, b := range [][]byte{
		nil,
		{0x00},
		{0xFF, 0xFF, 0xFF},
		{0x10, 0x1B, 0x02, 0x03, 0x0F},
	} {
		sum := 0
		for _, c := range b {
			sum += int(c)
		}
		want := byte((sum | 0xC0) & 0x7F)
		require.Equal(t, want, LRC(b))
	}
}

func TestEncodeDecodeRoundTripArbitraryBytes(t *testing.T) {
	cases := [][]byte{
		nil,
		{0x00},
		{0x10, 0x10, 0x10, 0x10, 0x10},            // run of the DLE byte itself
		{0x1B, 0x1B, 0x1B, 0x1B, 0x1B, 0x1B},       // run of the ESC byte
		bytes.Repeat([]byte{0xAA}, 300),            // long run needing multiple chunks
		{0x00, 0x80, 0x7F, 0xFF, 0x01, 0x81},       // high-bit toggling every byte
		bytes.Repeat([]byte{0x41, 0x42, 0x43}, 50), // mixed, no runs
	}
	for _, payload := range cases {
		frame, err := EncodeFrame('W', payload)
		require.NoError(t, err)

		cmd, decoded, err := Decode(frame)
		require.NoError(t, err)
		require.Equal(t, byte('W'), cmd)
		require.Equal(t, payload, decoded)
	}
}

func TestEncodeDecodeRoundTripFullByteRange(t *testing.T) {
	payload := make([]byte, 256)
	for i := range payload {
		payload[i] = byte(i)
	}
	frame, err := EncodeFrame('R', payload)
	require.NoError(t, err)

	_, decoded, err := Decode(frame)
	require.NoError(t, err)
	require.Equal(t, payload, decoded)
}

// TestDecodeDetectsChecksumMismatch corrupts a frame's LRC trailer and
// checks that Decode reports the mismatch instead of returning bad data.
func TestDecodeDetectsChecksumMismatch(t *testing.T) {
	frame, err := EncodeFrame('O', []byte{0x01, 0x02, 0x03})
	require.NoError(t, err)

	// Corrupt the LRC byte (second-to-last byte of the frame).
	frame[len(frame)-2] ^= 0xFF

	cmd, payload, err := Decode(frame)
	require.Error(t, err)
	require.Equal(t, oasiserr.KindChecksumMismatch, oasiserr.KindOf(err))
	require.Equal(t, byte('O'), cmd)
	require.Nil(t, payload)
	require.Equal(t, 0, len(payload))
}

func TestDecodeRejectsMissingHeader(t *testing.T) {
	_, _, err := Decode([]byte{0x00, 0x01, 'O'})
	require.Error(t, err)
}

func TestDecodeRejectsTruncatedFrame(t *testing.T) {
	_, _, err := Decode([]byte{DLE, STX, 'O', 0x41})
	require.Error(t, err)
}

func TestDecodeRejectsUnknownEscape(t *testing.T) {
	frame := []byte{DLE, STX, 'O', DLE, 0x7F, DLE, ETX, 0x00, 0xFF}
	_, _, err := Decode(frame)
	require.Error(t, err)
}

func TestOpenPacketCarriesDEB(t *testing.T) {
	d := deb.DEB{
		Format:      deb.FormatSequential,
		FileName:    "REPORT",
		FileType:    "TXT",
		RecordCount: 3,
		BlockCount:  1,
		StartSector: 10,
	}
	raw, err := deb.Encode(d)
	require.NoError(t, err)

	frame, err := EncodeFrame(CmdOpen, raw)
	require.NoError(t, err)

	cmd, payload, err := Decode(frame)
	require.NoError(t, err)
	require.Equal(t, CmdOpen, cmd)

	got, err := deb.Decode(payload)
	require.NoError(t, err)
	require.Equal(t, d, got)
}

func TestAckToggleAlternates(t *testing.T) {
	tg := NewAckToggle()
	require.Equal(t, Ack0, tg.Expect())
	tg.Flip()
	require.Equal(t, Ack1, tg.Expect())
	tg.Flip()
	require.Equal(t, Ack0, tg.Expect())
}

// loopback wires a Session's writes to its own read side through in-memory
// buffers so Send can be exercised without a real serial port: the test
// plays the role of the remote end by writing the acknowledgement after
// observing the frame.
type loopback struct {
	toRemote   bytes.Buffer
	fromRemote bytes.Buffer
}

func (l *loopback) Write(p []byte) (int, error) { return l.toRemote.Write(p) }
func (l *loopback) Read(p []byte) (int, error)  { return l.fromRemote.Read(p) }

func TestSessionSendSucceedsOnMatchingAck(t *testing.T) {
	lb := &loopback{}
	lb.fromRemote.Write(EncodeAck(Ack0))

	s := NewSession(lb)
	err := s.Send('O', []byte{1, 2, 3})
	require.NoError(t, err)
	require.Equal(t, Ack1, s.toggle.Expect())
}

func TestSessionSendRetriesOnWrongToggleThenSucceeds(t *testing.T) {
	lb := &loopback{}
	lb.fromRemote.Write(EncodeAck(Ack1)) // wrong toggle first
	lb.fromRemote.Write(EncodeAck(Ack0)) // correct on retry

	s := NewSession(lb)
	s.Retries = 2
	err := s.Send('O', []byte{1, 2, 3})
	require.NoError(t, err)
}

func TestSessionSendExhaustsRetriesOnPersistentWrongToggle(t *testing.T) {
	lb := &loopback{}
	for i := 0; i < 4; i++ {
		lb.fromRemote.Write(EncodeAck(Ack1))
	}

	s := NewSession(lb)
	s.Retries = 3
	err := s.Send('O', []byte{1, 2, 3})
	require.Error(t, err)
	require.Equal(t, oasiserr.KindWrongToggle, oasiserr.KindOf(err))
}
