package transport

import (
	"io"
	"time"

	"github.com/oasis-go/oasisutil/internal/deb"
	"github.com/oasis-go/oasisutil/internal/oasiserr"
	"github.com/oasis-go/oasisutil/internal/oasislog"
)

// CmdOpen is the command byte for a packet carrying a DEB.
const CmdOpen byte = 'O'

// DefaultRetries bounds how many times Session.Send retries a packet on
// Timeout or WrongToggle before giving up.
const DefaultRetries = 5

// DefaultAckTimeout bounds how long Session.Send waits for the two-byte
// acknowledgement before treating the attempt as timed out.
const DefaultAckTimeout = 2 * time.Second

// Port is the host-level serial contract the send/receive subcommands wire
// a real serial port into; everything above this interface is testable
// without one. A plain io.ReadWriter (e.g. a loopback buffer, a TCP pipe in
// tests) is adapted to it by AsPort, which supplies a no-op SetReadTimeout.
type Port interface {
	io.ReadWriter
	SetReadTimeout(time.Duration) error
}

// noTimeoutPort adapts a plain io.ReadWriter into a Port whose
// SetReadTimeout is a no-op, for callers that don't need one (tests,
// in-memory loopbacks).
type noTimeoutPort struct {
	io.ReadWriter
}

func (noTimeoutPort) SetReadTimeout(time.Duration) error { return nil }

// AsPort adapts any io.ReadWriter into a Port with a no-op timeout, for
// callers without a real serial device.
func AsPort(rw io.ReadWriter) Port {
	if p, ok := rw.(Port); ok {
		return p
	}
	return noTimeoutPort{rw}
}

// Session drives one side of the send/receive handshake over a raw byte
// stream: framing via EncodeFrame/Decode, acknowledgement via AckToggle,
// and bounded retry on Timeout or WrongToggle.
type Session struct {
	port    Port
	toggle  *AckToggle
	Retries int
	Timeout time.Duration
}

// NewSession wraps rw with default retry and timeout policy.
func NewSession(rw io.ReadWriter) *Session {
	return &Session{
		port:    AsPort(rw),
		toggle:  NewAckToggle(),
		Retries: DefaultRetries,
		Timeout: DefaultAckTimeout,
	}
}

// Send transmits one framed packet and waits for its acknowledgement,
// retrying on Timeout or WrongToggle up to s.Retries times. On success it
// flips the expected toggle for the next packet.
func (s *Session) Send(cmd byte, payload []byte) error {
	frame, err := EncodeFrame(cmd, payload)
	if err != nil {
		return err
	}

	var lastErr error
	for attempt := 0; attempt <= s.Retries; attempt++ {
		if _, err := s.port.Write(frame); err != nil {
			return oasiserr.Wrap(oasiserr.KindIO, err, "write packet")
		}

		if s.Timeout > 0 {
			_ = s.port.SetReadTimeout(s.Timeout)
		}
		ack := make([]byte, 2)
		if _, err := io.ReadFull(s.port, ack); err != nil {
			lastErr = oasiserr.Wrap(oasiserr.KindTimeout, err, "awaiting acknowledgement")
			continue
		}
		if ack[0] != DLE {
			return oasiserr.New(oasiserr.KindInvalidAck, "acknowledgement missing DLE lead byte")
		}
		if ack[1] != s.toggle.Expect() {
			lastErr = oasiserr.New(oasiserr.KindWrongToggle, "acknowledgement toggle mismatch")
			continue
		}

		s.toggle.Flip()
		return nil
	}
	oasislog.Logger().WithField("kind", oasiserr.KindOf(lastErr)).Warnf("packet send exhausted %d retries", s.Retries)
	return lastErr
}

// SendOpen encodes d as a little-endian DEB payload and sends it as an
// OPEN packet.
func (s *Session) SendOpen(d deb.DEB) error {
	raw, err := deb.Encode(d)
	if err != nil {
		return err
	}
	return s.Send(CmdOpen, raw)
}

// Receive reads one framed packet, replies with the current acknowledgement
// toggle on a verified checksum, and flips the toggle. On checksum
// mismatch it does not ACK at all, so the sender's read times out and it
// retries.
func (s *Session) Receive(readFrame func() ([]byte, error)) (cmd byte, payload []byte, err error) {
	frame, err := readFrame()
	if err != nil {
		return 0, nil, oasiserr.Wrap(oasiserr.KindIO, err, "read frame")
	}

	cmd, payload, err = Decode(frame)
	if err != nil {
		return cmd, nil, err
	}

	if _, err := s.port.Write(EncodeAck(s.toggle.Expect())); err != nil {
		return cmd, nil, oasiserr.Wrap(oasiserr.KindIO, err, "write acknowledgement")
	}
	s.toggle.Flip()
	return cmd, payload, nil
}

// ReceiveOpen reads one OPEN packet and decodes its payload back into a DEB.
func (s *Session) ReceiveOpen(readFrame func() ([]byte, error)) (deb.DEB, error) {
	cmd, payload, err := s.Receive(readFrame)
	if err != nil {
		return deb.DEB{}, err
	}
	if cmd != CmdOpen {
		return deb.DEB{}, oasiserr.Newf(oasiserr.KindInvalidArgument, "expected OPEN command, got 0x%02X", cmd)
	}
	return deb.Decode(payload)
}
