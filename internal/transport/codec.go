package transport

import "github.com/oasis-go/oasisutil/internal/oasiserr"

// encodeOneByte appends the DLE-stuffed, shift-state encoding of a single
// payload byte to out, returning the (possibly flipped) shift state.
func encodeOneByte(out []byte, b, shift byte) ([]byte, byte) {
	desired := b & 0x80
	if desired != shift {
		if desired == 0x80 {
			out = append(out, DLE, SI)
		} else {
			out = append(out, DLE, SO)
		}
		shift = desired
	}

	masked := b & 0x7F
	switch masked {
	case DLE:
		out = append(out, DLE, DLE)
	case ESC:
		out = append(out, DLE, CAN)
	default:
		out = append(out, masked)
	}
	return out, shift
}

// encodeCount appends the DLE VT run-length count, escaping it the same way
// a masked data byte would be if its value collides with DLE or ESC.
func encodeCount(out []byte, count byte) []byte {
	switch count {
	case DLE:
		return append(out, DLE, DLE)
	case ESC:
		return append(out, DLE, CAN)
	default:
		return append(out, count)
	}
}

// encodePayload applies shift-state stuffing and run-length compression to
// a raw payload.
func encodePayload(payload []byte) []byte {
	var out []byte
	var shift byte
	i := 0
	for i < len(payload) {
		b := payload[i]
		run := 1
		for i+run < len(payload) && payload[i+run] == b {
			run++
		}

		out, shift = encodeOneByte(out, b, shift)

		if run >= 4 {
			remaining := run - 1
			for remaining > 0 {
				chunk := remaining
				if chunk > RunLengthMax {
					chunk = RunLengthMax
				}
				out = append(out, DLE, VT)
				out = encodeCount(out, byte(chunk))
				remaining -= chunk
			}
		} else {
			for k := 1; k < run; k++ {
				out, shift = encodeOneByte(out, b, shift)
			}
		}
		i += run
	}
	return out
}

// EncodeFrame wraps cmd and payload in a full transport frame:
// DLE STX <cmd> <encoded payload> DLE ETX <LRC> 0xFF.
func EncodeFrame(cmd byte, payload []byte) ([]byte, error) {
	if len(payload) > PayloadCapacity {
		return nil, oasiserr.Newf(oasiserr.KindInvalidArgument, "payload of %d bytes exceeds capacity %d", len(payload), PayloadCapacity)
	}

	body := make([]byte, 0, len(payload)+8)
	body = append(body, cmd)
	body = append(body, encodePayload(payload)...)
	body = append(body, DLE, ETX)

	lrc := LRC(body)

	frame := make([]byte, 0, len(body)+4)
	frame = append(frame, DLE, STX)
	frame = append(frame, body...)
	frame = append(frame, lrc, TrailerPad)
	return frame, nil
}

// Decode unwraps a full transport frame, returning the command byte and
// decoded payload. A checksum mismatch is reported as an error with
// Kind() == oasiserr.KindChecksumMismatch and a nil payload, never as a
// partially-decoded result; every other failure mode (malformed header,
// unknown escape sequence, truncated frame, payload overflow) is a hard
// error of a different Kind.
func Decode(frame []byte) (cmd byte, payload []byte, err error) {
	if len(frame) < 3 || frame[0] != DLE || frame[1] != STX {
		return 0, nil, oasiserr.New(oasiserr.KindInvalidArgument, "missing DLE STX frame header")
	}
	cmd = frame[2]

	consumed := []byte{cmd}
	i := 3
	var shift byte
	var out []byte
	var last byte
	haveLast := false

	for {
		if i >= len(frame) {
			return cmd, nil, oasiserr.New(oasiserr.KindInvalidArgument, "frame truncated inside escape sequence")
		}
		b := frame[i]
		consumed = append(consumed, b)
		i++

		if b != DLE {
			emitted := b | shift
			out = append(out, emitted)
			last, haveLast = emitted, true
			if len(out) > PayloadCapacity {
				return cmd, nil, oasiserr.New(oasiserr.KindInvalidArgument, "decoded payload exceeds capacity")
			}
			continue
		}

		if i >= len(frame) {
			return cmd, nil, oasiserr.New(oasiserr.KindInvalidArgument, "frame truncated after DLE")
		}
		ctrl := frame[i]
		consumed = append(consumed, ctrl)
		i++

		switch ctrl {
		case SI:
			shift = 0x80
		case SO:
			shift = 0x00
		case DLE:
			emitted := DLE | shift
			out = append(out, emitted)
			last, haveLast = emitted, true
		case CAN:
			emitted := ESC | shift
			out = append(out, emitted)
			last, haveLast = emitted, true
		case VT:
			if i >= len(frame) {
				return cmd, nil, oasiserr.New(oasiserr.KindInvalidArgument, "frame truncated inside run-length count")
			}
			cbyte := frame[i]
			consumed = append(consumed, cbyte)
			i++

			var count byte
			if cbyte == DLE {
				if i >= len(frame) {
					return cmd, nil, oasiserr.New(oasiserr.KindInvalidArgument, "frame truncated inside escaped run-length count")
				}
				sub := frame[i]
				consumed = append(consumed, sub)
				i++
				switch sub {
				case DLE:
					count = DLE
				case CAN:
					count = ESC
				default:
					return cmd, nil, newUnknownSequence(sub)
				}
			} else {
				count = cbyte
			}

			if !haveLast {
				return cmd, nil, oasiserr.New(oasiserr.KindInvalidArgument, "run-length count with no preceding byte")
			}
			for k := byte(0); k < count; k++ {
				out = append(out, last)
				if len(out) > PayloadCapacity {
					return cmd, nil, oasiserr.New(oasiserr.KindInvalidArgument, "decoded payload exceeds capacity")
				}
			}
		case ETX:
			if i >= len(frame) {
				return cmd, nil, oasiserr.New(oasiserr.KindInvalidArgument, "frame missing LRC trailer")
			}
			receivedLRC := frame[i]
			computed := LRC(consumed)
			if computed != receivedLRC {
				return cmd, nil, oasiserr.New(oasiserr.KindChecksumMismatch, "LRC mismatch")
			}
			return cmd, out, nil
		default:
			return cmd, nil, newUnknownSequence(ctrl)
		}
	}
}
