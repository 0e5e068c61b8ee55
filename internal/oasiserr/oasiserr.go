// Package oasiserr defines the error taxonomy shared by every core package.
//
// Every failure that the engine returns can be mapped back to one of these
// kinds, so callers (the CLI, the transport layer) can react without string
// matching. Errors are composed with github.com/pkg/errors at each call site
// that wants extra context; the base Error here is what implements Kind.
package oasiserr

import (
	"fmt"

	"github.com/pkg/errors"
)

// Kind classifies a failure into one of the recognized error categories.
type Kind int

const (
	KindUnknown Kind = iota
	KindInvalidArgument
	KindInvalidImage
	KindIO
	KindOutOfSpace
	KindInconsistentState
	KindNotFound
	KindAmbiguous
	KindCollision
	KindReadOnly
	KindChecksumMismatch
	KindTimeout
	KindWrongToggle
	KindInvalidAck
)

func (k Kind) String() string {
	switch k {
	case KindInvalidArgument:
		return "InvalidArgument"
	case KindInvalidImage:
		return "InvalidImage"
	case KindIO:
		return "Io"
	case KindOutOfSpace:
		return "OutOfSpace"
	case KindInconsistentState:
		return "InconsistentState"
	case KindNotFound:
		return "NotFound"
	case KindAmbiguous:
		return "Ambiguous"
	case KindCollision:
		return "Collision"
	case KindReadOnly:
		return "ReadOnly"
	case KindChecksumMismatch:
		return "ChecksumMismatch"
	case KindTimeout:
		return "Timeout"
	case KindWrongToggle:
		return "WrongToggle"
	case KindInvalidAck:
		return "InvalidAck"
	default:
		return "Unknown"
	}
}

// Error is the concrete error type every core package returns for
// domain-level failures (as opposed to plain I/O errors, which are still
// wrapped with KindIO so callers can branch on Kind() uniformly).
type Error struct {
	kind  Kind
	msg   string
	cause error
}

func New(kind Kind, msg string) *Error {
	return &Error{kind: kind, msg: msg}
}

func Newf(kind Kind, format string, args ...interface{}) *Error {
	return &Error{kind: kind, msg: fmt.Sprintf(format, args...)}
}

// Wrap attaches call-site context to an underlying failure (typically an
// os.File read/write/open error) using github.com/pkg/errors, the way
// aiSzzPL-retroio's dsk.go wraps disk-geometry read failures, while keeping
// err reachable through Unwrap and the whole thing classified under kind.
func Wrap(kind Kind, err error, msg string) *Error {
	return &Error{kind: kind, cause: errors.Wrap(err, msg)}
}

func Wrapf(kind Kind, err error, format string, args ...interface{}) *Error {
	return &Error{kind: kind, cause: errors.Wrapf(err, format, args...)}
}

func (e *Error) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("%s: %s", e.kind, e.cause.Error())
	}
	if e.msg == "" {
		return e.kind.String()
	}
	return fmt.Sprintf("%s: %s", e.kind, e.msg)
}

func (e *Error) Kind() Kind { return e.kind }

func (e *Error) Unwrap() error { return e.cause }

// Is lets errors.Is(err, oasiserr.New(KindNotFound, "")) match purely on kind.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return e.kind == t.kind
}

// KindOf extracts the Kind from err if it (or something it wraps) is an
// *Error; returns KindUnknown otherwise.
func KindOf(err error) Kind {
	type kinder interface{ Kind() Kind }
	for err != nil {
		if k, ok := err.(kinder); ok {
			return k.Kind()
		}
		u, ok := err.(interface{ Unwrap() error })
		if !ok {
			break
		}
		err = u.Unwrap()
	}
	return KindUnknown
}
