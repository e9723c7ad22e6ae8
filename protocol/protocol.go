// Package protocol implements the length-prefixed frame format used by browser
// native messaging hosts.
//
// Each frame is a 4-byte header followed by a variable-length body. The
// receiver reads the header first to determine the body length, then reads
// exactly that many bytes.
//
// Frame format:
//
//	0         4
//	┌─────────┬────────────────┐
//	│ length  │   body ...     │
//	│ uint32  │  length bytes  │
//	└─────────┴────────────────┘
//
// length is little-endian and counts the UTF-8 encoded bytes of the body. The
// body is JSON text. There is no magic number, no version byte, no checksum —
// the native messaging format carries nothing but the length.
//
// Note: some host implementations compute length from the character count of
// the JSON text rather than its encoded byte count. The two only agree for
// ASCII payloads. This package always uses the byte count, which is what the
// browsers themselves implement.
package protocol

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"unicode/utf8"

	"github.com/95rangerxlt/jabref/message"
)

// HeaderSize is the fixed size of the length prefix.
const HeaderSize = 4

// DecodeErrorKind classifies what went wrong while decoding an inbound frame.
type DecodeErrorKind int

const (
	// DecodeShortRead means the stream ended before a complete frame was read.
	// This is terminal: there is no way to resynchronize on a partial frame.
	DecodeShortRead DecodeErrorKind = iota
	// DecodeEncoding means the body bytes are not valid UTF-8.
	DecodeEncoding
	// DecodeParse means the body text is not a valid JSON object.
	DecodeParse
)

func (k DecodeErrorKind) String() string {
	switch k {
	case DecodeShortRead:
		return "short read"
	case DecodeEncoding:
		return "invalid encoding"
	case DecodeParse:
		return "parse failure"
	default:
		return "unknown"
	}
}

// DecodeError reports a failure to decode one inbound frame. The Kind tells
// the caller whether the stream is still usable: encoding and parse failures
// consume exactly one frame and leave the stream aligned on the next frame
// boundary, while a short read means the stream is gone.
type DecodeError struct {
	Kind DecodeErrorKind
	Err  error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("protocol: %s decoding frame: %v", e.Kind, e.Err)
}

func (e *DecodeError) Unwrap() error {
	return e.Err
}

var errInvalidUTF8 = errors.New("body is not valid UTF-8")

// Encode writes one complete frame (length prefix + body) to w.
// The caller must hold a write lock if multiple goroutines share the same
// writer, otherwise frames interleave and corrupt the stream.
func Encode(w io.Writer, text string) error {
	body := []byte(text)

	var header [HeaderSize]byte
	binary.LittleEndian.PutUint32(header[:], uint32(len(body)))

	if _, err := w.Write(header[:]); err != nil {
		return err
	}
	if _, err := w.Write(body); err != nil {
		return err
	}
	return nil
}

// Decode reads one complete frame from r and parses its body as a JSON object.
// Uses io.ReadFull so exactly HeaderSize and then exactly length bytes are
// consumed. Every failure is reported as a *DecodeError; use IsClosed to tell
// a dead stream apart from a malformed frame.
func Decode(r io.Reader) (message.Message, error) {
	// Step 1: the first 4 bytes give the body length
	var header [HeaderSize]byte
	if _, err := io.ReadFull(r, header[:]); err != nil {
		return nil, &DecodeError{Kind: DecodeShortRead, Err: err}
	}
	length := binary.LittleEndian.Uint32(header[:])

	// Step 2: read exactly length bytes of body
	body := make([]byte, length)
	if _, err := io.ReadFull(r, body); err != nil {
		if err == io.EOF {
			// EOF in the middle of a frame is an unexpected end, not a clean close
			err = io.ErrUnexpectedEOF
		}
		return nil, &DecodeError{Kind: DecodeShortRead, Err: err}
	}

	// Step 3: the body must be UTF-8 text
	if !utf8.Valid(body) {
		return nil, &DecodeError{Kind: DecodeEncoding, Err: errInvalidUTF8}
	}

	// Step 4: parse as a JSON object
	msg, err := message.Parse(string(body))
	if err != nil {
		return nil, &DecodeError{Kind: DecodeParse, Err: err}
	}
	return msg, nil
}

// IsClosed reports whether err means the underlying stream is no longer
// usable. A short read always is: the protocol has no resynchronization
// mechanism, so a partial frame can never be completed or skipped.
func IsClosed(err error) bool {
	var de *DecodeError
	if errors.As(err, &de) {
		return de.Kind == DecodeShortRead
	}
	return errors.Is(err, io.EOF) ||
		errors.Is(err, io.ErrUnexpectedEOF) ||
		errors.Is(err, io.ErrClosedPipe)
}
