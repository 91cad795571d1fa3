// Package wire implements the length-prefixed framing used on the
// camera stream: each message is a 4-byte big-endian unsigned length N
// followed by exactly N bytes of compressed payload. There is no magic
// number, version, or message-type field.
package wire

import (
	"encoding/binary"
	"fmt"
	"io"
)

// headerSize is the fixed width of the length prefix.
const headerSize = 4

// MaxPayload bounds the payload length accepted by ReadMessage. A
// length prefix beyond it means the reader is no longer aligned on a
// message boundary (or the peer is not speaking this protocol), so the
// connection should be dropped rather than the buffer grown.
const MaxPayload = 64 << 20 // 64 MiB

// ErrPayloadTooLarge reports a length prefix exceeding MaxPayload,
// which callers treat as stream desynchronization.
var ErrPayloadTooLarge = fmt.Errorf("payload length exceeds %d bytes", MaxPayload)

// WriteMessage writes payload to w as one framed message. The header
// and payload go out in a single Write call so two messages from the
// same writer can never interleave.
func WriteMessage(w io.Writer, payload []byte) error {
	if uint64(len(payload)) > MaxPayload {
		return ErrPayloadTooLarge
	}
	msg := make([]byte, headerSize+len(payload))
	binary.BigEndian.PutUint32(msg[:headerSize], uint32(len(payload)))
	copy(msg[headerSize:], payload)
	if _, err := w.Write(msg); err != nil {
		return fmt.Errorf("write framed message: %w", err)
	}
	return nil
}

// ReadMessage reads exactly one framed message from r and returns its
// payload. A zero-length message returns an empty (non-nil) payload
// without reading past the header. io.EOF before the first header byte
// is returned as-is so callers can distinguish a clean peer close; any
// other short read surfaces as io.ErrUnexpectedEOF.
func ReadMessage(r io.Reader) ([]byte, error) {
	var header [headerSize]byte
	if _, err := io.ReadFull(r, header[:]); err != nil {
		if err == io.EOF {
			return nil, io.EOF
		}
		return nil, fmt.Errorf("read length prefix: %w", err)
	}

	n := binary.BigEndian.Uint32(header[:])
	if n > MaxPayload {
		return nil, ErrPayloadTooLarge
	}

	payload := make([]byte, n)
	if _, err := io.ReadFull(r, payload); err != nil {
		return nil, fmt.Errorf("read %d byte payload: %w", n, err)
	}
	return payload, nil
}
