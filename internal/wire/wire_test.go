package wire

import (
	"bytes"
	"encoding/binary"
	"errors"
	"io"
	"testing"
)

func TestRoundTrip(t *testing.T) {
	tests := []struct {
		name    string
		payload []byte
	}{
		{"small", []byte("hello")},
		{"single byte", []byte{0xff}},
		{"binary", bytes.Repeat([]byte{0x00, 0x7f, 0xff}, 1000)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			if err := WriteMessage(&buf, tt.payload); err != nil {
				t.Fatalf("WriteMessage() error = %v", err)
			}

			got, err := ReadMessage(&buf)
			if err != nil {
				t.Fatalf("ReadMessage() error = %v", err)
			}
			if !bytes.Equal(got, tt.payload) {
				t.Errorf("round trip mismatch: got %d bytes, want %d", len(got), len(tt.payload))
			}
			if buf.Len() != 0 {
				t.Errorf("%d bytes left unconsumed", buf.Len())
			}
		})
	}
}

func TestHeaderIsBigEndian(t *testing.T) {
	var buf bytes.Buffer
	payload := []byte("abc")
	if err := WriteMessage(&buf, payload); err != nil {
		t.Fatalf("WriteMessage() error = %v", err)
	}

	raw := buf.Bytes()
	if len(raw) != 4+len(payload) {
		t.Fatalf("message is %d bytes, want %d", len(raw), 4+len(payload))
	}
	want := [4]byte{0x00, 0x00, 0x00, 0x03}
	if !bytes.Equal(raw[:4], want[:]) {
		t.Errorf("length prefix = % x, want % x", raw[:4], want)
	}
}

func TestZeroLengthMessage(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteMessage(&buf, nil); err != nil {
		t.Fatalf("WriteMessage(nil) error = %v", err)
	}
	if buf.Len() != 4 {
		t.Fatalf("zero-length message is %d bytes on the wire, want 4", buf.Len())
	}

	// ReadMessage must return without waiting for payload bytes that
	// will never arrive.
	got, err := ReadMessage(&buf)
	if err != nil {
		t.Fatalf("ReadMessage() error = %v", err)
	}
	if len(got) != 0 {
		t.Errorf("payload length = %d, want 0", len(got))
	}
}

func TestReadCleanEOF(t *testing.T) {
	_, err := ReadMessage(bytes.NewReader(nil))
	if err != io.EOF {
		t.Errorf("ReadMessage() on empty stream = %v, want io.EOF", err)
	}
}

func TestReadTruncatedHeader(t *testing.T) {
	_, err := ReadMessage(bytes.NewReader([]byte{0x00, 0x01}))
	if !errors.Is(err, io.ErrUnexpectedEOF) {
		t.Errorf("ReadMessage() with 2-byte header = %v, want unexpected EOF", err)
	}
}

func TestReadTruncatedPayload(t *testing.T) {
	var header [4]byte
	binary.BigEndian.PutUint32(header[:], 100)
	msg := append(header[:], []byte("short")...)

	_, err := ReadMessage(bytes.NewReader(msg))
	if !errors.Is(err, io.ErrUnexpectedEOF) {
		t.Errorf("ReadMessage() with truncated payload = %v, want unexpected EOF", err)
	}
}

func TestReadOversizedLength(t *testing.T) {
	var header [4]byte
	binary.BigEndian.PutUint32(header[:], uint32(MaxPayload+1))

	_, err := ReadMessage(bytes.NewReader(header[:]))
	if !errors.Is(err, ErrPayloadTooLarge) {
		t.Errorf("ReadMessage() with oversized length = %v, want ErrPayloadTooLarge", err)
	}
}

func TestSequentialMessages(t *testing.T) {
	var buf bytes.Buffer
	payloads := [][]byte{[]byte("one"), {}, []byte("three")}
	for _, p := range payloads {
		if err := WriteMessage(&buf, p); err != nil {
			t.Fatalf("WriteMessage() error = %v", err)
		}
	}

	for i, want := range payloads {
		got, err := ReadMessage(&buf)
		if err != nil {
			t.Fatalf("ReadMessage() #%d error = %v", i, err)
		}
		if !bytes.Equal(got, want) {
			t.Errorf("message #%d = %q, want %q", i, got, want)
		}
	}
	if _, err := ReadMessage(&buf); err != io.EOF {
		t.Errorf("trailing ReadMessage() = %v, want io.EOF", err)
	}
}
