package frame

import "fmt"

// Frame is one decoded image buffer: width × height × channels of raw
// pixel data. Three-channel frames are RGB byte order; there is no
// embedded timestamp, ordering is purely arrival order.
type Frame struct {
	Width    int
	Height   int
	Channels int
	Pix      []byte
}

// NewRGB allocates a zeroed 3-channel frame of the given dimensions.
func NewRGB(width, height int) *Frame {
	return &Frame{
		Width:    width,
		Height:   height,
		Channels: 3,
		Pix:      make([]byte, width*height*3),
	}
}

// Clone returns a deep copy of the frame. The copy owns its pixel
// buffer, so the receiver can be reused or mutated afterwards.
func (f *Frame) Clone() *Frame {
	if f == nil {
		return nil
	}
	pix := make([]byte, len(f.Pix))
	copy(pix, f.Pix)
	return &Frame{
		Width:    f.Width,
		Height:   f.Height,
		Channels: f.Channels,
		Pix:      pix,
	}
}

// Fill sets every pixel of a 3-channel frame to the given RGB color.
func (f *Frame) Fill(r, g, b byte) {
	for i := 0; i+2 < len(f.Pix); i += f.Channels {
		f.Pix[i] = r
		f.Pix[i+1] = g
		f.Pix[i+2] = b
	}
}

// Validate checks that the pixel buffer matches the declared geometry.
func (f *Frame) Validate() error {
	if f.Width <= 0 || f.Height <= 0 {
		return fmt.Errorf("invalid frame dimensions %dx%d", f.Width, f.Height)
	}
	if f.Channels != 3 && f.Channels != 4 {
		return fmt.Errorf("unsupported channel count %d", f.Channels)
	}
	if want := f.Width * f.Height * f.Channels; len(f.Pix) != want {
		return fmt.Errorf("pixel buffer is %d bytes, want %d", len(f.Pix), want)
	}
	return nil
}
