// Package codec compresses frames for the wire and decompresses them
// back. JPEG is the single supported image codec; quality is the usual
// 1..100 scale where a 640×480×3 frame (≈900 KB raw) compresses to a
// few tens of kilobytes at quality 80.
package codec

import (
	"bytes"
	"fmt"
	"image"
	"image/jpeg"

	xdraw "golang.org/x/image/draw"

	"github.com/visionlink/camstream/internal/frame"
)

// Encode compresses f as JPEG at the given quality and returns the
// payload bytes (without wire framing).
func Encode(f *frame.Frame, quality int) ([]byte, error) {
	if quality < 1 || quality > 100 {
		return nil, fmt.Errorf("quality %d out of range 1..100", quality)
	}
	if err := f.Validate(); err != nil {
		return nil, fmt.Errorf("encode: %w", err)
	}

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, toImage(f), &jpeg.Options{Quality: quality}); err != nil {
		return nil, fmt.Errorf("encode jpeg: %w", err)
	}
	return buf.Bytes(), nil
}

// Decode decompresses a JPEG payload into a 3-channel RGB frame. A
// corrupt payload returns an error; the caller drops that frame.
func Decode(payload []byte) (*frame.Frame, error) {
	img, err := jpeg.Decode(bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("decode jpeg: %w", err)
	}
	return fromImage(img), nil
}

// Resize scales f to width×height with bilinear interpolation. Frames
// already at the target size are returned unchanged.
func Resize(f *frame.Frame, width, height int) *frame.Frame {
	if f.Width == width && f.Height == height {
		return f
	}

	dst := image.NewRGBA(image.Rect(0, 0, width, height))
	xdraw.ApproxBiLinear.Scale(dst, dst.Bounds(), toImage(f), imageRect(f), xdraw.Src, nil)
	return fromImage(dst)
}

func imageRect(f *frame.Frame) image.Rectangle {
	return image.Rect(0, 0, f.Width, f.Height)
}

// toImage wraps a frame as an image.RGBA. RGBA frames alias the pixel
// buffer directly; RGB frames are expanded with an opaque alpha.
func toImage(f *frame.Frame) *image.RGBA {
	if f.Channels == 4 {
		return &image.RGBA{
			Pix:    f.Pix,
			Stride: f.Width * 4,
			Rect:   imageRect(f),
		}
	}

	img := image.NewRGBA(imageRect(f))
	si, di := 0, 0
	for p := 0; p < f.Width*f.Height; p++ {
		img.Pix[di] = f.Pix[si]
		img.Pix[di+1] = f.Pix[si+1]
		img.Pix[di+2] = f.Pix[si+2]
		img.Pix[di+3] = 0xff
		si += 3
		di += 4
	}
	return img
}

// fromImage converts any decoded image into a 3-channel RGB frame.
func fromImage(img image.Image) *frame.Frame {
	bounds := img.Bounds()
	f := frame.NewRGB(bounds.Dx(), bounds.Dy())

	i := 0
	for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
		for x := bounds.Min.X; x < bounds.Max.X; x++ {
			r, g, b, _ := img.At(x, y).RGBA()
			f.Pix[i] = byte(r >> 8)
			f.Pix[i+1] = byte(g >> 8)
			f.Pix[i+2] = byte(b >> 8)
			i += 3
		}
	}
	return f
}
