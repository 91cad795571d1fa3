package codec

import (
	"testing"

	"github.com/visionlink/camstream/internal/frame"
)

func solidFrame(w, h int, r, g, b byte) *frame.Frame {
	f := frame.NewRGB(w, h)
	f.Fill(r, g, b)
	return f
}

func meanPixel(f *frame.Frame) float64 {
	var sum int
	for _, p := range f.Pix {
		sum += int(p)
	}
	return float64(sum) / float64(len(f.Pix))
}

func TestEncodeDecodeStructuralRoundTrip(t *testing.T) {
	tests := []struct {
		name    string
		width   int
		height  int
		quality int
	}{
		{"vga quality 80", 64, 48, 80},
		{"square lowest quality", 32, 32, 1},
		{"square highest quality", 32, 32, 100},
		{"non-square", 17, 9, 50},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			src := solidFrame(tt.width, tt.height, 120, 60, 200)

			payload, err := Encode(src, tt.quality)
			if err != nil {
				t.Fatalf("Encode() error = %v", err)
			}
			if len(payload) == 0 {
				t.Fatal("Encode() returned empty payload")
			}

			got, err := Decode(payload)
			if err != nil {
				t.Fatalf("Decode() error = %v", err)
			}
			if got.Width != tt.width || got.Height != tt.height || got.Channels != 3 {
				t.Errorf("decoded geometry = %dx%dx%d, want %dx%dx3",
					got.Width, got.Height, got.Channels, tt.width, tt.height)
			}
		})
	}
}

func TestEncodeDecodePreservesColorApproximately(t *testing.T) {
	src := solidFrame(64, 64, 200, 50, 50)

	payload, err := Encode(src, 80)
	if err != nil {
		t.Fatalf("Encode() error = %v", err)
	}
	got, err := Decode(payload)
	if err != nil {
		t.Fatalf("Decode() error = %v", err)
	}

	srcMean := meanPixel(src)
	gotMean := meanPixel(got)
	if diff := gotMean - srcMean; diff > 5 || diff < -5 {
		t.Errorf("mean pixel drifted from %.1f to %.1f, want within ±5", srcMean, gotMean)
	}
}

func TestEncodeQualityBounds(t *testing.T) {
	src := solidFrame(8, 8, 0, 0, 0)
	for _, q := range []int{0, -1, 101} {
		if _, err := Encode(src, q); err == nil {
			t.Errorf("Encode(quality=%d) expected error, got nil", q)
		}
	}
}

func TestEncodeInvalidFrame(t *testing.T) {
	bad := &frame.Frame{Width: 4, Height: 4, Channels: 3, Pix: make([]byte, 5)}
	if _, err := Encode(bad, 80); err == nil {
		t.Error("Encode() of malformed frame expected error, got nil")
	}
}

func TestDecodeCorruptPayload(t *testing.T) {
	tests := []struct {
		name    string
		payload []byte
	}{
		{"empty", nil},
		{"garbage", []byte("definitely not a jpeg")},
		{"truncated jpeg", func() []byte {
			p, err := Encode(solidFrame(16, 16, 1, 2, 3), 80)
			if err != nil {
				panic(err)
			}
			return p[:len(p)/2]
		}()},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := Decode(tt.payload); err == nil {
				t.Error("Decode() of corrupt payload expected error, got nil")
			}
		})
	}
}

func TestResize(t *testing.T) {
	src := solidFrame(40, 30, 90, 90, 90)

	got := Resize(src, 64, 64)
	if got.Width != 64 || got.Height != 64 {
		t.Fatalf("Resize() geometry = %dx%d, want 64x64", got.Width, got.Height)
	}
	// A solid color survives interpolation exactly.
	if got.Pix[0] != 90 {
		t.Errorf("Resize() pixel = %d, want 90", got.Pix[0])
	}
}

func TestResizeNoopAtTargetSize(t *testing.T) {
	src := solidFrame(64, 64, 1, 2, 3)
	if got := Resize(src, 64, 64); got != src {
		t.Error("Resize() at target size should return the frame unchanged")
	}
}
