package capture

import (
	"sync/atomic"
	"time"

	"github.com/visionlink/camstream/internal/frame"
)

// Synthetic generates deterministic solid-color frames, cycling a
// small palette one frame at a time. It stands in for a camera in
// tests and when running with --synthetic on machines without one.
// With fps > 0 each TryRead blocks one frame interval, mimicking a
// real device's delivery rate.
type Synthetic struct {
	width    int
	height   int
	interval time.Duration
	counter  atomic.Uint64
	started  atomic.Bool
}

var palette = [][3]byte{
	{220, 40, 40},
	{40, 220, 40},
	{40, 40, 220},
	{200, 200, 40},
	{40, 200, 200},
}

// NewSynthetic creates a generator producing frames of the given size
// at the given rate; fps <= 0 means frames are available immediately.
func NewSynthetic(width, height, fps int) *Synthetic {
	s := &Synthetic{width: width, height: height}
	if fps > 0 {
		s.interval = time.Second / time.Duration(fps)
	}
	return s
}

func (s *Synthetic) Start() error {
	s.started.Store(true)
	return nil
}

func (s *Synthetic) Stop() error {
	s.started.Store(false)
	return nil
}

// TryRead always yields a frame while started. Each call advances the
// palette so consecutive frames are distinguishable.
func (s *Synthetic) TryRead() (*frame.Frame, bool) {
	if !s.started.Load() {
		return nil, false
	}
	if s.interval > 0 {
		time.Sleep(s.interval)
	}
	c := palette[s.counter.Add(1)%uint64(len(palette))]
	f := frame.NewRGB(s.width, s.height)
	f.Fill(c[0], c[1], c[2])
	return f, true
}

func (s *Synthetic) Name() string {
	return "synthetic"
}
