package capture

import "testing"

func TestSyntheticLifecycle(t *testing.T) {
	s := NewSynthetic(16, 12, 0)

	if _, ok := s.TryRead(); ok {
		t.Error("TryRead() before Start() should miss")
	}

	if err := s.Start(); err != nil {
		t.Fatalf("Start() error = %v", err)
	}

	f, ok := s.TryRead()
	if !ok {
		t.Fatal("TryRead() after Start() should yield a frame")
	}
	if f.Width != 16 || f.Height != 12 || f.Channels != 3 {
		t.Errorf("frame geometry = %dx%dx%d, want 16x12x3", f.Width, f.Height, f.Channels)
	}
	if err := f.Validate(); err != nil {
		t.Errorf("generated frame invalid: %v", err)
	}

	if err := s.Stop(); err != nil {
		t.Fatalf("Stop() error = %v", err)
	}
	if _, ok := s.TryRead(); ok {
		t.Error("TryRead() after Stop() should miss")
	}
}

func TestSyntheticFramesVary(t *testing.T) {
	s := NewSynthetic(4, 4, 0)
	if err := s.Start(); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	defer s.Stop()

	a, _ := s.TryRead()
	b, _ := s.TryRead()
	if a.Pix[0] == b.Pix[0] && a.Pix[1] == b.Pix[1] && a.Pix[2] == b.Pix[2] {
		t.Error("consecutive frames should differ in color")
	}
}
