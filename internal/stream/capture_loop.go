package stream

import (
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/visionlink/camstream/internal/capture"
	"github.com/visionlink/camstream/internal/codec"
	"github.com/visionlink/camstream/internal/frame"
	"github.com/visionlink/camstream/internal/logger"
)

// CaptureLoop pulls raw frames from a capture backend into a Store on
// a background goroutine, resizing to the target resolution. It is the
// production source for local (usb) sessions.
type CaptureLoop struct {
	backend capture.Backend
	store   *frame.Store
	width   int
	height  int
	fps     int

	mu       sync.Mutex
	callback FrameCallback
	running  bool
	done     chan struct{}

	stopping atomic.Bool
	frames   atomic.Uint64
}

// NewCaptureLoop wires a backend to a store. The backend must already
// be started by the caller, which also owns stopping it.
func NewCaptureLoop(backend capture.Backend, store *frame.Store, width, height, fps int) *CaptureLoop {
	return &CaptureLoop{
		backend: backend,
		store:   store,
		width:   width,
		height:  height,
		fps:     fps,
	}
}

// SetCallback registers fn to run for every stored frame. Pass nil to
// clear. Takes effect from the next frame.
func (l *CaptureLoop) SetCallback(fn FrameCallback) {
	l.mu.Lock()
	l.callback = fn
	l.mu.Unlock()
}

// Frames reports how many frames have been captured so far.
func (l *CaptureLoop) Frames() uint64 {
	return l.frames.Load()
}

// Running reports whether the loop goroutine is active.
func (l *CaptureLoop) Running() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.running
}

// Start launches the capture goroutine.
func (l *CaptureLoop) Start() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.running {
		return fmt.Errorf("capture loop already running")
	}

	l.stopping.Store(false)
	l.done = make(chan struct{})
	l.running = true
	go l.run(l.done)

	logger.WithComponent("capture-loop").Info().
		Str("backend", l.backend.Name()).
		Int("width", l.width).
		Int("height", l.height).
		Int("fps", l.fps).
		Msg("Capture loop started")
	return nil
}

// Stop signals the loop and waits for it to exit. Shutdown latency is
// bounded by one backend read plus one frame interval. Safe to call
// repeatedly or before Start.
func (l *CaptureLoop) Stop() {
	l.mu.Lock()
	if !l.running {
		l.mu.Unlock()
		return
	}
	done := l.done
	l.mu.Unlock()

	l.stopping.Store(true)
	<-done

	l.mu.Lock()
	l.running = false
	l.mu.Unlock()

	logger.WithComponent("capture-loop").Info().
		Uint64("frames", l.frames.Load()).
		Msg("Capture loop stopped")
}

func (l *CaptureLoop) run(done chan struct{}) {
	defer close(done)
	log := logger.WithComponent("capture-loop")
	interval := frameInterval(l.fps)

	for !l.stopping.Load() {
		f, ok := l.backend.TryRead()
		if !ok {
			// Not fatal: the device had nothing for us this cycle.
			time.Sleep(interval)
			continue
		}

		f = codec.Resize(f, l.width, l.height)
		l.store.Write(f)
		l.frames.Add(1)

		l.mu.Lock()
		cb := l.callback
		l.mu.Unlock()
		invokeCallback(log, cb, f)
	}
}
