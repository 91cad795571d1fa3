// Package stream contains the three long-running frame loops: local
// capture into the store, the single-client TCP send loop, and the
// receive/decode loop on the other end. Each loop runs on its own
// goroutine and stops cooperatively via a flag checked once per
// iteration; closing the underlying socket bounds shutdown latency to
// the one blocking call in flight.
package stream

import (
	"time"

	"github.com/rs/zerolog"

	"github.com/visionlink/camstream/internal/frame"
)

// State describes where a loop is in its lifecycle.
type State int32

const (
	StateIdle State = iota
	StateListening
	StateStreaming
	StateConnected
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateListening:
		return "listening"
	case StateStreaming:
		return "streaming"
	case StateConnected:
		return "connected"
	default:
		return "unknown"
	}
}

// FrameCallback is invoked on the producing or consuming goroutine for
// every frame that reaches the store. It must not block materially;
// panics are caught and logged, never propagated past the loop.
type FrameCallback func(*frame.Frame)

// defaultFPS is used for pacing when the configured fps is zero or
// negative.
const defaultFPS = 30

// frameInterval converts an advisory fps into a pacing sleep.
func frameInterval(fps int) time.Duration {
	if fps <= 0 {
		fps = defaultFPS
	}
	return time.Second / time.Duration(fps)
}

// invokeCallback runs cb under a recover barrier so a misbehaving
// consumer can never halt production.
func invokeCallback(log *zerolog.Logger, cb FrameCallback, f *frame.Frame) {
	if cb == nil {
		return
	}
	defer func() {
		if r := recover(); r != nil {
			log.Warn().Interface("panic", r).Msg("frame callback panicked")
		}
	}()
	cb(f)
}
