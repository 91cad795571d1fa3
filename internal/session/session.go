// Package session provides the single facade over the three camera
// operating modes: local capture (usb), network server and network
// client. A session picks its mode at construction and dispatches
// every operation to the matching component; calls that make no sense
// in the active mode are usage errors.
package session

import (
	"errors"
	"fmt"
	"net"
	"strconv"
	"sync"
	"time"

	"github.com/visionlink/camstream/internal/capture"
	"github.com/visionlink/camstream/internal/config"
	"github.com/visionlink/camstream/internal/frame"
	"github.com/visionlink/camstream/internal/logger"
	"github.com/visionlink/camstream/internal/stream"
)

// Mode selects which component tree a session builds.
type Mode string

const (
	ModeUSB    Mode = "usb"
	ModeServer Mode = "server"
	ModeClient Mode = "client"
)

// ParseMode maps a config string onto a Mode.
func ParseMode(s string) (Mode, error) {
	switch Mode(s) {
	case ModeUSB, ModeServer, ModeClient:
		return Mode(s), nil
	default:
		return "", fmt.Errorf("invalid mode %q", s)
	}
}

var (
	// ErrWrongMode reports an operation invalid in the session's mode.
	ErrWrongMode = errors.New("operation not valid in this mode")

	// ErrClosed reports use of a session after Close.
	ErrClosed = errors.New("session is closed")
)

// Session owns one camera pipeline: the capture backend or socket, the
// frame store, and the background loops of its mode. All cleanup paths
// funnel through Close, which is idempotent and guarantees no
// goroutine, socket or capture handle outlives the session.
type Session struct {
	mode  Mode
	cfg   config.Config
	store *frame.Store

	backend capture.Backend
	loop    *stream.CaptureLoop
	server  *stream.Server
	client  *stream.Client

	started time.Time
	mu      sync.Mutex
	closed  bool
}

// Info is a point-in-time snapshot of a session for callers and the
// monitor API.
type Info struct {
	Mode       string `json:"mode"`
	State      string `json:"state"`
	Backend    string `json:"backend,omitempty"`
	ServerAddr string `json:"server_addr,omitempty"`
	Width      int    `json:"width"`
	Height     int    `json:"height"`
	FPS        int    `json:"fps"`
	Quality    int    `json:"quality,omitempty"`
	Frames     uint64 `json:"frames"`
	WireBytes  uint64 `json:"wire_bytes,omitempty"`
	UptimeSec  int64  `json:"uptime_sec"`
}

// New builds a session for the configured mode. Configuration errors
// (bad mode, missing server_ip, invalid port) and device-open failures
// are returned synchronously; everything after construction surfaces
// through state transitions and logs.
func New(cfg config.Config) (*Session, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	mode, err := ParseMode(cfg.Mode)
	if err != nil {
		return nil, err
	}

	s := &Session{
		mode:    mode,
		cfg:     cfg,
		store:   frame.NewStore(),
		started: time.Now(),
	}

	switch mode {
	case ModeUSB, ModeServer:
		s.backend = newBackend(cfg)
		if err := s.backend.Start(); err != nil {
			return nil, fmt.Errorf("start capture backend: %w", err)
		}
		if mode == ModeUSB {
			s.loop = stream.NewCaptureLoop(s.backend, s.store, cfg.Width, cfg.Height, cfg.FPS)
			if err := s.loop.Start(); err != nil {
				s.backend.Stop()
				return nil, err
			}
		} else {
			s.server = stream.NewServer(s.backend, s.store,
				cfg.Port, cfg.Width, cfg.Height, cfg.FPS, cfg.Quality)
		}
	case ModeClient:
		addr := net.JoinHostPort(cfg.ServerIP, strconv.Itoa(cfg.Port))
		s.client = stream.NewClient(addr, s.store)
	}

	logger.WithComponent("session").Info().
		Str("mode", string(mode)).
		Int("width", cfg.Width).
		Int("height", cfg.Height).
		Msg("Session created")
	return s, nil
}

func newBackend(cfg config.Config) capture.Backend {
	if cfg.Synthetic {
		return capture.NewSynthetic(cfg.Width, cfg.Height, cfg.FPS)
	}
	return capture.NewUVC(cfg.CameraIndex, cfg.Width, cfg.Height)
}

// Mode returns the session's operating mode.
func (s *Session) Mode() Mode {
	return s.mode
}

// Store exposes the session's frame store for read-only consumers
// such as the monitor preview.
func (s *Session) Store() *frame.Store {
	return s.store
}

// GetFrame returns a copy of the latest frame in usb and client modes.
// ok is false while no frame has arrived yet, which is a normal
// not-ready state. In server mode the call is a usage error.
func (s *Session) GetFrame() (f *frame.Frame, ok bool, err error) {
	if s.isClosed() {
		return nil, false, ErrClosed
	}
	if s.mode == ModeServer {
		return nil, false, fmt.Errorf("get frame in server mode: %w", ErrWrongMode)
	}
	f, ok = s.store.Read()
	return f, ok, nil
}

// Connect dials the configured server (client mode only). A failed
// connect is recoverable; the caller may retry.
func (s *Session) Connect() error {
	if s.isClosed() {
		return ErrClosed
	}
	if s.mode != ModeClient {
		return fmt.Errorf("connect in %s mode: %w", s.mode, ErrWrongMode)
	}
	return s.client.Connect()
}

// StartStreaming opens the listening socket (server mode only).
func (s *Session) StartStreaming() error {
	if s.isClosed() {
		return ErrClosed
	}
	if s.mode != ModeServer {
		return fmt.Errorf("start streaming in %s mode: %w", s.mode, ErrWrongMode)
	}
	return s.server.StartStreaming()
}

// StopStreaming tears the stream down (server mode only); idempotent.
func (s *Session) StopStreaming() error {
	if s.isClosed() {
		return ErrClosed
	}
	if s.mode != ModeServer {
		return fmt.Errorf("stop streaming in %s mode: %w", s.mode, ErrWrongMode)
	}
	s.server.StopStreaming()
	return nil
}

// IsStreaming reports whether a server session is feeding a client.
func (s *Session) IsStreaming() bool {
	return s.mode == ModeServer && s.server.IsStreaming()
}

// ServerAddr returns the bound listener address of a server session,
// or nil in the other modes or while idle.
func (s *Session) ServerAddr() net.Addr {
	if s.mode != ModeServer {
		return nil
	}
	return s.server.Addr()
}

// SetFrameCallback registers fn to run on the producing or consuming
// goroutine for every frame. fn must not block materially; panics are
// caught and logged.
func (s *Session) SetFrameCallback(fn stream.FrameCallback) error {
	if s.isClosed() {
		return ErrClosed
	}
	switch s.mode {
	case ModeUSB:
		s.loop.SetCallback(fn)
	case ModeServer:
		s.server.SetCallback(fn)
	case ModeClient:
		s.client.SetCallback(fn)
	}
	return nil
}

// Info snapshots the session for display.
func (s *Session) Info() Info {
	info := Info{
		Mode:      string(s.mode),
		State:     s.state().String(),
		Width:     s.cfg.Width,
		Height:    s.cfg.Height,
		FPS:       s.cfg.FPS,
		UptimeSec: int64(time.Since(s.started).Seconds()),
	}

	switch s.mode {
	case ModeUSB:
		info.Backend = s.backend.Name()
		info.Quality = s.cfg.Quality
		info.Frames = s.loop.Frames()
	case ModeServer:
		info.Backend = s.backend.Name()
		info.Quality = s.cfg.Quality
		info.Frames = s.server.Frames()
		info.WireBytes = s.server.WireBytes()
	case ModeClient:
		info.ServerAddr = net.JoinHostPort(s.cfg.ServerIP, strconv.Itoa(s.cfg.Port))
		info.Frames = s.client.Frames()
	}
	return info
}

func (s *Session) state() stream.State {
	switch s.mode {
	case ModeUSB:
		if s.loop.Running() {
			return stream.StateStreaming
		}
		return stream.StateIdle
	case ModeServer:
		return s.server.State()
	case ModeClient:
		return s.client.State()
	}
	return stream.StateIdle
}

func (s *Session) isClosed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closed
}

// Close stops every background loop, closes every socket and releases
// the capture handle. Idempotent: the second and later calls return
// nil without doing anything. This is the one contract every other
// component relies on for final cleanup.
func (s *Session) Close() error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil
	}
	s.closed = true
	s.mu.Unlock()

	switch s.mode {
	case ModeUSB:
		s.loop.Stop()
	case ModeServer:
		s.server.StopStreaming()
	case ModeClient:
		s.client.Disconnect()
	}

	var err error
	if s.backend != nil {
		err = s.backend.Stop()
	}

	logger.WithComponent("session").Info().
		Str("mode", string(s.mode)).
		Msg("Session closed")
	return err
}
