package stream

import (
	"fmt"
	"net"
	"sync"
	"sync/atomic"
	"time"

	"github.com/visionlink/camstream/internal/capture"
	"github.com/visionlink/camstream/internal/codec"
	"github.com/visionlink/camstream/internal/frame"
	"github.com/visionlink/camstream/internal/logger"
	"github.com/visionlink/camstream/internal/wire"
)

// Server broadcasts one camera's frames to a single TCP client. It
// binds on all interfaces, accepts exactly one connection per
// streaming session, then runs the encode+send loop until the peer
// drops or StopStreaming is called. Later connection attempts sit in
// the OS accept backlog until the session ends.
type Server struct {
	port    int
	width   int
	height  int
	fps     int
	quality int

	backend capture.Backend
	store   *frame.Store

	mu       sync.Mutex
	state    State
	callback FrameCallback
	ln       net.Listener
	conn     net.Conn
	done     chan struct{}

	stopping  atomic.Bool
	frames    atomic.Uint64
	wireBytes atomic.Uint64
}

// NewServer wires a started capture backend to a TCP port. Frames are
// also written into store so a local consumer (the monitor preview,
// a registered callback) sees what is being sent.
func NewServer(backend capture.Backend, store *frame.Store, port, width, height, fps, quality int) *Server {
	return &Server{
		port:    port,
		width:   width,
		height:  height,
		fps:     fps,
		quality: quality,
		backend: backend,
		store:   store,
		state:   StateIdle,
	}
}

// SetCallback registers fn for every frame that goes out on the wire.
func (s *Server) SetCallback(fn FrameCallback) {
	s.mu.Lock()
	s.callback = fn
	s.mu.Unlock()
}

// State returns the current lifecycle state.
func (s *Server) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// IsStreaming reports whether a client is connected and being fed.
func (s *Server) IsStreaming() bool {
	return s.State() == StateStreaming
}

// Addr returns the bound listener address, or nil when idle. Useful
// when the server was started on port 0.
func (s *Server) Addr() net.Addr {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.ln == nil {
		return nil
	}
	return s.ln.Addr()
}

// Frames reports how many frames have been sent this session.
func (s *Server) Frames() uint64 {
	return s.frames.Load()
}

// WireBytes reports how many payload bytes have been written.
func (s *Server) WireBytes() uint64 {
	return s.wireBytes.Load()
}

// StartStreaming binds the listener and returns immediately; the
// accept happens asynchronously. Bind failures (port in use, no
// permission) are reported here, synchronously.
func (s *Server) StartStreaming() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != StateIdle {
		return fmt.Errorf("server is %s, not idle", s.state)
	}

	ln, err := net.Listen("tcp", fmt.Sprintf("0.0.0.0:%d", s.port))
	if err != nil {
		return fmt.Errorf("bind port %d: %w", s.port, err)
	}

	s.ln = ln
	s.state = StateListening
	s.stopping.Store(false)
	s.frames.Store(0)
	s.wireBytes.Store(0)
	s.done = make(chan struct{})
	go s.acceptAndServe(ln, s.done)

	logger.WithComponent("stream-server").Info().
		Int("port", s.port).
		Msg("Listening for a client")
	return nil
}

// StopStreaming signals the loop, closes both sockets and waits for
// the goroutine to exit. Idempotent and safe with no sockets open.
func (s *Server) StopStreaming() {
	s.mu.Lock()
	if s.state == StateIdle {
		s.mu.Unlock()
		return
	}
	s.stopping.Store(true)
	if s.conn != nil {
		s.conn.Close()
	}
	if s.ln != nil {
		s.ln.Close()
	}
	done := s.done
	s.mu.Unlock()

	if done != nil {
		<-done
	}
}

// acceptAndServe blocks on one accept, then becomes the send loop for
// that client. It restores the server to idle on the way out.
func (s *Server) acceptAndServe(ln net.Listener, done chan struct{}) {
	log := logger.WithComponent("stream-server")
	defer func() {
		s.mu.Lock()
		if s.conn != nil {
			s.conn.Close()
			s.conn = nil
		}
		s.ln.Close()
		s.ln = nil
		s.state = StateIdle
		s.mu.Unlock()
		close(done)
	}()

	conn, err := ln.Accept()
	if err != nil {
		if !s.stopping.Load() {
			log.Error().Err(err).Msg("Accept failed")
		}
		return
	}

	s.mu.Lock()
	if s.stopping.Load() {
		s.mu.Unlock()
		conn.Close()
		return
	}
	s.conn = conn
	s.state = StateStreaming
	s.mu.Unlock()

	log.Info().Str("peer", conn.RemoteAddr().String()).Msg("Client connected")
	s.sendLoop(conn)
}

func (s *Server) sendLoop(conn net.Conn) {
	log := logger.WithComponent("stream-server")
	interval := frameInterval(s.fps)

	for !s.stopping.Load() {
		f, ok := s.backend.TryRead()
		if !ok {
			time.Sleep(interval)
			continue
		}

		f = codec.Resize(f, s.width, s.height)
		s.store.Write(f)

		s.mu.Lock()
		cb := s.callback
		s.mu.Unlock()
		invokeCallback(log, cb, f)

		payload, err := codec.Encode(f, s.quality)
		if err != nil {
			// Encoder rejected this frame; drop it and keep going.
			log.Warn().Err(err).Msg("Frame encode failed")
			continue
		}

		if err := wire.WriteMessage(conn, payload); err != nil {
			// Peer gone or socket closed: the session is over. The
			// pacing sleep is skipped on a failing iteration.
			if !s.stopping.Load() {
				log.Info().Err(err).Msg("Client disconnected")
			}
			return
		}

		s.frames.Add(1)
		s.wireBytes.Add(uint64(len(payload)))
		time.Sleep(interval)
	}
}
