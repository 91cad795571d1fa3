package stream

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"net"
	"sync"
	"sync/atomic"
	"time"

	"github.com/visionlink/camstream/internal/codec"
	"github.com/visionlink/camstream/internal/frame"
	"github.com/visionlink/camstream/internal/logger"
	"github.com/visionlink/camstream/internal/wire"
)

// dialTimeout bounds Connect so an unreachable server fails fast
// instead of hanging on OS defaults.
const dialTimeout = 5 * time.Second

// Client connects to a stream server and decodes its frames into a
// Store, strictly in arrival order. If decoding falls behind, TCP flow
// control throttles the sender; the client never reorders or skips.
// There is no automatic reconnect.
type Client struct {
	addr  string
	store *frame.Store

	mu       sync.Mutex
	state    State
	callback FrameCallback
	conn     net.Conn
	done     chan struct{}

	stopping atomic.Bool
	frames   atomic.Uint64
}

// NewClient prepares a client for the given server address in
// "host:port" form.
func NewClient(addr string, store *frame.Store) *Client {
	return &Client{addr: addr, store: store, state: StateIdle}
}

// SetCallback registers fn to run for every decoded frame.
func (c *Client) SetCallback(fn FrameCallback) {
	c.mu.Lock()
	c.callback = fn
	c.mu.Unlock()
}

// State returns the current lifecycle state.
func (c *Client) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// IsConnected reports whether the receive loop is live.
func (c *Client) IsConnected() bool {
	return c.State() == StateConnected
}

// Frames reports how many frames have been decoded this connection.
func (c *Client) Frames() uint64 {
	return c.frames.Load()
}

// Connect dials the server and starts the receive loop. A refused or
// unreachable server is a recoverable failure: the client stays idle
// and the caller may retry.
func (c *Client) Connect() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state != StateIdle {
		return fmt.Errorf("client is %s, not idle", c.state)
	}

	conn, err := net.DialTimeout("tcp", c.addr, dialTimeout)
	if err != nil {
		return fmt.Errorf("connect to %s: %w", c.addr, err)
	}

	c.conn = conn
	c.state = StateConnected
	c.stopping.Store(false)
	c.frames.Store(0)
	c.done = make(chan struct{})
	go c.recvLoop(conn, c.done)

	logger.WithComponent("stream-client").Info().
		Str("server", c.addr).
		Msg("Connected")
	return nil
}

// Disconnect closes the connection and waits for the receive loop to
// exit. Idempotent; safe to call while already idle.
func (c *Client) Disconnect() {
	c.mu.Lock()
	if c.state == StateIdle {
		c.mu.Unlock()
		return
	}
	c.stopping.Store(true)
	if c.conn != nil {
		c.conn.Close()
	}
	done := c.done
	c.mu.Unlock()

	if done != nil {
		<-done
	}
}

// recvLoop consumes framed messages until the stream ends. A corrupt
// payload drops that one frame; a framing-level error means the reader
// lost message alignment and the connection is closed.
func (c *Client) recvLoop(conn net.Conn, done chan struct{}) {
	log := logger.WithComponent("stream-client")
	defer func() {
		conn.Close()
		c.mu.Lock()
		c.conn = nil
		c.state = StateIdle
		c.mu.Unlock()
		close(done)
		log.Info().Uint64("frames", c.frames.Load()).Msg("Receive loop ended")
	}()

	r := bufio.NewReaderSize(conn, 64*1024)
	for !c.stopping.Load() {
		payload, err := wire.ReadMessage(r)
		if err != nil {
			switch {
			case c.stopping.Load():
				// Local disconnect closed the socket under us.
			case errors.Is(err, io.EOF):
				log.Info().Msg("Server closed the stream")
			default:
				log.Warn().Err(err).Msg("Stream read failed")
			}
			return
		}

		f, err := codec.Decode(payload)
		if err != nil {
			// Framing was intact, so we are still aligned on message
			// boundaries; drop this frame and keep reading.
			log.Warn().Err(err).Int("bytes", len(payload)).Msg("Frame decode failed")
			continue
		}

		c.store.Write(f)
		c.frames.Add(1)

		c.mu.Lock()
		cb := c.callback
		c.mu.Unlock()
		invokeCallback(log, cb, f)
	}
}
