package session

import (
	"errors"
	"net"
	"testing"
	"time"

	"github.com/visionlink/camstream/internal/config"
	"github.com/visionlink/camstream/internal/frame"
)

func syntheticConfig(mode string) config.Config {
	cfg := *config.Defaults()
	cfg.Mode = mode
	cfg.Synthetic = true
	cfg.Width = 32
	cfg.Height = 32
	cfg.FPS = 0 // frames available immediately
	if mode == "server" {
		cfg.Port = 0 // OS-assigned, avoids collisions
	}
	if mode == "client" {
		cfg.ServerIP = "127.0.0.1"
	}
	return cfg
}

func TestParseMode(t *testing.T) {
	tests := []struct {
		in      string
		want    Mode
		wantErr bool
	}{
		{"usb", ModeUSB, false},
		{"server", ModeServer, false},
		{"client", ModeClient, false},
		{"", "", true},
		{"USB", "", true},
		{"broadcast", "", true},
	}
	for _, tt := range tests {
		got, err := ParseMode(tt.in)
		if (err != nil) != tt.wantErr {
			t.Errorf("ParseMode(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
		}
		if got != tt.want {
			t.Errorf("ParseMode(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestNewRejectsBadConfig(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*config.Config)
	}{
		{"invalid mode", func(c *config.Config) { c.Mode = "p2p" }},
		{"client without ip", func(c *config.Config) { c.Mode = "client"; c.ServerIP = "" }},
		{"bad port", func(c *config.Config) { c.Mode = "server"; c.Port = -5 }},
		{"bad quality", func(c *config.Config) { c.Quality = 0 }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := syntheticConfig("usb")
			tt.mutate(&cfg)
			if _, err := New(cfg); err == nil {
				t.Error("New() expected configuration error, got nil")
			}
		})
	}
}

func TestUSBModeProducesFrames(t *testing.T) {
	s, err := New(syntheticConfig("usb"))
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	defer s.Close()

	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if _, ok, _ := s.GetFrame(); ok {
			return
		}
		time.Sleep(2 * time.Millisecond)
	}
	t.Fatal("no frame produced in usb mode")
}

func TestUSBModeRejectsServerCalls(t *testing.T) {
	s, err := New(syntheticConfig("usb"))
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	defer s.Close()

	if err := s.StartStreaming(); !errors.Is(err, ErrWrongMode) {
		t.Errorf("StartStreaming() in usb mode error = %v, want ErrWrongMode", err)
	}
	if err := s.Connect(); !errors.Is(err, ErrWrongMode) {
		t.Errorf("Connect() in usb mode error = %v, want ErrWrongMode", err)
	}
}

func TestServerModeRejectsGetFrame(t *testing.T) {
	s, err := New(syntheticConfig("server"))
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	defer s.Close()

	if _, _, err := s.GetFrame(); !errors.Is(err, ErrWrongMode) {
		t.Errorf("GetFrame() in server mode error = %v, want ErrWrongMode", err)
	}
}

func TestClientGetFrameBeforeDataIsNotReady(t *testing.T) {
	s, err := New(syntheticConfig("client"))
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	defer s.Close()

	f, ok, err := s.GetFrame()
	if err != nil {
		t.Fatalf("GetFrame() error = %v, want not-ready without error", err)
	}
	if ok || f != nil {
		t.Error("GetFrame() before any data should report not ready")
	}
}

func TestCloseIsIdempotent(t *testing.T) {
	for _, mode := range []string{"usb", "server", "client"} {
		t.Run(mode, func(t *testing.T) {
			s, err := New(syntheticConfig(mode))
			if err != nil {
				t.Fatalf("New() error = %v", err)
			}
			if err := s.Close(); err != nil {
				t.Errorf("first Close() error = %v", err)
			}
			if err := s.Close(); err != nil {
				t.Errorf("second Close() error = %v", err)
			}
		})
	}
}

func TestOperationsAfterClose(t *testing.T) {
	s, err := New(syntheticConfig("server"))
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	s.Close()

	if err := s.StartStreaming(); !errors.Is(err, ErrClosed) {
		t.Errorf("StartStreaming() after Close error = %v, want ErrClosed", err)
	}
	if _, _, err := s.GetFrame(); !errors.Is(err, ErrClosed) {
		t.Errorf("GetFrame() after Close error = %v, want ErrClosed", err)
	}
	if err := s.SetFrameCallback(func(*frame.Frame) {}); !errors.Is(err, ErrClosed) {
		t.Errorf("SetFrameCallback() after Close error = %v, want ErrClosed", err)
	}
}

func TestServerToClientEndToEnd(t *testing.T) {
	srv, err := New(syntheticConfig("server"))
	if err != nil {
		t.Fatalf("New(server) error = %v", err)
	}
	defer srv.Close()

	if err := srv.StartStreaming(); err != nil {
		t.Fatalf("StartStreaming() error = %v", err)
	}

	info := srv.Info()
	if info.State != "listening" {
		t.Fatalf("server state = %s, want listening", info.State)
	}

	// Session-level client pointed at the session-level server.
	port := serverPort(t, srv)
	clientCfg := syntheticConfig("client")
	clientCfg.Port = port
	cli, err := New(clientCfg)
	if err != nil {
		t.Fatalf("New(client) error = %v", err)
	}
	defer cli.Close()

	received := make(chan struct{}, 1)
	err = cli.SetFrameCallback(func(f *frame.Frame) {
		select {
		case received <- struct{}{}:
		default:
		}
	})
	if err != nil {
		t.Fatalf("SetFrameCallback() error = %v", err)
	}

	if err := cli.Connect(); err != nil {
		t.Fatalf("Connect() error = %v", err)
	}

	select {
	case <-received:
	case <-time.After(5 * time.Second):
		t.Fatal("no frame arrived at the client callback")
	}

	if f, ok, err := cli.GetFrame(); err != nil || !ok {
		t.Fatalf("GetFrame() = (%v, %v, %v), want a frame", f, ok, err)
	} else if f.Width != 32 || f.Height != 32 {
		t.Errorf("received frame is %dx%d, want 32x32", f.Width, f.Height)
	}

	if err := srv.StopStreaming(); err != nil {
		t.Fatalf("StopStreaming() error = %v", err)
	}
	if srv.IsStreaming() {
		t.Error("server still streaming after StopStreaming()")
	}
}

func serverPort(t *testing.T, s *Session) int {
	t.Helper()
	// The listener address is reachable through the underlying server
	// component; sessions on port 0 need it to learn the bound port.
	addr := s.ServerAddr()
	if addr == nil {
		t.Fatal("server session has no bound address")
	}
	return addr.(*net.TCPAddr).Port
}
