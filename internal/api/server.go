// Package api serves the optional monitor HTTP endpoint: session
// state and stats as JSON, a live MJPEG preview of the frame store,
// and a websocket pushing periodic stats. The monitor is a read-only
// second consumer of the session; it never touches the wire protocol.
package api

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"

	"github.com/visionlink/camstream/internal/config"
	"github.com/visionlink/camstream/internal/logger"
	"github.com/visionlink/camstream/internal/session"
)

// Server represents the monitor HTTP server
type Server struct {
	router   *mux.Router
	sess     *session.Session
	cfg      config.Config
	upgrader websocket.Upgrader
	httpSrv  *http.Server
}

// NewServer creates a monitor server for one session.
func NewServer(sess *session.Session, cfg config.Config) *Server {
	s := &Server{
		router: mux.NewRouter(),
		sess:   sess,
		cfg:    cfg,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool {
				return true // local monitoring endpoint, any origin
			},
		},
	}

	s.setupRoutes()
	return s
}

func (s *Server) setupRoutes() {
	api := s.router.PathPrefix("/api").Subrouter()
	api.HandleFunc("/health", s.handleHealth).Methods("GET")
	api.HandleFunc("/session", s.handleSession).Methods("GET")
	api.HandleFunc("/config", s.handleConfig).Methods("GET")
	api.HandleFunc("/session/ws", s.handleSessionStream)

	s.router.HandleFunc("/stream", s.handleMJPEG).Methods("GET")
	s.router.HandleFunc("/", s.handleIndex).Methods("GET")
}

// Start runs the server until Stop or a listener error. It blocks.
func (s *Server) Start(port int) error {
	addr := fmt.Sprintf(":%d", port)
	s.httpSrv = &http.Server{Addr: addr, Handler: s.router}

	logger.WithComponent("monitor").Info().
		Int("port", port).
		Msg("Monitor HTTP server listening")
	if err := s.httpSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

// Stop shuts the server down, letting in-flight requests finish.
func (s *Server) Stop(ctx context.Context) error {
	if s.httpSrv == nil {
		return nil
	}
	return s.httpSrv.Shutdown(ctx)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{"status": "healthy"})
}

func (s *Server) handleSession(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(s.sess.Info())
}

func (s *Server) handleConfig(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(s.cfg)
}

// handleSessionStream pushes session stats over a websocket once a
// second until the peer goes away.
func (s *Server) handleSessionStream(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		logger.WithComponent("monitor").Warn().Err(err).Msg("WebSocket upgrade failed")
		return
	}
	defer conn.Close()

	if err := conn.WriteJSON(s.sess.Info()); err != nil {
		return
	}

	ticker := time.NewTicker(time.Second)
	defer ticker.Stop()
	for {
		select {
		case <-r.Context().Done():
			return
		case <-ticker.C:
			if err := conn.WriteJSON(s.sess.Info()); err != nil {
				return
			}
		}
	}
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	fmt.Fprintf(w, `<!DOCTYPE html>
<html lang="en">
<head>
    <meta charset="UTF-8">
    <title>camstream</title>
    <style>
        body { font-family: monospace; padding: 20px; background: #1e1e1e; color: #d4d4d4; }
        a { color: #569cd6; }
        img { border: 1px solid #333; margin-top: 16px; }
    </style>
</head>
<body>
    <h1>camstream monitor</h1>
    <ul>
        <li><a href="/api/health">/api/health</a></li>
        <li><a href="/api/session">/api/session</a></li>
        <li><a href="/api/config">/api/config</a></li>
        <li><a href="/stream">/stream</a> (MJPEG preview)</li>
    </ul>
    <img src="/stream" alt="live preview" width="%d" height="%d">
</body>
</html>`, s.cfg.Width, s.cfg.Height)
}
