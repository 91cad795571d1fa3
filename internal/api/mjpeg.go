package api

import (
	"fmt"
	"net/http"
	"time"

	"github.com/visionlink/camstream/internal/codec"
	"github.com/visionlink/camstream/internal/logger"
)

// previewQuality is deliberately modest; the preview is a diagnostic
// surface, not the delivery path.
const previewQuality = 75

// handleMJPEG streams the frame store as Motion JPEG so the preview
// opens in any browser. Each connected viewer runs its own loop off
// the store; a viewer that stalls only stalls itself.
func (s *Server) handleMJPEG(w http.ResponseWriter, r *http.Request) {
	log := logger.WithComponent("monitor")

	w.Header().Set("Content-Type", "multipart/x-mixed-replace; boundary=frame")
	w.Header().Set("Cache-Control", "no-cache, no-store, must-revalidate")
	w.Header().Set("Pragma", "no-cache")
	w.Header().Set("Connection", "close")

	flusher, _ := w.(http.Flusher)

	fps := s.cfg.FPS
	if fps <= 0 {
		fps = 30
	}
	interval := time.Second / time.Duration(fps)

	log.Debug().Str("peer", r.RemoteAddr).Msg("Preview viewer connected")
	defer log.Debug().Str("peer", r.RemoteAddr).Msg("Preview viewer disconnected")

	for {
		select {
		case <-r.Context().Done():
			return
		default:
		}

		f, ok := s.sess.Store().Read()
		if !ok {
			// Nothing captured or received yet.
			time.Sleep(interval)
			continue
		}

		jpegData, err := codec.Encode(f, previewQuality)
		if err != nil {
			log.Warn().Err(err).Msg("Preview encode failed")
			time.Sleep(interval)
			continue
		}

		if _, err := fmt.Fprintf(w, "--frame\r\nContent-Type: image/jpeg\r\nContent-Length: %d\r\n\r\n", len(jpegData)); err != nil {
			return
		}
		if _, err := w.Write(jpegData); err != nil {
			return
		}
		if _, err := fmt.Fprintf(w, "\r\n"); err != nil {
			return
		}
		if flusher != nil {
			flusher.Flush()
		}

		time.Sleep(interval)
	}
}
