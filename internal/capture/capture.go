package capture

import "github.com/visionlink/camstream/internal/frame"

// Backend defines the interface for raw frame sources (physical or
// virtual cameras). Implementations are owned by a single producing
// goroutine plus the session's lifecycle methods; they do not need to
// be safe for concurrent reads.
type Backend interface {
	// Start acquires the device and any required resources
	Start() error

	// Stop releases the device; safe to call when not started
	Stop() error

	// TryRead pulls the next raw frame. A false result means no frame
	// was available this cycle, which is a normal retry condition,
	// not an error.
	TryRead() (*frame.Frame, bool)

	// Name returns a human-readable name for this backend
	Name() string
}
