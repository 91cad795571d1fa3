package frame

import "sync"

// Store is a thread-safe single-slot holder for the most recently
// produced frame. Writes copy the frame in and reads copy it out, so
// no caller ever observes a buffer another goroutine may still touch.
// The critical section is never held across I/O.
type Store struct {
	mu     sync.Mutex
	latest *Frame
}

// NewStore returns an empty store.
func NewStore() *Store {
	return &Store{}
}

// Write replaces the stored frame with a copy of f. A nil frame is
// ignored.
func (s *Store) Write(f *Frame) {
	if f == nil {
		return
	}
	clone := f.Clone()
	s.mu.Lock()
	s.latest = clone
	s.mu.Unlock()
}

// Read returns a copy of the latest frame. The second return value is
// false only before the first successful Write; "no frame yet" is a
// normal not-ready state, not a failure.
func (s *Store) Read() (*Frame, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.latest == nil {
		return nil, false
	}
	return s.latest.Clone(), true
}
