// Package cursor tracks the host's OS cursor and turns position/shape
// changes into outbound cursorPosition InputEvents (spec.md §2 host-side
// stage list, item 5: CursorTracker).
package cursor

import (
	"sync"

	"github.com/bsod90/screenhero-sub001/pkg/wireproto"
)

// State holds the most recently observed cursor position and shape,
// shared between the poller goroutine and anything that wants to read
// it (e.g. a status endpoint). Grounded on the teacher's CursorState
// singleton, generalized from a package-global to an explicit value so
// multiple pipeline instances don't share state.
type State struct {
	mu     sync.RWMutex
	x, y   float64
	cursor wireproto.CursorType
}

// NewState constructs a State with the default arrow cursor.
func NewState() *State {
	return &State{cursor: wireproto.CursorArrow}
}

// Update sets position and shape together.
func (s *State) Update(x, y float64, cursorType wireproto.CursorType) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.x, s.y, s.cursor = x, y, cursorType
}

// UpdatePosition sets only the position.
func (s *State) UpdatePosition(x, y float64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.x, s.y = x, y
}

// UpdateShape sets only the cursor shape.
func (s *State) UpdateShape(cursorType wireproto.CursorType) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cursor = cursorType
}

// Get returns the current position and shape.
func (s *State) Get() (x, y float64, cursorType wireproto.CursorType) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.x, s.y, s.cursor
}
