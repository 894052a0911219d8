package cursor

import (
	"context"
	"time"

	"github.com/bsod90/screenhero-sub001/pkg/input"
	"github.com/bsod90/screenhero-sub001/pkg/wireproto"
)

// Poller reads the OS cursor's current position (in the captured
// display's global rect) and shape. The concrete implementation is a
// platform collaborator outside this package's scope; Poller is the
// seam it plugs into.
type Poller interface {
	PollCursor() (x, y float64, cursorType wireproto.CursorType, err error)
}

// Tracker polls the OS cursor at a fixed interval and emits a
// cursorPosition InputEvent whenever position or shape changes,
// normalizing the polled global-space point into wire coordinates via
// pkg/input. Only a shape or position delta produces an event; a
// stationary cursor is silent.
type Tracker struct {
	poller      Poller
	state       *State
	displayRect input.Rect
	interval    time.Duration
	emit        func(wireproto.InputEvent)
}

// NewTracker constructs a Tracker. displayRect is the captured display's
// global rect, used to normalize polled coordinates. emit is called
// (from the tracker's own goroutine) for each generated InputEvent; the
// caller is expected to hand it to the Sender.
func NewTracker(poller Poller, displayRect input.Rect, interval time.Duration, emit func(wireproto.InputEvent)) *Tracker {
	return &Tracker{
		poller:      poller,
		state:       NewState(),
		displayRect: displayRect,
		interval:    interval,
		emit:        emit,
	}
}

// State returns the tracker's shared cursor state, readable from other
// goroutines (e.g. a status endpoint).
func (t *Tracker) State() *State { return t.state }

// Run polls until ctx is canceled.
func (t *Tracker) Run(ctx context.Context) {
	ticker := time.NewTicker(t.interval)
	defer ticker.Stop()

	var lastX, lastY float64
	var lastCursor wireproto.CursorType
	haveLast := false

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			x, y, cursorType, err := t.poller.PollCursor()
			if err != nil {
				continue
			}
			if haveLast && x == lastX && y == lastY && cursorType == lastCursor {
				continue
			}
			lastX, lastY, lastCursor, haveLast = x, y, cursorType, true
			t.state.Update(x, y, cursorType)

			nx, ny := input.ViewPointToNormalizedTopLeft(x, y, t.displayRect, false)
			t.emit(wireproto.InputEvent{
				Type:      wireproto.InputCursorPosition,
				Timestamp: uint64(time.Now().UnixNano()),
				X:         float32(nx),
				Y:         float32(ny),
				Button:    uint8(cursorType),
			})
		}
	}
}
