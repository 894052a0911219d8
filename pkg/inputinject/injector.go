package inputinject

import (
	"context"
	"fmt"
	"os/exec"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/bsod90/screenhero-sub001/pkg/input"
	"github.com/bsod90/screenhero-sub001/pkg/wireproto"
)

// evdev button codes (linux/input-event-codes.h), used by both the
// D-Bus RemoteDesktop path and the ydotool fallback.
const (
	btnLeft   int32 = 272
	btnRight  int32 = 273
	btnMiddle int32 = 274
)

// buttonHeld tracks which mouse buttons are currently down, used to
// pick the priority-ordered drag event on subsequent mouseMove events
// (spec.md §4.7: left > right > middle).
type buttonHeld struct {
	mu     sync.Mutex
	left   bool
	right  bool
	middle bool
}

func (b *buttonHeld) set(evdevButton int32, down bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	switch evdevButton {
	case btnLeft:
		b.left = down
	case btnRight:
		b.right = down
	case btnMiddle:
		b.middle = down
	}
}

// priority returns the button that should drive a drag-type move event,
// or 0 if none are held. Priority order: left > right > middle.
func (b *buttonHeld) priority() int32 {
	b.mu.Lock()
	defer b.mu.Unlock()
	switch {
	case b.left:
		return btnLeft
	case b.right:
		return btnRight
	case b.middle:
		return btnMiddle
	default:
		return 0
	}
}

// Injector maps normalized-coordinate InputEvents onto the captured
// display's global rect and synthesizes the corresponding OS event,
// preferring the GNOME Mutter RemoteDesktop D-Bus session and falling
// back to the ydotool CLI when no D-Bus session is available.
type Injector struct {
	dbus        *DBusSession
	displayRect input.Rect
	held        buttonHeld
	logger      zerolog.Logger
}

// NewInjector constructs an Injector targeting the given captured
// display's global rect. dbus may be nil, in which case every event
// goes through the ydotool fallback.
func NewInjector(dbus *DBusSession, displayRect input.Rect) *Injector {
	return &Injector{dbus: dbus, displayRect: displayRect, logger: log.With().Str("component", "inputinject").Logger()}
}

// Inject synthesizes the OS event for one received InputEvent.
func (inj *Injector) Inject(ctx context.Context, ev wireproto.InputEvent) error {
	switch ev.Type {
	case wireproto.InputMouseMove, wireproto.InputCursorPosition:
		return inj.injectMove(ev)
	case wireproto.InputMouseDown:
		return inj.injectButton(ev, true)
	case wireproto.InputMouseUp:
		return inj.injectButton(ev, false)
	case wireproto.InputScroll:
		return inj.injectScroll(ev)
	case wireproto.InputKeyDown:
		return inj.injectKey(ev, true)
	case wireproto.InputKeyUp:
		return inj.injectKey(ev, false)
	case wireproto.InputReleaseCapture:
		inj.held = buttonHeld{}
		return nil
	default:
		return fmt.Errorf("inputinject: unknown input event type %d", ev.Type)
	}
}

func (inj *Injector) injectMove(ev wireproto.InputEvent) error {
	vx, vy := input.NormalizedTopLeftToViewPoint(float64(ev.X), float64(ev.Y), inj.displayRect)

	if inj.dbus != nil {
		return inj.dbus.session().Call(remoteDesktopSessionIface+".NotifyPointerMotionAbsolute", 0, "", vx, vy).Err
	}
	return inj.ydotoolMove(vx, vy)
}

func (inj *Injector) injectButton(ev wireproto.InputEvent, down bool) error {
	evdevButton := moonlightButtonToEvdev(ev.Button)
	inj.held.set(evdevButton, down)

	if inj.dbus != nil {
		return inj.dbus.session().Call(remoteDesktopSessionIface+".NotifyPointerButton", 0, evdevButton, down).Err
	}
	return inj.ydotoolClick(ev.Button, down)
}

func (inj *Injector) injectScroll(ev wireproto.InputEvent) error {
	if inj.dbus != nil {
		// NotifyPointerAxis(dx, dy, flags); X/Y on a scroll InputEvent
		// carry the delta in wire units.
		return inj.dbus.session().Call(remoteDesktopSessionIface+".NotifyPointerAxis", 0, float64(ev.X), float64(ev.Y), uint32(0)).Err
	}
	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()
	dir := "4" // up
	if ev.Y > 0 {
		dir = "5" // down
	}
	return exec.CommandContext(ctx, "ydotool", "click", dir).Run()
}

func (inj *Injector) injectKey(ev wireproto.InputEvent, down bool) error {
	if inj.dbus != nil {
		return inj.dbus.session().Call(remoteDesktopSessionIface+".NotifyKeyboardKeycode", 0, uint32(ev.KeyCode), down).Err
	}
	state := 0
	if down {
		state = 1
	}
	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()
	return exec.CommandContext(ctx, "ydotool", "key", fmt.Sprintf("%d:%d", ev.KeyCode, state)).Run()
}

func (inj *Injector) ydotoolMove(vx, vy float64) error {
	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()
	return exec.CommandContext(ctx, "ydotool", "mousemove", "-a", "-x", fmt.Sprintf("%d", int(vx)), "-y", fmt.Sprintf("%d", int(vy))).Run()
}

func (inj *Injector) ydotoolClick(moonlightButton uint8, down bool) error {
	if down {
		// ydotool has no separate down/up for clicks at this fallback
		// tier; click is sent on button-up only, matching the teacher's
		// handleWSMouseButton behavior to avoid synthetic double-clicks.
		return nil
	}
	var code string
	switch moonlightButton {
	case 1:
		code = "0xC0"
	case 2:
		code = "0xC2"
	case 3:
		code = "0xC1"
	default:
		code = "0xC0"
	}
	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()
	return exec.CommandContext(ctx, "ydotool", "click", code).Run()
}

// moonlightButtonToEvdev converts the wire protocol's 1=left/2=middle/
// 3=right button numbering to evdev BTN_* codes, matching the teacher's
// handleWSMouseButton mapping.
func moonlightButtonToEvdev(button uint8) int32 {
	switch button {
	case 1:
		return btnLeft
	case 2:
		return btnMiddle
	case 3:
		return btnRight
	default:
		return btnLeft + int32(button) - 1
	}
}

// dragEventForHeldButton reports which drag-type synthesized event
// should drive a mouseMove while buttons are held, per the left > right
// > middle priority from spec.md §4.7 scenario F. Exposed for callers
// (e.g. logging/metrics) that need to describe the synthesized event
// kind without re-deriving the priority order.
func (inj *Injector) dragEventForHeldButton() (evdevButton int32, dragging bool) {
	b := inj.held.priority()
	return b, b != 0
}
