package wireproto

import (
	"encoding/binary"
	"fmt"
	"math"
)

// InputEventType enumerates the fixed-record input event kinds carried on SHIP.
type InputEventType uint8

const (
	InputMouseMove InputEventType = iota
	InputMouseDown
	InputMouseUp
	InputScroll
	InputKeyDown
	InputKeyUp
	InputReleaseCapture
	InputCursorPosition
)

// CursorType enumerates the proxy-cursor shapes carried by cursorPosition
// events in the Button field (spec.md §4.7).
type CursorType uint8

const (
	CursorArrow CursorType = iota
	CursorIBeam
	CursorCrosshair
	CursorPointingHand
	CursorResizeLR
	CursorResizeUD
)

// Modifier bitmask values, spec.md §6.
const (
	ModShift  uint8 = 1 << 0
	ModCtrl   uint8 = 1 << 1
	ModOption uint8 = 1 << 2
	ModCmd    uint8 = 1 << 3
)

// inputEventSize is the fixed 28-byte SHIP record, spec.md §3/§6.
const inputEventSize = 28

// InputEvent is the fixed 28-byte wire record for mouse/keyboard/scroll/cursor
// events. For InputCursorPosition, Button carries the CursorType instead of a
// mouse button number (there is no spare field in the 28-byte layout).
type InputEvent struct {
	Type      InputEventType
	Timestamp uint64 // nanoseconds
	X, Y      float32
	Button    uint8
	KeyCode   uint16
	Modifiers uint8
}

// Serialize encodes the event into its 28-byte SHIP wire form.
func (e InputEvent) Serialize() []byte {
	buf := make([]byte, inputEventSize)
	binary.BigEndian.PutUint32(buf[0:4], uint32(MagicInputEvent))
	buf[4] = uint8(e.Type)
	// buf[5:8] reserved padding, left zero
	binary.BigEndian.PutUint64(buf[8:16], e.Timestamp)
	binary.BigEndian.PutUint32(buf[16:20], math.Float32bits(e.X))
	binary.BigEndian.PutUint32(buf[20:24], math.Float32bits(e.Y))
	buf[24] = e.Button
	binary.BigEndian.PutUint16(buf[25:27], e.KeyCode)
	buf[27] = e.Modifiers
	return buf
}

// DeserializeInputEvent decodes a SHIP datagram.
func DeserializeInputEvent(buf []byte) (InputEvent, error) {
	if len(buf) != inputEventSize {
		return InputEvent{}, fmt.Errorf("wireproto: SHIP record must be %d bytes, got %d", inputEventSize, len(buf))
	}
	magic := Magic(binary.BigEndian.Uint32(buf[0:4]))
	if magic != MagicInputEvent {
		return InputEvent{}, fmt.Errorf("wireproto: expected SHIP magic, got %s", magic)
	}
	e := InputEvent{
		Type:      InputEventType(buf[4]),
		Timestamp: binary.BigEndian.Uint64(buf[8:16]),
		X:         math.Float32frombits(binary.BigEndian.Uint32(buf[16:20])),
		Y:         math.Float32frombits(binary.BigEndian.Uint32(buf[20:24])),
		Button:    buf[24],
		KeyCode:   binary.BigEndian.Uint16(buf[25:27]),
		Modifiers: buf[27],
	}
	return e, nil
}
