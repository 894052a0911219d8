package wireproto

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInputEventRoundTrip(t *testing.T) {
	tests := []InputEvent{
		{Type: InputMouseMove, Timestamp: 123456789, X: 0.5, Y: 0.25, Modifiers: ModShift},
		{Type: InputMouseDown, Timestamp: 1, X: 0, Y: 0, Button: 1},
		{Type: InputScroll, Timestamp: 2, X: -5.5, Y: 10.25},
		{Type: InputKeyDown, Timestamp: 3, KeyCode: 65, Modifiers: ModCtrl | ModCmd},
		{Type: InputReleaseCapture, Timestamp: 4},
		{Type: InputCursorPosition, Timestamp: 5, X: 0.1, Y: 0.9, Button: uint8(CursorPointingHand)},
	}

	for _, e := range tests {
		buf := e.Serialize()
		assert.Len(t, buf, inputEventSize)

		got, err := DeserializeInputEvent(buf)
		require.NoError(t, err)
		assert.Equal(t, e, got)
	}
}

func TestDeserializeInputEventRejectsBadLength(t *testing.T) {
	_, err := DeserializeInputEvent(make([]byte, 10))
	assert.Error(t, err)
}

func TestDeserializeInputEventRejectsWrongMagic(t *testing.T) {
	buf := make([]byte, inputEventSize)
	_, err := DeserializeInputEvent(buf)
	assert.Error(t, err)
}
