package inputinject

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/bsod90/screenhero-sub001/pkg/input"
)

func TestMoonlightButtonToEvdev(t *testing.T) {
	assert.Equal(t, btnLeft, moonlightButtonToEvdev(1))
	assert.Equal(t, btnMiddle, moonlightButtonToEvdev(2))
	assert.Equal(t, btnRight, moonlightButtonToEvdev(3))
}

func TestButtonHeldPriorityLeftOverRightOverMiddle(t *testing.T) {
	var b buttonHeld
	assert.Equal(t, int32(0), b.priority())

	b.set(btnMiddle, true)
	assert.Equal(t, btnMiddle, b.priority())

	b.set(btnRight, true)
	assert.Equal(t, btnRight, b.priority())

	b.set(btnLeft, true)
	assert.Equal(t, btnLeft, b.priority())

	b.set(btnLeft, false)
	assert.Equal(t, btnRight, b.priority())
}

func TestInjectorDragEventForHeldButton(t *testing.T) {
	inj := NewInjector(nil, input.Rect{X: 0, Y: 0, W: 1920, H: 1080})
	_, dragging := inj.dragEventForHeldButton()
	assert.False(t, dragging)

	inj.held.set(btnLeft, true)
	btn, dragging := inj.dragEventForHeldButton()
	assert.True(t, dragging)
	assert.Equal(t, btnLeft, btn)
}
