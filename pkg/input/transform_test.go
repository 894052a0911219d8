package input

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestClamp01(t *testing.T) {
	assert.Equal(t, 0.0, Clamp01(-1))
	assert.Equal(t, 1.0, Clamp01(2))
	assert.Equal(t, 0.5, Clamp01(0.5))
}

func TestViewPointToNormalizedTopLeft(t *testing.T) {
	r := Rect{X: 10, Y: 20, W: 100, H: 50}
	nx, ny := ViewPointToNormalizedTopLeft(60, 45, r, false)
	assert.InDelta(t, 0.5, nx, 1e-9)
	assert.InDelta(t, 0.5, ny, 1e-9)
}

func TestViewPointToNormalizedTopLeftBottomLeftOrigin(t *testing.T) {
	r := Rect{X: 0, Y: 0, W: 100, H: 100}
	// bottom-left origin: a point near the bottom of the view (y=10) stays
	// near the bottom in top-left wire space, where that is ny close to 1.
	_, ny := ViewPointToNormalizedTopLeft(0, 10, r, true)
	assert.InDelta(t, 0.9, ny, 1e-9)
}

func TestCoordinateRoundTrip(t *testing.T) {
	r := Rect{X: 3164, Y: 0, W: 1512, H: 982}
	for _, pt := range [][2]float64{{0, 0}, {756, 491}, {1512, 982}, {300.5, 17.25}} {
		vx, vy := r.X+pt[0], r.Y+pt[1]
		nx, ny := ViewPointToNormalizedTopLeft(vx, vy, r, false)
		assert.GreaterOrEqual(t, nx, 0.0)
		assert.LessOrEqual(t, nx, 1.0)
		assert.GreaterOrEqual(t, ny, 0.0)
		assert.LessOrEqual(t, ny, 1.0)

		backVX, backVY := NormalizedTopLeftToViewPoint(nx, ny, r)
		assert.InDelta(t, vx, backVX, 1e-9)
		assert.InDelta(t, vy, backVY, 1e-9)
	}
}

func TestScenarioFInputCoordinateFlow(t *testing.T) {
	hostDisplay := Rect{X: 3164, Y: 0, W: 1512, H: 982}
	vx, vy := NormalizedTopLeftToViewPoint(0.5, 0.5, hostDisplay)
	assert.InDelta(t, 3920, vx, 1e-9)
	assert.InDelta(t, 491, vy, 1e-9)
}

func TestAspectFitRectWiderContent(t *testing.T) {
	r := AspectFitRect(1000, 600, 1920, 1080)
	assert.InDelta(t, 1000, r.W, 1e-6)
	assert.Greater(t, r.Y, 0.0)
}

func TestAspectFitRectTallerContainer(t *testing.T) {
	r := AspectFitRect(500, 1000, 1920, 1080)
	assert.InDelta(t, 500, r.W, 1e-6)
}
