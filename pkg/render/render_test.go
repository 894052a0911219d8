package render

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bsod90/screenhero-sub001/pkg/input"
	"github.com/bsod90/screenhero-sub001/pkg/media"
)

type drawerFunc func(media.DecodedFrame, input.Rect)

func (f drawerFunc) Draw(frame media.DecodedFrame, rect input.Rect) { f(frame, rect) }

func TestRendererDropsNonMonotonicFrames(t *testing.T) {
	var drawn []uint64
	r := NewRenderer(drawerFunc(func(f media.DecodedFrame, _ input.Rect) {
		drawn = append(drawn, f.PresentationTimeNs)
	}), 1)
	r.Resize(1280, 720)

	require.True(t, r.Render(media.DecodedFrame{PresentationTimeNs: 100, Width: 1920, Height: 1080}))
	require.True(t, r.Render(media.DecodedFrame{PresentationTimeNs: 200, Width: 1920, Height: 1080}))
	require.False(t, r.Render(media.DecodedFrame{PresentationTimeNs: 150, Width: 1920, Height: 1080}))
	require.False(t, r.Render(media.DecodedFrame{PresentationTimeNs: 200, Width: 1920, Height: 1080}))
	require.True(t, r.Render(media.DecodedFrame{PresentationTimeNs: 201, Width: 1920, Height: 1080}))

	assert.Equal(t, []uint64{100, 200, 201}, drawn)
	stats := r.Stats()
	assert.Equal(t, uint64(3), stats.FramesDrawn)
	assert.Equal(t, uint64(2), stats.FramesDropped)
}

func TestRendererClampsDrawableSize(t *testing.T) {
	r := NewRenderer(nil, 0.5) // clamped to 1
	r.Resize(0, 0)
	w, h := r.drawableSize()
	assert.Equal(t, 1.0, w)
	assert.Equal(t, 1.0, h)
}
