// Package render implements the viewer-side display stage from spec.md
// §4.6: accepting decoded frames, enforcing presentation-time
// monotonicity, and computing the aspect-fit drawable rect within a
// window. The actual GPU texture upload and draw call are a platform
// collaborator outside this package's scope (spec.md §1 Out of scope);
// Drawer is the seam this package plugs into.
package render

import (
	"sync"

	"github.com/bsod90/screenhero-sub001/pkg/input"
	"github.com/bsod90/screenhero-sub001/pkg/media"
)

// Drawer uploads a decoded frame's pixels to the screen. The concrete
// implementation (GPU texture upload + draw) lives outside this module.
type Drawer interface {
	Draw(frame media.DecodedFrame, rect input.Rect)
}

// Renderer holds the last-rendered presentation timestamp and the
// window geometry needed to compute the video's aspect-fit rect,
// dropping any frame that would violate presentation-time
// monotonicity (spec.md §8 property 8).
type Renderer struct {
	mu             sync.Mutex
	drawer         Drawer
	lastPts        uint64
	havePts        bool
	windowW        float64
	windowH        float64
	scaleFactor    float64
	framesDrawn    uint64
	framesDropped  uint64
}

// NewRenderer constructs a Renderer targeting drawer. scaleFactor is the
// backing-store scale (e.g. a Retina/HiDPI multiplier); values below 1
// are clamped.
func NewRenderer(drawer Drawer, scaleFactor float64) *Renderer {
	if scaleFactor < 1 {
		scaleFactor = 1
	}
	return &Renderer{drawer: drawer, scaleFactor: scaleFactor}
}

// Resize updates the window's logical size, used to compute the
// drawable rect on the next Render call.
func (r *Renderer) Resize(width, height float64) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.windowW, r.windowH = width, height
}

// drawableSize returns the window size scaled by the backing-store
// scale factor, clamped to at least 1x1 (spec.md §4.6).
func (r *Renderer) drawableSize() (w, h float64) {
	w = r.windowW * r.scaleFactor
	h = r.windowH * r.scaleFactor
	if w < 1 {
		w = 1
	}
	if h < 1 {
		h = 1
	}
	return w, h
}

// Render draws frame if its presentation timestamp is strictly newer
// than the last frame drawn; otherwise it is dropped and counted.
// Returns true if the frame was drawn.
func (r *Renderer) Render(frame media.DecodedFrame) bool {
	r.mu.Lock()
	if r.havePts && frame.PresentationTimeNs <= r.lastPts {
		r.framesDropped++
		r.mu.Unlock()
		return false
	}
	r.lastPts = frame.PresentationTimeNs
	r.havePts = true
	r.framesDrawn++
	w, h := r.drawableSize()
	drawer := r.drawer
	r.mu.Unlock()

	rect := input.AspectFitRect(w, h, float64(frame.Width), float64(frame.Height))
	if drawer != nil {
		drawer.Draw(frame, rect)
	}
	return true
}

// Stats is a point-in-time snapshot of the renderer's counters.
type Stats struct {
	FramesDrawn   uint64
	FramesDropped uint64
}

// Stats returns a snapshot of drawn/dropped frame counts.
func (r *Renderer) Stats() Stats {
	r.mu.Lock()
	defer r.mu.Unlock()
	return Stats{FramesDrawn: r.framesDrawn, FramesDropped: r.framesDropped}
}
