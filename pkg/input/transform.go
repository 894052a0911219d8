// Package input implements the pure coordinate transform module from
// spec.md §4.7: converting between platform view space (possibly
// bottom-left origin), platform display/global space (top-left origin),
// and the canonical wire space (normalized [0,1], top-left origin). All
// conversions go through this package; nothing else is allowed to
// reimplement them.
package input

// Rect is an axis-aligned rectangle in some coordinate space, with
// top-left origin (x, y) and size (w, h).
type Rect struct {
	X, Y float64
	W, H float64
}

// Clamp01 clamps v into [0, 1].
func Clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

// ViewPointToNormalizedTopLeft converts a point in view space within rect
// r to normalized [0,1] top-left wire coordinates. When bottomLeftOrigin
// is true, the view's own Y axis increases upward and must be flipped
// (spec.md §4.7/§9: "cgDisplayPointToNormalizedTopLeft" vs
// "viewPointToNormalizedTopLeft" keep this distinction explicit).
func ViewPointToNormalizedTopLeft(vx, vy float64, r Rect, bottomLeftOrigin bool) (nx, ny float64) {
	if r.W <= 0 || r.H <= 0 {
		return 0, 0
	}
	nx = Clamp01((vx - r.X) / r.W)
	ny = Clamp01((vy - r.Y) / r.H)
	if bottomLeftOrigin {
		ny = 1 - ny
	}
	return nx, ny
}

// NormalizedTopLeftToViewPoint is the inverse of ViewPointToNormalizedTopLeft
// for a top-left-origin target rect r (used by the host to map a
// received normalized coordinate back onto the captured display's global
// rect, spec.md §4.7).
func NormalizedTopLeftToViewPoint(nx, ny float64, r Rect) (vx, vy float64) {
	return r.X + nx*r.W, r.Y + ny*r.H
}

// AspectFitRect computes the largest rect of the content's aspect ratio
// that fits within a containerW x containerH area, centered within it.
// Used by the viewer to compute the video's display rect R before
// normalizing a click into it (spec.md §4.7, scenario F).
func AspectFitRect(containerW, containerH, contentW, contentH float64) Rect {
	if containerW <= 0 || containerH <= 0 || contentW <= 0 || contentH <= 0 {
		return Rect{}
	}
	containerAspect := containerW / containerH
	contentAspect := contentW / contentH

	var w, h float64
	if contentAspect > containerAspect {
		w = containerW
		h = w / contentAspect
	} else {
		h = containerH
		w = h * contentAspect
	}
	return Rect{
		X: (containerW - w) / 2,
		Y: (containerH - h) / 2,
		W: w,
		H: h,
	}
}
