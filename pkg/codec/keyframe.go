package codec

import "sync/atomic"

// KeyframePolicy implements the forced-keyframe schedule from spec.md
// §4.2: a keyframe at frameId == 0 and at every keyframeInterval frames
// thereafter. Encoder-driven IDR (the hardware encoder deciding on its
// own to emit one) is orthogonal and simply OR'd in by the caller.
//
// It also carries the best-effort out-of-band keyframe request from
// spec.md §7: when the viewer's reassembler drops a keyframe, it asks
// the host (via a SHCF config-update) to emit one at its next
// opportunity. RequestKeyframe sets a one-shot flag consumed by the
// next ShouldForce call.
type KeyframePolicy struct {
	Interval int // frames between forced keyframes, >= 1

	forced atomic.Bool
}

// ShouldForce reports whether frameID must be a keyframe under the
// policy, independent of what the encoder itself decides.
func (k *KeyframePolicy) ShouldForce(frameID uint64) bool {
	if k.forced.Swap(false) {
		return true
	}
	if k.Interval <= 0 {
		return frameID == 0
	}
	return frameID == 0 || frameID%uint64(k.Interval) == 0
}

// RequestKeyframe arms the one-shot forced-keyframe flag consumed by
// the next ShouldForce call.
func (k *KeyframePolicy) RequestKeyframe() {
	k.forced.Store(true)
}

// KeyframeRequester is implemented by Encoders that can honor an
// out-of-band forced-keyframe request. Pipeline wiring type-asserts an
// Encoder to this interface rather than requiring every Encoder
// implementation to support it.
type KeyframeRequester interface {
	RequestKeyframe()
}
