package media

import "fmt"

// RawFrame is a single timestamped, dimensioned capture output. FrameID is
// monotonic starting at 0 for a given FrameSource session.
type RawFrame struct {
	FrameID       uint64
	PresentationTs int64 // nanoseconds, source clock
	CaptureTs     int64 // nanoseconds, wall clock
	Width         int
	Height        int
	Pixels        []byte // BGRA, Width*Height*4 bytes
}

// Validate checks the RawFrame invariants from spec.md §3.
func (f RawFrame) Validate(expectW, expectH int) error {
	if f.Width != expectW || f.Height != expectH {
		return fmt.Errorf("media: frame dims %dx%d do not match capture dims %dx%d", f.Width, f.Height, expectW, expectH)
	}
	if len(f.Pixels) < f.Width*f.Height*4 {
		return fmt.Errorf("media: frame %d pixel buffer too small: have %d, want >= %d", f.FrameID, len(f.Pixels), f.Width*f.Height*4)
	}
	return nil
}

// EncodedPacket is the codec's compressed output for one RawFrame.
//
// Invariant: ParameterSets is non-empty iff IsKeyframe && Codec != CodecPassthrough.
// Data is always non-empty.
type EncodedPacket struct {
	FrameID            uint64
	Data               []byte // AVCC/HVCC framed payload (4-byte length-prefixed NAL units)
	PresentationTimeNs uint64
	IsKeyframe         bool
	Codec              Codec
	Width              uint16
	Height             uint16
	CaptureTs          uint64 // wall-clock ns, carried from the RawFrame
	EncodeTs           uint64 // wall-clock ns, when encode completed
	ParameterSets      []byte // Annex-B framed SPS/PPS(/VPS), keyframes only
}

// Validate checks the EncodedPacket invariant from spec.md §3 and §8 (property 1).
func (p EncodedPacket) Validate() error {
	if len(p.Data) == 0 {
		return fmt.Errorf("media: encoded packet %d has empty data", p.FrameID)
	}
	hasParams := len(p.ParameterSets) > 0
	wantParams := p.IsKeyframe && p.Codec != CodecPassthrough
	if hasParams != wantParams {
		return fmt.Errorf("media: encoded packet %d keyframe=%v codec=%s parameterSets-present=%v, want %v",
			p.FrameID, p.IsKeyframe, p.Codec, hasParams, wantParams)
	}
	return nil
}
