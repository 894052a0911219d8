package media

import "time"

// DecodedFrame is the decoder's output: a BGRA pixel buffer plus the
// presentation timestamp the renderer orders by.
type DecodedFrame struct {
	FrameID            uint64
	PresentationTimeNs uint64
	Width              int
	Height             int
	Pixels             []byte // BGRA, IOSurface-compatible backing on platforms that have one
	DecodedAt          time.Time
}
