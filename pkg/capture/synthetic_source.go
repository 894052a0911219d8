package capture

import (
	"context"
	"time"

	"github.com/bsod90/screenhero-sub001/pkg/media"
)

// SyntheticSource emits solid-color BGRA frames at a fixed rate, cycling
// through a small palette every frame. It never blocks: a full downstream
// channel causes the frame to be dropped, matching the back-pressure
// policy FrameSource implementations must honor.
type SyntheticSource struct {
	Width, Height int
	FPS           int

	stop    chan struct{}
	stopped chan struct{}
}

var syntheticPalette = [][4]byte{
	{0xFF, 0x00, 0x00, 0xFF}, // B G R A, pure blue
	{0x00, 0xFF, 0x00, 0xFF}, // pure green
	{0x00, 0x00, 0xFF, 0xFF}, // pure red
}

// NewSyntheticSource constructs a SyntheticSource at the given dimensions
// and frame rate.
func NewSyntheticSource(width, height, fps int) *SyntheticSource {
	return &SyntheticSource{Width: width, Height: height, FPS: fps}
}

func (s *SyntheticSource) Start(ctx context.Context) (<-chan media.RawFrame, error) {
	if s.Width <= 0 || s.Height <= 0 {
		return nil, ErrStartFailed
	}
	out := make(chan media.RawFrame, 1)
	s.stop = make(chan struct{})
	s.stopped = make(chan struct{})

	interval := time.Second / time.Duration(max(s.FPS, 1))
	go func() {
		defer close(s.stopped)
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		var frameID uint64
		for {
			select {
			case <-ctx.Done():
				return
			case <-s.stop:
				return
			case <-ticker.C:
				frame := media.RawFrame{
					FrameID:        frameID,
					PresentationTs: int64(frameID) * int64(interval),
					CaptureTs:      time.Now().UnixNano(),
					Width:          s.Width,
					Height:         s.Height,
					Pixels:         solidFrame(s.Width, s.Height, frameID),
				}
				frameID++
				select {
				case out <- frame:
				default:
				}
			}
		}
	}()
	return out, nil
}

func (s *SyntheticSource) Stop() error {
	if s.stop != nil {
		close(s.stop)
		<-s.stopped
		s.stop = nil
	}
	return nil
}

func solidFrame(width, height int, frameID uint64) []byte {
	color := syntheticPalette[int(frameID)%len(syntheticPalette)]
	pixels := make([]byte, width*height*4)
	for i := 0; i < len(pixels); i += 4 {
		pixels[i], pixels[i+1], pixels[i+2], pixels[i+3] = color[0], color[1], color[2], color[3]
	}
	return pixels
}

func max(a, b int) int {
	if a > b {
		return a
	}
	return b
}
