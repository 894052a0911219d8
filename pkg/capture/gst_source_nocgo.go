//go:build !cgo

package capture

import (
	"context"
	"errors"

	"github.com/bsod90/screenhero-sub001/pkg/media"
)

// ErrCGORequired is returned by GstFrameSource when the binary was built
// without cgo, since go-gst requires it.
var ErrCGORequired = errors.New("capture: built without cgo, GStreamer unavailable")

// GstFrameSource is a non-functional stand-in for the cgo-backed
// PipeWire capture pipeline.
type GstFrameSource struct{}

// NewGstFrameSource constructs a stub GstFrameSource.
func NewGstFrameSource(nodeID uint32, width, height, fps int) *GstFrameSource {
	return &GstFrameSource{}
}

func (s *GstFrameSource) Start(ctx context.Context) (<-chan media.RawFrame, error) {
	return nil, ErrCGORequired
}

func (s *GstFrameSource) Stop() error { return nil }
