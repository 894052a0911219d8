//go:build !cgo

package codec

import (
	"context"
	"errors"

	"github.com/bsod90/screenhero-sub001/pkg/media"
)

// ErrCGORequired is returned by every GstEncoder/GstDecoder method when
// the binary was built without cgo, since go-gst requires it.
var ErrCGORequired = errors.New("codec: built without cgo, GStreamer unavailable")

// CheckGstElement always reports false in a non-cgo build.
func CheckGstElement(element string) bool { return false }

// GstEncoder is a non-functional stand-in for the cgo-backed hardware
// encoder; every method returns ErrCGORequired.
type GstEncoder struct{}

// NewGstEncoder constructs a stub GstEncoder.
func NewGstEncoder() *GstEncoder { return &GstEncoder{} }

func (e *GstEncoder) Configure(ctx context.Context, cfg media.StreamConfig) error {
	return ErrCGORequired
}

func (e *GstEncoder) Encode(ctx context.Context, frame media.RawFrame) (media.EncodedPacket, error) {
	return media.EncodedPacket{}, ErrCGORequired
}

func (e *GstEncoder) Flush(ctx context.Context) error { return ErrCGORequired }
func (e *GstEncoder) Close() error                    { return nil }
