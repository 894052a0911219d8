//go:build !cgo

package codec

import (
	"context"

	"github.com/bsod90/screenhero-sub001/pkg/media"
)

// GstDecoder is a non-functional stand-in for the cgo-backed hardware
// decoder; every method returns ErrCGORequired.
type GstDecoder struct{}

// NewGstDecoder constructs a stub GstDecoder.
func NewGstDecoder() *GstDecoder { return &GstDecoder{} }

func (d *GstDecoder) Configure(ctx context.Context, cfg media.StreamConfig) error {
	return ErrCGORequired
}

func (d *GstDecoder) Decode(ctx context.Context, pkt media.EncodedPacket) (media.DecodedFrame, error) {
	return media.DecodedFrame{}, ErrCGORequired
}

func (d *GstDecoder) Flush(ctx context.Context) error { return ErrCGORequired }
func (d *GstDecoder) Close() error                    { return nil }
func (d *GstDecoder) State() DecoderState             { return StateUninitialized }
