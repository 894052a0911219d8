package codec

import (
	"context"

	"github.com/bsod90/screenhero-sub001/pkg/media"
)

// Encoder compresses RawFrames into EncodedPackets. A new session is
// created on Configure; any prior session is invalidated (spec.md §4.2).
// Implementations are single-writer: Encode must not be called
// concurrently with itself or with Configure/Flush/Close.
type Encoder interface {
	Configure(ctx context.Context, cfg media.StreamConfig) error
	Encode(ctx context.Context, frame media.RawFrame) (media.EncodedPacket, error)
	Flush(ctx context.Context) error
	Close() error
}

// Decoder decompresses EncodedPackets into DecodedFrames, gated by the
// AwaitingKeyframe state machine from spec.md §4.5.
type Decoder interface {
	Configure(ctx context.Context, cfg media.StreamConfig) error
	Decode(ctx context.Context, pkt media.EncodedPacket) (media.DecodedFrame, error)
	Flush(ctx context.Context) error
	Close() error
	// State reports the decoder's current state machine position.
	State() DecoderState
}

// DecoderState enumerates the decoder state machine from spec.md §4.5.
type DecoderState uint8

const (
	StateUninitialized DecoderState = iota
	StateAwaitingKeyframe
	StateReady
)

func (s DecoderState) String() string {
	switch s {
	case StateUninitialized:
		return "uninitialized"
	case StateAwaitingKeyframe:
		return "awaitingKeyframe"
	case StateReady:
		return "ready"
	default:
		return "unknown"
	}
}
