package codec

import (
	"context"
	"sync"
	"time"

	"github.com/bsod90/screenhero-sub001/pkg/media"
)

// PassthroughEncoder implements Encoder for media.CodecPassthrough: each
// RawFrame's pixel bytes become the EncodedPacket payload unmodified.
// Used by tests and by deployments that skip hardware compression
// entirely (spec.md §4.2b in SPEC_FULL.md).
type PassthroughEncoder struct {
	mu      sync.Mutex
	cfg     media.StreamConfig
	policy  KeyframePolicy
	configured bool
}

// NewPassthroughEncoder constructs an unconfigured PassthroughEncoder.
func NewPassthroughEncoder() *PassthroughEncoder {
	return &PassthroughEncoder{}
}

func (e *PassthroughEncoder) Configure(_ context.Context, cfg media.StreamConfig) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.cfg = cfg
	e.policy = KeyframePolicy{Interval: cfg.KeyframeInterval}
	e.configured = true
	return nil
}

func (e *PassthroughEncoder) Encode(_ context.Context, frame media.RawFrame) (media.EncodedPacket, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if !e.configured {
		return media.EncodedPacket{}, ErrNotConfigured
	}
	if len(frame.Pixels) == 0 {
		return media.EncodedPacket{}, ErrNoImageBuffer
	}
	data := make([]byte, len(frame.Pixels))
	copy(data, frame.Pixels)
	return media.EncodedPacket{
		FrameID:            frame.FrameID,
		Data:               data,
		PresentationTimeNs: uint64(frame.PresentationTs),
		IsKeyframe:         e.policy.ShouldForce(frame.FrameID),
		Codec:              media.CodecPassthrough,
		Width:              uint16(frame.Width),
		Height:             uint16(frame.Height),
		CaptureTs:          uint64(frame.CaptureTs),
		EncodeTs:           uint64(time.Now().UnixNano()),
	}, nil
}

func (e *PassthroughEncoder) Flush(_ context.Context) error { return nil }
func (e *PassthroughEncoder) Close() error                  { return nil }

// RequestKeyframe implements KeyframeRequester.
func (e *PassthroughEncoder) RequestKeyframe() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.policy.RequestKeyframe()
}

// PassthroughDecoder implements Decoder for media.CodecPassthrough: the
// payload is interpreted directly as BGRA pixels of cfg.Width x cfg.Height.
type PassthroughDecoder struct {
	mu    sync.Mutex
	cfg   media.StreamConfig
	state DecoderState
}

// NewPassthroughDecoder constructs an unconfigured PassthroughDecoder.
func NewPassthroughDecoder() *PassthroughDecoder {
	return &PassthroughDecoder{state: StateUninitialized}
}

func (d *PassthroughDecoder) Configure(_ context.Context, cfg media.StreamConfig) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.cfg = cfg
	d.state = StateAwaitingKeyframe
	return nil
}

func (d *PassthroughDecoder) Decode(_ context.Context, pkt media.EncodedPacket) (media.DecodedFrame, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.state == StateUninitialized {
		return media.DecodedFrame{}, ErrNotConfiguredDecoder
	}
	if d.state == StateAwaitingKeyframe {
		if !pkt.IsKeyframe {
			return media.DecodedFrame{}, ErrWaitingForKeyframe
		}
		d.state = StateReady
	}
	if len(pkt.Data) == 0 {
		return media.DecodedFrame{}, ErrInvalidData
	}
	return media.DecodedFrame{
		FrameID:            pkt.FrameID,
		PresentationTimeNs: pkt.PresentationTimeNs,
		Width:              int(pkt.Width),
		Height:             int(pkt.Height),
		Pixels:             pkt.Data,
		DecodedAt:          time.Now(),
	}, nil
}

func (d *PassthroughDecoder) Flush(_ context.Context) error { return nil }
func (d *PassthroughDecoder) Close() error                  { return nil }
func (d *PassthroughDecoder) State() DecoderState {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.state
}

// ErrNotConfiguredDecoder is the decoder-side name for ErrNotConfigured.
// It is the same error value, so errors.Is matches either name and log
// lines show the same message for both stages.
var ErrNotConfiguredDecoder = ErrNotConfigured
