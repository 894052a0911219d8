// Package codec defines the Encoder/Decoder contracts from spec.md §4.2/§4.5
// and their implementations: a hardware-backed GStreamer pipeline for real
// deployments, and an in-process PassthroughCodec for tests and the
// Passthrough StreamConfig codec value.
package codec

import "errors"

// Encoder error taxonomy, spec.md §4.2.
var (
	ErrNotConfigured        = errors.New("codec: encoder not configured")
	ErrNoImageBuffer        = errors.New("codec: no image buffer (status frame, skip silently)")
	ErrInvalidInput         = errors.New("codec: invalid input")
	ErrSessionCreationFailed = errors.New("codec: session creation failed")
)

// Decoder error taxonomy, spec.md §4.5/§7.
var (
	ErrWaitingForKeyframe = errors.New("codec: waiting for keyframe")
	ErrInvalidData        = errors.New("codec: invalid data")
)

// EncodingFailedError wraps a per-frame encode failure detail, spec.md §4.2.
type EncodingFailedError struct {
	Detail string
}

func (e *EncodingFailedError) Error() string { return "codec: encoding failed: " + e.Detail }

// DecodingFailedError wraps a per-frame decode failure detail, spec.md §4.5.
type DecodingFailedError struct {
	Detail string
}

func (e *DecodingFailedError) Error() string { return "codec: decoding failed: " + e.Detail }
