// Package capture defines the FrameSource contract and its
// implementations: a GStreamer/PipeWire-backed capture pipeline for real
// deployments, and a synthetic generator used by tests and the
// passthrough codec path.
package capture

import (
	"context"
	"errors"

	"github.com/bsod90/screenhero-sub001/pkg/media"
)

// FrameSource error taxonomy.
var (
	ErrDisplayNotFound  = errors.New("capture: display not found")
	ErrPermissionDenied = errors.New("capture: permission denied")
	ErrStartFailed      = errors.New("capture: start failed")
)

// FrameSource emits a timestamped, dimensioned raw pixel frame at
// approximately the configured FPS. Implementations must not block the
// capture callback: if the downstream channel is full, the frame is
// dropped rather than queued.
type FrameSource interface {
	Start(ctx context.Context) (<-chan media.RawFrame, error)
	Stop() error
}
