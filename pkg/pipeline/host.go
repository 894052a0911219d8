// Package pipeline composes the stage packages (capture, codec,
// transport, inputinject, cursor, render, pairing) into the host and
// viewer supervisors from spec.md §2/§4.9/§9: a single actor-equivalent
// tree per side, each stage owning one goroutine over a bounded
// channel, stopped cooperatively in reverse dependency order. Grounded
// on the teacher's Server type in api/pkg/desktop/desktop.go (an
// atomic-bool "running" flag, a sync.WaitGroup of owned goroutines, a
// *slog.Logger, and an idempotent Stop).
package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/getsentry/sentry-go"
	"github.com/go-co-op/gocron/v2"

	"github.com/bsod90/screenhero-sub001/pkg/capture"
	"github.com/bsod90/screenhero-sub001/pkg/codec"
	"github.com/bsod90/screenhero-sub001/pkg/cursor"
	"github.com/bsod90/screenhero-sub001/pkg/inputinject"
	"github.com/bsod90/screenhero-sub001/pkg/media"
	"github.com/bsod90/screenhero-sub001/pkg/stats"
	"github.com/bsod90/screenhero-sub001/pkg/transport"
	"github.com/bsod90/screenhero-sub001/pkg/wireproto"
)

// HostDeps bundles the collaborators a Host pipeline is built from.
// Source, Encoder and Injector are the seams to platform collaborators
// named out of scope in spec.md §1; tests wire synthetic/passthrough/nil
// implementations.
type HostDeps struct {
	Source   capture.FrameSource
	Encoder  codec.Encoder
	Sender   *transport.Sender
	Receiver *transport.Receiver // shares the same socket, demuxes SHIP/SHCF inbound
	Injector *inputinject.Injector
	Cursor   *cursor.Tracker
	Stats    *stats.SessionStats
	Logger   *slog.Logger
}

// Host is the producer-side supervisor: FrameSource -> Encoder ->
// Sender, plus an inbound path for InputEvents/ConfigMessages and the
// CursorTracker's outbound cursorPosition stream (spec.md §2 host-side
// stage list).
type Host struct {
	cfg  media.StreamConfig
	deps HostDeps

	running atomic.Bool
	wg      sync.WaitGroup
	cancel  context.CancelFunc

	sched gocron.Scheduler
}

// NewHost constructs a Host over cfg and deps. cfg must already satisfy
// media.StreamConfig.Validate.
func NewHost(cfg media.StreamConfig, deps HostDeps) (*Host, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("pipeline: invalid stream config: %w", err)
	}
	if deps.Logger == nil {
		deps.Logger = slog.Default()
	}
	if deps.Stats == nil {
		deps.Stats = &stats.SessionStats{}
	}
	return &Host{cfg: cfg, deps: deps}, nil
}

// Run starts every stage's goroutine and blocks until ctx is cancelled
// or Stop is called. It is an error to call Run twice concurrently.
func (h *Host) Run(ctx context.Context) error {
	if !h.running.CompareAndSwap(false, true) {
		return fmt.Errorf("pipeline: host already running")
	}
	defer h.running.Store(false)

	runCtx, cancel := context.WithCancel(ctx)
	h.cancel = cancel
	defer cancel()

	if err := h.deps.Encoder.Configure(runCtx, h.cfg); err != nil {
		h.reportFatal("encoder configure", err)
		return fmt.Errorf("pipeline: configure encoder: %w", err)
	}

	frames, err := h.deps.Source.Start(runCtx)
	if err != nil {
		h.reportFatal("frame source start", err)
		return fmt.Errorf("pipeline: start frame source: %w", err)
	}

	sched, err := gocron.NewScheduler()
	if err != nil {
		return fmt.Errorf("pipeline: create scheduler: %w", err)
	}
	h.sched = sched
	if _, err := sched.NewJob(gocron.DurationJob(time.Second), gocron.NewTask(h.deps.Stats.RefreshBitrate)); err != nil {
		return fmt.Errorf("pipeline: schedule bitrate refresh: %w", err)
	}
	sched.Start()

	h.wg.Add(1)
	go h.encodeAndSendLoop(runCtx, frames)

	if h.deps.Receiver != nil {
		h.wg.Add(1)
		go func() {
			defer h.wg.Done()
			if err := h.deps.Receiver.Run(runCtx); err != nil && runCtx.Err() == nil {
				h.deps.Logger.Error("host receiver exited", "err", err)
			}
		}()
	}

	if h.deps.Cursor != nil {
		h.wg.Add(1)
		go func() {
			defer h.wg.Done()
			h.deps.Cursor.Run(runCtx)
		}()
	}

	<-runCtx.Done()
	h.wg.Wait()
	return nil
}

// encodeAndSendLoop is the single-writer encoder loop from spec.md §4.9:
// it consumes frames, calls Encoder.Encode with one frame in flight
// (spec.md §9: "typically 1 in flight to minimize latency"), and hands
// each EncodedPacket to the Sender.
func (h *Host) encodeAndSendLoop(ctx context.Context, frames <-chan media.RawFrame) {
	defer h.wg.Done()
	for {
		select {
		case <-ctx.Done():
			_ = h.deps.Encoder.Flush(context.Background())
			return
		case frame, ok := <-frames:
			if !ok {
				return
			}
			pkt, err := h.deps.Encoder.Encode(ctx, frame)
			if err != nil {
				h.handleEncodeError(frame, err)
				continue
			}
			h.deps.Stats.FramesProduced.Add(1)

			if err := h.deps.Sender.SendEncodedPacket(pkt); err != nil {
				h.deps.Logger.Debug("dropping video packet after send failure", "frame_id", pkt.FrameID, "err", err)
				continue
			}
			h.deps.Stats.FramesSent.Add(1)
			h.deps.Stats.BytesSent.Add(uint64(len(pkt.Data) + len(pkt.ParameterSets)))
			h.deps.Stats.AddBitrateSample(len(pkt.Data) + len(pkt.ParameterSets))
			h.deps.Stats.ObserveLatency(time.Since(time.Unix(0, frame.CaptureTs)))
		}
	}
}

// handleEncodeError classifies a per-frame encode error per the
// transient/session/fatal taxonomy from spec.md §7: noImageBuffer is a
// silent skip, everything else is logged and dropped (single-writer
// encoder session stays alive; the pipeline does not self-heal by
// reconfiguring mid-stream for a single bad frame).
func (h *Host) handleEncodeError(frame media.RawFrame, err error) {
	switch {
	case err == codec.ErrNoImageBuffer:
		return
	default:
		h.deps.Logger.Debug("dropping frame after encode error", "frame_id", frame.FrameID, "err", err)
	}
}

// AttachReceiver wires r as the host's inbound datagram path after
// construction. Callers build r with Handlers{OnInputEvent:
// host.OnInputEvent, OnConfigMsg: host.OnConfigUpdate} — which requires
// a *Host to already exist — then attach it before calling Run.
func (h *Host) AttachReceiver(r *transport.Receiver) {
	h.deps.Receiver = r
}

// OnConfigUpdate is wired by the receiver's OnConfigMsg handler: a SHCF
// ConfigUpdate from the viewer (spec.md §7's best-effort keyframe hint,
// sent after it re-enters AwaitingKeyframe) asks this encoder for a
// keyframe at its next opportunity, if the Encoder honors
// codec.KeyframeRequester.
func (h *Host) OnConfigUpdate(msg wireproto.ConfigMessage) {
	if msg.Type != wireproto.ConfigUpdate {
		return
	}
	if kr, ok := h.deps.Encoder.(codec.KeyframeRequester); ok {
		kr.RequestKeyframe()
	}
}

// OnInputEvent is wired by the receiver's OnInputEvent handler: inject
// the event into the host OS via the Injector (spec.md §4.7).
func (h *Host) OnInputEvent(ev wireproto.InputEvent) {
	if h.deps.Injector == nil {
		return
	}
	if err := h.deps.Injector.Inject(context.Background(), ev); err != nil {
		h.deps.Logger.Debug("input injection failed", "type", ev.Type, "err", err)
	}
}

// Stop cancels the run loop and waits (up to deadline, if ctx has one)
// for every stage to exit, then flushes/closes them in reverse
// dependency order. Stop is idempotent (spec.md §5).
func (h *Host) Stop(ctx context.Context) error {
	if h.cancel != nil {
		h.cancel()
	}

	done := make(chan struct{})
	go func() {
		h.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-ctx.Done():
	}

	if h.sched != nil {
		_ = h.sched.Shutdown()
	}
	if h.deps.Cursor != nil {
		// Cursor's own Run already exited via context cancellation.
	}
	if err := h.deps.Source.Stop(); err != nil {
		h.deps.Logger.Debug("frame source stop error", "err", err)
	}
	if err := h.deps.Encoder.Close(); err != nil {
		h.deps.Logger.Debug("encoder close error", "err", err)
	}
	if h.deps.Receiver != nil {
		_ = h.deps.Receiver.Close()
	}
	if err := h.deps.Sender.Close(); err != nil {
		h.deps.Logger.Debug("sender close error", "err", err)
	}
	return nil
}

// reportFatal routes a fatal-to-session error (spec.md §7) to Sentry
// when a DSN is configured, matching the teacher's pattern of keeping
// per-frame drops purely in logs/stats while unrecoverable startup
// failures go to an external collector.
func (h *Host) reportFatal(stage string, err error) {
	h.deps.Logger.Error("fatal pipeline error", "stage", stage, "err", err)
	if sentry.CurrentHub().Client() != nil {
		sentry.CaptureException(fmt.Errorf("pipeline host %s: %w", stage, err))
	}
}
