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

	"github.com/bsod90/screenhero-sub001/pkg/codec"
	"github.com/bsod90/screenhero-sub001/pkg/inputinject"
	"github.com/bsod90/screenhero-sub001/pkg/media"
	"github.com/bsod90/screenhero-sub001/pkg/render"
	"github.com/bsod90/screenhero-sub001/pkg/stats"
	"github.com/bsod90/screenhero-sub001/pkg/transport"
	"github.com/bsod90/screenhero-sub001/pkg/wireproto"
)

// decodedFrameQueueFactor is the receive->decode channel capacity's
// fraction of FPS named in spec.md §9 ("fps/2"); a bound of 1 keeps at
// least one slot when FPS is small.
const decodedFrameQueueFactor = 2

// ViewerDeps bundles the collaborators a Viewer pipeline is built from.
type ViewerDeps struct {
	Receiver *transport.Receiver
	Decoder  codec.Decoder
	Sender   *transport.Sender // outbound input events / keyframe hints
	Renderer *render.Renderer
	Stats    *stats.SessionStats
	Logger   *slog.Logger
}

// Viewer is the consumer-side supervisor: Receiver -> Decoder ->
// Renderer, plus an outbound path for local input capture forwarded as
// SHIP datagrams (spec.md §2 viewer-side stage list).
type Viewer struct {
	cfg  media.StreamConfig
	deps ViewerDeps

	frames chan media.EncodedPacket

	running atomic.Bool
	wg      sync.WaitGroup
	cancel  context.CancelFunc

	sched gocron.Scheduler

	keyframeHintMu   sync.Mutex
	lastKeyframeHint time.Time
}

// NewViewer constructs a Viewer over cfg and deps.
func NewViewer(cfg media.StreamConfig, deps ViewerDeps) (*Viewer, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("pipeline: invalid stream config: %w", err)
	}
	if deps.Logger == nil {
		deps.Logger = slog.Default()
	}
	if deps.Stats == nil {
		deps.Stats = &stats.SessionStats{}
	}
	capacity := cfg.FPS / decodedFrameQueueFactor
	if capacity < 1 {
		capacity = 1
	}
	return &Viewer{
		cfg:    cfg,
		deps:   deps,
		frames: make(chan media.EncodedPacket, capacity),
	}, nil
}

// Handlers returns the Receiver callbacks this Viewer wants wired in:
// OnVideoPacket feeds the decode loop. Build the Viewer's Receiver with
// these before calling Run.
func (v *Viewer) Handlers() transport.Handlers {
	return transport.Handlers{
		OnVideoPacket: v.onVideoPacket,
	}
}

// AttachReceiver wires r as the viewer's inbound datagram path after
// construction. Callers build r with v.Handlers() — which requires a
// *Viewer to already exist — then attach it before calling Run.
func (v *Viewer) AttachReceiver(r *transport.Receiver) {
	v.deps.Receiver = r
}

func (v *Viewer) onVideoPacket(pkt media.EncodedPacket) {
	v.deps.Stats.FramesReceived.Add(1)
	v.deps.Stats.BytesReceived.Add(uint64(len(pkt.Data) + len(pkt.ParameterSets)))
	select {
	case v.frames <- pkt:
	default:
		v.deps.Stats.FramesDropped.Add(1)
		v.deps.Logger.Debug("dropping video packet, decode queue full", "frame_id", pkt.FrameID)
	}
}

// Run configures the decoder, registers the reassembler's
// OnKeyframeDropped callback, and starts every stage's goroutine,
// blocking until ctx is cancelled.
func (v *Viewer) Run(ctx context.Context) error {
	if !v.running.CompareAndSwap(false, true) {
		return fmt.Errorf("pipeline: viewer already running")
	}
	defer v.running.Store(false)

	runCtx, cancel := context.WithCancel(ctx)
	v.cancel = cancel
	defer cancel()

	if err := v.deps.Decoder.Configure(runCtx, v.cfg); err != nil {
		v.reportFatal("decoder configure", err)
		return fmt.Errorf("pipeline: configure decoder: %w", err)
	}

	if v.deps.Receiver != nil {
		v.deps.Receiver.Reassembler().OnKeyframeDropped(func(frameID uint64) {
			v.deps.Stats.KeyframeWaits.Add(1)
			v.requestKeyframe()
		})
	}

	sched, err := gocron.NewScheduler()
	if err != nil {
		return fmt.Errorf("pipeline: create scheduler: %w", err)
	}
	v.sched = sched
	if _, err := sched.NewJob(gocron.DurationJob(time.Second), gocron.NewTask(v.deps.Stats.RefreshBitrate)); err != nil {
		return fmt.Errorf("pipeline: schedule bitrate refresh: %w", err)
	}
	sched.Start()

	v.wg.Add(1)
	go v.decodeAndRenderLoop(runCtx)

	if v.deps.Receiver != nil {
		v.wg.Add(1)
		go func() {
			defer v.wg.Done()
			if err := v.deps.Receiver.Run(runCtx); err != nil && runCtx.Err() == nil {
				v.deps.Logger.Error("viewer receiver exited", "err", err)
			}
		}()
	}

	<-runCtx.Done()
	v.wg.Wait()
	return nil
}

// decodeAndRenderLoop is the single-reader decode loop: it pulls
// reassembled packets in completion order (spec.md §5: not necessarily
// frameId order) and hands each decoded frame to the Renderer, which
// itself enforces presentation-time monotonicity.
func (v *Viewer) decodeAndRenderLoop(ctx context.Context) {
	defer v.wg.Done()
	for {
		select {
		case <-ctx.Done():
			_ = v.deps.Decoder.Flush(context.Background())
			return
		case pkt, ok := <-v.frames:
			if !ok {
				return
			}
			prevState := v.deps.Decoder.State()
			frame, err := v.deps.Decoder.Decode(ctx, pkt)
			if err != nil {
				v.handleDecodeError(pkt, prevState, err)
				continue
			}
			if prevState == codec.StateAwaitingKeyframe {
				v.deps.Logger.Debug("decoder resumed after keyframe", "frame_id", pkt.FrameID)
			}
			v.deps.Stats.FramesDecoded.Add(1)
			if v.deps.Renderer != nil {
				if !v.deps.Renderer.Render(frame) {
					v.deps.Stats.FramesDropped.Add(1)
				}
			}
		}
	}
}

// handleDecodeError classifies a per-packet decode error per spec.md
// §4.5/§7: waiting-for-keyframe is an expected steady state while the
// decoder is AwaitingKeyframe, so it is not itself treated as a new
// keyframe-dropped event (the reassembler already called
// OnKeyframeDropped when it evicted the partial frame, if that's why
// this packet arrived non-keyframe).
func (v *Viewer) handleDecodeError(pkt media.EncodedPacket, _ codec.DecoderState, err error) {
	switch err {
	case codec.ErrWaitingForKeyframe:
		return
	default:
		v.deps.Logger.Debug("dropping packet after decode error", "frame_id", pkt.FrameID, "err", err)
	}
}

// requestKeyframe sends a best-effort SHCF ConfigUpdate hinting the
// host to emit a keyframe at its next opportunity (spec.md §7). It is
// throttled to at most once per frame interval so a burst of evictions
// doesn't flood the host with duplicate hints.
func (v *Viewer) requestKeyframe() {
	if v.deps.Sender == nil {
		return
	}
	v.keyframeHintMu.Lock()
	minGap := time.Duration(v.cfg.FrameInterval())
	if minGap <= 0 {
		minGap = 16 * time.Millisecond
	}
	now := time.Now()
	if now.Sub(v.lastKeyframeHint) < minGap {
		v.keyframeHintMu.Unlock()
		return
	}
	v.lastKeyframeHint = now
	v.keyframeHintMu.Unlock()

	msg := wireproto.ConfigMessage{
		Type:    wireproto.ConfigUpdate,
		Payload: wireproto.FromStreamConfig(v.cfg),
	}
	if err := v.deps.Sender.SendConfigMessage(msg); err != nil {
		v.deps.Logger.Debug("keyframe hint send failed", "err", err)
	}
}

// SendInputEvent forwards a locally-captured input event to the host.
// The caller (a platform input-capture collaborator outside this
// package's scope) is responsible for generating InputEvents; this is
// purely the transport seam.
func (v *Viewer) SendInputEvent(ev wireproto.InputEvent) error {
	if v.deps.Sender == nil {
		return nil
	}
	return v.deps.Sender.SendInputEvent(ev)
}

// InjectLocally is used in same-host loopback/test configurations where
// the viewer also owns an Injector (not part of the normal cross-machine
// topology, but useful for integration tests that skip the network).
func (v *Viewer) InjectLocally(ctx context.Context, injector *inputinject.Injector, ev wireproto.InputEvent) error {
	if injector == nil {
		return nil
	}
	return injector.Inject(ctx, ev)
}

// Stop cancels the run loop and waits for every stage to exit.
func (v *Viewer) Stop(ctx context.Context) error {
	if v.cancel != nil {
		v.cancel()
	}

	done := make(chan struct{})
	go func() {
		v.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-ctx.Done():
	}

	if v.sched != nil {
		_ = v.sched.Shutdown()
	}
	if v.deps.Receiver != nil {
		_ = v.deps.Receiver.Close()
	}
	if err := v.deps.Decoder.Close(); err != nil {
		v.deps.Logger.Debug("decoder close error", "err", err)
	}
	if v.deps.Sender != nil {
		if err := v.deps.Sender.Close(); err != nil {
			v.deps.Logger.Debug("sender close error", "err", err)
		}
	}
	return nil
}

func (v *Viewer) reportFatal(stage string, err error) {
	v.deps.Logger.Error("fatal pipeline error", "stage", stage, "err", err)
	if sentry.CurrentHub().Client() != nil {
		sentry.CaptureException(fmt.Errorf("pipeline viewer %s: %w", stage, err))
	}
}
