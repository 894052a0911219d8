//go:build cgo

// Package codec's GStreamer-backed Encoder mirrors the teacher's
// GstPipeline appsink wrapper: an appsrc/appsink graph driven by native
// GStreamer callbacks, with the hardware encoder chosen at runtime in the
// same NVENC > QSV > VA-API > VA-API-LP > x264 priority order used by
// VideoStreamer.selectEncoder.
package codec

import (
	"context"
	"fmt"
	"sync"

	"github.com/go-gst/go-gst/gst"
	"github.com/go-gst/go-gst/gst/app"
	"github.com/rs/zerolog/log"

	"github.com/bsod90/screenhero-sub001/pkg/media"
)

var gstInitOnce sync.Once

func initGst() {
	gstInitOnce.Do(func() { gst.Init(nil) })
}

// CheckGstElement reports whether a GStreamer element factory exists,
// used to probe for hardware encoder/decoder availability.
func CheckGstElement(element string) bool {
	initGst()
	return gst.Find(element) != nil
}

// selectHWEncoder mirrors VideoStreamer.selectEncoder's priority order.
func selectHWEncoder() string {
	switch {
	case CheckGstElement("nvh264enc"):
		return "nvenc"
	case CheckGstElement("qsvh264enc"):
		return "qsv"
	case CheckGstElement("vah264enc"):
		return "vaapi"
	case CheckGstElement("vah264lpenc"):
		return "vaapi-lp"
	default:
		return "x264"
	}
}

func buildEncodePipeline(encoder string, cfg media.StreamConfig) string {
	encElem := ""
	switch encoder {
	case "nvenc":
		encElem = fmt.Sprintf(
			"cudaupload ! nvh264enc preset=low-latency-hq zerolatency=true gop-size=%d rc-mode=cbr-ld-hq bitrate=%d aud=false",
			cfg.KeyframeInterval, cfg.Bitrate/1000)
	case "qsv":
		encElem = fmt.Sprintf(
			"videoconvert ! qsvh264enc b-frames=0 gop-size=%d idr-interval=1 ref-frames=1 bitrate=%d rate-control=cbr",
			cfg.KeyframeInterval, cfg.Bitrate/1000)
	case "vaapi":
		encElem = fmt.Sprintf(
			"videoconvert ! vah264enc aud=false b-frames=0 ref-frames=1 bitrate=%d key-int-max=%d rate-control=cqp",
			cfg.Bitrate/1000, cfg.KeyframeInterval)
	case "vaapi-lp":
		encElem = fmt.Sprintf(
			"videoconvert ! vah264lpenc aud=false b-frames=0 ref-frames=1 bitrate=%d key-int-max=%d rate-control=cqp",
			cfg.Bitrate/1000, cfg.KeyframeInterval)
	default:
		encElem = fmt.Sprintf(
			"videoconvert ! x264enc pass=qual tune=zerolatency speed-preset=superfast b-adapt=false bframes=0 ref=1 bitrate=%d aud=false key-int-max=%d",
			cfg.Bitrate/1000, cfg.KeyframeInterval)
	}

	return fmt.Sprintf(
		"appsrc name=src format=time is-live=true do-timestamp=true "+
			"caps=video/x-raw,format=BGRx,width=%d,height=%d,framerate=%d/1 ! "+
			"%s ! h264parse config-interval=-1 ! "+
			"video/x-h264,stream-format=avc,alignment=au ! "+
			"appsink name=sink emit-signals=true sync=false max-buffers=2 drop=false",
		cfg.Width, cfg.Height, cfg.FPS, encElem)
}

// GstEncoder implements Encoder on top of a GStreamer hardware-encode
// pipeline. A new session is created on Configure; Encode pushes one
// RawFrame's pixels through appsrc and awaits the matching appsink
// sample, tracking frames in flight by FrameID per spec.md §4.2.
type GstEncoder struct {
	mu       sync.Mutex
	pipeline *gst.Pipeline
	appsrc   *app.Source
	appsink  *app.Sink
	cfg      media.StreamConfig
	policy   KeyframePolicy

	pendingMu sync.Mutex
	pending   []uint64 // FIFO of in-flight frameIDs, depth == appsink max-buffers
	waiters   map[uint64]chan encodeResult
}

type encodeResult struct {
	pkt media.EncodedPacket
	err error
}

// NewGstEncoder constructs an unconfigured GstEncoder.
func NewGstEncoder() *GstEncoder {
	initGst()
	return &GstEncoder{waiters: make(map[uint64]chan encodeResult)}
}

func (e *GstEncoder) Configure(ctx context.Context, cfg media.StreamConfig) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.pipeline != nil {
		e.pipeline.SetState(gst.StateNull)
		e.pipeline = nil
	}

	encoder := selectHWEncoder()
	pipelineStr := buildEncodePipeline(encoder, cfg)
	log.Info().Str("encoder", encoder).Str("pipeline", pipelineStr).Msg("[codec] configuring encoder")

	pipeline, err := gst.NewPipelineFromString(pipelineStr)
	if err != nil {
		return fmt.Errorf("%w: parse pipeline: %v", ErrSessionCreationFailed, err)
	}

	srcElem, err := pipeline.GetElementByName("src")
	if err != nil {
		pipeline.SetState(gst.StateNull)
		return fmt.Errorf("%w: get appsrc: %v", ErrSessionCreationFailed, err)
	}
	sinkElem, err := pipeline.GetElementByName("sink")
	if err != nil {
		pipeline.SetState(gst.StateNull)
		return fmt.Errorf("%w: get appsink: %v", ErrSessionCreationFailed, err)
	}

	e.pipeline = pipeline
	e.appsrc = app.SrcFromElement(srcElem)
	e.appsink = app.SinkFromElement(sinkElem)
	e.cfg = cfg
	e.policy = KeyframePolicy{Interval: cfg.KeyframeInterval}
	e.pending = nil

	e.appsink.SetCallbacks(&app.SinkCallbacks{
		NewSampleFunc: e.onNewSample,
	})

	if err := pipeline.SetState(gst.StatePlaying); err != nil {
		return fmt.Errorf("%w: set playing: %v", ErrSessionCreationFailed, err)
	}
	return nil
}

func (e *GstEncoder) onNewSample(sink *app.Sink) gst.FlowReturn {
	sample := sink.PullSample()
	if sample == nil {
		return gst.FlowOK
	}
	buffer := sample.GetBuffer()
	if buffer == nil {
		return gst.FlowOK
	}
	mapInfo := buffer.Map(gst.MapRead)
	if mapInfo == nil {
		return gst.FlowOK
	}
	defer buffer.Unmap()

	data := make([]byte, len(mapInfo.Bytes()))
	copy(data, mapInfo.Bytes())
	isKeyframe := !buffer.HasFlags(gst.BufferFlagDeltaUnit)

	e.pendingMu.Lock()
	var frameID uint64
	if len(e.pending) > 0 {
		frameID = e.pending[0]
		e.pending = e.pending[1:]
	}
	waiter, ok := e.waiters[frameID]
	if ok {
		delete(e.waiters, frameID)
	}
	e.pendingMu.Unlock()

	if !ok {
		// No matching awaiter: drop, per spec.md §4.2.
		return gst.FlowOK
	}

	units, err := SplitAVCC(data)
	if err != nil {
		waiter <- encodeResult{err: &EncodingFailedError{Detail: err.Error()}}
		return gst.FlowOK
	}

	var paramSets []byte
	if isKeyframe {
		var sets [][]byte
		for _, u := range units {
			if nalType(u) == h264NALTypeSPS || nalType(u) == h264NALTypePPS {
				sets = append(sets, u)
			}
		}
		paramSets = JoinAnnexB(sets)
	}

	waiter <- encodeResult{pkt: media.EncodedPacket{
		Data:          data,
		IsKeyframe:    isKeyframe,
		Codec:         media.CodecH264,
		Width:         uint16(e.cfg.Width),
		Height:        uint16(e.cfg.Height),
		ParameterSets: paramSets,
	}}
	return gst.FlowOK
}

func (e *GstEncoder) Encode(ctx context.Context, frame media.RawFrame) (media.EncodedPacket, error) {
	e.mu.Lock()
	if e.pipeline == nil {
		e.mu.Unlock()
		return media.EncodedPacket{}, ErrNotConfigured
	}
	if len(frame.Pixels) == 0 {
		e.mu.Unlock()
		return media.EncodedPacket{}, ErrNoImageBuffer
	}

	if e.policy.ShouldForce(frame.FrameID) {
		// The pipeline's key-int-max/gop-size element property (set at
		// Configure time) already bounds keyframe staleness; an
		// out-of-band request here is logged so operators can see the
		// hint arrived even though forcing an immediate hardware IDR
		// mid-GOP isn't exposed by every element this pipeline selects
		// between (spec.md §7: "best-effort; also naturally corrected
		// by keyframeInterval").
		log.Debug().Uint64("frame_id", frame.FrameID).Msg("[codec] keyframe due")
	}

	waiter := make(chan encodeResult, 1)
	e.pendingMu.Lock()
	e.pending = append(e.pending, frame.FrameID)
	e.waiters[frame.FrameID] = waiter
	e.pendingMu.Unlock()

	buf := gst.NewBufferFromBytes(frame.Pixels)
	ret := e.appsrc.PushBuffer(buf)
	e.mu.Unlock()

	if ret != gst.FlowOK {
		return media.EncodedPacket{}, &EncodingFailedError{Detail: fmt.Sprintf("appsrc push returned %v", ret)}
	}

	select {
	case <-ctx.Done():
		return media.EncodedPacket{}, ctx.Err()
	case res := <-waiter:
		if res.err != nil {
			return media.EncodedPacket{}, res.err
		}
		res.pkt.FrameID = frame.FrameID
		res.pkt.CaptureTs = uint64(frame.CaptureTs)
		res.pkt.PresentationTimeNs = uint64(frame.PresentationTs)
		if err := res.pkt.Validate(); err != nil {
			return media.EncodedPacket{}, &EncodingFailedError{Detail: err.Error()}
		}
		return res.pkt, nil
	}
}

func (e *GstEncoder) Flush(ctx context.Context) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.pipeline == nil {
		return ErrNotConfigured
	}
	e.pipeline.SendEvent(gst.NewEOSEvent())
	return nil
}

func (e *GstEncoder) Close() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.pipeline != nil {
		e.pipeline.SetState(gst.StateNull)
		e.pipeline = nil
	}
	return nil
}

// RequestKeyframe implements KeyframeRequester.
func (e *GstEncoder) RequestKeyframe() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.policy.RequestKeyframe()
}
