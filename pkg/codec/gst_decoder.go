//go:build cgo

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

func buildDecodePipeline(cfg media.StreamConfig) string {
	decElem := "avdec_h264"
	if CheckGstElement("nvh264dec") {
		decElem = "nvh264dec"
	} else if CheckGstElement("vah264dec") {
		decElem = "vah264dec"
	}
	return fmt.Sprintf(
		"appsrc name=src format=time is-live=true do-timestamp=false "+
			"caps=video/x-h264,stream-format=avc,alignment=au,width=%d,height=%d ! "+
			"h264parse ! %s ! videoconvert ! video/x-raw,format=BGRx ! "+
			"appsink name=sink emit-signals=true sync=false max-buffers=2 drop=false",
		cfg.Width, cfg.Height, decElem)
}

// GstDecoder implements Decoder on top of a GStreamer hardware-decode
// pipeline. It tracks the most recently seen SPS to detect a format
// change mid-stream (spec.md §4.5, §8 scenario D) and forces a full
// pipeline recreation when one occurs; the keyframe that carried the new
// SPS is then fed to the new pipeline and leaves the decoder in
// StateReady.
type GstDecoder struct {
	mu       sync.Mutex
	pipeline *gst.Pipeline
	appsrc   *app.Source
	appsink  *app.Sink
	cfg      media.StreamConfig
	state    DecoderState
	lastSPS  SPSInfo
	haveSPS  bool

	pendingMu sync.Mutex
	pending   []uint64
	waiters   map[uint64]chan decodeResult
}

type decodeResult struct {
	frame media.DecodedFrame
	err   error
}

// NewGstDecoder constructs an unconfigured GstDecoder.
func NewGstDecoder() *GstDecoder {
	initGst()
	return &GstDecoder{state: StateUninitialized, waiters: make(map[uint64]chan decodeResult)}
}

func (d *GstDecoder) Configure(ctx context.Context, cfg media.StreamConfig) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.recreateLocked(cfg)
}

func (d *GstDecoder) recreateLocked(cfg media.StreamConfig) error {
	if d.pipeline != nil {
		d.pipeline.SetState(gst.StateNull)
		d.pipeline = nil
	}

	pipelineStr := buildDecodePipeline(cfg)
	log.Info().Str("pipeline", pipelineStr).Msg("[codec] configuring decoder")

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

	d.pipeline = pipeline
	d.appsrc = app.SrcFromElement(srcElem)
	d.appsink = app.SinkFromElement(sinkElem)
	d.cfg = cfg
	d.state = StateAwaitingKeyframe
	d.pending = nil

	d.appsink.SetCallbacks(&app.SinkCallbacks{
		NewSampleFunc: d.onNewSample,
	})

	if err := pipeline.SetState(gst.StatePlaying); err != nil {
		return fmt.Errorf("%w: set playing: %v", ErrSessionCreationFailed, err)
	}
	return nil
}

func (d *GstDecoder) onNewSample(sink *app.Sink) gst.FlowReturn {
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

	pixels := make([]byte, len(mapInfo.Bytes()))
	copy(pixels, mapInfo.Bytes())

	d.pendingMu.Lock()
	var frameID uint64
	if len(d.pending) > 0 {
		frameID = d.pending[0]
		d.pending = d.pending[1:]
	}
	waiter, ok := d.waiters[frameID]
	if ok {
		delete(d.waiters, frameID)
	}
	d.pendingMu.Unlock()

	if !ok {
		return gst.FlowOK
	}

	waiter <- decodeResult{frame: media.DecodedFrame{
		FrameID: frameID,
		Width:   d.cfg.Width,
		Height:  d.cfg.Height,
		Pixels:  pixels,
	}}
	return gst.FlowOK
}

func (d *GstDecoder) Decode(ctx context.Context, pkt media.EncodedPacket) (media.DecodedFrame, error) {
	d.mu.Lock()
	if d.pipeline == nil {
		d.mu.Unlock()
		return media.DecodedFrame{}, ErrNotConfigured
	}

	if pkt.IsKeyframe {
		if sps, ok := firstSPS(pkt.ParameterSets); ok {
			if d.haveSPS && formatChanged(d.lastSPS, sps) {
				log.Info().Msg("[codec] SPS changed, recreating decoder session")
				cfg := d.cfg
				cfg.Width, cfg.Height = int(sps.Width), int(sps.Height)
				if err := d.recreateLocked(cfg); err != nil {
					d.mu.Unlock()
					return media.DecodedFrame{}, err
				}
			}
			d.lastSPS = sps
			d.haveSPS = true
		}
		d.state = StateReady
	} else if d.state == StateAwaitingKeyframe {
		d.mu.Unlock()
		return media.DecodedFrame{}, ErrWaitingForKeyframe
	}

	if len(pkt.Data) == 0 {
		d.mu.Unlock()
		return media.DecodedFrame{}, ErrInvalidData
	}

	waiter := make(chan decodeResult, 1)
	d.pendingMu.Lock()
	d.pending = append(d.pending, pkt.FrameID)
	d.waiters[pkt.FrameID] = waiter
	d.pendingMu.Unlock()

	buf := gst.NewBufferFromBytes(pkt.Data)
	ret := d.appsrc.PushBuffer(buf)
	d.mu.Unlock()

	if ret != gst.FlowOK {
		return media.DecodedFrame{}, &DecodingFailedError{Detail: fmt.Sprintf("appsrc push returned %v", ret)}
	}

	select {
	case <-ctx.Done():
		return media.DecodedFrame{}, ctx.Err()
	case res := <-waiter:
		if res.err != nil {
			return media.DecodedFrame{}, res.err
		}
		res.frame.PresentationTimeNs = pkt.PresentationTimeNs
		return res.frame, nil
	}
}

func (d *GstDecoder) Flush(ctx context.Context) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.pipeline == nil {
		return ErrNotConfigured
	}
	d.pipeline.SendEvent(gst.NewEOSEvent())
	return nil
}

func (d *GstDecoder) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.pipeline != nil {
		d.pipeline.SetState(gst.StateNull)
		d.pipeline = nil
	}
	return nil
}

func (d *GstDecoder) State() DecoderState {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.state
}
