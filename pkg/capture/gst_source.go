//go:build cgo

package capture

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/go-gst/go-gst/gst"
	"github.com/go-gst/go-gst/gst/app"
	"github.com/rs/zerolog/log"

	"github.com/bsod90/screenhero-sub001/pkg/media"
)

var gstInitOnce sync.Once

func initGst() {
	gstInitOnce.Do(func() { gst.Init(nil) })
}

// GstFrameSource captures from a PipeWire node (obtained out-of-band via
// the platform's ScreenCast session bring-up, itself a collaborator
// outside this package) through a GStreamer pipewiresrc ! videoconvert !
// appsink pipeline.
type GstFrameSource struct {
	pipeline *gst.Pipeline
	appsink  *app.Sink
	nodeID   uint32
	width    int
	height   int
	fps      int

	out     chan media.RawFrame
	running atomic.Bool
	stopOnce sync.Once
	frameID  atomic.Uint64
}

// NewGstFrameSource constructs a capture pipeline targeting the given
// PipeWire stream node at the requested dimensions and frame rate.
func NewGstFrameSource(nodeID uint32, width, height, fps int) *GstFrameSource {
	initGst()
	return &GstFrameSource{
		nodeID: nodeID, width: width, height: height, fps: fps,
		out: make(chan media.RawFrame, 1),
	}
}

func (s *GstFrameSource) Start(ctx context.Context) (<-chan media.RawFrame, error) {
	pipelineStr := fmt.Sprintf(
		"pipewiresrc path=%d do-timestamp=true ! "+
			"video/x-raw,max-framerate=%d/1 ! videoconvert ! "+
			"video/x-raw,format=BGRx,width=%d,height=%d ! "+
			"appsink name=videosink emit-signals=true sync=false max-buffers=1 drop=true",
		s.nodeID, s.fps, s.width, s.height)

	pipeline, err := gst.NewPipelineFromString(pipelineStr)
	if err != nil {
		return nil, fmt.Errorf("%w: parse pipeline: %v", ErrStartFailed, err)
	}
	elem, err := pipeline.GetElementByName("videosink")
	if err != nil {
		pipeline.SetState(gst.StateNull)
		return nil, fmt.Errorf("%w: get videosink: %v", ErrStartFailed, err)
	}
	appsink := app.SinkFromElement(elem)
	if appsink == nil {
		pipeline.SetState(gst.StateNull)
		return nil, fmt.Errorf("%w: videosink is not an appsink", ErrStartFailed)
	}

	s.pipeline = pipeline
	s.appsink = appsink
	appsink.SetCallbacks(&app.SinkCallbacks{NewSampleFunc: s.onNewSample})

	if err := pipeline.SetState(gst.StatePlaying); err != nil {
		return nil, fmt.Errorf("%w: set playing: %v", ErrStartFailed, err)
	}
	s.running.Store(true)
	log.Info().Uint32("node_id", s.nodeID).Msg("[capture] pipeline started")
	return s.out, nil
}

func (s *GstFrameSource) onNewSample(sink *app.Sink) gst.FlowReturn {
	if !s.running.Load() {
		return gst.FlowOK
	}
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

	frame := media.RawFrame{
		FrameID:   s.frameID.Add(1) - 1,
		CaptureTs: time.Now().UnixNano(),
		Width:     s.width,
		Height:    s.height,
		Pixels:    pixels,
	}

	select {
	case s.out <- frame:
	default:
		// downstream full: drop rather than block the capture callback.
	}
	return gst.FlowOK
}

func (s *GstFrameSource) Stop() error {
	var err error
	s.stopOnce.Do(func() {
		s.running.Store(false)
		if s.pipeline != nil {
			err = s.pipeline.SetState(gst.StateNull)
		}
		close(s.out)
	})
	return err
}
