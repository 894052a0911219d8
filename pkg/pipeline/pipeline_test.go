package pipeline

import (
	"context"
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bsod90/screenhero-sub001/pkg/capture"
	"github.com/bsod90/screenhero-sub001/pkg/codec"
	"github.com/bsod90/screenhero-sub001/pkg/input"
	"github.com/bsod90/screenhero-sub001/pkg/media"
	"github.com/bsod90/screenhero-sub001/pkg/render"
	"github.com/bsod90/screenhero-sub001/pkg/stats"
	"github.com/bsod90/screenhero-sub001/pkg/transport"
)

func testStreamConfig() media.StreamConfig {
	return media.StreamConfig{
		Width:            64,
		Height:           48,
		FPS:              30,
		Codec:            media.CodecPassthrough,
		Bitrate:          1_000_000,
		KeyframeInterval: 8,
		MaxPacketSize:    media.DefaultMTU,
	}
}

type collectingDrawer struct {
	frames []media.DecodedFrame
}

func (d *collectingDrawer) Draw(frame media.DecodedFrame, _ input.Rect) {
	d.frames = append(d.frames, frame)
}

// TestHostViewerEndToEnd wires a Host and a Viewer over a real UDP
// loopback socket pair, using the synthetic capture source and the
// passthrough codec, and asserts frames make it all the way to the
// Renderer.
func TestHostViewerEndToEnd(t *testing.T) {
	cfg := testStreamConfig()

	hostConn, err := net.ListenPacket("udp", "127.0.0.1:0")
	require.NoError(t, err)
	viewerConn, err := net.ListenPacket("udp", "127.0.0.1:0")
	require.NoError(t, err)

	hostSender := transport.NewSender(hostConn, viewerConn.LocalAddr(), cfg.MaxPacketSize, nil)
	viewerStats := &stats.SessionStats{}

	drawer := &collectingDrawer{}
	renderer := render.NewRenderer(drawer, 1)
	renderer.Resize(float64(cfg.Width), float64(cfg.Height))

	viewer, err := NewViewer(cfg, ViewerDeps{
		Decoder:  codec.NewPassthroughDecoder(),
		Renderer: renderer,
		Stats:    viewerStats,
	})
	require.NoError(t, err)

	viewerReceiver := transport.NewReceiver(viewerConn, time.Duration(cfg.FrameInterval()), transport.DefaultReassemblyCapacity, viewer.Handlers(), nil)
	viewer.AttachReceiver(viewerReceiver)

	host, err := NewHost(cfg, HostDeps{
		Source:  capture.NewSyntheticSource(cfg.Width, cfg.Height, cfg.FPS),
		Encoder: codec.NewPassthroughEncoder(),
		Sender:  hostSender,
		Stats:   &stats.SessionStats{},
	})
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()

	go func() { _ = host.Run(ctx) }()
	go func() { _ = viewer.Run(ctx) }()

	require.Eventually(t, func() bool {
		return len(drawer.frames) >= 3
	}, 2*time.Second, 10*time.Millisecond, "expected at least 3 frames to be rendered")

	stopCtx, stopCancel := context.WithTimeout(context.Background(), time.Second)
	defer stopCancel()
	require.NoError(t, host.Stop(stopCtx))
	require.NoError(t, viewer.Stop(stopCtx))

	assert.Equal(t, uint64(len(drawer.frames)), renderer.Stats().FramesDrawn)
	assert.GreaterOrEqual(t, viewerStats.FramesDecoded.Load(), uint64(len(drawer.frames)))
}

func TestHostRejectsInvalidConfig(t *testing.T) {
	bad := testStreamConfig()
	bad.Width = 0
	_, err := NewHost(bad, HostDeps{
		Source:  capture.NewSyntheticSource(1, 1, 1),
		Encoder: codec.NewPassthroughEncoder(),
		Sender:  transport.NewSender(nil, nil, media.DefaultMTU, nil),
	})
	assert.Error(t, err)
}

func TestViewerRejectsInvalidConfig(t *testing.T) {
	bad := testStreamConfig()
	bad.FPS = 0
	_, err := NewViewer(bad, ViewerDeps{Decoder: codec.NewPassthroughDecoder()})
	assert.Error(t, err)
}
