package codec

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bsod90/screenhero-sub001/pkg/media"
)

func testStreamConfig() media.StreamConfig {
	return media.StreamConfig{
		Width: 64, Height: 64, FPS: 30,
		Codec: media.CodecPassthrough, Bitrate: 1_000_000,
		KeyframeInterval: 3, MaxPacketSize: media.DefaultMTU,
	}
}

func TestPassthroughEncoderRequiresConfigure(t *testing.T) {
	e := NewPassthroughEncoder()
	_, err := e.Encode(context.Background(), media.RawFrame{Pixels: []byte{1}})
	assert.ErrorIs(t, err, ErrNotConfigured)
}

func TestPassthroughEncoderRejectsEmptyPixels(t *testing.T) {
	e := NewPassthroughEncoder()
	require.NoError(t, e.Configure(context.Background(), testStreamConfig()))
	_, err := e.Encode(context.Background(), media.RawFrame{FrameID: 1, Width: 64, Height: 64})
	assert.ErrorIs(t, err, ErrNoImageBuffer)
}

func TestPassthroughEncoderForcesKeyframeSchedule(t *testing.T) {
	e := NewPassthroughEncoder()
	require.NoError(t, e.Configure(context.Background(), testStreamConfig()))

	pixels := make([]byte, 64*64*4)
	for i := uint64(0); i < 6; i++ {
		pkt, err := e.Encode(context.Background(), media.RawFrame{FrameID: i, Width: 64, Height: 64, Pixels: pixels})
		require.NoError(t, err)
		want := i == 0 || i%3 == 0
		assert.Equal(t, want, pkt.IsKeyframe, "frame %d", i)
		assert.Equal(t, media.CodecPassthrough, pkt.Codec)
		assert.Empty(t, pkt.ParameterSets, "passthrough never carries parameter sets")
		require.NoError(t, pkt.Validate())
	}
}

func TestPassthroughDecoderAwaitsKeyframe(t *testing.T) {
	d := NewPassthroughDecoder()
	require.NoError(t, d.Configure(context.Background(), testStreamConfig()))
	assert.Equal(t, StateAwaitingKeyframe, d.State())

	_, err := d.Decode(context.Background(), media.EncodedPacket{FrameID: 1, Data: []byte{1, 2}, IsKeyframe: false})
	assert.ErrorIs(t, err, ErrWaitingForKeyframe)
	assert.Equal(t, StateAwaitingKeyframe, d.State())

	frame, err := d.Decode(context.Background(), media.EncodedPacket{
		FrameID: 2, Data: []byte{1, 2, 3, 4}, IsKeyframe: true, Width: 64, Height: 64,
	})
	require.NoError(t, err)
	assert.Equal(t, StateReady, d.State())
	assert.Equal(t, uint64(2), frame.FrameID)

	_, err = d.Decode(context.Background(), media.EncodedPacket{FrameID: 3, Data: []byte{5, 6}, IsKeyframe: false})
	assert.NoError(t, err)
}

func TestPassthroughDecoderRejectsEmptyData(t *testing.T) {
	d := NewPassthroughDecoder()
	require.NoError(t, d.Configure(context.Background(), testStreamConfig()))
	_, err := d.Decode(context.Background(), media.EncodedPacket{FrameID: 1, IsKeyframe: true})
	assert.ErrorIs(t, err, ErrInvalidData)
}

func TestKeyframePolicyShouldForce(t *testing.T) {
	p := KeyframePolicy{Interval: 4}
	assert.True(t, p.ShouldForce(0))
	assert.False(t, p.ShouldForce(1))
	assert.False(t, p.ShouldForce(3))
	assert.True(t, p.ShouldForce(4))
	assert.True(t, p.ShouldForce(8))
}
