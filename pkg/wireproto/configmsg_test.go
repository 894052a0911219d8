package wireproto

import (
	"testing"

	"github.com/bsod90/screenhero-sub001/pkg/media"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConfigMessageRoundTrip(t *testing.T) {
	cfg := media.StreamConfig{
		Width: 1920, Height: 1080, FPS: 60, Codec: media.CodecH264,
		Bitrate: 20_000_000, KeyframeInterval: 30, MaxPacketSize: 1400,
	}
	msg := ConfigMessage{Type: ConfigRequest, Payload: FromStreamConfig(cfg)}

	buf, err := msg.Marshal()
	require.NoError(t, err)

	got, err := UnmarshalConfigMessage(buf)
	require.NoError(t, err)
	assert.Equal(t, msg, got)
}

func TestConfigMessageWithServerDimensions(t *testing.T) {
	msg := ConfigMessage{
		Type: ConfigResponse,
		Payload: ConfigPayload{
			Width: 1280, Height: 720, FPS: 30, Codec: "h264",
			UseNativeResolution: true,
			ServerDisplay:       &Dimensions{Width: 1920, Height: 1080},
			ServerNative:        &Dimensions{Width: 3840, Height: 2160},
		},
	}
	buf, err := msg.Marshal()
	require.NoError(t, err)

	got, err := UnmarshalConfigMessage(buf)
	require.NoError(t, err)
	assert.Equal(t, msg, got)
}

func TestUnmarshalConfigMessageRejectsWrongMagic(t *testing.T) {
	buf := make([]byte, configHeaderSize)
	_, err := UnmarshalConfigMessage(buf)
	assert.Error(t, err)
}
