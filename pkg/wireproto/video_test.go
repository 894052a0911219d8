package wireproto

import (
	"testing"

	"github.com/bsod90/screenhero-sub001/pkg/media"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestVideoPacketRoundTrip(t *testing.T) {
	tests := []struct {
		name string
		pkt  VideoPacket
	}{
		{
			name: "keyframe fragment 0 with parameter sets",
			pkt: VideoPacket{
				Version:          1,
				Keyframe:         true,
				Codec:            media.CodecH264,
				FrameID:          42,
				CaptureTsNs:      1000,
				PresentationTsNs: 2000,
				Width:            1920,
				Height:           1080,
				FragmentIndex:    0,
				FragmentCount:    3,
				ParameterSets:    []byte{0, 0, 0, 1, 0x67, 0x42},
				Payload:          []byte{0, 0, 0, 10, 1, 2, 3, 4},
			},
		},
		{
			name: "non-keyframe fragment",
			pkt: VideoPacket{
				Version:       1,
				Keyframe:      false,
				Codec:         media.CodecHEVC,
				FrameID:       43,
				Width:         1280,
				Height:        720,
				FragmentIndex: 1,
				FragmentCount: 4,
				Payload:       []byte("some payload bytes"),
			},
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			buf, err := tc.pkt.Marshal()
			require.NoError(t, err)

			got, err := UnmarshalVideoPacket(buf)
			require.NoError(t, err)

			assert.Equal(t, tc.pkt.Version, got.Version)
			assert.Equal(t, tc.pkt.Keyframe, got.Keyframe)
			assert.Equal(t, tc.pkt.Codec, got.Codec)
			assert.Equal(t, tc.pkt.FrameID, got.FrameID)
			assert.Equal(t, tc.pkt.Width, got.Width)
			assert.Equal(t, tc.pkt.Height, got.Height)
			assert.Equal(t, tc.pkt.FragmentIndex, got.FragmentIndex)
			assert.Equal(t, tc.pkt.FragmentCount, got.FragmentCount)
			assert.Equal(t, tc.pkt.Payload, got.Payload)
			if tc.pkt.FragmentIndex == 0 && len(tc.pkt.ParameterSets) > 0 {
				assert.Equal(t, tc.pkt.ParameterSets, got.ParameterSets)
			} else {
				assert.Empty(t, got.ParameterSets)
			}
		})
	}
}

func TestVideoPacketRejectsBadFragmentIndex(t *testing.T) {
	pkt := VideoPacket{FragmentIndex: 2, FragmentCount: 2}
	_, err := pkt.Marshal()
	assert.Error(t, err)
}

func TestUnmarshalVideoPacketRejectsWrongMagic(t *testing.T) {
	buf := make([]byte, videoHeaderSize)
	_, err := UnmarshalVideoPacket(buf)
	assert.Error(t, err)
}

func TestPeekMagic(t *testing.T) {
	pkt := VideoPacket{FragmentIndex: 0, FragmentCount: 1, Payload: []byte{1}}
	buf, err := pkt.Marshal()
	require.NoError(t, err)

	m, err := PeekMagic(buf)
	require.NoError(t, err)
	assert.Equal(t, MagicVideoPacket, m)
}
