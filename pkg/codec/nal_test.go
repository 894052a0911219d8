package codec

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAnnexBRoundTrip(t *testing.T) {
	units := [][]byte{{0x67, 0x01, 0x02}, {0x68, 0x03}, {0x65, 0x04, 0x05, 0x06}}
	joined := JoinAnnexB(units)
	split := SplitAnnexB(joined)
	require.Len(t, split, len(units))
	for i, u := range units {
		assert.Equal(t, u, split[i])
	}
}

func TestAnnexBSplitNoStartCode(t *testing.T) {
	assert.Empty(t, SplitAnnexB(nil))
	assert.Equal(t, [][]byte{{1, 2, 3}}, SplitAnnexB([]byte{1, 2, 3}))
}

func TestAVCCRoundTrip(t *testing.T) {
	units := [][]byte{{0x67, 0x01}, {0x68}, {0x65, 0x04, 0x05}}
	joined := JoinAVCC(units)
	split, err := SplitAVCC(joined)
	require.NoError(t, err)
	require.Len(t, split, len(units))
	for i, u := range units {
		assert.Equal(t, u, split[i])
	}
}

func TestAVCCSplitTruncated(t *testing.T) {
	_, err := SplitAVCC([]byte{0, 0, 0, 10, 1, 2})
	assert.Error(t, err)
}

func TestNalType(t *testing.T) {
	assert.Equal(t, uint8(7), nalType([]byte{0x67}))
	assert.Equal(t, uint8(8), nalType([]byte{0x68}))
	assert.Equal(t, uint8(0), nalType(nil))
}
