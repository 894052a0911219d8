package capture

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSyntheticSourceEmitsFrames(t *testing.T) {
	s := NewSyntheticSource(8, 8, 200)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	ch, err := s.Start(ctx)
	require.NoError(t, err)

	select {
	case frame := <-ch:
		assert.Equal(t, 8, frame.Width)
		assert.Equal(t, 8, frame.Height)
		assert.Len(t, frame.Pixels, 8*8*4)
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for synthetic frame")
	}
	require.NoError(t, s.Stop())
}

func TestSyntheticSourceRejectsBadDimensions(t *testing.T) {
	s := NewSyntheticSource(0, 8, 30)
	_, err := s.Start(context.Background())
	assert.ErrorIs(t, err, ErrStartFailed)
}
