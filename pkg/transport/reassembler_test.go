package transport

import (
	"testing"
	"time"

	"github.com/bsod90/screenhero-sub001/pkg/media"
	"github.com/bsod90/screenhero-sub001/pkg/wireproto"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fragmentsFor(t *testing.T, frameID uint64, fragCount int, keyframe bool, paramSets []byte) []wireproto.VideoPacket {
	t.Helper()
	var out []wireproto.VideoPacket
	for i := 0; i < fragCount; i++ {
		p := wireproto.VideoPacket{
			Version:       1,
			Keyframe:      keyframe,
			Codec:         media.CodecH264,
			FrameID:       frameID,
			Width:         1920,
			Height:        1080,
			FragmentIndex: uint16(i),
			FragmentCount: uint16(fragCount),
			Payload:       []byte{byte(i), byte(i + 1)},
		}
		if i == 0 {
			p.ParameterSets = paramSets
		}
		out = append(out, p)
	}
	return out
}

func TestReassemblerCompletesInOrder(t *testing.T) {
	r := NewReassembler(8, 16*time.Millisecond)
	frags := fragmentsFor(t, 1, 3, false, nil)

	now := time.Now()
	for i, f := range frags[:2] {
		_, complete := r.Ingest(now, f)
		assert.Falsef(t, complete, "fragment %d should not complete", i)
	}
	pkt, complete := r.Ingest(now, frags[2])
	require.True(t, complete)
	assert.Equal(t, uint64(1), pkt.FrameID)
	assert.Equal(t, []byte{0, 1, 1, 2, 2, 3}, pkt.Data)
}

func TestReassemblerCompletesOutOfOrder(t *testing.T) {
	r := NewReassembler(8, 16*time.Millisecond)
	frags := fragmentsFor(t, 2, 3, true, []byte{0, 0, 0, 1, 0x67})

	now := time.Now()
	order := []int{2, 0, 1}
	var pkt media.EncodedPacket
	var complete bool
	for _, idx := range order {
		pkt, complete = r.Ingest(now, frags[idx])
	}
	require.True(t, complete)
	assert.Equal(t, []byte{0, 1, 1, 2, 2, 3}, pkt.Data)
	assert.Equal(t, []byte{0, 0, 0, 1, 0x67}, pkt.ParameterSets)
	assert.True(t, pkt.IsKeyframe)
}

func TestReassemblerDuplicateFragmentIgnored(t *testing.T) {
	r := NewReassembler(8, 16*time.Millisecond)
	frags := fragmentsFor(t, 3, 2, false, nil)
	now := time.Now()

	_, complete := r.Ingest(now, frags[0])
	assert.False(t, complete)
	_, complete = r.Ingest(now, frags[0]) // duplicate
	assert.False(t, complete)
	_, complete = r.Ingest(now, frags[1])
	assert.True(t, complete)
}

func TestReassemblerDropsOnDeadlineExpiry(t *testing.T) {
	r := NewReassembler(8, time.Millisecond) // frameInterval tiny -> deadline 3ms
	frags := fragmentsFor(t, 37, 5, false, nil)
	now := time.Now()

	// Deliver fragment 2 missing (simulates scenario B: fragment 2/5 of frame 37 lost).
	for i, f := range frags {
		if i == 2 {
			continue
		}
		_, complete := r.Ingest(now, f)
		assert.False(t, complete)
	}

	// Advance past the deadline and feed the next frame's first fragment,
	// which triggers a sweep.
	later := now.Add(10 * time.Millisecond)
	nextFrags := fragmentsFor(t, 38, 1, false, nil)
	_, complete := r.Ingest(later, nextFrags[0])
	assert.True(t, complete)

	stats := r.Stats()
	assert.Equal(t, uint64(1), stats.DroppedFrames)
}

func TestReassemblerKeyframeDropSignalsCallback(t *testing.T) {
	r := NewReassembler(8, time.Millisecond)
	var droppedID uint64
	var droppedCalled bool
	r.OnKeyframeDropped(func(frameID uint64) {
		droppedCalled = true
		droppedID = frameID
	})

	frags := fragmentsFor(t, 60, 4, true, []byte{0, 0, 0, 1})
	now := time.Now()
	for i, f := range frags {
		if i == 1 {
			continue // drop a fragment so the keyframe never completes
		}
		r.Ingest(now, f)
	}

	later := now.Add(10 * time.Millisecond)
	nextFrags := fragmentsFor(t, 61, 1, false, nil)
	r.Ingest(later, nextFrags[0])

	assert.True(t, droppedCalled)
	assert.Equal(t, uint64(60), droppedID)
}

func TestReassemblerEvictsOldestWhenFull(t *testing.T) {
	r := NewReassembler(2, time.Hour) // deadline caps at 100ms; every Ingest uses the same now, so only capacity eviction triggers
	now := time.Now()

	r.Ingest(now, fragmentsFor(t, 1, 2, false, nil)[0]) // frame 1, incomplete
	r.Ingest(now, fragmentsFor(t, 2, 2, false, nil)[0]) // frame 2, incomplete
	// Both frame 1 and frame 2 occupy the 2-entry capacity. Frame 3 must
	// evict frame 1 (oldest).
	r.Ingest(now, fragmentsFor(t, 3, 2, false, nil)[0])

	stats := r.Stats()
	assert.Equal(t, 2, stats.InFlight)
	assert.Equal(t, uint64(1), stats.DroppedFrames)
}

func TestReassemblerDiscardsLateStragglers(t *testing.T) {
	r := NewReassembler(8, 16*time.Millisecond)
	now := time.Now()

	frags10 := fragmentsFor(t, 10, 1, false, nil)
	_, complete := r.Ingest(now, frags10[0])
	require.True(t, complete)

	// Frame 5 arrives after frame 10 was already emitted: discarded.
	frags5 := fragmentsFor(t, 5, 1, false, nil)
	_, complete = r.Ingest(now, frags5[0])
	assert.False(t, complete)

	stats := r.Stats()
	assert.Equal(t, uint64(1), stats.LateStragglers)
}
