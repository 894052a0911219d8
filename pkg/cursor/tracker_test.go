package cursor

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bsod90/screenhero-sub001/pkg/input"
	"github.com/bsod90/screenhero-sub001/pkg/wireproto"
)

type fakePoller struct {
	mu    sync.Mutex
	x, y  float64
	shape wireproto.CursorType
}

func (p *fakePoller) PollCursor() (float64, float64, wireproto.CursorType, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.x, p.y, p.shape, nil
}

func (p *fakePoller) set(x, y float64, shape wireproto.CursorType) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.x, p.y, p.shape = x, y, shape
}

func TestTrackerEmitsOnlyOnChange(t *testing.T) {
	poller := &fakePoller{x: 100, y: 100, shape: wireproto.CursorArrow}

	var mu sync.Mutex
	var events []wireproto.InputEvent
	emit := func(ev wireproto.InputEvent) {
		mu.Lock()
		defer mu.Unlock()
		events = append(events, ev)
	}

	rect := input.Rect{X: 0, Y: 0, W: 1000, H: 1000}
	tracker := NewTracker(poller, rect, 5*time.Millisecond, emit)

	ctx, cancel := context.WithCancel(context.Background())
	go tracker.Run(ctx)

	time.Sleep(30 * time.Millisecond)
	poller.set(200, 300, wireproto.CursorIBeam)
	time.Sleep(30 * time.Millisecond)
	cancel()
	time.Sleep(10 * time.Millisecond)

	mu.Lock()
	defer mu.Unlock()
	require.GreaterOrEqual(t, len(events), 2)
	first := events[0]
	assert.Equal(t, wireproto.InputCursorPosition, first.Type)
	assert.InDelta(t, 0.1, first.X, 1e-6)
	assert.InDelta(t, 0.1, first.Y, 1e-6)

	last := events[len(events)-1]
	assert.InDelta(t, 0.2, last.X, 1e-6)
	assert.InDelta(t, 0.3, last.Y, 1e-6)
	assert.Equal(t, uint8(wireproto.CursorIBeam), last.Button)
}
