package transport

import (
	"sync"
	"time"

	"github.com/bsod90/screenhero-sub001/pkg/media"
	"github.com/bsod90/screenhero-sub001/pkg/wireproto"
)

// DefaultReassemblyCapacity is R from spec.md §4.4: the fixed number of
// in-flight partial frames tracked at once.
const DefaultReassemblyCapacity = 8

// maxReassemblyDeadline caps the per-frame reassembly timeout at 100ms
// regardless of frame interval, per spec.md §4.4/§5.
const maxReassemblyDeadline = 100 * time.Millisecond

// partialFrame tracks fragments received so far for one frameId.
type partialFrame struct {
	frameID       uint64
	fragmentCount uint16
	received      []bool
	buffers       [][]byte
	paramSets     []byte
	keyframe      bool
	codec         media.Codec
	width, height uint16
	captureTs     uint64
	presentTs     uint64
	numReceived   int
	deadline      time.Time
	insertOrder   uint64 // monotonic counter for oldest-first eviction
}

func (p *partialFrame) complete() bool {
	return p.numReceived == int(p.fragmentCount)
}

func (p *partialFrame) assemble() media.EncodedPacket {
	total := 0
	for _, b := range p.buffers {
		total += len(b)
	}
	data := make([]byte, 0, total)
	for _, b := range p.buffers {
		data = append(data, b...)
	}
	return media.EncodedPacket{
		FrameID:            p.frameID,
		Data:               data,
		PresentationTimeNs: p.presentTs,
		IsKeyframe:         p.keyframe,
		Codec:              p.codec,
		Width:              p.width,
		Height:             p.height,
		CaptureTs:          p.captureTs,
		ParameterSets:      p.paramSets,
	}
}

// Reassembler holds partial frames keyed by frameId and emits complete
// EncodedPackets in the order they finish (not necessarily frameId order —
// see spec.md §5: the decoder tolerates out-of-order completions).
//
// Every method takes r.mu, so OnKeyframeDropped can be registered from
// another goroutine while Receiver drives Ingest from its receive loop.
// The keyframe-dropped callback runs with r.mu held.
type Reassembler struct {
	capacity       int
	frameInterval  time.Duration
	partials       map[uint64]*partialFrame
	highestEmitted uint64
	haveEmitted    bool
	insertSeq      uint64

	// stats, updated in place; read via Stats()
	droppedFrames  uint64
	lateStragglers uint64

	// onKeyframeDropped is invoked when an incomplete keyframe is evicted.
	// It is a notification only: nothing here or in the viewer pipeline
	// moves the decoder back to AwaitingKeyframe.
	onKeyframeDropped func(frameID uint64)

	mu sync.Mutex
}

// NewReassembler constructs a Reassembler with the given capacity and
// nominal frame interval (used to compute the per-frame deadline).
func NewReassembler(capacity int, frameInterval time.Duration) *Reassembler {
	if capacity <= 0 {
		capacity = DefaultReassemblyCapacity
	}
	return &Reassembler{
		capacity:      capacity,
		frameInterval: frameInterval,
		partials:      make(map[uint64]*partialFrame),
	}
}

// OnKeyframeDropped registers a callback invoked whenever an incomplete
// keyframe is evicted (deadline or capacity eviction).
func (r *Reassembler) OnKeyframeDropped(fn func(frameID uint64)) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.onKeyframeDropped = fn
}

func (r *Reassembler) deadlineDuration() time.Duration {
	d := 3 * r.frameInterval
	if d <= 0 || d > maxReassemblyDeadline {
		d = maxReassemblyDeadline
	}
	return d
}

// Ingest processes one SHVP video fragment. It returns a complete
// EncodedPacket and true when the fragment completes a frame.
func (r *Reassembler) Ingest(now time.Time, pkt wireproto.VideoPacket) (media.EncodedPacket, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.sweepExpiredLocked(now)

	// Late stragglers: strictly older than the highest emitted frameId.
	if r.haveEmitted && pkt.FrameID < r.highestEmitted {
		r.lateStragglers++
		return media.EncodedPacket{}, false
	}

	pf, ok := r.partials[pkt.FrameID]
	if !ok {
		if len(r.partials) >= r.capacity {
			r.evictOldestLocked()
		}
		pf = &partialFrame{
			frameID:       pkt.FrameID,
			fragmentCount: pkt.FragmentCount,
			received:      make([]bool, pkt.FragmentCount),
			buffers:       make([][]byte, pkt.FragmentCount),
			keyframe:      pkt.Keyframe,
			codec:         pkt.Codec,
			width:         pkt.Width,
			height:        pkt.Height,
			captureTs:     pkt.CaptureTsNs,
			presentTs:     pkt.PresentationTsNs,
			deadline:      now.Add(r.deadlineDuration()),
			insertOrder:   r.insertSeq,
		}
		r.insertSeq++
		r.partials[pkt.FrameID] = pf
	}

	if int(pkt.FragmentIndex) >= len(pf.received) {
		return media.EncodedPacket{}, false
	}
	if pf.received[pkt.FragmentIndex] {
		return media.EncodedPacket{}, false // duplicate fragment, ignored
	}
	pf.received[pkt.FragmentIndex] = true
	pf.buffers[pkt.FragmentIndex] = pkt.Payload
	pf.numReceived++
	if pkt.FragmentIndex == 0 && len(pkt.ParameterSets) > 0 {
		pf.paramSets = pkt.ParameterSets
	}

	if !pf.complete() {
		return media.EncodedPacket{}, false
	}

	delete(r.partials, pkt.FrameID)
	if !r.haveEmitted || pkt.FrameID > r.highestEmitted {
		r.highestEmitted = pkt.FrameID
		r.haveEmitted = true
	}
	return pf.assemble(), true
}

// sweepExpiredLocked drops any partial frame whose deadline has passed.
// Caller must hold r.mu.
func (r *Reassembler) sweepExpiredLocked(now time.Time) {
	for id, pf := range r.partials {
		if now.After(pf.deadline) {
			r.dropLocked(id, pf)
		}
	}
}

func (r *Reassembler) evictOldestLocked() {
	var oldestID uint64
	var oldest *partialFrame
	for id, pf := range r.partials {
		if oldest == nil || pf.insertOrder < oldest.insertOrder {
			oldestID = id
			oldest = pf
		}
	}
	if oldest != nil {
		r.dropLocked(oldestID, oldest)
	}
}

func (r *Reassembler) dropLocked(id uint64, pf *partialFrame) {
	delete(r.partials, id)
	r.droppedFrames++
	if pf.keyframe && r.onKeyframeDropped != nil {
		r.onKeyframeDropped(id)
	}
}

// ReassemblerStats is a point-in-time snapshot of reassembly counters.
type ReassemblerStats struct {
	DroppedFrames  uint64
	LateStragglers uint64
	InFlight       int
}

// Stats returns a snapshot of reassembly counters.
func (r *Reassembler) Stats() ReassemblerStats {
	r.mu.Lock()
	defer r.mu.Unlock()
	return ReassemblerStats{
		DroppedFrames:  r.droppedFrames,
		LateStragglers: r.lateStragglers,
		InFlight:       len(r.partials),
	}
}
