// Package stats holds the atomic session counters read by the status
// HTTP endpoint (SPEC_FULL.md §3 SessionStats).
package stats

import (
	"sync/atomic"
	"time"

	"github.com/dustin/go-humanize"
)

// SessionStats is a set of atomic counters updated from multiple
// pipeline-component goroutines without a shared lock.
type SessionStats struct {
	FramesProduced  atomic.Uint64
	FramesSent      atomic.Uint64
	FramesReceived  atomic.Uint64
	FramesDecoded   atomic.Uint64
	FramesDropped   atomic.Uint64
	BytesSent       atomic.Uint64
	BytesReceived   atomic.Uint64
	KeyframeWaits   atomic.Uint64 // count of incomplete keyframes dropped by reassembly

	latencySumNs   atomic.Uint64
	latencyCount   atomic.Uint64
	bitrateWindow  atomic.Uint64 // bytes sent in the current 1s window
	bitrateCurrent atomic.Uint64 // bits/sec, refreshed by RefreshBitrate
}

// ObserveLatency records one capture->send latency sample.
func (s *SessionStats) ObserveLatency(d time.Duration) {
	s.latencySumNs.Add(uint64(d.Nanoseconds()))
	s.latencyCount.Add(1)
}

// AverageLatency returns the mean capture->send latency over every
// sample recorded so far.
func (s *SessionStats) AverageLatency() time.Duration {
	count := s.latencyCount.Load()
	if count == 0 {
		return 0
	}
	return time.Duration(s.latencySumNs.Load() / count)
}

// AddBitrateSample folds nBytes sent into the current 1-second bitrate
// window; call RefreshBitrate once per second to roll the window into
// BitrateBitsPerSec.
func (s *SessionStats) AddBitrateSample(nBytes int) {
	s.bitrateWindow.Add(uint64(nBytes))
}

// RefreshBitrate computes bits/sec from the accumulated window and
// resets it. Intended to be called once per second by the owning
// pipeline's housekeeping loop.
func (s *SessionStats) RefreshBitrate() {
	bytes := s.bitrateWindow.Swap(0)
	s.bitrateCurrent.Store(bytes * 8)
}

// BitrateBitsPerSec returns the most recently refreshed bitrate.
func (s *SessionStats) BitrateBitsPerSec() uint64 {
	return s.bitrateCurrent.Load()
}

// Snapshot is a read-only point-in-time copy, suitable for JSON
// serialization over the status HTTP endpoint.
type Snapshot struct {
	FramesProduced  uint64 `json:"framesProduced"`
	FramesSent      uint64 `json:"framesSent"`
	FramesReceived  uint64 `json:"framesReceived"`
	FramesDecoded   uint64 `json:"framesDecoded"`
	FramesDropped   uint64 `json:"framesDropped"`
	BytesSent       uint64 `json:"bytesSent"`
	BytesReceived   uint64 `json:"bytesReceived"`
	KeyframeWaits   uint64 `json:"keyframeWaits"`
	AvgLatencyMs    int64  `json:"avgLatencyMs"`
	BitrateBitsPerS uint64 `json:"bitrateBitsPerSec"`
	BytesSentHuman  string `json:"bytesSentHuman"`
	BitrateHuman    string `json:"bitrateHuman"`
}

// Snapshot takes a point-in-time copy of the counters.
func (s *SessionStats) Snapshot() Snapshot {
	bytesSent := s.BytesSent.Load()
	bitrate := s.BitrateBitsPerSec()
	return Snapshot{
		FramesProduced:  s.FramesProduced.Load(),
		FramesSent:      s.FramesSent.Load(),
		FramesReceived:  s.FramesReceived.Load(),
		FramesDecoded:   s.FramesDecoded.Load(),
		FramesDropped:   s.FramesDropped.Load(),
		BytesSent:       bytesSent,
		BytesReceived:   s.BytesReceived.Load(),
		KeyframeWaits:   s.KeyframeWaits.Load(),
		AvgLatencyMs:    s.AverageLatency().Milliseconds(),
		BitrateBitsPerS: bitrate,
		BytesSentHuman:  humanize.Bytes(bytesSent),
		BitrateHuman:    humanize.Bytes(bitrate/8) + "/s",
	}
}
