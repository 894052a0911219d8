// Package transport implements the Packetizer/Sender and
// Receiver/Reassembler halves of the datagram transport described in
// spec.md §4.3/§4.4: MTU-sized fragmentation of EncodedPackets on send,
// and index-ordered reassembly (independent of arrival order) on receive.
package transport

import (
	"fmt"
	"log/slog"
	"net"

	"github.com/bsod90/screenhero-sub001/pkg/media"
	"github.com/bsod90/screenhero-sub001/pkg/wireproto"
)

// videoHeaderOverhead is the fixed SHVP header size each fragment pays on
// top of its payload slice.
const videoHeaderOverhead = 48

// Sender fragments EncodedPackets into MTU-sized datagrams and writes them,
// send-and-forget, to a single UDP destination (unicast peer or multicast
// group). One Sender instance owns the outbound socket; all datagram types
// (video, tile, input, config) funnel through it, matching the "send-
// serializing task" shared-resource note in spec.md §5.
type Sender struct {
	conn          net.PacketConn
	dest          net.Addr
	maxPacketSize int
	logger        *slog.Logger
}

// NewSender wraps an already-bound PacketConn. Use DialUnicast or
// DialMulticast to construct conn/dest for the two transport modes named
// in spec.md §4.3.
func NewSender(conn net.PacketConn, dest net.Addr, maxPacketSize int, logger *slog.Logger) *Sender {
	if logger == nil {
		logger = slog.Default()
	}
	return &Sender{conn: conn, dest: dest, maxPacketSize: maxPacketSize, logger: logger}
}

// SendEncodedPacket fragments pkt and writes all fragments, in
// fragmentIndex order, before returning. The sender MUST finish one
// frame's fragments before starting the next (spec.md §4.3) — this
// method is meant to be called from the single pipeline loop goroutine,
// never concurrently with itself.
func (s *Sender) SendEncodedPacket(pkt media.EncodedPacket) error {
	if err := pkt.Validate(); err != nil {
		return fmt.Errorf("transport: refusing to send invalid packet: %w", err)
	}

	maxPayload := s.maxPacketSize - videoHeaderOverhead
	if maxPayload <= 0 {
		return fmt.Errorf("transport: maxPacketSize %d too small for header overhead %d", s.maxPacketSize, videoHeaderOverhead)
	}

	// Fragment 0 must additionally fit the parameter-set blob alongside
	// at least some payload; if parameter sets alone exceed the budget
	// they still go out whole on fragment 0 with zero-length payload.
	fragmentCount := computeFragmentCount(len(pkt.Data), len(pkt.ParameterSets), maxPayload)

	off := 0
	for idx := 0; idx < fragmentCount; idx++ {
		budget := maxPayload
		var paramSets []byte
		if idx == 0 {
			paramSets = pkt.ParameterSets
			budget -= len(paramSets)
			if budget < 0 {
				budget = 0
			}
		}
		end := off + budget
		if end > len(pkt.Data) {
			end = len(pkt.Data)
		}
		wp := wireproto.VideoPacket{
			Version:          1,
			Keyframe:         pkt.IsKeyframe,
			Codec:            pkt.Codec,
			FrameID:          pkt.FrameID,
			CaptureTsNs:      pkt.CaptureTs,
			PresentationTsNs: pkt.PresentationTimeNs,
			Width:            pkt.Width,
			Height:           pkt.Height,
			FragmentIndex:    uint16(idx),
			FragmentCount:    uint16(fragmentCount),
			ParameterSets:    paramSets,
			Payload:          pkt.Data[off:end],
		}
		buf, err := wp.Marshal()
		if err != nil {
			return fmt.Errorf("transport: marshal fragment %d/%d of frame %d: %w", idx, fragmentCount, pkt.FrameID, err)
		}
		if _, err := s.conn.WriteTo(buf, s.dest); err != nil {
			// Drop-not-block policy on the hot path: a failed write
			// (e.g. EAGAIN) drops the rest of this frame's fragments
			// rather than blocking or retrying, and is reported to the
			// caller for stats.
			s.logger.Debug("dropping video fragment write failure", "frame_id", pkt.FrameID, "fragment", idx, "err", err)
			return fmt.Errorf("transport: write fragment %d/%d of frame %d: %w", idx, fragmentCount, pkt.FrameID, err)
		}
		off = end
	}
	return nil
}

func computeFragmentCount(dataLen, paramSetsLen, maxPayload int) int {
	if dataLen == 0 {
		return 1
	}
	remaining := dataLen
	count := 0
	budget := maxPayload - paramSetsLen
	if budget < 0 {
		budget = 0
	}
	for remaining > 0 || count == 0 {
		b := maxPayload
		if count == 0 {
			b = budget
		}
		// b is 0 only for fragment 0 when the parameter sets fill its whole
		// budget; that fragment then carries no payload, as in SendEncodedPacket.
		take := b
		if take > remaining {
			take = remaining
		}
		remaining -= take
		count++
		if remaining == 0 {
			break
		}
	}
	return count
}

// SendTileUpdate writes a TileUpdate as a single SHTL datagram. Tiles are
// not fragmented; callers are responsible for keeping JPEG size under the
// path MTU.
func (s *Sender) SendTileUpdate(t wireproto.TileUpdate) error {
	if err := t.Validate(); err != nil {
		return fmt.Errorf("transport: refusing to send invalid tile: %w", err)
	}
	_, err := s.conn.WriteTo(t.Marshal(), s.dest)
	return err
}

// SendInputEvent writes a single 28-byte SHIP datagram.
func (s *Sender) SendInputEvent(e wireproto.InputEvent) error {
	_, err := s.conn.WriteTo(e.Serialize(), s.dest)
	return err
}

// SendConfigMessage writes a SHCF datagram.
func (s *Sender) SendConfigMessage(m wireproto.ConfigMessage) error {
	buf, err := m.Marshal()
	if err != nil {
		return fmt.Errorf("transport: marshal config message: %w", err)
	}
	_, err = s.conn.WriteTo(buf, s.dest)
	return err
}

// Close releases the underlying socket.
func (s *Sender) Close() error {
	return s.conn.Close()
}
