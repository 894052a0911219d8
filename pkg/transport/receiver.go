package transport

import (
	"context"
	"errors"
	"log/slog"
	"net"
	"os"
	"time"

	"github.com/bsod90/screenhero-sub001/pkg/media"
	"github.com/bsod90/screenhero-sub001/pkg/wireproto"
)

// recvPollInterval bounds how long a single ReadFrom call blocks, so the
// receive loop can notice context cancellation and run periodic deadline
// sweeps even when no datagrams are arriving.
const recvPollInterval = 50 * time.Millisecond

// recvBufferSize is large enough for any single datagram under the
// default MTU with generous headroom.
const recvBufferSize = 65536

// Handlers bundles the per-datagram-type callbacks a Receiver dispatches
// to. Any nil handler causes that datagram type to be silently dropped,
// matching spec.md §4.4's "Unknown → dropped silently" rule extended to
// "uninteresting to this peer → dropped silently".
type Handlers struct {
	OnVideoPacket func(media.EncodedPacket)
	OnTileUpdate  func(wireproto.TileUpdate)
	OnInputEvent  func(wireproto.InputEvent)
	OnConfigMsg   func(wireproto.ConfigMessage)
}

// Receiver reads datagrams from a single socket, demultiplexes them by
// magic prefix (spec.md §4.4), and reassembles video fragments via an
// embedded Reassembler before dispatching to Handlers.
type Receiver struct {
	conn         net.PacketConn
	reassembler  *Reassembler
	handlers     Handlers
	logger       *slog.Logger
}

// NewReceiver constructs a Receiver over an already-bound/joined socket.
func NewReceiver(conn net.PacketConn, frameInterval time.Duration, capacity int, handlers Handlers, logger *slog.Logger) *Receiver {
	if logger == nil {
		logger = slog.Default()
	}
	r := &Receiver{
		conn:        conn,
		reassembler: NewReassembler(capacity, frameInterval),
		handlers:    handlers,
		logger:      logger,
	}
	return r
}

// Reassembler exposes the embedded reassembler, primarily so callers can
// register OnKeyframeDropped before Run starts.
func (r *Receiver) Reassembler() *Reassembler {
	return r.reassembler
}

// Run blocks, reading and dispatching datagrams until ctx is cancelled or
// the socket errors. It is safe to call Close concurrently to unblock Run.
func (r *Receiver) Run(ctx context.Context) error {
	buf := make([]byte, recvBufferSize)
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		if err := r.conn.SetReadDeadline(time.Now().Add(recvPollInterval)); err != nil {
			return err
		}
		n, _, err := r.conn.ReadFrom(buf)
		if err != nil {
			if ne, ok := err.(net.Error); ok && ne.Timeout() {
				continue
			}
			if errors.Is(err, net.ErrClosed) || errors.Is(err, os.ErrClosed) {
				return nil
			}
			r.logger.Error("receiver socket error", "err", err)
			return err
		}
		r.dispatch(time.Now(), append([]byte(nil), buf[:n]...))
	}
}

func (r *Receiver) dispatch(now time.Time, datagram []byte) {
	magic, err := wireproto.PeekMagic(datagram)
	if err != nil {
		return
	}
	switch magic {
	case wireproto.MagicVideoPacket:
		vp, err := wireproto.UnmarshalVideoPacket(datagram)
		if err != nil {
			r.logger.Debug("dropping malformed SHVP datagram", "err", err)
			return
		}
		pkt, complete := r.reassembler.Ingest(now, vp)
		if complete && r.handlers.OnVideoPacket != nil {
			r.handlers.OnVideoPacket(pkt)
		}
	case wireproto.MagicTileUpdate:
		tu, err := wireproto.UnmarshalTileUpdate(datagram)
		if err != nil {
			r.logger.Debug("dropping malformed SHTL datagram", "err", err)
			return
		}
		if r.handlers.OnTileUpdate != nil {
			r.handlers.OnTileUpdate(tu)
		}
	case wireproto.MagicInputEvent:
		ie, err := wireproto.DeserializeInputEvent(datagram)
		if err != nil {
			r.logger.Debug("dropping malformed SHIP datagram", "err", err)
			return
		}
		if r.handlers.OnInputEvent != nil {
			r.handlers.OnInputEvent(ie)
		}
	case wireproto.MagicConfigMsg:
		cm, err := wireproto.UnmarshalConfigMessage(datagram)
		if err != nil {
			r.logger.Debug("dropping malformed SHCF datagram", "err", err)
			return
		}
		if r.handlers.OnConfigMsg != nil {
			r.handlers.OnConfigMsg(cm)
		}
	default:
		// Unknown magic: dropped silently, spec.md §4.4.
	}
}

// Close releases the underlying socket, unblocking any in-flight Run.
func (r *Receiver) Close() error {
	return r.conn.Close()
}
