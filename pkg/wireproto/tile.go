package wireproto

import (
	"encoding/binary"
	"fmt"
)

// tileHeaderSize is the fixed 48-byte SHTL header, spec.md §4.3/§6.
const tileHeaderSize = 48

// TileUpdate is a JPEG-compressed rectangular screen patch, sent when the
// dirty area is small enough that a region update beats a full frame.
type TileUpdate struct {
	FrameID   uint64
	X, Y      uint32
	W, H      uint32
	FullW     uint32
	FullH     uint32
	CaptureTs uint64
	JPEG      []byte
}

// MinTileDim is the minimum tile width/height; tiles must also be 16-aligned.
const MinTileDim = 64

// Validate checks the TileUpdate invariants from spec.md §3.
func (t TileUpdate) Validate() error {
	if t.X+t.W > t.FullW || t.Y+t.H > t.FullH {
		return fmt.Errorf("wireproto: tile rect (%d,%d,%d,%d) exceeds frame %dx%d", t.X, t.Y, t.W, t.H, t.FullW, t.FullH)
	}
	if t.W < MinTileDim || t.H < MinTileDim {
		return fmt.Errorf("wireproto: tile %dx%d smaller than minimum %d", t.W, t.H, MinTileDim)
	}
	if t.W%16 != 0 || t.H%16 != 0 {
		return fmt.Errorf("wireproto: tile %dx%d is not 16-aligned", t.W, t.H)
	}
	return nil
}

// Marshal encodes the tile update into its SHTL wire form.
func (t TileUpdate) Marshal() []byte {
	buf := make([]byte, tileHeaderSize+len(t.JPEG))
	binary.BigEndian.PutUint32(buf[0:4], uint32(MagicTileUpdate))
	binary.BigEndian.PutUint64(buf[4:12], t.FrameID)
	binary.BigEndian.PutUint32(buf[12:16], t.X)
	binary.BigEndian.PutUint32(buf[16:20], t.Y)
	binary.BigEndian.PutUint32(buf[20:24], t.W)
	binary.BigEndian.PutUint32(buf[24:28], t.H)
	binary.BigEndian.PutUint32(buf[28:32], t.FullW)
	binary.BigEndian.PutUint32(buf[32:36], t.FullH)
	binary.BigEndian.PutUint64(buf[36:44], t.CaptureTs)
	binary.BigEndian.PutUint32(buf[44:48], uint32(len(t.JPEG)))
	copy(buf[48:], t.JPEG)
	return buf
}

// UnmarshalTileUpdate decodes a SHTL datagram.
func UnmarshalTileUpdate(buf []byte) (TileUpdate, error) {
	if len(buf) < tileHeaderSize {
		return TileUpdate{}, fmt.Errorf("wireproto: SHTL datagram too short: %d bytes", len(buf))
	}
	magic := Magic(binary.BigEndian.Uint32(buf[0:4]))
	if magic != MagicTileUpdate {
		return TileUpdate{}, fmt.Errorf("wireproto: expected SHTL magic, got %s", magic)
	}
	t := TileUpdate{
		FrameID:   binary.BigEndian.Uint64(buf[4:12]),
		X:         binary.BigEndian.Uint32(buf[12:16]),
		Y:         binary.BigEndian.Uint32(buf[16:20]),
		W:         binary.BigEndian.Uint32(buf[20:24]),
		H:         binary.BigEndian.Uint32(buf[24:28]),
		FullW:     binary.BigEndian.Uint32(buf[28:32]),
		FullH:     binary.BigEndian.Uint32(buf[32:36]),
		CaptureTs: binary.BigEndian.Uint64(buf[36:44]),
	}
	jpegLen := binary.BigEndian.Uint32(buf[44:48])
	if len(buf) < tileHeaderSize+int(jpegLen) {
		return TileUpdate{}, fmt.Errorf("wireproto: SHTL jpeg truncated: need %d, have %d", jpegLen, len(buf)-tileHeaderSize)
	}
	t.JPEG = append([]byte(nil), buf[tileHeaderSize:tileHeaderSize+int(jpegLen)]...)
	return t, nil
}
