package wireproto

import (
	"encoding/binary"
	"fmt"

	"github.com/bsod90/screenhero-sub001/pkg/media"
)

// Video packet flag bits (flags field, byte offset 5).
const (
	FlagKeyframe      uint8 = 1 << 0
	FlagParameterSets uint8 = 1 << 1
)

// videoHeaderSize is the fixed 48-byte SHVP header, spec.md §4.3/§6.
const videoHeaderSize = 48

// VideoPacket is one MTU-sized fragment of an EncodedPacket (SHVP).
type VideoPacket struct {
	Version         uint8
	Keyframe        bool
	Codec           media.Codec
	FrameID         uint64
	CaptureTsNs     uint64
	PresentationTsNs uint64
	Width           uint16
	Height          uint16
	FragmentIndex   uint16
	FragmentCount   uint16
	ParameterSets   []byte // only meaningful on fragment 0
	Payload         []byte
}

// Marshal encodes the packet into its 48-byte-header wire form.
func (p VideoPacket) Marshal() ([]byte, error) {
	if p.FragmentIndex >= p.FragmentCount {
		return nil, fmt.Errorf("wireproto: fragmentIndex %d >= fragmentCount %d", p.FragmentIndex, p.FragmentCount)
	}
	hasParams := p.FragmentIndex == 0 && len(p.ParameterSets) > 0

	buf := make([]byte, videoHeaderSize+len(p.ParameterSets)*boolToInt(hasParams)+len(p.Payload))
	binary.BigEndian.PutUint32(buf[0:4], uint32(MagicVideoPacket))
	buf[4] = p.Version
	var flags uint8
	if p.Keyframe {
		flags |= FlagKeyframe
	}
	if hasParams {
		flags |= FlagParameterSets
	}
	buf[5] = flags
	buf[6] = uint8(p.Codec)
	buf[7] = 0 // reserved
	binary.BigEndian.PutUint64(buf[8:16], p.FrameID)
	binary.BigEndian.PutUint64(buf[16:24], p.CaptureTsNs)
	binary.BigEndian.PutUint64(buf[24:32], p.PresentationTsNs)
	binary.BigEndian.PutUint16(buf[32:34], p.Width)
	binary.BigEndian.PutUint16(buf[34:36], p.Height)
	binary.BigEndian.PutUint16(buf[36:38], p.FragmentIndex)
	binary.BigEndian.PutUint16(buf[38:40], p.FragmentCount)

	off := videoHeaderSize
	if hasParams {
		binary.BigEndian.PutUint32(buf[40:44], uint32(len(p.ParameterSets)))
		copy(buf[off:off+len(p.ParameterSets)], p.ParameterSets)
		off += len(p.ParameterSets)
	} else {
		binary.BigEndian.PutUint32(buf[40:44], 0)
	}
	binary.BigEndian.PutUint32(buf[44:48], uint32(len(p.Payload)))
	copy(buf[off:], p.Payload)

	return buf, nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

// UnmarshalVideoPacket decodes a SHVP datagram.
func UnmarshalVideoPacket(buf []byte) (VideoPacket, error) {
	if len(buf) < videoHeaderSize {
		return VideoPacket{}, fmt.Errorf("wireproto: SHVP datagram too short: %d bytes", len(buf))
	}
	magic := Magic(binary.BigEndian.Uint32(buf[0:4]))
	if magic != MagicVideoPacket {
		return VideoPacket{}, fmt.Errorf("wireproto: expected SHVP magic, got %s", magic)
	}
	flags := buf[5]
	p := VideoPacket{
		Version:          buf[4],
		Keyframe:         flags&FlagKeyframe != 0,
		Codec:            media.Codec(buf[6]),
		FrameID:          binary.BigEndian.Uint64(buf[8:16]),
		CaptureTsNs:      binary.BigEndian.Uint64(buf[16:24]),
		PresentationTsNs: binary.BigEndian.Uint64(buf[24:32]),
		Width:            binary.BigEndian.Uint16(buf[32:34]),
		Height:           binary.BigEndian.Uint16(buf[34:36]),
		FragmentIndex:    binary.BigEndian.Uint16(buf[36:38]),
		FragmentCount:    binary.BigEndian.Uint16(buf[38:40]),
	}
	paramSetsLen := binary.BigEndian.Uint32(buf[40:44])
	payloadLen := binary.BigEndian.Uint32(buf[44:48])

	off := videoHeaderSize
	if flags&FlagParameterSets != 0 {
		if len(buf) < off+int(paramSetsLen) {
			return VideoPacket{}, fmt.Errorf("wireproto: SHVP paramSets truncated: need %d, have %d", paramSetsLen, len(buf)-off)
		}
		p.ParameterSets = append([]byte(nil), buf[off:off+int(paramSetsLen)]...)
		off += int(paramSetsLen)
	}
	if len(buf) < off+int(payloadLen) {
		return VideoPacket{}, fmt.Errorf("wireproto: SHVP payload truncated: need %d, have %d", payloadLen, len(buf)-off)
	}
	p.Payload = append([]byte(nil), buf[off:off+int(payloadLen)]...)

	if p.FragmentIndex >= p.FragmentCount {
		return VideoPacket{}, fmt.Errorf("wireproto: fragmentIndex %d >= fragmentCount %d", p.FragmentIndex, p.FragmentCount)
	}
	return p, nil
}
