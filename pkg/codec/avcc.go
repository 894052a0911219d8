package codec

import (
	"encoding/binary"
	"fmt"
)

// SplitAVCC splits a 4-byte length-prefixed (AVCC/HVCC) byte string into
// individual NAL units. EncodedPacket.Data stays in this form on the wire
// (spec.md §4.2: "the wire format does not re-wrap").
func SplitAVCC(b []byte) ([][]byte, error) {
	var units [][]byte
	for len(b) > 0 {
		if len(b) < 4 {
			return nil, fmt.Errorf("codec: AVCC trailing bytes too short for length prefix: %d", len(b))
		}
		n := binary.BigEndian.Uint32(b[:4])
		b = b[4:]
		if uint32(len(b)) < n {
			return nil, fmt.Errorf("codec: AVCC NAL length %d exceeds remaining %d bytes", n, len(b))
		}
		units = append(units, b[:n])
		b = b[n:]
	}
	return units, nil
}

// JoinAVCC re-frames a list of raw NAL units with 4-byte big-endian length
// prefixes, the form EncodedPacket.Data travels in on the wire.
func JoinAVCC(units [][]byte) []byte {
	out := make([]byte, 0)
	var lenBuf [4]byte
	for _, u := range units {
		binary.BigEndian.PutUint32(lenBuf[:], uint32(len(u)))
		out = append(out, lenBuf[:]...)
		out = append(out, u...)
	}
	return out
}

// nalType extracts the H.264 NAL unit type (low 5 bits of the header byte).
func nalType(nal []byte) uint8 {
	if len(nal) == 0 {
		return 0
	}
	return nal[0] & 0x1F
}

const (
	h264NALTypeSPS = 7
	h264NALTypePPS = 8
	h264NALTypeIDR = 5
)
