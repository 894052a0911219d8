// Package wireproto implements the on-the-wire framing for screenhero's
// datagram transport: video packet fragments, tile updates, input events,
// and config messages, all discriminated by a 4-byte magic prefix.
package wireproto

import "fmt"

// Magic identifies the datagram type. All wire integers are big-endian.
type Magic uint32

const (
	MagicVideoPacket  Magic = 0x53485650 // "SHVP"
	MagicTileUpdate   Magic = 0x5348544C // "SHTL"
	MagicInputEvent   Magic = 0x53484950 // "SHIP"
	MagicConfigMsg    Magic = 0x53484346 // "SHCF"
)

func (m Magic) String() string {
	switch m {
	case MagicVideoPacket:
		return "SHVP"
	case MagicTileUpdate:
		return "SHTL"
	case MagicInputEvent:
		return "SHIP"
	case MagicConfigMsg:
		return "SHCF"
	default:
		return fmt.Sprintf("0x%08x", uint32(m))
	}
}

// PeekMagic reads the 4-byte big-endian magic prefix of a datagram without
// otherwise interpreting it. Returns an error if the datagram is too short.
func PeekMagic(b []byte) (Magic, error) {
	if len(b) < 4 {
		return 0, fmt.Errorf("wireproto: datagram too short to contain a magic (%d bytes)", len(b))
	}
	return Magic(uint32(b[0])<<24 | uint32(b[1])<<16 | uint32(b[2])<<8 | uint32(b[3])), nil
}
