package codec

import "bytes"

// annexBStartCode is the 4-byte start code used to frame parameter sets
// on the wire (spec.md glossary: Annex-B).
var annexBStartCode = []byte{0x00, 0x00, 0x00, 0x01}

// SplitAnnexB splits a byte string framed with 4-byte Annex-B start codes
// into individual NAL units (start codes stripped). Used by the decoder
// to recover SPS/PPS/VPS from EncodedPacket.ParameterSets (spec.md §4.5).
func SplitAnnexB(b []byte) [][]byte {
	var units [][]byte
	idx := bytes.Index(b, annexBStartCode)
	if idx < 0 {
		if len(b) > 0 {
			units = append(units, b)
		}
		return units
	}
	b = b[idx+len(annexBStartCode):]
	for {
		next := bytes.Index(b, annexBStartCode)
		if next < 0 {
			if len(b) > 0 {
				units = append(units, b)
			}
			return units
		}
		if next > 0 {
			units = append(units, b[:next])
		}
		b = b[next+len(annexBStartCode):]
	}
}

// JoinAnnexB re-frames a list of raw NAL units with 4-byte Annex-B start
// codes, the form EncodedPacket.ParameterSets travels in on the wire.
func JoinAnnexB(units [][]byte) []byte {
	var out []byte
	for _, u := range units {
		out = append(out, annexBStartCode...)
		out = append(out, u...)
	}
	return out
}
