package codec

import (
	"fmt"

	"github.com/Eyevinn/mp4ff/avc"
)

// SPSInfo holds the fields of an H.264 SPS relevant to deciding whether a
// decoder session must be torn down and recreated (spec.md §4.5, scenario
// D: format change mid-stream).
type SPSInfo struct {
	ProfileIDC uint8
	LevelIDC   uint8
	Width      uint
	Height     uint
}

// ParseSPS parses a single H.264 SPS NAL unit (NAL header byte included).
func ParseSPS(nal []byte) (SPSInfo, error) {
	if len(nal) < 4 {
		return SPSInfo{}, fmt.Errorf("codec: SPS too short: %d bytes", len(nal))
	}
	sps, err := avc.ParseSPSNALUnit(nal, true)
	if err != nil {
		return SPSInfo{}, fmt.Errorf("codec: parse SPS: %w", err)
	}
	return SPSInfo{
		ProfileIDC: uint8(sps.Profile),
		LevelIDC:   uint8(sps.Level),
		Width:      sps.Width,
		Height:     sps.Height,
	}, nil
}

// firstSPS finds and parses the first SPS NAL unit (type 7) out of an
// Annex-B framed ParameterSets blob.
func firstSPS(parameterSets []byte) (SPSInfo, bool) {
	for _, nal := range SplitAnnexB(parameterSets) {
		if nalType(nal) == h264NALTypeSPS {
			info, err := ParseSPS(nal)
			if err == nil {
				return info, true
			}
		}
	}
	return SPSInfo{}, false
}

// formatChanged reports whether two SPS snapshots describe an
// incompatible decode format: different dimensions or profile.
func formatChanged(prev, next SPSInfo) bool {
	return prev.Width != next.Width || prev.Height != next.Height || prev.ProfileIDC != next.ProfileIDC
}
