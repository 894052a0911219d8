// Package media defines the core data model shared by every pipeline
// stage: stream configuration, raw capture frames, and encoded packets.
package media

import "fmt"

// Codec identifies the video compression in use on the wire.
type Codec uint8

const (
	CodecH264 Codec = iota
	CodecHEVC
	CodecPassthrough
)

func (c Codec) String() string {
	switch c {
	case CodecH264:
		return "h264"
	case CodecHEVC:
		return "hevc"
	case CodecPassthrough:
		return "passthrough"
	default:
		return fmt.Sprintf("codec(%d)", uint8(c))
	}
}

// ParseCodec parses the CLI/config string form of a codec name.
func ParseCodec(s string) (Codec, error) {
	switch s {
	case "h264":
		return CodecH264, nil
	case "hevc":
		return CodecHEVC, nil
	case "passthrough":
		return CodecPassthrough, nil
	default:
		return 0, fmt.Errorf("media: unknown codec %q", s)
	}
}

// TransportMode selects how the Sender reaches the viewer(s).
type TransportMode uint8

const (
	TransportUnicast TransportMode = iota
	TransportMulticast
)

// DefaultMTU is the conservative default cap on WirePacket size, chosen
// to stay under common LAN path MTUs without relying on path MTU discovery.
const DefaultMTU = 1400

// StreamConfig is the immutable set of capture/encode parameters a
// pipeline is built with. It is frozen after construction.
type StreamConfig struct {
	Width            int
	Height           int
	FPS              int
	Codec            Codec
	Bitrate          int // bits per second
	KeyframeInterval int // frames between forced keyframes; >= 1
	LowLatency       bool
	MaxPacketSize    int // <= link MTU, default 1400
	FullColorMode    bool
}

// Validate checks the invariants from the data model table in spec.md §3.
func (c StreamConfig) Validate() error {
	if c.Width <= 0 || c.Height <= 0 {
		return fmt.Errorf("media: width/height must be > 0, got %dx%d", c.Width, c.Height)
	}
	if c.FPS <= 0 {
		return fmt.Errorf("media: fps must be > 0, got %d", c.FPS)
	}
	if c.Bitrate <= 0 {
		return fmt.Errorf("media: bitrate must be > 0, got %d", c.Bitrate)
	}
	if c.KeyframeInterval < 1 {
		return fmt.Errorf("media: keyframeInterval must be >= 1, got %d", c.KeyframeInterval)
	}
	if c.MaxPacketSize <= 0 || c.MaxPacketSize > DefaultMTU {
		return fmt.Errorf("media: maxPacketSize must be in (0, %d], got %d", DefaultMTU, c.MaxPacketSize)
	}
	return nil
}

// FrameInterval is the nominal time between frames at the configured FPS.
func (c StreamConfig) FrameInterval() (nanos int64) {
	if c.FPS <= 0 {
		return 0
	}
	return int64(1_000_000_000) / int64(c.FPS)
}
