package wireproto

import (
	"encoding/binary"
	"encoding/json"
	"fmt"

	"github.com/bsod90/screenhero-sub001/pkg/media"
)

// ConfigMsgType enumerates the SHCF exchange kinds (spec.md §6).
type ConfigMsgType uint8

const (
	ConfigRequest ConfigMsgType = iota
	ConfigResponse
	ConfigUpdate
	ConfigAck
)

// configHeaderSize is the fixed 9-byte SHCF header (magic + type + length).
const configHeaderSize = 9

// Dimensions is a width/height pair, used for the optional
// serverDisplay/serverNative fields of ConfigPayload.
type Dimensions struct {
	Width  int `json:"Width"`
	Height int `json:"Height"`
}

// ConfigPayload is the JSON body of a SHCF message, spec.md §6.
type ConfigPayload struct {
	Width               int         `json:"width"`
	Height              int         `json:"height"`
	FPS                 int         `json:"fps"`
	Codec               string      `json:"codec"`
	Bitrate             int         `json:"bitrate"`
	KeyframeInterval    int         `json:"keyframeInterval"`
	FullColorMode       bool        `json:"fullColorMode"`
	UseNativeResolution bool        `json:"useNativeResolution"`
	ServerDisplay       *Dimensions `json:"serverDisplay,omitempty"`
	ServerNative        *Dimensions `json:"serverNative,omitempty"`
}

// FromStreamConfig builds a ConfigPayload mirroring a media.StreamConfig.
func FromStreamConfig(c media.StreamConfig) ConfigPayload {
	return ConfigPayload{
		Width:            c.Width,
		Height:           c.Height,
		FPS:              c.FPS,
		Codec:            c.Codec.String(),
		Bitrate:          c.Bitrate,
		KeyframeInterval: c.KeyframeInterval,
		FullColorMode:    c.FullColorMode,
	}
}

// ConfigMessage is a parsed SHCF datagram.
type ConfigMessage struct {
	Type    ConfigMsgType
	Payload ConfigPayload
}

// Marshal encodes the config message into its SHCF wire form.
func (m ConfigMessage) Marshal() ([]byte, error) {
	body, err := json.Marshal(m.Payload)
	if err != nil {
		return nil, fmt.Errorf("wireproto: marshal config payload: %w", err)
	}
	buf := make([]byte, configHeaderSize+len(body))
	binary.BigEndian.PutUint32(buf[0:4], uint32(MagicConfigMsg))
	buf[4] = uint8(m.Type)
	binary.BigEndian.PutUint32(buf[5:9], uint32(len(body)))
	copy(buf[configHeaderSize:], body)
	return buf, nil
}

// UnmarshalConfigMessage decodes a SHCF datagram.
func UnmarshalConfigMessage(buf []byte) (ConfigMessage, error) {
	if len(buf) < configHeaderSize {
		return ConfigMessage{}, fmt.Errorf("wireproto: SHCF datagram too short: %d bytes", len(buf))
	}
	magic := Magic(binary.BigEndian.Uint32(buf[0:4]))
	if magic != MagicConfigMsg {
		return ConfigMessage{}, fmt.Errorf("wireproto: expected SHCF magic, got %s", magic)
	}
	msgType := ConfigMsgType(buf[4])
	jsonLen := binary.BigEndian.Uint32(buf[5:9])
	if len(buf) < configHeaderSize+int(jsonLen) {
		return ConfigMessage{}, fmt.Errorf("wireproto: SHCF json truncated: need %d, have %d", jsonLen, len(buf)-configHeaderSize)
	}
	var payload ConfigPayload
	if err := json.Unmarshal(buf[configHeaderSize:configHeaderSize+int(jsonLen)], &payload); err != nil {
		return ConfigMessage{}, fmt.Errorf("wireproto: unmarshal config payload: %w", err)
	}
	return ConfigMessage{Type: msgType, Payload: payload}, nil
}
