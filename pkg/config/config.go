// Package config loads process configuration for the host and viewer
// binaries from the environment, matching the host/viewer CLI surfaces
// from spec.md §6. Grounded on api/pkg/config/config.go's
// envconfig.Process pattern.
package config

import "github.com/kelseyhightower/envconfig"

// HostConfig configures the host pipeline: capture dimensions, encode
// parameters, and the transport/pairing surface.
type HostConfig struct {
	Port             int    `envconfig:"SCREENHERO_PORT" default:"9876"`
	Width            int    `envconfig:"SCREENHERO_WIDTH" default:"1920"`
	Height           int    `envconfig:"SCREENHERO_HEIGHT" default:"1080"`
	FPS              int    `envconfig:"SCREENHERO_FPS" default:"60"`
	BitrateMbps      int    `envconfig:"SCREENHERO_BITRATE_MBPS" default:"20"`
	Codec            string `envconfig:"SCREENHERO_CODEC" default:"h264"`
	KeyframeInterval int    `envconfig:"SCREENHERO_KEYFRAME_INTERVAL" default:"120"`
	DisplayIndex     int    `envconfig:"SCREENHERO_DISPLAY_INDEX" default:"0"`
	TransportMode    string `envconfig:"SCREENHERO_TRANSPORT_MODE" default:"unicast"`
	MulticastGroup   string `envconfig:"SCREENHERO_MULTICAST_GROUP" default:"239.192.1.1:9877"`
	StatusPort       int    `envconfig:"SCREENHERO_STATUS_PORT" default:"9878"`
	HostSecretPath   string `envconfig:"SCREENHERO_HOST_SECRET_PATH" default:"./screenhero-host-secret.bin"`
	Advertise        bool   `envconfig:"SCREENHERO_ADVERTISE" default:"true"`
}

// LoadHostConfig reads a HostConfig from the environment.
func LoadHostConfig() (HostConfig, error) {
	var cfg HostConfig
	if err := envconfig.Process("", &cfg); err != nil {
		return HostConfig{}, err
	}
	return cfg, nil
}

// ViewerConfig configures the viewer pipeline: which host to connect to
// and the local display surface.
type ViewerConfig struct {
	Host           string `envconfig:"SCREENHERO_HOST"`
	Port           int    `envconfig:"SCREENHERO_PORT" default:"9876"`
	WindowWidth    int    `envconfig:"SCREENHERO_WINDOW_WIDTH" default:"1280"`
	WindowHeight   int    `envconfig:"SCREENHERO_WINDOW_HEIGHT" default:"720"`
	Fullscreen     bool   `envconfig:"SCREENHERO_FULLSCREEN" default:"false"`
	TokenStorePath string `envconfig:"SCREENHERO_TOKEN_STORE_PATH" default:"./screenhero-tokens.json"`
	StatusPort     int    `envconfig:"SCREENHERO_STATUS_PORT" default:"9879"`
}

// LoadViewerConfig reads a ViewerConfig from the environment.
func LoadViewerConfig() (ViewerConfig, error) {
	var cfg ViewerConfig
	if err := envconfig.Process("", &cfg); err != nil {
		return ViewerConfig{}, err
	}
	return cfg, nil
}
