// Package client is the mobile-side library: a REST client for the
// request surface, a socket client for live events, and controllers that
// mirror the app's chat and call screens.
package client

import (
	"time"

	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	ServerURL      string        `envconfig:"SERVER_URL" default:"http://localhost:8080"`
	SocketURL      string        `envconfig:"SOCKET_URL" default:"ws://localhost:8080/ws"`
	RequestTimeout time.Duration `envconfig:"REQUEST_TIMEOUT" default:"10s"`
	FrameInterval  time.Duration `envconfig:"FRAME_INTERVAL" default:"500ms"`
}

func LoadConfig() (Config, error) {
	var cfg Config
	if err := envconfig.Process("CLIENT", &cfg); err != nil {
		return Config{}, err
	}
	return cfg, nil
}
