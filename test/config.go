package test

import (
	"time"

	"github.com/kelseyhightower/envconfig"
)

// Config carries the knobs an operator may want to turn when running the
// integration scenario against slower CI machines.
type Config struct {
	StreamBuffer      int           `envconfig:"ITG_STREAM_BUFFER" default:"16"`
	HeartbeatInterval time.Duration `envconfig:"ITG_HEARTBEAT_INTERVAL" default:"30s"`
	IdleTimeout       time.Duration `envconfig:"ITG_IDLE_TIMEOUT" default:"5m"`
	WaitTimeout       time.Duration `envconfig:"ITG_WAIT_TIMEOUT" default:"2s"`
}

func LoadConfig() (Config, error) {
	var config Config
	err := envconfig.Process("", &config)
	return config, err
}
