package main

import (
	"fmt"
	"time"

	"github.com/demetriomjr/real-state-crm/errors"
)

type Config struct {
	LogLevel             string        `env:"LOG_LEVEL,required=true"`
	Host                 string        `env:"HOST,default=localhost"`
	Port                 int           `env:"PORT,default=8080"`
	BadgerFilepath       string        `env:"BADGER_FILEPATH,required=true"`
	BlugeFilepath        string        `env:"BLUGE_FILEPATH,required=true"`
	ConnectionBufferSize int           `env:"CONNECTION_BUFFER_SIZE,default=64"`
	RecentActivityDepth  int           `env:"RECENT_ACTIVITY_DEPTH,default=20"`
	LimitMessages        *int          `env:"LIMIT_MESSAGES"`
	HeartbeatInterval    time.Duration `env:"HEARTBEAT_INTERVAL,default=30s"`
	SweepInterval        time.Duration `env:"SWEEP_INTERVAL,default=60s"`
	IdleTimeout          time.Duration `env:"IDLE_TIMEOUT,default=5m"`
	RestartInterval      time.Duration `env:"RESTART_INTERVAL,default=5s"`
	TelemetryInterval    time.Duration `env:"TELEMETRY_INTERVAL,default=1m"`
	JWTSecret            string        `env:"JWT_SECRET,required=true"`
	AuthTokenDuration    time.Duration `env:"AUTH_TOKEN_DURATION,default=12h"`
	N8NWebhookURL        string        `env:"N8N_WEBHOOK_URL,required=true"`
	N8NTimeout           time.Duration `env:"N8N_TIMEOUT,default=10s"`
}

// Validate enforces the timing ladder the delivery core relies on: the
// heartbeat must fire well inside one sweep period, and a subscription must
// survive several sweeps before it can be called idle. Inverting the order
// would evict healthy subscriptions between two heartbeats.
func (c Config) Validate() error {
	if c.HeartbeatInterval <= 0 || c.HeartbeatInterval >= c.SweepInterval || c.SweepInterval >= c.IdleTimeout {
		return errors.ErrInvalidInterval
	}
	if c.ConnectionBufferSize < 1 {
		return fmt.Errorf("connection buffer size must be at least 1, got %d", c.ConnectionBufferSize)
	}
	return nil
}
