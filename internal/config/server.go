package config

import "time"

type ServerConfig struct {
	Port               string `mapstructure:"port"`
	ReadTimeoutSec     int    `mapstructure:"read_timeout_sec"`
	WriteTimeoutSec    int    `mapstructure:"write_timeout_sec"`
	ShutdownTimeoutSec int    `mapstructure:"shutdown_timeout_sec"`

	// StreamEnabled runs scans on an interval while the market is open and
	// pushes each result to WebSocket subscribers.
	StreamEnabled     bool `mapstructure:"stream_enabled"`
	StreamIntervalSec int  `mapstructure:"stream_interval_sec"`
}

func (s ServerConfig) Addr() string {
	return ":" + s.Port
}

func (s ServerConfig) ReadTimeout() time.Duration {
	return time.Duration(s.ReadTimeoutSec) * time.Second
}

func (s ServerConfig) WriteTimeout() time.Duration {
	return time.Duration(s.WriteTimeoutSec) * time.Second
}

func (s ServerConfig) ShutdownTimeout() time.Duration {
	return time.Duration(s.ShutdownTimeoutSec) * time.Second
}

func (s ServerConfig) StreamInterval() time.Duration {
	return time.Duration(s.StreamIntervalSec) * time.Second
}
