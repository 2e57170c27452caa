package main

import (
	"os"
	"time"

	"github.com/carmandale/spy-fly/internal/config"
)

const defaultConfigPath = "/app/configs/default.yaml"

// settings is the daemon schedule resolved from the daemon config section.
type settings struct {
	hour         int
	minute       int
	location     *time.Location
	stateFile    string
	runOnStartup bool
}

func configPath() string {
	if p := os.Getenv("SPYFLY_CONFIG"); p != "" {
		return p
	}
	return defaultConfigPath
}

// resolveSettings reads a config that has already passed validation.
func resolveSettings(cfg *config.Config) (settings, error) {
	hour, minute, err := cfg.ScheduleClock()
	if err != nil {
		return settings{}, err
	}
	loc, err := time.LoadLocation(cfg.Daemon.Timezone)
	if err != nil {
		return settings{}, err
	}
	return settings{
		hour:         hour,
		minute:       minute,
		location:     loc,
		stateFile:    cfg.Daemon.StateFile,
		runOnStartup: cfg.Daemon.RunOnStartup,
	}, nil
}
