package notify

import (
	"errors"
	"fmt"
	"time"
)

// Priority is an ntfy message priority name.
type Priority string

const (
	PriorityMin     Priority = "min"
	PriorityLow     Priority = "low"
	PriorityDefault Priority = "default"
	PriorityHigh    Priority = "high"
	PriorityUrgent  Priority = "urgent"
)

// levels maps priority names to the numeric values of the ntfy JSON API.
var levels = map[Priority]int{
	PriorityMin:     1,
	PriorityLow:     2,
	PriorityDefault: 3,
	PriorityHigh:    4,
	PriorityUrgent:  5,
}

// Config holds ntfy notification settings.
type Config struct {
	Enabled  bool
	Server   string // ntfy server URL, e.g. https://ntfy.sh
	Topic    string
	Priority Priority
	Tags     []string
	Token    string // optional access token for private topics
	Timeout  time.Duration
}

// Validate checks the settings when notifications are enabled.
func (c Config) Validate() error {
	if !c.Enabled {
		return nil
	}

	var errs []error
	if c.Server == "" {
		errs = append(errs, errors.New("server is required when notifications are enabled"))
	}
	if c.Topic == "" {
		errs = append(errs, errors.New("topic is required when notifications are enabled"))
	}
	if _, ok := levels[c.Priority]; !ok {
		errs = append(errs, fmt.Errorf("invalid priority %q (valid: min, low, default, high, urgent)", c.Priority))
	}
	if c.Timeout <= 0 {
		errs = append(errs, fmt.Errorf("timeout must be positive, got %s", c.Timeout))
	}
	return errors.Join(errs...)
}
