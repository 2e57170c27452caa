package config

import (
	"fmt"
	"sort"
	"strings"
	"time"
)

// Problem is one configuration error within a section.
type Problem struct {
	Section string
	Message string
}

// ValidationErrors collects all validation errors
type ValidationErrors struct {
	Problems []Problem
}

// HasErrors returns true if any validation errors exist
func (e *ValidationErrors) HasErrors() bool {
	return len(e.Problems) > 0
}

// Sections lists the sections with at least one problem, sorted.
func (e *ValidationErrors) Sections() []string {
	seen := make(map[string]bool)
	var out []string
	for _, p := range e.Problems {
		if !seen[p.Section] {
			seen[p.Section] = true
			out = append(out, p.Section)
		}
	}
	sort.Strings(out)
	return out
}

// Error formats all validation errors into a clear message
func (e *ValidationErrors) Error() string {
	var sb strings.Builder
	sb.WriteString("configuration validation failed:\n")

	for _, section := range e.Sections() {
		sb.WriteString(fmt.Sprintf("\n[%s]\n", section))
		for _, p := range e.Problems {
			if p.Section == section {
				sb.WriteString(fmt.Sprintf("  - %s\n", p.Message))
			}
		}
	}

	return sb.String()
}

func (e *ValidationErrors) add(section, format string, args ...any) {
	e.Problems = append(e.Problems, Problem{Section: section, Message: fmt.Sprintf(format, args...)})
}

// addErr records every line of a (possibly joined) component error.
func (e *ValidationErrors) addErr(section string, err error) {
	if err == nil {
		return
	}
	for _, line := range strings.Split(err.Error(), "\n") {
		if line = strings.TrimSpace(line); line != "" {
			e.add(section, "%s", line)
		}
	}
}

// Validate checks every section, reporting all problems at once.
func (c *Config) Validate() error {
	errs := &ValidationErrors{}

	md := c.MarketData
	if !ValidSources[md.Source] {
		errs.add("market_data", "invalid source %q (valid: %s, %s)", md.Source, SourceHTTP, SourceFile)
	}
	switch md.Source {
	case SourceHTTP:
		if md.APIKey == "" {
			errs.add("market_data", "api_key is required for the http source (set SPYFLY_API_KEY env var)")
		}
		if md.BaseURL == "" {
			errs.add("market_data", "base_url is required for the http source")
		}
		if md.RatePerSecond <= 0 {
			errs.add("market_data", "rate_per_second must be positive, got %v", md.RatePerSecond)
		}
		if md.TimeoutSec < 1 {
			errs.add("market_data", "timeout_sec must be >= 1, got %d", md.TimeoutSec)
		}
		if md.RetryCount < 0 {
			errs.add("market_data", "retry_count must be >= 0, got %d", md.RetryCount)
		}
	case SourceFile:
		if md.FixturePath == "" {
			errs.add("market_data", "fixture_path is required for the file source")
		}
	}

	if c.Symbols.Underlying == "" {
		errs.add("symbols", "underlying is required")
	}

	errs.addErr("chain", c.ChainFilter().Validate())
	errs.addErr("sentiment", c.SentimentConfig().Validate())
	errs.addErr("risk", c.RiskConfig().Validate())
	errs.addErr("ranking", c.RankingConfig().Validate())
	errs.addErr("scan", c.SelectorConfig().Validate())
	if c.Scan.AccountSize <= 0 {
		errs.add("scan", "account_size must be positive, got %v", c.Scan.AccountSize)
	}

	if c.Server.Port == "" {
		errs.add("server", "port is required")
	}
	if c.Server.StreamEnabled && c.Server.StreamIntervalSec <= 0 {
		errs.add("server", "stream_interval_sec must be positive when streaming is enabled, got %d", c.Server.StreamIntervalSec)
	}
	if !ValidLogLevels[c.Logging.Level] {
		errs.add("logging", "invalid level %q (valid: debug, info, warn, error)", c.Logging.Level)
	}

	errs.addErr("notify", c.NotifyConfig().Validate())

	if _, _, err := c.ScheduleClock(); err != nil {
		errs.add("daemon", "%v", err)
	}
	if _, err := time.LoadLocation(c.Daemon.Timezone); err != nil {
		errs.add("daemon", "unknown timezone %q", c.Daemon.Timezone)
	}
	if c.Daemon.StateFile == "" {
		errs.add("daemon", "state_file is required")
	}

	if errs.HasErrors() {
		return errs
	}
	return nil
}
