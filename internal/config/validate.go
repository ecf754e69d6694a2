package config

import (
	"errors"
	"fmt"
)

// Validate checks the configuration for errors.
func (c *Config) Validate() error {
	var errs []error

	if err := c.YouTube.Validate(); err != nil {
		errs = append(errs, fmt.Errorf("youtube: %w", err))
	}
	if err := c.Defaults.Validate(); err != nil {
		errs = append(errs, fmt.Errorf("defaults: %w", err))
	}
	if err := c.Player.Validate(); err != nil {
		errs = append(errs, fmt.Errorf("player: %w", err))
	}
	if err := c.Cache.Validate(); err != nil {
		errs = append(errs, fmt.Errorf("cache: %w", err))
	}
	if err := c.TUI.Validate(); err != nil {
		errs = append(errs, fmt.Errorf("tui: %w", err))
	}
	if err := c.Log.Validate(); err != nil {
		errs = append(errs, fmt.Errorf("log: %w", err))
	}

	return errors.Join(errs...)
}

// Validate checks YouTubeConfig for errors.
func (c *YouTubeConfig) Validate() error {
	if c.MaxResults < 0 || c.MaxResults > 50 {
		return errors.New("max_results must be between 0 and 50")
	}
	return nil
}

// Validate checks DefaultsConfig for errors.
func (c *DefaultsConfig) Validate() error {
	if c.Volume < 0 || c.Volume > 1 {
		return errors.New("volume must be between 0 and 1")
	}
	switch c.Repeat {
	case "", "off", "all", "one":
		// valid
	default:
		return fmt.Errorf("invalid repeat mode: %s (must be off, all, or one)", c.Repeat)
	}
	return nil
}

// Validate checks PlayerConfig for errors.
func (c *PlayerConfig) Validate() error {
	// Anything faster than one tick per frame is a busy loop.
	if c.PollIntervalMS != 0 && c.PollIntervalMS < 16 {
		return errors.New("poll_interval_ms must be at least 16")
	}
	return nil
}

// Validate checks CacheConfig for errors.
func (c *CacheConfig) Validate() error {
	if c.TTLSeconds < 0 {
		return errors.New("ttl_seconds must be non-negative")
	}
	if c.SweepSeconds < 0 {
		return errors.New("sweep_seconds must be non-negative")
	}
	return nil
}

// Validate checks TUIConfig for errors.
func (c *TUIConfig) Validate() error {
	if c.RefreshMS < 0 {
		return errors.New("refresh_ms must be non-negative")
	}
	return nil
}

// Validate checks LogConfig for errors.
func (c *LogConfig) Validate() error {
	switch c.Level {
	case "", "debug", "info", "warn", "error":
		// valid
	default:
		return fmt.Errorf("invalid log level: %s (must be debug, info, warn, or error)", c.Level)
	}
	return nil
}
