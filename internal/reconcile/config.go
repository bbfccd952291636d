package reconcile

import "time"

// Config controls the reconcile worker loop.
type Config struct {
	PollInterval time.Duration
	RunTimeout   time.Duration
}

func DefaultConfig() Config {
	return Config{
		PollInterval: 60 * time.Second,
		RunTimeout:   15 * time.Second,
	}
}

func (c Config) withDefaults() Config {
	defaults := DefaultConfig()
	if c.PollInterval <= 0 {
		c.PollInterval = defaults.PollInterval
	}
	if c.RunTimeout <= 0 {
		c.RunTimeout = defaults.RunTimeout
	}
	return c
}
