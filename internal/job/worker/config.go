package worker

import (
	"time"

	"github.com/interiohub/interio/internal/config"
)

// Config bounds the job worker pool.
type Config struct {
	Concurrency int
	HardLimit   time.Duration
	SoftLimit   time.Duration
}

func DefaultConfig() Config {
	return Config{
		Concurrency: 4,
		HardLimit:   300 * time.Second,
		SoftLimit:   240 * time.Second,
	}
}

func ConfigFrom(cfg config.Config) Config {
	return Config{
		Concurrency: cfg.Worker.Concurrency,
		HardLimit:   cfg.Worker.HardLimit,
		SoftLimit:   cfg.Worker.SoftLimit,
	}
}

func (c Config) withDefaults() Config {
	defaults := DefaultConfig()
	if c.Concurrency <= 0 {
		c.Concurrency = defaults.Concurrency
	}
	if c.HardLimit <= 0 {
		c.HardLimit = defaults.HardLimit
	}
	if c.SoftLimit <= 0 || c.SoftLimit >= c.HardLimit {
		c.SoftLimit = c.HardLimit * 4 / 5
	}
	return c
}
