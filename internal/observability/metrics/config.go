package metrics

import (
	"strings"

	"github.com/interiohub/interio/internal/config"
)

// Config carries the labels stamped on every instrument.
type Config struct {
	ServiceName string
	Environment string
}

func ConfigFrom(cfg config.Config) Config {
	return Config{
		ServiceName: cfg.AppName,
		Environment: cfg.Environment,
	}
}

func (c Config) constLabels() map[string]string {
	service := strings.TrimSpace(c.ServiceName)
	if service == "" {
		service = "interio"
	}
	env := strings.TrimSpace(c.Environment)
	if env == "" {
		env = "unknown"
	}
	return map[string]string{"service": service, "env": env}
}
