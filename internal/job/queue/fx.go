package queue

import (
	"context"
	"fmt"
	"strings"

	"github.com/interiohub/interio/internal/config"
	jobdomain "github.com/interiohub/interio/internal/job/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

var Module = fx.Module("job.queue",
	fx.Provide(New),
)

// New selects the queue driver from config and closes it on stop.
func New(lc fx.Lifecycle, cfg config.Config, log *zap.Logger) (jobdomain.Queue, error) {
	q, err := Open(cfg.Queue, log)
	if err != nil {
		return nil, err
	}
	lc.Append(fx.Hook{
		OnStop: func(context.Context) error {
			return q.Close()
		},
	})
	return q, nil
}

func Open(cfg config.QueueConfig, log *zap.Logger) (jobdomain.Queue, error) {
	name := strings.TrimSpace(cfg.Name)
	if name == "" {
		name = "generation_jobs"
	}
	switch strings.ToLower(strings.TrimSpace(cfg.Driver)) {
	case "memory":
		log.Warn("using in-memory job queue; jobs do not survive restarts")
		return NewMemory(0), nil
	case "redis":
		return NewRedis(cfg.RedisURL, name, log)
	case "rabbitmq", "":
		return NewRabbitMQ(cfg.RabbitMQURL, name, cfg.Prefetch, log)
	default:
		return nil, fmt.Errorf("unsupported queue driver %q", cfg.Driver)
	}
}
