package main

import (
	"github.com/bwmarrin/snowflake"
	"github.com/interiohub/interio/internal/artifact"
	"github.com/interiohub/interio/internal/clock"
	"github.com/interiohub/interio/internal/config"
	"github.com/interiohub/interio/internal/engine"
	"github.com/interiohub/interio/internal/events"
	"github.com/interiohub/interio/internal/generation"
	"github.com/interiohub/interio/internal/job"
	"github.com/interiohub/interio/internal/ledger"
	"github.com/interiohub/interio/internal/migration"
	"github.com/interiohub/interio/internal/observability/logger"
	"github.com/interiohub/interio/internal/observability/metrics"
	"github.com/interiohub/interio/internal/observability/tracing"
	"github.com/interiohub/interio/internal/payment"
	"github.com/interiohub/interio/internal/scheduler"
	"github.com/interiohub/interio/internal/server"
	"github.com/interiohub/interio/internal/storage"
	"github.com/interiohub/interio/internal/style"
	"github.com/interiohub/interio/pkg/db"
	"go.uber.org/fx"
)

// baseOptions is what every process needs: config, observability and a
// database handle.
func baseOptions() []fx.Option {
	return []fx.Option{
		config.Module,
		logger.Module,
		tracing.Module,
		metrics.Module,
		fx.Provide(RegisterSnowflake),
		db.Module,
		clock.Module,
	}
}

// jobOptions are shared by the API and the worker.
func jobOptions() []fx.Option {
	return []fx.Option{
		migration.Module,
		style.Module,
		artifact.Module,
		storage.Module,
		job.Module,
	}
}

func apiOptions() []fx.Option {
	opts := append(baseOptions(), jobOptions()...)
	return append(opts,
		events.Module,
		ledger.Module,
		payment.Module,
		generation.Module,
		server.Module,
	)
}

// pipelineOptions add generation execution and the maintenance sweeps on
// top of jobOptions.
func pipelineOptions() []fx.Option {
	return []fx.Option{
		engine.Module,
		job.WorkerModule,
		scheduler.Module,
	}
}

func RegisterSnowflake(cfg config.Config) (*snowflake.Node, error) {
	return snowflake.NewNode(cfg.SnowflakeNode)
}
