package job

import (
	"net/http"
	"time"

	artifactdomain "github.com/interiohub/interio/internal/artifact/domain"
	"github.com/interiohub/interio/internal/config"
	jobdomain "github.com/interiohub/interio/internal/job/domain"
	"github.com/interiohub/interio/internal/job/queue"
	"github.com/interiohub/interio/internal/job/repository"
	"github.com/interiohub/interio/internal/job/service"
	"github.com/interiohub/interio/internal/job/worker"
	"github.com/interiohub/interio/internal/observability/tracing"
	"github.com/interiohub/interio/internal/storage"
	"github.com/interiohub/interio/internal/style"
	"go.uber.org/fx"
)

const sourceFetchTimeout = 60 * time.Second

// Module provides job control. API processes use it alone; worker processes
// add WorkerModule.
var Module = fx.Module("job.service",
	queue.Module,
	fx.Provide(repository.Provide),
	fx.Provide(service.NewProjector),
	fx.Provide(service.NewService),
)

var WorkerModule = fx.Module("job.pipeline",
	fx.Provide(
		func(catalog *style.Catalog) jobdomain.StyleResolver { return catalog },
		func(stats *style.StatsRepository) jobdomain.UsageCounter { return stats },
		func(artifacts artifactdomain.Service) jobdomain.ArtifactLinker { return artifacts },
		func(store storage.Storage) jobdomain.SourceFetcher {
			return service.NewFetcher(tracing.WrapHTTPClient(&http.Client{Timeout: sourceFetchTimeout}), store)
		},
		func(cfg config.Config) service.OrchestratorSettings {
			return service.OrchestratorSettings{
				UpscalePolicy: cfg.Upscale.UnavailablePolicy,
				OutputFormat:  cfg.Upscale.OutputFormat,
			}
		},
		service.NewOrchestrator,
		func(o *service.Orchestrator) worker.Runner { return o },
	),
	worker.Module,
)
