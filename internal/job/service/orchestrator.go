package service

import (
	"context"
	"errors"
	"strings"
	"time"

	artifactdomain "github.com/interiohub/interio/internal/artifact/domain"
	"github.com/interiohub/interio/internal/clock"
	enginedomain "github.com/interiohub/interio/internal/engine/domain"
	jobdomain "github.com/interiohub/interio/internal/job/domain"
	"github.com/interiohub/interio/internal/observability/metrics"
	"github.com/interiohub/interio/internal/observability/tracing"
	"github.com/interiohub/interio/internal/storage"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

// Upscale policies for HD jobs when no upscaler credentials exist.
const (
	PolicyFail        = "fail"
	PolicyPassthrough = "passthrough"
)

const cleanupTimeout = 10 * time.Second

type OrchestratorParams struct {
	fx.In

	Log       *zap.Logger
	Clock     clock.Clock
	Styles    jobdomain.StyleResolver
	Fetcher   jobdomain.SourceFetcher
	Generator enginedomain.Generator
	Upscaler  enginedomain.Upscaler
	Storage   storage.Storage
	Artifacts jobdomain.ArtifactLinker
	Usage     jobdomain.UsageCounter
	Settings  OrchestratorSettings
	Metrics   *metrics.JobMetrics `optional:"true"`
}

// OrchestratorSettings carries the upscale knobs from config.
type OrchestratorSettings struct {
	UpscalePolicy string
	OutputFormat  string
}

// Orchestrator runs one generation job end to end. It never touches credits.
type Orchestrator struct {
	log       *zap.Logger
	clock     clock.Clock
	styles    jobdomain.StyleResolver
	fetcher   jobdomain.SourceFetcher
	generator enginedomain.Generator
	upscaler  enginedomain.Upscaler
	storage   storage.Storage
	artifacts jobdomain.ArtifactLinker
	usage     jobdomain.UsageCounter
	policy    string
	format    string
	metrics   *metrics.JobMetrics
	tracer    trace.Tracer
}

func NewOrchestrator(p OrchestratorParams) *Orchestrator {
	policy := strings.ToLower(strings.TrimSpace(p.Settings.UpscalePolicy))
	if policy != PolicyPassthrough {
		policy = PolicyFail
	}
	format := strings.ToLower(strings.TrimSpace(p.Settings.OutputFormat))
	if format == "" {
		format = "webp"
	}
	return &Orchestrator{
		log:       p.Log.Named("job.orchestrator"),
		clock:     p.Clock,
		styles:    p.Styles,
		fetcher:   p.Fetcher,
		generator: p.Generator,
		upscaler:  p.Upscaler,
		storage:   p.Storage,
		artifacts: p.Artifacts,
		usage:     p.Usage,
		policy:    policy,
		format:    format,
		metrics:   p.Metrics,
		tracer:    tracing.Tracer("job"),
	}
}

// Run executes the pipeline. An unknown style fails before any external call.
func (o *Orchestrator) Run(ctx context.Context, spec jobdomain.Spec) (result jobdomain.Result, err error) {
	ctx, span := o.tracer.Start(ctx, "job.run", trace.WithAttributes(
		attribute.String("style", spec.StyleID),
		attribute.Bool("hd", spec.HD),
	))
	defer func() {
		if err != nil {
			span.RecordError(tracing.SafeError(err))
			span.SetStatus(codes.Error, "job failed")
		}
		span.End()
	}()

	directive, err := o.styles.Resolve(spec.StyleID)
	if err != nil {
		return jobdomain.Result{}, err
	}

	source, mimeType, err := o.step(ctx, "job.fetch", func(ctx context.Context) ([]byte, string, error) {
		return o.fetcher.Fetch(ctx, spec.SourceRef)
	})
	if err != nil {
		o.stageFailed(err)
		return jobdomain.Result{}, err
	}

	image, contentType, err := o.step(ctx, "job.generate", func(ctx context.Context) ([]byte, string, error) {
		return o.generator.Generate(ctx, source, mimeType, directive.Prompt)
	})
	if err != nil {
		err = &jobdomain.EngineError{Stage: jobdomain.StageGenerate, Err: err}
		o.stageFailed(err)
		return jobdomain.Result{}, err
	}

	if spec.HD {
		image, contentType, err = o.upscale(ctx, image, contentType)
		if err != nil {
			o.stageFailed(err)
			return jobdomain.Result{}, err
		}
	}
	if contentType == "" {
		contentType = "image/png"
	}

	key := storage.ResultKey(directive.StyleID, contentType, o.clock.Now())
	if err := o.storage.Put(ctx, key, image, contentType); err != nil {
		err = &jobdomain.StorageError{Op: "put", Err: err}
		o.stageFailed(err)
		return jobdomain.Result{}, err
	}
	url := o.storage.URL(key)

	if err := ctx.Err(); err != nil {
		o.discard(key)
		return jobdomain.Result{}, err
	}
	// A committed link is the point of no return: the stored object is
	// referenced from then on and is never discarded.
	if spec.UploadID != nil {
		if err := o.link(ctx, spec, url, directive.StyleID); err != nil {
			if rejectedLink(err) {
				o.discard(key)
			} else {
				o.log.Warn("artifact link outcome unknown, keeping stored result",
					zap.String("key", key), zap.Error(err))
			}
			return jobdomain.Result{}, err
		}
	}

	if err := o.usage.Increment(ctx, directive.StyleID); err != nil {
		o.log.Warn("style usage increment failed", zap.String("style", directive.StyleID), zap.Error(err))
	}

	return jobdomain.Result{
		URL:         url,
		Key:         key,
		StyleID:     directive.StyleID,
		ContentType: contentType,
		HD:          spec.HD,
		Directive:   directive.Metadata(),
	}, nil
}

func (o *Orchestrator) upscale(ctx context.Context, image []byte, contentType string) ([]byte, string, error) {
	if o.upscaler == nil || !o.upscaler.Configured() {
		if o.policy == PolicyPassthrough {
			o.log.Warn("upscaler not configured, delivering generated image as HD")
			return image, contentType, nil
		}
		return nil, "", &jobdomain.EngineError{Stage: jobdomain.StageUpscale, Err: enginedomain.ErrNotConfigured}
	}
	out, outType, err := o.step(ctx, "job.upscale", func(ctx context.Context) ([]byte, string, error) {
		return o.upscaler.Upscale(ctx, image, o.format)
	})
	if err != nil {
		return nil, "", &jobdomain.EngineError{Stage: jobdomain.StageUpscale, Err: err}
	}
	return out, outType, nil
}

func (o *Orchestrator) step(
	ctx context.Context,
	name string,
	fn func(ctx context.Context) ([]byte, string, error),
) ([]byte, string, error) {
	ctx, span := o.tracer.Start(ctx, name)
	defer span.End()

	data, mimeType, err := fn(ctx)
	if err != nil {
		span.RecordError(tracing.SafeError(err))
		span.SetStatus(codes.Error, name+" failed")
		return nil, "", err
	}
	span.SetAttributes(attribute.Int("bytes", len(data)), attribute.String("mime_type", mimeType))
	return data, mimeType, nil
}

func (o *Orchestrator) stageFailed(err error) {
	var engineErr *jobdomain.EngineError
	if errors.As(err, &engineErr) {
		o.metrics.IncStageFailure(engineErr.Stage)
		return
	}
	var storageErr *jobdomain.StorageError
	if errors.As(err, &storageErr) {
		o.metrics.IncStageFailure("storage_" + storageErr.Op)
	}
}

// link runs detached from the job deadline so a hard-limit cancellation can
// not interrupt a commit that has already reached the database.
func (o *Orchestrator) link(ctx context.Context, spec jobdomain.Spec, url string, styleID string) error {
	linkCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), cleanupTimeout)
	defer cancel()
	return o.artifacts.LinkResult(linkCtx, spec.AccountID, *spec.UploadID, url, styleID)
}

// rejectedLink reports whether the link was refused, leaving nothing pointing
// at the stored object.
func rejectedLink(err error) bool {
	return errors.Is(err, artifactdomain.ErrArtifactForbidden) ||
		errors.Is(err, artifactdomain.ErrArtifactNotFound) ||
		errors.Is(err, artifactdomain.ErrArtifactAlreadyLinked)
}

// discard removes an object stored by a job that later failed.
func (o *Orchestrator) discard(key string) {
	ctx, cancel := context.WithTimeout(context.Background(), cleanupTimeout)
	defer cancel()
	if err := o.storage.Delete(ctx, key); err != nil {
		o.log.Warn("failed to delete orphaned result", zap.String("key", key), zap.Error(err))
	}
}
