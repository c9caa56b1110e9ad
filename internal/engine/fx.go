package engine

import (
	"net/http"

	"github.com/interiohub/interio/internal/config"
	"github.com/interiohub/interio/internal/engine/domain"
	"github.com/interiohub/interio/internal/engine/gemini"
	"github.com/interiohub/interio/internal/engine/stability"
	"github.com/interiohub/interio/internal/observability/tracing"
	"go.uber.org/fx"
)

var Module = fx.Module("engine",
	fx.Provide(NewGenerator),
	fx.Provide(NewUpscaler),
)

func NewGenerator(cfg config.Config) domain.Generator {
	return gemini.New(cfg.Generation.APIKey,
		gemini.WithBaseURL(cfg.Generation.BaseURL),
		gemini.WithModel(cfg.Generation.Model),
		gemini.WithHTTPClient(tracing.WrapHTTPClient(&http.Client{Timeout: cfg.Generation.Timeout})),
	)
}

func NewUpscaler(cfg config.Config) domain.Upscaler {
	return stability.New(cfg.Upscale.APIKey,
		stability.WithBaseURL(cfg.Upscale.BaseURL),
		stability.WithHTTPClient(tracing.WrapHTTPClient(&http.Client{Timeout: cfg.Upscale.Timeout})),
	)
}
