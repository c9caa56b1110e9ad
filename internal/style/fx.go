package style

import (
	"github.com/interiohub/interio/internal/config"
	"go.uber.org/fx"
)

var Module = fx.Module("style",
	fx.Provide(func(cfg config.Config) *Catalog { return NewCatalog(cfg) }),
	fx.Provide(NewStatsRepository),
)
