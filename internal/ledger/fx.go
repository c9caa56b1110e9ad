package ledger

import (
	"github.com/interiohub/interio/internal/config"
	"github.com/interiohub/interio/internal/ledger/domain"
	"github.com/interiohub/interio/internal/ledger/service"
	"go.uber.org/fx"
)

var Module = fx.Module("ledger.service",
	fx.Provide(func(cfg config.Config) domain.PlanCatalog {
		return domain.NewPlanCatalog(cfg.Billing)
	}),
	fx.Provide(service.NewService),
)
