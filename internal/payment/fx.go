package payment

import (
	"github.com/interiohub/interio/internal/config"
	"github.com/interiohub/interio/internal/payment/adapters/robokassa"
	paymentdomain "github.com/interiohub/interio/internal/payment/domain"
	"github.com/interiohub/interio/internal/payment/repository"
	"github.com/interiohub/interio/internal/payment/service"
	"go.uber.org/fx"
)

var Module = fx.Module("payment.service",
	fx.Provide(repository.Provide),
	fx.Provide(func(cfg config.Config) paymentdomain.Gateway {
		return robokassa.New(cfg.Gateway)
	}),
	fx.Provide(service.NewService),
)
