package migration

import (
	"context"
	"fmt"

	artifactdomain "github.com/interiohub/interio/internal/artifact/domain"
	"github.com/interiohub/interio/internal/config"
	"github.com/interiohub/interio/internal/events"
	jobdomain "github.com/interiohub/interio/internal/job/domain"
	ledgerdomain "github.com/interiohub/interio/internal/ledger/domain"
	paymentdomain "github.com/interiohub/interio/internal/payment/domain"
	styledomain "github.com/interiohub/interio/internal/style/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// Module migrates on start when database.auto_migrate is set.
var Module = fx.Module("migration",
	fx.Invoke(func(lc fx.Lifecycle, cfg config.Config, conn *gorm.DB, log *zap.Logger) {
		if !cfg.Database.AutoMigrate {
			return
		}
		lc.Append(fx.Hook{
			OnStart: func(ctx context.Context) error {
				return RunMigrations(ctx, conn, log)
			},
		})
	}),
)

// Models lists every persisted table in dependency order.
func Models() []any {
	return []any{
		&ledgerdomain.Balance{},
		&paymentdomain.Payment{},
		&events.Record{},
		&artifactdomain.Upload{},
		&styledomain.Stat{},
		&jobdomain.Job{},
	}
}

// RunMigrations creates or updates the schema. Columns are only ever added.
func RunMigrations(ctx context.Context, conn *gorm.DB, log *zap.Logger) error {
	for _, model := range Models() {
		if err := conn.WithContext(ctx).AutoMigrate(model); err != nil {
			return fmt.Errorf("migrate %T: %w", model, err)
		}
	}
	log.Info("schema migrated", zap.Int("tables", len(Models())))
	return nil
}
