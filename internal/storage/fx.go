package storage

import (
	"context"
	"fmt"
	"strings"

	"github.com/interiohub/interio/internal/config"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

var Module = fx.Module("storage",
	fx.Provide(New),
)

// New selects the storage driver from config.
func New(cfg config.Config, log *zap.Logger) (Storage, error) {
	urls := NewURLBuilder(cfg.Storage)
	switch strings.ToLower(strings.TrimSpace(cfg.Storage.Driver)) {
	case "memory":
		log.Warn("using in-memory object storage")
		return NewMemory(urls), nil
	case "s3", "":
		return NewS3(context.Background(), cfg.Storage)
	default:
		return nil, fmt.Errorf("unsupported storage driver %q", cfg.Storage.Driver)
	}
}
