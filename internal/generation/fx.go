package generation

import (
	"github.com/interiohub/interio/internal/storage"
	"github.com/interiohub/interio/internal/style"
	"go.uber.org/fx"
)

var Module = fx.Module("generation.gate",
	fx.Provide(func(catalog *style.Catalog) StyleChecker { return catalog }),
	fx.Provide(func(store storage.Storage) SourceLocator { return store }),
	fx.Provide(NewGate),
)
