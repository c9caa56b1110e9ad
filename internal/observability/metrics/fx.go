package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/fx"
)

// Module registers every collector on the default registry served at /metrics.
var Module = fx.Module("metrics",
	fx.Provide(
		ConfigFrom,
		func() prometheus.Registerer { return prometheus.DefaultRegisterer },
		NewHTTPMetrics,
		NewJobMetrics,
		NewBillingMetrics,
	),
)
