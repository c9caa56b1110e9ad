package metrics

import "github.com/prometheus/client_golang/prometheus"

// BillingMetrics counts credit debits, purchases and gateway callbacks.
type BillingMetrics struct {
	consumed   *prometheus.CounterVec
	purchased  *prometheus.CounterVec
	reconciled *prometheus.CounterVec
}

func NewBillingMetrics(registerer prometheus.Registerer, cfg Config) *BillingMetrics {
	if registerer == nil {
		registerer = prometheus.DefaultRegisterer
	}
	constLabels := prometheus.Labels(cfg.constLabels())

	consumed := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name:        "interio_credits_consume_total",
			Help:        "Credit consume attempts by tier.",
			ConstLabels: constLabels,
		},
		[]string{"tier", "result"}, // ok | insufficient | error
	)

	purchased := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name:        "interio_credits_purchase_total",
			Help:        "Plans applied to balances.",
			ConstLabels: constLabels,
		},
		[]string{"kind"}, // package | subscription
	)

	reconciled := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name:        "interio_payments_reconciled_total",
			Help:        "Gateway callbacks by outcome.",
			ConstLabels: constLabels,
		},
		[]string{"result"}, // paid | replay | bad_signature | not_found | error
	)

	registerer.MustRegister(consumed, purchased, reconciled)

	return &BillingMetrics{
		consumed:   consumed,
		purchased:  purchased,
		reconciled: reconciled,
	}
}

func (m *BillingMetrics) IncConsume(tier, result string) {
	if m == nil {
		return
	}
	m.consumed.WithLabelValues(tier, result).Inc()
}

func (m *BillingMetrics) IncPurchase(kind string) {
	if m == nil {
		return
	}
	m.purchased.WithLabelValues(kind).Inc()
}

func (m *BillingMetrics) IncReconcile(result string) {
	if m == nil {
		return
	}
	m.reconciled.WithLabelValues(result).Inc()
}
