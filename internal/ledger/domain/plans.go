package domain

import (
	"strings"
	"time"

	"github.com/interiohub/interio/internal/config"
)

// DefaultSubscriptionPeriod is used when the catalog does not set one.
const DefaultSubscriptionPeriod = 30 * 24 * time.Hour

type PlanKind string

const (
	PlanKindPackage      PlanKind = "package"
	PlanKindSubscription PlanKind = "subscription"
)

// Plan is one purchasable catalog entry.
type Plan struct {
	ID   string
	Kind PlanKind
	Std  int
	HD   int
}

// PlanCatalog is immutable after construction.
type PlanCatalog struct {
	plans  map[string]Plan
	period time.Duration
}

// NewPlanCatalog builds the catalog from billing config. Plan ids are
// matched case-insensitively.
func NewPlanCatalog(cfg config.BillingConfig) PlanCatalog {
	plans := make(map[string]Plan, len(cfg.Packages)+len(cfg.Subscriptions))
	for id, credits := range cfg.Packages {
		id = normalizePlanID(id)
		plans[id] = Plan{ID: id, Kind: PlanKindPackage, Std: credits.Std, HD: credits.HD}
	}
	for id, credits := range cfg.Subscriptions {
		id = normalizePlanID(id)
		plans[id] = Plan{ID: id, Kind: PlanKindSubscription, Std: credits.Std, HD: credits.HD}
	}
	period := cfg.SubscriptionPeriod
	if period <= 0 {
		period = DefaultSubscriptionPeriod
	}
	return PlanCatalog{plans: plans, period: period}
}

// Lookup resolves a plan id or fails with UnknownPlanError.
func (c PlanCatalog) Lookup(planID string) (Plan, error) {
	plan, ok := c.plans[normalizePlanID(planID)]
	if !ok {
		return Plan{}, &UnknownPlanError{PlanID: planID}
	}
	return plan, nil
}

func (c PlanCatalog) Period() time.Duration { return c.period }

func normalizePlanID(id string) string {
	return strings.ToLower(strings.TrimSpace(id))
}
