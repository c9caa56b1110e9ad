package domain

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"
)

// PurchaseResult reports the balance after a plan was applied.
type PurchaseResult struct {
	Balance  *Balance
	Plan     Plan
	AddedStd int
	AddedHD  int
}

// Service owns per-account balances.
type Service interface {
	GetOrCreate(ctx context.Context, accountID string) (*Balance, error)
	Consume(ctx context.Context, accountID string, tier Tier) (*Balance, error)
	Purchase(ctx context.Context, accountID string, planID string) (*PurchaseResult, error)
	// PurchaseTx applies a plan inside the caller's transaction. It records
	// no metrics; the caller counts the purchase once tx commits.
	PurchaseTx(ctx context.Context, tx *gorm.DB, accountID string, planID string) (*PurchaseResult, error)
}

var (
	ErrInvalidAccount      = errors.New("invalid_account")
	ErrInvalidTier         = errors.New("invalid_tier")
	ErrInsufficientCredits = errors.New("insufficient_credits")
	ErrUnknownPlan         = errors.New("unknown_plan")
)

// InsufficientCreditsError is returned when the tier has no remaining credits.
type InsufficientCreditsError struct {
	Tier Tier
}

func (e *InsufficientCreditsError) Error() string {
	return fmt.Sprintf("insufficient_credits: tier=%s", e.Tier)
}

func (e *InsufficientCreditsError) Is(target error) bool {
	return target == ErrInsufficientCredits
}

// UnknownPlanError is returned for plan ids outside both catalogs.
type UnknownPlanError struct {
	PlanID string
}

func (e *UnknownPlanError) Error() string {
	return fmt.Sprintf("unknown_plan: %q", e.PlanID)
}

func (e *UnknownPlanError) Is(target error) bool {
	return target == ErrUnknownPlan
}
