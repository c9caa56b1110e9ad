package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
)

// FreePlan is the plan tag of a balance with no active purchase.
const FreePlan = "free"

// Free-tier allowance granted on creation and after a subscription lapses.
const (
	FreeStdCredits = 1
	FreeHDCredits  = 0
)

// Tier is a credit quality tier.
type Tier string

const (
	TierStd Tier = "std"
	TierHD  Tier = "hd"
)

// TierFor maps the HD flag of a request to its tier.
func TierFor(hd bool) Tier {
	if hd {
		return TierHD
	}
	return TierStd
}

func (t Tier) Valid() bool {
	return t == TierStd || t == TierHD
}

// Balance holds one account's credit counters and plan state.
type Balance struct {
	ID            snowflake.ID `gorm:"primaryKey"`
	AccountID     string       `gorm:"type:varchar(191);not null;uniqueIndex:ux_balances_account"`
	RemainingStd  int          `gorm:"not null;default:0"`
	UsedStd       int          `gorm:"not null;default:0"`
	RemainingHD   int          `gorm:"column:remaining_hd;not null;default:0"`
	UsedHD        int          `gorm:"column:used_hd;not null;default:0"`
	CurrentPlan   string       `gorm:"type:varchar(64);not null"`
	PackagePlanID *string      `gorm:"type:varchar(64)"`
	PurchasedAt   time.Time    `gorm:"not null"`
	PlanExpiresAt *time.Time
	CreatedAt     time.Time `gorm:"not null"`
	UpdatedAt     time.Time `gorm:"not null"`
}

// TableName sets the database table name.
func (Balance) TableName() string { return "balances" }

// NewFreeBalance returns the initial balance of an account.
func NewFreeBalance(id snowflake.ID, accountID string, now time.Time) Balance {
	return Balance{
		ID:           id,
		AccountID:    accountID,
		RemainingStd: FreeStdCredits,
		RemainingHD:  FreeHDCredits,
		CurrentPlan:  FreePlan,
		PurchasedAt:  now,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
}

// RefreshIfExpired resets a lapsed subscription to the free tier and reports
// whether anything changed.
func (b *Balance) RefreshIfExpired(now time.Time) bool {
	if b.PlanExpiresAt == nil || !b.PlanExpiresAt.Before(now) {
		return false
	}
	b.RemainingStd = FreeStdCredits
	b.UsedStd = 0
	b.RemainingHD = FreeHDCredits
	b.UsedHD = 0
	b.CurrentPlan = FreePlan
	b.PlanExpiresAt = nil
	b.PurchasedAt = now
	b.UpdatedAt = now
	return true
}

// Remaining returns the remaining credits of a tier.
func (b Balance) Remaining(tier Tier) int {
	if tier == TierHD {
		return b.RemainingHD
	}
	return b.RemainingStd
}

// Apply grants a plan and returns the credits it added.
func (b *Balance) Apply(plan Plan, now time.Time, period time.Duration) (addedStd, addedHD int) {
	switch plan.Kind {
	case PlanKindSubscription:
		b.RemainingStd = plan.Std
		b.UsedStd = 0
		b.RemainingHD = plan.HD
		b.UsedHD = 0
		expires := now.Add(period)
		b.PlanExpiresAt = &expires
	default:
		b.RemainingStd += plan.Std
		b.RemainingHD += plan.HD
		planID := plan.ID
		b.PackagePlanID = &planID
	}
	b.CurrentPlan = plan.ID
	b.PurchasedAt = now
	b.UpdatedAt = now
	return plan.Std, plan.HD
}
