package service

import (
	"context"
	"errors"
	"strings"

	"github.com/bwmarrin/snowflake"
	"github.com/interiohub/interio/internal/clock"
	"github.com/interiohub/interio/internal/events"
	"github.com/interiohub/interio/internal/ledger/domain"
	"github.com/interiohub/interio/internal/observability/metrics"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type Params struct {
	fx.In

	DB      *gorm.DB
	Log     *zap.Logger
	GenID   *snowflake.Node
	Clock   clock.Clock
	Catalog domain.PlanCatalog
	Outbox  *events.Outbox
	Metrics *metrics.BillingMetrics `optional:"true"`
}

type Service struct {
	db      *gorm.DB
	log     *zap.Logger
	genID   *snowflake.Node
	clock   clock.Clock
	catalog domain.PlanCatalog
	outbox  *events.Outbox
	metrics *metrics.BillingMetrics
}

func NewService(p Params) domain.Service {
	return &Service{
		db:      p.DB,
		log:     p.Log.Named("ledger.service"),
		genID:   p.GenID,
		clock:   p.Clock,
		catalog: p.Catalog,
		outbox:  p.Outbox,
		metrics: p.Metrics,
	}
}

func (s *Service) GetOrCreate(ctx context.Context, accountID string) (*domain.Balance, error) {
	accountID, err := normalizeAccount(accountID)
	if err != nil {
		return nil, err
	}

	var balance *domain.Balance
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var err error
		balance, err = s.lockFresh(ctx, tx, accountID)
		return err
	})
	if err != nil {
		return nil, err
	}
	return balance, nil
}

func (s *Service) Consume(ctx context.Context, accountID string, tier domain.Tier) (*domain.Balance, error) {
	accountID, err := normalizeAccount(accountID)
	if err != nil {
		return nil, err
	}
	if !tier.Valid() {
		return nil, domain.ErrInvalidTier
	}

	remainingCol, usedCol := counterColumns(tier)
	var balance *domain.Balance
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		locked, err := s.lockFresh(ctx, tx, accountID)
		if err != nil {
			return err
		}

		// Guarded decrement: a concurrent writer that slipped past the row
		// lock (dialects without FOR UPDATE) still cannot go below zero.
		res := tx.WithContext(ctx).
			Model(&domain.Balance{}).
			Where("id = ? AND "+remainingCol+" > 0", locked.ID).
			Updates(map[string]any{
				remainingCol: gorm.Expr(remainingCol + " - 1"),
				usedCol:      gorm.Expr(usedCol + " + 1"),
				"updated_at": s.clock.Now(),
			})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return &domain.InsufficientCreditsError{Tier: tier}
		}

		var updated domain.Balance
		if err := tx.WithContext(ctx).Where("id = ?", locked.ID).First(&updated).Error; err != nil {
			return err
		}
		balance = &updated

		return s.outbox.PublishTx(ctx, tx, events.Event{
			AccountID: accountID,
			Type:      events.EventCreditsConsumed,
			Payload: events.CreditsPayload{
				Tier:         string(tier),
				RemainingStd: updated.RemainingStd,
				RemainingHD:  updated.RemainingHD,
			}.ToMap(),
		})
	})
	if err != nil {
		if errors.Is(err, domain.ErrInsufficientCredits) {
			s.metrics.IncConsume(string(tier), "insufficient")
		} else {
			s.metrics.IncConsume(string(tier), "error")
		}
		return nil, err
	}

	s.metrics.IncConsume(string(tier), "ok")
	s.log.Debug("credit consumed",
		zap.String("account_id", accountID),
		zap.String("tier", string(tier)),
		zap.Int("remaining", balance.Remaining(tier)),
	)
	return balance, nil
}

func (s *Service) Purchase(ctx context.Context, accountID string, planID string) (*domain.PurchaseResult, error) {
	var result *domain.PurchaseResult
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var err error
		result, err = s.PurchaseTx(ctx, tx, accountID, planID)
		return err
	})
	if err != nil {
		return nil, err
	}
	s.metrics.IncPurchase(string(result.Plan.Kind))
	return result, nil
}

func (s *Service) PurchaseTx(ctx context.Context, tx *gorm.DB, accountID string, planID string) (*domain.PurchaseResult, error) {
	if tx == nil {
		return nil, errors.New("missing_transaction")
	}
	accountID, err := normalizeAccount(accountID)
	if err != nil {
		return nil, err
	}
	plan, err := s.catalog.Lookup(planID)
	if err != nil {
		return nil, err
	}

	balance, err := s.lockFresh(ctx, tx, accountID)
	if err != nil {
		return nil, err
	}

	addedStd, addedHD := balance.Apply(plan, s.clock.Now(), s.catalog.Period())
	if err := tx.WithContext(ctx).Save(balance).Error; err != nil {
		return nil, err
	}

	if err := s.outbox.PublishTx(ctx, tx, events.Event{
		AccountID: accountID,
		Type:      events.EventCreditsGranted,
		Payload: events.CreditsPayload{
			PlanID:       plan.ID,
			AddedStd:     addedStd,
			AddedHD:      addedHD,
			RemainingStd: balance.RemainingStd,
			RemainingHD:  balance.RemainingHD,
		}.ToMap(),
	}); err != nil {
		return nil, err
	}

	s.log.Info("plan applied",
		zap.String("account_id", accountID),
		zap.String("plan_id", plan.ID),
		zap.String("kind", string(plan.Kind)),
		zap.Int("added_std", addedStd),
		zap.Int("added_hd", addedHD),
	)

	return &domain.PurchaseResult{
		Balance:  balance,
		Plan:     plan,
		AddedStd: addedStd,
		AddedHD:  addedHD,
	}, nil
}

// lockFresh creates the balance if missing, locks its row and persists an
// expiry reset before any caller logic sees it.
func (s *Service) lockFresh(ctx context.Context, tx *gorm.DB, accountID string) (*domain.Balance, error) {
	now := s.clock.Now()
	fresh := domain.NewFreeBalance(s.genID.Generate(), accountID, now)
	if err := tx.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "account_id"}},
			DoNothing: true,
		}).
		Create(&fresh).Error; err != nil {
		return nil, err
	}

	var balance domain.Balance
	if err := tx.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("account_id = ?", accountID).
		First(&balance).Error; err != nil {
		return nil, err
	}

	if balance.RefreshIfExpired(now) {
		if err := tx.WithContext(ctx).Save(&balance).Error; err != nil {
			return nil, err
		}
		s.log.Info("subscription expired, balance reset to free tier",
			zap.String("account_id", accountID),
		)
	}
	return &balance, nil
}

func counterColumns(tier domain.Tier) (remaining string, used string) {
	if tier == domain.TierHD {
		return "remaining_hd", "used_hd"
	}
	return "remaining_std", "used_std"
}

func normalizeAccount(accountID string) (string, error) {
	accountID = strings.TrimSpace(accountID)
	if accountID == "" {
		return "", domain.ErrInvalidAccount
	}
	return accountID, nil
}
