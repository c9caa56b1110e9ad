package service

import (
	"context"
	"errors"
	"strconv"
	"strings"

	"github.com/bwmarrin/snowflake"
	"github.com/interiohub/interio/internal/clock"
	"github.com/interiohub/interio/internal/events"
	ledgerdomain "github.com/interiohub/interio/internal/ledger/domain"
	"github.com/interiohub/interio/internal/observability/metrics"
	paymentdomain "github.com/interiohub/interio/internal/payment/domain"
	"github.com/shopspring/decimal"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type Params struct {
	fx.In

	DB        *gorm.DB
	Log       *zap.Logger
	GenID     *snowflake.Node
	Clock     clock.Clock
	LedgerSvc ledgerdomain.Service
	Catalog   ledgerdomain.PlanCatalog
	Repo      paymentdomain.Repository
	Gateway   paymentdomain.Gateway
	Outbox    *events.Outbox
	Metrics   *metrics.BillingMetrics `optional:"true"`
}

type Service struct {
	db        *gorm.DB
	log       *zap.Logger
	genID     *snowflake.Node
	clock     clock.Clock
	ledgerSvc ledgerdomain.Service
	catalog   ledgerdomain.PlanCatalog
	repo      paymentdomain.Repository
	gateway   paymentdomain.Gateway
	outbox    *events.Outbox
	metrics   *metrics.BillingMetrics
}

func NewService(p Params) paymentdomain.Service {
	return &Service{
		db:        p.DB,
		log:       p.Log.Named("payment.service"),
		genID:     p.GenID,
		clock:     p.Clock,
		ledgerSvc: p.LedgerSvc,
		catalog:   p.Catalog,
		repo:      p.Repo,
		gateway:   p.Gateway,
		outbox:    p.Outbox,
		metrics:   p.Metrics,
	}
}

func (s *Service) CreatePayment(ctx context.Context, req paymentdomain.CreatePaymentRequest) (*paymentdomain.CreatePaymentResult, error) {
	if s.gateway == nil || !s.gateway.CheckoutConfigured() {
		return nil, paymentdomain.ErrGatewayNotConfigured
	}
	accountID := strings.TrimSpace(req.AccountID)
	if accountID == "" {
		return nil, ledgerdomain.ErrInvalidAccount
	}
	if req.InvoiceID <= 0 {
		return nil, paymentdomain.ErrInvalidInvoice
	}
	if !req.Amount.IsPositive() {
		return nil, paymentdomain.ErrInvalidAmount
	}
	var planID *string
	if raw := strings.TrimSpace(req.PlanID); raw != "" {
		plan, err := s.catalog.Lookup(raw)
		if err != nil {
			return nil, err
		}
		planID = &plan.ID
	}

	outSum := req.Amount.Round(2)
	now := s.clock.Now()

	var payment *paymentdomain.Payment
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		existing, err := s.repo.FindByInvoiceForUpdate(ctx, tx, req.InvoiceID)
		if err != nil {
			return err
		}
		if existing == nil {
			payment = &paymentdomain.Payment{
				ID:          s.genID.Generate(),
				InvoiceID:   req.InvoiceID,
				AccountID:   accountID,
				PlanID:      planID,
				Amount:      outSum,
				Description: req.Description,
				Status:      paymentdomain.StatusPending,
				CreatedAt:   now,
				UpdatedAt:   now,
			}
			return s.repo.Insert(ctx, tx, payment)
		}
		if existing.AccountID != accountID {
			return paymentdomain.ErrPaymentForbidden
		}
		if existing.IsPaid() {
			return paymentdomain.ErrAlreadyPaid
		}
		existing.PlanID = planID
		existing.Amount = outSum
		existing.Description = req.Description
		existing.Status = paymentdomain.StatusPending
		existing.UpdatedAt = now
		payment = existing
		return s.repo.Save(ctx, tx, existing)
	})
	if err != nil {
		return nil, err
	}

	paymentURL, err := s.gateway.CheckoutURL(payment.InvoiceID, outSum.StringFixed(2), payment.Description)
	if err != nil {
		return nil, err
	}

	s.log.Info("payment initiated",
		zap.String("account_id", accountID),
		zap.Int64("invoice_id", payment.InvoiceID),
		zap.String("amount", outSum.StringFixed(2)),
	)
	return &paymentdomain.CreatePaymentResult{Payment: payment, PaymentURL: paymentURL}, nil
}

func (s *Service) Reconcile(ctx context.Context, cb paymentdomain.Callback) (string, error) {
	cb.OutSum = strings.TrimSpace(cb.OutSum)
	cb.InvoiceID = strings.TrimSpace(cb.InvoiceID)
	if s.gateway == nil {
		return "", paymentdomain.ErrGatewayNotConfigured
	}
	if err := s.gateway.VerifyResult(cb); err != nil {
		s.metrics.IncReconcile(reconcileResult(err))
		if errors.Is(err, paymentdomain.ErrInvalidSignature) {
			s.log.Warn("payment callback rejected: bad signature", zap.String("invoice_id", cb.InvoiceID))
		}
		return "", err
	}
	invoiceID, err := strconv.ParseInt(cb.InvoiceID, 10, 64)
	if err != nil {
		s.metrics.IncReconcile("error")
		return "", paymentdomain.ErrInvalidInvoice
	}

	var applied *ledgerdomain.PurchaseResult
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		payment, err := s.repo.FindByInvoiceForUpdate(ctx, tx, invoiceID)
		if err != nil {
			return err
		}
		if payment == nil {
			return paymentdomain.ErrPaymentNotFound
		}
		if payment.IsPaid() {
			return paymentdomain.ErrAlreadyPaid
		}

		if sum, err := decimal.NewFromString(cb.OutSum); err == nil && !sum.Equal(payment.Amount) {
			s.log.Warn("payment callback amount differs from initiated amount",
				zap.Int64("invoice_id", invoiceID),
				zap.String("out_sum", cb.OutSum),
				zap.String("expected", payment.Amount.StringFixed(2)),
			)
		}

		now := s.clock.Now()
		payment.Status = paymentdomain.StatusPaid
		payment.PaidAt = &now
		payment.UpdatedAt = now
		if err := s.repo.Save(ctx, tx, payment); err != nil {
			return err
		}

		planID := ""
		if payment.PlanID != nil {
			planID = *payment.PlanID
		}
		if planID != "" {
			applied, err = s.ledgerSvc.PurchaseTx(ctx, tx, payment.AccountID, planID)
			if err != nil {
				return err
			}
		}

		return s.outbox.PublishTx(ctx, tx, events.Event{
			AccountID: payment.AccountID,
			Type:      events.EventPaymentSettled,
			Payload: events.PaymentPayload{
				InvoiceID: cb.InvoiceID,
				PlanID:    planID,
				Amount:    payment.Amount.StringFixed(2),
			}.ToMap(),
			DedupeKey: "payment:" + cb.InvoiceID,
		})
	})
	switch {
	case errors.Is(err, paymentdomain.ErrAlreadyPaid):
		s.metrics.IncReconcile("replay")
		s.log.Info("payment callback replayed", zap.Int64("invoice_id", invoiceID))
	case err != nil:
		s.metrics.IncReconcile(reconcileResult(err))
		s.log.Error("payment reconcile failed", zap.Int64("invoice_id", invoiceID), zap.Error(err))
		return "", err
	default:
		s.metrics.IncReconcile("paid")
		if applied != nil {
			s.metrics.IncPurchase(string(applied.Plan.Kind))
		}
		s.log.Info("payment settled", zap.Int64("invoice_id", invoiceID))
	}

	return s.gateway.Acknowledge(cb.InvoiceID), nil
}

func reconcileResult(err error) string {
	switch {
	case errors.Is(err, paymentdomain.ErrInvalidSignature):
		return "bad_signature"
	case errors.Is(err, paymentdomain.ErrPaymentNotFound):
		return "not_found"
	default:
		return "error"
	}
}
