package server

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	ledgerdomain "github.com/interiohub/interio/internal/ledger/domain"
)

type balanceResponse struct {
	AccountID     string     `json:"account_id"`
	RemainingStd  int        `json:"remaining_std"`
	UsedStd       int        `json:"used_std"`
	RemainingHD   int        `json:"remaining_hd"`
	UsedHD        int        `json:"used_hd"`
	CurrentPlan   string     `json:"current_plan"`
	PackagePlanID *string    `json:"package_plan_id"`
	PurchasedAt   time.Time  `json:"purchased_at"`
	PlanExpiresAt *time.Time `json:"plan_expires_at"`
}

type purchaseResponse struct {
	balanceResponse
	AddedStd int `json:"added_std"`
	AddedHD  int `json:"added_hd"`
}

func newBalanceResponse(b *ledgerdomain.Balance) balanceResponse {
	return balanceResponse{
		AccountID:     b.AccountID,
		RemainingStd:  b.RemainingStd,
		UsedStd:       b.UsedStd,
		RemainingHD:   b.RemainingHD,
		UsedHD:        b.UsedHD,
		CurrentPlan:   b.CurrentPlan,
		PackagePlanID: b.PackagePlanID,
		PurchasedAt:   b.PurchasedAt,
		PlanExpiresAt: b.PlanExpiresAt,
	}
}

// GetBalance returns the caller's balance, resetting an expired subscription first.
func (s *Server) GetBalance(c *gin.Context) {
	balance, err := s.ledgerSvc.GetOrCreate(c.Request.Context(), accountID(c))
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, newBalanceResponse(balance))
}

type purchaseRequest struct {
	PlanID string `json:"plan_id"`
}

// Purchase applies a plan without payment. Disabled unless
// billing.allow_direct_purchase is set.
func (s *Server) Purchase(c *gin.Context) {
	if !s.cfg.Billing.AllowDirectPurchase {
		AbortWithError(c, ErrNotFound)
		return
	}

	var req purchaseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}
	planID := strings.TrimSpace(req.PlanID)
	if planID == "" {
		AbortWithError(c, newValidationError("plan_id", "plan_id_required", "plan_id is required"))
		return
	}

	result, err := s.ledgerSvc.Purchase(c.Request.Context(), accountID(c), planID)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, purchaseResponse{
		balanceResponse: newBalanceResponse(result.Balance),
		AddedStd:        result.AddedStd,
		AddedHD:         result.AddedHD,
	})
}
