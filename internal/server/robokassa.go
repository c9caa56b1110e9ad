package server

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/interiohub/interio/internal/observability/logger"
	paymentdomain "github.com/interiohub/interio/internal/payment/domain"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

type createPaymentRequest struct {
	OrderID     int64           `json:"order_id"`
	Amount      decimal.Decimal `json:"amount"`
	Description string          `json:"description"`
	PlanID      string          `json:"plan_id"`
}

// CreatePayment records a pending payment and returns the signed checkout URL.
func (s *Server) CreatePayment(c *gin.Context) {
	var req createPaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	result, err := s.paymentSvc.CreatePayment(c.Request.Context(), paymentdomain.CreatePaymentRequest{
		AccountID:   accountID(c),
		InvoiceID:   req.OrderID,
		Amount:      req.Amount,
		Description: strings.TrimSpace(req.Description),
		PlanID:      req.PlanID,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"payment_url": result.PaymentURL})
}

// RobokassaResult handles the gateway's result notification. Fields are read
// from the form body, falling back to the query string.
func (s *Server) RobokassaResult(c *gin.Context) {
	cb := paymentdomain.Callback{
		OutSum:    callbackField(c, "OutSum"),
		InvoiceID: callbackField(c, "InvId"),
		Signature: callbackField(c, "SignatureValue"),
	}
	logger.FromContext(c.Request.Context()).Info("payment callback received",
		zap.String("inv_id", cb.InvoiceID),
		zap.String("out_sum", cb.OutSum),
		zap.String("signature", logger.MaskSecret(cb.Signature)),
	)

	ack, err := s.paymentSvc.Reconcile(c.Request.Context(), cb)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.String(http.StatusOK, ack)
}

func callbackField(c *gin.Context, name string) string {
	if value, ok := c.GetPostForm(name); ok && strings.TrimSpace(value) != "" {
		return strings.TrimSpace(value)
	}
	return strings.TrimSpace(c.Query(name))
}
