package server

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	artifactdomain "github.com/interiohub/interio/internal/artifact/domain"
	"github.com/interiohub/interio/internal/generation"
	jobdomain "github.com/interiohub/interio/internal/job/domain"
	ledgerdomain "github.com/interiohub/interio/internal/ledger/domain"
	"github.com/interiohub/interio/internal/observability/logger"
	paymentdomain "github.com/interiohub/interio/internal/payment/domain"
	"github.com/interiohub/interio/internal/storage"
	styledomain "github.com/interiohub/interio/internal/style/domain"
	"go.uber.org/zap"
)

// APIError is an error with a fixed HTTP status and machine-readable code.
type APIError struct {
	Status  int    `json:"-"`
	Code    string `json:"code"`
	Message string `json:"message"`
	Field   string `json:"field,omitempty"`
}

func (e *APIError) Error() string { return e.Code }

var (
	ErrUnauthorized = &APIError{Status: http.StatusUnauthorized, Code: "unauthorized", Message: "authentication required"}
	ErrForbidden    = &APIError{Status: http.StatusForbidden, Code: "forbidden", Message: "access denied"}
	ErrNotFound     = &APIError{Status: http.StatusNotFound, Code: "not_found", Message: "resource not found"}
	ErrRateLimited  = &APIError{Status: http.StatusTooManyRequests, Code: "rate_limited", Message: "too many requests"}
)

func invalidRequestError() *APIError {
	return &APIError{Status: http.StatusBadRequest, Code: "invalid_request", Message: "invalid request"}
}

func newValidationError(field, code, message string) *APIError {
	return &APIError{Status: http.StatusBadRequest, Code: code, Message: message, Field: field}
}

// AbortWithError writes the error response for err and stops the chain.
func AbortWithError(c *gin.Context, err error) {
	apiErr := toAPIError(err)
	if apiErr.Status >= http.StatusInternalServerError {
		logger.FromContext(c.Request.Context()).Error("request failed",
			zap.String("route", c.FullPath()),
			zap.Error(err),
		)
	}
	_ = c.Error(err)
	c.AbortWithStatusJSON(apiErr.Status, gin.H{"error": apiErr})
}

func toAPIError(err error) *APIError {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr
	}

	var insufficient *ledgerdomain.InsufficientCreditsError
	if errors.As(err, &insufficient) {
		return &APIError{
			Status:  http.StatusPaymentRequired,
			Code:    "insufficient_credits",
			Message: "no " + string(insufficient.Tier) + " credits left",
			Field:   string(insufficient.Tier),
		}
	}
	var unknownPlan *ledgerdomain.UnknownPlanError
	if errors.As(err, &unknownPlan) {
		return &APIError{Status: http.StatusBadRequest, Code: "unknown_plan", Message: "unknown plan or package", Field: "plan_id"}
	}

	switch {
	case errors.Is(err, ledgerdomain.ErrUnknownPlan):
		return &APIError{Status: http.StatusBadRequest, Code: "unknown_plan", Message: "unknown plan or package", Field: "plan_id"}
	case errors.Is(err, ledgerdomain.ErrInvalidAccount):
		return ErrUnauthorized
	case errors.Is(err, ledgerdomain.ErrInvalidTier):
		return newValidationError("hd", "invalid_tier", "invalid credit tier")

	case errors.Is(err, paymentdomain.ErrInvalidSignature):
		return newValidationError("SignatureValue", "invalid_signature", "bad sign")
	case errors.Is(err, paymentdomain.ErrInvalidPayload):
		return newValidationError("", "invalid_payload", "OutSum, InvId and SignatureValue are required")
	case errors.Is(err, paymentdomain.ErrInvalidAmount):
		return newValidationError("amount", "invalid_amount", "amount must be positive")
	case errors.Is(err, paymentdomain.ErrInvalidInvoice):
		return newValidationError("order_id", "invalid_invoice", "invalid invoice id")
	case errors.Is(err, paymentdomain.ErrPaymentNotFound):
		return &APIError{Status: http.StatusNotFound, Code: "payment_not_found", Message: "payment not found"}
	case errors.Is(err, paymentdomain.ErrPaymentForbidden):
		return &APIError{Status: http.StatusForbidden, Code: "payment_forbidden", Message: "invoice belongs to another account"}
	case errors.Is(err, paymentdomain.ErrAlreadyPaid):
		return &APIError{Status: http.StatusConflict, Code: "payment_already_paid", Message: "invoice already paid"}
	case errors.Is(err, paymentdomain.ErrGatewayNotConfigured):
		return &APIError{Status: http.StatusServiceUnavailable, Code: "gateway_not_configured", Message: "payment gateway is not configured"}

	case errors.Is(err, styledomain.ErrUnknownStyle):
		return newValidationError("style", "unknown_style", "unknown style")
	case errors.Is(err, styledomain.ErrInvalidStyle):
		return newValidationError("style", "invalid_style", "style is required")
	case errors.Is(err, generation.ErrInvalidSource), errors.Is(err, jobdomain.ErrInvalidSource):
		return newValidationError("image_url", "invalid_source", "image_url is required")
	case errors.Is(err, generation.ErrSourceForbidden):
		return &APIError{Status: http.StatusForbidden, Code: "source_forbidden", Message: "image_url is not one of your uploads"}

	case errors.Is(err, artifactdomain.ErrArtifactNotFound):
		return &APIError{Status: http.StatusNotFound, Code: "upload_not_found", Message: "upload not found"}
	case errors.Is(err, artifactdomain.ErrArtifactForbidden):
		return &APIError{Status: http.StatusForbidden, Code: "upload_forbidden", Message: "upload belongs to another account"}
	case errors.Is(err, artifactdomain.ErrArtifactAlreadyLinked):
		return &APIError{Status: http.StatusConflict, Code: "upload_already_linked", Message: "upload already has a result"}
	case errors.Is(err, artifactdomain.ErrInvalidBeforeURL):
		return newValidationError("file", "invalid_upload", "upload reference is required")

	case errors.Is(err, jobdomain.ErrJobNotFound):
		return &APIError{Status: http.StatusNotFound, Code: "job_not_found", Message: "job not found"}
	case errors.Is(err, jobdomain.ErrInvalidJob):
		return invalidRequestError()

	case errors.Is(err, storage.ErrObjectNotFound):
		return &APIError{Status: http.StatusNotFound, Code: "file_not_found", Message: "file not found"}
	case errors.Is(err, storage.ErrInvalidKey):
		return newValidationError("key", "invalid_key", "key is required")
	}

	return &APIError{Status: http.StatusInternalServerError, Code: "internal_error", Message: "internal server error"}
}
